package clients

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/iulianpascalau/social-metrics/common"
)

const defaultInstagramBaseURL = "https://graph.facebook.com/v19.0"

// instagramGroups maps each metric group to the account insight metrics
// fetched in its single upstream call
var instagramGroups = map[string][]string{
	"followers":  {"follower_count"},
	"engagement": {"accounts_engaged", "total_interactions"},
	"reach":      {"reach", "impressions"},
	"clicks":     {"profile_links_taps", "website_clicks"},
}

// instagramClient fetches professional account insights through the Graph API
type instagramClient struct {
	baseURL string
	fetcher *httpFetcher
}

// NewInstagramClient creates a new Instagram account insights client
func NewInstagramClient(baseURL string, timeout time.Duration) *instagramClient {
	if len(baseURL) == 0 {
		baseURL = defaultInstagramBaseURL
	}

	return &instagramClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		fetcher: newHTTPFetcher(timeout),
	}
}

// Platform returns the platform identifier served by this client
func (c *instagramClient) Platform() common.Platform {
	return common.PlatformInstagram
}

// FetchMetricGroup performs one insights call for the group and normalizes the result
func (c *instagramClient) FetchMetricGroup(
	ctx context.Context,
	credential common.Credential,
	resourceID string,
	groupName string,
	timeRange common.TimeRange,
) (*common.NormalizedResponse, error) {
	metrics, ok := instagramGroups[groupName]
	if !ok {
		return nil, unknownGroup(common.PlatformInstagram, groupName)
	}

	url := fmt.Sprintf("%s/%s/insights?metric=%s&period=day", c.baseURL, resourceID, strings.Join(metrics, ","))
	url = appendTimeRange(url, timeRange)

	body, err := c.fetcher.getJSON(ctx, common.PlatformInstagram, groupName, url, credential.AccessToken)
	if err != nil {
		return nil, err
	}

	return parseGraphInsights(common.PlatformInstagram, groupName, resourceID, body)
}

// IsInterfaceNil returns true if the value under the interface is nil
func (c *instagramClient) IsInterfaceNil() bool {
	return c == nil
}
