package clients

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/iulianpascalau/social-metrics/common"
)

const defaultFacebookBaseURL = "https://graph.facebook.com/v19.0"

// facebookGroups maps each metric group to the page insight metrics fetched
// in its single upstream call
var facebookGroups = map[string][]string{
	"followers":  {"page_fans", "page_fan_adds"},
	"engagement": {"page_post_engagements", "page_actions_post_reactions_like_total"},
	"reach":      {"page_impressions", "page_impressions_unique"},
	"clicks":     {"page_consumptions", "page_website_clicks"},
}

// facebookClient fetches page insights from the Facebook Graph API
type facebookClient struct {
	baseURL string
	fetcher *httpFetcher
}

// NewFacebookClient creates a new Facebook page insights client
func NewFacebookClient(baseURL string, timeout time.Duration) *facebookClient {
	if len(baseURL) == 0 {
		baseURL = defaultFacebookBaseURL
	}

	return &facebookClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		fetcher: newHTTPFetcher(timeout),
	}
}

// Platform returns the platform identifier served by this client
func (c *facebookClient) Platform() common.Platform {
	return common.PlatformFacebook
}

// FetchMetricGroup performs one insights call for the group and normalizes the result
func (c *facebookClient) FetchMetricGroup(
	ctx context.Context,
	credential common.Credential,
	resourceID string,
	groupName string,
	timeRange common.TimeRange,
) (*common.NormalizedResponse, error) {
	metrics, ok := facebookGroups[groupName]
	if !ok {
		return nil, unknownGroup(common.PlatformFacebook, groupName)
	}

	url := fmt.Sprintf("%s/%s/insights?metric=%s", c.baseURL, resourceID, strings.Join(metrics, ","))
	url = appendTimeRange(url, timeRange)

	body, err := c.fetcher.getJSON(ctx, common.PlatformFacebook, groupName, url, credential.AccessToken)
	if err != nil {
		return nil, err
	}

	return parseGraphInsights(common.PlatformFacebook, groupName, resourceID, body)
}

// IsInterfaceNil returns true if the value under the interface is nil
func (c *facebookClient) IsInterfaceNil() bool {
	return c == nil
}
