package clients

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/iulianpascalau/social-metrics/common"
)

const defaultXBaseURL = "https://api.x.com/2"

// xGroups maps each metric group to the public user counters extracted from
// the single users lookup call
var xGroups = map[string][]flatMetric{
	"followers": {
		{metric: "followers_count", path: "data.public_metrics.followers_count"},
		{metric: "following_count", path: "data.public_metrics.following_count"},
	},
	"engagement": {
		{metric: "posts_count", path: "data.public_metrics.tweet_count"},
		{metric: "listed_count", path: "data.public_metrics.listed_count"},
	},
}

// xClient fetches public user metrics from the X API
type xClient struct {
	baseURL string
	fetcher *httpFetcher
}

// NewXClient creates a new X user metrics client
func NewXClient(baseURL string, timeout time.Duration) *xClient {
	if len(baseURL) == 0 {
		baseURL = defaultXBaseURL
	}

	return &xClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		fetcher: newHTTPFetcher(timeout),
	}
}

// Platform returns the platform identifier served by this client
func (c *xClient) Platform() common.Platform {
	return common.PlatformX
}

// FetchMetricGroup performs one users lookup call for the group and normalizes the result
func (c *xClient) FetchMetricGroup(
	ctx context.Context,
	credential common.Credential,
	resourceID string,
	groupName string,
	timeRange common.TimeRange,
) (*common.NormalizedResponse, error) {
	metrics, ok := xGroups[groupName]
	if !ok {
		return nil, unknownGroup(common.PlatformX, groupName)
	}

	url := fmt.Sprintf("%s/users/%s?user.fields=public_metrics", c.baseURL, resourceID)

	body, err := c.fetcher.getJSON(ctx, common.PlatformX, groupName, url, credential.AccessToken)
	if err != nil {
		return nil, err
	}

	return parseFlatCounters(common.PlatformX, groupName, resourceID, body, metrics, "data.name")
}

// IsInterfaceNil returns true if the value under the interface is nil
func (c *xClient) IsInterfaceNil() bool {
	return c == nil
}
