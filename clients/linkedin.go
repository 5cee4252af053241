package clients

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/iulianpascalau/social-metrics/common"
)

const defaultLinkedinBaseURL = "https://api.linkedin.com/v2"

const linkedinShareStatsPath = "/organizationalEntityShareStatistics?q=organizationalEntity&organizationalEntity=urn:li:organization:%s"

// linkedinGroups maps each metric group to its endpoint (relative to the base
// URL, %s is the organization id) and the flat counters extracted from it
var linkedinGroups = map[string]struct {
	path    string
	metrics []flatMetric
}{
	"followers": {
		path: "/networkSizes/urn:li:organization:%s?edgeType=COMPANY_FOLLOWED_BY_MEMBER",
		metrics: []flatMetric{
			{metric: "followers_count", path: "firstDegreeSize"},
		},
	},
	"engagement": {
		path: linkedinShareStatsPath,
		metrics: []flatMetric{
			{metric: "likes", path: "elements.0.totalShareStatistics.likeCount"},
			{metric: "comments", path: "elements.0.totalShareStatistics.commentCount"},
			{metric: "shares", path: "elements.0.totalShareStatistics.shareCount"},
		},
	},
	"reach": {
		path: linkedinShareStatsPath,
		metrics: []flatMetric{
			{metric: "impressions", path: "elements.0.totalShareStatistics.impressionCount"},
			{metric: "unique_impressions", path: "elements.0.totalShareStatistics.uniqueImpressionsCount"},
		},
	},
	"clicks": {
		path: linkedinShareStatsPath,
		metrics: []flatMetric{
			{metric: "clicks", path: "elements.0.totalShareStatistics.clickCount"},
		},
	},
}

// linkedinClient fetches organization statistics from the LinkedIn REST API
type linkedinClient struct {
	baseURL string
	fetcher *httpFetcher
}

// NewLinkedinClient creates a new LinkedIn organization statistics client
func NewLinkedinClient(baseURL string, timeout time.Duration) *linkedinClient {
	if len(baseURL) == 0 {
		baseURL = defaultLinkedinBaseURL
	}

	return &linkedinClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		fetcher: newHTTPFetcher(timeout),
	}
}

// Platform returns the platform identifier served by this client
func (c *linkedinClient) Platform() common.Platform {
	return common.PlatformLinkedin
}

// FetchMetricGroup performs one statistics call for the group and normalizes the result
func (c *linkedinClient) FetchMetricGroup(
	ctx context.Context,
	credential common.Credential,
	resourceID string,
	groupName string,
	timeRange common.TimeRange,
) (*common.NormalizedResponse, error) {
	group, ok := linkedinGroups[groupName]
	if !ok {
		return nil, unknownGroup(common.PlatformLinkedin, groupName)
	}

	url := c.baseURL + fmt.Sprintf(group.path, resourceID)

	body, err := c.fetcher.getJSON(ctx, common.PlatformLinkedin, groupName, url, credential.AccessToken)
	if err != nil {
		return nil, err
	}

	return parseFlatCounters(common.PlatformLinkedin, groupName, resourceID, body, group.metrics, "")
}

// IsInterfaceNil returns true if the value under the interface is nil
func (c *linkedinClient) IsInterfaceNil() bool {
	return c == nil
}
