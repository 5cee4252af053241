package clients

import (
	"fmt"

	"github.com/iulianpascalau/social-metrics/common"
	"github.com/tidwall/gjson"
)

// parseGraphInsights normalizes the Graph-API insights shape shared by
// Facebook and Instagram:
//
//	{"data":[{"name":"page_fans","period":"day","values":[{"value":1204,"end_time":"..."}]}]}
//
// into metric name -> period -> latest bucketed value.
func parseGraphInsights(platform common.Platform, group string, resourceID string, body []byte) (*common.NormalizedResponse, error) {
	data := gjson.GetBytes(body, "data")
	if !data.Exists() || !data.IsArray() {
		return nil, malformed(platform, group, "missing data array")
	}

	metrics := make(map[string]map[string]float64)
	for _, item := range data.Array() {
		name := item.Get("name").String()
		if len(name) == 0 {
			return nil, malformed(platform, group, "metric entry without a name")
		}

		period := item.Get("period").String()
		if len(period) == 0 {
			period = "lifetime"
		}

		values := item.Get("values").Array()
		if len(values) == 0 {
			continue
		}

		latest := values[len(values)-1].Get("value")
		if !latest.Exists() {
			return nil, malformed(platform, group, fmt.Sprintf("metric %s has a bucket without a value", name))
		}

		if metrics[name] == nil {
			metrics[name] = make(map[string]float64)
		}
		metrics[name][period] = latest.Float()
	}

	if len(metrics) == 0 {
		return nil, malformed(platform, group, "no metric values in response")
	}

	return &common.NormalizedResponse{
		ResourceID: resourceID,
		Metrics:    metrics,
	}, nil
}

// flatMetric binds one normalized metric name to the JSON path holding its
// flat counter in the platform response
type flatMetric struct {
	metric string
	path   string
}

// parseFlatCounters normalizes the flat-counter shape used by LinkedIn and X.
// Every listed path must resolve, otherwise the response is malformed. Flat
// counters have no time buckets so they land under the lifetime period.
func parseFlatCounters(platform common.Platform, group string, resourceID string, body []byte, wanted []flatMetric, namePath string) (*common.NormalizedResponse, error) {
	metrics := make(map[string]map[string]float64, len(wanted))
	for _, fm := range wanted {
		value := gjson.GetBytes(body, fm.path)
		if !value.Exists() {
			return nil, malformed(platform, group, "missing field "+fm.path)
		}

		metrics[fm.metric] = map[string]float64{
			"lifetime": value.Float(),
		}
	}

	resourceName := ""
	if len(namePath) > 0 {
		resourceName = gjson.GetBytes(body, namePath).String()
	}

	return &common.NormalizedResponse{
		ResourceID:   resourceID,
		ResourceName: resourceName,
		Metrics:      metrics,
	}, nil
}

func appendTimeRange(url string, timeRange common.TimeRange) string {
	if timeRange.Since > 0 {
		url = fmt.Sprintf("%s&since=%d", url, timeRange.Since)
	}
	if timeRange.Until > 0 {
		url = fmt.Sprintf("%s&until=%d", url, timeRange.Until)
	}

	return url
}
