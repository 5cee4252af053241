package clients

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/iulianpascalau/social-metrics/common"
	logger "github.com/multiversx/mx-chain-logger-go"
)

var log = logger.GetOrCreate("clients")

// httpFetcher is the shared transport glue for all platform clients. It never
// retries: retry and fallback policy belong to the orchestrator layer.
type httpFetcher struct {
	client *http.Client
}

func newHTTPFetcher(timeout time.Duration) *httpFetcher {
	return &httpFetcher{
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// getJSON issues one authenticated GET and returns the raw body, tagging any
// failure with its error class
func (f *httpFetcher) getJSON(ctx context.Context, platform common.Platform, group string, url string, accessToken string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &ClassifiedError{
			Class:    ClassUpstreamError,
			Platform: platform,
			Group:    group,
			Message:  err.Error(),
		}
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := f.client.Do(req)
	if err != nil {
		// Transport failures and timeouts are upstream errors
		return nil, &ClassifiedError{
			Class:    ClassUpstreamError,
			Platform: platform,
			Group:    group,
			Message:  err.Error(),
		}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ClassifiedError{
			Class:      ClassUpstreamError,
			StatusCode: resp.StatusCode,
			Platform:   platform,
			Group:      group,
			Message:    err.Error(),
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Debug("upstream returned non-2xx status",
			"platform", platform, "group", group, "status", resp.StatusCode)

		return nil, &ClassifiedError{
			Class:      ClassifyStatus(resp.StatusCode),
			StatusCode: resp.StatusCode,
			Platform:   platform,
			Group:      group,
			Message:    http.StatusText(resp.StatusCode),
		}
	}

	return body, nil
}

func malformed(platform common.Platform, group string, message string) *ClassifiedError {
	return &ClassifiedError{
		Class:    ClassMalformed,
		Platform: platform,
		Group:    group,
		Message:  message,
	}
}

func unknownGroup(platform common.Platform, group string) *ClassifiedError {
	return &ClassifiedError{
		Class:    ClassNotFound,
		Platform: platform,
		Group:    group,
		Message:  "unknown metric group",
	}
}
