package clients

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/iulianpascalau/social-metrics/common"
)

// ErrorClass is the small fixed taxonomy derived from the upstream HTTP
// status, used by callers to decide on stale-serving fallback
type ErrorClass string

// The classes an upstream failure can be tagged with
const (
	ClassUnauthorized  ErrorClass = "Unauthorized"
	ClassForbidden     ErrorClass = "Forbidden"
	ClassNotFound      ErrorClass = "NotFound"
	ClassRateLimited   ErrorClass = "RateLimited"
	ClassUpstreamError ErrorClass = "UpstreamError"
	ClassMalformed     ErrorClass = "Malformed"
)

// ClassifiedError tags one failed metric group fetch with its error class
type ClassifiedError struct {
	Class      ErrorClass
	StatusCode int
	Platform   common.Platform
	Group      string
	Message    string
}

// Error returns the string representation of the classified error
func (e *ClassifiedError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s (%d) on %s/%s: %s", e.Class, e.StatusCode, e.Platform, e.Group, e.Message)
	}

	return fmt.Sprintf("%s on %s/%s: %s", e.Class, e.Platform, e.Group, e.Message)
}

// ClassifyStatus maps an upstream HTTP status code to its error class
func ClassifyStatus(statusCode int) ErrorClass {
	switch statusCode {
	case http.StatusUnauthorized:
		return ClassUnauthorized
	case http.StatusForbidden:
		return ClassForbidden
	case http.StatusNotFound:
		return ClassNotFound
	case http.StatusTooManyRequests:
		return ClassRateLimited
	default:
		return ClassUpstreamError
	}
}

// ShouldServeStale is the single fallback-decision function: it returns true
// for the classes where a previously cached successful response may be served
// in place of the failed live fetch. A malformed response is not in the set
// because it signals a contract break that stale data would only mask.
func ShouldServeStale(class ErrorClass) bool {
	switch class {
	case ClassUnauthorized, ClassForbidden, ClassNotFound, ClassRateLimited, ClassUpstreamError:
		return true
	default:
		return false
	}
}

// ClassOf extracts the error class carried by err, if any
func ClassOf(err error) (ErrorClass, bool) {
	var classified *ClassifiedError
	if errors.As(err, &classified) {
		return classified.Class, true
	}

	return "", false
}
