package anthropicprovider

import (
	"errors"
	"net"
	"net/http"

	anthropic "github.com/anthropics/anthropic-sdk-go"
)

// isRetryableProviderError reports transient failures: rate limiting, request
// timeouts, server errors and network errors.
func isRetryableProviderError(err error) bool {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusTooManyRequests,
			apiErr.StatusCode == http.StatusRequestTimeout,
			apiErr.StatusCode >= http.StatusInternalServerError:
			return true
		}
		return false
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
