package httpclient

import (
	"net/http"
	"time"

	"freightdesk/internal/core/logger"

	"go.uber.org/zap"
)

// DefaultUserAgent identifies portal requests in API access logs.
const DefaultUserAgent = "freightdesk-portal/1.0"

// LoggingRoundTripper stamps outgoing requests and logs their outcome.
type LoggingRoundTripper struct {
	// Proxied is the underlying RoundTripper to execute the request.
	Proxied http.RoundTripper
	// UserAgent is set on requests that do not carry one.
	UserAgent string
}

// RoundTrip executes the request and logs details. Header values are never
// logged since they carry bearer tokens.
func (lrt *LoggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	log := logger.Named("http-client")

	if lrt.UserAgent != "" && req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", lrt.UserAgent)
	}

	log.Debug("HTTP Request Started",
		zap.String("method", req.Method),
		zap.String("url", req.URL.Redacted()),
	)

	resp, err := lrt.Proxied.RoundTrip(req)

	duration := time.Since(start)

	if err != nil {
		log.Error("HTTP Request Failed",
			zap.String("method", req.Method),
			zap.String("url", req.URL.Redacted()),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return nil, err
	}

	log.Debug("HTTP Request Completed",
		zap.String("method", req.Method),
		zap.String("url", req.URL.Redacted()),
		zap.Int("status_code", resp.StatusCode),
		zap.String("ray_id", resp.Header.Get("X-Ray-ID")),
		zap.Duration("duration", duration),
	)

	return resp, nil
}

// NewClient returns an http.Client with logging middleware. A zero timeout
// leaves the deadline to the request context, which uploads rely on.
func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: &LoggingRoundTripper{
			Proxied:   http.DefaultTransport,
			UserAgent: DefaultUserAgent,
		},
		Timeout: timeout,
	}
}
