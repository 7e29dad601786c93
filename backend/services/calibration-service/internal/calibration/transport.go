package calibration

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Transport performs a single calibration request. A non-2xx status is not an
// error; body is only populated for a 200 response.
type Transport interface {
	Send(ctx context.Context, endpoint string, payload Payload) (status int, body []byte, err error)
}

// TransportOptions tunes the HTTP transport. Zero values mean no timeout and no retry.
type TransportOptions struct {
	Timeout    time.Duration
	RetryCount int
	RetryWait  time.Duration
}

// HTTPTransport posts payloads with resty. Connections are not reused between calls.
type HTTPTransport struct {
	client *resty.Client
	logger *zap.Logger
}

// NewHTTPTransport builds a transport on a fresh resty client.
func NewHTTPTransport(opts TransportOptions, logger *zap.Logger) *HTTPTransport {
	return NewHTTPTransportWithClient(&http.Client{}, opts, logger)
}

// NewHTTPTransportWithClient builds a transport around an existing *http.Client.
func NewHTTPTransportWithClient(hc *http.Client, opts TransportOptions, logger *zap.Logger) *HTTPTransport {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.RetryCount < 0 {
		opts.RetryCount = 0
	}
	if opts.Timeout < 0 {
		opts.Timeout = 0
	}
	client := resty.NewWithClient(hc).
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.RetryCount).
		SetCloseConnection(true).
		SetLogger(logger.Sugar()).
		SetHeader("Accept", "application/json")
	if opts.RetryWait > 0 {
		client.SetRetryWaitTime(opts.RetryWait).SetRetryMaxWaitTime(opts.RetryWait)
	}

	return &HTTPTransport{
		client: client,
		logger: logger,
	}
}

// Send issues the POST and reads the body only when the status is exactly 200.
func (t *HTTPTransport) Send(ctx context.Context, endpoint string, payload Payload) (int, []byte, error) {
	resp, err := t.client.R().
		SetContext(ctx).
		SetBody(payload).
		SetDoNotParseResponse(true).
		Post(endpoint)
	if err != nil {
		t.logger.Warn("calibration request failed", zap.String("endpoint", endpoint), zap.Error(err))
		closeBody(resp)
		return 0, nil, &TransportError{Endpoint: endpoint, Err: err}
	}
	if resp == nil || resp.RawResponse == nil {
		return 0, nil, &TransportError{Endpoint: endpoint, Err: errors.New("no response received")}
	}
	defer closeBody(resp)

	status := resp.StatusCode()
	if status != http.StatusOK {
		t.logger.Warn("calibration service returned non-success",
			zap.String("endpoint", endpoint),
			zap.Int("status", status),
		)
		return status, nil, nil
	}

	body, err := io.ReadAll(resp.RawBody())
	if err != nil {
		return status, nil, &TransportError{Endpoint: endpoint, Err: err}
	}
	return status, body, nil
}

func closeBody(resp *resty.Response) {
	if resp == nil || resp.RawResponse == nil || resp.RawResponse.Body == nil {
		return
	}
	_ = resp.RawResponse.Body.Close()
}
