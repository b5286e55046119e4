package request

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"syscall"
	"time"

	"github.com/go-resty/resty/v2"
)

// New returns a resty client that honours HTTP_PROXY/HTTPS_PROXY and never retries.
func New(timeout time.Duration) *resty.Client {
	return resty.New().SetTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment, // 通用适配环境变量
	}).SetTimeout(timeout)
}

// WithTransientRetry makes client retry once on transient network errors and 5xx replies.
func WithTransientRetry(client *resty.Client) *resty.Client {
	return client.
		SetRetryCount(1).
		SetRetryWaitTime(500 * time.Millisecond).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			if err != nil {
				return IsTransient(err)
			}
			return resp != nil && resp.StatusCode() >= http.StatusInternalServerError
		})
}

// IsTransient reports whether err belongs to the network error class worth one retry.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	return errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.EOF)
}
