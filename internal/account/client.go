// Package account holds the clients for the remote auth and billing services.
// Both are reached over HTTP with the caller's session cookie forwarded.
package account

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v3/client"
)

var (
	// ErrUnauthenticated means the session is missing, expired or rejected.
	ErrUnauthenticated = errors.New("not authenticated")
	// ErrRejected means the remote service understood the request but refused it.
	ErrRejected = errors.New("request rejected")
	// ErrUpstream means the remote service failed or was unreachable.
	ErrUpstream = errors.New("account upstream error")
)

const maxErrorBody = 256

// result is what one upstream call produced.
type result struct {
	status     int
	setCookies []string
}

// httpClient is the shared transport of the auth and billing clients.
type httpClient struct {
	cc *client.Client
}

func newHTTPClient(baseURL string, timeout time.Duration) httpClient {
	return httpClient{cc: client.New().SetBaseURL(baseURL).SetTimeout(timeout)}
}

// do sends the request and decodes a 2xx JSON body into out (when non-nil).
// Non-2xx statuses are returned in result without decoding; transport and
// 5xx failures become ErrUpstream.
func (h httpClient) do(ctx context.Context, method, path, cookie string, body, out any) (result, error) {
	cfg := client.Config{Ctx: ctx, Body: body}
	if cookie != "" {
		cfg.Header = map[string]string{"Cookie": cookie}
	}

	var (
		resp *client.Response
		err  error
	)
	switch method {
	case http.MethodPost:
		resp, err = h.cc.Post(path, cfg)
	default:
		resp, err = h.cc.Get(path, cfg)
	}
	if err != nil {
		return result{}, fmt.Errorf("%w: %s %s: %v", ErrUpstream, method, path, err)
	}
	defer resp.Close()

	res := result{status: resp.StatusCode()}
	for _, ck := range resp.Cookies() {
		res.setCookies = append(res.setCookies, ck.String())
	}

	if res.status >= 500 {
		b := resp.Body()
		if len(b) > maxErrorBody {
			b = b[:maxErrorBody]
		}
		return res, fmt.Errorf("%w: %s %s: HTTP %d: %s", ErrUpstream, method, path, res.status, b)
	}
	if res.status < 200 || res.status > 299 || out == nil || len(resp.Body()) == 0 {
		return res, nil
	}
	if err := resp.JSON(out); err != nil {
		return res, fmt.Errorf("%w: %s %s: decode response: %v", ErrUpstream, method, path, err)
	}
	return res, nil
}

func (r result) ok() bool {
	return r.status >= 200 && r.status <= 299
}
