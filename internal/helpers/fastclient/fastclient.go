package fastclient

import (
	"context"
	"time"

	"github.com/valyala/fasthttp"
)

// New returns a fasthttp client tuned for a handful of low-volume API calls.
func New() *fasthttp.Client {
	return &fasthttp.Client{
		MaxConnsPerHost:     16,
		MaxIdleConnDuration: 30 * time.Second,
		ReadTimeout:         30 * time.Second,
		WriteTimeout:        30 * time.Second,
	}
}

// Do executes req, bounded by timeout and by the deadline of ctx, whichever is
// sooner. A non-positive timeout with no ctx deadline waits indefinitely.
func Do(ctx context.Context, client *fasthttp.Client, req *fasthttp.Request, resp *fasthttp.Response, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	deadline, ok := ctx.Deadline()
	if timeout > 0 {
		if d := time.Now().Add(timeout); !ok || d.Before(deadline) {
			deadline, ok = d, true
		}
	}
	if !ok {
		return client.Do(req, resp)
	}
	return client.DoDeadline(req, resp, deadline)
}
