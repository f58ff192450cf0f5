// Package stripe fetches charge objects from the payment processor API.
package stripe

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/valyala/fasthttp"

	"payment-failure-monitor/internal/config"
	"payment-failure-monitor/internal/helpers/fastclient"
	"payment-failure-monitor/internal/types"
)

var ErrChargeNotFound = errors.New("charge not found")

// APIError is a non-2xx answer from the processor API.
type APIError struct {
	Status  int
	Type    string
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("stripe: status %d: %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	if e.Status == fasthttp.StatusNotFound {
		return ErrChargeNotFound
	}
	return nil
}

type Client struct {
	HTTP      *fasthttp.Client
	APIURL    string
	SecretKey string
	Timeout   time.Duration
}

func NewClient(cfg config.Config, client *fasthttp.Client) *Client {
	return &Client{
		HTTP:      client,
		APIURL:    cfg.StripeAPIURL,
		SecretKey: cfg.StripeSecretKey,
		Timeout:   cfg.OutboundTimeout,
	}
}

type errorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// FetchCharge retrieves the full charge object for id.
func (c *Client) FetchCharge(ctx context.Context, id string) (types.Charge, error) {
	if strings.TrimSpace(id) == "" {
		return types.Charge{}, errors.New("charge id is required")
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.SetRequestURI(strings.TrimRight(c.APIURL, "/") + "/v1/charges/" + url.PathEscape(id))
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set(fasthttp.HeaderAuthorization, "Bearer "+c.SecretKey)

	if err := fastclient.Do(ctx, c.HTTP, req, resp, c.Timeout); err != nil {
		return types.Charge{}, fmt.Errorf("fetch charge %s: %w", id, err)
	}

	status := resp.StatusCode()
	if status != fasthttp.StatusOK {
		apiErr := &APIError{Status: status, Message: fasthttp.StatusMessage(status)}
		var body errorResponse
		if err := sonic.Unmarshal(resp.Body(), &body); err == nil && body.Error.Message != "" {
			apiErr.Type = body.Error.Type
			apiErr.Code = body.Error.Code
			apiErr.Message = body.Error.Message
		}
		return types.Charge{}, apiErr
	}

	var charge types.Charge
	if err := sonic.Unmarshal(resp.Body(), &charge); err != nil {
		return types.Charge{}, fmt.Errorf("decode charge %s: %w", id, err)
	}
	return charge, nil
}
