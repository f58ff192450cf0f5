package record

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/valyala/fasthttp"

	"payment-failure-monitor/internal/activity"
	"payment-failure-monitor/internal/config"
	"payment-failure-monitor/internal/helpers/fastclient"
	"payment-failure-monitor/internal/types"
)

// APIError is a non-2xx answer from the table store.
type APIError struct {
	Status  int
	Type    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("airtable: status %d: %s", e.Status, e.Type)
	}
	return fmt.Sprintf("airtable: status %d: %s: %s", e.Status, e.Type, e.Message)
}

type Airtable struct {
	Client  *fasthttp.Client
	APIURL  string
	BaseID  string
	Table   string
	APIKey  string
	Timeout time.Duration
	Log     *activity.Log
}

func NewAirtable(cfg config.Config, client *fasthttp.Client, log *activity.Log) *Airtable {
	return &Airtable{
		Client:  client,
		APIURL:  cfg.AirtableAPIURL,
		BaseID:  cfg.AirtableBaseID,
		Table:   cfg.AirtableTable,
		APIKey:  cfg.AirtableAPIKey,
		Timeout: cfg.OutboundTimeout,
		Log:     log,
	}
}

type createRequest struct {
	Records []createRecord `json:"records"`
}

type createRecord struct {
	Fields map[string]any `json:"fields"`
}

type createResponse struct {
	Records []struct {
		ID string `json:"id"`
	} `json:"records"`
}

type errorResponse struct {
	Error json.RawMessage `json:"error"`
}

// AppendFailureRow inserts one row for rec. Failures are logged and returned, never retried.
func (a *Airtable) AppendFailureRow(ctx context.Context, rec types.FailureRecord) error {
	id, err := a.create(ctx, rec)
	if err != nil {
		a.Log.Recordf("Airtable error: %v", err)
		return err
	}
	a.Log.Recordf("Added to Airtable: %s", id)
	return nil
}

func (a *Airtable) endpoint() string {
	return strings.TrimRight(a.APIURL, "/") + "/v0/" + url.PathEscape(a.BaseID) + "/" + url.PathEscape(a.Table)
}

func (a *Airtable) create(ctx context.Context, rec types.FailureRecord) (string, error) {
	body, err := sonic.Marshal(createRequest{Records: []createRecord{{Fields: Fields(rec)}}})
	if err != nil {
		return "", fmt.Errorf("encode airtable row: %w", err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.SetRequestURI(a.endpoint())
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set(fasthttp.HeaderAuthorization, "Bearer "+a.APIKey)
	req.SetBody(body)

	if err := fastclient.Do(ctx, a.Client, req, resp, a.Timeout); err != nil {
		return "", fmt.Errorf("airtable request: %w", err)
	}

	status := resp.StatusCode()
	if status < 200 || status >= 300 {
		return "", decodeAPIError(status, resp.Body())
	}

	var out createResponse
	if err := sonic.Unmarshal(resp.Body(), &out); err != nil {
		return "", fmt.Errorf("decode airtable response: %w", err)
	}
	if len(out.Records) == 0 || out.Records[0].ID == "" {
		return "", errors.New("airtable response contained no record")
	}
	return out.Records[0].ID, nil
}

// Airtable reports errors either as {"error":"NOT_FOUND"} or
// {"error":{"type":"...","message":"..."}}.
func decodeAPIError(status int, body []byte) error {
	apiErr := &APIError{Status: status}
	var envelope errorResponse
	if err := sonic.Unmarshal(body, &envelope); err != nil || len(envelope.Error) == 0 {
		apiErr.Type = fasthttp.StatusMessage(status)
		return apiErr
	}

	var detail struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}
	if err := sonic.Unmarshal(envelope.Error, &detail); err == nil {
		apiErr.Type, apiErr.Message = detail.Type, detail.Message
		return apiErr
	}
	var code string
	if err := sonic.Unmarshal(envelope.Error, &code); err == nil {
		apiErr.Type = code
		return apiErr
	}
	apiErr.Type = fasthttp.StatusMessage(status)
	return apiErr
}
