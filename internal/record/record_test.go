package record

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payment-failure-monitor/internal/activity"
	"payment-failure-monitor/internal/helpers/fastclient"
	"payment-failure-monitor/internal/types"
)

func sampleRecord() types.FailureRecord {
	return types.FailureRecord{
		Email:      "a@b.com",
		CustomerID: "cus_1",
		Amount:     1999,
		Method:     "card",
		Reason:     "card_declined",
		ChargeID:   "ch_1",
		Date:       time.Unix(1700000000, 0),
	}
}

func TestFields(t *testing.T) {
	fields := Fields(sampleRecord())

	assert.Equal(t, map[string]any{
		"Customer Email": "a@b.com",
		"Customer ID":    "cus_1",
		"Payment Amount": 19.99,
		"Payment Method": "card",
		"Failure Reason": "card_declined",
		"Failure Date":   "2023-11-14T22:13:20.000Z",
		"Charge ID":      "ch_1",
		"Status":         "Failed",
	}, fields)
}

func newAirtable(t *testing.T, handler http.HandlerFunc) *Airtable {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &Airtable{
		Client:  fastclient.New(),
		APIURL:  srv.URL,
		BaseID:  "appTEST",
		Table:   "Failed Payments",
		APIKey:  "key_123",
		Timeout: 2 * time.Second,
		Log:     activity.New(activity.DefaultCapacity),
	}
}

func TestAirtable_AppendFailureRow(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody struct {
		Records []struct {
			Fields map[string]any `json:"fields"`
		} `json:"records"`
	}
	a := newAirtable(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		gotAuth = r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"records":[{"id":"recABC","fields":{}}]}`))
	})

	err := a.AppendFailureRow(context.Background(), sampleRecord())

	require.NoError(t, err)
	assert.Equal(t, "/v0/appTEST/Failed%20Payments", gotPath)
	assert.Equal(t, "Bearer key_123", gotAuth)
	require.Len(t, gotBody.Records, 1)
	assert.Equal(t, "ch_1", gotBody.Records[0].Fields["Charge ID"])
	assert.Equal(t, 19.99, gotBody.Records[0].Fields["Payment Amount"])
	assert.Equal(t, []string{"Added to Airtable: recABC"}, a.Log.Messages())
}

func TestAirtable_APIErrorIsLoggedAndReturned(t *testing.T) {
	a := newAirtable(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"type":"INVALID_PERMISSIONS","message":"nope"}}`))
	})

	err := a.AppendFailureRow(context.Background(), sampleRecord())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
	assert.Equal(t, "INVALID_PERMISSIONS", apiErr.Type)
	assert.Equal(t, "nope", apiErr.Message)
	require.Len(t, a.Log.Messages(), 1)
	assert.Contains(t, a.Log.Messages()[0], "Airtable error: ")
}

func TestAirtable_StringErrorCode(t *testing.T) {
	a := newAirtable(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"NOT_FOUND"}`))
	})

	err := a.AppendFailureRow(context.Background(), sampleRecord())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "NOT_FOUND", apiErr.Type)
}

func TestAirtable_CanceledContextSkipsRequest(t *testing.T) {
	called := false
	a := newAirtable(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := a.AppendFailureRow(ctx, sampleRecord())

	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

type fakeStream struct {
	args   *redis.XAddArgs
	result *redis.StringCmd
}

func (f *fakeStream) XAdd(_ context.Context, a *redis.XAddArgs) *redis.StringCmd {
	f.args = a
	return f.result
}

func TestRedisStream_AppendFailureRow(t *testing.T) {
	fake := &fakeStream{result: redis.NewStringResult("1700000000000-0", nil)}
	r := NewRedisStream(fake, "failed_payments", activity.New(activity.DefaultCapacity))

	err := r.AppendFailureRow(context.Background(), sampleRecord())

	require.NoError(t, err)
	require.NotNil(t, fake.args)
	assert.Equal(t, "failed_payments", fake.args.Stream)
	assert.Equal(t, int64(DefaultStreamMaxLen), fake.args.MaxLen)
	assert.True(t, fake.args.Approx)
	values := fake.args.Values.([]any)
	assert.Contains(t, values, "19.99")
	assert.Contains(t, values, "Failed")
	assert.Equal(t, []string{"Added to Redis stream: 1700000000000-0"}, r.Log.Messages())
}

func TestRedisStream_ErrorIsLogged(t *testing.T) {
	fake := &fakeStream{result: redis.NewStringResult("", errors.New("connection refused"))}
	r := NewRedisStream(fake, "failed_payments", activity.New(activity.DefaultCapacity))

	err := r.AppendFailureRow(context.Background(), sampleRecord())

	require.Error(t, err)
	assert.Contains(t, r.Log.Messages()[0], "Redis error: ")
	assert.Contains(t, r.Log.Messages()[0], "connection refused")
}
