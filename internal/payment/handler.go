package payment

import (
	"context"

	"payment-failure-monitor/internal/activity"
	"payment-failure-monitor/internal/types"
)

type Notifier interface {
	SendFailureAlert(ctx context.Context, rec types.FailureRecord) error
}

type Recorder interface {
	AppendFailureRow(ctx context.Context, rec types.FailureRecord) error
}

type ChargeFetcher interface {
	FetchCharge(ctx context.Context, id string) (types.Charge, error)
}

// Outcome reports what happened to the two side effects of one failure.
// The effects are independent: one may succeed while the other fails.
type Outcome struct {
	Record    types.FailureRecord
	EmailErr  error
	RecordErr error
}

func (o Outcome) EmailSent() bool { return o.EmailErr == nil }
func (o Outcome) Recorded() bool  { return o.RecordErr == nil }

// FailureHandler turns a failed charge into an alert email and a table row.
type FailureHandler struct {
	Notifier Notifier
	Recorder Recorder
	Log      *activity.Log
}

// Handle normalizes charge and runs the notifier, then the recorder. A notifier
// failure does not stop the recorder; neither failure is returned as an error.
func (h *FailureHandler) Handle(ctx context.Context, charge types.Charge) Outcome {
	rec := types.NewFailureRecord(charge)
	h.Log.Recordf("Processing failed payment: %s", rec.ChargeID)

	return Outcome{
		Record:    rec,
		EmailErr:  h.Notifier.SendFailureAlert(ctx, rec),
		RecordErr: h.Recorder.AppendFailureRow(ctx, rec),
	}
}
