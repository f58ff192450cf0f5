package payment

import (
	"context"
	"errors"

	"payment-failure-monitor/internal/activity"
)

// Result describes how one syntactically valid webhook was dispatched. The
// caller acknowledges the webhook whatever the Result holds.
type Result struct {
	Event Event
	// Outcome is nil when no failure was handled.
	Outcome *Outcome
	// FetchErr is set when an invoice charge could not be retrieved.
	FetchErr error
	// InvalidErr is set when a known event type carried an unusable object.
	InvalidErr error
}

func (r Result) Handled() bool { return r.Outcome != nil }

type Dispatcher struct {
	Handler *FailureHandler
	Fetcher ChargeFetcher
	Log     *activity.Log
}

// Dispatch decodes body and routes it by event type. The only error returned is
// ErrMalformedEvent; every other failure is recorded in the Result and the log.
func (d *Dispatcher) Dispatch(ctx context.Context, body []byte) (Result, error) {
	evt, err := DecodeEvent(body)
	if err != nil {
		var invalid *InvalidEventError
		if errors.As(err, &invalid) {
			d.Log.Recordf("Webhook received: %s", invalid.Type)
			d.Log.Recordf("Invalid %s payload: %v", invalid.Type, invalid.Err)
			return Result{InvalidErr: err}, nil
		}
		d.Log.Record("Invalid JSON in webhook")
		return Result{}, err
	}

	d.Log.Recordf("Webhook received: %s", evt.EventType())
	res := Result{Event: evt}

	switch e := evt.(type) {
	case ChargeFailed:
		out := d.Handler.Handle(ctx, e.Charge)
		res.Outcome = &out

	case PaymentIntentFailed:
		if len(e.Charges) > 0 {
			out := d.Handler.Handle(ctx, e.Charges[0])
			res.Outcome = &out
		}

	case InvoicePaymentFailed:
		if e.ChargeID == "" {
			break
		}
		charge, err := d.Fetcher.FetchCharge(ctx, e.ChargeID)
		if err != nil {
			d.Log.Recordf("Failed to get charge: %v", err)
			res.FetchErr = err
			break
		}
		out := d.Handler.Handle(ctx, charge)
		res.Outcome = &out

	case Unhandled:
		d.Log.Recordf("Unhandled event: %s", e.Type)
	}

	return res, nil
}
