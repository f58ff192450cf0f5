package payment

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"

	"payment-failure-monitor/internal/types"
)

const (
	EventChargeFailed         = "charge.failed"
	EventPaymentIntentFailed  = "payment_intent.payment_failed"
	EventInvoicePaymentFailed = "invoice.payment_failed"
)

var (
	// ErrMalformedEvent means the body is not a syntactically valid JSON object.
	ErrMalformedEvent = errors.New("malformed event")
	// ErrInvalidEvent means a known event type carried an unusable object.
	ErrInvalidEvent = errors.New("invalid event payload")
)

var validatorInstance = validator.New()

// Event is one of ChargeFailed, PaymentIntentFailed, InvoicePaymentFailed or Unhandled.
type Event interface {
	EventType() string
	isEvent()
}

type ChargeFailed struct {
	Charge types.Charge
}

// PaymentIntentFailed lists the intent's charges, newest first. It may be empty.
type PaymentIntentFailed struct {
	IntentID string
	Charges  []types.Charge
}

// InvoicePaymentFailed references the charge by id only; ChargeID may be empty.
type InvoicePaymentFailed struct {
	InvoiceID string
	ChargeID  string
}

type Unhandled struct {
	Type string
}

func (ChargeFailed) EventType() string         { return EventChargeFailed }
func (PaymentIntentFailed) EventType() string  { return EventPaymentIntentFailed }
func (InvoicePaymentFailed) EventType() string { return EventInvoicePaymentFailed }
func (u Unhandled) EventType() string          { return u.Type }

func (ChargeFailed) isEvent()         {}
func (PaymentIntentFailed) isEvent()  {}
func (InvoicePaymentFailed) isEvent() {}
func (Unhandled) isEvent()            {}

// InvalidEventError reports a known event type whose object failed to decode or validate.
type InvalidEventError struct {
	Type string
	Err  error
}

func (e *InvalidEventError) Error() string {
	return fmt.Sprintf("invalid %s payload: %v", e.Type, e.Err)
}

func (e *InvalidEventError) Unwrap() []error {
	return []error{ErrInvalidEvent, e.Err}
}

// DecodeEvent parses a webhook body into a validated event variant.
func DecodeEvent(body []byte) (Event, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: body is not a JSON object", ErrMalformedEvent)
	}

	if !sonic.Valid(trimmed) {
		return nil, fmt.Errorf("%w: body is not valid JSON", ErrMalformedEvent)
	}

	var fields map[string]json.RawMessage
	if err := sonic.Unmarshal(trimmed, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	envelope := types.Event{
		ID:   lenientString(fields["id"]),
		Type: lenientString(fields["type"]),
	}

	if isKnownType(envelope.Type) {
		if raw := bytes.TrimSpace(fields["data"]); len(raw) > 0 && !bytes.Equal(raw, []byte("null")) {
			if err := sonic.Unmarshal(raw, &envelope.Data); err != nil {
				return nil, &InvalidEventError{Type: envelope.Type, Err: fmt.Errorf("data: %w", err)}
			}
		}
	}

	switch envelope.Type {
	case EventChargeFailed:
		var charge types.Charge
		if err := decodeObject(envelope, &charge); err != nil {
			return nil, err
		}
		if err := validateCharge(envelope.Type, charge); err != nil {
			return nil, err
		}
		return ChargeFailed{Charge: charge}, nil

	case EventPaymentIntentFailed:
		var intent types.PaymentIntent
		if err := decodeObject(envelope, &intent); err != nil {
			return nil, err
		}
		evt := PaymentIntentFailed{IntentID: intent.ID}
		if intent.Charges != nil {
			evt.Charges = intent.Charges.Data
		}
		if len(evt.Charges) > 0 {
			if err := validateCharge(envelope.Type, evt.Charges[0]); err != nil {
				return nil, err
			}
		}
		return evt, nil

	case EventInvoicePaymentFailed:
		var invoice types.Invoice
		if err := decodeObject(envelope, &invoice); err != nil {
			return nil, err
		}
		return InvoicePaymentFailed{InvoiceID: invoice.ID, ChargeID: invoice.Charge}, nil
	}

	return Unhandled{Type: envelope.Type}, nil
}

func isKnownType(t string) bool {
	switch t {
	case EventChargeFailed, EventPaymentIntentFailed, EventInvoicePaymentFailed:
		return true
	}
	return false
}

// lenientString reads a JSON string field. Any other JSON value is kept as its
// literal text so a mistyped field never rejects the whole event.
func lenientString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := sonic.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func decodeObject(envelope types.Event, target any) error {
	obj := bytes.TrimSpace(envelope.Data.Object)
	if len(obj) == 0 || bytes.Equal(obj, []byte("null")) {
		return &InvalidEventError{Type: envelope.Type, Err: errors.New("data.object is missing")}
	}
	if err := sonic.Unmarshal(obj, target); err != nil {
		return &InvalidEventError{Type: envelope.Type, Err: err}
	}
	return nil
}

func validateCharge(eventType string, charge types.Charge) error {
	if err := validatorInstance.Struct(charge); err != nil {
		return &InvalidEventError{Type: eventType, Err: err}
	}
	return nil
}
