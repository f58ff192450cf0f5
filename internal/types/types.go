package types

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Unknown is substituted for optional charge fields the processor left empty.
const Unknown = "Unknown"

// TimeLayout renders timestamps as ISO-8601 with milliseconds.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// ISOTime formats t in UTC using TimeLayout.
func ISOTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// Event is the webhook envelope pushed by the payment processor. The object is kept
// raw until the event type decides which shape it must decode into.
type Event struct {
	ID   string    `json:"id"`
	Type string    `json:"type"`
	Data EventData `json:"data"`
}

type EventData struct {
	Object json.RawMessage `json:"object"`
}

// Charge is the subset of a processor charge object this service reads.
type Charge struct {
	ID                   string                `json:"id" validate:"required"`
	Amount               int64                 `json:"amount"`
	Customer             string                `json:"customer"`
	FailureMessage       string                `json:"failure_message"`
	Created              int64                 `json:"created"`
	BillingDetails       *BillingDetails       `json:"billing_details"`
	PaymentMethodDetails *PaymentMethodDetails `json:"payment_method_details"`
}

type BillingDetails struct {
	Email string `json:"email"`
}

type PaymentMethodDetails struct {
	Type string `json:"type"`
}

// PaymentIntent carries the charges attempted for an intent, newest first.
type PaymentIntent struct {
	ID      string      `json:"id"`
	Charges *ChargeList `json:"charges"`
}

type ChargeList struct {
	Data []Charge `json:"data"`
}

// Invoice only references its charge by id.
type Invoice struct {
	ID     string `json:"id"`
	Charge string `json:"charge"`
}

// FailureRecord is the normalized view of one failed payment.
type FailureRecord struct {
	Email      string    `json:"email"`
	CustomerID string    `json:"customerId"`
	Amount     int64     `json:"amount"`
	Method     string    `json:"method"`
	Reason     string    `json:"reason"`
	ChargeID   string    `json:"chargeId"`
	Date       time.Time `json:"date"`
}

// NewFailureRecord normalizes a charge, defaulting missing optional fields to Unknown.
func NewFailureRecord(charge Charge) FailureRecord {
	rec := FailureRecord{
		Email:      Unknown,
		CustomerID: orUnknown(charge.Customer),
		Amount:     charge.Amount,
		Method:     Unknown,
		Reason:     orUnknown(charge.FailureMessage),
		ChargeID:   charge.ID,
		Date:       time.UnixMilli(charge.Created * 1000),
	}
	if charge.BillingDetails != nil {
		rec.Email = orUnknown(charge.BillingDetails.Email)
	}
	if charge.PaymentMethodDetails != nil {
		rec.Method = orUnknown(charge.PaymentMethodDetails.Type)
	}
	return rec
}

func orUnknown(s string) string {
	if s == "" {
		return Unknown
	}
	return s
}

// MajorAmount converts the minor-unit amount to currency units.
func (r FailureRecord) MajorAmount() decimal.Decimal {
	return decimal.New(r.Amount, -2)
}
