// Package record appends failed payments to an external table.
package record

import "payment-failure-monitor/internal/types"

const StatusFailed = "Failed"

// Column names of the failed payments table.
const (
	ColumnEmail      = "Customer Email"
	ColumnCustomerID = "Customer ID"
	ColumnAmount     = "Payment Amount"
	ColumnMethod     = "Payment Method"
	ColumnReason     = "Failure Reason"
	ColumnDate       = "Failure Date"
	ColumnChargeID   = "Charge ID"
	ColumnStatus     = "Status"
)

// Fields maps a record onto the table columns.
func Fields(rec types.FailureRecord) map[string]any {
	return map[string]any{
		ColumnEmail:      rec.Email,
		ColumnCustomerID: rec.CustomerID,
		ColumnAmount:     rec.MajorAmount().InexactFloat64(),
		ColumnMethod:     rec.Method,
		ColumnReason:     rec.Reason,
		ColumnDate:       types.ISOTime(rec.Date),
		ColumnChargeID:   rec.ChargeID,
		ColumnStatus:     StatusFailed,
	}
}
