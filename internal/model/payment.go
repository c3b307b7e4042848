package model

import "time"

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// Plan codes mapped to access days. PlanForever grants permanent
// access.
const (
	PlanP30     = "p30"
	PlanP90     = "p90"
	PlanP365    = "p365"
	PlanForever = "forever"
)

// PlanDays maps plan codes to access-day counts. Forever is handled
// separately.
var PlanDays = map[string]int{
	PlanP30:  30,
	PlanP90:  90,
	PlanP365: 365,
}

// LegacyAmountDays maps historical fixed amounts to days for rows that
// predate plan codes.
var LegacyAmountDays = map[int]int{
	490:  30,
	1290: 90,
	3990: 365,
}

// Payment is a provider-confirmed transaction. The engine only reads
// paid rows; webhook verification lives outside.
type Payment struct {
	BaseModel
	UserID   int64         `gorm:"not null;index" json:"user_id"`
	PlanCode string        `gorm:"type:varchar(16)" json:"plan_code"`
	Amount   int           `gorm:"not null" json:"amount"`
	Status   PaymentStatus `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`
	PaidAt   *time.Time    `json:"paid_at,omitempty"`
}

func (Payment) TableName() string {
	return "payments"
}

// AccessDays resolves the payment to (days, forever). Unknown plans
// fall back to the legacy amount table; unresolvable rows grant
// nothing.
func (p *Payment) AccessDays() (days int, forever bool) {
	if p.PlanCode == PlanForever {
		return 0, true
	}
	if d, ok := PlanDays[p.PlanCode]; ok {
		return d, false
	}
	if d, ok := LegacyAmountDays[p.Amount]; ok {
		return d, false
	}
	return 0, false
}
