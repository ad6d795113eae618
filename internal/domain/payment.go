package domain

import "time"

type PaymentMethod string

const (
	PaymentMethodCash        PaymentMethod = "Cash"
	PaymentMethodCard        PaymentMethod = "Card"
	PaymentMethodSBPTransfer PaymentMethod = "SBPTransfer"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodSBPTransfer:
		return true
	}
	return false
}

func ParsePaymentMethod(v string) (PaymentMethod, error) {
	m := PaymentMethod(v)
	if !m.Valid() {
		return "", NewValidation("payment_method", "unknown payment method %q", v)
	}
	return m, nil
}

type Payment struct {
	ID          int64         `json:"id"`
	RentalID    int64         `json:"rental_id"`
	AmountCents int64         `json:"amount_cents"`
	Method      PaymentMethod `json:"payment_method"`
	PaymentDate time.Time     `json:"payment_date"`
}

// Damage records harm found on an equipment unit after a rental.
type Damage struct {
	ID          int64     `json:"id"`
	EquipmentID int64     `json:"equipment_id"`
	RentalID    int64     `json:"rental_id"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}
