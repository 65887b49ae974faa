package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoice is a payable record held by the ledger. Amounts are fixed-point
// decimals; payment state is the Paid flag and flips exactly once.
type Invoice struct {
	InvoiceID   string          `json:"invoiceId"`
	ShortID     string          `json:"shortId"`
	UserID      string          `json:"userId"`
	Category    string          `json:"category"`
	Label       string          `json:"label"`
	Vendor      string          `json:"vendor"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	DueDate     string          `json:"dueDate"`
	Paid        bool            `json:"paid"`
}

// Mandate is the plaintext payload sealed into a mandate token.
// Once sealed the payload is immutable; changing any field requires
// issuing a new mandate with a fresh MandateID.
type Mandate struct {
	MandateID   string           `json:"mandateId"`
	UserID      string           `json:"userId"`
	Kind        string           `json:"type"`
	Action      string           `json:"action"`
	AmountLimit *decimal.Decimal `json:"amountLimit,omitempty"`
	InvoiceID   string           `json:"invoiceId,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
	ExpiresAt   *time.Time       `json:"expiresAt,omitempty"`
}

// Scoped reports whether the mandate is restricted to a single invoice.
func (m *Mandate) Scoped() bool {
	return m.InvoiceID != ""
}

// Expired reports whether the mandate carries an expiry that has passed.
func (m *Mandate) Expired(now time.Time) bool {
	return m.ExpiresAt != nil && now.After(*m.ExpiresAt)
}

// SealedMandate pairs the opaque token with the plaintext payload it seals.
// The token is what goes over the wire; the payload is returned to the
// issuing caller for display and audit convenience.
type SealedMandate struct {
	Mandate Mandate `json:"mandate"`
	Token   string  `json:"signedMandate"`
}

// Receipt is immutable proof that one invoice was settled. Receipts are
// appended to the ledger's audit sequence and never mutated or removed.
type Receipt struct {
	ReceiptID     string          `json:"receiptId"`
	InvoiceID     string          `json:"invoiceId"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"paymentMethod"`
	PaidAt        time.Time       `json:"paidAt"`
}
