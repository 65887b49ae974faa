package api

import (
	"github.com/shopspring/decimal"

	"payment-mandate-service/internal/models"
)

// Response is the common envelope for every endpoint.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Code    int         `json:"code,omitempty"`
}

// OK wraps payload data in a success envelope.
func OK(data interface{}, message string) Response {
	if message == "" {
		message = "ok"
	}
	return Response{
		Success: true,
		Message: message,
		Data:    data,
	}
}

// Err builds a failure envelope with the given HTTP-style code.
func Err(message string, code int) Response {
	return Response{
		Success: false,
		Message: message,
		Code:    code,
	}
}

// CreateMandateRequest is the body of POST /api/mandates.
type CreateMandateRequest struct {
	UserID           string           `json:"userId" binding:"required"`
	Type             string           `json:"type"`
	Action           string           `json:"action" binding:"required"`
	AmountLimit      *decimal.Decimal `json:"amountLimit,omitempty"`
	InvoiceID        string           `json:"invoiceId,omitempty"`
	ExpiresInSeconds int64            `json:"expiresInSeconds,omitempty"`
}

// CreateMandateResponse returns the plaintext payload alongside the sealed
// token, matching the issuing caller's audit view.
type CreateMandateResponse struct {
	models.Mandate
	SignedMandate string `json:"signedMandate"`
}

// PayRequest is the body of POST /api/pay.
type PayRequest struct {
	MandateID     string `json:"mandateId" binding:"required"`
	SignedMandate string `json:"signedMandate" binding:"required"`
	InvoiceID     string `json:"invoiceId" binding:"required"`
	PaymentMethod string `json:"paymentMethod,omitempty"`
}

// PayResponse is the success payload of POST /api/pay.
type PayResponse struct {
	Receipt         *models.Receipt `json:"receipt"`
	VerifiedMandate *models.Mandate `json:"verifiedMandate"`
}

// InvoiceList wraps invoice listings.
type InvoiceList struct {
	Invoices []models.Invoice `json:"invoices"`
}

// InvoiceDetail wraps a single invoice lookup.
type InvoiceDetail struct {
	Invoice models.Invoice `json:"invoice"`
}

// ReceiptList wraps the receipt audit trail.
type ReceiptList struct {
	Receipts []models.Receipt `json:"receipts"`
}
