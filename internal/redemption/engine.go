// Package redemption validates presented mandate tokens and drives the
// invoice settlement that consumes them.
package redemption

import (
	"fmt"
	"log"
	"time"

	"payment-mandate-service/internal/ledger"
	"payment-mandate-service/internal/models"
	"payment-mandate-service/internal/token"
)

// Reason classifies why a redemption attempt was rejected. All token
// integrity failures collapse into ReasonInvalidMandate so callers cannot
// probe which integrity check failed.
type Reason string

const (
	ReasonInvalidMandate     Reason = "invalid_mandate"
	ReasonMandateIDMismatch  Reason = "mandate_id_mismatch"
	ReasonOutOfScope         Reason = "out_of_scope"
	ReasonInvoiceNotFound    Reason = "invoice_not_found"
	ReasonInvoiceAlreadyPaid Reason = "invoice_already_paid"
	ReasonAmountExceedsLimit Reason = "amount_exceeds_limit"
	ReasonMandateExpired     Reason = "mandate_expired"
)

// RejectionError is returned for every failed redemption attempt. A
// rejected token is not resubmittable; the caller must obtain a fresh
// mandate.
type RejectionError struct {
	Reason  Reason
	Message string
}

func (e *RejectionError) Error() string {
	return e.Message
}

func reject(reason Reason, format string, args ...interface{}) *RejectionError {
	return &RejectionError{
		Reason:  reason,
		Message: fmt.Sprintf(format, args...),
	}
}

// Settlement is the result of a successful redemption: the receipt
// produced by the ledger transition plus the verified mandate payload.
type Settlement struct {
	Receipt *models.Receipt
	Mandate *models.Mandate
}

// Engine runs the redemption checks in a fixed order, short-circuiting on
// the first failure: token verification, identity binding, invoice scope,
// ledger lookup, amount ceiling, expiry, then the settlement transition.
type Engine struct {
	codec   *token.Codec
	ledger  *ledger.Ledger
	verbose bool
}

func NewEngine(codec *token.Codec, ldg *ledger.Ledger, verbose bool) *Engine {
	return &Engine{
		codec:   codec,
		ledger:  ldg,
		verbose: verbose,
	}
}

// Redeem presents a sealed mandate against a target invoice. On success it
// settles the invoice exactly once and returns the receipt; any failure
// returns a *RejectionError and leaves the ledger untouched.
func (e *Engine) Redeem(mandateID, sealedToken, invoiceID, paymentMethod string) (*Settlement, error) {
	payload, err := e.codec.Verify(sealedToken)
	if err != nil {
		if e.verbose {
			log.Printf("[REDEEM] Token verification failed: %v", err)
		}
		return nil, reject(ReasonInvalidMandate, "invalid mandate token")
	}

	// The token must belong to the mandate record the caller claims to
	// redeem; otherwise a valid token for another mandate could be
	// swapped in.
	if payload.MandateID != mandateID {
		if e.verbose {
			log.Printf("[REDEEM] Mandate id mismatch: token %s, presented %s",
				payload.MandateID, mandateID)
		}
		return nil, reject(ReasonMandateIDMismatch, "mandate token does not match presented mandate id")
	}

	if payload.Scoped() && payload.InvoiceID != invoiceID {
		if e.verbose {
			log.Printf("[REDEEM] Mandate %s scoped to %s, presented against %s",
				payload.MandateID, payload.InvoiceID, invoiceID)
		}
		return nil, reject(ReasonOutOfScope, "mandate is not valid for invoice %s", invoiceID)
	}

	invoice, err := e.ledger.Find(invoiceID)
	if err != nil {
		return nil, reject(ReasonInvoiceNotFound, "invoice %s not found", invoiceID)
	}
	if invoice.Paid {
		return nil, reject(ReasonInvoiceAlreadyPaid, "invoice %s is already paid", invoiceID)
	}

	// Strict comparison on the fixed-point amount: equality with the
	// ceiling passes, anything above it does not.
	if payload.AmountLimit != nil && invoice.Amount.GreaterThan(*payload.AmountLimit) {
		if e.verbose {
			log.Printf("[REDEEM] Mandate %s limit %s exceeded by invoice amount %s",
				payload.MandateID, payload.AmountLimit.StringFixed(2), invoice.Amount.StringFixed(2))
		}
		return nil, reject(ReasonAmountExceedsLimit, "invoice amount exceeds mandate limit")
	}

	if payload.Expired(time.Now()) {
		return nil, reject(ReasonMandateExpired, "mandate %s has expired", payload.MandateID)
	}

	receipt, err := e.ledger.Transition(invoiceID, paymentMethod)
	if err != nil {
		// A concurrent redemption won the race between our lookup and
		// the transition; report it the same way as a pre-checked paid
		// invoice.
		if err == ledger.ErrAlreadySettled {
			return nil, reject(ReasonInvoiceAlreadyPaid, "invoice %s is already paid", invoiceID)
		}
		return nil, reject(ReasonInvoiceNotFound, "invoice %s not found", invoiceID)
	}

	if e.verbose {
		log.Printf("[REDEEM] Settled invoice %s under mandate %s (receipt %s)",
			invoiceID, payload.MandateID, receipt.ReceiptID)
	}

	return &Settlement{
		Receipt: receipt,
		Mandate: payload,
	}, nil
}
