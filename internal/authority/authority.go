// Package authority issues sealed payment mandates.
package authority

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"payment-mandate-service/internal/models"
	"payment-mandate-service/internal/token"
)

var ErrInvalidRequest = errors.New("invalid mandate request")

// IssueRequest describes a mandate to be issued. UserID and Action are
// required; the rest narrow the mandate's scope.
type IssueRequest struct {
	UserID      string
	Kind        string
	Action      string
	AmountLimit *decimal.Decimal
	InvoiceID   string
	ExpiresIn   time.Duration
}

// Authority builds mandate payloads and seals them through the codec.
// Issuance needs no shared state: identifiers come from a CSPRNG-backed
// UUID source, so concurrent calls cannot collide without coordination.
type Authority struct {
	codec   *token.Codec
	verbose bool
}

func NewAuthority(codec *token.Codec, verbose bool) *Authority {
	return &Authority{
		codec:   codec,
		verbose: verbose,
	}
}

// Issue validates the request, assigns a fresh mandate identifier, stamps
// the creation time and returns the sealed token together with the
// plaintext payload for the issuing caller.
func (a *Authority) Issue(req IssueRequest) (*models.SealedMandate, error) {
	if req.UserID == "" {
		return nil, fmt.Errorf("%w: userId is required", ErrInvalidRequest)
	}
	if req.Action == "" {
		return nil, fmt.Errorf("%w: action is required", ErrInvalidRequest)
	}
	if req.AmountLimit != nil && req.AmountLimit.IsNegative() {
		return nil, fmt.Errorf("%w: amountLimit must not be negative", ErrInvalidRequest)
	}

	now := time.Now().UTC()
	payload := models.Mandate{
		MandateID:   "M-" + uuid.NewString(),
		UserID:      req.UserID,
		Kind:        req.Kind,
		Action:      req.Action,
		AmountLimit: req.AmountLimit,
		InvoiceID:   req.InvoiceID,
		CreatedAt:   now,
	}
	if req.ExpiresIn != 0 {
		expiresAt := now.Add(req.ExpiresIn)
		payload.ExpiresAt = &expiresAt
	}

	sealed, err := a.codec.Seal(&payload)
	if err != nil {
		return nil, fmt.Errorf("failed to seal mandate: %v", err)
	}

	if a.verbose {
		scope := "unrestricted"
		if payload.Scoped() {
			scope = payload.InvoiceID
		}
		log.Printf("[AUTHORITY] Issued mandate %s for user %s (action: %s, scope: %s)",
			payload.MandateID, payload.UserID, payload.Action, scope)
	}

	return &models.SealedMandate{
		Mandate: payload,
		Token:   sealed,
	}, nil
}
