// Package ledger owns the authoritative invoice records and the append-only
// receipt audit trail. Transition is the only mutator of payment state.
package ledger

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"payment-mandate-service/internal/models"
)

var (
	ErrInvoiceNotFound = errors.New("invoice not found")
	ErrAlreadySettled  = errors.New("invoice already settled")
)

// DefaultPaymentMethod is used when a redemption does not name one.
const DefaultPaymentMethod = "demo-card-xxxx"

// Ledger is a thread-safe in-memory invoice store. Invoices are seeded at
// construction and never deleted; a single mutex guards both the invoice
// map and the receipt sequence so a transition and its receipt append are
// observed atomically.
type Ledger struct {
	mu       sync.Mutex
	invoices map[string]*models.Invoice
	order    []string
	receipts []models.Receipt
	verbose  bool
}

// New creates a ledger holding copies of the seed invoices, preserving
// their seed order for listings.
func New(seed []models.Invoice, verbose bool) *Ledger {
	l := &Ledger{
		invoices: make(map[string]*models.Invoice, len(seed)),
		order:    make([]string, 0, len(seed)),
		verbose:  verbose,
	}

	for i := range seed {
		inv := seed[i]
		l.invoices[inv.InvoiceID] = &inv
		l.order = append(l.order, inv.InvoiceID)
	}

	if verbose {
		log.Printf("[LEDGER] Seeded %d invoices", len(seed))
	}

	return l
}

// Find returns a copy of the invoice with the given identifier.
func (l *Ledger) Find(invoiceID string) (models.Invoice, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	inv, exists := l.invoices[invoiceID]
	if !exists {
		return models.Invoice{}, ErrInvoiceNotFound
	}
	return *inv, nil
}

// Transition settles an open invoice: it checks state, flips it to paid and
// appends the receipt inside one critical section, so two concurrent
// redemptions of the same invoice cannot both succeed. Returns
// ErrAlreadySettled for an invoice that is already paid.
func (l *Ledger) Transition(invoiceID, paymentMethod string) (*models.Receipt, error) {
	if paymentMethod == "" {
		paymentMethod = DefaultPaymentMethod
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	inv, exists := l.invoices[invoiceID]
	if !exists {
		return nil, ErrInvoiceNotFound
	}
	if inv.Paid {
		if l.verbose {
			log.Printf("[LEDGER] Rejected settlement of %s: already paid", invoiceID)
		}
		return nil, ErrAlreadySettled
	}

	inv.Paid = true

	receipt := models.Receipt{
		ReceiptID:     "R-" + uuid.NewString(),
		InvoiceID:     invoiceID,
		Amount:        inv.Amount,
		PaymentMethod: paymentMethod,
		PaidAt:        time.Now(),
	}
	l.receipts = append(l.receipts, receipt)

	if l.verbose {
		log.Printf("[LEDGER] Settled invoice %s for %s (receipt %s)",
			invoiceID, receipt.Amount.StringFixed(2), receipt.ReceiptID)
	}

	return &receipt, nil
}

// AllInvoices returns copies of every invoice in seed order.
func (l *Ledger) AllInvoices() []models.Invoice {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]models.Invoice, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, *l.invoices[id])
	}
	return out
}

// OpenInvoices returns copies of the invoices that are not yet paid,
// in seed order.
func (l *Ledger) OpenInvoices() []models.Invoice {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]models.Invoice, 0, len(l.order))
	for _, id := range l.order {
		if inv := l.invoices[id]; !inv.Paid {
			out = append(out, *inv)
		}
	}
	return out
}

// Receipts returns a copy of the audit trail in append order.
func (l *Ledger) Receipts() []models.Receipt {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]models.Receipt, len(l.receipts))
	copy(out, l.receipts)
	return out
}
