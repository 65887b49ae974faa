package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"payment-mandate-service/internal/api"
	"payment-mandate-service/internal/authority"
	"payment-mandate-service/internal/ledger"
	"payment-mandate-service/internal/models"
	"payment-mandate-service/internal/redemption"
)

// Handler wires the HTTP surface to the mandate core. Everything here is
// request plumbing; the invariants live in the authority, ledger and
// redemption packages.
type Handler struct {
	authority *authority.Authority
	engine    *redemption.Engine
	ledger    *ledger.Ledger
	verbose   bool
}

func NewHandler(auth *authority.Authority, engine *redemption.Engine, ldg *ledger.Ledger, verbose bool) *Handler {
	return &Handler{
		authority: auth,
		engine:    engine,
		ledger:    ldg,
		verbose:   verbose,
	}
}

// GET /api/invoices - list invoices with optional userId, category and q
// filters. Without a search query only open invoices are returned.
func (h *Handler) ListInvoices(c *gin.Context) {
	q := strings.ToLower(c.Query("q"))
	userID := strings.TrimSpace(c.Query("userId"))
	category := strings.ToLower(c.Query("category"))

	results := make([]models.Invoice, 0)
	for _, inv := range h.ledger.AllInvoices() {
		if userID != "" && inv.UserID != userID {
			continue
		}
		if category != "" && strings.ToLower(inv.Category) != category {
			continue
		}
		if q != "" {
			if !invoiceMatches(inv, q) {
				continue
			}
		} else if inv.Paid {
			continue
		}
		results = append(results, inv)
	}

	message := fmt.Sprintf("Returning %d open invoices", len(results))
	if q != "" {
		message = fmt.Sprintf("Found %d invoices for %q", len(results), c.Query("q"))
	}

	c.JSON(http.StatusOK, api.OK(api.InvoiceList{Invoices: results}, message))
}

// invoiceMatches reports whether any searchable invoice field contains the
// lower-cased query.
func invoiceMatches(inv models.Invoice, q string) bool {
	for _, field := range []string{inv.InvoiceID, inv.ShortID, inv.Vendor, inv.Label, inv.Description} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

// GET /api/invoices/:id - single invoice lookup.
func (h *Handler) GetInvoice(c *gin.Context) {
	inv, err := h.ledger.Find(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, api.Err("Invoice not found", http.StatusNotFound))
		return
	}

	c.JSON(http.StatusOK, api.OK(api.InvoiceDetail{Invoice: inv}, "Invoice found"))
}

// POST /api/mandates - issue a sealed mandate.
func (h *Handler) CreateMandate(c *gin.Context) {
	var req api.CreateMandateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.Err("Missing fields", http.StatusBadRequest))
		return
	}

	sealed, err := h.authority.Issue(authority.IssueRequest{
		UserID:      req.UserID,
		Kind:        req.Type,
		Action:      req.Action,
		AmountLimit: req.AmountLimit,
		InvoiceID:   req.InvoiceID,
		ExpiresIn:   time.Duration(req.ExpiresInSeconds) * time.Second,
	})
	if err != nil {
		if h.verbose {
			log.Printf("[HANDLER] Mandate issuance rejected: %v", err)
		}
		c.JSON(http.StatusBadRequest, api.Err(err.Error(), http.StatusBadRequest))
		return
	}

	c.JSON(http.StatusOK, api.OK(api.CreateMandateResponse{
		Mandate:       sealed.Mandate,
		SignedMandate: sealed.Token,
	}, "Mandate created"))
}

// POST /api/pay - redeem a sealed mandate against an invoice.
func (h *Handler) Pay(c *gin.Context) {
	var req api.PayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.Err("Missing fields", http.StatusBadRequest))
		return
	}

	settlement, err := h.engine.Redeem(req.MandateID, req.SignedMandate, req.InvoiceID, req.PaymentMethod)
	if err != nil {
		var rejection *redemption.RejectionError
		if errors.As(err, &rejection) {
			c.JSON(http.StatusBadRequest, api.Err(rejection.Message, http.StatusBadRequest))
			return
		}
		c.JSON(http.StatusBadRequest, api.Err("Payment failed", http.StatusBadRequest))
		return
	}

	c.JSON(http.StatusOK, api.OK(api.PayResponse{
		Receipt:         settlement.Receipt,
		VerifiedMandate: settlement.Mandate,
	}, "Payment processed"))
}

// GET /api/receipts - append-ordered audit trail.
func (h *Handler) ListReceipts(c *gin.Context) {
	receipts := h.ledger.Receipts()
	message := fmt.Sprintf("Total %d receipts", len(receipts))
	c.JSON(http.StatusOK, api.OK(api.ReceiptList{Receipts: receipts}, message))
}

// GET /health
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}
