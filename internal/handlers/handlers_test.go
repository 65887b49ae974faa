package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"payment-mandate-service/internal/api"
	"payment-mandate-service/internal/authority"
	"payment-mandate-service/internal/ledger"
	"payment-mandate-service/internal/models"
	"payment-mandate-service/internal/redemption"
	"payment-mandate-service/internal/token"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	codec, err := token.NewCodec("test-secret", false)
	require.NoError(t, err)

	ldg := ledger.New([]models.Invoice{
		{InvoiceID: "INV-201", ShortID: "201", UserID: "test-user", Category: "utility",
			Label: "Electric — Eversource", Vendor: "Eversource Energy",
			Amount: decimal.RequireFromString("145.23"), DueDate: "2025-10-05"},
		{InvoiceID: "INV-202", ShortID: "202", UserID: "test-user", Category: "utility",
			Label: "Natural Gas — National Grid", Vendor: "National Grid",
			Amount: decimal.RequireFromString("78.45"), DueDate: "2025-10-07"},
		{InvoiceID: "INV-209", ShortID: "209", UserID: "test-user", Category: "tax",
			Label: "Property Tax — City of Boston", Vendor: "City of Boston",
			Amount: decimal.RequireFromString("950.00"), DueDate: "2025-10-01"},
	}, false)

	auth := authority.NewAuthority(codec, false)
	engine := redemption.NewEngine(codec, ldg, false)
	handler := NewHandler(auth, engine, ldg, false)

	router := gin.New()
	apiGroup := router.Group("/api")
	{
		apiGroup.GET("/invoices", handler.ListInvoices)
		apiGroup.GET("/invoices/:id", handler.GetInvoice)
		apiGroup.POST("/mandates", handler.CreateMandate)
		apiGroup.POST("/pay", handler.Pay)
		apiGroup.GET("/receipts", handler.ListReceipts)
	}
	router.GET("/health", handler.HealthCheck)
	return router
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Code    int             `json:"code"`
}

func doRequest(t *testing.T, router *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec, env
}

func TestListInvoices(t *testing.T) {
	router := newTestRouter(t)

	rec, env := doRequest(t, router, http.MethodGet, "/api/invoices", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, env.Success)

	var list api.InvoiceList
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list.Invoices, 3)
}

func TestListInvoicesFilters(t *testing.T) {
	router := newTestRouter(t)

	_, env := doRequest(t, router, http.MethodGet, "/api/invoices?q=eversource", nil)
	var list api.InvoiceList
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list.Invoices, 1)
	require.Equal(t, "INV-201", list.Invoices[0].InvoiceID)

	_, env = doRequest(t, router, http.MethodGet, "/api/invoices?category=tax", nil)
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list.Invoices, 1)
	require.Equal(t, "INV-209", list.Invoices[0].InvoiceID)

	_, env = doRequest(t, router, http.MethodGet, "/api/invoices?userId=nobody", nil)
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Empty(t, list.Invoices)
}

func TestGetInvoice(t *testing.T) {
	router := newTestRouter(t)

	rec, env := doRequest(t, router, http.MethodGet, "/api/invoices/INV-202", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var detail api.InvoiceDetail
	require.NoError(t, json.Unmarshal(env.Data, &detail))
	require.Equal(t, "INV-202", detail.Invoice.InvoiceID)

	rec, env = doRequest(t, router, http.MethodGet, "/api/invoices/INV-999", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.False(t, env.Success)
}

func TestCreateMandateValidation(t *testing.T) {
	router := newTestRouter(t)

	rec, env := doRequest(t, router, http.MethodPost, "/api/mandates", map[string]interface{}{
		"userId": "u1",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.False(t, env.Success)
}

func TestMandateAndPayFlow(t *testing.T) {
	router := newTestRouter(t)

	// Issue a scoped, limited mandate.
	rec, env := doRequest(t, router, http.MethodPost, "/api/mandates", map[string]interface{}{
		"userId":      "u1",
		"type":        "intent",
		"action":      "pay",
		"amountLimit": "200.00",
		"invoiceId":   "INV-201",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, env.Success)

	var created api.CreateMandateResponse
	require.NoError(t, json.Unmarshal(env.Data, &created))
	require.NotEmpty(t, created.MandateID)
	require.NotEmpty(t, created.SignedMandate)

	// Redeem it against the scoped invoice.
	rec, env = doRequest(t, router, http.MethodPost, "/api/pay", map[string]interface{}{
		"mandateId":     created.MandateID,
		"signedMandate": created.SignedMandate,
		"invoiceId":     "INV-201",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, env.Success)

	var paid api.PayResponse
	require.NoError(t, json.Unmarshal(env.Data, &paid))
	require.True(t, paid.Receipt.Amount.Equal(decimal.RequireFromString("145.23")))
	require.Equal(t, created.MandateID, paid.VerifiedMandate.MandateID)

	// A second redemption is rejected.
	rec, env = doRequest(t, router, http.MethodPost, "/api/pay", map[string]interface{}{
		"mandateId":     created.MandateID,
		"signedMandate": created.SignedMandate,
		"invoiceId":     "INV-201",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.False(t, env.Success)

	// The settled invoice leaves the open listing and enters the audit trail.
	_, env = doRequest(t, router, http.MethodGet, "/api/invoices", nil)
	var list api.InvoiceList
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list.Invoices, 2)

	_, env = doRequest(t, router, http.MethodGet, "/api/receipts", nil)
	var receipts api.ReceiptList
	require.NoError(t, json.Unmarshal(env.Data, &receipts))
	require.Len(t, receipts.Receipts, 1)
	require.Equal(t, "INV-201", receipts.Receipts[0].InvoiceID)
}

func TestPayRejectsForgedToken(t *testing.T) {
	router := newTestRouter(t)

	rec, env := doRequest(t, router, http.MethodPost, "/api/pay", map[string]interface{}{
		"mandateId":     "M-forged",
		"signedMandate": "YWJj.ZGVm",
		"invoiceId":     "INV-201",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.False(t, env.Success)
	require.Equal(t, "invalid mandate token", env.Message)
}

func TestHealthCheck(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}
