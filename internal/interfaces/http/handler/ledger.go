package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	ledgerapp "github.com/ledgerly/backend/internal/application/ledger"
	"github.com/ledgerly/backend/internal/domain/ledger"
	"github.com/shopspring/decimal"
)

// IdempotencyKeyHeader carries the caller-chosen key that makes a write
// retry-safe
const IdempotencyKeyHeader = "Idempotency-Key"

// LedgerHandler handles ledger transaction API endpoints
type LedgerHandler struct {
	BaseHandler
	ledgerService     *ledgerapp.LedgerService
	invoiceAggregator *ledgerapp.InvoiceAggregator
}

// NewLedgerHandler creates a new LedgerHandler
func NewLedgerHandler(ledgerService *ledgerapp.LedgerService, invoiceAggregator *ledgerapp.InvoiceAggregator) *LedgerHandler {
	return &LedgerHandler{
		ledgerService:     ledgerService,
		invoiceAggregator: invoiceAggregator,
	}
}

// RecordPaymentRequest represents a request to record a client payment
type RecordPaymentRequest struct {
	Amount           float64 `json:"amount" binding:"required,gt=0"`
	InvoiceID        *string `json:"invoice_id" binding:"omitempty,uuid"`
	AllowOverpayment bool    `json:"allow_overpayment"`
	IdempotencyKey   string  `json:"idempotency_key" binding:"max=100"`
	Reference        string  `json:"reference" binding:"max=200"`
	Remark           string  `json:"remark" binding:"max=500"`
}

// RecordSaleRequest represents a request to record a sale to a client
type RecordSaleRequest struct {
	Amount         float64 `json:"amount" binding:"required,gt=0"`
	IdempotencyKey string  `json:"idempotency_key" binding:"max=100"`
	Reference      string  `json:"reference" binding:"max=200"`
	Remark         string  `json:"remark" binding:"max=500"`
}

// ListTransactionsRequest represents query parameters for the transaction list
type ListTransactionsRequest struct {
	Type      string `form:"type" binding:"omitempty,oneof=PAYMENT SALE"`
	InvoiceID string `form:"invoice_id" binding:"omitempty,uuid"`
	DateFrom  string `form:"date_from"`
	DateTo    string `form:"date_to"`
	SortBy    string `form:"sort_by"`
	SortDir   string `form:"sort_dir" binding:"omitempty,oneof=asc desc ASC DESC"`
	Page      int    `form:"page" binding:"omitempty,min=1"`
	PageSize  int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// RecordPayment records a payment from a client, optionally applied against
// an invoice. The idempotency key is taken from the Idempotency-Key header,
// falling back to the request body.
func (h *LedgerHandler) RecordPayment(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	clientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid client ID")
		return
	}

	var req RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	cmd := ledgerapp.RecordPaymentCommand{
		TenantID:         tenantID,
		ClientID:         clientID,
		Amount:           decimal.NewFromFloat(req.Amount),
		IdempotencyKey:   idempotencyKey(c, req.IdempotencyKey),
		AllowOverpayment: req.AllowOverpayment,
		Reference:        req.Reference,
		Remark:           req.Remark,
	}
	if req.InvoiceID != nil {
		invoiceID, err := uuid.Parse(*req.InvoiceID)
		if err != nil {
			h.BadRequest(c, "Invalid invoice ID")
			return
		}
		cmd.InvoiceID = &invoiceID
	}

	tx, err := h.ledgerService.RecordPayment(c.Request.Context(), cmd)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, tx)
}

// RecordSale records a sale to a client, decreasing the client's balance
func (h *LedgerHandler) RecordSale(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	clientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid client ID")
		return
	}

	var req RecordSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	cmd := ledgerapp.RecordSaleCommand{
		TenantID:       tenantID,
		ClientID:       clientID,
		Amount:         decimal.NewFromFloat(req.Amount),
		IdempotencyKey: idempotencyKey(c, req.IdempotencyKey),
		Reference:      req.Reference,
		Remark:         req.Remark,
	}

	tx, err := h.ledgerService.RecordSale(c.Request.Context(), cmd)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, tx)
}

// GetBalance returns the client's current running balance
func (h *LedgerHandler) GetBalance(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	clientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid client ID")
		return
	}

	balance, err := h.ledgerService.GetBalance(c.Request.Context(), tenantID, clientID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, balance)
}

// ListTransactions returns the client's transactions, newest first
func (h *LedgerHandler) ListTransactions(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	clientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid client ID")
		return
	}

	var req ListTransactionsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter, err := req.toFilter()
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	transactions, total, err := h.ledgerService.ListTransactions(c.Request.Context(), tenantID, clientID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, transactions, total, filter.Page, filter.PageSize)
}

// GetInvoicePaidAmount returns the invoice's running paid-amount total
func (h *LedgerHandler) GetInvoicePaidAmount(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	invoiceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}

	paid, err := h.invoiceAggregator.PaidAmount(c.Request.Context(), tenantID, invoiceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, paid)
}

// RegisterRoutes registers ledger routes
func (h *LedgerHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/ledger")

	clients := group.Group("/clients")
	clients.POST("/:id/payments", h.RecordPayment)
	clients.POST("/:id/sales", h.RecordSale)
	clients.GET("/:id/balance", h.GetBalance)
	clients.GET("/:id/transactions", h.ListTransactions)

	invoices := group.Group("/invoices")
	invoices.GET("/:id/paid-amount", h.GetInvoicePaidAmount)
}

// idempotencyKey prefers the Idempotency-Key header over the body field
func idempotencyKey(c *gin.Context, bodyKey string) string {
	if key := c.GetHeader(IdempotencyKeyHeader); key != "" {
		return key
	}
	return bodyKey
}

func (r ListTransactionsRequest) toFilter() (ledger.TransactionFilter, error) {
	filter := ledger.TransactionFilter{
		SortBy:   r.SortBy,
		SortDir:  r.SortDir,
		Page:     r.Page,
		PageSize: r.PageSize,
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	if r.Type != "" {
		txType := ledger.TransactionType(r.Type)
		filter.Type = &txType
	}
	if r.InvoiceID != "" {
		invoiceID, err := uuid.Parse(r.InvoiceID)
		if err != nil {
			return filter, err
		}
		filter.InvoiceID = &invoiceID
	}
	if r.DateFrom != "" {
		from, err := time.Parse("2006-01-02", r.DateFrom)
		if err != nil {
			return filter, err
		}
		filter.DateFrom = &from
	}
	if r.DateTo != "" {
		to, err := time.Parse("2006-01-02", r.DateTo)
		if err != nil {
			return filter, err
		}
		// Inclusive end of day
		end := to.Add(24*time.Hour - time.Nanosecond)
		filter.DateTo = &end
	}

	return filter, nil
}
