package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/ledgerly/backend/internal/domain/ledger"
	"github.com/ledgerly/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// LedgerService records payment and sale transactions. Each call is one
// atomic unit: the transaction row, the client balance update and (for
// invoice payments) the invoice paid-amount update all commit together or
// not at all.
//
// Same-client concurrency is serialized at the storage layer: balance and
// paid-amount changes are single-statement atomic increments, never an
// application-level read-modify-write.
//
// Retried calls carrying an idempotency key are safe: the committed
// transaction with that key is returned without re-applying. Calls without a
// key are not safe to retry blindly; idempotency is then the caller's
// responsibility.
type LedgerService struct {
	clientRepo  ledger.ClientRepository
	invoiceRepo ledger.InvoiceRepository
	txRepo      ledger.TransactionRepository
	txManager   shared.TransactionManager
	idemStore   shared.IdempotencyStore
	idemConfig  shared.IdempotencyConfig
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(
	clientRepo ledger.ClientRepository,
	invoiceRepo ledger.InvoiceRepository,
	txRepo ledger.TransactionRepository,
	txManager shared.TransactionManager,
) *LedgerService {
	return &LedgerService{
		clientRepo:  clientRepo,
		invoiceRepo: invoiceRepo,
		txRepo:      txRepo,
		txManager:   txManager,
		idemConfig:  shared.DefaultIdempotencyConfig(),
	}
}

// WithIdempotencyStore attaches a fast-path idempotency guard. The unique
// index on the transactions table remains the source of truth; the store
// only short-circuits repeat deliveries before they reach the database.
func (s *LedgerService) WithIdempotencyStore(store shared.IdempotencyStore, cfg shared.IdempotencyConfig) *LedgerService {
	s.idemStore = store
	s.idemConfig = cfg
	return s
}

// RecordPayment records a payment from a client, optionally applied against
// an invoice. The client's balance increases by the amount.
func (s *LedgerService) RecordPayment(ctx context.Context, cmd RecordPaymentCommand) (*TransactionResponse, error) {
	if err := validateAmount(cmd.Amount); err != nil {
		return nil, err
	}

	if tx, err := s.findCommitted(ctx, cmd.TenantID, cmd.IdempotencyKey); err != nil {
		return nil, err
	} else if tx != nil {
		response := ToTransactionResponse(tx)
		return &response, nil
	}

	client, err := s.clientRepo.FindByIDForTenant(ctx, cmd.TenantID, cmd.ClientID)
	if err != nil {
		return nil, err
	}

	if cmd.InvoiceID != nil {
		invoice, err := s.invoiceRepo.FindByIDForTenant(ctx, cmd.TenantID, *cmd.InvoiceID)
		if err != nil {
			return nil, err
		}
		if !invoice.BelongsToClient(client.ID) {
			return nil, shared.NewValidationError("Invoice does not belong to the client")
		}
		// Fail fast before touching storage; the storage-level guard in
		// IncrementPaidAmount still decides under concurrency.
		if invoice.PaidAmount.Add(cmd.Amount).GreaterThan(invoice.Total) && !cmd.AllowOverpayment {
			return nil, shared.NewDomainError("OVERPAYMENT_NOT_ALLOWED", "Payment would exceed invoice total")
		}
	}

	var committed *ledger.Transaction
	err = s.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		before, _, err := s.clientRepo.IncrementBalance(txCtx, cmd.TenantID, cmd.ClientID, cmd.Amount)
		if err != nil {
			return err
		}

		if cmd.InvoiceID != nil {
			if _, err := s.invoiceRepo.IncrementPaidAmount(txCtx, cmd.TenantID, *cmd.InvoiceID, cmd.Amount, cmd.AllowOverpayment); err != nil {
				return err
			}
		}

		tx, err := ledger.NewPaymentTransaction(cmd.TenantID, cmd.ClientID, cmd.InvoiceID, cmd.Amount, before)
		if err != nil {
			return err
		}
		applyOptions(tx, cmd.IdempotencyKey, cmd.Reference, cmd.Remark)

		if err := s.txRepo.Create(txCtx, tx); err != nil {
			return err
		}
		committed = tx
		return nil
	})
	if err != nil {
		return s.recoverFromCommitError(ctx, cmd.TenantID, cmd.IdempotencyKey, err)
	}

	s.markProcessed(ctx, cmd.TenantID, cmd.IdempotencyKey)

	response := ToTransactionResponse(committed)
	return &response, nil
}

// RecordSale records a sale to a client. The client's balance decreases by
// the amount and may go negative; negative balance is outstanding debt.
func (s *LedgerService) RecordSale(ctx context.Context, cmd RecordSaleCommand) (*TransactionResponse, error) {
	if err := validateAmount(cmd.Amount); err != nil {
		return nil, err
	}

	if tx, err := s.findCommitted(ctx, cmd.TenantID, cmd.IdempotencyKey); err != nil {
		return nil, err
	} else if tx != nil {
		response := ToTransactionResponse(tx)
		return &response, nil
	}

	if _, err := s.clientRepo.FindByIDForTenant(ctx, cmd.TenantID, cmd.ClientID); err != nil {
		return nil, err
	}

	var committed *ledger.Transaction
	err := s.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		before, _, err := s.clientRepo.IncrementBalance(txCtx, cmd.TenantID, cmd.ClientID, cmd.Amount.Neg())
		if err != nil {
			return err
		}

		tx, err := ledger.NewSaleTransaction(cmd.TenantID, cmd.ClientID, cmd.Amount, before)
		if err != nil {
			return err
		}
		applyOptions(tx, cmd.IdempotencyKey, cmd.Reference, cmd.Remark)

		if err := s.txRepo.Create(txCtx, tx); err != nil {
			return err
		}
		committed = tx
		return nil
	})
	if err != nil {
		return s.recoverFromCommitError(ctx, cmd.TenantID, cmd.IdempotencyKey, err)
	}

	s.markProcessed(ctx, cmd.TenantID, cmd.IdempotencyKey)

	response := ToTransactionResponse(committed)
	return &response, nil
}

// GetBalance retrieves the current balance for a client
func (s *LedgerService) GetBalance(ctx context.Context, tenantID, clientID uuid.UUID) (*BalanceResponse, error) {
	client, err := s.clientRepo.FindByIDForTenant(ctx, tenantID, clientID)
	if err != nil {
		return nil, err
	}

	return &BalanceResponse{ClientID: client.ID, Balance: client.Balance}, nil
}

// ListTransactions retrieves transactions for a client
func (s *LedgerService) ListTransactions(
	ctx context.Context,
	tenantID, clientID uuid.UUID,
	filter ledger.TransactionFilter,
) ([]TransactionResponse, int64, error) {
	if _, err := s.clientRepo.FindByIDForTenant(ctx, tenantID, clientID); err != nil {
		return nil, 0, err
	}

	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	transactions, total, err := s.txRepo.FindByClientID(ctx, tenantID, clientID, filter)
	if err != nil {
		return nil, 0, err
	}

	return ToTransactionResponses(transactions), total, nil
}

// findCommitted returns the already-committed transaction for an idempotency
// key, nil when the key is unused or empty.
func (s *LedgerService) findCommitted(ctx context.Context, tenantID uuid.UUID, key string) (*ledger.Transaction, error) {
	if key == "" {
		return nil, nil
	}

	// Fast path: a guard miss means the key has not been seen recently, so
	// the lookup is skipped; the unique index on the transactions table
	// catches any straggler the guard has already forgotten.
	if s.idemStore != nil && s.idemConfig.Enabled {
		if processed, err := s.idemStore.IsProcessed(ctx, idempotencyCacheKey(tenantID, key)); err == nil && !processed {
			return nil, nil
		}
	}

	tx, err := s.txRepo.FindByIdempotencyKey(ctx, tenantID, key)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return tx, nil
}

// recoverFromCommitError resolves the race where two deliveries of the same
// command reach the database: the loser's insert fails on the idempotency
// unique index and the winner's transaction is returned instead. Every other
// domain error passes through unchanged; unknown storage errors surface as
// retryable transient failures with no partial write.
func (s *LedgerService) recoverFromCommitError(ctx context.Context, tenantID uuid.UUID, key string, err error) (*TransactionResponse, error) {
	if key != "" && shared.IsConflict(err) {
		if tx, findErr := s.txRepo.FindByIdempotencyKey(ctx, tenantID, key); findErr == nil {
			response := ToTransactionResponse(tx)
			return &response, nil
		}
	}
	if _, ok := err.(*shared.DomainError); ok {
		return nil, err
	}
	return nil, shared.NewTransientStorageError(err.Error())
}

// markProcessed records the key in the fast-path guard after commit
func (s *LedgerService) markProcessed(ctx context.Context, tenantID uuid.UUID, key string) {
	if key == "" || s.idemStore == nil || !s.idemConfig.Enabled {
		return
	}
	_, _ = s.idemStore.MarkProcessed(ctx, idempotencyCacheKey(tenantID, key), s.idemConfig.TTL)
}

func idempotencyCacheKey(tenantID uuid.UUID, key string) string {
	return "ledger:idem:" + tenantID.String() + ":" + key
}

func applyOptions(tx *ledger.Transaction, idempotencyKey, reference, remark string) {
	if idempotencyKey != "" {
		tx.WithIdempotencyKey(idempotencyKey)
	}
	if reference != "" {
		tx.WithReference(reference)
	}
	if remark != "" {
		tx.WithRemark(remark)
	}
}

func validateAmount(amount decimal.Decimal) error {
	if amount.IsNegative() || amount.IsZero() {
		return shared.NewValidationError("Amount must be positive")
	}
	return nil
}
