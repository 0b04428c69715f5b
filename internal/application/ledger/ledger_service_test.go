package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/ledgerly/backend/internal/domain/ledger"
	"github.com/ledgerly/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// In-memory fake store
//
// The fake mirrors the storage contract the service relies on: atomic
// single-statement increments serialized per store, a unique index on the
// idempotency key, and all-or-nothing transaction semantics via snapshot
// restore. This lets the concurrency and atomicity properties run for real.
// =============================================================================

type fakeStore struct {
	mu        sync.Mutex
	clients   map[uuid.UUID]*ledger.Client
	invoices  map[uuid.UUID]*ledger.Invoice
	txs       []*ledger.Transaction
	createErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		clients:  make(map[uuid.UUID]*ledger.Client),
		invoices: make(map[uuid.UUID]*ledger.Invoice),
	}
}

func (s *fakeStore) addClient(c *ledger.Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	s.clients[c.ID] = &cp
}

func (s *fakeStore) addInvoice(i *ledger.Invoice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *i
	s.invoices[i.ID] = &cp
}

func (s *fakeStore) clientBalance(id uuid.UUID) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clients[id].Balance
}

func (s *fakeStore) invoicePaid(id uuid.UUID) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.invoices[id].PaidAmount
}

func (s *fakeStore) transactionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.txs)
}

type storeSnapshot struct {
	clients  map[uuid.UUID]ledger.Client
	invoices map[uuid.UUID]ledger.Invoice
	txs      []*ledger.Transaction
}

func (s *fakeStore) snapshot() storeSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := storeSnapshot{
		clients:  make(map[uuid.UUID]ledger.Client, len(s.clients)),
		invoices: make(map[uuid.UUID]ledger.Invoice, len(s.invoices)),
		txs:      append([]*ledger.Transaction(nil), s.txs...),
	}
	for id, c := range s.clients {
		snap.clients[id] = *c
	}
	for id, i := range s.invoices {
		snap.invoices[id] = *i
	}
	return snap
}

func (s *fakeStore) restore(snap storeSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients = make(map[uuid.UUID]*ledger.Client, len(snap.clients))
	for id, c := range snap.clients {
		cp := c
		s.clients[id] = &cp
	}
	s.invoices = make(map[uuid.UUID]*ledger.Invoice, len(snap.invoices))
	for id, i := range snap.invoices {
		cp := i
		s.invoices[id] = &cp
	}
	s.txs = snap.txs
}

type fakeClientRepo struct{ s *fakeStore }

func (r *fakeClientRepo) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ledger.Client, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.clients[id]
	if !ok || c.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeClientRepo) FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*ledger.Client, error) {
	return nil, shared.ErrNotFound
}

func (r *fakeClientRepo) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]ledger.Client, error) {
	return nil, nil
}

func (r *fakeClientRepo) Save(ctx context.Context, client *ledger.Client) error {
	r.s.addClient(client)
	return nil
}

func (r *fakeClientRepo) IncrementBalance(ctx context.Context, tenantID, id uuid.UUID, delta decimal.Decimal) (decimal.Decimal, decimal.Decimal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.clients[id]
	if !ok || c.TenantID != tenantID {
		return decimal.Zero, decimal.Zero, shared.ErrNotFound
	}
	before := c.Balance
	c.Balance = c.Balance.Add(delta)
	return before, c.Balance, nil
}

func (r *fakeClientRepo) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.clients, id)
	return nil
}

func (r *fakeClientRepo) CountForTenant(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	return int64(len(r.s.clients)), nil
}

type fakeInvoiceRepo struct{ s *fakeStore }

func (r *fakeInvoiceRepo) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ledger.Invoice, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	i, ok := r.s.invoices[id]
	if !ok || i.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	cp := *i
	return &cp, nil
}

func (r *fakeInvoiceRepo) FindByClientID(ctx context.Context, tenantID, clientID uuid.UUID, filter shared.Filter) ([]ledger.Invoice, int64, error) {
	return nil, 0, nil
}

func (r *fakeInvoiceRepo) Save(ctx context.Context, invoice *ledger.Invoice) error {
	r.s.addInvoice(invoice)
	return nil
}

func (r *fakeInvoiceRepo) IncrementPaidAmount(ctx context.Context, tenantID, id uuid.UUID, amount decimal.Decimal, allowOverpayment bool) (decimal.Decimal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	i, ok := r.s.invoices[id]
	if !ok || i.TenantID != tenantID {
		return decimal.Zero, shared.ErrNotFound
	}
	newPaid := i.PaidAmount.Add(amount)
	if newPaid.GreaterThan(i.Total) && !allowOverpayment {
		return decimal.Zero, shared.NewDomainError("OVERPAYMENT_NOT_ALLOWED", "Payment would exceed invoice total")
	}
	i.PaidAmount = newPaid
	if i.PaidAmount.GreaterThanOrEqual(i.Total) {
		i.Status = ledger.InvoiceStatusPaid
	}
	return i.PaidAmount, nil
}

func (r *fakeInvoiceRepo) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.invoices, id)
	return nil
}

type fakeTransactionRepo struct{ s *fakeStore }

func (r *fakeTransactionRepo) Create(ctx context.Context, tx *ledger.Transaction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.createErr != nil {
		return r.s.createErr
	}
	if tx.IdempotencyKey != nil {
		for _, existing := range r.s.txs {
			if existing.TenantID == tx.TenantID && existing.IdempotencyKey != nil && *existing.IdempotencyKey == *tx.IdempotencyKey {
				return shared.ErrAlreadyExists
			}
		}
	}
	cp := *tx
	r.s.txs = append(r.s.txs, &cp)
	return nil
}

func (r *fakeTransactionRepo) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ledger.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, tx := range r.s.txs {
		if tx.TenantID == tenantID && tx.ID == id {
			cp := *tx
			return &cp, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeTransactionRepo) FindByClientID(ctx context.Context, tenantID, clientID uuid.UUID, filter ledger.TransactionFilter) ([]*ledger.Transaction, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*ledger.Transaction
	for _, tx := range r.s.txs {
		if tx.TenantID == tenantID && tx.ClientID == clientID {
			cp := *tx
			out = append(out, &cp)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeTransactionRepo) FindByIdempotencyKey(ctx context.Context, tenantID uuid.UUID, key string) (*ledger.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, tx := range r.s.txs {
		if tx.TenantID == tenantID && tx.IdempotencyKey != nil && *tx.IdempotencyKey == key {
			cp := *tx
			return &cp, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeTransactionRepo) SumPaymentsByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) (decimal.Decimal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sum := decimal.Zero
	for _, tx := range r.s.txs {
		if tx.TenantID == tenantID && tx.IsPayment() && tx.InvoiceID != nil && *tx.InvoiceID == invoiceID {
			sum = sum.Add(tx.Amount)
		}
	}
	return sum, nil
}

func (r *fakeTransactionRepo) SumSignedByClient(ctx context.Context, tenantID, clientID uuid.UUID) (decimal.Decimal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sum := decimal.Zero
	for _, tx := range r.s.txs {
		if tx.TenantID == tenantID && tx.ClientID == clientID {
			sum = sum.Add(tx.SignedAmount())
		}
	}
	return sum, nil
}

// fakeTxManager restores a full snapshot when the unit of work fails, so a
// failed call leaves the store exactly as it was.
type fakeTxManager struct{ s *fakeStore }

func (m *fakeTxManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	snap := m.s.snapshot()
	if err := fn(ctx); err != nil {
		m.s.restore(snap)
		return err
	}
	return nil
}

// =============================================================================
// Fixtures
// =============================================================================

type ledgerFixture struct {
	store    *fakeStore
	service  *LedgerService
	tenantID uuid.UUID
	client   *ledger.Client
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()
	store := newFakeStore()
	tenantID := uuid.New()

	client, err := ledger.NewClient(tenantID, "CUST-001", "Acme Retail")
	require.NoError(t, err)
	store.addClient(client)

	service := NewLedgerService(
		&fakeClientRepo{s: store},
		&fakeInvoiceRepo{s: store},
		&fakeTransactionRepo{s: store},
		&fakeTxManager{s: store},
	)

	return &ledgerFixture{store: store, service: service, tenantID: tenantID, client: client}
}

func (f *ledgerFixture) addInvoice(t *testing.T, total int64) *ledger.Invoice {
	t.Helper()
	f.store.mu.Lock()
	number := fmt.Sprintf("INV-%03d", len(f.store.invoices)+1)
	f.store.mu.Unlock()
	inv, err := ledger.NewInvoice(f.tenantID, f.client.ID, number, decimal.NewFromInt(total))
	require.NoError(t, err)
	f.store.addInvoice(inv)
	return inv
}

// =============================================================================
// Tests
// =============================================================================

func TestLedgerService_RecordPayment(t *testing.T) {
	ctx := context.Background()

	t.Run("payment without invoice increases balance", func(t *testing.T) {
		f := newLedgerFixture(t)

		resp, err := f.service.RecordPayment(ctx, RecordPaymentCommand{
			TenantID: f.tenantID,
			ClientID: f.client.ID,
			Amount:   decimal.NewFromInt(500),
		})

		require.NoError(t, err)
		assert.Equal(t, "PAYMENT", resp.Type)
		assert.True(t, resp.BalanceBefore.IsZero())
		assert.True(t, resp.BalanceAfter.Equal(decimal.NewFromInt(500)))
		assert.True(t, f.store.clientBalance(f.client.ID).Equal(decimal.NewFromInt(500)))
		assert.Equal(t, 1, f.store.transactionCount())
	})

	t.Run("invoice payment updates balance and paid amount together", func(t *testing.T) {
		f := newLedgerFixture(t)
		// Seed a prior balance of 1000.
		_, err := f.service.RecordPayment(ctx, RecordPaymentCommand{
			TenantID: f.tenantID, ClientID: f.client.ID, Amount: decimal.NewFromInt(1000),
		})
		require.NoError(t, err)
		inv := f.addInvoice(t, 500)

		resp, err := f.service.RecordPayment(ctx, RecordPaymentCommand{
			TenantID:  f.tenantID,
			ClientID:  f.client.ID,
			InvoiceID: &inv.ID,
			Amount:    decimal.NewFromInt(500),
		})

		require.NoError(t, err)
		assert.True(t, resp.BalanceAfter.Equal(decimal.NewFromInt(1500)), "balance changes by exactly the payment amount")
		assert.True(t, f.store.invoicePaid(inv.ID).Equal(decimal.NewFromInt(500)))
	})

	t.Run("rejects non-positive amount with no side effects", func(t *testing.T) {
		f := newLedgerFixture(t)

		_, err := f.service.RecordPayment(ctx, RecordPaymentCommand{
			TenantID: f.tenantID, ClientID: f.client.ID, Amount: decimal.Zero,
		})

		require.Error(t, err)
		assert.True(t, shared.IsValidationError(err))
		assert.Equal(t, 0, f.store.transactionCount())
		assert.True(t, f.store.clientBalance(f.client.ID).IsZero())
	})

	t.Run("unknown client fails with not found and no side effects", func(t *testing.T) {
		f := newLedgerFixture(t)

		_, err := f.service.RecordPayment(ctx, RecordPaymentCommand{
			TenantID: f.tenantID, ClientID: uuid.New(), Amount: decimal.NewFromInt(10),
		})

		require.Error(t, err)
		assert.True(t, shared.IsNotFound(err))
		assert.Equal(t, 0, f.store.transactionCount())
	})

	t.Run("invoice of another client is rejected", func(t *testing.T) {
		f := newLedgerFixture(t)
		other, err := ledger.NewClient(f.tenantID, "CUST-002", "Other Co")
		require.NoError(t, err)
		f.store.addClient(other)
		inv, err := ledger.NewInvoice(f.tenantID, other.ID, "INV-X", decimal.NewFromInt(100))
		require.NoError(t, err)
		f.store.addInvoice(inv)

		_, err = f.service.RecordPayment(ctx, RecordPaymentCommand{
			TenantID: f.tenantID, ClientID: f.client.ID, InvoiceID: &inv.ID, Amount: decimal.NewFromInt(50),
		})

		require.Error(t, err)
		assert.True(t, shared.IsValidationError(err))
		assert.Equal(t, 0, f.store.transactionCount())
	})

	t.Run("overpayment is a conflict with nothing written", func(t *testing.T) {
		f := newLedgerFixture(t)
		inv := f.addInvoice(t, 500)

		_, err := f.service.RecordPayment(ctx, RecordPaymentCommand{
			TenantID: f.tenantID, ClientID: f.client.ID, InvoiceID: &inv.ID, Amount: decimal.NewFromInt(600),
		})

		require.Error(t, err)
		assert.True(t, shared.IsConflict(err))
		assert.Equal(t, 0, f.store.transactionCount())
		assert.True(t, f.store.clientBalance(f.client.ID).IsZero())
		assert.True(t, f.store.invoicePaid(inv.ID).IsZero())
	})

	t.Run("overpayment succeeds with explicit flag", func(t *testing.T) {
		f := newLedgerFixture(t)
		inv := f.addInvoice(t, 500)

		_, err := f.service.RecordPayment(ctx, RecordPaymentCommand{
			TenantID: f.tenantID, ClientID: f.client.ID, InvoiceID: &inv.ID,
			Amount: decimal.NewFromInt(600), AllowOverpayment: true,
		})

		require.NoError(t, err)
		assert.True(t, f.store.invoicePaid(inv.ID).Equal(decimal.NewFromInt(600)))
	})
}

func TestLedgerService_RecordSale(t *testing.T) {
	ctx := context.Background()

	t.Run("sale decreases balance", func(t *testing.T) {
		f := newLedgerFixture(t)

		resp, err := f.service.RecordSale(ctx, RecordSaleCommand{
			TenantID: f.tenantID, ClientID: f.client.ID, Amount: decimal.NewFromInt(200),
		})

		require.NoError(t, err)
		assert.Equal(t, "SALE", resp.Type)
		assert.True(t, f.store.clientBalance(f.client.ID).Equal(decimal.NewFromInt(-200)))
	})

	t.Run("storage failure leaves balance and history unchanged", func(t *testing.T) {
		f := newLedgerFixture(t)
		_, err := f.service.RecordPayment(ctx, RecordPaymentCommand{
			TenantID: f.tenantID, ClientID: f.client.ID, Amount: decimal.NewFromInt(300),
		})
		require.NoError(t, err)
		before := f.store.snapshot()

		f.store.createErr = errors.New("disk full")
		_, err = f.service.RecordSale(ctx, RecordSaleCommand{
			TenantID: f.tenantID, ClientID: f.client.ID, Amount: decimal.NewFromInt(100),
		})

		require.Error(t, err)
		assert.True(t, shared.IsTransientStorage(err), "storage failures surface as retryable")
		assert.True(t, f.store.clientBalance(f.client.ID).Equal(before.clients[f.client.ID].Balance))
		assert.Equal(t, len(before.txs), f.store.transactionCount())
	})
}

func TestLedgerService_Concurrency(t *testing.T) {
	ctx := context.Background()

	t.Run("no update is lost under concurrent calls on the same client", func(t *testing.T) {
		f := newLedgerFixture(t)

		const n = 60
		expected := decimal.Zero
		var wg sync.WaitGroup
		for i := 1; i <= n; i++ {
			amount := decimal.NewFromInt(int64(i))
			if i%2 == 0 {
				expected = expected.Add(amount)
			} else {
				expected = expected.Sub(amount)
			}

			wg.Add(1)
			go func(i int, amount decimal.Decimal) {
				defer wg.Done()
				var err error
				if i%2 == 0 {
					_, err = f.service.RecordPayment(ctx, RecordPaymentCommand{
						TenantID: f.tenantID, ClientID: f.client.ID, Amount: amount,
					})
				} else {
					_, err = f.service.RecordSale(ctx, RecordSaleCommand{
						TenantID: f.tenantID, ClientID: f.client.ID, Amount: amount,
					})
				}
				assert.NoError(t, err)
			}(i, amount)
		}
		wg.Wait()

		assert.True(t, f.store.clientBalance(f.client.ID).Equal(expected),
			"final balance %s, expected %s", f.store.clientBalance(f.client.ID), expected)
		assert.Equal(t, n, f.store.transactionCount())

		// Replaying the history reproduces the stored balance.
		replayed, err := (&fakeTransactionRepo{s: f.store}).SumSignedByClient(ctx, f.tenantID, f.client.ID)
		require.NoError(t, err)
		assert.True(t, replayed.Equal(expected))
	})
}

func TestLedgerService_Idempotency(t *testing.T) {
	ctx := context.Background()

	t.Run("re-delivered payment is not applied twice", func(t *testing.T) {
		f := newLedgerFixture(t)
		inv := f.addInvoice(t, 500)
		cmd := RecordPaymentCommand{
			TenantID:       f.tenantID,
			ClientID:       f.client.ID,
			InvoiceID:      &inv.ID,
			Amount:         decimal.NewFromInt(500),
			IdempotencyKey: "pay-001",
		}

		first, err := f.service.RecordPayment(ctx, cmd)
		require.NoError(t, err)

		second, err := f.service.RecordPayment(ctx, cmd)
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID, "re-delivery returns the committed transaction")
		assert.Equal(t, 1, f.store.transactionCount())
		assert.True(t, f.store.invoicePaid(inv.ID).Equal(decimal.NewFromInt(500)), "paid amount increased exactly once")
		assert.True(t, f.store.clientBalance(f.client.ID).Equal(decimal.NewFromInt(500)))
	})

	t.Run("re-delivered sale is not applied twice", func(t *testing.T) {
		f := newLedgerFixture(t)
		cmd := RecordSaleCommand{
			TenantID: f.tenantID, ClientID: f.client.ID,
			Amount: decimal.NewFromInt(75), IdempotencyKey: "sale-001",
		}

		first, err := f.service.RecordSale(ctx, cmd)
		require.NoError(t, err)
		second, err := f.service.RecordSale(ctx, cmd)
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		assert.True(t, f.store.clientBalance(f.client.ID).Equal(decimal.NewFromInt(-75)))
	})

	t.Run("distinct keys apply independently", func(t *testing.T) {
		f := newLedgerFixture(t)

		for _, key := range []string{"a", "b", "c"} {
			_, err := f.service.RecordPayment(ctx, RecordPaymentCommand{
				TenantID: f.tenantID, ClientID: f.client.ID,
				Amount: decimal.NewFromInt(10), IdempotencyKey: key,
			})
			require.NoError(t, err)
		}

		assert.True(t, f.store.clientBalance(f.client.ID).Equal(decimal.NewFromInt(30)))
		assert.Equal(t, 3, f.store.transactionCount())
	})
}

func TestLedgerService_GetBalance(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(t)

	_, err := f.service.RecordPayment(ctx, RecordPaymentCommand{
		TenantID: f.tenantID, ClientID: f.client.ID, Amount: decimal.NewFromInt(250),
	})
	require.NoError(t, err)

	resp, err := f.service.GetBalance(ctx, f.tenantID, f.client.ID)

	require.NoError(t, err)
	assert.True(t, resp.Balance.Equal(decimal.NewFromInt(250)))

	_, err = f.service.GetBalance(ctx, f.tenantID, uuid.New())
	assert.True(t, shared.IsNotFound(err))
}
