//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minhtran/cashbook/internal/debt"
	"github.com/minhtran/cashbook/internal/ledger"
	"github.com/minhtran/cashbook/internal/platform/lifecycle"
	"github.com/minhtran/cashbook/internal/platform/wallet"
	"github.com/minhtran/cashbook/internal/transfer"
	"github.com/minhtran/cashbook/testutil/testdb"
)

var testDB *testdb.TestDB

func TestMain(m *testing.M) {
	ctx := context.Background()

	var err error
	testDB, err = testdb.NewTestDB(ctx)
	if err != nil {
		panic("failed to create test database: " + err.Error())
	}

	code := m.Run()

	testDB.Close(ctx)
	if code != 0 {
		panic("tests failed")
	}
}

func setupTest(t *testing.T) context.Context {
	ctx := context.Background()
	require.NoError(t, testDB.Reset(ctx))
	return ctx
}

func createTestWallet(t *testing.T, ctx context.Context) uuid.UUID {
	walletID := uuid.New()
	_, err := testDB.Pool.Exec(ctx, `
		INSERT INTO wallets (id, name, type, status, created_at, updated_at)
		VALUES ($1, $2, 'cash', 'active', NOW(), NOW())
	`, walletID, "Test Wallet "+walletID.String()[:8])
	require.NoError(t, err)
	return walletID
}

func testPosting(walletID uuid.UUID, amount string) *ledger.Posting {
	amt := decimal.RequireFromString(amount)
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &ledger.Posting{
		ID:           uuid.New(),
		WalletID:     walletID,
		Kind:         ledger.KindIncome,
		Date:         now,
		Amount:       amt,
		Note:         "test posting",
		BalanceAfter: amt,
		Status:       lifecycle.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestPostingRepository_CreateAndGet(t *testing.T) {
	ctx := setupTest(t)
	repo := NewPostingRepository(testDB.Pool)
	walletID := createTestWallet(t, ctx)

	p := testPosting(walletID, "125.50")
	require.NoError(t, repo.CreatePosting(ctx, p))
	assert.Greater(t, p.Sequence, int64(0))

	got, err := repo.GetPosting(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, ledger.KindIncome, got.Kind)
	assert.True(t, got.Amount.Equal(decimal.RequireFromString("125.50")))
	assert.True(t, got.BalanceAfter.Equal(p.BalanceAfter))
	assert.Equal(t, p.Sequence, got.Sequence)
	assert.Equal(t, lifecycle.StatusActive, got.Status)
}

func TestPostingRepository_GetNotFound(t *testing.T) {
	ctx := setupTest(t)
	repo := NewPostingRepository(testDB.Pool)

	_, err := repo.GetPosting(ctx, uuid.New())
	assert.ErrorIs(t, err, ledger.ErrPostingNotFound)
}

func TestPostingRepository_SequenceOrdersSameDate(t *testing.T) {
	ctx := setupTest(t)
	repo := NewPostingRepository(testDB.Pool)
	walletID := createTestWallet(t, ctx)

	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		p := testPosting(walletID, "10.00")
		p.Date = date
		require.NoError(t, repo.CreatePosting(ctx, p))
		ids = append(ids, p.ID)
	}

	postings, err := repo.ListActiveByWallet(ctx, walletID)
	require.NoError(t, err)
	require.Len(t, postings, 3)
	for i, p := range postings {
		assert.Equal(t, ids[i], p.ID)
	}
	assert.Less(t, postings[0].Sequence, postings[1].Sequence)
	assert.Less(t, postings[1].Sequence, postings[2].Sequence)
}

func TestPostingRepository_ListSkipsTombstoned(t *testing.T) {
	ctx := setupTest(t)
	repo := NewPostingRepository(testDB.Pool)
	walletID := createTestWallet(t, ctx)

	active := testPosting(walletID, "50.00")
	require.NoError(t, repo.CreatePosting(ctx, active))

	dead := testPosting(walletID, "75.00")
	require.NoError(t, repo.CreatePosting(ctx, dead))
	dead.Status = lifecycle.StatusTombstoned
	require.NoError(t, repo.UpdatePosting(ctx, dead))

	postings, err := repo.ListActiveByWallet(ctx, walletID)
	require.NoError(t, err)
	require.Len(t, postings, 1)
	assert.Equal(t, active.ID, postings[0].ID)
}

func TestPostingRepository_UpdateBalances(t *testing.T) {
	ctx := setupTest(t)
	repo := NewPostingRepository(testDB.Pool)
	walletID := createTestWallet(t, ctx)

	a := testPosting(walletID, "100.00")
	require.NoError(t, repo.CreatePosting(ctx, a))
	b := testPosting(walletID, "40.00")
	require.NoError(t, repo.CreatePosting(ctx, b))

	updates := []ledger.BalanceUpdate{
		{PostingID: a.ID, BalanceAfter: decimal.RequireFromString("100.00")},
		{PostingID: b.ID, BalanceAfter: decimal.RequireFromString("140.00")},
	}
	require.NoError(t, repo.UpdateBalances(ctx, walletID, updates))

	got, err := repo.GetPosting(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, got.BalanceAfter.Equal(decimal.RequireFromString("140.00")))
}

func TestPostingRepository_UpdateBalancesMissingPostingRollsBack(t *testing.T) {
	ctx := setupTest(t)
	repo := NewPostingRepository(testDB.Pool)
	walletID := createTestWallet(t, ctx)

	a := testPosting(walletID, "100.00")
	require.NoError(t, repo.CreatePosting(ctx, a))

	updates := []ledger.BalanceUpdate{
		{PostingID: a.ID, BalanceAfter: decimal.RequireFromString("999.00")},
		{PostingID: uuid.New(), BalanceAfter: decimal.RequireFromString("1.00")},
	}
	err := repo.UpdateBalances(ctx, walletID, updates)
	assert.ErrorIs(t, err, ledger.ErrPostingNotFound)

	got, err := repo.GetPosting(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, got.BalanceAfter.Equal(decimal.RequireFromString("100.00")))
}

func TestPostingRepository_LinksRoundTrip(t *testing.T) {
	ctx := setupTest(t)
	repo := NewPostingRepository(testDB.Pool)
	orders := NewOrderRepository(testDB.Pool)
	walletID := createTestWallet(t, ctx)

	order := &debt.Order{
		ID:         uuid.New(),
		CustomerID: uuid.New(),
		Total:      decimal.RequireFromString("300.00"),
		CreatedAt:  time.Now().UTC(),
	}
	require.NoError(t, orders.CreateOrder(ctx, order))

	p := testPosting(walletID, "150.00")
	p.Links.OrderID = &order.ID
	require.NoError(t, repo.CreatePosting(ctx, p))

	got, err := repo.GetPosting(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Links.OrderID)
	assert.Equal(t, order.ID, *got.Links.OrderID)
	assert.Nil(t, got.Links.TransferID)

	byOrder, err := repo.ListActiveByOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, byOrder, 1)
	assert.Equal(t, p.ID, byOrder[0].ID)
}

func TestWalletRepository_CRUD(t *testing.T) {
	ctx := setupTest(t)
	repo := NewWalletRepository(testDB.Pool)

	now := time.Now().UTC().Truncate(time.Microsecond)
	w := &wallet.Wallet{
		ID:        uuid.New(),
		Name:      "Register",
		Type:      wallet.TypeCash,
		Status:    lifecycle.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, repo.Create(ctx, w))

	got, err := repo.Get(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, "Register", got.Name)
	assert.Equal(t, wallet.TypeCash, got.Type)

	exists, err := repo.ExistsByName(ctx, "Register")
	require.NoError(t, err)
	assert.True(t, exists)

	got.Status = lifecycle.StatusTombstoned
	require.NoError(t, repo.Update(ctx, got))

	active, err := repo.List(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, active)

	all, err := repo.List(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestTransferRepository_CRUD(t *testing.T) {
	ctx := setupTest(t)
	repo := NewTransferRepository(testDB.Pool)
	fromID := createTestWallet(t, ctx)
	toID := createTestWallet(t, ctx)

	now := time.Now().UTC().Truncate(time.Microsecond)
	tr := &transfer.Transfer{
		ID:           uuid.New(),
		Date:         now,
		Amount:       decimal.RequireFromString("80.00"),
		FromWalletID: fromID,
		ToWalletID:   toID,
		Note:         "float top-up",
		OutPostingID: uuid.New(),
		InPostingID:  uuid.New(),
		Status:       lifecycle.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, repo.Create(ctx, tr))

	got, err := repo.Get(ctx, tr.ID)
	require.NoError(t, err)
	assert.True(t, got.Amount.Equal(tr.Amount))
	assert.Equal(t, tr.OutPostingID, got.OutPostingID)

	byWallet, err := repo.ListActiveByWallet(ctx, toID)
	require.NoError(t, err)
	require.Len(t, byWallet, 1)

	got.Status = lifecycle.StatusTombstoned
	require.NoError(t, repo.Update(ctx, got))

	byWallet, err = repo.ListActiveByWallet(ctx, toID)
	require.NoError(t, err)
	assert.Empty(t, byWallet)

	require.NoError(t, repo.Remove(ctx, tr.ID))
	_, err = repo.Get(ctx, tr.ID)
	assert.ErrorIs(t, err, transfer.ErrTransferNotFound)
}

func TestJobRepository_DiscountUpdate(t *testing.T) {
	ctx := setupTest(t)
	repo := NewJobRepository(testDB.Pool)

	j := &debt.WorkshopJob{
		ID:             uuid.New(),
		WorkshopID:     uuid.New(),
		Amount:         decimal.RequireFromString("200.00"),
		DiscountAmount: decimal.Zero,
		CreatedAt:      time.Now().UTC(),
	}
	require.NoError(t, repo.CreateJob(ctx, j))

	j.DiscountAmount = decimal.RequireFromString("25.00")
	require.NoError(t, repo.UpdateJob(ctx, j))

	got, err := repo.GetJob(ctx, j.ID)
	require.NoError(t, err)
	assert.True(t, got.DiscountAmount.Equal(decimal.RequireFromString("25.00")))
}
