package transfer_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minhtran/cashbook/internal/infra/memory"
	"github.com/minhtran/cashbook/internal/ledger"
	"github.com/minhtran/cashbook/internal/platform/wallet"
	"github.com/minhtran/cashbook/internal/transfer"
)

type fixture struct {
	store     *memory.Store
	wallets   *wallet.Service
	ledger    *ledger.Service
	transfers *transfer.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	walletSvc := wallet.NewService(store)
	ledgerSvc := ledger.NewService(store, walletSvc)
	return &fixture{
		store:     store,
		wallets:   walletSvc,
		ledger:    ledgerSvc,
		transfers: transfer.NewService(store.Transfers(), ledgerSvc),
	}
}

func (f *fixture) newWallet(t *testing.T, name string) uuid.UUID {
	t.Helper()
	w, err := f.wallets.Create(context.Background(), &wallet.Wallet{Name: name, Type: wallet.TypeCash})
	require.NoError(t, err)
	return w.ID
}

func (f *fixture) deposit(t *testing.T, walletID uuid.UUID, amount string) {
	t.Helper()
	_, err := f.ledger.AppendPosting(context.Background(), ledger.PostingDraft{
		WalletID: walletID,
		Kind:     ledger.KindIncome,
		Date:     date(1),
		Amount:   dec(amount),
	})
	require.NoError(t, err)
}

func (f *fixture) balance(t *testing.T, walletID uuid.UUID) decimal.Decimal {
	t.Helper()
	bal, err := f.ledger.Balance(context.Background(), walletID, nil)
	require.NoError(t, err)
	return bal
}

func date(n int) time.Time {
	return time.Date(2024, 6, n, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCreate_MovesFundsAtomically(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	fromID := f.newWallet(t, "Register")
	toID := f.newWallet(t, "Bank")
	f.deposit(t, fromID, "100")

	tr, err := f.transfers.Create(ctx, transfer.CreateInput{
		Date:         date(2),
		Amount:       dec("60"),
		FromWalletID: fromID,
		ToWalletID:   toID,
		Note:         "evening deposit",
	})
	require.NoError(t, err)

	assert.True(t, f.balance(t, fromID).Equal(dec("40")))
	assert.True(t, f.balance(t, toID).Equal(dec("60")))

	// Legs are cross-linked and carry the transfer ID.
	outLeg, err := f.ledger.GetPosting(ctx, tr.OutPostingID)
	require.NoError(t, err)
	inLeg, err := f.ledger.GetPosting(ctx, tr.InPostingID)
	require.NoError(t, err)
	assert.Equal(t, tr.ID, *outLeg.Links.TransferID)
	assert.Equal(t, tr.ID, *inLeg.Links.TransferID)
	assert.Equal(t, inLeg.ID, *outLeg.Links.CounterpartID)
	assert.Equal(t, outLeg.ID, *inLeg.Links.CounterpartID)
	assert.True(t, outLeg.Amount.Equal(inLeg.Amount.Neg()))
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	walletID := f.newWallet(t, "Register")

	_, err := f.transfers.Create(ctx, transfer.CreateInput{
		Date: date(1), Amount: dec("10"), FromWalletID: walletID, ToWalletID: walletID,
	})
	assert.ErrorIs(t, err, transfer.ErrSameWallet)

	other := f.newWallet(t, "Bank")
	_, err = f.transfers.Create(ctx, transfer.CreateInput{
		Date: date(1), Amount: dec("0"), FromWalletID: walletID, ToWalletID: other,
	})
	assert.ErrorIs(t, err, transfer.ErrNonPositiveAmount)

	_, err = f.transfers.Create(ctx, transfer.CreateInput{
		Date: date(1), Amount: dec("-5"), FromWalletID: walletID, ToWalletID: other,
	})
	assert.ErrorIs(t, err, transfer.ErrNonPositiveAmount)

	_, err = f.transfers.Create(ctx, transfer.CreateInput{
		Amount: dec("5"), FromWalletID: walletID, ToWalletID: other,
	})
	assert.ErrorIs(t, err, transfer.ErrMissingDate)

	_, err = f.transfers.Create(ctx, transfer.CreateInput{
		Date: date(1), Amount: dec("5"), ToWalletID: other,
	})
	assert.ErrorIs(t, err, transfer.ErrInvalidWalletID)
}

func TestCreate_UnknownWalletLeavesNoRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	fromID := f.newWallet(t, "Register")
	ghost := uuid.New()

	_, err := f.transfers.Create(ctx, transfer.CreateInput{
		Date: date(1), Amount: dec("10"), FromWalletID: fromID, ToWalletID: ghost,
	})
	assert.ErrorIs(t, err, ledger.ErrWalletNotFound)

	// No half-applied state anywhere.
	assert.True(t, f.balance(t, fromID).IsZero())
	transfers, err := f.transfers.ListByWallet(ctx, fromID)
	require.NoError(t, err)
	assert.Empty(t, transfers)
}

func TestEdit_UpdatesBothLegs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	fromID := f.newWallet(t, "Register")
	toID := f.newWallet(t, "Bank")
	f.deposit(t, fromID, "100")

	tr, err := f.transfers.Create(ctx, transfer.CreateInput{
		Date: date(2), Amount: dec("60"), FromWalletID: fromID, ToWalletID: toID,
	})
	require.NoError(t, err)

	newAmt := dec("25")
	edited, err := f.transfers.Edit(ctx, tr.ID, transfer.Change{Amount: &newAmt})
	require.NoError(t, err)
	assert.True(t, edited.Amount.Equal(dec("25")))

	assert.True(t, f.balance(t, fromID).Equal(dec("75")))
	assert.True(t, f.balance(t, toID).Equal(dec("25")))
}

func TestEdit_Invalid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	fromID := f.newWallet(t, "Register")
	toID := f.newWallet(t, "Bank")

	tr, err := f.transfers.Create(ctx, transfer.CreateInput{
		Date: date(2), Amount: dec("60"), FromWalletID: fromID, ToWalletID: toID,
	})
	require.NoError(t, err)

	zero := decimal.Zero
	_, err = f.transfers.Edit(ctx, tr.ID, transfer.Change{Amount: &zero})
	assert.ErrorIs(t, err, transfer.ErrNonPositiveAmount)

	_, err = f.transfers.Edit(ctx, uuid.New(), transfer.Change{})
	assert.ErrorIs(t, err, transfer.ErrTransferNotFound)

	// A deleted transfer cannot be edited.
	require.NoError(t, f.transfers.Delete(ctx, tr.ID))
	amt := dec("10")
	_, err = f.transfers.Edit(ctx, tr.ID, transfer.Change{Amount: &amt})
	assert.ErrorIs(t, err, transfer.ErrTransferNotFound)
}

func TestDelete_RevertsBalancesAndIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	fromID := f.newWallet(t, "Register")
	toID := f.newWallet(t, "Bank")
	f.deposit(t, fromID, "100")

	tr, err := f.transfers.Create(ctx, transfer.CreateInput{
		Date: date(2), Amount: dec("60"), FromWalletID: fromID, ToWalletID: toID,
	})
	require.NoError(t, err)

	require.NoError(t, f.transfers.Delete(ctx, tr.ID))
	assert.True(t, f.balance(t, fromID).Equal(dec("100")))
	assert.True(t, f.balance(t, toID).IsZero())

	require.NoError(t, f.transfers.Delete(ctx, tr.ID))

	got, err := f.transfers.Get(ctx, tr.ID)
	require.NoError(t, err)
	assert.True(t, got.Status.IsTombstoned())
}

func TestRestore_ReappliesBothLegs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	fromID := f.newWallet(t, "Register")
	toID := f.newWallet(t, "Bank")
	f.deposit(t, fromID, "100")

	tr, err := f.transfers.Create(ctx, transfer.CreateInput{
		Date: date(2), Amount: dec("60"), FromWalletID: fromID, ToWalletID: toID,
	})
	require.NoError(t, err)
	require.NoError(t, f.transfers.Delete(ctx, tr.ID))

	restored, err := f.transfers.Restore(ctx, tr.ID)
	require.NoError(t, err)
	assert.True(t, restored.Status.IsActive())
	assert.True(t, f.balance(t, fromID).Equal(dec("40")))
	assert.True(t, f.balance(t, toID).Equal(dec("60")))

	// Restoring an active transfer fails.
	_, err = f.transfers.Restore(ctx, tr.ID)
	assert.ErrorIs(t, err, transfer.ErrTransferActive)
}

func TestLegs_CannotBeMutatedIndividually(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	fromID := f.newWallet(t, "Register")
	toID := f.newWallet(t, "Bank")

	tr, err := f.transfers.Create(ctx, transfer.CreateInput{
		Date: date(2), Amount: dec("60"), FromWalletID: fromID, ToWalletID: toID,
	})
	require.NoError(t, err)

	err = f.ledger.DeletePosting(ctx, tr.OutPostingID)
	assert.ErrorIs(t, err, ledger.ErrPostingIsTransferLeg)

	amt := dec("1")
	_, err = f.ledger.EditPosting(ctx, tr.InPostingID, ledger.PostingChange{Amount: &amt})
	assert.ErrorIs(t, err, ledger.ErrPostingIsTransferLeg)
}

func TestListByWallet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.newWallet(t, "A")
	b := f.newWallet(t, "B")
	c := f.newWallet(t, "C")

	t1, err := f.transfers.Create(ctx, transfer.CreateInput{
		Date: date(1), Amount: dec("10"), FromWalletID: a, ToWalletID: b,
	})
	require.NoError(t, err)
	_, err = f.transfers.Create(ctx, transfer.CreateInput{
		Date: date(2), Amount: dec("20"), FromWalletID: b, ToWalletID: c,
	})
	require.NoError(t, err)

	forA, err := f.transfers.ListByWallet(ctx, a)
	require.NoError(t, err)
	require.Len(t, forA, 1)
	assert.Equal(t, t1.ID, forA[0].ID)

	forB, err := f.transfers.ListByWallet(ctx, b)
	require.NoError(t, err)
	assert.Len(t, forB, 2)

	// Tombstoned transfers drop out of the listing.
	require.NoError(t, f.transfers.Delete(ctx, t1.ID))
	forA, err = f.transfers.ListByWallet(ctx, a)
	require.NoError(t, err)
	assert.Empty(t, forA)
}
