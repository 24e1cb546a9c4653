package ledger_test

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minhtran/cashbook/internal/infra/memory"
	"github.com/minhtran/cashbook/internal/ledger"
)

// allWallets accepts any wallet ID
type allWallets struct{}

func (allWallets) WalletExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return true, nil
}

// noWallets rejects every wallet ID
type noWallets struct{}

func (noWallets) WalletExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return false, nil
}

func newTestService(t *testing.T) (*ledger.Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	return ledger.NewService(store, allWallets{}), store
}

func day(n int) time.Time {
	return time.Date(2024, 6, n, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func income(walletID uuid.UUID, date time.Time, amount string) ledger.PostingDraft {
	return ledger.PostingDraft{
		WalletID: walletID,
		Kind:     ledger.KindIncome,
		Date:     date,
		Amount:   dec(amount),
	}
}

func expense(walletID uuid.UUID, date time.Time, amount string) ledger.PostingDraft {
	return ledger.PostingDraft{
		WalletID: walletID,
		Kind:     ledger.KindExpense,
		Date:     date,
		Amount:   dec(amount),
	}
}

// requireChain asserts that each active posting's running balance is the
// prefix sum of amounts in (date, sequence) order.
func requireChain(t *testing.T, svc *ledger.Service, walletID uuid.UUID) {
	t.Helper()
	postings, err := svc.History(context.Background(), walletID, ledger.HistoryFilter{})
	require.NoError(t, err)

	running := decimal.Zero
	for i, p := range postings {
		running = running.Add(p.Amount)
		require.True(t, p.BalanceAfter.Equal(running),
			"posting %d: balance_after = %s, want %s", i, p.BalanceAfter, running)
	}
}

func TestAppendPosting_RunningBalance(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	walletID := uuid.New()

	p1, err := svc.AppendPosting(ctx, income(walletID, day(1), "100"))
	require.NoError(t, err)
	assert.True(t, p1.BalanceAfter.Equal(dec("100")))

	p2, err := svc.AppendPosting(ctx, expense(walletID, day(2), "-30"))
	require.NoError(t, err)
	assert.True(t, p2.BalanceAfter.Equal(dec("70")))

	p3, err := svc.AppendPosting(ctx, income(walletID, day(3), "5.50"))
	require.NoError(t, err)
	assert.True(t, p3.BalanceAfter.Equal(dec("75.5")))

	requireChain(t, svc, walletID)
}

func TestAppendPosting_Validation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	walletID := uuid.New()

	_, err := svc.AppendPosting(ctx, income(uuid.Nil, day(1), "10"))
	assert.ErrorIs(t, err, ledger.ErrInvalidWalletID)

	_, err = svc.AppendPosting(ctx, ledger.PostingDraft{
		WalletID: walletID, Kind: "bogus", Date: day(1), Amount: dec("10"),
	})
	assert.ErrorIs(t, err, ledger.ErrInvalidKind)

	_, err = svc.AppendPosting(ctx, ledger.PostingDraft{
		WalletID: walletID, Kind: ledger.KindIncome, Amount: dec("10"),
	})
	assert.ErrorIs(t, err, ledger.ErrMissingDate)

	_, err = svc.AppendPosting(ctx, income(walletID, day(1), "0"))
	assert.ErrorIs(t, err, ledger.ErrZeroAmount)

	_, err = svc.AppendPosting(ctx, income(walletID, day(1), "-5"))
	assert.ErrorIs(t, err, ledger.ErrAmountSign)

	_, err = svc.AppendPosting(ctx, expense(walletID, day(1), "5"))
	assert.ErrorIs(t, err, ledger.ErrAmountSign)
}

func TestAppendPosting_UnknownWallet(t *testing.T) {
	store := memory.NewStore()
	svc := ledger.NewService(store, noWallets{})

	_, err := svc.AppendPosting(context.Background(), income(uuid.New(), day(1), "10"))
	assert.ErrorIs(t, err, ledger.ErrWalletNotFound)
}

func TestAppendPosting_BackdatedRecomputesChain(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	walletID := uuid.New()

	_, err := svc.AppendPosting(ctx, income(walletID, day(1), "100"))
	require.NoError(t, err)
	p5, err := svc.AppendPosting(ctx, expense(walletID, day(5), "-20"))
	require.NoError(t, err)
	assert.True(t, p5.BalanceAfter.Equal(dec("80")))

	// Insert between the two existing postings.
	p3, err := svc.AppendPosting(ctx, income(walletID, day(3), "50"))
	require.NoError(t, err)
	assert.True(t, p3.BalanceAfter.Equal(dec("150")))

	// The later posting's cached balance was rewritten.
	got, err := svc.GetPosting(ctx, p5.ID)
	require.NoError(t, err)
	assert.True(t, got.BalanceAfter.Equal(dec("130")))

	requireChain(t, svc, walletID)
}

func TestAppendPosting_SameDateOrdersByInsertion(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	walletID := uuid.New()

	first, err := svc.AppendPosting(ctx, income(walletID, day(1), "10"))
	require.NoError(t, err)
	second, err := svc.AppendPosting(ctx, income(walletID, day(1), "20"))
	require.NoError(t, err)

	postings, err := svc.History(ctx, walletID, ledger.HistoryFilter{})
	require.NoError(t, err)
	require.Len(t, postings, 2)
	assert.Equal(t, first.ID, postings[0].ID)
	assert.Equal(t, second.ID, postings[1].ID)
	assert.True(t, postings[1].BalanceAfter.Equal(dec("30")))
}

func TestEditPosting_AmountRecomputesDownstream(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	walletID := uuid.New()

	p1, err := svc.AppendPosting(ctx, income(walletID, day(1), "100"))
	require.NoError(t, err)
	p2, err := svc.AppendPosting(ctx, expense(walletID, day(2), "-40"))
	require.NoError(t, err)

	newAmt := dec("250")
	edited, err := svc.EditPosting(ctx, p1.ID, ledger.PostingChange{Amount: &newAmt})
	require.NoError(t, err)
	assert.True(t, edited.BalanceAfter.Equal(dec("250")))

	got, err := svc.GetPosting(ctx, p2.ID)
	require.NoError(t, err)
	assert.True(t, got.BalanceAfter.Equal(dec("210")))

	requireChain(t, svc, walletID)
}

func TestEditPosting_DateMovesPositionButKeepsSequence(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	walletID := uuid.New()

	p1, err := svc.AppendPosting(ctx, income(walletID, day(1), "100"))
	require.NoError(t, err)
	p2, err := svc.AppendPosting(ctx, income(walletID, day(5), "50"))
	require.NoError(t, err)

	// Move the later posting before the first.
	newDate := day(0).Add(-24 * time.Hour)
	_, err = svc.EditPosting(ctx, p2.ID, ledger.PostingChange{Date: &newDate})
	require.NoError(t, err)

	postings, err := svc.History(ctx, walletID, ledger.HistoryFilter{})
	require.NoError(t, err)
	require.Len(t, postings, 2)
	assert.Equal(t, p2.ID, postings[0].ID)
	assert.Equal(t, p1.ID, postings[1].ID)
	requireChain(t, svc, walletID)
}

func TestEditPosting_InvalidChanges(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	walletID := uuid.New()

	p, err := svc.AppendPosting(ctx, income(walletID, day(1), "100"))
	require.NoError(t, err)

	zero := decimal.Zero
	_, err = svc.EditPosting(ctx, p.ID, ledger.PostingChange{Amount: &zero})
	assert.ErrorIs(t, err, ledger.ErrZeroAmount)

	neg := dec("-1")
	_, err = svc.EditPosting(ctx, p.ID, ledger.PostingChange{Amount: &neg})
	assert.ErrorIs(t, err, ledger.ErrAmountSign)

	_, err = svc.EditPosting(ctx, uuid.New(), ledger.PostingChange{})
	assert.ErrorIs(t, err, ledger.ErrPostingNotFound)
}

func TestDeletePosting_TombstoneAndRecompute(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	walletID := uuid.New()

	p1, err := svc.AppendPosting(ctx, income(walletID, day(1), "100"))
	require.NoError(t, err)
	p2, err := svc.AppendPosting(ctx, expense(walletID, day(2), "-40"))
	require.NoError(t, err)

	require.NoError(t, svc.DeletePosting(ctx, p1.ID))

	// Tombstoned rows leave history; the remaining chain refolds.
	postings, err := svc.History(ctx, walletID, ledger.HistoryFilter{})
	require.NoError(t, err)
	require.Len(t, postings, 1)
	assert.Equal(t, p2.ID, postings[0].ID)
	assert.True(t, postings[0].BalanceAfter.Equal(dec("-40")))

	// Idempotent: deleting again is a no-op success.
	require.NoError(t, svc.DeletePosting(ctx, p1.ID))
}

func TestRestorePosting_RebuildsChain(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	walletID := uuid.New()

	p1, err := svc.AppendPosting(ctx, income(walletID, day(1), "100"))
	require.NoError(t, err)
	_, err = svc.AppendPosting(ctx, expense(walletID, day(2), "-40"))
	require.NoError(t, err)

	require.NoError(t, svc.DeletePosting(ctx, p1.ID))

	restored, err := svc.RestorePosting(ctx, p1.ID)
	require.NoError(t, err)
	assert.True(t, restored.Status.IsActive())
	requireChain(t, svc, walletID)

	bal, err := svc.Balance(ctx, walletID, nil)
	require.NoError(t, err)
	assert.True(t, bal.Equal(dec("60")))
}

func TestRestorePosting_ActiveFails(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	p, err := svc.AppendPosting(ctx, income(uuid.New(), day(1), "100"))
	require.NoError(t, err)

	_, err = svc.RestorePosting(ctx, p.ID)
	assert.ErrorIs(t, err, ledger.ErrPostingActive)
}

func TestTransferLegs_RejectSingleLegMutations(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	walletID := uuid.New()

	transferID := uuid.New()
	draft := income(walletID, day(1), "100")
	draft.Kind = ledger.KindAdjustment
	draft.Links.TransferID = &transferID
	p, err := svc.AppendPosting(ctx, draft)
	require.NoError(t, err)

	amt := dec("50")
	_, err = svc.EditPosting(ctx, p.ID, ledger.PostingChange{Amount: &amt})
	assert.ErrorIs(t, err, ledger.ErrPostingIsTransferLeg)

	err = svc.DeletePosting(ctx, p.ID)
	assert.ErrorIs(t, err, ledger.ErrPostingIsTransferLeg)

	_, err = svc.RestorePosting(ctx, p.ID)
	assert.ErrorIs(t, err, ledger.ErrPostingIsTransferLeg)

	// Still present and untouched.
	got, err := store.GetPosting(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, got.Status.IsActive())
}

func TestBalance_AsOfIncludesSameDate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	walletID := uuid.New()

	_, err := svc.AppendPosting(ctx, income(walletID, day(1), "100"))
	require.NoError(t, err)
	_, err = svc.AppendPosting(ctx, income(walletID, day(3), "50"))
	require.NoError(t, err)
	_, err = svc.AppendPosting(ctx, income(walletID, day(5), "25"))
	require.NoError(t, err)

	// Postings dated exactly at asOf count.
	asOf := day(3)
	bal, err := svc.Balance(ctx, walletID, &asOf)
	require.NoError(t, err)
	assert.True(t, bal.Equal(dec("150")))

	bal, err = svc.Balance(ctx, walletID, nil)
	require.NoError(t, err)
	assert.True(t, bal.Equal(dec("175")))

	// Before any posting.
	early := day(1).Add(-time.Hour)
	bal, err = svc.Balance(ctx, walletID, &early)
	require.NoError(t, err)
	assert.True(t, bal.IsZero())
}

func TestBalance_EmptyWalletIsZero(t *testing.T) {
	svc, _ := newTestService(t)

	bal, err := svc.Balance(context.Background(), uuid.New(), nil)
	require.NoError(t, err)
	assert.True(t, bal.IsZero())
}

func TestHistory_Filters(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	walletID := uuid.New()

	_, err := svc.AppendPosting(ctx, income(walletID, day(1), "100"))
	require.NoError(t, err)
	_, err = svc.AppendPosting(ctx, expense(walletID, day(2), "-30"))
	require.NoError(t, err)

	transferID := uuid.New()
	leg := income(walletID, day(3), "10")
	leg.Kind = ledger.KindAdjustment
	leg.Links.TransferID = &transferID
	_, err = svc.AppendPosting(ctx, leg)
	require.NoError(t, err)

	byKind, err := svc.History(ctx, walletID, ledger.HistoryFilter{Kinds: []ledger.Kind{ledger.KindExpense}})
	require.NoError(t, err)
	require.Len(t, byKind, 1)
	assert.Equal(t, ledger.KindExpense, byKind[0].Kind)

	from := day(2)
	byDate, err := svc.History(ctx, walletID, ledger.HistoryFilter{From: &from})
	require.NoError(t, err)
	assert.Len(t, byDate, 2)

	noLegs := false
	plain, err := svc.History(ctx, walletID, ledger.HistoryFilter{TransferLegs: &noLegs})
	require.NoError(t, err)
	assert.Len(t, plain, 2)
}

func TestUsageSummary(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	walletID := uuid.New()

	_, err := svc.AppendPosting(ctx, income(walletID, day(1), "100"))
	require.NoError(t, err)
	_, err = svc.AppendPosting(ctx, expense(walletID, day(2), "-30"))
	require.NoError(t, err)
	_, err = svc.AppendPosting(ctx, ledger.PostingDraft{
		WalletID: walletID, Kind: ledger.KindAdjustment, Date: day(3), Amount: dec("-5"),
	})
	require.NoError(t, err)
	// Outside the window.
	_, err = svc.AppendPosting(ctx, income(walletID, day(20), "999"))
	require.NoError(t, err)

	sum, err := svc.UsageSummary(ctx, walletID, day(1), day(10))
	require.NoError(t, err)
	assert.True(t, sum.IncomeTotal.Equal(dec("100")))
	assert.True(t, sum.ExpenseTotal.Equal(dec("30")))
	assert.True(t, sum.AdjustmentsTotal.Equal(dec("-5")))
	assert.True(t, sum.Net.Equal(dec("65")))
}

func TestChainInvariant_RandomizedMutations(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	walletID := uuid.New()
	rng := rand.New(rand.NewSource(42))

	var ids []uuid.UUID
	for i := 0; i < 60; i++ {
		switch rng.Intn(4) {
		case 0, 1: // append, random date so many are backdated
			amt := decimal.NewFromInt(int64(rng.Intn(500) + 1))
			d := ledger.PostingDraft{
				WalletID: walletID,
				Kind:     ledger.KindAdjustment,
				Date:     day(rng.Intn(28) + 1),
				Amount:   amt,
			}
			if rng.Intn(2) == 0 {
				d.Amount = d.Amount.Neg()
			}
			p, err := svc.AppendPosting(ctx, d)
			require.NoError(t, err)
			ids = append(ids, p.ID)
		case 2: // delete
			if len(ids) == 0 {
				continue
			}
			require.NoError(t, svc.DeletePosting(ctx, ids[rng.Intn(len(ids))]))
		case 3: // edit amount if still active
			if len(ids) == 0 {
				continue
			}
			amt := decimal.NewFromInt(int64(rng.Intn(500) + 1))
			_, err := svc.EditPosting(ctx, ids[rng.Intn(len(ids))], ledger.PostingChange{Amount: &amt})
			if err != nil {
				require.ErrorIs(t, err, ledger.ErrPostingNotFound)
			}
		}
		requireChain(t, svc, walletID)
	}
}
