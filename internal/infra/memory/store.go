// Package memory provides a mutex-guarded in-memory implementation of every
// repository port. It backs unit tests and STORAGE=memory local runs; the
// postgres package is the production implementation.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/minhtran/cashbook/internal/debt"
	"github.com/minhtran/cashbook/internal/ledger"
	"github.com/minhtran/cashbook/internal/platform/wallet"
	"github.com/minhtran/cashbook/internal/transfer"
)

// Store holds all records in maps. Values are cloned on the way in and out
// so callers never alias stored state.
type Store struct {
	mu        sync.RWMutex
	seq       int64
	postings  map[uuid.UUID]*ledger.Posting
	wallets   map[uuid.UUID]*wallet.Wallet
	transfers map[uuid.UUID]*transfer.Transfer
	orders    map[uuid.UUID]*debt.Order
	jobs      map[uuid.UUID]*debt.WorkshopJob
}

// NewStore creates an empty in-memory store
func NewStore() *Store {
	return &Store{
		postings:  make(map[uuid.UUID]*ledger.Posting),
		wallets:   make(map[uuid.UUID]*wallet.Wallet),
		transfers: make(map[uuid.UUID]*transfer.Transfer),
		orders:    make(map[uuid.UUID]*debt.Order),
		jobs:      make(map[uuid.UUID]*debt.WorkshopJob),
	}
}

// --- ledger.Repository ---

// CreatePosting stores a posting and assigns its sequence number
func (s *Store) CreatePosting(ctx context.Context, p *ledger.Posting) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	p.Sequence = s.seq
	s.postings[p.ID] = p.Clone()
	return nil
}

// GetPosting retrieves a posting by ID
func (s *Store) GetPosting(ctx context.Context, id uuid.UUID) (*ledger.Posting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.postings[id]
	if !ok {
		return nil, ledger.ErrPostingNotFound
	}
	return p.Clone(), nil
}

// UpdatePosting replaces a stored posting
func (s *Store) UpdatePosting(ctx context.Context, p *ledger.Posting) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.postings[p.ID]
	if !ok {
		return ledger.ErrPostingNotFound
	}
	cp := p.Clone()
	cp.Sequence = stored.Sequence
	s.postings[p.ID] = cp
	return nil
}

// RemovePosting erases a posting permanently
func (s *Store) RemovePosting(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.postings[id]; !ok {
		return ledger.ErrPostingNotFound
	}
	delete(s.postings, id)
	return nil
}

// ListActiveByWallet returns the wallet's active postings in (date, sequence) order
func (s *Store) ListActiveByWallet(ctx context.Context, walletID uuid.UUID) ([]*ledger.Posting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.listActive(func(p *ledger.Posting) bool {
		return p.WalletID == walletID
	}), nil
}

// ListActiveByOrder returns active postings linked to the order
func (s *Store) ListActiveByOrder(ctx context.Context, orderID uuid.UUID) ([]*ledger.Posting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.listActive(func(p *ledger.Posting) bool {
		return p.Links.OrderID != nil && *p.Links.OrderID == orderID
	}), nil
}

// ListActiveByWorkshopJob returns active postings linked to the job
func (s *Store) ListActiveByWorkshopJob(ctx context.Context, jobID uuid.UUID) ([]*ledger.Posting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.listActive(func(p *ledger.Posting) bool {
		return p.Links.WorkshopJobID != nil && *p.Links.WorkshopJobID == jobID
	}), nil
}

// UpdateBalances applies a recompute batch all-or-nothing
func (s *Store) UpdateBalances(ctx context.Context, walletID uuid.UUID, updates []ledger.BalanceUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Validate the whole batch before touching anything.
	for _, u := range updates {
		if _, ok := s.postings[u.PostingID]; !ok {
			return ledger.ErrPostingNotFound
		}
	}
	for _, u := range updates {
		s.postings[u.PostingID].BalanceAfter = u.BalanceAfter
	}
	return nil
}

// listActive filters active postings and sorts them chronologically.
// Callers hold s.mu.
func (s *Store) listActive(match func(*ledger.Posting) bool) []*ledger.Posting {
	var out []*ledger.Posting
	for _, p := range s.postings {
		if p.Status.IsActive() && match(p) {
			out = append(out, p.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// --- wallet.Repository ---

// Create stores a wallet
func (s *Store) Create(ctx context.Context, w *wallet.Wallet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *w
	s.wallets[w.ID] = &cp
	return nil
}

// Get retrieves a wallet by ID
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*wallet.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, ok := s.wallets[id]
	if !ok {
		return nil, wallet.ErrNotFound
	}
	cp := *w
	return &cp, nil
}

// List returns wallets in creation order
func (s *Store) List(ctx context.Context, includeTombstoned bool) ([]*wallet.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*wallet.Wallet
	for _, w := range s.wallets {
		if !includeTombstoned && w.Status.IsTombstoned() {
			continue
		}
		cp := *w
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// Update replaces a stored wallet
func (s *Store) Update(ctx context.Context, w *wallet.Wallet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.wallets[w.ID]; !ok {
		return wallet.ErrNotFound
	}
	cp := *w
	s.wallets[w.ID] = &cp
	return nil
}

// ExistsByName checks if an active wallet with the name exists
func (s *Store) ExistsByName(ctx context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, w := range s.wallets {
		if w.Name == name && w.Status.IsActive() {
			return true, nil
		}
	}
	return false, nil
}

// --- transfer.Repository ---

// CreateTransfer stores a transfer record
func (s *Store) CreateTransfer(ctx context.Context, t *transfer.Transfer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.transfers[t.ID] = t.Clone()
	return nil
}

// GetTransfer retrieves a transfer by ID
func (s *Store) GetTransfer(ctx context.Context, id uuid.UUID) (*transfer.Transfer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.transfers[id]
	if !ok {
		return nil, transfer.ErrTransferNotFound
	}
	return t.Clone(), nil
}

// UpdateTransfer replaces a stored transfer
func (s *Store) UpdateTransfer(ctx context.Context, t *transfer.Transfer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.transfers[t.ID]; !ok {
		return transfer.ErrTransferNotFound
	}
	s.transfers[t.ID] = t.Clone()
	return nil
}

// RemoveTransfer erases a transfer record permanently
func (s *Store) RemoveTransfer(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.transfers[id]; !ok {
		return transfer.ErrTransferNotFound
	}
	delete(s.transfers, id)
	return nil
}

// ListActiveTransfersByWallet returns active transfers touching the wallet
func (s *Store) ListActiveTransfersByWallet(ctx context.Context, walletID uuid.UUID) ([]*transfer.Transfer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*transfer.Transfer
	for _, t := range s.transfers {
		if !t.Status.IsActive() {
			continue
		}
		if t.FromWalletID != walletID && t.ToWalletID != walletID {
			continue
		}
		out = append(out, t.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// TransferRepo adapts the store to the transfer.Repository port; the wallet
// repository already claims the bare Create/Get/Update method names.
type TransferRepo struct {
	s *Store
}

// Transfers returns the transfer.Repository view of the store
func (s *Store) Transfers() *TransferRepo {
	return &TransferRepo{s: s}
}

func (r *TransferRepo) Create(ctx context.Context, t *transfer.Transfer) error {
	return r.s.CreateTransfer(ctx, t)
}

func (r *TransferRepo) Get(ctx context.Context, id uuid.UUID) (*transfer.Transfer, error) {
	return r.s.GetTransfer(ctx, id)
}

func (r *TransferRepo) Update(ctx context.Context, t *transfer.Transfer) error {
	return r.s.UpdateTransfer(ctx, t)
}

func (r *TransferRepo) Remove(ctx context.Context, id uuid.UUID) error {
	return r.s.RemoveTransfer(ctx, id)
}

func (r *TransferRepo) ListActiveByWallet(ctx context.Context, walletID uuid.UUID) ([]*transfer.Transfer, error) {
	return r.s.ListActiveTransfersByWallet(ctx, walletID)
}

// --- debt.OrderRepository / debt.JobRepository ---

// CreateOrder stores an order
func (s *Store) CreateOrder(ctx context.Context, o *debt.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *o
	s.orders[o.ID] = &cp
	return nil
}

// GetOrder retrieves an order by ID
func (s *Store) GetOrder(ctx context.Context, id uuid.UUID) (*debt.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, debt.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

// CreateJob stores a workshop job
func (s *Store) CreateJob(ctx context.Context, j *debt.WorkshopJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *j
	s.jobs[j.ID] = &cp
	return nil
}

// GetJob retrieves a workshop job by ID
func (s *Store) GetJob(ctx context.Context, id uuid.UUID) (*debt.WorkshopJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	j, ok := s.jobs[id]
	if !ok {
		return nil, debt.ErrJobNotFound
	}
	cp := *j
	return &cp, nil
}

// UpdateJob replaces a stored workshop job
func (s *Store) UpdateJob(ctx context.Context, j *debt.WorkshopJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[j.ID]; !ok {
		return debt.ErrJobNotFound
	}
	cp := *j
	s.jobs[j.ID] = &cp
	return nil
}
