// Package memstore is an in-process store.Store. Every call, and every
// WithTx body, runs under one mutex against a private copy of the state that
// replaces the live state only on success.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/avvvet/duel-services/internal/duelsvc/models"
	"github.com/avvvet/duel-services/internal/duelsvc/store"
	"github.com/shopspring/decimal"
)

type walletKey struct {
	userID string
	token  string
}

type state struct {
	users      map[string]models.User
	portfolios map[string]models.Portfolio
	wallets    map[walletKey]models.Wallet
	duels      map[string]models.Duel
	entries    []models.LedgerEntry
}

func newState() *state {
	return &state{
		users:      map[string]models.User{},
		portfolios: map[string]models.Portfolio{},
		wallets:    map[walletKey]models.Wallet{},
		duels:      map[string]models.Duel{},
	}
}

// clone copies the maps. Structs hold only immutable pointees, so a shallow
// struct copy is enough.
func (st *state) clone() *state {
	c := newState()
	for k, v := range st.users {
		c.users[k] = v
	}
	for k, v := range st.portfolios {
		c.portfolios[k] = v
	}
	for k, v := range st.wallets {
		c.wallets[k] = v
	}
	for k, v := range st.duels {
		c.duels[k] = v
	}
	c.entries = append([]models.LedgerEntry(nil), st.entries...)
	return c
}

type Store struct {
	mu sync.Mutex
	st *state

	// fault, when set, is consulted before each primitive; a non-nil
	// return aborts that primitive.
	fault func(op string) error
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{st: newState()}
}

// FailOn makes every primitive named op return err until cleared with nil.
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		s.fault = nil
		return
	}
	s.fault = func(name string) error {
		if name == op {
			return err
		}
		return nil
	}
}

func (s *Store) WithTx(ctx context.Context, fn func(q store.Queries) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	if err := fn(&view{st: work, fail: s.fault}); err != nil {
		return err
	}
	s.st = work
	return nil
}

// view implements store.Queries over one working copy of the state.
type view struct {
	st   *state
	fail func(op string) error
}

var _ store.Queries = (*view)(nil)

func (v *view) check(op string) error {
	if v.fail != nil {
		return v.fail(op)
	}
	return nil
}

// --- users ---

func (v *view) CreateUser(_ context.Context, u *models.User) error {
	if err := v.check("CreateUser"); err != nil {
		return err
	}
	for _, existing := range v.st.users {
		if existing.Username == u.Username {
			return store.ErrConflict
		}
	}
	if _, ok := v.st.users[u.ID]; ok {
		return store.ErrConflict
	}
	user := *u
	user.UpdatedAt = user.CreatedAt
	v.st.users[u.ID] = user
	v.st.portfolios[u.ID] = models.Portfolio{
		UserID:         u.ID,
		TotalStakeWon:  decimal.Zero,
		TotalStakeLost: decimal.Zero,
		UpdatedAt:      u.CreatedAt,
	}
	return nil
}

func (v *view) GetUserByID(_ context.Context, id string) (*models.User, error) {
	if err := v.check("GetUserByID"); err != nil {
		return nil, err
	}
	u, ok := v.st.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (v *view) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	if err := v.check("GetUserByUsername"); err != nil {
		return nil, err
	}
	for _, u := range v.st.users {
		if u.Username == username {
			u := u
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (v *view) GetPortfolio(_ context.Context, userID string) (*models.Portfolio, error) {
	if err := v.check("GetPortfolio"); err != nil {
		return nil, err
	}
	p, ok := v.st.portfolios[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (v *view) RecordWin(_ context.Context, userID string, amount decimal.Decimal, now time.Time) error {
	if err := v.check("RecordWin"); err != nil {
		return err
	}
	return v.recordResult(userID, amount, now, true)
}

func (v *view) RecordLoss(_ context.Context, userID string, amount decimal.Decimal, now time.Time) error {
	if err := v.check("RecordLoss"); err != nil {
		return err
	}
	return v.recordResult(userID, amount, now, false)
}

func (v *view) recordResult(userID string, amount decimal.Decimal, now time.Time, won bool) error {
	u, ok := v.st.users[userID]
	if !ok {
		return store.ErrNotFound
	}
	p, ok := v.st.portfolios[userID]
	if !ok {
		return store.ErrNotFound
	}
	if won {
		u.Wins++
		p.TotalStakeWon = p.TotalStakeWon.Add(amount)
	} else {
		u.Losses++
		p.TotalStakeLost = p.TotalStakeLost.Add(amount)
	}
	u.UpdatedAt = now
	p.UpdatedAt = now
	v.st.users[userID] = u
	v.st.portfolios[userID] = p
	return nil
}

// --- wallets ---

func (v *view) CreateWallet(_ context.Context, w *models.Wallet) error {
	if err := v.check("CreateWallet"); err != nil {
		return err
	}
	key := walletKey{w.UserID, w.Token}
	if _, ok := v.st.wallets[key]; ok {
		return store.ErrConflict
	}
	wallet := *w
	wallet.AvailableBalance = decimal.Zero
	wallet.LockedBalance = decimal.Zero
	wallet.UpdatedAt = wallet.CreatedAt
	v.st.wallets[key] = wallet
	return nil
}

func (v *view) GetWallet(_ context.Context, userID, token string) (*models.Wallet, error) {
	if err := v.check("GetWallet"); err != nil {
		return nil, err
	}
	w, ok := v.st.wallets[walletKey{userID, token}]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &w, nil
}

// LockWallets is a no-op: the store mutex already serializes everything.
func (v *view) LockWallets(_ context.Context, _ string, _ ...string) error {
	return v.check("LockWallets")
}

func (v *view) LockFunds(_ context.Context, userID, token string, amount decimal.Decimal, now time.Time) (*models.Wallet, error) {
	if err := v.check("LockFunds"); err != nil {
		return nil, err
	}
	return v.move(userID, token, now, func(w *models.Wallet) bool {
		if w.AvailableBalance.LessThan(amount) {
			return false
		}
		w.AvailableBalance = w.AvailableBalance.Sub(amount)
		w.LockedBalance = w.LockedBalance.Add(amount)
		return true
	})
}

func (v *view) UnlockFunds(_ context.Context, userID, token string, amount decimal.Decimal, now time.Time) (*models.Wallet, error) {
	if err := v.check("UnlockFunds"); err != nil {
		return nil, err
	}
	return v.move(userID, token, now, func(w *models.Wallet) bool {
		if w.LockedBalance.LessThan(amount) {
			return false
		}
		w.LockedBalance = w.LockedBalance.Sub(amount)
		w.AvailableBalance = w.AvailableBalance.Add(amount)
		return true
	})
}

func (v *view) DebitLocked(_ context.Context, userID, token string, amount decimal.Decimal, now time.Time) (*models.Wallet, error) {
	if err := v.check("DebitLocked"); err != nil {
		return nil, err
	}
	return v.move(userID, token, now, func(w *models.Wallet) bool {
		if w.LockedBalance.LessThan(amount) {
			return false
		}
		w.LockedBalance = w.LockedBalance.Sub(amount)
		return true
	})
}

func (v *view) CreditAvailable(_ context.Context, userID, token string, amount decimal.Decimal, now time.Time) (*models.Wallet, error) {
	if err := v.check("CreditAvailable"); err != nil {
		return nil, err
	}
	return v.move(userID, token, now, func(w *models.Wallet) bool {
		w.AvailableBalance = w.AvailableBalance.Add(amount)
		return true
	})
}

func (v *view) DebitAvailable(_ context.Context, userID, token string, amount decimal.Decimal, now time.Time) (*models.Wallet, error) {
	if err := v.check("DebitAvailable"); err != nil {
		return nil, err
	}
	return v.move(userID, token, now, func(w *models.Wallet) bool {
		if w.AvailableBalance.LessThan(amount) {
			return false
		}
		w.AvailableBalance = w.AvailableBalance.Sub(amount)
		return true
	})
}

func (v *view) move(userID, token string, now time.Time, apply func(w *models.Wallet) bool) (*models.Wallet, error) {
	key := walletKey{userID, token}
	w, ok := v.st.wallets[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	if !apply(&w) {
		return nil, store.ErrGuardFailed
	}
	w.UpdatedAt = now
	v.st.wallets[key] = w
	return &w, nil
}

func (v *view) InsertLedgerEntry(_ context.Context, e *models.LedgerEntry) error {
	if err := v.check("InsertLedgerEntry"); err != nil {
		return err
	}
	v.st.entries = append(v.st.entries, *e)
	return nil
}

func (v *view) ListLedgerEntries(_ context.Context, userID, token string, limit int) ([]*models.LedgerEntry, error) {
	if err := v.check("ListLedgerEntries"); err != nil {
		return nil, err
	}
	var out []*models.LedgerEntry
	for i := len(v.st.entries) - 1; i >= 0 && len(out) < limit; i-- {
		e := v.st.entries[i]
		if e.Token != token {
			continue
		}
		if e.UserID == userID || (e.CounterpartyID != nil && *e.CounterpartyID == userID) {
			out = append(out, &e)
		}
	}
	return out, nil
}

// --- duels ---

func (v *view) InsertDuel(_ context.Context, d *models.Duel) error {
	if err := v.check("InsertDuel"); err != nil {
		return err
	}
	if _, ok := v.st.duels[d.ID]; ok {
		return store.ErrConflict
	}
	duel := *d
	duel.UpdatedAt = duel.CreatedAt
	v.st.duels[d.ID] = duel
	return nil
}

func (v *view) GetDuel(_ context.Context, id string) (*models.Duel, error) {
	if err := v.check("GetDuel"); err != nil {
		return nil, err
	}
	d, ok := v.st.duels[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &d, nil
}

func (v *view) ListDuels(_ context.Context, status models.DuelStatus, limit int) ([]*models.Duel, error) {
	if err := v.check("ListDuels"); err != nil {
		return nil, err
	}
	return v.listDuels(limit, func(d *models.Duel) bool { return d.Status == status }, func(a, b *models.Duel) bool {
		return a.CreatedAt.Before(b.CreatedAt)
	}), nil
}

func (v *view) ListExpiredOpen(_ context.Context, now time.Time, exclude []string, limit int) ([]*models.Duel, error) {
	if err := v.check("ListExpiredOpen"); err != nil {
		return nil, err
	}
	skip := make(map[string]bool, len(exclude))
	for _, id := range exclude {
		skip[id] = true
	}
	return v.listDuels(limit, func(d *models.Duel) bool {
		return d.Status == models.StatusOpen && d.ExpiresAt.Before(now) && !skip[d.ID]
	}, func(a, b *models.Duel) bool {
		return a.ExpiresAt.Before(b.ExpiresAt)
	}), nil
}

func (v *view) listDuels(limit int, keep func(d *models.Duel) bool, less func(a, b *models.Duel) bool) []*models.Duel {
	var out []*models.Duel
	for _, d := range v.st.duels {
		d := d
		if keep(&d) {
			out = append(out, &d)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if less(out[i], out[j]) {
			return true
		}
		if less(out[j], out[i]) {
			return false
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (v *view) JoinDuel(_ context.Context, id, userID, username string, now time.Time) (*models.Duel, error) {
	if err := v.check("JoinDuel"); err != nil {
		return nil, err
	}
	return v.transition(id, now, func(d *models.Duel) bool {
		if d.Status != models.StatusOpen || d.Player2ID != nil || d.Player1ID == userID || !d.ExpiresAt.After(now) {
			return false
		}
		d.Status = models.StatusActive
		d.Player2ID = &userID
		d.Player2Username = &username
		return true
	})
}

func (v *view) SubmitClaim(_ context.Context, id string, slot models.ClaimSlot, claim string, now time.Time) (*models.Duel, error) {
	if err := v.check("SubmitClaim"); err != nil {
		return nil, err
	}
	return v.transition(id, now, func(d *models.Duel) bool {
		if d.Status != models.StatusActive || slot == models.NoSlot || d.Claim(slot) != nil {
			return false
		}
		if slot == models.Player1Slot {
			d.Player1SubmittedWinner = &claim
		} else {
			d.Player2SubmittedWinner = &claim
		}
		return true
	})
}

func (v *view) MarkDisputed(_ context.Context, id string, now time.Time) (*models.Duel, error) {
	if err := v.check("MarkDisputed"); err != nil {
		return nil, err
	}
	return v.transition(id, now, func(d *models.Duel) bool {
		if d.Status != models.StatusActive || !d.BothClaimed() {
			return false
		}
		d.Status = models.StatusDisputed
		return true
	})
}

func (v *view) SettleDuel(_ context.Context, id string, from models.DuelStatus, winnerID, winnerUsername string, now time.Time) (*models.Duel, error) {
	if err := v.check("SettleDuel"); err != nil {
		return nil, err
	}
	return v.transition(id, now, func(d *models.Duel) bool {
		if d.Status != from || d.Player2ID == nil {
			return false
		}
		if winnerID != d.Player1ID && winnerID != *d.Player2ID {
			return false
		}
		d.Status = models.StatusSettled
		d.WinnerID = &winnerID
		d.WinnerUsername = &winnerUsername
		return true
	})
}

func (v *view) CancelOpenDuel(_ context.Context, id string, now time.Time) (*models.Duel, error) {
	if err := v.check("CancelOpenDuel"); err != nil {
		return nil, err
	}
	return v.transition(id, now, func(d *models.Duel) bool {
		if d.Status != models.StatusOpen || d.Player2ID != nil {
			return false
		}
		d.Status = models.StatusCancelled
		return true
	})
}

func (v *view) transition(id string, now time.Time, apply func(d *models.Duel) bool) (*models.Duel, error) {
	d, ok := v.st.duels[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if !apply(&d) {
		return nil, store.ErrGuardFailed
	}
	d.UpdatedAt = now
	v.st.duels[id] = d
	return &d, nil
}

// --- leaderboard ---

func (v *view) standings() []*models.Standing {
	var out []*models.Standing
	for id, p := range v.st.portfolios {
		u, ok := v.st.users[id]
		if !ok {
			continue
		}
		out = append(out, &models.Standing{
			UserID:         id,
			Username:       u.Username,
			Wins:           u.Wins,
			Losses:         u.Losses,
			TotalStakeWon:  p.TotalStakeWon,
			TotalStakeLost: p.TotalStakeLost,
			CurrentRank:    p.CurrentRank,
			PreviousRank:   p.PreviousRank,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Wins != b.Wins {
			return a.Wins > b.Wins
		}
		if c := a.TotalStakeWon.Cmp(b.TotalStakeWon); c != 0 {
			return c > 0
		}
		return a.Username < b.Username
	})
	for i, s := range out {
		s.Rank = i + 1
	}
	return out
}

func (v *view) ListStandings(_ context.Context, limit, offset int) ([]*models.Standing, error) {
	if err := v.check("ListStandings"); err != nil {
		return nil, err
	}
	all := v.standings()
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (v *view) GetStanding(_ context.Context, username string) (*models.Standing, error) {
	if err := v.check("GetStanding"); err != nil {
		return nil, err
	}
	for _, s := range v.standings() {
		if s.Username == username {
			return s, nil
		}
	}
	return nil, store.ErrNotFound
}

func (v *view) RefreshRanks(_ context.Context, now time.Time) (int, error) {
	if err := v.check("RefreshRanks"); err != nil {
		return 0, err
	}
	all := v.standings()
	for _, s := range all {
		p := v.st.portfolios[s.UserID]
		p.PreviousRank = p.CurrentRank
		p.CurrentRank = s.Rank
		p.UpdatedAt = now
		v.st.portfolios[s.UserID] = p
	}
	return len(all), nil
}
