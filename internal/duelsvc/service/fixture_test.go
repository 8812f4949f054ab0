package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/avvvet/duel-services/internal/comm"
	"github.com/avvvet/duel-services/internal/duelsvc/matchrecord"
	"github.com/avvvet/duel-services/internal/duelsvc/models"
	"github.com/avvvet/duel-services/internal/duelsvc/store/memstore"
	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const testToken = "SOL"

type recorder struct {
	mu     sync.Mutex
	events []comm.DuelEvent
}

func (r *recorder) PublishDuelEvent(ev comm.DuelEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

type fixture struct {
	ctx      context.Context
	store    *memstore.Store
	clock    *clockwork.FakeClock
	events   *recorder
	source   *matchrecord.MemorySource
	users    *UserService
	ledger   *LedgerService
	duels    *DuelService
	verifier *VerificationService
	board    *LeaderboardService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		ctx:    context.Background(),
		store:  memstore.New(),
		clock:  clockwork.NewFakeClockAt(time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)),
		events: &recorder{},
		source: matchrecord.NewMemorySource(),
	}
	f.users = NewUserService(f.store, f.clock)
	f.ledger = NewLedgerService(f.store, f.clock)
	f.duels = NewDuelService(f.store, f.clock, f.events, DefaultDuelTTL, 2)
	f.verifier = NewVerificationService(f.store, f.source, f.duels)
	f.board = NewLeaderboardService(f.store, f.clock)
	return f
}

func dec(n int64) decimal.Decimal {
	return decimal.NewFromInt(n)
}

// player registers username with a funded wallet.
func (f *fixture) player(t *testing.T, username string, funds int64) *models.User {
	t.Helper()
	u, err := f.users.RegisterPlayer(f.ctx, username)
	require.NoError(t, err)
	_, err = f.ledger.CreateWallet(f.ctx, u.ID, testToken)
	require.NoError(t, err)
	if funds > 0 {
		_, err = f.ledger.Deposit(f.ctx, u.ID, testToken, dec(funds))
		require.NoError(t, err)
	}
	return u
}

func (f *fixture) wallet(t *testing.T, userID string) *models.Wallet {
	t.Helper()
	w, err := f.ledger.GetWallet(f.ctx, userID, testToken)
	require.NoError(t, err)
	return w
}

func (f *fixture) user(t *testing.T, userID string) *models.User {
	t.Helper()
	u, err := f.store.GetUserByID(f.ctx, userID)
	require.NoError(t, err)
	return u
}

func (f *fixture) create(t *testing.T, username string, stake int64) *models.Duel {
	t.Helper()
	d, err := f.duels.CreateDuel(f.ctx, models.CreateDuelRequest{
		Username:    username,
		StakeAmount: dec(stake),
		TokenMint:   testToken,
	})
	require.NoError(t, err)
	return d
}

// active returns an ACTIVE duel between two fresh players staking 10 each.
func (f *fixture) active(t *testing.T, gameID *string) (*models.Duel, *models.User, *models.User) {
	t.Helper()
	p1 := f.player(t, "player1", 100)
	p2 := f.player(t, "player2", 100)

	d, err := f.duels.CreateDuel(f.ctx, models.CreateDuelRequest{
		Username:    p1.Username,
		StakeAmount: dec(10),
		TokenMint:   testToken,
		GameID:      gameID,
	})
	require.NoError(t, err)

	d, err = f.duels.JoinDuel(f.ctx, d.ID, p2.Username)
	require.NoError(t, err)
	return d, p1, p2
}

func assertBalance(t *testing.T, w *models.Wallet, available, locked int64) {
	t.Helper()
	require.Truef(t, w.AvailableBalance.Equal(dec(available)), "available %s, want %d", w.AvailableBalance, available)
	require.Truef(t, w.LockedBalance.Equal(dec(locked)), "locked %s, want %d", w.LockedBalance, locked)
}

func strPtr(s string) *string { return &s }
