package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/avvvet/duel-services/internal/duelsvc/models"
	"github.com/avvvet/duel-services/internal/duelsvc/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func seedUser(t *testing.T, s *Store, id, name string) {
	t.Helper()
	require.NoError(t, s.CreateUser(context.Background(), &models.User{ID: id, Username: name, CreatedAt: now}))
	require.NoError(t, s.CreateWallet(context.Background(), &models.Wallet{ID: "w-" + id, UserID: id, Token: "SOL", CreatedAt: now}))
}

func TestCreateUserConflict(t *testing.T) {
	s := New()
	seedUser(t, s, "u1", "alice")

	err := s.CreateUser(context.Background(), &models.User{ID: "u2", Username: "alice", CreatedAt: now})
	assert.ErrorIs(t, err, store.ErrConflict)
}

func TestWalletGuards(t *testing.T) {
	ctx := context.Background()
	s := New()
	seedUser(t, s, "u1", "alice")

	_, err := s.LockFunds(ctx, "u1", "SOL", decimal.NewFromInt(1), now)
	assert.ErrorIs(t, err, store.ErrGuardFailed)

	_, err = s.LockFunds(ctx, "nobody", "SOL", decimal.NewFromInt(1), now)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.CreditAvailable(ctx, "u1", "SOL", decimal.NewFromInt(10), now)
	require.NoError(t, err)

	w, err := s.LockFunds(ctx, "u1", "SOL", decimal.NewFromInt(4), now)
	require.NoError(t, err)
	assert.True(t, w.AvailableBalance.Equal(decimal.NewFromInt(6)))
	assert.True(t, w.LockedBalance.Equal(decimal.NewFromInt(4)))

	_, err = s.UnlockFunds(ctx, "u1", "SOL", decimal.NewFromInt(5), now)
	assert.ErrorIs(t, err, store.ErrGuardFailed)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := New()
	seedUser(t, s, "u1", "alice")

	boom := errors.New("boom")
	err := s.WithTx(ctx, func(q store.Queries) error {
		if _, err := q.CreditAvailable(ctx, "u1", "SOL", decimal.NewFromInt(10), now); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	w, err := s.GetWallet(ctx, "u1", "SOL")
	require.NoError(t, err)
	assert.True(t, w.AvailableBalance.IsZero())
}

func TestDuelTransitions(t *testing.T) {
	ctx := context.Background()
	s := New()
	seedUser(t, s, "u1", "alice")
	seedUser(t, s, "u2", "bob")

	require.NoError(t, s.InsertDuel(ctx, &models.Duel{
		ID:              "d1",
		Status:          models.StatusOpen,
		Player1ID:       "u1",
		Player1Username: "alice",
		StakeAmount:     decimal.NewFromInt(5),
		TokenMint:       "SOL",
		ExpiresAt:       now.Add(time.Hour),
		CreatedAt:       now,
	}))

	_, err := s.JoinDuel(ctx, "d1", "u1", "alice", now)
	assert.ErrorIs(t, err, store.ErrGuardFailed)

	d, err := s.JoinDuel(ctx, "d1", "u2", "bob", now)
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, d.Status)

	_, err = s.JoinDuel(ctx, "d1", "u2", "bob", now)
	assert.ErrorIs(t, err, store.ErrGuardFailed)

	d, err = s.SubmitClaim(ctx, "d1", models.Player1Slot, "alice", now)
	require.NoError(t, err)
	assert.Equal(t, "alice", *d.Player1SubmittedWinner)

	_, err = s.SubmitClaim(ctx, "d1", models.Player1Slot, "bob", now)
	assert.ErrorIs(t, err, store.ErrGuardFailed)

	_, err = s.MarkDisputed(ctx, "d1", now)
	assert.ErrorIs(t, err, store.ErrGuardFailed)

	_, err = s.SettleDuel(ctx, "d1", models.StatusActive, "stranger", "eve", now)
	assert.ErrorIs(t, err, store.ErrGuardFailed)

	d, err = s.SettleDuel(ctx, "d1", models.StatusActive, "u1", "alice", now)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSettled, d.Status)

	_, err = s.CancelOpenDuel(ctx, "d1", now)
	assert.ErrorIs(t, err, store.ErrGuardFailed)

	_, err = s.CancelOpenDuel(ctx, "missing", now)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestStandingsOrderAndRefresh(t *testing.T) {
	ctx := context.Background()
	s := New()
	seedUser(t, s, "u1", "carol")
	seedUser(t, s, "u2", "alice")
	seedUser(t, s, "u3", "bob")

	require.NoError(t, s.RecordWin(ctx, "u1", decimal.NewFromInt(10), now))
	require.NoError(t, s.RecordWin(ctx, "u3", decimal.NewFromInt(20), now))

	standings, err := s.ListStandings(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, standings, 3)
	assert.Equal(t, "bob", standings[0].Username)
	assert.Equal(t, "carol", standings[1].Username)
	assert.Equal(t, "alice", standings[2].Username)
	assert.Equal(t, 3, standings[2].Rank)

	n, err := s.RefreshRanks(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	require.NoError(t, s.RecordWin(ctx, "u2", decimal.NewFromInt(50), now))
	require.NoError(t, s.RecordWin(ctx, "u2", decimal.NewFromInt(50), now))
	_, err = s.RefreshRanks(ctx, now)
	require.NoError(t, err)

	p, err := s.GetPortfolio(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, 3, p.PreviousRank)
	assert.Equal(t, 1, p.CurrentRank)
}

func TestFailOn(t *testing.T) {
	ctx := context.Background()
	s := New()
	seedUser(t, s, "u1", "alice")

	boom := errors.New("disk on fire")
	s.FailOn("GetWallet", boom)
	_, err := s.GetWallet(ctx, "u1", "SOL")
	assert.ErrorIs(t, err, boom)

	s.FailOn("", nil)
	_, err = s.GetWallet(ctx, "u1", "SOL")
	assert.NoError(t, err)
}
