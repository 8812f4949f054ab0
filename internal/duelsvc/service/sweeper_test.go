package service

import (
	"errors"
	"testing"
	"time"

	"github.com/avvvet/duel-services/internal/comm"
	"github.com/avvvet/duel-services/internal/duelsvc/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepCancelsExpiredOpenDuels(t *testing.T) {
	f := newFixture(t)
	p1 := f.player(t, "player1", 100)

	d, err := f.duels.CreateDuel(f.ctx, models.CreateDuelRequest{
		Username:    p1.Username,
		StakeAmount: dec(10),
		TokenMint:   testToken,
		ExpiresIn:   time.Millisecond,
	})
	require.NoError(t, err)
	assertBalance(t, f.wallet(t, p1.ID), 90, 10)

	f.clock.Advance(time.Second)
	res, err := f.duels.SweepExpired(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Cancelled)
	assert.Zero(t, res.Failed)

	stored, err := f.duels.GetDuel(f.ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, stored.Status)
	assertBalance(t, f.wallet(t, p1.ID), 100, 0)
	assert.Contains(t, f.events.types(), comm.EventDuelExpired)
}

func TestSweepLeavesUnexpiredAndJoinedDuels(t *testing.T) {
	f := newFixture(t)
	active, p1, _ := f.active(t, nil)
	fresh := f.create(t, p1.Username, 5)

	f.clock.Advance(time.Minute)
	res, err := f.duels.SweepExpired(f.ctx)
	require.NoError(t, err)
	assert.Zero(t, res.Cancelled)

	f.clock.Advance(DefaultDuelTTL)
	res, err = f.duels.SweepExpired(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Cancelled)

	stored, err := f.duels.GetDuel(f.ctx, active.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, stored.Status)

	stored, err = f.duels.GetDuel(f.ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, stored.Status)
	assertBalance(t, f.wallet(t, p1.ID), 90, 10)
}

func TestSweepDrainsMultipleBatches(t *testing.T) {
	f := newFixture(t)
	p1 := f.player(t, "player1", 100)
	for i := 0; i < 5; i++ {
		f.create(t, p1.Username, 1)
	}

	f.clock.Advance(time.Hour)
	res, err := f.duels.SweepExpired(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, res.Cancelled)
	assertBalance(t, f.wallet(t, p1.ID), 100, 0)
}

func TestSweepCountsRowFailures(t *testing.T) {
	f := newFixture(t)
	p1 := f.player(t, "player1", 100)
	d := f.create(t, p1.Username, 10)

	f.store.FailOn("UnlockFunds", errors.New("timeout"))
	f.clock.Advance(time.Hour)
	res, err := f.duels.SweepExpired(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)
	assert.Zero(t, res.Cancelled)
	f.store.FailOn("", nil)

	stored, err := f.duels.GetDuel(f.ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusOpen, stored.Status)

	res, err = f.duels.SweepExpired(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Cancelled)
}

func TestSweepCountsEachFailingDuelOnce(t *testing.T) {
	f := newFixture(t)
	bad := f.player(t, "stuck", 100)
	good := f.player(t, "player1", 100)

	f.create(t, bad.Username, 10)
	f.clock.Advance(time.Second)
	g1 := f.create(t, good.Username, 10)
	f.clock.Advance(time.Second)
	g2 := f.create(t, good.Username, 10)

	hs := newHookStore(f.store)
	hs.failUnlock[bad.ID] = true
	duels := NewDuelService(hs, f.clock, f.events, DefaultDuelTTL, 2)

	f.clock.Advance(time.Hour)
	res, err := duels.SweepExpired(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Cancelled)
	assert.Equal(t, 1, res.Failed)
	assert.Zero(t, res.Skipped)

	for _, id := range []string{g1.ID, g2.ID} {
		stored, err := f.duels.GetDuel(f.ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.StatusCancelled, stored.Status)
	}
	assertBalance(t, f.wallet(t, bad.ID), 90, 10)
	assertBalance(t, f.wallet(t, good.ID), 100, 0)
}

func TestSweepReachesDuelsBehindAFailedBatch(t *testing.T) {
	f := newFixture(t)
	bad := f.player(t, "stuck", 100)
	good := f.player(t, "player1", 100)

	f.create(t, bad.Username, 5)
	f.create(t, bad.Username, 5)
	f.clock.Advance(time.Second)
	g := f.create(t, good.Username, 10)

	hs := newHookStore(f.store)
	hs.failUnlock[bad.ID] = true
	duels := NewDuelService(hs, f.clock, f.events, DefaultDuelTTL, 2)

	f.clock.Advance(time.Hour)
	res, err := duels.SweepExpired(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Cancelled)
	assert.Equal(t, 2, res.Failed)

	stored, err := f.duels.GetDuel(f.ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, stored.Status)
}
