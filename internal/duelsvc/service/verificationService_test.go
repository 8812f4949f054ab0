package service

import (
	"testing"
	"time"

	"github.com/avvvet/duel-services/internal/duelsvc/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// disputed builds a DISPUTED duel on game g1 where each side claimed itself.
func (f *fixture) disputed(t *testing.T) (*models.Duel, *models.User, *models.User) {
	t.Helper()
	d, p1, p2 := f.active(t, strPtr("g1"))
	_, err := f.duels.SubmitResult(f.ctx, d.ID, p1.Username, p1.Username)
	require.NoError(t, err)
	res, err := f.duels.SubmitResult(f.ctx, d.ID, p2.Username, p2.Username)
	require.NoError(t, err)
	require.Equal(t, models.StatusDisputed, res.Duel.Status)
	return res.Duel, p1, p2
}

func (f *fixture) recordMatch(userID string, won bool, at time.Time) {
	profileID := "profile-" + userID
	f.source.AddProfile(models.GameProfile{ID: profileID, UserID: userID, GameID: "g1", PlayerID: userID})
	f.source.AddMatch(models.MatchRecord{ID: profileID + at.String(), GameProfileID: profileID, Won: won, PlayedAt: at})
}

func TestVerifySettlesFromMatchRecords(t *testing.T) {
	f := newFixture(t)
	d, p1, p2 := f.disputed(t)

	now := f.clock.Now()
	f.recordMatch(p1.ID, true, now)
	f.recordMatch(p2.ID, false, now)

	res, err := f.verifier.VerifyDispute(f.ctx, d.ID)
	require.NoError(t, err)
	assert.True(t, res.Verified)
	require.NotNil(t, res.WinnerUsername)
	assert.Equal(t, p1.Username, *res.WinnerUsername)
	assert.Equal(t, models.StatusSettled, res.Duel.Status)

	assertBalance(t, f.wallet(t, p1.ID), 110, 0)
	assertBalance(t, f.wallet(t, p2.ID), 90, 0)
	assert.Equal(t, 1, f.user(t, p1.ID).Wins)
	assert.Equal(t, 1, f.user(t, p2.ID).Losses)

	again, err := f.verifier.VerifyDispute(f.ctx, d.ID)
	require.NoError(t, err)
	assert.False(t, again.Verified)
	assertBalance(t, f.wallet(t, p1.ID), 110, 0)
}

func TestVerifyUsesLatestMatchOnly(t *testing.T) {
	f := newFixture(t)
	d, p1, p2 := f.disputed(t)

	now := f.clock.Now()
	f.recordMatch(p1.ID, true, now.Add(-time.Hour))
	f.recordMatch(p1.ID, false, now)
	f.recordMatch(p2.ID, true, now)

	res, err := f.verifier.VerifyDispute(f.ctx, d.ID)
	require.NoError(t, err)
	assert.True(t, res.Verified)
	assert.Equal(t, p2.Username, *res.WinnerUsername)
}

func TestVerifyAmbiguousLeavesDispute(t *testing.T) {
	cases := []struct {
		name   string
		record func(f *fixture, p1, p2 *models.User)
	}{
		{"both won", func(f *fixture, p1, p2 *models.User) {
			f.recordMatch(p1.ID, true, f.clock.Now())
			f.recordMatch(p2.ID, true, f.clock.Now())
		}},
		{"neither won", func(f *fixture, p1, p2 *models.User) {
			f.recordMatch(p1.ID, false, f.clock.Now())
			f.recordMatch(p2.ID, false, f.clock.Now())
		}},
		{"missing profile", func(f *fixture, p1, _ *models.User) {
			f.recordMatch(p1.ID, true, f.clock.Now())
		}},
		{"no records", func(*fixture, *models.User, *models.User) {}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			d, p1, p2 := f.disputed(t)
			tc.record(f, p1, p2)

			res, err := f.verifier.VerifyDispute(f.ctx, d.ID)
			require.NoError(t, err)
			assert.False(t, res.Verified)
			assert.Equal(t, ReasonManualReview, res.Reason)

			stored, err := f.duels.GetDuel(f.ctx, d.ID)
			require.NoError(t, err)
			assert.Equal(t, models.StatusDisputed, stored.Status)
			assertBalance(t, f.wallet(t, p1.ID), 90, 10)
		})
	}
}

func TestVerifyExpectedMisses(t *testing.T) {
	f := newFixture(t)

	res, err := f.verifier.VerifyDispute(f.ctx, "missing")
	require.NoError(t, err)
	assert.False(t, res.Verified)
	assert.Equal(t, "duel not found", res.Reason)

	active, p1, p2 := f.active(t, nil)
	res, err = f.verifier.VerifyDispute(f.ctx, active.ID)
	require.NoError(t, err)
	assert.False(t, res.Verified)
	assert.Contains(t, res.Reason, "wrong state")

	_, err = f.duels.SubmitResult(f.ctx, active.ID, p1.Username, p1.Username)
	require.NoError(t, err)
	_, err = f.duels.SubmitResult(f.ctx, active.ID, p2.Username, p2.Username)
	require.NoError(t, err)

	res, err = f.verifier.VerifyDispute(f.ctx, active.ID)
	require.NoError(t, err)
	assert.False(t, res.Verified)
	assert.Contains(t, res.Reason, "missing linkage")
}

func TestRecheckDisputed(t *testing.T) {
	f := newFixture(t)
	d, p1, p2 := f.disputed(t)

	n, err := f.verifier.RecheckDisputed(f.ctx, 10)
	require.NoError(t, err)
	assert.Zero(t, n)

	f.recordMatch(p1.ID, false, f.clock.Now())
	f.recordMatch(p2.ID, true, f.clock.Now())

	n, err = f.verifier.RecheckDisputed(f.ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	stored, err := f.duels.GetDuel(f.ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, p2.Username, *stored.WinnerUsername)
}

func TestVerifyTiedLatestMatchesNeedReview(t *testing.T) {
	f := newFixture(t)
	d, p1, p2 := f.disputed(t)

	now := f.clock.Now()
	profile := "profile-" + p1.ID
	f.source.AddProfile(models.GameProfile{ID: profile, UserID: p1.ID, GameID: "g1", PlayerID: p1.ID})
	f.source.AddMatch(models.MatchRecord{ID: "win", GameProfileID: profile, Won: true, PlayedAt: now})
	f.source.AddMatch(models.MatchRecord{ID: "loss", GameProfileID: profile, Won: false, PlayedAt: now})
	f.recordMatch(p2.ID, false, now)

	res, err := f.verifier.VerifyDispute(f.ctx, d.ID)
	require.NoError(t, err)
	assert.False(t, res.Verified)
	assert.Equal(t, ReasonManualReview, res.Reason)

	stored, err := f.duels.GetDuel(f.ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDisputed, stored.Status)
	assertBalance(t, f.wallet(t, p1.ID), 90, 10)
	assertBalance(t, f.wallet(t, p2.ID), 90, 10)
}
