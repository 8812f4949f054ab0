// Package scheduler runs the periodic duel jobs: the expiry sweep, the rank
// snapshot and the dispute recheck.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/avvvet/duel-services/internal/duelsvc/service"
	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"
)

const (
	JobSweep          = "duel-sweep"
	JobRankRefresh    = "rank-refresh"
	JobDisputeRecheck = "dispute-recheck"

	recheckLimit = 100
)

type Intervals struct {
	Sweep          time.Duration
	RankRefresh    time.Duration
	DisputeRecheck time.Duration
}

type Scheduler struct {
	sched    gocron.Scheduler
	duels    *service.DuelService
	verifier *service.VerificationService
	board    *service.LeaderboardService

	ctx    context.Context
	cancel context.CancelFunc
}

// New registers one job per non-zero interval. Jobs run in singleton mode so
// a slow run is never overlapped by the next tick.
func New(clock clockwork.Clock, every Intervals, duels *service.DuelService,
	verifier *service.VerificationService, board *service.LeaderboardService, opts ...gocron.JobOption) (*Scheduler, error) {

	sched, err := gocron.NewScheduler(gocron.WithClock(clock))
	if err != nil {
		return nil, fmt.Errorf("new scheduler: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		sched:    sched,
		duels:    duels,
		verifier: verifier,
		board:    board,
		ctx:      ctx,
		cancel:   cancel,
	}

	jobs := []struct {
		name  string
		every time.Duration
		run   func(context.Context)
	}{
		{JobSweep, every.Sweep, s.sweep},
		{JobRankRefresh, every.RankRefresh, s.refreshRanks},
		{JobDisputeRecheck, every.DisputeRecheck, s.recheckDisputes},
	}
	for _, j := range jobs {
		if j.every <= 0 {
			continue
		}
		run := j.run
		jobOpts := append([]gocron.JobOption{
			gocron.WithName(j.name),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		}, opts...)

		if _, err := sched.NewJob(
			gocron.DurationJob(j.every),
			gocron.NewTask(func() { run(s.ctx) }),
			jobOpts...,
		); err != nil {
			cancel()
			return nil, fmt.Errorf("register %s: %w", j.name, err)
		}
		log.Infof("scheduled %s every %s", j.name, j.every)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.sched.Start()
}

// Shutdown cancels running jobs and waits for them to return.
func (s *Scheduler) Shutdown() error {
	s.cancel()
	return s.sched.Shutdown()
}

func (s *Scheduler) sweep(ctx context.Context) {
	res, err := s.duels.SweepExpired(ctx)
	if err != nil {
		log.Errorf("[%s] %s", JobSweep, err)
		return
	}
	if res.Cancelled+res.Skipped+res.Failed == 0 {
		return
	}
	log.WithFields(log.Fields{
		"cancelled": res.Cancelled,
		"skipped":   res.Skipped,
		"failed":    res.Failed,
	}).Infof("[%s] done", JobSweep)
}

func (s *Scheduler) refreshRanks(ctx context.Context) {
	n, err := s.board.RefreshRanks(ctx)
	if err != nil {
		log.Errorf("[%s] %s", JobRankRefresh, err)
		return
	}
	log.Debugf("[%s] %d ranks updated", JobRankRefresh, n)
}

func (s *Scheduler) recheckDisputes(ctx context.Context) {
	n, err := s.verifier.RecheckDisputed(ctx, recheckLimit)
	if err != nil {
		log.Errorf("[%s] %s", JobDisputeRecheck, err)
		return
	}
	if n > 0 {
		log.Infof("[%s] %d disputes settled", JobDisputeRecheck, n)
	}
}
