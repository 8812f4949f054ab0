package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	config "github.com/avvvet/duel-services/configs"
	"github.com/avvvet/duel-services/internal/duelsvc/app"
	duelconfig "github.com/avvvet/duel-services/internal/duelsvc/config"
	"github.com/avvvet/duel-services/internal/duelsvc/scheduler"
	"github.com/jonboulle/clockwork"
)

const SERVICE_NAME = "ctl"

var instanceId string

func init() {
	instanceId = config.CreateUniqueInstance(SERVICE_NAME)
	config.Logging(SERVICE_NAME + "_service_" + instanceId)
	config.LoadEnv(SERVICE_NAME)
}

// ctl runs the periodic jobs: expiry sweep, rank snapshot, dispute recheck.
func main() {
	cfg, err := duelconfig.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	a, err := app.New(context.Background(), cfg, SERVICE_NAME)
	if err != nil {
		log.Fatalf("startup: %v", err)
	}
	defer a.Close()

	sched, err := scheduler.New(clockwork.NewRealClock(), scheduler.Intervals{
		Sweep:          cfg.SweepInterval,
		RankRefresh:    cfg.RankRefreshInterval,
		DisputeRecheck: cfg.DisputeRecheckInterval,
	}, a.Duels, a.Verifier, a.Board)
	if err != nil {
		log.Fatalf("scheduler: %v", err)
	}
	sched.Start()
	log.Infof("%s service started", SERVICE_NAME)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	if err := sched.Shutdown(); err != nil {
		log.Errorf("scheduler shutdown: %v", err)
	}
	log.Infof("%s service stopped", SERVICE_NAME)
}
