package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	config "github.com/avvvet/duel-services/configs"
	"github.com/avvvet/duel-services/internal/duelsvc/app"
	"github.com/avvvet/duel-services/internal/duelsvc/broker"
	duelconfig "github.com/avvvet/duel-services/internal/duelsvc/config"
	log "github.com/sirupsen/logrus"
)

const SERVICE_NAME = "claim"

var instanceId string

func init() {
	instanceId = config.CreateUniqueInstance(SERVICE_NAME)
	config.Logging(SERVICE_NAME + "_service_" + instanceId)
	config.LoadEnv(SERVICE_NAME)
}

// claim consumes result submissions from duel.claim. Instances share the
// queue group so each claim is handled once.
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

	sub, err := a.Broker.QueueSubscribeClaims("claim-workers")
	if err != nil {
		log.Fatalf("subscribe %s: %v", broker.TopicDuelClaim, err)
	}
	log.Infof("%s service listening on %s", SERVICE_NAME, broker.TopicDuelClaim)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	sub.Unsubscribe()
	log.Infof("%s service stopped", SERVICE_NAME)
}
