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

const SERVICE_NAME = "pay"

var instanceId string

func init() {
	instanceId = config.CreateUniqueInstance(SERVICE_NAME)
	config.Logging(SERVICE_NAME + "_service_" + instanceId)
	config.LoadEnv(SERVICE_NAME)
}

// pay applies confirmed deposits and withdrawals from payment.service to
// player wallets.
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

	sub, err := a.Broker.QueueSubscribePayments("payment-workers")
	if err != nil {
		log.Fatalf("subscribe %s: %v", broker.TopicPaymentService, err)
	}
	log.Infof("%s service listening on %s", SERVICE_NAME, broker.TopicPaymentService)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	sub.Unsubscribe()
	log.Infof("%s service stopped", SERVICE_NAME)
}
