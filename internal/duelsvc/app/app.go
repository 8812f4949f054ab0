// Package app wires the duel services to their backing stores so every duel
// process starts from the same graph.
package app

import (
	"context"
	"fmt"

	mongodb "github.com/avvvet/duel-services/internal/db"
	"github.com/avvvet/duel-services/internal/duelsvc/broker"
	"github.com/avvvet/duel-services/internal/duelsvc/config"
	"github.com/avvvet/duel-services/internal/duelsvc/db"
	"github.com/avvvet/duel-services/internal/duelsvc/matchrecord"
	"github.com/avvvet/duel-services/internal/duelsvc/service"
	"github.com/avvvet/duel-services/internal/duelsvc/store"
	natscli "github.com/avvvet/duel-services/internal/nats"
	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
)

type App struct {
	Config config.Config
	Nats   *natscli.Nats
	Mongo  *mongo.Database
	Broker *broker.Broker

	Users    *service.UserService
	Ledger   *service.LedgerService
	Duels    *service.DuelService
	Verifier *service.VerificationService
	Board    *service.LeaderboardService
}

// New connects postgres, NATS and (when MONGODB_URI is set) the match record
// database, then builds the services. Duel events go out on NATS.
func New(ctx context.Context, cfg config.Config, serviceName string) (*App, error) {
	pool, err := db.Connect(cfg.DBUrl)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := db.Migrate(ctx, pool); err != nil {
		db.ClosePool()
		return nil, err
	}
	log.Printf("pg connection established successfully")

	n, err := natscli.Connect(cfg.NatsURL, cfg.NatsToken, serviceName)
	if err != nil {
		db.ClosePool()
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	log.Printf("NATS connection established successfully %s", n.Url)

	a := &App{Config: cfg, Nats: n}

	var source matchrecord.Source
	if cfg.MongoURI != "" {
		a.Mongo, err = mongodb.ConnectToDB(ctx, cfg.MongoURI)
		if err != nil {
			a.Close()
			return nil, err
		}
		ms := matchrecord.NewMongoSource(a.Mongo)
		if err := ms.EnsureIndexes(ctx); err != nil {
			log.Warnf("match record indexes: %s", err)
		}
		source = ms
		log.Printf("match record database %s connected", a.Mongo.Name())
	} else {
		log.Warn("MONGODB_URI not set, disputes will wait for manual review")
		source = matchrecord.NewMemorySource()
	}

	st := store.NewPgStore(pool)
	clock := clockwork.NewRealClock()

	a.Users = service.NewUserService(st, clock)
	a.Ledger = service.NewLedgerService(st, clock)
	a.Broker = broker.NewBroker(n.Conn, a.Users, a.Ledger, nil)
	a.Duels = service.NewDuelService(st, clock, a.Broker, cfg.DuelTTL, cfg.SweepBatchSize)
	a.Broker.DuelService = a.Duels
	a.Verifier = service.NewVerificationService(st, source, a.Duels)
	a.Board = service.NewLeaderboardService(st, clock)
	return a, nil
}

// Close drains NATS and releases the database connections.
func (a *App) Close() {
	if a.Nats != nil && a.Nats.Conn != nil {
		if err := a.Nats.Conn.Drain(); err != nil {
			log.Warnf("nats drain: %s", err)
		}
	}
	mongodb.Disconnect(a.Mongo)
	db.ClosePool()
}
