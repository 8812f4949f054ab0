package broker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/avvvet/duel-services/internal/comm"
	"github.com/avvvet/duel-services/internal/duelsvc/apperr"
	"github.com/avvvet/duel-services/internal/duelsvc/service"
	"github.com/nats-io/nats.go"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const (
	TopicDuelService    = "duel.service"
	TopicDuelClaim      = "duel.claim"
	TopicPaymentService = "payment.service"

	requestTimeout = 30 * time.Second
)

// Conn is the part of *nats.Conn the broker uses.
type Conn interface {
	Publish(subj string, data []byte) error
	QueueSubscribe(subj, queue string, cb nats.MsgHandler) (*nats.Subscription, error)
}

type Broker struct {
	Conn          Conn
	UserService   *service.UserService
	LedgerService *service.LedgerService
	DuelService   *service.DuelService
}

func NewBroker(nc Conn, userService *service.UserService,
	ledgerService *service.LedgerService, duelService *service.DuelService) *Broker {
	return &Broker{
		Conn:          nc,
		UserService:   userService,
		LedgerService: ledgerService,
		DuelService:   duelService,
	}
}

// PublishDuelEvent implements service.EventPublisher.
func (b *Broker) PublishDuelEvent(ev comm.DuelEvent) {
	b.publishMessage(ev.Type, ev, "")
}

// handles result claims relayed from game clients
func (b *Broker) handleClaim(msgNat *nats.Msg) {
	msg := &comm.WSMessage{}
	if err := json.Unmarshal(msgNat.Data, msg); err != nil {
		log.Errorf("Error nats message %s", err)
		return
	}

	switch msg.Type {
	case "submit-result":
		var request comm.ClaimRequest
		if err := json.Unmarshal(msg.Data, &request); err != nil {
			log.Errorf("Error unmarshalling submit-result: %s", err)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		res, err := b.DuelService.SubmitResult(ctx, request.DuelID, request.Username, request.Winner)
		if err != nil {
			log.Errorf("Error [DuelService.SubmitResult] duel %s: %s", request.DuelID, err)
			b.publishMessage("submit-result-response", failure(err), msg.SocketId)
			return
		}
		b.publishMessage("submit-result-response", res, msg.SocketId)
	default:
		log.Errorf("Unknown claim message %q", msg.Type)
	}
}

// handles deposits and withdrawals confirmed by the payment provider
func (b *Broker) handlePayment(msgNat *nats.Msg) {
	msg := &comm.WSMessage{}
	if err := json.Unmarshal(msgNat.Data, msg); err != nil {
		log.Errorf("Error nats message %s", err)
		return
	}

	var request comm.PaymentRequest
	if err := json.Unmarshal(msg.Data, &request); err != nil {
		log.Errorf("Error unmarshalling %s: %s", msg.Type, err)
		return
	}

	amount, err := decimal.NewFromString(request.Amount)
	if err != nil {
		b.publishMessage(msg.Type+"-response", failure(apperr.ErrInvalidAmount), msg.SocketId)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	user, err := b.UserService.Resolve(ctx, request.Username)
	if err != nil {
		log.Errorf("Error [UserService.Resolve] %s: %s", request.Username, err)
		b.publishMessage(msg.Type+"-response", failure(err), msg.SocketId)
		return
	}

	switch msg.Type {
	case "deposit":
		_, err = b.LedgerService.Deposit(ctx, user.ID, request.Token, amount)
	case "withdrawal":
		_, err = b.LedgerService.Withdraw(ctx, user.ID, request.Token, amount)
	default:
		log.Errorf("Unknown payment message %q", msg.Type)
		return
	}
	if err != nil {
		log.Errorf("Error [LedgerService.%s] %s: %s", msg.Type, request.Username, err)
		b.publishMessage(msg.Type+"-response", failure(err), msg.SocketId)
		return
	}

	w, err := b.LedgerService.GetWallet(ctx, user.ID, request.Token)
	if err != nil {
		log.Errorf("Error [LedgerService.GetWallet] %s", err)
		return
	}

	b.publishMessage(msg.Type+"-response", comm.WalletData{
		Username:  user.Username,
		Token:     w.Token,
		Available: w.AvailableBalance.StringFixed(2),
		Locked:    w.LockedBalance.StringFixed(2),
	}, msg.SocketId)
}

func failure(err error) comm.Res {
	return comm.Res{
		Status: false,
		Code:   string(apperr.CodeOf(err)),
		Error:  err.Error(),
	}
}

func (b *Broker) publishMessage(msgType string, v any, socketId string) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Errorf("[%s] unable to marshal payload: %s", msgType, err)
		return
	}

	msg := &comm.WSMessage{
		Type:     msgType,
		Data:     data,
		SocketId: socketId,
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		log.Errorf("Error %s", err)
		return
	}

	b.Publish(TopicDuelService, payload)
}

// consume result claims (Queue)
func (b *Broker) QueueSubscribeClaims(queueGroup string) (*nats.Subscription, error) {
	return b.Conn.QueueSubscribe(TopicDuelClaim, queueGroup, b.handleClaim)
}

// consume payment confirmations (Queue)
func (b *Broker) QueueSubscribePayments(queueGroup string) (*nats.Subscription, error) {
	return b.Conn.QueueSubscribe(TopicPaymentService, queueGroup, b.handlePayment)
}

func (b *Broker) Publish(topic string, payload []byte) error {
	err := b.Conn.Publish(topic, payload)
	if err != nil {
		log.Errorf("Error publishing to topic %s: %s", topic, err)
		return err
	}

	return nil
}
