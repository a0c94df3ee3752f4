package application

import (
	"context"
	"fmt"
	"slices"

	"github.com/bnema/feedlink/internal/domain"
	"github.com/bnema/feedlink/internal/ports"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DeliveryDelivered            = "delivered"
	DeliveryUndelivered          = "undelivered"
	DeliveryRecipientUnreachable = "recipient_unreachable"
	DeliveryFailed               = "failed"
)

// Messenger delivers chat messages by writing them twice: into the sender's
// outgoing log and into the recipient's incoming log. The two logs live on
// independently hosted stores and there is no rollback between them.
type Messenger struct {
	invoker   *Invoker
	service   *Service
	transport ports.Transport
	store     *SessionStore
	clock     ports.Clock
	tel       Telemetry
	newID     func() string
}

func NewMessenger(invoker *Invoker, service *Service, transport ports.Transport, store *SessionStore, clock ports.Clock, tel Telemetry) *Messenger {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &Messenger{
		invoker:   invoker,
		service:   service,
		transport: transport,
		store:     store,
		clock:     clock,
		tel:       tel.named("messenger"),
		newID:     uuid.NewString,
	}
}

// SendMessage writes msg to the sender's log and then to the recipient's.
// The returned message carries the assigned id and timestamp. A non-nil
// message with ErrRecipientUnreachable or ErrDeliveryFailed means the
// sender's log holds the message but the recipient's does not.
func (m *Messenger) SendMessage(ctx context.Context, recipientID domain.UserID, msg domain.Message) (domain.Message, error) {
	sender := m.store.Snapshot().User
	if sender.IsGuest() {
		return domain.Message{}, fmt.Errorf("send message: %w", domain.ErrNotLoggedIn)
	}

	msg.AuthorID = sender.ID
	msg.ReceiptID = recipientID
	if msg.ID == "" {
		msg.ID = m.newID()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = m.clock.Now().UTC()
	}
	if err := msg.Validate(); err != nil {
		return domain.Message{}, fmt.Errorf("send message: %w", err)
	}

	payload, err := msg.Encode()
	if err != nil {
		return domain.Message{}, err
	}

	log := m.tel.Logger.With(
		zap.String("message_id", msg.ID),
		zap.String("recipient", string(recipientID)),
	)

	err = m.invoker.Do(ctx, domain.OpMessageOutgoing, func(ctx context.Context, session domain.Session) error {
		return m.service.call(ctx, session, session.BaseURL, domain.OpMessageOutgoing, nil, string(recipientID), payload)
	})
	if err != nil {
		m.tel.Recorder.Delivery(DeliveryFailed)
		return domain.Message{}, fmt.Errorf("write outgoing message: %w", err)
	}

	recipient, err := m.service.GetUser(ctx, recipientID)
	if err == nil && recipient.DeliveryURL() == "" {
		err = fmt.Errorf("%s has no serving address", recipientID)
	}
	if err != nil {
		m.tel.Recorder.Delivery(DeliveryRecipientUnreachable)
		log.Warn("recipient unreachable after outgoing write", zap.Error(err))
		return msg, fmt.Errorf("%w: %s: %w", domain.ErrRecipientUnreachable, recipientID, err)
	}

	attempt := 0
	err = m.invoker.Do(ctx, domain.OpMessageIncoming, func(ctx context.Context, session domain.Session) error {
		attempt++
		if attempt > 1 {
			fresh, err := m.service.lookupUser(ctx, session, recipientID)
			if err != nil {
				return err
			}
			recipient = fresh
		}
		return m.service.call(ctx, session, recipient.DeliveryURL(), domain.OpMessageIncoming, nil, string(sender.ID), payload)
	})
	if err != nil {
		m.tel.Recorder.Delivery(DeliveryUndelivered)
		log.Warn("incoming write failed", zap.Error(err))
		return msg, fmt.Errorf("%w: %w", domain.ErrDeliveryFailed, err)
	}

	m.tel.Recorder.Delivery(DeliveryDelivered)
	log.Debug("message delivered", zap.String("recipient_url", recipient.DeliveryURL()))

	return msg, nil
}

// FetchMessages returns the conversation with peerID, oldest first.
func (m *Messenger) FetchMessages(ctx context.Context, peerID domain.UserID) ([]domain.Message, error) {
	messages, err := Invoke(ctx, m.invoker, domain.OpFetchMessages, func(ctx context.Context, session domain.Session) ([]domain.Message, error) {
		var payloads []string
		if err := m.service.call(ctx, session, session.BaseURL, domain.OpFetchMessages, &payloads, string(peerID)); err != nil {
			return nil, err
		}

		out := make([]domain.Message, 0, len(payloads))
		for _, payload := range payloads {
			msg, err := domain.DecodeMessage(payload)
			if err != nil {
				return nil, err
			}
			out = append(out, msg)
		}
		return out, nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch messages with %s: %w", peerID, err)
	}

	slices.SortStableFunc(messages, func(a, b domain.Message) int {
		return a.Timestamp.Compare(b.Timestamp)
	})

	return messages, nil
}
