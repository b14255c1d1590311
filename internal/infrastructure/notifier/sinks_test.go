package notifier

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	vo "github.com/mateatletas/tutorbilling/internal/domain/subscription/valueobjects"
	"github.com/mateatletas/tutorbilling/internal/infrastructure/email"
	"github.com/mateatletas/tutorbilling/internal/infrastructure/pubsub"
	"github.com/mateatletas/tutorbilling/internal/shared/logger"
)

type captureDialer struct {
	messages []*gomail.Message
}

func (d *captureDialer) DialAndSend(m ...*gomail.Message) error {
	d.messages = append(d.messages, m...)
	return nil
}

func TestEmailSink_Send(t *testing.T) {
	dialer := &captureDialer{}
	mailer := email.NewSMTPEmailServiceWithDialer(email.SMTPConfig{FromAddress: "billing@example.com"}, dialer)
	sink := NewEmailSink(mailer, []string{"ops@example.com"})
	at := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)

	t.Run("skips transitions that keep access", func(t *testing.T) {
		err := sink.Send(context.Background(), Notification{SubscriptionID: 1, Previous: vo.StatusPending, Next: vo.StatusActive})
		assert.ErrorIs(t, err, ErrSkipped)
		assert.Empty(t, dialer.messages)
	})

	t.Run("alerts on delinquency", func(t *testing.T) {
		err := sink.Send(context.Background(), Notification{
			SubscriptionID: 9,
			Previous:       vo.StatusGrace,
			Next:           vo.StatusDelinquent,
			Reason:         "grace period of 3 days expired",
			OccurredAt:     at,
		})
		require.NoError(t, err)
		require.Len(t, dialer.messages, 1)
		m := dialer.messages[0]
		assert.Equal(t, []string{"Subscription 9 is now MOROSA"}, m.GetHeader("Subject"))
		assert.Equal(t, []string{"ops@example.com"}, m.GetHeader("To"))
	})

	t.Run("alerts on cancellation", func(t *testing.T) {
		err := sink.Send(context.Background(), Notification{SubscriptionID: 9, Previous: vo.StatusDelinquent, Next: vo.StatusCancelled, Reason: "<admin>", OccurredAt: at})
		require.NoError(t, err)
		assert.Len(t, dialer.messages, 2)
	})
}

func TestRedisSink_Send(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	sub := client.Subscribe(context.Background(), pubsub.DefaultTransitionChannel)
	t.Cleanup(func() { _ = sub.Close() })
	_, err := sub.Receive(context.Background())
	require.NoError(t, err)

	bus := pubsub.NewRedisTransitionEventBus(client, "", logger.NewNop())
	sink := NewRedisSink(bus)

	n := Notification{
		ID:             "n-1",
		SubscriptionID: 4,
		Previous:       vo.StatusActive,
		Next:           vo.StatusGrace,
		Reason:         "payment rejected",
		OccurredAt:     time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, sink.Send(context.Background(), n))

	select {
	case msg := <-sub.Channel():
		var event pubsub.TransitionEvent
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &event))
		assert.Equal(t, "n-1", event.ID)
		assert.Equal(t, uint(4), event.SubscriptionID)
		assert.Equal(t, "ACTIVA", event.PreviousStatus)
		assert.Equal(t, "EN_GRACIA", event.NewStatus)
	case <-time.After(2 * time.Second):
		t.Fatal("transition event was not published")
	}
}
