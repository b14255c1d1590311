package subscription

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vo "github.com/mateatletas/tutorbilling/internal/domain/subscription/valueobjects"
)

func TestNewHistoryRecord(t *testing.T) {
	tests := []struct {
		name    string
		subID   uint
		next    vo.SubscriptionStatus
		actor   vo.Actor
		wantErr bool
	}{
		{"valid first record", 1, vo.StatusActive, vo.ActorGateway, false},
		{"zero subscription", 0, vo.StatusActive, vo.ActorGateway, true},
		{"unknown status", 1, vo.SubscriptionStatus("ACTIVE"), vo.ActorGateway, true},
		{"unknown actor", 1, vo.StatusActive, vo.Actor("cron"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := NewHistoryRecord(tt.subID, nil, tt.next, "payment confirmed", tt.actor, nil, testNow)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Nil(t, rec.PreviousStatus())
			assert.False(t, rec.IsNoOp())
		})
	}
}

func TestHistoryRecordMetadataIsCopied(t *testing.T) {
	meta := map[string]interface{}{"gateway_event_id": "evt-1"}
	rec, err := NewHistoryRecord(1, nil, vo.StatusActive, "ok", vo.ActorGateway, meta, testNow)
	require.NoError(t, err)

	meta["gateway_event_id"] = "tampered"
	got := rec.Metadata()
	got["extra"] = true

	assert.Equal(t, map[string]interface{}{"gateway_event_id": "evt-1"}, rec.Metadata())
}

func TestHistoryRecordNoOpAndSetID(t *testing.T) {
	prev := vo.StatusActive
	rec, err := NewHistoryRecord(1, &prev, vo.StatusActive, "gateway status paused", vo.ActorGateway, nil, testNow)
	require.NoError(t, err)

	assert.True(t, rec.IsNoOp())
	require.NoError(t, rec.SetID(10))
	assert.ErrorIs(t, rec.SetID(11), ErrHistoryImmutable)
}
