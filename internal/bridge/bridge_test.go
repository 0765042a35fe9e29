package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"firebase.google.com/go/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reservpark/config"
)

// mockBroadcaster is a mock implementation of the Broadcaster interface.
type mockBroadcaster struct {
	BroadcastFunc func(ctx context.Context, payload []byte) (int, error)
	payloads      [][]byte
}

func (m *mockBroadcaster) Broadcast(ctx context.Context, payload []byte) (int, error) {
	m.payloads = append(m.payloads, payload)
	return m.BroadcastFunc(ctx, payload)
}

// mockSender is a mock implementation of the MessageSender interface.
type mockSender struct {
	SendFunc func(ctx context.Context, message *messaging.Message) (string, error)
	messages []*messaging.Message
}

func (m *mockSender) Send(ctx context.Context, message *messaging.Message) (string, error) {
	m.messages = append(m.messages, message)
	return m.SendFunc(ctx, message)
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("act-%d", n)
	}
}

var sampleRequest = Request{
	Location:             "Gran Vía 123",
	TimeRemaining:        "2h 0m",
	Status:               "Active",
	EndTime:              "16:30",
	CanExtend:            true,
	TotalDurationMinutes: 120,
	ReservationID:        "res-1",
}

func TestUnsupported(t *testing.T) {
	b := Unsupported{}
	ctx := context.Background()

	for _, res := range []Result{
		b.Start(ctx, sampleRequest),
		b.Update(ctx, "act-1", sampleRequest),
		b.Stop(ctx, "act-1"),
	} {
		assert.False(t, res.Success)
		assert.Empty(t, res.ID)
		assert.Equal(t, MessageUnsupported, res.Message)
	}
}

func TestNew(t *testing.T) {
	testCases := []struct {
		name      string
		platform  string
		opts      Options
		expectErr bool
		check     func(t *testing.T, b Bridge)
	}{
		{
			name:     "unsupported",
			platform: config.PlatformUnsupported,
			check: func(t *testing.T, b Bridge) {
				assert.IsType(t, Unsupported{}, b)
			},
		},
		{
			name:     "webpush",
			platform: config.PlatformWebPush,
			opts:     Options{Pusher: &mockBroadcaster{}},
			check: func(t *testing.T, b Bridge) {
				assert.IsType(t, &Live{}, b)
			},
		},
		{
			name:      "webpush without pusher",
			platform:  config.PlatformWebPush,
			expectErr: true,
		},
		{
			name:     "fcm",
			platform: config.PlatformFCM,
			opts:     Options{FCM: &mockSender{}, FCMTopic: "live-activity"},
			check: func(t *testing.T, b Bridge) {
				assert.IsType(t, &Live{}, b)
			},
		},
		{
			name:      "fcm without client",
			platform:  config.PlatformFCM,
			expectErr: true,
		},
		{
			name:      "unknown",
			platform:  "carplay",
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b, err := New(tc.platform, tc.opts)
			if tc.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tc.check(t, b)
		})
	}
}

func TestPushBridge_Lifecycle(t *testing.T) {
	pusher := &mockBroadcaster{
		BroadcastFunc: func(ctx context.Context, payload []byte) (int, error) {
			return 1, nil
		},
	}
	b := NewPushBridge(pusher, sequentialIDs())
	ctx := context.Background()

	started := b.Start(ctx, sampleRequest)
	require.True(t, started.Success)
	assert.Equal(t, "act-1", started.ID)

	var ev map[string]any
	require.NoError(t, json.Unmarshal(pusher.payloads[0], &ev))
	assert.Equal(t, "start", ev["event"])
	assert.Equal(t, "act-1", ev["id"])
	assert.Equal(t, "res-1", ev["reservation_id"])
	assert.Equal(t, "Gran Vía 123", ev["location"])
	assert.Equal(t, float64(120), ev["total_duration_minutes"])

	updated := b.Update(ctx, "act-1", sampleRequest)
	assert.True(t, updated.Success)
	require.NoError(t, json.Unmarshal(pusher.payloads[1], &ev))
	assert.Equal(t, "update", ev["event"])
	_, hasReservation := ev["reservation_id"]
	assert.False(t, hasReservation, "updates do not carry the reservation id")

	stopped := b.Stop(ctx, "act-1")
	assert.True(t, stopped.Success)

	again := b.Stop(ctx, "act-1")
	assert.False(t, again.Success, "a stopped activity is no longer live")
	assert.Len(t, pusher.payloads, 3)
}

func TestPushBridge_Failures(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown id never reaches devices", func(t *testing.T) {
		pusher := &mockBroadcaster{
			BroadcastFunc: func(ctx context.Context, payload []byte) (int, error) {
				return 1, nil
			},
		}
		b := NewPushBridge(pusher, sequentialIDs())

		assert.False(t, b.Update(ctx, "ghost", sampleRequest).Success)
		assert.False(t, b.Stop(ctx, "ghost").Success)
		assert.Empty(t, pusher.payloads)
	})

	t.Run("no devices", func(t *testing.T) {
		pusher := &mockBroadcaster{
			BroadcastFunc: func(ctx context.Context, payload []byte) (int, error) {
				return 0, nil
			},
		}
		b := NewPushBridge(pusher, sequentialIDs())

		res := b.Start(ctx, sampleRequest)
		assert.False(t, res.Success)
		assert.Empty(t, res.ID)
		assert.NotEmpty(t, res.Message)
	})

	t.Run("delivery error becomes a failed result", func(t *testing.T) {
		pusher := &mockBroadcaster{
			BroadcastFunc: func(ctx context.Context, payload []byte) (int, error) {
				return 0, errors.New("database unavailable")
			},
		}
		b := NewPushBridge(pusher, sequentialIDs())

		res := b.Start(ctx, sampleRequest)
		assert.False(t, res.Success)
		assert.Contains(t, res.Message, "database unavailable")
	})

	t.Run("failed stop keeps the activity live", func(t *testing.T) {
		fail := false
		pusher := &mockBroadcaster{
			BroadcastFunc: func(ctx context.Context, payload []byte) (int, error) {
				if fail {
					return 0, errors.New("push service down")
				}
				return 1, nil
			},
		}
		b := NewPushBridge(pusher, sequentialIDs())

		id := b.Start(ctx, sampleRequest).ID
		fail = true
		assert.False(t, b.Stop(ctx, id).Success)
		fail = false
		assert.True(t, b.Stop(ctx, id).Success)
	})
}

func TestFCMBridge_Lifecycle(t *testing.T) {
	sender := &mockSender{
		SendFunc: func(ctx context.Context, message *messaging.Message) (string, error) {
			return "projects/reservpark/messages/1", nil
		},
	}
	b := NewFCMBridge(sender, "live-activity", sequentialIDs())
	ctx := context.Background()

	started := b.Start(ctx, sampleRequest)
	require.True(t, started.Success)
	assert.Equal(t, "act-1", started.ID)

	msg := sender.messages[0]
	assert.Equal(t, "live-activity", msg.Topic)
	assert.Equal(t, "start", msg.Data["event"])
	assert.Equal(t, "act-1", msg.Data["id"])
	assert.Equal(t, "true", msg.Data["can_extend"])
	assert.Equal(t, "120", msg.Data["total_duration_minutes"])
	assert.Equal(t, "10", msg.APNS.Headers["apns-priority"])

	assert.True(t, b.Update(ctx, "act-1", sampleRequest).Success)
	assert.True(t, b.Stop(ctx, "act-1").Success)
	assert.Equal(t, "stop", sender.messages[2].Data["event"])
}

func TestFCMBridge_SendError(t *testing.T) {
	sender := &mockSender{
		SendFunc: func(ctx context.Context, message *messaging.Message) (string, error) {
			return "", errors.New("invalid credentials")
		},
	}
	b := NewFCMBridge(sender, "live-activity", sequentialIDs())

	res := b.Start(context.Background(), sampleRequest)
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "invalid credentials")
}

func TestLive_IDStaysLiveUntilStopped(t *testing.T) {
	pusher := &mockBroadcaster{
		BroadcastFunc: func(ctx context.Context, payload []byte) (int, error) {
			return 1, nil
		},
	}
	b := NewPushBridge(pusher, sequentialIDs())
	ctx := context.Background()

	short := sampleRequest
	short.TotalDurationMinutes = 1
	id := b.Start(ctx, short).ID
	require.NotEmpty(t, id)

	item, ok := b.registry.live.Items()[id]
	require.True(t, ok)
	assert.Zero(t, item.Expiration, "a live id has no expiry tied to the countdown")

	assert.True(t, b.Stop(ctx, id).Success)
	assert.False(t, b.registry.isLive(id))
}

func TestLive_CountdownAlreadyOver(t *testing.T) {
	sender := &mockSender{
		SendFunc: func(ctx context.Context, message *messaging.Message) (string, error) {
			return "projects/reservpark/messages/1", nil
		},
	}
	b := NewFCMBridge(sender, "live-activity", sequentialIDs())
	ctx := context.Background()

	overdue := sampleRequest
	overdue.TimeRemaining = "0m"
	overdue.TotalDurationMinutes = 0

	id := b.Start(ctx, overdue).ID
	require.NotEmpty(t, id)

	assert.True(t, b.Update(ctx, id, overdue).Success, "an overdue activity can still be extended")
	assert.True(t, b.Stop(ctx, id).Success, "an overdue activity can still be ended")
	assert.Equal(t, "stop", sender.messages[2].Data["event"])
}
