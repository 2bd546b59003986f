package notify

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovenline/fulfillment/internal/fulfillment/domain"
)

func readFrame(t *testing.T, r *bufio.Reader) sseFrame {
	t.Helper()
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "data: ") {
			var frame sseFrame
			require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &frame))
			return frame
		}
	}
}

func TestSSEStreamsCommittedTransitions(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(SSEHandler(hub))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"?orderId=ord-1", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	require.Eventually(t, func() bool { return hub.SubscriberCount() == 1 },
		time.Second, 10*time.Millisecond)

	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	hub.Publish(domain.StatusEvent{
		OrderID:   "ord-1",
		Status:    domain.StatusApproved,
		UpdatedAt: now,
		StatusHistory: []domain.StatusHistoryEntry{
			{Status: domain.StatusApproved, Note: domain.StatusApproved.Note(), Timestamp: now},
		},
	})
	hub.Publish(domain.StatusEvent{OrderID: "ord-2", Status: domain.StatusBaking, UpdatedAt: now})

	reader := bufio.NewReader(resp.Body)

	// Joined order: subscribed flag set.
	frame := readFrame(t, reader)
	assert.Equal(t, "ord-1", frame.OrderID)
	assert.Equal(t, domain.StatusApproved, frame.Status)
	assert.True(t, frame.Subscribed)
	require.Len(t, frame.StatusHistory, 1)
	assert.Equal(t, "Đơn hàng đã được duyệt", frame.StatusHistory[0].Note)

	// Broadcast still delivers events for orders the subscriber never joined.
	frame = readFrame(t, reader)
	assert.Equal(t, "ord-2", frame.OrderID)
	assert.False(t, frame.Subscribed)
}

func TestSSECleansUpOnDisconnect(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(SSEHandler(hub))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Eventually(t, func() bool { return hub.SubscriberCount() == 1 },
		time.Second, 10*time.Millisecond)

	cancel()
	require.Eventually(t, func() bool { return hub.SubscriberCount() == 0 },
		time.Second, 10*time.Millisecond)
}
