package ws

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"skill-radar/internal/pipeline"

	"github.com/google/uuid"
)

func newTestClient(h *Hub, subjectID uuid.UUID) *Client {
	return &Client{hub: h, send: make(chan []byte, sendBuffer), subjectID: subjectID}
}

func waitForClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for h.ClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients, got %d", n, h.ClientCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func receive(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case msg := <-c.send:
		return msg
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for message")
		return nil
	}
}

func TestHub_RoutesBySubject(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := NewHub(nil)
	go h.Run(ctx)

	alice, bob := uuid.New(), uuid.New()
	aliceClient := newTestClient(h, alice)
	watcher := newTestClient(h, uuid.Nil)
	bobClient := newTestClient(h, bob)
	h.Register(aliceClient)
	h.Register(watcher)
	h.Register(bobClient)
	waitForClients(t, h, 3)

	NewNotifier(h).Notify(ctx, pipeline.Event{Type: pipeline.EventSubjectSynced, SubjectID: alice, Step: "all"})

	var got pipeline.Event
	if err := json.Unmarshal(receive(t, aliceClient), &got); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got.SubjectID != alice || got.Type != pipeline.EventSubjectSynced {
		t.Fatalf("unexpected event %+v", got)
	}
	receive(t, watcher)

	select {
	case msg := <-bobClient.send:
		t.Fatalf("bob must not see alice's events, got %s", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_UnregisterAndShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := NewHub(nil)
	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()

	a := newTestClient(h, uuid.Nil)
	b := newTestClient(h, uuid.Nil)
	h.Register(a)
	h.Register(b)
	waitForClients(t, h, 2)

	h.Unregister(a)
	waitForClients(t, h, 1)
	if _, ok := <-a.send; ok {
		t.Fatalf("expected send channel closed after unregister")
	}

	cancel()
	<-done
	if h.ClientCount() != 0 {
		t.Fatalf("expected no clients after shutdown")
	}
	if _, ok := <-b.send; ok {
		t.Fatalf("expected send channel closed on shutdown")
	}
}

func TestHub_NilSafe(t *testing.T) {
	var h *Hub
	h.Publish(uuid.New(), []byte("x"))
	h.Register(nil)
	if h.ClientCount() != 0 {
		t.Fatalf("expected zero")
	}
	var n *Notifier
	n.Notify(context.Background(), pipeline.Event{})
}
