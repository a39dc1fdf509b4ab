package sse

import (
	"strings"
	"testing"
	"time"

	"github.com/starford/ansuz/internal/models"
)

func waitForClients(t *testing.T, b *Broker, want int) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if b.ClientCount() == want {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("client count never reached %d (now %d)", want, b.ClientCount())
		default:
			time.Sleep(time.Millisecond)
		}
	}
}

func recv(t *testing.T, ch chan []byte) string {
	t.Helper()
	select {
	case msg, ok := <-ch:
		if !ok {
			t.Fatal("channel closed")
		}
		return string(msg)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return ""
	}
}

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker()
	defer b.Close()

	ch1 := b.Subscribe()
	ch2 := b.Subscribe()
	waitForClients(t, b, 2)

	b.Unsubscribe(ch1)
	waitForClients(t, b, 1)

	// Unsubscribed channel is closed.
	select {
	case _, ok := <-ch1:
		if ok {
			t.Error("expected closed channel")
		}
	case <-time.After(2 * time.Second):
		t.Error("unsubscribed channel not closed")
	}

	b.Unsubscribe(ch2)
	waitForClients(t, b, 0)
}

func TestPublishStatus(t *testing.T) {
	b := NewBroker()
	defer b.Close()

	ch := b.Subscribe()
	waitForClients(t, b, 1)

	b.PublishStatus("proj-123", models.StatusOutlineCompleted)

	msg := recv(t, ch)
	if !strings.HasPrefix(msg, "event: project.status\n") {
		t.Errorf("unexpected event type: %q", msg)
	}
	if !strings.Contains(msg, `"project_id":"proj-123"`) {
		t.Errorf("missing project id: %q", msg)
	}
	if !strings.Contains(msg, `"status":"outline_completed"`) {
		t.Errorf("missing status: %q", msg)
	}
	if !strings.HasSuffix(msg, "\n\n") {
		t.Errorf("event not terminated by blank line: %q", msg)
	}
}

func TestPublishReachesAllClients(t *testing.T) {
	b := NewBroker()
	defer b.Close()

	ch1 := b.Subscribe()
	ch2 := b.Subscribe()
	waitForClients(t, b, 2)

	b.Publish(Event{Type: "ping", Data: map[string]string{"x": "y"}})

	for _, ch := range []chan []byte{ch1, ch2} {
		msg := recv(t, ch)
		if !strings.HasPrefix(msg, "event: ping\n") {
			t.Errorf("unexpected event: %q", msg)
		}
	}
}

func TestCloseShutsDownClients(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe()
	waitForClients(t, b, 1)

	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("expected closed channel after broker close")
		}
	case <-time.After(2 * time.Second):
		t.Error("client channel not closed")
	}

	// Operations after close are safe no-ops.
	b.PublishStatus("proj", models.StatusFailed)
	b.Publish(Event{Type: "ping"})
	if n := b.ClientCount(); n != 0 {
		t.Errorf("ClientCount after close = %d", n)
	}
	b.Close() // idempotent
}

func TestSubscribeAfterClose(t *testing.T) {
	b := NewBroker()
	b.Close()

	ch := b.Subscribe()
	select {
	case _, ok := <-ch:
		if ok {
			t.Error("expected closed channel")
		}
	default:
		t.Error("subscribe after close should return a closed channel")
	}
}
