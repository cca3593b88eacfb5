package feed

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vango-dev/thbase/pkg/records"
)

func TestHub_PublishSubscribe(t *testing.T) {
	h := NewHub(4)
	ch, cancel := h.Subscribe()
	defer cancel()

	if dropped := h.Publish(records.Record{ID: 1, TH: 14}); dropped != 0 {
		t.Fatalf("dropped = %d, want 0", dropped)
	}

	select {
	case rec := <-ch:
		if rec.ID != 1 || rec.TH != 14 {
			t.Fatalf("rec = %+v", rec)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for record")
	}
}

func TestHub_SlowSubscriberDrops(t *testing.T) {
	h := NewHub(1)
	_, cancel := h.Subscribe()
	defer cancel()

	h.Publish(records.Record{ID: 1})
	if dropped := h.Publish(records.Record{ID: 2}); dropped != 1 {
		t.Fatalf("dropped = %d, want 1", dropped)
	}
}

func TestHub_CancelIsIdempotent(t *testing.T) {
	h := NewHub(0)
	ch, cancel := h.Subscribe()
	if h.Subscribers() != 1 {
		t.Fatalf("Subscribers = %d, want 1", h.Subscribers())
	}

	cancel()
	cancel()

	if h.Subscribers() != 0 {
		t.Fatalf("Subscribers = %d, want 0", h.Subscribers())
	}
	if _, ok := <-ch; ok {
		t.Fatal("expected channel to be closed")
	}
}

func TestHub_Close(t *testing.T) {
	h := NewHub(0)
	ch, cancel := h.Subscribe()
	defer cancel()

	h.Close()
	if _, ok := <-ch; ok {
		t.Fatal("expected subscriber channel to be closed")
	}

	late, _ := h.Subscribe()
	if _, ok := <-late; ok {
		t.Fatal("expected late subscription to be closed")
	}
}

func TestHub_ServeHTTPStreamsRecords(t *testing.T) {
	h := NewHub(0)
	srv := httptest.NewServer(h)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for h.Subscribers() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscriber never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	img := "1-2.png"
	h.Publish(records.Record{ID: 3, Link: "l", TH: 9, BaseType: []string{"war"}, Image: &img})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	typ, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if typ != websocket.TextMessage {
		t.Fatalf("message type = %d, want text", typ)
	}

	var got records.Record
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.ID != 3 || got.TH != 9 || got.Image == nil || *got.Image != img {
		t.Fatalf("got %+v", got)
	}
}

func TestHub_ServeHTTPUnsubscribesOnDisconnect(t *testing.T) {
	h := NewHub(0)
	srv := httptest.NewServer(h)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for h.Subscribers() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscriber never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	conn.Close()

	deadline = time.Now().Add(2 * time.Second)
	for h.Subscribers() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscriber not removed after disconnect")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
