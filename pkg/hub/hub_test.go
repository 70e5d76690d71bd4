package hub

import (
	"testing"
	"time"
)

// newTestClient builds a client without a websocket connection so the
// register/broadcast paths can be exercised in-process.
func newTestClient(h *Hub, buffer int) *Client {
	c := &Client{
		id:   "test-client",
		hub:  h,
		send: make(chan Message, buffer),
	}
	h.register <- c
	return c
}

func waitForCount(t *testing.T, h *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if h.ClientCount() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("client count never reached %d (got %d)", want, h.ClientCount())
}

func TestNewHub(t *testing.T) {
	h := New("events")

	if h.Name() != "events" {
		t.Errorf("Name() = %q, want events", h.Name())
	}
	if h.ClientCount() != 0 {
		t.Error("ClientCount should be 0 initially")
	}
	if h.IsRunning() {
		t.Error("hub should not be running before Run")
	}
}

func TestRegisterAndBroadcast(t *testing.T) {
	h := New("events")
	go h.Run()

	c := newTestClient(h, 4)
	waitForCount(t, h, 1)

	if err := h.BroadcastJSON(map[string]string{"hello": "world"}); err != nil {
		t.Fatalf("BroadcastJSON() error = %v", err)
	}

	select {
	case msg := <-c.send:
		if msg.Type != JSONMessage {
			t.Errorf("message type = %v, want JSONMessage", msg.Type)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("client never received broadcast")
	}
}

func TestBroadcastBinary(t *testing.T) {
	h := New("camera")
	go h.Run()

	c := newTestClient(h, 4)
	waitForCount(t, h, 1)

	jpeg := []byte{0xFF, 0xD8, 0xFF}
	h.BroadcastBinary(jpeg)

	select {
	case msg := <-c.send:
		if msg.Type != BinaryMessage {
			t.Errorf("message type = %v, want BinaryMessage", msg.Type)
		}
		if string(msg.Data) != string(jpeg) {
			t.Error("binary payload mismatch")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("client never received frame")
	}
}

func TestSlowClientDropped(t *testing.T) {
	h := New("events")
	go h.Run()

	// Buffer of 1: the second broadcast cannot be queued
	newTestClient(h, 1)
	waitForCount(t, h, 1)

	h.BroadcastJSON(map[string]int{"n": 1})
	h.BroadcastJSON(map[string]int{"n": 2})

	waitForCount(t, h, 0)
}

func TestUnregister(t *testing.T) {
	h := New("events")
	go h.Run()

	c := newTestClient(h, 4)
	waitForCount(t, h, 1)

	h.unregister <- c
	waitForCount(t, h, 0)

	// send channel must be closed so writePump exits
	select {
	case _, ok := <-c.send:
		if ok {
			t.Error("expected closed send channel")
		}
	case <-time.After(time.Second):
		t.Fatal("send channel not closed")
	}
}

func TestBroadcastJSONError(t *testing.T) {
	h := New("events")
	if err := h.BroadcastJSON(make(chan int)); err == nil {
		t.Error("BroadcastJSON should fail on unmarshalable value")
	}
}

func TestClientSendBackpressure(t *testing.T) {
	c := &Client{send: make(chan Message, 1)}

	if !c.Send(NewJSONMessage([]byte("{}"))) {
		t.Error("first Send should succeed")
	}
	if c.Send(NewJSONMessage([]byte("{}"))) {
		t.Error("second Send should report a full buffer")
	}
}
