package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
)

func dialTestServer(t *testing.T, handler http.HandlerFunc) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestConnSerializesConcurrentWrites(t *testing.T) {
	const writers = 8
	upgrader := websocket.Upgrader{}

	client := dialTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		raw, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		conn := Wrap(raw)

		// Simulates the tick goroutine writing alongside action acks.
		var wg sync.WaitGroup
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := conn.WriteEvent(PongResponse{Event: EventPong}); err != nil {
					t.Errorf("WriteEvent: %v", err)
				}
			}()
		}
		wg.Wait()
	})

	for i := 0; i < writers; i++ {
		var resp PongResponse
		if err := client.ReadJSON(&resp); err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
		if resp.Event != EventPong {
			t.Errorf("event = %q, want %q", resp.Event, EventPong)
		}
	}
}

func TestConnWriteError(t *testing.T) {
	upgrader := websocket.Upgrader{}
	client := dialTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		raw, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		Wrap(raw).WriteError("no active session")
	})

	var resp ErrorResponse
	if err := client.ReadJSON(&resp); err != nil {
		t.Fatalf("read: %v", err)
	}
	if resp.Event != EventError || resp.Error != "no active session" {
		t.Errorf("got %+v, want an error event with the message", resp)
	}
}
