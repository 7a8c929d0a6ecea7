package adapterwebsocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
)

// echoServer upgrades and echoes every frame through the transport.
func echoServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		tr := NewTransportFrom(conn)
		defer tr.Close(int32(websocket.StatusNormalClosure), "done")
		for {
			data, err := tr.Read(r.Context())
			if err != nil {
				return
			}
			if err := tr.Write(r.Context(), data); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.CloseNow() })
	return conn
}

func TestTransport_EchoesTextFrames(t *testing.T) {
	conn := dial(t, echoServer(t))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	msg := []byte(`{"type":"move","dx":1,"dy":0}`)
	if err := conn.Write(ctx, websocket.MessageText, msg); err != nil {
		t.Fatalf("write: %v", err)
	}
	typ, got, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if typ != websocket.MessageText || string(got) != string(msg) {
		t.Errorf("echo = %v %q, want text %q", typ, got, msg)
	}
}

func TestTransport_Ping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		tr := NewTransportFrom(conn)
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		// A pong is only processed while a read is pending.
		go tr.Read(ctx)
		if err := tr.Ping(ctx); err != nil {
			t.Errorf("Ping: %v", err)
		}
		tr.Close(int32(websocket.StatusNormalClosure), "done")
	}))
	t.Cleanup(srv.Close)

	conn := dial(t, srv)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	// The client answers pings while reading; the read ends when the server closes.
	if _, _, err := conn.Read(ctx); websocket.CloseStatus(err) != websocket.StatusNormalClosure {
		t.Errorf("read err = %v, want normal closure", err)
	}
}

func TestTransport_ReadLimit(t *testing.T) {
	conn := dial(t, echoServer(t))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	big := make([]byte, readLimit+1)
	for i := range big {
		big[i] = 'a'
	}
	if err := conn.Write(ctx, websocket.MessageText, big); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, _, err := conn.Read(ctx); websocket.CloseStatus(err) != websocket.StatusMessageTooBig {
		t.Errorf("read err = %v, want message too big", err)
	}
}
