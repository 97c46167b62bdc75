package p2p

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/libp2p/go-libp2p/core/network"
)

func TestHostDialAndSetHandler(t *testing.T) {
	server, err := New(Config{ListenAddr: "127.0.0.1", Port: 0})
	if err != nil {
		t.Fatalf("New server: %v", err)
	}
	defer server.Close()

	received := make(chan string, 1)
	server.SetHandler(func(s network.Stream) {
		defer s.Close()
		buf := make([]byte, 5)
		if _, err := io.ReadFull(s, buf); err != nil {
			return
		}
		received <- string(buf)
	})

	client, err := New(Config{ListenAddr: "127.0.0.1", Port: 0})
	if err != nil {
		t.Fatalf("New client: %v", err)
	}
	defer client.Close()

	addrs := server.Addrs()
	if len(addrs) == 0 {
		t.Fatal("server Addrs() returned no addresses")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stream, err := client.Dial(ctx, addrs[0])
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer stream.Close()

	if _, err := stream.Write([]byte("hello")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	select {
	case msg := <-received:
		if msg != "hello" {
			t.Fatalf("server received %q, want %q", msg, "hello")
		}
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for server to receive the message")
	}
}

func TestHostDialRejectsMalformedAddress(t *testing.T) {
	client, err := New(Config{ListenAddr: "127.0.0.1", Port: 0})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := client.Dial(ctx, "not-a-multiaddr"); err == nil {
		t.Fatal("expected an error dialing a malformed address")
	}
}
