package protocol

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/tinychain-project/tinychain/pkg/codec"
	"github.com/tinychain-project/tinychain/pkg/tx"
	"github.com/tinychain-project/tinychain/pkg/types"
)

func TestMessageRoundTrip(t *testing.T) {
	var pk types.PublicKey
	copy(pk[:], bytes.Repeat([]byte{0x02}, len(pk)))

	cases := []Message{
		FetchUTXOs{PubKey: pk},
		UTXOs{Entries: []UTXORecord{{Output: tx.TransactionOutput{Value: 5}, Marked: true}}},
		DiscoverNodes{},
		NodeList{Addrs: []string{"127.0.0.1:9000", "127.0.0.1:9001"}},
		AskDifference{Height: 42},
		Difference{Delta: -7},
		FetchBlock{Height: 3},
		TemplateValidity{Valid: true},
	}

	for _, want := range cases {
		w := codec.NewWriter()
		w.WriteFixed(Encode(want))
		got, err := Decode(codec.NewReader(w.Bytes()))
		if err != nil {
			t.Fatalf("decode %T: %v", want, err)
		}
		if got.Kind() != want.Kind() {
			t.Fatalf("kind mismatch: got %v, want %v", got.Kind(), want.Kind())
		}
	}
}

func TestWriteReadMessageFraming(t *testing.T) {
	var buf bytes.Buffer
	msg := AskDifference{Height: 9}
	if err := WriteMessage(&buf, msg); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}
	got, err := ReadMessage(&buf)
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	d, ok := got.(AskDifference)
	if !ok || d.Height != 9 {
		t.Fatalf("got %#v, want AskDifference{Height: 9}", got)
	}
}

func TestReadLoopDeliversInOrder(t *testing.T) {
	var buf bytes.Buffer
	WriteMessage(&buf, FetchBlock{Height: 1})
	WriteMessage(&buf, FetchBlock{Height: 2})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	ch := ReadLoop(ctx, &buf)

	first := <-ch
	if first.Err != nil {
		t.Fatalf("first: %v", first.Err)
	}
	if first.Msg.(FetchBlock).Height != 1 {
		t.Fatalf("expected height 1 first")
	}

	second := <-ch
	if second.Err != nil {
		t.Fatalf("second: %v", second.Err)
	}
	if second.Msg.(FetchBlock).Height != 2 {
		t.Fatalf("expected height 2 second")
	}

	third := <-ch
	if third.Err == nil {
		t.Fatalf("expected eof error terminating the loop")
	}
}
