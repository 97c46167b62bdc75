package protocol

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/tinychain-project/tinychain/pkg/codec"
)

// maxFrameLen guards against a corrupt or hostile length prefix forcing an
// enormous allocation (spec.md §4.8: "Malformed length or payload →
// protocol error; connection closes").
const maxFrameLen = 64 << 20

// WriteMessage frames m as len8_be ‖ payload and writes it to w, blocking
// until the write completes or fails (spec.md §4.8/§6).
func WriteMessage(w io.Writer, m Message) error {
	payload := Encode(m)
	var lenBuf [8]byte
	binary.BigEndian.PutUint64(lenBuf[:], uint64(len(payload)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return fmt.Errorf("write frame length: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("write frame payload: %w", err)
	}
	return nil
}

// ReadMessage reads exactly 8 length bytes, then exactly that many payload
// bytes, then decodes a Message. Any malformed length or payload is a
// protocol error the caller should treat as connection-closing.
func ReadMessage(r io.Reader) (Message, error) {
	var lenBuf [8]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, fmt.Errorf("read frame length: %w", err)
	}
	n := binary.BigEndian.Uint64(lenBuf[:])
	if n > maxFrameLen {
		return nil, fmt.Errorf("frame length %d exceeds maximum", n)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("read frame payload: %w", err)
	}
	return Decode(codec.NewReader(payload))
}

// Inbound is one message read off a stream, paired with any read error
// that terminated the stream.
type Inbound struct {
	Msg Message
	Err error
}

// ReadLoop reads messages from r until ctx is cancelled or a read fails,
// sending each onto the returned channel. This is the cooperative-
// suspension counterpart to ReadMessage: a handler goroutine can select
// on the channel alongside other suspension points (shutdown, write
// requests) instead of blocking exclusively on the next frame. The
// channel is closed after the first error or when ctx is done; message
// order within the stream is preserved (spec.md §5).
func ReadLoop(ctx context.Context, r io.Reader) <-chan Inbound {
	out := make(chan Inbound)
	go func() {
		defer close(out)
		for {
			m, err := ReadMessage(r)
			select {
			case out <- Inbound{Msg: m, Err: err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()
	return out
}
