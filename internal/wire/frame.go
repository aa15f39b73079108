// Package wire implements the length-delimited framing and request/response
// envelopes used over both the controller<->worker QUIC streams and the
// worker<->child-world IPC connection (spec.md §4.8, §6).
package wire

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"errors"
	"io"
)

// ErrFrameTooLarge guards against a corrupt or hostile length prefix.
var ErrFrameTooLarge = errors.New("wire: frame exceeds maximum size")

// MaxFrameSize bounds a single frame's payload, well above any statistics
// or config payload this system produces.
const MaxFrameSize = 64 << 20

// WriteFrame writes a 4-byte big-endian length prefix followed by payload.
func WriteFrame(w io.Writer, payload []byte) error {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

// ReadFrame reads one length-prefixed frame.
func ReadFrame(r io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	if n > MaxFrameSize {
		return nil, ErrFrameTooLarge
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// Encode gob-encodes v into a frame payload, matching the original's
// bincode-for-wire convention (§4.8).
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode gob-decodes a frame payload into v.
func Decode(payload []byte, v any) error {
	return gob.NewDecoder(bytes.NewReader(payload)).Decode(v)
}

// WriteMessage is the common send path: encode then frame.
func WriteMessage(w io.Writer, v any) error {
	payload, err := Encode(v)
	if err != nil {
		return err
	}
	return WriteFrame(w, payload)
}

// ReadMessage is the common receive path: de-frame then decode.
func ReadMessage(r io.Reader, v any) error {
	payload, err := ReadFrame(r)
	if err != nil {
		return err
	}
	return Decode(payload, v)
}
