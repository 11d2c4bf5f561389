// Package nativemsg implements the browser native messaging framing:
// every message is a uint32 little-endian length followed by that many bytes
// of UTF-8 JSON.
package nativemsg

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

const (
	// headerSize is the size of the length prefix.
	headerSize = 4
	// DefaultMaxInboundSize bounds frames read from the browser.
	DefaultMaxInboundSize = 64 << 20
	// MaxOutboundSize is the largest frame a browser accepts from a host.
	MaxOutboundSize = 1 << 20
)

// ErrFrameTooLarge is returned for frames that exceed the configured limit.
// On read, the oversized payload has already been skipped and the stream is
// positioned at the next frame.
var ErrFrameTooLarge = errors.New("frame too large")

// Reader reads length-prefixed frames.
//
// Partial reads are accumulated until a whole frame is available; bytes past
// the end of a frame stay buffered for the next ReadFrame call.
type Reader struct {
	r       *bufio.Reader
	maxSize uint32
}

// NewReader creates a Reader with DefaultMaxInboundSize.
func NewReader(r io.Reader) *Reader {
	return NewReaderSize(r, DefaultMaxInboundSize)
}

// NewReaderSize creates a Reader that rejects frames longer than maxSize.
func NewReaderSize(r io.Reader, maxSize uint32) *Reader {
	return &Reader{r: bufio.NewReader(r), maxSize: maxSize}
}

// ReadFrame returns the payload of the next frame.
//
// Returns io.EOF when the stream ends cleanly between frames and
// io.ErrUnexpectedEOF when it ends inside one.
func (fr *Reader) ReadFrame() ([]byte, error) {
	var header [headerSize]byte
	if _, err := io.ReadFull(fr.r, header[:]); err != nil {
		return nil, err
	}

	length := binary.LittleEndian.Uint32(header[:])
	if length > fr.maxSize {
		if _, err := io.CopyN(io.Discard, fr.r, int64(length)); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}
		return nil, fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrFrameTooLarge, length, fr.maxSize)
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(fr.r, payload); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return payload, nil
}

// ReadJSON reads the next frame and decodes it into v.
func (fr *Reader) ReadJSON(v any) error {
	payload, err := fr.ReadFrame()
	if err != nil {
		return err
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("failed to decode frame: %w", err)
	}
	return nil
}

// flusher is implemented by buffered writers such as *bufio.Writer.
type flusher interface {
	Flush() error
}

// Writer writes length-prefixed frames. Each frame is written with a single
// Write call and flushed before WriteFrame returns.
type Writer struct {
	w       io.Writer
	maxSize int
}

// NewWriter creates a Writer enforcing MaxOutboundSize.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w, maxSize: MaxOutboundSize}
}

// WriteFrame writes payload as one frame.
func (fw *Writer) WriteFrame(payload []byte) error {
	if len(payload) > fw.maxSize {
		return fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrFrameTooLarge, len(payload), fw.maxSize)
	}

	frame := make([]byte, headerSize+len(payload))
	binary.LittleEndian.PutUint32(frame[:headerSize], uint32(len(payload)))
	copy(frame[headerSize:], payload)

	if _, err := fw.w.Write(frame); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	if f, ok := fw.w.(flusher); ok {
		if err := f.Flush(); err != nil {
			return fmt.Errorf("failed to flush frame: %w", err)
		}
	}
	return nil
}

// WriteJSON encodes v and writes it as one frame.
func (fw *Writer) WriteJSON(v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode frame: %w", err)
	}
	return fw.WriteFrame(payload)
}
