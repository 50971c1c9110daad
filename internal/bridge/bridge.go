// Package bridge delivers the finished mask to the host application.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// ErrUnavailable is returned when no host bridge exists in this build.
var ErrUnavailable = errors.New("host bridge unavailable")

// Submission is the structured message sent to the host.
type Submission struct {
	MaskData string `json:"maskData"`
	ImageID  string `json:"imageId"`

	// Carried for transports that need them; not part of the JSON message.
	UserID string `json:"-"`
	JPEG   []byte `json:"-"`
}

// Status is the follow-up message sent after an out-of-band upload.
type Status struct {
	Status  string `json:"status"`
	ImageID string `json:"imageId"`
	UserID  string `json:"userId"`
}

// Bridge hands a submission to the host. Success and failure semantics are
// owned by the host; a nil error only means the hand-off happened.
type Bridge interface {
	Deliver(ctx context.Context, sub Submission) error
}

// Messenger is the host's one-shot data channel (sendData in web views).
type Messenger interface {
	SendData(data string) error
}

// Host is the embedding application's lifecycle surface.
type Host interface {
	Ready()
	Expand()
	Close()
}

// Writer writes each submission as one JSON line.
type Writer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriter creates a Writer on w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Deliver implements Bridge.
func (b *Writer) Deliver(ctx context.Context, sub Submission) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := encode(sub)
	if err != nil {
		return err
	}
	return b.SendData(data)
}

// SendData implements Messenger.
func (b *Writer) SendData(data string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, err := io.WriteString(b.w, data+"\n"); err != nil {
		return fmt.Errorf("failed to write submission: %w", err)
	}
	return nil
}

// Direct sends the submission JSON through a Messenger.
type Direct struct {
	M Messenger
}

// Deliver implements Bridge.
func (d Direct) Deliver(ctx context.Context, sub Submission) error {
	if d.M == nil {
		return ErrUnavailable
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := encode(sub)
	if err != nil {
		return err
	}
	return d.M.SendData(data)
}

// NopHost logs lifecycle calls; used when no host is embedding the editor.
type NopHost struct {
	Log *slog.Logger
}

func (h NopHost) logger() *slog.Logger {
	if h.Log != nil {
		return h.Log
	}
	return slog.Default()
}

func (h NopHost) Ready()  { h.logger().Debug("host: ready") }
func (h NopHost) Expand() { h.logger().Debug("host: expand") }
func (h NopHost) Close()  { h.logger().Debug("host: close") }

func encode(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode message: %w", err)
	}
	return string(data), nil
}
