// Package relay bridges one upstream streaming completion to one downstream
// server-sent-event stream. Content deltas are re-emitted as they arrive
// while the full reply accumulates in memory; on the upstream [DONE]
// sentinel the conversation is persisted in a single best-effort pass.
package relay

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/TD21forever/buling/internal/chat"
	"github.com/TD21forever/buling/internal/errors"
)

const dataPrefix = "data: "

// doneSentinel terminates an upstream stream.
const doneSentinel = "[DONE]"

// MessageStore persists chat messages on stream completion. Implementations
// are scoped to one session per call; no cross-request locking is needed.
type MessageStore interface {
	AppendMessage(ctx context.Context, sessionID string, role chat.Role, content string) error
}

// Event is the downstream wire shape for one content delta.
type Event struct {
	Content string `json:"content"`
}

// deltaFrame mirrors the upstream SSE JSON fragment down to the content
// delta path (choices[0].delta.content).
type deltaFrame struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// Options configures one relay run.
type Options struct {
	// SessionID enables persistence on completion when non-empty.
	SessionID string

	// Turns is the conversation that produced the stream; the final turn
	// is persisted as the user message if user-authored.
	Turns []chat.Turn

	// Store receives messages on the [DONE] path. May be nil.
	Store MessageStore
}

// Run drains the upstream stream, forwarding each content delta to w as a
// `data: {"content": ...}` event in arrival order. The upstream body is
// always closed. A mid-stream read failure is returned as a
// STREAM_TRANSPORT error; downstream cancellation returns the context
// error. Persistence happens only after the [DONE] sentinel.
func Run(ctx context.Context, upstreamBody io.ReadCloser, w io.Writer, opts Options) error {
	defer upstreamBody.Close()

	flusher, _ := w.(http.Flusher)

	var full strings.Builder
	var carry string
	buf := make([]byte, 4096)

	for {
		n, readErr := upstreamBody.Read(buf)

		if n > 0 {
			// Partial lines span chunk boundaries; only complete lines are
			// processed, the trailing remainder carries into the next read.
			lines := strings.Split(carry+string(buf[:n]), "\n")
			carry = lines[len(lines)-1]

			for _, line := range lines[:len(lines)-1] {
				done, err := processLine(line, w, flusher, &full)
				if err != nil {
					return err
				}
				if done {
					persist(ctx, opts, full.String())
					return nil
				}
			}
		}

		if readErr == io.EOF {
			// Stream ended without a sentinel: close cleanly, skip
			// persistence (the reply may be incomplete).
			return nil
		}
		if readErr != nil {
			if ctx.Err() != nil {
				// Downstream consumer went away; discard the partial reply.
				return ctx.Err()
			}
			return errors.NewStreamTransport(readErr)
		}
	}
}

// processLine handles one complete upstream line. It reports whether the
// line was the terminal sentinel.
func processLine(line string, w io.Writer, flusher http.Flusher, full *strings.Builder) (bool, error) {
	line = strings.TrimSuffix(line, "\r")
	if !strings.HasPrefix(line, dataPrefix) {
		return false, nil
	}
	payload := line[len(dataPrefix):]

	if payload == doneSentinel {
		return true, nil
	}

	var frame deltaFrame
	if err := json.Unmarshal([]byte(payload), &frame); err != nil {
		// Malformed data lines are expected noise; skip without aborting.
		return false, nil
	}
	if len(frame.Choices) == 0 {
		return false, nil
	}
	delta := frame.Choices[0].Delta.Content
	if delta == "" {
		return false, nil
	}

	full.WriteString(delta)

	event, err := json.Marshal(Event{Content: delta})
	if err != nil {
		return false, errors.NewInternal(err)
	}
	if _, err := io.WriteString(w, dataPrefix+string(event)+"\n\n"); err != nil {
		return false, errors.NewStreamTransport(err)
	}
	if flusher != nil {
		flusher.Flush()
	}
	return false, nil
}

// persist writes the closing user turn and the accumulated assistant reply.
// Failures are logged, not propagated: the user already received the full
// stream.
func persist(ctx context.Context, opts Options, full string) {
	if opts.Store == nil || opts.SessionID == "" || full == "" {
		return
	}

	if user := chat.LastUserTurn(opts.Turns); user != nil {
		if err := opts.Store.AppendMessage(ctx, opts.SessionID, chat.RoleUser, user.Content); err != nil {
			log.Printf("relay: persist user message: %v", err)
		}
	}

	if err := opts.Store.AppendMessage(ctx, opts.SessionID, chat.RoleAssistant, full); err != nil {
		log.Printf("relay: persist assistant message: %v", err)
	}
}
