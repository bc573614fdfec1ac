package amcrest

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Stream constants.
const (
	// defaultRetryBudget is the number of consecutive reconnect attempts
	// before the stream reports a terminal error. The budget resets on
	// every successfully received event.
	defaultRetryBudget = 5

	// reconnectDelay is the pause between reconnect attempts.
	reconnectDelay = 5 * time.Second

	// heartbeatSeconds asks the camera to emit keepalive blocks so dead
	// connections surface as read errors instead of silence.
	heartbeatSeconds = 5

	// maxBlockLines bounds one event block; real blocks are a handful of
	// lines plus a pretty-printed JSON data object.
	maxBlockLines = 256
)

// Event is one device notification from the camera's event channel.
type Event struct {
	Code   string
	Action string
	Index  string
	Data   map[string]any
}

// Payload returns the event's passthrough form for the generic event
// topic, mirroring the camera's own field names.
func (e Event) Payload() map[string]any {
	p := map[string]any{
		"action": e.Action,
		"index":  e.Index,
	}
	if e.Data != nil {
		p["data"] = e.Data
	}
	return p
}

// StreamOptions configures the event stream attach.
type StreamOptions struct {
	// Channel selects the event codes to subscribe to. Default "All".
	Channel string

	// RetryBudget is the number of consecutive reconnect attempts before
	// the stream fails terminally. Default 5.
	RetryBudget int

	// ReconnectDelay is the pause between reconnect attempts. Default 5s.
	ReconnectDelay time.Duration
}

// EventStream is a blocking iterator over camera events.
//
// The stream reconnects on transient I/O errors up to a bounded budget;
// only after the budget is exhausted does Next return ErrStreamExhausted.
// It is not safe for concurrent use: one goroutine owns the stream.
type EventStream struct {
	client  *Client
	channel string
	budget  int
	delay   time.Duration

	body    io.ReadCloser
	reader  *bufio.Reader
	retries int
}

// StreamEvents attaches to the camera's event channel.
//
// The initial connection is attempted lazily by the first Next call, so a
// briefly unreachable camera consumes retry budget instead of failing
// startup outright.
func (c *Client) StreamEvents(opts StreamOptions) *EventStream {
	channel := opts.Channel
	if channel == "" {
		channel = "All"
	}
	budget := opts.RetryBudget
	if budget <= 0 {
		budget = defaultRetryBudget
	}
	delay := opts.ReconnectDelay
	if delay <= 0 {
		delay = reconnectDelay
	}

	return &EventStream{
		client:  c,
		channel: channel,
		budget:  budget,
		delay:   delay,
	}
}

// Next blocks until the next event arrives.
//
// Transient failures (connection drop, HTTP error) trigger an internal
// reconnect with a fixed delay. Returns:
//   - Event: the next device event
//   - error: ctx.Err() on cancellation, or ErrStreamExhausted once the
//     reconnect budget runs out (terminal)
func (s *EventStream) Next(ctx context.Context) (Event, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Event{}, err
		}

		if s.body == nil {
			if err := s.attach(ctx); err != nil {
				if terminal := s.consumeRetry(ctx, err); terminal != nil {
					return Event{}, terminal
				}
				continue
			}
		}

		block, err := s.readBlock()
		if err != nil {
			s.closeBody()
			if terminal := s.consumeRetry(ctx, err); terminal != nil {
				return Event{}, terminal
			}
			continue
		}

		event, ok := parseEventBlock(block)
		if !ok {
			// Heartbeat or boundary chatter.
			continue
		}

		s.retries = 0
		return event, nil
	}
}

// Close releases the underlying connection. Next must not be called after
// Close.
func (s *EventStream) Close() {
	s.closeBody()
}

func (s *EventStream) closeBody() {
	if s.body != nil {
		s.body.Close()
		s.body = nil
		s.reader = nil
	}
}

// consumeRetry spends one unit of retry budget and waits out the
// reconnect delay. Returns the terminal error once the budget is gone.
func (s *EventStream) consumeRetry(ctx context.Context, cause error) error {
	s.retries++
	if s.retries >= s.budget {
		return fmt.Errorf("%w: %w", ErrStreamExhausted, cause)
	}

	timer := time.NewTimer(s.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// attach opens the long-lived eventManager.cgi connection.
func (s *EventStream) attach(ctx context.Context) error {
	query := url.Values{
		"action":    {"attach"},
		"codes":     {fmt.Sprintf("[%s]", s.channel)},
		"heartbeat": {fmt.Sprintf("%d", heartbeatSeconds)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		s.client.baseURL+"/cgi-bin/eventManager.cgi?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("%w: building attach request: %w", ErrUnavailable, err)
	}

	resp, err := s.client.streamClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		if resp.StatusCode == http.StatusUnauthorized {
			return fmt.Errorf("%w: event stream attach", ErrAuthFailed)
		}
		return fmt.Errorf("%w: attach returned HTTP %d", ErrUnavailable, resp.StatusCode)
	}

	s.body = resp.Body
	s.reader = bufio.NewReader(resp.Body)
	return nil
}

// readBlock collects the lines of one multipart block, delimited by the
// camera's boundary markers.
func (s *EventStream) readBlock() (string, error) {
	var lines []string

	for len(lines) < maxBlockLines {
		line, err := s.reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("%w: reading event stream: %w", ErrUnavailable, err)
		}

		line = strings.TrimRight(line, "\r\n")
		switch {
		case strings.HasPrefix(line, "--"): // boundary
			if len(lines) > 0 {
				return strings.Join(lines, "\n"), nil
			}
		case strings.HasPrefix(line, "Content-"), line == "":
			// part headers and separators
		default:
			lines = append(lines, line)
		}
	}

	return strings.Join(lines, "\n"), nil
}

// parseEventBlock extracts an Event from one block of the form
//
//	Code=VideoMotion;action=Start;index=0;data={ ... }
//
// where the data object, when present, may span multiple lines. Blocks
// without a Code field (heartbeats) report ok=false.
func parseEventBlock(block string) (Event, bool) {
	codeStart := strings.Index(block, "Code=")
	if codeStart < 0 {
		return Event{}, false
	}
	block = block[codeStart:]

	var event Event
	rest := block
	for rest != "" {
		if data, found := strings.CutPrefix(rest, "data="); found {
			event.Data = parseEventData(data)
			break
		}

		field, remainder, _ := strings.Cut(rest, ";")
		key, value, found := strings.Cut(field, "=")
		if found {
			switch key {
			case "Code":
				event.Code = strings.TrimSpace(value)
			case "action":
				event.Action = strings.TrimSpace(value)
			case "index":
				event.Index = strings.TrimSpace(value)
			}
		}
		rest = remainder
	}

	if event.Code == "" {
		return Event{}, false
	}
	return event, true
}

// parseEventData decodes the trailing data object. Malformed JSON is kept
// as a raw string so the passthrough topic still carries it.
func parseEventData(raw string) map[string]any {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return map[string]any{"raw": raw}
	}
	return data
}
