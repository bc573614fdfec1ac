package amcrest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"
)

func TestParseEventBlock(t *testing.T) {
	tests := []struct {
		name       string
		block      string
		wantOK     bool
		wantCode   string
		wantAction string
		wantData   map[string]any
	}{
		{
			name:       "simple motion event",
			block:      "Code=VideoMotion;action=Start;index=0",
			wantOK:     true,
			wantCode:   "VideoMotion",
			wantAction: "Start",
		},
		{
			name:       "event with inline data",
			block:      `Code=_DoTalkAction_;action=Pulse;index=0;data={"Action":"Invite"}`,
			wantOK:     true,
			wantCode:   "_DoTalkAction_",
			wantAction: "Pulse",
			wantData:   map[string]any{"Action": "Invite"},
		},
		{
			name: "event with multi-line data",
			block: "Code=CrossRegionDetection;action=Start;index=0;data={\n" +
				"   \"ObjectType\" : \"Human\"\n" +
				"}",
			wantOK:     true,
			wantCode:   "CrossRegionDetection",
			wantAction: "Start",
			wantData:   map[string]any{"ObjectType": "Human"},
		},
		{
			name:   "heartbeat block",
			block:  "Heartbeat",
			wantOK: false,
		},
		{
			name:     "malformed data kept raw",
			block:    "Code=VideoMotion;action=Start;index=0;data={not json",
			wantOK:   true,
			wantCode: "VideoMotion",
			wantData: map[string]any{"raw": "{not json"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, ok := parseEventBlock(tt.block)
			if ok != tt.wantOK {
				t.Fatalf("parseEventBlock() ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if event.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", event.Code, tt.wantCode)
			}
			if tt.wantAction != "" && event.Action != tt.wantAction {
				t.Errorf("Action = %q, want %q", event.Action, tt.wantAction)
			}
			for key, want := range tt.wantData {
				if got := event.Data[key]; got != want {
					t.Errorf("Data[%q] = %v, want %v", key, got, want)
				}
			}
		})
	}
}

func TestEventPayload(t *testing.T) {
	event := Event{
		Code:   "VideoMotion",
		Action: "Start",
		Index:  "0",
		Data:   map[string]any{"RegionName": []any{"Default"}},
	}

	payload := event.Payload()
	if payload["action"] != "Start" {
		t.Errorf("payload action = %v, want Start", payload["action"])
	}
	if payload["index"] != "0" {
		t.Errorf("payload index = %v, want 0", payload["index"])
	}
	if _, ok := payload["data"]; !ok {
		t.Error("payload missing data field")
	}

	// No data field when the event carried none.
	bare := Event{Code: "VideoMotion", Action: "Stop"}
	if _, ok := bare.Payload()["data"]; ok {
		t.Error("payload for bare event should not carry data")
	}
}

func TestStreamEvents_DeliversEvents(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cgi-bin/eventManager.cgi" || r.URL.Query().Get("action") != "attach" {
			http.NotFound(w, r)
			return
		}

		w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=myboundary")
		fmt.Fprint(w, "--myboundary\r\n")
		fmt.Fprint(w, "Content-Type: text/plain\r\n")
		fmt.Fprint(w, "\r\n")
		fmt.Fprint(w, "Code=VideoMotion;action=Start;index=0\r\n")
		fmt.Fprint(w, "--myboundary\r\n")
		fmt.Fprint(w, "\r\n")
		fmt.Fprint(w, "Code=VideoMotion;action=Stop;index=0\r\n")
		fmt.Fprint(w, "--myboundary\r\n")
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		// Keep the connection open so the reader does not hit EOF
		// between the scripted events.
		time.Sleep(200 * time.Millisecond)
	}))

	stream := client.StreamEvents(StreamOptions{ReconnectDelay: time.Millisecond})
	defer stream.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	first, err := stream.Next(ctx)
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if first.Code != "VideoMotion" || first.Action != "Start" {
		t.Errorf("first event = %+v, want VideoMotion/Start", first)
	}

	second, err := stream.Next(ctx)
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if second.Action != "Stop" {
		t.Errorf("second event action = %q, want Stop", second.Action)
	}
}

func TestStreamEvents_RetryBudgetExhausted(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	stream := client.StreamEvents(StreamOptions{
		RetryBudget:    3,
		ReconnectDelay: time.Millisecond,
	})
	defer stream.Close()

	_, err := stream.Next(context.Background())
	if !errors.Is(err, ErrStreamExhausted) {
		t.Fatalf("Next() error = %v, want ErrStreamExhausted", err)
	}
}

func TestStreamEvents_CancelledContext(t *testing.T) {
	client := New(Config{Host: "127.0.0.1", Port: 1, Username: "admin", Password: "x"})

	stream := client.StreamEvents(StreamOptions{ReconnectDelay: time.Hour})
	defer stream.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := stream.Next(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Next() error = %v, want context.Canceled", err)
	}
}
