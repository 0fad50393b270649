package log

import (
	"testing"
	"time"

	"github.com/meshpair/meshpair-go/pkg/wire"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type recordingLogger struct {
	events []Event
}

func (r *recordingLogger) Log(event Event) {
	r.events = append(r.events, event)
}

func TestMultiLoggerCallsAll(t *testing.T) {
	a := &recordingLogger{}
	b := &recordingLogger{}

	multi := NewMultiLogger(a, nil, b)
	multi.Log(Event{ConnectionID: "conn-123"})

	for i, l := range []*recordingLogger{a, b} {
		if len(l.events) != 1 {
			t.Errorf("logger %d: got %d events, want 1", i, len(l.events))
		}
	}
}

func TestOrNoop(t *testing.T) {
	if _, ok := OrNoop(nil).(NoopLogger); !ok {
		t.Error("OrNoop(nil) should return NoopLogger")
	}
	r := &recordingLogger{}
	if OrNoop(r) != Logger(r) {
		t.Error("OrNoop(l) should return l")
	}
}

func TestZapAdapterLogsMessageEvent(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	adapter := NewZapAdapter(zap.New(core))

	subID := uint32(3)
	adapter.Log(Event{
		Timestamp:    time.Now(),
		ConnectionID: "conn-1",
		Direction:    DirectionIn,
		Layer:        LayerWire,
		Category:     CategoryMessage,
		EntryID:      "entry-1",
		Message: &MessageEvent{
			Kind:           wire.KindEvent,
			SubscriptionID: &subID,
			EventName:      "node added",
		},
	})

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["conn_id"] != "conn-1" {
		t.Errorf("conn_id = %v, want conn-1", fields["conn_id"])
	}
	if fields["event"] != "node added" {
		t.Errorf("event = %v, want %q", fields["event"], "node added")
	}
	if fields["entry_id"] != "entry-1" {
		t.Errorf("entry_id = %v, want entry-1", fields["entry_id"])
	}
	if entries[0].LoggerName != "protocol" {
		t.Errorf("LoggerName = %q, want protocol", entries[0].LoggerName)
	}
}

func TestZapAdapterLogsStateChange(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	adapter := NewZapAdapter(zap.New(core))

	adapter.Log(NewStateEvent(StateEntityFlow, "form", "create_entry", ""))

	fields := logs.All()[0].ContextMap()
	if fields["entity"] != "FLOW" {
		t.Errorf("entity = %v, want FLOW", fields["entity"])
	}
	if fields["new_state"] != "create_entry" {
		t.Errorf("new_state = %v, want create_entry", fields["new_state"])
	}
}

func TestEnumStrings(t *testing.T) {
	tests := []struct {
		got  string
		want string
	}{
		{DirectionOut.String(), "OUT"},
		{LayerSession.String(), "SESSION"},
		{CategoryError.String(), "ERROR"},
		{RoleHub.String(), "HUB"},
		{StateEntityInclusion.String(), "INCLUSION"},
		{Layer(9).String(), "UNKNOWN"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("String() = %q, want %q", tt.got, tt.want)
		}
	}
}
