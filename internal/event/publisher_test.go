package event

import (
	"encoding/json"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogPublisherWritesEnvelope(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	p := NewLogPublisher(zap.New(core))
	p.now = func() time.Time { return time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC) }

	if err := p.Publish("quiz.completed", map[string]int{"correct": 7}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected one log entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["event"] != "quiz.completed" {
		t.Fatalf("unexpected event field %v", fields["event"])
	}

	var env struct {
		Type       string         `json:"type"`
		OccurredAt time.Time      `json:"occurredAt"`
		Payload    map[string]int `json:"payload"`
	}
	body, ok := fields["body"].(string)
	if !ok {
		t.Fatalf("expected body string, got %T", fields["body"])
	}
	if err := json.Unmarshal([]byte(body), &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if env.Type != "quiz.completed" || env.Payload["correct"] != 7 || env.OccurredAt.Hour() != 12 {
		t.Fatalf("unexpected envelope %+v", env)
	}
}

func TestEncodeRejectsUnencodablePayload(t *testing.T) {
	if _, err := encode("bad", make(chan int), time.Now()); err == nil {
		t.Fatalf("expected encode error")
	}
}
