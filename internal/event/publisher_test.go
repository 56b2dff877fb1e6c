package event

import (
	"context"
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogPublisher(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	p := NewLogPublisher(zap.New(core))

	payload := CertificatePayload{CertificateID: 7, CertificateNumber: "CERT-20260101-ABC", UserID: 1, CourseID: 2}
	if err := p.Publish(context.Background(), CertificateIssued, payload); err != nil {
		t.Fatalf("publish: %v", err)
	}

	entries := logs.FilterMessage("event").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["type"]; got != CertificateIssued {
		t.Errorf("logged type = %v", got)
	}
}

func TestRecorderIsSafeForConcurrentUse(t *testing.T) {
	r := &Recorder{}
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = r.Publish(context.Background(), AttemptSubmitted, AttemptSubmittedPayload{Score: 50})
		}()
	}
	wg.Wait()

	types := r.Types()
	if len(types) != 100 {
		t.Fatalf("expected 100 events, got %d", len(types))
	}
	for _, typ := range types {
		if typ != AttemptSubmitted {
			t.Fatalf("unexpected type %q", typ)
		}
	}
}
