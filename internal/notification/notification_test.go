package notification

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestLoggerNotifierWritesMessage(t *testing.T) {
	var buf bytes.Buffer
	n := NewLoggerNotifier(slog.New(slog.NewTextHandler(&buf, nil)))

	if err := n.Send(context.Background(), Message{Kind: KindLoanApplied, Destination: "user-1", Body: "Car loan"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if !strings.Contains(buf.String(), "kind=loan_applied") {
		t.Fatalf("unexpected log output %q", buf.String())
	}

	var nilNotifier *LoggerNotifier
	if err := nilNotifier.Send(context.Background(), Message{}); err != nil {
		t.Fatalf("nil notifier: %v", err)
	}
}

func TestRecorderDrain(t *testing.T) {
	var r Recorder
	_ = r.Send(context.Background(), Message{Kind: KindTransactionPosted})
	_ = r.Send(context.Background(), Message{Kind: KindLoanApplied})

	if got := r.Messages(); len(got) != 2 || got[1].Kind != KindLoanApplied {
		t.Fatalf("unexpected messages %+v", got)
	}
	if got := r.Drain(); len(got) != 2 {
		t.Fatalf("expected 2 drained, got %d", len(got))
	}
	if got := r.Messages(); len(got) != 0 {
		t.Fatalf("expected empty recorder, got %+v", got)
	}
}
