package models

import (
	"testing"
	"time"
)

func TestBillingWebhookEventProcessed(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name  string
		event BillingWebhookEvent
		want  bool
	}{
		{"never processed", BillingWebhookEvent{}, false},
		{"completed run", BillingWebhookEvent{ProcessedAt: &now}, true},
		{"failed run", BillingWebhookEvent{ProcessedAt: &now, ProcessingError: "deadlock"}, false},
	}

	for _, tt := range tests {
		if got := tt.event.Processed(); got != tt.want {
			t.Errorf("%s: Processed() = %v, want %v", tt.name, got, tt.want)
		}
	}
}
