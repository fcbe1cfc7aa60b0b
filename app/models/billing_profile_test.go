package models

import "testing"

func TestBillingProfileSubscribed(t *testing.T) {
	p := &BillingProfile{}
	if p.Subscribed() {
		t.Fatal("empty profile must not count as subscribed")
	}
	p.SubscriptionID = "sub_1"
	if !p.Subscribed() {
		t.Fatal("profile with subscription id must count as subscribed")
	}
}

func TestBillingProfileConsistent(t *testing.T) {
	tests := []struct {
		subscriptionID string
		tierLevel      int
		want           bool
	}{
		{"", 0, true},
		{"sub_1", 2, true},
		{"sub_1", 0, false},
		{"", 2, false},
	}

	for _, tt := range tests {
		p := &BillingProfile{SubscriptionID: tt.subscriptionID, TierLevel: tt.tierLevel}
		if got := p.Consistent(); got != tt.want {
			t.Errorf("Consistent with sub=%q tier=%d = %v, want %v",
				tt.subscriptionID, tt.tierLevel, got, tt.want)
		}
	}
}
