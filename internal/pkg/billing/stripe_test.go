package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanFromPriceMetadata(t *testing.T) {
	tests := []struct {
		name     string
		metadata map[string]string
		nickname string
		want     *Plan
		wantErr  bool
	}{
		{
			name:     "full metadata",
			metadata: map[string]string{"tier_level": "2", "tier_name": "Gold"},
			want:     &Plan{PriceID: "price_1", Name: "Gold", Level: 2},
		},
		{
			name:     "name falls back to nickname",
			metadata: map[string]string{"tier_level": "1"},
			nickname: "Silver Monthly",
			want:     &Plan{PriceID: "price_1", Name: "Silver Monthly", Level: 1},
		},
		{
			name:     "name falls back to generated label",
			metadata: map[string]string{"tier_level": "3"},
			want:     &Plan{PriceID: "price_1", Name: "Tier 3", Level: 3},
		},
		{
			name:     "level trimmed before parsing",
			metadata: map[string]string{"tier_level": " 2 ", "tier_name": "Gold"},
			want:     &Plan{PriceID: "price_1", Name: "Gold", Level: 2},
		},
		{
			name:     "missing tier_level",
			metadata: map[string]string{"tier_name": "Gold"},
			wantErr:  true,
		},
		{
			name:     "non-numeric tier_level",
			metadata: map[string]string{"tier_level": "gold"},
			wantErr:  true,
		},
		{
			name:     "zero tier_level",
			metadata: map[string]string{"tier_level": "0"},
			wantErr:  true,
		},
		{
			name:     "negative tier_level",
			metadata: map[string]string{"tier_level": "-1"},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := planFromPriceMetadata("price_1", tt.metadata, tt.nickname)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownPlan)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, plan)
		})
	}
}

const testWebhookSecret = "whsec_test"

func signStripePayload(payload []byte, secret string) string {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts, payload)
	return fmt.Sprintf("t=%d,v1=%x", ts, mac.Sum(nil))
}

func newWebhookProvider(t *testing.T) *StripeProvider {
	t.Helper()
	p, err := NewStripeProvider("sk_test_x", testWebhookSecret, zerolog.Nop())
	require.NoError(t, err)
	return p
}

func TestVerifyWebhookRejectsBadSignature(t *testing.T) {
	p := newWebhookProvider(t)
	payload := []byte(`{"id":"evt_1","type":"customer.subscription.updated","created":100,"data":{"object":{}}}`)

	_, err := p.VerifyWebhook(payload, signStripePayload(payload, "whsec_other"))
	assert.ErrorIs(t, err, ErrSignatureInvalid)
}

func TestVerifyWebhookIgnoresOtherEventTypes(t *testing.T) {
	p := newWebhookProvider(t)
	payload := []byte(`{"id":"evt_1","type":"invoice.paid","created":100,"data":{"object":{}}}`)

	ev, err := p.VerifyWebhook(payload, signStripePayload(payload, testWebhookSecret))
	require.NoError(t, err)
	assert.Nil(t, ev)
}

// A signed body whose subscription object cannot be decoded is a payload
// problem, not a signature problem. The endpoint answers 400, not 401.
func TestVerifyWebhookMalformedSubscriptionObject(t *testing.T) {
	p := newWebhookProvider(t)
	payload := []byte(`{"id":"evt_1","type":"customer.subscription.updated","created":100,"data":{"object":[]}}`)

	_, err := p.VerifyWebhook(payload, signStripePayload(payload, testWebhookSecret))
	assert.ErrorIs(t, err, ErrInvalidPayload)
	assert.NotErrorIs(t, err, ErrSignatureInvalid)
}

func TestVerifyWebhookParsesSubscriptionEvent(t *testing.T) {
	p := newWebhookProvider(t)
	payload := []byte(`{"id":"evt_1","type":"customer.subscription.created","created":100,` +
		`"data":{"object":{"id":"sub_1","status":"active","customer":"cus_1",` +
		`"items":{"data":[{"price":{"id":"price_gold"}}]}}}}`)

	ev, err := p.VerifyWebhook(payload, signStripePayload(payload, testWebhookSecret))
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Equal(t, "evt_1", ev.ID)
	assert.Equal(t, EventSubscriptionCreated, ev.Type)
	assert.Equal(t, "sub_1", ev.SubscriptionID)
	assert.Equal(t, "cus_1", ev.CustomerID)
	assert.Equal(t, "price_gold", ev.PriceID)
	assert.Equal(t, StatusActive, ev.Status)
	assert.Equal(t, int64(100), ev.Timestamp)
}

func TestSubscriptionEventEntitling(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{StatusActive, true},
		{StatusTrialing, true},
		{StatusPastDue, true},
		{"canceled", false},
		{"unpaid", false},
		{"incomplete", false},
		{"", false},
	}

	for _, tt := range tests {
		ev := &SubscriptionEvent{Status: tt.status}
		assert.Equal(t, tt.want, ev.Entitling(), "status %q", tt.status)
	}
}
