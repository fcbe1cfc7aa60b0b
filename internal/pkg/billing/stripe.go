package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/webhook"
)

const (
	metadataUserIDKey    = "user_id"
	metadataTierLevelKey = "tier_level"
	metadataTierNameKey  = "tier_name"

	// Signed webhook timestamps older than this are rejected.
	webhookTolerance = 5 * time.Minute
)

// StripeProvider implements Provider against the Stripe API. It is an
// explicitly constructed service object; no package-level client state.
type StripeProvider struct {
	client        *stripe.Client
	webhookSecret string
	log           zerolog.Logger
}

// NewStripeProvider creates a Stripe-backed billing provider.
func NewStripeProvider(apiKey, webhookSecret string, log zerolog.Logger) (*StripeProvider, error) {
	key := strings.TrimSpace(apiKey)
	if key == "" {
		return nil, fmt.Errorf("stripe API key not configured")
	}

	return &StripeProvider{
		client:        stripe.NewClient(key),
		webhookSecret: strings.TrimSpace(webhookSecret),
		log:           log,
	}, nil
}

// SearchCustomerByUserID searches for a customer tagged with the user id.
func (p *StripeProvider) SearchCustomerByUserID(ctx context.Context, userID uint) (string, error) {
	uid := strconv.FormatUint(uint64(userID), 10)
	params := &stripe.CustomerSearchParams{}
	params.Query = fmt.Sprintf("metadata['%s']:'%s'", metadataUserIDKey, uid)

	for cust, err := range p.client.V1Customers.Search(ctx, params) {
		if err != nil {
			return "", fmt.Errorf("%w: customer search: %v", ErrProviderUnavailable, err)
		}
		// The Search API can return partial matches; verify exactly.
		if cust.Metadata != nil && cust.Metadata[metadataUserIDKey] == uid {
			return cust.ID, nil
		}
	}

	return "", ErrCustomerNotFound
}

// CreateCustomer creates a customer tagged with the user id in metadata so
// later searches and webhooks can be attributed.
func (p *StripeProvider) CreateCustomer(ctx context.Context, userID uint, email string) (string, error) {
	uid := strconv.FormatUint(uint64(userID), 10)
	params := &stripe.CustomerCreateParams{
		Email: stripe.String(strings.TrimSpace(email)),
		Metadata: map[string]string{
			metadataUserIDKey: uid,
		},
	}

	cust, err := p.client.V1Customers.Create(ctx, params)
	if err != nil {
		return "", fmt.Errorf("%w: customer create: %v", ErrProviderUnavailable, err)
	}
	return cust.ID, nil
}

// CreateCheckoutSession creates a subscription-mode checkout session with a
// single line item bound to the resolved customer.
func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, customerID, priceID, successURL, cancelURL, clientReferenceID string) (string, error) {
	params := &stripe.CheckoutSessionCreateParams{
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		Customer: stripe.String(customerID),
		LineItems: []*stripe.CheckoutSessionCreateLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(successURL),
		CancelURL:  stripe.String(cancelURL),
	}
	if clientReferenceID != "" {
		params.ClientReferenceID = stripe.String(clientReferenceID)
	}

	session, err := p.client.V1CheckoutSessions.Create(ctx, params)
	if err != nil {
		return "", fmt.Errorf("%w: checkout session: %v", ErrProviderUnavailable, err)
	}
	return session.URL, nil
}

// CancelSubscription cancels the subscription immediately at the provider.
func (p *StripeProvider) CancelSubscription(ctx context.Context, subscriptionID string) error {
	_, err := p.client.V1Subscriptions.Cancel(ctx, subscriptionID, &stripe.SubscriptionCancelParams{})
	if err != nil {
		return fmt.Errorf("%w: subscription cancel: %v", ErrProviderUnavailable, err)
	}
	return nil
}

// LookupPlan resolves a price to its metadata-declared tier level and name.
func (p *StripeProvider) LookupPlan(ctx context.Context, priceID string) (*Plan, error) {
	price, err := p.client.V1Prices.Retrieve(ctx, priceID, &stripe.PriceRetrieveParams{})
	if err != nil {
		return nil, fmt.Errorf("%w: price retrieve: %v", ErrProviderUnavailable, err)
	}
	return planFromPriceMetadata(priceID, price.Metadata, price.Nickname)
}

func planFromPriceMetadata(priceID string, metadata map[string]string, nickname string) (*Plan, error) {
	raw, ok := metadata[metadataTierLevelKey]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlan, priceID)
	}
	level, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || level <= 0 {
		return nil, fmt.Errorf("%w: %s has invalid tier_level %q", ErrUnknownPlan, priceID, raw)
	}

	name := strings.TrimSpace(metadata[metadataTierNameKey])
	if name == "" {
		name = strings.TrimSpace(nickname)
	}
	if name == "" {
		name = fmt.Sprintf("Tier %d", level)
	}

	return &Plan{PriceID: priceID, Name: name, Level: level}, nil
}

// VerifyWebhook authenticates the signed payload and normalizes it. Events
// outside the subscription lifecycle verify successfully but return a nil
// event; the endpoint acknowledges them without reconciling.
func (p *StripeProvider) VerifyWebhook(payload []byte, signature string) (*SubscriptionEvent, error) {
	event, err := webhook.ConstructEventWithTolerance(payload, signature, p.webhookSecret, webhookTolerance)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
	}

	switch string(event.Type) {
	case EventSubscriptionCreated, EventSubscriptionUpdated, EventSubscriptionDeleted:
	default:
		p.log.Debug().Str("event_id", event.ID).Str("type", string(event.Type)).
			Msg("ignoring webhook event type")
		return nil, nil
	}

	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return nil, fmt.Errorf("%w: subscription object: %v", ErrInvalidPayload, err)
	}

	ev := &SubscriptionEvent{
		ID:             event.ID,
		Type:           string(event.Type),
		SubscriptionID: sub.ID,
		Status:         string(sub.Status),
		Timestamp:      event.Created,
		Raw:            payload,
	}
	if sub.Customer != nil {
		ev.CustomerID = sub.Customer.ID
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		ev.PriceID = sub.Items.Data[0].Price.ID
	}

	return ev, nil
}
