package payment

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// Event kinds normalized across providers.
const (
	EventCheckoutCompleted = "checkout.completed"
	EventCheckoutExpired   = "checkout.expired"
	EventIgnored           = "ignored"
)

// Metadata keys attached to every checkout session.
const (
	MetaUserID    = "user_id"
	MetaPackageID = "package_id"
	MetaPoints    = "points"
)

var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrInvalidPayload   = errors.New("invalid webhook payload")
)

type CheckoutRequest struct {
	UserID         string
	Amount         int64 // minor units of Currency
	Currency       string
	Description    string
	IdempotencyKey string
	SuccessURL     string
	CancelURL      string
	Metadata       map[string]string
}

type CheckoutSession struct {
	Reference   string
	CheckoutURL string
	ExpiresAt   time.Time
}

// Event is a verified webhook notification.
type Event struct {
	ID        string
	Kind      string // one of the Event* constants
	Type      string // provider's own event type
	Reference string // checkout session reference
	Metadata  map[string]string
}

type Provider interface {
	Name() string
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	// ParseWebhook verifies the signature before decoding anything.
	ParseWebhook(payload []byte, header http.Header) (*Event, error)
}
