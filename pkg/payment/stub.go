package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
)

const SignatureHeader = "X-Webhook-Signature"

// StubProvider is a local provider for development. Sessions complete when a
// webhook signed with the shared secret is posted for them.
type StubProvider struct {
	secret string
}

func NewStubProvider(webhookSecret string) *StubProvider {
	return &StubProvider{secret: webhookSecret}
}

func (s *StubProvider) Name() string { return "stub" }

func (s *StubProvider) CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	ref := "stub_" + uuid.NewString()
	checkoutURL := req.SuccessURL
	if u, err := url.Parse(req.SuccessURL); err == nil && req.SuccessURL != "" {
		q := u.Query()
		q.Set("session_id", ref)
		u.RawQuery = q.Encode()
		checkoutURL = u.String()
	}
	return &CheckoutSession{
		Reference:   ref,
		CheckoutURL: checkoutURL,
		ExpiresAt:   time.Now().Add(30 * time.Minute),
	}, nil
}

type stubEvent struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	Reference string            `json:"reference"`
	Metadata  map[string]string `json:"metadata"`
}

// ParseWebhook expects {"id","type","reference","metadata"} signed with
// hex HMAC-SHA256 in X-Webhook-Signature. Signatures are skipped only when
// no secret is configured.
func (s *StubProvider) ParseWebhook(payload []byte, header http.Header) (*Event, error) {
	if s.secret != "" && !verifySignature(s.secret, payload, header.Get(SignatureHeader)) {
		return nil, ErrInvalidSignature
	}
	var in stubEvent
	if err := json.Unmarshal(payload, &in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if in.Reference == "" || in.Type == "" {
		return nil, fmt.Errorf("%w: type and reference required", ErrInvalidPayload)
	}
	if in.ID == "" {
		in.ID = in.Type + ":" + in.Reference
	}
	evt := &Event{ID: in.ID, Type: in.Type, Reference: in.Reference, Metadata: in.Metadata}
	switch in.Type {
	case EventCheckoutCompleted, "COMPLETED", "completed":
		evt.Kind = EventCheckoutCompleted
	case EventCheckoutExpired:
		evt.Kind = EventCheckoutExpired
	default:
		evt.Kind = EventIgnored
	}
	return evt, nil
}

// Sign returns the signature the stub expects for body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func verifySignature(secret string, body []byte, signature string) bool {
	return hmac.Equal([]byte(signature), []byte(Sign(secret, body)))
}
