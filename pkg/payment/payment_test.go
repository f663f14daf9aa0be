package payment

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76/webhook"
)

func TestStubCreateCheckout(t *testing.T) {
	p := NewStubProvider("s3cret")
	s, err := p.CreateCheckout(context.Background(), CheckoutRequest{SuccessURL: "http://localhost:3000/points/success"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(s.Reference, "stub_"))
	assert.Equal(t, "http://localhost:3000/points/success?session_id="+s.Reference, s.CheckoutURL)
}

func TestStubParseWebhook(t *testing.T) {
	p := NewStubProvider("s3cret")
	body := []byte(`{"id":"evt_1","type":"checkout.completed","reference":"stub_abc","metadata":{"user_id":"u1"}}`)

	h := http.Header{}
	h.Set(SignatureHeader, Sign("s3cret", body))
	evt, err := p.ParseWebhook(body, h)
	require.NoError(t, err)
	assert.Equal(t, "evt_1", evt.ID)
	assert.Equal(t, EventCheckoutCompleted, evt.Kind)
	assert.Equal(t, "stub_abc", evt.Reference)
	assert.Equal(t, "u1", evt.Metadata[MetaUserID])

	h.Set(SignatureHeader, Sign("other", body))
	_, err = p.ParseWebhook(body, h)
	assert.ErrorIs(t, err, ErrInvalidSignature)

	_, err = p.ParseWebhook(body, http.Header{})
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestStubParseWebhookPayloads(t *testing.T) {
	p := NewStubProvider("")

	evt, err := p.ParseWebhook([]byte(`{"type":"refund","reference":"stub_x"}`), http.Header{})
	require.NoError(t, err)
	assert.Equal(t, EventIgnored, evt.Kind)
	assert.Equal(t, "refund:stub_x", evt.ID)

	_, err = p.ParseWebhook([]byte(`{"type":"checkout.completed"}`), http.Header{})
	assert.ErrorIs(t, err, ErrInvalidPayload)

	_, err = p.ParseWebhook([]byte(`not json`), http.Header{})
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestStripeParseWebhook(t *testing.T) {
	p := NewStripeProvider("sk_test_x", "whsec_test")
	body := []byte(`{"id":"evt_1","object":"event","api_version":"2023-10-16","type":"checkout.session.completed","data":{"object":{"id":"cs_1","object":"checkout.session","payment_status":"paid","metadata":{"user_id":"u1","points":"1000"}}}}`)

	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   body,
		Secret:    "whsec_test",
		Timestamp: time.Now(),
	})
	h := http.Header{}
	h.Set("Stripe-Signature", signed.Header)

	evt, err := p.ParseWebhook(body, h)
	require.NoError(t, err)
	assert.Equal(t, EventCheckoutCompleted, evt.Kind)
	assert.Equal(t, "cs_1", evt.Reference)
	assert.Equal(t, "1000", evt.Metadata[MetaPoints])

	h.Set("Stripe-Signature", "t=1,v1=deadbeef")
	_, err = p.ParseWebhook(body, h)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}
