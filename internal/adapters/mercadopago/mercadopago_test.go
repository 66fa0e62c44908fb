package mercadopago

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/BosskingGM/office-gama/internal/core/domain"
	"github.com/mercadopago/sdk-go/pkg/preference"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestValidateSignature(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	v := NewWebhookValidator(5 * time.Minute)
	v.now = func() time.Time { return now }
	body := []byte(`{"event_type":"checkout.session.completed"}`)

	good := SignPayload(body, "secret", now)

	assert.True(t, v.ValidateSignature(good, body, "secret"))
	assert.False(t, v.ValidateSignature(good, body, "other-secret"))
	assert.False(t, v.ValidateSignature(good, append(body, ' '), "secret"))
	assert.False(t, v.ValidateSignature("", body, "secret"))
	assert.False(t, v.ValidateSignature(good, body, ""))
	assert.False(t, v.ValidateSignature("v1=abc", body, "secret"))
	assert.False(t, v.ValidateSignature("ts=nope,v1=abc", body, "secret"))

	stale := SignPayload(body, "secret", now.Add(-10*time.Minute))
	assert.False(t, v.ValidateSignature(stale, body, "secret"))
	assert.True(t, NewWebhookValidator(0).ValidateSignature(stale, body, "secret"))
}

func TestParseSignatureHeader(t *testing.T) {
	ts, hash := parseSignatureHeader("ts=1704908010,v1=618c85345248dd820d5fd456117c2ab2ef8eda45a0282ff693eac24131a5e839")
	assert.Equal(t, "1704908010", ts)
	assert.Equal(t, "618c85345248dd820d5fd456117c2ab2ef8eda45a0282ff693eac24131a5e839", hash)
}

type mockPreferences struct {
	mock.Mock
}

func (m *mockPreferences) Create(ctx context.Context, request preference.Request) (*preference.Response, error) {
	args := m.Called(ctx, request)
	if r, ok := args.Get(0).(*preference.Response); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func testAdapter(client preferenceCreator, sandbox bool) *Adapter {
	return &Adapter{client: client, opts: Options{
		Currency:        "MXN",
		SuccessURL:      "https://shop.example/checkout/success",
		CancelURL:       "https://shop.example/carrito",
		NotificationURL: "https://api.shop.example/api/v1/webhooks/payments",
		Sandbox:         sandbox,
	}}
}

func TestCreateCheckoutSession_MapsRequest(t *testing.T) {
	client := new(mockPreferences)
	adapter := testAdapter(client, false)

	var sent preference.Request
	client.On("Create", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { sent = args.Get(1).(preference.Request) }).
		Return(&preference.Response{ID: "pref-1", InitPoint: "https://mp/init", SandboxInitPoint: "https://mp/sandbox"}, nil)

	session, err := adapter.CreateCheckoutSession(context.Background(), domain.SessionRequest{
		LineItems: []domain.PriceLine{
			{Name: "Escritorio", UnitAmount: 10050, Quantity: 2},
			{Name: "Envío local", UnitAmount: 5000, Quantity: 1},
		},
		Metadata:   map[string]string{domain.MetaBuyerID: "buyer-1"},
		BuyerID:    "buyer-1",
		BuyerEmail: "ana@example.com",
	})

	require.NoError(t, err)
	assert.Equal(t, &domain.CheckoutSession{ID: "pref-1", RedirectURL: "https://mp/init"}, session)

	require.Len(t, sent.Items, 2)
	assert.Equal(t, "Escritorio", sent.Items[0].Title)
	assert.Equal(t, 2, sent.Items[0].Quantity)
	assert.Equal(t, 100.5, sent.Items[0].UnitPrice)
	assert.Equal(t, "MXN", sent.Items[0].CurrencyID)
	assert.Equal(t, "buyer-1", sent.Metadata[domain.MetaBuyerID])
	assert.Equal(t, "buyer-1", sent.ExternalReference)
	assert.Equal(t, "https://shop.example/carrito", sent.BackURLs.Failure)
	require.NotNil(t, sent.Payer)
	assert.Equal(t, "ana@example.com", sent.Payer.Email)
}

func TestCreateCheckoutSession_Sandbox(t *testing.T) {
	client := new(mockPreferences)
	client.On("Create", mock.Anything, mock.Anything).
		Return(&preference.Response{ID: "pref-2", InitPoint: "https://mp/init", SandboxInitPoint: "https://mp/sandbox"}, nil)

	session, err := testAdapter(client, true).CreateCheckoutSession(context.Background(), domain.SessionRequest{})

	require.NoError(t, err)
	assert.Equal(t, "https://mp/sandbox", session.RedirectURL)
}

func TestCreateCheckoutSession_UpstreamError(t *testing.T) {
	client := new(mockPreferences)
	client.On("Create", mock.Anything, mock.Anything).Return(nil, errors.New("invalid access token"))

	session, err := testAdapter(client, false).CreateCheckoutSession(context.Background(), domain.SessionRequest{})

	assert.Nil(t, session)
	assert.True(t, errors.Is(err, domain.ErrUpstream))
}
