package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/agrostore-bff/api/middleware"
	"github.com/angelmondragon/agrostore-bff/internal/address"
	"github.com/angelmondragon/agrostore-bff/internal/checkout"
	"github.com/angelmondragon/agrostore-bff/internal/orders"
	"github.com/angelmondragon/agrostore-bff/pkg/auth"
	"github.com/angelmondragon/agrostore-bff/pkg/enums"
	pkgerrors "github.com/angelmondragon/agrostore-bff/pkg/errors"
	"github.com/angelmondragon/agrostore-bff/pkg/types"
)

// stubCheckout overrides the calls a test drives; anything else panics on
// the nil embedded interface.
type stubCheckout struct {
	checkout.Service

	method  enums.ShippingMethod
	payment enums.PaymentMethod
	account string
	saved   bool
	submit  checkout.SubmitRequest
	err     error
}

func (s *stubCheckout) State(_ context.Context, _ string) (*checkout.StateView, error) {
	return &checkout.StateView{Step: enums.CheckoutStepMethod}, s.err
}

func (s *stubCheckout) SelectMethod(_ context.Context, _ string, method enums.ShippingMethod) (*checkout.StateView, error) {
	s.method = method
	if s.err != nil {
		return nil, s.err
	}
	return &checkout.StateView{Step: enums.CheckoutStepPayment}, nil
}

func (s *stubCheckout) SelectPayment(_ context.Context, _ string, method enums.PaymentMethod, account, _ string) (*checkout.StateView, error) {
	s.payment = method
	s.account = account
	return &checkout.StateView{Step: enums.CheckoutStepSubmit}, s.err
}

func (s *stubCheckout) SubmitAddress(_ context.Context, _ string, _ *auth.Shopper, _ types.Address, save bool) (*checkout.StateView, error) {
	s.saved = save
	return &checkout.StateView{Step: enums.CheckoutStepPayment}, s.err
}

func (s *stubCheckout) SavedAddresses(_ context.Context, shopper *auth.Shopper) ([]address.Saved, error) {
	if shopper.IsGuest() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to use saved addresses")
	}
	return nil, nil
}

func (s *stubCheckout) Reset(context.Context, string) error {
	return s.err
}

func (s *stubCheckout) Submit(_ context.Context, req checkout.SubmitRequest) (*orders.Receipt, error) {
	s.submit = req
	if s.err != nil {
		return nil, s.err
	}
	return &orders.Receipt{ID: 901, OrderNumber: "A-901", Total: decimal.NewFromInt(204300)}, nil
}

func checkoutRouter(svc checkout.Service) http.Handler {
	r := chi.NewRouter()
	r.Route("/api/v1/checkout", func(r chi.Router) {
		r.Get("/", CheckoutState(svc, nil))
		r.Delete("/", CheckoutReset(svc, nil))
		r.Post("/method", CheckoutSelectMethod(svc, nil))
		r.Get("/addresses", CheckoutSavedAddresses(svc, nil))
		r.Post("/address", CheckoutAddress(svc, nil))
		r.Post("/payment", CheckoutPayment(svc, nil))
		r.Post("/submit", CheckoutSubmit(svc, nil))
	})
	return r
}

func TestCheckoutSelectMethodParsesEnum(t *testing.T) {
	svc := &stubCheckout{}
	router := checkoutRouter(svc)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, sessionRequest(http.MethodPost, "/api/v1/checkout/method", `{"method":"pickup"}`))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, enums.ShippingMethodPickup, svc.method)

	var envelope struct {
		Data checkout.StateView `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.Equal(t, enums.CheckoutStepPayment, envelope.Data.Step)

	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, sessionRequest(http.MethodPost, "/api/v1/checkout/method", `{"method":"drone"}`))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestCheckoutStateConflictIs422(t *testing.T) {
	svc := &stubCheckout{err: pkgerrors.New(pkgerrors.CodeStateConflict, "choose a shipping method first")}
	router := checkoutRouter(svc)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, sessionRequest(http.MethodPost, "/api/v1/checkout/method", `{"method":"home_delivery"}`))
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
}

func TestCheckoutPaymentPassesAccount(t *testing.T) {
	svc := &stubCheckout{}
	router := checkoutRouter(svc)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, sessionRequest(http.MethodPost, "/api/v1/checkout/payment", `{"method":"transfer","transfer_account":"galicia"}`))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, enums.PaymentMethodTransfer, svc.payment)
	assert.Equal(t, "galicia", svc.account)
}

func TestCheckoutAddressValidatesBody(t *testing.T) {
	svc := &stubCheckout{}
	router := checkoutRouter(svc)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, sessionRequest(http.MethodPost, "/api/v1/checkout/address", `{"address":{"first_name":"Ana"}}`))
	require.Equal(t, http.StatusBadRequest, resp.Code)

	var envelope struct {
		Error struct {
			Code    string            `json:"code"`
			Details map[string]string `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.Equal(t, string(pkgerrors.CodeValidation), envelope.Error.Code)
	assert.Contains(t, envelope.Error.Details, "address.city")

	body := `{"address":{"first_name":"Ana","last_name":"Pérez","street":"Av. San Martín","number":"1200","city":"Pergamino","province":"Buenos Aires","postal_code":"2700","phone":"2477000000"},"save":true}`
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, sessionRequest(http.MethodPost, "/api/v1/checkout/address", body))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.True(t, svc.saved)
}

func TestCheckoutSavedAddressesRequiresShopper(t *testing.T) {
	router := checkoutRouter(&stubCheckout{})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, sessionRequest(http.MethodGet, "/api/v1/checkout/addresses", ""))
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	req := sessionRequest(http.MethodGet, "/api/v1/checkout/addresses", "")
	req = req.WithContext(middleware.WithShopper(req.Context(), &auth.Shopper{ClientID: 12}))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"data":[]}`, resp.Body.String())
}

func TestCheckoutSubmitCreatesReceipt(t *testing.T) {
	svc := &stubCheckout{}
	router := checkoutRouter(svc)

	body := `{"guest":{"first_name":"Ana","last_name":"Pérez","email":"ana@example.com","phone":"2477000000"}}`
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, sessionRequest(http.MethodPost, "/api/v1/checkout/submit", body))
	require.Equal(t, http.StatusCreated, resp.Code)
	assert.Equal(t, testSession, svc.submit.SessionID)
	require.NotNil(t, svc.submit.Guest)
	assert.Equal(t, "ana@example.com", svc.submit.Guest.Email)
	assert.Nil(t, svc.submit.Shopper)

	var envelope struct {
		Data orders.Receipt `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.Equal(t, "A-901", envelope.Data.OrderNumber)
}

func TestCheckoutSubmitSignedInWithoutBody(t *testing.T) {
	svc := &stubCheckout{}
	router := checkoutRouter(svc)

	req := sessionRequest(http.MethodPost, "/api/v1/checkout/submit", "")
	req = req.WithContext(middleware.WithShopper(req.Context(), &auth.Shopper{ClientID: 12}))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	require.Equal(t, http.StatusCreated, resp.Code)
	require.NotNil(t, svc.submit.Shopper)
	assert.Equal(t, int64(12), svc.submit.Shopper.ClientID)
}

func TestCheckoutSubmitInFlightIsConflict(t *testing.T) {
	svc := &stubCheckout{err: pkgerrors.New(pkgerrors.CodeConflict, "order submission in progress")}
	router := checkoutRouter(svc)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, sessionRequest(http.MethodPost, "/api/v1/checkout/submit", "{}"))
	assert.Equal(t, http.StatusConflict, resp.Code)
}

func TestCheckoutResetIsNoContent(t *testing.T) {
	router := checkoutRouter(&stubCheckout{})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, sessionRequest(http.MethodDelete, "/api/v1/checkout", ""))
	assert.Equal(t, http.StatusNoContent, resp.Code)
}
