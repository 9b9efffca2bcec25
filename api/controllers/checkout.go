package controllers

import (
	"net/http"

	"github.com/angelmondragon/agrostore-bff/api/middleware"
	"github.com/angelmondragon/agrostore-bff/api/responses"
	"github.com/angelmondragon/agrostore-bff/api/validators"
	"github.com/angelmondragon/agrostore-bff/internal/address"
	"github.com/angelmondragon/agrostore-bff/internal/checkout"
	"github.com/angelmondragon/agrostore-bff/pkg/enums"
	pkgerrors "github.com/angelmondragon/agrostore-bff/pkg/errors"
	"github.com/angelmondragon/agrostore-bff/pkg/logger"
	"github.com/angelmondragon/agrostore-bff/pkg/types"
)

type selectMethodRequest struct {
	Method string `json:"method" validate:"required"`
}

type quoteRequest struct {
	PostalCode string `json:"postal_code" validate:"required"`
}

type shippingOptionRequest struct {
	OptionID string `json:"option_id" validate:"required"`
}

type pickupPointRequest struct {
	PickupPointID string `json:"pickup_point_id" validate:"required"`
}

type addressRequest struct {
	Address types.Address `json:"address"`
	Save    bool          `json:"save"`
}

type savedAddressRequest struct {
	AddressID int64 `json:"address_id" validate:"required,gt=0"`
}

type paymentRequest struct {
	Method          string `json:"method" validate:"required"`
	TransferAccount string `json:"transfer_account,omitempty"`
	Comment         string `json:"comment,omitempty" validate:"max=500"`
}

type submitRequest struct {
	Guest *types.Contact `json:"guest,omitempty"`
}

// stepHandler adapts a session-scoped step call into a handler that
// answers with the refreshed wizard state.
func stepHandler(logg *logger.Logger, step func(r *http.Request, sessionID string) (*checkout.StateView, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := cartSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := step(r, sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

func CheckoutState(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return stepHandler(logg, func(r *http.Request, sessionID string) (*checkout.StateView, error) {
		return svc.State(r.Context(), sessionID)
	})
}

func CheckoutSelectMethod(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return stepHandler(logg, func(r *http.Request, sessionID string) (*checkout.StateView, error) {
		var payload selectMethodRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return nil, err
		}
		method, err := enums.ParseShippingMethod(payload.Method)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid shipping method")
		}
		return svc.SelectMethod(r.Context(), sessionID, method)
	})
}

func CheckoutQuote(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return stepHandler(logg, func(r *http.Request, sessionID string) (*checkout.StateView, error) {
		var payload quoteRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return nil, err
		}
		return svc.QuoteShipping(r.Context(), sessionID, validators.SanitizeString(payload.PostalCode, 16))
	})
}

func CheckoutShippingOption(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return stepHandler(logg, func(r *http.Request, sessionID string) (*checkout.StateView, error) {
		var payload shippingOptionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return nil, err
		}
		return svc.SelectShippingOption(r.Context(), sessionID, payload.OptionID)
	})
}

func CheckoutPickupPoint(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return stepHandler(logg, func(r *http.Request, sessionID string) (*checkout.StateView, error) {
		var payload pickupPointRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return nil, err
		}
		return svc.SelectPickupPoint(r.Context(), sessionID, payload.PickupPointID)
	})
}

// CheckoutSavedAddresses lists the signed-in shopper's address book.
func CheckoutSavedAddresses(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		saved, err := svc.SavedAddresses(r.Context(), middleware.ShopperFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if saved == nil {
			saved = []address.Saved{}
		}
		responses.WriteSuccess(w, saved)
	}
}

func CheckoutAddress(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return stepHandler(logg, func(r *http.Request, sessionID string) (*checkout.StateView, error) {
		var payload addressRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return nil, err
		}
		shopper := middleware.ShopperFromContext(r.Context())
		return svc.SubmitAddress(r.Context(), sessionID, shopper, payload.Address, payload.Save)
	})
}

func CheckoutSavedAddress(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return stepHandler(logg, func(r *http.Request, sessionID string) (*checkout.StateView, error) {
		var payload savedAddressRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return nil, err
		}
		shopper := middleware.ShopperFromContext(r.Context())
		return svc.SelectSavedAddress(r.Context(), sessionID, shopper, payload.AddressID)
	})
}

func CheckoutPayment(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return stepHandler(logg, func(r *http.Request, sessionID string) (*checkout.StateView, error) {
		var payload paymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return nil, err
		}
		method, err := enums.ParsePaymentMethod(payload.Method)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method")
		}
		return svc.SelectPayment(r.Context(), sessionID, method, payload.TransferAccount, payload.Comment)
	})
}

func CheckoutBack(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return stepHandler(logg, func(r *http.Request, sessionID string) (*checkout.StateView, error) {
		return svc.Back(r.Context(), sessionID)
	})
}

func CheckoutReset(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := cartSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Reset(r.Context(), sessionID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

// CheckoutSubmit places the order. Guests send their contact in the body;
// signed-in shoppers are identified by their token.
func CheckoutSubmit(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := cartSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload submitRequest
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &payload); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		receipt, err := svc.Submit(r.Context(), checkout.SubmitRequest{
			SessionID: sessionID,
			Shopper:   middleware.ShopperFromContext(r.Context()),
			Guest:     payload.Guest,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, receipt)
	}
}
