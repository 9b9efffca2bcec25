package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/agrostore-bff/api/responses"
	"github.com/angelmondragon/agrostore-bff/api/validators"
	"github.com/angelmondragon/agrostore-bff/internal/cart"
	"github.com/angelmondragon/agrostore-bff/pkg/backend"
	"github.com/angelmondragon/agrostore-bff/pkg/logger"
)

// CartStore is the cart surface the handlers drive.
type CartStore interface {
	Get(ctx context.Context, sessionID string) (*cart.Cart, error)
	AddItem(ctx context.Context, sessionID string, item cart.Item, quantity int) (*cart.Cart, error)
	RemoveItem(ctx context.Context, sessionID string, productID int64) (*cart.Cart, error)
	UpdateQuantity(ctx context.Context, sessionID string, productID int64, quantity int) (*cart.Cart, error)
	Clear(ctx context.Context, sessionID string) (*cart.Cart, error)
}

// ProductLookup resolves the live price and stock of a product.
type ProductLookup interface {
	GetProduct(ctx context.Context, id int64) (*backend.Product, error)
}

type addCartItemRequest struct {
	ProductID int64  `json:"product_id" validate:"required,gt=0"`
	VariantID *int64 `json:"variant_id,omitempty" validate:"omitempty,gt=0"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

func CartFetch(store CartStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := cartSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		c, err := store.Get(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, c.View())
	}
}

// CartAddItem prices the line from the catalog before adding it, so the
// client never dictates price or stock.
func CartAddItem(store CartStore, products ProductLookup, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := cartSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := products.GetProduct(r.Context(), payload.ProductID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := cart.ItemFromProduct(product, payload.VariantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		c, err := store.AddItem(r.Context(), sessionID, item, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, c.View())
	}
}

// CartUpdateItem sets a line quantity. Zero or less removes the line.
func CartUpdateItem(store CartStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := cartSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := pathInt64(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		c, err := store.UpdateQuantity(r.Context(), sessionID, productID, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, c.View())
	}
}

func CartRemoveItem(store CartStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := cartSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := pathInt64(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		c, err := store.RemoveItem(r.Context(), sessionID, productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, c.View())
	}
}

func CartClear(store CartStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := cartSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		c, err := store.Clear(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, c.View())
	}
}
