package backend

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	pkgerrors "github.com/angelmondragon/agrostore-bff/pkg/errors"
)

// ListAddresses fetches the saved addresses of a client.
func (c *Client) ListAddresses(ctx context.Context, clientID int64) ([]AddressRecord, error) {
	if clientID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "client id is required")
	}
	var out []AddressRecord
	if err := c.do(ctx, "list_addresses", http.MethodGet, fmt.Sprintf("clients/%d/addresses", clientID), nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateAddress stores a new address for the client and returns it with its id.
func (c *Client) CreateAddress(ctx context.Context, clientID int64, rec AddressRecord) (*AddressRecord, error) {
	if clientID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "client id is required")
	}
	var out AddressRecord
	if err := c.do(ctx, "create_address", http.MethodPost, fmt.Sprintf("clients/%d/addresses", clientID), nil, rec, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// QuoteShipping asks the backend for carrier options to a postal code.
func (c *Client) QuoteShipping(ctx context.Context, req QuoteRequest) (*QuoteResponse, error) {
	if strings.TrimSpace(req.PostalCode) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "postal code is required")
	}
	var out QuoteResponse
	if err := c.do(ctx, "quote_shipping", http.MethodPost, "shipping/quote", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateOrder submits the order and returns the backend identifiers.
func (c *Client) CreateOrder(ctx context.Context, req OrderRequest) (*OrderResponse, error) {
	if len(req.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order has no items")
	}
	var out OrderResponse
	if err := c.do(ctx, "create_order", http.MethodPost, "orders", nil, req, &out); err != nil {
		return nil, err
	}
	if out.ID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "backend returned order without id")
	}
	return &out, nil
}
