package backend

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	pkgerrors "github.com/angelmondragon/agrostore-bff/pkg/errors"
)

// ListProducts returns one page of the catalog, optionally filtered.
func (c *Client) ListProducts(ctx context.Context, filter ProductFilter) (*ProductPage, error) {
	q := url.Values{}
	if v := strings.TrimSpace(filter.Category); v != "" {
		q.Set("category", v)
	}
	if v := strings.TrimSpace(filter.Search); v != "" {
		q.Set("q", v)
	}
	if filter.Page > 0 {
		q.Set("page", strconv.Itoa(filter.Page))
	}

	var page ProductPage
	if err := c.do(ctx, "list_products", http.MethodGet, "products", q, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetProduct returns a single product with current price and stock.
func (c *Client) GetProduct(ctx context.Context, id int64) (*Product, error) {
	if id <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id must be positive")
	}
	var p Product
	if err := c.do(ctx, "get_product", http.MethodGet, "products/"+strconv.FormatInt(id, 10), nil, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	var out []Category
	if err := c.do(ctx, "list_categories", http.MethodGet, "categories", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListPosts(ctx context.Context, page int) (*PostPage, error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	var out PostPage
	if err := c.do(ctx, "list_posts", http.MethodGet, "posts", q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetPost(ctx context.Context, slug string) (*Post, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "post slug is required")
	}
	var out Post
	if err := c.do(ctx, "get_post", http.MethodGet, "posts/"+url.PathEscape(slug), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
