package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/angelmondragon/agrostore-bff/pkg/errors"
)

// Paging bounds for catalog and blog listings.
const (
	FirstPage = 1
	MaxPage   = 1000
)

// ParseQueryInt reads key as an integer within [min, max]. An absent or blank
// parameter yields defaultVal.
func ParseQueryInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal, nil
	}

	details := map[string]any{"field": key}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, key+" must be numeric").WithDetails(details)
	}
	if value < min || value > max {
		details["min"], details["max"] = min, max
		return 0, pkgerrors.New(pkgerrors.CodeValidation, key+" out of range").WithDetails(details)
	}
	return value, nil
}

// ParsePage reads the ?page parameter of a listing.
func ParsePage(r *http.Request) (int, error) {
	return ParseQueryInt(r, "page", FirstPage, FirstPage, MaxPage)
}

// QueryText returns a trimmed free-text parameter cut to maxLen runes.
func QueryText(r *http.Request, key string, maxLen int) string {
	return SanitizeString(r.URL.Query().Get(key), maxLen)
}
