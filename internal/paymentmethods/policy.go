package paymentmethods

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/angelmondragon/agrostore-bff/pkg/config"
	"github.com/angelmondragon/agrostore-bff/pkg/enums"
)

var hundred = decimal.NewFromInt(100)

// Discount is the backend discount row applied for a payment method.
type Discount struct {
	ID      int             `json:"id"`
	Percent decimal.Decimal `json:"percent"`
}

// BankAccount is a destination for bank transfers.
type BankAccount struct {
	ID     string `json:"id"`
	Bank   string `json:"bank"`
	Holder string `json:"holder"`
	CBU    string `json:"cbu"`
	Alias  string `json:"alias,omitempty"`
}

// Option is what the payment step offers the shopper.
type Option struct {
	Method          enums.PaymentMethod `json:"method"`
	DiscountPercent decimal.Decimal     `json:"discount_percent"`
	RequiresAccount bool                `json:"requires_account"`
}

// Policy is the configured discount table plus transfer accounts.
type Policy struct {
	discounts map[enums.PaymentMethod]Discount
	accounts  []BankAccount
}

// NewPolicy builds a policy from already parsed values.
func NewPolicy(discounts map[enums.PaymentMethod]Discount, accounts []BankAccount) *Policy {
	d := make(map[enums.PaymentMethod]Discount, len(discounts))
	for k, v := range discounts {
		d[k] = v
	}
	return &Policy{discounts: d, accounts: append([]BankAccount(nil), accounts...)}
}

// FromConfig parses the Payments config section.
func FromConfig(cfg config.PaymentsConfig) (*Policy, error) {
	return ParsePolicy(cfg.Discounts, cfg.TransferAccounts)
}

// ParsePolicy reads "method:id:percent" entries separated by commas and
// "id|bank|holder|cbu|alias" accounts separated by semicolons.
func ParsePolicy(discounts, accounts string) (*Policy, error) {
	var errs error
	table := map[enums.PaymentMethod]Discount{}

	for _, entry := range splitNonEmpty(discounts, ",") {
		parts := strings.Split(entry, ":")
		if len(parts) != 3 {
			errs = multierr.Append(errs, fmt.Errorf("discount %q: expected method:id:percent", entry))
			continue
		}
		method, err := enums.ParsePaymentMethod(strings.TrimSpace(parts[0]))
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("discount %q: %w", entry, err))
			continue
		}
		id, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil || id <= 0 {
			errs = multierr.Append(errs, fmt.Errorf("discount %q: id must be a positive integer", entry))
			continue
		}
		pct, err := decimal.NewFromString(strings.TrimSpace(parts[2]))
		if err != nil || pct.IsNegative() || pct.GreaterThan(hundred) {
			errs = multierr.Append(errs, fmt.Errorf("discount %q: percent must be within 0..100", entry))
			continue
		}
		if _, dup := table[method]; dup {
			errs = multierr.Append(errs, fmt.Errorf("discount %q: method listed twice", entry))
			continue
		}
		table[method] = Discount{ID: id, Percent: pct}
	}

	var accts []BankAccount
	seen := map[string]bool{}
	for _, entry := range splitNonEmpty(accounts, ";") {
		parts := strings.Split(entry, "|")
		if len(parts) < 4 || len(parts) > 5 {
			errs = multierr.Append(errs, fmt.Errorf("transfer account %q: expected id|bank|holder|cbu[|alias]", entry))
			continue
		}
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		acct := BankAccount{ID: parts[0], Bank: parts[1], Holder: parts[2], CBU: parts[3]}
		if len(parts) == 5 {
			acct.Alias = parts[4]
		}
		if acct.ID == "" || acct.CBU == "" {
			errs = multierr.Append(errs, fmt.Errorf("transfer account %q: id and cbu are required", entry))
			continue
		}
		if seen[acct.ID] {
			errs = multierr.Append(errs, fmt.Errorf("transfer account %q: duplicate id", entry))
			continue
		}
		seen[acct.ID] = true
		accts = append(accts, acct)
	}

	if errs != nil {
		return nil, errs
	}
	return &Policy{discounts: table, accounts: accts}, nil
}

func splitNonEmpty(raw, sep string) []string {
	var out []string
	for _, part := range strings.Split(raw, sep) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// DiscountFor returns the discount row for method; unknown methods get none.
func (p *Policy) DiscountFor(method enums.PaymentMethod) (Discount, bool) {
	if p == nil {
		return Discount{}, false
	}
	d, ok := p.discounts[method]
	return d, ok
}

// ApplyDiscount returns amount reduced by the method's percentage, rounded to cents.
func (p *Policy) ApplyDiscount(method enums.PaymentMethod, amount decimal.Decimal) decimal.Decimal {
	d, ok := p.DiscountFor(method)
	if !ok || d.Percent.IsZero() {
		return amount
	}
	off := amount.Mul(d.Percent).Div(hundred)
	return amount.Sub(off).Round(2)
}

// Account looks up a transfer destination by id.
func (p *Policy) Account(id string) (BankAccount, bool) {
	if p == nil {
		return BankAccount{}, false
	}
	id = strings.TrimSpace(id)
	for _, a := range p.accounts {
		if a.ID == id {
			return a, true
		}
	}
	return BankAccount{}, false
}

// Accounts lists the configured transfer destinations.
func (p *Policy) Accounts() []BankAccount {
	if p == nil {
		return nil
	}
	return append([]BankAccount(nil), p.accounts...)
}

// Options lists the selectable payment methods with their discount, larger
// discounts first. Methods that need a destination account are left out
// while no account is configured.
func (p *Policy) Options() []Option {
	out := make([]Option, 0, 3)
	for _, m := range enums.PaymentMethods() {
		if m.RequiresAccount() && len(p.Accounts()) == 0 {
			continue
		}
		d, _ := p.DiscountFor(m)
		out = append(out, Option{
			Method:          m,
			DiscountPercent: d.Percent,
			RequiresAccount: m.RequiresAccount(),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DiscountPercent.GreaterThan(out[j].DiscountPercent)
	})
	return out
}
