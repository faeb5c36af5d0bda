package pricing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// FeeBase selects which rent figure the guest channel fee is computed from.
type FeeBase string

const (
	FeeBasePreDiscount  FeeBase = "pre_discount"
	FeeBasePostDiscount FeeBase = "post_discount"
)

// DefaultServiceFeeRate is the guest channel fee share of rent.
var DefaultServiceFeeRate = decimal.RequireFromString("0.0191")

func ParseFeeBase(raw string) (FeeBase, error) {
	switch FeeBase(strings.ToLower(strings.TrimSpace(raw))) {
	case "", FeeBasePreDiscount:
		return FeeBasePreDiscount, nil
	case FeeBasePostDiscount:
		return FeeBasePostDiscount, nil
	default:
		return "", fmt.Errorf("pricing: unknown service fee base %q", raw)
	}
}

// TaxPolicy computes occupancy taxes for a stay. Taxes are a recognized line
// category even though the current policy contributes nothing.
type TaxPolicy interface {
	Occupancy(taxable int64, nights, guests int) int64
}

// NoTax is the active tax policy: occupancy taxes are excluded from quotes.
type NoTax struct{}

func (NoTax) Occupancy(int64, int, int) int64 { return 0 }

type Policy struct {
	ServiceFeeRate decimal.Decimal
	ServiceFeeBase FeeBase
	Tax            TaxPolicy
}

func DefaultPolicy() Policy {
	return Policy{
		ServiceFeeRate: DefaultServiceFeeRate,
		ServiceFeeBase: FeeBasePreDiscount,
		Tax:            NoTax{},
	}
}

func (p Policy) normalized() Policy {
	if p.ServiceFeeRate.IsNegative() {
		p.ServiceFeeRate = decimal.Zero
	}
	if p.ServiceFeeBase == "" {
		p.ServiceFeeBase = FeeBasePreDiscount
	}
	if p.Tax == nil {
		p.Tax = NoTax{}
	}
	return p
}
