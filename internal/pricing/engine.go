package pricing

import (
	"math"
	"spadesk/pkg/model"
)

// Input is everything a price depends on. Callers resolve it from the catalog
// and the customer record.
type Input struct {
	BasePrice    int64
	SelfOilPrice *int64
	Membership   string
	UseSelfOil   bool
	ExtraOilFee  int64
	AddonPrice   int64
}

type Quote struct {
	OriginalPrice  int64   `json:"original_price"`
	FinalPrice     int64   `json:"final_price"`
	AddonPrice     int64   `json:"addon_price"`
	TotalPrice     int64   `json:"total_price"`
	MembershipType string  `json:"membership_type"`
	Discount       float64 `json:"discount"`
}

type Engine struct {
	vipDiscountRatio float64
}

func NewEngine(vipDiscountRatio float64) *Engine {
	return &Engine{vipDiscountRatio: vipDiscountRatio}
}

// Quote prices a single treatment. It has no side effects and the same input
// always yields the same quote.
//
// VIP pricing takes precedence over self-supplied oil; the extra oil fee only
// applies to VIPs. A missing self-oil price falls back to the base price.
func (e *Engine) Quote(in Input) Quote {
	q := Quote{
		OriginalPrice:  in.BasePrice,
		AddonPrice:     in.AddonPrice,
		MembershipType: model.MembershipRegular,
	}

	switch {
	case in.Membership == model.MembershipVIP:
		q.MembershipType = model.MembershipVIP
		q.FinalPrice = roundHalfUp(float64(in.BasePrice)*e.vipDiscountRatio) + in.ExtraOilFee
	case in.UseSelfOil && in.SelfOilPrice != nil:
		q.FinalPrice = *in.SelfOilPrice
	default:
		q.FinalPrice = in.BasePrice
	}

	q.TotalPrice = q.FinalPrice + q.AddonPrice
	q.Discount = Discount(q.OriginalPrice, q.FinalPrice)
	return q
}

// Discount is the ratio of the charged price to the list price, 1 when the
// list price is zero.
func Discount(original, final int64) float64 {
	if original <= 0 {
		return 1.0
	}
	return float64(final) / float64(original)
}

func roundHalfUp(v float64) int64 {
	return int64(math.Floor(v + 0.5))
}
