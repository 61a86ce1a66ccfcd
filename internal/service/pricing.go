package service

import "github.com/shopspring/decimal"

// ExpandedLine is one cart line's quantity fully unrolled: exactly one row
// per physical or synthetic unit sold. This is the atomic unit of
// persistence; each non-fee expanded line maps 1:1 to one inventory
// mutation at commit time.
type ExpandedLine struct {
	Kind                 LineKind
	Code                 string
	ProductName          string
	Colour               string
	Storage              string
	WarrantyMonths       int32
	SellPrice            int64
	CostPrice            int64
	Discount             int64
	IsBonus              bool
	SubscriptionUsername string
}

// ExpandLines unrolls the three baskets into commit order: paid lines first,
// then bonus lines, then fee lines. Accessory quantities become one row per
// unit; bonus and fee rows always carry a zero sell price.
func ExpandLines(cart *Cart) []ExpandedLine {
	var out []ExpandedLine

	for _, l := range cart.Paid() {
		for i := int32(0); i < l.Quantity; i++ {
			out = append(out, ExpandedLine{
				Kind:                 l.Kind,
				Code:                 l.Code,
				ProductName:          l.ProductName,
				Colour:               l.Colour,
				Storage:              l.Storage,
				WarrantyMonths:       l.WarrantyMonths,
				SellPrice:            l.SellPrice,
				CostPrice:            l.CostPrice,
				SubscriptionUsername: l.SubscriptionUsername,
			})
		}
	}

	for _, l := range cart.Bonus() {
		for i := int32(0); i < l.Quantity; i++ {
			out = append(out, ExpandedLine{
				Kind:                 l.Kind,
				Code:                 l.Code,
				ProductName:          l.ProductName,
				Colour:               l.Colour,
				Storage:              l.Storage,
				WarrantyMonths:       l.WarrantyMonths,
				SellPrice:            0,
				CostPrice:            l.CostPrice,
				IsBonus:              true,
				SubscriptionUsername: l.SubscriptionUsername,
			})
		}
	}

	for _, f := range cart.Fees() {
		out = append(out, ExpandedLine{
			Kind:        KindFee,
			ProductName: f.Description,
			SellPrice:   0,
			CostPrice:   f.Amount,
			IsBonus:     true,
		})
	}

	return out
}

// Subtotal sums the sell price of the paid expanded lines.
func Subtotal(lines []ExpandedLine) int64 {
	var sum int64
	for _, l := range lines {
		if !l.IsBonus {
			sum += l.SellPrice
		}
	}
	return sum
}

// AllocateDiscount distributes an invoice-level discount across the paid
// expanded lines proportionally to each line's price, flooring every share
// except the last paid line, which absorbs the exact remainder. The discount
// is clamped to [0, subtotal] first; the clamped value is returned and the
// allocations always sum to it exactly.
func AllocateDiscount(lines []ExpandedLine, discount int64) int64 {
	subtotal := Subtotal(lines)

	if discount < 0 {
		discount = 0
	}
	if discount > subtotal {
		discount = subtotal
	}
	if discount == 0 || subtotal == 0 {
		for i := range lines {
			lines[i].Discount = 0
		}
		return discount
	}

	lastPaid := -1
	for i, l := range lines {
		if !l.IsBonus {
			lastPaid = i
		}
	}

	discountDec := decimal.NewFromInt(discount)
	subtotalDec := decimal.NewFromInt(subtotal)

	var allocated int64
	for i := range lines {
		if lines[i].IsBonus {
			lines[i].Discount = 0
			continue
		}
		if i == lastPaid {
			// The last paid line absorbs the rounding remainder so the
			// allocations sum to the discount exactly.
			lines[i].Discount = discount - allocated
			continue
		}
		share := decimal.NewFromInt(lines[i].SellPrice).Mul(discountDec).Div(subtotalDec).Floor().IntPart()
		lines[i].Discount = share
		allocated += share
	}

	return discount
}
