package service

import (
	"errors"
	"fmt"
	"strings"
)

// LineKind classifies a cart line. Unit lines reference one serialized item,
// accessory lines a fungible SKU, fee lines are synthetic cost-only entries.
type LineKind string

const (
	KindUnit      LineKind = "UNIT"
	KindAccessory LineKind = "ACCESSORY"
	KindFee       LineKind = "FEE"
)

// ReservedSubscriptionSKU is the one SKU that carries a streaming-account
// username with the sale.
const ReservedSubscriptionSKU = "NETFLIX-1BLN"

const (
	minAccessoryQty = 1
	maxAccessoryQty = 100
)

// Errors returned by cart operations.
var (
	ErrEmptyCode               = errors.New("code is required")
	ErrMissingSellPrice        = errors.New("sell price is required for paid lines")
	ErrMissingSubscriptionUser = errors.New("subscription username is required for this SKU")
	ErrDuplicateSerial         = errors.New("serial number already in cart")
	ErrLineIndexOutOfRange     = errors.New("line index out of range")
	ErrMissingFeeDescription   = errors.New("fee description is required")
	ErrInvalidFeeAmount        = errors.New("fee amount must be > 0")
)

// CartLine is one in-memory, transaction-scoped entry before expansion.
type CartLine struct {
	Kind                 LineKind
	Code                 string
	ProductName          string
	Colour               string
	Storage              string
	WarrantyMonths       int32
	SellPrice            int64
	CostPrice            int64
	Quantity             int32
	SubscriptionUsername string
}

// FeeLine is a free-text charge that reduces profit but never appears on the
// customer-facing total.
type FeeLine struct {
	Description string
	Amount      int64
}

// Cart accumulates paid lines, bonus lines and fee lines for one submission.
// Nothing is persisted until the cart is handed to SaleService.CreateSale.
type Cart struct {
	paid  []CartLine
	bonus []CartLine
	fees  []FeeLine
}

func NewCart() *Cart {
	return &Cart{}
}

// NormalizeCode trims and upper-cases a user-typed serial number or SKU.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// AddPaid appends a paid line. Paid lines must carry a code and a positive
// sell price.
func (c *Cart) AddPaid(line CartLine) error {
	if err := c.validateLine(&line, true); err != nil {
		return err
	}
	c.paid = append(c.paid, line)
	return nil
}

// AddBonus appends a zero-price bonus line.
func (c *Cart) AddBonus(line CartLine) error {
	if err := c.validateLine(&line, false); err != nil {
		return err
	}
	line.SellPrice = 0
	c.bonus = append(c.bonus, line)
	return nil
}

func (c *Cart) RemovePaid(i int) error {
	if i < 0 || i >= len(c.paid) {
		return ErrLineIndexOutOfRange
	}
	c.paid = append(c.paid[:i], c.paid[i+1:]...)
	return nil
}

func (c *Cart) RemoveBonus(i int) error {
	if i < 0 || i >= len(c.bonus) {
		return ErrLineIndexOutOfRange
	}
	c.bonus = append(c.bonus[:i], c.bonus[i+1:]...)
	return nil
}

// AddFee appends a free-text fee with a positive nominal amount.
func (c *Cart) AddFee(description string, amount int64) error {
	description = strings.TrimSpace(description)
	if description == "" {
		return ErrMissingFeeDescription
	}
	if amount <= 0 {
		return ErrInvalidFeeAmount
	}
	c.fees = append(c.fees, FeeLine{Description: description, Amount: amount})
	return nil
}

func (c *Cart) Paid() []CartLine  { return c.paid }
func (c *Cart) Bonus() []CartLine { return c.bonus }
func (c *Cart) Fees() []FeeLine   { return c.fees }

// Empty reports whether the cart has no sellable lines. Fee lines alone do
// not make a sale.
func (c *Cart) Empty() bool {
	return len(c.paid) == 0 && len(c.bonus) == 0
}

func (c *Cart) validateLine(line *CartLine, paid bool) error {
	line.Code = NormalizeCode(line.Code)
	if line.Code == "" {
		return ErrEmptyCode
	}
	if paid && line.SellPrice <= 0 {
		return ErrMissingSellPrice
	}
	if line.Code == ReservedSubscriptionSKU && strings.TrimSpace(line.SubscriptionUsername) == "" {
		return ErrMissingSubscriptionUser
	}

	switch line.Kind {
	case KindUnit:
		// Serialized items are always quantity 1 regardless of input.
		line.Quantity = 1
		if c.hasUnitSerial(line.Code) {
			return fmt.Errorf("%w: %s", ErrDuplicateSerial, line.Code)
		}
	case KindAccessory:
		if line.Quantity < minAccessoryQty {
			line.Quantity = minAccessoryQty
		}
		if line.Quantity > maxAccessoryQty {
			line.Quantity = maxAccessoryQty
		}
	default:
		return fmt.Errorf("invalid line kind: %q", line.Kind)
	}
	return nil
}

// hasUnitSerial checks both baskets. The same serial can never be sold and
// gifted in one transaction.
func (c *Cart) hasUnitSerial(code string) bool {
	for _, l := range c.paid {
		if l.Kind == KindUnit && l.Code == code {
			return true
		}
	}
	for _, l := range c.bonus {
		if l.Kind == KindUnit && l.Code == code {
			return true
		}
	}
	return false
}
