package service

import (
	"backoffice/internal/model"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// isCents reports whether d fits the two decimal places money is stored with.
func isCents(d decimal.Decimal) bool { return d.Equal(d.Round(2)) }

// TotalsInput is everything the derived sale figures depend on.
type TotalsInput struct {
	Items        []model.SaleItem
	Discount     decimal.Decimal
	DiscountType string
	Tax          decimal.Decimal
	ShippingFee  decimal.Decimal
	Payments     []model.SalePayment
}

// Totals are the derived sale figures.
type Totals struct {
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	TotalAmount    decimal.Decimal
	AmountPaid     decimal.Decimal
	Balance        decimal.Decimal
	PaymentStatus  string
}

// LineSubtotal returns quantity*unitPrice - discount + tax for one sale line.
func LineSubtotal(quantity int, unitPrice, discount, tax decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity))).Sub(discount).Add(tax)
}

// ComputeTotals derives every computed sale field from lines, adjustments and the payment ledger.
// It has no side effects and is invoked before every persist of a sale.
func ComputeTotals(in TotalsInput) Totals {
	var t Totals
	for _, it := range in.Items {
		t.Subtotal = t.Subtotal.Add(it.Subtotal)
	}

	if in.DiscountType == model.DiscountPercentage {
		t.DiscountAmount = t.Subtotal.Mul(in.Discount).Div(hundred).Round(2)
	} else {
		t.DiscountAmount = in.Discount
	}

	t.TotalAmount = t.Subtotal.Sub(t.DiscountAmount).Add(in.Tax).Add(in.ShippingFee)

	for _, p := range in.Payments {
		t.AmountPaid = t.AmountPaid.Add(p.Amount)
	}
	t.Balance = t.TotalAmount.Sub(t.AmountPaid)

	switch {
	case !t.Balance.IsPositive():
		t.PaymentStatus = model.PaymentPaid
	case t.AmountPaid.IsPositive():
		t.PaymentStatus = model.PaymentPartial
	default:
		t.PaymentStatus = model.PaymentUnpaid
	}
	return t
}

// applyTotals recomputes and writes the derived fields onto s.
func applyTotals(s *model.Sale) {
	t := ComputeTotals(TotalsInput{
		Items:        s.Items,
		Discount:     s.Discount,
		DiscountType: s.DiscountType,
		Tax:          s.Tax,
		ShippingFee:  s.ShippingFee,
		Payments:     s.Payments,
	})
	s.Subtotal = t.Subtotal
	s.DiscountAmount = t.DiscountAmount
	s.TotalAmount = t.TotalAmount
	s.AmountPaid = t.AmountPaid
	s.Balance = t.Balance
	s.PaymentStatus = t.PaymentStatus
}
