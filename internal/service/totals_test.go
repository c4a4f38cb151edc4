package service_test

import (
	"testing"

	"backoffice/internal/model"
	"backoffice/internal/service"

	"github.com/stretchr/testify/assert"
)

func TestLineSubtotal(t *testing.T) {
	assertDecimal(t, "57.50", service.LineSubtotal(3, dec("20"), dec("5"), dec("2.50")))
	assertDecimal(t, "0", service.LineSubtotal(1, dec("0"), dec("0"), dec("0")))
}

func TestComputeTotals(t *testing.T) {
	items := []model.SaleItem{{Subtotal: dec("100")}, {Subtotal: dec("50.50")}}

	tests := []struct {
		name       string
		in         service.TotalsInput
		subtotal   string
		discount   string
		total      string
		paid       string
		balance    string
		paymentSts string
	}{
		{
			name:     "fixed discount, unpaid",
			in:       service.TotalsInput{Items: items, Discount: dec("10.50"), DiscountType: model.DiscountFixed, Tax: dec("5"), ShippingFee: dec("2")},
			subtotal: "150.50", discount: "10.50", total: "147", paid: "0", balance: "147", paymentSts: model.PaymentUnpaid,
		},
		{
			name: "percentage discount rounds to cents, partial",
			in: service.TotalsInput{Items: items, Discount: dec("10"), DiscountType: model.DiscountPercentage, Tax: dec("5"), ShippingFee: dec("2"),
				Payments: []model.SalePayment{{Amount: dec("100")}}},
			subtotal: "150.50", discount: "15.05", total: "142.45", paid: "100", balance: "42.45", paymentSts: model.PaymentPartial,
		},
		{
			name: "split payments settle exactly",
			in: service.TotalsInput{Items: items,
				Payments: []model.SalePayment{{Amount: dec("100")}, {Amount: dec("50.50")}}},
			subtotal: "150.50", discount: "0", total: "150.50", paid: "150.50", balance: "0", paymentSts: model.PaymentPaid,
		},
		{
			name:     "empty discount type behaves as fixed",
			in:       service.TotalsInput{Items: items, Discount: dec("0.50")},
			subtotal: "150.50", discount: "0.50", total: "150", paid: "0", balance: "150", paymentSts: model.PaymentUnpaid,
		},
		{
			name:     "zero total is paid",
			in:       service.TotalsInput{Items: []model.SaleItem{{Subtotal: dec("0")}}},
			subtotal: "0", discount: "0", total: "0", paid: "0", balance: "0", paymentSts: model.PaymentPaid,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := service.ComputeTotals(tc.in)
			assertDecimal(t, tc.subtotal, got.Subtotal, "subtotal")
			assertDecimal(t, tc.discount, got.DiscountAmount, "discount")
			assertDecimal(t, tc.total, got.TotalAmount, "total")
			assertDecimal(t, tc.paid, got.AmountPaid, "paid")
			assertDecimal(t, tc.balance, got.Balance, "balance")
			assert.Equal(t, tc.paymentSts, got.PaymentStatus)

			// Invariants hold for every input.
			assert.True(t, got.TotalAmount.Equal(got.Subtotal.Sub(got.DiscountAmount).Add(tc.in.Tax).Add(tc.in.ShippingFee)))
			assert.True(t, got.Balance.Equal(got.TotalAmount.Sub(got.AmountPaid)))
		})
	}
}

func TestComputeTotals_IsPure(t *testing.T) {
	in := service.TotalsInput{
		Items:        []model.SaleItem{{Subtotal: dec("33.33")}},
		Discount:     dec("15"),
		DiscountType: model.DiscountPercentage,
		Payments:     []model.SalePayment{{Amount: dec("10")}},
	}
	assert.Equal(t, service.ComputeTotals(in), service.ComputeTotals(in))
	assertDecimal(t, "33.33", in.Items[0].Subtotal)
}
