package infra

// pdf.go: receipt rendering with go-pdf/fpdf.
// One A6 page per sale:
//   - Business name header and invoice number
//   - Invoice due date and customer block (when present)
//   - Delivery block for sales that ship
//   - Item table (name, quantity, unit price, subtotal)
//   - Discount, tax, shipping and bold total
//   - Payment ledger, amount paid and balance
//   - CANCELLED stamp for cancelled sales
//   - Invoice notes and terms
//
// The output file is saved to storagePath/receipt_{sale_number}.pdf.

import (
	"fmt"
	"os"
	"path/filepath"

	"backoffice/internal/model"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

// ReceiptFileName returns the file name used for a sale's receipt.
func ReceiptFileName(saleNumber string) string {
	return fmt.Sprintf("receipt_%s.pdf", saleNumber)
}

// deliveryLines is the delivery block of a receipt; empty when the sale does not ship.
func deliveryLines(d model.Delivery) []string {
	if !d.Required {
		return nil
	}
	var out []string
	if d.Status != "" {
		out = append(out, "Status: "+d.Status)
	}
	if d.Address != "" {
		out = append(out, "Address: "+d.Address)
	}
	if d.TrackingNumber != "" {
		out = append(out, "Tracking: "+d.TrackingNumber)
	}
	if d.Date != nil {
		out = append(out, "Date: "+d.Date.Format("02 Jan 2006"))
	}
	return out
}

// GenerateReceiptPDF renders the receipt for sale into storagePath (created if needed)
// and returns the path of the written file. Re-rendering overwrites the previous file.
func GenerateReceiptPDF(sale *model.Sale, businessName, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}
	filePath := filepath.Join(storagePath, ReceiptFileName(sale.SaleNumber))

	pdf := fpdf.New("P", "mm", "A6", "")
	pdf.SetMargins(6, 6, 6)
	pdf.SetAutoPageBreak(true, 6)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 12

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(contentW, 7, tr(businessName), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(contentW, 5, "Sales Receipt", "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "B", 8)
	pdf.CellFormat(contentW, 5, "Invoice "+sale.InvoiceNumber, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(contentW, 4, sale.SaleDate.Format("02 Jan 2006  15:04"), "", 1, "L", false, 0, "")
	if sale.InvoiceDueDate != nil {
		pdf.CellFormat(contentW, 4, "Due: "+sale.InvoiceDueDate.Format("02 Jan 2006"), "", 1, "L", false, 0, "")
	}

	if c := sale.Customer; c.Name != "" || c.Phone != "" {
		pdf.CellFormat(contentW, 4, tr("Customer: "+c.Name), "", 1, "L", false, 0, "")
		if c.Phone != "" {
			pdf.CellFormat(contentW, 4, "Phone: "+c.Phone, "", 1, "L", false, 0, "")
		}
	}
	if lines := deliveryLines(sale.Delivery); len(lines) > 0 {
		pdf.Ln(1)
		pdf.SetFont("Helvetica", "B", 7)
		pdf.CellFormat(contentW, 4, "Delivery", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 7)
		for _, ln := range lines {
			pdf.MultiCell(contentW, 4, tr(ln), "", "L", false)
		}
	}
	pdf.Ln(2)
	pdf.Line(6, pdf.GetY(), pageW-6, pdf.GetY())
	pdf.Ln(2)

	// ── Items ─────────────────────────────────────────────────────────────────
	col1 := contentW * 0.46
	col2 := contentW * 0.12
	col3 := contentW * 0.20
	col4 := contentW * 0.22

	pdf.SetFont("Helvetica", "B", 7)
	pdf.CellFormat(col1, 5, "Item", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 5, "Qty", "B", 0, "C", false, 0, "")
	pdf.CellFormat(col3, 5, "Price", "B", 0, "R", false, 0, "")
	pdf.CellFormat(col4, 5, "Subtotal", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	for _, item := range sale.Items {
		name := item.ProductName
		if len(name) > 26 {
			name = name[:25] + "."
		}
		pdf.CellFormat(col1, 5, tr(name), "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 5, fmt.Sprintf("%d", item.Quantity), "", 0, "C", false, 0, "")
		pdf.CellFormat(col3, 5, item.UnitPrice.StringFixed(2), "", 0, "R", false, 0, "")
		pdf.CellFormat(col4, 5, item.Subtotal.StringFixed(2), "", 1, "R", false, 0, "")
	}

	pdf.Ln(2)
	pdf.Line(6, pdf.GetY(), pageW-6, pdf.GetY())
	pdf.Ln(2)

	// ── Totals ────────────────────────────────────────────────────────────────
	labelW := col1 + col2 + col3
	amountRow := func(label string, v decimal.Decimal, prefix string) {
		pdf.CellFormat(labelW, 4, label, "", 0, "L", false, 0, "")
		pdf.CellFormat(col4, 4, prefix+v.StringFixed(2), "", 1, "R", false, 0, "")
	}

	pdf.SetFont("Helvetica", "", 7)
	amountRow("Subtotal:", sale.Subtotal, "")
	if !sale.DiscountAmount.IsZero() {
		amountRow("Discount:", sale.DiscountAmount, "-")
	}
	if !sale.Tax.IsZero() {
		amountRow("Tax:", sale.Tax, "")
	}
	if !sale.ShippingFee.IsZero() {
		amountRow("Shipping:", sale.ShippingFee, "")
	}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(labelW, 6, "TOTAL:", "", 0, "L", false, 0, "")
	pdf.CellFormat(col4, 6, sale.TotalAmount.StringFixed(2), "", 1, "R", false, 0, "")

	// ── Payments ──────────────────────────────────────────────────────────────
	pdf.Ln(1)
	pdf.SetFont("Helvetica", "", 7)
	for _, p := range sale.Payments {
		amountRow("Paid ("+p.Method+") "+p.CreatedAt.Format("02/01"), p.Amount, "")
	}
	amountRow("Amount paid:", sale.AmountPaid, "")
	pdf.SetFont("Helvetica", "B", 7)
	amountRow("Balance:", sale.Balance, "")

	if sale.Status == model.SaleCancelled {
		pdf.Ln(3)
		pdf.SetTextColor(200, 0, 0)
		pdf.SetFont("Helvetica", "B", 16)
		pdf.CellFormat(contentW, 8, "CANCELLED", "1", 1, "C", false, 0, "")
		if sale.CancellationReason != nil {
			pdf.SetFont("Helvetica", "", 7)
			pdf.MultiCell(contentW, 4, tr(*sale.CancellationReason), "", "C", false)
		}
		pdf.SetTextColor(0, 0, 0)
	}

	if sale.InvoiceNotes != "" || sale.InvoiceTerms != "" {
		pdf.Ln(3)
		pdf.SetFont("Helvetica", "", 6)
		if sale.InvoiceNotes != "" {
			pdf.MultiCell(contentW, 3, tr(sale.InvoiceNotes), "", "L", false)
		}
		if sale.InvoiceTerms != "" {
			pdf.SetFont("Helvetica", "I", 6)
			pdf.MultiCell(contentW, 3, tr("Terms: "+sale.InvoiceTerms), "", "L", false)
		}
	}

	// ── Footer ────────────────────────────────────────────────────────────────
	pdf.Ln(3)
	pdf.SetFont("Helvetica", "I", 7)
	pdf.CellFormat(contentW, 4, "Thank you for your business!", "", 1, "C", false, 0, "")

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}
	return filePath, nil
}
