package order

import (
	"io"
	"strconv"

	"github.com/go-pdf/fpdf"
)

// RenderReceipt writes a single-page PDF receipt for o. Items should carry
// their product summaries; lines without one fall back to the product ID.
func RenderReceipt(w io.Writer, o *Order) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Order "+o.OrderNumber, true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "Receipt", "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	header := [][2]string{
		{"Order", o.OrderNumber},
		{"Date", o.CreatedAt.Format("2006-01-02 15:04")},
		{"Customer", customerOf(o)},
		{"Status", string(o.Status)},
	}
	for _, row := range header {
		pdf.CellFormat(30, 7, row[0]+":", "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 7, row[1], "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	widths := []float64{90, 25, 35, 40}
	pdf.SetFont("Helvetica", "B", 11)
	for i, col := range []string{"Product", "Qty", "Unit price", "Total"} {
		align := "R"
		if i == 0 {
			align = "L"
		}
		pdf.CellFormat(widths[i], 8, col, "B", 0, align, false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 11)
	for _, item := range o.Items {
		name := item.ProductID.String()
		if item.Product != nil && item.Product.Name != "" {
			name = item.Product.Name
		}
		pdf.CellFormat(widths[0], 7, name, "", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 7, strconv.Itoa(item.Quantity), "", 0, "R", false, 0, "")
		pdf.CellFormat(widths[2], 7, item.UnitPrice.StringFixed(2), "", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 7, item.Total.StringFixed(2), "", 1, "R", false, 0, "")
	}

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(widths[0]+widths[1]+widths[2], 9, "Total", "T", 0, "R", false, 0, "")
	pdf.CellFormat(widths[3], 9, o.TotalAmount.StringFixed(2), "T", 1, "R", false, 0, "")

	return pdf.Output(w)
}

// customerOf prefers the named customer, then the cashier's email.
func customerOf(o *Order) string {
	if o.CustomerName != "" {
		return o.CustomerName
	}
	if o.User != nil && o.User.Email != "" {
		return o.User.Email
	}
	return "Walk-in"
}
