package output

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/and161185/intakedesk/internal/model"
)

// Row is one label/value line of the payment table.
type Row struct {
	Label string
	Value string
}

// PaymentRows returns the payment table in print order. Empty values stay empty.
func PaymentRows(r model.Record) []Row {
	get := func(f string) string { return strings.TrimSpace(r.Get(f)) }
	return []Row{
		{"Account Name", get("paymentAccountName")},
		{"Email", get("email")},
		{"Billing Address", get("billing")},
		{"Account Number", get("paymentAccountNumber")},
		{"Expiration Date", get("paymentExpDate")},
		{"Security Code", get("paymentSecurityCode")},
		{"Deposit Amount", get("depositAmount")},
		{"Remaining Balance", get("remainingBalance")},
		{"Legacy TS Number", get("tsNumber")},
		{"Billing Changes", get("billingChanges")},
		{"Receipt Method", get("receiptMethod")},
		{"Quoted Amount", get("quotedAmount")},
	}
}

var whitespace = regexp.MustCompile(`\s+`)

// PaymentPDFName is <LASTNAME>_<TS>_<YYYYMMDD-HHMMSS>.pdf. The last name
// comes from the payment account name, else the customer name; a missing
// TS number is replaced by TS<unix millis>.
func PaymentPDFName(r model.Record, now time.Time) string {
	ts := strings.TrimSpace(r.Get("tsNumber"))
	if ts == "" {
		ts = fmt.Sprintf("TS%d", now.UnixMilli())
	}
	ts = whitespace.ReplaceAllString(ts, "")

	full := strings.TrimSpace(r.Get("paymentAccountName"))
	if full == "" {
		full = strings.TrimSpace(r.Get("name"))
	}
	last := "NO_NAME"
	if parts := strings.Fields(full); len(parts) > 0 {
		last = parts[len(parts)-1]
	}
	return fmt.Sprintf("%s_%s_%s.pdf", strings.ToUpper(last), ts, now.Format("20060102-150405"))
}

// PaymentPDF writes the one-page payment summary to w.
func PaymentPDF(w io.Writer, r model.Record) error {
	pdf := fpdf.New("P", "pt", "Letter", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Payment Information", true)
	pdf.AddPage()

	y := 40.0
	pdf.SetFont("Helvetica", "", 14)
	pdf.Text(40, y, "Payment Information")
	y += 30

	pdf.SetFont("Helvetica", "", 10)
	for _, row := range PaymentRows(r) {
		val := row.Value
		if val == "" {
			val = "—"
		}
		pdf.Text(40, y, row.Label+":")
		pdf.Text(200, y, tr(val))
		y += 18
	}
	if err := pdf.Error(); err != nil {
		return fmt.Errorf("payment pdf: %w", err)
	}
	return pdf.Output(w)
}
