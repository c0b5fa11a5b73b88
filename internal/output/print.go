package output

import (
	"fmt"
	"html/template"
	"io"
	"slices"

	"github.com/and161185/intakedesk/internal/form"
	"github.com/and161185/intakedesk/internal/model"
)

var fieldLabels = map[string]string{
	"siteSpecs": "Site Specs", "initials": "CSR Initials", "billing": "Billing Address",
	"jobsite": "Jobsite Address", "name": "Name", "phone": "Phone", "email": "Email",
	"availability": "Availability", "request": "Work Requested", "notes": "Notes",
	"paymentAccountName": "Account Name", "paymentAccountNumber": "Account Number",
	"paymentExpDate": "Exp Date", "paymentSecurityCode": "Security Code",
	"billingChanges": "Billing Address Changes", "depositAmount": "Deposit Amount",
	"remainingBalance": "Remaining Balance", "tsNumber": "Legacy TS Number",
	"receiptMethod": "Receipt Method", "directions": "Directions",
	"installDate": "Install Date", "installer": "Installer", "callType": "Call Type",
	"warrantyTsNumber": "Original TS Number", "quotedAmount": "Quoted Amount",
	"wePropose": "We Propose", "leadTime": "Lead Time",
}

// equipmentLabels is ordered; doors print their fields in this order.
var equipmentLabels = []struct{ Field, Label string }{
	{"door", "Door Info"}, {"operator", "Operator Info"}, {"floorCeiling", "Floor to Ceiling"},
	{"floorObstruction", "Floor to Lowest Obstruction"}, {"construction", "Construction Type"},
	{"backroom", "Backroom"}, {"sideroom", "Sideroom"}, {"headroom", "Headroom"}, {"power", "Power"},
	{"color", "Color"}, {"jambs", "Jambs"}, {"floor", "Floor"}, {form.DoorSizeField, "Door Size"},
	{"track", "Track Radius"}, {"spring", "Spring Info"}, {"weatherstop", "Weatherstop Color"},
}

var wideFields = []string{
	"billing", "jobsite", "request", "notes", "door", "operator", "spring",
	"directions", "wePropose", "siteSpecs", "billingChanges",
}

type printItem struct {
	Label string
	Value string
	Wide  bool
}

type printSection struct {
	Title string
	Items []printItem
}

type printPage struct {
	Initials string
	DocID    string
	Sections []printSection
}

var printTmpl = template.Must(template.New("print").Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>Job Intake Record {{.DocID}}</title>
<style>
body { font-family: sans-serif; margin: 2rem; color: #333; }
.print-main-header { display: flex; justify-content: space-between; align-items: flex-start; border-bottom: 2px solid #333; padding-bottom: 1rem; margin-bottom: 1.5rem; }
.print-main-header h1 { font-size: 1.8rem; margin: 0; }
.print-header-info { text-align: right; flex-shrink: 0; }
.file-initials { font-size: 48px; font-weight: bold; color: #cccccc; line-height: 1; }
.print-doc-id { font-size: 0.8rem; color: #999999; font-family: monospace; margin-top: 0.25rem; }
.section { margin-bottom: 1.5rem; border-bottom: 1px solid #ccc; padding-bottom: 1rem; page-break-inside: avoid; }
.section:last-of-type { border-bottom: none; }
.section h2 { font-size: 1.2rem; border-bottom: 2px solid #333; padding-bottom: 0.3rem; margin-bottom: 1rem; }
.grid { display: grid; grid-template-columns: 1fr 1fr; gap: 1rem; }
.item { margin-bottom: 0.5rem; }
.item strong { display: block; color: #555; font-size: 0.9rem; }
.full-width { grid-column: 1 / -1; }
div { white-space: pre-wrap; word-break: break-word; }
@media print { body { margin: 0.5in; } .grid { display: block; } .item { margin-bottom: 0.25rem; } }
</style></head><body>
<div class="print-main-header">
<h1>Job Intake Record</h1>
<div class="print-header-info"><div class="file-initials">{{.Initials}}</div><div class="print-doc-id">{{.DocID}}</div></div>
</div>
{{range .Sections}}<div class="section"><h2>{{.Title}}</h2><div class="grid">
{{range .Items}}<div class="item{{if .Wide}} full-width{{end}}"><strong>{{.Label}}:</strong> <div>{{.Value}}</div></div>
{{end}}</div></div>
{{end}}</body></html>
`))

func fieldSection(r model.Record, title string, fields ...string) (printSection, bool) {
	s := printSection{Title: title}
	for _, f := range fields {
		if v := r.Get(f); v != "" {
			s.Items = append(s.Items, printItem{Label: fieldLabels[f], Value: v, Wide: slices.Contains(wideFields, f)})
		}
	}
	return s, len(s.Items) > 0
}

func printSections(r model.Record) []printSection {
	var out []printSection
	add := func(s printSection, ok bool) {
		if ok {
			out = append(out, s)
		}
	}
	add(fieldSection(r, "Job & Contact Info", "callType", "initials", "name", "phone", "email", "availability", "billing", "jobsite", "directions"))
	add(fieldSection(r, "Work & Notes", "request", "notes"))
	add(fieldSection(r, "Site Specs", "siteSpecs"))
	add(fieldSection(r, "Quote Details", "wePropose", "leadTime", "quotedAmount"))
	for i, d := range r.Equipment {
		s := printSection{Title: fmt.Sprintf("Equipment: Door %d", i+1)}
		for _, l := range equipmentLabels {
			if v := d[l.Field]; v != "" {
				s.Items = append(s.Items, printItem{Label: l.Label, Value: v, Wide: slices.Contains(wideFields, l.Field)})
			}
		}
		add(s, len(s.Items) > 0)
	}
	add(fieldSection(r, "Warranty", "installDate", "installer", "warrantyTsNumber"))
	add(fieldSection(r, "Payment Details", "paymentAccountName", "paymentAccountNumber", "paymentExpDate",
		"paymentSecurityCode", "depositAmount", "remainingBalance", "tsNumber", "receiptMethod", "billingChanges"))
	return out
}

// PrintHTML writes a printable page of r. Only non-empty values are shown;
// all values are HTML-escaped.
func PrintHTML(w io.Writer, r model.Record) error {
	return printTmpl.Execute(w, printPage{
		Initials: form.Initials(r.Get("name")),
		DocID:    r.Get("docId"),
		Sections: printSections(r),
	})
}
