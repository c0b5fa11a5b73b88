// Package output turns an intake record into the documents staff hand on:
// service-ticket and quote text, a printable page, the payment PDF, e-mail
// compose links, a short summary, a spreadsheet export and location previews.
package output

import (
	"fmt"
	"strings"
	"time"

	"github.com/and161185/intakedesk/internal/model"
)

// TakenDateLayout is the date printed on the TAKEN line.
const TakenDateLayout = "1-2-2006"

// PO types that select the payment line of a ticket.
const (
	POTypeNumber   = "PO Number"
	POTypeVerbal   = "Verbal PO"
	POTypeCCOnFile = "CC on File"
	POTypeCOD      = "COD"
	POTypeWarranty = "Warranty"
)

// joinNonEmpty joins the non-empty parts with sep.
func joinNonEmpty(sep string, parts ...string) string {
	out := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}

func upper(r model.Record, field string) string { return strings.ToUpper(r.Get(field)) }

// ServiceTicket renders the dispatch ticket: one upper-cased line per
// non-empty item, in the fixed order dispatchers expect.
func ServiceTicket(r model.Record, taken time.Time) string {
	var lines []string
	add := func(s string) {
		if s != "" {
			lines = append(lines, s)
		}
	}

	add(upper(r, "jobsite"))
	add(upper(r, "directions"))
	add(joinNonEmpty(", ", upper(r, "name"), upper(r, "phone"), upper(r, "email")))
	add(upper(r, "availability"))

	doors := make([]string, 0, len(r.Equipment))
	for i, d := range r.Equipment {
		var door, op string
		if d["door"] != "" {
			door = fmt.Sprintf("DOOR %d: %s", i+1, d["door"])
		}
		if d["operator"] != "" {
			op = "OPERATOR: " + d["operator"]
		}
		doors = append(doors, joinNonEmpty(" ", door, op))
	}
	add(strings.ToUpper(joinNonEmpty(" | ", doors...)))

	add(upper(r, "request"))
	lines = append(lines, fmt.Sprintf("TAKEN: %s %s", taken.Format(TakenDateLayout), upper(r, "initials")))
	if q := upper(r, "quotedAmount"); q != "" {
		lines = append(lines, "QUOTED: "+q)
	}
	add(paymentLine(r))
	lines = append(lines, "PLEASE CALL EN ROUTE")
	return strings.Join(lines, "\n")
}

func paymentLine(r model.Record) string {
	switch r.Get("poType") {
	case POTypeNumber:
		if po := upper(r, "poNumberInput"); po != "" {
			return "PO #: " + po
		}
	case POTypeVerbal:
		if po := upper(r, "verbalPoInput"); po != "" {
			return "VERBAL PO: " + po
		}
	case POTypeCCOnFile:
		return "CC ON FILE"
	case POTypeCOD:
		return "COD"
	case POTypeWarranty:
		var details []string
		if v := upper(r, "installer"); v != "" {
			details = append(details, "INSTALLER: "+v)
		}
		if v := upper(r, "installDate"); v != "" {
			details = append(details, "INSTALL DATE: "+v)
		}
		if v := upper(r, "warrantyTsNumber"); v != "" {
			details = append(details, "ORIGINAL TS #: "+v)
		}
		if len(details) == 0 {
			return "WARRANTY"
		}
		return "WARRANTY (" + strings.Join(details, ", ") + ")"
	}
	return ""
}

// Quote renders the quote text sent to the customer.
func Quote(r model.Record) string {
	var lines []string
	add := func(s string) {
		if s != "" {
			lines = append(lines, s)
		}
	}

	add(upper(r, "jobsite"))
	add(upper(r, "directions"))
	contact := joinNonEmpty(" ", upper(r, "name"), upper(r, "phone"))
	if email := upper(r, "email"); email != "" {
		contact += "; " + email
	}
	add(contact)
	if v := upper(r, "siteSpecs"); v != "" {
		add("SITE SPECS: " + v)
	}
	if v := upper(r, "wePropose"); v != "" {
		add("WE PROPOSE: " + v)
	}
	lines = append(lines, "50% DEPOSIT REQUIRED TO PROCEED")
	if v := upper(r, "leadTime"); v != "" {
		add("LEAD TIME: " + v)
	}
	return strings.Join(lines, "\n")
}

// Summary is the short contact and equipment overview shown next to the form.
// An empty record has no summary.
func Summary(r model.Record) string {
	if len(r.Fields) == 0 && len(r.Equipment) == 0 {
		return ""
	}
	na := func(s string) string {
		if s == "" {
			return "N/A"
		}
		return s
	}
	var b strings.Builder
	b.WriteString("Contact\n")
	fmt.Fprintf(&b, "  Name: %s\n", na(r.Get("name")))
	fmt.Fprintf(&b, "  Phone: %s\n", na(r.Get("phone")))
	fmt.Fprintf(&b, "  Email: %s\n", na(r.Get("email")))
	fmt.Fprintf(&b, "  Address: %s\n", na(r.Get("jobsite")))
	if len(r.Equipment) > 0 {
		b.WriteString("Equipment\n")
		for i, d := range r.Equipment {
			fmt.Fprintf(&b, "  Door %d: %s\n", i+1, na(d["door"]))
		}
	}
	return b.String()
}
