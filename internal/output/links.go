package output

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/and161185/intakedesk/internal/errs"
	"github.com/and161185/intakedesk/internal/model"
)

// Company signs outgoing e-mail.
const Company = "Hamburg Overhead Door"

// EmailKind selects an e-mail template.
type EmailKind string

const (
	EmailQuote          EmailKind = "quote"
	EmailInvoice        EmailKind = "invoice"
	EmailDepositReceipt EmailKind = "depositReceipt"
)

// EmailKinds lists the supported templates.
var EmailKinds = []EmailKind{EmailQuote, EmailInvoice, EmailDepositReceipt}

// EmailLink returns a Gmail compose URL addressed to the record's customer.
// errs.ErrValidationGap is returned when name or e-mail is missing.
func EmailLink(kind EmailKind, r model.Record) (string, error) {
	name := strings.TrimSpace(r.Get("name"))
	email := strings.TrimSpace(r.Get("email"))
	if name == "" || email == "" {
		return "", fmt.Errorf("%w: customer name and email", errs.ErrValidationGap)
	}
	ts := strings.TrimSpace(r.Get("tsNumber"))
	if ts == "" {
		ts = "N/A"
	}

	var subject, body string
	switch kind {
	case EmailQuote:
		subject = fmt.Sprintf("Your Requested Quote from %s - TS #%s", Company, ts)
		body = fmt.Sprintf("Dear %s,\n\nThank you for reaching out to %s...\n\nSincerely,\n%s", name, Company, Company)
	case EmailInvoice:
		subject = fmt.Sprintf("Your Invoice from %s - TS #%s", Company, ts)
		body = fmt.Sprintf("Dear %s,\n\nThank you for choosing %s. Your invoice is attached/details are below...\n\nSincerely,\n%s", name, Company, Company)
	case EmailDepositReceipt:
		subject = "Deposit Receipt and Copy of Work Order Reflecting Deposit - TS #" + ts
		body = fmt.Sprintf("Dear %s,\n\nWe have received your deposit. A receipt and work order copy are attached/details are below...\n\nSincerely,\n%s", name, Company)
	default:
		return "", fmt.Errorf("validation: unknown email type %q", kind)
	}

	return "https://mail.google.com/mail/?view=cm&fs=1" +
		"&to=" + escape(email) +
		"&su=" + escape(subject) +
		"&body=" + escape(body), nil
}

// escape percent-encodes s for a query value, spaces as %20.
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// Location holds the map and street view preview URLs for an address.
type Location struct {
	MapEmbed   string
	StreetView string
}

// LocationURLs builds preview URLs for address. ok is false when the
// address or the maps API key is empty, in which case previews are hidden.
func LocationURLs(address, apiKey string) (loc Location, ok bool) {
	address = strings.TrimSpace(address)
	if address == "" || apiKey == "" {
		return Location{}, false
	}
	q := escape(address)
	key := escape(apiKey)
	return Location{
		MapEmbed:   "https://www.google.com/maps/embed/v1/place?key=" + key + "&q=" + q,
		StreetView: "https://maps.googleapis.com/maps/api/streetview?size=600x300&location=" + q + "&key=" + key,
	}, true
}
