// Package form holds the editable intake form state and converts it to and from records.
package form

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/and161185/intakedesk/internal/errs"
	"github.com/and161185/intakedesk/internal/model"
)

// BaseFields are the scalar fields of an intake record, in form order.
var BaseFields = []string{
	"billing", "jobsite", "name", "phone", "email", "availability", "request", "notes",
	"paymentAccountName", "paymentAccountNumber", "paymentExpDate", "paymentSecurityCode",
	"billingChanges", "depositAmount", "remainingBalance", "tsNumber", "receiptMethod", "initials",
	"poType", "poNumberInput", "verbalPoInput", "directions", "installDate", "installer",
	"warrantyTsNumber", "callType", "quotedAmount", "wePropose", "leadTime", "docId", "siteSpecs",
}

// EquipmentFields are the editable fields of one door.
var EquipmentFields = []string{
	"door", "operator", "floorCeiling", "floorObstruction", "construction", "backroom", "sideroom",
	"headroom", "power", "color", "jambs", "floor", "track", "spring", "weatherstop",
	"doorSizeWidthFt", "doorSizeWidthIn", "doorSizeHeightFt", "doorSizeHeightIn",
}

// DoorSizeField is derived from the four door-size selectors on every read.
const DoorSizeField = "doorSize"

// Form is the in-memory form. It is not safe for concurrent use.
type Form struct {
	fields    map[string]string
	equipment []model.Equipment
	// extra holds stored fields the form has no input for; they round-trip unchanged.
	extra map[string]string
}

// New returns an empty form with every base field present.
func New() *Form {
	f := &Form{}
	f.clear()
	return f
}

func (f *Form) clear() {
	f.fields = make(map[string]string, len(BaseFields))
	for _, id := range BaseFields {
		f.fields[id] = ""
	}
	f.equipment = []model.Equipment{}
	f.extra = nil
}

func knownField(list []string, name string) bool { return slices.Contains(list, name) }

// Get returns the value of a base field.
func (f *Form) Get(field string) string { return f.fields[field] }

// Set writes a base field. Phone input is masked as (XXX) XXX-XXXX.
func (f *Form) Set(field, value string) error {
	if !knownField(BaseFields, field) {
		return fmt.Errorf("%w: unknown field %q", errs.ErrValidationGap, field)
	}
	if field == "phone" {
		value = FormatPhone(value)
	}
	f.fields[field] = value
	return nil
}

// CopyBillingToJobsite mirrors the billing address into the jobsite address.
func (f *Form) CopyBillingToJobsite() {
	f.fields["jobsite"] = f.fields["billing"]
}

// EquipmentCount returns the number of doors on the form.
func (f *Form) EquipmentCount() int { return len(f.equipment) }

// AddEquipment appends an empty door and returns its index.
func (f *Form) AddEquipment() int {
	door := make(model.Equipment, len(EquipmentFields))
	for _, id := range EquipmentFields {
		door[id] = ""
	}
	f.equipment = append(f.equipment, door)
	return len(f.equipment) - 1
}

// DeleteEquipment removes the door at index i.
func (f *Form) DeleteEquipment(i int) error {
	if i < 0 || i >= len(f.equipment) {
		return fmt.Errorf("%w: no door %d", errs.ErrValidationGap, i+1)
	}
	f.equipment = slices.Delete(f.equipment, i, i+1)
	return nil
}

// SetEquipment writes one field of the door at index i.
func (f *Form) SetEquipment(i int, field, value string) error {
	if i < 0 || i >= len(f.equipment) {
		return fmt.Errorf("%w: no door %d", errs.ErrValidationGap, i+1)
	}
	if !knownField(EquipmentFields, field) {
		return fmt.Errorf("%w: unknown equipment field %q", errs.ErrValidationGap, field)
	}
	f.equipment[i][field] = value
	return nil
}

// Data gathers the form into a record. Door size is composed from its selectors.
func (f *Form) Data() model.Record {
	rec := model.Record{
		Fields:    maps.Clone(f.fields),
		Equipment: make([]model.Equipment, len(f.equipment)),
	}
	for k, v := range f.extra {
		rec.Fields[k] = v
	}
	for i, door := range f.equipment {
		d := door.Clone()
		d[DoorSizeField] = composeDoorSize(d)
		rec.Equipment[i] = d
	}
	return rec
}

func composeDoorSize(d model.Equipment) string {
	wf, wi := d["doorSizeWidthFt"], d["doorSizeWidthIn"]
	hf, hi := d["doorSizeHeightFt"], d["doorSizeHeightIn"]
	if wf == "" && wi == "" && hf == "" && hi == "" {
		return ""
	}
	return strings.TrimSpace(fmt.Sprintf("%s %s x %s %s", wf, wi, hf, hi))
}

// Populate replaces the form contents with r. Fields absent from r become
// empty; fields unknown to the form are kept as they are.
func (f *Form) Populate(r model.Record) {
	f.clear()
	for _, id := range BaseFields {
		f.fields[id] = r.Fields[id]
	}
	for k, v := range r.Fields {
		if !knownField(BaseFields, k) {
			if f.extra == nil {
				f.extra = make(map[string]string)
			}
			f.extra[k] = v
		}
	}
	for _, door := range r.Equipment {
		f.equipment = append(f.equipment, door.Clone())
	}
}

// Reset clears the form for a new record and returns the new document id.
// Initials survive when keepInitials is set; otherwise they are derived from displayName.
func (f *Form) Reset(now time.Time, keepInitials bool, displayName string) string {
	initials := f.fields["initials"]
	f.clear()
	switch {
	case keepInitials:
		f.fields["initials"] = initials
	case displayName != "":
		f.fields["initials"] = Initials(displayName)
	}
	id := DocID(now)
	f.fields["docId"] = id
	f.fields["installDate"] = now.Format("2006-01-02")
	return id
}

// DocID formats a human-readable document identifier: DOC-YYYYMMDD-HHMMSS.
func DocID(t time.Time) string {
	return "DOC-" + t.Format("20060102-150405")
}

// Initials returns the upper-cased first letters of the first and last words of name.
func Initials(name string) string {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return ""
	}
	out := firstRune(parts[0])
	if len(parts) > 1 {
		out += firstRune(parts[len(parts)-1])
	}
	return strings.ToUpper(out)
}

func firstRune(s string) string {
	for _, r := range s {
		return string(r)
	}
	return ""
}

// FormatPhone masks digits as (XXX) XXX-XXXX. Input with more than ten digits is returned unchanged.
func FormatPhone(in string) string {
	var digits strings.Builder
	for _, r := range in {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	if len(d) > 10 {
		return in
	}
	var out strings.Builder
	if len(d) > 0 {
		out.WriteString("(" + d[:min(3, len(d))])
	}
	if len(d) > 3 {
		out.WriteString(") " + d[3:min(6, len(d))])
	}
	if len(d) > 6 {
		out.WriteString("-" + d[6:])
	}
	return out.String()
}
