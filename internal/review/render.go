package review

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/pmezard/go-difflib/difflib"
)

var (
	pathStyle    = lipgloss.NewStyle().Bold(true)
	addedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	removedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

// NoChanges is rendered when a diff is empty.
const NoChanges = "No changes detected."

// Render formats entries for the review panel. Each value is shown as
// indented JSON and the old and new forms are line-diffed.
func Render(entries []Entry) string {
	if len(entries) == 0 {
		return NoChanges
	}
	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(pathStyle.Render(e.Path + ":"))
		b.WriteString("\n")
		old, cur := jsonLines(e.Old), jsonLines(e.New)
		for _, op := range difflib.NewMatcher(old, cur).GetOpCodes() {
			switch op.Tag {
			case 'e':
				for _, l := range old[op.I1:op.I2] {
					b.WriteString("  " + l + "\n")
				}
			case 'd', 'r', 'i':
				for _, l := range old[op.I1:op.I2] {
					b.WriteString(removedStyle.Render("- "+l) + "\n")
				}
				for _, l := range cur[op.J1:op.J2] {
					b.WriteString(addedStyle.Render("+ "+l) + "\n")
				}
			}
		}
	}
	return b.String()
}

func jsonLines(v any) []string {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return []string{fmt.Sprint(v)}
	}
	return strings.Split(string(raw), "\n")
}
