package app

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/and161185/intakedesk/internal/model"
	"github.com/and161185/intakedesk/internal/output"
	"github.com/and161185/intakedesk/internal/review"
)

// ServiceTicket renders the ticket for the form and copies it to the clipboard.
func (a *App) ServiceTicket() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := output.ServiceTicket(a.currentLocked(), a.clock.Now())
	a.copyLocked(out, "Service Ticket Output")
	return out
}

// Quote renders the quote for the form and copies it to the clipboard.
func (a *App) Quote() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := output.Quote(a.currentLocked())
	a.copyLocked(out, "Quote Output")
	return out
}

func (a *App) copyLocked(text, what string) {
	if a.clip == nil {
		return
	}
	if err := a.clip.Copy(text); err != nil {
		a.notifyf("❌ Failed to copy output to clipboard.")
		return
	}
	a.notifyf("📋 %s copied to clipboard!", what)
}

// Summary returns the contact and equipment overview of the form.
func (a *App) Summary() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return output.Summary(a.currentLocked())
}

// ReviewText renders the visible review panel.
func (a *App) ReviewText() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return review.Render(a.engine.Surface().Entries)
}

// PrintHTML writes the printable page of the form.
func (a *App) PrintHTML(w io.Writer) error {
	a.mu.Lock()
	rec := a.currentLocked()
	a.mu.Unlock()
	return output.PrintHTML(w, rec)
}

// EmailLink returns the compose URL for kind.
func (a *App) EmailLink(kind output.EmailKind) (string, error) {
	a.mu.Lock()
	rec := a.currentLocked()
	a.mu.Unlock()
	return output.EmailLink(kind, rec)
}

// PaymentPDF writes the payment summary into dir and returns the file path.
func (a *App) PaymentPDF(dir string) (string, error) {
	a.mu.Lock()
	rec := a.currentLocked()
	now := a.clock.Now()
	a.mu.Unlock()

	path := filepath.Join(dir, output.PaymentPDFName(rec, now))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := output.PaymentPDF(f, rec); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	a.notifyf("📄 Payment PDF Generated!")
	return path, nil
}

// Export writes the current record list as a spreadsheet.
func (a *App) Export(w io.Writer) (int, error) {
	recs := a.Records()
	if err := output.ExportXLSX(w, recs); err != nil {
		return 0, fmt.Errorf("export: %w", err)
	}
	return len(recs), nil
}

// Preferences returns the current preferences.
func (a *App) Preferences() model.Preferences {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.prefs
}

// UpdatePreferences applies fn to the preferences and saves them.
func (a *App) UpdatePreferences(fn func(*model.Preferences)) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	p := a.prefs
	fn(&p)
	if a.prefsDB != nil {
		if err := a.prefsDB.Save(p); err != nil {
			return fmt.Errorf("save preferences: %w", err)
		}
	}
	a.prefs = p
	a.refreshLocationLocked()
	return nil
}
