package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/and161185/intakedesk/internal/convert"
	"github.com/and161185/intakedesk/internal/form"
	"github.com/and161185/intakedesk/internal/model"
	"github.com/and161185/intakedesk/internal/output"
)

const perPage = 10

func commandTable() map[string]command {
	approve := command{"", "save the pending changes", cmdApprove}
	quit := command{"", "leave the shell", func(*shell, []string) error { return errQuit }}
	return map[string]command{
		"help":            {"", "list commands", cmdHelp},
		"register":        {"<username> <password> <email> <display name...>", "create an account", cmdRegister},
		"login":           {"<username> <password>", "sign in", cmdLogin},
		"logout":          {"", "sign out", cmdLogout},
		"status":          {"", "show session and record state", cmdStatus},
		"new":             {"", "start a new record", cmdNew},
		"load":            {"<id>", "open a stored record", cmdLoad},
		"show":            {"", "print the form", cmdShow},
		"set":             {"<field> <value...>", "edit a field", cmdSet},
		"door-add":        {"", "add a door", cmdDoorAdd},
		"door-set":        {"<n> <field> <value...>", "edit a door field", cmdDoorSet},
		"door-rm":         {"<n>", "delete a door", cmdDoorRm},
		"same-as-billing": {"", "copy billing address to jobsite", cmdSameAsBilling},
		"review":          {"", "show changes against the stored record", cmdReview},
		"approve":         approve,
		"save":            approve,
		"discard":         {"", "drop pending changes", cmdDiscard},
		"search":          {"[term...]", "filter records; no term shows all", cmdSearch},
		"results":         {"", "print search results", cmdResults},
		"down":            {"", "highlight next search result", cmdDown},
		"up":              {"", "highlight previous search result", cmdUp},
		"enter":           {"", "open the highlighted result", cmdEnter},
		"escape":          {"", "hide search results", cmdEscape},
		"list":            {"[page]", "list records", cmdList},
		"delete":          {"<id>", "delete a record", cmdDelete},
		"ticket":          {"", "service ticket output", cmdTicket},
		"quote":           {"", "quote output", cmdQuote},
		"summary":         {"", "contact and equipment summary", cmdSummary},
		"print":           {"<file.html>", "write the printable page", cmdPrint},
		"email":           {"<quote|invoice|depositReceipt>", "compose link for a customer e-mail", cmdEmail},
		"pdf":             {"[dir]", "write the payment summary PDF", cmdPDF},
		"export":          {"<file.xlsx>", "export listed records to a spreadsheet", cmdExport},
		"location":        {"", "map and street view links for the jobsite", cmdLocation},
		"pref":            {"[key [value]]", "show or change preferences", cmdPref},
		"quit":            quit,
		"exit":            quit,
	}
}

func cmdHelp(sh *shell, _ []string) error {
	names := make([]string, 0, len(sh.commands))
	for n := range sh.commands {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		c := sh.commands[n]
		sh.con.printf("  %-16s %-34s %s\n", n, c.args, c.help)
	}
	return nil
}

func cmdRegister(sh *shell, args []string) error {
	if len(args) < 4 {
		return errUsage
	}
	ctx, cancel := sh.ctx()
	defer cancel()
	id, err := sh.reg.Register(ctx, convert.Credentials{
		Username:    args[0],
		Password:    args[1],
		Email:       args[2],
		DisplayName: strings.Join(args[3:], " "),
	})
	if err != nil {
		return err
	}
	sh.con.printf("registered user %s; now run login\n", id)
	return nil
}

func cmdLogin(sh *shell, args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	ctx, cancel := sh.ctx()
	defer cancel()
	return sh.app.Login(ctx, args[0], args[1])
}

func cmdLogout(sh *shell, _ []string) error {
	if err := sh.app.Logout(); err != nil {
		return err
	}
	sh.con.printf("signed out\n")
	return nil
}

func cmdStatus(sh *shell, _ []string) error {
	if s := sh.app.Session(); s != nil {
		sh.con.printf("user:     %s <%s>\n", s.DisplayName, s.Email)
	} else {
		sh.con.printf("user:     (signed out)\n")
	}
	orig := sh.app.Original()
	id := orig.ID
	if id == "" {
		id = "(unsaved)"
	}
	sh.con.printf("record:   %s %s\n", id, sh.app.Field("docId"))
	sh.con.printf("policy:   %s\n", sh.app.Policy())
	sh.con.printf("modified: %t\n", sh.app.Dirty())
	sh.con.printf("review:   %t\n", sh.app.Surface().Visible)
	sh.con.printf("records:  %d\n", len(sh.app.Records()))
	return nil
}

func cmdNew(sh *shell, _ []string) error {
	id, err := sh.app.NewRecord()
	if err != nil {
		return err
	}
	sh.con.printf("new record %s\n", id)
	return nil
}

func cmdLoad(sh *shell, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	ctx, cancel := sh.ctx()
	defer cancel()
	if err := sh.app.LoadRecord(ctx, args[0]); err != nil {
		return err
	}
	sh.con.printf("loaded %s\n", args[0])
	return nil
}

func cmdShow(sh *shell, _ []string) error {
	r := sh.app.Current()
	for _, f := range form.BaseFields {
		if v := r.Get(f); v != "" {
			sh.con.printf("  %-22s %s\n", f, v)
		}
	}
	for i, d := range r.Equipment {
		sh.con.printf("  Door %d\n", i+1)
		for _, f := range slices.Concat(form.EquipmentFields, []string{form.DoorSizeField}) {
			if v := d[f]; v != "" {
				sh.con.printf("    %-20s %s\n", f, v)
			}
		}
	}
	return nil
}

func cmdSet(sh *shell, args []string) error {
	if len(args) < 1 {
		return errUsage
	}
	return sh.app.Set(args[0], strings.Join(args[1:], " "))
}

// doorIndex parses a 1-based door number.
func doorIndex(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid door number %q", s)
	}
	return n - 1, nil
}

func cmdDoorAdd(sh *shell, _ []string) error {
	sh.con.printf("Door %d added\n", sh.app.AddDoor()+1)
	return nil
}

func cmdDoorSet(sh *shell, args []string) error {
	if len(args) < 2 {
		return errUsage
	}
	i, err := doorIndex(args[0])
	if err != nil {
		return err
	}
	return sh.app.SetDoor(i, args[1], strings.Join(args[2:], " "))
}

func cmdDoorRm(sh *shell, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	i, err := doorIndex(args[0])
	if err != nil {
		return err
	}
	return sh.app.DeleteDoor(i)
}

func cmdSameAsBilling(sh *shell, _ []string) error {
	sh.app.CopyBillingToJobsite()
	return nil
}

func cmdReview(sh *shell, _ []string) error {
	sh.app.Review()
	sh.con.printf("%s\n", sh.app.ReviewText())
	return nil
}

func cmdApprove(sh *shell, _ []string) error {
	ctx, cancel := sh.ctx()
	defer cancel()
	id, err := sh.app.Approve(ctx)
	if err != nil {
		return err
	}
	sh.con.Notify("✅ Record Saved! (" + id + ")")
	return nil
}

func cmdDiscard(sh *shell, _ []string) error {
	sh.app.Discard()
	sh.con.printf("changes discarded\n")
	return nil
}

func cmdSearch(sh *shell, args []string) error {
	return sh.app.Search(strings.Join(args, " "))
}

func recordLine(r model.Record) string {
	edited := ""
	if !r.EditedAt.IsZero() {
		edited = r.EditedAt.Local().Format(time.DateTime)
	}
	return fmt.Sprintf("%-22s %-24s %-32s %s", r.ID, r.Get("name"), r.Get("jobsite"), edited)
}

func cmdResults(sh *shell, _ []string) error {
	res := sh.app.SearchResults()
	if len(res.Items) == 0 {
		sh.con.printf("no results\n")
		return nil
	}
	for i, r := range res.Items {
		mark := " "
		if i == res.Active {
			mark = ">"
		}
		sh.con.printf("%s %s\n", mark, recordLine(r))
	}
	return nil
}

func cmdDown(sh *shell, _ []string) error {
	sh.app.SearchDown()
	return cmdResults(sh, nil)
}

func cmdUp(sh *shell, _ []string) error {
	sh.app.SearchUp()
	return cmdResults(sh, nil)
}

func cmdEnter(sh *shell, _ []string) error {
	ctx, cancel := sh.ctx()
	defer cancel()
	return sh.app.SearchEnter(ctx)
}

func cmdEscape(sh *shell, _ []string) error {
	sh.app.SearchEscape()
	return nil
}

func cmdList(sh *shell, args []string) error {
	page := 1
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return errUsage
		}
		page = n
	}
	recs, pages := sh.app.Page(page, perPage)
	for _, r := range recs {
		sh.con.printf("  %s\n", recordLine(r))
	}
	sh.con.printf("page %d of %d\n", page, max(pages, 1))
	return nil
}

func cmdDelete(sh *shell, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	ctx, cancel := sh.ctx()
	defer cancel()
	if err := sh.app.Delete(ctx, args[0]); err != nil {
		return err
	}
	sh.con.printf("deleted %s\n", args[0])
	return nil
}

func cmdTicket(sh *shell, _ []string) error {
	sh.app.ServiceTicket()
	return nil
}

func cmdQuote(sh *shell, _ []string) error {
	sh.app.Quote()
	return nil
}

func cmdSummary(sh *shell, _ []string) error {
	s := sh.app.Summary()
	if s == "" {
		s = "nothing to summarize\n"
	}
	sh.con.printf("%s", s)
	return nil
}

func cmdPrint(sh *shell, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	f, err := os.Create(args[0])
	if err != nil {
		return err
	}
	if err := sh.app.PrintHTML(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	sh.con.printf("wrote %s\n", args[0])
	return nil
}

func cmdEmail(sh *shell, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	link, err := sh.app.EmailLink(output.EmailKind(args[0]))
	if err != nil {
		return err
	}
	sh.con.printf("%s\n", link)
	return nil
}

func cmdPDF(sh *shell, args []string) error {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	path, err := sh.app.PaymentPDF(dir)
	if err != nil {
		return err
	}
	sh.con.printf("wrote %s\n", path)
	return nil
}

func cmdExport(sh *shell, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	if filepath.Ext(args[0]) != ".xlsx" {
		return errors.New("export file must end in .xlsx")
	}
	f, err := os.Create(args[0])
	if err != nil {
		return err
	}
	n, err := sh.app.Export(f)
	if err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	sh.con.printf("exported %d records to %s\n", n, args[0])
	return nil
}

func cmdLocation(sh *shell, _ []string) error {
	loc, ok := sh.app.Location()
	if !ok {
		sh.con.printf("no preview: set a jobsite address and the mapsApiKey preference\n")
		return nil
	}
	sh.con.printf("map:         %s\nstreet view: %s\n", loc.MapEmbed, loc.StreetView)
	return nil
}

func cmdPref(sh *shell, args []string) error {
	switch len(args) {
	case 0:
		p := sh.app.Preferences()
		sh.con.printf("  darkMode      %t\n  mapsApiKey    %s\n  activeTab     %s\n  keepInitials  %t\n",
			p.DarkMode, p.MapsAPIKey, p.ActiveTab, p.KeepInitials)
		return nil
	case 1:
		return errUsage
	}
	key, value := args[0], strings.Join(args[1:], " ")
	var apply func(*model.Preferences)
	switch key {
	case "darkMode", "keepInitials":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s wants true or false", key)
		}
		if key == "darkMode" {
			apply = func(p *model.Preferences) { p.DarkMode = b }
		} else {
			apply = func(p *model.Preferences) { p.KeepInitials = b }
		}
	case "mapsApiKey":
		apply = func(p *model.Preferences) { p.MapsAPIKey = value }
	case "activeTab":
		apply = func(p *model.Preferences) { p.ActiveTab = value }
	default:
		return fmt.Errorf("unknown preference %q", key)
	}
	return sh.app.UpdatePreferences(apply)
}
