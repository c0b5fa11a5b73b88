package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/and161185/intakedesk/internal/app"
	"github.com/and161185/intakedesk/internal/convert"
	"github.com/and161185/intakedesk/internal/errs"
)

const commandTimeout = 30 * time.Second

var (
	errQuit  = errors.New("quit")
	errUsage = errors.New("usage")
)

type registrar interface {
	Register(ctx context.Context, cred convert.Credentials) (string, error)
}

type command struct {
	args string
	help string
	run  func(sh *shell, args []string) error
}

// shell reads commands line by line and dispatches them to the session.
type shell struct {
	app      *app.App
	reg      registrar
	con      *console
	commands map[string]command
}

func newShell(a *app.App, reg registrar, con *console) *shell {
	return &shell{app: a, reg: reg, con: con, commands: commandTable()}
}

func (sh *shell) run() {
	sh.con.printf("Type \"help\" for commands.\n")
	for {
		sh.con.prompt("intake> ")
		line, ok := sh.con.readLine()
		if !ok {
			sh.con.printf("\n")
			return
		}
		if err := sh.exec(line); err != nil {
			if errors.Is(err, errQuit) {
				return
			}
			sh.con.errorf("%s", describe(err))
		}
	}
}

// exec runs one input line. Blank lines and # comments are ignored.
func (sh *shell) exec(line string) error {
	args, err := splitArgs(line)
	if err != nil {
		return err
	}
	if len(args) == 0 || strings.HasPrefix(args[0], "#") {
		return nil
	}
	name := strings.ToLower(args[0])
	cmd, ok := sh.commands[name]
	if !ok {
		return fmt.Errorf("unknown command %q (try \"help\")", args[0])
	}
	err = cmd.run(sh, args[1:])
	if errors.Is(err, errUsage) {
		return fmt.Errorf("usage: %s %s", name, cmd.args)
	}
	return err
}

func (sh *shell) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), commandTimeout)
}

// describe turns an error into the message shown to the user.
func describe(err error) string {
	var pe *errs.PersistenceError
	switch {
	case errors.Is(err, app.ErrDeclined):
		return "Cancelled."
	case errors.Is(err, errs.ErrUnauthenticated):
		return "You must be logged in."
	case errors.Is(err, errs.ErrUnauthorized):
		return "Invalid username or password."
	case errors.Is(err, errs.ErrAlreadyExists):
		return "That username is taken."
	case errors.Is(err, errs.ErrNotFound):
		return "Record not found."
	case errors.Is(err, errs.ErrRateLimited):
		return "Too many attempts, try again later."
	case errors.As(err, &pe):
		return "❌ " + pe.Error()
	default:
		return err.Error()
	}
}

// splitArgs splits a line on whitespace. Single or double quotes group
// words; there are no escapes.
func splitArgs(line string) ([]string, error) {
	var (
		out   []string
		cur   strings.Builder
		quote rune
		inArg bool
	)
	for _, r := range line {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
				continue
			}
			cur.WriteRune(r)
		case r == '"' || r == '\'':
			quote = r
			inArg = true
		case r == ' ' || r == '\t':
			if inArg {
				out = append(out, cur.String())
				cur.Reset()
				inArg = false
			}
		default:
			cur.WriteRune(r)
			inArg = true
		}
	}
	if quote != 0 {
		return nil, errors.New("unterminated quote")
	}
	if inArg {
		out = append(out, cur.String())
	}
	return out, nil
}
