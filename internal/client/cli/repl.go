package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/gophauth/internal/client/services"
)

const (
	msgBusy      = "Please wait, a request is in progress..."
	msgLoggedIn  = "You are already logged in"
	helpAnon     = "Available commands: login, register, exit"
	helpSignedIn = "Available commands: profile, edit, logout, exit"
)

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	currentView() View
	busy() bool
	Login(ctx context.Context) error
	Register(ctx context.Context) error
	Profile(ctx context.Context) error
	EditProfile(ctx context.Context) error
	Logout(ctx context.Context) error
}

// runREPL starts a simple read–eval–print loop.
//
// It reads a line from reader, parses the first token as the command, and
// dispatches to methods on 'a'. The loop exits on EOF or when the user types
// "exit" or "quit".
//
// Commands
//
//	Not logged in:
//	  - help           show available commands
//	  - login          sign in
//	  - register       create an account
//	  - exit | quit    leave the program
//
//	Logged in:
//	  - help           show available commands
//	  - profile        show the dashboard
//	  - edit           edit name, surname and phone
//	  - logout         log out
//	  - exit | quit    leave the program
//
// While the session is loading every command except help and exit is
// refused. Handler errors are reported by the handlers themselves.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader, w io.Writer) {
	for {
		fmt.Fprintf(w, "auth %s> ", statusFn())
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		signedIn := a.currentView() == ViewDashboard

		switch cmd {
		case "help":
			if signedIn {
				fmt.Fprintln(w, helpSignedIn)
			} else {
				fmt.Fprintln(w, helpAnon)
			}
			continue

		case "exit", "quit":
			fmt.Fprintln(w, "Bye!")
			return
		}

		if a.busy() {
			fmt.Fprintln(w, msgBusy)
			continue
		}

		switch cmd {
		case "login", "register":
			if signedIn {
				fmt.Fprintln(w, msgLoggedIn)
				continue
			}
			if cmd == "login" {
				_ = a.Login(ctx)
			} else {
				_ = a.Register(ctx)
			}

		case "profile", "edit", "logout":
			if !signedIn {
				fmt.Fprintln(w, services.MsgNotAuthenticated)
				continue
			}
			switch cmd {
			case "profile":
				_ = a.Profile(ctx)
			case "edit":
				_ = a.EditProfile(ctx)
			default:
				_ = a.Logout(ctx)
			}

		default:
			fmt.Fprintln(w, "Unknown command:", cmd)
		}
	}
}
