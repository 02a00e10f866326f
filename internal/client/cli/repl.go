package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	List(ctx context.Context) error
	Show(ctx context.Context) error
	Add(ctx context.Context) error
	Delete(ctx context.Context) error
	Refresh(ctx context.Context) error
	Backup(ctx context.Context) error
	Restore(ctx context.Context) error
}

// runREPL starts a simple read–eval–print loop for the PasteKeeper CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Commands available without login: show, refresh, register, login. The
// remaining commands operate on the logged-in user's own pastes.
//
// Any errors returned by command handlers are ignored here; handlers should
// log their own errors. This keeps the REPL loop resilient and focused on I/O.
func runREPL(a execIface, statusFn func() string, scanner *bufio.Scanner) {
	ctx := context.Background()

	for {
		printlnFn(fmt.Sprintf("pk> %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: (l)ist, show, add, delete, refresh, backup, restore, exit")
			} else {
				printlnFn("Available commands: show, refresh, register, login, exit")
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "show":
			_ = a.Show(ctx)

		case "add":
			_ = a.Add(ctx)

		case "delete", "del":
			_ = a.Delete(ctx)

		case "refresh":
			_ = a.Refresh(ctx)

		case "backup":
			_ = a.Backup(ctx)

		case "restore":
			_ = a.Restore(ctx)

		case "l", "list":
			_ = a.List(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
