package cli

import (
	"bufio"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubExec struct {
	loggedIn bool
	calls    []string
}

func (s *stubExec) isLoggedIn() bool { return s.loggedIn }

func (s *stubExec) record(name string) error {
	s.calls = append(s.calls, name)
	return nil
}

func (s *stubExec) Register(ctx context.Context) error { return s.record("register") }
func (s *stubExec) Login(ctx context.Context) error    { return s.record("login") }
func (s *stubExec) List(ctx context.Context) error     { return s.record("list") }
func (s *stubExec) Show(ctx context.Context) error     { return s.record("show") }
func (s *stubExec) Add(ctx context.Context) error      { return s.record("add") }
func (s *stubExec) Delete(ctx context.Context) error   { return s.record("delete") }
func (s *stubExec) Refresh(ctx context.Context) error  { return s.record("refresh") }
func (s *stubExec) Backup(ctx context.Context) error   { return s.record("backup") }
func (s *stubExec) Restore(ctx context.Context) error  { return s.record("restore") }

func runScript(t *testing.T, a execIface, script string) []string {
	t.Helper()

	var outputs []string
	orig := printlnFn
	printlnFn = func(args ...any) (int, error) {
		for _, arg := range args {
			if s, ok := arg.(string); ok {
				outputs = append(outputs, s)
			}
		}
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = orig })

	scanner := bufio.NewScanner(strings.NewReader(script))
	runREPL(a, func() string { return "test" }, scanner)
	return outputs
}

func TestRunREPL_DispatchesCommands(t *testing.T) {
	s := &stubExec{loggedIn: true}
	runScript(t, s, "list\nshow\nadd\ndelete\nrefresh\nbackup\nrestore\nexit\n")

	assert.Equal(t, []string{"list", "show", "add", "delete", "refresh", "backup", "restore"}, s.calls)
}

func TestRunREPL_Aliases(t *testing.T) {
	s := &stubExec{}
	runScript(t, s, "l\ndel\nquit\n")

	assert.Equal(t, []string{"list", "delete"}, s.calls)
}

func TestRunREPL_UnknownCommand(t *testing.T) {
	s := &stubExec{}
	outputs := runScript(t, s, "frobnicate\nexit\n")

	assert.Empty(t, s.calls)
	assert.Contains(t, outputs, "Unknown command:")
}

func TestRunREPL_HelpDependsOnLogin(t *testing.T) {
	anon := runScript(t, &stubExec{loggedIn: false}, "help\nexit\n")
	authed := runScript(t, &stubExec{loggedIn: true}, "help\nexit\n")

	assert.Contains(t, strings.Join(anon, "\n"), "register")
	assert.Contains(t, strings.Join(authed, "\n"), "backup")
}

func TestRunREPL_ExitsOnEOF(t *testing.T) {
	s := &stubExec{}
	runScript(t, s, "list\n") // no exit: scanner EOF ends the loop

	assert.Equal(t, []string{"list"}, s.calls)
}
