package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/thepower/tpgo/cli/app"
	"github.com/thepower/tpgo/cli/input"
	"github.com/thepower/tpgo/internal/fakechain"
	"github.com/urfave/cli"
	"golang.org/x/term"
)

const testChain = 3

// executor represents context for a test instance.
// It can be safely used in multiple tests, but not in parallel.
type executor struct {
	// CLI is a cli application to test.
	CLI *cli.App
	// Chain is a fake node (can be empty).
	Chain *fakechain.FakeChain
	// Config is the path to the configuration file pointing to Chain.
	Config string
	// Dir is a temporary directory for wallets and the journal.
	Dir string
	// Out contains command output.
	Out *bytes.Buffer
	// Err contains command errors.
	Err *bytes.Buffer
	// In contains command input.
	In *bytes.Buffer
}

func newExecutor(t *testing.T, needChain bool) *executor {
	e := &executor{
		CLI: app.New(),
		Dir: t.TempDir(),
		Out: bytes.NewBuffer(nil),
		Err: bytes.NewBuffer(nil),
		In:  bytes.NewBuffer(nil),
	}
	e.CLI.Writer = e.Out
	e.CLI.ErrWriter = e.Err
	if needChain {
		e.Chain = fakechain.New(t, testChain, 3, 2)
		e.Config = filepath.Join(e.Dir, "tpgo.yml")
		cfg := fmt.Sprintf(`ProtocolConfiguration:
  Chain: %d
  Endpoint: "%s"
  PoWDifficulty: 4
ApplicationConfiguration:
  LogLevel: error
  LogPath: "%s"
  DBConfiguration:
    Type: boltdb
    BoltDBOptions:
      FilePath: "%s"
  Poll:
    Interval: 1ms
    StatusAttempts: 5
    BlockAttempts: 3
`, testChain, e.Chain.URL(), filepath.Join(e.Dir, "tpgo.log"), filepath.Join(e.Dir, "journal.bolt"))
		require.NoError(t, os.WriteFile(e.Config, []byte(cfg), 0o644))
	}
	t.Cleanup(func() {
		input.Terminal = nil
	})
	return e
}

func (e *executor) getNextLine(t *testing.T) string {
	line, err := e.Out.ReadString('\n')
	require.NoError(t, err)
	return strings.TrimSuffix(line, "\n")
}

func (e *executor) checkNextLine(t *testing.T, expected string) {
	line := e.getNextLine(t)
	require.Regexp(t, expected, line)
}

func (e *executor) checkEOF(t *testing.T) {
	_, err := e.Out.ReadString('\n')
	require.True(t, errors.Is(err, io.EOF))
}

func setExitFunc() <-chan int {
	ch := make(chan int, 1)
	cli.OsExiter = func(code int) {
		ch <- code
	}
	return ch
}

func checkExit(t *testing.T, ch <-chan int, code int) {
	select {
	case c := <-ch:
		require.Equal(t, code, c)
	default:
		if code != 0 {
			require.Fail(t, "no exit was called")
		}
	}
}

// RunWithError runs command and checks that is exits with error.
func (e *executor) RunWithError(t *testing.T, args ...string) {
	ch := setExitFunc()
	require.Error(t, e.run(args...))
	checkExit(t, ch, 1)
}

// RunWithErrorCheck runs command and checks the error message.
func (e *executor) RunWithErrorCheck(t *testing.T, msg string, args ...string) {
	ch := setExitFunc()
	err := e.run(args...)
	require.Error(t, err)
	require.Contains(t, err.Error(), msg)
	checkExit(t, ch, 1)
}

// Run runs command and checks that there were no errors.
func (e *executor) Run(t *testing.T, args ...string) {
	ch := setExitFunc()
	require.NoError(t, e.run(args...))
	checkExit(t, ch, 0)
}

func (e *executor) run(args ...string) error {
	e.Out.Reset()
	e.Err.Reset()
	input.Terminal = term.NewTerminal(input.ReadWriter{
		Reader: e.In,
		Writer: io.Discard,
	}, "")
	err := e.CLI.Run(args)
	input.Terminal = nil
	e.In.Reset()
	return err
}
