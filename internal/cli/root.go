// Package cli implements the fintrack command line client. It keeps its data in
// a SQLite file under --home and remembers the signed-in identity between runs.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fintrack/fintrack/internal/config"
	"github.com/fintrack/fintrack/internal/identity"
	"github.com/fintrack/fintrack/internal/infra"
	"github.com/fintrack/fintrack/internal/ledger"
	"github.com/fintrack/fintrack/internal/logging"
	"github.com/fintrack/fintrack/internal/notification"
)

// DatabaseFile is the SQLite file created under the home directory.
const DatabaseFile = "fintrack.db"

type app struct {
	home      string
	noLatency bool
	verbose   bool

	res    *infra.Resources
	ids    *identity.Service
	ledger *ledger.Service
	sess   *identity.Session
	notes  *notification.Recorder
	logger *slog.Logger
}

// Execute runs the CLI with the process arguments.
func Execute() error {
	return NewRootCommand().Execute()
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&app{})
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:          "fintrack",
		Short:        "Track accounts, transactions and loans from the terminal",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open(cmd.Context(), cmd.ErrOrStderr())
		},
	}

	root.PersistentFlags().StringVar(&a.home, "home", "", "data dir (default ~/.fintrack)")
	root.PersistentFlags().BoolVar(&a.noLatency, "no-latency", false, "skip the simulated round-trip delays")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log store activity to stderr")

	root.AddCommand(
		registerCmd(a), loginCmd(a), logoutCmd(a), whoamiCmd(a),
		accountCmd(a), txCmd(a), loanCmd(a), summaryCmd(a),
	)
	a.finishAfter(root)
	return root
}

// finishAfter wraps every runnable command in the tree so that notifications
// are printed and the store is closed whether or not the command fails.
// cobra skips post-run hooks after a RunE error.
func (a *app) finishAfter(cmd *cobra.Command) {
	for _, sub := range cmd.Commands() {
		a.finishAfter(sub)
	}
	if cmd.RunE == nil {
		return
	}
	run := cmd.RunE
	cmd.RunE = func(c *cobra.Command, args []string) error {
		err := run(c, args)
		a.printNotifications(c.OutOrStdout())
		return errors.Join(err, a.close())
	}
}

func (a *app) open(ctx context.Context, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if a.home == "" {
		dir, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		a.home = filepath.Join(dir, ".fintrack")
	}
	if err := os.MkdirAll(a.home, 0o700); err != nil {
		return err
	}

	a.logger = logging.Discard()
	if a.verbose {
		a.logger = logging.NewText(stderr, "debug")
	}

	res, err := infra.Open(ctx, config.Config{
		KVBackend: config.BackendSQLite,
		KVPath:    filepath.Join(a.home, DatabaseFile),
	})
	if err != nil {
		return fmt.Errorf("open %s: %w", a.home, err)
	}
	a.res = res

	lat := config.DefaultLatency()
	if a.noLatency {
		lat = config.Latency{}
	}
	a.notes = &notification.Recorder{}
	a.ids = identity.NewService(res.Store, identity.Options{
		AuthDelay:    lat.Auth,
		ProfileDelay: lat.Profile,
		RestoreDelay: lat.Restore,
		Logger:       a.logger,
	})
	a.ledger = ledger.NewService(res.Store, ledger.Options{
		Delay:    lat.Ledger,
		Notifier: a.notes,
		Logger:   a.logger,
	})

	sess, err := a.ids.OpenSession(ctx, identity.DefaultSessionSlot).Await(ctx)
	if err != nil {
		return errors.Join(fmt.Errorf("restore session: %w", err), a.close())
	}
	a.sess = sess
	return nil
}

func (a *app) close() error {
	if a.res == nil {
		return nil
	}
	err := a.res.Close()
	a.res = nil
	return err
}

func (a *app) printNotifications(w io.Writer) {
	if a.notes == nil {
		return
	}
	for _, msg := range a.notes.Drain() {
		fmt.Fprintf(w, "* %s\n", msg.Body)
	}
}

// signedIn returns the current identity or a hint to log in.
func (a *app) signedIn() (identity.Identity, error) {
	id, ok := a.sess.Current()
	if !ok {
		return identity.Identity{}, fmt.Errorf("%w: run `fintrack login` first", ledger.ErrUnauthenticated)
	}
	return id, nil
}

// secret returns flagValue, or reads one line from in when the flag is empty.
func secret(flagValue string, in io.Reader, prompt io.Writer) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	fmt.Fprint(prompt, "Password: ")
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	s := strings.TrimRight(line, "\r\n")
	if s == "" {
		return "", fmt.Errorf("%w: password is required", identity.ErrInvalidProfile)
	}
	return s, nil
}
