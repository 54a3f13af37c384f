// Package cli implements the modularctl commands.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"time"

	"github.com/modular-admin/modular-admin/internal/client"
)

// Env carries the process surroundings so commands stay testable.
type Env struct {
	Stdout          io.Writer
	Stderr          io.Writer
	CredentialsPath string
	HTTPClient      *http.Client
	Getenv          func(string) string
	Now             func() time.Time
}

// DefaultEnv binds Env to the real process.
func DefaultEnv() *Env {
	return &Env{
		Stdout:          os.Stdout,
		Stderr:          os.Stderr,
		CredentialsPath: client.DefaultCredentialsPath(),
		Getenv:          os.Getenv,
		Now:             time.Now,
	}
}

// Command is one modularctl subcommand.
type Command struct {
	Name        string
	Description string
	Run         func(ctx context.Context, env *Env, args []string) error
}

// CLI dispatches to subcommands.
type CLI struct {
	env      *Env
	commands map[string]*Command
}

// ErrUsage marks invalid invocations.
var ErrUsage = errors.New("usage")

// New builds the command tree.
func New(env *Env) *CLI {
	c := &CLI{env: env, commands: make(map[string]*Command)}
	for _, cmd := range []*Command{
		newSignInCommand(),
		newSignOutCommand(),
		newGetCommand(),
		newCreateCommand(),
		newUpdateCommand(),
		newDeleteCommand(),
		newResetPasswordCommand(),
		newJobsCommand(),
	} {
		c.commands[cmd.Name] = cmd
	}
	return c
}

// Execute runs the subcommand named by args[0].
func (c *CLI) Execute(ctx context.Context, args []string) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		c.usage()
		return nil
	}
	cmd, ok := c.commands[args[0]]
	if !ok {
		c.usage()
		return fmt.Errorf("%w: unknown command %q", ErrUsage, args[0])
	}
	return cmd.Run(ctx, c.env, args[1:])
}

func (c *CLI) usage() {
	fmt.Fprintf(c.env.Stdout, "Usage: modularctl <command> [flags]\n\nCommands:\n")
	names := make([]string, 0, len(c.commands))
	for name := range c.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(c.env.Stdout, "  %-15s %s\n", name, c.commands[name].Description)
	}
}

func newFlagSet(env *Env, name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(env.Stderr)
	return fs
}

// session loads stored credentials and returns an authenticated client.
func session(env *Env) (*client.Client, client.Credentials, error) {
	creds, err := client.LoadCredentials(env.CredentialsPath)
	if err != nil {
		if errors.Is(err, client.ErrNoCredentials) {
			return nil, creds, errors.New("not signed in; run modularctl signin")
		}
		return nil, creds, err
	}
	if creds.Expired(env.Now()) {
		return nil, creds, errors.New("token expired; run modularctl signin")
	}
	return client.New(creds.Server, client.WithToken(creds.Token), client.WithHTTPClient(env.HTTPClient)), creds, nil
}
