package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// cli owns the command tree and opens the app lazily, so help and usage
// errors never touch the database or key store.
type cli struct {
	open func(ctx context.Context) (*app, error)

	app   *app
	input *bufio.Reader

	// readSecret reads one line without echo. It is nil when stdin is not a
	// terminal, and secrets are then read like any other line.
	readSecret func() (string, error)
}

func (c *cli) run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	defer c.close()

	c.input = bufio.NewReader(stdin)
	if c.readSecret == nil {
		c.readSecret = terminalSecretReader(stdin)
	}
	root := c.rootCmd()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

func (c *cli) get(ctx context.Context) (*app, error) {
	if c.app != nil {
		return c.app, nil
	}
	a, err := c.open(ctx)
	if err != nil {
		return nil, err
	}
	c.app = a
	return a, nil
}

func (c *cli) close() {
	if c.app == nil {
		return
	}
	if err := c.app.close(); err != nil {
		c.app.logger.Error("error closing database", "error", err)
	}
	c.app = nil
}

// prompt reads one line for a value that was not given as a flag.
func (c *cli) prompt(cmd *cobra.Command, label string) (string, error) {
	fmt.Fprintf(cmd.ErrOrStderr(), "%s: ", label)
	line, err := c.input.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("reading %s: %w", label, err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// promptSecret reads a password. On a terminal the input is not echoed.
func (c *cli) promptSecret(cmd *cobra.Command, label string) (string, error) {
	if c.readSecret == nil {
		return c.prompt(cmd, label)
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "%s: ", label)
	secret, err := c.readSecret()
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", label, err)
	}
	return secret, nil
}

// secretFlagOrPrompt returns the flag value, prompting without echo when it
// is empty.
func (c *cli) secretFlagOrPrompt(cmd *cobra.Command, value, label string) (string, error) {
	if value != "" {
		return value, nil
	}
	return c.promptSecret(cmd, label)
}

func terminalSecretReader(stdin io.Reader) func() (string, error) {
	f, ok := stdin.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return nil
	}
	return func() (string, error) {
		b, err := term.ReadPassword(int(f.Fd()))
		return string(b), err
	}
}

// flagOrPrompt returns the flag value, prompting when it is empty.
func (c *cli) flagOrPrompt(cmd *cobra.Command, value, label string) (string, error) {
	if value != "" {
		return value, nil
	}
	return c.prompt(cmd, label)
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "vaultpay",
		Short:         "VaultPay account client",
		Long:          "vaultpay signs in to VaultPay, keeps the session token encrypted at rest and manages the account.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		c.loginCmd(),
		c.logoutCmd(),
		c.statusCmd(),
		c.profileCmd(),
		c.registerCmd(),
		c.verifyEmailCmd(),
		c.forgotPasswordCmd(),
		c.resetPasswordCmd(),
		c.mfaCmd(),
	)
	return root
}
