package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/saransh1220/portal-notify/internal/shared/infrastructure/credential"
	"github.com/urfave/cli/v3"
)

// ErrNoKeyring is returned by login and logout when no keyring backend is
// available.
var ErrNoKeyring = errors.New("no keyring backend available")

type LoginCmd struct {
	flags *Flags
	in    io.Reader
}

// NewLoginCmd creates the login and logout commands
func NewLoginCmd(flags *Flags) *LoginCmd {
	return &LoginCmd{flags: flags, in: os.Stdin}
}

// Register adds the login and logout commands to the application
func (cmd *LoginCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands,
		&cli.Command{
			Name:      "login",
			Usage:     "Store a session token in the system keyring",
			UsageText: "notify login [token]",
			Description: `Saves the bearer token used for the REST API and the push stream.

The token is read from the first argument, or from stdin when no argument
is given. Later commands pick it up when --token and NOTIFY_TOKEN are unset.`,
			Action: cmd.login,
		},
		&cli.Command{
			Name:      "logout",
			Usage:     "Remove the stored session token",
			UsageText: "notify logout",
			Action:    cmd.logout,
		},
	)

	return app
}

func (cmd *LoginCmd) login(ctx context.Context, c *cli.Command) error {
	if cmd.flags.Keyring == nil {
		return ErrNoKeyring
	}

	token := c.Args().First()
	if token == "" {
		line, err := bufio.NewReader(cmd.in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("read token: %w", err)
		}
		token = line
	}

	token, err := credential.Static(token).Token()
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}

	if credential.Expired(token, time.Now()) {
		cmd.flags.Logger.Warn().Msg("token is already expired")
	}

	if err := cmd.flags.Keyring.Save(token); err != nil {
		return err
	}
	fmt.Fprintln(cmd.flags.Out, "token saved")
	return nil
}

func (cmd *LoginCmd) logout(ctx context.Context, c *cli.Command) error {
	if cmd.flags.Keyring == nil {
		return ErrNoKeyring
	}
	if err := cmd.flags.Keyring.Delete(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.flags.Out, "token removed")
	return nil
}
