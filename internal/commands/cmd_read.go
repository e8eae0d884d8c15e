package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/saransh1220/portal-notify/internal/modules/notification"
	"github.com/urfave/cli/v3"
)

// ErrNotAcknowledged is returned when the local state was updated but the
// server did not confirm the change.
var ErrNotAcknowledged = errors.New("server did not acknowledge the change")

type ReadCmd struct {
	flags *Flags
}

// NewReadCmd creates the read and read-all commands
func NewReadCmd(flags *Flags) *ReadCmd {
	return &ReadCmd{flags: flags}
}

// Register adds the read and read-all commands to the application
func (cmd *ReadCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands,
		&cli.Command{
			Name:      "read",
			Usage:     "Mark one notification as read",
			UsageText: "notify read <id>",
			Action:    cmd.runOne,
		},
		&cli.Command{
			Name:      "read-all",
			Usage:     "Mark every notification as read",
			UsageText: "notify read-all",
			Action:    cmd.runAll,
		},
	)

	return app
}

func (cmd *ReadCmd) runOne(ctx context.Context, c *cli.Command) error {
	id := c.Args().First()
	if id == "" {
		return fmt.Errorf("notification id is required")
	}

	m, err := cmd.flags.newModule(notification.Deps{})
	if err != nil {
		return fmt.Errorf("setup: %w", err)
	}

	if !m.Sync().MarkRead(ctx, id) {
		return fmt.Errorf("mark %s read: %w", id, ErrNotAcknowledged)
	}
	fmt.Fprintf(cmd.flags.Out, "marked %s as read\n", id)
	return nil
}

func (cmd *ReadCmd) runAll(ctx context.Context, c *cli.Command) error {
	m, err := cmd.flags.newModule(notification.Deps{})
	if err != nil {
		return fmt.Errorf("setup: %w", err)
	}

	if !m.Sync().MarkAllRead(ctx) {
		return fmt.Errorf("mark all read: %w", ErrNotAcknowledged)
	}
	fmt.Fprintln(cmd.flags.Out, "marked all notifications as read")
	return nil
}
