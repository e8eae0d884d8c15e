package commands

import (
	"context"
	"fmt"

	"github.com/saransh1220/portal-notify/internal/modules/notification"
	"github.com/urfave/cli/v3"
)

type ListCmd struct {
	flags *Flags

	// flags
	jsonOutput bool
	unreadOnly bool
}

// NewListCmd creates a new list command
func NewListCmd(flags *Flags) *ListCmd {
	return &ListCmd{flags: flags}
}

// Register adds the list command to the application
func (cmd *ListCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "list",
		Aliases:   []string{"ls"},
		Usage:     "Show the notification feed",
		UsageText: "notify list [--json] [--unread]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output the feed as JSON",
				Destination: &cmd.jsonOutput,
			},
			&cli.BoolFlag{
				Name:        "unread",
				Usage:       "only show unread notifications",
				Destination: &cmd.unreadOnly,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *ListCmd) run(ctx context.Context, c *cli.Command) error {
	m, err := cmd.flags.newModule(notification.Deps{})
	if err != nil {
		return fmt.Errorf("setup: %w", err)
	}

	feed := m.Sync().FetchAll(ctx)

	if cmd.unreadOnly {
		kept := feed.Notifications[:0]
		for _, n := range feed.Notifications {
			if !n.IsRead {
				kept = append(kept, n)
			}
		}
		feed.Notifications = kept
	}

	if cmd.jsonOutput {
		return printJSON(cmd.flags.Out, feed)
	}
	return printFeed(cmd.flags.Out, feed)
}
