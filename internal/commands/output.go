package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/saransh1220/portal-notify/internal/modules/notification/domain"
)

func printFeed(w io.Writer, feed domain.Feed) error {
	fmt.Fprintf(w, "%d unread\n", feed.UnreadCount)
	if len(feed.Notifications) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "\t\tID\tCREATED\tTITLE\tMESSAGE")
	for _, n := range feed.Notifications {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", readMarker(n), statusMarker(n), n.ID, formatTime(n.CreatedAt), n.Title, n.Message)
	}
	return tw.Flush()
}

func printNotification(w io.Writer, n domain.Notification) {
	fmt.Fprintf(w, "%s %s  %s  %s\n", statusMarker(n), formatTime(n.CreatedAt), n.Title, n.Message)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printJSONLine writes v as a single line, for streamed output.
func printJSONLine(w io.Writer, v any) error {
	return json.NewEncoder(w).Encode(v)
}

// statusMarker follows the application status carried in data.new_status.
func statusMarker(n domain.Notification) string {
	switch n.Status() {
	case domain.StatusAccepted:
		return "✓"
	case domain.StatusRejected:
		return "✗"
	default:
		return "•"
	}
}

func readMarker(n domain.Notification) string {
	if n.IsRead {
		return " "
	}
	return "●"
}

func formatTime(ts domain.Timestamp) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Local().Format(time.DateTime)
}
