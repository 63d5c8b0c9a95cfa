package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/graphplanner/internal/graph"
	"github.com/teemow/graphplanner/internal/ics"
	"github.com/teemow/graphplanner/internal/msgraph"
	"github.com/teemow/graphplanner/internal/server"
)

func newCalendarCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Work with the Outlook calendar",
	}

	cmd.AddCommand(newCalendarWeekCmd(root))
	cmd.AddCommand(newCalendarCreateCmd(root))
	return cmd
}

// timeZoneFor picks the flag value, then the configured zone, then the
// mailbox zone.
func timeZoneFor(ctx context.Context, sc *server.ServerContext, svc *graph.Service, flag string) (string, error) {
	if tz := strings.TrimSpace(flag); tz != "" {
		return tz, nil
	}
	if tz := sc.Config().TimeZone; tz != "" {
		return tz, nil
	}
	return svc.DefaultTimeZone(ctx)
}

func newCalendarWeekCmd(root *rootOptions) *cobra.Command {
	var (
		timeZone string
		icsFile  string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "week",
		Short: "Show the events of the current week",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			sc, svc, err := root.service(ctx)
			if err != nil {
				return err
			}
			defer sc.Shutdown()

			tz, err := timeZoneFor(ctx, sc, svc, timeZone)
			if err != nil {
				return err
			}
			if icsFile != "" {
				events, err := svc.ExportWeekCalendar(ctx, tz)
				if err != nil {
					return err
				}
				doc, err := ics.Export(events, time.Now())
				if err != nil {
					return err
				}
				if icsFile == "-" {
					_, err = io.WriteString(cmd.OutOrStdout(), doc)
					return err
				}
				if err := os.WriteFile(icsFile, []byte(doc), 0o644); err != nil {
					return fmt.Errorf("failed to write %s: %w", icsFile, err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d events to %s\n", len(events), icsFile)
				return nil
			}

			events, err := svc.GetWeekCalendar(ctx, tz)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), events)
			}
			return printEvents(cmd.OutOrStdout(), events, tz)
		},
	}

	cmd.Flags().StringVar(&timeZone, "time-zone", "", "IANA or Windows time zone (default: configured, then mailbox time zone)")
	cmd.Flags().StringVar(&icsFile, "ics", "", "Write the week as an iCalendar file ('-' for stdout)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the events as JSON")
	return cmd
}

func printEvents(w io.Writer, events []msgraph.Event, tz string) error {
	if len(events) == 0 {
		_, err := fmt.Fprintln(w, "No events this week.")
		return err
	}

	loc, err := graph.ResolveLocation(tz)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tSUBJECT\tORGANIZER")
	for _, ev := range events {
		when := "?"
		if start, err := ev.Start.Time(); err == nil {
			when = start.In(loc).Format("Mon 02 Jan 15:04")
			if end, err := ev.End.Time(); err == nil {
				when += "-" + end.In(loc).Format("15:04")
			}
		}
		organizer := ""
		if ev.Organizer != nil {
			organizer = ev.Organizer.EmailAddress.Name
			if organizer == "" {
				organizer = ev.Organizer.EmailAddress.Address
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", when, ev.Subject, organizer)
	}
	return tw.Flush()
}

func newCalendarCreateCmd(root *rootOptions) *cobra.Command {
	var (
		subject   string
		start     string
		end       string
		timeZone  string
		attendees string
		body      string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an event and invite attendees",
		Example: `  graphplanner calendar create --subject "Planning" \
    --start 2024-03-12T09:00 --end 2024-03-12T10:00 \
    --attendees "bob@contoso.com; carol@contoso.com"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			startAt, err := graph.ParseWallClock("start", start)
			if err != nil {
				return err
			}
			endAt, err := graph.ParseWallClock("end", end)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			sc, svc, err := root.service(ctx)
			if err != nil {
				return err
			}
			defer sc.Shutdown()

			tz, err := timeZoneFor(ctx, sc, svc, timeZone)
			if err != nil {
				return err
			}

			event, err := graph.NewEvent{
				Subject:   subject,
				Attendees: graph.ParseAttendees(attendees),
				Start:     startAt,
				End:       endAt,
				TimeZone:  tz,
				Body:      body,
			}.Event()
			if err != nil {
				return err
			}

			created, err := svc.CreateEvent(ctx, event)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created event %q (%s)\n", created.Subject, created.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "Event subject")
	cmd.Flags().StringVar(&start, "start", "", "Start as wall-clock time, e.g. 2024-03-12T09:00")
	cmd.Flags().StringVar(&end, "end", "", "End as wall-clock time, e.g. 2024-03-12T10:00")
	cmd.Flags().StringVar(&timeZone, "time-zone", "", "Time zone of start and end (default: configured, then mailbox time zone)")
	cmd.Flags().StringVar(&attendees, "attendees", "", "Attendee addresses separated by ';' or ','")
	cmd.Flags().StringVar(&body, "body", "", "Plain text event body")
	_ = cmd.MarkFlagRequired("subject")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}
