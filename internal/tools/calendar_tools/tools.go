package calendar_tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/graphplanner/internal/graph"
	"github.com/teemow/graphplanner/internal/ics"
	"github.com/teemow/graphplanner/internal/instrumentation"
	"github.com/teemow/graphplanner/internal/msgraph"
	"github.com/teemow/graphplanner/internal/server"
	"github.com/teemow/graphplanner/internal/tools/common"
)

const (
	formatJSON = "json"
	formatICS  = "ics"
)

// WeekResult is the calendar_get_week response
type WeekResult struct {
	TimeZone string          `json:"timeZone"`
	Start    string          `json:"start"`
	End      string          `json:"end"`
	Events   []msgraph.Event `json:"events"`
}

// RegisterCalendarTools registers the calendar tools with the MCP server.
// calendar_create_event is only registered when readOnly is false.
func RegisterCalendarTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	weekTool := mcp.NewTool("calendar_get_week",
		mcp.WithDescription("List the events of the current week, ordered by start time. Times are expressed in the requested time zone."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("account",
			mcp.Description("Account name (default: the configured account). Used to manage multiple Microsoft accounts."),
		),
		mcp.WithString("timeZone",
			mcp.Description("IANA or Windows time zone name (default: the configured time zone, then the mailbox time zone)"),
		),
		mcp.WithString("format",
			mcp.Description("Output format: json (default) or ics"),
			mcp.Enum(formatJSON, formatICS),
		),
	)
	s.AddTool(weekTool, common.InstrumentedToolHandlerWithService("calendar_get_week",
		instrumentation.ServiceCalendar, instrumentation.OperationList, sc, handleGetWeek(sc)))

	if readOnly {
		return nil
	}

	createTool := mcp.NewTool("calendar_create_event",
		mcp.WithDescription("Create an event in the default calendar and invite attendees"),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("account",
			mcp.Description("Account name (default: the configured account). Used to manage multiple Microsoft accounts."),
		),
		mcp.WithString("subject",
			mcp.Required(),
			mcp.Description("Event subject"),
		),
		mcp.WithString("start",
			mcp.Required(),
			mcp.Description("Start as wall-clock time in timeZone, e.g. 2024-03-12T09:00"),
		),
		mcp.WithString("end",
			mcp.Required(),
			mcp.Description("End as wall-clock time in timeZone, e.g. 2024-03-12T10:00"),
		),
		mcp.WithString("timeZone",
			mcp.Description("IANA or Windows time zone name of start and end (default: the configured time zone, then the mailbox time zone)"),
		),
		mcp.WithString("attendees",
			mcp.Description("Attendee email addresses separated by ';' or ','"),
		),
		mcp.WithString("body",
			mcp.Description("Plain text event body"),
		),
	)
	s.AddTool(createTool, common.InstrumentedToolHandlerWithService("calendar_create_event",
		instrumentation.ServiceCalendar, instrumentation.OperationCreate, sc, handleCreateEvent(sc)))

	return nil
}

// resolveTimeZone picks the explicit zone, then the configured one, then the
// mailbox zone of the account.
func resolveTimeZone(ctx context.Context, sc *server.ServerContext, svc *graph.Service, explicit string) (string, error) {
	if tz := strings.TrimSpace(explicit); tz != "" {
		return tz, nil
	}
	if tz := sc.Config().TimeZone; tz != "" {
		return tz, nil
	}
	return svc.DefaultTimeZone(ctx)
}

func handleGetWeek(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		format := strings.ToLower(strings.TrimSpace(common.StringArg(args, "format")))
		if format == "" {
			format = formatJSON
		}
		if format != formatJSON && format != formatICS {
			return mcp.NewToolResultError(fmt.Sprintf("unsupported format %q: use json or ics", format)), nil
		}

		svc, account, errResult := common.ServiceForRequest(sc, request)
		if errResult != nil {
			return errResult, nil
		}

		tz, err := resolveTimeZone(ctx, sc, svc, common.StringArg(args, "timeZone"))
		if err != nil {
			return common.ErrorResult(sc, account, err), nil
		}

		if format == formatICS {
			events, err := svc.ExportWeekCalendar(ctx, tz)
			if err != nil {
				return common.ErrorResult(sc, account, err), nil
			}
			out, err := ics.Export(events, time.Now())
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("Failed to export calendar: %v", err)), nil
			}
			return mcp.NewToolResultText(out), nil
		}

		events, err := svc.GetWeekCalendar(ctx, tz)
		if err != nil {
			return common.ErrorResult(sc, account, err), nil
		}

		// The window was validated by GetWeekCalendar
		loc, _ := graph.ResolveLocation(tz)
		start, end := graph.WeekWindow(svc.Now(), loc, svc.Config().WeekStart)
		out, err := json.MarshalIndent(WeekResult{
			TimeZone: tz,
			Start:    start.Format(time.RFC3339),
			End:      end.Format(time.RFC3339),
			Events:   events,
		}, "", "  ")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to encode result: %v", err)), nil
		}
		return mcp.NewToolResultText(string(out)), nil
	}
}

func handleCreateEvent(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()

		start, err := graph.ParseWallClock("start", common.StringArg(args, "start"))
		if err != nil {
			return mcp.NewToolResultError(graph.DisplayMessage(err)), nil
		}
		end, err := graph.ParseWallClock("end", common.StringArg(args, "end"))
		if err != nil {
			return mcp.NewToolResultError(graph.DisplayMessage(err)), nil
		}

		svc, account, errResult := common.ServiceForRequest(sc, request)
		if errResult != nil {
			return errResult, nil
		}

		tz, err := resolveTimeZone(ctx, sc, svc, common.StringArg(args, "timeZone"))
		if err != nil {
			return common.ErrorResult(sc, account, err), nil
		}

		event, err := graph.NewEvent{
			Subject:   strings.TrimSpace(common.StringArg(args, "subject")),
			Attendees: graph.ParseAttendees(common.StringArg(args, "attendees")),
			Start:     start,
			End:       end,
			TimeZone:  tz,
			Body:      common.StringArg(args, "body"),
		}.Event()
		if err != nil {
			return mcp.NewToolResultError(graph.DisplayMessage(err)), nil
		}

		created, err := svc.CreateEvent(ctx, event)
		if err != nil {
			return common.ErrorResult(sc, account, err), nil
		}

		out, err := json.MarshalIndent(created, "", "  ")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to encode result: %v", err)), nil
		}
		return mcp.NewToolResultText(string(out)), nil
	}
}
