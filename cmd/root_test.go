package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/teemow/graphplanner/internal/auth"
	"github.com/teemow/graphplanner/internal/config"
	"github.com/teemow/graphplanner/internal/graph"
	"github.com/teemow/graphplanner/internal/graph/graphtest"
)

// cliEnv points the CLI at a fake Graph server with a signed-in default account
type cliEnv struct {
	graph      *graphtest.Server
	configPath string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	fake := graphtest.NewServer(t)
	tokenDir := t.TempDir()

	t.Setenv(config.EnvClientID, "client-1")
	t.Setenv(config.EnvTokenDir, tokenDir)
	t.Setenv(config.EnvGraphURL, fake.URL)
	t.Setenv(config.EnvSiteID, graphtest.SiteID)
	t.Setenv(config.EnvListID, graphtest.ListID)
	t.Setenv(config.EnvTimeZone, "")
	t.Setenv(config.EnvAccount, "")

	err := auth.NewTokenStore(tokenDir).Save("default", &oauth2.Token{
		AccessToken:  "token-default",
		RefreshToken: "refresh-default",
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(time.Hour),
	})
	require.NoError(t, err)

	return &cliEnv{
		graph:      fake,
		configPath: filepath.Join(t.TempDir(), "config.yaml"),
	}
}

func (e *cliEnv) run(args ...string) (string, error) {
	return runCLI(append([]string{"--config", e.configPath}, args...)...)
}

func runCLI(args ...string) (string, error) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestMeCommand(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run("me")
	require.NoError(t, err)
	assert.Contains(t, out, "Ada Lovelace")
	assert.Contains(t, out, "ada@contoso.com")
	assert.Contains(t, out, "W. Europe Standard Time")

	requests := env.graph.Requests()
	require.NotEmpty(t, requests)
	assert.Equal(t, "Bearer token-default", requests[0].Auth)
}

func TestCommandWithoutToken(t *testing.T) {
	env := newCLIEnv(t)

	_, err := env.run("--account", "work", "me")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `account "work"`)
	assert.Contains(t, err.Error(), "auth save-code --account work")
	assert.Empty(t, env.graph.Requests())
}

func TestCalendarWeekCommand(t *testing.T) {
	env := newCLIEnv(t)
	env.graph.SetEvents([]map[string]any{
		{
			"id":        "event-1",
			"subject":   "Standup",
			"start":     map[string]any{"dateTime": "2024-03-11T08:00:00.0000000", "timeZone": "UTC"},
			"end":       map[string]any{"dateTime": "2024-03-11T08:30:00.0000000", "timeZone": "UTC"},
			"organizer": map[string]any{"emailAddress": map[string]any{"name": "Bob", "address": "bob@contoso.com"}},
		},
	})

	t.Run("text", func(t *testing.T) {
		out, err := env.run("calendar", "week", "--time-zone", "Europe/Berlin")
		require.NoError(t, err)
		assert.Contains(t, out, "Mon 11 Mar 09:00-09:30")
		assert.Contains(t, out, "Standup")
		assert.Contains(t, out, "Bob")
	})

	t.Run("ics", func(t *testing.T) {
		out, err := env.run("calendar", "week", "--time-zone", "UTC", "--ics", "-")
		require.NoError(t, err)
		assert.Contains(t, out, "BEGIN:VCALENDAR")
		assert.Contains(t, out, "SUMMARY:Standup")
	})

	t.Run("mailbox time zone", func(t *testing.T) {
		_, err := env.run("calendar", "week", "--json")
		require.NoError(t, err)

		var prefer string
		for _, r := range env.graph.Requests() {
			if r.Path == "/me/calendarView" {
				prefer = r.Prefer
			}
		}
		assert.Equal(t, `outlook.timezone="W. Europe Standard Time"`, prefer)
	})
}

func TestCalendarCreateCommand(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run("calendar", "create",
		"--subject", "Planning",
		"--start", "2024-03-12T09:00",
		"--end", "2024-03-12T10:00",
		"--time-zone", "Europe/Berlin",
		"--attendees", "bob@contoso.com; carol@contoso.com")
	require.NoError(t, err)
	assert.Contains(t, out, `Created event "Planning" (event-1)`)

	requests := env.graph.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, "/me/events", requests[0].Path)
	assert.Len(t, requests[0].Body["attendees"], 2)

	_, err = env.run("calendar", "create", "--subject", "x", "--start", "soon", "--end", "2024-03-12T10:00")
	require.Error(t, err)
	assert.Contains(t, graph.DisplayMessage(err), "start must look like")
}

func TestTasksCommands(t *testing.T) {
	env := newCLIEnv(t)
	id := env.graph.SeedTask(map[string]any{
		graph.FieldTaskName:  "Write report",
		graph.FieldStartDate: "2024-03-11T00:00:00Z",
		graph.FieldDueDate:   "2024-03-15T00:00:00Z",
		graph.FieldStatus:    graph.StatusActive,
	})

	out, err := env.run("tasks", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Write report")
	assert.Contains(t, out, graph.StatusActive)

	out, err = env.run("tasks", "create", "--name", "Review", "--start", "2024-03-12", "--due", "2024-03-13")
	require.NoError(t, err)
	assert.Contains(t, out, "Created task")

	_, err = env.run("tasks", "create", "--name", "Review", "--start", "2024-03-12", "--due", "2024-03-13", "--status", "Done")
	require.Error(t, err)
	assert.Contains(t, graph.DisplayMessage(err), "status must be one of")

	out, err = env.run("tasks", "update", id, "--name", "Write final report", "--start", "2024-03-11", "--due", "2024-03-16")
	require.NoError(t, err)
	assert.Contains(t, out, "Updated task "+id)
	fields, ok := env.graph.Item(id)
	require.True(t, ok)
	assert.Equal(t, "Write final report", fields[graph.FieldTaskName])
	assert.NotContains(t, fields, graph.FieldStatus)

	out, err = env.run("tasks", "delete", id, "999")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 deletions failed")
	assert.Contains(t, out, id+": deleted")
	_, ok = env.graph.Item(id)
	assert.False(t, ok)
}

func TestConfigCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv(config.EnvClientSecret, "")

	out, err := runCLI("--config", path, "config", "init",
		"--client-id", "client-1",
		"--site-id", graphtest.SiteID,
		"--week-start", "monday")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+path)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	_, err = runCLI("--config", path, "config", "init")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	t.Setenv(config.EnvClientSecret, "s3cret")
	out, err = runCLI("--config", path, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "client_id: client-1")
	assert.Contains(t, out, "week_start: monday")
	assert.Contains(t, out, maskedSecret)
	assert.NotContains(t, out, "s3cret")
}

func TestVersionCommand(t *testing.T) {
	SetVersion("1.2.3")
	t.Cleanup(func() { SetVersion("dev") })

	out, err := runCLI("version")
	require.NoError(t, err)
	assert.Contains(t, out, "1.2.3")
}

func TestTasksCommandWithoutSite(t *testing.T) {
	env := newCLIEnv(t)
	t.Setenv(config.EnvSiteID, "")

	_, err := env.run("tasks", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), config.EnvSiteID)
	assert.Empty(t, env.graph.Requests())
}
