package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/kiln/internal/store"
	"github.com/roach88/kiln/internal/testutil"
)

// seedStore records two runs with deterministic ids and timestamps.
func seedStore(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "runs.db")
	s, err := store.Open(path,
		store.WithIDGenerator(testutil.NewSequentialIDGenerator("")),
		store.WithClock(testutil.NewDeterministicClock()),
	)
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.Record(ctx, &store.Run{
		ConfigHash: "0123456789abcdef",
		Files:      []string{"/srv/app/services.yaml", "/srv/app/params.yaml"},
		Status:     store.StatusOK,
		Log:        []string{`RemoveUnusedDefinitionsPass: Removed service "unused"; reason: unused`},
		Services: []store.Service{
			{ID: "mail", Public: true, AliasOf: "mailer"},
			{ID: "mailer", Class: "Mailer", Scope: "container", Public: true},
		},
	}))
	require.NoError(t, s.Record(ctx, &store.Run{
		ConfigHash: "fedcba9876543210",
		Files:      []string{"/srv/app/widening.yaml"},
		Status:     store.StatusFailed,
		ErrorCode:  "E211",
		Error:      "scope widening injection detected",
	}))
	return path
}

func TestHistory_List(t *testing.T) {
	path := seedStore(t)

	stdout, _, err := execute(t, "history", "--store", path)
	require.NoError(t, err)
	assertGolden(t, "history_text", stdout)

	stdout, _, err = execute(t, "history", "--store", path, "--limit", "1", "--format", "json")
	require.NoError(t, err)
	var resp struct {
		Status string       `json:"status"`
		Data   []RunSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "run-0002", resp.Data[0].ID)
	assert.Equal(t, "E211", resp.Data[0].ErrorCode)
	assert.Equal(t, testutil.Epoch.Add(time.Second), resp.Data[0].StartedAt.UTC())
}

func TestHistory_Run(t *testing.T) {
	path := seedStore(t)

	stdout, _, err := execute(t, "history", "--store", path, "--run", "run-0001")
	require.NoError(t, err)
	assert.Equal(t, `✓ Run run-0001 (2024-01-01T00:00:00Z)
  config: 0123456789abcdef

Files:
  /srv/app/services.yaml
  /srv/app/params.yaml

Compiler log:
  RemoveUnusedDefinitionsPass: Removed service "unused"; reason: unused

Services:
  mail -> mailer
  mailer (Mailer, container)
`, stdout)

	stdout, _, err = execute(t, "history", "--store", path, "--run", "run-0002")
	require.NoError(t, err)
	assert.Contains(t, stdout, "error:  [E211] scope widening injection detected")

	_, _, err = execute(t, "history", "--store", path, "--run", "run-9999")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestHistory_Errors(t *testing.T) {
	stdout, _, err := execute(t, "history")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout, "Error [E002]")

	stdout, _, err = execute(t, "history", "--store", filepath.Join(t.TempDir(), "empty.db"))
	require.NoError(t, err)
	assert.Contains(t, stdout, "No runs recorded in")
}

func TestCompile_RecordsRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")

	stdout, _, err := execute(t, "compile", "--store", path, mailerConfig)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Recorded run ")

	_, _, err = execute(t, "validate", "--store", path, wideningConfig)
	require.Error(t, err)

	_, _, err = execute(t, "validate", "--store", path, brokenConfig)
	require.Error(t, err, "load failures are not recorded")

	s, err := store.Open(path)
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	runs, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, store.StatusFailed, runs[0].Status)
	assert.Equal(t, "E211", runs[0].ErrorCode)
	assert.Equal(t, store.StatusOK, runs[1].Status)

	ok, err := s.ReadRun(ctx, runs[1].ID)
	require.NoError(t, err)
	assert.Len(t, ok.Files, 2)
	assert.Len(t, ok.Log, 5)
	assert.Contains(t, ok.Services, store.Service{ID: "mail", Public: true, AliasOf: "mailer"})
	assert.Contains(t, ok.Services, store.Service{ID: "transport.factory", Class: "TransportFactory", Scope: "container"})

	again, err := store.HashFiles(ok.Files)
	require.NoError(t, err)
	assert.Equal(t, again, ok.ConfigHash)
}
