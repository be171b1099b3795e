package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/kiln/internal/container"
	"github.com/roach88/kiln/internal/definition"
	"github.com/roach88/kiln/internal/testutil"
)

// createTestStore opens a store in a temp dir with deterministic ids and
// timestamps.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path,
		WithIDGenerator(testutil.NewSequentialIDGenerator("")),
		WithClock(testutil.NewDeterministicClock()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_Pragmas(t *testing.T) {
	s := createTestStore(t)

	tests := []struct {
		name     string
		expected string
	}{
		{"journal_mode", "wal"},
		{"synchronous", "1"},
		{"busy_timeout", "5000"},
		{"foreign_keys", "1"},
		{"user_version", fmt.Sprint(currentSchemaVersion)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NoError(t, s.verifyPragma(tt.name, tt.expected))
		})
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.Record(context.Background(), &Run{ConfigHash: "h"}))
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	runs, err := s2.ListRuns(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 1, "reopening keeps existing runs")

	id, err := uuid.Parse(runs[0].ID)
	require.NoError(t, err, "default run ids are UUIDs")
	assert.Equal(t, uuid.Version(7), id.Version())

	rows, err := s2.Query(context.Background(), `SELECT name FROM sqlite_master WHERE type = 'index' AND name = 'idx_runs_config_hash'`)
	require.NoError(t, err)
	defer rows.Close()
	assert.True(t, rows.Next(), "migration creates the config hash index")
}

func TestOpen_MigratesOldSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.db")

	s1, err := Open(path)
	require.NoError(t, err)
	_, err = s1.db.Exec(`DROP INDEX idx_runs_config_hash`)
	require.NoError(t, err)
	_, err = s1.db.Exec(`PRAGMA user_version = 0`)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	assert.NoError(t, s2.verifyPragma("user_version", fmt.Sprint(currentSchemaVersion)))
	var n int
	require.NoError(t, s2.db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND name = 'idx_runs_config_hash'`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestRecord_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	run := &Run{
		ConfigHash: "abc",
		Files:      []string{"/etc/app/services.yaml", "/etc/app/params.yaml"},
		Log: []string{
			`InlineServiceDefinitionsPass: Inlined service "transport" to "mailer".`,
			`RemoveUnusedDefinitionsPass: Removed service "transport"; reason: unused`,
		},
		Services: []Service{
			{ID: "mail", Public: true, AliasOf: "mailer"},
			{ID: "mailer", Class: "Mailer", Scope: "container", Public: true},
		},
	}
	run.SetOutcome(nil)
	require.NoError(t, s.Record(ctx, run))

	assert.Equal(t, "run-0001", run.ID)
	assert.Equal(t, testutil.Epoch, run.StartedAt)

	got, err := s.ReadRun(ctx, "run-0001")
	require.NoError(t, err)
	assert.Equal(t, *run, got)
}

func TestRecord_FailedRun(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	run := &Run{ConfigHash: "abc"}
	run.SetOutcome(fmt.Errorf("compile: %w", &container.ServiceNotFoundError{ID: "mailer"}))
	require.NoError(t, s.Record(ctx, run))

	got, err := s.ReadRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status)
	assert.Equal(t, container.ErrCodeServiceNotFound, got.ErrorCode)
	assert.Contains(t, got.Error, "mailer")
	assert.Empty(t, got.Log)
	assert.Empty(t, got.Services)
	assert.Equal(t, []string{}, got.Files)

	plain := &Run{}
	plain.SetOutcome(errors.New("boom"))
	assert.Equal(t, StatusFailed, plain.Status)
	assert.Empty(t, plain.ErrorCode)
}

func TestRecord_DuplicateID(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, &Run{ID: "fixed"}))
	err := s.Record(ctx, &Run{ID: "fixed", Log: []string{"x"}})
	require.Error(t, err)

	got, err := s.ReadRun(ctx, "fixed")
	require.NoError(t, err)
	assert.Empty(t, got.Log, "failed insert rolls back")
}

func TestReadRun_NotFound(t *testing.T) {
	s := createTestStore(t)
	_, err := s.ReadRun(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestListRuns(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for _, hash := range []string{"a", "b", "a"} {
		require.NoError(t, s.Record(ctx, &Run{ConfigHash: hash}))
	}

	runs, err := s.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-0003", runs[0].ID, "newest first")
	assert.Equal(t, "run-0002", runs[1].ID)
	assert.Equal(t, testutil.Epoch.Add(2*time.Second), runs[0].StartedAt)

	all, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	byHash, err := s.RunsByConfigHash(ctx, "a")
	require.NoError(t, err)
	require.Len(t, byHash, 2)
	assert.Equal(t, "run-0001", byHash[0].ID)
	assert.Equal(t, "run-0003", byHash[1].ID)

	none, err := s.RunsByConfigHash(ctx, "zzz")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestManifest(t *testing.T) {
	b := container.NewBuilder(
		container.WithClasses(testutil.Classes()),
		container.WithLogger(slog.New(slog.DiscardHandler)),
	)
	b.Register("mailer", testutil.ClassMailer)
	logger := b.Register("logger", testutil.ClassLogger)
	logger.Public = false
	require.NoError(t, b.SetDefinition("mailer.logger", definition.NewChildDefinition("logger")))
	require.NoError(t, b.SetAlias("mail", definition.NewAlias("mailer", false)))

	assert.Equal(t, []Service{
		{ID: "logger", Class: "Logger", Scope: "container"},
		{ID: "mail", AliasOf: "mailer"},
		{ID: "mailer", Class: "Mailer", Scope: "container", Public: true},
		{ID: "mailer.logger", Scope: "container", Public: true},
	}, Manifest(b))
}

func TestConfigHash(t *testing.T) {
	a := ConfigHash(map[string][]byte{"a.yaml": []byte("x: 1"), "b.yaml": []byte("y: 2")})
	b := ConfigHash(map[string][]byte{"b.yaml": []byte("y: 2"), "a.yaml": []byte("x: 1")})
	assert.Equal(t, a, b, "independent of map order")
	assert.Len(t, a, 64)

	shifted := ConfigHash(map[string][]byte{"a.yaml": []byte("x: 1b.yaml"), "": []byte("y: 2")})
	assert.NotEqual(t, a, shifted)
	assert.NotEqual(t, a, ConfigHash(map[string][]byte{"a.yaml": []byte("x: 2"), "b.yaml": []byte("y: 2")}))
	assert.Equal(t, hashWithDomain(DomainConfig, nil), ConfigHash(nil))

	dir := t.TempDir()
	path := filepath.Join(dir, "a.yaml")
	require.NoError(t, os.WriteFile(path, []byte("x: 1"), 0o644))
	got, err := HashFiles([]string{path})
	require.NoError(t, err)
	assert.Equal(t, ConfigHash(map[string][]byte{path: []byte("x: 1")}), got)

	_, err = HashFiles([]string{filepath.Join(dir, "missing.yaml")})
	assert.ErrorIs(t, err, os.ErrNotExist)
}
