package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/kiln/internal/compiler"
	"github.com/roach88/kiln/internal/container"
	"github.com/roach88/kiln/internal/loader"
	"github.com/roach88/kiln/internal/store"
)

// buildResult is the outcome of loading and compiling configuration files.
type buildResult struct {
	Builder  *container.Builder
	Compiler *compiler.Compiler
	Files    []string
	RunID    string
}

// codedError attaches a CLI error code to err.
type codedError struct {
	code string
	err  error
}

func (e *codedError) Error() string     { return e.err.Error() }
func (e *codedError) Unwrap() error     { return e.err }
func (e *codedError) ErrorCode() string { return e.code }

func newLogger(opts *RootOptions, w io.Writer) *slog.Logger {
	if !opts.Verbose {
		return slog.New(slog.DiscardHandler)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// build loads the env files and configuration files into a new builder and
// compiles it. A load failure returns a nil result; a compile failure
// returns the partially processed result with the error. When a store is
// configured every run that got past loading is recorded.
func build(ctx context.Context, opts *RootOptions, cmd *cobra.Command, files []string) (*buildResult, error) {
	logger := newLogger(opts, cmd.ErrOrStderr())
	b := container.NewBuilder(container.WithLogger(logger))
	l := loader.New(b, loader.WithLogger(logger))

	for _, path := range opts.EnvFiles {
		if err := l.LoadEnv(path); err != nil {
			return nil, err
		}
	}
	for _, path := range files {
		if err := l.Load(path); err != nil {
			return nil, err
		}
	}

	c, compileErr := compiler.Compile(b, compiler.WithLogger(logger))
	res := &buildResult{Builder: b, Compiler: c, Files: l.Files()}

	if opts.Store != "" {
		id, err := record(ctx, opts.Store, res, compileErr)
		if err != nil {
			return nil, &codedError{code: ErrCodeStoreFailed, err: err}
		}
		res.RunID = id
	}
	return res, compileErr
}

func record(ctx context.Context, path string, res *buildResult, compileErr error) (string, error) {
	hash, err := store.HashFiles(res.Files)
	if err != nil {
		return "", err
	}

	s, err := store.Open(path)
	if err != nil {
		return "", err
	}
	defer s.Close()

	run := &store.Run{
		ConfigHash: hash,
		Files:      res.Files,
		Log:        res.Compiler.Log(),
		Services:   store.Manifest(res.Builder),
	}
	run.SetOutcome(compileErr)
	if err := s.Record(ctx, run); err != nil {
		return "", err
	}
	return run.ID, nil
}

// exitCodeFor maps a build error to an exit code: configuration the
// compiler rejects is a failure, anything that kept it from running is a
// command error.
func exitCodeFor(err error) int {
	var (
		le *loader.LoadError
		ce *codedError
	)
	if errors.As(err, &le) || errors.As(err, &ce) {
		return ExitCommandError
	}
	return ExitFailure
}

// buildOrFail runs build and reports its error through f.
func buildOrFail(cmd *cobra.Command, opts *RootOptions, f *OutputFormatter, files []string) (*buildResult, error) {
	res, err := build(cmd.Context(), opts, cmd, files)
	if err != nil {
		return res, f.Fail(exitCodeFor(err), err)
	}
	f.VerboseLog("Loaded %d file(s)", len(res.Files))
	return res, nil
}

func requireFiles(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return WrapExitError(ExitCommandError, ErrCodeInvalidFlags, fmt.Errorf("%s needs at least one configuration file", cmd.Name()))
	}
	return nil
}
