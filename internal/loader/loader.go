package loader

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/kiln/internal/container"
)

// Loader reads configuration files into a builder.
type Loader struct {
	builder *container.Builder
	logger  *slog.Logger
	cue     *cue.Context

	loading []string
	files   []string
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(ld *Loader) { ld.logger = l }
}

// New returns a loader feeding b.
func New(b *container.Builder, opts ...Option) *Loader {
	l := &Loader{builder: b}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	return l
}

// Supports reports whether path has a file type the loader reads.
func Supports(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json", ".cue", ".env":
		return true
	default:
		return false
	}
}

// Files returns every file loaded so far. A file's imports precede it,
// matching the order in which their definitions take effect.
func (l *Loader) Files() []string {
	return slices.Clone(l.files)
}

// Load reads path into the builder. Service files are YAML, JSON or CUE;
// .env files become parameters through LoadEnv.
func (l *Loader) Load(path string) error {
	if strings.ToLower(filepath.Ext(path)) == ".env" {
		return l.LoadEnv(path)
	}
	if !Supports(path) {
		return &LoadError{Code: ErrCodeUnsupported, File: path, Message: fmt.Sprintf("unsupported file type %q", filepath.Ext(path))}
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return &LoadError{Code: ErrCodeLoadFailed, File: path, Message: err.Error(), Err: err}
	}
	if slices.Contains(l.loading, abs) {
		chain := append(slices.Clone(l.loading), abs)
		return &LoadError{Code: ErrCodeImportCycle, File: abs, Message: "import cycle: " + strings.Join(chain, " -> ")}
	}

	data, err := readFile(abs)
	if err != nil {
		return err
	}
	doc, err := l.decode(abs, data)
	if err != nil {
		return err
	}

	l.loading = append(l.loading, abs)
	defer func() { l.loading = l.loading[:len(l.loading)-1] }()
	l.logger.Debug("loading configuration", "file", abs, "depth", len(l.loading))

	return l.apply(abs, doc)
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, &LoadError{Code: ErrCodeNotFound, File: path, Message: "file not found", Err: err}
	case err != nil:
		return nil, &LoadError{Code: ErrCodeLoadFailed, File: path, Message: err.Error(), Err: err}
	}
	return data, nil
}

func (l *Loader) decode(path string, data []byte) (map[string]any, error) {
	var (
		raw any
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		raw, err = decodeYAML(data)
	case ".json":
		raw, err = decodeJSON(data)
	case ".cue":
		return l.decodeCUE(path, data)
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, File: path, Message: err.Error(), Err: err}
	}

	switch doc := normalize(raw).(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return doc, nil
	default:
		return nil, invalidConfig(path, "the top level must be a mapping, got %T", doc)
	}
}

func decodeYAML(data []byte) (any, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func decodeJSON(data []byte) (any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (l *Loader) decodeCUE(path string, data []byte) (map[string]any, error) {
	if l.cue == nil {
		l.cue = cuecontext.New()
	}
	v := l.cue.CompileBytes(data, cue.Filename(path))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(path, ErrCodeLoadFailed, err)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(path, ErrCodeBuildFailed, err)
	}
	if v.IncompleteKind() != cue.StructKind {
		return nil, invalidConfig(path, "the top level must be a struct, got %v", v.IncompleteKind())
	}

	var doc map[string]any
	if err := v.Decode(&doc); err != nil {
		return nil, formatCUEError(path, ErrCodeBuildFailed, err)
	}
	if doc == nil {
		doc = map[string]any{}
	}
	return doc, nil
}

// normalize converts decoder output to the value model: maps keyed by
// strings, JSON numbers as int or float64.
func normalize(v any) any {
	switch v := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = normalize(item)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[fmt.Sprint(k)] = normalize(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = normalize(item)
		}
		return out
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return int(i)
		}
		if f, err := v.Float64(); err == nil {
			return f
		}
		return v.String()
	default:
		return v
	}
}
