package store

import (
	"errors"
	"sort"
	"time"

	"github.com/roach88/kiln/internal/container"
)

// Status is the outcome of a compile run.
type Status string

const (
	StatusOK     Status = "ok"
	StatusFailed Status = "failed"
)

// ErrRunNotFound is returned when no run has the requested id.
var ErrRunNotFound = errors.New("run not found")

// Run is one recorded compilation.
type Run struct {
	// ID and StartedAt are assigned by Record when empty.
	ID        string    `json:"id"`
	StartedAt time.Time `json:"started_at"`

	ConfigHash string   `json:"config_hash"`
	Files      []string `json:"files"`
	Status     Status   `json:"status"`
	ErrorCode  string   `json:"error_code,omitempty"`
	Error      string   `json:"error,omitempty"`

	Log      []string  `json:"log"`
	Services []Service `json:"services"`
}

// Service is one manifest entry. AliasOf is set for aliases, which carry
// no class or scope.
type Service struct {
	ID      string `json:"id"`
	Class   string `json:"class,omitempty"`
	Scope   string `json:"scope,omitempty"`
	Public  bool   `json:"public"`
	AliasOf string `json:"alias_of,omitempty"`
}

// SetOutcome records err as the run's result. Errors carrying a code keep
// it in ErrorCode.
func (r *Run) SetOutcome(err error) {
	if err == nil {
		r.Status, r.ErrorCode, r.Error = StatusOK, "", ""
		return
	}
	r.Status, r.Error = StatusFailed, err.Error()

	var coded interface{ ErrorCode() string }
	if errors.As(err, &coded) {
		r.ErrorCode = coded.ErrorCode()
	}
}

// Manifest lists the definitions and aliases of b, sorted by id.
func Manifest(b *container.Builder) []Service {
	var out []Service
	for id, spec := range b.Specs() {
		d := spec.Base()
		out = append(out, Service{ID: id, Class: d.Class, Scope: d.Scope, Public: d.Public})
	}
	for id, a := range b.Aliases() {
		out = append(out, Service{ID: id, Public: a.Public, AliasOf: a.ID})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
