package loader

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/roach88/kiln/internal/container"
	"github.com/roach88/kiln/internal/parameter"
)

// Reserved top-level keys. Every other key names an extension namespace.
const (
	keyImports    = "imports"
	keyParameters = "parameters"
	keyScopes     = "scopes"
	keyServices   = "services"
)

// apply feeds one decoded document into the builder: imports first, then
// parameters, scopes, services and extension configuration.
func (l *Loader) apply(file string, doc map[string]any) error {
	if err := l.loadImports(file, doc[keyImports]); err != nil {
		return err
	}
	l.files = append(l.files, file)

	if err := l.loadParameters(file, doc[keyParameters]); err != nil {
		return err
	}
	if err := l.loadScopes(file, doc[keyScopes]); err != nil {
		return err
	}
	if err := l.loadServices(file, doc[keyServices]); err != nil {
		return err
	}

	for _, ns := range sortedKeys(doc) {
		switch ns {
		case keyImports, keyParameters, keyScopes, keyServices:
			continue
		}
		if err := l.loadExtensionConfig(file, ns, doc[ns]); err != nil {
			return err
		}
	}
	return nil
}

func (l *Loader) loadImports(file string, raw any) error {
	if raw == nil {
		return nil
	}
	list, ok := raw.([]any)
	if !ok {
		return invalidConfig(file, "%q must be a list, got %T", keyImports, raw)
	}

	for i, item := range list {
		var (
			resource     string
			ignoreErrors bool
		)
		switch item := item.(type) {
		case string:
			resource = item
		case map[string]any:
			res, ok := item["resource"].(string)
			if !ok {
				return invalidConfig(file, "import %d needs a string %q", i, "resource")
			}
			resource = res
			if v, ok := item["ignore_errors"]; ok {
				b, ok := v.(bool)
				if !ok {
					return invalidConfig(file, "import %d: %q must be a boolean", i, "ignore_errors")
				}
				ignoreErrors = b
			}
		default:
			return invalidConfig(file, "import %d must be a path or a mapping, got %T", i, item)
		}

		path := resource
		if !filepath.IsAbs(path) {
			path = filepath.Join(filepath.Dir(file), path)
		}
		if err := l.Load(path); err != nil {
			if ignoreErrors && !IsLoadError(err, ErrCodeImportCycle) {
				l.logger.Debug("ignoring failed import", "file", file, "resource", resource, "error", err)
				continue
			}
			return err
		}
	}
	return nil
}

func (l *Loader) loadParameters(file string, raw any) error {
	if raw == nil {
		return nil
	}
	params, ok := raw.(map[string]any)
	if !ok {
		return invalidConfig(file, "%q must be a mapping, got %T", keyParameters, raw)
	}
	for _, name := range sortedKeys(params) {
		if err := l.builder.SetParameter(name, params[name]); err != nil {
			return err
		}
	}
	return nil
}

// loadScopes declares scopes listed as {name, parent} entries, in order.
func (l *Loader) loadScopes(file string, raw any) error {
	if raw == nil {
		return nil
	}
	list, ok := raw.([]any)
	if !ok {
		return invalidConfig(file, "%q must be a list, got %T", keyScopes, raw)
	}

	for i, item := range list {
		var s container.Scope
		switch item := item.(type) {
		case string:
			s.Name = item
		case map[string]any:
			name, ok := item["name"].(string)
			if !ok {
				return invalidConfig(file, "scope %d needs a string %q", i, "name")
			}
			s.Name = name
			if parent, ok := item["parent"]; ok && parent != nil {
				p, ok := parent.(string)
				if !ok {
					return invalidConfig(file, "scope %q: %q must be a string", name, "parent")
				}
				s.Parent = p
			}
		default:
			return invalidConfig(file, "scope %d must be a name or a mapping, got %T", i, item)
		}
		if err := l.builder.AddScope(s); err != nil {
			return &LoadError{Code: ErrCodeInvalidConfig, File: file, Message: err.Error(), Err: err}
		}
	}
	return nil
}

func (l *Loader) loadExtensionConfig(file, ns string, raw any) error {
	if !l.builder.HasExtension(ns) {
		var known []string
		for _, ext := range l.builder.Extensions() {
			known = append(known, ext.Alias())
		}
		msg := fmt.Sprintf("there is no extension able to load the configuration for %q", ns)
		if alternatives := parameter.Suggest(ns, known); len(alternatives) > 0 {
			msg += fmt.Sprintf("; did you mean %q?", alternatives[0])
		}
		return &LoadError{Code: ErrCodeNoExtension, File: file, Message: msg}
	}

	var cfg map[string]any
	switch raw := raw.(type) {
	case nil:
	case map[string]any:
		cfg = raw
	default:
		return invalidConfig(file, "configuration of %q must be a mapping, got %T", ns, raw)
	}
	return l.builder.LoadFromExtension(ns, cfg)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
