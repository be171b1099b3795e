package loader

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/kiln/internal/definition"
)

var serviceKeys = map[string]bool{
	"alias":           true,
	"parent":          true,
	"class":           true,
	"factory_class":   true,
	"factory_method":  true,
	"factory_service": true,
	"file":            true,
	"arguments":       true,
	"calls":           true,
	"properties":      true,
	"tags":            true,
	"configurator":    true,
	"scope":           true,
	"public":          true,
	"synthetic":       true,
	"abstract":        true,
}

func (l *Loader) loadServices(file string, raw any) error {
	if raw == nil {
		return nil
	}
	services, ok := raw.(map[string]any)
	if !ok {
		return invalidConfig(file, "%q must be a mapping, got %T", keyServices, raw)
	}
	for _, id := range sortedKeys(services) {
		if err := l.loadService(file, id, services[id]); err != nil {
			return err
		}
	}
	return nil
}

func (l *Loader) loadService(file, id string, raw any) error {
	var svc map[string]any
	switch raw := raw.(type) {
	case nil:
		svc = map[string]any{}
	case string:
		target, ok := strings.CutPrefix(raw, "@")
		if !ok {
			return invalidConfig(file, "service %q: a string service is an alias and must start with %q", id, "@")
		}
		return l.setAlias(file, id, target, true)
	case map[string]any:
		svc = raw
	default:
		return invalidConfig(file, "service %q must be a mapping, got %T", id, raw)
	}

	for _, key := range sortedKeys(svc) {
		if !serviceKeys[key] {
			return invalidConfig(file, "service %q: unknown key %q", id, key)
		}
	}

	if target, ok := svc["alias"]; ok {
		name, ok := target.(string)
		if !ok {
			return invalidConfig(file, "service %q: %q must be a string", id, "alias")
		}
		public := true
		if v, ok := svc["public"]; ok {
			if public, ok = v.(bool); !ok {
				return invalidConfig(file, "service %q: %q must be a boolean", id, "public")
			}
		}
		return l.setAlias(file, id, name, public)
	}

	p := serviceParser{file: file, id: id, raw: svc}
	spec, err := p.parse()
	if err != nil {
		return err
	}
	return l.builder.SetDefinition(id, spec)
}

func (l *Loader) setAlias(file, id, target string, public bool) error {
	if err := l.builder.SetAlias(id, definition.NewAlias(target, public)); err != nil {
		return &LoadError{Code: ErrCodeInvalidConfig, File: file, Message: err.Error(), Err: err}
	}
	return nil
}

// serviceParser turns one service mapping into a definition.
type serviceParser struct {
	file string
	id   string
	raw  map[string]any
}

func (p *serviceParser) errorf(format string, args ...any) error {
	return invalidConfig(p.file, "service %q: %s", p.id, fmt.Sprintf(format, args...))
}

func (p *serviceParser) parse() (definition.Spec, error) {
	var (
		def   *definition.Definition
		child *definition.ChildDefinition
	)
	if parent, ok := p.raw["parent"]; ok {
		name, ok := parent.(string)
		if !ok {
			return nil, p.errorf("%q must be a string", "parent")
		}
		child = definition.NewChildDefinition(name)
		def = &child.Definition
	} else {
		def = definition.New("")
	}

	if err := p.attributes(def, child); err != nil {
		return nil, err
	}
	if err := p.flags(def, child); err != nil {
		return nil, err
	}
	if err := p.arguments(def, child); err != nil {
		return nil, err
	}
	if err := p.calls(def); err != nil {
		return nil, err
	}
	if err := p.properties(def); err != nil {
		return nil, err
	}
	if err := p.tags(def); err != nil {
		return nil, err
	}
	if err := p.configurator(def, child); err != nil {
		return nil, err
	}

	if child != nil {
		return child, nil
	}
	return def, nil
}

// attributes reads the string attributes. On a child each present attribute
// goes through its setter so it overrides the parent.
func (p *serviceParser) attributes(def *definition.Definition, child *definition.ChildDefinition) error {
	fields := []struct {
		key   string
		set   func(string)
		child func(string) *definition.ChildDefinition
	}{
		{"class", func(s string) { def.Class = s }, nil},
		{"factory_class", func(s string) { def.FactoryClass = s }, nil},
		{"factory_method", func(s string) { def.FactoryMethod = s }, nil},
		{"factory_service", func(s string) { def.FactoryService = s }, nil},
		{"file", func(s string) { def.File = s }, nil},
		{"scope", func(s string) { def.Scope = s }, nil},
	}
	if child != nil {
		fields[0].child = child.SetClass
		fields[1].child = child.SetFactoryClass
		fields[2].child = child.SetFactoryMethod
		fields[3].child = child.SetFactoryService
		fields[4].child = child.SetFile
	}

	for _, f := range fields {
		v, ok := p.raw[f.key]
		if !ok || v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok {
			return p.errorf("%q must be a string, got %T", f.key, v)
		}
		if f.key == "factory_service" {
			s = strings.TrimPrefix(s, "@")
		}
		if f.child != nil {
			f.child(s)
		} else {
			f.set(s)
		}
	}
	return nil
}

func (p *serviceParser) flags(def *definition.Definition, child *definition.ChildDefinition) error {
	for _, key := range []string{"public", "synthetic", "abstract"} {
		v, ok := p.raw[key]
		if !ok {
			continue
		}
		b, ok := v.(bool)
		if !ok {
			return p.errorf("%q must be a boolean, got %T", key, v)
		}
		switch key {
		case "public":
			if child != nil {
				child.SetPublic(b)
			} else {
				def.Public = b
			}
		case "synthetic":
			def.Synthetic = b
		case "abstract":
			def.Abstract = b
		}
	}
	return nil
}

// arguments reads a list of constructor arguments. A child may instead
// give a mapping of index_N keys overriding the parent's arguments.
func (p *serviceParser) arguments(def *definition.Definition, child *definition.ChildDefinition) error {
	switch raw := p.raw["arguments"].(type) {
	case nil:
		return nil
	case []any:
		for _, arg := range raw {
			def.AddArgument(resolveServices(arg))
		}
		return nil
	case map[string]any:
		if child == nil {
			return p.errorf("indexed arguments need a %q", "parent")
		}
		for _, key := range sortedKeys(raw) {
			index, ok := argumentIndex(key)
			if !ok {
				return p.errorf("argument key %q must look like index_N", key)
			}
			child.ReplaceArgument(index, resolveServices(raw[key]))
		}
		return nil
	default:
		return p.errorf("%q must be a list, got %T", "arguments", raw)
	}
}

func argumentIndex(key string) (int, bool) {
	n, ok := strings.CutPrefix(key, "index_")
	if !ok {
		return 0, false
	}
	i, err := strconv.Atoi(n)
	if err != nil || i < 0 {
		return 0, false
	}
	return i, true
}

// calls reads method calls written as [method, [args...]] or as
// {method: name, arguments: [...]}.
func (p *serviceParser) calls(def *definition.Definition) error {
	raw, ok := p.raw["calls"]
	if !ok || raw == nil {
		return nil
	}
	list, ok := raw.([]any)
	if !ok {
		return p.errorf("%q must be a list, got %T", "calls", raw)
	}

	for i, item := range list {
		var (
			method any
			args   any
		)
		switch item := item.(type) {
		case []any:
			if len(item) == 0 || len(item) > 2 {
				return p.errorf("call %d must be [method] or [method, arguments]", i)
			}
			method = item[0]
			if len(item) == 2 {
				args = item[1]
			}
		case map[string]any:
			method, args = item["method"], item["arguments"]
		default:
			return p.errorf("call %d must be a list or a mapping, got %T", i, item)
		}

		name, ok := method.(string)
		if !ok || name == "" {
			return p.errorf("call %d needs a method name", i)
		}
		var callArgs []any
		switch args := args.(type) {
		case nil:
		case []any:
			for _, arg := range args {
				callArgs = append(callArgs, resolveServices(arg))
			}
		default:
			return p.errorf("arguments of call %q must be a list, got %T", name, args)
		}
		def.AddMethodCall(name, callArgs...)
	}
	return nil
}

func (p *serviceParser) properties(def *definition.Definition) error {
	raw, ok := p.raw["properties"]
	if !ok || raw == nil {
		return nil
	}
	props, ok := raw.(map[string]any)
	if !ok {
		return p.errorf("%q must be a mapping, got %T", "properties", raw)
	}
	for _, name := range sortedKeys(props) {
		def.SetProperty(name, resolveServices(props[name]))
	}
	return nil
}

// tags reads tags written as a name or as {name: tag, attr: value...}.
func (p *serviceParser) tags(def *definition.Definition) error {
	raw, ok := p.raw["tags"]
	if !ok || raw == nil {
		return nil
	}
	list, ok := raw.([]any)
	if !ok {
		return p.errorf("%q must be a list, got %T", "tags", raw)
	}

	for i, item := range list {
		switch item := item.(type) {
		case string:
			def.AddTag(item, nil)
		case map[string]any:
			name, ok := item["name"].(string)
			if !ok || name == "" {
				return p.errorf("tag %d needs a string %q", i, "name")
			}
			attrs := make(map[string]any, len(item)-1)
			for k, v := range item {
				if k != "name" {
					attrs[k] = v
				}
			}
			def.AddTag(name, attrs)
		default:
			return p.errorf("tag %d must be a name or a mapping, got %T", i, item)
		}
	}
	return nil
}

// configurator reads a function name, [@service, method] or
// [Class, method].
func (p *serviceParser) configurator(def *definition.Definition, child *definition.ChildDefinition) error {
	raw, ok := p.raw["configurator"]
	if !ok || raw == nil {
		return nil
	}

	var cfg *definition.Callable
	switch raw := raw.(type) {
	case string:
		cfg = &definition.Callable{Function: raw}
	case []any:
		if len(raw) != 2 {
			return p.errorf("%q must be [target, method]", "configurator")
		}
		target, ok1 := raw[0].(string)
		method, ok2 := raw[1].(string)
		if !ok1 || !ok2 || target == "" || method == "" {
			return p.errorf("%q must hold two strings", "configurator")
		}
		if ref, ok := resolveServices(target).(*definition.Reference); ok {
			cfg = &definition.Callable{Service: ref, Method: method}
		} else {
			cfg = &definition.Callable{Class: target, Method: method}
		}
	default:
		return p.errorf("%q must be a string or a list, got %T", "configurator", raw)
	}

	if child != nil {
		child.SetConfigurator(cfg)
	} else {
		def.Configurator = cfg
	}
	return nil
}

// resolveServices turns "@id" strings into references: "@?id" ignores a
// missing service, a trailing "=" makes the reference non-strict and "@@"
// escapes a literal "@".
func resolveServices(v any) any {
	switch v := v.(type) {
	case string:
		rest, ok := strings.CutPrefix(v, "@")
		if !ok {
			return v
		}
		if strings.HasPrefix(rest, "@") {
			return rest
		}
		invalid := definition.ExceptionOnInvalidReference
		if id, ok := strings.CutPrefix(rest, "?"); ok {
			invalid, rest = definition.IgnoreOnInvalidReference, id
		}
		strict := true
		if id, ok := strings.CutSuffix(rest, "="); ok {
			strict, rest = false, id
		}
		return definition.NewReferenceWith(rest, invalid, strict)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = resolveServices(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = resolveServices(item)
		}
		return out
	default:
		return v
	}
}
