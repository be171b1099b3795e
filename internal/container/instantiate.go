package container

import (
	"fmt"

	"github.com/roach88/kiln/internal/definition"
	"github.com/roach88/kiln/internal/parameter"
)

// create builds id from its definition.
func (b *Builder) create(id string) (any, bool, error) {
	spec, ok := b.definitions[id]
	if !ok {
		return nil, false, nil
	}
	d, ok := spec.(*definition.Definition)
	if !ok {
		return nil, true, &ConfigError{ID: id, Message: "child definition has not been resolved; compile the builder first"}
	}

	b.enter(id)
	defer b.leave()
	svc, err := b.createService(d, id)
	return svc, true, err
}

// createService builds a service from d. Inline definitions pass an empty
// id and are never cached.
func (b *Builder) createService(d *definition.Definition, id string) (any, error) {
	switch {
	case d.Synthetic:
		return nil, &InstantiationError{ID: id, Message: "synthetic service must be set, the container cannot construct it"}
	case d.Abstract:
		return nil, &InstantiationError{ID: id, Class: d.Class, Message: "abstract definitions cannot be instantiated"}
	}
	if err := b.checkScope(id, d.Scope); err != nil {
		return nil, err
	}

	class, err := b.resolveString(d.Class)
	if err != nil {
		return nil, err
	}

	if d.File != "" && b.fileHook != nil {
		file, err := b.resolveString(d.File)
		if err != nil {
			return nil, err
		}
		if err := b.fileHook(file); err != nil {
			return nil, &InstantiationError{ID: id, Class: class, Message: fmt.Sprintf("loading file %q", file), Err: err}
		}
	}

	args, err := b.resolveArguments(d.Arguments)
	if err != nil {
		return nil, err
	}

	svc, err := b.construct(d, id, class, args)
	if err != nil {
		return nil, err
	}

	// Stored before setup so method calls may reach the service back.
	b.store(id, d.Scope, svc)
	if err := b.setUp(d, id, class, svc); err != nil {
		b.unstore(id, d.Scope)
		return nil, err
	}
	return svc, nil
}

// setUp runs the method calls, property assignments and configurator of
// d on a constructed service.
func (b *Builder) setUp(d *definition.Definition, id, class string, svc any) error {
	for _, call := range d.Calls {
		if !b.satisfiable(call.Arguments) {
			b.logger.Debug("skipping method call", "id", id, "method", call.Method)
			continue
		}
		method, err := b.resolveString(call.Method)
		if err != nil {
			return err
		}
		callArgs, err := b.resolveArguments(call.Arguments)
		if err != nil {
			return err
		}
		if _, err := b.classes.callMethod(class, svc, method, callArgs); err != nil {
			return &InstantiationError{ID: id, Class: class, Message: fmt.Sprintf("calling %s", method), Err: err}
		}
	}

	for _, name := range sortedKeys(d.Properties) {
		value, err := b.resolveServices(d.Properties[name])
		if err != nil {
			return err
		}
		if err := setProperty(svc, name, value); err != nil {
			return &InstantiationError{ID: id, Class: class, Message: "setting property", Err: err}
		}
	}

	if d.Configurator != nil {
		if err := b.configure(d.Configurator, svc); err != nil {
			return &InstantiationError{ID: id, Class: class, Message: fmt.Sprintf("configurator %s", d.Configurator), Err: err}
		}
	}

	return nil
}

func (b *Builder) construct(d *definition.Definition, id, class string, args []any) (any, error) {
	if d.FactoryMethod == "" {
		svc, err := b.classes.construct(class, args)
		if err != nil {
			return nil, &InstantiationError{ID: id, Class: class, Message: "constructing", Err: err}
		}
		return svc, nil
	}

	method, err := b.resolveString(d.FactoryMethod)
	if err != nil {
		return nil, err
	}

	switch {
	case d.FactoryClass != "":
		factoryClass, err := b.resolveString(d.FactoryClass)
		if err != nil {
			return nil, err
		}
		svc, err := b.classes.callStatic(factoryClass, method, args)
		if err != nil {
			return nil, &InstantiationError{ID: id, Class: class, Message: fmt.Sprintf("calling factory %s::%s", factoryClass, method), Err: err}
		}
		return svc, nil

	case d.FactoryService != "":
		factoryID, err := b.resolveString(d.FactoryService)
		if err != nil {
			return nil, err
		}
		factory, err := b.Get(factoryID)
		if err != nil {
			return nil, err
		}
		svc, err := b.classes.callMethod(b.classOf(factoryID), factory, method, args)
		if err != nil {
			return nil, &InstantiationError{ID: id, Class: class, Message: fmt.Sprintf("calling factory @%s::%s", factoryID, method), Err: err}
		}
		return svc, nil

	default:
		return nil, &InstantiationError{ID: id, Class: class, Message: "cannot create service from factory method without a factory service or factory class"}
	}
}

func (b *Builder) configure(cfg *definition.Callable, svc any) error {
	switch {
	case cfg.Function != "":
		fn, ok := b.callables[cfg.Function]
		if !ok {
			return fmt.Errorf("callable %q is not registered", cfg.Function)
		}
		return fn(svc)
	case cfg.Service != nil:
		target, err := b.GetWithBehavior(cfg.Service.ID, cfg.Service.Invalid)
		if err != nil {
			return err
		}
		if target == nil {
			return nil
		}
		_, err = b.classes.callMethod(b.classOf(cfg.Service.ID), target, cfg.Method, []any{svc})
		return err
	default:
		class, err := b.resolveString(cfg.Class)
		if err != nil {
			return err
		}
		_, err = b.classes.callStatic(class, cfg.Method, []any{svc})
		return err
	}
}

// classOf returns the class of the definition id resolves to, if any.
func (b *Builder) classOf(id string) string {
	d, err := b.FindDefinition(id)
	if err != nil {
		return ""
	}
	class, err := b.resolveString(d.Class)
	if err != nil {
		return ""
	}
	return class
}

func (b *Builder) resolveString(s string) (string, error) {
	v, err := b.parameters.ResolveValue(s)
	if err != nil {
		return "", err
	}
	return fmt.Sprint(parameter.UnescapeValue(v)), nil
}

func (b *Builder) resolveArguments(args []any) ([]any, error) {
	out := make([]any, len(args))
	for i, arg := range args {
		v, err := b.resolveServices(arg)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// resolveServices substitutes parameters, then replaces references by
// services and inline definitions by fresh instances.
func (b *Builder) resolveServices(v any) (any, error) {
	v, err := b.parameters.ResolveValue(v)
	if err != nil {
		return nil, err
	}
	return b.instantiateValue(parameter.UnescapeValue(v))
}

func (b *Builder) instantiateValue(v any) (any, error) {
	switch v := v.(type) {
	case *definition.Reference:
		return b.GetWithBehavior(v.ID, v.Invalid)
	case *definition.Definition:
		return b.createService(v, "")
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			r, err := b.instantiateValue(item)
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			r, err := b.instantiateValue(item)
			if err != nil {
				return nil, err
			}
			out[k] = r
		}
		return out, nil
	default:
		return v, nil
	}
}

// satisfiable reports whether every ignore-on-invalid reference in v
// points to an existing service.
func (b *Builder) satisfiable(v any) bool {
	switch v := v.(type) {
	case *definition.Reference:
		return v.Invalid != definition.IgnoreOnInvalidReference || b.Has(v.ID)
	case []any:
		for _, item := range v {
			if !b.satisfiable(item) {
				return false
			}
		}
	case map[string]any:
		for _, item := range v {
			if !b.satisfiable(item) {
				return false
			}
		}
	}
	return true
}
