package container

import (
	"errors"
	"fmt"
	"reflect"
	"unicode"
	"unicode/utf8"
)

// Constructor builds a value from resolved arguments.
type Constructor func(args []any) (any, error)

// Method invokes a named method on obj.
type Method func(obj any, args []any) (any, error)

// Class describes how to build and drive instances of one class name.
type Class struct {
	// New constructs an instance from the definition's arguments.
	New Constructor

	// Static holds functions addressed as Class::name: factory methods
	// and static configurators.
	Static map[string]Constructor

	// Methods holds instance methods addressed by method calls, factory
	// services and service configurators. Missing entries fall back to
	// the exported Go method of the same name.
	Methods map[string]Method
}

// ClassRegistry maps class names to their Class.
type ClassRegistry struct {
	classes map[string]*Class
}

// NewClassRegistry returns an empty registry.
func NewClassRegistry() *ClassRegistry {
	return &ClassRegistry{classes: make(map[string]*Class)}
}

// Register stores class under name, replacing any previous entry.
func (r *ClassRegistry) Register(name string, class Class) *ClassRegistry {
	r.classes[name] = &class
	return r
}

// Lookup returns the class registered under name.
func (r *ClassRegistry) Lookup(name string) (*Class, bool) {
	c, ok := r.classes[name]
	return c, ok
}

// Has reports whether name is registered.
func (r *ClassRegistry) Has(name string) bool {
	_, ok := r.classes[name]
	return ok
}

func (r *ClassRegistry) construct(name string, args []any) (any, error) {
	class, ok := r.classes[name]
	if !ok {
		return nil, fmt.Errorf("class %q is not registered", name)
	}
	if class.New == nil {
		return nil, fmt.Errorf("class %q has no constructor", name)
	}
	return class.New(args)
}

func (r *ClassRegistry) callStatic(name, fn string, args []any) (any, error) {
	class, ok := r.classes[name]
	if !ok {
		return nil, fmt.Errorf("class %q is not registered", name)
	}
	static, ok := class.Static[fn]
	if !ok {
		return nil, fmt.Errorf("class %q has no static function %q", name, fn)
	}
	return static(args)
}

// callMethod invokes method on obj, preferring the registry entry of
// className and falling back to reflection.
func (r *ClassRegistry) callMethod(className string, obj any, method string, args []any) (any, error) {
	if class, ok := r.classes[className]; ok {
		if m, ok := class.Methods[method]; ok {
			return m(obj, args)
		}
	}
	return invokeMethod(obj, method, args)
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// invokeMethod calls the exported Go method named after method.
// A trailing error result is returned as the error; the first other result
// is returned as the value.
func invokeMethod(obj any, method string, args []any) (any, error) {
	if obj == nil {
		return nil, fmt.Errorf("cannot call %s on nil", method)
	}
	m := reflect.ValueOf(obj).MethodByName(exportedName(method))
	if !m.IsValid() {
		return nil, fmt.Errorf("%T has no method %s", obj, exportedName(method))
	}

	t := m.Type()
	fixed := t.NumIn()
	if t.IsVariadic() {
		fixed--
		if len(args) < fixed {
			return nil, fmt.Errorf("%T.%s expects at least %d arguments, got %d", obj, exportedName(method), fixed, len(args))
		}
	} else if len(args) != fixed {
		return nil, fmt.Errorf("%T.%s expects %d arguments, got %d", obj, exportedName(method), fixed, len(args))
	}

	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		want := t.In(min(i, t.NumIn()-1))
		if t.IsVariadic() && i >= fixed {
			want = t.In(fixed).Elem()
		}
		v, err := convertArg(arg, want)
		if err != nil {
			return nil, fmt.Errorf("argument %d of %T.%s: %w", i, obj, exportedName(method), err)
		}
		in[i] = v
	}

	return splitResults(m.Call(in))
}

func splitResults(out []reflect.Value) (any, error) {
	if n := len(out); n > 0 && out[n-1].Type().Implements(errorType) {
		if !out[n-1].IsNil() {
			return nil, out[n-1].Interface().(error)
		}
		out = out[:n-1]
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0].Interface(), nil
}

// setProperty assigns value to the exported field name of a struct
// pointer, or to key name of a map[string]any.
func setProperty(obj any, name string, value any) error {
	if m, ok := obj.(map[string]any); ok {
		m[name] = value
		return nil
	}
	v := reflect.ValueOf(obj)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("cannot set property %s on %T", name, obj)
	}
	f := v.Elem().FieldByName(exportedName(name))
	if !f.IsValid() || !f.CanSet() {
		return fmt.Errorf("%T has no settable field %s", obj, exportedName(name))
	}
	cv, err := convertArg(value, f.Type())
	if err != nil {
		return fmt.Errorf("property %s of %T: %w", name, obj, err)
	}
	f.Set(cv)
	return nil
}

var errNotConvertible = errors.New("value not convertible")

// convertArg adapts a configuration value to a Go parameter type.
func convertArg(arg any, want reflect.Type) (reflect.Value, error) {
	if arg == nil {
		return reflect.Zero(want), nil
	}
	v := reflect.ValueOf(arg)
	if v.Type().AssignableTo(want) {
		return v, nil
	}
	if sameFamily(v.Kind(), want.Kind()) && v.Type().ConvertibleTo(want) {
		return v.Convert(want), nil
	}
	if v.Kind() == reflect.Slice && want.Kind() == reflect.Slice {
		out := reflect.MakeSlice(want, v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			elem, err := convertArg(v.Index(i).Interface(), want.Elem())
			if err != nil {
				return reflect.Value{}, err
			}
			out.Index(i).Set(elem)
		}
		return out, nil
	}
	if v.Kind() == reflect.Map && want.Kind() == reflect.Map && v.Type().Key() == want.Key() {
		out := reflect.MakeMapWithSize(want, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			elem, err := convertArg(iter.Value().Interface(), want.Elem())
			if err != nil {
				return reflect.Value{}, err
			}
			out.SetMapIndex(iter.Key(), elem)
		}
		return out, nil
	}
	return reflect.Value{}, fmt.Errorf("%w: %T to %s", errNotConvertible, arg, want)
}

func sameFamily(a, b reflect.Kind) bool {
	return (isNumber(a) && isNumber(b)) || (a == reflect.String && b == reflect.String) || (a == reflect.Bool && b == reflect.Bool)
}

func isNumber(k reflect.Kind) bool {
	return (k >= reflect.Int && k <= reflect.Uint64) || k == reflect.Float32 || k == reflect.Float64
}

// exportedName upper-cases the first rune: setLogger -> SetLogger.
func exportedName(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return name
	}
	return string(unicode.ToUpper(r)) + name[size:]
}
