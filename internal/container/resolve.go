package container

import "fmt"

// Resolve fetches id from c and asserts it to T.
func Resolve[T any](c *Container, id string) (T, error) {
	var zero T
	svc, err := c.Get(id)
	if err != nil {
		return zero, err
	}
	typed, ok := svc.(T)
	if !ok {
		return zero, fmt.Errorf("service %q is %T, not %T", id, svc, zero)
	}
	return typed, nil
}

// MustResolve is like Resolve but panics on error.
func MustResolve[T any](c *Container, id string) T {
	v, err := Resolve[T](c, id)
	if err != nil {
		panic(err)
	}
	return v
}
