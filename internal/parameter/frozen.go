package parameter

// FrozenBag is a resolved, read-only snapshot of a bag.
type FrozenBag struct {
	ParameterBag
}

var _ Bag = (*FrozenBag)(nil)

// NewFrozenBag returns a read-only bag holding params, which are assumed
// to be resolved already.
func NewFrozenBag(params map[string]any) *FrozenBag {
	f := &FrozenBag{ParameterBag: *NewBag(params)}
	f.resolved = true
	return f
}

// Set fails with a FrozenError.
func (f *FrozenBag) Set(string, any) error { return &FrozenError{Op: "set"} }

// Add fails with a FrozenError.
func (f *FrozenBag) Add(map[string]any) error { return &FrozenError{Op: "add"} }

// Remove fails with a FrozenError.
func (f *FrozenBag) Remove(string) error { return &FrozenError{Op: "remove"} }

// Clear fails with a FrozenError.
func (f *FrozenBag) Clear() error { return &FrozenError{Op: "clear"} }
