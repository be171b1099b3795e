package compiler

import (
	"fmt"
	"reflect"

	"github.com/roach88/kiln/internal/container"
)

// LoggingFormatter renders the compile log messages. Every message is
// prefixed with the name of the pass that produced it.
type LoggingFormatter struct{}

// FormatRemoveService reports a removed definition or alias.
func (LoggingFormatter) FormatRemoveService(pass container.CompilerPass, id, reason string) string {
	return format(pass, fmt.Sprintf("Removed service %q; reason: %s", id, reason))
}

// FormatInlineService reports id inlined into target.
func (LoggingFormatter) FormatInlineService(pass container.CompilerPass, id, target string) string {
	return format(pass, fmt.Sprintf("Inlined service %q to %q.", id, target))
}

// FormatUpdateReference reports a reference of serviceID rewritten from
// oldDest to newDest.
func (LoggingFormatter) FormatUpdateReference(pass container.CompilerPass, serviceID, oldDest, newDest string) string {
	return format(pass, fmt.Sprintf("Changed reference of service %q previously pointing to %q to %q.", serviceID, oldDest, newDest))
}

// FormatResolveInheritance reports a child definition merged with parent.
func (LoggingFormatter) FormatResolveInheritance(pass container.CompilerPass, childID, parentID string) string {
	return format(pass, fmt.Sprintf("Resolving inheritance for %q (parent: %s).", childID, parentID))
}

// Format prefixes message with the pass name.
func (LoggingFormatter) Format(pass container.CompilerPass, message string) string {
	return format(pass, message)
}

func format(pass container.CompilerPass, message string) string {
	return fmt.Sprintf("%s: %s", PassName(pass), message)
}

// PassName returns the type name of pass without package or pointer.
func PassName(pass container.CompilerPass) string {
	t := reflect.TypeOf(pass)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Name() == "" {
		return fmt.Sprintf("%T", pass)
	}
	return t.Name()
}
