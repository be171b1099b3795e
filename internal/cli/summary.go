package cli

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/roach88/kiln/internal/container"
	"github.com/roach88/kiln/internal/definition"
)

// ServiceSummary is one row of a service listing.
type ServiceSummary struct {
	ID        string `json:"id"`
	Class     string `json:"class"`
	Scope     string `json:"scope"`
	Public    bool   `json:"public"`
	Synthetic bool   `json:"synthetic,omitempty"`
}

// AliasSummary is one row of an alias listing.
type AliasSummary struct {
	ID     string `json:"id"`
	Target string `json:"target"`
	Public bool   `json:"public"`
}

// ServiceDetail describes one compiled definition.
type ServiceDetail struct {
	ID           string                      `json:"id"`
	AliasOf      string                      `json:"alias_of,omitempty"`
	Class        string                      `json:"class"`
	Scope        string                      `json:"scope"`
	Public       bool                        `json:"public"`
	Synthetic    bool                        `json:"synthetic,omitempty"`
	Abstract     bool                        `json:"abstract,omitempty"`
	Factory      string                      `json:"factory,omitempty"`
	File         string                      `json:"file,omitempty"`
	Arguments    []string                    `json:"arguments"`
	Calls        []string                    `json:"calls,omitempty"`
	Properties   map[string]string           `json:"properties,omitempty"`
	Tags         map[string][]map[string]any `json:"tags,omitempty"`
	Configurator string                      `json:"configurator,omitempty"`
}

func summarizeServices(b *container.Builder) []ServiceSummary {
	out := make([]ServiceSummary, 0, len(b.DefinitionIDs()))
	for _, id := range b.DefinitionIDs() {
		spec, err := b.Spec(id)
		if err != nil {
			continue
		}
		d := spec.Base()
		out = append(out, ServiceSummary{ID: id, Class: d.Class, Scope: d.Scope, Public: d.Public, Synthetic: d.Synthetic})
	}
	return out
}

func summarizeAliases(b *container.Builder) []AliasSummary {
	out := make([]AliasSummary, 0, len(b.AliasIDs()))
	for _, id := range b.AliasIDs() {
		a, err := b.Alias(id)
		if err != nil {
			continue
		}
		out = append(out, AliasSummary{ID: id, Target: a.ID, Public: a.Public})
	}
	return out
}

// describeService returns the detail of id, following an alias to its
// definition.
func describeService(b *container.Builder, id string) (ServiceDetail, error) {
	id = definition.NormalizeID(id)
	detail := ServiceDetail{ID: id}
	target := id
	if a, err := b.Alias(id); err == nil {
		detail.AliasOf, target = a.ID, a.ID
	}

	spec, err := b.Spec(target)
	if err != nil {
		return ServiceDetail{}, err
	}
	d := spec.Base()

	detail.Class = d.Class
	detail.Scope = d.Scope
	detail.Public = d.Public
	detail.Synthetic = d.Synthetic
	detail.Abstract = d.Abstract
	detail.Factory = factoryOf(d)
	detail.File = d.File
	detail.Configurator = d.Configurator.String()

	detail.Arguments = make([]string, len(d.Arguments))
	for i, arg := range d.Arguments {
		detail.Arguments[i] = formatValue(arg)
	}
	for _, call := range d.Calls {
		detail.Calls = append(detail.Calls, call.Method+"("+formatList(call.Arguments)+")")
	}
	if len(d.Properties) > 0 {
		detail.Properties = make(map[string]string, len(d.Properties))
		for name, v := range d.Properties {
			detail.Properties[name] = formatValue(v)
		}
	}
	if len(d.Tags) > 0 {
		detail.Tags = d.Tags
	}
	return detail, nil
}

func factoryOf(d *definition.Definition) string {
	switch {
	case d.FactoryService != "":
		return "@" + d.FactoryService + "::" + d.FactoryMethod
	case d.FactoryClass != "":
		return d.FactoryClass + "::" + d.FactoryMethod
	default:
		return ""
	}
}

// formatValue renders an argument in configuration syntax: references as
// @id, inline definitions as a constructor or factory call.
func formatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(v)
	case *definition.Reference:
		var b strings.Builder
		b.WriteString("@")
		if v.Invalid != definition.ExceptionOnInvalidReference {
			b.WriteString("?")
		}
		b.WriteString(v.ID)
		if !v.Strict {
			b.WriteString("=")
		}
		return b.String()
	case *definition.Definition:
		args := formatList(v.Arguments)
		if f := factoryOf(v); f != "" {
			return f + "(" + args + ")"
		}
		return "new " + v.Class + "(" + args + ")"
	case []any:
		return "[" + formatList(v) + "]"
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ": " + formatValue(v[k])
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return fmt.Sprint(v)
	}
}

func formatList(values []any) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = formatValue(v)
	}
	return strings.Join(parts, ", ")
}

// writeServiceTable prints services as aligned id/class/scope/visibility
// columns.
func writeServiceTable(f *OutputFormatter, services []ServiceSummary) {
	idWidth, classWidth := 0, 0
	for _, s := range services {
		idWidth = max(idWidth, len(s.ID))
		classWidth = max(classWidth, len(s.Class))
	}
	for _, s := range services {
		flags := "private"
		if s.Public {
			flags = "public"
		}
		if s.Synthetic {
			flags += " synthetic"
		}
		f.Printf("  %-*s  %-*s  %-9s  %s\n", idWidth, s.ID, classWidth, s.Class, s.Scope, flags)
	}
}

func writeAliasList(f *OutputFormatter, aliases []AliasSummary) {
	for _, a := range aliases {
		suffix := ""
		if !a.Public {
			suffix = " (private)"
		}
		f.Printf("  %s -> %s%s\n", a.ID, a.Target, suffix)
	}
}
