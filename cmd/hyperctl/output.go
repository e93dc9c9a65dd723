package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"sigs.k8s.io/yaml"

	"github.com/kbukum/hyperkit/hyper"
)

// Output formats.
const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

// maxCell truncates long values in table cells.
const maxCell = 80

type printer struct {
	format string
	w      io.Writer
}

// value prints anything JSON-encodable. Tables fall back to fmt.
func (p *printer) value(v any) error {
	switch p.format {
	case formatJSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(p.w, string(data))
		return err
	case formatYAML:
		data, err := yaml.Marshal(v)
		if err != nil {
			return err
		}
		_, err = p.w.Write(data)
		return err
	default:
		_, err := fmt.Fprintln(p.w, v)
		return err
	}
}

// object prints a single resource; tables list its fields, links and
// actions.
func (p *printer) object(obj *hyper.Object) error {
	if p.format != formatTable {
		return p.value(obj)
	}

	t := p.table()
	t.AppendHeader(table.Row{"FIELD", "VALUE"})
	for _, key := range obj.Keys() {
		if key == "links" || key == "actions" {
			continue
		}
		t.AppendRow(table.Row{key, cell(obj.Get(key))})
	}
	if names := obj.LinkNames(); len(names) > 0 {
		t.AppendSeparator()
		t.AppendRow(table.Row{"links", fmt.Sprint(names)})
	}
	if names := obj.ActionNames(); len(names) > 0 {
		t.AppendRow(table.Row{"actions", fmt.Sprint(names)})
	}
	t.Render()
	return nil
}

// objects prints a list of resources.
func (p *printer) objects(items []*hyper.Object) error {
	if p.format != formatTable {
		if items == nil {
			items = []*hyper.Object{}
		}
		return p.value(items)
	}

	t := p.table()
	t.AppendHeader(table.Row{"ID", "NAME", "STATE", "TRANSITIONING"})
	for _, item := range items {
		t.AppendRow(table.Row{item.ID(), item.String("name"), item.String("state"), item.String("transitioning")})
	}
	t.AppendFooter(table.Row{"", "", "TOTAL", len(items)})
	t.Render()
	return nil
}

// schemaTypes prints the type capability overview.
func (p *printer) schemaTypes(schema *hyper.Schema) error {
	ids := schema.TypeIDs()
	if p.format != formatTable {
		out := make([]map[string]any, 0, len(ids))
		for _, id := range ids {
			st, _ := schema.Type(id)
			out = append(out, map[string]any{
				"id":        st.ID,
				"listable":  st.Listable,
				"creatable": st.Creatable,
				"updatable": st.Updatable,
				"deletable": st.Deletable,
			})
		}
		return p.value(out)
	}

	t := p.table()
	t.AppendHeader(table.Row{"TYPE", "LIST", "CREATE", "UPDATE", "DELETE", "FILTERS"})
	for _, id := range ids {
		st, _ := schema.Type(id)
		t.AppendRow(table.Row{st.ID, mark(st.Listable), mark(st.Creatable), mark(st.Updatable), mark(st.Deletable), len(st.CollectionFilters)})
	}
	t.Render()
	return nil
}

// schemaType prints one type with its filters and modifiers.
func (p *printer) schemaType(st *hyper.SchemaType) error {
	if p.format != formatTable {
		return p.value(st.Object)
	}

	t := p.table()
	t.SetTitle(st.ID)
	t.AppendHeader(table.Row{"FILTER", "MODIFIERS"})
	names := make([]string, 0, len(st.CollectionFilters))
	for name := range st.CollectionFilters {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		t.AppendRow(table.Row{name, fmt.Sprint(st.CollectionFilters[name].Modifiers)})
	}
	t.AppendFooter(table.Row{"collection", fmt.Sprint(st.CollectionMethods)})
	t.AppendFooter(table.Row{"resource", fmt.Sprint(st.ResourceMethods)})
	t.Render()
	return nil
}

func (p *printer) table() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(p.w)
	t.SetStyle(table.StyleLight)
	return t
}

func mark(ok bool) string {
	if ok {
		return "yes"
	}
	return "-"
}

// cell renders nested values as compact JSON.
func cell(v any) string {
	var s string
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		s = x
	case *hyper.Object, []any:
		data, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		s = string(data)
	default:
		s = fmt.Sprint(x)
	}
	if len(s) > maxCell {
		s = s[:maxCell-3] + "..."
	}
	return s
}
