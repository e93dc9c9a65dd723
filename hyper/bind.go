package hyper

import (
	"context"
	"sort"
)

// TypeOps is the set of calls a schema type supports. Only the verbs the
// schema declares are set; the rest are nil.
type TypeOps struct {
	Type *SchemaType

	List       func(ctx context.Context, filters Filters) (*Object, error)
	ByID       func(ctx context.Context, id string, filters Filters) (*Object, error)
	UpdateByID func(ctx context.Context, id string, body ...any) (*Object, error)
	Create     func(ctx context.Context, body ...any) (*Object, error)
}

// buildCapabilities derives TypeOps for every type, keyed by the type ID
// and each of its name variants.
func buildCapabilities(c *Client, schema *Schema) map[string]TypeOps {
	ops := make(map[string]TypeOps, len(schema.Types)*2)
	for _, id := range schema.TypeIDs() {
		t := schema.Types[id]
		entry := TypeOps{Type: t}
		if t.Listable {
			entry.List = func(ctx context.Context, filters Filters) (*Object, error) {
				return c.List(ctx, id, filters)
			}
			entry.ByID = func(ctx context.Context, objID string, filters Filters) (*Object, error) {
				return c.ByID(ctx, id, objID, filters)
			}
		}
		if t.Creatable {
			entry.Create = func(ctx context.Context, body ...any) (*Object, error) {
				return c.Create(ctx, id, body...)
			}
		}
		if t.Updatable {
			entry.UpdateByID = func(ctx context.Context, objID string, body ...any) (*Object, error) {
				return c.UpdateByID(ctx, id, objID, body...)
			}
		}
		for _, name := range nameVariants(id) {
			if _, exists := ops[name]; !exists {
				ops[name] = entry
			}
		}
	}
	return ops
}

// Capabilities returns the calls available for a type, looked up by ID or
// name variant.
func (c *Client) Capabilities(name string) (TypeOps, bool) {
	ops, ok := c.ops[name]
	return ops, ok
}

// CapabilityNames lists every name Capabilities accepts, sorted.
func (c *Client) CapabilityNames() []string {
	names := make([]string, 0, len(c.ops))
	for name := range c.ops {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
