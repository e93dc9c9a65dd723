package hyper

import (
	"regexp"
	"slices"
	"strings"
)

// Verbs declared in collectionMethods / resourceMethods.
const (
	MethodGet    = "GET"
	MethodPost   = "POST"
	MethodPut    = "PUT"
	MethodDelete = "DELETE"
)

// Filter is a declared collection filter.
type Filter struct {
	Modifiers []string
}

// SchemaType is one resource type of the API. It is built once at schema
// load and never changes afterwards.
type SchemaType struct {
	ID string

	Creatable bool // POST in collectionMethods
	Updatable bool // PUT in resourceMethods
	Deletable bool // DELETE in resourceMethods
	Listable  bool // GET in collectionMethods

	CollectionMethods []string
	ResourceMethods   []string
	CollectionFilters map[string]Filter

	// Object is the decoded schema node.
	Object *Object
}

// CollectionURL returns links.collection.
func (t *SchemaType) CollectionURL() string {
	return scalarString(t.Object.Path("links", "collection"))
}

// ResourceURL returns the URL of the resource id in this type's collection.
func (t *SchemaType) ResourceURL(id string) string {
	base := t.CollectionURL()
	if strings.HasSuffix(base, "/") {
		return base + id
	}
	return base + "/" + id
}

// AcceptsFilter reports whether key is a declared filter name, or
// "<name>_<modifier>" for one of that filter's declared modifiers.
func (t *SchemaType) AcceptsFilter(key string) bool {
	if _, ok := t.CollectionFilters[key]; ok {
		return true
	}
	for name, f := range t.CollectionFilters {
		for _, m := range f.Modifiers {
			if key == name+"_"+m {
				return true
			}
		}
	}
	return false
}

// Schema is the set of types discovered from the API, plus the raw
// document it was built from.
type Schema struct {
	Text  string
	Types map[string]*SchemaType

	order   []string
	aliases map[string]string
}

// NewSchema classifies every node of root whose type is "schema". root is
// the decoded schema document: a collection object or an array.
func NewSchema(text string, root any) *Schema {
	s := &Schema{
		Text:    text,
		Types:   map[string]*SchemaType{},
		aliases: map[string]string{},
	}

	var nodes []any
	switch r := root.(type) {
	case *Object:
		nodes = r.Slice("data")
	case []any:
		nodes = r
	}

	for _, n := range nodes {
		obj, ok := n.(*Object)
		if !ok || obj.Type() != "schema" || obj.ID() == "" {
			continue
		}
		t := newSchemaType(obj)
		if _, dup := s.Types[t.ID]; !dup {
			s.order = append(s.order, t.ID)
		}
		s.Types[t.ID] = t
	}

	for _, id := range s.order {
		for _, variant := range nameVariants(id) {
			if _, exists := s.aliases[variant]; !exists {
				s.aliases[variant] = id
			}
		}
	}
	return s
}

func newSchemaType(obj *Object) *SchemaType {
	t := &SchemaType{
		ID:                obj.ID(),
		CollectionMethods: stringList(obj.Slice("collectionMethods")),
		ResourceMethods:   stringList(obj.Slice("resourceMethods")),
		CollectionFilters: map[string]Filter{},
		Object:            obj,
	}
	t.Creatable = slices.Contains(t.CollectionMethods, MethodPost)
	t.Listable = slices.Contains(t.CollectionMethods, MethodGet)
	t.Updatable = slices.Contains(t.ResourceMethods, MethodPut)
	t.Deletable = slices.Contains(t.ResourceMethods, MethodDelete)

	if filters := obj.Object("collectionFilters"); filters != nil {
		for _, name := range filters.Keys() {
			var f Filter
			if def := filters.Object(name); def != nil {
				f.Modifiers = stringList(def.Slice("modifiers"))
			}
			t.CollectionFilters[name] = f
		}
	}
	return t
}

// Type resolves name as a type ID or as one of its name variants, so both
// "clusterRegistrationToken" and "cluster_registration_token" work.
func (s *Schema) Type(name string) (*SchemaType, bool) {
	if s == nil {
		return nil, false
	}
	if t, ok := s.Types[name]; ok {
		return t, true
	}
	if id, ok := s.aliases[name]; ok {
		return s.Types[id], true
	}
	return nil, false
}

// TypeIDs returns the type IDs in document order.
func (s *Schema) TypeIDs() []string {
	return append([]string(nil), s.order...)
}

var camelBoundary = regexp.MustCompile(`([a-z])([A-Z])`)

// nameVariants returns name and, when it is camelCase, its snake_case form.
func nameVariants(name string) []string {
	snake := camelBoundary.ReplaceAllString(name, "${1}_${2}")
	if snake == name {
		return []string{name}
	}
	return []string{name, strings.ToLower(snake)}
}

func stringList(values []any) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
