package hyper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/kbukum/hyperkit/errors"
)

// Object is a decoded node of a response graph. It keeps the JSON fields in
// document order and, separately, the hypermedia operations bound from its
// links, actions and pagination. Nested values are *Object, []any or
// scalars (string, json.Number, bool, nil).
type Object struct {
	fields *orderedmap.OrderedMap[string, any]

	links       map[string]string // bound name -> URL
	linkNames   []string
	actions     map[string]string // bound name -> action name
	actionNames []string
	next, prev  string

	client *Client
}

// NewObject returns an empty detached object, useful for building request
// bodies with Set.
func NewObject() *Object {
	return newObject(nil)
}

func newObject(c *Client) *Object {
	return &Object{
		fields:  orderedmap.New[string, any](),
		links:   map[string]string{},
		actions: map[string]string{},
		client:  c,
	}
}

// Get returns the value of field key, or nil.
func (o *Object) Get(key string) any {
	if o == nil {
		return nil
	}
	v, _ := o.fields.Get(key)
	return v
}

// Lookup returns the value of field key and whether it is present.
func (o *Object) Lookup(key string) (any, bool) {
	if o == nil {
		return nil, false
	}
	return o.fields.Get(key)
}

// Has reports whether field key is present, even with a null value.
func (o *Object) Has(key string) bool {
	_, ok := o.Lookup(key)
	return ok
}

// String returns field key as a string. Numbers are rendered in their JSON
// form; anything else yields "".
func (o *Object) String(key string) string {
	return scalarString(o.Get(key))
}

// Object returns field key when it is a nested object.
func (o *Object) Object(key string) *Object {
	v, _ := o.Get(key).(*Object)
	return v
}

// Slice returns field key when it is an array.
func (o *Object) Slice(key string) []any {
	v, _ := o.Get(key).([]any)
	return v
}

// Path walks nested objects, e.g. Path("links", "self").
func (o *Object) Path(keys ...string) any {
	var cur any = o
	for _, k := range keys {
		obj, ok := cur.(*Object)
		if !ok || obj == nil {
			return nil
		}
		cur = obj.Get(k)
	}
	return cur
}

// Keys returns the field names in document order.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	keys := make([]string, 0, o.fields.Len())
	for pair := o.fields.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Set assigns field key. New keys are appended; existing keys keep their
// position.
func (o *Object) Set(key string, value any) *Object {
	o.fields.Set(key, value)
	return o
}

// Type returns the "type" field.
func (o *Object) Type() string { return o.String("type") }

// ID returns the "id" field.
func (o *Object) ID() string { return o.String("id") }

// SelfURL returns links.self.
func (o *Object) SelfURL() string { return scalarString(o.Path("links", "self")) }

// IsCollection reports whether the object carries a "data" array.
func (o *Object) IsCollection() bool {
	_, ok := o.Get("data").([]any)
	return ok
}

// Len is the number of items for a collection and the number of fields
// otherwise.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	if o.IsCollection() {
		return len(o.Slice("data"))
	}
	return o.fields.Len()
}

// Index returns item i of a collection, or nil when out of range or not
// an object. i indexes Slice("data"), not Items().
func (o *Object) Index(i int) *Object {
	data := o.Slice("data")
	if i < 0 || i >= len(data) {
		return nil
	}
	item, _ := data[i].(*Object)
	return item
}

// Items returns the object items of a collection. Scalar or array
// elements of data are skipped, so len(Items()) can be less than Len();
// Slice("data") returns every element.
func (o *Object) Items() []*Object {
	data := o.Slice("data")
	items := make([]*Object, 0, len(data))
	for _, v := range data {
		if item, ok := v.(*Object); ok {
			items = append(items, item)
		}
	}
	return items
}

// LinkNames returns the bound link names in document order. A link whose
// name collides with a data field is bound as "<name>_link".
func (o *Object) LinkNames() []string { return append([]string(nil), o.linkNames...) }

// ActionNames returns the bound action names in document order. An action
// whose name collides with a field or link is bound as "<name>_action".
func (o *Object) ActionNames() []string { return append([]string(nil), o.actionNames...) }

// HasLink reports whether a link is bound under name.
func (o *Object) HasLink(name string) bool {
	_, ok := o.links[name]
	return ok
}

// HasAction reports whether an action is bound under name.
func (o *Object) HasAction(name string) bool {
	_, ok := o.actions[name]
	return ok
}

// Link follows the link bound under name with a GET, sending filters as
// query parameters.
func (o *Object) Link(ctx context.Context, name string, filters Filters) (*Object, error) {
	target, ok := o.links[name]
	if !ok || o.client == nil {
		return nil, errors.Newf(errors.ErrCodeUnknownLink, "%s has no link %s", o.describe(), name).
			WithDetail("link", name)
	}
	return o.client.GetURL(ctx, target, filters)
}

// Action invokes the action bound under name with a POST whose body is
// merged from body. Conflicts are retried like Client.Action.
func (o *Object) Action(ctx context.Context, name string, body ...any) (*Object, error) {
	action, ok := o.actions[name]
	if !ok || o.client == nil {
		return nil, errors.Newf(errors.ErrCodeUnknownAction, "%s has no action %s", o.describe(), name).
			WithDetail("action", name)
	}
	return o.client.Action(ctx, o, action, body...)
}

// HasNext reports whether pagination.next is set.
func (o *Object) HasNext() bool { return o != nil && o.next != "" }

// HasPrev reports whether pagination.prev is set.
func (o *Object) HasPrev() bool { return o != nil && o.prev != "" }

// Next fetches the next page, or returns nil on the last page.
func (o *Object) Next(ctx context.Context) (*Object, error) {
	if !o.HasNext() || o.client == nil {
		return nil, nil
	}
	return o.client.GetURL(ctx, o.next, nil)
}

// Prev fetches the previous page, or returns nil on the first page.
func (o *Object) Prev(ctx context.Context) (*Object, error) {
	if !o.HasPrev() || o.client == nil {
		return nil, nil
	}
	return o.client.GetURL(ctx, o.prev, nil)
}

// Data returns the fields as plain maps and slices, recursively.
func (o *Object) Data() map[string]any {
	if o == nil {
		return nil
	}
	out := make(map[string]any, o.fields.Len())
	for pair := o.fields.Oldest(); pair != nil; pair = pair.Next() {
		out[pair.Key] = plain(pair.Value)
	}
	return out
}

// MarshalJSON encodes the data fields in document order. Bound links and
// actions are not data and are never encoded.
func (o *Object) MarshalJSON() ([]byte, error) {
	if o == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	i := 0
	for pair := o.fields.Oldest(); pair != nil; pair = pair.Next() {
		if i > 0 {
			buf.WriteByte(',')
		}
		i++
		key, err := json.Marshal(pair.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(pair.Value)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", pair.Key, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Pretty returns the object as indented JSON.
func (o *Object) Pretty() string {
	data, err := json.MarshalIndent(o, "", "  ")
	if err != nil {
		return fmt.Sprintf("<%v>", err)
	}
	return string(data)
}

func (o *Object) describe() string {
	if t := o.Type(); t != "" {
		return fmt.Sprintf("[%s:%s]", t, o.ID())
	}
	return "object"
}

func plain(v any) any {
	switch x := v.(type) {
	case *Object:
		return x.Data()
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = plain(item)
		}
		return out
	default:
		return v
	}
}

func scalarString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case json.Number:
		return x.String()
	case bool, float64, int, int64:
		return fmt.Sprint(x)
	default:
		return ""
	}
}

// fromMap copies m into a detached object with sorted keys.
func fromMap(m map[string]any) *Object {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	obj := NewObject()
	for _, k := range keys {
		obj.Set(k, m[k])
	}
	return obj
}
