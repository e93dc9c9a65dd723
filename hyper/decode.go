package hyper

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"github.com/buger/jsonparser"

	"github.com/kbukum/hyperkit/errors"
)

var errInvalidJSON = stderrors.New("malformed JSON document")

// decoder turns JSON text into an Object graph, binding links, actions
// and pagination to client. A nil client yields detached objects.
type decoder struct {
	client *Client
}

// Decode parses data into a detached graph: *Object, []any or a scalar.
// An empty body decodes to nil.
func Decode(data []byte) (any, error) {
	return decoder{}.decode(data)
}

func (d decoder) decode(data []byte) (any, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}
	// jsonparser skips what it does not need, so trailing commas, trailing
	// text and bad number literals would pass the walk.
	if !json.Valid(data) {
		return nil, decodeError(errInvalidJSON)
	}
	raw, typ, _, err := jsonparser.Get(data)
	if err != nil {
		return nil, decodeError(err)
	}
	v, err := d.value(raw, typ)
	if err != nil {
		return nil, decodeError(err)
	}
	return v, nil
}

func (d decoder) value(raw []byte, typ jsonparser.ValueType) (any, error) {
	switch typ {
	case jsonparser.Object:
		return d.object(raw)
	case jsonparser.Array:
		return d.array(raw)
	case jsonparser.String:
		return parseString(raw)
	case jsonparser.Number:
		return json.Number(raw), nil
	case jsonparser.Boolean:
		return jsonparser.ParseBoolean(raw)
	case jsonparser.Null:
		return nil, nil
	default:
		return nil, fmt.Errorf("unexpected JSON value %q", raw)
	}
}

// parseString unescapes a string body. A lone surrogate escape becomes
// U+FFFD, as encoding/json does, instead of failing.
func parseString(raw []byte) (string, error) {
	if s, err := jsonparser.ParseString(raw); err == nil {
		return s, nil
	}
	quoted := make([]byte, 0, len(raw)+2)
	quoted = append(quoted, '"')
	quoted = append(quoted, raw...)
	quoted = append(quoted, '"')
	var s string
	if err := json.Unmarshal(quoted, &s); err != nil {
		return "", err
	}
	return s, nil
}

func (d decoder) array(raw []byte) ([]any, error) {
	items := []any{}
	var firstErr error
	_, err := jsonparser.ArrayEach(raw, func(v []byte, typ jsonparser.ValueType, _ int, err error) {
		if firstErr != nil {
			return
		}
		if err != nil {
			firstErr = err
			return
		}
		item, err := d.value(v, typ)
		if err != nil {
			firstErr = err
			return
		}
		items = append(items, item)
	})
	if firstErr != nil {
		return nil, firstErr
	}
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (d decoder) object(raw []byte) (*Object, error) {
	obj := newObject(d.client)
	err := jsonparser.ObjectEach(raw, func(key, v []byte, typ jsonparser.ValueType, _ int) error {
		val, err := d.value(v, typ)
		if err != nil {
			return err
		}
		obj.fields.Set(string(key), val)
		return nil
	})
	if err != nil {
		return nil, err
	}
	bind(obj)
	return obj, nil
}

// bind wires pagination on any object, and links and actions on objects
// with a string type. Names already taken by a field, a pagination call or
// an earlier binding get a "_link" / "_action" suffix, repeated until the
// name is free.
func bind(obj *Object) {
	if page := obj.Object("pagination"); page != nil {
		obj.next = page.String("next")
		obj.prev = page.String("prev")
	}

	if _, ok := obj.Get("type").(string); !ok {
		return
	}

	taken := func(name string) bool {
		if obj.Has(name) {
			return true
		}
		if (name == "next" && obj.next != "") || (name == "prev" && obj.prev != "") {
			return true
		}
		_, isLink := obj.links[name]
		_, isAction := obj.actions[name]
		return isLink || isAction
	}

	if links := obj.Object("links"); links != nil {
		for _, name := range links.Keys() {
			target := links.String(name)
			if target == "" {
				continue
			}
			bound := name
			for taken(bound) {
				bound += "_link"
			}
			obj.links[bound] = target
			obj.linkNames = append(obj.linkNames, bound)
		}
	}

	if actions := obj.Object("actions"); actions != nil {
		for _, name := range actions.Keys() {
			if actions.String(name) == "" {
				continue
			}
			bound := name
			for taken(bound) {
				bound += "_action"
			}
			obj.actions[bound] = name
			obj.actionNames = append(obj.actionNames, bound)
		}
	}
}

func decodeError(err error) error {
	return errors.New(errors.ErrCodeDecode, "invalid JSON response").WithCause(err)
}
