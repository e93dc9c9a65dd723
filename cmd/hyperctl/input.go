package main

import (
	"encoding/json"
	"io"
	"os"
	"strconv"
	"strings"

	"sigs.k8s.io/yaml"

	"github.com/kbukum/hyperkit/errors"
	"github.com/kbukum/hyperkit/hyper"
)

// readBody builds a request body from a YAML or JSON file ("-" reads
// stdin) and --set key=value pairs applied on top.
func readBody(stdin io.Reader, file string, sets []string) (*hyper.Object, error) {
	body := hyper.NewObject()
	if file != "" {
		var (
			data []byte
			err  error
		)
		if file == "-" {
			data, err = io.ReadAll(stdin)
		} else {
			data, err = os.ReadFile(file)
		}
		if err != nil {
			return nil, errors.InvalidInput("file", err.Error())
		}
		body, err = decodeYAML(data)
		if err != nil {
			return nil, err
		}
	}
	if err := applySets(body, sets); err != nil {
		return nil, err
	}
	return body, nil
}

func decodeYAML(data []byte) (*hyper.Object, error) {
	doc, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, errors.InvalidInput("file", err.Error())
	}
	v, err := hyper.Decode(doc)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(*hyper.Object)
	if !ok {
		return nil, errors.InvalidInput("file", "document must be a mapping")
	}
	return obj, nil
}

// applySets assigns each key=value. Dotted keys create nested objects;
// booleans, null and numbers keep their type.
func applySets(body *hyper.Object, sets []string) error {
	for _, kv := range sets {
		key, raw, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return errors.InvalidInput("set", "expected key=value, got "+kv)
		}
		path := strings.Split(key, ".")
		target := body
		for _, part := range path[:len(path)-1] {
			next := target.Object(part)
			if next == nil {
				next = hyper.NewObject()
				target.Set(part, next)
			}
			target = next
		}
		target.Set(path[len(path)-1], scalar(raw))
	}
	return nil
}

func scalar(raw string) any {
	switch raw {
	case "true":
		return true
	case "false":
		return false
	case "null":
		return nil
	}
	if _, err := strconv.ParseFloat(raw, 64); err == nil && json.Valid([]byte(raw)) {
		return json.Number(raw)
	}
	return raw
}

// parseFilters turns repeated key=value flags into list filters; a key
// given twice becomes a multi-value filter.
func parseFilters(pairs []string) (hyper.Filters, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	filters := hyper.Filters{}
	for _, kv := range pairs {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return nil, errors.InvalidInput("filter", "expected key=value, got "+kv)
		}
		switch prev := filters[key].(type) {
		case nil:
			filters[key] = value
		case string:
			filters[key] = []string{prev, value}
		case []string:
			filters[key] = append(prev, value)
		}
	}
	return filters, nil
}
