// Package yq queries YAML documents with dotted paths such as "jobs.build.steps.0.name".
package yq

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/goccy/go-yaml"

	errUtils "github.com/umsi-mads/mads/errors"
)

// Load decodes one YAML document.
func Load(r io.Reader) (any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errUtils.Mark(err, errUtils.ErrReadInput)
	}
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errUtils.Mark(err, errUtils.ErrParseYAML)
	}
	return doc, nil
}

// Get walks data along the dot-separated query. Empty segments keep the current value, so "" and "."
// return data itself. A missing map key yields nil. Indexing a list out of range, with a non-number or
// into a scalar is an ErrQueryPath.
func Get(data any, query string) (any, error) {
	current := data
	for _, key := range strings.Split(query, ".") {
		if key == "" {
			continue
		}

		switch node := current.(type) {
		case nil:
			return nil, nil
		case map[string]any:
			current = node[key]
		case map[any]any:
			current = node[key]
		case []any:
			i, err := strconv.Atoi(key)
			if err != nil || i < 0 || i >= len(node) {
				return nil, errors.Wrapf(errUtils.ErrQueryPath, "index %q into a list of %d", key, len(node))
			}
			current = node[i]
		default:
			return nil, errors.Wrapf(errUtils.ErrQueryPath, "key %q into %T", key, node)
		}
	}
	return current, nil
}

// Format renders a query result. Raw prints strings bare and collections as block YAML; otherwise
// strings are quoted and collections use flow style.
func Format(value any, raw bool) (string, error) {
	switch v := value.(type) {
	case string:
		if raw {
			return v, nil
		}
		return strconv.Quote(v), nil
	case map[string]any, map[any]any, []any:
		out, err := yaml.MarshalWithOptions(v, yaml.Flow(!raw))
		if err != nil {
			return "", errUtils.Mark(err, errUtils.ErrWriteOutput)
		}
		return strings.TrimRight(string(out), "\n"), nil
	default:
		return fmt.Sprint(v), nil
	}
}
