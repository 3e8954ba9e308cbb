// Copyright 2020, Square, Inc.

package builder

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

type kwarg struct {
	Key   string
	Value interface{}
}

// kwargs returns the entries of m sorted by key, keys made valid identifiers.
func kwargs(m map[string]interface{}) []kwarg {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	args := make([]kwarg, 0, len(keys))
	for _, k := range keys {
		args = append(args, kwarg{Key: varName(k), Value: m[k]})
	}
	return args
}

// varName maps a node id to a Python identifier.
func varName(s string) string {
	v := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		}
		return '_'
	}, s)
	if v == "" || (v[0] >= '0' && v[0] <= '9') {
		v = "_" + v
	}
	return v
}

func pyString(s string) string {
	return strconv.Quote(s)
}

// pyRepr returns the Python literal of a YAML value. Map keys are sorted.
func pyRepr(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return "None"
	case bool:
		if t {
			return "True"
		}
		return "False"
	case string:
		return pyString(t)
	case int, int64, uint64, float64:
		return fmt.Sprintf("%v", t)
	case []interface{}:
		items := make([]string, len(t))
		for i, e := range t {
			items[i] = pyRepr(e)
		}
		return "[" + strings.Join(items, ", ") + "]"
	case []string:
		items := make([]string, len(t))
		for i, e := range t {
			items[i] = pyString(e)
		}
		return "[" + strings.Join(items, ", ") + "]"
	case map[string]interface{}:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		items := make([]string, len(keys))
		for i, k := range keys {
			items[i] = pyString(k) + ": " + pyRepr(t[k])
		}
		return "{" + strings.Join(items, ", ") + "}"
	}
	return pyString(fmt.Sprintf("%v", v))
}
