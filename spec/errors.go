// Copyright 2020, Square, Inc.

package spec

import (
	"fmt"
	"sort"
	"strings"
)

func stringSetToArray(set map[string]bool) []string {
	arr := []string{}
	for v := range set {
		arr = append(arr, v)
	}
	sort.Strings(arr)
	return arr
}

func location(dag string, node *string) string {
	if node == nil {
		return fmt.Sprintf("dag %s", dag)
	}
	return fmt.Sprintf("dag %s, node %s", dag, *node)
}

/* =========================================================================== */

var _ error = InvalidValueError{}

type InvalidValueError struct {
	Dag      string
	Node     *string
	Field    string
	Values   []string
	Expected string
}

func (e InvalidValueError) Error() string {
	values := fmt.Sprintf("\"%s\"", strings.Join(e.Values, "\", \""))
	return fmt.Sprintf("%s: invalid value(s) %s in field `%s`, expected %s",
		location(e.Dag, e.Node), values, e.Field, e.Expected)
}

/* =========================================================================== */

var _ error = MissingValueError{}

type MissingValueError struct {
	Dag         string
	Node        *string
	Field       string
	Explanation string
}

func (e MissingValueError) Error() string {
	var explanation string
	if e.Explanation != "" {
		explanation = fmt.Sprintf(": %s", e.Explanation)
	}
	return fmt.Sprintf("%s: field(s) `%s` missing%s", location(e.Dag, e.Node), e.Field, explanation)
}

/* =========================================================================== */

var _ error = DuplicateValueError{}

type DuplicateValueError struct {
	Dag         string
	Node        *string
	Field       string
	Values      []string
	Explanation string
}

func (e DuplicateValueError) Error() string {
	values := fmt.Sprintf("\"%s\"", strings.Join(e.Values, "\", \""))
	var explanation string
	if e.Explanation != "" {
		explanation = fmt.Sprintf(": %s", e.Explanation)
	}
	return fmt.Sprintf("%s: value(s) %s duplicated in field `%s`%s",
		location(e.Dag, e.Node), values, e.Field, explanation)
}
