// Copyright 2020, Square, Inc.

package spec

import (
	"fmt"
	"sort"

	"go.uber.org/multierr"
)

// CheckResult holds what the static checks found in one DAG spec. Errors stop
// compilation; warnings are logged and the DAG still resolves.
type CheckResult struct {
	Errors   []error
	Warnings []error
}

// CheckResults maps DAG names to their CheckResult. AnyError tells the compiler
// and the graph service whether any DAG failed without walking every result.
type CheckResults struct {
	Results    map[string]*CheckResult // keyed on DAG name
	AnyError   bool
	AnyWarning bool
}

func NewCheckResults() *CheckResults {
	return &CheckResults{
		Results: map[string]*CheckResult{},
	}
}

// AddResult merges result into the result for DAG key.
func (c *CheckResults) AddResult(key string, result *CheckResult) {
	current, ok := c.Results[key]
	if ok {
		current.Errors = append(current.Errors, result.Errors...)
		current.Warnings = append(current.Warnings, result.Warnings...)
	} else {
		c.Results[key] = result
	}
	c.AnyError = c.AnyError || len(result.Errors) > 0
	c.AnyWarning = c.AnyWarning || len(result.Warnings) > 0
}

func (c *CheckResults) AddError(key string, err error) {
	if _, ok := c.Results[key]; !ok {
		c.Results[key] = &CheckResult{}
	}
	c.Results[key].Errors = append(c.Results[key].Errors, err)
	c.AnyError = true
}

func (c *CheckResults) AddWarning(key string, err error) {
	if _, ok := c.Results[key]; !ok {
		c.Results[key] = &CheckResult{}
	}
	c.Results[key].Warnings = append(c.Results[key].Warnings, err)
	c.AnyWarning = true
}

// Union merges every result of other, such as the results of one checker
// factory, into c.
func (c *CheckResults) Union(other *CheckResults) {
	for key, result := range other.Results {
		if _, ok := c.Results[key]; !ok {
			c.Results[key] = &CheckResult{}
		}
		c.Results[key].Errors = append(c.Results[key].Errors, result.Errors...)
		c.Results[key].Warnings = append(c.Results[key].Warnings, result.Warnings...)
	}
	c.AnyError = c.AnyError || other.AnyError
	c.AnyWarning = c.AnyWarning || other.AnyWarning
}

func (c *CheckResults) Get(key string) (*CheckResult, bool) {
	result, ok := c.Results[key]
	return result, ok
}

// Keys returns the checked DAG names, sorted.
func (c *CheckResults) Keys() []string {
	keys := make([]string, 0, len(c.Results))
	for k := range c.Results {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Err combines every error, in DAG name order, into one error prefixed by the
// DAG name. It returns nil if no
// check failed. Use multierr.Errors to get the individual errors back.
func (c *CheckResults) Err() error {
	var err error
	for _, key := range c.Keys() {
		for _, e := range c.Results[key].Errors {
			err = multierr.Append(err, fmt.Errorf("%s: %s", key, e))
		}
	}
	return err
}
