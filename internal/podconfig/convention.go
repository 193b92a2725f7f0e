package podconfig

import (
	"errors"
	"fmt"
	"sort"

	"github.com/go-git/go-billy/v5/util"
	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
)

// ErrUnknownConvention is returned for a convention missing from the file.
var ErrUnknownConvention = errors.New("unknown convention")

// Conventions holds variable naming tables, one per model convention:
//
//	{"conventions": {"CESM": {"pr_var": "PRECT", "prc_var": "PRECC"}}}
type Conventions struct {
	doc any
}

// LoadConventions reads a conventions JSON file.
func (l *Loader) LoadConventions(path string) (*Conventions, error) {
	content, err := util.ReadFile(l.fs, path)
	if err != nil {
		return nil, fmt.Errorf("read conventions: %w", err)
	}
	doc, err := oj.Parse(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse json %s: %w", path, err)
	}
	return &Conventions{doc: doc}, nil
}

// Names returns the var_name → name_in_model table of convention name.
func (c *Conventions) Names(name string) (map[string]string, error) {
	results := jp.C("conventions").C(name).Get(c.doc)
	if len(results) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownConvention, name)
	}
	table, ok := results[0].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("convention %s: expected an object, got %T", name, results[0])
	}

	out := make(map[string]string, len(table))
	for varName, v := range table {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("convention %s: %s: expected a string, got %T", name, varName, v)
		}
		out[varName] = s
	}
	return out, nil
}

// List returns the convention names, sorted.
func (c *Conventions) List() []string {
	var names []string
	for _, r := range jp.C("conventions").Get(c.doc) {
		if m, ok := r.(map[string]any); ok {
			for k := range m {
				names = append(names, k)
			}
		}
	}
	sort.Strings(names)
	return names
}
