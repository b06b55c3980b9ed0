// Package consolidation reconciles duplicated form headers into one canonical record per row.
package consolidation

import (
	"fmt"
	"regexp"
)

// suffixPattern matches the "_<integer>" suffix added to repeated headers
var suffixPattern = regexp.MustCompile(`_[0-9]+$`)

// HeaderGroup is the set of columns that carry the same logical field
type HeaderGroup struct {
	Base    string   // unique name with any "_<integer>" suffix removed
	Names   []string // unique names, in column order
	Columns []int    // column positions, in column order
}

// BaseName strips a trailing "_<integer>" suffix from a header name
func BaseName(name string) string {
	return suffixPattern.ReplaceAllString(name, "")
}

// UniqueHeaders returns a unique name for every header. The first occurrence
// of a header keeps its text; later occurrences get "_1", "_2", ... in order.
// A generated name never reuses a header that appears literally in the row.
func UniqueHeaders(headers []string) []string {
	taken := make(map[string]struct{}, len(headers))
	for _, h := range headers {
		taken[h] = struct{}{}
	}

	seen := make(map[string]int, len(headers))
	unique := make([]string, len(headers))
	for i, h := range headers {
		n, repeated := seen[h]
		if !repeated {
			seen[h] = 0
			unique[i] = h
			continue
		}

		for {
			n++
			candidate := fmt.Sprintf("%s_%d", h, n)
			if _, exists := taken[candidate]; !exists {
				taken[candidate] = struct{}{}
				seen[h] = n
				unique[i] = candidate
				break
			}
		}
	}
	return unique
}

// GroupHeaders groups the unique names by their suffix-stripped base, in
// order of first appearance. The rule is textual: an authored "X_1" joins
// the "X" group just like a generated one.
func GroupHeaders(headers []string) []HeaderGroup {
	unique := UniqueHeaders(headers)

	groups := make([]HeaderGroup, 0, len(headers))
	position := make(map[string]int, len(headers))
	for i, name := range unique {
		base := BaseName(name)
		idx, exists := position[base]
		if !exists {
			idx = len(groups)
			position[base] = idx
			groups = append(groups, HeaderGroup{Base: base})
		}
		groups[idx].Names = append(groups[idx].Names, name)
		groups[idx].Columns = append(groups[idx].Columns, i)
	}
	return groups
}

// Key is the field name the group consolidates to. A single column keeps
// its unique name unchanged.
func (g HeaderGroup) Key() string {
	if len(g.Names) == 1 {
		return g.Names[0]
	}
	return g.Base
}
