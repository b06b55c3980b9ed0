// Package evaluation maps canonical form records into structured evaluation documents.
package evaluation

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/Riolite55/performance-evaluation/internal/types"
)

// blockSuffix matches the " {index}" suffix used by project blocks 2..7
var blockSuffix = regexp.MustCompile(`\s([2-7])$`)

// ExtractCriteria returns every present field that is neither administrative
// (by key prefix) nor a behavioral competency, in record order. The display
// name is the key up to the first criteria delimiter. Columns with a blank
// header carry no criterion name and are left out.
func ExtractCriteria(rec types.Record, layout Layout) []types.Criterion {
	behavioral := make(map[string]struct{}, len(layout.BehavioralKeys))
	for _, k := range layout.BehavioralKeys {
		behavioral[k] = struct{}{}
	}

	var criteria []types.Criterion
	for _, f := range rec.Fields() {
		if !types.Present(f.Value) {
			continue
		}
		if hasAnyPrefix(f.Key, layout.AdminPrefixes) {
			continue
		}
		if _, ok := behavioral[f.Key]; ok {
			continue
		}
		name := DisplayName(f.Key, layout.CriteriaDelimiter)
		if strings.TrimSpace(name) == "" {
			name = strings.TrimSpace(f.Key)
		}
		if name == "" {
			continue
		}
		criteria = append(criteria, types.Criterion{
			Key:   f.Key,
			Name:  name,
			Value: *f.Value,
		})
	}
	return criteria
}

// CriteriaForBlock narrows extracted criteria to one project block.
// Under ScopeShared every block gets all criteria. Under ScopeBlock a key
// ending in " {k}" for k in 2..7 belongs to block k and any other key to block 1.
func CriteriaForBlock(criteria []types.Criterion, index int, scope CriteriaScope) []types.Criterion {
	if scope != ScopeBlock {
		return criteria
	}

	var scoped []types.Criterion
	for _, c := range criteria {
		if BlockOf(c.Key) == index {
			scoped = append(scoped, c)
		}
	}
	return scoped
}

// BlockOf returns the project block a criterion key is attributed to under ScopeBlock
func BlockOf(key string) int {
	m := blockSuffix.FindStringSubmatch(strings.TrimSpace(key))
	if m == nil {
		return 1
	}
	index, err := strconv.Atoi(m[1])
	if err != nil {
		return 1
	}
	return index
}

// DisplayName returns the part of key before the first delimiter, or the whole key
func DisplayName(key, delimiter string) string {
	if delimiter == "" {
		return key
	}
	before, _, found := strings.Cut(key, delimiter)
	if !found {
		return key
	}
	return before
}

func hasAnyPrefix(key string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(key, p) {
			return true
		}
	}
	return false
}
