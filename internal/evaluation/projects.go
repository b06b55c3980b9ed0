// Package evaluation maps canonical form records into structured evaluation documents.
package evaluation

import (
	"github.com/Riolite55/performance-evaluation/internal/types"
)

// ResolveProject reads project block index (1..7) from a record using the
// layout's key table. It returns false when the index is out of range or the
// block's project name is not present; no partial block is ever returned.
func ResolveProject(rec types.Record, index int, layout Layout) (*types.ProjectBlock, bool) {
	if index < 1 || index > types.MaxProjectBlocks {
		return nil, false
	}

	keys := layout.Blocks[index-1]
	name, ok := lookup(rec, keys.Name)
	if !ok {
		return nil, false
	}

	block := &types.ProjectBlock{
		Index:          index,
		Name:           name,
		Client:         optional(rec, keys.Client),
		AssignmentDate: optional(rec, keys.AssignmentDate),
		StartDate:      optional(rec, keys.StartDate),
		CRPCRD:         optional(rec, keys.CRPCRD),
	}
	if index == 1 {
		block.DRMName = optional(rec, keys.DRMName)
		block.BDMName = optional(rec, keys.BDMName)
	}
	return block, true
}

// ResolveProjects checks every block index independently and returns the
// populated ones in index order.
func ResolveProjects(rec types.Record, layout Layout) []types.ProjectBlock {
	var blocks []types.ProjectBlock
	for index := 1; index <= types.MaxProjectBlocks; index++ {
		if block, ok := ResolveProject(rec, index, layout); ok {
			blocks = append(blocks, *block)
		}
	}
	return blocks
}

// lookup reads a present value; an empty key is never looked up
func lookup(rec types.Record, key string) (string, bool) {
	if key == "" {
		return "", false
	}
	return rec.Lookup(key)
}

func optional(rec types.Record, key string) string {
	v, _ := lookup(rec, key)
	return v
}
