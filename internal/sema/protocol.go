package sema

import "github.com/emojicode/emojicode/internal/types"

// buildProtocolTable computes the sparse protocol-dispatch table for c, as
// described in spec.md §4.D: a table of size max-min+1 over the conformed
// protocols' dense indices, each cell holding the method-VTI vector for
// that protocol looked up by name against c's own (possibly inherited)
// method table.
func buildProtocolTable(c *types.Class) {
	if len(c.Protocols) == 0 {
		return
	}
	min, max := c.Protocols[0].Index, c.Protocols[0].Index
	for _, p := range c.Protocols[1:] {
		if p.Index < min {
			min = p.Index
		}
		if p.Index > max {
			max = p.Index
		}
	}

	table := &types.ProtocolDispatchTable{
		MinIndex: min,
		MaxIndex: max,
		Cells:    make([][]int, max-min+1),
	}

	for _, p := range c.Protocols {
		cell := make([]int, len(p.Methods))
		for i, pm := range p.Methods {
			if m := lookupMethod(c, pm.Name); m != nil {
				cell[i] = m.VTI
			} else {
				cell[i] = -1 // unresolved; caller should have already rejected this program
			}
		}
		table.Cells[p.Index-min] = cell
	}

	c.ProtocolTable = table
}
