// Package sema assigns virtual-table indices to methods, type-methods, and
// initializers (spec.md §4.D), checks override/promise discipline, and
// builds the per-class protocol dispatch tables.
//
// The inherited-VTI bookkeeping mirrors the teacher's namespace Key scheme
// (lang/scope/namespace.go): a child's identifiers are assigned densely and
// deterministically from where its parent left off, the way treap addresses
// are derived from a parent node's (lo, hi) interval.
package sema

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/emojicode/emojicode/internal/types"
)

// Error reports a VTI-assignment or promise-check failure for one procedure.
type Error struct {
	Class     *types.Class
	Procedure *types.Procedure
	Kind      string
	Message   string
}

func (e *Error) Error() string {
	return errors.Wrapf(errors.New(e.Message), "%s on %c/%c", e.Kind, e.Class.Namespace, e.Class.Name).Error()
}

// AssignVTIs processes every class of prog in topological (declaration)
// order, as required by the invariant that a superclass's index is always
// smaller than its subclasses'.
func AssignVTIs(prog *types.Program) []error {
	var errs []error
	for _, c := range prog.Classes {
		errs = append(errs, assignClassVTIs(c)...)
	}
	for _, pr := range prog.Protocols {
		assignProtocolIndices(pr)
	}
	for _, c := range prog.Classes {
		buildProtocolTable(c)
	}
	return errs
}

func assignProtocolIndices(pr *types.Protocol) {
	for i, m := range pr.Methods {
		m.VTI = i
	}
}

func assignClassVTIs(c *types.Class) []error {
	var errs []error
	base := superOf(c)

	if base != nil {
		c.NextMethodVTI = base.NextMethodVTI
		c.NextTypeMethodVTI = base.NextTypeMethodVTI
		if c.InheritsInitializers {
			c.NextInitializerVTI = base.NextInitializerVTI
		} else {
			c.NextInitializerVTI = 0
		}
	}

	for _, name := range sortedKeys(c.Methods) {
		proc := c.Methods[name]
		proc.Owner = c
		if super := lookupMethod(base, name); super != nil {
			proc.VTI = super.VTI
			if err := promiseCheck(proc, super, c); err != nil {
				errs = append(errs, err)
			}
		} else {
			proc.VTI = c.NextMethodVTI
			c.NextMethodVTI++
		}
	}

	for _, name := range sortedKeys(c.TypeMethods) {
		proc := c.TypeMethods[name]
		proc.Owner = c
		if super := lookupTypeMethod(base, name); super != nil {
			proc.VTI = super.VTI
			if err := promiseCheck(proc, super, c); err != nil {
				errs = append(errs, err)
			}
		} else {
			proc.VTI = c.NextTypeMethodVTI
			c.NextTypeMethodVTI++
		}
	}

	// Initializers never inherit a VTI: inheriting one would be unsound
	// since different initializers establish different instance-variable
	// invariants (spec.md §4.D).
	for _, name := range sortedKeys(c.Initializers) {
		proc := c.Initializers[name]
		proc.Owner = c
		proc.VTI = c.NextInitializerVTI
		c.NextInitializerVTI++
	}

	return errs
}

// promiseCheck implements the sub ≺ super relation of spec.md §4.D.
func promiseCheck(sub, super *types.Procedure, parent *types.Class) error {
	if super.Final {
		return &Error{Class: parent, Procedure: sub, Kind: "OverrideDiscipline",
			Message: "cannot override a final member"}
	}
	if !types.Compatible(sub.Return, super.Return, parent) {
		return &Error{Class: parent, Procedure: sub, Kind: "TypeMismatch",
			Message: "incompatible return type with overridden member"}
	}
	if len(sub.Args) != len(super.Args) {
		return &Error{Class: parent, Procedure: sub, Kind: "WrongArgCount",
			Message: "argument count does not match overridden member"}
	}
	for i := range sub.Args {
		// Contravariant: super's parameter type must accept sub's.
		if !types.Compatible(super.Args[i].Type, sub.Args[i].Type, parent) {
			return &Error{Class: parent, Procedure: sub, Kind: "TypeMismatch",
				Message: "incompatible parameter type with overridden member"}
		}
	}
	return nil
}

func superOf(c *types.Class) *types.Class {
	if c.Super == nil || c.Super == c {
		return nil
	}
	return c.Super
}

func lookupMethod(c *types.Class, name rune) *types.Procedure {
	for cur := c; cur != nil; cur = superOf(cur) {
		if p, ok := cur.Methods[name]; ok {
			return p
		}
	}
	return nil
}

func lookupTypeMethod(c *types.Class, name rune) *types.Procedure {
	for cur := c; cur != nil; cur = superOf(cur) {
		if p, ok := cur.TypeMethods[name]; ok {
			return p
		}
	}
	return nil
}

func sortedKeys(m map[rune]*types.Procedure) []rune {
	keys := make([]rune, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
