package types

// Compatible implements the compatibility relation of spec.md §4.B:
// compatible(a → to, parent). parent supplies the generic-argument vector
// used to resolve KindGenericRef on either side.
func Compatible(a, to Type, parent *Class) bool {
	if to.Optional && a.Kind == KindNothingness {
		return true
	}
	if a.Optional && !to.Optional {
		// An optional value is never compatible with a non-optional
		// target, except nothingness itself which is handled above via
		// the to.Optional branch; otherwise fall through to strip and
		// compare structurally once the optional requirement is met.
		if to.Kind != KindNothingness {
			return false
		}
	}

	switch {
	case to.Kind == KindSomething:
		return true

	case to.Kind == KindSomeObject:
		switch a.Kind {
		case KindClass, KindProtocol, KindSomeObject:
			return true
		default:
			return false
		}

	case a.Kind == KindGenericRef || to.Kind == KindGenericRef:
		ra, oka := resolveRef(a, parent)
		rt, okt := resolveRef(to, parent)
		if !oka {
			ra = a
		}
		if !okt {
			rt = to
		}
		if oka || okt {
			return Compatible(ra, rt, parent)
		}
		return false

	case a.Kind == KindNothingness:
		return to.Optional || to.Kind == KindNothingness

	case a.Kind == KindClass && to.Kind == KindClass:
		if !inherits(a.Class, to.Class) {
			return false
		}
		if len(to.GenericArgs) == 0 {
			return true
		}
		if len(a.GenericArgs) != len(to.GenericArgs) {
			return false
		}
		for i := range to.GenericArgs {
			if !Compatible(a.GenericArgs[i], to.GenericArgs[i], parent) {
				return false
			}
			if !Compatible(to.GenericArgs[i], a.GenericArgs[i], parent) {
				return false
			}
		}
		return true

	case a.Kind == KindClass && to.Kind == KindProtocol:
		return conformsTo(a.Class, to.Protocol)

	case a.Kind == KindProtocol && to.Kind == KindProtocol:
		return a.Protocol == to.Protocol

	case a.Kind == KindEnum && to.Kind == KindEnum:
		return a.Enum == to.Enum

	case a.Kind == KindCallable && to.Kind == KindCallable:
		if len(a.CallableArgs) != len(to.CallableArgs) {
			return false
		}
		if a.CallableReturn == nil || to.CallableReturn == nil {
			return a.CallableReturn == to.CallableReturn
		}
		if !Compatible(*a.CallableReturn, *to.CallableReturn, parent) {
			return false
		}
		// Arguments are contravariant: to.arg must be compatible with a.arg.
		for i := range a.CallableArgs {
			if !Compatible(to.CallableArgs[i], a.CallableArgs[i], parent) {
				return false
			}
		}
		return true

	default:
		return a.Kind == to.Kind
	}
}

// resolveRef resolves a KindGenericRef through parent's own generic
// argument vector, walking the superclass chain if parent itself has no
// binding at that index (mirroring a class that forwards a superclass's
// generic parameter).
func resolveRef(t Type, parent *Class) (Type, bool) {
	if t.Kind != KindGenericRef {
		return t, false
	}
	c := parent
	for c != nil {
		if t.RefIndex < len(c.OwnGenericArgs) {
			return c.OwnGenericArgs[t.RefIndex].Constraint, true
		}
		if t.RefIndex < len(c.SuperGenericArgs) {
			return c.SuperGenericArgs[t.RefIndex], true
		}
		if c.Super == c {
			break // root class is its own superclass
		}
		c = c.Super
	}
	return Type{}, false
}

// inherits reports whether a is c or a transitive subclass of c.
func inherits(a, c *Class) bool {
	for cur := a; cur != nil; cur = cur.Super {
		if cur == c {
			return true
		}
		if cur.Super == cur {
			break // root class is its own superclass-index sentinel
		}
	}
	return false
}

// conformsTo reports whether class c declares conformance to protocol p,
// transitively through its superclass chain.
func conformsTo(c *Class, p *Protocol) bool {
	for cur := c; cur != nil; {
		for _, conf := range cur.Protocols {
			if conf == p {
				return true
			}
		}
		if cur.Super == cur {
			break
		}
		cur = cur.Super
	}
	return false
}
