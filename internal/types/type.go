// Package types implements the Emojicode type model: the Type variant, its
// compatibility relation, and the Class/Protocol/Enum/Procedure declaration
// graph built by the parser and consumed by semantic analysis and the
// expression compiler.
//
// The namespace/interning shape is grounded on the teacher's
// lang/scope/namespace.go (a Key type carrying just enough information to
// compare named symbols without touching the symbol store); here a Type is
// the analogous small, comparable-by-value descriptor over the program's
// class/protocol/enum tables.
package types

// Kind tags the variant carried by a Type.
type Kind int

// The type-kind variants of spec.md §3.
const (
	KindClass Kind = iota
	KindProtocol
	KindEnum
	KindBoolean
	KindInteger
	KindSymbol
	KindDouble
	KindNothingness
	KindSomething  // top
	KindSomeObject // object-top
	KindGenericRef
	KindCallable
)

func (k Kind) String() string {
	switch k {
	case KindClass:
		return "class"
	case KindProtocol:
		return "protocol"
	case KindEnum:
		return "enum"
	case KindBoolean:
		return "boolean"
	case KindInteger:
		return "integer"
	case KindSymbol:
		return "symbol"
	case KindDouble:
		return "double"
	case KindNothingness:
		return "nothingness"
	case KindSomething:
		return "something"
	case KindSomeObject:
		return "someobject"
	case KindGenericRef:
		return "generic-reference"
	case KindCallable:
		return "callable"
	default:
		return "unknown"
	}
}

// Type is the tagged variant described in spec.md §3. Only the fields
// relevant to Kind are meaningful; Optional applies to every kind.
type Type struct {
	Kind     Kind
	Optional bool

	Class    *Class    // KindClass
	Protocol *Protocol // KindProtocol
	Enum     *Enum     // KindEnum

	GenericArgs []Type // class-kind: own generic arguments

	RefIndex int // KindGenericRef: index into the owner's generic argument vector

	CallableArgs   []Type // KindCallable
	CallableReturn *Type  // KindCallable
}

// AsOptional returns a copy of t with Optional set.
func (t Type) AsOptional() Type {
	t.Optional = true
	return t
}

// AsRequired returns a copy of t with Optional cleared.
func (t Type) AsRequired() Type {
	t.Optional = false
	return t
}

// Something is the top type (compatible with everything).
func Something() Type { return Type{Kind: KindSomething} }

// SomeObject is the object-top type.
func SomeObject() Type { return Type{Kind: KindSomeObject} }

// Nothingness is the uninhabited-except-for-optionals bottom type.
func Nothingness() Type { return Type{Kind: KindNothingness} }

// Boolean, Integer, Symbol, Double are the primitive leaf types.
func Boolean() Type { return Type{Kind: KindBoolean} }
func Integer() Type { return Type{Kind: KindInteger} }
func Symbol() Type  { return Type{Kind: KindSymbol} }
func Double() Type  { return Type{Kind: KindDouble} }

// ClassType builds a class-kind Type with the given generic arguments.
func ClassType(c *Class, args ...Type) Type {
	return Type{Kind: KindClass, Class: c, GenericArgs: args}
}

// ProtocolType builds a protocol-kind Type.
func ProtocolType(p *Protocol) Type {
	return Type{Kind: KindProtocol, Protocol: p}
}

// EnumType builds an enum-kind Type.
func EnumType(e *Enum) Type {
	return Type{Kind: KindEnum, Enum: e}
}

// GenericRef builds a reference to the idx'th generic parameter of the
// enclosing declaration.
func GenericRef(idx int) Type {
	return Type{Kind: KindGenericRef, RefIndex: idx}
}

// Callable builds a callable (function-value) type.
func Callable(args []Type, ret Type) Type {
	return Type{Kind: KindCallable, CallableArgs: args, CallableReturn: ret.clonePtr()}
}

func (t Type) clonePtr() *Type {
	c := t
	return &c
}

// IsPrimitive reports whether t is one of the four unboxed primitive kinds.
func (t Type) IsPrimitive() bool {
	switch t.Kind {
	case KindBoolean, KindInteger, KindSymbol, KindDouble:
		return true
	default:
		return false
	}
}
