package types

// AccessLevel is a Procedure's declared visibility.
type AccessLevel int

const (
	Public AccessLevel = iota
	Protected
	Private
)

// InstanceVar is one instance variable slot of a Class.
type InstanceVar struct {
	Name rune
	Type Type
}

// GenericParam is one of a Class's own generic type parameters.
type GenericParam struct {
	Name       rune
	Constraint Type
}

// Procedure is the common shape of a method, type-method, or initializer
// (spec.md §3's "Procedure").
type Procedure struct {
	Name   rune
	Args   []Arg
	Return Type
	Access AccessLevel

	Final                bool
	Overriding           bool
	Native               bool
	Required             bool // initializer only
	CanReturnNothingness bool // initializer only

	VTI int

	// Set by the expression/statement compiler (§4.E).
	TokenPos  int
	CodeStart int
	CodeLen   int

	Owner *Class // the class this procedure is declared (or promised) on

	// Body holds the parsed statement list (a []ast.Stmt) for non-native
	// procedures. Declared as interface{} to avoid an import cycle between
	// this package and internal/ast, which itself depends on types.Type.
	Body interface{}
}

// Arg is one formal parameter of a Procedure.
type Arg struct {
	Name rune
	Type Type
}

// ProtocolDispatchTable is the sparse per-class protocol table described in
// spec.md §4.D: cell i holds the method-VTI vector for protocol
// (MinIndex+i).
type ProtocolDispatchTable struct {
	MinIndex int
	MaxIndex int
	Cells    [][]int // Cells[protoIndex-MinIndex][methodIndexInProtocol] = VTI
}

// Class is a declared Emojicode class (spec.md §3).
type Class struct {
	Name      rune
	Namespace rune
	Index     int // position in the program's topological class table

	Super *Class // nil, or itself, for the root class

	InstanceVars []InstanceVar

	Methods      map[rune]*Procedure
	TypeMethods  map[rune]*Procedure
	Initializers map[rune]*Procedure

	Protocols []*Protocol

	OwnGenericArgs   []GenericParam
	SuperGenericArgs []Type

	NextMethodVTI      int
	NextTypeMethodVTI  int
	NextInitializerVTI int

	InheritsInitializers bool
	Final                bool

	// Populated during layout (§4.D / §4.H).
	IDOffset      int // base offset of instance variables in the object's value area
	ProtocolTable *ProtocolDispatchTable
}

// NewClass allocates an empty Class ready for declaration parsing.
func NewClass(name, namespace rune) *Class {
	return &Class{
		Name:         name,
		Namespace:    namespace,
		Methods:      make(map[rune]*Procedure),
		TypeMethods:  make(map[rune]*Procedure),
		Initializers: make(map[rune]*Procedure),
	}
}

// IsRoot reports whether c is its own superclass (the sentinel used for
// root classes in both the in-memory graph and the bytecode format).
func (c *Class) IsRoot() bool {
	return c.Super == c || c.Super == nil
}

// Protocol is a named set of method signatures (spec.md §3).
type Protocol struct {
	Name      rune
	Namespace rune
	Methods   []*Procedure
	Index     int // dense, program-global
}

// Enum assigns sequential (or explicit) integer values to member code
// points (spec.md §3).
type Enum struct {
	Name      rune
	Namespace rune
	Members   map[rune]int64
	Order     []rune // declaration order, for deterministic iteration/writing
}

// NewEnum allocates an empty Enum.
func NewEnum(name, namespace rune) *Enum {
	return &Enum{Name: name, Namespace: namespace, Members: make(map[rune]int64)}
}

// Add assigns the next sequential value to member, unless explicit is set.
func (e *Enum) Add(member rune, explicit int64, hasExplicit bool) {
	var v int64
	if hasExplicit {
		v = explicit
	} else if len(e.Order) > 0 {
		v = e.Members[e.Order[len(e.Order)-1]] + 1
	}
	e.Members[member] = v
	e.Order = append(e.Order, member)
}

// Package is a named, versioned unit of native-bound declarations
// (spec.md §3, §6).
type Package struct {
	Name                 string
	Major, Minor         uint16
	RequiresNativeBinary bool
}
