package types

// Program is the whole compile-time type graph: every class in topological
// (declaration) order, every protocol with its dense global index, every
// enum, and the package manifest.
type Program struct {
	Classes   []*Class
	Protocols []*Protocol
	Enums     []*Enum
	Packages  []*Package

	classByName    map[[2]rune]*Class
	protocolByName map[[2]rune]*Protocol
	enumByName     map[[2]rune]*Enum
}

// NewProgram allocates an empty Program.
func NewProgram() *Program {
	return &Program{
		classByName:    make(map[[2]rune]*Class),
		protocolByName: make(map[[2]rune]*Protocol),
		enumByName:     make(map[[2]rune]*Enum),
	}
}

// AddClass appends c to the program, assigning its topological index.
// Returns false if a class of the same (namespace, name) already exists
// (spec.md §3's uniqueness invariant).
func (p *Program) AddClass(c *Class) bool {
	key := [2]rune{c.Namespace, c.Name}
	if _, ok := p.classByName[key]; ok {
		return false
	}
	c.Index = len(p.Classes)
	p.Classes = append(p.Classes, c)
	p.classByName[key] = c
	return true
}

// AddProtocol appends pr, assigning its dense global index.
func (p *Program) AddProtocol(pr *Protocol) bool {
	key := [2]rune{pr.Namespace, pr.Name}
	if _, ok := p.protocolByName[key]; ok {
		return false
	}
	pr.Index = len(p.Protocols)
	p.Protocols = append(p.Protocols, pr)
	p.protocolByName[key] = pr
	return true
}

// AddEnum appends e.
func (p *Program) AddEnum(e *Enum) bool {
	key := [2]rune{e.Namespace, e.Name}
	if _, ok := p.enumByName[key]; ok {
		return false
	}
	p.Enums = append(p.Enums, e)
	p.enumByName[key] = e
	return true
}

// LookupClass finds a class by (namespace, name).
func (p *Program) LookupClass(namespace, name rune) (*Class, bool) {
	c, ok := p.classByName[[2]rune{namespace, name}]
	return c, ok
}

// LookupProtocol finds a protocol by (namespace, name).
func (p *Program) LookupProtocol(namespace, name rune) (*Protocol, bool) {
	pr, ok := p.protocolByName[[2]rune{namespace, name}]
	return pr, ok
}

// LookupEnum finds an enum by (namespace, name).
func (p *Program) LookupEnum(namespace, name rune) (*Enum, bool) {
	e, ok := p.enumByName[[2]rune{namespace, name}]
	return e, ok
}
