// Package diag collects compiler diagnostics and flushes them either as
// plain text or as the JSON array described by the CLI's -j flag.
package diag

import (
	"encoding/json"
	"fmt"
	"io"
)

// Kind names a diagnostic per the taxonomy fixed by the language reference.
type Kind string

// Fatal diagnostic kinds make the compilation fail: reporting one sets the
// Sink's Fatal flag.
const (
	IO                  Kind = "IO"
	LexicalSyntax       Kind = "LexicalSyntax"
	UnexpectedToken     Kind = "UnexpectedToken"
	TypeMismatch        Kind = "TypeMismatch"
	UnknownType         Kind = "UnknownType"
	UnknownMember       Kind = "UnknownMember"
	DuplicateDeclaration Kind = "DuplicateDeclaration"
	AccessViolation     Kind = "AccessViolation"
	OverrideDiscipline  Kind = "OverrideDiscipline"
	GenericArity        Kind = "GenericArity"
	GenericMismatch     Kind = "GenericMismatch"
	BadSuperInit        Kind = "BadSuperInit"
	UseBeforeInit       Kind = "UseBeforeInit"
	FrozenWrite         Kind = "FrozenWrite"
	WrongArgCount       Kind = "WrongArgCount"
	BadCast             Kind = "BadCast"
	OverrideWithoutMarker Kind = "OverrideWithoutMarker"
	MarkerWithoutOverride Kind = "MarkerWithoutOverride"
	MissingExplicitReturn Kind = "MissingExplicitReturn"
	BadSuperclass       Kind = "BadSuperclass"
	OptionalAsSuperclass Kind = "OptionalAsSuperclass"
	NotAProtocol        Kind = "NotAProtocol"
	DuplicateType        Kind = "DuplicateType"
	DuplicateMember       Kind = "DuplicateMember"
	TooManyProtocols     Kind = "TooManyProtocols"
	TooManyInstanceVariables Kind = "TooManyInstanceVariables"
	UnterminatedString  Kind = "UnterminatedString"
)

// Warning diagnostic kinds never abort compilation.
const (
	ReservedName        Kind = "ReservedName"
	DeadCode            Kind = "DeadCode"
	AmbiguousCommonType Kind = "AmbiguousCommonType"
	SuperfluousCast     Kind = "SuperfluousCast"
)

var warningKinds = map[Kind]bool{
	ReservedName:        true,
	DeadCode:            true,
	AmbiguousCommonType: true,
	SuperfluousCast:     true,
}

// IsWarning reports whether k never aborts compilation.
func (k Kind) IsWarning() bool {
	return warningKinds[k]
}

// Position locates a diagnostic in a source file.
type Position struct {
	File      string
	Line      int
	Character int
}

// Diagnostic is one compiler error or warning.
type Diagnostic struct {
	Type      Kind   `json:"type"`
	File      string `json:"file"`
	Line      int    `json:"line"`
	Character int    `json:"character"`
	Message   string `json:"message"`
}

func (d Diagnostic) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s: %s", d.File, d.Line, d.Character, d.Type, d.Message)
}

// A Sink accumulates diagnostics during a compilation run. Any non-warning
// diagnostic makes Fatal() true; reporting does not stop there, so later
// diagnostics of the same stage are still recorded, and callers check
// Fatal() after a stage to decide whether to go on. Warnings never set it.
type Sink struct {
	items []Diagnostic
	fatal bool
}

// Report records a diagnostic at pos with the given kind and message.
func (s *Sink) Report(kind Kind, pos Position, format string, args ...interface{}) Diagnostic {
	d := Diagnostic{
		Type:      kind,
		File:      pos.File,
		Line:      pos.Line,
		Character: pos.Character,
		Message:   fmt.Sprintf(format, args...),
	}
	s.items = append(s.items, d)
	if !kind.IsWarning() {
		s.fatal = true
	}
	return d
}

// Fatal reports whether a non-warning diagnostic has been recorded.
func (s *Sink) Fatal() bool {
	return s.fatal
}

// All returns every recorded diagnostic in report order.
func (s *Sink) All() []Diagnostic {
	return s.items
}

// WriteText renders diagnostics one per line, in the style of a compiler's
// plain stderr output.
func (s *Sink) WriteText(w io.Writer) error {
	for _, d := range s.items {
		if _, err := fmt.Fprintln(w, d.Error()); err != nil {
			return err
		}
	}
	return nil
}

// WriteJSON renders diagnostics as a single JSON array, well-formed even if
// compilation aborted after the first fatal diagnostic.
func (s *Sink) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	items := s.items
	if items == nil {
		items = []Diagnostic{}
	}
	return enc.Encode(items)
}
