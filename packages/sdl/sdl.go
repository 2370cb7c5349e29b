// Package sdl is a manifest-only stand-in for spec.md §2's SDL native
// extension package. SDL is a cgo-bound display/audio binding; no
// pure-Go equivalent exists anywhere in the example corpus, and a
// display/audio backend has no headless CI story in this exercise. It
// registers its version and class surface with internal/native so a
// program's package manifest still resolves, but every method and
// initializer lookup fails closed rather than silently no-op'ing,
// matching the same "external collaborator, interface only" treatment
// spec.md gives the CLI front-end and source-file I/O.
package sdl

import (
	"github.com/emojicode/emojicode/internal/native"
)

type provider struct{}

func init() {
	native.Register("sdl", provider{})
}

func (provider) Version() (uint16, uint16) { return 1, 0 }

func (provider) Method(rune, rune, native.Kind) (native.Func, bool) { return nil, false }

func (provider) Initializer(rune, rune) (native.Func, bool) { return nil, false }

func (provider) Marker(rune) (native.Marker, bool) { return nil, false }

func (provider) Deinitializer(rune) (native.Deinitializer, bool) { return nil, false }
