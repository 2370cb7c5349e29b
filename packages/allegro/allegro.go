// Package allegro is a manifest-only stand-in for spec.md §2's Allegro
// native extension package, for the same reason as packages/sdl: a
// cgo-bound multimedia binding with no pure-Go equivalent in the corpus
// and no headless CI story. See packages/sdl's doc comment for the
// full rationale; this package mirrors its shape exactly.
package allegro

import (
	"github.com/emojicode/emojicode/internal/native"
)

type provider struct{}

func init() {
	native.Register("allegro", provider{})
}

func (provider) Version() (uint16, uint16) { return 1, 0 }

func (provider) Method(rune, rune, native.Kind) (native.Func, bool) { return nil, false }

func (provider) Initializer(rune, rune) (native.Func, bool) { return nil, false }

func (provider) Marker(rune) (native.Marker, bool) { return nil, false }

func (provider) Deinitializer(rune) (native.Deinitializer, bool) { return nil, false }
