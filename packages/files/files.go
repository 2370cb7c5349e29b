// Package files implements spec.md §2's "files" native extension
// package: a File class wrapping an *os.File. No third-party dependency
// in the corpus fits basic filesystem I/O any better than os/io
// themselves — this is the one native package where the standard
// library genuinely is the idiomatic choice, not a stand-in for a
// missing ecosystem dep (recorded in DESIGN.md).
package files

import (
	"io"
	"os"
	"sync"

	"github.com/emojicode/emojicode/internal/native"
	"github.com/emojicode/emojicode/internal/runtime/gc"
	"github.com/emojicode/emojicode/internal/runtime/primitive"
)

const (
	classFile rune = '📄'

	memberInit  rune = '🆕'
	memberRead  rune = '⬇'
	memberWrite rune = '⬆'
	memberClose rune = '🔒'
	memberSize  rune = '📏'
)

var (
	mu      sync.Mutex
	handles = map[*gc.Object]*os.File{}
)

type provider struct{}

func init() {
	native.Register("files", provider{})
}

func (provider) Version() (uint16, uint16) { return 1, 0 }

func (provider) Method(class, member rune, kind native.Kind) (native.Func, bool) {
	if class != classFile || kind != native.MethodKind {
		return nil, false
	}
	switch member {
	case memberRead:
		return readMethod, true
	case memberWrite:
		return writeMethod, true
	case memberClose:
		return closeMethod, true
	case memberSize:
		return sizeMethod, true
	}
	return nil, false
}

func (provider) Initializer(class, member rune) (native.Func, bool) {
	if class == classFile && member == memberInit {
		return openInitializer, true
	}
	return nil, false
}

func (provider) Marker(rune) (native.Marker, bool) { return nil, false }

func (provider) Deinitializer(class rune) (native.Deinitializer, bool) {
	if class != classFile {
		return nil, false
	}
	return func(o *gc.Object) {
		mu.Lock()
		f, ok := handles[o]
		delete(handles, o)
		mu.Unlock()
		if ok {
			f.Close()
		}
	}, true
}

// openInitializer expects args = [path String, mode String] where mode
// is one of "r", "w", "a".
func openInitializer(this gc.Something, args []gc.Something) (gc.Something, error) {
	path := string(args[0].Obj.Runes)
	mode := "r"
	if len(args) > 1 {
		mode = string(args[1].Obj.Runes)
	}
	var flag int
	switch mode {
	case "w":
		flag = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	case "a":
		flag = os.O_WRONLY | os.O_CREATE | os.O_APPEND
	default:
		flag = os.O_RDONLY
	}
	f, err := os.OpenFile(path, flag, 0o644)
	if err != nil {
		return gc.FromObject(primitive.NewError(err.Error(), 1)), nil
	}
	mu.Lock()
	handles[this.Obj] = f
	mu.Unlock()
	return this, nil
}

func readMethod(this gc.Something, args []gc.Something) (gc.Something, error) {
	f, ok := handleOf(this)
	if !ok {
		return gc.FromObject(primitive.NewError("file is closed", 2)), nil
	}
	n := int(args[0].Integer)
	buf := make([]byte, n)
	read, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return gc.FromObject(primitive.NewError(err.Error(), 3)), nil
	}
	return gc.FromObject(primitive.NewData(buf[:read])), nil
}

func writeMethod(this gc.Something, args []gc.Something) (gc.Something, error) {
	f, ok := handleOf(this)
	if !ok {
		return gc.FromObject(primitive.NewError("file is closed", 2)), nil
	}
	n, err := f.Write(args[0].Obj.Bytes)
	if err != nil {
		return gc.FromObject(primitive.NewError(err.Error(), 3)), nil
	}
	return gc.FromInt(int64(n)), nil
}

func closeMethod(this gc.Something, _ []gc.Something) (gc.Something, error) {
	mu.Lock()
	f, ok := handles[this.Obj]
	delete(handles, this.Obj)
	mu.Unlock()
	if ok {
		f.Close()
	}
	return gc.Nothingness(), nil
}

func sizeMethod(this gc.Something, _ []gc.Something) (gc.Something, error) {
	f, ok := handleOf(this)
	if !ok {
		return gc.FromInt(0), nil
	}
	info, err := f.Stat()
	if err != nil {
		return gc.FromInt(0), nil
	}
	return gc.FromInt(info.Size()), nil
}

func handleOf(this gc.Something) (*os.File, bool) {
	mu.Lock()
	defer mu.Unlock()
	f, ok := handles[this.Obj]
	return f, ok
}
