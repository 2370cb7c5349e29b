// Package httpx implements spec.md §2's "sockets / net / http" native
// extension package's HTTP half: an HTTPClient class over plain
// net/http, grounded on the corpus's gaarutyunov-guix and
// sentra-language-sentra use of net/http for request/response plumbing.
// No third-party HTTP client improves meaningfully on net/http itself
// for simple request/response calls (justified in DESIGN.md); the
// gorilla/websocket dependency covers the one piece net/http doesn't
// (the socket upgrade path), and lives in packages/sockets instead.
package httpx

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"github.com/emojicode/emojicode/internal/native"
	"github.com/emojicode/emojicode/internal/runtime/gc"
	"github.com/emojicode/emojicode/internal/runtime/primitive"
)

const (
	classClient rune = '🌍'

	memberInit rune = '🆕'
	memberGet  rune = '⬇'
	memberPost rune = '⬆'
)

var client = &http.Client{Timeout: 30 * time.Second}

type provider struct{}

func init() {
	native.Register("httpx", provider{})
}

func (provider) Version() (uint16, uint16) { return 1, 0 }

func (provider) Method(class, member rune, kind native.Kind) (native.Func, bool) {
	if class != classClient || kind != native.MethodKind {
		return nil, false
	}
	switch member {
	case memberGet:
		return getMethod, true
	case memberPost:
		return postMethod, true
	}
	return nil, false
}

func (provider) Initializer(class, member rune) (native.Func, bool) {
	if class == classClient && member == memberInit {
		return initInitializer, true
	}
	return nil, false
}

func (provider) Marker(rune) (native.Marker, bool) { return nil, false }

func (provider) Deinitializer(rune) (native.Deinitializer, bool) { return nil, false }

// initInitializer takes no resources to set up; the client is a package
// singleton, matching net/http's own "share one *http.Client" guidance.
func initInitializer(this gc.Something, _ []gc.Something) (gc.Something, error) {
	return this, nil
}

func getMethod(_ gc.Something, args []gc.Something) (gc.Something, error) {
	url := string(args[0].Obj.Runes)
	resp, err := client.Get(url)
	if err != nil {
		return gc.FromObject(primitive.NewError(err.Error(), 1)), nil
	}
	return readResponse(resp)
}

// postMethod expects args = [url String, body Data].
func postMethod(_ gc.Something, args []gc.Something) (gc.Something, error) {
	url := string(args[0].Obj.Runes)
	var body io.Reader
	if len(args) > 1 && args[1].Obj != nil {
		body = bytes.NewReader(args[1].Obj.Bytes)
	}
	resp, err := client.Post(url, "application/octet-stream", body)
	if err != nil {
		return gc.FromObject(primitive.NewError(err.Error(), 1)), nil
	}
	return readResponse(resp)
}

func readResponse(resp *http.Response) (gc.Something, error) {
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return gc.FromObject(primitive.NewError(err.Error(), 2)), nil
	}
	result := primitive.NewDict()
	primitive.DictSet(result, "status", gc.FromInt(int64(resp.StatusCode)))
	primitive.DictSet(result, "body", gc.FromObject(primitive.NewData(data)))
	return gc.FromObject(result), nil
}
