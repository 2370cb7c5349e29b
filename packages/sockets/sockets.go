// Package sockets implements spec.md §2's "sockets / net / http" native
// extension package's socket half: a Socket class over
// github.com/gorilla/websocket for the upgrade/dial path, grounded on
// the corpus's sentra-language-sentra and gaarutyunov-guix, both of
// which reach for gorilla/websocket rather than a raw net.Conn for
// their socket primitives.
package sockets

import (
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/emojicode/emojicode/internal/native"
	"github.com/emojicode/emojicode/internal/runtime/gc"
	"github.com/emojicode/emojicode/internal/runtime/primitive"
)

const (
	classSocket rune = '🔌'

	memberInit    rune = '🆕'
	memberSend    rune = '📤'
	memberReceive rune = '📥'
	memberClose   rune = '🔒'
)

var (
	mu     sync.Mutex
	conns  = map[*gc.Object]*websocket.Conn{}
	dialer = websocket.Dialer{HandshakeTimeout: 10 * time.Second}
)

type provider struct{}

func init() {
	native.Register("sockets", provider{})
}

func (provider) Version() (uint16, uint16) { return 1, 0 }

func (provider) Method(class, member rune, kind native.Kind) (native.Func, bool) {
	if class != classSocket || kind != native.MethodKind {
		return nil, false
	}
	switch member {
	case memberSend:
		return sendMethod, true
	case memberReceive:
		return receiveMethod, true
	case memberClose:
		return closeMethod, true
	}
	return nil, false
}

func (provider) Initializer(class, member rune) (native.Func, bool) {
	if class == classSocket && member == memberInit {
		return dialInitializer, true
	}
	return nil, false
}

func (provider) Marker(rune) (native.Marker, bool) { return nil, false }

func (provider) Deinitializer(class rune) (native.Deinitializer, bool) {
	if class != classSocket {
		return nil, false
	}
	return func(o *gc.Object) {
		mu.Lock()
		c, ok := conns[o]
		delete(conns, o)
		mu.Unlock()
		if ok {
			c.Close()
		}
	}, true
}

// dialInitializer expects args = [address String]. Accepts either a
// ws://, wss://, or bare host:port address, defaulting to ws:// when no
// scheme is present, mirroring how the upstream socket package treats a
// plain address as a raw stream endpoint.
func dialInitializer(this gc.Something, args []gc.Something) (gc.Something, error) {
	addr := string(args[0].Obj.Runes)
	u, err := url.Parse(addr)
	if err != nil || (u.Scheme != "ws" && u.Scheme != "wss") {
		u = &url.URL{Scheme: "ws", Host: addr}
	}
	conn, _, err := dialer.Dial(u.String(), http.Header{})
	if err != nil {
		return gc.FromObject(primitive.NewError(err.Error(), 1)), nil
	}
	mu.Lock()
	conns[this.Obj] = conn
	mu.Unlock()
	return this, nil
}

func sendMethod(this gc.Something, args []gc.Something) (gc.Something, error) {
	conn, ok := connOf(this)
	if !ok {
		return gc.FromObject(primitive.NewError("socket is closed", 2)), nil
	}
	if err := conn.WriteMessage(websocket.BinaryMessage, args[0].Obj.Bytes); err != nil {
		return gc.FromObject(primitive.NewError(err.Error(), 3)), nil
	}
	return gc.FromInt(int64(len(args[0].Obj.Bytes))), nil
}

func receiveMethod(this gc.Something, _ []gc.Something) (gc.Something, error) {
	conn, ok := connOf(this)
	if !ok {
		return gc.FromObject(primitive.NewError("socket is closed", 2)), nil
	}
	_, data, err := conn.ReadMessage()
	if err != nil {
		return gc.FromObject(primitive.NewError(err.Error(), 3)), nil
	}
	return gc.FromObject(primitive.NewData(data)), nil
}

func closeMethod(this gc.Something, _ []gc.Something) (gc.Something, error) {
	mu.Lock()
	conn, ok := conns[this.Obj]
	delete(conns, this.Obj)
	mu.Unlock()
	if ok {
		conn.Close()
	}
	return gc.Nothingness(), nil
}

func connOf(this gc.Something) (*websocket.Conn, bool) {
	mu.Lock()
	defer mu.Unlock()
	c, ok := conns[this.Obj]
	return c, ok
}
