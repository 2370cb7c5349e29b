package sockets_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/emojicode/emojicode/internal/native"
	"github.com/emojicode/emojicode/internal/runtime/gc"
	"github.com/emojicode/emojicode/internal/runtime/primitive"
	_ "github.com/emojicode/emojicode/packages/sockets"
)

func echoServer(t *testing.T) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(nil)
	srv.Config.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()
		for {
			mt, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if err := conn.WriteMessage(mt, msg); err != nil {
				return
			}
		}
	})
	return srv
}

func TestDialSendReceiveRoundTrips(t *testing.T) {
	srv := echoServer(t)
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")

	provider, ok := native.Lookup("sockets")
	require.True(t, ok)

	initFn, ok := provider.Initializer('🔌', '🆕')
	require.True(t, ok)
	this := gc.FromObject(&gc.Object{Tag: "Socket"})
	_, err := initFn(this, []gc.Something{gc.FromObject(primitive.NewStringFromGo(wsURL))})
	require.NoError(t, err)

	sendFn, ok := provider.Method('🔌', '📤', native.MethodKind)
	require.True(t, ok)
	_, err = sendFn(this, []gc.Something{gc.FromObject(primitive.NewData([]byte("ping")))})
	require.NoError(t, err)

	recvFn, ok := provider.Method('🔌', '📥', native.MethodKind)
	require.True(t, ok)
	result, err := recvFn(this, nil)
	require.NoError(t, err)
	require.Equal(t, []byte("ping"), result.Obj.Bytes)

	closeFn, ok := provider.Method('🔌', '🔒', native.MethodKind)
	require.True(t, ok)
	_, err = closeFn(this, nil)
	require.NoError(t, err)
}

func TestDialUnreachableAddressReturnsError(t *testing.T) {
	provider, ok := native.Lookup("sockets")
	require.True(t, ok)
	initFn, ok := provider.Initializer('🔌', '🆕')
	require.True(t, ok)

	this := gc.FromObject(&gc.Object{Tag: "Socket"})
	result, err := initFn(this, []gc.Something{gc.FromObject(primitive.NewStringFromGo("ws://127.0.0.1:1"))})
	require.NoError(t, err)
	require.Equal(t, "Error", result.Obj.Tag)
}
