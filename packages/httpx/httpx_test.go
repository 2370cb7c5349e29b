package httpx_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/emojicode/emojicode/internal/native"
	"github.com/emojicode/emojicode/internal/runtime/gc"
	"github.com/emojicode/emojicode/internal/runtime/primitive"
	_ "github.com/emojicode/emojicode/packages/httpx"
)

func TestGetReturnsStatusAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		io.WriteString(w, "hello")
	}))
	defer srv.Close()

	provider, ok := native.Lookup("httpx")
	require.True(t, ok)
	getFn, ok := provider.Method('🌍', '⬇', native.MethodKind)
	require.True(t, ok)

	this := gc.FromObject(&gc.Object{Tag: "Client"})
	result, err := getFn(this, []gc.Something{gc.FromObject(primitive.NewStringFromGo(srv.URL))})
	require.NoError(t, err)

	status, ok := primitive.DictGet(result.Obj, "status")
	require.True(t, ok)
	require.Equal(t, int64(http.StatusTeapot), status.Integer)

	body, ok := primitive.DictGet(result.Obj, "body")
	require.True(t, ok)
	require.Equal(t, []byte("hello"), body.Obj.Bytes)
}

func TestPostSendsBody(t *testing.T) {
	var received []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	provider, ok := native.Lookup("httpx")
	require.True(t, ok)
	postFn, ok := provider.Method('🌍', '⬆', native.MethodKind)
	require.True(t, ok)

	this := gc.FromObject(&gc.Object{Tag: "Client"})
	_, err := postFn(this, []gc.Something{
		gc.FromObject(primitive.NewStringFromGo(srv.URL)),
		gc.FromObject(primitive.NewData([]byte("payload"))),
	})
	require.NoError(t, err)
	require.Equal(t, []byte("payload"), received)
}
