package files_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/emojicode/emojicode/internal/native"
	_ "github.com/emojicode/emojicode/packages/files"
	"github.com/emojicode/emojicode/internal/runtime/gc"
	"github.com/emojicode/emojicode/internal/runtime/primitive"
)

func TestFileWriteReadRoundTrips(t *testing.T) {
	provider, ok := native.Lookup("files")
	require.True(t, ok)

	path := filepath.Join(t.TempDir(), "out.txt")

	initFn, ok := provider.Initializer('📄', '🆕')
	require.True(t, ok)
	this := gc.FromObject(&gc.Object{Tag: "File"})
	_, err := initFn(this, []gc.Something{
		gc.FromObject(primitive.NewStringFromGo(path)),
		gc.FromObject(primitive.NewStringFromGo("w")),
	})
	require.NoError(t, err)

	writeFn, ok := provider.Method('📄', '⬆', native.MethodKind)
	require.True(t, ok)
	n, err := writeFn(this, []gc.Something{gc.FromObject(primitive.NewData([]byte("hello")))})
	require.NoError(t, err)
	require.Equal(t, int64(5), n.Integer)

	closeFn, ok := provider.Method('📄', '🔒', native.MethodKind)
	require.True(t, ok)
	_, err = closeFn(this, nil)
	require.NoError(t, err)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "hello", string(got))
}

func TestFileReadMissingReturnsError(t *testing.T) {
	provider, _ := native.Lookup("files")
	initFn, _ := provider.Initializer('📄', '🆕')
	this := gc.FromObject(&gc.Object{Tag: "File"})
	v, err := initFn(this, []gc.Something{
		gc.FromObject(primitive.NewStringFromGo("/nonexistent/path/does/not/exist")),
		gc.FromObject(primitive.NewStringFromGo("r")),
	})
	require.NoError(t, err)
	require.Equal(t, "Error", v.Obj.Tag)
}
