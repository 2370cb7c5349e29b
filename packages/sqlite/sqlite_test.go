package sqlite_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/emojicode/emojicode/internal/native"
	"github.com/emojicode/emojicode/internal/runtime/gc"
	"github.com/emojicode/emojicode/internal/runtime/primitive"
	_ "github.com/emojicode/emojicode/packages/sqlite"
)

func openDB(t *testing.T) (native.Provider, gc.Something) {
	t.Helper()
	provider, ok := native.Lookup("sqlite")
	require.True(t, ok)

	path := filepath.Join(t.TempDir(), "test.db")
	initFn, ok := provider.Initializer('💾', '🆕')
	require.True(t, ok)

	this := gc.FromObject(&gc.Object{Tag: "Database"})
	result, err := initFn(this, []gc.Something{gc.FromObject(primitive.NewStringFromGo(path))})
	require.NoError(t, err)
	require.NotEqual(t, "Error", orTag(result))
	return provider, this
}

func orTag(v gc.Something) string {
	if v.Obj == nil {
		return ""
	}
	return v.Obj.Tag
}

func TestExecAndQueryRoundTrip(t *testing.T) {
	provider, this := openDB(t)

	execFn, ok := provider.Method('💾', '🏃', native.MethodKind)
	require.True(t, ok)

	_, err := execFn(this, []gc.Something{
		gc.FromObject(primitive.NewStringFromGo("create table t (id integer, name text)")),
		gc.FromObject(primitive.NewList(nil)),
	})
	require.NoError(t, err)

	n, err := execFn(this, []gc.Something{
		gc.FromObject(primitive.NewStringFromGo("insert into t (id, name) values (?, ?)")),
		gc.FromObject(primitive.NewList([]gc.Something{
			gc.FromInt(1),
			gc.FromObject(primitive.NewStringFromGo("alice")),
		})),
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), n.Integer)

	queryFn, ok := provider.Method('💾', '❓', native.MethodKind)
	require.True(t, ok)
	rows, err := queryFn(this, []gc.Something{
		gc.FromObject(primitive.NewStringFromGo("select id, name from t")),
		gc.FromObject(primitive.NewList(nil)),
	})
	require.NoError(t, err)
	require.Len(t, rows.Obj.Items, 1)

	row := rows.Obj.Items[0].Obj
	name, ok := primitive.DictGet(row, "name")
	require.True(t, ok)
	require.Equal(t, "alice", string(name.Obj.Runes))

	closeFn, ok := provider.Method('💾', '🔒', native.MethodKind)
	require.True(t, ok)
	_, err = closeFn(this, nil)
	require.NoError(t, err)
}

func TestExecAgainstUnopenableFileReturnsError(t *testing.T) {
	// sql.Open never dials eagerly; the error only surfaces once a
	// connection is actually needed, on the first Exec/Query.
	provider, ok := native.Lookup("sqlite")
	require.True(t, ok)
	initFn, ok := provider.Initializer('💾', '🆕')
	require.True(t, ok)

	this := gc.FromObject(&gc.Object{Tag: "Database"})
	_, err := initFn(this, []gc.Something{
		gc.FromObject(primitive.NewStringFromGo("/nonexistent-dir/no/such/path.db")),
	})
	require.NoError(t, err)

	execFn, ok := provider.Method('💾', '🏃', native.MethodKind)
	require.True(t, ok)
	result, err := execFn(this, []gc.Something{
		gc.FromObject(primitive.NewStringFromGo("create table t (id integer)")),
		gc.FromObject(primitive.NewList(nil)),
	})
	require.NoError(t, err)
	require.Equal(t, "Error", result.Obj.Tag)
}
