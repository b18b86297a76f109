package artifact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_SaveGetDelete(t *testing.T) {
	svc := NewFileStore(t.TempDir())

	scope := "trimmed_routines/gpt/parallel_Basic/update_address"
	require.NoError(t, svc.Save(scope, "cust-1_routine.txt", []byte("routine text")))

	out, err := svc.Get(scope, "cust-1_routine.txt")
	require.NoError(t, err)
	assert.Equal(t, "routine text", string(out))

	require.NoError(t, svc.Delete(scope, "cust-1_routine.txt"))

	_, err = svc.Get(scope, "cust-1_routine.txt")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.Delete(scope, "cust-1_routine.txt"), ErrNotFound)
}

func TestFileStore_ListMissingScope(t *testing.T) {
	svc := NewFileStore(t.TempDir())

	ids, err := svc.List("nope/nothing")
	require.NoError(t, err)
	assert.Empty(t, ids)

	require.NoError(t, svc.Save("scope", "a.txt", []byte("a")))
	require.NoError(t, svc.Save("scope", "b.txt", []byte("b")))

	ids, err = svc.List("scope")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a.txt", "b.txt"}, ids)
}
