package document

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestApplyEdits_SingleReplacement(t *testing.T) {
	src := []byte("a [!include[x](y.md)] b\n")
	dir := []byte("[!include[x](y.md)]")
	at := bytes.Index(src, dir)
	require.NotEqual(t, -1, at)

	out, err := ApplyEdits(src, []Edit{{Start: at, End: at + len(dir), Replacement: []byte("INCLUDED")}})
	require.NoError(t, err)
	require.Equal(t, "a INCLUDED b\n", string(out))
}

func TestApplyEdits_OrderDoesNotMatter(t *testing.T) {
	src := []byte("one two three")
	edits := []Edit{
		{Start: 8, End: 13, Replacement: []byte("3")},
		{Start: 0, End: 3, Replacement: []byte("1")},
		{Start: 4, End: 7, Replacement: []byte("2")},
	}
	out, err := ApplyEdits(src, edits)
	require.NoError(t, err)
	require.Equal(t, "1 2 3", string(out))
}

func TestApplyEdits_InsertionAtPoint(t *testing.T) {
	out, err := ApplyEdits([]byte("ab"), []Edit{{Start: 1, End: 1, Replacement: []byte("X")}})
	require.NoError(t, err)
	require.Equal(t, "aXb", string(out))
}

func TestApplyEdits_NoEditsReturnsSource(t *testing.T) {
	src := []byte("untouched")
	out, err := ApplyEdits(src, nil)
	require.NoError(t, err)
	require.Equal(t, src, out)
}

func TestApplyEdits_RejectsOverlap(t *testing.T) {
	_, err := ApplyEdits([]byte("abcdef"), []Edit{
		{Start: 0, End: 4, Replacement: []byte("x")},
		{Start: 2, End: 5, Replacement: []byte("y")},
	})
	require.Error(t, err)
}

func TestApplyEdits_RejectsOutOfBounds(t *testing.T) {
	_, err := ApplyEdits([]byte("ab"), []Edit{{Start: 1, End: 5}})
	require.Error(t, err)

	_, err = ApplyEdits([]byte("ab"), []Edit{{Start: -1, End: 1}})
	require.Error(t, err)

	_, err = ApplyEdits([]byte("ab"), []Edit{{Start: 2, End: 1}})
	require.Error(t, err)
}
