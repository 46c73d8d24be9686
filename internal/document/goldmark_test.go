package document

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractRefs_AutoLink(t *testing.T) {
	refs := ExtractRefs([]byte("<https://example.com/path>"))
	require.Len(t, refs, 1)
	require.Equal(t, RefAuto, refs[0].Kind)
	require.Equal(t, "https://example.com/path", refs[0].Path)
	require.Equal(t, -1, refs[0].Start)
}

func TestExtractRefs_InlineAndImage(t *testing.T) {
	refs := ExtractRefs([]byte("See [API](api.md) and ![D](d.png)."))
	require.Len(t, refs, 2)
	require.Equal(t, RefLink, refs[0].Kind)
	require.Equal(t, "api.md", refs[0].Path)
	require.Equal(t, RefImage, refs[1].Kind)
	require.Equal(t, "d.png", refs[1].Path)
}

func TestExtractRefs_ReferenceLinkResolvesToDefinition(t *testing.T) {
	refs := ExtractRefs([]byte("See [API][ref].\n\n[ref]: api.md\n"))
	require.Len(t, refs, 2)
	// The usage resolves to a link with the definition's destination.
	require.Equal(t, RefLink, refs[0].Kind)
	require.Equal(t, "api.md", refs[0].Path)
	// The definition itself comes from the parse context.
	require.Equal(t, RefDef, refs[1].Kind)
	require.Equal(t, "ref", refs[1].Title)
	require.Equal(t, "api.md", refs[1].Path)
}

func TestExtractRefs_SeesLinksWrappedAcrossLines(t *testing.T) {
	refs := ExtractRefs([]byte("[wrapped\ntitle](target.md)"))
	require.Len(t, refs, 1)
	require.Equal(t, "target.md", refs[0].Path)
}

func TestExtractRefs_IgnoresCodeBlocks(t *testing.T) {
	refs := ExtractRefs([]byte("```\n[x](y.md)\n```\n"))
	require.Empty(t, refs)
}
