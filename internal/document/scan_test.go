package document

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScan_IncludeDirective(t *testing.T) {
	body := []byte("intro\n[!include[Chapter 1](chapters/one.md)]\noutro\n")
	refs := Scan(body)
	require.Len(t, refs, 1)

	r := refs[0]
	require.Equal(t, RefInclude, r.Kind)
	require.Equal(t, "Chapter 1", r.Title)
	require.Equal(t, "chapters/one.md", r.Path)
	require.Equal(t, 2, r.Line)
	require.Equal(t, "[!include[Chapter 1](chapters/one.md)]", string(body[r.Start:r.End]))
}

func TestScan_CodeDirectiveWithLanguage(t *testing.T) {
	refs := Scan([]byte("[!code-go[Server](snippets/server.go)]\n"))
	require.Len(t, refs, 1)
	require.Equal(t, RefCode, refs[0].Kind)
	require.Equal(t, "go", refs[0].Lang)
	require.Equal(t, "snippets/server.go", refs[0].Path)
	require.True(t, refs[0].Directive())
}

func TestScan_InlineLinkAndImage(t *testing.T) {
	body := []byte("See [API](api.md) and ![Diagram](img/d.png).\n")
	refs := Scan(body)
	require.Len(t, refs, 2)

	require.Equal(t, RefLink, refs[0].Kind)
	require.Equal(t, "api.md", refs[0].Path)
	require.Equal(t, "[API](api.md)", string(body[refs[0].Start:refs[0].End]))

	require.Equal(t, RefImage, refs[1].Kind)
	require.Equal(t, "img/d.png", refs[1].Path)
	require.Equal(t, "![Diagram](img/d.png)", string(body[refs[1].Start:refs[1].End]))
}

func TestScan_ReferenceDefinition(t *testing.T) {
	refs := Scan([]byte("text\n\n[My Ref]: target.md \"Title\"\n"))
	require.Len(t, refs, 1)
	require.Equal(t, RefDef, refs[0].Kind)
	require.Equal(t, "my ref", refs[0].Title)
	require.Equal(t, "target.md", refs[0].Path)
	require.Equal(t, 3, refs[0].Line)
}

func TestScan_FootnoteDefinitionIsNotARef(t *testing.T) {
	refs := Scan([]byte("[^1]: a footnote, not a link\n"))
	require.Empty(t, refs)
}

func TestScan_SkipsFencedCodeBlocks(t *testing.T) {
	body := []byte("```\n[!include[x](y.md)]\n[link](a.md)\n```\n[real](b.md)\n")
	refs := Scan(body)
	require.Len(t, refs, 1)
	require.Equal(t, "b.md", refs[0].Path)
}

func TestScan_FenceOnlyClosesOnItsOwnMarker(t *testing.T) {
	body := []byte("~~~\n```\n[x](inside.md)\n~~~\n[y](outside.md)\n")
	refs := Scan(body)
	require.Len(t, refs, 1)
	require.Equal(t, "outside.md", refs[0].Path)
}

func TestScan_SkipsIndentedCode(t *testing.T) {
	body := []byte("    [x](indented.md)\n\t[y](tabbed.md)\n[z](kept.md)\n")
	refs := Scan(body)
	require.Len(t, refs, 1)
	require.Equal(t, "kept.md", refs[0].Path)
}

func TestScan_SkipsInlineCodeSpans(t *testing.T) {
	body := []byte("use `[!include[x](y.md)]` literally, then [real](a.md)\n")
	refs := Scan(body)
	require.Len(t, refs, 1)
	require.Equal(t, "a.md", refs[0].Path)
}

func TestScan_DoubleBacktickSpan(t *testing.T) {
	body := []byte("`` [a](b.md) `` and [c](d.md)\n")
	refs := Scan(body)
	require.Len(t, refs, 1)
	require.Equal(t, "d.md", refs[0].Path)
}

func TestScan_UnclosedBacktickStillScansRest(t *testing.T) {
	body := []byte("broken ` span [a](b.md)\n")
	refs := Scan(body)
	require.Len(t, refs, 1)
	require.Equal(t, "b.md", refs[0].Path)
}

func TestScan_MultipleRefsOnOneLine(t *testing.T) {
	body := []byte("[a](1.md) [!include[b](2.md)] [c](3.md)\n")
	refs := Scan(body)
	require.Len(t, refs, 3)
	require.Equal(t, RefLink, refs[0].Kind)
	require.Equal(t, RefInclude, refs[1].Kind)
	require.Equal(t, RefLink, refs[2].Kind)
}

func TestScan_LineNumbersAreOneBased(t *testing.T) {
	body := []byte("\n\n[a](1.md)\n")
	refs := Scan(body)
	require.Len(t, refs, 1)
	require.Equal(t, 3, refs[0].Line)
}

func TestScan_EmptyBody(t *testing.T) {
	require.Empty(t, Scan(nil))
	require.Empty(t, Scan([]byte("")))
}
