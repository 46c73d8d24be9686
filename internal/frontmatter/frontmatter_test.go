package frontmatter

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplit_NoHeader(t *testing.T) {
	raw := []byte("# Title\n\nbody\n")
	c, err := Split(raw)
	require.NoError(t, err)
	require.False(t, c.Has)
	require.Equal(t, raw, c.Body)
	require.Equal(t, 0, c.BodyLine)
}

func TestSplit_Header(t *testing.T) {
	raw := []byte("---\ntitle: Guide\nuid: abc\n---\n# Body\n")
	c, err := Split(raw)
	require.NoError(t, err)
	require.True(t, c.Has)
	require.Equal(t, "title: Guide\nuid: abc\n", string(c.Frontmatter))
	require.Equal(t, "# Body\n", string(c.Body))
	require.Equal(t, 4, c.BodyLine)
}

func TestSplit_EmptyHeader(t *testing.T) {
	c, err := Split([]byte("---\n---\nbody"))
	require.NoError(t, err)
	require.True(t, c.Has)
	require.Empty(t, c.Frontmatter)
	require.Equal(t, "body", string(c.Body))
	require.Equal(t, 2, c.BodyLine)
}

func TestSplit_MissingClosingDelimiter(t *testing.T) {
	_, err := Split([]byte("---\ntitle: x\nno end"))
	require.ErrorIs(t, err, ErrMissingClosingDelimiter)
}

func TestSplit_CRLF(t *testing.T) {
	c, err := Split([]byte("---\r\ntitle: x\r\n---\r\nbody\r\n"))
	require.NoError(t, err)
	require.True(t, c.Has)
	require.Equal(t, "\r\n", c.Style.Newline)
	require.Equal(t, "title: x\r\n", string(c.Frontmatter))
	require.Equal(t, "body\r\n", string(c.Body))
}

func TestSplit_DashesInBodyAreNotAHeader(t *testing.T) {
	raw := []byte("body first\n---\nnot a header\n")
	c, err := Split(raw)
	require.NoError(t, err)
	require.False(t, c.Has)
	require.Equal(t, raw, c.Body)
}

func TestJoin_RoundTripsSplit(t *testing.T) {
	for _, raw := range []string{
		"---\ntitle: Guide\n---\nbody\n",
		"---\r\ntitle: x\r\n---\r\nbody\r\n",
		"no header at all\n",
		"---\n---\n",
	} {
		c, err := Split([]byte(raw))
		require.NoError(t, err)
		require.Equal(t, raw, string(c.Join()), "input %q", raw)
	}
}

func TestFields_DecodesHeader(t *testing.T) {
	c, err := Split([]byte("---\ntitle: Guide\nweight: 3\n---\n"))
	require.NoError(t, err)

	fields, err := c.Fields()
	require.NoError(t, err)
	require.Equal(t, "Guide", fields["title"])
	require.Equal(t, 3, fields["weight"])
}

func TestFields_EmptyHeaderIsEmptyMap(t *testing.T) {
	c, err := Split([]byte("plain body"))
	require.NoError(t, err)

	fields, err := c.Fields()
	require.NoError(t, err)
	require.Empty(t, fields)
}

func TestWithField_CreatesHeaderWhenMissing(t *testing.T) {
	c, err := Split([]byte("body only\n"))
	require.NoError(t, err)

	out, err := c.WithField("fingerprint", "abc123")
	require.NoError(t, err)
	require.True(t, out.Has)

	fields, err := out.Fields()
	require.NoError(t, err)
	require.Equal(t, "abc123", fields["fingerprint"])
	require.Equal(t, "body only\n", string(out.Body))
}

func TestWithField_UpdatesExistingHeader(t *testing.T) {
	c, err := Split([]byte("---\ntitle: Guide\n---\nbody\n"))
	require.NoError(t, err)

	out, err := c.WithField("fingerprint", "abc123")
	require.NoError(t, err)

	fields, err := out.Fields()
	require.NoError(t, err)
	require.Equal(t, "Guide", fields["title"])
	require.Equal(t, "abc123", fields["fingerprint"])
}
