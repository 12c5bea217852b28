package rope_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-phpls/phpls/internal/rope"
)

func TestNewAndBytes(t *testing.T) {
	r := rope.NewString("hello\nworld\n")
	assert.Equal(t, "hello\nworld\n", r.String())
	assert.Equal(t, 12, r.Len())
}

func TestLineCountAndLineText(t *testing.T) {
	r := rope.NewString("alpha\nbeta\ngamma")
	require.Equal(t, 3, r.LineCount())

	line0, err := r.LineText(0)
	require.NoError(t, err)
	assert.Equal(t, "alpha", line0)

	line2, err := r.LineText(2)
	require.NoError(t, err)
	assert.Equal(t, "gamma", line2)
}

func TestOffsetAtAndPositionAtRoundTrip(t *testing.T) {
	r := rope.NewString("abc\ndefgh\nij")
	off, err := r.OffsetAt(1, 3)
	require.NoError(t, err)
	assert.Equal(t, 4+3, off)

	line, col, err := r.PositionAt(off)
	require.NoError(t, err)
	assert.Equal(t, 1, line)
	assert.Equal(t, 3, col)
}

func TestOffsetAtOutOfRange(t *testing.T) {
	r := rope.NewString("abc\ndef")
	_, err := r.OffsetAt(5, 0)
	assert.ErrorIs(t, err, rope.ErrOutOfRange)

	_, err = r.OffsetAt(0, 100)
	assert.ErrorIs(t, err, rope.ErrOutOfRange)
}

func TestApplyInsert(t *testing.T) {
	r := rope.NewString("hello world")
	err := r.Apply(rope.Edit{Start: 5, End: 5, New: []byte(",")})
	require.NoError(t, err)
	assert.Equal(t, "hello, world", r.String())
}

func TestApplyReplaceAcrossLines(t *testing.T) {
	r := rope.NewString("line1\nline2\nline3\n")
	start, err := r.OffsetAt(1, 0)
	require.NoError(t, err)
	end, err := r.OffsetAt(2, 0)
	require.NoError(t, err)

	err = r.Apply(rope.Edit{Start: start, End: end, New: []byte("replaced\n")})
	require.NoError(t, err)
	assert.Equal(t, "line1\nreplaced\nline3\n", r.String())
	assert.Equal(t, 4, r.LineCount())
}

func TestApplyDeleteAll(t *testing.T) {
	r := rope.NewString("content")
	err := r.Apply(rope.Edit{Start: 0, End: 7, New: nil})
	require.NoError(t, err)
	assert.Equal(t, "", r.String())
	assert.Equal(t, 0, r.Len())
	assert.Equal(t, 1, r.LineCount())
}

func TestSliceBounds(t *testing.T) {
	r := rope.NewString("0123456789")
	b, err := r.Slice(2, 5)
	require.NoError(t, err)
	assert.Equal(t, "234", string(b))

	_, err = r.Slice(-1, 5)
	assert.ErrorIs(t, err, rope.ErrOutOfRange)

	_, err = r.Slice(5, 2)
	assert.ErrorIs(t, err, rope.ErrOutOfRange)
}

func TestLargeBufferSpanningLeaves(t *testing.T) {
	var sb []byte
	for i := 0; i < 10000; i++ {
		sb = append(sb, 'a', '\n')
	}
	r := rope.NewString(string(sb))
	assert.Equal(t, 10000, r.LineCount()-1) // last empty line after trailing newline
	err := r.Apply(rope.Edit{Start: r.Len() - 2, End: r.Len() - 2, New: []byte("Z")})
	require.NoError(t, err)
	last, err := r.LineText(r.LineCount() - 2)
	require.NoError(t, err)
	assert.Equal(t, "Za", last)
}
