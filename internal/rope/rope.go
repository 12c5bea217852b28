// Package rope implements the incremental text buffer backing every open
// document: byte/line/column conversions, range-based edits, and a byte
// iterator, sized to make repeated small edits on large files cheap.
package rope

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
)

// ErrOutOfRange is returned when a requested offset or line falls outside
// the buffer.
var ErrOutOfRange = errors.New("rope: offset out of range")

// leafThreshold bounds how large a single leaf's content can grow before
// Apply rebuilds it as several leaves. Kept small enough that edits stay
// cheap without turning every buffer into a deep tree for ordinary file
// sizes.
const leafThreshold = 4096

// Rope is a line-indexed, byte-addressable text buffer. The zero value is
// not usable; construct with New or NewString.
type Rope struct {
	// leaves holds the buffer split into chunks. Apply only rebuilds the
	// leaf(s) spanning an edit, so the split bounds the amount of data an
	// edit copies instead of forcing a full-buffer rebuild.
	leaves [][]byte
	// lineStarts[i] is the byte offset of the first byte of line i (0-based).
	// lineStarts always has at least one entry (0) and len(lineStarts) ==
	// number of lines.
	lineStarts []int
	size       int
}

// New constructs a Rope from raw bytes.
func New(content []byte) *Rope {
	r := &Rope{}
	r.reset(content)
	return r
}

// NewString constructs a Rope from a string.
func NewString(content string) *Rope {
	return New([]byte(content))
}

func (r *Rope) reset(content []byte) {
	r.leaves = chunk(content)
	r.size = len(content)
	r.lineStarts = computeLineStarts(content)
}

func chunk(content []byte) [][]byte {
	if len(content) == 0 {
		return [][]byte{{}}
	}
	var leaves [][]byte
	for off := 0; off < len(content); off += leafThreshold {
		end := off + leafThreshold
		if end > len(content) {
			end = len(content)
		}
		leaf := make([]byte, end-off)
		copy(leaf, content[off:end])
		leaves = append(leaves, leaf)
	}
	return leaves
}

func computeLineStarts(content []byte) []int {
	starts := []int{0}
	for i, b := range content {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// Len returns the buffer size in bytes.
func (r *Rope) Len() int { return r.size }

// LineCount returns the number of lines; a buffer with no trailing newline
// still counts its last partial line.
func (r *Rope) LineCount() int { return len(r.lineStarts) }

// Bytes materializes the full buffer content. Callers that only need a
// slice should prefer Slice, which copies only the requested range.
func (r *Rope) Bytes() []byte {
	out := make([]byte, 0, r.size)
	for _, leaf := range r.leaves {
		out = append(out, leaf...)
	}
	return out
}

func (r *Rope) String() string { return string(r.Bytes()) }

// Slice returns the bytes in [start, end). It always copies, since a
// requested range may cross leaf boundaries.
func (r *Rope) Slice(start, end int) ([]byte, error) {
	if start < 0 || end > r.size || start > end {
		return nil, fmt.Errorf("%w: slice [%d,%d) of size %d", ErrOutOfRange, start, end, r.size)
	}
	out := make([]byte, 0, end-start)
	pos := 0
	for _, leaf := range r.leaves {
		leafEnd := pos + len(leaf)
		if leafEnd > start && pos < end {
			s := start - pos
			if s < 0 {
				s = 0
			}
			e := end - pos
			if e > len(leaf) {
				e = len(leaf)
			}
			out = append(out, leaf[s:e]...)
		}
		pos = leafEnd
		if pos >= end {
			break
		}
	}
	return out, nil
}

// LineByteRange returns the [start, end) byte range of line i (0-based),
// including its trailing newline if present.
func (r *Rope) LineByteRange(line int) (int, int, error) {
	if line < 0 || line >= len(r.lineStarts) {
		return 0, 0, fmt.Errorf("%w: line %d of %d", ErrOutOfRange, line, len(r.lineStarts))
	}
	start := r.lineStarts[line]
	if line+1 < len(r.lineStarts) {
		return start, r.lineStarts[line+1], nil
	}
	return start, r.size, nil
}

// OffsetAt converts a zero-based line/column (UTF-8 byte column) to an
// absolute byte offset.
func (r *Rope) OffsetAt(line, col int) (int, error) {
	start, end, err := r.LineByteRange(line)
	if err != nil {
		return 0, err
	}
	lineLen := end - start
	// Tolerate a column pointing at the line's trailing newline or at EOF
	// on the final line, since editors routinely report the end-of-line
	// position this way.
	if col > lineLen {
		return 0, fmt.Errorf("%w: column %d exceeds line %d length %d", ErrOutOfRange, col, line, lineLen)
	}
	return start + col, nil
}

// PositionAt converts an absolute byte offset to a zero-based line/column.
func (r *Rope) PositionAt(offset int) (line int, col int, err error) {
	if offset < 0 || offset > r.size {
		return 0, 0, fmt.Errorf("%w: offset %d of size %d", ErrOutOfRange, offset, r.size)
	}
	lo := lineFloor(r.lineStarts, offset)
	return lo, offset - r.lineStarts[lo], nil
}

// lineFloor returns the largest i such that lineStarts[i] <= offset.
func lineFloor(lineStarts []int, offset int) int {
	lo, hi := 0, len(lineStarts)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if lineStarts[mid] <= offset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo
}

// Edit is a single byte-range replacement: text in [Start, End) is replaced
// with New.
type Edit struct {
	Start int
	End   int
	New   []byte
}

// Apply performs the edit in place: only the leaf(s) spanning [e.Start,
// e.End) are rebuilt and only the line starts inside that span are
// recomputed, so the cost of an edit is proportional to the edit's size and
// the handful of leaves/lines it touches, not the whole buffer. Callers that
// need tree-sitter-style incremental re-parsing should compute the
// corresponding sitter.InputEdit themselves from the Edit's offsets before
// calling Apply, since Apply mutates the buffer those offsets refer to.
func (r *Rope) Apply(e Edit) error {
	if e.Start < 0 || e.End > r.size || e.Start > e.End {
		return fmt.Errorf("%w: edit [%d,%d) of size %d", ErrOutOfRange, e.Start, e.End, r.size)
	}

	delta := len(e.New) - (e.End - e.Start)
	newLineStarts, err := r.spliceLineStarts(e.Start, e.End, e.New, delta)
	if err != nil {
		return err
	}

	startLeaf, startOff := r.locate(e.Start)
	endLeaf, endOff := r.locate(e.End)

	prefix := r.leaves[startLeaf][:startOff]
	suffix := r.leaves[endLeaf][endOff:]
	merged := make([]byte, 0, len(prefix)+len(e.New)+len(suffix))
	merged = append(merged, prefix...)
	merged = append(merged, e.New...)
	merged = append(merged, suffix...)

	var newLeaves [][]byte
	if len(merged) > 0 {
		newLeaves = chunk(merged)
	}

	replaced := make([][]byte, 0, len(r.leaves)-(endLeaf-startLeaf)+len(newLeaves))
	replaced = append(replaced, r.leaves[:startLeaf]...)
	replaced = append(replaced, newLeaves...)
	replaced = append(replaced, r.leaves[endLeaf+1:]...)
	if len(replaced) == 0 {
		replaced = [][]byte{{}}
	}

	r.leaves = replaced
	r.size += delta
	r.lineStarts = newLineStarts
	return nil
}

// locate returns the leaf index and in-leaf byte offset for offset. An
// offset exactly on a leaf boundary resolves to the end of the earlier
// leaf, which is a valid slice index into that leaf.
func (r *Rope) locate(offset int) (leafIdx, leafOff int) {
	pos := 0
	for i, l := range r.leaves {
		if offset <= pos+len(l) {
			return i, offset - pos
		}
		pos += len(l)
	}
	last := len(r.leaves) - 1
	return last, len(r.leaves[last])
}

// spliceLineStarts computes the new lineStarts after replacing [start, end)
// with newText, touching only the lines the edit can possibly affect: lines
// strictly before the one containing start, and lines strictly after the
// one containing end, keep their old byte offsets (shifted by delta for the
// latter); only the span between is rescanned for embedded newlines. Must
// be called before the rope's leaves are mutated, since it reads the old
// content via Slice.
func (r *Rope) spliceLineStarts(start, end int, newText []byte, delta int) ([]int, error) {
	l0 := lineFloor(r.lineStarts, start)
	l1 := lineFloor(r.lineStarts, end)

	regionStart := r.lineStarts[l0]
	regionEnd := r.size
	if l1+1 < len(r.lineStarts) {
		regionEnd = r.lineStarts[l1+1]
	}

	prefix, err := r.Slice(regionStart, start)
	if err != nil {
		return nil, err
	}
	suffix, err := r.Slice(end, regionEnd)
	if err != nil {
		return nil, err
	}

	merged := make([]byte, 0, len(prefix)+len(newText)+len(suffix))
	merged = append(merged, prefix...)
	merged = append(merged, newText...)
	merged = append(merged, suffix...)

	out := make([]int, 0, len(r.lineStarts)+bytes.Count(newText, []byte{'\n'}))
	out = append(out, r.lineStarts[:l0+1]...)
	for i, b := range merged {
		if b == '\n' {
			out = append(out, regionStart+i+1)
		}
	}
	// lineStarts[l1+1], if any, is the old start of the line right after
	// regionEnd's boundary and is already reproduced by the newline scan
	// above (suffix always ends at that boundary's newline when it
	// exists), so the shift below resumes at l1+2.
	skip := l1 + 2
	if skip > len(r.lineStarts) {
		skip = len(r.lineStarts)
	}
	for _, s := range r.lineStarts[skip:] {
		out = append(out, s+delta)
	}
	return out, nil
}

// LineText returns line i without its trailing newline.
func (r *Rope) LineText(line int) (string, error) {
	start, end, err := r.LineByteRange(line)
	if err != nil {
		return "", err
	}
	text := string(r.mustSlice(start, end))
	return strings.TrimRight(text, "\r\n"), nil
}

func (r *Rope) mustSlice(start, end int) []byte {
	b, _ := r.Slice(start, end)
	return b
}
