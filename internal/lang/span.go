package lang

// Span is a byte-range reference into a View's underlying buffer. Spans are
// used exclusively for diagnostics; nothing in the compiler mutates one.
type Span struct {
	Start int
	End   int
}

// Encompass returns the smallest span covering both s and o.
func (s Span) Encompass(o Span) Span {
	start, end := s.Start, s.End
	if o.Start < start {
		start = o.Start
	}
	if o.End > end {
		end = o.End
	}
	return Span{Start: start, End: end}
}

// View is an immutable borrowed look at the source buffer being compiled.
// It outlives the Context built over it; nothing here ever copies the bytes.
type View struct {
	Source     []byte
	lineStarts []int
}

// NewView indexes line-start offsets once so Position is a binary search
// instead of a rescan per diagnostic.
func NewView(source []byte) View {
	starts := []int{0}
	for i, b := range source {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return View{Source: source, lineStarts: starts}
}

// Position converts a byte offset to a 1-based (line, column) pair.
func (v View) Position(offset int) (line, column int) {
	lo, hi := 0, len(v.lineStarts)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if v.lineStarts[mid] <= offset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	line = lo + 1
	column = offset - v.lineStarts[lo] + 1
	return line, column
}

// Text returns the raw bytes a span covers, clamped to the buffer bounds.
func (v View) Text(s Span) string {
	start, end := s.Start, s.End
	if start < 0 {
		start = 0
	}
	if end > len(v.Source) {
		end = len(v.Source)
	}
	if start > end {
		return ""
	}
	return string(v.Source[start:end])
}
