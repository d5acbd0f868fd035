package genome

// Neutral is what an exhausted reader yields: the midpoint of the byte range.
const Neutral uint8 = 128

// GeneReader consumes one gene sequence in order.
type GeneReader struct {
	seq    []uint8
	cursor int
}

// Next returns the next value, or Neutral once the sequence is used up.
func (r *GeneReader) Next() uint8 {
	if r.cursor >= len(r.seq) {
		return Neutral
	}
	v := r.seq[r.cursor]
	r.cursor++
	return v
}

// Choice maps the next value onto 0..n-1.
func (r *GeneReader) Choice(n int) int {
	if n <= 0 {
		return 0
	}
	return int(r.Next()) % n
}

// Exhausted reports whether every value has been consumed.
func (r *GeneReader) Exhausted() bool {
	return r.cursor >= len(r.seq)
}

// Remaining is the number of unread values.
func (r *GeneReader) Remaining() int {
	return max(0, len(r.seq)-r.cursor)
}
