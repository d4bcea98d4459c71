package heap

// SliceSource is the portable growth primitive: an append-backed byte slice
// with an optional size limit. Appending may move the backing array, which is
// invisible to offset-based callers.
type SliceSource struct {
	data   []byte
	limit  int64
	closed bool
}

// NewSliceSource returns a slice-backed source. A limit of 0 means no limit;
// otherwise Extend fails once the arena would exceed limit bytes.
func NewSliceSource(limit int64) *SliceSource {
	return &SliceSource{limit: limit}
}

// Bytes returns the current arena contents.
func (s *SliceSource) Bytes() []byte { return s.data }

// Size returns the current arena length in bytes.
func (s *SliceSource) Size() int64 { return int64(len(s.data)) }

// Extend grows the arena by n zero bytes and returns the previous end offset.
func (s *SliceSource) Extend(n int64) (int64, error) {
	if s.closed {
		return 0, ErrClosed
	}
	if n <= 0 {
		return 0, ErrBadSize
	}
	prev := int64(len(s.data))
	if s.limit > 0 && prev+n > s.limit {
		return 0, ErrLimit
	}
	s.data = append(s.data, make([]byte, n)...)
	return prev, nil
}

// Close drops the backing slice.
func (s *SliceSource) Close() error {
	s.data = nil
	s.closed = true
	return nil
}
