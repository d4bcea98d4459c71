//go:build !linux

package heap

// NewMmapSource falls back to a slice-backed source with the reservation as
// its limit on platforms without the anonymous-mapping fast path.
func NewMmapSource(reserve int64) (Source, error) {
	if reserve <= 0 {
		return nil, ErrBadSize
	}
	return NewSliceSource(reserve), nil
}
