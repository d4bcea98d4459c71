//go:build linux

package heap

import (
	"errors"

	"golang.org/x/sys/unix"
)

// mmapSource reserves an anonymous mapping up front and advances a watermark
// on Extend. The mapping never moves, so arena bytes stay at a stable
// address for the whole lifetime; MAP_NORESERVE keeps the untouched tail of
// a large reservation from counting against commit.
type mmapSource struct {
	mapped []byte
	used   int64
}

// NewMmapSource returns a source backed by an anonymous memory mapping of
// reserve bytes. Extend fails with ErrLimit once the reservation is
// exhausted.
func NewMmapSource(reserve int64) (Source, error) {
	if reserve <= 0 {
		return nil, ErrBadSize
	}
	data, err := unix.Mmap(-1, 0, int(reserve),
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANONYMOUS|unix.MAP_NORESERVE)
	if err != nil {
		return nil, err
	}
	return &mmapSource{mapped: data}, nil
}

func (m *mmapSource) Bytes() []byte { return m.mapped[:m.used] }

func (m *mmapSource) Size() int64 { return m.used }

func (m *mmapSource) Extend(n int64) (int64, error) {
	if m.mapped == nil {
		return 0, ErrClosed
	}
	if n <= 0 {
		return 0, ErrBadSize
	}
	if m.used+n > int64(len(m.mapped)) {
		return 0, ErrLimit
	}
	prev := m.used
	m.used += n
	return prev, nil
}

func (m *mmapSource) Close() error {
	if m.mapped == nil {
		return nil
	}
	err := unix.Munmap(m.mapped)
	m.mapped = nil
	m.used = 0
	if errors.Is(err, unix.EINVAL) {
		// Treat double-unmap as no-op for callers.
		return nil
	}
	return err
}
