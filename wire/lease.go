package wire

// Lease capabilities give the hardware family bounded, indexed access to
// caller-owned memory without handing over raw slices across the
// server/family boundary. In-process they are backed by validated slice
// bounds; a kernel-mediated bounded-copy backend can implement the same
// interfaces across an isolation boundary.

// ReadLease is a bounded read cursor with a declared length.
type ReadLease interface {
	Len() int
	// Read copies up to len(dst) bytes starting at off and returns the
	// count actually copied. Out-of-range offsets copy nothing.
	Read(off int, dst []byte) int
}

// WriteLease is a bounded write cursor with a declared length.
type WriteLease interface {
	Len() int
	// Write copies up to len(src) bytes into the lease starting at off and
	// returns the count actually copied. Out-of-range offsets copy nothing.
	Write(off int, src []byte) int
}

// Slice backs both lease shapes with an in-process byte slice.
type Slice struct{ b []byte }

func NewSlice(b []byte) Slice { return Slice{b: b} }

func (s Slice) Len() int { return len(s.b) }

func (s Slice) Read(off int, dst []byte) int {
	if off < 0 || off >= len(s.b) {
		return 0
	}
	return copy(dst, s.b[off:])
}

func (s Slice) Write(off int, src []byte) int {
	if off < 0 || off >= len(s.b) {
		return 0
	}
	return copy(s.b[off:], src)
}
