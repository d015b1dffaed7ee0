package solver

// JacobianBuffer is the flat storage of every constraint row of one step.
//
// The buffer is split in two contiguous regions: the paired region, holding
// rows coupling two bodies with degrees of freedom, followed by the ground
// region, holding rows where one side has none. A row reserves
// 2 × (ndofs1 + ndofs2) slots laid out J1 | wJ1 | J2 | wJ2, where wJ = M⁻¹Jᵀ.
type JacobianBuffer struct {
	data   []float64
	paired int
}

// Resize sets both region sizes and zeroes the buffer. The backing array is
// reused when it is large enough.
func (b *JacobianBuffer) Resize(paired, ground int) {
	b.data = ensureLen(b.data, paired+ground)
	b.paired = paired
}

func (b *JacobianBuffer) PairedLen() int { return b.paired }
func (b *JacobianBuffer) GroundLen() int { return len(b.data) - b.paired }
func (b *JacobianBuffer) Len() int       { return len(b.data) }

// Data returns the whole buffer, paired region first.
func (b *JacobianBuffer) Data() []float64 {
	return b.data
}

// JacobianCursors are the write offsets of both regions. Producers only move
// them forward.
type JacobianCursors struct {
	Paired int
	Ground int
}

// rowSize is the number of jacobian slots reserved by one row.
func rowSize(ndofs1, ndofs2 int) int {
	return 2 * (ndofs1 + ndofs2)
}

// ensureLen returns a zeroed slice of length n, reusing buf when possible.
func ensureLen(buf []float64, n int) []float64 {
	if cap(buf) < n {
		return make([]float64, n)
	}
	buf = buf[:n]
	clear(buf)
	return buf
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// axpy computes y += alpha * x.
func axpy(alpha float64, x, y []float64) {
	for i := range x {
		y[i] += alpha * x[i]
	}
}
