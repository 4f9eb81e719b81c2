package compnum

import "math/cmplx"

// ReducedDensityMatrix traces out every qubit not in keep, returning the
// density matrix over keep (the order of keep as given defines row/column
// bit-ordering: keep[0] is the least significant bit of the returned
// matrix's basis index). Used by the assertion evaluator for sup/ent.
func (s *StateVector) ReducedDensityMatrix(keep []int) [][]complex128 {
	k := len(keep)
	dim := 1 << uint(k)
	rho := make([][]complex128, dim)
	for i := range rho {
		rho[i] = make([]complex128, dim)
	}

	keepMask := make([]int, k)
	for idx, q := range keep {
		keepMask[idx] = q
	}

	traced := make([]int, 0, s.NumQubits-k)
	inKeep := make(map[int]bool, k)
	for _, q := range keep {
		inKeep[q] = true
	}
	for q := 0; q < s.NumQubits; q++ {
		if !inKeep[q] {
			traced = append(traced, q)
		}
	}

	extractKeepIndex := func(basis int) int {
		out := 0
		for idx, q := range keepMask {
			if basis&(1<<uint(q)) != 0 {
				out |= 1 << uint(idx)
			}
		}
		return out
	}
	extractTracedIndex := func(basis int) int {
		out := 0
		for idx, q := range traced {
			if basis&(1<<uint(q)) != 0 {
				out |= 1 << uint(idx)
			}
		}
		return out
	}

	// Group amplitudes by (keepIndex, tracedIndex) so ρ[a][b] =
	// Σ_t amp(a,t) * conj(amp(b,t)).
	tracedDim := 1 << uint(len(traced))
	grouped := make([][]complex128, dim)
	for i := range grouped {
		grouped[i] = make([]complex128, tracedDim)
	}
	for basis, amp := range s.Amplitudes {
		ki := extractKeepIndex(basis)
		ti := extractTracedIndex(basis)
		grouped[ki][ti] = amp
	}

	for a := 0; a < dim; a++ {
		for b := 0; b < dim; b++ {
			var sum complex128
			for t := 0; t < tracedDim; t++ {
				sum += grouped[a][t] * cmplx.Conj(grouped[b][t])
			}
			rho[a][b] = sum
		}
	}
	return rho
}

// Purity returns Tr(ρ²), which equals 1 for a pure state and < 1 for a
// properly mixed one.
func Purity(rho [][]complex128) float64 {
	dim := len(rho)
	var sum complex128
	for i := 0; i < dim; i++ {
		for j := 0; j < dim; j++ {
			sum += rho[i][j] * rho[j][i]
		}
	}
	return real(sum)
}

// traceOutFromDensity traces the given local indices (0-based positions
// within basisQubits, ascending) out of rho, which is indexed over
// basisQubits. Returns the reduced matrix over the remaining local
// positions, in their original relative order.
func traceOutFromDensity(rho [][]complex128, basisLen int, traceLocal map[int]bool) [][]complex128 {
	keepLocal := make([]int, 0, basisLen)
	for i := 0; i < basisLen; i++ {
		if !traceLocal[i] {
			keepLocal = append(keepLocal, i)
		}
	}
	keepDim := 1 << uint(len(keepLocal))
	out := make([][]complex128, keepDim)
	for i := range out {
		out[i] = make([]complex128, keepDim)
	}

	traceBits := make([]int, 0, basisLen)
	for i := 0; i < basisLen; i++ {
		if traceLocal[i] {
			traceBits = append(traceBits, i)
		}
	}
	traceDim := 1 << uint(len(traceBits))

	for t := 0; t < traceDim; t++ {
		tBits := 0
		for idx, pos := range traceBits {
			if t&(1<<uint(idx)) != 0 {
				tBits |= 1 << uint(pos)
			}
		}
		for ka := 0; ka < keepDim; ka++ {
			aFull := spreadBits(ka, keepLocal) | tBits
			for kb := 0; kb < keepDim; kb++ {
				bFull := spreadBits(kb, keepLocal) | tBits
				out[ka][kb] += rho[aFull][bFull]
			}
		}
	}
	return out
}

func spreadBits(v int, positions []int) int {
	out := 0
	for idx, pos := range positions {
		if v&(1<<uint(idx)) != 0 {
			out |= 1 << uint(pos)
		}
	}
	return out
}

// Kron returns the Kronecker product of two square matrices.
func Kron(a, b [][]complex128) [][]complex128 {
	da, db := len(a), len(b)
	out := make([][]complex128, da*db)
	for i := range out {
		out[i] = make([]complex128, da*db)
	}
	for i := 0; i < da; i++ {
		for j := 0; j < da; j++ {
			for k := 0; k < db; k++ {
				for l := 0; l < db; l++ {
					out[i*db+k][j*db+l] = a[i][j] * b[k][l]
				}
			}
		}
	}
	return out
}

// FrobeniusDistance returns the Frobenius norm of a-b, used to compare
// density matrices against a factored product within EpsilonState.
func FrobeniusDistance(a, b [][]complex128) float64 {
	var sum float64
	for i := range a {
		for j := range a[i] {
			d := a[i][j] - b[i][j]
			sum += real(d * cmplx.Conj(d))
		}
	}
	if sum < 0 {
		sum = 0
	}
	return sqrt(sum)
}

func sqrt(x float64) float64 {
	if x <= 0 {
		return 0
	}
	// Newton's method avoids importing math just for Sqrt twice; kept
	// local since this file otherwise only needs math/cmplx.
	z := x
	for i := 0; i < 40; i++ {
		z -= (z*z - x) / (2 * z)
	}
	return z
}

// IsProductAcrossBipartition reports whether the density matrix rho (over
// the ordered qubit list `over`) factors as ρ_A ⊗ ρ_B for the given
// bipartition of `over` into a/b (both expressed as index positions into
// `over`), within EpsilonState. A product density matrix means the two
// halves carry no entanglement.
func IsProductAcrossBipartition(rho [][]complex128, over []int, aPositions, bPositions []int) bool {
	traceForA := map[int]bool{}
	for _, p := range bPositions {
		traceForA[p] = true
	}
	traceForB := map[int]bool{}
	for _, p := range aPositions {
		traceForB[p] = true
	}
	rhoA := traceOutFromDensity(rho, len(over), traceForA)
	rhoB := traceOutFromDensity(rho, len(over), traceForB)
	product := Kron(rhoA, rhoB)

	// product's basis ordering places A's bits as the more-significant
	// block (per Kron above: a outer, b inner); reorderDensity puts
	// newOrder[0] at bit 0, so list bPositions first (low bits) and
	// aPositions after them (high bits) to match before comparing.
	reordered := reorderDensity(rho, len(over), append(append([]int{}, bPositions...), aPositions...))
	return FrobeniusDistance(reordered, product) < EpsilonState
}

// reorderDensity permutes the local bit positions of a density matrix so
// that newOrder[0] becomes local bit 0, newOrder[1] becomes local bit 1,
// etc.
func reorderDensity(rho [][]complex128, basisLen int, newOrder []int) [][]complex128 {
	dim := len(rho)
	out := make([][]complex128, dim)
	for i := range out {
		out[i] = make([]complex128, dim)
	}
	remap := func(v int) int {
		out := 0
		for newPos, oldPos := range newOrder {
			if v&(1<<uint(oldPos)) != 0 {
				out |= 1 << uint(newPos)
			}
		}
		return out
	}
	for a := 0; a < dim; a++ {
		for b := 0; b < dim; b++ {
			out[remap(a)][remap(b)] = rho[a][b]
		}
	}
	_ = basisLen
	return out
}
