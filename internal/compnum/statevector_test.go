package compnum

import (
	"math"
	"math/rand"
	"testing"
)

func almostEqual(a, b complex128) bool {
	d := a - b
	return real(d)*real(d)+imag(d)*imag(d) < 1e-10
}

func TestHadamardProducesSuperposition(t *testing.T) {
	s := New(1)
	s.ApplyGate("H", 0, nil, nil)
	want := complex(1/math.Sqrt2, 0)
	if !almostEqual(s.Amplitude(0), want) || !almostEqual(s.Amplitude(1), want) {
		t.Fatalf("H|0> = %v, want (%v, %v)", s.Amplitudes, want, want)
	}
}

func TestBellStateEntanglement(t *testing.T) {
	s := New(2)
	s.ApplyGate("H", 0, nil, nil)
	s.ApplyGate("CX", 1, []int{0}, nil)

	rho := s.ReducedDensityMatrix([]int{0})
	if Purity(rho) > 1-EpsilonState {
		t.Fatalf("reduced state of qubit 0 in Bell pair should be mixed, purity=%v", Purity(rho))
	}

	full := s.ReducedDensityMatrix([]int{0, 1})
	if IsProductAcrossBipartition(full, []int{0, 1}, []int{0}, []int{1}) {
		t.Fatalf("Bell state incorrectly reported as a product state across {0}|{1}")
	}
}

func TestProductStateIsDetectedAsProduct(t *testing.T) {
	s := New(2)
	s.ApplyGate("H", 0, nil, nil)
	// qubit 1 left at |0>, uncorrelated with qubit 0.
	full := s.ReducedDensityMatrix([]int{0, 1})
	if !IsProductAcrossBipartition(full, []int{0, 1}, []int{0}, []int{1}) {
		t.Fatalf("independent qubits incorrectly reported as entangled")
	}
}

func TestGateInversionRestoresState(t *testing.T) {
	s := New(2)
	s.ApplyGate("H", 0, nil, nil)
	s.ApplyGate("RY", 1, nil, []float64{0.73})
	s.ApplyGate("CX", 1, []int{0}, nil)

	before := s.Clone()
	s.ApplyGate("CX", 1, []int{0}, nil)
	s.ApplyInverse("CX", 1, []int{0}, nil)
	for i := range before.Amplitudes {
		if !almostEqual(before.Amplitudes[i], s.Amplitudes[i]) {
			t.Fatalf("CX self-inverse failed at index %d: %v vs %v", i, before.Amplitudes[i], s.Amplitudes[i])
		}
	}

	s.ApplyGate("RY", 1, nil, []float64{0.41})
	s.ApplyInverse("RY", 1, nil, []float64{0.41})
	for i := range before.Amplitudes {
		if !almostEqual(before.Amplitudes[i], s.Amplitudes[i]) {
			t.Fatalf("RY inverse failed at index %d: %v vs %v", i, before.Amplitudes[i], s.Amplitudes[i])
		}
	}
}

func TestMeasureRestoreIsExact(t *testing.T) {
	s := New(1)
	s.ApplyGate("H", 0, nil, nil)
	before := s.Clone()

	rng := rand.New(rand.NewSource(1))
	_, restore := s.Measure(0, rng)
	if almostEqual(s.Amplitudes[0], before.Amplitudes[0]) && almostEqual(s.Amplitudes[1], before.Amplitudes[1]) {
		t.Fatalf("measurement should have collapsed the superposition")
	}
	restore()
	for i := range before.Amplitudes {
		if !almostEqual(before.Amplitudes[i], s.Amplitudes[i]) {
			t.Fatalf("restore did not reproduce pre-measurement state at %d", i)
		}
	}
}

func TestAllZeroControlsDetectsUntriggeredGate(t *testing.T) {
	s := New(2)
	if !s.AllZeroControls([]int{0}) {
		t.Fatalf("control qubit at |0> should be detected as all-zero")
	}
	s.ApplyGate("X", 0, nil, nil)
	if s.AllZeroControls([]int{0}) {
		t.Fatalf("control qubit at |1> should not be reported as all-zero")
	}
}

func TestSetAmplitudeRejectsOverNormalization(t *testing.T) {
	s := New(1)
	s.ApplyGate("H", 0, nil, nil)
	if ok := s.SetAmplitude(0, complex(1.5, 0)); ok {
		t.Fatalf("SetAmplitude should reject magnitude > 1")
	}
	if ok := s.SetAmplitude(0, complex(1, 0)); !ok {
		t.Fatalf("SetAmplitude should accept magnitude == 1")
	}
	if math.Abs(s.Norm()-1) > EpsilonNorm {
		t.Fatalf("state should remain normalized after SetAmplitude, norm=%v", s.Norm())
	}
}

func TestStateVectorsEqualIgnoresGlobalPhase(t *testing.T) {
	a := []complex128{complex(1/math.Sqrt2, 0), complex(1/math.Sqrt2, 0)}
	b := []complex128{complex(0, 1/math.Sqrt2), complex(0, 1/math.Sqrt2)}
	if !StateVectorsEqual(b, a, true) {
		t.Fatalf("states equal up to global phase should compare equal")
	}
	if StateVectorsEqual(b, a, false) {
		t.Fatalf("states differing by global phase should not compare equal when phase matters")
	}
}
