package ffnet

import (
	"math"
	"math/rand"
	"testing"

	"github.com/chewxy/math32"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"gonum.org/v1/gonum/floats"
)

func TestSoftmaxRowsAreDistributions(t *testing.T) {
	r := rand.New(rand.NewSource(12345))

	in := New(32, 10)
	for i := range in.V {
		in.V[i] = float32(r.NormFloat64()) * 5
	}

	out := New(32, 10)
	Softmax(in, out)

	for k := 0; k < 32; k++ {
		var sum float32
		for i := 0; i < 10; i++ {
			p := out.At2(k, i)
			if p < 0 || p > 1 {
				t.Errorf("row %d entry %d out of [0,1]: %v", k, i, p)
			}
			sum += p
		}
		if math32.Abs(sum-1) > 1e-6 {
			t.Errorf("row %d sums to %v, want 1", k, sum)
		}
	}
}

func TestSoftmaxShiftInvariance(t *testing.T) {
	r := rand.New(rand.NewSource(54321))

	in := New(8, 10)
	for i := range in.V {
		in.V[i] = float32(r.NormFloat64())
	}

	shifted := in.Clone()
	for k := 0; k < 8; k++ {
		c := float32(k) * 17.5
		for i := 0; i < 10; i++ {
			shifted.Set2(k, i, shifted.At2(k, i)+c)
		}
	}

	out := New(8, 10)
	Softmax(in, out)
	outShifted := New(8, 10)
	Softmax(shifted, outShifted)

	if diff := cmp.Diff(out.V, outShifted.V, cmpopts.EquateApprox(0, 1e-6)); diff != "" {
		t.Errorf("softmax not invariant to per-row shift (-unshifted +shifted):\n%s", diff)
	}
}

func TestSoftmaxLargeEqualScores(t *testing.T) {
	in := FromSlice([]float32{1000, 1000, 1000}, 1, 3)
	out := New(1, 3)
	Softmax(in, out)

	for i, p := range out.V {
		if math32.IsNaN(p) || math32.IsInf(p, 0) {
			t.Fatalf("entry %d is not finite: %v", i, p)
		}
	}

	third := float32(1) / 3
	want := []float32{third, third, third}
	if diff := cmp.Diff(want, out.V, cmpopts.EquateApprox(0, 1e-6)); diff != "" {
		t.Errorf("wrong distribution for equal scores (-want +got):\n%s", diff)
	}
}

func TestSoftmaxEqualRowIsUniform(t *testing.T) {
	in := FromSlice([]float32{7, 7, 7, 7}, 1, 4)
	out := New(1, 4)
	Softmax(in, out)

	want := []float32{0.25, 0.25, 0.25, 0.25}
	if diff := cmp.Diff(want, out.V, cmpopts.EquateApprox(0, 1e-6)); diff != "" {
		t.Errorf("wrong distribution for equal row (-want +got):\n%s", diff)
	}
}

func TestSoftmaxZeroBatch(t *testing.T) {
	in := New(0, 10)
	out := New(0, 10)
	Softmax(in, out)

	if len(out.V) != 0 {
		t.Errorf("zero batch produced %d values", len(out.V))
	}
}

func TestSoftmaxAgreesWithFloat64Reference(t *testing.T) {
	r := rand.New(rand.NewSource(99))

	in := New(8, 10)
	for i := range in.V {
		in.V[i] = float32(r.NormFloat64()) * 10
	}

	out := New(8, 10)
	Softmax(in, out)

	for k := 0; k < 8; k++ {
		row := make([]float64, 10)
		for i := 0; i < 10; i++ {
			row[i] = float64(in.At2(k, i))
		}

		maxz := floats.Max(row)
		for i := range row {
			row[i] = math.Exp(row[i] - maxz)
		}
		sum := floats.Sum(row)

		for i := 0; i < 10; i++ {
			want := row[i] / sum
			got := float64(out.At2(k, i))
			if math.Abs(got-want) > 1e-6 {
				t.Errorf("row %d entry %d: got %v, float64 reference %v", k, i, got, want)
			}
		}
	}
}
