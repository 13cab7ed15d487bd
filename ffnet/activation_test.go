package ffnet

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestSigmoidActivation(t *testing.T) {
	z := []float32{0, 2, -2}
	sigmoidActivation(z)

	want := []float32{0.5, 0.880797, 0.119203}
	if diff := cmp.Diff(want, z, cmpopts.EquateApprox(0, 1e-5)); diff != "" {
		t.Errorf("wrong sigmoid values (-want +got):\n%s", diff)
	}
}

func TestReLUActivationClampsNegatives(t *testing.T) {
	z := []float32{-3, -0.5, 0, 0.5, 3}
	reluActivation(z)

	want := []float32{0, 0, 0, 0.5, 3}
	if diff := cmp.Diff(want, z); diff != "" {
		t.Errorf("wrong relu values (-want +got):\n%s", diff)
	}
}

func TestIdentityActivationIsNoOp(t *testing.T) {
	z := []float32{-3, 0, 3}
	Identity.apply(z)

	want := []float32{-3, 0, 3}
	if diff := cmp.Diff(want, z); diff != "" {
		t.Errorf("identity modified values (-want +got):\n%s", diff)
	}
}
