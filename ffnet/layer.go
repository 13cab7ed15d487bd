package ffnet

import (
	"math/rand"
	"slices"
)

// Layer is a dense (fully-connected) unit computing a = activation(x·Wᵀ + b).
type Layer struct {
	Activation Activation

	W *Tensor // Shape (OutputSize, InputSize)
	B *Tensor // Shape (OutputSize)

	InputSize  int
	OutputSize int
}

// MakeDense builds a dense layer with weights drawn from N(0, 0.1) and biases
// set to 0.1.
func MakeDense(activation Activation, inputSize, outputSize int, r *rand.Rand) *Layer {
	lay := &Layer{
		Activation: activation,
		InputSize:  inputSize,
		OutputSize: outputSize,
		W:          New(outputSize, inputSize),
		B:          New(outputSize),
	}

	for i := 0; i < outputSize; i++ {
		for j := 0; j < inputSize; j++ {
			lay.W.Set2(i, j, float32(r.NormFloat64())*0.1)
		}
		lay.B.Set1(i, 0.1)
	}

	return lay
}

// Apply the layer in the forward direction.
//
// x (input) is the layer input.  Shape (batchSize, lay.InputSize)
// a (output) is the layer's forward output.  Shape (batchSize, lay.OutputSize)
func (lay *Layer) Apply(x, a *Tensor) {
	if len(x.Shape) != 2 {
		panic("dimension mismatch")
	}
	if len(a.Shape) != 2 {
		panic("dimension mismatch")
	}

	batchSize := x.Shape[0]
	inputSize := lay.InputSize
	outputSize := lay.OutputSize

	if x.Shape[1] != inputSize {
		panic("dimension mismatch")
	}
	if a.Shape[0] != batchSize {
		panic("dimension mismatch")
	}
	if a.Shape[1] != outputSize {
		panic("dimension mismatch")
	}
	if lay.W.Shape[0] != outputSize {
		panic("dimension mismatch")
	}
	if lay.W.Shape[1] != inputSize {
		panic("dimension mismatch")
	}
	if !slices.Equal(lay.B.Shape, []int{outputSize}) {
		panic("lay.B.Shape != {outputSize}")
	}

	// Write the linear activations into a, then apply the activation function
	// elementwise.  Matches the operation order of the hand-rolled affine in
	// forward.go exactly, so a network of dense layers reproduces
	// Forward2Layer bit for bit.
	for k := 0; k < batchSize; k++ {
		for i := 0; i < outputSize; i++ {
			z := dot(lay.W.V[i*inputSize:i*inputSize+inputSize], x.V[k*inputSize:k*inputSize+inputSize])
			z += lay.B.At1(i)
			a.Set2(k, i, z)
		}
	}

	lay.Activation.apply(a.V)
}
