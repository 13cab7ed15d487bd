package ffnet

import (
	"slices"
)

// Forward2Layer computes a two-layer forward pass with plain matrix
// arithmetic, no layer machinery involved:
//
//	hidden = sigmoid(x·W1ᵀ + b1)
//	logits = hidden·W2ᵀ + b2
//
// x is the flattened input batch.  Shape (batchSize, inputSize)
// w1 shape (hiddenSize, inputSize), b1 shape (hiddenSize)
// w2 shape (outputSize, hiddenSize), b2 shape (outputSize)
//
// The returned logits have shape (batchSize, outputSize).  No activation is
// applied after the second affine step; feed the result through Softmax to
// obtain class probabilities.
func Forward2Layer(x, w1, b1, w2, b2 *Tensor) *Tensor {
	hidden := affine(x, w1, b1)
	sigmoidActivation(hidden.V)
	return affine(hidden, w2, b2)
}

// affine computes x·Wᵀ + b one output element at a time.
//
// x shape (batchSize, inputSize)
// w shape (outputSize, inputSize)
// b shape (outputSize)
func affine(x, w, b *Tensor) *Tensor {
	if len(x.Shape) != 2 {
		panic("len(x.Shape) != 2")
	}
	batchSize := x.Shape[0]
	inputSize := x.Shape[1]

	if len(w.Shape) != 2 {
		panic("len(w.Shape) != 2")
	}
	if w.Shape[1] != inputSize {
		panic("dimension mismatch")
	}
	outputSize := w.Shape[0]

	if !slices.Equal(b.Shape, []int{outputSize}) {
		panic("dimension mismatch")
	}

	out := New(batchSize, outputSize)
	for k := 0; k < batchSize; k++ {
		for i := 0; i < outputSize; i++ {
			z := dot(w.V[i*inputSize:i*inputSize+inputSize], x.V[k*inputSize:k*inputSize+inputSize])
			z += b.At1(i)
			out.Set2(k, i, z)
		}
	}
	return out
}

func dot(x, y []float32) float32 {
	if len(x) != len(y) {
		panic("mismatched length")
	}
	var sum float32
	for i := range x {
		sum += x[i] * y[i]
	}
	return sum
}
