package ffnet

import (
	"github.com/chewxy/math32"
)

type Activation int

const (
	Sigmoid Activation = iota
	ReLU
	Identity
)

// apply transforms z elementwise in place.
func (act Activation) apply(z []float32) {
	switch act {
	case Sigmoid:
		sigmoidActivation(z)
	case ReLU:
		reluActivation(z)
	case Identity:
		// identity activation is a no-op
	default:
		panic("unhandled activation function")
	}
}

func sigmoidActivation(z []float32) {
	for i := 0; i < len(z); i++ {
		z[i] = 1 / (1 + math32.Exp(-z[i]))
	}
}

func reluActivation(z []float32) {
	for i := 0; i < len(z); i++ {
		if z[i] < 0 {
			z[i] = 0
		}
	}
}
