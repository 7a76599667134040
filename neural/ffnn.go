// Package neural provides the fixed-topology feedforward controller that
// drives organisms.
package neural

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Activation selects the hidden layer nonlinearity.
type Activation uint8

const (
	Tanh Activation = iota
	Identity
)

// ParseActivation maps a config name to an Activation.
func ParseActivation(name string) (Activation, error) {
	switch name {
	case "tanh", "":
		return Tanh, nil
	case "identity":
		return Identity, nil
	}
	return Tanh, fmt.Errorf("unknown activation %q", name)
}

// Controller is a single-hidden-layer feedforward network.
// Output is always tanh-bounded to [-1, 1].
// A Controller is immutable after construction and safe for concurrent Predict calls.
type Controller struct {
	shape   Shape
	hidden  Activation
	weights Weights // owned copy backing the matrices below

	w1 *mat.Dense    // hidden x inputs
	b1 *mat.VecDense // hidden
	w2 *mat.Dense    // outputs x hidden
	b2 *mat.VecDense // outputs
}

// NewControllerWithWeights builds a controller from explicit weights.
// The weights are copied; the caller keeps ownership of w.
// Panics if the array lengths do not match shape.
func NewControllerWithWeights(shape Shape, hidden Activation, w Weights) *Controller {
	if err := w.Validate(shape); err != nil {
		panic(fmt.Sprintf("neural: %v", err))
	}
	owned := w.Clone()
	return &Controller{
		shape:   shape,
		hidden:  hidden,
		weights: owned,
		w1:      mat.NewDense(shape.Hidden, shape.Inputs, owned.InputToHidden),
		b1:      mat.NewVecDense(shape.Hidden, owned.InputToHiddenBias),
		w2:      mat.NewDense(shape.Outputs, shape.Hidden, owned.HiddenToOutput),
		b2:      mat.NewVecDense(shape.Outputs, owned.HiddenToOutputBias),
	}
}

// Shape returns the network dimensions.
func (c *Controller) Shape() Shape {
	return c.shape
}

// HiddenActivation returns the hidden layer nonlinearity.
func (c *Controller) HiddenActivation() Activation {
	return c.hidden
}

// Weights returns a copy of the controller's weights.
func (c *Controller) Weights() Weights {
	return c.weights.Clone()
}

// Predict computes tanh(W2·act(W1·x + b1) + b2).
// Panics if len(input) != Shape().Inputs.
func (c *Controller) Predict(input []float64) []float64 {
	if len(input) != c.shape.Inputs {
		panic(fmt.Sprintf("neural: predict got %d inputs, want %d", len(input), c.shape.Inputs))
	}

	x := mat.NewVecDense(len(input), input)

	var h mat.VecDense
	h.MulVec(c.w1, x)
	h.AddVec(&h, c.b1)
	if c.hidden == Tanh {
		raw := h.RawVector().Data
		for i := range raw {
			raw[i] = math.Tanh(raw[i])
		}
	}

	var o mat.VecDense
	o.MulVec(c.w2, &h)
	o.AddVec(&o, c.b2)

	out := make([]float64, c.shape.Outputs)
	for i := range out {
		out[i] = math.Tanh(o.AtVec(i))
	}
	return out
}
