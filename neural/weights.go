package neural

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// Shape fixes the layer sizes shared by a whole population.
type Shape struct {
	Inputs  int `json:"inputs"`
	Hidden  int `json:"hidden"`
	Outputs int `json:"outputs"`
}

// Sizes returns the expected lengths of the four weight arrays, in Weights.Arrays order.
func (s Shape) Sizes() [4]int {
	return [4]int{s.Inputs * s.Hidden, s.Hidden, s.Hidden * s.Outputs, s.Outputs}
}

// NumParams returns the total number of weights and biases.
func (s Shape) NumParams() int {
	n := 0
	for _, v := range s.Sizes() {
		n += v
	}
	return n
}

// Valid reports whether every layer is non-empty.
func (s Shape) Valid() bool {
	return s.Inputs > 0 && s.Hidden > 0 && s.Outputs > 0
}

// Weights holds the flat weight arrays of a controller.
// Matrices are row-major: InputToHidden[h*Inputs+i] connects input i to hidden unit h.
type Weights struct {
	InputToHidden      []float64 `json:"input_to_hidden_weights"`
	InputToHiddenBias  []float64 `json:"input_to_hidden_bias"`
	HiddenToOutput     []float64 `json:"hidden_to_output_weights"`
	HiddenToOutputBias []float64 `json:"hidden_to_output_bias"`
}

// NewWeights allocates zeroed arrays for shape.
func NewWeights(shape Shape) Weights {
	sz := shape.Sizes()
	return Weights{
		InputToHidden:      make([]float64, sz[0]),
		InputToHiddenBias:  make([]float64, sz[1]),
		HiddenToOutput:     make([]float64, sz[2]),
		HiddenToOutputBias: make([]float64, sz[3]),
	}
}

// RandomWeights draws weights uniformly from [-weightRange, weightRange]
// and biases from [-biasRange, biasRange].
func RandomWeights(rng *rand.Rand, shape Shape, weightRange, biasRange float64) Weights {
	w := NewWeights(shape)
	fill := func(dst []float64, r float64) {
		for i := range dst {
			dst[i] = (rng.Float64()*2 - 1) * r
		}
	}
	fill(w.InputToHidden, weightRange)
	fill(w.InputToHiddenBias, biasRange)
	fill(w.HiddenToOutput, weightRange)
	fill(w.HiddenToOutputBias, biasRange)
	return w
}

// Arrays returns the four arrays in a fixed order. The slices alias w.
func (w Weights) Arrays() [4][]float64 {
	return [4][]float64{w.InputToHidden, w.InputToHiddenBias, w.HiddenToOutput, w.HiddenToOutputBias}
}

// Clone returns a deep copy.
func (w Weights) Clone() Weights {
	return Weights{
		InputToHidden:      cloneSlice(w.InputToHidden),
		InputToHiddenBias:  cloneSlice(w.InputToHiddenBias),
		HiddenToOutput:     cloneSlice(w.HiddenToOutput),
		HiddenToOutputBias: cloneSlice(w.HiddenToOutputBias),
	}
}

// Validate checks every array length against shape.
func (w Weights) Validate(shape Shape) error {
	if !shape.Valid() {
		return fmt.Errorf("invalid shape %+v", shape)
	}
	names := [4]string{"input_to_hidden_weights", "input_to_hidden_bias", "hidden_to_output_weights", "hidden_to_output_bias"}
	sizes := shape.Sizes()
	for i, arr := range w.Arrays() {
		if len(arr) != sizes[i] {
			return fmt.Errorf("%s has %d values, want %d", names[i], len(arr), sizes[i])
		}
	}
	return nil
}

// HasNaN reports whether any weight is NaN.
func (w Weights) HasNaN() bool {
	for _, arr := range w.Arrays() {
		if floats.HasNaN(arr) {
			return true
		}
	}
	return false
}

// Flatten concatenates the four arrays.
func (w Weights) Flatten() []float64 {
	var out []float64
	for _, arr := range w.Arrays() {
		out = append(out, arr...)
	}
	return out
}

// Unflatten splits a flat vector produced by Flatten back into arrays for shape.
func Unflatten(shape Shape, flat []float64) (Weights, error) {
	if len(flat) != shape.NumParams() {
		return Weights{}, fmt.Errorf("flat weights have %d values, want %d", len(flat), shape.NumParams())
	}
	w := NewWeights(shape)
	off := 0
	for _, arr := range w.Arrays() {
		off += copy(arr, flat[off:])
	}
	return w, nil
}

func cloneSlice(s []float64) []float64 {
	if s == nil {
		return nil
	}
	out := make([]float64, len(s))
	copy(out, s)
	return out
}
