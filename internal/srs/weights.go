package srs

import "fmt"

// Weights is the injectable FSRS-4.5 parameter vector. The forgetting curve
// and the stability/difficulty update formulas are parameterized entirely by
// these 17 values plus the fixed power-law constants below.
type Weights [17]float64

// DefaultWeights are the published FSRS-4.5 default parameter values.
var DefaultWeights = Weights{
	0.4872, 1.4003, 3.7145, 13.8206, // w[0..3]  initial stability S0(G)
	5.1618, 1.2298, 0.8975, 0.031, // w[4..7]  difficulty params
	1.6474, 0.1367, 1.0461, // w[8..10] recall stability params
	2.1072, 0.0793, 0.3246, 1.587, // w[11..14] forget stability params
	0.2272, 2.8755, // w[15..16] hard penalty, easy bonus
}

// LowerBounds defines the minimum allowed value for each weight.
var LowerBounds = Weights{
	0.001, 0.001, 0.001, 0.001,
	1.0, 0.001, 0.001, 0.001,
	0.0, 0.0, 0.001,
	0.001, 0.001, 0.001, 0.0,
	0.0, 1.0,
}

// UpperBounds defines the maximum allowed value for each weight.
var UpperBounds = Weights{
	100.0, 100.0, 100.0, 100.0,
	10.0, 4.0, 4.0, 0.75,
	4.5, 0.8, 3.5,
	5.0, 0.25, 0.9, 4.0,
	1.0, 6.0,
}

// ValidateWeights checks that every weight is within its bounds.
func ValidateWeights(w Weights) error {
	for i := range w {
		if w[i] < LowerBounds[i] || w[i] > UpperBounds[i] {
			return fmt.Errorf("srs: weight w[%d] = %f out of bounds [%f, %f]",
				i, w[i], LowerBounds[i], UpperBounds[i])
		}
	}
	return nil
}
