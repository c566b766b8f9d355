package chisei

import (
	"math"
	"testing"
)

func TestActivationValues(t *testing.T) {
	tests := []struct {
		name string
		act  Activation
		x    float64
		want float64
	}{
		{"sigmoid zero", Sigmoid, 0, 0.5},
		{"sigmoid large", Sigmoid, 100, 1},
		{"relu negative", ReLU, -3, 0},
		{"relu positive", ReLU, 3, 3},
		{"tanh zero", Tanh, 0, 0},
		{"identity", Identity, -2.5, -2.5},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.act.Func()(tc.x)
			if math.Abs(got-tc.want) > 1e-12 {
				t.Errorf("%v(%v) = %v, want %v", tc.act, tc.x, got, tc.want)
			}
		})
	}
}

// The derivatives take the activation's own output, not the
// pre-activation: f'(f(x)) must match the analytic derivative at x.
func TestDerivativeOnOutputContract(t *testing.T) {
	xs := []float64{-2, -0.5, 0.25, 1, 3}

	for _, x := range xs {
		y := Sigmoid.Func()(x)
		want := y * (1 - y)
		if got := Sigmoid.Derivative()(y); got != want {
			t.Errorf("sigmoid'(sigmoid(%v)) = %v, want %v", x, got, want)
		}

		y = Tanh.Func()(x)
		want = 1 - y*y
		if got := Tanh.Derivative()(y); got != want {
			t.Errorf("tanh'(tanh(%v)) = %v, want %v", x, got, want)
		}

		y = ReLU.Func()(x)
		want = 0
		if x > 0 {
			want = 1
		}
		if got := ReLU.Derivative()(y); got != want {
			t.Errorf("relu'(relu(%v)) = %v, want %v", x, got, want)
		}

		if got := Identity.Derivative()(x); got != 1 {
			t.Errorf("identity'(%v) = %v, want 1", x, got)
		}
	}
}

func TestCustomHasNoBuiltins(t *testing.T) {
	if Custom.Func() != nil {
		t.Errorf("Custom.Func() is non-nil")
	}
	if Custom.Derivative() != nil {
		t.Errorf("Custom.Derivative() is non-nil")
	}
}
