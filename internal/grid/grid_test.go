package grid

import (
	"errors"
	"testing"
)

func TestNew(t *testing.T) {
	g, err := New(3, 4)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if g.Rows() != 3 || g.Cols() != 4 {
		t.Errorf("dimensions: got %dx%d, want 3x4", g.Rows(), g.Cols())
	}
	for r := 0; r < 3; r++ {
		for c := 0; c < 4; c++ {
			if g.At(r, c) != 0 {
				t.Errorf("At(%d,%d): got %v, want 0", r, c, g.At(r, c))
			}
		}
	}
}

func TestNew_InvalidSize(t *testing.T) {
	tests := []struct {
		name       string
		rows, cols int
	}{
		{"zero rows", 0, 4},
		{"zero cols", 4, 0},
		{"negative", -1, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.rows, tt.cols)
			if !errors.Is(err, ErrInvalidParameter) {
				t.Errorf("New(%d,%d): got %v, want ErrInvalidParameter", tt.rows, tt.cols, err)
			}
		})
	}
}

func TestFromRows(t *testing.T) {
	g, err := FromRows([][]float32{{1, 2, 3}, {4, 5, 6}})
	if err != nil {
		t.Fatalf("FromRows failed: %v", err)
	}
	if g.At(1, 2) != 6 {
		t.Errorf("At(1,2): got %v, want 6", g.At(1, 2))
	}

	if _, err := FromRows([][]float32{{1, 2}, {3}}); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("ragged rows: got %v, want ErrDimensionMismatch", err)
	}
	if _, err := FromRows(nil); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("nil rows: got %v, want ErrEmptyInput", err)
	}
}

func TestRowAliasesStorage(t *testing.T) {
	g, _ := New(2, 2)
	g.Row(1)[0] = 7
	if g.At(1, 0) != 7 {
		t.Errorf("At(1,0): got %v, want 7", g.At(1, 0))
	}
}

func TestCheckSameShape(t *testing.T) {
	a, _ := New(2, 3)
	b, _ := New(2, 3)
	c, _ := New(3, 2)

	if err := CheckSameShape([]string{"a", "b"}, a, b); err != nil {
		t.Errorf("same shape: unexpected error %v", err)
	}
	if err := CheckSameShape([]string{"a", "c"}, a, c); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("different shape: got %v, want ErrDimensionMismatch", err)
	}
	if err := CheckSameShape([]string{"a", "nil"}, a, nil); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("nil operand: got %v, want ErrEmptyInput", err)
	}
	var zero Grid
	if err := CheckNonEmpty("zero", &zero); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("zero value: got %v, want ErrEmptyInput", err)
	}
}

func TestArithmetic(t *testing.T) {
	a, _ := FromRows([][]float32{{1, 2}, {3, 4}})
	b, _ := FromRows([][]float32{{4, 3}, {2, 1}})

	diff, err := Sub(a, b)
	if err != nil {
		t.Fatalf("Sub failed: %v", err)
	}
	if diff.At(0, 0) != -3 || diff.At(1, 1) != 3 {
		t.Errorf("Sub: got %v/%v, want -3/3", diff.At(0, 0), diff.At(1, 1))
	}

	prod, err := Mul(a, b)
	if err != nil {
		t.Fatalf("Mul failed: %v", err)
	}
	if prod.At(0, 1) != 6 {
		t.Errorf("Mul: got %v, want 6", prod.At(0, 1))
	}

	acc := a.Clone()
	if err := acc.AddScaled(0.5, b); err != nil {
		t.Fatalf("AddScaled failed: %v", err)
	}
	if acc.At(0, 0) != 3 {
		t.Errorf("AddScaled: got %v, want 3", acc.At(0, 0))
	}
	if a.At(0, 0) != 1 {
		t.Error("Clone should not alias the source")
	}

	acc.Scale(2)
	if acc.At(0, 0) != 6 {
		t.Errorf("Scale: got %v, want 6", acc.At(0, 0))
	}

	lo, hi := a.MinMax()
	if lo != 1 || hi != 4 {
		t.Errorf("MinMax: got (%v,%v), want (1,4)", lo, hi)
	}
}

func TestFloat64sRoundTrip(t *testing.T) {
	a, _ := FromRows([][]float32{{0.25, 0.5, 0.75}})
	b, err := FromFloat64s(1, 3, a.Float64s())
	if err != nil {
		t.Fatalf("FromFloat64s failed: %v", err)
	}
	for c := 0; c < 3; c++ {
		if a.At(0, c) != b.At(0, c) {
			t.Errorf("col %d: got %v, want %v", c, b.At(0, c), a.At(0, c))
		}
	}
	if _, err := FromFloat64s(2, 2, []float64{1}); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("short slice: got %v, want ErrDimensionMismatch", err)
	}
}

func TestVectorField_Validate(t *testing.T) {
	v, err := NewVectorField(2, 2)
	if err != nil {
		t.Fatalf("NewVectorField failed: %v", err)
	}
	if err := v.Validate(); err != nil {
		t.Errorf("Validate: unexpected error %v", err)
	}

	bad := VectorField{X1: v.X1}
	if err := bad.Validate(); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("missing X2: got %v, want ErrEmptyInput", err)
	}
}
