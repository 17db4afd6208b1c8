package masking

import (
	"fmt"
	"image"
	"math/rand"
	"strconv"
	"strings"

	"github.com/ironsheep/tv-restore-mcp/internal/grid"
)

// Spec describes a mask declaratively, as read from configuration files or
// tool arguments.
type Spec struct {
	// Type is "random", "rows", "rectangle", "center" or "region".
	Type string `yaml:"type" json:"type"`

	// Ratio is the occlusion ratio of a random mask. Zero, or omitted,
	// means DefaultRatio.
	Ratio float64 `yaml:"ratio,omitempty" json:"ratio,omitempty"`

	// Region names one of Regions for the "region" type.
	Region string `yaml:"region,omitempty" json:"region,omitempty"`

	// X1, Y1, X2, Y2 bound the "rectangle" type in pixel coordinates,
	// (x1,y1) inclusive and (x2,y2) exclusive.
	X1 int `yaml:"x1,omitempty" json:"x1,omitempty"`
	Y1 int `yaml:"y1,omitempty" json:"y1,omitempty"`
	X2 int `yaml:"x2,omitempty" json:"x2,omitempty"`
	Y2 int `yaml:"y2,omitempty" json:"y2,omitempty"`
}

// DefaultRatio is the occlusion ratio of a random mask that names none.
const DefaultRatio = 0.5

// RandomRatio returns the ratio a random mask is built with.
func (s Spec) RandomRatio() float64 {
	if s.Ratio == 0 {
		return DefaultRatio
	}
	return s.Ratio
}

// String returns a short label, used for file names and log lines.
func (s Spec) String() string {
	switch strings.ToLower(s.Type) {
	case "random":
		return fmt.Sprintf("random-%02.0f", s.RandomRatio()*100)
	case "region":
		return "region-" + s.Region
	case "rectangle":
		return fmt.Sprintf("rect-%d-%d-%d-%d", s.X1, s.Y1, s.X2, s.Y2)
	}
	return strings.ToLower(s.Type)
}

// Validate checks the fields required by Type without building the mask.
func (s Spec) Validate() error {
	switch strings.ToLower(s.Type) {
	case "random", "rows", "center":
		return nil
	case "rectangle":
		if s.X2 <= s.X1 || s.Y2 <= s.Y1 {
			return fmt.Errorf("rectangle mask (%d,%d)-(%d,%d): x1 must be < x2, y1 must be < y2: %w",
				s.X1, s.Y1, s.X2, s.Y2, grid.ErrInvalidParameter)
		}
		return nil
	case "region":
		for _, r := range Regions {
			if r == s.Region {
				return nil
			}
		}
		return fmt.Errorf("unknown region %q: %w", s.Region, grid.ErrInvalidParameter)
	}
	return fmt.Errorf("unknown mask type %q: %w", s.Type, grid.ErrInvalidParameter)
}

// Build creates the mask for a rows x cols frame. rng is only consumed by
// random masks.
func (s Spec) Build(rows, cols int, rng *rand.Rand) (*grid.Grid, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	switch strings.ToLower(s.Type) {
	case "random":
		return Random(rows, cols, s.RandomRatio(), rng)
	case "rows":
		return InterleavedRows(rows, cols)
	case "center":
		return CenteredRectangle(rows, cols)
	case "region":
		return NamedRegion(rows, cols, s.Region)
	default:
		return Rectangle(rows, cols, image.Rect(s.X1, s.Y1, s.X2, s.Y2))
	}
}

// ParseSpec reads the compact form used on command lines:
//
//	random:0.5  rows  center  region:top-left  rect:x1,y1,x2,y2
//
// A bare "random" occludes DefaultRatio of the cells.
func ParseSpec(s string) (Spec, error) {
	kind, arg, hasArg := strings.Cut(strings.TrimSpace(s), ":")
	spec := Spec{Type: strings.ToLower(kind)}
	switch spec.Type {
	case "random":
		spec.Ratio = DefaultRatio
		if hasArg {
			r, err := strconv.ParseFloat(arg, 64)
			if err != nil {
				return Spec{}, fmt.Errorf("mask %q: ratio: %w", s, grid.ErrInvalidParameter)
			}
			spec.Ratio = r
		}
	case "region":
		spec.Region = strings.ToLower(arg)
	case "rect", "rectangle":
		spec.Type = "rectangle"
		parts := strings.Split(arg, ",")
		if len(parts) != 4 {
			return Spec{}, fmt.Errorf("mask %q: want rect:x1,y1,x2,y2: %w", s, grid.ErrInvalidParameter)
		}
		var v [4]int
		for i, p := range parts {
			n, err := strconv.Atoi(strings.TrimSpace(p))
			if err != nil {
				return Spec{}, fmt.Errorf("mask %q: coordinate %q: %w", s, p, grid.ErrInvalidParameter)
			}
			v[i] = n
		}
		spec.X1, spec.Y1, spec.X2, spec.Y2 = v[0], v[1], v[2], v[3]
	}
	if err := spec.Validate(); err != nil {
		return Spec{}, err
	}
	return spec, nil
}

// DemoSpecs returns the four masks of the reference inpainting run: random
// occlusion at 50% and 80%, interleaved rows, and the centered rectangle.
func DemoSpecs() []Spec {
	return []Spec{
		{Type: "random", Ratio: 0.5},
		{Type: "random", Ratio: 0.8},
		{Type: "rows"},
		{Type: "center"},
	}
}
