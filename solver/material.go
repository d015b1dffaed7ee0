package solver

import (
	"errors"
	"fmt"
	"math"

	"github.com/akmonengine/moreau/actor"
)

// MaterialTable gives the contact coefficients between two materials.
type MaterialTable interface {
	Coefficients(material1, material2 *actor.Material) (friction, restitution float64)
}

// CombineMode merges the coefficients of two materials.
type CombineMode uint8

const (
	CombineAverage CombineMode = iota
	CombineMin
	CombineMultiply
	CombineMax
	CombineGeometricMean
)

var ErrUnknownCombineMode = errors.New("solver: unknown combine mode")

var combineModeNames = [...]string{
	CombineAverage:       "average",
	CombineMin:           "min",
	CombineMultiply:      "multiply",
	CombineMax:           "max",
	CombineGeometricMean: "geometric_mean",
}

func (mode CombineMode) String() string {
	if int(mode) < len(combineModeNames) {
		return combineModeNames[mode]
	}
	return fmt.Sprintf("combine(%d)", uint8(mode))
}

// ParseCombineMode is the inverse of CombineMode.String.
func ParseCombineMode(name string) (CombineMode, error) {
	for mode, modeName := range combineModeNames {
		if modeName == name {
			return CombineMode(mode), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCombineMode, name)
}

func (mode CombineMode) Combine(a, b float64) float64 {
	switch mode {
	case CombineMin:
		return math.Min(a, b)
	case CombineMultiply:
		return a * b
	case CombineMax:
		return math.Max(a, b)
	case CombineGeometricMean:
		return math.Sqrt(a * b)
	default:
		return (a + b) / 2.0
	}
}

// MaterialsCoefficientsTable combines material coefficients with one mode per
// property.
type MaterialsCoefficientsTable struct {
	FrictionCombine    CombineMode
	RestitutionCombine CombineMode
}

// NewMaterialsCoefficientsTable uses the geometric mean for friction (standard
// in physics) and the average for restitution.
func NewMaterialsCoefficientsTable() *MaterialsCoefficientsTable {
	return &MaterialsCoefficientsTable{
		FrictionCombine:    CombineGeometricMean,
		RestitutionCombine: CombineAverage,
	}
}

func (t *MaterialsCoefficientsTable) Coefficients(material1, material2 *actor.Material) (float64, float64) {
	friction := t.FrictionCombine.Combine(material1.Friction, material2.Friction)
	restitution := t.RestitutionCombine.Combine(material1.Restitution, material2.Restitution)

	return friction, restitution
}
