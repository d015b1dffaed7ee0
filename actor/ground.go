package actor

import (
	"github.com/akmonengine/moreau/integration"
	"github.com/go-gl/mathgl/mgl64"
)

// Ground is the static body every BodySet starts with. Joints anchored to the
// world are attached to it.
type Ground struct {
	companionID int
}

func NewGround() *Ground {
	return &Ground{}
}

func (g *Ground) Handle() BodyHandle        { return GroundHandle() }
func (g *Ground) Status() BodyType          { return BodyTypeStatic }
func (g *Ground) Ndofs() int                { return 0 }
func (g *Ground) StatusDependentNdofs() int { return 0 }
func (g *Ground) CompanionID() int          { return g.companionID }
func (g *Ground) SetCompanionID(id int)     { g.companionID = id }

func (g *Ground) GeneralizedVelocity() []float64     { return nil }
func (g *Ground) GeneralizedAcceleration() []float64 { return nil }
func (g *Ground) UpdateAcceleration(mgl64.Vec3)      {}

func (g *Ground) HasActiveInternalConstraints() bool                                  { return false }
func (g *Ground) SetupInternalVelocityConstraints([]float64, *integration.Parameters) {}
func (g *Ground) StepSolveInternalVelocityConstraints([]float64)                      {}

func (g *Ground) Integrate(*integration.Parameters) {}
func (g *Ground) ApplyDisplacement([]float64)       {}

func (g *Ground) FillConstraintGeometry(int, mgl64.Vec3, ForceDirection, int, int, []float64, []float64) (float64, float64) {
	return 0, 0
}

func (g *Ground) WorldTransform() Transform { return NewTransform() }
func (g *Ground) ValidateAdvancement()      {}
