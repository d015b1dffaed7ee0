package moreau

import (
	"errors"
	"log/slog"

	"github.com/akmonengine/moreau/actor"
	"github.com/akmonengine/moreau/detection"
	"github.com/akmonengine/moreau/integration"
	"github.com/akmonengine/moreau/joint"
	"github.com/akmonengine/moreau/solver"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	DEFAULT_WORKERS   = 1
	DEFAULT_CELL_SIZE = 2.0
	DEFAULT_CELLS     = 1024
)

var ErrUnknownBody = errors.New("moreau: joint anchored to an unknown body")

type World struct {
	Bodies *actor.BodySet
	Joints *joint.Set
	// Gravity acceleration (m/s², or N/kg)
	Gravity    mgl64.Vec3
	Parameters integration.Parameters
	Materials  solver.MaterialTable

	SpatialGrid *SpatialGrid
	Workers     int
	// Prediction is the gap under which speculative contacts are generated.
	Prediction float64

	Events Events
	// Counters holds the solver timings of the last step.
	Counters solver.Counters

	stepper   *solver.MoreauJean
	islands   islandBuilder
	bodies    []*actor.RigidBody
	manifolds []detection.ContactManifold
	logger    *slog.Logger
}

// NewWorld returns an empty world solved with the Signorini-Coulomb contact
// model.
func NewWorld(gravity mgl64.Vec3, params integration.Parameters) *World {
	return &World{
		Bodies:      actor.NewBodySet(),
		Joints:      joint.NewSet(),
		Gravity:     gravity,
		Parameters:  params,
		Materials:   solver.NewMaterialsCoefficientsTable(),
		SpatialGrid: NewSpatialGrid(DEFAULT_CELL_SIZE, DEFAULT_CELLS),
		Workers:     DEFAULT_WORKERS,
		Prediction:  DefaultPrediction,
		Events:      NewEvents(),
		stepper:     solver.NewMoreauJean(solver.NewSignoriniCoulomb()),
		logger:      slog.New(slog.DiscardHandler),
	}
}

func (w *World) SetLogger(logger *slog.Logger) {
	w.logger = logger
	w.stepper.SetLogger(logger)
}

func (w *World) Solver() *solver.MoreauJean {
	return w.stepper
}

// AddBody adds a rigid body to the world
func (w *World) AddBody(desc actor.RigidBodyDesc) (actor.BodyHandle, *actor.RigidBody) {
	return w.Bodies.AddRigidBody(desc)
}

func (w *World) Body(handle actor.BodyHandle) (*actor.RigidBody, bool) {
	body, ok := w.Bodies.Get(handle)
	if !ok {
		return nil, false
	}
	rb, ok := body.(*actor.RigidBody)
	return rb, ok
}

// RemoveBody removes a rigid body with the joints attached to it. Its slot
// may be reused by the next body added.
func (w *World) RemoveBody(handle actor.BodyHandle) bool {
	if _, ok := w.Bodies.Remove(handle); !ok {
		return false
	}

	if n := w.Joints.RemoveAttachedTo(handle); n > 0 {
		w.logger.Debug("joints removed with body", "body", handle, "joints", n)
	}
	w.Events.forget(handle)

	return true
}

// AddJoint inserts a joint whose anchors are bodies of this world or the
// ground.
func (w *World) AddJoint(j solver.JointConstraint) (joint.Handle, error) {
	if j == nil {
		return 0, joint.ErrInvalidJoint
	}
	anchor1, anchor2 := j.Anchors()
	if !w.Bodies.Contains(anchor1.Body) || !w.Bodies.Contains(anchor2.Body) {
		return 0, ErrUnknownBody
	}

	return w.Joints.Insert(j)
}

func (w *World) RemoveJoint(handle joint.Handle) bool {
	_, ok := w.Joints.Remove(handle)
	return ok
}

// Manifolds returns the contacts solved during the last step.
func (w *World) Manifolds() []detection.ContactManifold {
	return w.manifolds
}

// KineticEnergy sums the kinetic energy of every body.
func (w *World) KineticEnergy() float64 {
	energy := 0.0
	for _, body := range w.rigidBodies() {
		energy += body.KineticEnergy()
	}
	return energy
}

func (w *World) rigidBodies() []*actor.RigidBody {
	w.bodies = w.bodies[:0]
	w.Bodies.ForEach(func(_ actor.BodyHandle, body actor.Body) {
		if rb, ok := body.(*actor.RigidBody); ok {
			w.bodies = append(w.bodies, rb)
		}
	})
	return w.bodies
}

// Step advances the world by Parameters.Dt.
func (w *World) Step() error {
	if err := w.Parameters.Validate(); err != nil {
		return err
	}
	w.Workers = max(DEFAULT_WORKERS, w.Workers)
	w.Counters.Reset()
	bodies := w.rigidBodies()

	task(w.Workers, bodies, func(body *actor.RigidBody) {
		body.ValidateAdvancement()
		body.UpdateAcceleration(w.Gravity)
	})

	manifolds := w.detectCollision(bodies)
	manifolds = w.Events.recordCollisions(w.Bodies, manifolds)
	w.manifolds = manifolds

	islands := w.islands.build(bodies, manifolds, w.Joints.Constraints())
	for i := range islands {
		w.stepper.Step(&w.Counters, w.Bodies, islands[i].Joints, islands[i].Manifolds, islands[i].Bodies, &w.Parameters, w.Materials)
	}
	if pruner, ok := w.stepper.ContactModel().(solver.CachePruner); ok {
		pruner.Prune()
	}

	// kinematic bodies belong to no island
	for _, body := range bodies {
		if body.BodyType == actor.BodyTypeKinematic {
			body.Integrate(&w.Parameters)
		}
	}

	impacts := w.solveCCD(bodies)

	w.Events.flush()
	task(w.Workers, bodies, func(body *actor.RigidBody) {
		body.ClearForces()
	})

	w.logger.Debug("world step",
		"bodies", len(bodies),
		"manifolds", len(manifolds),
		"islands", len(islands),
		"ccd_impacts", impacts,
		"constraints", w.Counters.NConstraints,
	)

	return nil
}

func (w *World) detectCollision(bodies []*actor.RigidBody) []detection.ContactManifold {
	w.SpatialGrid.Margin = w.Prediction
	return NarrowPhase(BroadPhase(w.SpatialGrid, bodies, w.Workers), w.Prediction, w.Workers)
}
