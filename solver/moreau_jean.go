package solver

import (
	"fmt"
	"log/slog"

	"github.com/akmonengine/moreau/actor"
	"github.com/akmonengine/moreau/detection"
	"github.com/akmonengine/moreau/integration"
)

// MoreauJean is the Moreau-Jean time-stepping scheme: velocities are solved
// with every constraint at once, positions are then integrated from the new
// velocities and the remaining penetrations are projected out.
//
// All buffers are owned by the solver and reused from one step to the next.
// Only impulses survive a step, cached by the contact model and the joints.
type MoreauJean struct {
	jacobians JacobianBuffer
	dvels     []float64
	extVels   []float64

	contactModel       ContactModel
	contactConstraints ConstraintSet
	jointConstraints   ConstraintSet
	internal           []actor.BodyHandle
	jointSizes         []JacobianCursors

	velocitySolver SORProx
	positionSolver NonlinearSORProx

	logger *slog.Logger
}

func NewMoreauJean(contactModel ContactModel) *MoreauJean {
	return &MoreauJean{
		contactModel: contactModel,
		logger:       slog.New(slog.DiscardHandler),
	}
}

func (s *MoreauJean) SetContactModel(contactModel ContactModel) {
	s.contactModel = contactModel
}

func (s *MoreauJean) ContactModel() ContactModel {
	return s.contactModel
}

// SetLogger sets the logger receiving phase events at debug level.
func (s *MoreauJean) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

// Step advances the island by params.Dt.
func (s *MoreauJean) Step(counters *Counters, bodies *actor.BodySet, joints []JointConstraint, manifolds []detection.ContactManifold, island []actor.BodyHandle, params *integration.Parameters, materials MaterialTable) {
	counters.Enter(AssemblyStarted)
	s.assembleSystem(params, materials, bodies, joints, manifolds, island)
	counters.Enter(AssemblyCompleted)

	nconstraints := s.contactConstraints.Velocity.Len() + s.jointConstraints.Velocity.Len()
	counters.addConstraints(nconstraints)

	counters.Enter(VelocityResolutionStarted)
	s.solveVelocityConstraints(params, bodies)
	s.cacheImpulses(bodies, joints)
	counters.Enter(VelocityResolutionCompleted)

	counters.Enter(VelocityUpdateStarted)
	s.updateVelocitiesAndIntegrate(params, bodies, island)
	counters.Enter(VelocityUpdateCompleted)

	counters.Enter(PositionResolutionStarted)
	s.solvePositionConstraints(params, bodies, nil)
	counters.Enter(PositionResolutionCompleted)

	counters.stepCompleted()
	s.logger.Debug("step completed", "island", len(island), "constraints", nconstraints)
}

// StepCCD performs one sub-step of a continuous collision resolution for
// ccdPair. Penetrations, joints included, are removed first and the pair is
// marked as validated, before velocities are solved and integrated. Impulses
// are not cached.
func (s *MoreauJean) StepCCD(counters *Counters, bodies *actor.BodySet, joints []JointConstraint, manifolds []detection.ContactManifold, ccdPair [2]actor.BodyHandle, island []actor.BodyHandle, params *integration.Parameters, materials MaterialTable) {
	counters.Enter(AssemblyStarted)
	s.assembleSystem(params, materials, bodies, joints, manifolds, island)
	counters.Enter(AssemblyCompleted)

	counters.Enter(PositionResolutionStarted)
	s.solvePositionConstraints(params, bodies, joints)
	counters.Enter(PositionResolutionCompleted)

	for _, handle := range ccdPair {
		if body, ok := bodies.Get(handle); ok {
			body.ValidateAdvancement()
		}
	}

	counters.Enter(VelocityResolutionStarted)
	s.solveVelocityConstraints(params, bodies)
	counters.Enter(VelocityResolutionCompleted)

	counters.Enter(VelocityUpdateStarted)
	s.updateVelocitiesAndIntegrate(params, bodies, island)
	counters.Enter(VelocityUpdateCompleted)

	s.logger.Debug("ccd step completed", "body1", ccdPair[0], "body2", ccdPair[1], "dt", params.Dt)
}

func (s *MoreauJean) assembleSystem(params *integration.Parameters, materials MaterialTable, bodies *actor.BodySet, joints []JointConstraint, manifolds []detection.ContactManifold, island []actor.BodyHandle) {
	s.internal = s.internal[:0]
	systemNdofs := 0

	for _, handle := range island {
		body, ok := bodies.Get(handle)
		if !ok {
			continue
		}

		ndofs := body.StatusDependentNdofs()
		if ndofs == 0 {
			panic(fmt.Sprintf("solver: an island cannot contain a body without degrees of freedom (%v)", handle))
		}
		body.SetCompanionID(systemNdofs)
		systemNdofs += ndofs

		if body.HasActiveInternalConstraints() {
			s.internal = append(s.internal, handle)
		}
	}

	s.dvels = ensureLen(s.dvels, systemNdofs)
	s.extVels = ensureLen(s.extVels, systemNdofs)
	s.contactConstraints.Clear()
	s.jointConstraints.Clear()

	// M⁻¹ h dt
	for _, handle := range island {
		body, ok := bodies.Get(handle)
		if !ok {
			continue
		}
		id := body.CompanionID()
		axpy(params.Dt, body.GeneralizedAcceleration(), s.extVels[id:id+body.StatusDependentNdofs()])
	}

	// Jacobian sizes
	pairedSize, groundSize := 0, 0
	s.jointSizes = s.jointSizes[:0]
	for _, joint := range joints {
		size := s.jointJacobianSize(bodies, joint)
		s.jointSizes = append(s.jointSizes, size)
		pairedSize += size.Paired
		groundSize += size.Ground
	}
	for i := range manifolds {
		manifold := &manifolds[i]
		body1, ok1 := bodies.Get(manifold.Body1.Body)
		body2, ok2 := bodies.Get(manifold.Body2.Body)
		if !ok1 || !ok2 {
			continue
		}

		ndofs1, ndofs2 := body1.StatusDependentNdofs(), body2.StatusDependentNdofs()
		size := s.contactModel.NumVelocityConstraints(manifold) * rowSize(ndofs1, ndofs2)
		if ndofs1 == 0 || ndofs2 == 0 {
			groundSize += size
		} else {
			pairedSize += size
		}
	}

	s.jacobians.Resize(pairedSize, groundSize)

	// Constraints
	cursors := JacobianCursors{Paired: 0, Ground: pairedSize}
	jacobians := s.jacobians.Data()

	for i, joint := range joints {
		if !s.jointResolves(bodies, joint) {
			continue
		}

		before := cursors
		joint.VelocityConstraints(params, bodies, s.extVels, &cursors, jacobians, &s.jointConstraints)
		checkCursors(fmt.Sprintf("joint %d", i), before, cursors, s.jointSizes[i])
	}

	before := cursors
	s.contactModel.Constraints(params, materials, bodies, s.extVels, manifolds, &cursors, jacobians, &s.contactConstraints)
	checkCursors("contact model", before, cursors, JacobianCursors{
		Paired: pairedSize - before.Paired,
		Ground: pairedSize + groundSize - before.Ground,
	})

	for _, handle := range s.internal {
		body, ok := bodies.Get(handle)
		if !ok {
			continue
		}
		id := body.CompanionID()
		body.SetupInternalVelocityConstraints(s.extVels[id:id+body.StatusDependentNdofs()], params)
	}

	s.logger.Debug("system assembled",
		"island", len(island),
		"ndofs", systemNdofs,
		"manifolds", len(manifolds),
		"joints", len(joints),
		"paired_jacobian", pairedSize,
		"ground_jacobian", groundSize,
	)
}

func (s *MoreauJean) jointResolves(bodies *actor.BodySet, joint JointConstraint) bool {
	if !joint.IsActive(bodies) {
		return false
	}
	anchor1, anchor2 := joint.Anchors()
	return bodies.Contains(anchor1.Body) && bodies.Contains(anchor2.Body)
}

// jointJacobianSize returns the slots the joint reserves in each region, none
// when it is inactive.
func (s *MoreauJean) jointJacobianSize(bodies *actor.BodySet, joint JointConstraint) JacobianCursors {
	if !s.jointResolves(bodies, joint) {
		return JacobianCursors{}
	}

	anchor1, anchor2 := joint.Anchors()
	body1, _ := bodies.Get(anchor1.Body)
	body2, _ := bodies.Get(anchor2.Body)
	ndofs1, ndofs2 := body1.StatusDependentNdofs(), body2.StatusDependentNdofs()

	size := joint.NumVelocityConstraints() * rowSize(ndofs1, ndofs2)
	if ndofs1 == 0 || ndofs2 == 0 {
		return JacobianCursors{Ground: size}
	}
	return JacobianCursors{Paired: size}
}

// checkCursors panics when a producer did not write exactly what it was sized for.
func checkCursors(producer string, before, after, size JacobianCursors) {
	if after.Paired-before.Paired != size.Paired || after.Ground-before.Ground != size.Ground {
		panic(fmt.Sprintf("solver: %s wrote %d paired and %d ground jacobian slots, sized for %d and %d",
			producer, after.Paired-before.Paired, after.Ground-before.Ground, size.Paired, size.Ground))
	}
}

func (s *MoreauJean) solveVelocityConstraints(params *integration.Parameters, bodies *actor.BodySet) {
	s.velocitySolver.Solve(
		bodies,
		&s.contactConstraints.Velocity,
		&s.jointConstraints.Velocity,
		s.internal,
		s.dvels,
		s.jacobians.Data(),
		params.MaxVelocityIterations,
	)
}

func (s *MoreauJean) solvePositionConstraints(params *integration.Parameters, bodies *actor.BodySet, joints []JointConstraint) {
	s.positionSolver.Solve(params, bodies, s.contactConstraints.Position.Unilateral, joints, params.MaxPositionIterations)
}

func (s *MoreauJean) cacheImpulses(bodies *actor.BodySet, joints []JointConstraint) {
	s.contactModel.CacheImpulses(&s.contactConstraints)

	for _, joint := range joints {
		if s.jointResolves(bodies, joint) {
			joint.CacheImpulses(&s.jointConstraints)
		}
	}
}

func (s *MoreauJean) updateVelocitiesAndIntegrate(params *integration.Parameters, bodies *actor.BodySet, island []actor.BodyHandle) {
	for _, handle := range island {
		body, ok := bodies.Get(handle)
		if !ok {
			continue
		}

		id := body.CompanionID()
		ndofs := body.StatusDependentNdofs()
		velocity := body.GeneralizedVelocity()
		axpy(1, s.extVels[id:id+ndofs], velocity)
		axpy(1, s.dvels[id:id+ndofs], velocity)

		body.Integrate(params)
	}
}

// Jacobians returns the jacobian buffer of the last assembly.
func (s *MoreauJean) Jacobians() *JacobianBuffer {
	return &s.jacobians
}

// ExternalVelocities returns the free velocity increments dt × acceleration of
// the last assembly, indexed by companion id.
func (s *MoreauJean) ExternalVelocities() []float64 {
	return s.extVels
}

// VelocityCorrection returns the constraint-induced velocity change of the
// last velocity solve.
func (s *MoreauJean) VelocityCorrection() []float64 {
	return s.dvels
}

func (s *MoreauJean) ContactConstraints() *ConstraintSet {
	return &s.contactConstraints
}

func (s *MoreauJean) JointConstraints() *ConstraintSet {
	return &s.jointConstraints
}

// Residual is the largest impulse change another velocity pass would apply.
func (s *MoreauJean) Residual() float64 {
	return s.velocitySolver.Residual(&s.contactConstraints.Velocity, &s.jointConstraints.Velocity, s.dvels, s.jacobians.Data())
}
