package moreau_test

import (
	"math"

	"github.com/akmonengine/moreau"
	"github.com/akmonengine/moreau/actor"
	"github.com/akmonengine/moreau/integration"
	"github.com/akmonengine/moreau/joint"
	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var gravity = mgl64.Vec3{0, -9.81, 0}

func at(position mgl64.Vec3) actor.Transform {
	return actor.Transform{Position: position, Rotation: mgl64.QuatIdent()}
}

func addGround(world *moreau.World) actor.BodyHandle {
	handle, _ := world.AddBody(actor.RigidBodyDesc{
		Transform: at(mgl64.Vec3{}),
		Shape:     &actor.Plane{Normal: mgl64.Vec3{0, 1, 0}},
		BodyType:  actor.BodyTypeStatic,
		Friction:  0.5,
	})
	return handle
}

func addSphere(world *moreau.World, position mgl64.Vec3, radius float64) *actor.RigidBody {
	_, rb := world.AddBody(actor.RigidBodyDesc{
		Transform: at(position),
		Shape:     &actor.Sphere{Radius: radius},
		BodyType:  actor.BodyTypeDynamic,
		Density:   1,
		Friction:  0.5,
	})
	return rb
}

func run(world *moreau.World, steps int) {
	GinkgoHelper()
	for range steps {
		Expect(world.Step()).To(Succeed())
	}
}

var _ = Describe("World", func() {
	var world *moreau.World

	BeforeEach(func() {
		world = moreau.NewWorld(gravity, integration.DefaultParameters())
	})

	Describe("contacts", func() {
		It("lets a box fall and rest on the ground", func() {
			addGround(world)
			_, box := world.AddBody(actor.RigidBodyDesc{
				Transform: at(mgl64.Vec3{0, 2, 0}),
				Shape:     &actor.Box{HalfExtents: mgl64.Vec3{0.5, 0.5, 0.5}},
				BodyType:  actor.BodyTypeDynamic,
				Density:   1,
				Friction:  0.5,
			})

			run(world, 180)

			Expect(box.Transform.Position.Y()).To(BeNumerically("~", 0.5, 0.02))
			Expect(box.LinearVelocity().Len()).To(BeNumerically("<", 0.05))
			Expect(world.Manifolds()).To(HaveLen(1))
			Expect(world.Manifolds()[0].Contacts).To(HaveLen(4))
		})

		It("keeps a column of spheres standing", func() {
			addGround(world)
			var top *actor.RigidBody
			for i := range 4 {
				top = addSphere(world, mgl64.Vec3{0, 0.5 + float64(i), 0}, 0.5)
			}

			run(world, 120)

			Expect(top.Transform.Position.Y()).To(BeNumerically("~", 3.5, 0.05))
			Expect(top.Transform.Position.X()).To(BeNumerically("~", 0, 1e-6))
		})

		It("counts the constraint rows of every island", func() {
			addGround(world)
			addSphere(world, mgl64.Vec3{-3, 0.5, 0}, 0.5)
			addSphere(world, mgl64.Vec3{3, 0.5, 0}, 0.5)

			run(world, 1)

			Expect(world.Manifolds()).To(HaveLen(2))
			// a normal row and two friction rows per contact
			Expect(world.Counters.NConstraints).To(Equal(6))
		})

		It("gives the same result whatever the number of workers", func() {
			build := func(workers int) (*moreau.World, []*actor.RigidBody) {
				w := moreau.NewWorld(gravity, integration.DefaultParameters())
				w.Workers = workers
				addGround(w)
				var spheres []*actor.RigidBody
				for i := range 20 {
					x := float64(i%5) * 1.01
					y := 0.5 + float64(i/5)*1.2
					spheres = append(spheres, addSphere(w, mgl64.Vec3{x, y, 0.1 * float64(i%3)}, 0.5))
				}
				return w, spheres
			}

			sequential, expected := build(1)
			parallel, actual := build(4)
			run(sequential, 60)
			run(parallel, 60)

			for i := range expected {
				Expect(actual[i].Transform.Position).To(Equal(expected[i].Transform.Position))
			}
		})
	})

	Describe("joints", func() {
		It("swings a pendulum hanging from the ground", func() {
			bob := addSphere(world, mgl64.Vec3{1, 5, 0}, 0.2)
			pivot := mgl64.Vec3{0, 5, 0}
			frame1, frame2, ok := joint.FramesAt(world.Bodies, actor.GroundHandle(), bob.Handle(), pivot)
			Expect(ok).To(BeTrue())

			ball := joint.NewBallConstraint(actor.GroundPartHandle(), actor.BodyPartHandle{Body: bob.Handle()}, frame1, frame2)
			_, err := world.AddJoint(ball)
			Expect(err).NotTo(HaveOccurred())

			lowest := math.Inf(1)
			for range 60 {
				Expect(world.Step()).To(Succeed())
				Expect(bob.Transform.Position.Sub(pivot).Len()).To(BeNumerically("~", 1, 0.08))
				lowest = math.Min(lowest, bob.Transform.Position.Y())
			}
			Expect(lowest).To(BeNumerically("<", 4.5))
		})

		It("removes the joints of a removed body", func() {
			a := addSphere(world, mgl64.Vec3{0, 5, 0}, 0.2)
			b := addSphere(world, mgl64.Vec3{1, 5, 0}, 0.2)
			frame1, frame2, _ := joint.FramesAt(world.Bodies, a.Handle(), b.Handle(), mgl64.Vec3{0.5, 5, 0})
			_, err := world.AddJoint(joint.NewFixedConstraint(actor.BodyPartHandle{Body: a.Handle()}, actor.BodyPartHandle{Body: b.Handle()}, frame1, frame2))
			Expect(err).NotTo(HaveOccurred())

			Expect(world.RemoveBody(a.Handle())).To(BeTrue())
			Expect(world.Joints.Len()).To(BeZero())
			Expect(world.RemoveBody(a.Handle())).To(BeFalse())

			run(world, 10)
			Expect(b.LinearVelocity().Y()).To(BeNumerically("<", 0))
		})

		It("rejects joints on unknown bodies", func() {
			a := addSphere(world, mgl64.Vec3{0, 5, 0}, 0.2)
			b := addSphere(world, mgl64.Vec3{1, 5, 0}, 0.2)
			frame1, frame2, _ := joint.FramesAt(world.Bodies, a.Handle(), b.Handle(), mgl64.Vec3{0.5, 5, 0})
			world.RemoveBody(b.Handle())

			_, err := world.AddJoint(joint.NewBallConstraint(actor.BodyPartHandle{Body: a.Handle()}, actor.BodyPartHandle{Body: b.Handle()}, frame1, frame2))
			Expect(err).To(MatchError(moreau.ErrUnknownBody))
			_, err = world.AddJoint(nil)
			Expect(err).To(MatchError(joint.ErrInvalidJoint))
		})
	})

	Describe("continuous collision detection", func() {
		It("stops a bullet in front of a thin wall", func() {
			addGround(world)
			world.AddBody(actor.RigidBodyDesc{
				Transform: at(mgl64.Vec3{5, 2, 0}),
				Shape:     &actor.Box{HalfExtents: mgl64.Vec3{0.05, 2, 2}},
				BodyType:  actor.BodyTypeStatic,
			})
			_, bullet := world.AddBody(actor.RigidBodyDesc{
				Transform:      at(mgl64.Vec3{0, 1, 0}),
				Shape:          &actor.Sphere{Radius: 0.1},
				BodyType:       actor.BodyTypeDynamic,
				Density:        7.8,
				LinearVelocity: mgl64.Vec3{300, 0, 0},
				CCDEnabled:     true,
			})

			for range 30 {
				Expect(world.Step()).To(Succeed())
				Expect(bullet.Transform.Position.X()).To(BeNumerically("<=", 4.95))
			}
			Expect(bullet.LinearVelocity().X()).To(BeNumerically("<", 1))
		})
	})

	Describe("events", func() {
		It("reports triggers crossed and collisions started", func() {
			var received []moreau.EventType
			listener := func(event moreau.Event) {
				received = append(received, event.Type())
			}
			for _, eventType := range []moreau.EventType{moreau.TRIGGER_ENTER, moreau.TRIGGER_EXIT, moreau.COLLISION_ENTER} {
				world.Events.Subscribe(eventType, listener)
			}

			ground := addGround(world)
			trigger, _ := world.AddBody(actor.RigidBodyDesc{
				Transform: at(mgl64.Vec3{0, 5, 0}),
				Shape:     &actor.Box{HalfExtents: mgl64.Vec3{1, 0.5, 1}},
				BodyType:  actor.BodyTypeStatic,
				IsTrigger: true,
			})
			ball := addSphere(world, mgl64.Vec3{0, 7, 0}, 0.25)

			var enteredGround bool
			world.Events.Subscribe(moreau.COLLISION_ENTER, func(event moreau.Event) {
				enter := event.(moreau.CollisionEnterEvent)
				enteredGround = enter.BodyA == ground && enter.BodyB == ball.Handle()
			})
			world.Events.Subscribe(moreau.TRIGGER_ENTER, func(event moreau.Event) {
				enter := event.(moreau.TriggerEnterEvent)
				Expect([]actor.BodyHandle{enter.BodyA, enter.BodyB}).To(ConsistOf(trigger, ball.Handle()))
			})

			run(world, 120)

			Expect(received).To(Equal([]moreau.EventType{moreau.TRIGGER_ENTER, moreau.TRIGGER_EXIT, moreau.COLLISION_ENTER}))
			Expect(enteredGround).To(BeTrue())
			Expect(ball.Transform.Position.Y()).To(BeNumerically("~", 0.25, 0.02))
		})
	})

	Describe("motors", func() {
		It("spins a box up to the motor speed", func() {
			addGround(world)
			_, spinner := world.AddBody(actor.RigidBodyDesc{
				Transform: at(mgl64.Vec3{0, 0.25, 0}),
				Shape:     &actor.Box{HalfExtents: mgl64.Vec3{1, 0.25, 0.25}},
				BodyType:  actor.BodyTypeDynamic,
				Density:   1,
				Friction:  0.2,
				Motor:     actor.NewAngularMotor(mgl64.Vec3{0, 1, 0}, 2*math.Pi, 5),
			})

			run(world, 120)

			Expect(spinner.AngularVelocity().Y()).To(BeNumerically("~", 2*math.Pi, 0.5))
			Expect(spinner.Transform.Position.Y()).To(BeNumerically("~", 0.25, 0.02))
		})
	})

	It("refuses to step with an invalid time step", func() {
		world.Parameters.Dt = 0
		Expect(world.Step()).To(MatchError(integration.ErrInvalidTimestep))
	})
})
