// Package scene builds the demonstration worlds run by the moreau command.
package scene

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/akmonengine/moreau"
	"github.com/akmonengine/moreau/actor"
	"github.com/akmonengine/moreau/config"
	"github.com/akmonengine/moreau/joint"
	"github.com/go-gl/mathgl/mgl64"
)

var ErrUnknownScene = errors.New("scene: unknown scene")

// Scene is a populated world with the body whose trajectory is reported.
type Scene struct {
	Name    string
	World   *moreau.World
	Tracked actor.BodyHandle
}

type definition struct {
	description string
	build       func(world *moreau.World) (actor.BodyHandle, error)
}

var scenes = map[string]definition{
	"box":     {"a tilted box dropped on the ground", buildBox},
	"stack":   {"a column of spheres resting on the ground", buildStack},
	"chain":   {"spheres linked by ball joints, swinging from a fixed point", buildChain},
	"bullet":  {"a fast CCD sphere shot at a thin wall", buildBullet},
	"spinner": {"a box spun up by its angular motor", buildSpinner},
	"tower":   {"boxes stacked on a static slab", buildTower},
}

// Names returns the scene names, sorted.
func Names() []string {
	names := make([]string, 0, len(scenes))
	for name := range scenes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func Description(name string) string {
	return scenes[name].description
}

// NewWorld returns an empty world configured by cfg.
func NewWorld(cfg *config.Config) (*moreau.World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	materials, err := cfg.Materials()
	if err != nil {
		return nil, err
	}

	world := moreau.NewWorld(cfg.Gravity(), cfg.Parameters())
	world.Solver().SetContactModel(cfg.ContactModel())
	world.Materials = materials
	world.SpatialGrid = moreau.NewSpatialGrid(cfg.World.CellSize, cfg.World.Cells)
	world.Workers = max(moreau.DEFAULT_WORKERS, cfg.World.Workers)
	world.Prediction = cfg.World.Prediction

	return world, nil
}

// Build creates the world of cfg.Run.Scene.
func Build(cfg *config.Config) (*Scene, error) {
	definition, ok := scenes[cfg.Run.Scene]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScene, cfg.Run.Scene)
	}

	world, err := NewWorld(cfg)
	if err != nil {
		return nil, err
	}
	tracked, err := definition.build(world)
	if err != nil {
		return nil, fmt.Errorf("scene %s: %w", cfg.Run.Scene, err)
	}

	return &Scene{Name: cfg.Run.Scene, World: world, Tracked: tracked}, nil
}

func at(position mgl64.Vec3) actor.Transform {
	return actor.Transform{Position: position, Rotation: mgl64.QuatIdent()}
}

func addGround(world *moreau.World) {
	world.AddBody(actor.RigidBodyDesc{
		Transform: at(mgl64.Vec3{}),
		Shape:     &actor.Plane{Normal: mgl64.Vec3{0, 1, 0}},
		BodyType:  actor.BodyTypeStatic,
		Friction:  0.6,
	})
}

func buildBox(world *moreau.World) (actor.BodyHandle, error) {
	addGround(world)

	handle, _ := world.AddBody(actor.RigidBodyDesc{
		Transform: actor.Transform{
			Position: mgl64.Vec3{0, 3, 0},
			Rotation: mgl64.QuatRotate(0.4, mgl64.Vec3{0, 0, 1}),
		},
		Shape:       &actor.Box{HalfExtents: mgl64.Vec3{0.5, 0.5, 0.5}},
		BodyType:    actor.BodyTypeDynamic,
		Density:     1,
		Friction:    0.6,
		Restitution: 0.3,
	})
	return handle, nil
}

func buildStack(world *moreau.World) (actor.BodyHandle, error) {
	const height = 6
	addGround(world)

	var top actor.BodyHandle
	for i := range height {
		top, _ = world.AddBody(actor.RigidBodyDesc{
			Transform: at(mgl64.Vec3{0, 0.5 + float64(i), 0}),
			Shape:     &actor.Sphere{Radius: 0.5},
			BodyType:  actor.BodyTypeDynamic,
			Density:   1,
			Friction:  0.6,
		})
	}
	return top, nil
}

func buildChain(world *moreau.World) (actor.BodyHandle, error) {
	const links = 6
	const spacing = 0.6
	addGround(world)

	anchor := mgl64.Vec3{0, 6, 0}
	previous := actor.GroundHandle()
	for i := range links {
		handle, _ := world.AddBody(actor.RigidBodyDesc{
			Transform: at(anchor.Add(mgl64.Vec3{spacing * float64(i+1), 0, 0})),
			Shape:     &actor.Sphere{Radius: 0.2},
			BodyType:  actor.BodyTypeDynamic,
			Density:   1,
		})

		pivot := anchor.Add(mgl64.Vec3{spacing * float64(i), 0, 0})
		frame1, frame2, ok := joint.FramesAt(world.Bodies, previous, handle, pivot)
		if !ok {
			return actor.BodyHandle{}, moreau.ErrUnknownBody
		}
		link := joint.NewBallConstraint(actor.BodyPartHandle{Body: previous}, actor.BodyPartHandle{Body: handle}, frame1, frame2)
		if _, err := world.AddJoint(link); err != nil {
			return actor.BodyHandle{}, err
		}
		previous = handle
	}
	return previous, nil
}

func buildBullet(world *moreau.World) (actor.BodyHandle, error) {
	addGround(world)

	world.AddBody(actor.RigidBodyDesc{
		Transform: at(mgl64.Vec3{5, 2, 0}),
		Shape:     &actor.Box{HalfExtents: mgl64.Vec3{0.05, 2, 2}},
		BodyType:  actor.BodyTypeStatic,
		Friction:  0.3,
	})
	handle, _ := world.AddBody(actor.RigidBodyDesc{
		Transform:      at(mgl64.Vec3{0, 1, 0}),
		Shape:          &actor.Sphere{Radius: 0.1},
		BodyType:       actor.BodyTypeDynamic,
		Density:        7.8,
		Friction:       0.3,
		LinearVelocity: mgl64.Vec3{300, 0, 0},
		CCDEnabled:     true,
	})
	return handle, nil
}

func buildSpinner(world *moreau.World) (actor.BodyHandle, error) {
	addGround(world)

	handle, _ := world.AddBody(actor.RigidBodyDesc{
		Transform: at(mgl64.Vec3{0, 0.25, 0}),
		Shape:     &actor.Box{HalfExtents: mgl64.Vec3{1, 0.25, 0.25}},
		BodyType:  actor.BodyTypeDynamic,
		Density:   1,
		Friction:  0.2,
		Motor:     actor.NewAngularMotor(mgl64.Vec3{0, 1, 0}, 2*math.Pi, 5),
	})
	return handle, nil
}

func buildTower(world *moreau.World) (actor.BodyHandle, error) {
	const height = 4
	addGround(world)

	world.AddBody(actor.RigidBodyDesc{
		Transform: at(mgl64.Vec3{0, 0.25, 0}),
		Shape:     &actor.Box{HalfExtents: mgl64.Vec3{2, 0.25, 2}},
		BodyType:  actor.BodyTypeStatic,
		Friction:  0.6,
	})

	var top actor.BodyHandle
	for i := range height {
		top, _ = world.AddBody(actor.RigidBodyDesc{
			Transform: actor.Transform{
				Position: mgl64.Vec3{0, 1 + float64(i), 0},
				Rotation: mgl64.QuatRotate(0.2*float64(i), mgl64.Vec3{0, 1, 0}),
			},
			Shape:    &actor.Box{HalfExtents: mgl64.Vec3{0.5, 0.5, 0.5}},
			BodyType: actor.BodyTypeDynamic,
			Density:  1,
			Friction: 0.6,
		})
	}
	return top, nil
}
