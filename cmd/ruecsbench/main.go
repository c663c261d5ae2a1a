// Command ruecsbench churns entities through a World, wrapping the whole
// workload in a CPU or memory profiler.
package main

import (
	"flag"
	"fmt"
	"math/rand/v2"

	"github.com/pkg/profile"

	"github.com/archtable/ruecs"
)

type Position struct{ X, Y float64 }
type Velocity struct{ X, Y float64 }
type Name struct{ S string }

func main() {
	mode := flag.String("mode", "cpu", "profile mode: cpu or mem")
	entities := flag.Int("entities", 100_000, "entities to spawn")
	flag.Parse()

	switch *mode {
	case "mem":
		defer profile.Start(profile.MemProfile).Stop()
	default:
		defer profile.Start(profile.CPUProfile).Stop()
	}

	w := ruecs.NewWorld()
	defer w.Destroy()

	handles := make([]ruecs.EntityId, 0, *entities)

	for i := 0; i < *entities; i++ {
		e := w.CreateEntity()
		ruecs.AddComponent(w, e, Position{X: rand.Float64(), Y: rand.Float64()})
		ruecs.AddComponent(w, e, Velocity{X: rand.Float64(), Y: rand.Float64()})

		if i%3 == 0 {
			ruecs.AddComponent(w, e, Name{S: "entity"})
		}

		handles = append(handles, e)
	}

	query := w.NewQuery().With(ruecs.TypeOf[Position](), ruecs.TypeOf[Velocity]())
	cursor := query.Cursor()

	const steps = 64
	for step := 0; step < steps; step++ {
		cursor.Start()
		for {
			entity, ok := cursor.Next()
			if !ok {
				break
			}

			pos, _ := ruecs.EntityGet[Position](entity)
			vel, _ := ruecs.EntityGet[Velocity](entity)
			pos.X += vel.X
			pos.Y += vel.Y
		}
	}

	cb := w.NewCommandBuffer()
	for i, e := range handles {
		if i%5 == 0 {
			ruecs.CommandRemoveComponent[Velocity](cb, e)
		}
	}
	cb.Run()

	remaining := 0
	withVel := w.NewQuery().With(ruecs.TypeOf[Velocity]()).Cursor()
	withVel.Start()
	for {
		_, ok := withVel.Next()
		if !ok {
			break
		}
		remaining++
	}

	fmt.Printf("spawned %d entities, %d steps, %d still carry Velocity\n", *entities, steps, remaining)
}
