package slime

import (
	"fmt"
	"slices"
)

type Stage struct {
	Name string
}

// Frame stages, in run order. Extract through Render mirror the render-world
// phases: copy out of the simulation, prepare GPU resources, queue bind
// groups, then record and submit.
var (
	Prelude    = Stage{Name: "Prelude"}
	PreUpdate  = Stage{Name: "PreUpdate"}
	Update     = Stage{Name: "Update"}
	PostUpdate = Stage{Name: "PostUpdate"}
	Extract    = Stage{Name: "Extract"}
	Prepare    = Stage{Name: "Prepare"}
	Queue      = Stage{Name: "Queue"}
	Render     = Stage{Name: "Render"}
	Finale     = Stage{Name: "Finale"}
)

var defaultStages = []Stage{Prelude, PreUpdate, Update, PostUpdate, Extract, Prepare, Queue, Render, Finale}

type systemScheduleBuilder struct {
	inStage Stage
	once    bool
	system  systemFn
}

func System(system systemFn) systemScheduleBuilder {
	return systemScheduleBuilder{
		system:  system,
		inStage: Update,
		once:    false,
	}
}

func (sched systemScheduleBuilder) InStage(s Stage) systemScheduleBuilder {
	return systemScheduleBuilder{
		system:  sched.system,
		inStage: s,
		once:    sched.once,
	}
}

func (sched systemScheduleBuilder) RunAlways() systemScheduleBuilder {
	return systemScheduleBuilder{
		system:  sched.system,
		inStage: sched.inStage,
		once:    false,
	}
}

// RunOnce schedules the system for the first frame only. Startup work like
// loading assets or spawning entities goes here.
func (sched systemScheduleBuilder) RunOnce() systemScheduleBuilder {
	return systemScheduleBuilder{
		system:  sched.system,
		inStage: sched.inStage,
		once:    true,
	}
}

type stagePosition int

const (
	stageBefore stagePosition = iota
	stageAfter
)

type stagePositionBuilder struct {
	position stagePosition
	target   Stage
}

func BeforeStage(s Stage) stagePositionBuilder {
	return stagePositionBuilder{
		position: stageBefore,
		target:   s,
	}
}

func AfterStage(s Stage) stagePositionBuilder {
	return stagePositionBuilder{
		position: stageAfter,
		target:   s,
	}
}

func (app *App) UseStage(stage Stage, where stagePositionBuilder) *App {
	var stageIdx int = -1
	for i, s := range app.stages {
		if s.Name == where.target.Name {
			stageIdx = i
			break
		}
	}
	if -1 == stageIdx {
		panic(fmt.Sprintf("Stage %v not found", where.target.Name))
	}

	var insertAt int
	if stageBefore == where.position {
		insertAt = stageIdx
	} else {
		insertAt = stageIdx + 1
	}

	app.stages = slices.Insert(app.stages, insertAt, stage)
	app.systems[stage.Name] = make([]systemFn, 0)
	app.startupSystems[stage.Name] = make([]systemFn, 0)

	return app
}

func (app *App) UseSystem(system systemScheduleBuilder) *App {
	if _, ok := app.systems[system.inStage.Name]; !ok {
		panic(fmt.Sprintf("Stage %v doesn't exist", system.inStage.Name))
	}

	if system.once {
		app.startupSystems[system.inStage.Name] = append(app.startupSystems[system.inStage.Name], system.system)
	} else {
		app.systems[system.inStage.Name] = append(app.systems[system.inStage.Name], system.system)
	}
	return app
}

func (app *App) initStage(stage Stage) {
	app.stages = append(app.stages, stage)
	app.systems[stage.Name] = make([]systemFn, 0)
	app.startupSystems[stage.Name] = make([]systemFn, 0)
}
