package slime

import (
	"fmt"
	"reflect"
	"runtime"
)

type systemFn any

// Module installs a cohesive set of resources and systems into an App.
// Modules are installed in the order given to UseModules, so a module may
// rely on resources added by the modules listed before it.
type Module interface {
	Install(app *App, cmd *Commands)
}

type App struct {
	quitting bool
	modules  []Module
	stages   []Stage

	// systems run every frame, startupSystems only on the first one.
	systems        map[string][]systemFn
	startupSystems map[string][]systemFn

	resources map[reflect.Type]any
	ecs       *Ecs

	// Command Buffering
	pendingAdditions    []pendingAdd
	pendingRemovals     []EntityId
	pendingCompAdds     []pendingCompAdd
	pendingCompRemovals []pendingCompRemoval
}

type pendingAdd struct {
	eid        EntityId
	components []any
}

type pendingCompAdd struct {
	eid        EntityId
	components []any
}

type pendingCompRemoval struct {
	eid        EntityId
	components []any
}

func NewApp() *App {
	ecs := MakeEcs()
	app := &App{
		systems:        make(map[string][]systemFn),
		startupSystems: make(map[string][]systemFn),
		resources:      make(map[reflect.Type]any),
		ecs:            &ecs,
	}
	for _, stage := range defaultStages {
		app.initStage(stage)
	}
	return app
}

// UseModules installs modules immediately, in order. Resources a module adds
// through its Commands are visible to every module installed after it.
func (app *App) UseModules(modules ...Module) *App {
	cmd := app.Commands()
	for _, module := range modules {
		app.modules = append(app.modules, module)
		module.Install(app, cmd)
	}
	app.FlushCommands()
	return app
}

func (app *App) InsertResource(resource any) *App {
	return app.addResources(resource)
}

func (app *App) Commands() *Commands {
	return &Commands{
		app: app,
	}
}

// Run drives the frame loop until some system calls Commands.Quit. Startup
// systems run during the first frame, interleaved stage by stage with the
// regular ones so a later stage already sees what startup produced.
func (app *App) Run() {
	app.runFrame(true)

	for !app.quitting {
		app.runFrame(false)
	}
}

func (app *App) Quit() {
	app.quitting = true
}

func (app *App) runFrame(first bool) {
	for _, stage := range app.stages {
		if first {
			for _, system := range app.startupSystems[stage.Name] {
				app.callSystem(system)
			}
		}
		for _, system := range app.systems[stage.Name] {
			app.callSystem(system)
		}
		app.FlushCommands()
	}
}

func (app *App) addResources(resources ...any) *App {
	for _, resource := range resources {
		resourceType := reflect.TypeOf(resource)
		if _, ok := app.resources[resourceType.Elem()]; ok {
			panic(fmt.Sprintf("%s is already in resources", resourceType))
		}

		app.resources[resourceType.Elem()] = resource
	}
	return app
}

func (app *App) callSystem(system systemFn) {
	// start := time.Now()

	app.callSystemInternal(system)

	// fmt.Println(
	// 	"system ",
	// 	runtime.FuncForPC(reflect.ValueOf(system).Pointer()).Name(),
	// 	": ",
	// 	time.Since(start).Milliseconds(),
	// 	"ms",
	// )
}

var typeOfCommands = reflect.TypeOf(Commands{})

func (app *App) callSystemInternal(system systemFn) {
	systemType := reflect.TypeOf(system)
	systemValue := reflect.ValueOf(system)

	args := make([]reflect.Value, systemType.NumIn())

	for i := 0; i < systemType.NumIn(); i++ {
		argType := systemType.In(i)
		underlyingType := argType.Elem()

		if underlyingType == typeOfCommands {
			args[i] = reflect.ValueOf(&Commands{app: app})
		} else if resource, argIsResource := app.resources[underlyingType]; argIsResource {
			resourceVal := reflect.ValueOf(resource)
			typedResourceVal := reflect.NewAt(underlyingType, resourceVal.UnsafePointer())

			args[i] = typedResourceVal
		} else {
			msg := fmt.Sprintf("Unable to resolve System dependency.\nSystem: %s\nSystem type: %s\nDependency: %s",
				runtime.FuncForPC(systemValue.Pointer()).Name(),
				fmt.Sprint(systemType),
				fmt.Sprint(argType),
			)
			println(msg)
			panic(msg)
		}
	}
	systemValue.Call(args)
}

func (app *App) FlushCommands() {
	if len(app.pendingAdditions) == 0 && len(app.pendingRemovals) == 0 &&
		len(app.pendingCompAdds) == 0 && len(app.pendingCompRemovals) == 0 {
		return
	}

	// 1. Process Removals first (so we don't add to dead entities)
	for _, eid := range app.pendingRemovals {
		app.ecs.removeEntity(eid)
	}
	app.pendingRemovals = app.pendingRemovals[:0]

	// 2. Process Additions
	for _, add := range app.pendingAdditions {
		app.ecs.insertEntity(add.eid, add.components...)
	}
	app.pendingAdditions = app.pendingAdditions[:0]

	// 3. Process Component Additions
	for _, add := range app.pendingCompAdds {
		app.ecs.addComponents(add.eid, add.components...)
	}
	app.pendingCompAdds = app.pendingCompAdds[:0]

	// 4. Process Component Removals
	for _, removal := range app.pendingCompRemovals {
		app.ecs.removeComponents(removal.eid, removal.components...)
	}
	app.pendingCompRemovals = app.pendingCompRemovals[:0]
}
