package slime

import (
	"github.com/go-gl/glfw/v3.3/glfw"
)

const (
	defaultWindowWidth  = 1280
	defaultWindowHeight = 720
	defaultWindowTitle  = "Slime"
)

// ClientModule opens the OS window and brings up the GPU. Window and GPU
// state plus the pipeline cache become resources; later modules rely on all
// three being present.
type ClientModule struct {
	WindowWidth  int
	WindowHeight int
	WindowTitle  string
}

func (mod ClientModule) Install(app *App, cmd *Commands) {
	width := mod.WindowWidth
	if width <= 0 {
		width = defaultWindowWidth
	}
	height := mod.WindowHeight
	if height <= 0 {
		height = defaultWindowHeight
	}
	title := mod.WindowTitle
	if "" == title {
		title = defaultWindowTitle
	}

	windowState := createWindowState(width, height, title)
	gpuState := createGpuState(windowState)

	cmd.AddResources(
		windowState,
		gpuState,
		newPipelineCache(gpuState.device),
	)

	app.UseSystem(
		System(windowSystem).
			InStage(Prelude).
			RunAlways(),
	)
}

func windowSystem(cmd *Commands, s *WindowState, gpuState *GpuState) {
	glfw.PollEvents()

	if s.windowGlfw.ShouldClose() {
		cmd.Quit()
		return
	}

	width, height := s.windowGlfw.GetSize()
	if (width != s.WindowWidth || height != s.WindowHeight) && width > 0 && height > 0 {
		s.WindowWidth = width
		s.WindowHeight = height
		reconfigureSurface(gpuState, uint32(width), uint32(height))
	}
}
