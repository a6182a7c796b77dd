package slime

import (
	"github.com/go-gl/glfw/v3.3/glfw"
)

const (
	KeySpace int = iota
	KeyEnter
	KeyEscape
	KeyRight
	KeyLeft
	KeyDown
	KeyUp
	keyCount
)

type InputModule struct{}

type Input struct {
	Pressed      [keyCount]bool
	JustPressed  [keyCount]bool
	JustReleased [keyCount]bool
}

func (mod InputModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(&Input{})
	app.UseSystem(
		System(inputSystem).
			InStage(PreUpdate).
			RunAlways(),
	)
}

// inputSystem samples key states after the window system has pumped events.
func inputSystem(s *WindowState, input *Input) {
	for key, glfwKey := range keyToGlfw {
		action := s.windowGlfw.GetKey(glfwKey)

		input.JustPressed[key] = false
		input.JustReleased[key] = false

		if glfw.Press == action {
			if !input.Pressed[key] {
				input.JustPressed[key] = true
			}
			input.Pressed[key] = true
		} else if glfw.Release == action {
			if input.Pressed[key] {
				input.JustReleased[key] = true
			}
			input.Pressed[key] = false
		}
	}
}

// CloseOnEscape is a convenience system apps can schedule to quit on Escape.
func CloseOnEscape(cmd *Commands, input *Input) {
	if input.JustPressed[KeyEscape] {
		cmd.Quit()
	}
}

var keyToGlfw = map[int]glfw.Key{
	KeySpace:  glfw.KeySpace,
	KeyEnter:  glfw.KeyEnter,
	KeyEscape: glfw.KeyEscape,
	KeyRight:  glfw.KeyRight,
	KeyLeft:   glfw.KeyLeft,
	KeyDown:   glfw.KeyDown,
	KeyUp:     glfw.KeyUp,
}
