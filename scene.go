package slime

import (
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

type TransformComponent struct {
	Position mgl32.Vec3
	Scale    mgl32.Vec3
	Rotation mgl32.Quat
}

// Camera2D picks the clear color for the frame and carries a pixel-space
// orthographic projection kept current by the camera system.
type Camera2D struct {
	ClearColor wgpu.Color
	Projection mgl32.Mat4
}

var defaultClearColor = wgpu.Color{R: 0.1, G: 0.2, B: 0.3, A: 1.0}

// SpawnCamera2D spawns an entity with a default 2d camera at the origin.
func SpawnCamera2D(cmd *Commands) EntityId {
	return cmd.AddEntity(
		&TransformComponent{
			Position: mgl32.Vec3{0, 0, 0},
			Scale:    mgl32.Vec3{1, 1, 1},
			Rotation: mgl32.QuatIdent(),
		},
		&Camera2D{
			ClearColor: defaultClearColor,
			Projection: mgl32.Ident4(),
		},
	)
}

type CameraModule struct{}

func (CameraModule) Install(app *App, cmd *Commands) {
	app.UseSystem(
		System(camera2dSystem).
			InStage(PostUpdate).
			RunAlways(),
	)
}

// camera2dSystem recomputes each camera's projection from the current window
// size, with the camera's position as the view offset. Origin is the top
// left corner, y grows downward.
func camera2dSystem(cmd *Commands, s *WindowState) {
	width := float32(s.WindowWidth)
	height := float32(s.WindowHeight)

	MakeQuery2[Camera2D, TransformComponent](cmd).Map(func(_ EntityId, camera *Camera2D, transform *TransformComponent) bool {
		projection := mgl32.Ortho2D(0, width, height, 0)
		view := mgl32.Translate3D(-transform.Position.X(), -transform.Position.Y(), 0)
		camera.Projection = projection.Mul4(view)
		return true
	})
}
