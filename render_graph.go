package slime

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// RenderContext carries the per-frame handles graph nodes work against: the
// GPU state plus this frame's swapchain view.
type RenderContext struct {
	Gpu        *GpuState
	View       *wgpu.TextureView
	ClearColor wgpu.Color
}

// Node is one unit of per-frame graph work. Update observes state and may
// transition the node; Run records commands into the frame's encoder. All
// Updates of a frame happen before the first Run.
type Node interface {
	Name() string
	Update(ctx *RenderContext)
	Run(ctx *RenderContext, encoder *wgpu.CommandEncoder) error
}

type graphEdge struct {
	before string
	after  string
}

// RenderGraph owns the frame's nodes and their ordering constraints.
// Without edges, nodes run in insertion order.
type RenderGraph struct {
	nodes []Node
	edges []graphEdge

	order      []Node
	orderDirty bool
}

func (graph *RenderGraph) AddNode(node Node) {
	for _, existing := range graph.nodes {
		if existing.Name() == node.Name() {
			panic(fmt.Sprintf("render graph already has a node named %q", node.Name()))
		}
	}
	graph.nodes = append(graph.nodes, node)
	graph.orderDirty = true
}

// AddNodeEdge constrains the node named before to run ahead of the node
// named after. Both nodes must already be added.
func (graph *RenderGraph) AddNodeEdge(before string, after string) {
	if nil == graph.findNode(before) {
		panic(fmt.Sprintf("render graph has no node named %q", before))
	}
	if nil == graph.findNode(after) {
		panic(fmt.Sprintf("render graph has no node named %q", after))
	}
	graph.edges = append(graph.edges, graphEdge{before: before, after: after})
	graph.orderDirty = true
}

func (graph *RenderGraph) findNode(name string) Node {
	for _, node := range graph.nodes {
		if node.Name() == name {
			return node
		}
	}
	return nil
}

// runOrder resolves edges into a stable topological order: among nodes whose
// constraints are satisfied, insertion order wins.
func (graph *RenderGraph) runOrder() []Node {
	if !graph.orderDirty {
		return graph.order
	}

	blockers := make(map[string]int, len(graph.nodes))
	for _, node := range graph.nodes {
		blockers[node.Name()] = 0
	}
	for _, edge := range graph.edges {
		blockers[edge.after] += 1
	}

	remaining := append([]Node(nil), graph.nodes...)
	order := make([]Node, 0, len(graph.nodes))

	for len(remaining) > 0 {
		picked := -1
		for i, node := range remaining {
			if 0 == blockers[node.Name()] {
				picked = i
				break
			}
		}
		if -1 == picked {
			panic("render graph has a cycle")
		}

		node := remaining[picked]
		remaining = append(remaining[:picked], remaining[picked+1:]...)
		order = append(order, node)

		for _, edge := range graph.edges {
			if edge.before == node.Name() {
				blockers[edge.after] -= 1
			}
		}
	}

	graph.order = order
	graph.orderDirty = false
	return graph.order
}

type RenderGraphModule struct{}

func (RenderGraphModule) Install(app *App, cmd *Commands) {
	graph := &RenderGraph{}
	graph.AddNode(cameraDriverNode{})

	cmd.AddResources(graph)

	app.UseSystem(
		System(renderGraphSystem).
			InStage(Render).
			RunAlways(),
	)
}

// renderGraphSystem drives one frame: acquire the surface, update every
// node, record every node, submit and present.
func renderGraphSystem(cmd *Commands, graph *RenderGraph, gpuState *GpuState) {
	clearColor := defaultClearColor
	MakeQuery1[Camera2D](cmd).Map(func(_ EntityId, camera *Camera2D) bool {
		clearColor = camera.ClearColor
		return false
	})

	nextTexture, err := gpuState.surface.GetCurrentTexture()
	if err != nil {
		panic(err)
	}

	view, err := nextTexture.CreateView(nil)
	if err != nil {
		panic(err)
	}
	defer view.Release()

	encoder, err := gpuState.device.CreateCommandEncoder(nil)
	if err != nil {
		panic(err)
	}
	defer encoder.Release()

	ctx := &RenderContext{
		Gpu:        gpuState,
		View:       view,
		ClearColor: clearColor,
	}

	order := graph.runOrder()
	for _, node := range order {
		node.Update(ctx)
	}
	for _, node := range order {
		if err := node.Run(ctx, encoder); nil != err {
			panic(err)
		}
	}

	cmdBuffer, err := encoder.Finish(nil)
	if err != nil {
		panic(err)
	}
	defer cmdBuffer.Release()

	gpuState.queue.Submit(cmdBuffer)
	gpuState.surface.Present()
}

const CameraDriverNodeName = "camera_driver"

// cameraDriverNode clears the swapchain with the active camera's color. It
// is the terminal presentation node; compute nodes order themselves before
// it.
type cameraDriverNode struct{}

func (cameraDriverNode) Name() string { return CameraDriverNodeName }

func (cameraDriverNode) Update(ctx *RenderContext) {}

func (cameraDriverNode) Run(ctx *RenderContext, encoder *wgpu.CommandEncoder) error {
	renderPass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       ctx.View,
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: ctx.ClearColor,
			},
		},
	})
	defer renderPass.Release()

	return renderPass.End()
}
