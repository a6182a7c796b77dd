package slime

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/require"
)

// recordingNode logs its Update and Run calls; the encoder is unused so the
// graph can be driven without a GPU.
type recordingNode struct {
	name string
	log  *[]string
}

func (n *recordingNode) Name() string { return n.name }

func (n *recordingNode) Update(ctx *RenderContext) {
	*n.log = append(*n.log, n.name+":update")
}

func (n *recordingNode) Run(ctx *RenderContext, encoder *wgpu.CommandEncoder) error {
	*n.log = append(*n.log, n.name+":run")
	return nil
}

func nodeNames(nodes []Node) []string {
	names := make([]string, 0, len(nodes))
	for _, node := range nodes {
		names = append(names, node.Name())
	}
	return names
}

func TestRenderGraph_RunOrderIsInsertionOrder(t *testing.T) {
	var log []string
	graph := &RenderGraph{}
	graph.AddNode(&recordingNode{name: "a", log: &log})
	graph.AddNode(&recordingNode{name: "b", log: &log})
	graph.AddNode(&recordingNode{name: "c", log: &log})

	require.Equal(t, []string{"a", "b", "c"}, nodeNames(graph.runOrder()))
}

func TestRenderGraph_EdgeReordersNodes(t *testing.T) {
	var log []string
	graph := &RenderGraph{}
	graph.AddNode(&recordingNode{name: "a", log: &log})
	graph.AddNode(&recordingNode{name: "b", log: &log})
	graph.AddNode(&recordingNode{name: "c", log: &log})
	graph.AddNodeEdge("c", "a")

	// a is blocked until c has run; insertion order breaks the ties
	require.Equal(t, []string{"b", "c", "a"}, nodeNames(graph.runOrder()))
}

func TestRenderGraph_ComputeBeforeCameraDriver(t *testing.T) {
	var log []string
	graph := &RenderGraph{}
	graph.AddNode(cameraDriverNode{})
	graph.AddNode(&recordingNode{name: "compute", log: &log})
	graph.AddNodeEdge("compute", CameraDriverNodeName)

	require.Equal(t, []string{"compute", CameraDriverNodeName}, nodeNames(graph.runOrder()))
}

func TestRenderGraph_DuplicateNamePanics(t *testing.T) {
	var log []string
	graph := &RenderGraph{}
	graph.AddNode(&recordingNode{name: "a", log: &log})

	require.Panics(t, func() {
		graph.AddNode(&recordingNode{name: "a", log: &log})
	})
}

func TestRenderGraph_EdgeUnknownNodePanics(t *testing.T) {
	var log []string
	graph := &RenderGraph{}
	graph.AddNode(&recordingNode{name: "a", log: &log})

	require.Panics(t, func() {
		graph.AddNodeEdge("a", "ghost")
	})
	require.Panics(t, func() {
		graph.AddNodeEdge("ghost", "a")
	})
}

func TestRenderGraph_CyclePanics(t *testing.T) {
	var log []string
	graph := &RenderGraph{}
	graph.AddNode(&recordingNode{name: "a", log: &log})
	graph.AddNode(&recordingNode{name: "b", log: &log})
	graph.AddNodeEdge("a", "b")
	graph.AddNodeEdge("b", "a")

	require.Panics(t, func() {
		graph.runOrder()
	})
}

func TestRenderGraph_AllUpdatesBeforeAnyRun(t *testing.T) {
	var log []string
	graph := &RenderGraph{}
	graph.AddNode(&recordingNode{name: "a", log: &log})
	graph.AddNode(&recordingNode{name: "b", log: &log})

	// Same sequencing the render system applies each frame
	order := graph.runOrder()
	for _, node := range order {
		node.Update(nil)
	}
	for _, node := range order {
		require.NoError(t, node.Run(nil, nil))
	}

	require.Equal(t, []string{"a:update", "b:update", "a:run", "b:run"}, log)
}

func TestRenderGraph_OrderRecomputedAfterNewNode(t *testing.T) {
	var log []string
	graph := &RenderGraph{}
	graph.AddNode(&recordingNode{name: "a", log: &log})
	require.Equal(t, []string{"a"}, nodeNames(graph.runOrder()))

	graph.AddNode(&recordingNode{name: "b", log: &log})
	graph.AddNodeEdge("b", "a")
	require.Equal(t, []string{"b", "a"}, nodeNames(graph.runOrder()))
}
