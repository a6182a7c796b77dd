package slime

import (
	"time"

	"github.com/cogentcore/webgpu/wgpu"
)

const SlimeNodeName = "slime_simulation"

const defaultSlimeShaderPath = "shaders/simple.wgsl"

// SlimeHandle points the render side at the active simulation record.
// Re-pointing it to another asset makes the next frame pick that one up.
type SlimeHandle struct {
	Asset AssetId
}

// GpuSlime is the device-resident copy of one Slime record.
type GpuSlime struct {
	buffer *wgpu.Buffer
}

type SlimeSettings struct {
	AssetPath  string
	ShaderPath string
}

// slimeRenderState is the render half of the simulation: what was extracted
// this frame, which records already live on the GPU, and the binding built
// from them.
type slimeRenderState struct {
	extracted AssetId
	prepared  map[AssetId]*GpuSlime

	layout         *wgpu.BindGroupLayout
	pipelineLayout *wgpu.PipelineLayout
	pipelineId     CachedComputePipelineId

	bindGroup   *wgpu.BindGroup
	boundBuffer *wgpu.Buffer

	sinceWarn time.Duration
	log       Logger
}

// SlimeModule runs the GPU simulation: it loads the record, mirrors it into
// a storage buffer and dispatches the update kernel once its pipeline has
// compiled. Requires ClientModule, AssetServerModule, TimeModule and
// RenderGraphModule.
type SlimeModule struct {
	// AssetPath names a .slime file to load at startup. When empty a
	// zero-valued record is used instead.
	AssetPath string
	// ShaderPath overrides the default compute shader location.
	ShaderPath string
}

func (mod SlimeModule) Install(app *App, cmd *Commands) {
	shaderPath := mod.ShaderPath
	if "" == shaderPath {
		shaderPath = defaultSlimeShaderPath
	}

	cmd.AddResources(
		&SlimeSettings{
			AssetPath:  mod.AssetPath,
			ShaderPath: shaderPath,
		},
		&slimeRenderState{
			prepared: make(map[AssetId]*GpuSlime),
			log:      app.Logger(),
		},
	)

	app.UseSystem(System(slimeSetup).InStage(Prelude).RunOnce())
	app.UseSystem(System(extractSlimeHandle).InStage(Extract).RunAlways())
	app.UseSystem(System(prepareSlimeBuffers).InStage(Prepare).RunAlways())
	app.UseSystem(System(queueSlimeBindGroup).InStage(Queue).RunAlways())
}

// slimeSetup loads the startup record, queues the compute pipeline and hangs
// the simulation node into the render graph.
func slimeSetup(
	cmd *Commands,
	settings *SlimeSettings,
	server *AssetServer,
	gpuState *GpuState,
	cache *PipelineCache,
	graph *RenderGraph,
	state *slimeRenderState,
) {
	server.RegisterLoader(SlimeExtension, loadSlimeAsset)

	var id AssetId
	if settings.AssetPath != "" {
		loaded, err := server.Load(settings.AssetPath)
		if err != nil {
			panic(err)
		}
		id = loaded
		state.log.Infof("loaded slime %s from %s", id, settings.AssetPath)
	} else {
		id = server.CreateSlime(Slime{})
	}
	cmd.AddResources(&SlimeHandle{Asset: id})

	shaderId, err := server.LoadShader(settings.ShaderPath)
	if err != nil {
		panic(err)
	}
	shader, _ := server.Shader(shaderId)

	layout, err := gpuState.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "slime_bind_group_layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageCompute,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeStorage,
					MinBindingSize: slimeByteSize,
				},
			},
		},
	})
	if err != nil {
		panic(err)
	}
	state.layout = layout

	pipelineLayout, err := gpuState.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "slime_pipeline_layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{layout},
	})
	if err != nil {
		panic(err)
	}
	state.pipelineLayout = pipelineLayout

	state.pipelineId = cache.QueueComputePipeline(ComputePipelineDescriptor{
		Label:      "slime_compute",
		Layout:     pipelineLayout,
		Shader:     shaderId,
		Source:     shader.listing,
		EntryPoint: "update",
	})

	graph.AddNode(newSlimeNode(state, cache))
	graph.AddNodeEdge(SlimeNodeName, CameraDriverNodeName)
}

func loadSlimeAsset(server AssetServer, data []byte) (AssetId, error) {
	record, err := DecodeSlime(data)
	if err != nil {
		return "", err
	}
	return server.CreateSlime(record), nil
}

// extractSlimeHandle copies the active asset id to the render state. The
// copy decouples the rest of the frame from handle edits: whatever the
// handle pointed at here is what gets prepared and bound.
func extractSlimeHandle(handle *SlimeHandle, state *slimeRenderState) {
	state.extracted = handle.Asset
}

// prepareSlimeBuffers uploads the extracted record once. The buffer is
// allocated empty at the record's stride, then the bytes are written through
// the queue.
func prepareSlimeBuffers(server *AssetServer, gpuState *GpuState, state *slimeRenderState) {
	if "" == state.extracted {
		return
	}
	if _, done := state.prepared[state.extracted]; done {
		return
	}

	record, ok := server.Slime(state.extracted)
	if !ok {
		// Record not decoded yet, retry next frame.
		return
	}

	buffer := createBuffer("slime", slimeByteSize, wgpu.BufferUsageStorage|wgpu.BufferUsageCopyDst, gpuState)
	writeBuffer(gpuState, buffer, record)

	state.prepared[state.extracted] = &GpuSlime{buffer: buffer}
	state.log.Debugf("prepared GPU buffer for slime %s", state.extracted)
}

// queueSlimeBindGroup keeps the bind group pointing at the extracted
// record's buffer. While that buffer does not exist yet the frame is simply
// skipped; the node then records an empty pass.
func queueSlimeBindGroup(gpuState *GpuState, timeResource *Time, state *slimeRenderState) {
	if "" == state.extracted {
		return
	}

	prepared, ok := state.prepared[state.extracted]
	if !ok {
		state.sinceWarn += timeResource.Dt
		if state.sinceWarn >= time.Second {
			state.log.Warnf("slime %s has no GPU buffer yet, skipping bind group", state.extracted)
			state.sinceWarn = 0
		}
		return
	}
	state.sinceWarn = 0

	if !state.needsBindGroupRebuild(prepared.buffer) {
		return
	}

	if state.bindGroup != nil {
		state.bindGroup.Release()
	}

	bindGroup, err := gpuState.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "slime_bind_group",
		Layout: state.layout,
		Entries: []wgpu.BindGroupEntry{
			{
				Binding: 0,
				Buffer:  prepared.buffer,
				Size:    wgpu.WholeSize,
			},
		},
	})
	if err != nil {
		panic(err)
	}

	state.bindGroup = bindGroup
	state.boundBuffer = prepared.buffer
}

func (state *slimeRenderState) needsBindGroupRebuild(buffer *wgpu.Buffer) bool {
	return nil == state.bindGroup || state.boundBuffer != buffer
}

type slimeNodeState int

const (
	slimeLoading slimeNodeState = iota
	slimeUpdate
)

// computePassRecorder is the slice of the compute pass the node records
// through.
type computePassRecorder interface {
	SetPipeline(pipeline *wgpu.ComputePipeline)
	SetBindGroup(groupIndex uint32, group *wgpu.BindGroup, dynamicOffsets []uint32)
	DispatchWorkgroups(workgroupCountX, workgroupCountY, workgroupCountZ uint32)
}

var _ computePassRecorder = (*wgpu.ComputePassEncoder)(nil)

// SlimeNode drives the compute dispatch. It starts in the loading state and,
// once the pipeline cache reports the pipeline ready, switches to update for
// good. Loading frames record an empty pass so the graph output stays
// uniform.
type SlimeNode struct {
	state    slimeNodeState
	pipeline *wgpu.ComputePipeline

	rs    *slimeRenderState
	cache *PipelineCache

	errReported bool
}

func newSlimeNode(rs *slimeRenderState, cache *PipelineCache) *SlimeNode {
	return &SlimeNode{
		state: slimeLoading,
		rs:    rs,
		cache: cache,
	}
}

func (node *SlimeNode) Name() string { return SlimeNodeName }

func (node *SlimeNode) Update(ctx *RenderContext) {
	if slimeLoading != node.state {
		return
	}

	switch node.cache.State(node.rs.pipelineId) {
	case PipelineReady:
		node.pipeline = node.cache.GetComputePipeline(node.rs.pipelineId)
		node.state = slimeUpdate
	case PipelineError:
		if !node.errReported {
			node.rs.log.Errorf("slime compute pipeline failed: %v", node.cache.Err(node.rs.pipelineId))
			node.errReported = true
		}
	}
}

func (node *SlimeNode) Run(ctx *RenderContext, encoder *wgpu.CommandEncoder) error {
	pass := encoder.BeginComputePass(nil)
	defer pass.Release()

	node.record(pass)

	return pass.End()
}

func (node *SlimeNode) record(pass computePassRecorder) {
	if node.rs.bindGroup != nil {
		pass.SetBindGroup(0, node.rs.bindGroup, nil)
	}

	if slimeUpdate != node.state {
		// Pipeline still compiling, the pass stays empty this frame.
		return
	}

	if nil == node.rs.bindGroup {
		panic("slime node is ready but no bind group was queued")
	}

	pass.SetPipeline(node.pipeline)
	pass.DispatchWorkgroups(1, 1, 1)
}
