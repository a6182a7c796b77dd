package slime

import (
	"fmt"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
	lru "github.com/hashicorp/golang-lru/v2"
)

type CachedComputePipelineId int

type CachedPipelineState int

const (
	PipelineQueued CachedPipelineState = iota
	PipelineCompiling
	PipelineReady
	PipelineError
)

func (s CachedPipelineState) String() string {
	switch s {
	case PipelineQueued:
		return "queued"
	case PipelineCompiling:
		return "compiling"
	case PipelineReady:
		return "ready"
	case PipelineError:
		return "error"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// ComputePipelineDescriptor describes one pipeline compilation request.
// A nil Layout derives bindings from the shader itself.
type ComputePipelineDescriptor struct {
	Label      string
	Layout     *wgpu.PipelineLayout
	Shader     AssetId
	Source     string
	EntryPoint string
}

type cachedComputePipeline struct {
	desc     ComputePipelineDescriptor
	state    CachedPipelineState
	pipeline *wgpu.ComputePipeline
	err      error
}

// PipelineCache compiles compute pipelines off the frame loop. Each queued
// descriptor gets its own goroutine; frame systems only ever poll the
// published state, nothing here blocks a frame.
type PipelineCache struct {
	mu        sync.Mutex
	device    *wgpu.Device
	modules   *lru.Cache[AssetId, *wgpu.ShaderModule]
	pipelines []*cachedComputePipeline

	compile func(desc ComputePipelineDescriptor) (*wgpu.ComputePipeline, error)
}

const shaderModuleCacheSize = 16

func newPipelineCache(device *wgpu.Device) *PipelineCache {
	modules, err := lru.NewWithEvict(shaderModuleCacheSize, func(_ AssetId, module *wgpu.ShaderModule) {
		module.Release()
	})
	if err != nil {
		panic(err)
	}

	cache := &PipelineCache{
		device:  device,
		modules: modules,
	}
	cache.compile = cache.compileOnDevice
	return cache
}

// QueueComputePipeline registers desc and kicks off its compilation. The
// returned id is valid immediately; poll State until it leaves the
// queued/compiling states.
func (cache *PipelineCache) QueueComputePipeline(desc ComputePipelineDescriptor) CachedComputePipelineId {
	cache.mu.Lock()
	id := CachedComputePipelineId(len(cache.pipelines))
	cache.pipelines = append(cache.pipelines, &cachedComputePipeline{
		desc:  desc,
		state: PipelineQueued,
	})
	cache.mu.Unlock()

	go cache.compileQueued(id)

	return id
}

func (cache *PipelineCache) compileQueued(id CachedComputePipelineId) {
	cache.mu.Lock()
	entry := cache.pipelines[id]
	if PipelineQueued != entry.state {
		cache.mu.Unlock()
		return
	}
	entry.state = PipelineCompiling
	desc := entry.desc
	cache.mu.Unlock()

	pipeline, err := cache.compile(desc)

	cache.mu.Lock()
	if err != nil {
		entry.state = PipelineError
		entry.err = err
	} else {
		entry.state = PipelineReady
		entry.pipeline = pipeline
	}
	cache.mu.Unlock()
}

func (cache *PipelineCache) compileOnDevice(desc ComputePipelineDescriptor) (*wgpu.ComputePipeline, error) {
	module, err := cache.shaderModule(desc.Shader, desc.Label, desc.Source)
	if err != nil {
		return nil, err
	}

	return cache.device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:  desc.Label,
		Layout: desc.Layout,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     module,
			EntryPoint: desc.EntryPoint,
		},
	})
}

// shaderModule compiles the WGSL source once per shader asset; evicted
// modules release their GPU handle.
func (cache *PipelineCache) shaderModule(id AssetId, label string, source string) (*wgpu.ShaderModule, error) {
	if module, ok := cache.modules.Get(id); ok {
		return module, nil
	}

	module, err := cache.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          label,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: source},
	})
	if err != nil {
		return nil, err
	}

	cache.modules.Add(id, module)
	return module, nil
}

// State reports the current compilation state; the answer may be stale by
// the time the caller acts on it, except that ready and error are terminal.
func (cache *PipelineCache) State(id CachedComputePipelineId) CachedPipelineState {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	return cache.entry(id).state
}

// Err returns the compilation failure for pipelines in the error state.
func (cache *PipelineCache) Err(id CachedComputePipelineId) error {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	return cache.entry(id).err
}

// GetComputePipeline returns the compiled pipeline, or nil while it is not
// ready.
func (cache *PipelineCache) GetComputePipeline(id CachedComputePipelineId) *wgpu.ComputePipeline {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	return cache.entry(id).pipeline
}

func (cache *PipelineCache) entry(id CachedComputePipelineId) *cachedComputePipeline {
	if int(id) < 0 || int(id) >= len(cache.pipelines) {
		panic(fmt.Sprintf("unknown pipeline id %d", id))
	}
	return cache.pipelines[id]
}
