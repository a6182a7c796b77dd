package slime

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAssetServer() *AssetServer {
	return &AssetServer{
		loaders: make(map[string]AssetLoader),
		slimes:  make(map[AssetId]Slime),
		shaders: make(map[AssetId]ShaderAsset),
	}
}

func writeTestFile(t *testing.T, name string, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestAssetServer_LoadDispatchesOnExtension(t *testing.T) {
	server := newTestAssetServer()
	server.RegisterLoader(SlimeExtension, loadSlimeAsset)

	path := writeTestFile(t, "record.slime", "value: 0.25\n")

	id, err := server.Load(path)
	require.NoError(t, err)

	record, ok := server.Slime(id)
	if !ok {
		t.Fatalf("Expected the loaded record to be registered under %v", id)
	}
	if 0.25 != record.Value {
		t.Errorf("Expected value 0.25, got %v", record.Value)
	}
}

func TestAssetServer_LoadUnknownExtension(t *testing.T) {
	server := newTestAssetServer()

	_, err := server.Load("whatever.xyz")
	require.Error(t, err)

	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, LoadErrorUnknownExtension, loadErr.Kind)
}

func TestAssetServer_LoadMissingFile(t *testing.T) {
	server := newTestAssetServer()
	server.RegisterLoader(SlimeExtension, loadSlimeAsset)

	_, err := server.Load(filepath.Join(t.TempDir(), "missing.slime"))
	require.Error(t, err)

	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, LoadErrorRead, loadErr.Kind)
}

func TestAssetServer_LoadDecodeErrorRegistersNothing(t *testing.T) {
	server := newTestAssetServer()
	server.RegisterLoader(SlimeExtension, loadSlimeAsset)

	path := writeTestFile(t, "broken.slime", "value: [oops\n")

	_, err := server.Load(path)
	require.Error(t, err)

	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, LoadErrorDecode, loadErr.Kind)

	if 0 != len(server.slimes) {
		t.Errorf("Expected no partial records after a failed load, got %v", len(server.slimes))
	}
}

func TestAssetServer_CreateSlime(t *testing.T) {
	server := newTestAssetServer()

	id1 := server.CreateSlime(Slime{Value: 1})
	id2 := server.CreateSlime(Slime{Value: 2})

	if id1 == id2 {
		t.Errorf("Expected distinct asset ids, both were %v", id1)
	}

	record, ok := server.Slime(id1)
	if !ok || 1 != record.Value {
		t.Errorf("Expected record 1 under %v, got %v (ok=%v)", id1, record, ok)
	}
}

func TestAssetServer_LoadShader(t *testing.T) {
	server := newTestAssetServer()

	path := writeTestFile(t, "kernel.wgsl", "@compute @workgroup_size(8)\nfn update() {}\n")

	id, err := server.LoadShader(path)
	require.NoError(t, err)

	shader, ok := server.Shader(id)
	if !ok {
		t.Fatalf("Expected shader to be registered under %v", id)
	}
	assert.Contains(t, shader.listing, "fn update")
	assert.Equal(t, path, shader.name)
}

func TestAssetServer_LoadShaderMissingFile(t *testing.T) {
	server := newTestAssetServer()

	_, err := server.LoadShader(filepath.Join(t.TempDir(), "missing.wgsl"))
	require.Error(t, err)

	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, LoadErrorRead, loadErr.Kind)
}

func TestAssetServerModule_Install(t *testing.T) {
	app := NewApp()
	app.UseModules(AssetServerModule{})

	var server *AssetServer
	for _, resource := range app.resources {
		if s, ok := resource.(*AssetServer); ok {
			server = s
		}
	}
	require.NotNil(t, server)

	// The installed server is usable right away
	id := server.CreateSlime(Slime{Value: 3})
	_, ok := server.Slime(id)
	assert.True(t, ok)
}
