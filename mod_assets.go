package slime

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

type AssetId string

// AssetLoader decodes one raw asset file, stores the result in the server
// and returns the id it was stored under. A failed loader must leave the
// server untouched.
type AssetLoader func(server AssetServer, data []byte) (AssetId, error)

type LoadErrorKind int

const (
	LoadErrorUnknownExtension LoadErrorKind = iota
	LoadErrorRead
	LoadErrorDecode
)

type LoadError struct {
	Kind LoadErrorKind
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	switch e.Kind {
	case LoadErrorUnknownExtension:
		return fmt.Sprintf("no asset loader for %s: %v", e.Path, e.Err)
	case LoadErrorRead:
		return fmt.Sprintf("reading asset %s: %v", e.Path, e.Err)
	default:
		return fmt.Sprintf("decoding asset %s: %v", e.Path, e.Err)
	}
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

type AssetServer struct {
	loaders map[string]AssetLoader
	slimes  map[AssetId]Slime
	shaders map[AssetId]ShaderAsset
}

type AssetServerModule struct{}

type ShaderAsset struct {
	version uint
	name    string
	listing string
}

// RegisterLoader binds a loader to a file extension (with the leading dot).
// Registering the same extension twice replaces the previous loader.
func (server AssetServer) RegisterLoader(extension string, loader AssetLoader) {
	server.loaders[strings.ToLower(extension)] = loader
}

// Load dispatches on the file extension of path. On success exactly one
// asset has been registered with the server; on failure none has.
func (server AssetServer) Load(path string) (AssetId, error) {
	extension := strings.ToLower(filepath.Ext(path))
	loader, ok := server.loaders[extension]
	if !ok {
		return "", &LoadError{
			Kind: LoadErrorUnknownExtension,
			Path: path,
			Err:  fmt.Errorf("extension %q has no registered loader", extension),
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", &LoadError{Kind: LoadErrorRead, Path: path, Err: err}
	}

	id, err := loader(server, data)
	if err != nil {
		return "", &LoadError{Kind: LoadErrorDecode, Path: path, Err: err}
	}
	return id, nil
}

func (server AssetServer) CreateSlime(record Slime) AssetId {
	id := makeAssetId()
	server.slimes[id] = record
	return id
}

func (server AssetServer) Slime(id AssetId) (Slime, bool) {
	record, ok := server.slimes[id]
	return record, ok
}

func (server AssetServer) LoadShader(filename string) (AssetId, error) {
	shaderData, err := os.ReadFile(filename)
	if err != nil {
		return "", &LoadError{Kind: LoadErrorRead, Path: filename, Err: err}
	}

	id := makeAssetId()

	server.shaders[id] = ShaderAsset{
		version: 0,
		name:    filename,
		listing: string(shaderData),
	}

	return id, nil
}

func (server AssetServer) Shader(id AssetId) (ShaderAsset, bool) {
	shader, ok := server.shaders[id]
	return shader, ok
}

func (AssetServerModule) Install(app *App, cmd *Commands) {
	app.addResources(&AssetServer{
		loaders: make(map[string]AssetLoader),
		slimes:  make(map[AssetId]Slime),
		shaders: make(map[AssetId]ShaderAsset),
	})
}

func makeAssetId() AssetId {
	return AssetId(uuid.NewString())
}
