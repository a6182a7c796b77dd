package slime

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"unsafe"

	"gopkg.in/yaml.v3"
)

const SlimeExtension = ".slime"

// Simulation dimensions, kept in sync with shaders/simple.wgsl.
const (
	SlimeCount         = 100
	SlimeWorkgroupSize = 8
)

// Slime mirrors the GPU-side struct: one value padded out to a 16 byte
// stride so the host and shader layouts agree.
type Slime struct {
	Value float32
	Pad0  float32
	Pad1  float32
	Pad2  float32
}

var slimeByteSize = uint64(unsafe.Sizeof(Slime{}))

// slimeFile is the on-disk shape; padding never round-trips through files.
type slimeFile struct {
	Value float32 `yaml:"value"`
}

func DecodeSlime(data []byte) (Slime, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	var file slimeFile
	if err := decoder.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return Slime{}, fmt.Errorf("slime file is empty")
		}
		return Slime{}, fmt.Errorf("malformed slime file: %w", err)
	}

	return Slime{Value: file.Value}, nil
}

func EncodeSlime(s Slime) ([]byte, error) {
	return yaml.Marshal(slimeFile{Value: s.Value})
}
