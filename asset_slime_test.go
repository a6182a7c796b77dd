package slime

import (
	"encoding/binary"
	"math"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeSlime(t *testing.T) {
	record, err := DecodeSlime([]byte("value: 0.5\n"))
	require.NoError(t, err)

	if 0.5 != record.Value {
		t.Errorf("Expected value 0.5, got %v", record.Value)
	}
}

func TestDecodeSlime_EmptyFile(t *testing.T) {
	_, err := DecodeSlime([]byte(""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}

func TestDecodeSlime_Malformed(t *testing.T) {
	_, err := DecodeSlime([]byte("value: [oops\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed")
}

func TestDecodeSlime_UnknownField(t *testing.T) {
	_, err := DecodeSlime([]byte("value: 1.0\nextra: 2.0\n"))
	require.Error(t, err)
}

func TestEncodeSlime_RoundTrip(t *testing.T) {
	encoded, err := EncodeSlime(Slime{Value: 0.75})
	require.NoError(t, err)

	decoded, err := DecodeSlime(encoded)
	require.NoError(t, err)

	if 0.75 != decoded.Value {
		t.Errorf("Expected value to round-trip, got %v", decoded.Value)
	}
	if 0 != decoded.Pad0 || 0 != decoded.Pad1 || 0 != decoded.Pad2 {
		t.Errorf("Expected padding to stay zero, got %v", decoded)
	}
}

func TestSlime_GpuLayout(t *testing.T) {
	if 16 != unsafe.Sizeof(Slime{}) {
		t.Errorf("Expected a 16 byte record, got %v", unsafe.Sizeof(Slime{}))
	}
	if 16 != slimeByteSize {
		t.Errorf("Expected slimeByteSize to be 16, got %v", slimeByteSize)
	}

	data := toBufferBytes(Slime{Value: 0.5})
	require.Len(t, data, 16)

	value := math.Float32frombits(binary.LittleEndian.Uint32(data[0:4]))
	if 0.5 != value {
		t.Errorf("Expected the value in the first four bytes, got %v", value)
	}
	for i := 4; i < 16; i++ {
		if 0 != data[i] {
			t.Errorf("Expected padding byte %d to be zero, got %v", i, data[i])
		}
	}
}
