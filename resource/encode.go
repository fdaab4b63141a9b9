package resource

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/zeebo/xxh3"
)

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("resource: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Encode serializes a resource value in canonical CBOR. Equal values always
// produce identical bytes.
func Encode(v any) ([]byte, error) {
	return cborEncMode.Marshal(v)
}

// MustEncode is Encode for values that are known to be encodable.
func MustEncode(v any) []byte {
	b, err := Encode(v)
	if err != nil {
		panic(fmt.Sprintf("resource: encode %T: %v", v, err))
	}
	return b
}

// DecodeMesh restores a mesh encoded with Encode.
func DecodeMesh(data []byte) (*Mesh, error) {
	var m Mesh
	if err := cbor.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("resource: unmarshal mesh: %w", err)
	}
	return &m, nil
}

// DecodeImage restores an image encoded with Encode.
func DecodeImage(data []byte) (*Image, error) {
	var img Image
	if err := cbor.Unmarshal(data, &img); err != nil {
		return nil, fmt.Errorf("resource: unmarshal image: %w", err)
	}
	return &img, nil
}

// Hash64 returns the content hash of serialized data.
func Hash64(data []byte) uint64 {
	return xxh3.Hash(data)
}

// FoldHash reduces a 64-bit hash to 32 bits.
func FoldHash(h uint64) uint32 {
	return uint32(h) + uint32(h>>32)*23
}
