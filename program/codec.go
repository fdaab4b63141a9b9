package program

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("program: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Marshal serializes a program to CBOR bytes. Rom payloads are not included.
func Marshal(p *Program) ([]byte, error) {
	return cborEncMode.Marshal(p)
}

// Unmarshal deserializes a program from CBOR bytes.
func Unmarshal(data []byte) (*Program, error) {
	var p Program
	if err := cbor.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("program: unmarshal: %w", err)
	}
	return &p, nil
}
