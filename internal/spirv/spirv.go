// Package spirv converts the SPIR-V bytes produced by naga into the word
// stream hal shader modules take.
package spirv

import (
	"errors"
	"fmt"

	nagaspirv "github.com/gogpu/naga/spirv"
)

// headerWords is the number of words before the first instruction.
const headerWords = 5

var (
	// ErrTruncated is returned when the binary is not a whole number of
	// words or is shorter than the header.
	ErrTruncated = errors.New("spirv: truncated module")

	// ErrBadMagic is returned when the first word is not the SPIR-V magic
	// number.
	ErrBadMagic = errors.New("spirv: bad magic number")
)

// Words converts little-endian SPIR-V bytes to 32-bit words and checks the
// module header.
func Words(b []byte) ([]uint32, error) {
	if len(b)%4 != 0 || len(b) < headerWords*4 {
		return nil, fmt.Errorf("%w: %d bytes", ErrTruncated, len(b))
	}
	words := make([]uint32, len(b)/4)
	for i := range words {
		words[i] = uint32(b[i*4]) |
			uint32(b[i*4+1])<<8 |
			uint32(b[i*4+2])<<16 |
			uint32(b[i*4+3])<<24
	}
	if words[0] != nagaspirv.MagicNumber {
		return nil, fmt.Errorf("%w: 0x%08X", ErrBadMagic, words[0])
	}
	return words, nil
}
