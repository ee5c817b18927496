package engine

import (
	"fmt"
	"strconv"
)

// Reserved keys. The 0x00 prefix sorts before any byte a valid path can
// start with.
const (
	reservedPrefix = "\x00"
	generationKey  = reservedPrefix + "generation"
	outputRootKey  = reservedPrefix + "output_root"

	// PathKeysStart is the inclusive lower bound of the path region.
	PathKeysStart = "\x01"
)

func encodeGeneration(g int64) []byte {
	return strconv.AppendInt(nil, g, 10)
}

func decodeGeneration(b []byte) (int64, error) {
	g, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("decode generation %q: %w", b, err)
	}
	return g, nil
}
