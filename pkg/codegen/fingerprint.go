package codegen

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint is a short stable digest of generated text, used to compare outputs
// across runs without keeping them around.
func Fingerprint(code string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(code))
}
