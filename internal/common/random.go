package common

import (
	"fmt"
	"math/rand"
)

// NewNumericCode returns a zero-padded decimal code of the given length.
// It is not suitable for long-lived secrets.
func NewNumericCode(length int) string {
	if length <= 0 {
		return ""
	}
	max := 1
	for i := 0; i < length; i++ {
		max *= 10
	}
	return fmt.Sprintf("%0*d", length, rand.Intn(max))
}
