package ticket

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const Prefix = "STI"

var maxSuffix = big.NewInt(1_000_000)

// NewNumber generates a human-readable ticket number: prefix, four-digit
// year, six-digit zero-padded random suffix. The suffix is not unique on
// its own; the tickets table enforces uniqueness and the caller retries on
// conflict.
func NewNumber() string {
	n, err := rand.Int(rand.Reader, maxSuffix)
	if err != nil {
		// crypto/rand only fails when the OS entropy source is broken;
		// fall back to the clock rather than abort ticket issuance.
		n = big.NewInt(time.Now().UnixNano() % 1_000_000)
	}
	return fmt.Sprintf("%s%d%06d", Prefix, time.Now().Year(), n.Int64())
}
