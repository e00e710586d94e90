package testsupport

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

var testSequence = uint64(time.Now().UnixNano() % 1000000)

// NextSequence returns next unique sequence number
func NextSequence() uint64 {
	return atomic.AddUint64(&testSequence, 1)
}

// UniqueName generates a unique name with given prefix
// Example: UniqueName("portfolio") -> "portfolio_123456"
func UniqueName(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, NextSequence())
}

// UniqueAssetID generates an asset identifier that cannot collide with seeded assets
// Example: UniqueAssetID("SPY") -> "SPY_T123456"
func UniqueAssetID(base string) string {
	return fmt.Sprintf("%s_T%d", base, NextSequence())
}

// UniqueRunID returns a fresh run id
func UniqueRunID() string {
	return uuid.NewString()
}
