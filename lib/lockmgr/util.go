package lockmgr

import (
	"crypto/rand"

	"github.com/lni/dragonboat/v4/logger"
)

const (
	ownerIDBytes = 32
)

var log = logger.GetLogger("lockmgr")

// generateOwnerID creates a new unique owner ID
// The owner ID is a random 256 bit value.
func generateOwnerID() ([]byte, error) {
	randomBytes := make([]byte, ownerIDBytes)
	_, err := rand.Read(randomBytes)
	return randomBytes, err
}
