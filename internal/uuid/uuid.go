// uuid generator behind an interface so session ids can be pinned in tests
package uuid

import (
	"github.com/google/uuid"
)

// Generator is an interface for generating opaque ids
type Generator interface {
	New() string
}

// GoogleUUIDGenerator implements the Generator interface using Google's UUID package
type GoogleUUIDGenerator struct{}

// New generates a new UUID string
func (g *GoogleUUIDGenerator) New() string {
	return uuid.New().String()
}

// NewGoogleUUIDGenerator creates a new GoogleUUIDGenerator
func NewGoogleUUIDGenerator() *GoogleUUIDGenerator {
	return &GoogleUUIDGenerator{}
}

// StaticGenerator hands out ids from a fixed list, then falls back to numbered ids.
type StaticGenerator struct {
	IDs  []string
	next int
}

// New returns the next configured id
func (g *StaticGenerator) New() string {
	defer func() { g.next++ }()
	if g.next < len(g.IDs) {
		return g.IDs[g.next]
	}
	return "generated-" + uuid.NewSHA1(uuid.NameSpaceOID, []byte{byte(g.next)}).String()
}
