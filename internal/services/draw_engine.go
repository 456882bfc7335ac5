package services

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand"
	"sync"
)

// DrawEngine selects a winning ballot uniformly at random. It is safe for
// concurrent use.
type DrawEngine struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewDrawEngine creates an engine seeded from the operating system's CSPRNG
func NewDrawEngine() *DrawEngine {
	var seed [8]byte
	if _, err := crand.Read(seed[:]); err != nil {
		panic("draw engine: cannot seed from crypto/rand: " + err.Error())
	}
	return NewDrawEngineWithSource(rand.NewSource(int64(binary.LittleEndian.Uint64(seed[:]))))
}

// NewDrawEngineWithSource creates an engine over a caller-supplied source
func NewDrawEngineWithSource(src rand.Source) *DrawEngine {
	return &DrawEngine{rng: rand.New(src)}
}

// SelectWinner returns one of ballots, each with probability 1/len(ballots).
// Callers must not pass an empty slice.
func (e *DrawEngine) SelectWinner(ballots []string) string {
	if len(ballots) == 0 {
		panic("draw engine: SelectWinner called with no ballots")
	}
	e.mu.Lock()
	i := e.rng.Intn(len(ballots))
	e.mu.Unlock()
	return ballots[i]
}
