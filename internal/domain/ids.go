package domain

import (
	crand "crypto/rand"
	"io"
	"sync"
)

const (
	userIDPrefix = "uGId"
	userIDLength = 27
	// 64 symbols, so a random byte masked to 6 bits picks one uniformly.
	userIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ-_"
)

// IDGenerator issues ids for user-added restaurants. Ids are unique among
// those issued by the same generator, which lives as long as the session.
type IDGenerator struct {
	mu     sync.Mutex
	rand   io.Reader
	issued map[string]struct{}
}

func NewIDGenerator() *IDGenerator { return NewIDGeneratorFrom(crand.Reader) }

func NewIDGeneratorFrom(r io.Reader) *IDGenerator {
	return &IDGenerator{rand: r, issued: make(map[string]struct{})}
}

func (g *IDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	for {
		id := g.draw()
		if _, dup := g.issued[id]; dup {
			continue
		}
		g.issued[id] = struct{}{}
		return id
	}
}

func (g *IDGenerator) draw() string {
	buf := make([]byte, userIDLength)
	copy(buf, userIDPrefix)
	tail := buf[len(userIDPrefix):]
	if _, err := io.ReadFull(g.rand, tail); err != nil {
		panic("id generator: random source failed: " + err.Error())
	}
	for i, b := range tail {
		tail[i] = userIDAlphabet[b&63]
	}
	return string(buf)
}
