package macro

import (
	"crypto/rand"
	"math/big"
)

const (
	idLength   = 6
	idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// IDGenerator returns id suffixes for accordion elements.
type IDGenerator func() string

// RandomID returns a random six character base36 suffix.
func RandomID() string {
	max := big.NewInt(int64(len(idAlphabet)))
	b := make([]byte, idLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic(err)
		}
		b[i] = idAlphabet[n.Int64()]
	}
	return string(b)
}

// idSet hands out suffixes that are unique within one rendered tree.
type idSet struct {
	gen  IDGenerator
	seen map[string]struct{}
}

func newIDSet(gen IDGenerator) *idSet {
	return &idSet{gen: gen, seen: make(map[string]struct{})}
}

func (s *idSet) next() string {
	for {
		id := s.gen()
		if _, dup := s.seen[id]; !dup {
			s.seen[id] = struct{}{}
			return id
		}
	}
}
