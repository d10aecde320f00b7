package id

import "github.com/google/uuid"

// Generator creates opaque identifiers.
type Generator interface {
	New() string
}

// UUID issues random (v4) UUID strings.
type UUID struct{}

func (UUID) New() string {
	return uuid.NewString()
}

// Local prefixes generated ids so locally minted session ids are easy to tell
// apart from remote row ids in logs and the state file.
type Local struct {
	Prefix string
	Gen    Generator
}

func (l Local) New() string {
	gen := l.Gen
	if gen == nil {
		gen = UUID{}
	}
	return l.Prefix + gen.New()
}
