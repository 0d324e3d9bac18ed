package core

import "github.com/google/uuid"

// IDGenerator produces fresh identifiers for nodes and episodes.
type IDGenerator interface {
	NewID() string
}

type uuidGenerator struct{}

// NewIDGenerator returns an IDGenerator backed by random (v4) UUIDs.
func NewIDGenerator() IDGenerator {
	return uuidGenerator{}
}

func (uuidGenerator) NewID() string {
	return uuid.New().String()
}
