package movielist

import (
	"encoding/binary"
	"errors"
	"math"

	"github.com/google/uuid"
)

// maxIDAttempts bounds regeneration when a candidate id is already taken.
const maxIDAttempts = 8

// ErrIDGeneration is returned when no unused id could be produced.
var ErrIDGeneration = errors.New("could not generate a unique movie id")

// IDGenerator produces candidate ids for duplicated movies.
type IDGenerator func() int64

// UUIDGenerator derives a positive 63-bit id from a random UUID.
func UUIDGenerator() int64 {
	u := uuid.New()
	id := int64(binary.BigEndian.Uint64(u[:8]) & math.MaxInt64)
	if id == 0 {
		return 1
	}
	return id
}

// uniqueID draws from gen until it returns an id for which taken is false.
func uniqueID(gen IDGenerator, taken func(int64) bool) (int64, error) {
	for i := 0; i < maxIDAttempts; i++ {
		if id := gen(); !taken(id) {
			return id, nil
		}
	}
	return 0, ErrIDGeneration
}
