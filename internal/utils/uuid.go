package utils

import "github.com/google/uuid"

// UUIDGenerator mints operation and device identifiers. Version 7 keeps ids
// roughly time-ordered, which makes the replay log pleasant to scan.
type UUIDGenerator struct{}

func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

func (g *UUIDGenerator) Generate() string {
	v7, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return v7.String()
}
