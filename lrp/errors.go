package lrp

import "github.com/pkg/errors"

var (
	// ErrKeyLength is returned when a master key is not 16 bytes long.
	ErrKeyLength = errors.New("lrp: key must be 16 bytes")
	// ErrKeyIndex is returned when an updated key index is out of range.
	ErrKeyIndex = errors.New("lrp: updated key index out of range")
	// ErrCounterLength is returned when a counter does not hold the requested number of nibbles.
	ErrCounterLength = errors.New("lrp: invalid counter length")
	// ErrBlockAlignment is returned when ciphertext is not a multiple of the block size.
	ErrBlockAlignment = errors.New("lrp: data is not block aligned")
	// ErrPadding is returned when decoded data does not end in a 0x80 00..00 marker.
	ErrPadding = errors.New("lrp: missing padding marker")
)
