package desfire

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrUnknownFamily is returned for a Family value outside the supported set.
	ErrUnknownFamily = errors.New("desfire: unknown cipher family")
	// ErrKeyLength is returned when key material does not match its cipher family.
	ErrKeyLength = errors.New("desfire: key length does not match cipher family")
	// ErrKeyNotSet is returned when an operation needs a key that was never loaded.
	ErrKeyNotSet = errors.New("desfire: key not set")
	// ErrBlockAlignment is returned when data must be a multiple of the block size and is not.
	ErrBlockAlignment = errors.New("desfire: data is not block aligned")
	// ErrUnsupported is returned when an operation is not defined for the cipher family.
	ErrUnsupported = errors.New("desfire: operation not supported for cipher family")
	// ErrPadding is returned when decrypted data does not end in a 0x80 00..00 marker.
	ErrPadding = errors.New("desfire: missing padding marker")
)

// LengthError results from an input whose length is fixed by the protocol.
type LengthError struct {
	What string // Name of the offending input.
	Got  int
	Want int
}

func (e LengthError) Error() string {
	return fmt.Sprintf("desfire: %s must be %d bytes, got %d", e.What, e.Want, e.Got)
}

func checkLength(what string, b []byte, want int) error {
	if len(b) != want {
		return LengthError{What: what, Got: len(b), Want: want}
	}
	return nil
}
