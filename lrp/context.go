package lrp

// This is based off of NXP document AN12304

import (
	"github.com/pkg/errors"
)

const (
	// BlockSize is the LRP block size in bytes.
	BlockSize = 16
	// KeySize is the LRP master key size in bytes.
	KeySize = 16
	// NumUpdatedKeys is the number of updated keys derived for every master key.
	NumUpdatedKeys = 4

	// NumPlaintexts is the size of the plaintext table, one entry per nibble value.
	NumPlaintexts = 1 << nibbleSize

	nibbleSize = 4

	// Counter length used until SetCounter says otherwise
	defaultCounterNibbles = 16
)

// Refers to the values used for upper and lower branches of Figure 1, pg. 4
var upper = []byte{0x55, 0x55, 0x55, 0x55, 0x55, 0x55, 0x55, 0x55, 0x55, 0x55, 0x55, 0x55, 0x55, 0x55, 0x55, 0x55}
var lower = []byte{0xaa, 0xaa, 0xaa, 0xaa, 0xaa, 0xaa, 0xaa, 0xaa, 0xaa, 0xaa, 0xaa, 0xaa, 0xaa, 0xaa, 0xaa, 0xaa}
var zeroBlock = make([]byte, BlockSize)

// Context holds the precomputed tables for one LRP master key together with
// the stream counter used by Encode and Decode.
//
// The plaintext and updated key tables are derived once in New and never
// change afterwards. The counter is the only mutable state. A Context must
// not be shared between goroutines.
type Context struct {
	key         [KeySize]byte
	plaintexts  [NumPlaintexts][BlockSize]byte
	updatedKeys [NumUpdatedKeys][BlockSize]byte
	keyIndex    int
	bitPadding  bool

	counter        [BlockSize]byte
	counterNibbles int
}

// New derives the plaintext and updated key tables for key. keyIndex selects
// which updated key drives Eval, and bitPadding selects whether Encode and
// Decode apply 0x80 00..00 padding.
func New(key []byte, keyIndex int, bitPadding bool) (*Context, error) {
	if len(key) != KeySize {
		return nil, errors.Wrapf(ErrKeyLength, "got %d bytes", len(key))
	}
	if keyIndex < 0 || keyIndex >= NumUpdatedKeys {
		return nil, errors.Wrapf(ErrKeyIndex, "got %d", keyIndex)
	}

	c := &Context{
		keyIndex:       keyIndex,
		bitPadding:     bitPadding,
		counterNibbles: defaultCounterNibbles,
	}
	copy(c.key[:], key)
	c.generatePlaintexts()
	c.generateUpdatedKeys()

	return c, nil
}

// NewWithCounter is New followed by SetCounter.
func NewWithCounter(key []byte, counter []byte, counterNibbles int, keyIndex int, bitPadding bool) (*Context, error) {
	c, err := New(key, keyIndex, bitPadding)
	if err != nil {
		return nil, err
	}
	if err := c.SetCounter(counter, counterNibbles); err != nil {
		return nil, err
	}
	return c, nil
}

// Algorithm 1 (pg. 5)
func (c *Context) generatePlaintexts() {
	h := encryptWith(c.key[:], upper)
	for i := 0; i < NumPlaintexts; i++ {
		copy(c.plaintexts[i][:], encryptWith(h, lower))
		h = encryptWith(h, upper)
	}
}

// Algorithm 2 (pg. 5)
func (c *Context) generateUpdatedKeys() {
	h := encryptWith(c.key[:], lower)
	for i := 0; i < NumUpdatedKeys; i++ {
		copy(c.updatedKeys[i][:], encryptWith(h, lower))
		h = encryptWith(h, upper)
	}
}

// Plaintext returns a copy of plaintext i of the table.
func (c *Context) Plaintext(i int) []byte {
	p := c.plaintexts[i]
	return p[:]
}

// UpdatedKey returns a copy of updated key i.
func (c *Context) UpdatedKey(i int) []byte {
	k := c.updatedKeys[i]
	return k[:]
}

// KeyIndex returns the updated key index selected in New.
func (c *Context) KeyIndex() int {
	return c.keyIndex
}

// SetCounter replaces the stream counter. The counter is counterNibbles
// nibbles long, most significant nibble first.
func (c *Context) SetCounter(counter []byte, counterNibbles int) error {
	if counterNibbles <= 0 || counterNibbles > 2*BlockSize || counterNibbles > 2*len(counter) {
		return errors.Wrapf(ErrCounterLength, "%d nibbles from %d bytes", counterNibbles, len(counter))
	}
	c.counter = [BlockSize]byte{}
	copy(c.counter[:], counter[:(counterNibbles+1)/2])
	c.counterNibbles = counterNibbles
	return nil
}

// Counter returns a copy of the current stream counter bytes.
func (c *Context) Counter() []byte {
	out := make([]byte, (c.counterNibbles+1)/2)
	copy(out, c.counter[:])
	return out
}

// CounterNibbles returns the length of the stream counter in nibbles.
func (c *Context) CounterNibbles() int {
	return c.counterNibbles
}
