package lrp

import (
	"crypto/cipher"

	"github.com/pkg/errors"
)

// This is the fundamental primitive used for encryption/decryption.
// x holds the nibbles of the input, most significant first.
func (c *Context) evalLRP(x []int, final bool) []byte {
	// Algorithm 3 (pg. 6)
	y := append([]byte(nil), c.updatedKeys[c.keyIndex][:]...)

	for i := 0; i < len(x); i++ {
		p := c.plaintexts[x[i]][:]
		y = encryptWith(y, p)
	}
	if final {
		y = encryptWith(y, zeroBlock)
	}
	return y
}

// Eval runs the LRP evaluation function over the first nibbleLen nibbles of
// iv. When final is set the result is encrypted once more under a zero block,
// as the stream and MAC modes do.
func (c *Context) Eval(iv []byte, nibbleLen int, final bool) ([]byte, error) {
	if nibbleLen < 0 || nibbleLen > 2*len(iv) {
		return nil, errors.Wrapf(ErrCounterLength, "%d nibbles from %d bytes", nibbleLen, len(iv))
	}
	return c.evalLRP(leadingNibbles(iv, nibbleLen), final), nil
}

// Breaks the block counter into nibbles for the EvalLRP primitive
func (c *Context) counterPieces() []int {
	return leadingNibbles(c.counter[:], c.counterNibbles)
}

// IncrementCounter adds one to the counterNibbles-nibble big-endian counter
// held in ctr. Overflow of the most significant nibble wraps the whole counter
// to zero. Nibbles beyond counterNibbles are left untouched.
func IncrementCounter(ctr []byte, counterNibbles int) {
	if counterNibbles > 2*len(ctr) {
		counterNibbles = 2 * len(ctr)
	}

	for i := counterNibbles - 1; i >= 0; i-- {
		b := &ctr[i/2]
		if i%2 == 1 {
			v := (*b + 1) & 0x0f
			*b = (*b & 0xf0) | v
			if v != 0 {
				return
			}
		} else {
			v := ((*b >> 4) + 1) & 0x0f
			*b = (*b & 0x0f) | (v << 4)
			if v != 0 {
				return
			}
		}
	}
}

/* Fundamental Primitives */

// Encrypts the given blocks from src to dst.
// Based on the smaller of src/dst.  Requires
// that src is only full blocks.
func (c *Context) encryptBlocks(dst, src []byte) {
	// Algorithm 4 (pg. 7)
	numblocks := len(src) / BlockSize
	if n := len(dst) / BlockSize; n < numblocks {
		numblocks = n
	}

	for i := 0; i < numblocks; i++ {
		blockstart := i * BlockSize
		blockend := blockstart + BlockSize
		y := c.evalLRP(c.counterPieces(), true)
		copy(dst[blockstart:blockend], encryptWith(y, src[blockstart:blockend]))
		IncrementCounter(c.counter[:], c.counterNibbles)
	}
}

// Decrypt the given blocks in src to dst.  Requires
// full blocks.
func (c *Context) decryptBlocks(dst, src []byte) {
	// Algorithm 5 (pg. 8)
	numblocks := len(src) / BlockSize
	if n := len(dst) / BlockSize; n < numblocks {
		numblocks = n
	}

	for i := 0; i < numblocks; i++ {
		blockstart := i * BlockSize
		blockend := blockstart + BlockSize
		y := c.evalLRP(c.counterPieces(), true)
		copy(dst[blockstart:blockend], decryptWith(y, src[blockstart:blockend]))
		IncrementCounter(c.counter[:], c.counterNibbles)
	}
}

/* Convenience functions */

// Encode encrypts src with the LRP stream mode, starting at the current
// counter and advancing it once per block. With bit padding a 0x80 marker is
// always appended, so an empty message still produces one block. Without bit
// padding a trailing partial block is zero filled.
func (c *Context) Encode(src []byte) []byte {
	data := make([]byte, len(src), len(src)+BlockSize)
	copy(data, src)

	if c.bitPadding {
		data = append(data, 0x80)
	}
	if rest := len(data) % BlockSize; rest != 0 {
		data = append(data, make([]byte, BlockSize-rest)...)
	}

	dst := make([]byte, len(data))
	c.encryptBlocks(dst, data)
	return dst
}

// Decode reverses Encode. There is no integrity check: a wrong key or
// counter yields garbage of the same length. With bit padding, data that
// does not end in a 0x80 00..00 marker is reported as ErrPadding, which keeps
// a decoded empty message (nil error, zero length) distinct from a broken
// frame.
func (c *Context) Decode(src []byte) ([]byte, error) {
	if len(src)%BlockSize != 0 {
		return nil, errors.Wrapf(ErrBlockAlignment, "decode %d bytes", len(src))
	}

	dst := make([]byte, len(src))
	c.decryptBlocks(dst, src)

	if !c.bitPadding || len(dst) == 0 {
		return dst, nil
	}

	idx := len(dst) - 1
	for idx >= 0 && dst[idx] == 0x00 {
		idx--
	}
	if idx < 0 || dst[idx] != 0x80 {
		return nil, ErrPadding
	}
	return dst[:idx], nil
}

/* Standard BlockMode interface */

type blockMode struct {
	ctx        *Context
	encrypting bool
}

// Encrypter returns an encrypting cipher.BlockMode that shares the counter
// of c.
func (c *Context) Encrypter() cipher.BlockMode {
	return &blockMode{ctx: c, encrypting: true}
}

// Decrypter returns a decrypting cipher.BlockMode that shares the counter
// of c.
func (c *Context) Decrypter() cipher.BlockMode {
	return &blockMode{ctx: c, encrypting: false}
}

func (m *blockMode) BlockSize() int {
	return BlockSize
}

func (m *blockMode) CryptBlocks(dst, src []byte) {
	if len(src)%BlockSize != 0 {
		panic("lrp: input not full blocks")
	}
	if len(dst) < len(src) {
		panic("lrp: output smaller than input")
	}
	if m.encrypting {
		m.ctx.encryptBlocks(dst, src)
	} else {
		m.ctx.decryptBlocks(dst, src)
	}
}
