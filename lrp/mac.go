package lrp

import (
	"github.com/aead/cmac"
)

// macBlock is the LRP evaluation dressed up as a cipher.Block so that CMAC
// processing can run over it. Encrypt doesn't actually encrypt: it runs the
// finalized EvalLRP over the nibbles of the block.
type macBlock struct {
	ctx *Context
}

func (b macBlock) BlockSize() int {
	return BlockSize
}

func (b macBlock) Encrypt(dst, src []byte) {
	result := b.ctx.evalLRP(nibbles(src[:BlockSize]), true)
	copy(dst[:BlockSize], result)
}

func (b macBlock) Decrypt(dst, src []byte) {
	panic("lrp: the MAC primitive has no inverse")
}

// CMAC computes the 16-byte LRP CMAC of msg (AN12304 section 3.4).
func (c *Context) CMAC(msg []byte) []byte {
	h, _ := cmac.NewWithTagSize(macBlock{ctx: c}, BlockSize)
	h.Write(msg)
	return h.Sum(nil)
}

// ShortCMAC is the NXP-style truncated CMAC: the odd bytes of the full MAC.
func (c *Context) ShortCMAC(msg []byte) []byte {
	mac := c.CMAC(msg)
	return []byte{mac[1], mac[3], mac[5], mac[7], mac[9], mac[11], mac[13], mac[15]}
}

// GenerateSubkeys derives the two CMAC subkeys of the LRP CMAC for key: the
// finalized evaluation of an all-zero block under updated key 0, multiplied
// by x once for the first subkey and twice for the second.
func GenerateSubkeys(key []byte) (sk1, sk2 []byte, err error) {
	c, err := New(key, 0, true)
	if err != nil {
		return nil, nil, err
	}

	l := c.evalLRP(nibbles(zeroBlock), true)
	sk1 = make([]byte, BlockSize)
	mulX(sk1, l)
	sk2 = make([]byte, BlockSize)
	mulX(sk2, sk1)
	return sk1, sk2, nil
}
