package desfire

import (
	"crypto/cipher"
	"crypto/subtle"

	"github.com/aead/cmac"
	"github.com/pkg/errors"
)

// chainedBlock lets a CMAC continue from a non-zero IV. The IV is folded into
// the first block encrypted after it is armed, which for a fresh cmac hash is
// the first CBC step.
type chainedBlock struct {
	cipher.Block
	iv []byte
}

func (c *chainedBlock) Encrypt(dst, src []byte) {
	if c.iv == nil {
		c.Block.Encrypt(dst, src)
		return
	}
	buf := make([]byte, len(c.iv))
	subtle.XORBytes(buf, src[:len(c.iv)], c.iv)
	c.iv = nil
	c.Block.Encrypt(dst, buf)
}

// GenerateSubkeys derives the CMAC subkeys K1 and K2 of b: L is the
// encryption of a zero block, K1 = L·x and K2 = K1·x in GF(2^n), reduced with
// 0x1B for 8-byte blocks and 0x87 for 16-byte blocks.
func GenerateSubkeys(b cipher.Block) (k1, k2 []byte, err error) {
	var rb byte
	switch b.BlockSize() {
	case 8:
		rb = 0x1b
	case 16:
		rb = 0x87
	default:
		return nil, nil, errors.Wrapf(ErrUnsupported, "CMAC with %d-byte blocks", b.BlockSize())
	}

	l := make([]byte, b.BlockSize())
	b.Encrypt(l, l)

	k1 = make([]byte, len(l))
	if shiftLeft1(k1, l) != 0 {
		k1[len(k1)-1] ^= rb
	}
	k2 = make([]byte, len(l))
	if shiftLeft1(k2, k1) != 0 {
		k2[len(k2)-1] ^= rb
	}
	return k1, k2, nil
}

// ComputeCMAC returns the full-width CMAC of msg under b, starting the CBC
// chain from iv. A nil iv means zero, which is standard CMAC.
func ComputeCMAC(b cipher.Block, iv, msg []byte) ([]byte, error) {
	return ComputeCMACMinLen(b, iv, msg, 0)
}

// ComputeCMACMinLen is ComputeCMAC for inputs that must be treated as at
// least minLen bytes long. A shorter message is padded with 0x80 00..00 up
// to minLen and finalized with K2 even when the padded length is block
// aligned. AN10922 diversification needs this.
func ComputeCMACMinLen(b cipher.Block, iv, msg []byte, minLen int) ([]byte, error) {
	bs := b.BlockSize()
	if iv != nil {
		if err := checkLength("IV", iv, bs); err != nil {
			return nil, err
		}
	}

	cb := &chainedBlock{Block: b}
	h, err := cmac.New(cb)
	if err != nil {
		return nil, errors.Wrapf(ErrUnsupported, "CMAC with %d-byte blocks", bs)
	}
	if iv != nil {
		cb.iv = append([]byte(nil), iv...)
	}

	if len(msg) >= minLen {
		h.Write(msg)
		return h.Sum(nil), nil
	}

	// The hash finalizes a complete last block with K1. Folding K1^K2 into
	// the padded block turns that into K2.
	k1, k2, err := GenerateSubkeys(b)
	if err != nil {
		return nil, err
	}
	size := (minLen + bs - 1) / bs * bs
	padded := make([]byte, size)
	copy(padded, msg)
	padded[len(msg)] = 0x80
	last := padded[size-bs:]
	subtle.XORBytes(last, last, k1)
	subtle.XORBytes(last, last, k2)

	h.Write(padded)
	return h.Sum(nil), nil
}

// TruncateMAC keeps the odd-indexed bytes of a 16-byte MAC, giving the
// 8-byte MACt sent on the wire by EV2 secure messaging.
func TruncateMAC(mac []byte) []byte {
	out := make([]byte, 0, len(mac)/2)
	for i := 1; i < len(mac); i += 2 {
		out = append(out, mac[i])
	}
	return out
}

// CMAC computes the CMAC of msg under the selected key, chaining from the
// context IV. The full MAC becomes the new IV, which is how EV1 keeps its
// CBC chain running across commands.
func (ctx *SecurityContext) CMAC(sel KeySelector, msg []byte) ([]byte, error) {
	b, err := ctx.Block(sel)
	if err != nil {
		return nil, err
	}
	mac, err := ComputeCMAC(b, ctx.iv[:b.BlockSize()], msg)
	if err != nil {
		return nil, err
	}
	copy(ctx.iv[:], mac)
	return mac, nil
}
