package desfire

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/des"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Family identifies the block cipher a DESFire key is used with.
type Family int

const (
	DES    Family = iota // Single DES, 8-byte key.
	TDEA2                // 2-key triple DES, 16-byte key, K3 = K1.
	TDEA3                // 3-key triple DES, 24-byte key.
	AES128               // AES-128, 16-byte key.
)

// MaxBlockSize is the largest block size of any supported family.
const MaxBlockSize = aes.BlockSize

func (f Family) String() string {
	switch f {
	case DES:
		return "DES"
	case TDEA2:
		return "2TDEA"
	case TDEA3:
		return "3TDEA"
	case AES128:
		return "AES128"
	default:
		return fmt.Sprintf("Family(%d)", int(f))
	}
}

// ParseFamily maps a name as returned by Family.String back to its Family.
func ParseFamily(name string) (Family, error) {
	for _, f := range []Family{DES, TDEA2, TDEA3, AES128} {
		if strings.EqualFold(name, f.String()) {
			return f, nil
		}
	}
	return 0, errors.Wrapf(ErrUnknownFamily, "%q", name)
}

// KeySize returns the key length in bytes, or 0 for an unknown family.
func (f Family) KeySize() int {
	switch f {
	case DES:
		return 8
	case TDEA2, AES128:
		return 16
	case TDEA3:
		return 24
	default:
		return 0
	}
}

// BlockSize returns the cipher block size in bytes, or 0 for an unknown family.
func (f Family) BlockSize() int {
	switch f {
	case DES, TDEA2, TDEA3:
		return des.BlockSize
	case AES128:
		return aes.BlockSize
	default:
		return 0
	}
}

// NewBlock returns the cipher.Block for key under family f. Triple DES runs
// EDE; for 2TDEA the third subkey is the first.
func NewBlock(f Family, key []byte) (cipher.Block, error) {
	if f.KeySize() == 0 {
		return nil, errors.Wrapf(ErrUnknownFamily, "%v", f)
	}
	if len(key) != f.KeySize() {
		return nil, errors.Wrapf(ErrKeyLength, "%v needs %d bytes, got %d", f, f.KeySize(), len(key))
	}

	var (
		b   cipher.Block
		err error
	)
	switch f {
	case DES:
		b, err = des.NewCipher(key)
	case TDEA2:
		k := make([]byte, 24)
		copy(k, key)
		copy(k[16:], key[:8])
		b, err = des.NewTripleDESCipher(k)
		wipe(k)
	case TDEA3:
		b, err = des.NewTripleDESCipher(key)
	case AES128:
		b, err = aes.NewCipher(key)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "create %v cipher", f)
	}
	return b, nil
}

func chainIV(b cipher.Block, iv []byte) ([]byte, error) {
	bs := b.BlockSize()
	if iv == nil {
		return make([]byte, bs), nil
	}
	if err := checkLength("IV", iv, bs); err != nil {
		return nil, err
	}
	return append([]byte(nil), iv...), nil
}

// EncryptCBC encrypts block aligned data in CBC mode starting from iv (nil
// means a zero IV). It returns the ciphertext and the IV that continues the
// chain, which is the last ciphertext block. No padding is applied.
func EncryptCBC(b cipher.Block, iv, data []byte) (out, next []byte, err error) {
	if len(data)%b.BlockSize() != 0 {
		return nil, nil, errors.Wrapf(ErrBlockAlignment, "CBC encrypt %d bytes", len(data))
	}
	civ, err := chainIV(b, iv)
	if err != nil {
		return nil, nil, err
	}

	out = make([]byte, len(data))
	if len(data) == 0 {
		return out, civ, nil
	}
	cipher.NewCBCEncrypter(b, civ).CryptBlocks(out, data)
	next = append([]byte(nil), out[len(out)-b.BlockSize():]...)
	return out, next, nil
}

// DecryptCBC is the inverse of EncryptCBC. The returned chaining IV is the
// last block of the ciphertext.
func DecryptCBC(b cipher.Block, iv, data []byte) (out, next []byte, err error) {
	if len(data)%b.BlockSize() != 0 {
		return nil, nil, errors.Wrapf(ErrBlockAlignment, "CBC decrypt %d bytes", len(data))
	}
	civ, err := chainIV(b, iv)
	if err != nil {
		return nil, nil, err
	}

	out = make([]byte, len(data))
	if len(data) == 0 {
		return out, civ, nil
	}
	cipher.NewCBCDecrypter(b, civ).CryptBlocks(out, data)
	next = append([]byte(nil), data[len(data)-b.BlockSize():]...)
	return out, next, nil
}

// EncryptBlock encrypts exactly one block.
func EncryptBlock(b cipher.Block, src []byte) ([]byte, error) {
	if err := checkLength("block", src, b.BlockSize()); err != nil {
		return nil, err
	}
	out := make([]byte, len(src))
	b.Encrypt(out, src)
	return out, nil
}

// Encrypt runs CBC encryption with the selected key, continuing from the
// context IV. The context IV is replaced by the last ciphertext block.
func (ctx *SecurityContext) Encrypt(sel KeySelector, data []byte) ([]byte, error) {
	b, err := ctx.Block(sel)
	if err != nil {
		return nil, err
	}
	out, next, err := EncryptCBC(b, ctx.iv[:b.BlockSize()], data)
	if err != nil {
		return nil, err
	}
	copy(ctx.iv[:], next)
	return out, nil
}

// Decrypt runs CBC decryption with the selected key, continuing from the
// context IV. The context IV is replaced by the last ciphertext block.
func (ctx *SecurityContext) Decrypt(sel KeySelector, data []byte) ([]byte, error) {
	b, err := ctx.Block(sel)
	if err != nil {
		return nil, err
	}
	out, next, err := DecryptCBC(b, ctx.iv[:b.BlockSize()], data)
	if err != nil {
		return nil, err
	}
	copy(ctx.iv[:], next)
	return out, nil
}
