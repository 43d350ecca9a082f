package desfire

import (
	"encoding/binary"

	"github.com/johnnyb/desfirecrypto/lrp"
	"github.com/pkg/errors"
)

const (
	// NonceSize is the length of RndA and RndB in AES and EV2 authentication.
	NonceSize = 16

	maxDiversificationInput = 31
	maxUIDLength            = 7
)

// DiversifyKey replaces the authentication key with its AN10922
// diversification over data (1 to 31 bytes, usually UID plus application and
// system identifiers). AES uses one CMAC with constant 0x01, 2TDEA two with
// 0x21 and 0x22, and 3TDEA three with 0x31, 0x32 and 0x33. DES keys cannot be
// diversified. DES parity bits in the result are not adjusted.
func (ctx *SecurityContext) DiversifyKey(data []byte) error {
	if len(data) == 0 || len(data) > maxDiversificationInput {
		return errors.Errorf("desfire: diversification input must be 1 to %d bytes, got %d", maxDiversificationInput, len(data))
	}

	var consts []byte
	switch ctx.Family {
	case AES128:
		consts = []byte{0x01}
	case TDEA2:
		consts = []byte{0x21, 0x22}
	case TDEA3:
		consts = []byte{0x31, 0x32, 0x33}
	default:
		return errors.Wrapf(ErrUnsupported, "diversify %v key", ctx.Family)
	}

	b, err := ctx.Block(MainKey)
	if err != nil {
		return err
	}
	bs := b.BlockSize()

	input := make([]byte, len(data)+1)
	copy(input[1:], data)
	key := make([]byte, 0, len(consts)*bs)
	for _, c := range consts {
		input[0] = c
		mac, err := ComputeCMACMinLen(b, nil, input, 2*bs)
		if err != nil {
			return err
		}
		key = append(key, mac...)
	}

	ctx.debug("an10922 diversification", "family", ctx.Family, hexAttr("input", data))
	copy(ctx.key, key)
	wipe(key)
	return nil
}

// mixNonces writes the 26-byte nonce mix shared by the EV2 and LRP session
// vectors: RndA[0:2] || RndA[2:8]^RndB[0:6] || RndB[6:16] || RndA[8:16].
func mixNonces(dst, rndA, rndB []byte) {
	copy(dst[0:8], rndA[0:8])
	for i := 0; i < 6; i++ {
		dst[2+i] ^= rndB[i]
	}
	copy(dst[8:18], rndB[6:16])
	copy(dst[18:26], rndA[8:16])
}

func checkNonces(rndA, rndB []byte, size int) error {
	if err := checkLength("RndA", rndA, size); err != nil {
		return err
	}
	return checkLength("RndB", rndB, size)
}

// DeriveEV2SessionKey derives SesAuthENCKey (forEncryption) or SesAuthMACKey
// from an AES key and the authentication nonces. The session vector is
// A5 5A (or 5A A5) || 00 01 00 80 || nonce mix, MACed with AES-CMAC.
func DeriveEV2SessionKey(key, rndA, rndB []byte, forEncryption bool) ([]byte, error) {
	if err := checkNonces(rndA, rndB, NonceSize); err != nil {
		return nil, err
	}
	b, err := NewBlock(AES128, key)
	if err != nil {
		return nil, err
	}

	sv := make([]byte, 32)
	if forEncryption {
		sv[0], sv[1] = 0xa5, 0x5a
	} else {
		sv[0], sv[1] = 0x5a, 0xa5
	}
	sv[3] = 0x01
	sv[5] = 0x80
	mixNonces(sv[6:], rndA, rndB)

	return ComputeCMAC(b, nil, sv)
}

// DeriveTransactionSessionKey derives the transaction MAC session key
// (forMAC) or the transaction encryption session key from an AES key, the
// transaction MAC counter and the card UID (up to 7 bytes). The vector holds
// the counter plus one, little endian.
func DeriveTransactionSessionKey(key []byte, counter uint32, uid []byte, forMAC bool) ([]byte, error) {
	if len(uid) > maxUIDLength {
		return nil, LengthError{What: "UID", Got: len(uid), Want: maxUIDLength}
	}
	b, err := NewBlock(AES128, key)
	if err != nil {
		return nil, err
	}

	sv := make([]byte, 16)
	if forMAC {
		sv[0] = 0x5a
	} else {
		sv[0] = 0xa5
	}
	sv[2] = 0x01
	sv[4] = 0x80
	binary.LittleEndian.PutUint32(sv[5:9], counter+1)
	copy(sv[9:], uid)

	return ComputeCMAC(b, nil, sv)
}

// DeriveLRPSessionKey derives the LRP session key from the authentication
// key and nonces: the LRP CMAC (updated key 0) of
// 00 01 00 80 || nonce mix || 96 69.
func DeriveLRPSessionKey(key, rndA, rndB []byte) ([]byte, error) {
	if err := checkNonces(rndA, rndB, NonceSize); err != nil {
		return nil, err
	}
	c, err := lrp.New(key, 0, true)
	if err != nil {
		return nil, errors.Wrap(err, "derive LRP session key")
	}

	sv := make([]byte, 32)
	sv[1] = 0x01
	sv[3] = 0x80
	mixNonces(sv[4:], rndA, rndB)
	sv[30], sv[31] = 0x96, 0x69

	return c.CMAC(sv), nil
}

// DeriveEV1SessionKey builds the legacy (EV1) session key by interleaving
// four byte pieces of the nonces. DES and 2TDEA use 8-byte nonces, 3TDEA and
// AES 16-byte ones.
func DeriveEV1SessionKey(f Family, rndA, rndB []byte) ([]byte, error) {
	var pieces []int
	size := NonceSize
	switch f {
	case DES:
		pieces, size = []int{0}, 8
	case TDEA2:
		pieces, size = []int{0, 4}, 8
	case TDEA3:
		pieces = []int{0, 6, 12}
	case AES128:
		pieces = []int{0, 12}
	default:
		return nil, errors.Wrapf(ErrUnknownFamily, "%v", f)
	}
	if err := checkNonces(rndA, rndB, size); err != nil {
		return nil, err
	}

	key := make([]byte, 0, f.KeySize())
	for _, p := range pieces {
		key = append(key, rndA[p:p+4]...)
		key = append(key, rndB[p:p+4]...)
	}
	return key, nil
}

// BeginEV2Session derives both EV2 session keys from the authentication key
// and nonces, stores them together with the transaction identifier, and
// resets the command counter and IV. Only AES keys take part in EV2.
func (ctx *SecurityContext) BeginEV2Session(rndA, rndB, ti []byte) error {
	if ctx.Family != AES128 {
		return errors.Wrapf(ErrUnsupported, "EV2 session with %v key", ctx.Family)
	}
	if ctx.key == nil {
		return errors.Wrap(ErrKeyNotSet, "begin EV2 session")
	}
	if err := checkLength("TI", ti, len(ctx.ti)); err != nil {
		return err
	}

	enc, err := DeriveEV2SessionKey(ctx.key, rndA, rndB, true)
	if err != nil {
		return err
	}
	mac, err := DeriveEV2SessionKey(ctx.key, rndA, rndB, false)
	if err != nil {
		return err
	}
	if err := ctx.SetSessionKeys(enc, mac); err != nil {
		return err
	}
	wipe(enc)
	wipe(mac)

	copy(ctx.ti[:], ti)
	ctx.cmdCounter = 0
	ctx.ClearIV()
	ctx.debug("ev2 session started", "keyNum", ctx.KeyNum, hexAttr("ti", ti))
	return nil
}
