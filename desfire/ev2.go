package desfire

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

func (ctx *SecurityContext) requireEV2() error {
	if ctx.Family != AES128 {
		return errors.Wrapf(ErrUnsupported, "EV2 secure messaging with %v key", ctx.Family)
	}
	return nil
}

// BuildEV2IV computes the EV2 IV for the command (forCommand) or response
// direction: AES-ECB under the session encryption key of
// A5 5A (or 5A A5) || TI || command counter (LE16) || 00..00.
// The result also becomes the context IV.
func (ctx *SecurityContext) BuildEV2IV(forCommand bool) ([]byte, error) {
	if err := ctx.requireEV2(); err != nil {
		return nil, err
	}
	b, err := ctx.Block(SessionEncKey)
	if err != nil {
		return nil, err
	}

	in := make([]byte, b.BlockSize())
	if forCommand {
		in[0], in[1] = 0xa5, 0x5a
	} else {
		in[0], in[1] = 0x5a, 0xa5
	}
	copy(in[2:6], ctx.ti[:])
	binary.LittleEndian.PutUint16(in[6:8], ctx.cmdCounter)

	iv, err := EncryptBlock(b, in)
	if err != nil {
		return nil, err
	}
	copy(ctx.iv[:], iv)

	ctx.debug("ev2 iv", "command", forCommand, "counter", ctx.cmdCounter, hexAttr("iv", iv))
	return iv, nil
}

// ComputeEV2CMAC returns the 8-byte MACt over
// cmd || command counter (LE16) || TI || data under the session MAC key.
// For a response, cmd is the status byte and the counter must already have
// been advanced with IncrementCommandCounter.
func (ctx *SecurityContext) ComputeEV2CMAC(cmd byte, data []byte) ([]byte, error) {
	if err := ctx.requireEV2(); err != nil {
		return nil, err
	}
	b, err := ctx.Block(SessionMACKey)
	if err != nil {
		return nil, err
	}

	in := make([]byte, 0, 7+len(data))
	in = append(in, cmd)
	in = binary.LittleEndian.AppendUint16(in, ctx.cmdCounter)
	in = append(in, ctx.ti[:]...)
	in = append(in, data...)

	mac, err := ComputeCMAC(b, nil, in)
	if err != nil {
		return nil, err
	}
	mact := TruncateMAC(mac)

	ctx.debug("ev2 mac", "cmd", cmd, "counter", ctx.cmdCounter, hexAttr("input", in), hexAttr("mact", mact))
	return mact, nil
}

// EncryptEV2Payload encrypts command data for EV2 full mode: 0x80 00..00
// padding, then AES-CBC under the session encryption key from the command IV.
// Empty data stays empty.
func (ctx *SecurityContext) EncryptEV2Payload(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return []byte{}, nil
	}
	iv, err := ctx.BuildEV2IV(true)
	if err != nil {
		return nil, err
	}
	b, err := ctx.Block(SessionEncKey)
	if err != nil {
		return nil, err
	}

	padded := pad80(data, b.BlockSize())
	out, _, err := EncryptCBC(b, iv, padded)
	wipe(padded)
	return out, err
}

// DecryptEV2Payload reverses EncryptEV2Payload for response data, using the
// response IV for the current counter.
func (ctx *SecurityContext) DecryptEV2Payload(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return []byte{}, nil
	}
	iv, err := ctx.BuildEV2IV(false)
	if err != nil {
		return nil, err
	}
	b, err := ctx.Block(SessionEncKey)
	if err != nil {
		return nil, err
	}

	out, _, err := DecryptCBC(b, iv, data)
	if err != nil {
		return nil, err
	}
	return unpad80(out)
}
