package desfire

import (
	"crypto/cipher"
	"fmt"
	"log/slog"

	"github.com/pkg/errors"
)

// KeySelector picks which key of a SecurityContext an operation runs under.
type KeySelector int

const (
	MainKey       KeySelector = iota // The authentication key loaded with SetKey.
	SessionEncKey                    // Session encryption key.
	SessionMACKey                    // Session MAC key.
)

func (s KeySelector) String() string {
	switch s {
	case MainKey:
		return "main key"
	case SessionEncKey:
		return "session encryption key"
	case SessionMACKey:
		return "session MAC key"
	default:
		return fmt.Sprintf("KeySelector(%d)", int(s))
	}
}

// SecurityContext is the per-connection cryptographic state: the
// authentication key, the session keys negotiated from it, the running IV and
// for EV2 the transaction identifier and command counter.
//
// A SecurityContext is not safe for concurrent use.
type SecurityContext struct {
	KeyNum byte
	Family Family

	// Logger receives debug traces of IV and MAC computations when set.
	Logger *slog.Logger

	key           []byte
	sessionKeyEnc []byte
	sessionKeyMAC []byte
	iv            [MaxBlockSize]byte
	ti            [4]byte
	cmdCounter    uint16
}

// NewSecurityContext returns a context with key loaded, see SetKey.
func NewSecurityContext(keyNum byte, f Family, key []byte) (*SecurityContext, error) {
	ctx := &SecurityContext{}
	if err := ctx.SetKey(keyNum, f, key); err != nil {
		return nil, err
	}
	return ctx, nil
}

// SetKey loads a new authentication key and drops all session state. On error
// the context is left untouched.
func (ctx *SecurityContext) SetKey(keyNum byte, f Family, key []byte) error {
	if f.KeySize() == 0 {
		return errors.Wrapf(ErrUnknownFamily, "%v", f)
	}
	if len(key) != f.KeySize() {
		return errors.Wrapf(ErrKeyLength, "%v needs %d bytes, got %d", f, f.KeySize(), len(key))
	}

	ctx.Clear()
	ctx.KeyNum = keyNum
	ctx.Family = f
	ctx.key = append([]byte(nil), key...)
	return nil
}

// Clear wipes all key material, the IV, the transaction identifier and the
// command counter.
func (ctx *SecurityContext) Clear() {
	wipe(ctx.key)
	wipe(ctx.sessionKeyEnc)
	wipe(ctx.sessionKeyMAC)
	ctx.key = nil
	ctx.sessionKeyEnc = nil
	ctx.sessionKeyMAC = nil
	ctx.ClearIV()
	ctx.ti = [4]byte{}
	ctx.cmdCounter = 0
}

// ClearIV zeroes the running IV.
func (ctx *SecurityContext) ClearIV() {
	ctx.iv = [MaxBlockSize]byte{}
}

// BlockSize is the block size of the loaded family.
func (ctx *SecurityContext) BlockSize() int {
	return ctx.Family.BlockSize()
}

// KeySize is the key size of the loaded family.
func (ctx *SecurityContext) KeySize() int {
	return ctx.Family.KeySize()
}

// Key returns a copy of the authentication key.
func (ctx *SecurityContext) Key() []byte {
	return append([]byte(nil), ctx.key...)
}

// SetSessionKeys installs session keys negotiated outside this package. Both
// must be as long as the family key.
func (ctx *SecurityContext) SetSessionKeys(enc, mac []byte) error {
	if ctx.key == nil {
		return errors.Wrap(ErrKeyNotSet, "set session keys")
	}
	for _, k := range [][]byte{enc, mac} {
		if len(k) != ctx.KeySize() {
			return errors.Wrapf(ErrKeyLength, "%v session key needs %d bytes, got %d", ctx.Family, ctx.KeySize(), len(k))
		}
	}

	wipe(ctx.sessionKeyEnc)
	wipe(ctx.sessionKeyMAC)
	ctx.sessionKeyEnc = append([]byte(nil), enc...)
	ctx.sessionKeyMAC = append([]byte(nil), mac...)
	return nil
}

// SessionKeyEnc returns a copy of the session encryption key, nil if unset.
func (ctx *SecurityContext) SessionKeyEnc() []byte {
	if ctx.sessionKeyEnc == nil {
		return nil
	}
	return append([]byte(nil), ctx.sessionKeyEnc...)
}

// SessionKeyMAC returns a copy of the session MAC key, nil if unset.
func (ctx *SecurityContext) SessionKeyMAC() []byte {
	if ctx.sessionKeyMAC == nil {
		return nil
	}
	return append([]byte(nil), ctx.sessionKeyMAC...)
}

// IV returns a copy of the running IV, one block long.
func (ctx *SecurityContext) IV() []byte {
	return append([]byte(nil), ctx.iv[:ctx.BlockSize()]...)
}

// SetIV replaces the running IV.
func (ctx *SecurityContext) SetIV(iv []byte) error {
	if err := checkLength("IV", iv, ctx.BlockSize()); err != nil {
		return err
	}
	ctx.ClearIV()
	copy(ctx.iv[:], iv)
	return nil
}

// TI returns the EV2 transaction identifier.
func (ctx *SecurityContext) TI() []byte {
	return append([]byte(nil), ctx.ti[:]...)
}

// SetTI replaces the EV2 transaction identifier.
func (ctx *SecurityContext) SetTI(ti []byte) error {
	if err := checkLength("TI", ti, len(ctx.ti)); err != nil {
		return err
	}
	copy(ctx.ti[:], ti)
	return nil
}

// CommandCounter returns the EV2 command counter.
func (ctx *SecurityContext) CommandCounter() uint16 {
	return ctx.cmdCounter
}

// SetCommandCounter replaces the EV2 command counter.
func (ctx *SecurityContext) SetCommandCounter(n uint16) {
	ctx.cmdCounter = n
}

// IncrementCommandCounter advances the EV2 command counter. It is called once
// per exchange, after the command MAC and before the response MAC is checked.
func (ctx *SecurityContext) IncrementCommandCounter() {
	ctx.cmdCounter++
}

// Block returns the cipher for the selected key.
func (ctx *SecurityContext) Block(sel KeySelector) (cipher.Block, error) {
	var key []byte
	switch sel {
	case MainKey:
		key = ctx.key
	case SessionEncKey:
		key = ctx.sessionKeyEnc
	case SessionMACKey:
		key = ctx.sessionKeyMAC
	default:
		return nil, errors.Errorf("desfire: unknown key selector %d", int(sel))
	}
	if key == nil {
		return nil, errors.Wrapf(ErrKeyNotSet, "%v", sel)
	}
	return NewBlock(ctx.Family, key)
}

func (ctx *SecurityContext) debug(msg string, args ...any) {
	if ctx.Logger != nil {
		ctx.Logger.Debug(msg, args...)
	}
}
