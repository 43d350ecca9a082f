package desfire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetKey(t *testing.T) {
	ctx, err := NewSecurityContext(1, AES128, mustDecodeString("00112233445566778899AABBCCDDEEFF"))
	require.NoError(t, err)
	require.NoError(t, ctx.SetSessionKeys(make([]byte, 16), make([]byte, 16)))
	require.NoError(t, ctx.SetTI(mustDecodeString("01020304")))
	require.NoError(t, ctx.SetIV(mustDecodeString("0F0E0D0C0B0A09080706050403020100")))
	ctx.SetCommandCounter(7)

	require.NoError(t, ctx.SetKey(2, TDEA3, make([]byte, 24)))
	assert.Equal(t, byte(2), ctx.KeyNum)
	assert.Equal(t, TDEA3, ctx.Family)
	assert.Equal(t, 24, ctx.KeySize())
	assert.Equal(t, 8, ctx.BlockSize())
	assert.Nil(t, ctx.SessionKeyEnc())
	assert.Nil(t, ctx.SessionKeyMAC())
	assert.Equal(t, make([]byte, 8), ctx.IV())
	assert.Equal(t, make([]byte, 4), ctx.TI())
	assert.Equal(t, uint16(0), ctx.CommandCounter())
}

func TestSetKeyFailureLeavesContext(t *testing.T) {
	key := mustDecodeString("00112233445566778899AABBCCDDEEFF")
	ctx, err := NewSecurityContext(1, AES128, key)
	require.NoError(t, err)
	ctx.SetCommandCounter(3)

	assert.ErrorIs(t, ctx.SetKey(2, TDEA3, make([]byte, 16)), ErrKeyLength)
	assert.ErrorIs(t, ctx.SetKey(2, Family(12), make([]byte, 16)), ErrUnknownFamily)

	assert.Equal(t, byte(1), ctx.KeyNum)
	assert.Equal(t, AES128, ctx.Family)
	assert.Equal(t, key, ctx.Key())
	assert.Equal(t, uint16(3), ctx.CommandCounter())

	_, err = NewSecurityContext(0, DES, key)
	assert.ErrorIs(t, err, ErrKeyLength)
}

func TestClear(t *testing.T) {
	ctx, err := NewSecurityContext(0, AES128, make([]byte, 16))
	require.NoError(t, err)
	require.NoError(t, ctx.SetSessionKeys(make([]byte, 16), make([]byte, 16)))
	ctx.IncrementCommandCounter()

	ctx.Clear()
	assert.Empty(t, ctx.Key())
	assert.Nil(t, ctx.SessionKeyEnc())
	assert.Equal(t, uint16(0), ctx.CommandCounter())

	_, err = ctx.Block(MainKey)
	assert.ErrorIs(t, err, ErrKeyNotSet)
}

func TestAccessorsCopy(t *testing.T) {
	key := mustDecodeString("00112233445566778899AABBCCDDEEFF")
	ctx, err := NewSecurityContext(0, AES128, key)
	require.NoError(t, err)

	k := ctx.Key()
	k[0] ^= 0xff
	assert.Equal(t, key, ctx.Key())

	key[1] ^= 0xff
	assert.NotEqual(t, key, ctx.Key())
}

func TestContextValidation(t *testing.T) {
	ctx, err := NewSecurityContext(0, TDEA2, make([]byte, 16))
	require.NoError(t, err)

	assert.ErrorIs(t, ctx.SetSessionKeys(make([]byte, 16), make([]byte, 8)), ErrKeyLength)
	assert.Error(t, ctx.SetIV(make([]byte, 16)))
	require.NoError(t, ctx.SetIV(make([]byte, 8)))
	assert.Error(t, ctx.SetTI(make([]byte, 5)))

	_, err = ctx.Block(KeySelector(5))
	assert.Error(t, err)

	var empty SecurityContext
	assert.ErrorIs(t, empty.SetSessionKeys(nil, nil), ErrKeyNotSet)
}

func TestIncrementCommandCounterWraps(t *testing.T) {
	var ctx SecurityContext
	ctx.SetCommandCounter(0xffff)
	ctx.IncrementCommandCounter()
	assert.Equal(t, uint16(0), ctx.CommandCounter())
}
