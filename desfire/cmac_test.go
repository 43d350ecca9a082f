package desfire

import (
	"crypto/subtle"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SP 800-38B example message, used by prefix length.
var cmacData = mustDecodeString("6BC1BEE22E409F96E93D7E117393172AAE2D8A571E03AC9C9EB76FAC45AF8E51")

func TestGenerateSubkeys(t *testing.T) {
	tests := []struct {
		family   Family
		key      string
		sk1, sk2 string
	}{
		{AES128, "00112233445566778899AABBCCDDEEFF", "FBC9F75C9413C041DFEE452D3F0706D1", "F793EEB928278083BFDC8A5A7E0E0D25"},
		{TDEA2, "00112233445566778899AABBCCDDEEFF", "F612EB32E46035F3", "EC25D665C8C06BFD"},
		{TDEA3, "00112233445566778899AABBCCDDEEFF0102030405060708", "A3ED58F8E6941BCA", "47DAB1F1CD28378F"},
		// SP 800-38B D.1
		{AES128, "2B7E151628AED2A6ABF7158809CF4F3C", "FBEED618357133667C85E08F7236A8DE", "F7DDAC306AE266CCF90BC11EE46D513B"},
	}

	for _, test := range tests {
		b, err := NewBlock(test.family, mustDecodeString(test.key))
		require.NoError(t, err)

		sk1, sk2, err := GenerateSubkeys(b)
		require.NoError(t, err)
		assert.Equal(t, mustDecodeString(test.sk1), sk1, "%v sk1", test.family)
		assert.Equal(t, mustDecodeString(test.sk2), sk2, "%v sk2", test.family)
	}
}

type CMACTestCase struct {
	Family Family
	Key    string
	Length int
	Result string
}

func TestComputeCMAC(t *testing.T) {
	tests := []CMACTestCase{
		{TDEA3, "0123456789ABCDEF23456789ABCDEF01456789ABCDEF0123", 0, "7DB0D37DF936C550"},
		{TDEA3, "0123456789ABCDEF23456789ABCDEF01456789ABCDEF0123", 16, "30239CF1F52E6609"},
		{TDEA3, "0123456789ABCDEF23456789ABCDEF01456789ABCDEF0123", 20, "6C9F3EE4923F6BE2"},
		{TDEA3, "0123456789ABCDEF23456789ABCDEF01456789ABCDEF0123", 32, "99429BD0BF7904E5"},
		{TDEA2, "0123456789ABCDEF23456789ABCDEF01", 0, "79CE52A7F786A960"},
		{TDEA2, "0123456789ABCDEF23456789ABCDEF01", 16, "CC18A0B79AF2413B"},
		{TDEA2, "0123456789ABCDEF23456789ABCDEF01", 20, "C06D377ECD101969"},
		{TDEA2, "0123456789ABCDEF23456789ABCDEF01", 32, "9CD33580F9B64DFB"},
		{DES, "0123456789ABCDEF", 0, "86F79C13FD306E67"},
		{DES, "0123456789ABCDEF", 16, "BEA4212292462A85"},
		{DES, "0123456789ABCDEF", 20, "3E2F8310C569275E"},
		{DES, "0123456789ABCDEF", 32, "9D1FC4D4C0259132"},
		// SP 800-38B D.1
		{AES128, "2B7E151628AED2A6ABF7158809CF4F3C", 0, "BB1D6929E95937287FA37D129B756746"},
		{AES128, "2B7E151628AED2A6ABF7158809CF4F3C", 16, "070A16B46B4D4144F79BDD9DD04A287C"},
	}

	for idx, test := range tests {
		b, err := NewBlock(test.Family, mustDecodeString(test.Key))
		require.NoError(t, err)

		mac, err := ComputeCMAC(b, nil, cmacData[:test.Length])
		require.NoError(t, err)
		assert.Equal(t, mustDecodeString(test.Result), mac, "case %d (%v, %d bytes)", idx+1, test.Family, test.Length)
	}
}

func TestComputeCMACWithIV(t *testing.T) {
	// Seeding the chain with an IV is the same as folding it into the
	// first message block.
	for _, f := range []Family{TDEA2, AES128} {
		b, err := NewBlock(f, mustDecodeString("0123456789ABCDEF23456789ABCDEF01"))
		require.NoError(t, err)
		bs := f.BlockSize()
		iv := cmacData[bs : 2*bs]

		for _, n := range []int{bs, bs + 3, 2 * bs} {
			msg := cmacData[:n]
			folded := append([]byte(nil), msg...)
			subtle.XORBytes(folded[:bs], folded[:bs], iv)

			want, err := ComputeCMAC(b, nil, folded)
			require.NoError(t, err)
			got, err := ComputeCMAC(b, iv, msg)
			require.NoError(t, err)
			assert.Equal(t, want, got, "%v %d bytes", f, n)
		}
	}

	b, err := NewBlock(AES128, make([]byte, 16))
	require.NoError(t, err)
	_, err = ComputeCMAC(b, make([]byte, 8), cmacData)
	assert.Error(t, err)
}

func TestComputeCMACMinLen(t *testing.T) {
	b, err := NewBlock(AES128, mustDecodeString("2B7E151628AED2A6ABF7158809CF4F3C"))
	require.NoError(t, err)

	// Long enough messages are plain CMAC.
	want, err := ComputeCMAC(b, nil, cmacData)
	require.NoError(t, err)
	got, err := ComputeCMACMinLen(b, nil, cmacData, 32)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// A short message padded to one block is plain CMAC of the padded-length
	// case, since that path already finalizes with K2.
	want, err = ComputeCMAC(b, nil, cmacData[:5])
	require.NoError(t, err)
	got, err = ComputeCMACMinLen(b, nil, cmacData[:5], 16)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// Padding to two blocks differs from plain CMAC.
	plain, err := ComputeCMAC(b, nil, cmacData[:20])
	require.NoError(t, err)
	padded, err := ComputeCMACMinLen(b, nil, cmacData[:20], 48)
	require.NoError(t, err)
	assert.NotEqual(t, plain, padded)
}

func TestContextCMACChainsIV(t *testing.T) {
	ctx, err := NewSecurityContext(0, TDEA2, mustDecodeString("0123456789ABCDEF23456789ABCDEF01"))
	require.NoError(t, err)
	require.NoError(t, ctx.SetSessionKeys(ctx.Key(), ctx.Key()))

	mac1, err := ctx.CMAC(SessionMACKey, cmacData[:16])
	require.NoError(t, err)
	assert.Equal(t, mustDecodeString("CC18A0B79AF2413B"), mac1)
	assert.Equal(t, mac1, ctx.IV())

	b, err := NewBlock(TDEA2, ctx.Key())
	require.NoError(t, err)
	want, err := ComputeCMAC(b, mac1, cmacData[16:])
	require.NoError(t, err)
	mac2, err := ctx.CMAC(SessionMACKey, cmacData[16:])
	require.NoError(t, err)
	assert.Equal(t, want, mac2)
	assert.Equal(t, mac2, ctx.IV())
}

func TestTruncateMAC(t *testing.T) {
	mac := mustDecodeString("000102030405060708090A0B0C0D0E0F")
	assert.Equal(t, mustDecodeString("01030507090B0D0F"), TruncateMAC(mac))
}
