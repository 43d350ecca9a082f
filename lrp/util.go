package lrp

// Shared functions

import (
	"crypto/aes"
)

// Simplified AES decryption function, since we wind up with so many keys.
// Every key handed in here comes out of a Context table, so a bad key
// length is a programming error.
func decryptWith(key []byte, data []byte) []byte {
	c, err := aes.NewCipher(key)
	if err != nil {
		panic(err)
	}

	result := make([]byte, len(data))
	c.Decrypt(result, data)

	return result
}

// Simplified AES encryption function, since we wind up with so many keys
func encryptWith(key []byte, data []byte) []byte {
	c, err := aes.NewCipher(key)
	if err != nil {
		panic(err)
	}

	result := make([]byte, len(data))
	c.Encrypt(result, data)

	return result
}

// Converts a byte array to a nibble array.  The bytes are converted to ints so they can be used as indices
func nibbles(bytes []byte) []int {
	nibbles := make([]int, 0, len(bytes)*2)
	for _, x := range bytes {
		msb := 0b11110000 & x
		msb = msb >> 4
		lsb := 0b00001111 & x
		nibbles = append(nibbles, int(msb), int(lsb))
	}
	return nibbles
}

// Same as nibbles, but only the first n nibbles (most significant first)
func leadingNibbles(bytes []byte, n int) []int {
	return nibbles(bytes)[:n]
}

// Multiplies a 128-bit block by x in GF(2^128), the CMAC subkey step
func mulX(dst, src []byte) {
	msb := src[0] & 0x80
	var carry byte
	for i := len(src) - 1; i >= 0; i-- {
		b := src[i]
		dst[i] = (b << 1) | carry
		carry = b >> 7
	}
	if msb != 0 {
		dst[len(dst)-1] ^= 0x87
	}
}
