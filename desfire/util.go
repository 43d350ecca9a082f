package desfire

import (
	"encoding/hex"
	"log/slog"
	"runtime"
	"strings"
)

// pad80 appends 0x80 and as many zero bytes as needed to reach a multiple of
// blockSize. The marker is always added, even to aligned input.
func pad80(b []byte, blockSize int) []byte {
	padded := make([]byte, len(b)+blockSize-len(b)%blockSize)
	copy(padded, b)
	padded[len(b)] = 0x80
	return padded
}

// unpad80 strips a 0x80 00..00 trailer.
func unpad80(b []byte) ([]byte, error) {
	idx := len(b) - 1
	for idx >= 0 && b[idx] == 0x00 {
		idx--
	}
	if idx < 0 || b[idx] != 0x80 {
		return nil, ErrPadding
	}
	return b[:idx], nil
}

// shiftLeft1 writes src<<1 to dst and reports the bit shifted out.
func shiftLeft1(dst, src []byte) byte {
	var carry byte
	for i := len(src) - 1; i >= 0; i-- {
		b := src[i]
		dst[i] = (b << 1) | carry
		carry = b >> 7
	}
	return carry
}

// wipe zeroes key material.
//
//go:noinline
func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(&b)
}

func hexAttr(key string, b []byte) slog.Attr {
	return slog.String(key, strings.ToUpper(hex.EncodeToString(b)))
}
