package desfire

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
)

// CRC widths accepted by LocateCRC.
const (
	CRC16Size = 2
	CRC32Size = 4
)

// CRC16 is the ISO/IEC 14443-3 type A CRC (CRC_A) used by native DESFire
// commands, returned low byte first.
func CRC16(data []byte) [CRC16Size]byte {
	crc := uint16(0x6363)
	for _, b := range data {
		b ^= byte(crc)
		b ^= b << 4
		bb := uint16(b)
		crc = (crc >> 8) ^ (bb << 8) ^ (bb << 3) ^ (bb >> 4)
	}
	var out [CRC16Size]byte
	binary.LittleEndian.PutUint16(out[:], crc)
	return out
}

// CRC32 is the DESFire CRC32: the reflected IEEE polynomial with initial value
// 0xFFFFFFFF and no final inversion, returned low byte first.
func CRC32(data []byte) [CRC32Size]byte {
	var out [CRC32Size]byte
	binary.LittleEndian.PutUint32(out[:], ^crc32.ChecksumIEEE(data))
	return out
}

// AppendCRC16 appends CRC16(data) to data.
func AppendCRC16(data []byte) []byte {
	crc := CRC16(data)
	return append(data, crc[:]...)
}

// AppendCRC32 appends CRC32(data) to data.
func AppendCRC32(data []byte) []byte {
	crc := CRC32(data)
	return append(data, crc[:]...)
}

// LocateCRC finds where the CRC starts in decrypted, zero padded data. Only
// buf[:searchLimit] is considered. Trailing zeros are skipped, then the
// crcWidth+2 candidate offsets ending there are tried from the shortest
// payload up. CRC16 covers the payload, CRC32 covers the payload followed by
// status. It returns the payload length, or 0 when nothing matches or
// crcWidth is not CRC16Size or CRC32Size.
//
// Shortest first matters: a CRC without final inversion run over a message
// and its own CRC is zero, so a CRC16 followed by zero padding also matches
// two bytes further on.
func LocateCRC(buf []byte, searchLimit int, status byte, crcWidth int) int {
	if crcWidth != CRC16Size && crcWidth != CRC32Size {
		return 0
	}
	if searchLimit > len(buf) {
		searchLimit = len(buf)
	}
	if searchLimit <= 0 {
		return 0
	}

	end := searchLimit - 1
	for end > 0 && buf[end] == 0x00 {
		end--
	}
	end++
	if end < crcWidth {
		return 0
	}

	for i := crcWidth + 1; i >= 0; i-- {
		pos := end - i
		if pos <= 0 || pos+crcWidth > searchLimit {
			continue
		}
		if crcMatches(buf[:pos], buf[pos:pos+crcWidth], status) {
			return pos
		}
	}
	return 0
}

func crcMatches(payload, crc []byte, status byte) bool {
	if len(crc) == CRC16Size {
		want := CRC16(payload)
		return bytes.Equal(want[:], crc)
	}
	in := make([]byte, len(payload)+1)
	copy(in, payload)
	in[len(payload)] = status
	want := CRC32(in)
	return bytes.Equal(want[:], crc)
}
