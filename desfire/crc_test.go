package desfire

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCRC(t *testing.T) {
	data := mustDecodeString("04440F32763180")

	assert.Equal(t, [2]byte{0x27, 0x98}, CRC16(data))
	assert.Equal(t, [4]byte{0x99, 0xCE, 0x1A, 0xD4}, CRC32(append(append([]byte(nil), data...), 0x00)))

	// ISO/IEC 14443-3 Annex B: CRC_A of 00 00 is 1EA0.
	assert.Equal(t, [2]byte{0xA0, 0x1E}, CRC16([]byte{0x00, 0x00}))

	assert.Equal(t, mustDecodeString("04440F327631802798"), AppendCRC16(append([]byte(nil), data...)))
	assert.Equal(t, mustDecodeString("04440F3276318000 99CE1AD4"), AppendCRC32(append(append([]byte(nil), data...), 0x00)))
}

func TestCRCResidue(t *testing.T) {
	// A CRC over a message followed by its own CRC is zero.
	msg := mustDecodeString("9D00C4DF0102")
	assert.Equal(t, [2]byte{}, CRC16(AppendCRC16(append([]byte(nil), msg...))))
	assert.Equal(t, [4]byte{}, CRC32(AppendCRC32(append([]byte(nil), msg...))))
}

func TestLocateCRC16(t *testing.T) {
	data := mustDecodeString("04440F32763180279800000000000000")

	tests := []struct {
		limit int
		want  int
	}{
		{16, 7},
		{11, 7},
		{9, 7},
		{7, 0},
		{3, 0},
		{1, 0},
		{0, 0},
		{40, 7},
	}
	for _, test := range tests {
		assert.Equal(t, test.want, LocateCRC(data, test.limit, 0x00, CRC16Size), "limit %d", test.limit)
	}
}

func TestLocateCRC32(t *testing.T) {
	data := mustDecodeString("04440F3276318099CE1AD40000000000")

	tests := []struct {
		limit int
		want  int
	}{
		{16, 7},
		{11, 7},
		{5, 0},
		{4, 0},
		{2, 0},
	}
	for _, test := range tests {
		assert.Equal(t, test.want, LocateCRC(data, test.limit, 0x00, CRC32Size), "limit %d", test.limit)
	}

	// The status byte is part of the CRC32 input.
	assert.Equal(t, 0, LocateCRC(data, 16, 0xAF, CRC32Size))
}

func TestLocateCRCWithPadding(t *testing.T) {
	payload := mustDecodeString("0102030405")
	frame := AppendCRC32(append(append([]byte(nil), payload...), 0xAF))
	// Drop the status byte, keep the CRC, pad to two blocks.
	buf := make([]byte, 16)
	copy(buf, payload)
	copy(buf[len(payload):], frame[len(payload)+1:])
	buf[len(payload)+CRC32Size] = 0x80

	assert.Equal(t, len(payload), LocateCRC(buf, len(buf), 0xAF, CRC32Size))
}

func TestLocateCRCRejectsWidth(t *testing.T) {
	data := mustDecodeString("04440F32763180279800000000000000")
	assert.Equal(t, 0, LocateCRC(data, 16, 0x00, 3))
	assert.Equal(t, 0, LocateCRC(data, 16, 0x00, 0))
}
