package miistore

import (
	"encoding/base64"
	"encoding/binary"
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makePayload(t *testing.T, name string) []byte {
	t.Helper()
	payload := make([]byte, PayloadSize)
	units := utf16.Encode([]rune(name))
	require.LessOrEqual(t, len(units), nameChars)
	for i, u := range units {
		binary.BigEndian.PutUint16(payload[nameOffset+2*i:], u)
	}
	return payload
}

func TestDecodeExtractsName(t *testing.T) {
	mii, err := Decode(makePayload(t, "Alice"))
	require.NoError(t, err)
	assert.Equal(t, "Alice", mii.Name)
	assert.NotEmpty(t, mii.Checksum)

	raw, err := base64.StdEncoding.DecodeString(mii.PayloadBase64)
	require.NoError(t, err)
	assert.Len(t, raw, PayloadSize)
}

func TestDecodeFullLengthName(t *testing.T) {
	mii, err := Decode(makePayload(t, "ABCDEFGHIJ"))
	require.NoError(t, err)
	assert.Equal(t, "ABCDEFGHIJ", mii.Name)
}

func TestDecodeRejectsWrongSize(t *testing.T) {
	_, err := Decode(make([]byte, 73))
	assert.ErrorIs(t, err, ErrInvalidPayload)

	_, err = Decode(make([]byte, 75))
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestDecodeRejectsEmptyName(t *testing.T) {
	_, err := Decode(make([]byte, PayloadSize))
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestEncodeRoundTrip(t *testing.T) {
	payload := makePayload(t, "Bob")
	mii, err := Decode(payload)
	require.NoError(t, err)

	out, err := Encode(mii.PayloadBase64, mii.Checksum)
	require.NoError(t, err)
	assert.Equal(t, payload, out)
}

func TestEncodeDetectsCorruption(t *testing.T) {
	mii, err := Decode(makePayload(t, "Bob"))
	require.NoError(t, err)

	tampered := make([]byte, PayloadSize)
	copy(tampered, makePayload(t, "Eve"))

	_, err = Encode(base64.StdEncoding.EncodeToString(tampered), mii.Checksum)
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestEncodeRejectsBadBase64(t *testing.T) {
	_, err := Encode("not base64!!!", "")
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestObjectKey(t *testing.T) {
	assert.Equal(t, "miis/12/3.mii", ObjectKey(12, 3))
}
