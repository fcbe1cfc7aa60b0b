package miistore

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"unicode/utf16"
)

// Wii-format Mii blocks are exactly 74 bytes. The name sits at offset 2 as
// ten UTF-16BE code units, zero-padded.
const (
	PayloadSize = 74

	nameOffset = 2
	nameChars  = 10
)

var ErrInvalidPayload = errors.New("invalid Mii payload")

// Mii is a decoded Mii block ready for storage.
type Mii struct {
	Name          string
	PayloadBase64 string
	Checksum      string
}

// Decode validates a raw Mii block and extracts its display name. The
// payload itself is kept verbatim; only size and name plausibility are
// checked, the console is the authority on the rest of the format.
func Decode(payload []byte) (*Mii, error) {
	if len(payload) != PayloadSize {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidPayload, len(payload), PayloadSize)
	}

	units := make([]uint16, 0, nameChars)
	for i := 0; i < nameChars; i++ {
		u := binary.BigEndian.Uint16(payload[nameOffset+2*i:])
		if u == 0 {
			break
		}
		units = append(units, u)
	}
	name := strings.TrimSpace(string(utf16.Decode(units)))
	if name == "" {
		return nil, fmt.Errorf("%w: empty Mii name", ErrInvalidPayload)
	}

	sum := sha256.Sum256(payload)
	return &Mii{
		Name:          name,
		PayloadBase64: base64.StdEncoding.EncodeToString(payload),
		Checksum:      hex.EncodeToString(sum[:]),
	}, nil
}

// Encode returns the raw payload bytes for export, verifying the stored
// checksum on the way out.
func Encode(payloadBase64, checksum string) ([]byte, error) {
	payload, err := base64.StdEncoding.DecodeString(payloadBase64)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if len(payload) != PayloadSize {
		return nil, fmt.Errorf("%w: stored payload has %d bytes", ErrInvalidPayload, len(payload))
	}
	if checksum != "" {
		sum := sha256.Sum256(payload)
		if hex.EncodeToString(sum[:]) != checksum {
			return nil, fmt.Errorf("%w: checksum mismatch", ErrInvalidPayload)
		}
	}
	return payload, nil
}
