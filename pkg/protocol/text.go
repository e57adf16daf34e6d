package protocol

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"unicode/utf16"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
)

// Interprets reassembled bytes as text for delivery
func DecodePayload(data []byte, encoding string) (text string, err error) {
	switch encoding {
	case EncodingUTF16LE, "":
		if len(data)%2 != 0 {
			err = fmt.Errorf("utf-16 payload has odd length %d", len(data))
			return
		}
		// The decoder substitutes U+FFFD for unpaired surrogates
		if err = checkSurrogates(data); err != nil {
			return
		}
		decoder := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
		var decoded []byte
		decoded, err = decoder.Bytes(data)
		if err != nil {
			err = fmt.Errorf("failed utf-16 decode: %w", err)
			return
		}
		text = string(decoded)
	case EncodingUTF8:
		if !utf8.Valid(data) {
			err = fmt.Errorf("payload is not valid utf-8")
			return
		}
		text = string(data)
	case EncodingBase64:
		text = base64.StdEncoding.EncodeToString(data)
	default:
		err = fmt.Errorf("unknown payload encoding %q", encoding)
	}
	return
}

// Rejects little-endian UTF-16 containing unpaired surrogate code units
func checkSurrogates(data []byte) (err error) {
	for offset := 0; offset < len(data); offset += 2 {
		unit := rune(binary.LittleEndian.Uint16(data[offset:]))
		if !utf16.IsSurrogate(unit) {
			continue
		}
		if unit >= 0xDC00 {
			err = fmt.Errorf("unpaired low surrogate %#04x at byte %d", unit, offset)
			return
		}
		if offset+4 > len(data) {
			err = fmt.Errorf("unpaired high surrogate %#04x at byte %d", unit, offset)
			return
		}
		next := rune(binary.LittleEndian.Uint16(data[offset+2:]))
		if next < 0xDC00 || next > 0xDFFF {
			err = fmt.Errorf("unpaired high surrogate %#04x at byte %d", unit, offset)
			return
		}
		offset += 2
	}
	return
}

// Inverse of DecodePayload for text encodings
func EncodeText(text string, encoding string) (data []byte, err error) {
	switch encoding {
	case EncodingUTF16LE, "":
		encoder := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder()
		data, err = encoder.Bytes([]byte(text))
	case EncodingUTF8:
		data = []byte(text)
	case EncodingBase64:
		data, err = base64.StdEncoding.DecodeString(text)
	default:
		err = fmt.Errorf("unknown payload encoding %q", encoding)
	}
	return
}

// Reports whether encoding is understood by DecodePayload
func ValidEncoding(encoding string) (valid bool) {
	switch encoding {
	case EncodingUTF16LE, EncodingUTF8, EncodingBase64:
		valid = true
	}
	return
}
