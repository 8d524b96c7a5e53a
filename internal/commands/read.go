package commands

import (
	"fmt"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"

	"github.com/tyemirov/codesum/internal/types"
)

// DecodeError reports the first byte that is not valid UTF-8.
type DecodeError struct {
	Offset int
	Byte   byte
}

func (decodeError *DecodeError) Error() string {
	return fmt.Sprintf("invalid UTF-8 byte 0x%02x at offset %d", decodeError.Byte, decodeError.Offset)
}

// ReadSourceText reads the file at path and decodes it according to mode.
//
// #nosec G304
func ReadSourceText(path string, mode types.DecodingMode) (string, error) {
	fileBytes, readError := os.ReadFile(path)
	if readError != nil {
		return "", readError
	}
	return DecodeSourceText(fileBytes, mode)
}

// DecodeSourceText converts raw bytes into text. DecodingReplace never fails:
// invalid sequences become U+FFFD. Any other mode rejects invalid UTF-8.
func DecodeSourceText(data []byte, mode types.DecodingMode) (string, error) {
	if mode == types.DecodingReplace {
		decoded, decodeError := unicode.UTF8.NewDecoder().Bytes(data)
		if decodeError != nil {
			return "", decodeError
		}
		return string(decoded), nil
	}
	if utf8.Valid(data) {
		return string(data), nil
	}
	return "", firstInvalidByte(data)
}

func firstInvalidByte(data []byte) *DecodeError {
	offset := 0
	for offset < len(data) {
		runeValue, runeSize := utf8.DecodeRune(data[offset:])
		if runeValue == utf8.RuneError && runeSize <= 1 {
			return &DecodeError{Offset: offset, Byte: data[offset]}
		}
		offset += runeSize
	}
	return &DecodeError{Offset: len(data)}
}
