package encoding

import (
	"encoding/hex"
	"fmt"

	"github.com/arloliu/negentropy/errs"
)

// ToHex returns the lowercase hex encoding of data, two characters per byte
// with no separators.
func ToHex(data []byte) string {
	return hex.EncodeToString(data)
}

// FromHex decodes a lowercase or uppercase hex string into bytes.
//
// Odd-length or non-hex input fails with errs.ErrHexDecode.
func FromHex(s string) ([]byte, error) {
	data, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", errs.ErrHexDecode, s)
	}

	return data, nil
}
