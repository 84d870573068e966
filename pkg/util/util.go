package util

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// ParseHexUint64 parses a JSON-RPC quantity such as "0x1b4".
func ParseHexUint64(hexStr string) (uint64, error) {
	if len(hexStr) < 3 || hexStr[:2] != "0x" {
		return 0, fmt.Errorf("invalid hex quantity: %q", hexStr)
	}
	if hexStr == "0x0" {
		return 0, nil
	}
	return strconv.ParseUint(hexStr[2:], 16, 64)
}

// IsHexData reports whether s is 0x-prefixed, non-empty, even length hex.
func IsHexData(s string) bool {
	if !strings.HasPrefix(s, "0x") || len(s) < 4 {
		return false
	}
	_, err := hex.DecodeString(s[2:])
	return err == nil
}
