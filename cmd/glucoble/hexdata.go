package main

import (
	"encoding/hex"
	"fmt"
	"strings"
	"unicode"
)

// parseHex decodes hex typed by a human: bytes may be separated by spaces,
// colons, dashes or commas and each group may carry a 0x prefix.
func parseHex(s string) ([]byte, error) {
	groups := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == ':' || r == '-' || r == ','
	})
	for i, g := range groups {
		if len(g) > 2 && (g[:2] == "0x" || g[:2] == "0X") {
			groups[i] = g[2:]
		}
	}

	data, err := hex.DecodeString(strings.Join(groups, ""))
	if err != nil {
		return nil, fmt.Errorf("invalid hex data %q: %w", s, err)
	}
	return data, nil
}
