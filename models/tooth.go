package models

import (
	"fmt"
	"strings"
)

// FDI two-digit notation: the first digit is the quadrant (1-4 permanent,
// 5-8 deciduous), the second the position from the midline.
var toothPositions = map[byte]byte{
	'1': '8', '2': '8', '3': '8', '4': '8',
	'5': '5', '6': '5', '7': '5', '8': '5',
}

// IsValidTooth reports whether id is an FDI tooth code, "11".."48" or "51".."85".
func IsValidTooth(id string) bool {
	if len(id) != 2 {
		return false
	}
	maxPos, ok := toothPositions[id[0]]
	if !ok {
		return false
	}
	return id[1] >= '1' && id[1] <= maxPos
}

// NormalizeTeeth trims, validates and de-duplicates tooth codes, keeping first-seen order.
func NormalizeTeeth(ids []string) ([]string, error) {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, raw := range ids {
		id := strings.TrimSpace(raw)
		if !IsValidTooth(id) {
			return nil, fmt.Errorf("invalid tooth identifier %q", raw)
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("at least one tooth is required")
	}
	return out, nil
}
