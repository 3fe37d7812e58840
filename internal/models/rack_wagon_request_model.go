package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// RackWagonRequest is the body accepted by POST. A body carrying both
// SetWagonLimit and RackID configures the operator settings, anything else is
// treated as a wagon append.
type RackWagonRequest struct {
	SetWagonLimit *LenientInt `json:"set_wagon_limit"`
	RackID        *string     `json:"rackId"`
	Status        *string     `json:"status"`
}

func (req *RackWagonRequest) IsSetLimit() bool {
	return req.SetWagonLimit != nil && req.RackID != nil
}

// LenientInt accepts JSON numbers, numeric strings and booleans and coerces
// them to an integer. Fractions are truncated toward zero and strings are read
// up to their first non numeric character, so "12 wagons" is 12 and "abc" is 0.
type LenientInt int

func (li *LenientInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("empty value for integer")
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*li = LenientInt(leadingInt(s))
		return nil
	case 't':
		*li = 1
		return nil
	case 'f':
		*li = 0
		return nil
	}

	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("could not coerce %s to an integer: %w", data, err)
	}
	*li = LenientInt(clampTrunc(f))
	return nil
}

func leadingInt(s string) int {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)

	end := 0
	for end < len(s) {
		c := s[end]
		if (c >= '0' && c <= '9') || c == '.' || c == 'e' || c == 'E' ||
			((c == '-' || c == '+') && (end == 0 || s[end-1] == 'e' || s[end-1] == 'E')) {
			end++
			continue
		}
		break
	}

	// shrink until we have something ParseFloat accepts, "1e" and "1." style prefixes included
	for ; end > 0; end-- {
		if f, err := strconv.ParseFloat(s[:end], 64); err == nil {
			return clampTrunc(f)
		}
	}
	return 0
}

func clampTrunc(f float64) int {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt64:
		return math.MaxInt64
	case f <= math.MinInt64:
		return math.MinInt64
	}
	return int(f)
}
