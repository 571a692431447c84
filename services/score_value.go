package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ScoreValue accepts a JSON number, a numeric string or a boolean (1 or 0).
// Fractional numbers are truncated toward zero. A missing field leaves it
// unset; an explicit null is rejected.
type ScoreValue struct {
	Value int
	Set   bool
}

var errNullScore = errors.New("score may not be null")

func (v *ScoreValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch string(data) {
	case "null":
		return errNullScore
	case "true":
		*v = ScoreValue{Value: 1, Set: true}
		return nil
	case "false":
		*v = ScoreValue{Value: 0, Set: true}
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return fmt.Errorf("invalid score %q: must be an integer", s)
		}
		*v = ScoreValue{Value: n, Set: true}
		return nil
	}

	if n, err := strconv.ParseInt(string(data), 10, 64); err == nil {
		*v = ScoreValue{Value: int(n), Set: true}
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("invalid score %s: must be a number", data)
	}
	f = math.Trunc(f)
	if f >= math.MaxInt64 || f < math.MinInt64 {
		return fmt.Errorf("invalid score %s: out of range", data)
	}
	*v = ScoreValue{Value: int(f), Set: true}
	return nil
}

func (v ScoreValue) MarshalJSON() ([]byte, error) {
	if !v.Set {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(v.Value)), nil
}

// Score builds a set ScoreValue.
func Score(n int) ScoreValue {
	return ScoreValue{Value: n, Set: true}
}
