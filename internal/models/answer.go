package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Answer is a stored correct answer or a submitted answer. Single-value answers have one
// entry; multi-select answers keep their entries in the order they were given.
type Answer []string

// String joins the entries with commas, so a single value is rendered as itself
func (a Answer) String() string {
	return strings.Join(a, ",")
}

// IsEmpty reports whether no value was supplied; blank entries do not count
func (a Answer) IsEmpty() bool {
	for _, v := range a {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// StorageValue is the form persisted in TEXT columns: the bare value, or a JSON array for several
func (a Answer) StorageValue() string {
	if len(a) == 1 {
		return a[0]
	}
	raw, _ := json.Marshal([]string(a))
	return string(raw)
}

// UnmarshalJSON accepts a string, number, boolean or an array of those
func (a *Answer) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = nil
		return nil
	}

	if data[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		out := make(Answer, 0, len(items))
		for _, item := range items {
			s, err := scalarString(item)
			if err != nil {
				return err
			}
			out = append(out, s)
		}
		*a = out
		return nil
	}

	s, err := scalarString(data)
	if err != nil {
		return err
	}
	*a = Answer{s}
	return nil
}

func (a Answer) MarshalJSON() ([]byte, error) {
	if len(a) == 1 {
		return json.Marshal(a[0])
	}
	return json.Marshal([]string(a))
}

// ParseStoredAnswer reads an answer column that holds either a bare value or a JSON array
func ParseStoredAnswer(raw string) Answer {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "[") {
		var a Answer
		if err := json.Unmarshal([]byte(trimmed), &a); err == nil {
			return a
		}
	}
	return Answer{raw}
}

// ParseAnswerList strictly parses a JSON array answer, as stored for choice questions
func ParseAnswerList(raw string) (Answer, error) {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "[") {
		return nil, fmt.Errorf("answer is not a JSON array: %q", raw)
	}
	var a Answer
	if err := json.Unmarshal([]byte(trimmed), &a); err != nil {
		return nil, fmt.Errorf("failed to parse answer: %w", err)
	}
	return a, nil
}

// scalarString coerces a JSON scalar to its string representation
func scalarString(data json.RawMessage) (string, error) {
	var v interface{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return "", err
	}

	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case bool:
		return strconv.FormatBool(t), nil
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return strconv.FormatFloat(f, 'f', -1, 64), nil
		}
		return t.String(), nil
	default:
		return "", errors.New("answer values must be strings, numbers or booleans")
	}
}
