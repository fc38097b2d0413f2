package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// OptionsShape records which of the two historical shapes the options were captured in
type OptionsShape int

const (
	OptionsList OptionsShape = iota
	OptionsKeyed
)

// Option is one candidate answer
type Option struct {
	Key  string `json:"key"`
	Text string `json:"text"`
}

// Options is the canonical form of a question's candidate answers. Older content stored
// options as a plain array, newer content as an object keyed by letter; both are
// normalized to an ordered slice here.
type Options struct {
	Shape OptionsShape
	Items []Option
}

// ParseOptions parses an options column
func ParseOptions(raw string) (Options, error) {
	var o Options
	if strings.TrimSpace(raw) == "" {
		return o, nil
	}
	if err := json.Unmarshal([]byte(raw), &o); err != nil {
		return Options{}, fmt.Errorf("failed to parse options: %w", err)
	}
	return o, nil
}

// Texts returns the option texts in canonical order
func (o Options) Texts() []string {
	out := make([]string, len(o.Items))
	for i, item := range o.Items {
		out[i] = item.Text
	}
	return out
}

func (o Options) Len() int {
	return len(o.Items)
}

func (o *Options) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*o = Options{Shape: OptionsList}
		return nil

	case data[0] == '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		items := make([]Option, 0, len(raw))
		for i, entry := range raw {
			item, err := listOption(i, entry)
			if err != nil {
				return err
			}
			items = append(items, item)
		}
		*o = Options{Shape: OptionsList, Items: items}
		return nil

	case data[0] == '{':
		var raw map[string]json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		keys := make([]string, 0, len(raw))
		for k := range raw {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		items := make([]Option, 0, len(keys))
		for _, k := range keys {
			text, err := scalarString(raw[k])
			if err != nil {
				return fmt.Errorf("option %q: %w", k, err)
			}
			items = append(items, Option{Key: k, Text: text})
		}
		*o = Options{Shape: OptionsKeyed, Items: items}
		return nil

	default:
		return fmt.Errorf("options must be an array or an object")
	}
}

// MarshalJSON always emits the canonical list of {key, text}
func (o Options) MarshalJSON() ([]byte, error) {
	if o.Items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(o.Items)
}

// listOption accepts a scalar or an already canonical {key, text} object
func listOption(index int, entry json.RawMessage) (Option, error) {
	trimmed := bytes.TrimSpace(entry)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var item Option
		if err := json.Unmarshal(trimmed, &item); err != nil {
			return Option{}, err
		}
		if item.Key == "" {
			item.Key = strconv.Itoa(index)
		}
		return item, nil
	}
	text, err := scalarString(trimmed)
	if err != nil {
		return Option{}, fmt.Errorf("option %d: %w", index, err)
	}
	return Option{Key: strconv.Itoa(index), Text: text}, nil
}
