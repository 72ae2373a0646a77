package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// OptionSet decodes answer options from either a JSON array or an object keyed "0".."3".
// Decoding always yields OptionsPerQuestion slots; missing positions are empty strings.
type OptionSet []string

func (o *OptionSet) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*o = make(OptionSet, OptionsPerQuestion)
		return nil
	}

	if data[0] == '[' {
		var list []string
		if err := json.Unmarshal(data, &list); err != nil {
			return fmt.Errorf("decode option list: %w", err)
		}
		if len(list) > OptionsPerQuestion {
			return fmt.Errorf("option list has %d entries, want at most %d", len(list), OptionsPerQuestion)
		}
		out := make(OptionSet, OptionsPerQuestion)
		copy(out, list)
		*o = out
		return nil
	}

	var keyed map[string]string
	if err := json.Unmarshal(data, &keyed); err != nil {
		return fmt.Errorf("decode option map: %w", err)
	}
	type slot struct {
		pos  int
		text string
	}
	slots := make([]slot, 0, len(keyed))
	for k, v := range keyed {
		pos, err := strconv.Atoi(k)
		if err != nil || pos < 0 || pos >= OptionsPerQuestion {
			return fmt.Errorf("invalid option key %q", k)
		}
		slots = append(slots, slot{pos: pos, text: v})
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].pos < slots[j].pos })

	out := make(OptionSet, OptionsPerQuestion)
	for _, s := range slots {
		out[s.pos] = s.text
	}
	*o = out
	return nil
}
