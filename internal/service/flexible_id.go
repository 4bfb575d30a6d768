package service

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// FlexibleID is an identifier sent either as a JSON string or a JSON number.
// Numbers keep their literal text, so 42 becomes "42".
type FlexibleID string

func (id *FlexibleID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*id = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = FlexibleID(s)
		return nil
	}

	if _, err := strconv.ParseFloat(string(data), 64); err != nil {
		return fmt.Errorf("id must be a string or a number, got %s", data)
	}
	*id = FlexibleID(data)
	return nil
}

func (id FlexibleID) String() string {
	return string(id)
}

// Ptr returns nil for an empty id.
func (id FlexibleID) Ptr() *string {
	return stringPtr(string(id))
}
