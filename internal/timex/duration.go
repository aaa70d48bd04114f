// Package timex holds time helpers for configuration files.
package timex

import (
	"encoding/json"
	"errors"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration decodes from either a Go duration string ("15m", "168h") or an
// integer number of nanoseconds, in JSON and in YAML.
type Duration struct {
	time.Duration
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	return d.set(v)
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var v any
	if err := node.Decode(&v); err != nil {
		return err
	}
	return d.set(v)
}

func (d *Duration) set(v any) error {
	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value)
	case int:
		d.Duration = time.Duration(value)
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		d.Duration = parsed
	default:
		return errors.New("invalid duration")
	}
	return nil
}
