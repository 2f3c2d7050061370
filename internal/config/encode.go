package config

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// normalize moves Extra entries that shadow a named field into that field.
// A shadowing entry is rejected when the field is already set or the value
// has the wrong type, since the inline map cannot carry it.
func normalize(d *Document) error {
	for _, key := range []string{KeyEnabled, KeyStandalone, KeyFlag} {
		v, ok := d.Extra[key]
		if !ok {
			continue
		}
		if _, set := d.Lookup(key); set {
			return fmt.Errorf("%w: key %q set both as field and in Extra", ErrInvalid, key)
		}
		switch key {
		case KeyEnabled, KeyStandalone:
			b, ok := v.(bool)
			if !ok {
				return fmt.Errorf("%w: %s is %T, want bool", ErrInvalid, key, v)
			}
			if key == KeyEnabled {
				d.Enabled = Bool(b)
			} else {
				d.Standalone = Bool(b)
			}
		case KeyFlag:
			s, ok := v.(string)
			if !ok {
				return fmt.Errorf("%w: %s is %T, want string", ErrInvalid, key, v)
			}
			d.Flag = String(s)
		}
		delete(d.Extra, key)
	}
	if len(d.Extra) == 0 {
		d.Extra = nil
	}
	return nil
}

// encodable returns d with every float in Extra wrapped so it is written with a
// fractional part. Without it 1.0 is written as 1 and reads back as an int.
func encodable(d Document) Document {
	if d.Extra != nil {
		d.Extra = encodeValue(d.Extra).(map[string]any)
	}
	return d
}

func encodeValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = encodeValue(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = encodeValue(e)
		}
		return out
	case float64:
		return floatValue(t)
	case float32:
		return floatValue(t)
	}
	return v
}

type floatValue float64

func (f floatValue) MarshalYAML() (any, error) {
	v := float64(f)
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return v, nil
	}
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: s}, nil
}
