package config

import "maps"

// Well-known document keys.
const (
	KeyEnabled    = "enabled"
	KeyStandalone = "standalone"
	KeyFlag       = "flag"
)

// Document is the persisted configuration of one challenge.
// Unknown keys survive a load/save cycle through Extra.
type Document struct {
	Enabled    *bool          `yaml:"enabled,omitempty"`
	Standalone *bool          `yaml:"standalone,omitempty"`
	Flag       *string        `yaml:"flag,omitempty"`
	Extra      map[string]any `yaml:",inline"`
}

// Bool returns a pointer to v, for filling optional Document fields.
func Bool(v bool) *bool { return &v }

// String returns a pointer to v, for filling optional Document fields.
func String(v string) *string { return &v }

// Lookup returns the value stored under key and whether it is present.
func (d Document) Lookup(key string) (any, bool) {
	switch key {
	case KeyEnabled:
		if d.Enabled == nil {
			return nil, false
		}
		return *d.Enabled, true
	case KeyStandalone:
		if d.Standalone == nil {
			return nil, false
		}
		return *d.Standalone, true
	case KeyFlag:
		if d.Flag == nil {
			return nil, false
		}
		return *d.Flag, true
	}
	v, ok := d.Extra[key]
	return v, ok
}

// Clone returns a deep copy of d.
func (d Document) Clone() Document {
	out := Document{}
	if d.Enabled != nil {
		out.Enabled = Bool(*d.Enabled)
	}
	if d.Standalone != nil {
		out.Standalone = Bool(*d.Standalone)
	}
	if d.Flag != nil {
		out.Flag = String(*d.Flag)
	}
	if len(d.Extra) > 0 {
		out.Extra = cloneMap(d.Extra)
	}
	return out
}

func cloneMap(m map[string]any) map[string]any {
	out := maps.Clone(m)
	for k, v := range out {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []any:
		s := make([]any, len(t))
		for i, e := range t {
			s[i] = cloneValue(e)
		}
		return s
	default:
		return v
	}
}
