package manifest

import "strings"

// Value is a scalar or a single-line inline table from the minimal TOML subset.
type Value struct {
	Scalar string
	Table  map[string]string
}

// IsTable reports whether the value was written as an inline table.
func (v Value) IsTable() bool { return v.Table != nil }

// Section is one [header] block. Keys keep their first-seen order.
type Section struct {
	keys   []string
	values map[string]Value
}

// Keys returns the section's keys in insertion order.
func (s *Section) Keys() []string { return s.keys }

// Get returns the value stored under key.
func (s *Section) Get(key string) (Value, bool) {
	v, ok := s.values[key]
	return v, ok
}

func (s *Section) set(key string, v Value) {
	if _, ok := s.values[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.values[key] = v
}

// Document maps section names to their contents.
type Document map[string]*Section

// Section returns the named section, or nil.
func (d Document) Section(name string) *Section { return d[name] }

// ParseSimpleTOML parses the TOML subset found in Cargo manifests: [section] headers,
// quoted or bare scalar values and inline tables that fit on one line. Arrays, multi-line
// values and dotted keys are not understood; such lines are kept as raw scalars or skipped.
// Key/value lines before the first header are ignored.
func ParseSimpleTOML(content string) Document {
	doc := Document{}
	var current *Section

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			name := strings.TrimSpace(line[1 : len(line)-1])
			sec, ok := doc[name]
			if !ok {
				sec = &Section{values: map[string]Value{}}
				doc[name] = sec
			}
			current = sec
			continue
		}

		if current == nil {
			continue
		}
		key, raw, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		key = strings.Trim(strings.TrimSpace(key), `"`)
		current.set(key, parseValue(strings.TrimSpace(raw)))
	}
	return doc
}

func parseValue(raw string) Value {
	switch {
	case len(raw) >= 2 && strings.HasPrefix(raw, `"`) && strings.HasSuffix(raw, `"`):
		return Value{Scalar: raw[1 : len(raw)-1]}
	case len(raw) >= 2 && strings.HasPrefix(raw, "'") && strings.HasSuffix(raw, "'"):
		return Value{Scalar: raw[1 : len(raw)-1]}
	case strings.HasPrefix(raw, "{") && strings.HasSuffix(raw, "}"):
		table := map[string]string{}
		for _, pair := range strings.Split(raw[1:len(raw)-1], ",") {
			k, v, found := strings.Cut(pair, "=")
			if !found {
				continue
			}
			table[strings.Trim(strings.TrimSpace(k), `"`)] = strings.Trim(strings.TrimSpace(v), `"`)
		}
		return Value{Table: table}
	default:
		return Value{Scalar: raw}
	}
}
