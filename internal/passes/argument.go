package passes

import "strconv"

// ArgKind is the kind of value a pass declares for one named argument.
type ArgKind int

const (
	ArgFlag ArgKind = iota
	ArgNumeric
	ArgString
	ArgEnum
)

// ArgSpec is one argument a pass accepts: its kind, and (for ArgEnum)
// the set of values it accepts.
type ArgSpec struct {
	Kind       ArgKind
	EnumValues []string
}

// ArgValue is one bound argument value, interpreted according to its
// ArgSpec's Kind.
type ArgValue struct {
	Kind ArgKind
	Bool bool
	Num  float64
	Str  string
}

// MatchResult is the outcome of binding one pipeline-string argument
// against a pass's declared ArgSpec.
type MatchResult int

const (
	Success MatchResult = iota
	UnknownArgument
	BadValue
)

// ArgumentMap is a pass's declared argument specs together with the
// values bound to them for one pipeline invocation. Passes clone their
// ArgumentMap when re-parameterized (spec.md §4.4) so that binding
// arguments for one scheduled invocation never perturbs another.
type ArgumentMap struct {
	specs  map[string]ArgSpec
	values map[string]ArgValue
}

// NewArgumentMap declares the arguments a pass accepts.
func NewArgumentMap(specs map[string]ArgSpec) *ArgumentMap {
	return &ArgumentMap{specs: specs, values: map[string]ArgValue{}}
}

// Clone returns a fresh ArgumentMap with the same declared specs and no
// bound values, ready for a new invocation.
func (m *ArgumentMap) Clone() *ArgumentMap {
	return &ArgumentMap{specs: m.specs, values: map[string]ArgValue{}}
}

// matchArgument binds one pipeline-string argument (key, optionally a
// raw textual value, or bare if no value followed a colon) against the
// declared spec for key.
func (m *ArgumentMap) matchArgument(key string, bare bool, raw string) MatchResult {
	spec, ok := m.specs[key]
	if !ok {
		return UnknownArgument
	}

	switch spec.Kind {
	case ArgFlag:
		val := true
		if !bare {
			switch raw {
			case "true":
				val = true
			case "false":
				val = false
			default:
				return BadValue
			}
		}
		m.values[key] = ArgValue{Kind: ArgFlag, Bool: val}

	case ArgNumeric:
		if bare {
			return BadValue
		}
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return BadValue
		}
		m.values[key] = ArgValue{Kind: ArgNumeric, Num: f}

	case ArgString:
		if bare {
			return BadValue
		}
		m.values[key] = ArgValue{Kind: ArgString, Str: raw}

	case ArgEnum:
		if bare {
			return BadValue
		}
		valid := false
		for _, v := range spec.EnumValues {
			if v == raw {
				valid = true
				break
			}
		}
		if !valid {
			return BadValue
		}
		m.values[key] = ArgValue{Kind: ArgEnum, Str: raw}
	}
	return Success
}

// Bool returns the bound Flag value for key, or false if unset.
func (m *ArgumentMap) Bool(key string) bool { return m.values[key].Bool }

// Num returns the bound Numeric value for key, or 0 if unset.
func (m *ArgumentMap) Num(key string) float64 { return m.values[key].Num }

// Str returns the bound String or Enum value for key, or "" if unset.
func (m *ArgumentMap) Str(key string) string { return m.values[key].Str }

// Has reports whether key was bound by the pipeline invocation.
func (m *ArgumentMap) Has(key string) bool {
	_, ok := m.values[key]
	return ok
}
