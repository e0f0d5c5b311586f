package passes

// registry is the process-wide name→pass table (spec.md §4.4:
// "registration is process-wide and happens eagerly on startup").
// Deliberate global mutable state, matching internal/cfg's analysis
// cache and the teacher's own package-level registries
// (internal/types/registry.go).
var registry = map[string]Pass{}

// Register adds p to the process-wide registry under p.Name(),
// overwriting any previous registration of the same name. Intended to
// be called from package-level init() functions of pass-implementing
// packages, not at pipeline-run time.
func Register(p Pass) {
	registry[p.Name()] = p
}

// Lookup finds a registered pass by name.
func Lookup(name string) (Pass, bool) {
	p, ok := registry[name]
	return p, ok
}

// Registered returns every currently-registered pass name, for
// diagnostics and tests. Order is unspecified.
func Registered() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}

// reset clears the registry. Test-only: package tests register
// throwaway fake passes and must not leak them into other tests.
func reset() {
	registry = map[string]Pass{}
}
