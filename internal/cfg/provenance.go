package cfg

// PointerProvenance is a reserved extension point for tracking which
// allocation (if any) a pointer value is known to originate from. The
// spec leaves pointer provenance as an open question; this type names
// where that analysis would attach without committing to its design.
type PointerProvenance struct{}
