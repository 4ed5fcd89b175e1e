package observe

// OpMeta describes one synchronization operation for telemetry.
// Queries set Family; mutations set Kind.
type OpMeta struct {
	Op     string // "query" or "mutate"
	Family string // cache key family, for queries
	Kind   string // mutation kind, for mutations
}

// QueryMeta builds metadata for a query against a key family.
func QueryMeta(family string) OpMeta {
	return OpMeta{Op: "query", Family: family}
}

// MutationMeta builds metadata for a mutation of the given kind.
func MutationMeta(kind string) OpMeta {
	return OpMeta{Op: "mutate", Kind: kind}
}

// SpanName returns the deterministic span name for this operation.
// Format: sync.query.<family> or sync.mutate.<kind>.
func (m OpMeta) SpanName() string {
	switch m.Op {
	case "mutate":
		return "sync.mutate." + m.Kind
	default:
		return "sync.query." + m.Family
	}
}

// Subject returns the family or kind, whichever the operation has.
func (m OpMeta) Subject() string {
	if m.Kind != "" {
		return m.Kind
	}
	return m.Family
}
