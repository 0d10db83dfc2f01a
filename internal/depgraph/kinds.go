package depgraph

// Kind is a typed dependency relation, spec.md §3. Every kind has a
// symmetric inverse the graph maintains automatically.
type Kind int

const (
	Requires Kind = iota
	RequiredBy
	Requisite
	RequisiteOf
	Wants
	WantedBy
	BindsTo
	BoundBy
	PartOf
	ConsistsOf
	Upholds
	UpheldBy
	Conflicts
	ConflictedBy
	Before
	After
	OnFailure
	OnFailureOf
	Triggers
	TriggeredBy
	PropagatesReloadTo
	ReloadPropagatedFrom
	JoinsNamespaceOf
	References
	ReferencedBy
)

var names = map[Kind]string{
	Requires:              "Requires",
	RequiredBy:            "RequiredBy",
	Requisite:             "Requisite",
	RequisiteOf:           "RequisiteOf",
	Wants:                 "Wants",
	WantedBy:              "WantedBy",
	BindsTo:                "BindsTo",
	BoundBy:               "BoundBy",
	PartOf:                "PartOf",
	ConsistsOf:            "ConsistsOf",
	Upholds:               "Upholds",
	UpheldBy:              "UpheldBy",
	Conflicts:             "Conflicts",
	ConflictedBy:          "ConflictedBy",
	Before:                "Before",
	After:                 "After",
	OnFailure:             "OnFailure",
	OnFailureOf:           "OnFailureOf",
	Triggers:              "Triggers",
	TriggeredBy:           "TriggeredBy",
	PropagatesReloadTo:    "PropagatesReloadTo",
	ReloadPropagatedFrom:  "ReloadPropagatedFrom",
	JoinsNamespaceOf:      "JoinsNamespaceOf",
	References:            "References",
	ReferencedBy:          "ReferencedBy",
}

func (k Kind) String() string {
	if s, ok := names[k]; ok {
		return s
	}
	return "unknown"
}

// inverses maps each kind to its symmetric counterpart. JoinsNamespaceOf has
// no published inverse in spec.md §3 -- it is its own inverse, mirroring how
// systemd treats a small number of dependency types as one-directional-only
// bookkeeping with a self-referential symmetric slot.
var inverses = map[Kind]Kind{
	Requires:             RequiredBy,
	RequiredBy:           Requires,
	Requisite:            RequisiteOf,
	RequisiteOf:          Requisite,
	Wants:                WantedBy,
	WantedBy:             Wants,
	BindsTo:              BoundBy,
	BoundBy:              BindsTo,
	PartOf:               ConsistsOf,
	ConsistsOf:           PartOf,
	Upholds:              UpheldBy,
	UpheldBy:             Upholds,
	Conflicts:            ConflictedBy,
	ConflictedBy:         Conflicts,
	Before:               After,
	After:                Before,
	OnFailure:            OnFailureOf,
	OnFailureOf:          OnFailure,
	Triggers:             TriggeredBy,
	TriggeredBy:          Triggers,
	PropagatesReloadTo:   ReloadPropagatedFrom,
	ReloadPropagatedFrom: PropagatesReloadTo,
	JoinsNamespaceOf:     JoinsNamespaceOf,
	References:           ReferencedBy,
	ReferencedBy:         References,
}

// Inverse returns k's symmetric counterpart.
func Inverse(k Kind) Kind { return inverses[k] }

// Strong reports whether k is one of the edges the garbage collector
// traces for reachability (spec.md §4.6): Requires, BindsTo, PartOf,
// References, and inbound TriggeredBy. Upholds is included per SPEC_FULL's
// supplement -- it is systemd's modern replacement for a Requires+Before
// idiom and must not be GC-severable independent of its strong cousins.
func Strong(k Kind) bool {
	switch k {
	case Requires, BindsTo, PartOf, References, TriggeredBy, Upholds:
		return true
	default:
		return false
	}
}
