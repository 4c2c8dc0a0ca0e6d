package store

import "time"

// Fact is a single assertion under a profile, keyed by a dot-separated
// concept path. At least one of V1/V2/V3 must be non-empty; (Profile, Key)
// is unique within the store.
type Fact struct {
	ID          int64
	Profile     string
	Key         string
	Kind        string
	V1          string // brief, <=~10 tokens
	V2          string // standard, <=~50 tokens
	V3          string // full, <=~200 tokens
	Weight      float64
	AccessCount int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// BestText returns the most detailed non-empty variant, preferring V3 then
// V2 then V1 — used when a caller needs a single text for a fact without
// caring about tier.
func (f Fact) BestText() string {
	if f.V3 != "" {
		return f.V3
	}
	if f.V2 != "" {
		return f.V2
	}
	return f.V1
}

// TextForTier returns the text variant appropriate to a context-assembler
// tier (1, 2, or 3), falling back to the best available text if the exact
// tier's variant is empty.
func (f Fact) TextForTier(tier int) string {
	switch tier {
	case 1:
		if f.V1 != "" {
			return f.V1
		}
	case 2:
		if f.V2 != "" {
			return f.V2
		}
		if f.V1 != "" {
			return f.V1
		}
	case 3:
		return f.BestText()
	}
	return f.BestText()
}

// Profile groups facts under a profile id (e.g. "primary_user",
// "family.mom", "core.values"). Deleting a profile cascades to its facts.
type Profile struct {
	ID              string
	Type            string // user, machine, family, friend, value, constraint, style, ...
	TrustLevel      float64
	ContextPriority int
	CreatedAt       time.Time
}

// Link is an undirected weighted edge between two concepts. ConceptA is
// always lexicographically <= ConceptB (the canonical pair order).
type Link struct {
	ConceptA  string
	ConceptB  string
	Strength  float64
	FireCount int64
	FirstSeen time.Time
	LastFired time.Time
	// LastDecayDay is the UTC floor-day decay was last applied on, used to
	// make repeated same-day decay() calls idempotent.
	LastDecayDay int64
}

// CooccurrenceRecord counts how often two concepts appeared together
// inside a consolidation window.
type CooccurrenceRecord struct {
	ConceptA string
	ConceptB string
	Count    int64
	LastSeen time.Time
}

// FactRelevanceRow is the last-computed dimensional score breakdown for a
// fact under some query context, written during consolidation as
// telemetry and reused by introspection.
type FactRelevanceRow struct {
	FactID       int64
	Query        string
	Identity     float64
	Log          float64
	Form         float64
	Philosophy   float64
	Reflex       float64
	Cooccurrence float64
	Embedding    float64
	Spread       float64
	Keyword      float64
	Final        float64
	ComputedAt   time.Time
}

// TempFactStatus is the lifecycle state of a TempFact.
type TempFactStatus string

const (
	TempFactPending   TempFactStatus = "pending"
	TempFactPromoted  TempFactStatus = "promoted"
	TempFactDiscarded TempFactStatus = "discarded"
)

// TempFact is a short-lived observation extracted from a conversation
// turn. Never mutated after reaching a terminal status.
type TempFact struct {
	ID         int64
	SessionID  string
	Profile    string
	Key        string
	Kind       string
	V1         string
	V2         string
	V3         string
	Status     TempFactStatus
	Retries    int
	CreatedAt  time.Time
	ResolvedAt *time.Time
}

// Event is a timestamped, append-only record in the log thread.
type Event struct {
	ID        int64
	Kind      string
	Source    string
	Message   string
	Payload   string // JSON-encoded structured payload, optional
	CreatedAt time.Time
}

// DeferredConflict is a row in the deferred-confirmation queue: a write
// that conflicted with a stored value and awaits user confirmation.
type DeferredConflict struct {
	ID           string
	Profile      string
	Key          string
	ExistingText string
	ProposedText string
	ProposedV1   string
	ProposedV2   string
	ProposedV3   string
	Weight       float64
	CreatedAt    time.Time
	ExpiresAt    time.Time
}

// LoopDescriptor configures a background periodic activity.
type LoopDescriptor struct {
	Name                 string
	PeriodSeconds         int
	CooldownOnErrorSecs   int
	MaxConsecutiveErrors int
	Enabled              bool
	ConsecutiveErrors    int
	LastRun              time.Time
	LastError            string
}

// TriggerDescriptor configures an event-driven background activity.
type TriggerDescriptor struct {
	ID             string
	Predicate      string // description of the predicate, e.g. event kind match
	CooldownSecs   int
	FireCount      int64
	LastFired      time.Time
}
