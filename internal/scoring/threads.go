package scoring

// threadLexicons gives each fixed thread kind a small keyword lexicon used
// to compute its telemetry-only dimension, replacing the teacher's dynamic
// per-verb boost maps (internal/context/activation.go's verbPredicateBoosts)
// with a closed enumeration.
var threadLexicons = map[ThreadKind][]string{
	ThreadIdentity:   {"name", "identity", "who", "self", "persona", "am", "called"},
	ThreadLog:        {"happened", "said", "did", "event", "log", "session", "turn", "history"},
	ThreadForm:       {"format", "style", "tone", "structure", "layout", "markdown", "voice"},
	ThreadPhilosophy: {"believe", "value", "principle", "should", "philosophy", "ethic", "reason"},
	ThreadReflex:     {"always", "never", "rule", "constraint", "trigger", "reflex", "automatic"},
}

// ThreadLexicon returns the fixed keyword lexicon for a thread kind, used
// by internal/context to route queries to threads with the same
// vocabulary used for the telemetry breakdown.
func ThreadLexicon(kind ThreadKind) []string {
	return threadLexicons[kind]
}

// ComputeThreadBreakdown scores text against every fixed thread kind's
// keyword lexicon, each independently of the final blend.
func ComputeThreadBreakdown(text string) map[ThreadKind]float64 {
	tokens := tokenSet(text)
	out := make(map[ThreadKind]float64, len(AllThreadKinds))

	for _, kind := range AllThreadKinds {
		lexicon := threadLexicons[kind]
		if len(lexicon) == 0 {
			out[kind] = 0
			continue
		}
		hits := 0
		for _, term := range lexicon {
			if tokens[term] {
				hits++
			}
		}
		out[kind] = float64(hits) / float64(len(lexicon))
	}

	return out
}
