package scoring

import "strings"

// keywordOverlap returns a token-overlap ratio between query and text with
// mild IDF weighting: tokens that appear in fewer of the candidate facts
// carry more weight, approximated here via a corpus frequency map the
// caller supplies. With no corpus (nil/empty), every token weighs equally.
func keywordOverlap(queryTokens []string, text string, corpusFreq map[string]int, corpusSize int) float64 {
	if len(queryTokens) == 0 {
		return 0
	}

	textTokens := tokenSet(text)
	if len(textTokens) == 0 {
		return 0
	}

	var matched, totalWeight float64
	for _, qt := range queryTokens {
		weight := idfWeight(qt, corpusFreq, corpusSize)
		totalWeight += weight
		if textTokens[qt] {
			matched += weight
		}
	}

	if totalWeight == 0 {
		return 0
	}
	return matched / totalWeight
}

func idfWeight(token string, corpusFreq map[string]int, corpusSize int) float64 {
	if corpusFreq == nil || corpusSize == 0 {
		return 1.0
	}
	df := corpusFreq[token]
	if df == 0 {
		df = 1
	}
	// Mild IDF: a token found in every text weighs 0.625, rising linearly
	// to 1.0 for tokens found in a quarter of the texts or fewer.
	ratio := float64(corpusSize) / float64(df)
	weight := 0.5 + 0.5*clampRatio(ratio, 1, 4)/4
	return weight
}

func clampRatio(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func tokenSet(text string) map[string]bool {
	out := make(map[string]bool)
	for _, tok := range tokenize(text) {
		out[tok] = true
	}
	return out
}

func tokenize(text string) []string {
	lower := strings.ToLower(text)
	var out []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
	}
	for _, r := range lower {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			cur.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return out
}

// buildCorpusFreq counts token document-frequency across a set of fact
// texts, used to weight keyword overlap by mild IDF.
func buildCorpusFreq(texts []string) (map[string]int, int) {
	freq := make(map[string]int)
	for _, t := range texts {
		for tok := range tokenSet(t) {
			freq[tok]++
		}
	}
	return freq, len(texts)
}
