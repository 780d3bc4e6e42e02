package rules

import "math"

// shannon returns the Shannon entropy of s in bits per byte. Random
// tokens (keys, signatures) sit well above natural language and
// identifier-like strings, which is what the credential heuristic keys
// on.
func shannon(s string) float64 {
	if len(s) == 0 {
		return 0
	}
	var freq [256]int
	for i := 0; i < len(s); i++ {
		freq[s[i]]++
	}
	total := float64(len(s))
	entropy := 0.0
	for _, n := range freq {
		if n == 0 {
			continue
		}
		p := float64(n) / total
		entropy -= p * math.Log2(p)
	}
	return entropy
}
