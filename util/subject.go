package util

import "strings"

// SubjectMatches reports whether subj matches pattern, which may contain the
// NATS wildcards * (exactly one token) and > (one or more trailing tokens).
func SubjectMatches(pattern, subj string) bool {
	if pattern == subj {
		return true
	}
	pTok := strings.Split(pattern, ".")
	sTok := strings.Split(subj, ".")
	for i, pt := range pTok {
		if pt == ">" {
			return i < len(sTok)
		}
		if i >= len(sTok) {
			return false
		}
		if pt != "*" && pt != sTok[i] {
			return false
		}
	}
	return len(sTok) == len(pTok)
}

// Token returns the i-th dot-separated token of subj, or "" when there is none.
func Token(subj string, i int) string {
	toks := strings.Split(subj, ".")
	if i < 0 || i >= len(toks) {
		return ""
	}
	return toks[i]
}
