package parser

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/jwalitptl/opd-scheduler/internal/model"
)

// Empirically tuned scoring weights, preserved for behavioral
// compatibility with the deployed matcher.
const (
	prefixBonus  = 0.6
	keywordBonus = 0.5
	fuzzyWeight  = 0.35
	subsetFloor  = 1.0

	// The free-text path accepts any positive score. Flagged for product
	// review before introducing a confidence cutoff.
	minFreeTextScore = 0.0
)

var (
	reHonorific = regexp.MustCompile(`(?i)\b(dr|mr|mrs|ms|prof)\.?\b`)
	reWordToken = regexp.MustCompile(`[a-z']+`)
	reNonAlnum  = regexp.MustCompile(`[^a-z0-9\s]`)
	reSpaces    = regexp.MustCompile(`\s+`)
)

// Tokens lowercases text, strips honorific titles, and returns alphabetic
// tokens longer than one character.
func Tokens(text string) []string {
	if text == "" {
		return nil
	}
	text = reHonorific.ReplaceAllString(text, " ")
	var out []string
	for _, t := range reWordToken.FindAllString(strings.ToLower(text), -1) {
		if len(t) > 1 {
			out = append(out, t)
		}
	}
	return out
}

func tokenSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, t := range Tokens(text) {
		set[t] = true
	}
	return set
}

// normalizeName folds accents, drops honorifics and punctuation, and
// collapses whitespace.
func normalizeName(s string) string {
	if s == "" {
		return ""
	}
	decomposed := norm.NFKD.String(s)
	var b strings.Builder
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	s = strings.ToLower(b.String())
	s = reHonorific.ReplaceAllString(s, " ")
	s = reNonAlnum.ReplaceAllString(s, " ")
	return strings.TrimSpace(reSpaces.ReplaceAllString(s, " "))
}

// Matcher fuzzy-resolves name fragments against the doctor directory.
type Matcher struct{}

func NewMatcher() *Matcher {
	return &Matcher{}
}

// Match scores every doctor against free text and returns the best
// candidate, or nil when nothing scores above zero. Deliberately a
// heuristic: ambiguous fragments can mis-match.
func (m *Matcher) Match(text string, doctors []model.Doctor) *model.Doctor {
	toks := tokenSet(text)
	msgNorm := normalizeName(text)
	if len(toks) == 0 && msgNorm == "" {
		return nil
	}

	var best *model.Doctor
	bestScore := minFreeTextScore
	for i := range doctors {
		d := &doctors[i]
		nameNorm := normalizeName(d.Name)
		dtoks := tokenSet(d.Name)
		if nameNorm == "" && len(dtoks) == 0 {
			continue
		}

		overlap := 0
		for t := range toks {
			if dtoks[t] {
				overlap++
			}
		}
		score := 0.0
		if len(dtoks) > 0 {
			score = float64(overlap) / float64(len(dtoks))
		}

		for t := range toks {
			if len(t) > 2 && strings.HasPrefix(nameNorm, t) {
				score += prefixBonus
				break
			}
		}

		for _, kw := range d.Keywords {
			k := normalizeName(kw)
			if k == "" {
				continue
			}
			if toks[k] || strings.Contains(msgNorm, k) {
				score += keywordBonus
				break
			}
		}

		if msgNorm != "" && nameNorm != "" {
			score += fuzzyWeight * similarityRatio(nameNorm, msgNorm)
		}

		if len(dtoks) > 0 && isSubset(dtoks, toks) && score < subsetFloor {
			score = subsetFloor
		}

		if score > bestScore {
			best = d
			bestScore = score
		}
	}
	return best
}

// MatchNameField resolves a clean "Name:" field value. It trusts the
// field more than free text: exact normalized match first, then strict
// token-subset (tie-break by most tokens matched), then a lenient overlap
// fallback for partial names like "Dr. Asish" vs "Dr. Asish Rajak".
func (m *Matcher) MatchNameField(name string, doctors []model.Doctor) *model.Doctor {
	nameNorm := normalizeName(name)
	if nameNorm == "" {
		return nil
	}
	for i := range doctors {
		if normalizeName(doctors[i].Name) == nameNorm {
			return &doctors[i]
		}
	}

	toks := tokenSet(name)
	var best *model.Doctor
	bestTokens := 0
	for i := range doctors {
		dtoks := tokenSet(doctors[i].Name)
		if len(dtoks) > 0 && isSubset(dtoks, toks) && len(dtoks) > bestTokens {
			best = &doctors[i]
			bestTokens = len(dtoks)
		}
	}
	if best != nil {
		return best
	}

	// Overlap relative to the smaller token set, so a bare first name
	// still lands on its owner.
	var fallback *model.Doctor
	bestScore := 0.0
	for i := range doctors {
		dtoks := tokenSet(doctors[i].Name)
		if len(dtoks) == 0 {
			continue
		}
		overlap := 0
		for t := range toks {
			if dtoks[t] {
				overlap++
			}
		}
		if overlap == 0 {
			continue
		}
		denom := len(toks)
		if len(dtoks) < denom {
			denom = len(dtoks)
		}
		if denom == 0 {
			continue
		}
		score := float64(overlap) / float64(denom)
		if score > bestScore {
			fallback = &doctors[i]
			bestScore = score
		}
	}
	if fallback != nil && bestScore >= 0.5 {
		return fallback
	}
	return nil
}

func isSubset(sub, super map[string]bool) bool {
	for t := range sub {
		if !super[t] {
			return false
		}
	}
	return true
}

// similarityRatio is a character-level similarity in [0,1]: twice the
// total length of matching blocks over the combined length
// (Ratcliff/Obershelp, as in Python's difflib).
func similarityRatio(a, b string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}
	matched := matchingTotal(a, b)
	return 2.0 * float64(matched) / float64(len(a)+len(b))
}

func matchingTotal(a, b string) int {
	ai, bi, size := longestMatch(a, b)
	if size == 0 {
		return 0
	}
	total := size
	total += matchingTotal(a[:ai], b[:bi])
	total += matchingTotal(a[ai+size:], b[bi+size:])
	return total
}

func longestMatch(a, b string) (int, int, int) {
	bestA, bestB, bestLen := 0, 0, 0
	// lengths[j] holds the common-suffix length ending at a[i-1], b[j-1]
	lengths := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		prev := 0
		for j := 1; j <= len(b); j++ {
			cur := lengths[j]
			if a[i-1] == b[j-1] {
				lengths[j] = prev + 1
				if lengths[j] > bestLen {
					bestLen = lengths[j]
					bestA = i - bestLen
					bestB = j - bestLen
				}
			} else {
				lengths[j] = 0
			}
			prev = cur
		}
	}
	return bestA, bestB, bestLen
}
