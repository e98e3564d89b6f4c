package classify

import (
	"strings"

	"golang.org/x/text/cases"
)

// KeywordSet matches case-insensitive substrings against filenames using
// Unicode case folding, so matching behaves the same for operators whose
// project names are not plain ASCII.
type KeywordSet struct {
	folded []string
}

// NewKeywordSet folds and stores the given keywords, preserving their order
// and dropping blanks.
func NewKeywordSet(keywords []string) *KeywordSet {
	set := &KeywordSet{}
	folder := cases.Fold()
	for _, keyword := range keywords {
		keyword = strings.TrimSpace(keyword)
		if keyword == "" {
			continue
		}
		set.folded = append(set.folded, folder.String(keyword))
	}
	return set
}

// Empty reports whether keyword matching is disabled.
func (s *KeywordSet) Empty() bool {
	return s == nil || len(s.folded) == 0
}

// Match reports whether name contains any keyword, ignoring case. Substring
// matching does not require word boundaries.
func (s *KeywordSet) Match(name string) bool {
	if s.Empty() {
		return false
	}
	// cases.Fold caser carries internal state, so a fresh one per call keeps
	// the set safe for concurrent workers.
	folded := cases.Fold().String(name)
	for _, keyword := range s.folded {
		if strings.Contains(folded, keyword) {
			return true
		}
	}
	return false
}
