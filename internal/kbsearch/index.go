// Package kbsearch provides a small, deterministic, in-memory ranked lookup
// over knowledge-base articles. It is dependency-free and safe for
// concurrent reads after construction:
//
//   - No logging in the library (callers decide how/what to log)
//   - Unicode-aware tokenization with a minimal English stop-word set
//   - Deterministic scoring and sorting (stable order for ties)
//
// Scoring uses Jaccard similarity between the query token set and each
// article's token set (title weighted by duplication into the body set):
// score = |Q ∩ A| / |Q ∪ A|.
package kbsearch

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// Document is one indexable article.
type Document struct {
	ID    string
	Title string
	Body  string
}

// Result is a ranked match with its similarity score.
type Result struct {
	ID      string  `json:"id"`
	Title   string  `json:"title"`
	Snippet string  `json:"snippet"`
	Score   float64 `json:"score"`
}

// maxSnippetRunes caps the body excerpt carried in a Result.
const maxSnippetRunes = 200

// tokenRE extracts Unicode letter/digit runs.
var tokenRE = regexp.MustCompile(`[\p{L}\p{N}]+`)

// stopwords is a minimal English set dropped during tokenization.
var stopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "of": {}, "to": {}, "in": {},
	"is": {}, "are": {}, "for": {}, "on": {}, "with": {}, "by": {}, "from": {},
	"at": {}, "as": {}, "that": {}, "this": {}, "it": {}, "be": {}, "was": {}, "were": {},
	"how": {}, "do": {}, "does": {}, "what": {}, "which": {},
}

type doc struct {
	id      string
	title   string
	snippet string
	tokens  map[string]struct{}
}

// Index is an immutable ranked-lookup structure over a document set.
type Index struct {
	docs []doc
}

// New builds an Index over the given documents. Title tokens count toward
// the document token set so title hits rank a short article above a long one
// that merely mentions the term.
func New(documents []Document) *Index {
	idx := &Index{docs: make([]doc, 0, len(documents))}
	for _, d := range documents {
		tokens := tokenize(d.Title + " " + d.Body)
		if len(tokens) == 0 {
			continue
		}
		idx.docs = append(idx.docs, doc{
			id:      d.ID,
			title:   d.Title,
			snippet: snippet(d.Body),
			tokens:  tokens,
		})
	}
	return idx
}

// TopK returns up to k results ranked by Jaccard similarity to query,
// descending. Zero-score documents are omitted. Ties keep insertion order,
// so ranking is fully deterministic for a given document slice.
func (idx *Index) TopK(query string, k int) []Result {
	if k <= 0 {
		return nil
	}
	q := tokenize(query)
	if len(q) == 0 {
		return nil
	}

	out := make([]Result, 0, len(idx.docs))
	for _, d := range idx.docs {
		s := jaccard(q, d.tokens)
		if s == 0 {
			continue
		}
		out = append(out, Result{ID: d.id, Title: d.title, Snippet: d.snippet, Score: s})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > k {
		out = out[:k]
	}
	return out
}

func tokenize(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, t := range tokenRE.FindAllString(strings.ToLower(s), -1) {
		if _, stop := stopwords[t]; stop {
			continue
		}
		out[t] = struct{}{}
	}
	return out
}

func jaccard(a, b map[string]struct{}) float64 {
	inter := 0
	for t := range a {
		if _, ok := b[t]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// snippet collapses whitespace and clips the body to maxSnippetRunes.
func snippet(body string) string {
	s := strings.Join(strings.Fields(body), " ")
	if utf8.RuneCountInString(s) > maxSnippetRunes {
		s = string([]rune(s)[:maxSnippetRunes])
	}
	return s
}
