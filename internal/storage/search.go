package storage

import (
	"regexp"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// nameWeight is how much more a word in a user's name counts than the same
// word in one of the user's posts.
const nameWeight = 2

// SearchResult is a user matched by Search.
type SearchResult struct {
	UserID uuid.UUID `json:"user_id"`
	Name   string    `json:"name"`
	Score  float64   `json:"score"`

	// Snippet is the newest matching post, empty when only the name matched.
	Snippet string `json:"snippet,omitempty"`
}

var tokenSeparator = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// tokenize lowercases text and splits it into words.
func tokenize(text string) []string {
	var tokens []string
	for _, part := range tokenSeparator.Split(strings.ToLower(text), -1) {
		if part != "" {
			tokens = append(tokens, part)
		}
	}
	return tokens
}

// queryTokens returns the distinct words of a query.
func queryTokens(query string) []string {
	tokens := tokenize(query)
	slices.Sort(tokens)
	return slices.Compact(tokens)
}

// termFrequencies counts the words of a user's name and posts.
func termFrequencies(rec UserRecord) map[string]int {
	freq := make(map[string]int)
	for _, token := range tokenize(rec.Name) {
		freq[token] += nameWeight
	}
	for _, p := range rec.Posts {
		for _, token := range tokenize(p.Content) {
			freq[token]++
		}
	}
	return freq
}

// snippet returns the newest post of rec containing one of tokens.
func snippet(rec UserRecord, tokens []string) string {
	for _, p := range slices.Backward(rec.Posts) {
		for _, token := range tokenize(p.Content) {
			if slices.Contains(tokens, token) {
				return p.Content
			}
		}
	}
	return ""
}

// rankResults orders results by score, then name, then ID, and applies
// limit when positive.
func rankResults(results []SearchResult, limit int) []SearchResult {
	slices.SortFunc(results, func(a, b SearchResult) int {
		switch {
		case a.Score != b.Score:
			if a.Score > b.Score {
				return -1
			}
			return 1
		case a.Name != b.Name:
			return strings.Compare(a.Name, b.Name)
		default:
			return strings.Compare(a.UserID.String(), b.UserID.String())
		}
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}
