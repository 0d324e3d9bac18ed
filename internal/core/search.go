package core

import (
	"strings"

	"github.com/sahilm/fuzzy"
	"github.com/valter-silva-au/known-board/pkg/models"
)

// SearchResult is one fuzzy match with the titles of its ancestors.
type SearchResult struct {
	Node           models.Node
	Path           []string
	Score          int
	MatchedIndexes []int
}

type searchEntry struct {
	node models.Node
	path []string
}

type searchSource []searchEntry

func (s searchSource) String(i int) string { return s[i].node.NodeTitle() }
func (s searchSource) Len() int            { return len(s) }

// SearchNodes fuzzy-matches query against every node title at any depth
// and returns the matches best first. An empty query matches nothing.
func SearchNodes(roots []models.Node, query string) []SearchResult {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	var src searchSource
	Walk(roots, func(n models.Node, ancestors []*models.TaskSet) {
		path := make([]string, len(ancestors))
		for i, a := range ancestors {
			path[i] = a.Title
		}
		src = append(src, searchEntry{node: n, path: path})
	})

	matches := fuzzy.FindFrom(query, src)
	results := make([]SearchResult, 0, len(matches))
	for _, match := range matches {
		e := src[match.Index]
		results = append(results, SearchResult{
			Node:           e.node,
			Path:           e.path,
			Score:          match.Score,
			MatchedIndexes: match.MatchedIndexes,
		})
	}
	return results
}
