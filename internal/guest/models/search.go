package models

import "strings"

func matchesSearch(g *Guest, term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(g.Name), term) ||
		strings.Contains(strings.ToLower(g.Email), term) ||
		strings.Contains(g.Phone, term)
}
