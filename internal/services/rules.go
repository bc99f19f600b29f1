package services

import (
	"sort"
	"strings"

	"github.com/rocjay1/ledger-entry/internal/models"
)

// MatchCategory returns the first rule, by ascending priority then id, with a pattern contained
// in description. Matching ignores case.
func MatchCategory(rules []models.CategoryRule, description string) models.SuggestionResponse {
	desc := strings.ToLower(strings.TrimSpace(description))
	if desc == "" {
		return models.SuggestionResponse{}
	}

	ordered := make([]models.CategoryRule, len(rules))
	copy(ordered, rules)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Priority != ordered[j].Priority {
			return ordered[i].Priority < ordered[j].Priority
		}
		return ordered[i].ID < ordered[j].ID
	})

	for _, rule := range ordered {
		for _, p := range rule.Patterns {
			p = strings.ToLower(strings.TrimSpace(p))
			if p != "" && strings.Contains(desc, p) {
				return models.SuggestionResponse{Matched: true, CategoryID: rule.CategoryID, RuleID: rule.ID}
			}
		}
	}
	return models.SuggestionResponse{}
}
