package models

// Category is a spending/income category that transactions can be filed under.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SuggestionRequest asks the category-rule service to classify a description.
type SuggestionRequest struct {
	Description string `json:"description"`
}

// SuggestionResponse is the category-rule service's answer.
type SuggestionResponse struct {
	Matched    bool   `json:"matched"`
	CategoryID string `json:"categoryId,omitempty"`
	RuleID     string `json:"ruleId,omitempty"`
}

// CategoryRule maps description patterns to a category.
type CategoryRule struct {
	ID         string   `json:"id"`
	CategoryID string   `json:"categoryId"`
	Patterns   []string `json:"patterns"`
	Priority   int      `json:"priority"`
}
