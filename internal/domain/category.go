package domain

import "sort"

// Category identifies the priority class a visitor belongs to.
type Category string

const (
	CategoryElderly    Category = "elderly"
	CategoryDisability Category = "disability"
	CategoryPregnancy  Category = "pregnancy"
	CategoryNone       Category = "none"
)

// CategoryRule maps a category to its queue rank and ticket-number prefix.
// Lower rank is served first.
type CategoryRule struct {
	Rank   int
	Prefix string
}

// CategoryPolicy resolves priority ranks and number prefixes for visitor
// categories. Unknown categories resolve to the lowest-priority rule.
type CategoryPolicy struct {
	rules    map[Category]CategoryRule
	fallback CategoryRule
}

// DefaultCategoryPolicy returns the standard four-category table.
func DefaultCategoryPolicy() *CategoryPolicy {
	return NewCategoryPolicy(map[Category]CategoryRule{
		CategoryElderly:    {Rank: 1, Prefix: "A"},
		CategoryDisability: {Rank: 2, Prefix: "D"},
		CategoryPregnancy:  {Rank: 3, Prefix: "E"},
		CategoryNone:       {Rank: 4, Prefix: "N"},
	})
}

// NewCategoryPolicy builds a policy from an explicit rule table. The rule
// with the highest rank doubles as the fallback for unknown categories.
func NewCategoryPolicy(rules map[Category]CategoryRule) *CategoryPolicy {
	policy := &CategoryPolicy{rules: make(map[Category]CategoryRule, len(rules))}
	for category, rule := range rules {
		policy.rules[category] = rule
		if rule.Rank > policy.fallback.Rank {
			policy.fallback = rule
		}
	}
	return policy
}

// Rank returns the queue rank for the category.
func (p *CategoryPolicy) Rank(category Category) int {
	if rule, ok := p.rules[category]; ok {
		return rule.Rank
	}
	return p.fallback.Rank
}

// Prefix returns the ticket-number prefix for the category.
func (p *CategoryPolicy) Prefix(category Category) string {
	if rule, ok := p.rules[category]; ok {
		return rule.Prefix
	}
	return p.fallback.Prefix
}

// Known reports whether the category appears in the rule table.
func (p *CategoryPolicy) Known(category Category) bool {
	_, ok := p.rules[category]
	return ok
}

// Categories lists the configured categories ordered by rank.
func (p *CategoryPolicy) Categories() []Category {
	result := make([]Category, 0, len(p.rules))
	for category := range p.rules {
		result = append(result, category)
	}
	sort.Slice(result, func(i, j int) bool {
		return p.rules[result[i]].Rank < p.rules[result[j]].Rank
	})
	return result
}
