package planner

import (
	"regexp"
	"strings"
)

// ProductGuardrail inspects a product query before it reaches search and asks
// for clarification when the query is too generic to match anything useful.
// The token sets are a policy value so callers can swap them without touching
// the planner.
type ProductGuardrail struct {
	genericTokens    map[string]struct{}
	descriptorTokens map[string]struct{}
	comparatorTokens map[string]struct{}
	bareNouns        map[string]struct{}
}

var (
	nonAlnumPattern = regexp.MustCompile(`[^a-z0-9\s]+`)
	tokenSplit      = regexp.MustCompile(`\s+`)
	digitPattern    = regexp.MustCompile(`[0-9]`)

	aggregationPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\bhow\s+many\b`),
		regexp.MustCompile(`\bnumber\s+of\b`),
		regexp.MustCompile(`\bcount\b`),
		regexp.MustCompile(`\baverage\b`),
		regexp.MustCompile(`\bavg\b`),
		regexp.MustCompile(`\bminimum\b`),
		regexp.MustCompile(`\bmaximum\b`),
		regexp.MustCompile(`\bmin\b`),
		regexp.MustCompile(`\bmax\b`),
		regexp.MustCompile(`\bmost\b`),
		regexp.MustCompile(`\bleast\b`),
	}
)

func tokenSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// NewProductGuardrail returns the default policy for drinkware queries.
func NewProductGuardrail() ProductGuardrail {
	return ProductGuardrail{
		genericTokens: tokenSet(
			"drinkware", "product", "products", "info", "information", "details",
			"option", "options", "catalog", "catalogue", "recommendation",
			"recommendations", "show", "list", "anything", "something", "ideas",
			"suggestion", "suggestions",
		),
		descriptorTokens: tokenSet(
			"tumbler", "tumblers", "cup", "cups", "mug", "mugs", "bottle",
			"bottles", "glass", "steel", "ceramic", "insulated", "thermal",
			"travel", "kids", "gift", "blue", "black", "matte", "gradient",
			"limited", "series", "edition", "set", "bundle", "handle", "strap",
			"sleeve", "corak", "malaysia", "marble", "double", "wall", "vacuum",
		),
		comparatorTokens: tokenSet(
			"under", "below", "over", "above", "less", "more", "cheaper",
			"expensive", "between", "around", "budget", "price",
		),
		bareNouns: tokenSet("drinkware", "product", "products", "catalog", "catalogue"),
	}
}

func normalizeQuery(query string) []string {
	lowered := nonAlnumPattern.ReplaceAllString(strings.ToLower(query), " ")
	fields := tokenSplit.Split(lowered, -1)
	tokens := fields[:0]
	for _, f := range fields {
		if f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// NeedsClarification reports whether the query is too generic to run a
// meaningful search. Numbers, comparators and concrete descriptors all count
// as specific.
func (g ProductGuardrail) NeedsClarification(query string) bool {
	if digitPattern.MatchString(query) {
		return false
	}
	tokens := normalizeQuery(query)
	if len(tokens) == 0 {
		return true
	}
	for _, t := range tokens {
		if _, ok := g.comparatorTokens[t]; ok {
			return false
		}
		if _, ok := g.descriptorTokens[t]; ok {
			return false
		}
	}
	if len(tokens) == 1 {
		_, bare := g.bareNouns[tokens[0]]
		return bare
	}
	if len(tokens) >= 2 && len(tokens) <= 4 {
		for _, t := range tokens {
			if _, ok := g.genericTokens[t]; !ok {
				return false
			}
		}
		return true
	}
	return false
}

// IsAggregationQuery reports whether the user asked for a catalog-wide
// count or aggregate that lexical search cannot answer exactly.
func (g ProductGuardrail) IsAggregationQuery(query string) bool {
	lowered := strings.ToLower(query)
	for _, p := range aggregationPatterns {
		if p.MatchString(lowered) {
			return true
		}
	}
	return false
}
