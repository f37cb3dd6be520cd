package classifier

import (
	"sort"
	"strings"
	"unicode"
)

// MaxTextLength caps the normalized text blob scored against rules
const MaxTextLength = 1000

const (
	phraseBonus = 5
	titleBonus  = 3

	earlyStopConfidence = 90
	earlyStopPriority   = 90
)

// Source names the product field that carried the decisive match
type Source string

const (
	SourceExplicit    Source = "explicit"
	SourceTitle       Source = "title"
	SourceTags        Source = "tags"
	SourceDescription Source = "description"
	SourceHandle      Source = "handle"
	SourceVendor      Source = "vendor"
	SourceCombined    Source = "combined"
	SourceFallback    Source = "fallback"
)

// Fields are the product texts a category is detected from
type Fields struct {
	Title        string
	Description  string
	Tags         []string
	Handle       string
	Vendor       string
	ExplicitType string
}

// DetectionResult is the outcome of one classification
type DetectionResult struct {
	Category        string   `json:"category"`
	Confidence      int      `json:"confidence"`
	MatchedKeywords []string `json:"matchedKeywords,omitempty"`
	Source          Source   `json:"source"`
}

type compiledRule struct {
	CategoryRule
	normalized []string
}

// Classifier scores products against a rule set. It holds no mutable state.
type Classifier struct {
	rules    []compiledRule
	fallback string
}

// New compiles a rule set, ordering rules by descending priority
func New(rs RuleSet) *Classifier {
	rules := make([]compiledRule, 0, len(rs.Rules))
	for _, rule := range rs.Rules {
		cr := compiledRule{CategoryRule: rule}
		for _, kw := range rule.Keywords {
			if n := normalize(kw); n != "" {
				cr.normalized = append(cr.normalized, n)
			}
		}
		if len(cr.normalized) == 0 {
			continue
		}
		rules = append(rules, cr)
	}
	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].Priority > rules[j].Priority
	})

	fallback := strings.TrimSpace(rs.Fallback)
	if fallback == "" {
		fallback = DefaultFallback
	}
	return &Classifier{rules: rules, fallback: fallback}
}

// Fallback is the category assigned when nothing matches
func (c *Classifier) Fallback() string {
	return c.fallback
}

// Detect returns the best matching category for the fields
func (c *Classifier) Detect(f Fields) DetectionResult {
	if hint := strings.TrimSpace(f.ExplicitType); hint != "" {
		return DetectionResult{Category: hint, Confidence: 100, Source: SourceExplicit}
	}

	blob := buildBlob(f)
	title := normalize(f.Title)

	var best *DetectionResult
	for _, rule := range c.rules {
		score, matched := scoreRule(rule, blob, title)
		if len(matched) == 0 {
			continue
		}
		if score < rule.MinConfidence {
			continue
		}
		if best != nil && score <= best.Confidence {
			continue
		}
		best = &DetectionResult{
			Category:        rule.Category,
			Confidence:      score,
			MatchedKeywords: matched,
			Source:          detectSource(f, matched),
		}
		if best.Confidence >= earlyStopConfidence && rule.Priority >= earlyStopPriority {
			break
		}
	}

	if best == nil {
		return DetectionResult{Category: c.fallback, Confidence: 0, Source: SourceFallback}
	}
	return *best
}

// Score rates a single rule against the fields, ignoring any explicit type
func (c *Classifier) Score(rule CategoryRule, f Fields) (int, []string) {
	cr := compiledRule{CategoryRule: rule}
	for _, kw := range rule.Keywords {
		if n := normalize(kw); n != "" {
			cr.normalized = append(cr.normalized, n)
		}
	}
	if len(cr.normalized) == 0 {
		return 0, nil
	}
	return scoreRule(cr, buildBlob(f), normalize(f.Title))
}

func scoreRule(rule compiledRule, blob, title string) (int, []string) {
	var matched []string
	bonus := 0
	padded := " " + blob + " "
	for _, kw := range rule.normalized {
		if !strings.Contains(blob, kw) {
			continue
		}
		matched = append(matched, kw)
		if strings.Contains(padded, " "+kw+" ") {
			bonus += phraseBonus
		}
		if strings.Contains(title, kw) {
			bonus += titleBonus
		}
	}
	if len(matched) == 0 {
		return 0, nil
	}

	score := len(matched)*100/len(rule.normalized) + bonus
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score, matched
}

func detectSource(f Fields, matched []string) Source {
	candidates := []struct {
		source Source
		text   string
	}{
		{SourceTitle, normalize(f.Title)},
		{SourceTags, normalize(strings.Join(f.Tags, " "))},
		{SourceDescription, normalize(f.Description)},
		{SourceHandle, normalize(f.Handle)},
		{SourceVendor, normalize(f.Vendor)},
	}
	for _, cand := range candidates {
		if cand.text == "" {
			continue
		}
		for _, kw := range matched {
			if strings.Contains(cand.text, kw) {
				return cand.source
			}
		}
	}
	return SourceCombined
}

func buildBlob(f Fields) string {
	parts := make([]string, 0, len(f.Tags)+3)
	parts = append(parts, f.Title)
	parts = append(parts, f.Tags...)
	parts = append(parts, f.Handle, f.Description)

	blob := normalize(strings.Join(parts, " "))
	if r := []rune(blob); len(r) > MaxTextLength {
		blob = strings.TrimSpace(string(r[:MaxTextLength]))
	}
	return blob
}

// normalize lowercases, turns punctuation into spaces and collapses whitespace
func normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := true
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			space = false
			continue
		}
		if !space {
			b.WriteByte(' ')
			space = true
		}
	}
	return strings.TrimSpace(b.String())
}
