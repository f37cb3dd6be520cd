package classifier

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRules() RuleSet {
	return RuleSet{
		Fallback: "Misc",
		Rules: []CategoryRule{
			{Category: "Clothing", Priority: 80, MinConfidence: 10, Keywords: []string{"shirt", "hoodie", "jacket", "jeans"}},
			{Category: "Footwear", Priority: 95, MinConfidence: 10, Keywords: []string{"sneaker", "boot"}},
			{Category: "Kitchen", Priority: 50, MinConfidence: 60, Keywords: []string{"mug", "pan", "knife"}},
		},
	}
}

func TestDetect_ExplicitTypeOverridesKeywords(t *testing.T) {
	c := New(testRules())

	result := c.Detect(Fields{
		Title:        "Leather Boot and Shirt Combo",
		ExplicitType: "  Gift Sets ",
	})

	assert.Equal(t, "Gift Sets", result.Category)
	assert.Equal(t, 100, result.Confidence)
	assert.Empty(t, result.MatchedKeywords)
	assert.Equal(t, SourceExplicit, result.Source)
}

func TestDetect_PicksHighestScoringRule(t *testing.T) {
	c := New(testRules())

	result := c.Detect(Fields{
		Title: "Winter Jacket",
		Tags:  []string{"outerwear", "hoodie"},
	})

	assert.Equal(t, "Clothing", result.Category)
	// 2 of 4 keywords = 50, two phrase matches +10, jacket in title +3
	assert.Equal(t, 63, result.Confidence)
	assert.ElementsMatch(t, []string{"hoodie", "jacket"}, result.MatchedKeywords)
	assert.Equal(t, SourceTitle, result.Source)
}

func TestDetect_FallbackWhenNothingMatches(t *testing.T) {
	c := New(testRules())

	result := c.Detect(Fields{Title: "Mystery Item", Description: "no hints here"})

	assert.Equal(t, "Misc", result.Category)
	assert.Equal(t, 0, result.Confidence)
	assert.Equal(t, SourceFallback, result.Source)
}

func TestDetect_BelowMinConfidenceIsRejected(t *testing.T) {
	c := New(testRules())

	// one of three kitchen keywords, no title bonus: 33 + 5 < 60
	result := c.Detect(Fields{Title: "Gift", Description: "comes with a mug"})

	assert.Equal(t, "Misc", result.Category)
}

func TestDetect_SourceOrder(t *testing.T) {
	c := New(testRules())

	tests := []struct {
		name   string
		fields Fields
		want   Source
	}{
		{"tags", Fields{Title: "Weekend Pick", Tags: []string{"sneaker"}}, SourceTags},
		{"description", Fields{Title: "Weekend Pick", Description: "a sturdy boot"}, SourceDescription},
		{"handle", Fields{Title: "Weekend Pick", Handle: "trail-boot"}, SourceHandle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := c.Detect(tt.fields)
			assert.Equal(t, "Footwear", result.Category)
			assert.Equal(t, tt.want, result.Source)
		})
	}
}

func TestDetect_Deterministic(t *testing.T) {
	c := New(DefaultRuleSet())
	fields := Fields{
		Title:       "Organic Cotton T-Shirt",
		Description: "<p>Breathable tee for summer days</p>",
		Tags:        []string{"summer", "casual"},
		Handle:      "organic-cotton-tee",
	}

	first := c.Detect(fields)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, c.Detect(fields))
	}
	assert.Equal(t, "Clothing", first.Category)
}

func TestScore_AddingMatchingKeywordNeverDecreasesConfidence(t *testing.T) {
	c := New(testRules())
	rule := testRules().Rules[0]

	inputs := []Fields{
		{Title: "Plain"},
		{Title: "Plain", Description: "shirt"},
		{Title: "Plain", Description: "shirt hoodie"},
		{Title: "Plain Jacket", Description: "shirt hoodie"},
		{Title: "Plain Jacket", Description: "shirt hoodie jeans"},
	}

	prev := -1
	for _, in := range inputs {
		score, _ := c.Score(rule, in)
		assert.GreaterOrEqual(t, score, prev, "input %+v", in)
		prev = score
	}
	assert.Equal(t, 100, prev)
}

func TestScore_SubstringMatchWithoutPhraseBonus(t *testing.T) {
	c := New(testRules())
	rule := CategoryRule{Category: "Clothing", Keywords: []string{"shirt"}}

	withPhrase, _ := c.Score(rule, Fields{Description: "a shirt"})
	substring, matched := c.Score(rule, Fields{Description: "overshirts"})

	assert.Equal(t, 100, withPhrase)
	assert.Equal(t, 100, substring)
	assert.Equal(t, []string{"shirt"}, matched)

	rule.Keywords = []string{"shirt", "a", "b", "c"}
	withPhrase, _ = c.Score(rule, Fields{Description: "x shirt"})
	substring, _ = c.Score(rule, Fields{Description: "overshirts"})
	assert.Equal(t, withPhrase-phraseBonus, substring)
}

func TestDetect_TextIsCapped(t *testing.T) {
	c := New(testRules())

	padding := make([]byte, MaxTextLength+50)
	for i := range padding {
		padding[i] = 'x'
	}
	result := c.Detect(Fields{Title: "Item", Description: string(padding) + " boot"})

	assert.Equal(t, "Misc", result.Category)
}

func TestNew_OrdersByPriority(t *testing.T) {
	c := New(testRules())

	require.Len(t, c.rules, 3)
	assert.Equal(t, "Footwear", c.rules[0].Category)
	assert.Equal(t, "Clothing", c.rules[1].Category)
	assert.Equal(t, "Kitchen", c.rules[2].Category)
}

func TestLoadRuleSet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := `
fallback: Other
rules:
  - category: Candles
    priority: 70
    minConfidence: 20
    keywords: [candle, wax, wick]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	rs, err := LoadRuleSet(path)
	require.NoError(t, err)
	assert.Equal(t, "Other", rs.Fallback)
	require.Len(t, rs.Rules, 1)
	assert.Equal(t, []string{"candle", "wax", "wick"}, rs.Rules[0].Keywords)

	result := New(rs).Detect(Fields{Title: "Soy Candle"})
	assert.Equal(t, "Candles", result.Category)
}

func TestParseRuleSet_Invalid(t *testing.T) {
	_, err := ParseRuleSet([]byte("rules:\n  - category: Empty\n    keywords: []\n"))
	assert.Error(t, err)

	_, err = ParseRuleSet([]byte("rules:\n  - category: Bad\n    minConfidence: 120\n    keywords: [x]\n"))
	assert.Error(t, err)
}
