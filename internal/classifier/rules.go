package classifier

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultFallback is the catch-all category used when no rule matches
const DefaultFallback = "General"

// CategoryRule is one weighted keyword rule
type CategoryRule struct {
	Category      string   `yaml:"category" json:"category"`
	Keywords      []string `yaml:"keywords" json:"keywords"`
	Priority      int      `yaml:"priority" json:"priority"`
	MinConfidence int      `yaml:"minConfidence" json:"minConfidence"`
}

// RuleSet is the classifier configuration
type RuleSet struct {
	Fallback string         `yaml:"fallback" json:"fallback"`
	Rules    []CategoryRule `yaml:"rules" json:"rules"`
}

// LoadRuleSet reads a YAML rule file
func LoadRuleSet(path string) (RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RuleSet{}, fmt.Errorf("failed to read category rules: %w", err)
	}
	return ParseRuleSet(data)
}

// ParseRuleSet decodes and validates YAML rules
func ParseRuleSet(data []byte) (RuleSet, error) {
	var rs RuleSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return RuleSet{}, fmt.Errorf("failed to parse category rules: %w", err)
	}
	if err := rs.Validate(); err != nil {
		return RuleSet{}, err
	}
	return rs, nil
}

// Validate checks every rule carries a category, keywords and a 0-100 threshold
func (rs RuleSet) Validate() error {
	for i, rule := range rs.Rules {
		if strings.TrimSpace(rule.Category) == "" {
			return fmt.Errorf("rule %d: category is required", i)
		}
		if len(rule.Keywords) == 0 {
			return fmt.Errorf("rule %d (%s): at least one keyword is required", i, rule.Category)
		}
		if rule.MinConfidence < 0 || rule.MinConfidence > 100 {
			return fmt.Errorf("rule %d (%s): minConfidence must be between 0 and 100", i, rule.Category)
		}
	}
	return nil
}

// DefaultRuleSet is the built-in storefront taxonomy
func DefaultRuleSet() RuleSet {
	return RuleSet{
		Fallback: DefaultFallback,
		Rules: []CategoryRule{
			{Category: "Footwear", Priority: 95, MinConfidence: 10, Keywords: []string{
				"shoe", "shoes", "sneaker", "sneakers", "boot", "boots", "sandal", "sandals", "loafer", "heels", "slipper", "trainers",
			}},
			{Category: "Clothing", Priority: 90, MinConfidence: 8, Keywords: []string{
				"shirt", "t-shirt", "tee", "hoodie", "sweater", "jacket", "coat", "dress", "skirt", "jeans", "pants", "trousers", "shorts", "blouse", "apparel", "cardigan",
			}},
			{Category: "Jewelry & Accessories", Priority: 85, MinConfidence: 10, Keywords: []string{
				"necklace", "bracelet", "ring", "earrings", "pendant", "watch", "sunglasses", "wallet", "belt", "handbag", "jewelry",
			}},
			{Category: "Electronics", Priority: 85, MinConfidence: 10, Keywords: []string{
				"phone", "smartphone", "laptop", "tablet", "headphones", "earbuds", "charger", "usb", "bluetooth", "speaker", "camera", "monitor", "keyboard",
			}},
			{Category: "Beauty & Personal Care", Priority: 80, MinConfidence: 10, Keywords: []string{
				"lipstick", "mascara", "serum", "moisturizer", "shampoo", "conditioner", "perfume", "fragrance", "skincare", "makeup", "lotion",
			}},
			{Category: "Home & Kitchen", Priority: 75, MinConfidence: 10, Keywords: []string{
				"mug", "cookware", "pan", "knife", "cutting board", "blender", "towel", "pillow", "blanket", "candle", "vase", "kitchen", "furniture",
			}},
			{Category: "Sports & Outdoors", Priority: 70, MinConfidence: 10, Keywords: []string{
				"yoga", "fitness", "dumbbell", "tent", "camping", "hiking", "bicycle", "cycling", "running", "gym", "outdoor",
			}},
			{Category: "Toys & Games", Priority: 65, MinConfidence: 10, Keywords: []string{
				"toy", "puzzle", "lego", "doll", "board game", "action figure", "plush", "game",
			}},
			{Category: "Baby", Priority: 65, MinConfidence: 10, Keywords: []string{
				"baby", "infant", "toddler", "diaper", "stroller", "onesie", "pacifier",
			}},
			{Category: "Pet Supplies", Priority: 60, MinConfidence: 10, Keywords: []string{
				"dog", "cat", "pet", "leash", "collar", "litter", "kibble", "aquarium",
			}},
			{Category: "Health & Wellness", Priority: 60, MinConfidence: 10, Keywords: []string{
				"vitamin", "supplement", "protein", "probiotic", "wellness", "organic", "herbal",
			}},
			{Category: "Grocery & Food", Priority: 55, MinConfidence: 10, Keywords: []string{
				"coffee", "tea", "chocolate", "snack", "sauce", "spice", "honey", "cookies", "pasta", "olive oil",
			}},
			{Category: "Books", Priority: 55, MinConfidence: 12, Keywords: []string{
				"book", "novel", "paperback", "hardcover", "ebook", "author", "edition",
			}},
			{Category: "Office Supplies", Priority: 50, MinConfidence: 10, Keywords: []string{
				"notebook", "pen", "pencil", "stapler", "planner", "envelope", "printer paper", "desk organizer",
			}},
			{Category: "Automotive", Priority: 50, MinConfidence: 10, Keywords: []string{
				"car", "automotive", "tire", "motor oil", "wiper", "dashboard", "vehicle",
			}},
		},
	}
}
