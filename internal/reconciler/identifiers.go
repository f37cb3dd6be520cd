package reconciler

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// maxSuffix bounds the disambiguation search for one SKU
const maxSuffix = 10000

var nonSlugChars = regexp.MustCompile(`[^\p{L}\p{M}\p{N}]+`)

// Slugify turns a title into a handle: lowercase, hyphen separated, accents
// removed from Latin letters. Letters and marks of other scripts are kept.
func Slugify(s string) string {
	var b strings.Builder
	var base rune
	for _, r := range norm.NFD.String(strings.ToLower(s)) {
		if unicode.Is(unicode.Mn, r) && unicode.Is(unicode.Latin, base) {
			continue
		}
		if !unicode.IsMark(r) {
			base = r
		}
		b.WriteRune(r)
	}
	slug := nonSlugChars.ReplaceAllString(norm.NFC.String(b.String()), "-")
	return strings.Trim(slug, "-")
}

// takenFunc reports whether a SKU belongs to another persisted product
type takenFunc func(ctx context.Context, sku string) (bool, error)

// skuAllocator hands out SKUs unique within one reconciliation call
type skuAllocator struct {
	mu   sync.Mutex
	used map[string]struct{}
}

func newSKUAllocator() *skuAllocator {
	return &skuAllocator{used: make(map[string]struct{})}
}

// allocate reserves candidate, or candidate-1, candidate-2, ... when it is already
// used in this batch or owned by a different stored product.
func (a *skuAllocator) allocate(ctx context.Context, candidate string, taken takenFunc) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for n := 0; n <= maxSuffix; n++ {
		sku := candidate
		if n > 0 {
			sku = fmt.Sprintf("%s-%d", candidate, n)
		}
		if _, inBatch := a.used[sku]; inBatch {
			continue
		}
		if taken != nil {
			exists, err := taken(ctx, sku)
			if err != nil {
				return "", fmt.Errorf("failed to check SKU %s: %w", sku, err)
			}
			if exists {
				continue
			}
		}
		a.used[sku] = struct{}{}
		return sku, nil
	}
	return "", fmt.Errorf("no free SKU for %s after %d attempts", candidate, maxSuffix)
}

// release frees SKUs reserved for a product whose write failed
func (a *skuAllocator) release(skus []string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, sku := range skus {
		delete(a.used, sku)
	}
}
