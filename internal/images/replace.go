// Package images resolves embedded image placeholders in generated article
// text against the image-search provider, with static fallbacks.
package images

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/starford/ansuz/internal/provider"
)

// markerPattern matches placeholders of the form IMAGE_PLACEHOLDER: "phrase".
// The phrase is free text without a double-quote.
var markerPattern = regexp.MustCompile(`IMAGE_PLACEHOLDER:\s*"([^"]+)"`)

// fallback is one entry of the static fallback table. Declaration order
// matters: the first case-insensitive substring match wins.
type fallback struct {
	keyword string
	url     string
}

var fallbacks = []fallback{
	{"technology", "https://images.unsplash.com/photo-1518770660439-4636190af475"},
	{"business", "https://images.unsplash.com/photo-1460925895917-afdab827c52f"},
	{"marketing", "https://images.unsplash.com/photo-1432888498266-38ffec3eaf0a"},
	{"ai", "https://images.unsplash.com/photo-1677442136019-21780ecad995"},
}

const defaultFallbackURL = "https://images.unsplash.com/photo-1519389950473-47ba0277781c"

const fallbackAttribution = "Photo from Unsplash"

// Replacer substitutes placeholders sequentially, pausing between provider
// lookups to respect the external rate limit.
type Replacer struct {
	searcher provider.ImageSearcher
	delay    time.Duration

	// sleep is swappable in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewReplacer builds a Replacer with the given inter-lookup delay.
func NewReplacer(searcher provider.ImageSearcher, delay time.Duration) *Replacer {
	return &Replacer{
		searcher: searcher,
		delay:    delay,
		sleep:    sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Replace resolves every placeholder in content, in left-to-right order, and
// returns the rewritten text. Substitution is best-effort: provider errors
// fall back to static images, and if the pass cannot complete (e.g. the
// context is cancelled) the original text is returned unchanged.
func (r *Replacer) Replace(ctx context.Context, content string) string {
	matches := markerPattern.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		slog.Info("images: no placeholders found")
		return content
	}

	slog.Info("images: resolving placeholders", slog.Int("count", len(matches)))

	updated := content
	for i, m := range matches {
		marker, phrase := m[0], m[1]

		img := r.lookup(ctx, phrase)
		block := fmt.Sprintf("![%s](%s)\n*%s*", img.Description, img.URL, img.Attribution)
		updated = strings.Replace(updated, marker, block, 1)

		if i < len(matches)-1 {
			if err := r.sleep(ctx, r.delay); err != nil {
				slog.Warn("images: substitution interrupted, keeping original text",
					slog.String("error", err.Error()))
				return content
			}
		}
	}

	slog.Info("images: placeholders resolved", slog.Int("count", len(matches)))
	return updated
}

// lookup queries the provider for phrase; on error or an empty result set it
// returns a static fallback image instead.
func (r *Replacer) lookup(ctx context.Context, phrase string) provider.Image {
	results, err := r.searcher.Search(ctx, phrase)
	if err != nil || len(results) == 0 {
		if err != nil {
			slog.Warn("images: search failed, using fallback",
				slog.String("phrase", phrase),
				slog.String("error", err.Error()))
		}
		return fallbackImage(phrase)
	}

	img := results[0]
	if img.Description == "" {
		img.Description = phrase
	}
	return img
}

// fallbackImage picks a static image by the first matching keyword substring
// of the phrase, or the default when nothing matches.
func fallbackImage(phrase string) provider.Image {
	lower := strings.ToLower(phrase)
	url := defaultFallbackURL
	for _, f := range fallbacks {
		if strings.Contains(lower, f.keyword) {
			url = f.url
			break
		}
	}
	return provider.Image{
		URL:         url,
		Description: phrase,
		Attribution: fallbackAttribution,
	}
}
