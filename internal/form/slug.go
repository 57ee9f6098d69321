package form

import (
	"context"
	"fmt"
	"math/rand"
	"regexp"
	"strings"
)

const (
	slugSuffixLen   = 6
	slugMaxAttempts = 8
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify derives a URL-safe slug from a title: lowercase, runs of anything
// outside [a-z0-9] collapse to a single hyphen.
func Slugify(title string) string {
	slug := nonAlnum.ReplaceAllString(strings.ToLower(title), "-")
	return strings.Trim(slug, "-")
}

// SlugChecker reports whether a slug is already taken by another form.
type SlugChecker interface {
	SlugExists(ctx context.Context, slug string) (bool, error)
}

// AssignSlug derives a slug from the title and disambiguates collisions by
// appending a short random suffix, re-checking after each attempt. Fails
// closed when the attempt budget is exhausted.
func AssignSlug(ctx context.Context, checker SlugChecker, title string) (string, error) {
	base := Slugify(title)
	if base == "" {
		base = "form"
	}

	slug := base
	for attempt := 0; attempt < slugMaxAttempts; attempt++ {
		taken, err := checker.SlugExists(ctx, slug)
		if err != nil {
			return "", fmt.Errorf("failed to check slug: %w", err)
		}
		if !taken {
			return slug, nil
		}
		slug = base + "-" + randomSuffix(slugSuffixLen)
	}
	return "", fmt.Errorf("could not find a free slug for %q after %d attempts", base, slugMaxAttempts)
}

const suffixAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

func randomSuffix(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = suffixAlphabet[rand.Intn(len(suffixAlphabet))]
	}
	return string(b)
}
