package form

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Contact Us":          "contact-us",
		"  Hello,   World!  ": "hello-world",
		"Already-good-slug":   "already-good-slug",
		"Ünicode & Symbols ©": "nicode-symbols",
		"---":                 "",
		"2024 Survey (Draft)": "2024-survey-draft",
	}
	for title, want := range cases {
		assert.Equal(t, want, Slugify(title), "title %q", title)
	}
}

type fakeChecker struct {
	taken   map[string]bool
	failAll bool
	err     error
	calls   int
}

func (c *fakeChecker) SlugExists(ctx context.Context, slug string) (bool, error) {
	c.calls++
	if c.err != nil {
		return false, c.err
	}
	if c.failAll {
		return true, nil
	}
	return c.taken[slug], nil
}

func TestAssignSlugNoCollision(t *testing.T) {
	checker := &fakeChecker{}
	slug, err := AssignSlug(context.Background(), checker, "Contact Us")
	require.NoError(t, err)
	assert.Equal(t, "contact-us", slug)
	assert.Equal(t, 1, checker.calls)
}

func TestAssignSlugAppendsSuffixOnCollision(t *testing.T) {
	checker := &fakeChecker{taken: map[string]bool{"contact-us": true}}
	slug, err := AssignSlug(context.Background(), checker, "Contact Us")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(slug, "contact-us-"))
	assert.Len(t, slug, len("contact-us-")+6)
}

func TestAssignSlugFailsClosedWhenExhausted(t *testing.T) {
	checker := &fakeChecker{failAll: true}
	_, err := AssignSlug(context.Background(), checker, "Contact Us")
	require.Error(t, err)
	assert.Equal(t, 8, checker.calls)
}

func TestAssignSlugPropagatesCheckerError(t *testing.T) {
	boom := errors.New("connection refused")
	checker := &fakeChecker{err: boom}
	_, err := AssignSlug(context.Background(), checker, "Contact Us")
	assert.ErrorIs(t, err, boom)
}

func TestAssignSlugEmptyTitleFallsBack(t *testing.T) {
	checker := &fakeChecker{}
	slug, err := AssignSlug(context.Background(), checker, "!!!")
	require.NoError(t, err)
	assert.Equal(t, "form", slug)
}
