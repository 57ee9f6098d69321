package registry

import (
	"testing"

	"formcraft/internal/errs"
	"formcraft/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribeKnownKinds(t *testing.T) {
	reg := New()

	d, err := reg.Describe(model.KindSelect)
	require.NoError(t, err)
	assert.True(t, d.HasOptions)
	assert.True(t, d.HasPlaceholder)

	d, err = reg.Describe(model.KindRadio)
	require.NoError(t, err)
	assert.True(t, d.HasOptions)
	assert.False(t, d.HasPlaceholder)

	d, err = reg.Describe(model.KindNumber)
	require.NoError(t, err)
	assert.True(t, d.HasNumericBounds)
	assert.False(t, d.HasOptions)

	d, err = reg.Describe(model.KindFile)
	require.NoError(t, err)
	assert.True(t, d.HasFileAccept)
}

func TestDescribeUnknownKind(t *testing.T) {
	reg := New()

	_, err := reg.Describe(model.FieldKind("signature"))
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrUnknownKind)
}

func TestKindsListsFullCatalog(t *testing.T) {
	reg := New()

	kinds := reg.Kinds()
	assert.Len(t, kinds, 11)

	seen := make(map[model.FieldKind]bool)
	for _, d := range kinds {
		assert.NotEmpty(t, d.DefaultLabel)
		seen[d.Kind] = true
	}
	assert.True(t, seen[model.KindText])
	assert.True(t, seen[model.KindCheckbox])
	assert.True(t, seen[model.KindDate])
}
