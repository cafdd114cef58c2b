package dictionary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/entitydict/internal/model"
)

type resolveRoot struct {
	model.Meta `dict:"exclude"`
}

type resolveMid struct {
	resolveRoot
	model.Meta `dict:"include"`
}

type resolveLeaf struct {
	resolveMid
}

type resolveConflict struct {
	model.Meta `dict:"exclude;include"`
}

type resolveConflictReversed struct {
	model.Meta `dict:"include;exclude"`
}

type resolveNone struct {
	Name string
}

func lineageOf[T any](t *testing.T) []model.Level {
	t.Helper()
	desc, err := model.NewScanner().Describe(typeOf[T]())
	require.NoError(t, err)
	return desc.Lineage()
}

func TestResolveAnnotationNearestAncestorWins(t *testing.T) {
	a, depth, ok := ResolveAnnotation(lineageOf[resolveLeaf](t), model.Exclude, model.Include)
	require.True(t, ok)
	assert.Equal(t, model.Include, a.Name)
	assert.Equal(t, 1, depth, "declared on the middle level")
}

func TestResolveAnnotationSameLevelPriority(t *testing.T) {
	a, depth, ok := ResolveAnnotation(lineageOf[resolveConflict](t), model.Exclude, model.Include)
	require.True(t, ok)
	assert.Equal(t, model.Exclude, a.Name)
	assert.Equal(t, 0, depth)

	// declaration order on the level does not matter, priority does
	a, _, ok = ResolveAnnotation(lineageOf[resolveConflictReversed](t), model.Exclude, model.Include)
	require.True(t, ok)
	assert.Equal(t, model.Exclude, a.Name)

	a, _, ok = ResolveAnnotation(lineageOf[resolveConflict](t), model.Include, model.Exclude)
	require.True(t, ok)
	assert.Equal(t, model.Include, a.Name)
}

func TestResolveAnnotationAbsent(t *testing.T) {
	_, depth, ok := ResolveAnnotation(lineageOf[resolveNone](t), model.Exclude, model.Include)
	assert.False(t, ok)
	assert.Equal(t, -1, depth)

	_, _, ok = ResolveAnnotation(lineageOf[resolveLeaf](t))
	assert.False(t, ok, "empty priority list never matches")
}

func TestResolveAnnotationRootOnly(t *testing.T) {
	a, depth, ok := ResolveAnnotation(lineageOf[resolveRoot](t), model.Exclude, model.Include)
	require.True(t, ok)
	assert.Equal(t, model.Exclude, a.Name)
	assert.Equal(t, 0, depth)
}
