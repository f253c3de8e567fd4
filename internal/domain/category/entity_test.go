package category

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTree(t *testing.T) {
	rows := []Category{
		{ID: 3, ParentID: 1, DisplayName: "Cement", SortOrder: 2},
		{ID: 1, DisplayName: "Building Materials"},
		{ID: 2, ParentID: 1, DisplayName: "Bricks", SortOrder: 1},
		{ID: 4, ParentID: 99, DisplayName: "Orphan"},
		{ID: 0, DisplayName: "ignored"},
	}

	tree := BuildTree(rows)
	require.Len(t, tree, 2)
	assert.Equal(t, "Building Materials", tree[0].DisplayName)
	assert.Equal(t, "Orphan", tree[1].DisplayName)

	require.Len(t, tree[0].Children, 2)
	assert.Equal(t, 2, tree[0].Children[0].ID)
	assert.Equal(t, 3, tree[0].Children[1].ID)
	assert.NotNil(t, tree[1].Children)

	n, ok := Find(tree, 3)
	require.True(t, ok)
	assert.Equal(t, "Cement", n.DisplayName)

	_, ok = Find(tree, 42)
	assert.False(t, ok)
}
