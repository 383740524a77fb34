package comments

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func row(id uuid.UUID, parent *uuid.UUID) CommentRow {
	return CommentRow{ID: id, ParentID: parent, Content: id.String(), CreatedAt: time.Now()}
}

func TestBuildTreeNestsReplies(t *testing.T) {
	root, reply, nested, other := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	roots := BuildTree([]CommentRow{
		row(nested, &reply),
		row(reply, &root),
		row(other, nil),
		row(root, nil),
	})

	require.Len(t, roots, 2)
	assert.Equal(t, other, roots[0].ID)
	assert.Empty(t, roots[0].Replies)
	assert.Equal(t, root, roots[1].ID)
	require.Len(t, roots[1].Replies, 1)
	assert.Equal(t, reply, roots[1].Replies[0].ID)
	require.Len(t, roots[1].Replies[0].Replies, 1)
	assert.Equal(t, nested, roots[1].Replies[0].Replies[0].ID)
}

func TestBuildTreePromotesOrphans(t *testing.T) {
	missing := uuid.New()
	orphan := uuid.New()
	roots := BuildTree([]CommentRow{row(orphan, &missing)})
	require.Len(t, roots, 1)
	assert.Equal(t, orphan, roots[0].ID)
}

func TestBuildTreeHandlesDeepChains(t *testing.T) {
	const depth = 5000
	rows := make([]CommentRow, 0, depth)
	var parent *uuid.UUID
	for i := 0; i < depth; i++ {
		id := uuid.New()
		rows = append(rows, row(id, parent))
		parent = &id
	}

	roots := BuildTree(rows)
	require.Len(t, roots, 1)
	levels := 0
	for node := roots[0]; node != nil; levels++ {
		if len(node.Replies) == 0 {
			node = nil
			continue
		}
		node = node.Replies[0]
	}
	assert.Equal(t, depth, levels)
}

func TestBuildTreeEmpty(t *testing.T) {
	assert.Empty(t, BuildTree(nil))
}
