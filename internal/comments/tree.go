package comments

import (
	"time"

	"github.com/google/uuid"
)

// Node is one comment in a reply tree.
type Node struct {
	ID        uuid.UUID  `json:"id"`
	ParentID  *uuid.UUID `json:"parent_id"`
	UserID    uuid.UUID  `json:"user_id"`
	UserName  *string    `json:"user_name"`
	Content   string     `json:"content"`
	Rating    *float64   `json:"rating"`
	Verified  bool       `json:"verified"`
	CreatedAt time.Time  `json:"created_at"`
	Replies   []*Node    `json:"replies"`
}

// BuildTree links rows into reply trees with a breadth-first pass. Rows whose
// parent is not in the set become roots. Sibling order follows input order.
func BuildTree(rows []CommentRow) []*Node {
	nodes := make(map[uuid.UUID]*Node, len(rows))
	for _, row := range rows {
		nodes[row.ID] = &Node{
			ID:        row.ID,
			ParentID:  row.ParentID,
			UserID:    row.UserID,
			UserName:  row.UserName,
			Content:   row.Content,
			Rating:    row.Rating,
			Verified:  row.Verified,
			CreatedAt: row.CreatedAt,
			Replies:   []*Node{},
		}
	}

	children := make(map[uuid.UUID][]*Node, len(rows))
	roots := make([]*Node, 0)
	for _, row := range rows {
		node := nodes[row.ID]
		if row.ParentID != nil {
			if _, ok := nodes[*row.ParentID]; ok && *row.ParentID != row.ID {
				children[*row.ParentID] = append(children[*row.ParentID], node)
				continue
			}
		}
		roots = append(roots, node)
	}

	visited := make(map[uuid.UUID]bool, len(rows))
	queue := append([]*Node(nil), roots...)
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if visited[current.ID] {
			continue
		}
		visited[current.ID] = true
		for _, child := range children[current.ID] {
			if visited[child.ID] {
				continue
			}
			current.Replies = append(current.Replies, child)
			queue = append(queue, child)
		}
	}
	return roots
}
