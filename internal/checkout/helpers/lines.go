package helpers

import (
	"github.com/google/uuid"

	"github.com/storefront-labs/storefront-backend/internal/cart"
	"github.com/storefront-labs/storefront-backend/pkg/db/models"
	"github.com/storefront-labs/storefront-backend/pkg/outbox/payloads"
)

// Line is one product being ordered, priced either from the live catalog
// (buy now) or from the cart snapshot.
type Line struct {
	CartItemID *uuid.UUID
	ProductID  uuid.UUID
	Name       string
	Quantity   int
	Price      int64
	InStock    bool
}

// Subtotal is quantity x unit price.
func (l Line) Subtotal() int64 {
	return int64(l.Quantity) * l.Price
}

// LineFromProduct prices a buy-now line at the current catalog price.
func LineFromProduct(product *models.Product, quantity int) Line {
	return Line{
		ProductID: product.ID,
		Name:      product.Name,
		Quantity:  quantity,
		Price:     product.Price,
		InStock:   product.InStock,
	}
}

// LinesFromCart keeps the snapshot price stored on each cart row.
func LinesFromCart(items []cart.CartLine) []Line {
	lines := make([]Line, 0, len(items))
	for _, item := range items {
		id := item.ID
		lines = append(lines, Line{
			CartItemID: &id,
			ProductID:  item.ProductID,
			Name:       item.Name,
			Quantity:   item.Quantity,
			Price:      item.Price,
			InStock:    item.InStock,
		})
	}
	return lines
}

// FilterByIDs keeps the cart lines whose ids appear in ids, preserving order.
func FilterByIDs(items []cart.CartLine, ids []uuid.UUID) []cart.CartLine {
	wanted := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	out := make([]cart.CartLine, 0, len(ids))
	for _, item := range items {
		if _, ok := wanted[item.ID]; ok {
			out = append(out, item)
		}
	}
	return out
}

// ComputeTotal sums the line subtotals.
func ComputeTotal(lines []Line) int64 {
	var total int64
	for _, line := range lines {
		total += line.Subtotal()
	}
	return total
}

// BuildOrderItems snapshots every line onto the order.
func BuildOrderItems(orderID uuid.UUID, lines []Line) []models.OrderItem {
	items := make([]models.OrderItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, models.OrderItem{
			OrderID:     orderID,
			ProductID:   line.ProductID,
			ProductName: line.Name,
			Quantity:    line.Quantity,
			Price:       line.Price,
			Subtotal:    line.Subtotal(),
		})
	}
	return items
}

// EventLines converts lines into the order_created payload shape.
func EventLines(lines []Line) []payloads.OrderLine {
	out := make([]payloads.OrderLine, 0, len(lines))
	for _, line := range lines {
		out = append(out, payloads.OrderLine{ProductID: line.ProductID, Quantity: line.Quantity, Price: line.Price})
	}
	return out
}

// CartItemIDs returns the cart rows consumed by the lines.
func CartItemIDs(lines []Line) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		if line.CartItemID != nil {
			ids = append(ids, *line.CartItemID)
		}
	}
	return ids
}
