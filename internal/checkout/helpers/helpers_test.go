package helpers

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/storefront-labs/storefront-backend/internal/cart"
	"github.com/storefront-labs/storefront-backend/pkg/db/models"
	pkgerrors "github.com/storefront-labs/storefront-backend/pkg/errors"
)

func TestComputeTotalUsesQuantityTimesPrice(t *testing.T) {
	t.Parallel()
	lines := []Line{
		{ProductID: uuid.New(), Quantity: 2, Price: 150_000},
		{ProductID: uuid.New(), Quantity: 1, Price: 99_000},
	}
	if got := ComputeTotal(lines); got != 399_000 {
		t.Fatalf("expected 399000, got %d", got)
	}
	if got := ComputeTotal(nil); got != 0 {
		t.Fatalf("expected 0 for no lines, got %d", got)
	}
}

func TestLinesFromCartKeepSnapshotPrice(t *testing.T) {
	t.Parallel()
	itemID := uuid.New()
	lines := LinesFromCart([]cart.CartLine{{
		ID:        itemID,
		ProductID: uuid.New(),
		Name:      "Kettle",
		Quantity:  3,
		Price:     200_000,
		InStock:   true,
		CreatedAt: time.Now(),
	}})
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	if lines[0].Price != 200_000 || lines[0].Subtotal() != 600_000 {
		t.Fatalf("unexpected pricing %+v", lines[0])
	}
	ids := CartItemIDs(lines)
	if len(ids) != 1 || ids[0] != itemID {
		t.Fatalf("expected consumed id %s, got %v", itemID, ids)
	}
}

func TestLineFromProductUsesLivePrice(t *testing.T) {
	t.Parallel()
	product := &models.Product{ID: uuid.New(), Name: "Fan", Price: 450_000, InStock: true}
	line := LineFromProduct(product, 2)
	if line.Subtotal() != 900_000 {
		t.Fatalf("expected 900000, got %d", line.Subtotal())
	}
	if line.CartItemID != nil {
		t.Fatalf("buy-now line must not reference a cart row")
	}
	if ids := CartItemIDs([]Line{line}); len(ids) != 0 {
		t.Fatalf("expected no cart ids, got %v", ids)
	}
}

func TestFilterByIDsPreservesOrder(t *testing.T) {
	t.Parallel()
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	items := []cart.CartLine{{ID: a}, {ID: b}, {ID: c}}
	got := FilterByIDs(items, []uuid.UUID{c, a, uuid.New()})
	if len(got) != 2 || got[0].ID != a || got[1].ID != c {
		t.Fatalf("unexpected filter result %+v", got)
	}
}

func TestBuildOrderItems(t *testing.T) {
	t.Parallel()
	orderID := uuid.New()
	items := BuildOrderItems(orderID, []Line{{ProductID: uuid.New(), Name: "Desk", Quantity: 2, Price: 1_000_000}})
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].OrderID != orderID || items[0].ProductName != "Desk" || items[0].Subtotal != 2_000_000 {
		t.Fatalf("unexpected item %+v", items[0])
	}
}

func TestValidateCartLines(t *testing.T) {
	t.Parallel()
	err := ValidateCartLines(nil)
	if typed := pkgerrors.As(err); typed == nil || typed.Message() != MsgEmptySelection {
		t.Fatalf("expected empty selection error, got %v", err)
	}

	err = ValidateCartLines([]Line{
		{Name: "Chair", InStock: true},
		{Name: "Sofa", InStock: false},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodePolicy {
		t.Fatalf("expected policy error, got %v", err)
	}
	if typed.Message() != "Sản phẩm 'Sofa' đã hết hàng" {
		t.Fatalf("unexpected message %q", typed.Message())
	}

	if err := ValidateCartLines([]Line{{Name: "Chair", InStock: true}}); err != nil {
		t.Fatalf("expected valid lines, got %v", err)
	}
}

func TestValidateQuantity(t *testing.T) {
	t.Parallel()
	for _, qty := range []int{0, -3} {
		if err := ValidateQuantity(qty); err == nil {
			t.Fatalf("expected error for quantity %d", qty)
		}
	}
	if err := ValidateQuantity(1); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
}
