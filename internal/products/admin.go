package product

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/storefront-labs/storefront-backend/pkg/db/models"
	pkgerrors "github.com/storefront-labs/storefront-backend/pkg/errors"
)

const (
	MsgCreated         = "Tạo sản phẩm thành công"
	MsgUpdated         = "Cập nhật sản phẩm thành công"
	MsgDeleted         = "Xóa sản phẩm thành công"
	msgNameAndPrice    = "name và price là bắt buộc"
	msgNameEmpty       = "Tên sản phẩm không được để trống"
	msgNameTooLong     = "Tên sản phẩm quá dài"
	msgInvalidPrice    = "Giá không hợp lệ"
	msgNothingToUpdate = "Không có dữ liệu cần cập nhật"
	msgProductNotFound = "Sản phẩm không tồn tại"
	msgProductInOrders = "Sản phẩm đã có trong đơn hàng, không thể xóa"
	maxProductNameLen  = 255
	maxProductFieldLen = 2000
	maxProductImages   = 20
)

// Specs are the hardware columns shown on the product page.
type Specs struct {
	CPU     *string `json:"cpu,omitempty"`
	RAM     *string `json:"ram,omitempty"`
	Storage *string `json:"storage,omitempty"`
	Display *string `json:"display,omitempty"`
	GPU     *string `json:"gpu,omitempty"`
	OS      *string `json:"os,omitempty"`
}

// ProductInput is an admin write. On update nil fields keep their value; a
// non-nil Images replaces the whole list.
type ProductInput struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	ImageURL    *string  `json:"image_url"`
	Images      []string `json:"images"`
	Price       *int64   `json:"price"`
	OldPrice    *int64   `json:"old_price"`
	Badge       *string  `json:"badge"`
	Category    *string  `json:"category"`
	InStock     *bool    `json:"in_stock"`
	Specs       *Specs   `json:"specs"`
}

// CreateProduct requires a name and a price. Rating and review counts start
// at zero and only move through order ratings.
func (s *service) CreateProduct(ctx context.Context, input ProductInput) (*ProductDTO, error) {
	if input.Name == nil || strings.TrimSpace(*input.Name) == "" || input.Price == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msgNameAndPrice)
	}
	updates, err := input.columns()
	if err != nil {
		return nil, err
	}

	record := models.Product{InStock: true}
	applyColumns(&record, updates)
	if record.ImageURL == nil && len(record.Images) > 0 {
		first := record.Images[0]
		record.ImageURL = &first
	}
	if err := s.repo.Create(ctx, &record); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create product")
	}
	dto := toDTO(record)
	return &dto, nil
}

func (s *service) UpdateProduct(ctx context.Context, id uuid.UUID, input ProductInput) (*ProductDTO, error) {
	if input.Name != nil && strings.TrimSpace(*input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msgNameEmpty)
	}
	updates, err := input.columns()
	if err != nil {
		return nil, err
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msgNothingToUpdate)
	}
	updates["updated_at"] = time.Now().UTC()

	if err := s.repo.Update(ctx, id, updates); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, msgProductNotFound)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update product")
	}
	return s.GetProduct(ctx, id)
}

// DeleteProduct refuses products that appear in an order so order history
// keeps its product reference.
func (s *service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	ordered, err := s.repo.HasOrderItems(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check product orders")
	}
	if ordered {
		return pkgerrors.New(pkgerrors.CodeConflict, msgProductInOrders)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, msgProductNotFound)
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete product")
	}
	return nil
}

// columns validates the set fields and maps them to column values.
func (in ProductInput) columns() (map[string]any, error) {
	cols := map[string]any{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if len([]rune(name)) > maxProductNameLen {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, msgNameTooLong).WithDetails(map[string]any{"field": "name"})
		}
		cols["name"] = name
	}
	if in.Price != nil {
		if *in.Price <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, msgInvalidPrice).WithDetails(map[string]any{"field": "price"})
		}
		cols["price"] = *in.Price
	}
	if in.OldPrice != nil {
		if *in.OldPrice < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, msgInvalidPrice).WithDetails(map[string]any{"field": "old_price"})
		}
		cols["old_price"] = *in.OldPrice
	}
	if in.InStock != nil {
		cols["in_stock"] = *in.InStock
	}
	if in.Images != nil {
		cols["images"] = filterImageURLs(in.Images)
	}
	if in.ImageURL != nil {
		cols["image_url"] = optionalText(*in.ImageURL)
	}
	setText(cols, "description", in.Description)
	setText(cols, "badge", in.Badge)
	setText(cols, "category", in.Category)
	if in.Specs != nil {
		setText(cols, "cpu", in.Specs.CPU)
		setText(cols, "ram", in.Specs.RAM)
		setText(cols, "storage", in.Specs.Storage)
		setText(cols, "display", in.Specs.Display)
		setText(cols, "gpu", in.Specs.GPU)
		setText(cols, "os", in.Specs.OS)
	}
	return cols, nil
}

func setText(cols map[string]any, column string, value *string) {
	if value != nil {
		cols[column] = optionalText(*value)
	}
}

// optionalText trims the value; blank clears the column.
func optionalText(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	if runes := []rune(value); len(runes) > maxProductFieldLen {
		value = string(runes[:maxProductFieldLen])
	}
	return &value
}

// filterImageURLs keeps absolute http(s) URLs and silently drops the rest.
func filterImageURLs(raw []string) pq.StringArray {
	out := pq.StringArray{}
	for _, candidate := range raw {
		candidate = strings.TrimSpace(candidate)
		u, err := url.Parse(candidate)
		if err != nil || u.Host == "" {
			continue
		}
		if scheme := strings.ToLower(u.Scheme); scheme != "http" && scheme != "https" {
			continue
		}
		out = append(out, candidate)
		if len(out) == maxProductImages {
			break
		}
	}
	return out
}

func applyColumns(p *models.Product, cols map[string]any) {
	for column, value := range cols {
		switch column {
		case "name":
			p.Name = value.(string)
		case "price":
			p.Price = value.(int64)
		case "old_price":
			p.OldPrice = value.(int64)
		case "in_stock":
			p.InStock = value.(bool)
		case "images":
			p.Images = value.(pq.StringArray)
		case "image_url":
			p.ImageURL = value.(*string)
		case "description":
			p.Description = value.(*string)
		case "badge":
			p.Badge = value.(*string)
		case "category":
			p.Category = value.(*string)
		case "cpu":
			p.CPU = value.(*string)
		case "ram":
			p.RAM = value.(*string)
		case "storage":
			p.Storage = value.(*string)
		case "display":
			p.Display = value.(*string)
		case "gpu":
			p.GPU = value.(*string)
		case "os":
			p.OS = value.(*string)
		}
	}
}
