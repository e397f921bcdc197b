package dto

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/ralovishna/money-manager-api/internal/domain"
)

var kindRule = validation.In(string(domain.KindIncome), string(domain.KindExpense))

// CategoryRequest creates or updates a category.
type CategoryRequest struct {
	Name string `json:"name"`
	Icon string `json:"icon"`
	Type string `json:"type"`
}

// Validate runs the category rules.
func (r CategoryRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Type, validation.Required, kindRule),
	)
}

// CategoryResponse is the client view of a category.
type CategoryResponse struct {
	ID        int64     `json:"id"`
	ProfileID int64     `json:"profileId"`
	Name      string    `json:"name"`
	Icon      string    `json:"icon"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewCategoryResponse maps a domain category.
func NewCategoryResponse(c domain.Category) CategoryResponse {
	return CategoryResponse{
		ID:        c.ID,
		ProfileID: c.ProfileID,
		Name:      c.Name,
		Icon:      c.Icon,
		Type:      string(c.Type),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// NewCategoryResponses maps a list of categories.
func NewCategoryResponses(categories []domain.Category) []CategoryResponse {
	out := make([]CategoryResponse, 0, len(categories))
	for _, c := range categories {
		out = append(out, NewCategoryResponse(c))
	}
	return out
}
