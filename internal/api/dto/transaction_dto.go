package dto

import (
	"math"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/ralovishna/money-manager-api/internal/domain"
	"github.com/ralovishna/money-manager-api/internal/service"
)

// TransactionRequest adds an income or an expense. Amount is in major units.
type TransactionRequest struct {
	Name       string  `json:"name"`
	Icon       string  `json:"icon"`
	CategoryID int64   `json:"categoryId"`
	Amount     float64 `json:"amount"`
	Date       string  `json:"date"`
}

// Validate runs the entry rules.
func (r TransactionRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.CategoryID, validation.Required),
		validation.Field(&r.Amount, validation.Required, validation.Min(0.01)),
		validation.Field(&r.Date, validation.Date(time.DateOnly)),
	)
}

// Input converts the request; call Validate first.
func (r TransactionRequest) Input() service.TransactionInput {
	in := service.TransactionInput{
		Name:        r.Name,
		Icon:        r.Icon,
		CategoryID:  r.CategoryID,
		AmountCents: ToCents(r.Amount),
	}
	if r.Date != "" {
		in.Date, _ = time.Parse(time.DateOnly, r.Date)
	}
	return in
}

// ToCents rounds a major-unit amount to whole cents.
func ToCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// FromCents is the inverse of ToCents.
func FromCents(cents int64) float64 {
	return float64(cents) / 100
}

// TransactionResponse is the client view of a ledger entry.
type TransactionResponse struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Icon         string    `json:"icon"`
	CategoryID   *int64    `json:"categoryId"`
	CategoryName string    `json:"categoryName"`
	Amount       float64   `json:"amount"`
	Date         string    `json:"date"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// NewTransactionResponse maps a domain entry.
func NewTransactionResponse(tx domain.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:           tx.ID,
		Name:         tx.Name,
		Icon:         tx.Icon,
		CategoryID:   tx.CategoryID,
		CategoryName: tx.CategoryName,
		Amount:       FromCents(tx.AmountCents),
		Date:         tx.Date.Format(time.DateOnly),
		CreatedAt:    tx.CreatedAt,
		UpdatedAt:    tx.UpdatedAt,
	}
}

// NewTransactionResponses maps a list of entries.
func NewTransactionResponses(txs []domain.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, NewTransactionResponse(tx))
	}
	return out
}

// FilterRequest searches one ledger.
type FilterRequest struct {
	Type      string `json:"type"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Keyword   string `json:"keyword"`
	SortField string `json:"sortField"`
	SortOrder string `json:"sortOrder"`
}

// Validate runs the filter rules.
func (r FilterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Type, validation.Required, kindRule),
		validation.Field(&r.StartDate, validation.Date(time.DateOnly)),
		validation.Field(&r.EndDate, validation.Date(time.DateOnly)),
	)
}

// Filter converts the request; call Validate first. Any sort order other
// than "desc" sorts ascending.
func (r FilterRequest) Filter() domain.TransactionFilter {
	f := domain.TransactionFilter{
		Keyword:    r.Keyword,
		SortField:  r.SortField,
		Descending: strings.EqualFold(r.SortOrder, "desc"),
	}
	if t, err := time.Parse(time.DateOnly, r.StartDate); err == nil {
		f.From = &t
	}
	if t, err := time.Parse(time.DateOnly, r.EndDate); err == nil {
		f.To = &t
	}
	return f
}
