// Package repotest provides in-memory repositories for tests.
package repotest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ralovishna/money-manager-api/internal/domain"
	"github.com/ralovishna/money-manager-api/internal/repository"
)

// Profiles is an in-memory repository.ProfileRepository.
type Profiles struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]domain.Profile
	Now    func() time.Time
}

// NewProfiles returns an empty store.
func NewProfiles() *Profiles {
	return &Profiles{rows: map[int64]domain.Profile{}, Now: time.Now}
}

var _ repository.ProfileRepository = (*Profiles)(nil)

func (s *Profiles) Create(_ context.Context, profile *domain.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	profile.ID = s.nextID
	profile.CreatedAt = s.Now()
	profile.UpdatedAt = profile.CreatedAt
	s.rows[profile.ID] = *profile
	return nil
}

func (s *Profiles) Update(_ context.Context, profile *domain.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[profile.ID]; !ok {
		return pgx.ErrNoRows
	}
	profile.UpdatedAt = s.Now()
	s.rows[profile.ID] = *profile
	return nil
}

func (s *Profiles) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(s.rows, id)
	return nil
}

func (s *Profiles) GetByID(_ context.Context, id int64) (*domain.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	profile, ok := s.rows[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &profile, nil
}

func (s *Profiles) GetByEmail(_ context.Context, email string) (*domain.Profile, error) {
	return s.find(func(p domain.Profile) bool { return p.Email == email })
}

func (s *Profiles) GetByActivationToken(_ context.Context, token string) (*domain.Profile, error) {
	if token == "" {
		return nil, pgx.ErrNoRows
	}
	return s.find(func(p domain.Profile) bool { return p.ActivationToken == token })
}

func (s *Profiles) ListActive(_ context.Context) ([]domain.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []domain.Profile
	for _, p := range s.rows {
		if p.IsActive {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *Profiles) find(match func(domain.Profile) bool) (*domain.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.rows {
		if match(p) {
			found := p
			return &found, nil
		}
	}
	return nil, pgx.ErrNoRows
}

// Categories is an in-memory repository.CategoryRepository.
type Categories struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]domain.Category
}

// NewCategories returns an empty store.
func NewCategories() *Categories {
	return &Categories{rows: map[int64]domain.Category{}}
}

var _ repository.CategoryRepository = (*Categories)(nil)

func (s *Categories) Create(_ context.Context, category *domain.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	category.ID = s.nextID
	category.CreatedAt = time.Now()
	category.UpdatedAt = category.CreatedAt
	s.rows[category.ID] = *category
	return nil
}

func (s *Categories) Update(_ context.Context, category *domain.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.rows[category.ID]
	if !ok || existing.ProfileID != category.ProfileID {
		return pgx.ErrNoRows
	}
	category.UpdatedAt = time.Now()
	s.rows[category.ID] = *category
	return nil
}

func (s *Categories) GetByID(_ context.Context, id, profileID int64) (*domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	category, ok := s.rows[id]
	if !ok || category.ProfileID != profileID {
		return nil, pgx.ErrNoRows
	}
	return &category, nil
}

func (s *Categories) ListByProfile(_ context.Context, profileID int64) ([]domain.Category, error) {
	return s.list(func(c domain.Category) bool { return c.ProfileID == profileID }), nil
}

func (s *Categories) ListByType(_ context.Context, profileID int64, kind domain.TransactionKind) ([]domain.Category, error) {
	return s.list(func(c domain.Category) bool { return c.ProfileID == profileID && c.Type == kind }), nil
}

func (s *Categories) ExistsByName(_ context.Context, profileID int64, name string) (bool, error) {
	return len(s.list(func(c domain.Category) bool { return c.ProfileID == profileID && c.Name == name })) > 0, nil
}

func (s *Categories) list(match func(domain.Category) bool) []domain.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []domain.Category
	for _, c := range s.rows {
		if match(c) {
			result = append(result, c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// Transactions is an in-memory repository.TransactionRepository. Category
// names are resolved through Categories when set.
type Transactions struct {
	mu         sync.Mutex
	kind       domain.TransactionKind
	nextID     int64
	rows       map[int64]domain.Transaction
	Categories *Categories
	Now        func() time.Time
}

// NewTransactions returns an empty ledger of the given kind.
func NewTransactions(kind domain.TransactionKind, categories *Categories) *Transactions {
	return &Transactions{kind: kind, rows: map[int64]domain.Transaction{}, Categories: categories, Now: time.Now}
}

var _ repository.TransactionRepository = (*Transactions)(nil)

func (s *Transactions) Kind() domain.TransactionKind {
	return s.kind
}

func (s *Transactions) Create(_ context.Context, tx *domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	tx.ID = s.nextID
	tx.Kind = s.kind
	tx.CreatedAt = s.Now()
	tx.UpdatedAt = tx.CreatedAt
	s.rows[tx.ID] = *tx
	return nil
}

func (s *Transactions) GetByID(_ context.Context, id int64) (*domain.Transaction, error) {
	s.mu.Lock()
	tx, ok := s.rows[id]
	s.mu.Unlock()
	if !ok {
		return nil, pgx.ErrNoRows
	}
	s.withCategory(&tx)
	return &tx, nil
}

func (s *Transactions) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(s.rows, id)
	return nil
}

func (s *Transactions) ListBetween(_ context.Context, profileID int64, from, to time.Time) ([]domain.Transaction, error) {
	result := s.list(func(t domain.Transaction) bool {
		return t.ProfileID == profileID && !t.Date.Before(from) && !t.Date.After(to)
	})
	sortNewestFirst(result)
	return result, nil
}

func (s *Transactions) ListOnDate(_ context.Context, profileID int64, date time.Time) ([]domain.Transaction, error) {
	y, m, d := date.Date()
	result := s.list(func(t domain.Transaction) bool {
		ty, tm, td := t.Date.Date()
		return t.ProfileID == profileID && ty == y && tm == m && td == d
	})
	sort.SliceStable(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (s *Transactions) ListAll(_ context.Context, profileID int64) ([]domain.Transaction, error) {
	result := s.list(func(t domain.Transaction) bool { return t.ProfileID == profileID })
	sortNewestFirst(result)
	return result, nil
}

func (s *Transactions) Latest(ctx context.Context, profileID int64, limit int) ([]domain.Transaction, error) {
	result, _ := s.ListAll(ctx, profileID)
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Transactions) Total(_ context.Context, profileID int64) (int64, error) {
	var total int64
	for _, t := range s.list(func(t domain.Transaction) bool { return t.ProfileID == profileID }) {
		total += t.AmountCents
	}
	return total, nil
}

func (s *Transactions) Filter(_ context.Context, profileID int64, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	keyword := strings.ToLower(strings.TrimSpace(filter.Keyword))
	result := s.list(func(t domain.Transaction) bool {
		if t.ProfileID != profileID {
			return false
		}
		if filter.From != nil && t.Date.Before(*filter.From) {
			return false
		}
		if filter.To != nil && t.Date.After(*filter.To) {
			return false
		}
		return keyword == "" || strings.Contains(strings.ToLower(t.Name), keyword)
	})

	less := func(a, b domain.Transaction) bool {
		switch filter.SortField {
		case "amount":
			return a.AmountCents < b.AmountCents
		case "name":
			return a.Name < b.Name
		case "created_at", "createdAt":
			return a.CreatedAt.Before(b.CreatedAt)
		default:
			return a.Date.Before(b.Date)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		if filter.Descending {
			return less(result[j], result[i])
		}
		return less(result[i], result[j])
	})
	return result, nil
}

func (s *Transactions) list(match func(domain.Transaction) bool) []domain.Transaction {
	s.mu.Lock()
	var result []domain.Transaction
	for _, t := range s.rows {
		if match(t) {
			result = append(result, t)
		}
	}
	s.mu.Unlock()
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	for i := range result {
		s.withCategory(&result[i])
	}
	return result
}

func (s *Transactions) withCategory(tx *domain.Transaction) {
	if s.Categories == nil || tx.CategoryID == nil {
		return
	}
	if c, err := s.Categories.GetByID(context.Background(), *tx.CategoryID, tx.ProfileID); err == nil {
		tx.CategoryName = c.Name
	}
}

func sortNewestFirst(txs []domain.Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		if !txs[i].Date.Equal(txs[j].Date) {
			return txs[i].Date.After(txs[j].Date)
		}
		return txs[i].CreatedAt.After(txs[j].CreatedAt)
	})
}
