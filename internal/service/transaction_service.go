package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ralovishna/money-manager-api/internal/domain"
	"github.com/ralovishna/money-manager-api/internal/mailer"
	"github.com/ralovishna/money-manager-api/internal/repository"
	apperrors "github.com/ralovishna/money-manager-api/pkg/util/errorutil"
)

// LatestLimit is how many entries the "latest" views return.
const LatestLimit = 5

// TransactionInput describes a new ledger entry.
type TransactionInput struct {
	Name        string
	Icon        string
	CategoryID  int64
	AmountCents int64
	Date        time.Time
}

// TransactionService serves one ledger (incomes or expenses) for the caller.
type TransactionService struct {
	ledger     repository.TransactionRepository
	categories repository.CategoryRepository
	resolver   ProfileResolver
	sender     mailer.Sender
	location   *time.Location
	now        func() time.Time
}

// TransactionDependencies encapsulates requirements for a ledger service.
type TransactionDependencies struct {
	Ledger     repository.TransactionRepository
	Categories repository.CategoryRepository
	Resolver   ProfileResolver
	Sender     mailer.Sender
	Location   *time.Location
	Now        func() time.Time
}

// NewTransactionService builds a ledger service.
func NewTransactionService(deps TransactionDependencies) *TransactionService {
	if deps.Location == nil {
		deps.Location = time.UTC
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &TransactionService{
		ledger:     deps.Ledger,
		categories: deps.Categories,
		resolver:   deps.Resolver,
		sender:     deps.Sender,
		location:   deps.Location,
		now:        deps.Now,
	}
}

// Kind reports which ledger the service manages.
func (s *TransactionService) Kind() domain.TransactionKind {
	return s.ledger.Kind()
}

func (s *TransactionService) today() time.Time {
	return domain.DateOf(s.now().In(s.location))
}

// Add records a new entry against one of the caller's categories. A zero
// date means today.
func (s *TransactionService) Add(ctx context.Context, in TransactionInput) (*domain.Transaction, error) {
	profile, err := s.resolver.CurrentProfile(ctx)
	if err != nil {
		return nil, err
	}

	category, err := s.categories.GetByID(ctx, in.CategoryID, profile.ID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.NewNotFound("category", map[string]any{"id": in.CategoryID})
		}
		return nil, err
	}
	if category.Type != s.Kind() {
		return nil, apperrors.NewValidationError("invalid payload", map[string]any{
			"categoryId": fmt.Sprintf("category is not an %s category", s.Kind()),
		})
	}

	date := s.today()
	if !in.Date.IsZero() {
		date = domain.DateOf(in.Date)
	}

	tx := &domain.Transaction{
		ProfileID:   profile.ID,
		CategoryID:  &category.ID,
		Name:        strings.TrimSpace(in.Name),
		Icon:        in.Icon,
		AmountCents: in.AmountCents,
		Date:        date,
	}
	if err := s.ledger.Create(ctx, tx); err != nil {
		return nil, err
	}
	tx.CategoryName = category.Name
	return tx, nil
}

// CurrentMonth lists the caller's entries dated in the current month.
func (s *TransactionService) CurrentMonth(ctx context.Context) ([]domain.Transaction, error) {
	profile, err := s.resolver.CurrentProfile(ctx)
	if err != nil {
		return nil, err
	}
	from, to := domain.MonthBounds(s.today())
	return s.ledger.ListBetween(ctx, profile.ID, from, to)
}

// Delete removes an entry; only its owner may delete it.
func (s *TransactionService) Delete(ctx context.Context, id int64) error {
	profile, err := s.resolver.CurrentProfile(ctx)
	if err != nil {
		return err
	}

	tx, err := s.ledger.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return apperrors.NewNotFound(string(s.Kind()), map[string]any{"id": id})
		}
		return err
	}
	if tx.ProfileID != profile.ID {
		return apperrors.NewForbidden(fmt.Sprintf("not allowed to delete this %s", s.Kind()))
	}
	return s.ledger.Delete(ctx, id)
}

// Latest returns the caller's most recent entries.
func (s *TransactionService) Latest(ctx context.Context) ([]domain.Transaction, error) {
	profile, err := s.resolver.CurrentProfile(ctx)
	if err != nil {
		return nil, err
	}
	return s.ledger.Latest(ctx, profile.ID, LatestLimit)
}

// Total sums the caller's entries in cents.
func (s *TransactionService) Total(ctx context.Context) (int64, error) {
	profile, err := s.resolver.CurrentProfile(ctx)
	if err != nil {
		return 0, err
	}
	return s.ledger.Total(ctx, profile.ID)
}

// Filter searches the caller's entries.
func (s *TransactionService) Filter(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	profile, err := s.resolver.CurrentProfile(ctx)
	if err != nil {
		return nil, err
	}
	if filter.SortField == "" {
		filter.SortField = "date"
	}
	if _, ok := repository.SortColumn(filter.SortField); !ok {
		return nil, apperrors.NewValidationError("invalid payload", map[string]any{
			"sortField": "must be one of date, amount, name, createdAt",
		})
	}
	return s.ledger.Filter(ctx, profile.ID, filter)
}

// Export renders all of the caller's entries, newest first, as a workbook.
func (s *TransactionService) Export(ctx context.Context) ([]byte, error) {
	profile, err := s.resolver.CurrentProfile(ctx)
	if err != nil {
		return nil, err
	}
	return s.export(ctx, profile)
}

func (s *TransactionService) export(ctx context.Context, profile *domain.Profile) ([]byte, error) {
	txs, err := s.ledger.ListAll(ctx, profile.ID)
	if err != nil {
		return nil, err
	}
	data, err := RenderWorkbook(s.Kind(), txs)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return data, nil
}

// EmailExport mails the caller's workbook to their own address.
func (s *TransactionService) EmailExport(ctx context.Context) error {
	profile, err := s.resolver.CurrentProfile(ctx)
	if err != nil {
		return err
	}
	data, err := s.export(ctx, profile)
	if err != nil {
		return err
	}
	if s.sender == nil {
		return apperrors.NewInternalError(fmt.Errorf("no mail sender configured"))
	}

	body, err := renderReportMail(reportMailData{
		Kind:        string(s.Kind()),
		GeneratedAt: s.now().In(s.location).Format(time.RFC1123),
	})
	if err != nil {
		return apperrors.NewInternalError(err)
	}

	err = s.sender.Send(ctx, mailer.Message{
		To:       profile.Email,
		Subject:  reportSubject(s.Kind()),
		HTMLBody: body,
		Attachment: &mailer.Attachment{
			Filename:    ReportFilename(s.Kind()),
			ContentType: XLSXContentType,
			Data:        data,
		},
	})
	if err != nil {
		return &apperrors.DomainError{
			Code:       "MAIL_FAILED",
			Message:    "failed to email report",
			HTTPStatus: http.StatusBadGateway,
			Err:        err,
		}
	}
	return nil
}
