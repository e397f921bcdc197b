package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ralovishna/money-manager-api/internal/config"
	"github.com/ralovishna/money-manager-api/internal/domain"
	"github.com/ralovishna/money-manager-api/internal/events"
	"github.com/ralovishna/money-manager-api/internal/mailer"
	"github.com/ralovishna/money-manager-api/internal/repository"
)

// NotificationService sends account and daily digest mail.
type NotificationService struct {
	dispatcher        events.Dispatcher
	sender            mailer.Sender
	profiles          repository.ProfileRepository
	expenses          repository.TransactionRepository
	cfg               config.NotificationConfig
	activationBaseURL string
	logger            *zap.Logger
}

// NotificationDependencies encapsulates requirements for notifications.
type NotificationDependencies struct {
	Dispatcher events.Dispatcher
	Sender     mailer.Sender
	Profiles   repository.ProfileRepository
	Expenses   repository.TransactionRepository
	Logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(cfg config.NotificationConfig, activationBaseURL string, deps NotificationDependencies) *NotificationService {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher:        deps.Dispatcher,
		sender:            deps.Sender,
		profiles:          deps.Profiles,
		expenses:          deps.Expenses,
		cfg:               cfg,
		activationBaseURL: strings.TrimRight(activationBaseURL, "/"),
		logger:            deps.Logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventProfileRegistered, n.handleProfileRegistered)
	n.dispatcher.Subscribe(events.EventProfileActivated, n.handleProfileActivated)
}

// ActivationLink is the URL mailed to a newly registered profile.
func (n *NotificationService) ActivationLink(token string) string {
	return n.activationBaseURL + "/api/v1.0/activate?activationToken=" + url.QueryEscape(token)
}

func (n *NotificationService) handleProfileRegistered(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ProfileRegisteredPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	n.logger.Info("ProfileRegistered", zap.Int64("profile_id", event.ProfileID))

	body, err := render(activationTmpl, activationMailData{
		FullName: payload.FullName,
		Link:     n.ActivationLink(payload.ActivationToken),
	})
	if err != nil {
		return err
	}
	return n.sender.Send(ctx, mailer.Message{
		To:       payload.Email,
		Subject:  "Activate your Money Manager account",
		HTMLBody: body,
	})
}

func (n *NotificationService) handleProfileActivated(_ context.Context, event events.Event) error {
	n.logger.Info("ProfileActivated", zap.Int64("profile_id", event.ProfileID))
	return nil
}

// SendDailyReminders mails every active profile a reminder to record the
// day's entries. Individual failures are logged and do not stop the run.
func (n *NotificationService) SendDailyReminders(ctx context.Context) error {
	profiles, err := n.profiles.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active profiles: %w", err)
	}

	var failed int
	for _, profile := range profiles {
		if err := ctx.Err(); err != nil {
			return err
		}
		body, err := render(reminderTmpl, reminderMailData{
			FullName:    profile.FullName,
			FrontendURL: n.cfg.FrontendURL,
		})
		if err == nil {
			err = n.sender.Send(ctx, mailer.Message{
				To:       profile.Email,
				Subject:  "Daily reminder: Add your income and expenses",
				HTMLBody: body,
			})
		}
		if err != nil {
			failed++
			n.logger.Warn("daily reminder not sent", zap.Int64("profile_id", profile.ID), zap.Error(err))
		}
	}

	n.logger.Info("daily reminders processed", zap.Int("profiles", len(profiles)), zap.Int("failed", failed))
	return failedSends(failed)
}

// SendDailyExpenseSummaries mails each active profile that recorded expenses
// on day a table of those expenses.
func (n *NotificationService) SendDailyExpenseSummaries(ctx context.Context, day time.Time) error {
	profiles, err := n.profiles.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active profiles: %w", err)
	}
	date := domain.DateOf(day)

	var sent, failed int
	for _, profile := range profiles {
		if err := ctx.Err(); err != nil {
			return err
		}
		expenses, err := n.expenses.ListOnDate(ctx, profile.ID, date)
		if err != nil {
			failed++
			n.logger.Warn("daily summary lookup failed", zap.Int64("profile_id", profile.ID), zap.Error(err))
			continue
		}
		if len(expenses) == 0 {
			continue
		}

		body, err := render(summaryTmpl, summaryMailData{
			FullName: profile.FullName,
			Rows:     summaryRows(expenses),
		})
		if err == nil {
			err = n.sender.Send(ctx, mailer.Message{
				To:       profile.Email,
				Subject:  "Your daily expense summary",
				HTMLBody: body,
			})
		}
		if err != nil {
			failed++
			n.logger.Warn("daily summary not sent", zap.Int64("profile_id", profile.ID), zap.Error(err))
			continue
		}
		sent++
	}

	n.logger.Info("daily summaries processed",
		zap.String("date", date.Format(time.DateOnly)),
		zap.Int("sent", sent),
		zap.Int("failed", failed))
	return failedSends(failed)
}

func failedSends(n int) error {
	if n == 0 {
		return nil
	}
	return fmt.Errorf("%d notification(s) failed", n)
}
