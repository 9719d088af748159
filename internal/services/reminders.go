package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"REMINDME_BACK-END/internal/common"
	"REMINDME_BACK-END/internal/models"
	"REMINDME_BACK-END/internal/repository"
	"REMINDME_BACK-END/internal/utils"
)

const maxTitleLen = 255

// ReminderInput is the caller-supplied part of a reminder.
type ReminderInput struct {
	Title       string
	Description *string
	DueDate     string
}

// ReminderService enforces ownership on every reminder operation.
type ReminderService struct {
	store repository.Store
}

func NewReminderService(store repository.Store) *ReminderService {
	return &ReminderService{store: store}
}

func (in ReminderInput) validate() (models.Reminder, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return models.Reminder{}, fmt.Errorf("%w: title is required", common.ErrValidation)
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return models.Reminder{}, fmt.Errorf("%w: title must be at most %d characters", common.ErrValidation, maxTitleLen)
	}
	if strings.TrimSpace(in.DueDate) == "" {
		return models.Reminder{}, fmt.Errorf("%w: due_date is required", common.ErrValidation)
	}
	due, err := utils.ParseDate(in.DueDate)
	if err != nil {
		return models.Reminder{}, fmt.Errorf("%w: due_date must be YYYY-MM-DD", common.ErrValidation)
	}
	return models.Reminder{Title: title, Description: in.Description, DueDate: due}, nil
}

func (s *ReminderService) Create(ctx context.Context, userID int64, in ReminderInput) (*models.Reminder, error) {
	rem, err := in.validate()
	if err != nil {
		return nil, err
	}
	rem.UserID = userID
	return s.store.Reminders().Create(ctx, &rem)
}

// List returns the user's reminders ordered by due date, then id.
func (s *ReminderService) List(ctx context.Context, userID int64) ([]models.Reminder, error) {
	return s.store.Reminders().ListByUser(ctx, userID)
}

func (s *ReminderService) Get(ctx context.Context, userID, id int64) (*models.Reminder, error) {
	rem, err := s.store.Reminders().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rem.UserID != userID {
		return nil, common.ErrForbidden
	}
	return rem, nil
}

// Update replaces title, description and due date. Existence is checked
// before ownership, and ownership before input validation.
func (s *ReminderService) Update(ctx context.Context, userID, id int64, in ReminderInput) (*models.Reminder, error) {
	var out *models.Reminder
	err := s.store.WithTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		current, err := repos.Reminders().GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if current.UserID != userID {
			return common.ErrForbidden
		}
		next, err := in.validate()
		if err != nil {
			return err
		}
		next.ID = current.ID
		next.UserID = current.UserID
		out, err = repos.Reminders().Update(ctx, &next)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ReminderService) Delete(ctx context.Context, userID, id int64) error {
	return s.store.WithTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		current, err := repos.Reminders().GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if current.UserID != userID {
			return common.ErrForbidden
		}
		return repos.Reminders().Delete(ctx, id)
	})
}
