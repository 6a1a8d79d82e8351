package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kanemolly/campus-resource-hub/internal/pkg/apperror"
	"github.com/kanemolly/campus-resource-hub/internal/resource"
)

type CreateRequest struct {
	ResourceID  string
	RequesterID string
	StartTime   time.Time
	EndTime     time.Time
	Notes       string
}

type SeriesRequest struct {
	ResourceID    string
	RequesterID   string
	FirstStart    time.Time
	FirstEnd      time.Time
	Pattern       Pattern
	RecurrenceEnd time.Time // inclusive date bound
	Notes         string
}

// SeriesResult reports a recurring creation. Created holds the parent first.
type SeriesResult struct {
	Parent       *Booking
	Created      []*Booking
	SkippedDates []time.Time
}

// EditRequest carries the fields to change; nil means unchanged.
type EditRequest struct {
	StartTime *time.Time
	EndTime   *time.Time
	Notes     *string
}

// ResourceCatalog is the read-only view of resources the scheduler needs.
type ResourceCatalog interface {
	GetByID(ctx context.Context, id string) (*resource.Resource, error)
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Booking, error)
	CreateSeries(ctx context.Context, req SeriesRequest) (*SeriesResult, error)
	GetByID(ctx context.Context, id string) (*Booking, error)
	List(ctx context.Context, filter Filter) ([]*Booking, int, error)
	ListSeries(ctx context.Context, parentID string) ([]*Booking, error)

	Confirm(ctx context.Context, id string, approver Actor) (*Booking, error)
	Cancel(ctx context.Context, id string, canceller Actor, reason string) (*Booking, error)
	Edit(ctx context.Context, id string, editor Actor, req EditRequest) (*Booking, error)
	Complete(ctx context.Context, id string) (*Booking, error)

	HasConflict(ctx context.Context, resourceID string, start, end time.Time) (bool, error)
	Availability(ctx context.Context, resourceID string, date time.Time, openStr, closeStr string) ([]TimeSlot, error)
}

type service struct {
	repo      Repository
	resources ResourceCatalog
	notifier  Notifier
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(repo Repository, resources ResourceCatalog, notifier Notifier, logger *zap.Logger) Service {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{
		repo:      repo,
		resources: resources,
		notifier:  notifier,
		logger:    logger,
		now:       NaiveNow,
	}
}

// invalidState builds an InvalidState error naming the attempted operation.
func invalidState(op string, current Status) error {
	return apperror.Wrap(ErrInvalidState, ErrInvalidState.Code,
		fmt.Sprintf("cannot %s a %s booking", op, current))
}

func optionalText(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// bookableResource loads the resource and rejects unknown or withdrawn ones.
func (s *service) bookableResource(ctx context.Context, resourceID string) (*resource.Resource, error) {
	res, err := s.resources.GetByID(ctx, resourceID)
	if err != nil {
		if errors.Is(err, resource.ErrNotFound) {
			return nil, ErrResourceNotFound
		}
		return nil, err
	}
	if !res.IsAvailable {
		return nil, ErrResourceUnavailable
	}
	return res, nil
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Booking, error) {
	if !req.StartTime.Before(req.EndTime) {
		return nil, ErrInvalidTimeRange
	}

	res, err := s.bookableResource(ctx, req.ResourceID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	b := &Booking{
		ResourceID:   req.ResourceID,
		ResourceName: res.Name,
		RequesterID:  req.RequesterID,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		Status:       DecideInitialStatus(res, false),
		Notes:        optionalText(req.Notes),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// A pending request does not reserve the slot, so only an auto-confirmed
	// booking needs the conflict check.
	if b.Status == StatusConfirmed {
		err = s.repo.WithinResourceLock(ctx, b.ResourceID, func(repo Repository) error {
			if err := NewConflictDetector(repo).check(ctx, b.ResourceID, b.StartTime, b.EndTime, ""); err != nil {
				return err
			}
			return repo.Create(ctx, b)
		})
	} else {
		err = s.repo.Create(ctx, b)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("booking created",
		zap.String("booking_id", b.ID),
		zap.String("resource_id", b.ResourceID),
		zap.String("actor_id", b.RequesterID),
		zap.String("status", string(b.Status)),
	)
	s.notify(ctx, EventCreated, b, b.RequesterID)
	return b, nil
}

func (s *service) CreateSeries(ctx context.Context, req SeriesRequest) (*SeriesResult, error) {
	if !req.FirstStart.Before(req.FirstEnd) {
		return nil, ErrInvalidTimeRange
	}
	if dateOf(req.RecurrenceEnd).Before(dateOf(req.FirstStart)) {
		return nil, ErrRecurrenceEnd
	}

	dates := OccurrenceDates(req.FirstStart, req.Pattern, req.RecurrenceEnd)
	if len(dates) > MaxOccurrences {
		return nil, ErrSeriesTooLong
	}
	if !req.Pattern.Valid() {
		s.logger.Warn("unknown recurrence pattern, creating first occurrence only",
			zap.String("pattern", string(req.Pattern)),
			zap.String("resource_id", req.ResourceID),
		)
	}

	res, err := s.bookableResource(ctx, req.ResourceID)
	if err != nil {
		return nil, err
	}
	status := DecideInitialStatus(res, true)
	notes := optionalText(req.Notes)
	pattern := req.Pattern
	endDate := dateOf(req.RecurrenceEnd)
	now := s.now()

	result := &SeriesResult{}

	// Occurrences are created one by one under a single lock so every check
	// sees the siblings written before it.
	err = s.repo.WithinResourceLock(ctx, req.ResourceID, func(repo Repository) error {
		detector := NewConflictDetector(repo)

		parent := &Booking{
			ResourceID:        req.ResourceID,
			ResourceName:      res.Name,
			RequesterID:       req.RequesterID,
			StartTime:         req.FirstStart,
			EndTime:           req.FirstEnd,
			Status:            status,
			Notes:             notes,
			IsRecurring:       true,
			RecurrencePattern: &pattern,
			RecurrenceEndDate: &endDate,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if err := detector.check(ctx, parent.ResourceID, parent.StartTime, parent.EndTime, ""); err != nil {
			return err
		}
		if err := repo.Create(ctx, parent); err != nil {
			return err
		}
		result.Parent = parent
		result.Created = append(result.Created, parent)

		for _, date := range dates[1:] {
			start, end := occurrenceInterval(date, req.FirstStart, req.FirstEnd)

			conflict, err := detector.HasConflict(ctx, req.ResourceID, start, end)
			if err != nil {
				return err
			}
			if conflict {
				result.SkippedDates = append(result.SkippedDates, date)
				continue
			}

			parentID := parent.ID
			child := &Booking{
				ResourceID:      req.ResourceID,
				ResourceName:    res.Name,
				RequesterID:     req.RequesterID,
				StartTime:       start,
				EndTime:         end,
				Status:          status,
				Notes:           notes,
				ParentBookingID: &parentID,
				CreatedAt:       now,
				UpdatedAt:       now,
			}
			if err := repo.Create(ctx, child); err != nil {
				return err
			}
			result.Created = append(result.Created, child)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("recurring series created",
		zap.String("booking_id", result.Parent.ID),
		zap.String("resource_id", req.ResourceID),
		zap.String("actor_id", req.RequesterID),
		zap.String("pattern", string(req.Pattern)),
		zap.Int("created", len(result.Created)),
		zap.Int("skipped", len(result.SkippedDates)),
	)
	s.notify(ctx, EventSeriesCreated, result.Parent, req.RequesterID)
	return result, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Booking, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Booking, int, error) {
	return s.repo.List(ctx, filter)
}

func (s *service) ListSeries(ctx context.Context, parentID string) ([]*Booking, error) {
	parent, err := s.repo.GetByID(ctx, parentID)
	if err != nil {
		return nil, err
	}
	// Resolve a child id to its series.
	if parent.ParentBookingID != nil {
		parentID = *parent.ParentBookingID
	}
	bookings, _, err := s.repo.List(ctx, Filter{ParentID: parentID, PageSize: MaxOccurrences, SortOrder: "asc"})
	return bookings, err
}

// lockedUpdate re-reads booking id under its resource lock and hands that
// copy to apply. The copy is written back when apply reports a change, so
// every status check sees the row as it is at write time.
func (s *service) lockedUpdate(ctx context.Context, id string, apply func(repo Repository, b *Booking) (bool, error)) (*Booking, bool, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}

	var changed bool
	err = s.repo.WithinResourceLock(ctx, b.ResourceID, func(repo Repository) error {
		current, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		write, err := apply(repo, current)
		if err != nil {
			return err
		}
		if write {
			if err := repo.Update(ctx, current); err != nil {
				return err
			}
		}
		b, changed = current, write
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return b, changed, nil
}

func (s *service) Confirm(ctx context.Context, id string, approver Actor) (*Booking, error) {
	if !approver.Privileged {
		return nil, ErrPermissionDenied
	}

	b, _, err := s.lockedUpdate(ctx, id, func(repo Repository, b *Booking) (bool, error) {
		if b.Status != StatusPending {
			return false, invalidState("confirm", b.Status)
		}
		// The slot may have been taken since the request was made.
		if err := NewConflictDetector(repo).check(ctx, b.ResourceID, b.StartTime, b.EndTime, b.ID); err != nil {
			return false, err
		}

		now := s.now()
		approverID := approver.ID
		b.Status = StatusConfirmed
		b.ApprovedByID = &approverID
		b.ApprovedAt = &now
		b.UpdatedAt = now
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	s.logTransition("booking confirmed", b, approver.ID)
	s.notify(ctx, EventConfirmed, b, approver.ID)
	return b, nil
}

func (s *service) Cancel(ctx context.Context, id string, canceller Actor, reason string) (*Booking, error) {
	b, _, err := s.lockedUpdate(ctx, id, func(_ Repository, b *Booking) (bool, error) {
		if !canceller.Privileged && b.RequesterID != canceller.ID {
			return false, ErrPermissionDenied
		}
		if b.Status.IsTerminal() {
			return false, invalidState("cancel", b.Status)
		}

		cancellerID := canceller.ID
		b.Status = StatusCancelled
		b.CancelledByID = &cancellerID
		b.CancellationReason = optionalText(reason)
		b.UpdatedAt = s.now()
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	s.logTransition("booking cancelled", b, canceller.ID)
	s.notify(ctx, EventCancelled, b, canceller.ID)
	return b, nil
}

func (s *service) Edit(ctx context.Context, id string, editor Actor, req EditRequest) (*Booking, error) {
	if req.StartTime == nil && req.EndTime == nil && req.Notes == nil {
		return nil, ErrNothingToUpdate
	}

	b, changed, err := s.lockedUpdate(ctx, id, func(repo Repository, b *Booking) (bool, error) {
		if !editor.Privileged && b.RequesterID != editor.ID {
			return false, ErrPermissionDenied
		}
		if b.Status.IsTerminal() {
			return false, invalidState("edit", b.Status)
		}

		newStart, newEnd := b.StartTime, b.EndTime
		if req.StartTime != nil {
			newStart = *req.StartTime
		}
		if req.EndTime != nil {
			newEnd = *req.EndTime
		}
		if !newStart.Before(newEnd) {
			return false, ErrInvalidTimeRange
		}

		var changes changeSet
		changes.time("start_time", b.StartTime, newStart)
		changes.time("end_time", b.EndTime, newEnd)
		newNotes := b.Notes
		if req.Notes != nil {
			newNotes = optionalText(*req.Notes)
			changes.text("notes", b.Notes, newNotes)
		}
		if len(changes) == 0 {
			return false, nil
		}

		// Notes-only edits cannot create an overlap and skip the conflict check.
		if !newStart.Equal(b.StartTime) || !newEnd.Equal(b.EndTime) {
			if err := NewConflictDetector(repo).check(ctx, b.ResourceID, newStart, newEnd, b.ID); err != nil {
				return false, err
			}
		}

		now := s.now()
		editorID := editor.ID
		summary := changes.Summary()
		b.StartTime = newStart
		b.EndTime = newEnd
		b.Notes = newNotes
		b.ModifiedByID = &editorID
		b.ModifiedAt = &now
		b.ChangeSummary = &summary
		b.UpdatedAt = now
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	if !changed {
		return b, nil
	}

	s.logger.Info("booking edited",
		zap.String("booking_id", b.ID),
		zap.String("resource_id", b.ResourceID),
		zap.String("actor_id", editor.ID),
		zap.String("changes", *b.ChangeSummary),
	)
	s.notify(ctx, EventEdited, b, editor.ID)
	return b, nil
}

func (s *service) Complete(ctx context.Context, id string) (*Booking, error) {
	b, _, err := s.lockedUpdate(ctx, id, func(_ Repository, b *Booking) (bool, error) {
		if b.Status.IsTerminal() {
			return false, invalidState("complete", b.Status)
		}
		b.Status = StatusCompleted
		b.UpdatedAt = s.now()
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	s.logTransition("booking completed", b, "")
	s.notify(ctx, EventCompleted, b, "")
	return b, nil
}

func (s *service) HasConflict(ctx context.Context, resourceID string, start, end time.Time) (bool, error) {
	if !start.Before(end) {
		return false, ErrInvalidTimeRange
	}
	return NewConflictDetector(s.repo).HasConflict(ctx, resourceID, start, end)
}

func (s *service) Availability(ctx context.Context, resourceID string, date time.Time, openStr, closeStr string) ([]TimeSlot, error) {
	if _, err := s.resources.GetByID(ctx, resourceID); err != nil {
		if errors.Is(err, resource.ErrNotFound) {
			return nil, ErrResourceNotFound
		}
		return nil, err
	}

	day := dateOf(date)
	confirmed, err := s.repo.FindConfirmed(ctx, resourceID, day, day.AddDate(0, 0, 1), "")
	if err != nil {
		return nil, err
	}
	return CalculateAvailability(day, openStr, closeStr, confirmed)
}

func (s *service) logTransition(msg string, b *Booking, actorID string) {
	s.logger.Info(msg,
		zap.String("booking_id", b.ID),
		zap.String("resource_id", b.ResourceID),
		zap.String("actor_id", actorID),
	)
}

// notify delivers an event without letting a notifier failure or panic
// reach the caller.
func (s *service) notify(ctx context.Context, event Event, b *Booking, actorID string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("notifier panicked",
				zap.String("event", string(event)),
				zap.String("booking_id", b.ID),
				zap.Any("panic", r),
			)
		}
	}()

	if err := s.notifier.Notify(ctx, event, b, actorID); err != nil {
		s.logger.Warn("booking notification failed",
			zap.String("event", string(event)),
			zap.String("booking_id", b.ID),
			zap.Error(err),
		)
	}
}
