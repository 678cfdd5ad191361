package bookings

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stashspot/stashspot-backend/internal/audit"
	"github.com/stashspot/stashspot-backend/internal/items"
	"github.com/stashspot/stashspot-backend/pkg/db"
	"github.com/stashspot/stashspot-backend/pkg/db/models"
	"github.com/stashspot/stashspot-backend/pkg/enums"
	pkgerrors "github.com/stashspot/stashspot-backend/pkg/errors"
	"github.com/stashspot/stashspot-backend/pkg/logger"
	"github.com/stashspot/stashspot-backend/pkg/pagination"
	"github.com/stashspot/stashspot-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type completionNotifier interface {
	NotifyCompletion(ctx context.Context, booking *models.Booking) error
}

// Service covers every booking lifecycle operation: the scheduling-driven
// upsert and cancel, the portal's item selection and cancel, staff completion,
// and the portal reads.
type Service interface {
	CreateOrUpdateFromSchedulingEvent(ctx context.Context, input SchedulingBookingInput) (*SchedulingBookingResult, error)
	CancelFromSchedulingEvent(ctx context.Context, externalRef string) (*SchedulingCancelResult, error)
	SelectItems(ctx context.Context, input SelectItemsInput) (*SelectItemsResult, error)
	CustomerCancel(ctx context.Context, bookingID, customerID uuid.UUID) (*CancelResult, error)
	Complete(ctx context.Context, bookingID uuid.UUID) (*CompleteResult, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	Get(ctx context.Context, bookingID, customerID uuid.UUID) (*models.Booking, error)
}

// SchedulingBookingInput is the normalized form of an invitee.created event.
type SchedulingBookingInput struct {
	Email       string
	Name        string
	ExternalRef string
	ServiceType enums.ServiceType
	Start       *time.Time
	End         *time.Time
	Address     *types.Address
}

// SchedulingBookingResult reports what the upsert did. Orphaned means no
// account owns the email; the event was logged and dropped, which is a normal
// outcome for customers who schedule before signing up.
type SchedulingBookingResult struct {
	Booking  *models.Booking
	Created  bool
	Orphaned bool
}

// SchedulingCancelResult mirrors the cancel outcome; Orphaned again means no
// booking carries the external reference.
type SchedulingCancelResult struct {
	Booking  *models.Booking
	Orphaned bool
}

// SelectItemsInput carries the portal's candidate item set for a booking.
type SelectItemsInput struct {
	BookingID  uuid.UUID
	CustomerID uuid.UUID
	ItemIDs    []uuid.UUID
}

// SelectItemsResult returns the updated booking and the resulting split.
type SelectItemsResult struct {
	Booking       *models.Booking
	PickupItems   int
	DeliveryItems int
}

// CancelResult reports a customer cancellation; AlreadyCanceled marks the
// idempotent repeat call.
type CancelResult struct {
	AlreadyCanceled bool
}

// CompleteResult reports a staff completion. AlreadyCompleted means the
// conditional update lost to a concurrent caller and no notification was sent.
type CompleteResult struct {
	Booking          *models.Booking
	AlreadyCompleted bool
	ItemsUpdated     int
}

// ListParams filters and paginates a customer's bookings.
type ListParams struct {
	CustomerID uuid.UUID
	Status     string
	Limit      int
	Cursor     string
}

// ListResult wraps returned bookings and the cursor for the next page.
type ListResult struct {
	Bookings []models.Booking
	Cursor   string
}

// customerResolver is the slice of the customers service the scheduling
// upsert needs.
type customerResolver interface {
	ResolveByEmail(ctx context.Context, tx *gorm.DB, email, name string) (*models.Customer, error)
}

type service struct {
	repo        Repository
	items       items.Repository
	customers   customerResolver
	audit       audit.Service
	notifier    completionNotifier
	tx          txRunner
	logg        *logger.Logger
	completable []enums.BookingStatus
	now         func() time.Time
}

// ServiceParams lists booking service dependencies.
type ServiceParams struct {
	Repo              Repository
	Items             items.Repository
	Customers         customerResolver
	Audit             audit.Service
	Notifier          completionNotifier
	Tx                txRunner
	Logger            *logger.Logger
	CompletableStates []enums.BookingStatus
	Now               func() time.Time
}

// NewService wires booking dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "bookings repository required")
	}
	if params.Items == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "items store required")
	}
	if params.Customers == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "customer resolver required")
	}
	if params.Audit == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "audit service required")
	}
	if params.Notifier == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "completion notifier required")
	}
	if params.Tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	if len(params.CompletableStates) == 0 {
		params.CompletableStates = []enums.BookingStatus{
			enums.BookingStatusConfirmed,
			enums.BookingStatusPendingConfirmation,
		}
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &service{
		repo:        params.Repo,
		items:       params.Items,
		customers:   params.Customers,
		audit:       params.Audit,
		notifier:    params.Notifier,
		tx:          params.Tx,
		logg:        params.Logger,
		completable: params.CompletableStates,
		now:         params.Now,
	}, nil
}

func (s *service) CreateOrUpdateFromSchedulingEvent(ctx context.Context, input SchedulingBookingInput) (*SchedulingBookingResult, error) {
	if input.ExternalRef == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "external event reference required")
	}
	if !input.ServiceType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown service type")
	}

	result := &SchedulingBookingResult{}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		customer, err := s.customers.ResolveByEmail(ctx, tx, input.Email, input.Name)
		if err != nil {
			if pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
				result.Orphaned = true
				s.audit.TryRecord(ctx, tx, audit.Entry{
					EventType: enums.BookingEventOrphanScheduling,
					Metadata: map[string]any{
						"external_event_ref": input.ExternalRef,
						"email":              input.Email,
					},
				})
				return nil
			}
			return err
		}

		existing, err := repo.FindByExternalRef(ctx, input.ExternalRef)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup booking by external ref")
		}

		if existing != nil && err == nil {
			if err := s.applyReschedule(ctx, tx, repo, existing, input); err != nil {
				return err
			}
			result.Booking = existing
			return nil
		}

		booking := &models.Booking{
			CustomerID:       customer.ID,
			ServiceType:      input.ServiceType,
			Status:           enums.BookingStatusPendingItems,
			ScheduledStart:   input.Start,
			ScheduledEnd:     input.End,
			ExternalEventRef: input.ExternalRef,
			ServiceAddress:   input.Address,
		}
		if err := repo.Create(ctx, booking); err != nil {
			if db.IsUniqueViolation(err, "") {
				// A concurrent delivery of the same appointment won the
				// insert; treat this one as a reschedule of its row.
				raced, findErr := repo.FindByExternalRef(ctx, input.ExternalRef)
				if findErr != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, findErr, "reload booking after create race")
				}
				if err := s.applyReschedule(ctx, tx, repo, raced, input); err != nil {
					return err
				}
				result.Booking = raced
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create booking")
		}
		result.Booking = booking
		result.Created = true
		s.audit.TryRecord(ctx, tx, audit.Entry{
			BookingID: &booking.ID,
			EventType: enums.BookingEventCreated,
			Metadata: map[string]any{
				"external_event_ref": input.ExternalRef,
				"service_type":       string(input.ServiceType),
			},
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// applyReschedule rewrites the schedule fields of an existing booking in
// place and records the reschedule event.
func (s *service) applyReschedule(ctx context.Context, tx *gorm.DB, repo Repository, booking *models.Booking, input SchedulingBookingInput) error {
	updates := map[string]any{
		"scheduled_start": input.Start,
		"scheduled_end":   input.End,
	}
	if input.Address != nil {
		updates["service_address"] = input.Address
	}
	if err := repo.Update(ctx, booking.ID, updates); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update booking schedule")
	}
	booking.ScheduledStart = input.Start
	booking.ScheduledEnd = input.End
	if input.Address != nil {
		booking.ServiceAddress = input.Address
	}
	s.audit.TryRecord(ctx, tx, audit.Entry{
		BookingID: &booking.ID,
		EventType: enums.BookingEventRescheduled,
		Metadata:  map[string]any{"external_event_ref": input.ExternalRef},
	})
	return nil
}

// CancelFromSchedulingEvent applies a provider cancellation. The provider is
// authoritative for the appointment itself, so the transition table is
// bypassed; repeats and unknown references resolve silently.
func (s *service) CancelFromSchedulingEvent(ctx context.Context, externalRef string) (*SchedulingCancelResult, error) {
	if externalRef == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "external event reference required")
	}

	result := &SchedulingCancelResult{}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		booking, err := repo.FindByExternalRef(ctx, externalRef)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				result.Orphaned = true
				s.audit.TryRecord(ctx, tx, audit.Entry{
					EventType: enums.BookingEventOrphanCancellation,
					Metadata:  map[string]any{"external_event_ref": externalRef},
				})
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup booking by external ref")
		}

		priorStatus := booking.Status
		if !priorStatus.IsTerminal() {
			if err := s.revertClaimedItems(ctx, tx, booking); err != nil {
				return err
			}
			if err := repo.Update(ctx, booking.ID, map[string]any{"status": enums.BookingStatusCanceled}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel booking")
			}
			booking.Status = enums.BookingStatusCanceled
		}

		result.Booking = booking
		s.audit.TryRecord(ctx, tx, audit.Entry{
			BookingID: &booking.ID,
			EventType: enums.BookingEventProviderCanceled,
			Metadata: map[string]any{
				"external_event_ref": externalRef,
				"prior_status":       string(priorStatus),
			},
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) SelectItems(ctx context.Context, input SelectItemsInput) (*SelectItemsResult, error) {
	if input.BookingID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "booking id required")
	}
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer identity missing")
	}

	result := &SelectItemsResult{}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		booking, err := findOwnedBooking(ctx, repo, input.BookingID, input.CustomerID)
		if err != nil {
			return err
		}
		if err := EnsureTransition(booking.Status, enums.BookingStatusPendingConfirmation); err != nil {
			return err
		}

		// Fresh reads; item rows belonging to other customers simply never
		// come back and are therefore never assigned.
		candidates, err := s.items.WithTx(tx).FindOwned(ctx, input.CustomerID, input.ItemIDs)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load candidate items")
		}

		partitioned := Partition(PartitionInput{
			PrevPickup:   booking.PickupItemIDs,
			PrevDelivery: booking.DeliveryItemIDs,
			Candidates:   candidates,
		})

		itemRepo := s.items.WithTx(tx)
		if err := itemRepo.SetStatus(ctx, partitioned.SetScheduled, enums.ItemStatusScheduled); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark items scheduled")
		}
		if err := itemRepo.SetStatus(ctx, partitioned.RevertToHome, enums.ItemStatusHome); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revert items to home")
		}
		if err := itemRepo.SetStatus(ctx, partitioned.RevertToStore, enums.ItemStatusStored); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revert items to stored")
		}

		if err := repo.SetItemAssignment(ctx, booking.ID, partitioned.Pickup, partitioned.Delivery, enums.BookingStatusPendingConfirmation); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist item assignment")
		}

		booking.PickupItemIDs = partitioned.Pickup
		booking.DeliveryItemIDs = partitioned.Delivery
		booking.Status = enums.BookingStatusPendingConfirmation
		result.Booking = booking
		result.PickupItems = len(partitioned.Pickup)
		result.DeliveryItems = len(partitioned.Delivery)

		s.audit.TryRecord(ctx, tx, audit.Entry{
			BookingID: &booking.ID,
			EventType: enums.BookingEventItemsSelected,
			Metadata: map[string]any{
				"pickup_items":   len(partitioned.Pickup),
				"delivery_items": len(partitioned.Delivery),
			},
		})
		for _, skipped := range partitioned.Skipped {
			s.audit.TryRecord(ctx, tx, audit.Entry{
				BookingID: &booking.ID,
				EventType: enums.BookingEventInconsistentItem,
				Metadata:  map[string]any{"item_id": skipped.String()},
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) CustomerCancel(ctx context.Context, bookingID, customerID uuid.UUID) (*CancelResult, error) {
	if bookingID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "booking id required")
	}
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer identity missing")
	}

	result := &CancelResult{}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		booking, err := findOwnedBooking(ctx, repo, bookingID, customerID)
		if err != nil {
			return err
		}
		if booking.Status == enums.BookingStatusCanceled {
			result.AlreadyCanceled = true
			return nil
		}
		if booking.Status != enums.BookingStatusPendingItems &&
			booking.Status != enums.BookingStatusPendingConfirmation {
			return pkgerrors.New(
				pkgerrors.CodeStateConflict,
				"booking can no longer be canceled from the portal",
			)
		}

		if err := s.revertClaimedItems(ctx, tx, booking); err != nil {
			return err
		}
		if err := repo.Update(ctx, booking.ID, map[string]any{"status": enums.BookingStatusCanceled}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel booking")
		}

		s.audit.TryRecord(ctx, tx, audit.Entry{
			BookingID: &booking.ID,
			EventType: enums.BookingEventCustomerCanceled,
			Metadata:  map[string]any{"prior_status": string(booking.Status)},
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) Complete(ctx context.Context, bookingID uuid.UUID) (*CompleteResult, error) {
	if bookingID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "booking id required")
	}

	result := &CompleteResult{}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		booking, err := repo.FindByID(ctx, bookingID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load booking")
		}
		if !s.isCompletable(booking.Status) {
			if booking.Status == enums.BookingStatusCompleted {
				result.Booking = booking
				result.AlreadyCompleted = true
				return nil
			}
			return pkgerrors.New(
				pkgerrors.CodeStateConflict,
				"booking is not in a completable state",
			)
		}

		// Item updates first, fail closed: a booking must never read as
		// completed while its items still carry in-flight statuses.
		var affected []uuid.UUID
		var target enums.ItemStatus
		switch booking.ServiceType {
		case enums.ServiceTypePickup:
			affected, target = booking.PickupItemIDs, enums.ItemStatusStored
		case enums.ServiceTypeDelivery:
			affected, target = booking.DeliveryItemIDs, enums.ItemStatusHome
		}
		if err := s.items.WithTx(tx).SetStatus(ctx, affected, target); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update item statuses")
		}

		updated, err := repo.CompleteIf(ctx, booking.ID, s.completable, s.now().UTC())
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete booking")
		}
		if !updated {
			result.Booking = booking
			result.AlreadyCompleted = true
			return nil
		}

		booking.Status = enums.BookingStatusCompleted
		result.Booking = booking
		result.ItemsUpdated = len(affected)

		s.audit.TryRecord(ctx, tx, audit.Entry{
			BookingID: &booking.ID,
			EventType: enums.BookingEventCompleted,
			Metadata: map[string]any{
				"service_type":  string(booking.ServiceType),
				"items_updated": len(affected),
			},
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Exactly one notification per completion: only the caller whose
	// conditional update actually flipped the row gets here with
	// AlreadyCompleted unset. Failures are logged, never propagated; the
	// completion is already committed.
	if result.Booking != nil && !result.AlreadyCompleted {
		if err := s.notifier.NotifyCompletion(ctx, result.Booking); err != nil {
			s.logg.Error(s.logg.WithBookingID(ctx, result.Booking.ID.String()), "completion notification failed", err)
			s.audit.TryRecord(ctx, nil, audit.Entry{
				BookingID: &result.Booking.ID,
				EventType: enums.BookingEventNotificationFailure,
				Metadata:  map[string]any{"kind": "completion"},
			})
		}
	}
	return result, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer identity missing")
	}

	query := ListQuery{
		CustomerID: params.CustomerID,
		Limit:      params.Limit,
	}
	if params.Status != "" {
		status, err := enums.ParseBookingStatus(params.Status)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
		}
		query.Status = &status
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list bookings")
	}

	out := &ListResult{Bookings: rows}
	if next != nil {
		out.Cursor = pagination.EncodeCursor(*next)
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, bookingID, customerID uuid.UUID) (*models.Booking, error) {
	if bookingID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "booking id required")
	}
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer identity missing")
	}
	return findOwnedBooking(ctx, s.repo, bookingID, customerID)
}

func (s *service) isCompletable(status enums.BookingStatus) bool {
	for _, allowed := range s.completable {
		if allowed == status {
			return true
		}
	}
	return false
}

// revertClaimedItems returns a canceled booking's claims to their resting
// statuses: pickup claims go back home, delivery claims back to storage.
func (s *service) revertClaimedItems(ctx context.Context, tx *gorm.DB, booking *models.Booking) error {
	itemRepo := s.items.WithTx(tx)
	if err := itemRepo.SetStatus(ctx, booking.PickupItemIDs, enums.ItemStatusHome); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revert pickup items")
	}
	if err := itemRepo.SetStatus(ctx, booking.DeliveryItemIDs, enums.ItemStatusStored); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revert delivery items")
	}
	return nil
}

// findOwnedBooking conflates "not found" and "not yours" so the portal never
// leaks whether another customer's booking id exists.
func findOwnedBooking(ctx context.Context, repo Repository, bookingID, customerID uuid.UUID) (*models.Booking, error) {
	booking, err := repo.FindOwned(ctx, bookingID, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load booking")
	}
	return booking, nil
}
