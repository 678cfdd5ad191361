package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/stashspot/stashspot-backend/internal/customers"
	"github.com/stashspot/stashspot-backend/pkg/db/models"
	"github.com/stashspot/stashspot-backend/pkg/enums"
	pkgerrors "github.com/stashspot/stashspot-backend/pkg/errors"
	"github.com/stashspot/stashspot-backend/pkg/logger"
)

// Sender delivers one completion message to a customer. The transport and
// message content live outside this service; main wires a concrete sender.
type Sender interface {
	SendCompletion(ctx context.Context, customer *models.Customer, booking *models.Booking, kind enums.NotificationKind) error
}

// Service records and dispatches completion notifications. One row is written
// per completion; dispatch failures leave the row unsent for later review.
type Service interface {
	NotifyCompletion(ctx context.Context, booking *models.Booking) error
}

type service struct {
	repo      Repository
	customers customers.Repository
	sender    Sender
	logg      *logger.Logger
	now       func() time.Time
}

// ServiceParams lists notification service dependencies.
type ServiceParams struct {
	Repo      Repository
	Customers customers.Repository
	Sender    Sender
	Logger    *logger.Logger
	Now       func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	if params.Customers == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "customers repository required")
	}
	if params.Sender == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notification sender required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &service{
		repo:      params.Repo,
		customers: params.Customers,
		sender:    params.Sender,
		logg:      params.Logger,
		now:       params.Now,
	}, nil
}

func (s *service) NotifyCompletion(ctx context.Context, booking *models.Booking) error {
	kind, err := enums.NotificationKindForService(booking.ServiceType)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve notification kind")
	}

	customer, err := s.customers.FindByID(ctx, booking.CustomerID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load notification recipient")
	}

	record := &models.Notification{
		CustomerID: booking.CustomerID,
		BookingID:  booking.ID,
		Kind:       kind,
	}
	var errs error
	if err := s.repo.Create(ctx, record); err != nil {
		errs = multierr.Append(errs, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record notification"))
	}

	if err := s.sender.SendCompletion(ctx, customer, booking, kind); err != nil {
		errs = multierr.Append(errs, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "send notification"))
	} else if record.ID != uuid.Nil {
		if err := s.repo.MarkSent(ctx, record, s.now().UTC()); err != nil {
			s.logg.Error(ctx, "mark notification sent failed", err)
		}
	}
	return errs
}

// LogSender is the default transport: it only logs. The real message delivery
// is an external collaborator.
type LogSender struct {
	Logg *logger.Logger
}

func (l *LogSender) SendCompletion(ctx context.Context, customer *models.Customer, booking *models.Booking, kind enums.NotificationKind) error {
	entry := l.Logg.WithFields(ctx, map[string]any{
		"customer_email": customer.Email,
		"booking_id":     booking.ID.String(),
		"kind":           string(kind),
	})
	l.Logg.Info(entry, "completion notification dispatched")
	return nil
}
