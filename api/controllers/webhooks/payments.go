package webhooks

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/stashspot/stashspot-backend/api/responses"
	paymentswebhook "github.com/stashspot/stashspot-backend/internal/webhooks/payments"
	"github.com/stashspot/stashspot-backend/pkg/config"
	pkgerrors "github.com/stashspot/stashspot-backend/pkg/errors"
	"github.com/stashspot/stashspot-backend/pkg/logger"
	"github.com/stashspot/stashspot-backend/pkg/metrics"
	"github.com/stashspot/stashspot-backend/pkg/signature"
)

const paymentSignatureHeader = "Payment-Signature"

type PaymentsWebhookService interface {
	HandleEvent(ctx context.Context, event *paymentswebhook.Event) (*paymentswebhook.Outcome, error)
}

// PaymentsWebhook ingests payment provider events. The raw body is captured
// before any parsing and verified before any read or write.
func PaymentsWebhook(svc PaymentsWebhookService, cfg config.WebhooksConfig, m *metrics.WebhookMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		if err := signature.VerifyBodyHMAC(cfg.PaymentsSigningSecret, r.Header.Get(paymentSignatureHeader), body); err != nil {
			rejectSignature(ctx, logg, w, m, "payments", err)
			return
		}

		event, err := paymentswebhook.ParseEvent(body)
		if err != nil {
			if m != nil {
				m.IncRejected("payments", "malformed")
			}
			responses.WriteError(ctx, logg, w, err)
			return
		}

		eventCtx := ctx
		if logg != nil {
			eventCtx = logg.WithEventID(ctx, event.ID)
		}
		outcome, err := svc.HandleEvent(eventCtx, event)
		if err != nil {
			if m != nil {
				m.IncRejected("payments", "processing")
			}
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if m != nil {
			if outcome.Duplicate {
				m.IncDuplicate("payments")
			} else {
				m.IncAccepted("payments")
			}
		}
		writeWebhookAck(w, outcome.Duplicate)
	}
}

func rejectSignature(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, m *metrics.WebhookMetrics, source string, err error) {
	if m != nil {
		m.IncRejected(source, signatureReason(err))
	}
	if errors.Is(err, signature.ErrMisconfiguredSecret) {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "webhook secret not configured"))
		return
	}
	responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "webhook signature rejected"))
}

func signatureReason(err error) string {
	switch {
	case errors.Is(err, signature.ErrMissingSignature):
		return "missing_signature"
	case errors.Is(err, signature.ErrBadFormat):
		return "bad_format"
	case errors.Is(err, signature.ErrStaleTimestamp):
		return "stale_timestamp"
	case errors.Is(err, signature.ErrMisconfiguredSecret):
		return "misconfigured_secret"
	default:
		return "mismatch"
	}
}

func writeWebhookAck(w http.ResponseWriter, duplicate bool) {
	payload := map[string]any{"ok": true}
	if duplicate {
		payload["duplicate"] = true
	}
	responses.WriteSuccess(w, payload)
}
