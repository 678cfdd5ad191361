package webhooks

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/stashspot/stashspot-backend/api/responses"
	schedulingwebhook "github.com/stashspot/stashspot-backend/internal/webhooks/scheduling"
	"github.com/stashspot/stashspot-backend/pkg/config"
	pkgerrors "github.com/stashspot/stashspot-backend/pkg/errors"
	"github.com/stashspot/stashspot-backend/pkg/logger"
	"github.com/stashspot/stashspot-backend/pkg/metrics"
	"github.com/stashspot/stashspot-backend/pkg/signature"
)

const schedulingSignatureHeader = "Scheduling-Signature"

type SchedulingWebhookService interface {
	HandleEvent(ctx context.Context, event *schedulingwebhook.Event) (*schedulingwebhook.Outcome, error)
}

// SchedulingWebhook ingests scheduling provider events. The timestamped
// signature bounds clock skew, so replayed deliveries outside the window are
// rejected before the ledger is ever consulted.
func SchedulingWebhook(svc SchedulingWebhookService, cfg config.WebhooksConfig, m *metrics.WebhookMetrics, logg *logger.Logger) http.HandlerFunc {
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

		err = signature.VerifyTimestampedHMAC(
			cfg.SchedulingSigningSecret,
			r.Header.Get(schedulingSignatureHeader),
			body,
			time.Now(),
			cfg.SchedulingClockTolerance,
		)
		if err != nil {
			rejectSignature(ctx, logg, w, m, "scheduling", err)
			return
		}

		event, err := schedulingwebhook.ParseEvent(body)
		if err != nil {
			if m != nil {
				m.IncRejected("scheduling", "malformed")
			}
			responses.WriteError(ctx, logg, w, err)
			return
		}

		eventCtx := ctx
		if logg != nil {
			eventCtx = logg.WithEventID(ctx, event.LedgerKey())
		}
		outcome, err := svc.HandleEvent(eventCtx, event)
		if err != nil {
			if m != nil {
				m.IncRejected("scheduling", "processing")
			}
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if m != nil {
			if outcome.Duplicate {
				m.IncDuplicate("scheduling")
			} else {
				m.IncAccepted("scheduling")
			}
		}
		writeWebhookAck(w, outcome.Duplicate)
	}
}
