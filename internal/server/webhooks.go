package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"claimwork/internal/engine"
	"claimwork/internal/logging"
)

const (
	signatureHeader = "X-Hub-Signature-256"
	eventHeader     = "X-GitHub-Event"
	deliveryHeader  = "X-GitHub-Delivery"
	maxWebhookBody  = 25 << 20
)

// githubWebhookHandler accepts pull_request deliveries. It answers 200 for
// every ignored delivery, 401 for a bad signature, 400 for a payload that
// does not parse and 500 only for store failures.
func githubWebhookHandler(e engine.Engine, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := bodyBytes(r.Context())
		if payload == nil {
			data, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
			if err != nil {
				respondStatusError(w, newAPIError(http.StatusBadRequest, "bad_request", "could not read body", nil))
				return
			}
			payload = data
		}
		delivery := r.Header.Get(deliveryHeader)
		out, err := e.HandleWebhook(r.Context(), engine.WebhookDelivery{
			Payload:   payload,
			Signature: r.Header.Get(signatureHeader),
			EventType: r.Header.Get(eventHeader),
		})
		if err != nil {
			switch engine.KindOf(err) {
			case engine.KindUnauthorized:
				log.Warn("webhook signature rejected", "delivery", delivery)
				respondStatusError(w, newAPIError(http.StatusUnauthorized, "invalid_signature", err.Error(), nil))
			case engine.KindValidation:
				log.Warn("webhook payload rejected", "delivery", delivery, "error", err)
				respondStatusError(w, newAPIError(http.StatusBadRequest, "bad_request", err.Error(), nil))
			default:
				logging.CaptureError(err, "delivery", delivery, "event", r.Header.Get(eventHeader))
				respondStatusError(w, newAPIError(http.StatusInternalServerError, "internal_error", "Internal server error", nil))
			}
			return
		}
		log.Debug("webhook handled", "delivery", delivery, "status", out.Status, "reason", out.Reason, "ticket_id", out.TicketID)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(out)
	}
}
