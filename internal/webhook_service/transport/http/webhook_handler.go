package http

import (
	"context"
	"encoding/json"
	"net/http"

	"log/slog"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/acidburn132/SGVP-x-Wati/internal/webhook_service/app"
	"github.com/acidburn132/SGVP-x-Wati/internal/webhook_service/domain"
)

const MaxRequestBodySize = 1 << 20 // 1 MB

// PipelineRunner is the interface the handler needs from the orchestrator.
// It keeps the handler testable with a mock pipeline.
type PipelineRunner interface {
	Run(ctx context.Context, name, rawPhone string) domain.PipelineOutcome
}

type WebhookHandler struct {
	pipeline PipelineRunner
	logger   *slog.Logger
	validate *validator.Validate
}

func NewWebhookHandler(pipeline PipelineRunner, logger *slog.Logger, validate *validator.Validate) *WebhookHandler {
	return &WebhookHandler{
		pipeline: pipeline,
		logger:   logger.With("component", "webhook_handler"),
		validate: validate,
	}
}

func (h *WebhookHandler) RegisterRoutes(r chi.Router) {
	r.Post("/receive", h.HandleReceive)
	r.Get("/test", h.HandleTest)
	r.Get("/form", h.HandleForm)
}

// webhookRequestDTO accepts both phone keys the event source is known to
// emit; phoneNumber wins when both are present.
type webhookRequestDTO struct {
	Name             string `json:"name"`
	PhoneNumber      string `json:"phoneNumber"`
	PhoneNumberSnake string `json:"phone_number"`
}

type validatedRequest struct {
	Name  string `validate:"required"`
	Phone string `validate:"required"`
}

// HandleReceive is the inbound webhook: decode, validate, run the pipeline,
// translate the outcome into the JSON envelope.
func (h *WebhookHandler) HandleReceive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chimiddleware.GetReqID(ctx))

	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)
	var dto webhookRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		logger.WarnContext(ctx, "Failed to decode webhook request body", "error", err)
		writeJSON(w, logger, http.StatusBadRequest, apiResponse{Message: "Invalid request body"})
		return
	}

	phone := dto.PhoneNumber
	if phone == "" {
		phone = dto.PhoneNumberSnake
	}

	if err := h.validate.StructCtx(ctx, validatedRequest{Name: dto.Name, Phone: phone}); err != nil {
		logger.WarnContext(ctx, "Webhook request missing required fields", "error", err)
		writeJSON(w, logger, http.StatusBadRequest, apiResponse{Message: app.MsgFieldsRequired})
		return
	}

	logger.InfoContext(ctx, "Webhook received", "name", dto.Name)
	outcome := h.pipeline.Run(ctx, dto.Name, phone)

	resp := apiResponse{
		Success: outcome.Success,
		Message: outcome.Message,
		Data:    outcome.Data,
	}
	if outcome.Status == http.StatusInternalServerError {
		// The cause is logged by the pipeline with stage context; the caller
		// gets a generic string.
		resp.Error = "Failed to process the request"
	}
	writeJSON(w, logger, outcome.Status, resp)
}

// HandleTest is a liveness probe for the webhook route itself.
func (h *WebhookHandler) HandleTest(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.logger, http.StatusOK, apiResponse{
		Success: true,
		Message: "Webhook endpoint is live",
	})
}

// HandleForm serves a minimal browser form for manual testing.
func (h *WebhookHandler) HandleForm(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(testFormHTML)); err != nil {
		h.logger.Warn("Failed to write test form response", "error", err)
	}
}

const testFormHTML = `<!DOCTYPE html>
<html>
<head><title>Webhook Test Form</title></head>
<body>
  <h1>Report Card Delivery — Test Form</h1>
  <form id="f">
    <label>Name <input name="name" type="text"></label><br>
    <label>Phone Number <input name="phoneNumber" type="text"></label><br>
    <button type="submit">Send</button>
  </form>
  <pre id="out"></pre>
  <script>
    document.getElementById('f').addEventListener('submit', async (e) => {
      e.preventDefault();
      const data = Object.fromEntries(new FormData(e.target));
      const res = await fetch('/webhook/receive', {
        method: 'POST',
        headers: {'Content-Type': 'application/json'},
        body: JSON.stringify(data)
      });
      document.getElementById('out').textContent = JSON.stringify(await res.json(), null, 2);
    });
  </script>
</body>
</html>
`
