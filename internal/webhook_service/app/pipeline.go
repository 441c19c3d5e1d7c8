package app

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/acidburn132/SGVP-x-Wati/internal/webhook_service/domain"
)

// User-facing messages for each terminal state. The webhook caller and the
// requester (over the gateway) both see these strings, so they stay fixed.
const (
	MsgFieldsRequired    = "Name and phone number are required"
	MsgInvalidPhone      = "Invalid phone number format"
	MsgPhoneNotFound     = "Phone number not found in the database"
	MsgEnrollmentMissing = "Enrollment number not found for the matched phone number"
	MsgPDFNotFound       = "PDF not found for the enrollment number"
	MsgSent              = "Report card sent successfully"
	MsgInternalError     = "Internal server error"
)

// Pipeline sequences the verification-and-delivery stages for one webhook
// event: directory lookup, enrollment-number extraction, document location,
// download, and gateway dispatch. Each invocation is independent; the only
// shared resource is the temp-file namespace, which the fetcher keeps
// collision-free.
type Pipeline struct {
	directory        DirectoryLookup
	locator          DocumentLocator
	fetcher          DocumentFetcher
	dispatcher       DeliveryDispatcher
	enrollmentColumn string
	logger           *slog.Logger
}

func NewPipeline(
	directory DirectoryLookup,
	locator DocumentLocator,
	fetcher DocumentFetcher,
	dispatcher DeliveryDispatcher,
	enrollmentColumn string,
	logger *slog.Logger,
) *Pipeline {
	return &Pipeline{
		directory:        directory,
		locator:          locator,
		fetcher:          fetcher,
		dispatcher:       dispatcher,
		enrollmentColumn: enrollmentColumn,
		logger:           logger.With("component", "pipeline"),
	}
}

// Run drives one invocation through the state machine. Validation failures
// return before any external call; not-found conditions attempt one
// compensating text message; infrastructure failures terminate with a
// generic 500, the cause carried in Outcome.Err for logging only.
func (p *Pipeline) Run(ctx context.Context, name, rawPhone string) domain.PipelineOutcome {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(rawPhone) == "" {
		pipelineOutcomesCounter.WithLabelValues("validation_failed").Inc()
		return domain.PipelineOutcome{Status: http.StatusBadRequest, Message: MsgFieldsRequired}
	}

	phone, err := domain.NormalizePhone(rawPhone)
	if err != nil {
		pipelineOutcomesCounter.WithLabelValues("validation_failed").Inc()
		return domain.PipelineOutcome{Status: http.StatusBadRequest, Message: MsgInvalidPhone}
	}

	logger := p.logger.With("phone", phone, "name", name)

	record, found, err := p.timedFind(ctx, phone)
	if err != nil {
		return p.fatal(ctx, logger, "directory_lookup", err)
	}
	if !found {
		logger.InfoContext(ctx, "Phone number not present in directory")
		return p.errorDispatch(ctx, logger, phone, MsgPhoneNotFound)
	}

	enrollment, err := record.Value(p.enrollmentColumn)
	if err != nil {
		return p.fatal(ctx, logger, "enrollment_extract", err)
	}
	if enrollment == "" {
		// Deliberately no gateway message on this branch: the matched row is
		// malformed, and texting that number may be wrong. Kept distinct from
		// the other not-found branches.
		logger.WarnContext(ctx, "Enrollment number empty for matched phone")
		pipelineOutcomesCounter.WithLabelValues("enrollment_missing").Inc()
		return domain.PipelineOutcome{Status: http.StatusNotFound, Message: MsgEnrollmentMissing}
	}
	logger = logger.With("enrollment_number", enrollment)

	ref, found, err := p.timedLocate(ctx, enrollment)
	if err != nil {
		return p.fatal(ctx, logger, "document_locate", err)
	}
	if !found {
		logger.InfoContext(ctx, "No PDF found for enrollment number")
		return p.errorDispatch(ctx, logger, phone, MsgPDFNotFound)
	}
	logger = logger.With("document_id", ref.ID, "document_name", ref.Name)

	doc, err := p.timedFetch(ctx, ref.DownloadLink)
	if err != nil {
		return p.fatal(ctx, logger, "document_fetch", err)
	}
	defer p.releaseDocument(ctx, logger, doc)

	result, err := p.timedSendDocument(ctx, phone, ref.Name, doc)
	if err != nil {
		return p.fatal(ctx, logger, "dispatch", err)
	}

	logger.InfoContext(ctx, "Document dispatched", "size_bytes", doc.SizeBytes)
	pipelineOutcomesCounter.WithLabelValues("complete").Inc()
	return domain.PipelineOutcome{
		Status:  http.StatusOK,
		Success: true,
		Message: MsgSent,
		Data:    result.Response,
	}
}

// errorDispatch sends the stage-specific explanation to the requester. A
// failure of the compensating send itself escalates to fatal rather than
// being swallowed.
func (p *Pipeline) errorDispatch(ctx context.Context, logger *slog.Logger, phone, message string) domain.PipelineOutcome {
	start := time.Now()
	result, err := p.dispatcher.SendText(ctx, phone, message)
	pipelineStageDurationHist.WithLabelValues("error_dispatch").Observe(time.Since(start).Seconds())
	if err != nil {
		return p.fatal(ctx, logger, "error_dispatch", err)
	}

	logger.InfoContext(ctx, "Error message dispatched to requester", "message", message)
	pipelineOutcomesCounter.WithLabelValues("error_dispatch").Inc()
	return domain.PipelineOutcome{
		Status:  http.StatusNotFound,
		Message: message,
		Data:    result.Response,
	}
}

func (p *Pipeline) fatal(ctx context.Context, logger *slog.Logger, stage string, err error) domain.PipelineOutcome {
	logger.ErrorContext(ctx, "Pipeline stage failed", "stage", stage, "error", err)
	pipelineOutcomesCounter.WithLabelValues("fatal").Inc()
	return domain.PipelineOutcome{
		Status:  http.StatusInternalServerError,
		Message: MsgInternalError,
		Err:     err,
	}
}

// releaseDocument removes the spooled file. Runs on every exit path once a
// fetch has succeeded, whatever the dispatch outcome.
func (p *Pipeline) releaseDocument(ctx context.Context, logger *slog.Logger, doc *domain.FetchedDocument) {
	if err := os.Remove(doc.LocalPath); err != nil && !os.IsNotExist(err) {
		logger.WarnContext(ctx, "Failed to remove fetched document", "path", doc.LocalPath, "error", err)
	}
}

func (p *Pipeline) timedFind(ctx context.Context, phone string) (*domain.DirectoryRecord, bool, error) {
	start := time.Now()
	defer func() {
		pipelineStageDurationHist.WithLabelValues("directory_lookup").Observe(time.Since(start).Seconds())
	}()
	return p.directory.Find(ctx, phone)
}

func (p *Pipeline) timedLocate(ctx context.Context, enrollment string) (*domain.DocumentRef, bool, error) {
	start := time.Now()
	defer func() {
		pipelineStageDurationHist.WithLabelValues("document_locate").Observe(time.Since(start).Seconds())
	}()
	return p.locator.Locate(ctx, enrollment)
}

func (p *Pipeline) timedFetch(ctx context.Context, link string) (*domain.FetchedDocument, error) {
	start := time.Now()
	defer func() {
		pipelineStageDurationHist.WithLabelValues("document_fetch").Observe(time.Since(start).Seconds())
	}()
	return p.fetcher.Fetch(ctx, link)
}

func (p *Pipeline) timedSendDocument(ctx context.Context, phone, displayName string, doc *domain.FetchedDocument) (*domain.DeliveryResult, error) {
	start := time.Now()
	defer func() {
		pipelineStageDurationHist.WithLabelValues("dispatch").Observe(time.Since(start).Seconds())
	}()
	return p.dispatcher.SendDocument(ctx, phone, displayName, doc)
}
