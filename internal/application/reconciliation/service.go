package reconciliation

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/erp/receivables/internal/domain/collection"
	"github.com/erp/receivables/internal/domain/currency"
	"github.com/erp/receivables/internal/domain/shared"
	"github.com/erp/receivables/internal/domain/shared/valueobject"
	"github.com/erp/receivables/internal/infrastructure/logger"
	"github.com/erp/receivables/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const serviceName = "reconciliation"

// idempotencyKeyPrefix namespaces receipt keys in the shared idempotency store
const idempotencyKeyPrefix = "receipt:"

// retryWarning is appended to transient failures on the money path
const retryWarning = "; retrying without an idempotency key may apply the receipt twice"

// RateSource provides the exchange rates used for foreign-currency receipts
type RateSource interface {
	Table(ctx context.Context) (*currency.RateTable, error)
	RecordMiss(ctx context.Context, code valueobject.Currency, err error)
}

// ServiceConfig holds the collaborators of the reconciliation service
type ServiceConfig struct {
	Receipts          collection.ReceiptRepository
	Overrides         collection.StatusOverrideRepository
	Rates             RateSource
	Attachments       AttachmentStore
	Idempotency       shared.IdempotencyStore
	IdempotencyConfig shared.IdempotencyConfig
	Events            shared.EventPublisher
	Metrics           *telemetry.ReceivablesMetrics
	Logger            *zap.Logger
	// Clock returns the current time; defaults to time.Now
	Clock func() time.Time
}

// Service applies receipts to installments and manages status overrides
type Service struct {
	receipts    collection.ReceiptRepository
	overrides   collection.StatusOverrideRepository
	rates       RateSource
	attachments AttachmentStore
	idempotency shared.IdempotencyStore
	idemConfig  shared.IdempotencyConfig
	events      shared.EventPublisher
	metrics     *telemetry.ReceivablesMetrics
	logger      *zap.Logger
	now         func() time.Time
}

// NewService creates a new reconciliation Service
func NewService(cfg ServiceConfig) *Service {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		receipts:    cfg.Receipts,
		overrides:   cfg.Overrides,
		rates:       cfg.Rates,
		attachments: cfg.Attachments,
		idempotency: cfg.Idempotency,
		idemConfig:  cfg.IdempotencyConfig,
		events:      cfg.Events,
		metrics:     cfg.Metrics,
		logger:      log,
		now:         clock,
	}
}

// ApplyReceipt records money received against an installment.
// The receipt insert, the paid increment and any override clear commit together;
// attachments and events follow on a best-effort basis.
func (s *Service) ApplyReceipt(ctx context.Context, req ApplyReceiptRequest) (resp *ReceiptResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, telemetry.OperationApplyReceipt,
		telemetry.WithAttribute(telemetry.SpanAttrInstallmentID, req.InstallmentID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrPaymentMethod, req.Method),
	)
	defer span.End()

	labels := telemetry.OperationLabels(telemetry.OperationApplyReceipt, map[string]string{
		telemetry.ProfilingLabelMethod: req.Method,
	})
	telemetry.WithProfilingLabels(ctx, labels, func(ctx context.Context) {
		resp, err = s.applyReceipt(ctx, req)
	})

	if err != nil {
		telemetry.RecordError(span, err)
		kind := shared.KindOf(err)
		s.metrics.ReceiptFailed(ctx, string(kind))
		log := logger.WithLogger(ctx, s.logger).With(
			zap.String("installment_id", req.InstallmentID.String()),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
		if kind == shared.KindTransient {
			log.Error("Receipt application failed")
		} else {
			log.Warn("Receipt application rejected")
		}
		return nil, err
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrReceiptID, resp.Receipt.ID.String(),
		telemetry.SpanAttrReplayed, resp.Replayed,
	)
	return resp, nil
}

func (s *Service) applyReceipt(ctx context.Context, req ApplyReceiptRequest) (*ReceiptResponse, error) {
	identity, err := callerIdentity(ctx)
	if err != nil {
		return nil, err
	}
	draft, err := s.toDraft(req, identity)
	if err != nil {
		return nil, err
	}
	if err := draft.Validate(); err != nil {
		return nil, err
	}
	scope := identity.Scope()

	if draft.IdempotencyKey != "" {
		if resp, ok, err := s.replayIfProcessed(ctx, req.InstallmentID, draft, scope); err != nil || ok {
			return resp, err
		}
	} else {
		logger.WithLogger(ctx, s.logger).Info("Receipt submitted without idempotency key",
			zap.String("installment_id", req.InstallmentID.String()))
	}

	ev := collection.NewStatusEvaluator(s.now())
	conv := &rateConverter{ctx: ctx, rates: s.rates}
	plan := collection.ReceiptPlan{
		Build: func(inst *collection.Installment, contract *collection.Contract) (*collection.Receipt, error) {
			r, err := collection.NewReceipt(inst, contract.Currency, draft, conv)
			if conv.err != nil {
				return nil, conv.err
			}
			return r, err
		},
		ShouldClearOverride: func(inst *collection.Installment) bool {
			return inst.ShouldClearOverride(ev)
		},
	}

	outcome, err := s.receipts.Apply(ctx, req.InstallmentID, scope, plan)
	if err != nil {
		switch {
		case errors.Is(err, collection.ErrDuplicateReceipt):
			return s.replay(ctx, req.InstallmentID, draft, scope)
		case errors.Is(err, shared.ErrNotFound):
			return nil, installmentNotFound()
		}
		return nil, shared.AsTransient("Failed to apply receipt"+retryWarning, err)
	}

	receipt, inst := outcome.Receipt, outcome.Installment
	status := ev.Installment(inst)
	failures := s.storeAttachments(ctx, receipt, req.Attachments)

	if draft.IdempotencyKey != "" {
		s.markProcessed(ctx, draft)
	}

	applied, _ := receipt.AppliedAmount.Float64()
	s.metrics.ReceiptApplied(ctx, string(receipt.Method), outcome.Contract.Currency.String(), applied, false)

	events := []shared.DomainEvent{collection.NewReceiptAppliedEvent(receipt, inst, status, outcome.OverrideCleared)}
	if outcome.OverrideCleared {
		s.metrics.OverrideChanged(ctx, string(collection.EntityTypeInstallment), "auto_clear")
		cleared := collection.NewStatusOverrideLog(collection.EntityTypeInstallment, inst.ID,
			outcome.PreviousOverride, "", "cleared by receipt "+receipt.ID.String(), receipt.CreatedBy)
		events = append(events, collection.NewStatusOverriddenEvent(cleared))
	}
	s.publish(ctx, events...)

	logger.WithLogger(ctx, s.logger).Info("Receipt applied",
		zap.String("receipt_id", receipt.ID.String()),
		zap.String("installment_id", inst.ID.String()),
		zap.String("amount_received", receipt.AmountReceived.String()),
		zap.String("currency", receipt.Currency.String()),
		zap.String("applied_amount", receipt.AppliedAmount.String()),
		zap.String("status", status.Label),
		zap.Bool("override_cleared", outcome.OverrideCleared),
	)

	return &ReceiptResponse{
		Receipt:            ToReceiptDTO(receipt),
		Installment:        ToInstallmentState(inst, status),
		OverrideCleared:    outcome.OverrideCleared,
		RollupAdvisory:     true,
		AttachmentFailures: failures,
	}, nil
}

func (s *Service) toDraft(req ApplyReceiptRequest, identity shared.Identity) (collection.ReceiptDraft, error) {
	draft := collection.ReceiptDraft{
		Amount:         req.AmountReceived,
		Method:         collection.PaymentMethod(strings.ToLower(strings.TrimSpace(req.Method))),
		CollectorID:    req.CollectorUserID,
		Note:           req.Note,
		IdempotencyKey: strings.TrimSpace(req.IdempotencyKey),
		CreatedBy:      identity.UserID,
	}
	if req.InstallmentID == uuid.Nil {
		return draft, shared.NewValidationError("INVALID_INSTALLMENT_ID", "Installment id is required")
	}
	received := collection.ParseDueDate(req.ReceivedDate)
	if received == nil {
		return draft, shared.NewValidationError("INVALID_RECEIVED_DATE",
			"Received date must be YYYY-MM-DD or RFC3339")
	}
	draft.ReceivedDate = *received
	if strings.TrimSpace(req.Currency) != "" {
		code, err := valueobject.ParseCurrency(req.Currency)
		if err != nil {
			return draft, shared.NewValidationError("INVALID_CURRENCY", "Invalid currency code: "+req.Currency)
		}
		draft.Currency = code
	}
	return draft, nil
}

// replayIfProcessed consults the fast-path store. A store failure only skips the shortcut;
// the unique index still catches duplicates.
func (s *Service) replayIfProcessed(ctx context.Context, installmentID uuid.UUID, draft collection.ReceiptDraft, scope *uuid.UUID) (*ReceiptResponse, bool, error) {
	if s.idempotency == nil || !s.idemConfig.Enabled {
		return nil, false, nil
	}
	processed, err := s.idempotency.IsProcessed(ctx, storeKey(draft))
	if err != nil {
		logger.WithLogger(ctx, s.logger).Warn("Idempotency store unavailable, relying on database", zap.Error(err))
		return nil, false, nil
	}
	if !processed {
		return nil, false, nil
	}
	resp, err := s.replay(ctx, installmentID, draft, scope)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, false, nil
	}
	return resp, true, err
}

// replay returns the receipt the caller already stored under the draft's key,
// with the installment as it is now. A key reused for a different receipt is
// a conflict, never a silent replay.
func (s *Service) replay(ctx context.Context, installmentID uuid.UUID, draft collection.ReceiptDraft, scope *uuid.UUID) (*ReceiptResponse, error) {
	receipt, err := s.receipts.FindByIdempotencyKey(ctx, draft.CreatedBy, draft.IdempotencyKey)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
		return nil, shared.AsTransient("Failed to load the original receipt", err)
	}
	if !receipt.Matches(installmentID, draft) {
		logger.WithLogger(ctx, s.logger).Warn("Idempotency key reused for a different receipt",
			zap.String("receipt_id", receipt.ID.String()),
			zap.String("original_installment_id", receipt.InstallmentID.String()),
			zap.String("installment_id", installmentID.String()))
		return nil, collection.ErrIdempotencyKeyReused
	}
	inst, _, err := s.receipts.FindInstallment(ctx, receipt.InstallmentID, scope)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, installmentNotFound()
		}
		return nil, shared.AsTransient("Failed to load installment", err)
	}

	applied, _ := receipt.AppliedAmount.Float64()
	s.metrics.ReceiptApplied(ctx, string(receipt.Method), receipt.Currency.String(), applied, true)
	logger.WithLogger(ctx, s.logger).Info("Receipt replayed for idempotency key",
		zap.String("receipt_id", receipt.ID.String()))

	ev := collection.NewStatusEvaluator(s.now())
	return &ReceiptResponse{
		Receipt:        ToReceiptDTO(receipt),
		Installment:    ToInstallmentState(inst, ev.Installment(inst)),
		Replayed:       true,
		RollupAdvisory: true,
	}, nil
}

func (s *Service) markProcessed(ctx context.Context, draft collection.ReceiptDraft) {
	if s.idempotency == nil || !s.idemConfig.Enabled {
		return
	}
	if _, err := s.idempotency.MarkProcessed(ctx, storeKey(draft), s.idemConfig.TTL); err != nil {
		logger.WithLogger(ctx, s.logger).Warn("Failed to record idempotency key", zap.Error(err))
	}
}

// storeAttachments uploads vouchers after commit. Failures are counted, never rolled back.
func (s *Service) storeAttachments(ctx context.Context, receipt *collection.Receipt, uploads []AttachmentPayload) int {
	if len(uploads) == 0 {
		return 0
	}
	log := logger.WithLogger(ctx, s.logger).With(zap.String("receipt_id", receipt.ID.String()))
	if s.attachments == nil {
		log.Warn("No attachment store configured, dropping vouchers", zap.Int("count", len(uploads)))
		for range uploads {
			s.metrics.AttachmentFailed(ctx)
		}
		return len(uploads)
	}

	failures := 0
	refs := make(collection.AttachmentRefs, 0, len(uploads))
	for _, payload := range uploads {
		up := payload.ToUpload()
		contentType := up.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		key := attachmentKey(receipt.ID, up.FileName)
		if err := s.attachments.Upload(ctx, key, up.Data, contentType); err != nil {
			failures++
			s.metrics.AttachmentFailed(ctx)
			log.Warn("Attachment upload failed", zap.String("file_name", up.FileName), zap.Error(err))
			continue
		}
		refs = append(refs, collection.AttachmentRef{
			Key:         key,
			FileName:    up.FileName,
			ContentType: contentType,
			Size:        int64(len(up.Data)),
		})
	}
	if len(refs) == 0 {
		return failures
	}

	if err := s.receipts.AppendAttachments(ctx, receipt.ID, refs); err != nil {
		failures += len(refs)
		for range refs {
			s.metrics.AttachmentFailed(ctx)
		}
		log.Warn("Failed to record attachment references", zap.Int("count", len(refs)), zap.Error(err))
		return failures
	}
	receipt.Attachments = append(receipt.Attachments, refs...)
	return failures
}

// UpdateStatusOverride sets or clears the manual status of an installment
func (s *Service) UpdateStatusOverride(ctx context.Context, req StatusOverrideRequest) (*StatusOverrideResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, telemetry.OperationOverrideStatus,
		telemetry.WithAttribute(telemetry.SpanAttrInstallmentID, req.EntityID.String()))
	defer span.End()

	var (
		resp *StatusOverrideResponse
		err  error
	)
	telemetry.WithProfilingLabels(ctx, telemetry.OperationLabels(telemetry.OperationOverrideStatus, nil), func(ctx context.Context) {
		resp, err = s.updateStatusOverride(ctx, req)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return resp, nil
}

func (s *Service) updateStatusOverride(ctx context.Context, req StatusOverrideRequest) (*StatusOverrideResponse, error) {
	identity, err := callerIdentity(ctx)
	if err != nil {
		return nil, err
	}
	domainReq := collection.StatusOverrideRequest{
		EntityType: collection.EntityType(strings.ToLower(strings.TrimSpace(req.EntityType))),
		EntityID:   req.EntityID,
		NewStatus:  req.NewStatus,
		Reason:     req.Reason,
		ActorID:    identity.UserID,
	}
	if err := domainReq.Validate(); err != nil {
		return nil, err
	}

	entry := collection.NewStatusOverrideLog(domainReq.EntityType, domainReq.EntityID, "",
		domainReq.NewStatus, domainReq.Reason, domainReq.ActorID)
	inst, err := s.overrides.SetInstallmentOverride(ctx, entry, identity.Scope())
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, installmentNotFound()
		}
		return nil, shared.AsTransient("Failed to update status override", err)
	}

	action := "set"
	if entry.NewOverride == "" {
		action = "clear"
	}
	s.metrics.OverrideChanged(ctx, string(entry.EntityType), action)
	s.publish(ctx, collection.NewStatusOverriddenEvent(entry))

	status := collection.NewStatusEvaluator(s.now()).Installment(inst)
	logger.WithLogger(ctx, s.logger).Info("Installment status override changed",
		zap.String("installment_id", inst.ID.String()),
		zap.String("previous", entry.PreviousOverride),
		zap.String("new", entry.NewOverride),
		zap.String("status", status.Label),
	)

	return &StatusOverrideResponse{
		Installment: ToInstallmentState(inst, status),
		Previous:    entry.PreviousOverride,
		Cleared:     entry.NewOverride == "",
	}, nil
}

// OverrideHistory returns the override audit trail of a visible installment, newest first
func (s *Service) OverrideHistory(ctx context.Context, installmentID uuid.UUID) ([]collection.StatusOverrideLog, error) {
	identity, err := callerIdentity(ctx)
	if err != nil {
		return nil, err
	}
	if _, _, err := s.receipts.FindInstallment(ctx, installmentID, identity.Scope()); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, installmentNotFound()
		}
		return nil, shared.AsTransient("Failed to load installment", err)
	}
	logs, err := s.overrides.ListLogs(ctx, installmentID)
	if err != nil {
		return nil, shared.AsTransient("Failed to load status override history", err)
	}
	return logs, nil
}

// ListAttachments returns the voucher references of a visible receipt
func (s *Service) ListAttachments(ctx context.Context, receiptID uuid.UUID) (*AttachmentListResponse, error) {
	receipt, err := s.findReceipt(ctx, receiptID)
	if err != nil {
		return nil, err
	}
	return &AttachmentListResponse{
		ReceiptID:   receipt.ID,
		Attachments: ToReceiptDTO(receipt).Attachments,
	}, nil
}

// PreviewAttachment returns a short-lived URL for a voucher of a visible receipt
func (s *Service) PreviewAttachment(ctx context.Context, key string) (*PreviewResponse, error) {
	if !IsAttachmentKey(key) {
		return nil, shared.NewValidationError("INVALID_ATTACHMENT_KEY", "Attachment key is not valid")
	}
	receiptID, err := uuid.Parse(strings.SplitN(strings.TrimPrefix(key, AttachmentKeyPrefix), "/", 2)[0])
	if err != nil {
		return nil, shared.NewValidationError("INVALID_ATTACHMENT_KEY", "Attachment key is not valid")
	}
	receipt, err := s.findReceipt(ctx, receiptID)
	if err != nil {
		return nil, err
	}
	if !hasAttachment(receipt, key) {
		return nil, attachmentNotFound()
	}
	if s.attachments == nil {
		return nil, shared.NewConfigError("ATTACHMENT_STORE_MISSING", "No attachment store is configured")
	}

	exists, err := s.attachments.Exists(ctx, key)
	if err != nil {
		return nil, shared.AsTransient("Failed to check attachment", err)
	}
	if !exists {
		return nil, attachmentNotFound()
	}
	url, expiresAt, err := s.attachments.PresignPreview(ctx, key)
	if err != nil {
		return nil, shared.AsTransient("Failed to create preview URL", err)
	}
	return &PreviewResponse{Key: key, URL: url, ExpiresAt: expiresAt}, nil
}

func (s *Service) findReceipt(ctx context.Context, id uuid.UUID) (*collection.Receipt, error) {
	identity, err := callerIdentity(ctx)
	if err != nil {
		return nil, err
	}
	receipt, err := s.receipts.FindByID(ctx, id, identity.Scope())
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewNotFoundError("RECEIPT_NOT_FOUND", "Receipt not found")
		}
		return nil, shared.AsTransient("Failed to load receipt", err)
	}
	return receipt, nil
}

func (s *Service) publish(ctx context.Context, events ...shared.DomainEvent) {
	if s.events == nil || len(events) == 0 {
		return
	}
	if err := s.events.Publish(ctx, events...); err != nil {
		logger.WithLogger(ctx, s.logger).Warn("Failed to publish domain events",
			zap.Int("count", len(events)), zap.Error(err))
	}
}

func hasAttachment(r *collection.Receipt, key string) bool {
	for _, ref := range r.Attachments {
		if ref.Key == key {
			return true
		}
	}
	return false
}

func callerIdentity(ctx context.Context) (shared.Identity, error) {
	id, ok := shared.IdentityFromContext(ctx)
	if !ok || id.IsZero() {
		return shared.Identity{}, shared.NewPermissionError("UNAUTHENTICATED", "Caller identity is required")
	}
	return id, nil
}

// storeKey namespaces a client key by its creator, matching the unique index
func storeKey(draft collection.ReceiptDraft) string {
	return idempotencyKeyPrefix + draft.CreatedBy.String() + ":" + draft.IdempotencyKey
}

func installmentNotFound() error {
	return shared.NewNotFoundError("INSTALLMENT_NOT_FOUND", "Installment not found")
}

func attachmentNotFound() error {
	return shared.NewNotFoundError("ATTACHMENT_NOT_FOUND", "Attachment not found")
}

// rateConverter resolves the rate table on first use inside the reconciliation
// transaction. A load failure is kept in err for the caller to report.
type rateConverter struct {
	ctx   context.Context
	rates RateSource
	err   error
}

func (c *rateConverter) ConvertFixed(amount decimal.Decimal, from, to valueobject.Currency) decimal.Decimal {
	if c.rates == nil {
		c.err = shared.NewConfigError("EXCHANGE_RATES_MISSING", "No exchange rate source is configured")
		return decimal.Zero
	}
	table, err := c.rates.Table(c.ctx)
	if err != nil {
		c.err = err
		return decimal.Zero
	}
	v, miss := table.ConvertChecked(amount, from, currency.ModeFixed, to)
	if miss != nil {
		code := from
		if table.Has(from, currency.ModeFixed) {
			code = to
		}
		c.rates.RecordMiss(c.ctx, code, miss)
	}
	return v
}
