package dashboard

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/erp/receivables/internal/domain/collection"
	"github.com/erp/receivables/internal/domain/currency"
	"github.com/erp/receivables/internal/domain/dashboard"
	"github.com/erp/receivables/internal/domain/shared"
	"github.com/erp/receivables/internal/domain/shared/valueobject"
	"github.com/erp/receivables/internal/infrastructure/logger"
	"github.com/erp/receivables/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const serviceName = "dashboard"

var decimalOne = decimal.NewFromInt(1)

// Paging defaults
const (
	DefaultPerPage = 50
	MaxPerPage     = 500
)

// RateSource provides exchange rates for report conversion
type RateSource interface {
	Table(ctx context.Context) (*currency.RateTable, error)
	RecordMiss(ctx context.Context, code valueobject.Currency, err error)
}

// QueryServiceConfig holds the collaborators of the query service
type QueryServiceConfig struct {
	Contracts collection.ContractReader
	Rates     RateSource
	Metrics   *telemetry.ReceivablesMetrics
	Logger    *zap.Logger
	// Clock returns the current time; defaults to time.Now
	Clock func() time.Time
}

// QueryService answers dashboard queries over contracts and installments.
// Statuses are derived on read with one evaluator per query; nothing is cached.
type QueryService struct {
	contracts collection.ContractReader
	rates     RateSource
	metrics   *telemetry.ReceivablesMetrics
	logger    *zap.Logger
	now       func() time.Time
}

// NewQueryService creates a new QueryService
func NewQueryService(cfg QueryServiceConfig) *QueryService {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &QueryService{
		contracts: cfg.Contracts,
		rates:     cfg.Rates,
		metrics:   cfg.Metrics,
		logger:    log,
		now:       clock,
	}
}

// plan is a validated query
type plan struct {
	viewMode    dashboard.ViewMode
	dims        []dashboard.Dimension
	sortKey     dashboard.SortKey
	sortDir     dashboard.SortDir
	page        int
	perPage     int
	mode        currency.Mode
	requested   valueobject.Currency
	status      string
	contracts   collection.ContractFilter
	installment collection.InstallmentFilter
}

func parseRequest(req QueryRequest, identity shared.Identity) (*plan, error) {
	p := &plan{}
	var err error
	if p.viewMode, err = dashboard.ParseViewMode(req.ViewMode); err != nil {
		return nil, err
	}
	if p.dims, err = dashboard.ParseDimensions(req.GroupBy); err != nil {
		return nil, err
	}
	if p.sortKey, p.sortDir, err = dashboard.ParseSort(req.SortBy, req.SortDir); err != nil {
		return nil, err
	}
	if p.mode, err = currency.ParseMode(req.CurrencyMode); err != nil {
		return nil, err
	}
	if p.requested, err = parseCurrency(req.Currency); err != nil {
		return nil, err
	}

	switch {
	case req.Page < 0:
		return nil, shared.NewValidationError("INVALID_PAGE", "Page must be at least 1")
	case req.Page == 0:
		p.page = 1
	default:
		p.page = req.Page
	}
	switch {
	case req.PerPage < 0 || req.PerPage > MaxPerPage:
		return nil, shared.NewValidationError("INVALID_PER_PAGE", "Per page must be between 1 and 500")
	case req.PerPage == 0:
		p.perPage = DefaultPerPage
	default:
		p.perPage = req.PerPage
	}

	f := req.Filters
	if p.installment.DueStart, err = parseBound(f.DueStart); err != nil {
		return nil, err
	}
	if p.installment.DueEnd, err = parseBound(f.DueEnd); err != nil {
		return nil, err
	}
	if p.installment.DueStart != nil && p.installment.DueEnd != nil && p.installment.DueEnd.Before(*p.installment.DueStart) {
		return nil, shared.NewValidationError("INVALID_DATE_RANGE", "Due end must not be before due start")
	}

	p.status = strings.TrimSpace(f.Status)
	p.contracts = collection.ContractFilter{
		Keyword:       strings.TrimSpace(f.Keyword),
		CustomerGroup: strings.TrimSpace(f.CustomerGroup),
		ActivityTag:   strings.TrimSpace(f.ActivityTag),
		SalesUserIDs:  f.SalesUserIDs,
		Scope:         identity.Scope(),
	}
	if len(f.SalesUserIDs) == 0 {
		p.contracts.OwnerUserIDs = f.OwnerUserIDs
	}
	return p, nil
}

func parseBound(v string) (*time.Time, error) {
	if strings.TrimSpace(v) == "" {
		return nil, nil
	}
	t := collection.ParseDueDate(v)
	if t == nil {
		return nil, shared.NewValidationError("INVALID_DATE_RANGE", "Dates must be YYYY-MM-DD or RFC3339: "+v)
	}
	return t, nil
}

func parseCurrency(v string) (valueobject.Currency, error) {
	if strings.TrimSpace(v) == "" {
		return "", nil
	}
	code, err := valueobject.ParseCurrency(v)
	if err != nil {
		return "", shared.NewValidationError("INVALID_CURRENCY", "Invalid currency code: "+v)
	}
	return code, nil
}

// Query runs a dashboard query for the caller in ctx
func (s *QueryService) Query(ctx context.Context, req QueryRequest) (*QueryResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, telemetry.OperationDashboardQuery,
		telemetry.WithAttribute(telemetry.SpanAttrViewMode, req.ViewMode),
		telemetry.WithAttribute(telemetry.SpanAttrGroupBy, req.GroupBy),
	)
	defer span.End()
	start := s.now()

	var (
		resp *QueryResponse
		err  error
	)
	labels := telemetry.OperationLabels(telemetry.OperationDashboardQuery, map[string]string{
		telemetry.ProfilingLabelViewMode: req.ViewMode,
	})
	telemetry.WithProfilingLabels(ctx, labels, func(ctx context.Context) {
		resp, err = s.query(ctx, req)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		if shared.IsKind(err, shared.KindTransient) {
			logger.WithLogger(ctx, s.logger).Error("Dashboard query failed", zap.Error(err))
		}
		return nil, err
	}

	telemetry.SetAttributes(span, telemetry.SpanAttrRowCount, resp.Total)
	s.metrics.DashboardQueried(ctx, resp.ViewMode, s.now().Sub(start), resp.Total)
	return resp, nil
}

func (s *QueryService) query(ctx context.Context, req QueryRequest) (*QueryResponse, error) {
	identity, err := callerIdentity(ctx)
	if err != nil {
		return nil, err
	}
	p, err := parseRequest(req, identity)
	if err != nil {
		return nil, err
	}

	var (
		table     *currency.RateTable
		contracts []collection.Contract
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		table, err = s.rates.Table(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		contracts, err = s.contracts.FindContracts(gctx, p.contracts)
		if err != nil {
			return shared.AsTransient("Failed to load contracts", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	installments, err := s.loadInstallments(ctx, contracts, p.installment)
	if err != nil {
		return nil, err
	}

	ev := collection.NewStatusEvaluator(s.now())
	rows := buildRows(p.viewMode, contracts, installments, ev, !p.installment.IsZero())
	if p.status != "" {
		rows = filterStatus(rows, p.status)
	}

	conv := dashboard.NewConversion(table, p.mode, p.requested)
	warnings := s.recordMisses(ctx, conv, rows)

	if p.viewMode == dashboard.ViewModeStaffSummary {
		rows, _ = dashboard.StaffSummaryRows(rows, conv)
	}
	for i := range rows {
		conv.ApplyDisplay(&rows[i])
	}
	dashboard.SortRows(rows, p.sortKey, p.sortDir)

	summary, _ := dashboard.Summarize(rows, conv)
	groupStats, _ := dashboard.ComputeGroupStats(rows, p.dims, conv)

	pageRows := paginate(rows, p.page, p.perPage)
	resp := &QueryResponse{
		ViewMode:     string(p.viewMode),
		Rows:         pageRows,
		Total:        len(rows),
		Page:         p.page,
		PerPage:      p.perPage,
		Currency:     conv.Target.String(),
		CurrencyMode: string(p.mode),
		Summary:      summary,
		GroupStats:   groupStats,
		Groups:       dashboard.BuildGroups(pageRows, p.dims, groupStats, conv),
		RateWarnings: warnings,
	}
	if resp.Groups == nil {
		resp.Groups = []dashboard.Group{}
	}
	return resp, nil
}

func (s *QueryService) loadInstallments(ctx context.Context, contracts []collection.Contract, filter collection.InstallmentFilter) (map[uuid.UUID][]collection.Installment, error) {
	out := make(map[uuid.UUID][]collection.Installment, len(contracts))
	if len(contracts) == 0 {
		return out, nil
	}
	ids := make([]uuid.UUID, len(contracts))
	for i := range contracts {
		ids[i] = contracts[i].ID
	}
	installments, err := s.contracts.FindInstallmentsByContracts(ctx, ids, filter)
	if err != nil {
		return nil, shared.AsTransient("Failed to load installments", err)
	}
	for _, inst := range installments {
		out[inst.ContractID] = append(out[inst.ContractID], inst)
	}
	return out, nil
}

// buildRows shapes contracts and installments into rows for the view mode.
// With an installment filter, contracts without a matching installment drop out.
func buildRows(mode dashboard.ViewMode, contracts []collection.Contract, installments map[uuid.UUID][]collection.Installment, ev collection.StatusEvaluator, installmentFiltered bool) []dashboard.Row {
	rows := make([]dashboard.Row, 0, len(contracts))
	for i := range contracts {
		c := &contracts[i]
		children := installments[c.ID]
		if installmentFiltered && len(children) == 0 {
			continue
		}
		if mode == dashboard.ViewModeInstallment {
			for j := range children {
				rows = append(rows, dashboard.InstallmentRow(c, &children[j], ev))
			}
			continue
		}
		rows = append(rows, dashboard.ContractRow(c, children, ev))
	}
	return rows
}

func filterStatus(rows []dashboard.Row, status string) []dashboard.Row {
	out := rows[:0]
	for _, r := range rows {
		if collection.SameLabel(r.Status.Label, status) {
			out = append(out, r)
		}
	}
	return out
}

// recordMisses reports every row currency without a usable rate
func (s *QueryService) recordMisses(ctx context.Context, conv dashboard.Conversion, rows []dashboard.Row) []string {
	if conv.Mode == currency.ModeOriginal {
		return nil
	}
	seen := make(map[valueobject.Currency]bool)
	codes := []valueobject.Currency{conv.Target}
	for i := range rows {
		if !seen[rows[i].Currency] {
			seen[rows[i].Currency] = true
			codes = append(codes, rows[i].Currency)
		}
	}

	var warnings []string
	reported := make(map[valueobject.Currency]bool)
	for _, code := range codes {
		if reported[code] || conv.Table.Has(code, conv.Mode) {
			continue
		}
		reported[code] = true
		_, miss := conv.Table.ConvertChecked(decimalOne, code, conv.Mode, conv.Table.Base())
		if miss == nil {
			continue
		}
		s.rates.RecordMiss(ctx, code, miss)
		var de *shared.DomainError
		if errors.As(miss, &de) {
			warnings = append(warnings, de.Message)
		}
	}
	sort.Strings(warnings)
	return warnings
}

func paginate(rows []dashboard.Row, page, perPage int) []dashboard.Row {
	start := (page - 1) * perPage
	if start >= len(rows) {
		return []dashboard.Row{}
	}
	end := start + perPage
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}

// ContractInstallments returns the child rows of one visible contract, by sequence
func (s *QueryService) ContractInstallments(ctx context.Context, contractID uuid.UUID, req ContractInstallmentsRequest) (*ContractInstallmentsResponse, error) {
	identity, err := callerIdentity(ctx)
	if err != nil {
		return nil, err
	}
	mode, err := currency.ParseMode(req.CurrencyMode)
	if err != nil {
		return nil, err
	}
	requested, err := parseCurrency(req.Currency)
	if err != nil {
		return nil, err
	}

	contract, err := s.contracts.FindContractByID(ctx, contractID, identity.Scope())
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewNotFoundError("CONTRACT_NOT_FOUND", "Contract not found")
		}
		return nil, shared.AsTransient("Failed to load contract", err)
	}
	installments, err := s.contracts.FindInstallmentsByContracts(ctx, []uuid.UUID{contract.ID}, collection.InstallmentFilter{})
	if err != nil {
		return nil, shared.AsTransient("Failed to load installments", err)
	}
	table, err := s.rates.Table(ctx)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(installments, func(i, j int) bool { return installments[i].Sequence < installments[j].Sequence })
	ev := collection.NewStatusEvaluator(s.now())
	conv := dashboard.NewConversion(table, mode, requested)
	rows := make([]dashboard.Row, len(installments))
	for i := range installments {
		rows[i] = dashboard.InstallmentRow(contract, &installments[i], ev)
		conv.ApplyDisplay(&rows[i])
	}
	s.recordMisses(ctx, conv, rows)

	return &ContractInstallmentsResponse{
		ContractID: contract.ID,
		Rows:       rows,
		Currency:   conv.Target.String(),
	}, nil
}

// PreviewStatuses derives statuses for client-side values with the same rules as queries
func (s *QueryService) PreviewStatuses(req StatusPreviewRequest) *StatusPreviewResponse {
	ev := collection.NewStatusEvaluator(s.now())
	resp := &StatusPreviewResponse{
		Today:   ev.Today().Format("2006-01-02"),
		Results: make([]StatusPreviewResult, len(req.Items)),
	}
	for i, item := range req.Items {
		st := ev.Amounts(item.AmountDue, item.AmountPaid, item.DueDate, item.StatusOverride)
		resp.Results[i] = StatusPreviewResult{Key: item.Key, Label: st.Label, Severity: st.Severity}
	}
	return resp
}

func callerIdentity(ctx context.Context) (shared.Identity, error) {
	id, ok := shared.IdentityFromContext(ctx)
	if !ok || id.IsZero() {
		return shared.Identity{}, shared.NewPermissionError("UNAUTHENTICATED", "Caller identity is required")
	}
	return id, nil
}
