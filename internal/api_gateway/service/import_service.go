package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"

	"github.com/sanord8/YL-portal-sub002/internal/config"
	"github.com/sanord8/YL-portal-sub002/internal/domain/access"
	"github.com/sanord8/YL-portal-sub002/internal/domain/movement"
	"github.com/sanord8/YL-portal-sub002/internal/domain/org"
	"github.com/sanord8/YL-portal-sub002/internal/domain/outbox"
	"github.com/sanord8/YL-portal-sub002/internal/domain/shared"
	"github.com/sanord8/YL-portal-sub002/internal/importer"
	"github.com/sanord8/YL-portal-sub002/internal/logger"
	"github.com/sanord8/YL-portal-sub002/internal/platform/persistence"
)

// ValidateImportInput is an uploaded statement for one source bank account
type ValidateImportInput struct {
	SourceBankAccountID uuid.UUID
	FileName            string
	Data                []byte
}

// Row outcomes reported by ExecuteImport
const (
	RowCreated         = "created"
	RowAlreadyImported = "already_imported"
	RowSkipped         = "skipped"
	RowFailed          = "failed"
)

// ImportRowResult is the outcome of a single row
type ImportRowResult struct {
	RowNumber           int                 `json:"row_number"`
	Status              string              `json:"status"`
	MovementID          *uuid.UUID          `json:"movement_id,omitempty"`
	NeedsCategorization bool                `json:"needs_categorization,omitempty"`
	Errors              []shared.FieldError `json:"errors,omitempty"`
}

// ImportSummary counts the outcome of an import batch. Success counts rows that
// ended up persisted, whether by this call or an earlier one.
type ImportSummary struct {
	BatchID             string            `json:"batch_id"`
	Drafts              int               `json:"drafts"`
	Success             int               `json:"success"`
	Failed              int               `json:"failed"`
	Skipped             int               `json:"skipped"`
	AlreadyImported     int               `json:"already_imported"`
	NeedsCategorization int               `json:"needs_categorization"`
	Results             []ImportRowResult `json:"results"`
}

// ImportServiceImpl implements the ImportService interface
type ImportServiceImpl struct {
	tx        persistence.TxRunner
	movements movement.Repository
	outbox    outbox.Repository
	refs      references
	policy    *access.Evaluator
	limits    config.ImportConfig
	logger    *slog.Logger
	now       func() time.Time
}

// NewImportService creates a new import service
func NewImportService(
	logger *slog.Logger,
	cfg *config.ImportConfig,
	tx persistence.TxRunner,
	movements movement.Repository,
	outboxRepo outbox.Repository,
	areas org.AreaRepository,
	departments org.DepartmentRepository,
	bankAccounts org.BankAccountRepository,
	policy *access.Evaluator,
) ImportService {
	return &ImportServiceImpl{
		tx:        tx,
		movements: movements,
		outbox:    outboxRepo,
		refs:      references{areas: areas, departments: departments, bankAccounts: bankAccounts},
		policy:    policy,
		limits:    *cfg,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *ImportServiceImpl) ValidateImport(ctx context.Context, p *access.Principal, in ValidateImportInput) (*importer.ValidationResult, error) {
	if p == nil {
		return nil, access.ErrUnauthenticated
	}
	if len(in.Data) > s.limits.MaxFileBytes {
		return nil, shared.NewValidationError("file_data", fmt.Sprintf("file exceeds the %d byte limit", s.limits.MaxFileBytes))
	}
	if in.SourceBankAccountID == uuid.Nil {
		return nil, shared.NewValidationError("source_bank_account_id", "is required")
	}

	r := s.newResolver(p)
	src, err := r.source(ctx, in.SourceBankAccountID)
	if err != nil {
		return nil, err
	}
	if src == nil {
		return nil, shared.NewValidationError("source_bank_account_id", org.ErrBankAccountNotFound{BankAccountID: in.SourceBankAccountID}.Error())
	}

	raw, err := importer.ParseFile(in.FileName, in.Data)
	if err != nil {
		if errors.Is(err, importer.ErrUnsupportedFileType) {
			return nil, shared.NewValidationError("file_name", err.Error())
		}
		return nil, shared.NewValidationError("file_data", err.Error())
	}
	if len(raw) > s.limits.MaxRows {
		return nil, shared.NewValidationError("file_data", fmt.Sprintf("statement has %d rows, the limit is %d", len(raw), s.limits.MaxRows))
	}

	rows := importer.ValidateRows(raw, src.account.ID, importer.FileHash(in.Data), src.currency(), s.now())
	for i := range rows {
		if err := r.resolve(ctx, &rows[i]); err != nil {
			return nil, err
		}
	}

	result := importer.Summarize(rows)
	logger.FromContext(ctx, s.logger).Info("Statement validated",
		"source_bank_account_id", in.SourceBankAccountID.String(),
		"file_name", in.FileName,
		"rows", result.TotalRows,
		"valid_rows", result.ValidRows,
		"errors", result.ErrorCount,
	)
	return &result, nil
}

// ExecuteImport persists valid rows as drafts, one transaction per row so a
// failing row does not abort the batch
func (s *ImportServiceImpl) ExecuteImport(ctx context.Context, p *access.Principal, rows []importer.Row, skipInvalid bool) (*ImportSummary, error) {
	if p == nil {
		return nil, access.ErrUnauthenticated
	}
	if len(rows) > s.limits.MaxRows {
		return nil, shared.NewValidationError("rows", fmt.Sprintf("batch has %d rows, the limit is %d", len(rows), s.limits.MaxRows))
	}

	batchID := ulid.Make().String()
	log := logger.FromContext(ctx, s.logger).With("batch_id", batchID)

	r := s.newResolver(p)
	for i := range rows {
		if err := s.revalidate(ctx, r, &rows[i]); err != nil {
			return nil, err
		}
	}

	if !skipInvalid {
		var verr shared.ValidationError
		for i := range rows {
			for _, fe := range rows[i].Errors {
				verr.Add(fmt.Sprintf("rows[%d].%s", i, fe.Field), fe.Message)
			}
		}
		if verr.HasErrors() {
			return nil, verr
		}
	}

	summary := &ImportSummary{BatchID: batchID, Results: make([]ImportRowResult, 0, len(rows))}
	for i := range rows {
		row := &rows[i]
		result := ImportRowResult{RowNumber: row.Data.RowNumber}

		if !row.Valid() {
			result.Status = RowSkipped
			result.Errors = row.Errors
			summary.Skipped++
			summary.Results = append(summary.Results, result)
			continue
		}

		m, created, err := s.persistRow(ctx, p, batchID, row.Data)
		switch {
		case err != nil:
			log.Warn("Failed to import row", "row", row.Data.RowNumber, "error", err)
			result.Status = RowFailed
			result.Errors = []shared.FieldError{{Field: "row", Message: rowFailure(err)}}
			summary.Failed++
		case !created:
			result.Status = RowAlreadyImported
			summary.AlreadyImported++
			summary.Success++
		default:
			result.Status = RowCreated
			result.MovementID = &m.ID
			result.NeedsCategorization = m.NeedsCategorization()
			summary.Drafts++
			summary.Success++
			if result.NeedsCategorization {
				summary.NeedsCategorization++
			}
		}
		summary.Results = append(summary.Results, result)
	}

	log.Info("Import executed",
		"rows", len(rows),
		"drafts", summary.Drafts,
		"already_imported", summary.AlreadyImported,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
	)
	return summary, nil
}

// revalidate checks a client round-tripped row again. Errors the client still
// carries keep the row invalid even when the server checks pass.
func (s *ImportServiceImpl) revalidate(ctx context.Context, r *resolver, row *importer.Row) error {
	clientErrors := row.Errors
	row.Errors = importer.ValidateData(row.Data)
	row.Data.Currency = strings.ToUpper(row.Data.Currency)
	row.Raw = nil

	if row.Data.SourceBankAccountID != uuid.Nil {
		src, err := r.source(ctx, row.Data.SourceBankAccountID)
		if err != nil {
			return err
		}
		if src == nil {
			row.AddError("source_bank_account_id", org.ErrBankAccountNotFound{BankAccountID: row.Data.SourceBankAccountID}.Error())
		} else if err := r.resolve(ctx, row); err != nil {
			return err
		}
	}

	if row.Valid() && len(clientErrors) > 0 {
		row.Errors = clientErrors
	}
	if row.Data.IdempotencyKey == "" {
		row.Data.IdempotencyKey = importer.ContentKey(row.Data)
	}
	return nil
}

func (s *ImportServiceImpl) persistRow(ctx context.Context, p *access.Principal, batchID string, d importer.RowData) (*movement.Movement, bool, error) {
	txDate, err := time.Parse(importer.DateLayout, d.Date)
	if err != nil {
		return nil, false, err
	}
	key := d.IdempotencyKey
	source := d.SourceBankAccountID

	m, err := movement.New(movement.Params{
		Type:                     d.Type,
		Amount:                   d.Amount,
		Currency:                 d.Currency,
		Description:              d.Description,
		Category:                 d.Category,
		TransactionDate:          txDate,
		AreaID:                   *d.AreaID,
		DepartmentID:             d.DepartmentID,
		UserID:                   p.UserID,
		SourceBankAccountID:      &source,
		DestinationBankAccountID: d.DestinationBankAccountID,
		IdempotencyKey:           &key,
	}, movement.StatusDraft)
	if err != nil {
		return nil, false, asValidation(err)
	}

	var created bool
	err = s.tx.ExecuteTx(ctx, func(tx pgx.Tx) error {
		created, err = s.movements.WithTx(tx).CreateIfAbsent(ctx, m)
		if err != nil || !created {
			return err
		}
		event := newEvent(ctx, shared.EventMovementImported, m, p.UserID, s.now())
		event.BatchID = batchID
		return stageEvent(ctx, s.outbox.WithTx(tx), event)
	})
	if err != nil {
		return nil, false, err
	}
	return m, created, nil
}

// rowFailure keeps storage internals out of per-row results
func rowFailure(err error) string {
	var verr shared.ValidationError
	if errors.As(err, &verr) {
		return verr.Error()
	}
	return "row could not be saved"
}

// sourceAccount is a statement's bank account and the area it feeds by default
type sourceAccount struct {
	account *org.BankAccount
	area    *org.Area
}

// currency sets the minor-unit scale for rows without their own currency
func (s *sourceAccount) currency() string {
	if s.area != nil {
		return s.area.Currency
	}
	return s.account.Currency
}

// resolver resolves row references against the ledger, caching lookups for
// the lifetime of one validate or execute call
type resolver struct {
	refs    references
	policy  *access.Evaluator
	p       *access.Principal
	sources map[uuid.UUID]*sourceAccount
	areas   map[uuid.UUID]*org.Area
	depts   map[uuid.UUID]*org.Department
	dests   map[uuid.UUID]bool
}

func (s *ImportServiceImpl) newResolver(p *access.Principal) *resolver {
	return &resolver{
		refs:    s.refs,
		policy:  s.policy,
		p:       p,
		sources: make(map[uuid.UUID]*sourceAccount),
		areas:   make(map[uuid.UUID]*org.Area),
		depts:   make(map[uuid.UUID]*org.Department),
		dests:   make(map[uuid.UUID]bool),
	}
}

// source returns nil for an unknown account
func (r *resolver) source(ctx context.Context, id uuid.UUID) (*sourceAccount, error) {
	if src, ok := r.sources[id]; ok {
		return src, nil
	}

	account, err := r.refs.bankAccounts.GetByID(ctx, id)
	if err != nil {
		var notFound org.ErrBankAccountNotFound
		if errors.As(err, &notFound) {
			r.sources[id] = nil
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load bank account: %w", err)
	}

	src := &sourceAccount{account: account}
	assigned, err := r.refs.areas.ListByBankAccount(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load areas for bank account: %w", err)
	}
	if len(assigned) > 0 {
		src.area = assigned[0]
		r.areas[src.area.ID] = src.area
	}
	r.sources[id] = src
	return src, nil
}

// resolve fills in the row's area and currency and records reference errors
// on the row. Only storage failures are returned.
func (r *resolver) resolve(ctx context.Context, row *importer.Row) error {
	d := &row.Data
	src := r.sources[d.SourceBankAccountID]
	if src == nil {
		return nil
	}

	areaID := d.AreaID
	if areaID == nil && src.area != nil {
		areaID = &src.area.ID
	}
	if areaID == nil {
		row.AddError(importer.ColAreaID, "no area given and the bank account has no assigned area")
		return nil
	}

	area, err := r.area(ctx, *areaID)
	if err != nil {
		return err
	}
	if area == nil {
		row.AddError(importer.ColAreaID, org.ErrAreaNotFound{AreaID: *areaID}.Error())
		return nil
	}
	d.AreaID = &area.ID

	if !r.policy.Can(r.p, access.ActionImport, access.Resource{AreaID: area.ID}) {
		row.AddError(importer.ColAreaID, access.ErrForbidden{Action: access.ActionImport, AreaID: area.ID}.Error())
	}

	if d.DepartmentID != nil {
		dept, err := r.department(ctx, *d.DepartmentID)
		if err != nil {
			return err
		}
		switch {
		case dept == nil:
			row.AddError(importer.ColDepartmentID, org.ErrDepartmentNotFound{DepartmentID: *d.DepartmentID}.Error())
		case dept.AreaID != area.ID:
			row.AddError(importer.ColDepartmentID, org.ErrDepartmentAreaMismatch{DepartmentID: dept.ID, AreaID: area.ID}.Error())
		}
	}

	if d.DestinationBankAccountID != nil {
		ok, err := r.destination(ctx, *d.DestinationBankAccountID)
		if err != nil {
			return err
		}
		if !ok {
			row.AddError(importer.ColDestinationID, org.ErrBankAccountNotFound{BankAccountID: *d.DestinationBankAccountID}.Error())
		}
	}

	if d.Currency == "" {
		d.Currency = area.Currency
		r.rescale(row, src.currency())
	}
	return nil
}

// rescale re-reads the amount when the resolved currency uses a different
// minor-unit exponent than the one the row was parsed with
func (r *resolver) rescale(row *importer.Row, parsedWith string) {
	if row.Raw == nil || importer.CurrencyExponent(row.Data.Currency) == importer.CurrencyExponent(parsedWith) {
		return
	}
	amount, _, err := importer.ParseAmount(row.Raw[importer.ColAmount], row.Data.Currency)
	if err != nil {
		row.AddError(importer.ColAmount, err.Error())
		return
	}
	row.Data.Amount = amount
}

func (r *resolver) area(ctx context.Context, id uuid.UUID) (*org.Area, error) {
	if area, ok := r.areas[id]; ok {
		return area, nil
	}
	area, err := r.refs.areas.GetByID(ctx, id)
	if err != nil {
		var notFound org.ErrAreaNotFound
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to load area: %w", err)
		}
		area = nil
	}
	r.areas[id] = area
	return area, nil
}

func (r *resolver) department(ctx context.Context, id uuid.UUID) (*org.Department, error) {
	if dept, ok := r.depts[id]; ok {
		return dept, nil
	}
	dept, err := r.refs.departments.GetByID(ctx, id)
	if err != nil {
		var notFound org.ErrDepartmentNotFound
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to load department: %w", err)
		}
		dept = nil
	}
	r.depts[id] = dept
	return dept, nil
}

func (r *resolver) destination(ctx context.Context, id uuid.UUID) (bool, error) {
	if ok, seen := r.dests[id]; seen {
		return ok, nil
	}
	if src, seen := r.sources[id]; seen {
		return src != nil, nil
	}
	_, err := r.refs.bankAccounts.GetByID(ctx, id)
	if err != nil {
		var notFound org.ErrBankAccountNotFound
		if !errors.As(err, &notFound) {
			return false, fmt.Errorf("failed to load bank account: %w", err)
		}
	}
	r.dests[id] = err == nil
	return err == nil, nil
}
