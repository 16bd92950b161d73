package quotation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/odyssey-erp/cotacao/internal/pricing"
	"github.com/odyssey-erp/cotacao/internal/shared"
)

const auditEntity = "cotacao"

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id string) (Record, error)
	List(ctx context.Context, status Status, limit int) ([]Header, error)
}

// AuditPort records audit trail entries.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// ApprovalPort records and lists review decisions.
type ApprovalPort interface {
	Record(ctx context.Context, log shared.ApprovalLog) error
	List(ctx context.Context, module string, ref uuid.UUID) ([]shared.ApprovalLog, error)
}

// IdempotencyPort guards bulk imports against replays.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// CachePort stores computed comparisons.
type CachePort interface {
	FetchJSON(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) error
}

// WarmupQueue schedules a background comparison build.
type WarmupQueue interface {
	EnqueueComparisonWarmup(ctx context.Context, quotationID string) error
}

// Recorder receives engine metrics.
type Recorder interface {
	ObserveRecompute(d time.Duration)
	IncEdit(kind string)
}

// ServiceDeps groups optional collaborators. Nil members are skipped.
type ServiceDeps struct {
	Audit       AuditPort
	Approvals   ApprovalPort
	Idempotency IdempotencyPort
	Cache       CachePort
	Queue       WarmupQueue
	Metrics     Recorder
	Logger      *slog.Logger
	Options     pricing.Options
}

// Service orchestrates quotation drafts between the pricing engine and storage.
type Service struct {
	repo  RepositoryPort
	deps  ServiceDeps
	group singleflight.Group
	now   func() time.Time
	newID func() string
}

// NewService constructs the quotation service.
func NewService(repo RepositoryPort, deps ServiceDeps) *Service {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Options.Match == "" {
		deps.Options.Match = pricing.MatchByIDWithNameFallback
	}
	return &Service{repo: repo, deps: deps, now: time.Now, newID: uuid.NewString}
}

// OpenInput describes a new quotation.
type OpenInput struct {
	Number   string
	Title    string
	Note     string
	ActorID  int64
	Products []ProductInput
}

// Open creates a pending quotation from the canonical product list.
func (s *Service) Open(ctx context.Context, input OpenInput) (Record, error) {
	if len(input.Products) == 0 {
		return Record{}, fmt.Errorf("%w: at least one product required", ErrValidation)
	}
	products, err := productsFromInput(input.Products, s.newID)
	if err != nil {
		return Record{}, err
	}
	now := s.now().UTC()
	header := Header{
		ID:        s.newID(),
		Number:    input.Number,
		Title:     input.Title,
		Note:      input.Note,
		Version:   1,
		CreatedBy: input.ActorID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if header.Number == "" {
		header.Number = generateNumber("COT", now)
	}
	rec := NewDraft(header, products).ToRecord()
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.Insert(ctx, rec)
	})
	if err != nil {
		return Record{}, err
	}
	s.recordAudit(ctx, input.ActorID, "COTACAO_CREATE", rec.Header.ID, map[string]any{"numero": rec.Header.Number, "produtos": len(products)})
	return rec, nil
}

// Get loads a quotation record.
func (s *Service) Get(ctx context.Context, id string) (Record, error) {
	return s.repo.Get(ctx, id)
}

// List returns quotation headers, optionally filtered by status.
func (s *Service) List(ctx context.Context, status Status, limit int) ([]Header, error) {
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}
	return s.repo.List(ctx, status, limit)
}

// ApplyEdits applies a batch of edits atomically and returns the saved
// record with the recomputed comparison.
func (s *Service) ApplyEdits(ctx context.Context, id string, actorID int64, edits []Edit) (Record, ComparisonView, error) {
	if len(edits) == 0 {
		return Record{}, ComparisonView{}, fmt.Errorf("%w: no edits", ErrValidation)
	}
	d, err := s.mutate(ctx, id, func(d Draft) (Draft, error) {
		return d.ApplyAll(edits)
	})
	if err != nil {
		return Record{}, ComparisonView{}, err
	}
	kinds := make([]string, 0, len(edits))
	for _, e := range edits {
		kinds = append(kinds, e.Kind())
		if s.deps.Metrics != nil {
			s.deps.Metrics.IncEdit(e.Kind())
		}
	}
	s.recordAudit(ctx, actorID, "COTACAO_EDIT", id, map[string]any{"edicoes": kinds, "versao": d.header.Version})
	return d.ToRecord(), s.buildView(d), nil
}

// ImportInput describes rows to merge into one supplier quote.
type ImportInput struct {
	QuotationID string
	SupplierID  string
	// Key makes the import idempotent when set.
	Key     string
	ActorID int64
	Rows    []ImportRow
}

// Import merges already-parsed rows into a supplier's lines.
func (s *Service) Import(ctx context.Context, input ImportInput) (Record, ImportReport, error) {
	if len(input.Rows) == 0 {
		return Record{}, ImportReport{}, fmt.Errorf("%w: no rows", ErrValidation)
	}
	release, err := s.claimKey(ctx, input.Key)
	if err != nil {
		return Record{}, ImportReport{}, err
	}
	var report ImportReport
	d, err := s.mutate(ctx, input.QuotationID, func(d Draft) (Draft, error) {
		plan, r, err := PlanImport(d, input.SupplierID, input.Rows)
		if err != nil {
			return d, err
		}
		report = r
		return d.Apply(plan)
	})
	if err != nil {
		release()
		return Record{}, ImportReport{}, err
	}
	s.recordAudit(ctx, input.ActorID, "COTACAO_IMPORT", input.QuotationID, map[string]any{
		"fornecedor": input.SupplierID,
		"importados": report.Matched,
		"ignorados":  len(report.Unmatched),
	})
	return d.ToRecord(), report, nil
}

// PriorImportInput copies a supplier's offer from an earlier quotation.
type PriorImportInput struct {
	QuotationID      string
	PriorQuotationID string
	PriorSupplierID  string
	// TargetSupplierID selects an existing supplier; empty adds a new one
	// with the prior supplier's terms.
	TargetSupplierID string
	ActorID          int64
}

// ImportFromPrior brings a supplier's prices and lineage over from a prior quotation.
func (s *Service) ImportFromPrior(ctx context.Context, input PriorImportInput) (Record, ImportReport, error) {
	prior, err := s.repo.Get(ctx, input.PriorQuotationID)
	if err != nil {
		return Record{}, ImportReport{}, err
	}
	supplier, ok := prior.Supplier(input.PriorSupplierID)
	if !ok {
		return Record{}, ImportReport{}, fmt.Errorf("%w: %s", ErrSupplierNotFound, input.PriorSupplierID)
	}
	rows := RowsFromPriorQuotation(supplier)
	var report ImportReport
	target := input.TargetSupplierID
	d, err := s.mutate(ctx, input.QuotationID, func(d Draft) (Draft, error) {
		if target == "" {
			target = s.newID()
			var err error
			d, err = d.Apply(AddSupplier{
				ID:          target,
				SupplierID:  supplier.SupplierID,
				Name:        supplier.Name,
				PaymentTerm: supplier.PaymentTerm,
				FreightType: supplier.FreightType,
				Freight:     pricing.AmountOf(supplier.FreightValue),
			})
			if err != nil {
				return d, err
			}
		}
		plan, r, err := PlanImport(d, target, rows)
		if err != nil {
			return d, err
		}
		report = r
		return d.Apply(plan)
	})
	if err != nil {
		return Record{}, ImportReport{}, err
	}
	s.recordAudit(ctx, input.ActorID, "COTACAO_IMPORT_PRIOR", input.QuotationID, map[string]any{
		"origem":     input.PriorQuotationID,
		"fornecedor": target,
		"importados": report.Matched,
	})
	return d.ToRecord(), report, nil
}

// Compare returns the best prices and savings of a quotation, served from
// cache when the same version was built before.
func (s *Service) Compare(ctx context.Context, id string) (ComparisonView, error) {
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return ComparisonView{}, err
	}
	key := comparisonKey(rec.Header.ID, rec.Header.Version, s.deps.Options.Match)
	v, err, _ := s.group.Do(key, func() (any, error) {
		load := func(context.Context) (any, error) {
			d, err := FromRecord(rec)
			if err != nil {
				return nil, err
			}
			return s.buildView(d), nil
		}
		if s.deps.Cache == nil {
			return load(ctx)
		}
		var view ComparisonView
		if err := s.deps.Cache.FetchJSON(ctx, key, &view, load); err != nil {
			return nil, err
		}
		return view, nil
	})
	if err != nil {
		return ComparisonView{}, err
	}
	return v.(ComparisonView), nil
}

// WarmComparison builds and caches the comparison of a quotation.
func (s *Service) WarmComparison(ctx context.Context, id string) error {
	_, err := s.Compare(ctx, id)
	return err
}

// Approve marks a pending quotation as approved.
func (s *Service) Approve(ctx context.Context, id string, actorID int64, note string) (Record, error) {
	return s.transition(ctx, id, actorID, ActionApprove, note)
}

// Reject marks a pending quotation as rejected.
func (s *Service) Reject(ctx context.Context, id string, actorID int64, note string) (Record, error) {
	return s.transition(ctx, id, actorID, ActionReject, note)
}

// Renegotiate reopens a pending quotation for a new negotiation round.
func (s *Service) Renegotiate(ctx context.Context, id string, actorID int64, note string) (Record, error) {
	return s.transition(ctx, id, actorID, ActionRenegotiate, note)
}

// Resubmit sends a renegotiated quotation back for review.
func (s *Service) Resubmit(ctx context.Context, id string, actorID int64, note string) (Record, error) {
	return s.transition(ctx, id, actorID, ActionResubmit, note)
}

const approvalModule = "COTACAO"

var approvalActions = map[Action]shared.ApprovalAction{
	ActionApprove:     shared.ApprovalApprove,
	ActionReject:      shared.ApprovalReject,
	ActionRenegotiate: shared.ApprovalRenegotiate,
	ActionResubmit:    shared.ApprovalResubmit,
}

// Decisions lists the review history of a quotation, oldest first.
func (s *Service) Decisions(ctx context.Context, id string) ([]shared.ApprovalLog, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, err
	}
	if s.deps.Approvals == nil {
		return []shared.ApprovalLog{}, nil
	}
	logs, err := s.deps.Approvals.List(ctx, approvalModule, shared.RefID(approvalModule, id))
	if err != nil {
		return nil, fmt.Errorf("list decisions: %w", err)
	}
	if logs == nil {
		logs = []shared.ApprovalLog{}
	}
	return logs, nil
}

func (s *Service) transition(ctx context.Context, id string, actorID int64, action Action, note string) (Record, error) {
	var from Status
	d, err := s.mutate(ctx, id, func(d Draft) (Draft, error) {
		from = d.header.Status
		return d.Transition(action)
	})
	if err != nil {
		return Record{}, err
	}
	if s.deps.Approvals != nil {
		err := s.deps.Approvals.Record(ctx, shared.ApprovalLog{
			Module:  approvalModule,
			RefID:   shared.RefID(approvalModule, id),
			ActorID: actorID,
			Action:  approvalActions[action],
			Round:   d.header.Round,
			Note:    note,
		})
		if err != nil {
			s.deps.Logger.Warn("record approval", slog.String("cotacao", id), slog.Any("error", err))
		}
	}
	s.recordAudit(ctx, actorID, "COTACAO_STATUS", id, map[string]any{"de": string(from), "para": string(d.header.Status)})
	return d.ToRecord(), nil
}

// mutate loads, transforms and saves a draft in one transaction. Saving is
// last-write-wins; the version only keys the comparison cache.
func (s *Service) mutate(ctx context.Context, id string, fn func(Draft) (Draft, error)) (Draft, error) {
	var out Draft
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		rec, err := tx.Load(ctx, id)
		if err != nil {
			return err
		}
		d, err := FromRecord(rec)
		if err != nil {
			return err
		}
		next, err := fn(d)
		if err != nil {
			return err
		}
		next.header.Version++
		next.header.UpdatedAt = s.now().UTC()
		if err := tx.Update(ctx, next.ToRecord()); err != nil {
			return err
		}
		out = next
		return nil
	})
	if err != nil {
		return Draft{}, err
	}
	s.dropStale(ctx, id)
	s.enqueueWarmup(ctx, id)
	return out, nil
}

// dropStale removes comparisons cached for earlier versions.
func (s *Service) dropStale(ctx context.Context, id string) {
	inv, ok := s.deps.Cache.(interface {
		Invalidate(ctx context.Context, quotationID string) error
	})
	if !ok {
		return
	}
	if err := inv.Invalidate(ctx, id); err != nil {
		s.deps.Logger.Warn("invalidate comparison cache", slog.String("cotacao", id), slog.Any("error", err))
	}
}

func (s *Service) buildView(d Draft) ComparisonView {
	start := time.Now()
	cmp := d.Comparison(s.deps.Options)
	if s.deps.Metrics != nil {
		s.deps.Metrics.ObserveRecompute(time.Since(start))
	}
	return NewComparisonView(d.header, cmp)
}

// claimKey reserves an idempotency key; the returned func releases it.
func (s *Service) claimKey(ctx context.Context, key string) (func(), error) {
	if key == "" || s.deps.Idempotency == nil {
		return func() {}, nil
	}
	if err := s.deps.Idempotency.CheckAndInsert(ctx, "COT-IMPORT:"+key, "cotacao.import"); err != nil {
		if errors.Is(err, shared.ErrIdempotencyConflict) {
			return nil, fmt.Errorf("%w: import %s already processed", ErrDuplicateImport, key)
		}
		return nil, err
	}
	return func() {
		if err := s.deps.Idempotency.Delete(ctx, "COT-IMPORT:"+key); err != nil {
			s.deps.Logger.Warn("release import key", slog.String("key", key), slog.Any("error", err))
		}
	}, nil
}

func (s *Service) enqueueWarmup(ctx context.Context, id string) {
	if s.deps.Queue == nil {
		return
	}
	if err := s.deps.Queue.EnqueueComparisonWarmup(ctx, id); err != nil {
		s.deps.Logger.Warn("enqueue comparison warmup", slog.String("cotacao", id), slog.Any("error", err))
	}
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action, entityID string, meta map[string]any) {
	if s.deps.Audit == nil {
		return
	}
	if err := s.deps.Audit.Record(ctx, shared.AuditLog{ActorID: actorID, Action: action, Entity: auditEntity, EntityID: entityID, Meta: meta}); err != nil {
		s.deps.Logger.Warn("record audit", slog.String("action", action), slog.Any("error", err))
	}
}

func comparisonKey(id string, version int64, mode pricing.MatchMode) string {
	return fmt.Sprintf("cotacao:comparacao:%s:%s:%d", id, mode, version)
}

func generateNumber(prefix string, at time.Time) string {
	return fmt.Sprintf("%s-%s-%04d", prefix, at.Format("20060102"), at.Nanosecond()%10000)
}
