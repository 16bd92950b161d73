package quotationhttp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/cotacao/internal/platform/httpx"
	"github.com/odyssey-erp/cotacao/internal/pricing"
	"github.com/odyssey-erp/cotacao/internal/quotation"
	"github.com/odyssey-erp/cotacao/internal/shared"
)

// ActorHeader carries the numeric id of the acting user.
const ActorHeader = "X-Actor-ID"

// QuotationService is the contract the handler drives.
type QuotationService interface {
	Open(ctx context.Context, input quotation.OpenInput) (quotation.Record, error)
	Get(ctx context.Context, id string) (quotation.Record, error)
	List(ctx context.Context, status quotation.Status, limit int) ([]quotation.Header, error)
	ApplyEdits(ctx context.Context, id string, actorID int64, edits []quotation.Edit) (quotation.Record, quotation.ComparisonView, error)
	Import(ctx context.Context, input quotation.ImportInput) (quotation.Record, quotation.ImportReport, error)
	ImportFromPrior(ctx context.Context, input quotation.PriorImportInput) (quotation.Record, quotation.ImportReport, error)
	Compare(ctx context.Context, id string) (quotation.ComparisonView, error)
	Approve(ctx context.Context, id string, actorID int64, note string) (quotation.Record, error)
	Reject(ctx context.Context, id string, actorID int64, note string) (quotation.Record, error)
	Renegotiate(ctx context.Context, id string, actorID int64, note string) (quotation.Record, error)
	Resubmit(ctx context.Context, id string, actorID int64, note string) (quotation.Record, error)
	Decisions(ctx context.Context, id string) ([]shared.ApprovalLog, error)
}

// Handler serves the quotation JSON API.
type Handler struct {
	logger   *slog.Logger
	service  QuotationService
	validate *validator.Validate
}

// NewHandler constructs the quotation HTTP handler.
func NewHandler(logger *slog.Logger, service QuotationService) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

type openRequest struct {
	Number   string                   `json:"numero" validate:"max=40"`
	Title    string                   `json:"titulo" validate:"max=200"`
	Note     string                   `json:"observacao" validate:"max=1000"`
	Products []quotation.ProductInput `json:"produtos" validate:"required,min=1,dive"`
}

type editRequest struct {
	Edits []editDTO `json:"edicoes" validate:"required,min=1,max=500,dive"`
}

type editDTO struct {
	Kind        string         `json:"tipo" validate:"required,oneof=valor_unitario difal ipi qtde prazo_entrega valor_frete condicoes adicionar_fornecedor remover_fornecedor remover_item"`
	SupplierID  string         `json:"fornecedor_id" validate:"required_unless=Kind adicionar_fornecedor"`
	LineID      string         `json:"item_id"`
	Value       pricing.Amount `json:"valor"`
	Term        string         `json:"prazo_entrega" validate:"max=60"`
	Date        string         `json:"data_entrega_fn" validate:"max=30"`
	PaymentTerm string         `json:"prazo_pagamento" validate:"max=60"`
	FreightType string         `json:"tipo_frete" validate:"max=30"`
	Name        string         `json:"nome" validate:"max=200"`
	VendorID    string         `json:"fornecedor_cadastro_id" validate:"max=64"`
}

type importRequest struct {
	SupplierID string                `json:"fornecedor_id"`
	Rows       []quotation.ImportRow `json:"linhas" validate:"omitempty,max=5000"`
	Header     []string              `json:"cabecalho"`
	Table      [][]string            `json:"tabela" validate:"omitempty,max=5000"`
	Prior      *priorRef             `json:"origem"`
}

type priorRef struct {
	QuotationID string `json:"cotacao_id" validate:"required"`
	SupplierID  string `json:"fornecedor_id" validate:"required"`
}

type decisionRequest struct {
	Note string `json:"observacao" validate:"max=1000"`
}

type editResponse struct {
	Record     quotation.Record         `json:"registro"`
	Comparison quotation.ComparisonView `json:"comparacao"`
}

type importResponse struct {
	Record quotation.Record       `json:"registro"`
	Report quotation.ImportReport `json:"relatorio"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	items, err := h.service.List(r.Context(), quotation.Status(r.URL.Query().Get("status")), limit)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if items == nil {
		items = []quotation.Header{}
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) handleOpen(w http.ResponseWriter, r *http.Request) {
	var req openRequest
	if !h.decode(w, r, &req) {
		return
	}
	rec, err := h.service.Open(r.Context(), quotation.OpenInput{
		Number:   strings.TrimSpace(req.Number),
		Title:    strings.TrimSpace(req.Title),
		Note:     req.Note,
		ActorID:  actorID(r),
		Products: req.Products,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	w.Header().Set("Location", "/cotacoes/"+rec.Header.ID)
	httpx.JSON(w, http.StatusCreated, rec)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	rec, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rec)
}

func (h *Handler) handleEdits(w http.ResponseWriter, r *http.Request) {
	var req editRequest
	if !h.decode(w, r, &req) {
		return
	}
	edits := make([]quotation.Edit, 0, len(req.Edits))
	for i, dto := range req.Edits {
		edit, err := dto.toEdit()
		if err != nil {
			h.respondError(w, r, fmt.Errorf("edit %d: %w", i+1, err))
			return
		}
		edits = append(edits, edit)
	}
	rec, view, err := h.service.ApplyEdits(r.Context(), chi.URLParam(r, "id"), actorID(r), edits)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, editResponse{Record: rec, Comparison: view})
}

func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if !h.decode(w, r, &req) {
		return
	}
	id := chi.URLParam(r, "id")
	if req.Prior != nil {
		rec, report, err := h.service.ImportFromPrior(r.Context(), quotation.PriorImportInput{
			QuotationID:      id,
			PriorQuotationID: req.Prior.QuotationID,
			PriorSupplierID:  req.Prior.SupplierID,
			TargetSupplierID: req.SupplierID,
			ActorID:          actorID(r),
		})
		if err != nil {
			h.respondError(w, r, err)
			return
		}
		httpx.JSON(w, http.StatusOK, importResponse{Record: rec, Report: report})
		return
	}
	if req.SupplierID == "" {
		httpx.ValidationProblem(w, map[string]string{"fornecedor_id": "required"})
		return
	}
	rows := req.Rows
	var rowErrs []quotation.RowError
	if len(req.Table) > 0 {
		rows, rowErrs = quotation.RowsFromTable(req.Header, req.Table)
		if len(rows) == 0 && len(rowErrs) > 0 {
			fields := make(map[string]string, len(rowErrs))
			for _, re := range rowErrs {
				fields[fmt.Sprintf("tabela[%d]", re.Row)] = re.Reason
			}
			httpx.ValidationProblem(w, fields)
			return
		}
	}
	rec, report, err := h.service.Import(r.Context(), quotation.ImportInput{
		QuotationID: id,
		SupplierID:  req.SupplierID,
		Key:         strings.TrimSpace(r.Header.Get("Idempotency-Key")),
		ActorID:     actorID(r),
		Rows:        rows,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	report.Unmatched = append(rowErrs, report.Unmatched...)
	httpx.JSON(w, http.StatusOK, importResponse{Record: rec, Report: report})
}

func (h *Handler) handleComparison(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Compare(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

type decisionDTO struct {
	Action  string    `json:"acao"`
	ActorID int64     `json:"usuario_id"`
	Round   int       `json:"rodada"`
	Note    string    `json:"observacao,omitempty"`
	At      time.Time `json:"em"`
}

func (h *Handler) handleDecisions(w http.ResponseWriter, r *http.Request) {
	logs, err := h.service.Decisions(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	out := make([]decisionDTO, 0, len(logs))
	for _, l := range logs {
		out = append(out, decisionDTO{Action: string(l.Action), ActorID: l.ActorID, Round: l.Round, Note: l.Note, At: l.At})
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Compare(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	data, err := quotation.GenerateComparisonWorkbook(view)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	name := view.Number
	if name == "" {
		name = view.QuotationID
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "comparacao-"+name+".xlsx"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

type decisionFunc func(ctx context.Context, id string, actorID int64, note string) (quotation.Record, error)

func (h *Handler) handleDecision(fn decisionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req decisionRequest
		if r.ContentLength != 0 && !h.decode(w, r, &req) {
			return
		}
		rec, err := fn(r.Context(), chi.URLParam(r, "id"), actorID(r), req.Note)
		if err != nil {
			h.respondError(w, r, err)
			return
		}
		httpx.JSON(w, http.StatusOK, rec)
	}
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dest any) bool {
	if err := httpx.DecodeJSON(w, r, dest); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return false
	}
	if err := h.validate.Struct(dest); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				fields[fe.Namespace()] = fe.Tag()
			}
			httpx.ValidationProblem(w, fields)
			return false
		}
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return false
	}
	return true
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, quotation.ErrNotFound):
		err = fmt.Errorf("%w: %w", httpx.ErrNotFound, err)
	case errors.Is(err, quotation.ErrInvalidState):
		err = fmt.Errorf("%w: %w", httpx.ErrConflict, err)
	case errors.Is(err, quotation.ErrDuplicateImport):
		err = fmt.Errorf("%w: %w", httpx.ErrDuplicate, err)
	case errors.Is(err, quotation.ErrValidation),
		errors.Is(err, quotation.ErrSupplierNotFound),
		errors.Is(err, quotation.ErrLineNotFound),
		errors.Is(err, quotation.ErrDuplicateSupplier),
		errors.Is(err, pricing.ErrInvalidMoney):
		err = fmt.Errorf("%w: %w", httpx.ErrValidation, err)
	default:
		h.logger.Error("cotacao request", slog.String("path", r.URL.Path), slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

func actorID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(strings.TrimSpace(r.Header.Get(ActorHeader)), 10, 64)
	return id
}

// toEdit maps the wire edit to a draft edit. Numeric values must be blank or
// parseable money; malformed input is rejected here rather than coerced.
func (d editDTO) toEdit() (quotation.Edit, error) {
	key := quotation.LineKey{SupplierID: d.SupplierID, LineID: d.LineID}
	needsLine := func() error {
		if d.LineID == "" {
			return fmt.Errorf("%w: item_id required for %s", quotation.ErrValidation, d.Kind)
		}
		return nil
	}
	checkValue := func() error {
		if d.Value.IsBlank() {
			return nil
		}
		_, err := d.Value.Parse()
		return err
	}
	switch d.Kind {
	case "valor_unitario", "difal", "ipi", "qtde":
		if err := needsLine(); err != nil {
			return nil, err
		}
		if err := checkValue(); err != nil {
			return nil, err
		}
		switch d.Kind {
		case "valor_unitario":
			return quotation.SetUnitPrice{Key: key, Value: d.Value}, nil
		case "difal":
			return quotation.SetDifal{Key: key, Value: d.Value}, nil
		case "ipi":
			return quotation.SetIPI{Key: key, Value: d.Value}, nil
		default:
			return quotation.SetQuantity{Key: key, Value: d.Value}, nil
		}
	case "prazo_entrega":
		if err := needsLine(); err != nil {
			return nil, err
		}
		return quotation.SetDeliveryTerm{Key: key, Term: d.Term, Date: d.Date}, nil
	case "remover_item":
		if err := needsLine(); err != nil {
			return nil, err
		}
		return quotation.RemoveLine{Key: key}, nil
	case "valor_frete":
		if err := checkValue(); err != nil {
			return nil, err
		}
		return quotation.SetFreight{SupplierID: d.SupplierID, Value: d.Value}, nil
	case "condicoes":
		return quotation.SetSupplierTerms{SupplierID: d.SupplierID, PaymentTerm: d.PaymentTerm, FreightType: d.FreightType}, nil
	case "adicionar_fornecedor":
		if err := checkValue(); err != nil {
			return nil, err
		}
		return quotation.AddSupplier{
			ID:          d.SupplierID,
			SupplierID:  d.VendorID,
			Name:        d.Name,
			PaymentTerm: d.PaymentTerm,
			FreightType: d.FreightType,
			Freight:     d.Value,
		}, nil
	case "remover_fornecedor":
		return quotation.RemoveSupplier{SupplierID: d.SupplierID}, nil
	}
	return nil, fmt.Errorf("%w: unknown edit %q", quotation.ErrValidation, d.Kind)
}
