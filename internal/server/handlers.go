package server

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/fakturownik/fakturownik/internal/calc"
	"github.com/fakturownik/fakturownik/internal/currency"
	"github.com/fakturownik/fakturownik/internal/id"
	"github.com/fakturownik/fakturownik/internal/invoice"
	"github.com/fakturownik/fakturownik/internal/jpk"
	"github.com/fakturownik/fakturownik/internal/ledger"
	"github.com/fakturownik/fakturownik/internal/model"
	"github.com/fakturownik/fakturownik/internal/periods"
)

// RateService resolves exchange rates and opens memoizing sessions.
type RateService interface {
	currency.Resolver
	NewSession() *currency.Session
}

// Handler serves the calculation API.
type Handler struct {
	rates    RateService
	builder  *jpk.Builder
	opts     periods.Options
	notifier invoice.Notifier
	now      func() time.Time
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithPeriodOptions sets the deadline settings used by /periods.
func WithPeriodOptions(o periods.Options) HandlerOption {
	return func(h *Handler) { h.opts = o }
}

// WithClock overrides the default as-of date and generation timestamp.
func WithClock(now func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.now = now
		h.builder = jpk.NewBuilder(jpk.WithClock(now))
	}
}

// WithNotifier registers n for assembly and generation events.
func WithNotifier(n invoice.Notifier) HandlerOption {
	return func(h *Handler) { h.notifier = n }
}

// NewHandler creates a Handler.
func NewHandler(rates RateService, opts ...HandlerOption) *Handler {
	h := &Handler{
		rates:   rates,
		builder: jpk.NewBuilder(),
		opts:    periods.DefaultOptions(),
		now:     time.Now,
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

// Health handles GET /healthz.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ComputeItem handles POST /api/v1/items/compute.
func (h *Handler) ComputeItem(c *gin.Context) {
	var req ItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	rate, err := model.ParseVatRate(req.VatRate)
	if err != nil {
		HandleError(c, err)
		return
	}
	li, err := calc.ComputeLineItem(model.LineItem{
		Description: req.Description,
		Quantity:    req.Quantity,
		UnitPrice:   req.UnitPrice,
		VatRate:     rate,
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, itemResponse(li))
}

// Rate handles GET /api/v1/rates/:currency/:date. The date is the issue
// date of a document; the returned rate is the one published before it.
func (h *Handler) Rate(c *gin.Context) {
	issue, err := time.Parse(dateFormat, c.Param("date"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "date must be YYYY-MM-DD")
		return
	}
	code := c.Param("currency")
	res := h.rates.Resolve(c.Request.Context(), code, issue)

	var warnings []error
	if res.Warning != nil {
		warnings = append(warnings, res.Warning)
	}
	RespondOK(c, RateResponse{
		Currency: code,
		Rate:     res.Rate,
		RateDate: res.RateDate.Format(dateFormat),
		Source:   string(res.Source),
	}, warnings...)
}

// Periods handles POST /api/v1/periods.
func (h *Handler) Periods(c *gin.Context) {
	var req PeriodsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	profile, err := req.Profile.toModel()
	if err != nil {
		HandleError(c, err)
		return
	}
	asOf, err := parseDate("as_of", req.AsOf)
	if err != nil {
		HandleError(c, err)
		return
	}
	if asOf.IsZero() {
		asOf = h.now()
	}

	docs, warnings, err := h.assemble(c, req.Documents)
	if err != nil {
		HandleError(c, err)
		return
	}

	ps, err := periods.BuildPeriods(docs, profile, asOf, h.opts)
	if err != nil {
		HandleError(c, err)
		return
	}
	out := make([]PeriodResponse, 0, len(ps))
	for _, p := range ps {
		out = append(out, periodResponse(p))
	}
	RespondOK(c, out, warnings...)
}

// JPK handles POST /api/v1/jpk and returns the declaration XML as an
// attachment. Rate fallbacks are reported in Warning headers.
func (h *Handler) JPK(c *gin.Context) {
	var req JPKRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	start, end, err := id.PeriodRange(req.Period)
	if err != nil {
		HandleError(c, model.NewValidationError(model.ErrInvalidDocument, "period", req.Period, "must be YYYY-MM"))
		return
	}

	var profile *model.BusinessProfile
	if req.Profile != nil {
		p, err := req.Profile.toModel()
		if err != nil {
			HandleError(c, err)
			return
		}
		profile = &p
	}

	docs, warnings, err := h.assemble(c, req.Documents)
	if err != nil {
		HandleError(c, err)
		return
	}
	invoices, expenses := ledger.Split(docs)

	period := model.FiscalPeriod{Key: req.Period, Start: start, End: end}
	decl, err := h.builder.Build(period, invoices, expenses, profile)
	if err != nil {
		HandleError(c, err)
		return
	}
	data, err := jpk.Serialize(decl)
	if err != nil {
		HandleError(c, err)
		return
	}

	l := requestLogger(c)
	l.Info().
		Str("period", req.Period).
		Int("sales", len(decl.Sales)).
		Int("purchases", len(decl.Purchases)).
		Msg("declaration generated")
	if h.notifier != nil {
		h.notifier.Notify(c.Request.Context(), invoice.Event{
			Kind:      invoice.EventDeclarationGenerated,
			PeriodKey: req.Period,
			Totals:    model.Totals{Net: decl.Summary.Net, Vat: decl.Summary.Vat, Gross: decl.Summary.Gross},
		})
	}

	for _, w := range warnings {
		c.Writer.Header().Add("Warning", fmt.Sprintf("199 fakturownik %q", w.Error()))
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", decl.FileName()))
	c.Data(http.StatusOK, "application/xml; charset=utf-8", data)
}

// assemble computes every document with one rate session so repeated
// (currency, date) pairs are looked up once per request.
func (h *Handler) assemble(c *gin.Context, reqs []DocumentRequest) ([]model.Document, []error, error) {
	log := requestLogger(c)
	asm := invoice.NewAssembler(h.rates.NewSession(),
		invoice.WithLogger(log),
		invoice.WithNotifier(h.notifier),
	)

	docs := make([]model.Document, 0, len(reqs))
	var warnings []error
	for i, r := range reqs {
		draft, err := r.toDraft()
		if err != nil {
			return nil, nil, fmt.Errorf("document %d: %w", i+1, err)
		}
		res, err := asm.Assemble(c.Request.Context(), draft)
		if err != nil {
			return nil, nil, fmt.Errorf("document %d: %w", i+1, err)
		}
		docs = append(docs, res.Document)
		warnings = append(warnings, res.Warnings...)
	}
	logWarnings(log, warnings)
	return docs, warnings, nil
}

func logWarnings(log zerolog.Logger, warnings []error) {
	for _, w := range warnings {
		var ext *model.ExternalServiceError
		if errors.As(w, &ext) {
			log.Warn().Str("op", ext.Op).Err(ext.Err).Msg("rate fallback applied")
		}
	}
}
