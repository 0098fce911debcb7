package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"VolPulse/internal/domain/models"
	"VolPulse/internal/engine"
	"VolPulse/internal/service/ratelimit"
	"VolPulse/internal/usecase"
	"VolPulse/pkg/cache"
	xhttp "VolPulse/pkg/http"
	xlogger "VolPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

// VolatilityHandler exposes the solver, index, and calibration endpoints.
type VolatilityHandler struct {
	logger   *xlogger.Logger
	svc      *usecase.VolatilityService
	cache    cache.Service
	cacheTTL time.Duration
	limiter  *ratelimit.Limiter
	rate     float64 // requests per window, per commodity
	window   time.Duration
}

// HandlerOption configures VolatilityHandler.
type HandlerOption func(*VolatilityHandler)

// WithIndexCache enables caching of index computations.
func WithIndexCache(c cache.Service, ttl time.Duration) HandlerOption {
	return func(h *VolatilityHandler) {
		h.cache = c
		h.cacheTTL = ttl
	}
}

// WithRateLimit enables per-commodity rate limiting.
func WithRateLimit(l *ratelimit.Limiter, rate int, window time.Duration) HandlerOption {
	return func(h *VolatilityHandler) {
		h.limiter = l
		h.rate = float64(rate)
		h.window = window
	}
}

func NewVolatilityHandler(logger *xlogger.Logger, svc *usecase.VolatilityService, opts ...HandlerOption) *VolatilityHandler {
	h := &VolatilityHandler{logger: logger, svc: svc}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *VolatilityHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/solve", h.Solve)
	g.POST("/index", h.Index)
	g.GET("/metrics/history", h.HistoryMetrics)
	g.GET("/commodities", h.Commodities)
}

// indexEnvelope is the cached and returned shape of an index computation.
type indexEnvelope struct {
	Index  models.IndexResult `json:"index"`
	Signal models.Signal      `json:"signal"`
}

func (h *VolatilityHandler) Solve(c echo.Context) error {
	req := &models.SolveRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.allow(req.Commodity) {
		return tooManyRequests(c)
	}

	quote, err := quoteFromRequest(req.Quote)
	if err != nil {
		return xhttp.BadRequestResponse(c, err.Error())
	}
	forward, err := models.NewForward(req.Forward.Symbol, req.Forward.Price, models.Currency(req.Forward.Currency))
	if err != nil {
		return xhttp.BadRequestResponse(c, err.Error())
	}

	res, err := h.svc.SolveIV(c.Request().Context(), req.Commodity, quote, forward)
	if err != nil {
		if errors.Is(err, usecase.ErrIlliquidQuote) {
			return xhttp.BadRequestResponse(c, err.Error())
		}
		h.logger.Error("solve usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *VolatilityHandler) Index(c echo.Context) error {
	req := &models.IndexRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.allow(req.Commodity) {
		return tooManyRequests(c)
	}

	ctx := c.Request().Context()
	key := indexCacheKey(req)
	if h.cache != nil {
		var cached indexEnvelope
		if err := h.cache.Get(ctx, key, &cached); err == nil {
			return xhttp.SuccessResponse(c, cached)
		}
	}

	chain := make([]models.Quote, 0, len(req.Quotes))
	for _, qr := range req.Quotes {
		q, err := quoteFromRequest(qr)
		if err != nil {
			return xhttp.BadRequestResponse(c, err.Error())
		}
		chain = append(chain, q)
	}
	forward, err := models.NewForward(req.Forward.Symbol, req.Forward.Price, models.Currency(req.Forward.Currency))
	if err != nil {
		return xhttp.BadRequestResponse(c, err.Error())
	}

	index, signal, err := h.svc.ComputeIndex(ctx, req.Commodity, chain, forward)
	if err != nil {
		if errors.Is(err, engine.ErrEmptyChain) || errors.Is(err, engine.ErrNoUsableOptions) {
			return xhttp.BadRequestResponse(c, err.Error())
		}
		h.logger.Error("index usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	out := indexEnvelope{Index: index, Signal: signal}
	if h.cache != nil {
		if err := h.cache.Set(ctx, key, out, h.cacheTTL); err != nil {
			h.logger.Warn("index cache set failed", xlogger.Error(err))
		}
	}
	return xhttp.SuccessResponse(c, out)
}

func (h *VolatilityHandler) HistoryMetrics(c echo.Context) error {
	req := &models.HistoryMetricsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	m := h.svc.HistoryMetrics(req.Symbol, req.CurrentIV)
	return xhttp.SuccessResponse(c, m)
}

func (h *VolatilityHandler) Commodities(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.svc.Commodities())
}

func (h *VolatilityHandler) allow(commodity string) bool {
	if h.limiter == nil {
		return true
	}
	refill := h.rate / h.window.Seconds()
	return h.limiter.Allow(commodity, h.rate, refill)
}

func tooManyRequests(c echo.Context) error {
	return xhttp.DataResponse(c, http.StatusTooManyRequests, "rate limit exceeded")
}

// indexCacheKey fingerprints the whole chain so that two requests differing
// only in quote contents never share a cache entry.
func indexCacheKey(req *models.IndexRequest) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s:%s:%v:%s", req.Commodity, req.Forward.Symbol, req.Forward.Price, req.Forward.Currency)
	for _, q := range req.Quotes {
		fmt.Fprintf(&sb, "|%s:%s:%v:%v:%s", q.Symbol, q.Kind, q.Strike, q.MarketPrice, q.Expiry)
	}
	return cache.GenerateKey("index", cache.HashKey(sb.String()))
}

func quoteFromRequest(qr models.QuoteRequest) (models.Quote, error) {
	expiry, ok := xhttp.ParseTime(qr.Expiry)
	if !ok {
		return models.Quote{}, fmt.Errorf("quote %s: invalid expiry %q", qr.Symbol, qr.Expiry)
	}
	return models.NewQuote(
		qr.Symbol,
		models.OptionKind(qr.Kind),
		qr.Strike,
		qr.MarketPrice,
		qr.Bid,
		qr.Ask,
		qr.Volume,
		qr.OpenInterest,
		expiry,
	)
}
