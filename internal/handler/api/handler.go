package api

import (
	"net/http"
	"time"

	"StockCast/internal/domain/models"
	domrepo "StockCast/internal/domain/repository"
	"StockCast/internal/service/ratelimit"
	"StockCast/internal/usecase"
	xhttp "StockCast/pkg/http"
	"StockCast/pkg/http/middleware"
	applogger "StockCast/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// Handler serves the market data and forecasting API.
type Handler struct {
	predict  *usecase.PredictUseCase
	market   *usecase.MarketDataUseCase
	limiter  *ratelimit.Limiter
	metrics  domrepo.Metrics
	logger   *applogger.Logger
	upgrader websocket.Upgrader
}

var _ xhttp.Handler = (*Handler)(nil)

// NewHandler wires the API. limiter and metrics may be nil.
func NewHandler(
	predict *usecase.PredictUseCase,
	market *usecase.MarketDataUseCase,
	limiter *ratelimit.Limiter,
	metrics domrepo.Metrics,
	logger *applogger.Logger,
) *Handler {
	if logger == nil {
		logger = applogger.Nop()
	}
	return &Handler{
		predict: predict,
		market:  market,
		limiter: limiter,
		metrics: metrics,
		logger:  logger,
		upgrader: websocket.Upgrader{
			HandshakeTimeout: 10 * time.Second,
			// CORS is open for the REST routes as well
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)
	e.GET("/historical/:symbol", h.Historical)
	e.GET("/intraday/:symbol", h.Intraday)
	e.GET("/predict/:symbol", h.Predict, h.rateLimit)
	e.GET("/ws/predict/:symbol", h.PredictStream, h.rateLimit)
	e.GET("/forecasts/:symbol", h.Runs)
}

func (h *Handler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, xhttp.HealthResponse{Status: "ok"})
}

func (h *Handler) Historical(c echo.Context) error {
	req := &models.SymbolRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return h.fail(c, verr)
	}
	profile, err := h.market.History(c.Request().Context(), req.Symbol)
	if err != nil {
		return h.fail(c, err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=300")
	return xhttp.SuccessResponse(c, NewHistoryResponse(profile))
}

func (h *Handler) Intraday(c echo.Context) error {
	req := &models.SymbolRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return h.fail(c, verr)
	}
	quotes, err := h.market.Intraday(c.Request().Context(), req.Symbol)
	if err != nil {
		return h.fail(c, err)
	}
	out := make([]QuoteDTO, len(quotes))
	for i, q := range quotes {
		out[i] = QuoteDTO{Time: q.Time, Price: q.Price}
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, out)
}

func (h *Handler) Predict(c echo.Context) error {
	req := &models.PredictRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return h.fail(c, verr)
	}
	f, err := h.predict.Predict(c.Request().Context(), predictParams(req))
	if err != nil {
		return h.fail(c, err)
	}
	return xhttp.SuccessResponse(c, NewForecastResponse(f))
}

func (h *Handler) Runs(c echo.Context) error {
	req := &models.RunsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return h.fail(c, verr)
	}
	runs, err := h.predict.Recent(c.Request().Context(), req.Symbol, req.Limit)
	if err != nil {
		return h.fail(c, err)
	}
	out := make([]RunDTO, len(runs))
	for i, r := range runs {
		out[i] = NewRunDTO(r)
	}
	return xhttp.SuccessResponse(c, out)
}

func predictParams(req *models.PredictRequest) usecase.PredictParams {
	return usecase.PredictParams{
		Symbol:      req.Symbol,
		TimeStep:    req.TimeStep,
		Epochs:      req.Epochs,
		FutureSteps: req.FutureSteps,
		Seed:        req.Seed,
	}
}

func (h *Handler) rateLimit(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if h.limiter != nil && !h.limiter.Allow(c.RealIP()) {
			return h.fail(c, xhttp.TooManyRequestsError("too many forecast requests, retry later"))
		}
		return next(c)
	}
}

// fail maps err, records it and writes the error body.
func (h *Handler) fail(c echo.Context, err error) error {
	appErr := MapForecastError(err)
	if h.metrics != nil {
		h.metrics.RecordError(appErr.Code)
	}
	fields := []applogger.Field{
		applogger.String("request_id", middleware.RequestID(c)),
		applogger.String("route", c.Path()),
		applogger.String("code", appErr.Code),
		applogger.Error(err),
	}
	if appErr.Status >= http.StatusInternalServerError {
		h.logger.Error("request failed", fields...)
	} else {
		h.logger.Debug("request rejected", fields...)
	}
	return xhttp.AppErrorResponse(c, appErr)
}
