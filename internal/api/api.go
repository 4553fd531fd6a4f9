package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"PriceOracle/internal/collector"
	"PriceOracle/internal/model"
	"PriceOracle/internal/notifier"
	"PriceOracle/internal/pipeline"
	"PriceOracle/internal/recorder"
)

// Forecaster runs a forecast unless one is already in progress.
type Forecaster interface {
	TryExecute(ctx context.Context, ticker string, sink pipeline.ProgressSink) (*model.Forecast, error)
}

type ForecastRequest struct {
	Ticker string `param:"ticker" validate:"required,max=24"`
}

type HistoryRequest struct {
	Symbol string `query:"symbol" validate:"max=24"`
	Limit  int    `query:"limit" default:"20" validate:"gte=1,lte=200"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

var validate = validator.New()

// Handler serves the forecast API.
type Handler struct {
	runner   Forecaster
	recorder recorder.Recorder
	hub      *notifier.Hub
}

// NewHandler creates a Handler. hub may be nil.
func NewHandler(runner Forecaster, rec recorder.Recorder, hub *notifier.Hub) *Handler {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Handler{runner: runner, recorder: rec, hub: hub}
}

// New builds the echo instance with every route registered.
func New(h *Handler) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Debug().Str("method", v.Method).Str("uri", v.URI).Int("status", v.Status).Err(v.Error).Msg("http request")
			return nil
		},
	}))
	h.RegisterRoutes(e)
	return e
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	if h.hub != nil {
		e.GET("/ws/progress", echo.WrapHandler(h.hub))
	}

	g := e.Group("/api")
	g.POST("/forecast/:ticker", h.Forecast)
	g.GET("/forecasts", h.History)
}

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) Forecast(c echo.Context) error {
	req := &ForecastRequest{}
	if err := bindAndValidate(c, req); err != nil {
		return badRequest(c, err)
	}

	var sink pipeline.ProgressSink
	if h.hub != nil {
		sink = h.hub.Progress
	}
	f, err := h.runner.TryExecute(c.Request().Context(), req.Ticker, sink)
	if err != nil {
		return c.JSON(statusFor(err), map[string]ErrorBody{
			"error": {Code: pipeline.Reason(err), Message: pipeline.UserMessage(err)},
		})
	}
	if h.hub != nil {
		h.hub.Result(f)
	}
	return c.JSON(http.StatusOK, map[string]any{"data": f})
}

func (h *Handler) History(c echo.Context) error {
	req := &HistoryRequest{}
	if err := bindAndValidate(c, req); err != nil {
		return badRequest(c, err)
	}
	symbol := ""
	if strings.TrimSpace(req.Symbol) != "" {
		symbol = collector.MarketSymbol(req.Symbol)
	}
	list, err := h.recorder.ListForecasts(c.Request().Context(), symbol, req.Limit)
	if err != nil {
		log.Error().Err(err).Msg("list forecasts")
		return c.JSON(http.StatusInternalServerError, map[string]ErrorBody{
			"error": {Code: "internal", Message: "could not read forecast history"},
		})
	}
	if list == nil {
		list = []model.Forecast{}
	}
	return c.JSON(http.StatusOK, map[string]any{"data": list})
}

func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return err
	}
	if err := defaults.Set(req); err != nil {
		return err
	}
	return validate.StructCtx(c.Request().Context(), req)
}

func badRequest(c echo.Context, err error) error {
	msg := err.Error()
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		msg = strings.ToLower(verrs[0].Field()) + " failed " + verrs[0].Tag()
	}
	return c.JSON(http.StatusBadRequest, map[string]ErrorBody{
		"error": {Code: "bad_request", Message: msg},
	})
}

func statusFor(err error) int {
	switch pipeline.Reason(err) {
	case string(collector.ReasonBadSymbol):
		return http.StatusNotFound
	case string(collector.ReasonRateLimited):
		return http.StatusTooManyRequests
	case string(collector.ReasonEmpty), string(collector.ReasonMalformed), "insufficient_history":
		return http.StatusUnprocessableEntity
	case string(collector.ReasonTransport):
		return http.StatusBadGateway
	case "busy":
		return http.StatusConflict
	case "canceled", "timeout":
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
