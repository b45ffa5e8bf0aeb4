package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"CoveredStop/internal/advisor"
	"CoveredStop/internal/collector"
	"CoveredStop/internal/model"
	"CoveredStop/internal/notifier"
	"CoveredStop/internal/stoploss"
)

// API serves stop-loss reports over HTTP.
type API struct {
	Advisor  *advisor.Advisor
	Defaults advisor.Request
	Logger   *zap.Logger
}

type reportResponse struct {
	*model.Report
	Display struct {
		EntryPrice    string `json:"entry_price"`
		ATR           string `json:"atr"`
		StopLossPrice string `json:"stop_loss_price"`
	} `json:"display"`
}

// Router builds the chi router.
func (api *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(api.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data":    "healthy",
		})
	})
	r.Get("/api/stoploss", api.HandleStopLoss)
	return r
}

// HandleStopLoss computes a report from query parameters. Omitted parameters
// fall back to the configured defaults.
func (api *API) HandleStopLoss(w http.ResponseWriter, r *http.Request) {
	req, err := api.parseRequest(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	rep, err := api.Advisor.Advise(r.Context(), req)
	if err != nil {
		WriteError(w, statusFor(err), err.Error())
		return
	}

	resp := reportResponse{Report: rep}
	resp.Display.EntryPrice = notifier.Money(rep.Result.EntryPrice)
	resp.Display.ATR = notifier.Money(rep.Result.ATR)
	resp.Display.StopLossPrice = notifier.Money(rep.Result.StopLossPrice)
	WriteJSON(w, http.StatusOK, resp)
}

func (api *API) parseRequest(r *http.Request) (advisor.Request, error) {
	q := r.URL.Query()
	req := api.Defaults
	if v := q.Get("symbol"); v != "" {
		req.Symbol = v
	}
	if v := q.Get("max_loss"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return req, errors.New("max_loss must be a number")
		}
		req.MaxLossPct = f
	}
	if v := q.Get("atr_multiplier"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return req, errors.New("atr_multiplier must be a number")
		}
		req.ATRMultiplier = f
	}
	if v := q.Get("weeks"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return req, errors.New("weeks must be an integer")
		}
		req.Weeks = n
	}
	return req, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, advisor.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, stoploss.ErrInsufficientHistory), errors.Is(err, stoploss.ErrInvalidData):
		return http.StatusUnprocessableEntity
	case errors.Is(err, collector.ErrFetch):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (api *API) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			api.Logger.Info("http request",
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("elapsed", time.Since(start)))
		}()
		next.ServeHTTP(ww, r)
	})
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// WriteError writes an error envelope.
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}
