package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/getsentry/sentry-go"
	"routegen.busfleet.org/internal/report"
	"routegen.busfleet.org/internal/routing"
	"routegen.busfleet.org/internal/store"
	"routegen.busfleet.org/internal/utils"
)

type envelope map[string]any

func (app *Application) writeJSON(w http.ResponseWriter, status int, data any) {
	js, err := json.Marshal(data)
	if err != nil {
		app.Logger.Error("Failed to encode response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(js, '\n'))
}

func (app *Application) errorResponse(w http.ResponseWriter, status int, message string) {
	app.writeJSON(w, status, envelope{"error": message})
}

// statusFor maps a generation or storage error to its HTTP status.
func statusFor(err error) int {
	var (
		insufficient *routing.InsufficientDataError
		partition    *routing.PartitionError
	)
	switch {
	case errors.Is(err, store.ErrUnknownCity):
		return http.StatusNotFound
	case errors.As(err, &insufficient), errors.As(err, &partition):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// failedResponse logs err and answers with the mapped status. Only
// unexpected failures go to Sentry.
func (app *Application) failedResponse(w http.ResponseWriter, r *http.Request, city string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
			Tags: utils.MakeMap("city", city),
			ExtraContext: map[string]interface{}{
				"method": r.Method,
				"path":   r.URL.Path,
			},
			Level: sentry.LevelError,
		})
		app.Logger.Error("Request failed", "city", city, "path", r.URL.Path, "error", err)
		app.errorResponse(w, status, "the server encountered a problem and could not process your request")
		return
	}
	app.Logger.Warn("Request rejected", "city", city, "path", r.URL.Path, "status", status, "error", err)
	app.errorResponse(w, status, err.Error())
}

func (app *Application) notFoundResponse(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, http.StatusNotFound, "the requested resource could not be found")
}

func (app *Application) methodNotAllowedResponse(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, http.StatusMethodNotAllowed, fmt.Sprintf("the %s method is not supported for this resource", r.Method))
}
