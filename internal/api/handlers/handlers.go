// Package handlers provides HTTP request handlers for the API endpoints.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/trypzy/backend/internal/advisory"
	"github.com/trypzy/backend/internal/api/middleware"
	"github.com/trypzy/backend/internal/schedule"
	"github.com/trypzy/backend/internal/websocket"
)

// Observer records schedule outcomes.
type Observer interface {
	Transition(operation string)
	Rejection(code string)
}

type nopObserver struct{}

func (nopObserver) Transition(string) {}
func (nopObserver) Rejection(string)  {}

// Deps are the collaborators shared by the trip handlers.
type Deps struct {
	Service     *schedule.Service
	Broadcaster *websocket.EventBroadcaster
	// Advisory is nil when no advisory service is configured.
	Advisory *advisory.Client
	Observer Observer
	Logger   *zap.Logger
}

func (d *Deps) observer() Observer {
	if d.Observer == nil {
		return nopObserver{}
	}
	return d.Observer
}

func (d *Deps) logger() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeBody decodes an optional JSON body into v and validates it.
func decodeBody(r *http.Request, v any) error {
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
			return errors.New("Invalid request body")
		}
	}
	if err := validate.Struct(v); err != nil {
		return errors.New(validationMessage(err))
	}
	return nil
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fe.Field()+" is required")
		case "datetime":
			msgs = append(msgs, fe.Field()+" must be a YYYY-MM-DD date")
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fe.Field()+" is invalid")
		}
	}
	return strings.Join(msgs, "; ")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeServiceError renders err with the standard error envelope.
func (d *Deps) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if se, ok := schedule.AsError(err); ok {
		d.observer().Rejection(se.Code)
		if se.Details != nil {
			middleware.WriteErrorWithDetails(w, se.Status, se.Code, se.Message, se.Details)
		} else {
			middleware.WriteError(w, se.Status, se.Code, se.Message)
		}
		return
	}

	d.logger().Error("schedule operation failed",
		zap.Error(err),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	)
	middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "An unexpected error occurred")
}

// published reloads the schedule after a successful mutation, records the
// transition and tells the trip's subscribers. The returned view is nil when
// the reload failed; the mutation itself has committed.
func (d *Deps) published(r *http.Request, tripID, operation string) *schedule.ScheduleView {
	userID := middleware.UserID(r.Context())
	d.observer().Transition(operation)

	view, err := d.Service.Schedule(r.Context(), tripID, userID)
	if err != nil {
		d.logger().Warn("failed to reload schedule after mutation",
			zap.Error(err),
			zap.String("trip_id", tripID),
			zap.String("operation", operation),
		)
		return nil
	}
	if d.Broadcaster != nil {
		d.Broadcaster.BroadcastScheduleUpdated(tripID, view.Version, string(view.Phase), operation, userID)
	}
	return view
}

// respondView writes the reloaded schedule, or a bare acknowledgement when it
// could not be read back.
func respondView(w http.ResponseWriter, view *schedule.ScheduleView) {
	if view == nil {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
		return
	}
	writeJSON(w, http.StatusOK, view)
}
