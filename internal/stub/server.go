// Package stub is the development backend for the dashboard client: a small
// HTTP service over SQLite implementing the same API the production service
// exposes, used by serve-stub and the integration tests.
package stub

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"homesync/internal/domain"
	"homesync/internal/events"
	"homesync/internal/repo"
)

// Config for the stub HTTP handler.
type Config struct {
	DB       *sql.DB
	BasePath string
	Auth     AuthConfig
	Now      func() time.Time
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"not_found"`
	Message string         `json:"message" example:"notification not found"`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true"`
}

// apiError models the error envelope.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// New returns an HTTP handler exposing the stub API.
func New(cfg Config) (http.Handler, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/api/v1"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	r := repo.Repo{DB: cfg.DB}
	writer := events.Writer{DB: cfg.DB, Now: cfg.Now}

	huma.DefaultArrayNullable = false
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg, nil)
	}

	router := chi.NewRouter()
	router.Use(newAuthMiddleware(basePath, cfg.Auth))
	hcfg := huma.DefaultConfig("HomeSync Stub API", "0.1.0")
	hcfg.OpenAPIPath = "/openapi"
	hcfg.DocsPath = ""
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerHealth(group)
	registerUsers(group, r)
	registerBehavior(group, r, writer)
	registerNotifications(group, r)
	registerOpenAPI(router, api, basePath)

	return router, nil
}

func newAPIError(status int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body: apiErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	if errors.Is(err, repo.ErrNotFound) {
		return newAPIError(http.StatusNotFound, "not_found", err.Error(), nil)
	}
	msg := err.Error()
	lowered := strings.ToLower(msg)
	if strings.Contains(lowered, "invalid") || strings.Contains(lowered, "required") {
		return newAPIError(http.StatusBadRequest, "bad_request", msg, nil)
	}
	return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", map[string]any{"error": msg})
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

func registerUsers(api huma.API, r repo.Repo) {
	huma.Register(api, huma.Operation{
		OperationID: "get-user",
		Method:      http.MethodGet,
		Path:        "/users/{user_id}",
		Summary:     "Get user profile",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		UserID int `path:"user_id"`
	}) (*struct {
		Body domain.User `json:"body"`
	}, error) {
		u, err := r.GetUser(ctx, input.UserID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.User `json:"body"`
		}{Body: u}, nil
	})
}

func registerBehavior(api huma.API, r repo.Repo, writer events.Writer) {
	huma.Register(api, huma.Operation{
		OperationID: "list-behavior",
		Method:      http.MethodGet,
		Path:        "/behavior/",
		Summary:     "List behavior log",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		UserID int `query:"user_id" required:"true"`
		Skip   int `query:"skip"`
		Limit  int `query:"limit"`
	}) (*struct {
		Body []domain.ActivityLogEntry `json:"body"`
	}, error) {
		items, err := r.ListBehaviors(ctx, input.UserID, input.Skip, input.Limit)
		if err != nil {
			return nil, handleError(err)
		}
		if items == nil {
			items = []domain.ActivityLogEntry{}
		}
		return &struct {
			Body []domain.ActivityLogEntry `json:"body"`
		}{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "report-behavior",
		Method:        http.MethodPost,
		Path:          "/behavior/",
		Summary:       "Record one behavior",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		Body ReportBehaviorRequest `json:"body"`
	}) (*struct {
		Body ReportBehaviorResponse `json:"body"`
	}, error) {
		if input.Body.UserID <= 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "user_id is required", nil)
		}
		if input.Body.ActionType == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "action_type is required", nil)
		}
		if _, err := r.GetUser(ctx, input.Body.UserID); err != nil {
			return nil, handleError(err)
		}
		id, err := writer.Append(ctx, domain.BehaviorRecord(input.Body))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ReportBehaviorResponse `json:"body"`
		}{Body: ReportBehaviorResponse{ID: id, Status: "recorded"}}, nil
	})
}

func registerNotifications(api huma.API, r repo.Repo) {
	huma.Register(api, huma.Operation{
		OperationID: "list-notifications",
		Method:      http.MethodGet,
		Path:        "/notifications/",
		Summary:     "List notifications",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		UserID   int    `query:"user_id" required:"true"`
		Category string `query:"category" enum:"system,reminder,alert,"`
		Skip     int    `query:"skip"`
		Limit    int    `query:"limit"`
	}) (*struct {
		Body []domain.Notification `json:"body"`
	}, error) {
		items, err := r.ListNotifications(ctx, input.UserID, input.Category, input.Skip, input.Limit)
		if err != nil {
			return nil, handleError(err)
		}
		if items == nil {
			items = []domain.Notification{}
		}
		return &struct {
			Body []domain.Notification `json:"body"`
		}{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "mark-notification-read",
		Method:      http.MethodPut,
		Path:        "/notifications/{notification_id}/read",
		Summary:     "Mark one notification read",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		NotificationID int `path:"notification_id"`
		UserID         int `query:"user_id" required:"true"`
	}) (*struct {
		Body StatusResponse `json:"body"`
	}, error) {
		if err := r.MarkNotificationRead(ctx, input.NotificationID, input.UserID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return nil, newAPIError(http.StatusNotFound, "not_found",
					fmt.Sprintf("notification %d not found", input.NotificationID), nil)
			}
			return nil, handleError(err)
		}
		return &struct {
			Body StatusResponse `json:"body"`
		}{Body: StatusResponse{Status: "ok"}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "mark-all-notifications-read",
		Method:      http.MethodPut,
		Path:        "/notifications/read-all",
		Summary:     "Mark all notifications read",
	}, func(ctx context.Context, input *struct {
		UserID int `query:"user_id" required:"true"`
	}) (*struct {
		Body MarkAllResponse `json:"body"`
	}, error) {
		n, err := r.MarkAllNotificationsRead(ctx, input.UserID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body MarkAllResponse `json:"body"`
		}{Body: MarkAllResponse{Status: "ok", Updated: n}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "unread-notification-count",
		Method:      http.MethodGet,
		Path:        "/notifications/unread-count",
		Summary:     "Count unread notifications",
	}, func(ctx context.Context, input *struct {
		UserID int `query:"user_id" required:"true"`
	}) (*struct {
		Body int `json:"body"`
	}, error) {
		n, err := r.UnreadNotificationCount(ctx, input.UserID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body int `json:"body"`
		}{Body: n}, nil
	})
}

func registerOpenAPI(r chi.Router, api huma.API, basePath string) {
	var spec []byte
	specPath := path.Join(basePath, "openapi.json")
	r.Get(specPath, func(w http.ResponseWriter, req *http.Request) {
		if spec == nil {
			spec, _ = json.Marshal(api.OpenAPI())
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(spec)
	})
}
