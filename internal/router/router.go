// Package router exposes the user directory and the exercise log over HTTP.
package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/patric-chuzhbe/exercisetracker/internal/faults"
	"github.com/patric-chuzhbe/exercisetracker/internal/gzippedhttp"
	"github.com/patric-chuzhbe/exercisetracker/internal/logger"
	"github.com/patric-chuzhbe/exercisetracker/internal/models"
	"github.com/patric-chuzhbe/exercisetracker/internal/observability"
)

const maxBodyBytes = 1 << 20

type userDirectory interface {
	Create(ctx context.Context, userName string) (models.UserSummary, error)
	ListAll(ctx context.Context) ([]models.UserSummary, error)
}

type exerciseLog interface {
	Append(ctx context.Context, raw models.RawExercise) (models.AddExerciseResponse, error)
	Query(ctx context.Context, query models.LogQuery) (models.UserLog, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Router holds the dependencies of the HTTP handlers.
type Router struct {
	users       userDirectory
	exercises   exerciseLog
	db          pinger
	publicDir   string
	indexFile   string
	withMetrics bool
	corsOrigins []string
}

type initOptions struct {
	publicDir   string
	indexFile   string
	withMetrics bool
	corsOrigins []string
}

type InitOption func(*initOptions)

// WithStatic serves files from publicDir and indexFile on GET /.
func WithStatic(publicDir, indexFile string) InitOption {
	return func(options *initOptions) {
		options.publicDir = publicDir
		options.indexFile = indexFile
	}
}

// WithMetrics mounts /metrics and records request durations.
func WithMetrics(enabled bool) InitOption {
	return func(options *initOptions) {
		options.withMetrics = enabled
	}
}

// WithCORS sets the allowed origins. Without it every origin is allowed.
func WithCORS(origins []string) InitOption {
	return func(options *initOptions) {
		options.corsOrigins = origins
	}
}

// New builds the chi router with all routes and middleware.
func New(
	users userDirectory,
	exercises exerciseLog,
	db pinger,
	optionsProto ...InitOption,
) *chi.Mux {
	options := &initOptions{
		corsOrigins: []string{"*"},
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	r := &Router{
		users:       users,
		exercises:   exercises,
		db:          db,
		publicDir:   options.publicDir,
		indexFile:   options.indexFile,
		withMetrics: options.withMetrics,
		corsOrigins: options.corsOrigins,
	}

	return r.routes()
}

func (r *Router) routes() *chi.Mux {
	mux := chi.NewRouter()

	mux.Use(
		middleware.RequestID,
		middleware.RealIP,
		logger.WithLoggingHTTPMiddleware,
		recoverFaults,
		cors.Handler(cors.Options{
			AllowedOrigins: r.corsOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", "Content-Encoding", "Accept-Encoding"},
			MaxAge:         300,
		}),
		gzippedhttp.UngzipRequest,
		gzippedhttp.GzipResponse,
	)
	if r.withMetrics {
		mux.Use(observability.WithMetricsHTTPMiddleware)
		mux.Handle(`/metrics`, observability.Handler())
	}

	mux.Get(`/`, r.GetIndex)
	mux.Get(`/ping`, r.GetPing)

	mux.Route(`/api/exercise`, func(api chi.Router) {
		api.Post(`/new-user`, r.PostNewUser)
		api.Post(`/new-User`, r.PostNewUser)
		api.Get(`/users`, r.GetUsers)
		api.Post(`/add`, r.PostAdd)
		api.Get(`/log`, r.GetLog)
	})

	mux.NotFound(r.serveStaticOrNotFound)
	mux.MethodNotAllowed(r.serveStaticOrNotFound)

	return mux
}

// PostNewUser registers the user named by the "username" field.
func (r *Router) PostNewUser(response http.ResponseWriter, request *http.Request) {
	payload, err := readPayload(request)
	if err != nil {
		writeFault(response, request, err)
		return
	}

	created, err := r.users.Create(request.Context(), stringField(payload, "username"))
	if err != nil {
		writeFault(response, request, err)
		return
	}

	writeJSON(response, http.StatusOK, created)
}

// GetUsers lists every user without logs.
func (r *Router) GetUsers(response http.ResponseWriter, request *http.Request) {
	users, err := r.users.ListAll(request.Context())
	if err != nil {
		writeFault(response, request, err)
		return
	}

	writeJSON(response, http.StatusOK, users)
}

// PostAdd appends an exercise to the log of the user named by "userId".
func (r *Router) PostAdd(response http.ResponseWriter, request *http.Request) {
	payload, err := readPayload(request)
	if err != nil {
		writeFault(response, request, err)
		return
	}

	result, err := r.exercises.Append(request.Context(), models.RawExercise{
		UserID:      stringField(payload, "userId"),
		Description: stringField(payload, "description"),
		Duration:    payload["duration"],
		Date:        stringField(payload, "date"),
	})
	if err != nil {
		writeFault(response, request, err)
		return
	}

	writeJSON(response, http.StatusOK, result)
}

// GetLog answers a log query built from the URL parameters.
func (r *Router) GetLog(response http.ResponseWriter, request *http.Request) {
	params := request.URL.Query()

	result, err := r.exercises.Query(request.Context(), models.LogQuery{
		UserID: params.Get("userId"),
		From:   params.Get("from"),
		To:     params.Get("to"),
		Limit:  params.Get("limit"),
	})
	if err != nil {
		writeFault(response, request, err)
		return
	}

	writeJSON(response, http.StatusOK, result)
}

// GetPing reports whether the storage is reachable.
func (r *Router) GetPing(response http.ResponseWriter, request *http.Request) {
	if err := r.db.Ping(request.Context()); err != nil {
		logger.Log.Errorw("storage ping failed", zap.Error(err))
		writeFault(response, request, faults.Internal(err))
		return
	}

	response.WriteHeader(http.StatusOK)
}

// GetIndex serves the landing page.
func (r *Router) GetIndex(response http.ResponseWriter, request *http.Request) {
	if r.indexFile == "" {
		writeFault(response, request, faults.NotFound())
		return
	}
	if _, err := os.Stat(r.indexFile); err != nil {
		writeFault(response, request, faults.NotFound())
		return
	}

	http.ServeFile(response, request, r.indexFile)
}

func (r *Router) serveStaticOrNotFound(response http.ResponseWriter, request *http.Request) {
	if r.publicDir == "" || (request.Method != http.MethodGet && request.Method != http.MethodHead) {
		writeFault(response, request, faults.NotFound())
		return
	}

	root := http.Dir(r.publicDir)
	name := path.Clean("/" + request.URL.Path)
	file, err := root.Open(name)
	if err != nil {
		writeFault(response, request, faults.NotFound())
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil || info.IsDir() {
		writeFault(response, request, faults.NotFound())
		return
	}

	http.ServeContent(response, request, info.Name(), info.ModTime(), file)
}

// readPayload decodes a JSON or form encoded body into field values.
// JSON numbers are kept as json.Number so no precision is lost before coercion.
func readPayload(request *http.Request) (map[string]any, error) {
	request.Body = http.MaxBytesReader(nil, request.Body, maxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(request.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		payload := map[string]any{}
		decoder := json.NewDecoder(request.Body)
		decoder.UseNumber()
		if err := decoder.Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
			return nil, faults.Validation(faults.FieldError{
				Field:   "body",
				Message: "malformed JSON body",
			})
		}
		return payload, nil
	}

	if err := request.ParseForm(); err != nil {
		return nil, faults.Validation(faults.FieldError{
			Field:   "body",
			Message: "malformed form body",
		})
	}

	payload := make(map[string]any, len(request.PostForm))
	for key, values := range request.PostForm {
		if len(values) > 0 {
			payload[key] = values[0]
		}
	}

	return payload, nil
}

func stringField(payload map[string]any, key string) string {
	switch v := payload[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// writeJSON encodes body before anything is written, so an encoding failure
// still gets a 500 instead of a truncated success.
func writeJSON(response http.ResponseWriter, status int, body any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		logger.Log.Errorw("unable to encode response", zap.Error(err))
		writeText(response, http.StatusInternalServerError, faults.MsgInternal)
		return
	}

	response.Header().Set("Content-Type", "application/json; charset=utf-8")
	response.WriteHeader(status)
	_, _ = response.Write(buf.Bytes())
}

func writeText(response http.ResponseWriter, status int, message string) {
	response.Header().Set("Content-Type", "text/plain; charset=utf-8")
	response.Header().Set("X-Content-Type-Options", "nosniff")
	response.WriteHeader(status)
	_, _ = io.WriteString(response, message)
}

// writeFault answers err according to its kind. Domain faults keep the
// success status and carry the message in an error field.
func writeFault(response http.ResponseWriter, request *http.Request, err error) {
	var fault *faults.Error
	if !errors.As(err, &fault) {
		fault = faults.Internal(err)
	}

	if faults.IsDomain(fault) {
		logger.Log.Debugw(
			"request rejected",
			"uri", request.RequestURI,
			"kind", fault.Kind.String(),
			zap.Error(err),
		)
		writeJSON(response, http.StatusOK, models.ErrorResponse{Error: fault.Error()})
		return
	}

	status := http.StatusInternalServerError
	message := faults.MsgInternal
	switch fault.Kind {
	case faults.KindValidation:
		status = http.StatusBadRequest
		message = fault.FirstFieldMessage()
	case faults.KindNotFound:
		status = http.StatusNotFound
		message = faults.MsgNotFound
	default:
		logger.Log.Errorw("request failed", "uri", request.RequestURI, zap.Error(err))
	}

	writeText(response, status, message)
}

func recoverFaults(h http.Handler) http.Handler {
	fn := func(response http.ResponseWriter, request *http.Request) {
		defer func() {
			recovered := recover()
			if recovered == nil {
				return
			}
			if recovered == http.ErrAbortHandler {
				panic(recovered)
			}
			writeFault(response, request, faults.Internal(fmt.Errorf("panic: %v", recovered)))
		}()

		h.ServeHTTP(response, request)
	}

	return http.HandlerFunc(fn)
}
