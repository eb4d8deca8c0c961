package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/mchmarny/vinecop/pkg/bicop"
	"github.com/mchmarny/vinecop/pkg/data"
	"github.com/mchmarny/vinecop/pkg/vinecop"
	"github.com/urfave/cli/v3"
)

const (
	serverShutdownWaitSeconds = 5
	serverTimeoutSeconds      = 300
	serverMaxHeaderBytes      = 20
	serverMaxBodyBytes        = 32 << 20
	serverPortDefault         = 8080
	serverAddressDefault      = "127.0.0.1"

	flagPort    = "port"
	flagAddress = "address"
)

func newServeCmd() *cli.Command {
	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"server"},
		Usage:   "Start the local HTTP API",
		Action:  cmdServe,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  flagPort,
				Usage: "Port on which the server will listen",
				Value: serverPortDefault,
			},
			&cli.StringFlag{
				Name:  flagAddress,
				Usage: "Address on which the server will listen",
				Value: serverAddressDefault,
			},
		},
	}
}

func cmdServe(ctx context.Context, cmd *cli.Command) error {
	cfg := getConfig(cmd)
	db, err := cfg.DB()
	if err != nil {
		return err
	}

	address := fmt.Sprintf("%s:%d", cmd.String(flagAddress), cmd.Int(flagPort))
	s := &http.Server{
		Addr:           address,
		Handler:        makeRouter(cfg.Strict, db),
		ReadTimeout:    serverTimeoutSeconds * time.Second,
		WriteTimeout:   serverTimeoutSeconds * time.Second,
		MaxHeaderBytes: 1 << serverMaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	slog.Info("server started", "address", "http://"+address)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("error starting server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverShutdownWaitSeconds*time.Second)
	defer cancel()

	if err := s.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("error shutting down server", "error", err)
	}
	slog.Info("server stopped")
	return nil
}

func makeRouter(strict bool, db *sqlx.DB) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/api/families", familiesAPIHandler)
	r.Post("/api/bicop", bicopAPIHandler)
	r.Post("/api/vinecop/validate", validateAPIHandler(strict))

	r.Route("/api/models", func(r chi.Router) {
		r.Get("/", listModelsAPIHandler(db))
		r.Post("/", saveModelAPIHandler(strict, db))
		r.Get("/state", stateAPIHandler(db))
		r.Get("/{id}", getModelAPIHandler(db))
		r.Delete("/{id}", deleteModelAPIHandler(db))
	})

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.Debug("request",
			"id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusFor maps model errors to 400 and missing records to 404.
func statusFor(err error) int {
	switch {
	case errors.Is(err, data.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, bicop.ErrValidation),
		errors.Is(err, vinecop.ErrStructureMismatch),
		errors.Is(err, vinecop.ErrIndexOutOfRange):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	return io.ReadAll(http.MaxBytesReader(w, r.Body, serverMaxBodyBytes))
}

func queryBool(r *http.Request, key string, val bool) bool {
	s := r.URL.Query().Get(key)
	if s == "" {
		return val
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return val
	}
	return b
}

func queryInt(r *http.Request, key string, val int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return val
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return val
	}
	return i
}

// parseModel decodes a JSON or YAML model from the request body. Strict
// models get the R-vine array checks on top of the syntax checks.
func parseModel(w http.ResponseWriter, r *http.Request, strict bool) (*vinecop.Vinecop, error) {
	b, err := readBody(w, r)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %w", bicop.ErrValidation, err)
	}
	v, err := vinecop.Parse(b)
	if err != nil {
		if !errors.Is(err, bicop.ErrValidation) {
			return nil, fmt.Errorf("%w: %w", bicop.ErrValidation, err)
		}
		return nil, err
	}
	if queryBool(r, "strict", strict) && !v.Strict() && !v.IsEmpty() {
		return vinecop.NewFromPairCopulas(v.AllPairCopulas(), v.Matrix(), vinecop.WithStrictMatrix())
	}
	return v, nil
}

func familiesAPIHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, listFamilies())
}

func bicopAPIHandler(w http.ResponseWriter, r *http.Request) {
	b, err := readBody(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var pc bicop.Bicop
	if err := json.Unmarshal(b, &pc); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, newBicopView(&pc))
}

func validateAPIHandler(strict bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := parseModel(w, r, strict)
		if err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, newModelSummary(v))
	}
}

func listModelsAPIHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := data.ListModels(db, queryInt(r, "limit", data.ModelListLimitDefault))
		if err != nil {
			slog.Error("failed to list models", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to list models")
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func saveModelAPIHandler(strict bool, db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Query().Get("name")
		if name == "" {
			writeError(w, http.StatusBadRequest, "name query parameter is required")
			return
		}

		v, err := parseModel(w, r, strict)
		if err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
		if v.IsEmpty() {
			writeError(w, http.StatusBadRequest, "model is empty")
			return
		}

		rec, err := data.SaveModel(db, name, r.URL.Query().Get("source"), v)
		if err != nil {
			slog.Error("failed to save model", "name", name, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to save model")
			return
		}
		writeJSON(w, http.StatusCreated, rec)
	}
}

func getModelAPIHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, v, err := data.GetModel(db, chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, &storedModel{ModelRecord: *rec, Model: v})
	}
}

func deleteModelAPIHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := data.DeleteModel(db, chi.URLParam(r, "id")); err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func stateAPIHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		state, err := data.GetDataState(db)
		if err != nil {
			slog.Error("failed to get store state", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to get store state")
			return
		}
		writeJSON(w, http.StatusOK, state)
	}
}
