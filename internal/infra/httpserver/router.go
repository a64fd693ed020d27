package httpserver

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	appscans "github.com/creatorshield/scanpipe/internal/application/scans"
	appsettings "github.com/creatorshield/scanpipe/internal/application/settings"
	"github.com/creatorshield/scanpipe/internal/domain/scanerrors"
	domain "github.com/creatorshield/scanpipe/internal/domain/scans"
	"github.com/creatorshield/scanpipe/internal/middleware"
)

const defaultMaxPayloadBytes = 64 << 20 // 64 MiB of decoded media

type Router struct {
	scansSvc    *appscans.Service
	settingsSvc *appsettings.Service
	errorLog    scanerrors.Repository
	maxPayload  int64
}

func NewRouter(scansSvc *appscans.Service, settingsSvc *appsettings.Service, errorLog scanerrors.Repository, checkers map[string]middleware.HealthChecker) http.Handler {
	r := &Router{
		scansSvc:    scansSvc,
		settingsSvc: settingsSvc,
		errorLog:    errorLog,
		maxPayload:  defaultMaxPayloadBytes,
	}
	mux := chi.NewRouter()

	mux.Get("/health", middleware.HealthHandler(checkers))
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Route("/v1/{user}", func(rt chi.Router) {
		// Inside the routed subtree the {user} param is populated, so the
		// auth/user match can actually be enforced here.
		rt.Use(middleware.RequireValidUser)
		rt.Post("/scans", r.wrap(r.handleExecuteScan))
		rt.Get("/scans", r.wrap(r.handleHistory))
		rt.Get("/scans/latest", r.wrap(r.handleLatest))
		rt.Get("/scans/{id}", r.wrap(r.handleGet))
		rt.Get("/scans/{id}/errors", r.wrap(r.handleScanErrors))
		rt.Get("/summary", r.wrap(r.handleSummary))
		rt.Get("/settings/threshold", r.wrap(r.handleGetThreshold))
		rt.Put("/settings/threshold", r.wrap(r.handleSetThreshold))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

type badRequestError struct{ msg string }

func (e badRequestError) Error() string { return e.msg }

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				http.Error(w, "not found", http.StatusNotFound)
				return
			}
			var bad badRequestError
			if errors.As(err, &bad) {
				http.Error(w, bad.msg, http.StatusBadRequest)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

// POST /v1/{user}/scans
// JSON body: {"target_url": "...", "content_kind": "text|audio|video",
// "payload_base64": "...", "reference_text": "..."}, or a multipart
// form with the same fields and the media blob in the "media" part.
// Runs the pipeline synchronously and returns the uniform scan result.
func (r *Router) handleExecuteScan(w http.ResponseWriter, req *http.Request) error {
	user := chi.URLParam(req, "user")

	cmd, err := r.decodeScanRequest(req)
	if err != nil {
		return err
	}
	cmd.UserID = user

	result, err := r.scansSvc.ExecuteScan(req.Context(), cmd)
	if err != nil {
		// Only the record store can fail out-of-band; everything else is
		// folded into the result shape.
		return err
	}
	middleware.RecordScan(result.Data.MatchFound, !result.Success)

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(result)
}

func (r *Router) decodeScanRequest(req *http.Request) (appscans.ExecuteScanCommand, error) {
	var cmd appscans.ExecuteScanCommand

	ct := req.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "multipart/form-data") {
		if err := req.ParseMultipartForm(r.maxPayload); err != nil {
			return cmd, badRequestError{fmt.Sprintf("parsing multipart form: %v", err)}
		}
		cmd.TargetURL = req.FormValue("target_url")
		cmd.ContentKind = req.FormValue("content_kind")
		cmd.ReferenceText = req.FormValue("reference_text")

		if file, _, err := req.FormFile("media"); err == nil {
			defer file.Close()
			payload, err := io.ReadAll(io.LimitReader(file, r.maxPayload+1))
			if err != nil {
				return cmd, badRequestError{fmt.Sprintf("reading media part: %v", err)}
			}
			if int64(len(payload)) > r.maxPayload {
				return cmd, badRequestError{fmt.Sprintf("media exceeds maximum size of %d bytes", r.maxPayload)}
			}
			cmd.Payload = payload
		}
	} else {
		var body struct {
			TargetURL     string `json:"target_url"`
			ContentKind   string `json:"content_kind"`
			PayloadBase64 string `json:"payload_base64"`
			ReferenceText string `json:"reference_text"`
		}
		if err := json.NewDecoder(io.LimitReader(req.Body, r.maxPayload*2)).Decode(&body); err != nil {
			return cmd, badRequestError{fmt.Sprintf("decoding request body: %v", err)}
		}
		cmd.TargetURL = body.TargetURL
		cmd.ContentKind = body.ContentKind
		cmd.PayloadBase64 = body.PayloadBase64
		cmd.ReferenceText = body.ReferenceText
	}

	if err := middleware.ValidateContentKind(cmd.ContentKind); err != nil {
		return cmd, badRequestError{err.Error()}
	}
	if err := middleware.ValidatePayloadBase64(cmd.PayloadBase64, r.maxPayload); err != nil {
		return cmd, badRequestError{err.Error()}
	}
	return cmd, nil
}

// GET /v1/{user}/scans?type=audio&outcome=found&limit=10
func (r *Router) handleHistory(w http.ResponseWriter, req *http.Request) error {
	user := chi.URLParam(req, "user")
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))

	filter := domain.HistoryFilter{
		Type:    domain.ScanType(req.URL.Query().Get("type")),
		Outcome: domain.Outcome(req.URL.Query().Get("outcome")),
		Limit:   limit,
	}

	list, err := r.scansSvc.History(req.Context(), user, filter)
	if err != nil {
		return err
	}
	if list == nil {
		list = []*domain.ScanRecord{}
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(list)
}

// GET /v1/{user}/scans/{id}
func (r *Router) handleGet(w http.ResponseWriter, req *http.Request) error {
	user := chi.URLParam(req, "user")
	id := chi.URLParam(req, "id")

	rec, err := r.scansSvc.Get(req.Context(), user, domain.ScanID(id))
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(rec)
}

// GET /v1/{user}/scans/latest
func (r *Router) handleLatest(w http.ResponseWriter, req *http.Request) error {
	user := chi.URLParam(req, "user")

	rec, err := r.scansSvc.Latest(req.Context(), user)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(rec)
}

// GET /v1/{user}/scans/{id}/errors
func (r *Router) handleScanErrors(w http.ResponseWriter, req *http.Request) error {
	user := chi.URLParam(req, "user")
	id := chi.URLParam(req, "id")
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))

	list, err := r.errorLog.ListByScan(req.Context(), user, id, limit)
	if err != nil {
		return err
	}
	if list == nil {
		list = []*scanerrors.ScanError{}
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(list)
}

// GET /v1/{user}/summary?days=7
func (r *Router) handleSummary(w http.ResponseWriter, req *http.Request) error {
	user := chi.URLParam(req, "user")
	days, _ := strconv.Atoi(req.URL.Query().Get("days"))

	summary, err := r.scansSvc.Summary(req.Context(), user, days)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(summary)
}

// GET /v1/{user}/settings/threshold
func (r *Router) handleGetThreshold(w http.ResponseWriter, req *http.Request) error {
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(map[string]int{
		"match_threshold": r.settingsSvc.Resolve(req.Context()),
	})
}

// PUT /v1/{user}/settings/threshold
// Body: {"match_threshold": 85}. Takes effect on the next scan.
func (r *Router) handleSetThreshold(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		MatchThreshold int `json:"match_threshold"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return badRequestError{fmt.Sprintf("decoding request body: %v", err)}
	}
	if err := r.settingsSvc.Update(req.Context(), body.MatchThreshold); err != nil {
		return badRequestError{err.Error()}
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(map[string]int{"match_threshold": body.MatchThreshold})
}
