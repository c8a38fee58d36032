// Package api exposes the asset vault over HTTP. Handlers are thin
// wrappers over the workflow service; error mapping is centralized in
// writeServiceError.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mkang/heritaged/internal/asset"
	"github.com/mkang/heritaged/internal/cas"
	"github.com/mkang/heritaged/internal/chain"
	"github.com/mkang/heritaged/internal/model"
	"github.com/mkang/heritaged/internal/worker"
)

// Upload cap when Deps leaves MaxUploadBytes unset
const defaultMaxUploadSize = 50 << 20

// Deps carries everything the handlers need. Limiter paces uploads and
// may be nil; MaxUploadBytes falls back to defaultMaxUploadSize when
// zero.
type Deps struct {
	Service        *asset.Service
	Token          string
	MaxUploadBytes int64
	Limiter        *worker.Limiter
}

// NewHandler builds the router. /health is unauthenticated so load
// balancers can probe it; everything else sits behind bearer auth.
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handleHealth(deps))

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(deps.Token))

		r.Post("/assets", handleCreateAsset(deps))
		r.Get("/assets", handleListAssets(deps))
		r.Get("/assets/{id}", handleGetAsset(deps))
		r.Put("/assets/{id}", handleUpdateAsset(deps))
		r.Delete("/assets/{id}", handleDeleteAsset(deps))
		r.Get("/assets/{id}/content", handleAssetContent(deps))
		r.Post("/assets/{id}/tokenize", handleTokenize(deps))
		r.Post("/assets/{id}/beneficiaries", handleAddBeneficiary(deps))
		r.Get("/inheritance/preferences", handlePreferences(deps))
		r.Post("/inheritance/plans", handleCreatePlan(deps))
		r.Post("/inheritance/beneficiaries", handleAddPlanBeneficiary(deps))
		r.Get("/inheritance/status", handleInheritanceStatus(deps))
	})

	return r
}

func handleHealth(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"status":   "ok",
			"backends": deps.Service.Availability(r.Context()),
		})
	}
}

// handleCreateAsset accepts a multipart upload: a "file" part plus
// optional metadata fields. Classification and storage tiering happen
// inside the service; a degraded remote never fails the request.
func handleCreateAsset(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Limiter != nil && !deps.Limiter.Allow() {
			httpError(w, http.StatusTooManyRequests, "rate_limited", "upload rate limit exceeded")
			return
		}

		limit := deps.MaxUploadBytes
		if limit <= 0 {
			limit = defaultMaxUploadSize
		}
		r.Body = http.MaxBytesReader(w, r.Body, limit)
		if err := r.ParseMultipartForm(limit); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				httpError(w, http.StatusRequestEntityTooLarge, "invalid_request_error", "upload exceeds the %d byte limit", limit)
				return
			}
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid multipart form: %v", err)
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "file part is required")
			return
		}
		defer file.Close()

		content, err := io.ReadAll(file)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "reading upload: %v", err)
			return
		}

		req := asset.CreateRequest{
			UserID:      r.FormValue("userId"),
			Name:        r.FormValue("name"),
			Description: r.FormValue("description"),
			Category:    model.Category(r.FormValue("category")),
			Subcategory: r.FormValue("subcategory"),
			FileName:    header.Filename,
			MimeType:    header.Header.Get("Content-Type"),
			Content:     content,
		}
		if req.UserID == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "userId is required")
			return
		}
		if req.Name == "" {
			req.Name = header.Filename
		}
		if tags := r.FormValue("tags"); tags != "" {
			req.Tags = splitTags(tags)
		}
		if imp := r.FormValue("importance"); imp != "" {
			v, err := strconv.Atoi(imp)
			if err != nil || v < 1 || v > 10 {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "importance must be an integer from 1 to 10")
				return
			}
			req.Importance = v
		}
		if req.Category != "" && !req.Category.Valid() {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "unknown category %q", req.Category)
			return
		}

		a, err := deps.Service.Create(r.Context(), req)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(a)
	}
}

func handleListAssets(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		filter := model.ListFilter{
			UserID:   q.Get("userId"),
			Category: model.Category(q.Get("category")),
			Search:   q.Get("q"),
			Limit:    parseIntParam(r, "limit", 20, 100),
			Offset:   parseIntParam(r, "offset", 0, 0),
		}
		if filter.UserID == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "userId is required")
			return
		}
		if filter.Category != "" && !filter.Category.Valid() {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "unknown category %q", filter.Category)
			return
		}
		if min := q.Get("minImportance"); min != "" {
			v, err := strconv.Atoi(min)
			if err != nil || v < 1 || v > 10 {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "minImportance must be an integer from 1 to 10")
				return
			}
			filter.MinImportance = v
		}

		assets, total, err := deps.Service.List(filter)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if assets == nil {
			assets = []model.Asset{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"assets": assets,
			"total":  total,
			"limit":  filter.Limit,
			"offset": filter.Offset,
		})
	}
}

func handleGetAsset(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := deps.Service.Get(chi.URLParam(r, "id"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(a)
	}
}

type updateAssetRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Category    *string  `json:"category"`
	Subcategory *string  `json:"subcategory"`
	Importance  *int     `json:"importance"`
	Tags        []string `json:"tags"`
}

// handleUpdateAsset applies a partial metadata update; absent fields
// are left untouched. Content and classification are immutable here.
func handleUpdateAsset(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		defer r.Body.Close()

		var req updateAssetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		upd := asset.UpdateRequest{
			Name:        req.Name,
			Description: req.Description,
			Subcategory: req.Subcategory,
			Tags:        req.Tags,
		}
		if req.Name != nil && *req.Name == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "name cannot be empty")
			return
		}
		if req.Category != nil {
			c := model.Category(*req.Category)
			if !c.Valid() {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "unknown category %q", c)
				return
			}
			upd.Category = &c
		}
		if req.Importance != nil {
			if *req.Importance < 1 || *req.Importance > 10 {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "importance must be an integer from 1 to 10")
				return
			}
			upd.Importance = req.Importance
		}

		a, err := deps.Service.Update(r.Context(), chi.URLParam(r, "id"), upd)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(a)
	}
}

func handleDeleteAsset(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := deps.Service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeServiceError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "deleted"})
	}
}

func handleAssetContent(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, a, err := deps.Service.Content(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeServiceError(w, err)
			return
		}

		mime := a.MimeType
		if mime == "" {
			mime = "application/octet-stream"
		}
		w.Header().Set("Content-Type", mime)
		if a.OriginalName != "" {
			w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", a.OriginalName))
		}
		w.Write(data)
	}
}

func handleTokenize(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := deps.Service.Tokenize(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(a)
	}
}

type beneficiaryRequest struct {
	UserID          string `json:"userId"`
	AccessCondition string `json:"accessCondition"`
	DelayPeriodDays int    `json:"delayPeriodDays"`
	Conditions      string `json:"conditions"`
}

func handleAddBeneficiary(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		defer r.Body.Close()

		var req beneficiaryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.UserID == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "userId is required")
			return
		}

		err := deps.Service.AddBeneficiary(model.Beneficiary{
			AssetID:         chi.URLParam(r, "id"),
			UserID:          req.UserID,
			AccessCondition: model.AccessCondition(req.AccessCondition),
			DelayPeriodDays: req.DelayPeriodDays,
			Conditions:      req.Conditions,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"status": "added"})
	}
}

func handlePreferences(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.URL.Query().Get("userId")
		if userID == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "userId is required")
			return
		}
		prefs := deps.Service.Preferences(r.Context(), userID)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(prefs)
	}
}

type planRequest struct {
	UserID        string   `json:"userId"`
	AssetIDs      []string `json:"assetIds"`
	Beneficiaries []string `json:"beneficiaries"`
	Threshold     int      `json:"threshold"`
}

func handleCreatePlan(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		defer r.Body.Close()

		var req planRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.UserID == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "userId is required")
			return
		}
		if len(req.Beneficiaries) == 0 {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "at least one beneficiary is required")
			return
		}

		err := deps.Service.CreateInheritancePlan(r.Context(), chain.PlanRequest{
			UserID:        req.UserID,
			AssetIDs:      req.AssetIDs,
			Beneficiaries: req.Beneficiaries,
			Threshold:     req.Threshold,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"status": "created"})
	}
}

func handleAddPlanBeneficiary(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		defer r.Body.Close()

		var req struct {
			UserID        string `json:"userId"`
			BeneficiaryID string `json:"beneficiaryId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.UserID == "" || req.BeneficiaryID == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "userId and beneficiaryId are required")
			return
		}

		if err := deps.Service.AddPlanBeneficiary(r.Context(), req.UserID, req.BeneficiaryID); err != nil {
			writeServiceError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"status": "added"})
	}
}

func handleInheritanceStatus(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.URL.Query().Get("userId")
		if userID == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "userId is required")
			return
		}
		status, err := deps.Service.InheritanceStatus(r.Context(), userID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(status)
	}
}

// writeServiceError maps workflow errors onto HTTP statuses. A remote
// tier outage is the upstream's fault, so it surfaces as 502.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, asset.ErrNotFound), errors.Is(err, cas.ErrNotFound):
		httpError(w, http.StatusNotFound, "not_found", "%v", err)
	case errors.Is(err, cas.ErrInvalidInput):
		httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
	case errors.Is(err, cas.ErrStorageUnavailable):
		httpError(w, http.StatusBadGateway, "storage_unavailable", "%v", err)
	default:
		httpError(w, http.StatusInternalServerError, "api_error", "%v", err)
	}
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}

func splitTags(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseIntParam(r *http.Request, key string, defaultVal, maxVal int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return defaultVal
	}
	if maxVal > 0 && v > maxVal {
		return maxVal
	}
	return v
}
