// Package asset implements the asset-creation workflow: classify the
// upload, persist its bytes through the storage facade, and save the
// resulting record. Analysis failure never blocks creation; storage
// failure of both tiers does.
package asset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mkang/heritaged/internal/analyze"
	"github.com/mkang/heritaged/internal/cas"
	"github.com/mkang/heritaged/internal/chain"
	"github.com/mkang/heritaged/internal/model"
	"github.com/mkang/heritaged/internal/storage"
)

// ErrNotFound is returned when the requested asset does not exist.
var ErrNotFound = errors.New("asset not found")

// Service orchestrates asset creation, retrieval and tokenization.
// All collaborators are injected; there is no package-level state.
type Service struct {
	resolver *analyze.Resolver
	facade   *cas.Facade
	store    *storage.Store
	bridge   *chain.Client // nil: tokenization disabled
	logger   *slog.Logger
}

// NewService builds the workflow service. bridge may be nil.
func NewService(resolver *analyze.Resolver, facade *cas.Facade, store *storage.Store, bridge *chain.Client, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		resolver: resolver,
		facade:   facade,
		store:    store,
		bridge:   bridge,
		logger:   logger,
	}
}

// CreateRequest carries one upload into the creation workflow
type CreateRequest struct {
	UserID      string
	Name        string
	Description string
	Category    model.Category // optional; empty lets analysis decide
	Subcategory string
	Importance  int // optional; 0 lets analysis decide
	Tags        []string
	FileName    string
	MimeType    string
	Content     []byte
}

// Create classifies and stores an upload, then persists the record
func (s *Service) Create(ctx context.Context, req CreateRequest) (*model.Asset, error) {
	if req.UserID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	if req.Name == "" {
		return nil, fmt.Errorf("name is required")
	}

	fileType := strings.TrimPrefix(strings.ToLower(filepath.Ext(req.FileName)), ".")

	now := time.Now().UTC()
	a := model.Asset{
		ID:           uuid.New().String(),
		UserID:       req.UserID,
		Name:         req.Name,
		Description:  req.Description,
		Category:     req.Category,
		Subcategory:  req.Subcategory,
		Tags:         dedupe(req.Tags),
		FileType:     fileType,
		MimeType:     req.MimeType,
		FileSize:     int64(len(req.Content)),
		OriginalName: req.FileName,
		Importance:   req.Importance,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if len(req.Content) > 0 {
		outcome := s.resolver.Resolve(ctx, model.AssetInfo{
			FileName:    req.FileName,
			FileType:    fileType,
			MimeType:    req.MimeType,
			FileSize:    int64(len(req.Content)),
			Description: req.Description,
		})
		if outcome.RemoteErr != nil {
			s.logger.Debug("remote analysis unavailable, used rule fallback",
				"file", req.FileName, "error", outcome.RemoteErr)
		}
		cls := outcome.Result
		a.Analysis = &cls
		a.Sentiment = cls.Sentiment
		if a.Category == "" {
			a.Category = cls.Category
		}
		if a.Subcategory == "" {
			a.Subcategory = cls.Subcategory
		}
		if a.Importance == 0 {
			a.Importance = cls.Importance
		}
		a.Tags = dedupe(append(a.Tags, cls.Tags...))

		record, err := s.facade.Store(ctx, req.Content, req.FileName)
		if err != nil {
			return nil, fmt.Errorf("storing content: %w", err)
		}
		if record.RemoteErr() != nil {
			s.logger.Warn("remote store unavailable, content on local fallback",
				"id", record.Identifier, "error", record.RemoteErr())
		}
		a.ContentID = record.Identifier
		a.Origin = record.Origin
		a.GatewayURL = s.facade.GatewayURL(record.Identifier)
	}

	if a.Category == "" {
		a.Category = model.CategoryOther
	}
	if a.Importance == 0 {
		a.Importance = 5
	}

	if err := s.store.SaveAsset(a); err != nil {
		return nil, fmt.Errorf("saving asset: %w", err)
	}
	return &a, nil
}

// Get fetches an asset and records the access
func (s *Service) Get(id string) (*model.Asset, error) {
	a, err := s.store.GetAsset(id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := s.store.RecordView(id); err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.logger.Warn("recording view", "id", id, "error", err)
	}
	a.GatewayURL = s.facade.GatewayURL(a.ContentID)
	return &a, nil
}

// UpdateRequest carries a partial update; nil fields are left unchanged
type UpdateRequest struct {
	Name        *string
	Description *string
	Category    *model.Category
	Subcategory *string
	Importance  *int
	Tags        []string // nil leaves tags unchanged
}

// Update rewrites the mutable metadata of an asset
func (s *Service) Update(ctx context.Context, id string, req UpdateRequest) (*model.Asset, error) {
	a, err := s.store.GetAsset(id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if req.Name != nil {
		if *req.Name == "" {
			return nil, fmt.Errorf("name cannot be empty")
		}
		a.Name = *req.Name
	}
	if req.Description != nil {
		a.Description = *req.Description
	}
	if req.Category != nil {
		if !req.Category.Valid() {
			return nil, fmt.Errorf("unknown category %q", *req.Category)
		}
		a.Category = *req.Category
	}
	if req.Subcategory != nil {
		a.Subcategory = *req.Subcategory
	}
	if req.Importance != nil {
		if *req.Importance < 1 || *req.Importance > 10 {
			return nil, fmt.Errorf("importance must be between 1 and 10")
		}
		a.Importance = *req.Importance
	}
	if req.Tags != nil {
		a.Tags = dedupe(req.Tags)
	}
	a.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateAsset(a); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	a.GatewayURL = s.facade.GatewayURL(a.ContentID)
	return &a, nil
}

// List returns assets matching the filter
func (s *Service) List(f model.ListFilter) ([]model.Asset, int, error) {
	assets, err := s.store.ListAssets(f)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.store.CountAssets(f)
	if err != nil {
		return nil, 0, err
	}
	return assets, total, nil
}

// Content returns the stored bytes for an asset
func (s *Service) Content(ctx context.Context, id string) ([]byte, *model.Asset, error) {
	a, err := s.store.GetAsset(id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	if a.ContentID == "" {
		return nil, nil, fmt.Errorf("%w: asset has no stored content", ErrNotFound)
	}
	data, err := s.facade.Retrieve(ctx, a.ContentID)
	if err != nil {
		return nil, nil, err
	}
	return data, &a, nil
}

// Delete removes the record and its blob. Blob removal is best-effort:
// a missing blob does not keep the record alive.
func (s *Service) Delete(ctx context.Context, id string) error {
	a, err := s.store.GetAsset(id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	if a.ContentID != "" {
		if err := s.facade.Delete(ctx, a.ContentID); err != nil && !errors.Is(err, cas.ErrNotFound) {
			s.logger.Warn("deleting content", "id", a.ContentID, "error", err)
		}
	}
	if err := s.store.DeleteAsset(id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// Tokenize mints an on-chain token for an asset via the chain bridge
func (s *Service) Tokenize(ctx context.Context, id string) (*model.Asset, error) {
	if s.bridge == nil {
		return nil, fmt.Errorf("chain bridge not configured")
	}
	a, err := s.store.GetAsset(id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if a.Token != nil {
		return nil, fmt.Errorf("asset %s is already tokenized", id)
	}

	result, err := s.bridge.Tokenize(ctx, chain.TokenizeRequest{
		AssetID:    a.ID,
		UserID:     a.UserID,
		ContentID:  a.ContentID,
		Name:       a.Name,
		Category:   string(a.Category),
		Importance: a.Importance,
	})
	if err != nil {
		return nil, fmt.Errorf("tokenizing asset: %w", err)
	}

	token := model.TokenRecord{
		TokenID:         result.TokenID,
		Contract:        result.Contract,
		TransactionHash: result.TransactionHash,
		TokenURI:        result.TokenURI,
		TokenizedAt:     time.Now().UTC(),
	}
	if err := s.store.SetToken(id, token); err != nil {
		return nil, fmt.Errorf("saving token: %w", err)
	}
	a.Token = &token
	return &a, nil
}

// AddBeneficiary grants a beneficiary access to an asset
func (s *Service) AddBeneficiary(b model.Beneficiary) error {
	if _, err := s.store.GetAsset(b.AssetID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	if b.AccessCondition == "" {
		b.AccessCondition = model.AccessImmediate
	}
	return s.store.AddBeneficiary(b)
}

// Preferences returns inheritance recommendations for a user
func (s *Service) Preferences(ctx context.Context, userID string) model.InheritancePreferences {
	return s.resolver.InheritancePreferences(ctx, userID)
}

// CreateInheritancePlan registers an on-chain inheritance plan for a
// user's estate via the chain bridge
func (s *Service) CreateInheritancePlan(ctx context.Context, req chain.PlanRequest) error {
	if s.bridge == nil {
		return fmt.Errorf("chain bridge not configured")
	}
	if req.UserID == "" {
		return fmt.Errorf("user id is required")
	}
	if len(req.Beneficiaries) == 0 {
		return fmt.Errorf("at least one beneficiary is required")
	}
	if req.Threshold <= 0 {
		req.Threshold = 1
	}
	return s.bridge.CreateInheritancePlan(ctx, req)
}

// AddPlanBeneficiary adds a beneficiary to the user's on-chain plan
func (s *Service) AddPlanBeneficiary(ctx context.Context, userID, beneficiaryID string) error {
	if s.bridge == nil {
		return fmt.Errorf("chain bridge not configured")
	}
	if userID == "" || beneficiaryID == "" {
		return fmt.Errorf("user id and beneficiary id are required")
	}
	return s.bridge.AddBeneficiary(ctx, userID, beneficiaryID)
}

// InheritanceStatus reports the on-chain state of a user's plan
func (s *Service) InheritanceStatus(ctx context.Context, userID string) (*chain.PlanStatus, error) {
	if s.bridge == nil {
		return nil, fmt.Errorf("chain bridge not configured")
	}
	return s.bridge.InheritanceStatus(ctx, userID)
}

// Availability probes the optional backends. The chain bridge only
// appears when one is configured.
func (s *Service) Availability(ctx context.Context) map[string]bool {
	out := map[string]bool{
		"remoteStore": s.facade.RemoteAvailable(ctx),
	}
	if s.bridge != nil {
		out["chainBridge"] = s.bridge.IsAvailable(ctx)
	}
	return out
}

// ImportFile reads a file from disk and runs it through the creation
// workflow, enriching the description from the content when possible.
// Used by the batch importer.
func (s *Service) ImportFile(ctx context.Context, path string) (*model.Asset, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(content) == 0 {
		return nil, fmt.Errorf("%s: empty file", path)
	}

	name := filepath.Base(path)
	description := ""
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		description = analyze.PDFText(path, 512)
	case ".html", ".htm":
		description = analyze.HTMLTitle(strings.NewReader(string(content)))
	}

	return s.Create(ctx, CreateRequest{
		UserID:      "import",
		Name:        name,
		Description: description,
		FileName:    name,
		MimeType:    mimeFromExt(filepath.Ext(path)),
		Content:     content,
	})
}

func mimeFromExt(ext string) string {
	switch strings.ToLower(ext) {
	case ".pdf":
		return "application/pdf"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".mp4":
		return "video/mp4"
	case ".mp3":
		return "audio/mpeg"
	case ".txt":
		return "text/plain"
	case ".html", ".htm":
		return "text/html"
	case ".eml":
		return "message/rfc822"
	default:
		return "application/octet-stream"
	}
}

func dedupe(in []string) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
