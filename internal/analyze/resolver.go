package analyze

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/mkang/heritaged/internal/cache"
	"github.com/mkang/heritaged/internal/model"
)

// Outcome is the two-stage result of a classification attempt. RemoteErr
// is nil when the remote tier answered; otherwise it records why the
// local fallback was used, so tests and callers can target each stage
// without inducing failures.
type Outcome struct {
	Result    model.ClassificationResult
	RemoteErr error
}

// Resolver classifies assets through a remote provider with a
// deterministic rule-based fallback. Each call is stateless given its
// inputs; the remote-available branch is decided fresh per call (no
// circuit breaker or retry).
type Resolver struct {
	provider Provider // nil: rules only
	rules    *RuleClassifier
	cache    cache.Cache // nil: no caching; holds remote results only
	group    singleflight.Group
}

// NewResolver builds a resolver. provider may be nil (remote tier
// disabled) and store may be nil (no result caching).
func NewResolver(provider Provider, store cache.Cache) *Resolver {
	return &Resolver{
		provider: provider,
		rules:    NewRuleClassifier(),
		cache:    store,
	}
}

// Classify returns a best-effort classification. It never fails: any
// remote error falls through to the rule table.
func (r *Resolver) Classify(ctx context.Context, info model.AssetInfo) model.ClassificationResult {
	return r.Resolve(ctx, info).Result
}

// Resolve classifies and reports which tier answered
func (r *Resolver) Resolve(ctx context.Context, info model.AssetInfo) Outcome {
	if r.provider == nil {
		return Outcome{
			Result:    r.rules.Classify(info),
			RemoteErr: fmt.Errorf("no remote provider configured"),
		}
	}

	key := Fingerprint(info)

	if r.cache != nil {
		if data, ok := r.cache.Get(key); ok {
			var cached model.ClassificationResult
			if err := json.Unmarshal(data, &cached); err == nil {
				return Outcome{Result: cached}
			}
			_ = r.cache.Delete(key)
		}
	}

	// Concurrent calls for identical metadata share one remote attempt.
	v, err, _ := r.group.Do(key, func() (any, error) {
		return r.provider.Analyze(ctx, info)
	})
	if err != nil {
		return Outcome{
			Result:    r.rules.Classify(info),
			RemoteErr: err,
		}
	}

	result := *(v.(*model.ClassificationResult))
	result.Clamp()

	if r.cache != nil {
		if data, err := json.Marshal(result); err == nil {
			_ = r.cache.Set(key, data, 0)
		}
	}
	return Outcome{Result: result}
}

// InheritancePreferences recommends inheritance settings for a user.
// Like Classify it never fails: when the remote provider is absent or
// errors, a static per-category recommendation map is returned with low
// confidence.
func (r *Resolver) InheritancePreferences(ctx context.Context, userID string) model.InheritancePreferences {
	if pp, ok := r.provider.(PreferenceProvider); ok {
		if prefs, err := pp.AnalyzePreferences(ctx, userID); err == nil {
			return *prefs
		}
	}
	return defaultPreferences()
}

func defaultPreferences() model.InheritancePreferences {
	return model.InheritancePreferences{
		SuggestedBeneficiaries: []string{},
		CategoryPreferences: map[model.Category]model.CategoryPreference{
			model.CategoryDocuments:        {AccessCondition: model.AccessImmediate},
			model.CategoryPhotos:           {AccessCondition: model.AccessImmediate},
			model.CategoryVideos:           {AccessCondition: model.AccessImmediate},
			model.CategoryEmails:           {AccessCondition: model.AccessDelayed, DelayPeriodDays: 30},
			model.CategoryFinancialAssets:  {AccessCondition: model.AccessConditional},
			model.CategoryDigitalCreations: {AccessCondition: model.AccessImmediate},
			model.CategorySocialMedia:      {AccessCondition: model.AccessDelayed, DelayPeriodDays: 15},
			model.CategoryCredentials:      {AccessCondition: model.AccessConditional},
		},
		Confidence: 0.5,
		Source:     model.SourceLocalFallback,
	}
}

// Fingerprint derives the cache/singleflight key for asset metadata
func Fingerprint(info model.AssetInfo) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%s\x00%d\x00%s",
		info.FileName, info.FileType, info.MimeType, info.FileSize, info.Description)
	return "heritaged:v1:" + hex.EncodeToString(h.Sum(nil))
}
