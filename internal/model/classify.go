package model

// Category is the closed set of asset categories
type Category string

const (
	CategoryDocuments        Category = "documents"
	CategoryPhotos           Category = "photos"
	CategoryVideos           Category = "videos"
	CategoryEmails           Category = "emails"
	CategoryFinancialAssets  Category = "financialAssets"
	CategoryDigitalCreations Category = "digitalCreations"
	CategorySocialMedia      Category = "socialMedia"
	CategoryCredentials      Category = "credentials"
	CategoryOther            Category = "other"
)

// Categories lists every valid category
var Categories = []Category{
	CategoryDocuments,
	CategoryPhotos,
	CategoryVideos,
	CategoryEmails,
	CategoryFinancialAssets,
	CategoryDigitalCreations,
	CategorySocialMedia,
	CategoryCredentials,
	CategoryOther,
}

// Valid reports whether c is one of the known categories
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// AnalysisSource identifies which tier produced a classification
type AnalysisSource string

const (
	SourceRemoteAI      AnalysisSource = "remote-ai"
	SourceLocalFallback AnalysisSource = "local-fallback"
)

// AssetInfo is the metadata handed to the analysis resolver
type AssetInfo struct {
	FileName    string `json:"fileName"`
	FileType    string `json:"fileType"` // extension without the dot
	MimeType    string `json:"mimeType"`
	FileSize    int64  `json:"fileSize"`
	Description string `json:"description"`
}

// ClassificationResult is one analysis outcome for an asset
type ClassificationResult struct {
	Category    Category       `json:"category"`
	Subcategory string         `json:"subcategory"`
	Importance  int            `json:"importance"` // 1..10
	Sentiment   float64        `json:"sentiment"`  // -1..1
	Tags        []string       `json:"tags"`
	Entities    []string       `json:"entities,omitempty"`
	Source      AnalysisSource `json:"source"`
}

// Clamp forces importance and sentiment into their declared bounds.
// Applied to every result regardless of which tier produced it.
func (r *ClassificationResult) Clamp() {
	if r.Importance < 1 {
		r.Importance = 1
	}
	if r.Importance > 10 {
		r.Importance = 10
	}
	if r.Sentiment < -1 {
		r.Sentiment = -1
	}
	if r.Sentiment > 1 {
		r.Sentiment = 1
	}
}

// AccessCondition controls when a beneficiary may access an asset
type AccessCondition string

const (
	AccessImmediate   AccessCondition = "immediate"
	AccessDelayed     AccessCondition = "delayed"
	AccessConditional AccessCondition = "conditional"
	AccessStaged      AccessCondition = "staged"
)

// CategoryPreference is a recommended inheritance setting for one category
type CategoryPreference struct {
	AccessCondition AccessCondition `json:"accessCondition"`
	DelayPeriodDays int             `json:"delayPeriodDays,omitempty"`
}

// InheritancePreferences is the recommendation set for a user's estate
type InheritancePreferences struct {
	SuggestedBeneficiaries []string                        `json:"suggestedBeneficiaries"`
	CategoryPreferences    map[Category]CategoryPreference `json:"categoryPreferences"`
	Confidence             float64                         `json:"confidence"`
	Source                 AnalysisSource                  `json:"source"`
}
