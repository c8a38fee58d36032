package model

import "time"

// Asset is one digital asset record in the heritage vault
type Asset struct {
	ID          string   `json:"id"`
	UserID      string   `json:"userId"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Category    Category `json:"category"`
	Subcategory string   `json:"subcategory,omitempty"`
	Tags        []string `json:"tags"`

	// File metadata
	FileType     string `json:"fileType,omitempty"`
	MimeType     string `json:"mimeType,omitempty"`
	FileSize     int64  `json:"fileSize,omitempty"`
	OriginalName string `json:"originalName,omitempty"`

	// Storage. GatewayURL is derived from ContentID at read time and is
	// not persisted.
	ContentID  string        `json:"contentId,omitempty"`
	Origin     StorageOrigin `json:"origin,omitempty"`
	GatewayURL string        `json:"gatewayUrl,omitempty"`

	// Analysis
	Importance int                   `json:"importance"`
	Sentiment  float64               `json:"sentiment"`
	Analysis   *ClassificationResult `json:"analysis,omitempty"`

	// Blockchain
	Token *TokenRecord `json:"token,omitempty"`

	ViewCount    int        `json:"viewCount"`
	LastAccessed *time.Time `json:"lastAccessed,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// TokenRecord links an asset to its on-chain token
type TokenRecord struct {
	TokenID         string    `json:"tokenId"`
	Contract        string    `json:"contract,omitempty"`
	TransactionHash string    `json:"transactionHash,omitempty"`
	TokenURI        string    `json:"tokenUri,omitempty"`
	TokenizedAt     time.Time `json:"tokenizedAt"`
}

// Beneficiary grants another user conditional access to an asset
type Beneficiary struct {
	AssetID         string          `json:"assetId"`
	UserID          string          `json:"userId"`
	AccessCondition AccessCondition `json:"accessCondition"`
	DelayPeriodDays int             `json:"delayPeriodDays,omitempty"`
	Conditions      string          `json:"conditions,omitempty"`
}

// ListFilter narrows an asset listing
type ListFilter struct {
	UserID        string
	Category      Category
	MinImportance int
	Search        string
	Limit         int
	Offset        int
}
