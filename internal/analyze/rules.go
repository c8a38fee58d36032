package analyze

import (
	"regexp"
	"strings"

	"github.com/mkang/heritaged/internal/model"
)

// Subcategory labels assigned by the rule classifier
const (
	SubcatLegalDocument     = "legal document"
	SubcatFinancialDocument = "financial document"
	SubcatMedicalRecord     = "medical record"
	SubcatAcademicRecord    = "academic record"
	SubcatPersonalDocument  = "personal document"

	SubcatFamilyPhoto     = "family photo"
	SubcatTravelPhoto     = "travel photo"
	SubcatWeddingPhoto    = "wedding photo"
	SubcatGraduationPhoto = "graduation photo"
	SubcatEverydayPhoto   = "everyday photo"

	SubcatFamilyVideo   = "family video"
	SubcatWeddingVideo  = "wedding video"
	SubcatTravelVideo   = "travel video"
	SubcatEverydayVideo = "everyday video"

	SubcatCorrespondence = "correspondence"

	SubcatTaxDocument    = "tax document"
	SubcatBankAccount    = "bank account"
	SubcatInvestment     = "investment"
	SubcatCryptocurrency = "cryptocurrency"

	SubcatMusicWork   = "music work"
	SubcatDesignWork  = "design work"
	SubcatSoftware    = "software"
	SubcatCreation    = "creative work"
	SubcatCertificate = "certificate"
	SubcatMisc        = "miscellaneous"
)

// extension sets per coarse category
var (
	documentExts = extSet("pdf", "doc", "docx", "txt", "rtf", "odt")
	photoExts    = extSet("jpg", "jpeg", "png", "gif", "bmp", "tiff", "webp", "heic")
	videoExts    = extSet("mp4", "mov", "avi", "wmv", "flv", "mkv", "webm", "3gp")
	emailExts    = extSet("eml", "msg")
	sheetExts    = extSet("xls", "xlsx", "csv")
	creationExts = extSet("psd", "ai", "svg", "eps", "indd", "mp3", "wav", "html", "css", "js")
	musicExts    = extSet("mp3", "wav", "ogg", "flac", "m4a")
	designExts   = extSet("psd", "ai", "svg", "eps")
	codeExts     = extSet("html", "css", "js", "php", "py", "java")
	credExts     = extSet("key", "pem", "cert", "p12", "pfx", "jks", "keystore")
)

// keyword patterns, matched case-insensitively against filename+description
var (
	reLegal      = regexp.MustCompile(`contract|agreement|legal|law|terms|conditions`)
	reFinance    = regexp.MustCompile(`financ|bank|tax|invoice|receipt|payment`)
	reFinanceExt = regexp.MustCompile(`financ|bank|tax|invoice|receipt|payment|crypto`)
	reMedical    = regexp.MustCompile(`medical|health|doctor|hospital|prescription`)
	reAcademic   = regexp.MustCompile(`certificate|diploma|degree|education|school|grade`)

	reFamily     = regexp.MustCompile(`family|relatives`)
	reTravel     = regexp.MustCompile(`travel|trip|vacation|tour`)
	reWedding    = regexp.MustCompile(`wedding|marriage|ceremony`)
	reGraduation = regexp.MustCompile(`graduation|graduate|diploma`)

	reTax        = regexp.MustCompile(`tax`)
	reBank       = regexp.MustCompile(`bank`)
	reInvestment = regexp.MustCompile(`investment|invest|stock`)
	reCrypto     = regexp.MustCompile(`crypto|bitcoin|ethereum`)

	reToken = regexp.MustCompile(`[\p{L}\p{N}]+`)
)

var (
	positiveWords = []string{"good", "great", "excellent", "happy", "love", "joy"}
	negativeWords = []string{"bad", "poor", "terrible", "sad", "hate", "angry"}
)

// RuleClassifier is the deterministic local fallback. It is pure: no
// network, no disk, no state between calls.
type RuleClassifier struct{}

// NewRuleClassifier creates a rule classifier
func NewRuleClassifier() *RuleClassifier {
	return &RuleClassifier{}
}

// Classify derives a best-effort classification from static rules. It
// never fails: any input, however malformed, yields a result with
// importance in [1,10] and sentiment in [-1,1].
func (c *RuleClassifier) Classify(info model.AssetInfo) model.ClassificationResult {
	ext := strings.ToLower(strings.TrimPrefix(info.FileType, "."))
	mime := strings.ToLower(info.MimeType)
	text := strings.ToLower(info.Description + " " + info.FileName)

	result := model.ClassificationResult{
		Category:    model.CategoryOther,
		Subcategory: SubcatMisc,
		Importance:  5,
		Sentiment:   0,
		Tags:        []string{},
		Source:      model.SourceLocalFallback,
	}

	switch {
	case documentExts[ext]:
		result.Category = model.CategoryDocuments
		switch {
		case reLegal.MatchString(text):
			result.Subcategory, result.Importance = SubcatLegalDocument, 9
		case reFinance.MatchString(text):
			result.Subcategory, result.Importance = SubcatFinancialDocument, 8
		case reMedical.MatchString(text):
			result.Subcategory, result.Importance = SubcatMedicalRecord, 9
		case reAcademic.MatchString(text):
			result.Subcategory, result.Importance = SubcatAcademicRecord, 7
		default:
			result.Subcategory, result.Importance = SubcatPersonalDocument, 6
		}

	case photoExts[ext]:
		result.Category = model.CategoryPhotos
		switch {
		case reFamily.MatchString(text):
			result.Subcategory, result.Importance = SubcatFamilyPhoto, 9
		case reTravel.MatchString(text):
			result.Subcategory, result.Importance = SubcatTravelPhoto, 7
		case reWedding.MatchString(text):
			result.Subcategory, result.Importance = SubcatWeddingPhoto, 9
		case reGraduation.MatchString(text):
			result.Subcategory, result.Importance = SubcatGraduationPhoto, 8
		default:
			result.Subcategory, result.Importance = SubcatEverydayPhoto, 5
		}

	case videoExts[ext]:
		result.Category = model.CategoryVideos
		switch {
		case reFamily.MatchString(text):
			result.Subcategory, result.Importance = SubcatFamilyVideo, 9
		case reWedding.MatchString(text):
			result.Subcategory, result.Importance = SubcatWeddingVideo, 10
		case reTravel.MatchString(text):
			result.Subcategory, result.Importance = SubcatTravelVideo, 7
		default:
			result.Subcategory, result.Importance = SubcatEverydayVideo, 6
		}

	case emailExts[ext] || strings.Contains(mime, "message"):
		result.Category = model.CategoryEmails
		result.Subcategory = SubcatCorrespondence
		result.Importance = 6
		result.Sentiment = scoreSentiment(strings.ToLower(info.Description))

	case sheetExts[ext] && reFinanceExt.MatchString(text):
		result.Category = model.CategoryFinancialAssets
		switch {
		case reTax.MatchString(text):
			result.Subcategory, result.Importance = SubcatTaxDocument, 9
		case reBank.MatchString(text):
			result.Subcategory, result.Importance = SubcatBankAccount, 8
		case reInvestment.MatchString(text):
			result.Subcategory, result.Importance = SubcatInvestment, 8
		case reCrypto.MatchString(text):
			result.Subcategory, result.Importance = SubcatCryptocurrency, 9
		default:
			result.Subcategory, result.Importance = SubcatFinancialDocument, 7
		}

	case creationExts[ext]:
		result.Category = model.CategoryDigitalCreations
		result.Importance = 7
		switch {
		case musicExts[ext]:
			result.Subcategory = SubcatMusicWork
		case designExts[ext]:
			result.Subcategory = SubcatDesignWork
		case codeExts[ext]:
			result.Subcategory = SubcatSoftware
		default:
			result.Subcategory = SubcatCreation
		}

	case credExts[ext]:
		result.Category = model.CategoryCredentials
		result.Subcategory = SubcatCertificate
		result.Importance = 10
	}

	result.Tags = deriveTags(info.FileName, info.Description, 5)
	result.Clamp()
	return result
}

// scoreSentiment scans for fixed keyword lists, adding ±0.2 per match,
// clamped to [-1, 1].
func scoreSentiment(text string) float64 {
	score := 0.0
	for _, w := range positiveWords {
		if strings.Contains(text, w) {
			score += 0.2
		}
	}
	for _, w := range negativeWords {
		if strings.Contains(text, w) {
			score -= 0.2
		}
	}
	if score > 1 {
		score = 1
	}
	if score < -1 {
		score = -1
	}
	return score
}

// deriveTags tokenizes filename+description, discards short tokens,
// dedupes preserving order, and truncates to max entries.
func deriveTags(fileName, description string, max int) []string {
	text := strings.ToLower(description + " " + fileName)
	tokens := reToken.FindAllString(text, -1)

	seen := make(map[string]bool)
	tags := []string{}
	for _, tok := range tokens {
		if len(tok) <= 2 || seen[tok] {
			continue
		}
		seen[tok] = true
		tags = append(tags, tok)
		if len(tags) == max {
			break
		}
	}
	return tags
}

func extSet(exts ...string) map[string]bool {
	m := make(map[string]bool, len(exts))
	for _, e := range exts {
		m[e] = true
	}
	return m
}
