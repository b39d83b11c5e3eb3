package domain

import "strings"

// UploadedFile is one part of a submission batch. It lives for a single request.
type UploadedFile struct {
	Name      string
	SizeBytes int64
	Extension string
	Content   []byte
}

// NewUploadedFile derives the extension from name and the size from content.
func NewUploadedFile(name string, content []byte) UploadedFile {
	return UploadedFile{
		Name:      name,
		SizeBytes: int64(len(content)),
		Extension: ExtensionOf(name),
		Content:   content,
	}
}

// ExtensionOf returns "." plus the lower-cased text after the last dot of name.
// A name without a dot yields "." plus the whole lower-cased name.
func ExtensionOf(name string) string {
	lower := strings.ToLower(name)
	if idx := strings.LastIndex(lower, "."); idx >= 0 {
		return "." + lower[idx+1:]
	}
	return "." + lower
}

// ExtractionResult is the text pulled out of one file, or a request to hand the
// batch off to OCR.
type ExtractionResult struct {
	Text             string
	NeedsExternalOCR bool
}

type Outcome string

const (
	OutcomePass     Outcome = "pass"
	OutcomeFail     Outcome = "fail"
	OutcomeDeferred Outcome = "deferred"
)

// ValidationVerdict is the JSON body returned for every determinate or deferred outcome.
// Pass is nil when the decision is deferred to OCR. Keyword lists are nil when the
// pipeline stopped before keywords were checked.
type ValidationVerdict struct {
	Pass                   *bool    `json:"pass"`
	MissingKeywords        []string `json:"missingKeywords"`
	FoundForbiddenKeywords []string `json:"foundForbiddenKeywords"`
	WordCount              int      `json:"wordCount"`
	MinWordCount           int      `json:"minWordCount,omitempty"`
	ExtractedLength        int      `json:"extractedLength"`
	ProcessedFiles         []string `json:"processedFiles"`
	NeedsServerOCR         bool     `json:"needsServerOcr,omitempty"`
	Error                  string   `json:"error,omitempty"`
}

func (v *ValidationVerdict) Outcome() Outcome {
	switch {
	case v.Pass == nil:
		return OutcomeDeferred
	case *v.Pass:
		return OutcomePass
	default:
		return OutcomeFail
	}
}

func boolPtr(b bool) *bool { return &b }

// FailedVerdict builds a pass:false verdict carrying msg.
func FailedVerdict(msg string, processed []string) *ValidationVerdict {
	return &ValidationVerdict{
		Pass:           boolPtr(false),
		ProcessedFiles: nonNil(processed),
		Error:          msg,
	}
}

// DeferredVerdict builds the OCR handoff verdict.
func DeferredVerdict(processed []string) *ValidationVerdict {
	return &ValidationVerdict{
		Pass:           nil,
		ProcessedFiles: nonNil(processed),
		NeedsServerOCR: true,
	}
}

// Decide sets Pass from the keyword lists.
func (v *ValidationVerdict) Decide() {
	v.Pass = boolPtr(len(v.MissingKeywords) == 0 && len(v.FoundForbiddenKeywords) == 0)
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

var ocrExtensions = map[string]struct{}{
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".webp": {},
}

// RequiresOCR reports whether files with ext carry no extractable text and must be
// handed to the external OCR subsystem.
func RequiresOCR(ext string) bool {
	_, ok := ocrExtensions[strings.ToLower(strings.TrimSpace(ext))]
	return ok
}
