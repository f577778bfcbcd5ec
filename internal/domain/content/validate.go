package content

import (
	"fmt"
	"strings"
	"time"
)

// ValidationKind classifies why a document was rejected before transmission.
type ValidationKind string

const (
	KindMissingField        ValidationKind = "missing-field"
	KindInvalidOwner        ValidationKind = "invalid-owner"
	KindEmptyFeatures       ValidationKind = "empty-features"
	KindBadTimestamp        ValidationKind = "bad-timestamp"
	KindInvalidEventFeature ValidationKind = "invalid-event-feature"
)

// ValidationError reports a structural or semantic defect in a Doc. These are
// never retried; the source data has to be fixed.
type ValidationError struct {
	Kind    ValidationKind
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid content doc (%s): %s", e.Kind, e.Message)
}

// Validate rejects malformed documents before they consume network or quota.
// It is a pure function: same document, same result. Only string parseability
// is checked for timestamps; no clock comparison happens here.
func Validate(doc *Doc) error {
	if doc == nil {
		return &ValidationError{Kind: KindMissingField, Field: "doc", Message: "document is nil"}
	}
	if strings.TrimSpace(doc.ID) == "" {
		return &ValidationError{Kind: KindMissingField, Field: "id", Message: "id is required"}
	}
	if strings.TrimSpace(doc.Title) == "" {
		return &ValidationError{Kind: KindMissingField, Field: "title", Message: "title is required"}
	}
	if doc.OwnerSystem != OwnerSystem {
		return &ValidationError{
			Kind:    KindInvalidOwner,
			Field:   "ownerSystem",
			Message: fmt.Sprintf("ownerSystem must be %q, got %q", OwnerSystem, doc.OwnerSystem),
		}
	}
	if len(doc.Features) == 0 {
		return &ValidationError{Kind: KindEmptyFeatures, Field: "features", Message: "at least one feature block is required"}
	}
	if _, err := time.Parse(time.RFC3339, doc.CreatedAt); err != nil {
		return &ValidationError{Kind: KindBadTimestamp, Field: "createdAt", Message: fmt.Sprintf("createdAt %q is not a valid timestamp", doc.CreatedAt)}
	}
	if _, err := time.Parse(time.RFC3339, doc.UpdatedAt); err != nil {
		return &ValidationError{Kind: KindBadTimestamp, Field: "updatedAt", Message: fmt.Sprintf("updatedAt %q is not a valid timestamp", doc.UpdatedAt)}
	}

	if raw, ok := doc.Features[FeatureEventV1]; ok {
		feature, ok := raw.(*EventFeature)
		if !ok {
			return &ValidationError{Kind: KindInvalidEventFeature, Field: FeatureEventV1, Message: "event feature has unexpected shape"}
		}
		if _, err := time.Parse(time.RFC3339, feature.StartTime); err != nil {
			return &ValidationError{Kind: KindInvalidEventFeature, Field: "startTime", Message: fmt.Sprintf("startTime %q is not a valid timestamp", feature.StartTime)}
		}
		if _, err := time.Parse(time.RFC3339, feature.EndTime); err != nil {
			return &ValidationError{Kind: KindInvalidEventFeature, Field: "endTime", Message: fmt.Sprintf("endTime %q is not a valid timestamp", feature.EndTime)}
		}
		if strings.TrimSpace(feature.Location) == "" {
			return &ValidationError{Kind: KindInvalidEventFeature, Field: "location", Message: "location is required for event content"}
		}
	}

	return nil
}
