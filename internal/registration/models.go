package registration

import (
	"regdesk/internal/backend"
	"regdesk/internal/subject/display"
	"regdesk/internal/subject/form"
	"regdesk/internal/subject/imaging"
	"regdesk/internal/subject/validation"
	"regdesk/pkg/domain"
)

// FormState is what the wizard needs to render a category: its sections and
// the starting field values. SubjectID is set in edit mode.
type FormState struct {
	Category  domain.Category      `json:"category"`
	SubjectID string               `json:"subject_id,omitempty"`
	Sections  []validation.Section `json:"sections"`
	Data      form.Record          `json:"data"`
}

// SectionResult is the outcome of validating one wizard section.
type SectionResult struct {
	Section  int      `json:"section"`
	Valid    bool     `json:"valid"`
	Messages []string `json:"messages"`
}

// RegisterRequest carries one submitted wizard. Upload wins over Capture.
type RegisterRequest struct {
	Category domain.Category
	Fields   form.Record
	Upload   *imaging.Upload
	Capture  string
}

// SearchGroup holds the matches for one category.
type SearchGroup struct {
	Category domain.Category  `json:"category"`
	Total    int              `json:"total"`
	Users    []backend.Record `json:"users"`
	Cached   bool             `json:"cached"`
}

type SearchResponse struct {
	Query  string        `json:"query"`
	Total  int           `json:"total"`
	Groups []SearchGroup `json:"groups"`
}

// Identification is a face lookup. View is set when the registry matched a
// subject and returned its record.
type Identification struct {
	Matched    bool          `json:"matched"`
	UserID     string        `json:"user_id,omitempty"`
	Confidence float64       `json:"confidence"`
	Message    string        `json:"message,omitempty"`
	View       *display.View `json:"view,omitempty"`
}
