// Package display turns backend subject records into labelled, localized
// read-only views.
package display

import (
	"strings"
	"time"

	"golang.org/x/text/language"

	"regdesk/internal/subject/i18n"
	"regdesk/pkg/domain"
	pstrings "regdesk/pkg/platform/strings"
)

// Redacted replaces sensitive values when identity reveal is off.
const Redacted = "••••••"

type kind int

const (
	kindText kind = iota
	kindDate
	kindFlag
)

type column struct {
	key       string
	kind      kind
	sensitive bool
}

func text(key string) column      { return column{key: key} }
func date(key string) column      { return column{key: key, kind: kindDate} }
func flag(key string) column      { return column{key: key, kind: kindFlag} }
func sensitive(key string) column { return column{key: key, sensitive: true} }

var identityColumns = []column{
	text("name"), sensitive("national_id"), date("dob"), text("age"), text("gender"), text("address"),
}

var adultColumns = append(append([]column{}, identityColumns...),
	text("job"), sensitive("phone_number"), text("phone_company"), sensitive("second_phone_number"),
	flag("has_criminal_record"), text("case_details"), text("police_station"), text("case_number"), text("judgment"),
	flag("has_vehicle"), text("vehicle_model"), text("vehicle_color"), text("vehicle_plate_number"),
	flag("has_travel"), date("travel_date"), text("travel_destination"), date("return_date"),
	date("last_seen_time"), text("area_of_disappearance"), text("last_clothes"), text("physical_description"),
	date("created_at"),
)

var childColumns = append(append([]column{}, identityColumns...),
	text("reporter_name"), sensitive("reporter_phone"), sensitive("reporter_national_id"), text("relationship"),
	text("area_of_disappearance"), date("last_seen_time"), text("last_clothes"), text("physical_description"),
	text("police_report_number"), date("police_report_date"), text("police_station"),
	date("created_at"),
)

var disabledColumns = append(append([]column{}, identityColumns...),
	text("disability_type"), text("disability_description"),
	text("medical_condition"), text("medications"), text("doctor_name"),
	text("reporter_name"), sensitive("reporter_phone"), text("relationship"),
	text("area_of_disappearance"), date("last_seen_time"), text("last_clothes"),
	date("created_at"),
)

func columns(category domain.Category) []column {
	switch category {
	case domain.CategoryChild:
		return childColumns
	case domain.CategoryDisabled:
		return disabledColumns
	default:
		return adultColumns
	}
}

// Item is one labelled row of a view.
type Item struct {
	Key    string `json:"key"`
	Label  string `json:"label"`
	Value  string `json:"value"`
	Masked bool   `json:"masked,omitempty"`
	Hint   string `json:"hint,omitempty"`
}

// View is the read-only rendering of one subject.
type View struct {
	ID       string          `json:"id,omitempty"`
	Category domain.Category `json:"category"`
	Lang     string          `json:"lang"`
	Dir      string          `json:"dir"`
	Photo    string          `json:"photo,omitempty"`
	Items    []Item          `json:"items"`
}

var defaultLocalizer = i18n.NewBundle("en").Localizer(language.English)

// Options carry the per-request rendering inputs.
type Options struct {
	Localizer *i18n.Localizer
}

// Mapper renders views. The zero value hides nothing.
type Mapper struct {
	hide bool
}

// Option configures a Mapper.
type Option func(*Mapper)

// WithReveal controls whether sensitive identity fields are shown.
func WithReveal(reveal bool) Option {
	return func(m *Mapper) { m.hide = !reveal }
}

func New(opts ...Option) *Mapper {
	m := &Mapper{}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Reveal reports whether sensitive fields are shown.
func (m *Mapper) Reveal() bool { return !m.hide }

// View selects, labels and formats the fields shown for category. Empty
// values are skipped.
func (m *Mapper) View(category domain.Category, record map[string]any, opts Options) View {
	loc := opts.Localizer
	if loc == nil {
		loc = defaultLocalizer
	}
	arabic := loc.IsArabic()

	v := View{
		ID:       firstString(record, "id", "user_id", "unique_id"),
		Category: category,
		Lang:     loc.Tag().String(),
		Dir:      loc.Dir(),
		Photo:    firstString(record, "image_url", "photo_url"),
	}
	for _, col := range columns(category) {
		raw := lookup(record, col.key)
		if raw == "" {
			continue
		}
		item := Item{Key: col.key, Label: loc.T("label." + col.key)}
		switch col.kind {
		case kindDate:
			item.Value = FormatDate(raw, arabic)
		case kindFlag:
			if truthy(raw) {
				item.Value = loc.T(i18n.MsgYes)
			} else {
				item.Value = loc.T(i18n.MsgNo)
			}
		default:
			item.Value = raw
			if arabic {
				item.Value = pstrings.ToArabicDigits(raw)
			}
		}
		if col.sensitive {
			item.Value = MaskSensitive(item.Value, m.Reveal())
			if !m.Reveal() {
				item.Masked = true
				item.Hint = loc.T(i18n.MsgRedacted)
			}
		}
		v.Items = append(v.Items, item)
	}
	return v
}

// MaskSensitive returns value unchanged when reveal is set, otherwise the
// redaction placeholder.
func MaskSensitive(value string, reveal bool) string {
	if reveal || value == "" {
		return value
	}
	return Redacted
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// FormatDate renders a backend date as 1/15/1990, or day/month/year with
// Arabic-Indic digits for Arabic. Unparseable input is returned as is.
func FormatDate(raw string, arabic bool) string {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, raw)
		if err != nil {
			continue
		}
		if arabic {
			return pstrings.ToArabicDigits(t.Format("2/1/2006"))
		}
		return t.Format("1/2/2006")
	}
	return raw
}
