package mapping

import (
	"fmt"
	"slices"
	"sort"

	"regdesk/pkg/domain"
	dErrors "regdesk/pkg/domain-errors"
)

// Fields the builder adds to every payload regardless of the table.
const (
	KeyFormType  = "form_type"
	KeyTimestamp = "timestamp"
	KeyNotes     = "additional_notes"
)

// Contract is the backend schema for one category: the blob keys it accepts
// and the ones it refuses to ingest without.
type Contract struct {
	Category domain.Category
	Allowed  map[string]struct{}
	Required []string
}

var requiredFields = map[domain.Category][]string{
	domain.CategoryMan:      {"name", "national_id", "dob", "phone_number", KeyFormType},
	domain.CategoryWoman:    {"name", "national_id", "dob", "phone_number", KeyFormType},
	domain.CategoryChild:    {"name", "dob", "reporter_name", "reporter_phone", "area_of_disappearance", "last_seen_time", KeyFormType},
	domain.CategoryDisabled: {"name", "national_id", "dob", "disability_type", "reporter_name", KeyFormType},
}

// ContractFor derives the contract from the category's mapping table.
func ContractFor(category domain.Category) Contract {
	allowed := map[string]struct{}{
		KeyFormType:  {},
		KeyTimestamp: {},
		KeyNotes:     {},
	}
	for _, rule := range Rules(category) {
		allowed[rule.BackendField] = struct{}{}
	}
	return Contract{
		Category: category,
		Allowed:  allowed,
		Required: slices.Clone(requiredFields[category]),
	}
}

// Allows reports whether key may appear in the blob.
func (c Contract) Allows(key string) bool {
	_, ok := c.Allowed[key]
	return ok && !denied(key)
}

// Check returns a validation error listing missing required keys and keys
// the backend does not accept.
func (c Contract) Check(blob map[string]string) error {
	var problems []string
	for _, key := range c.Required {
		if blob[key] == "" {
			problems = append(problems, fmt.Sprintf("missing required field %q", key))
		}
	}
	var unexpected []string
	for key := range blob {
		if !c.Allows(key) {
			unexpected = append(unexpected, key)
		}
	}
	sort.Strings(unexpected)
	for _, key := range unexpected {
		problems = append(problems, fmt.Sprintf("field %q is not accepted for %s", key, c.Category))
	}
	if len(problems) == 0 {
		return nil
	}
	return dErrors.New(dErrors.CodeValidation, "payload does not match backend contract").WithDetails(problems)
}

func denied(key string) bool {
	return slices.Contains(Denylist, key)
}
