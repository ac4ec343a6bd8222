package mapping

import (
	"regdesk/internal/subject/form"
	"regdesk/pkg/domain"
)

// Rule maps one UI field to its backend name. A rule with a Gate only emits
// when that flag is set on the form.
type Rule struct {
	UIField      string
	BackendField string
	Transform    Transform
	Gate         string
}

func r(ui, backend string, t Transform) Rule { return Rule{UIField: ui, BackendField: backend, Transform: t} }

func gated(gate string, rules ...Rule) []Rule {
	out := make([]Rule, len(rules))
	for i, rule := range rules {
		rule.Gate = gate
		out[i] = rule
	}
	return out
}

func join(groups ...[]Rule) []Rule {
	var out []Rule
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

var identityRules = []Rule{
	r(form.FieldName, "name", Text),
	r(form.FieldFullName, "full_name", Text),
	r(form.FieldNationalID, "national_id", Digits),
	r(form.FieldDOB, "dob", Date),
	r(form.FieldAge, "age", Text),
	r(form.FieldGender, "gender", Text),
	r(form.FieldAddress, "address", Text),
}

var adultRules = join(
	identityRules,
	[]Rule{
		r(form.FieldJob, "job", Text),
		r(form.FieldPhoneNumber, "phone_number", Digits),
		r(form.FieldPhoneCompany, "phone_company", Text),
		r(form.FieldSecondPhone, "second_phone_number", Digits),
		r(form.FieldHasCriminalRecord, "has_criminal_record", Flag),
	},
	gated(form.FieldHasCriminalRecord,
		r(form.FieldCaseDetails, "case_details", Text),
		r(form.FieldPoliceStation, "police_station", Text),
		r(form.FieldCaseNumber, "case_number", Text),
		r(form.FieldJudgment, "judgment", Text),
	),
	[]Rule{r(form.FieldHasVehicle, "has_vehicle", Flag)},
	gated(form.FieldHasVehicle,
		r(form.FieldVehicleModel, "vehicle_model", Text),
		r(form.FieldVehicleColor, "vehicle_color", Text),
		r(form.FieldLicensePlate, "vehicle_plate_number", Text),
	),
	[]Rule{r(form.FieldHasTravel, "has_travel", Flag)},
	gated(form.FieldHasTravel,
		r(form.FieldTravelDate, "travel_date", Date),
		r(form.FieldTravelDestination, "travel_destination", Text),
		r(form.FieldReturnDate, "return_date", Date),
	),
	[]Rule{
		r(form.FieldLastSeenTime, "last_seen_time", Text),
		r(form.FieldLastSeenLocation, "area_of_disappearance", Text),
		r(form.FieldLastSeenClothes, "last_clothes", Text),
		r(form.FieldPhysicalDesc, "physical_description", Text),
	},
)

var childRules = join(
	identityRules,
	[]Rule{
		r(form.FieldGuardianName, "reporter_name", Text),
		r(form.FieldGuardianPhone, "reporter_phone", Digits),
		r(form.FieldGuardianNationalID, "reporter_national_id", Digits),
		r(form.FieldRelationship, "relationship", Text),
		r(form.FieldLastSeenLocation, "area_of_disappearance", Text),
		r(form.FieldDisappearanceDate, "last_seen_time", Date),
		r(form.FieldLastSeenClothes, "last_clothes", Text),
		r(form.FieldPhysicalDesc, "physical_description", Text),
		r(form.FieldPoliceReportNumber, "police_report_number", Text),
		r(form.FieldPoliceReportDate, "police_report_date", Date),
		r(form.FieldPoliceStation, "police_station", Text),
	},
)

var disabledRules = join(
	identityRules,
	[]Rule{
		r(form.FieldDisabilityType, "disability_type", Text),
		r(form.FieldDisabilityDesc, "disability_description", Text),
		r(form.FieldMedicalCondition, "medical_condition", Text),
		r(form.FieldMedications, "medications", Text),
		r(form.FieldDoctorName, "doctor_name", Text),
		r(form.FieldGuardianName, "reporter_name", Text),
		r(form.FieldGuardianPhone, "reporter_phone", Digits),
		r(form.FieldRelationship, "relationship", Text),
		r(form.FieldLastSeenLocation, "area_of_disappearance", Text),
		r(form.FieldDisappearanceDate, "last_seen_time", Date),
		r(form.FieldLastSeenClothes, "last_clothes", Text),
	},
)

// Rules returns the mapping table for a category.
func Rules(category domain.Category) []Rule {
	switch category {
	case domain.CategoryMan, domain.CategoryWoman:
		return adultRules
	case domain.CategoryChild:
		return childRules
	case domain.CategoryDisabled:
		return disabledRules
	default:
		return nil
	}
}

// Denylist keys never reach the JSON blob; the backend assigns them.
var Denylist = []string{"unique_id", "request_id", "id", "created_at", "updated_at"}

// BlobKey is the multipart field carrying the JSON record.
func BlobKey(category domain.Category) string {
	if category == domain.CategoryChild {
		return "child_data"
	}
	return "user_data"
}
