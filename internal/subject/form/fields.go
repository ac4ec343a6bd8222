package form

import "regdesk/pkg/domain"

// Field names shared across categories.
const (
	FieldName               = "name"
	FieldFullName           = "full_name"
	FieldNationalID         = "national_id"
	FieldDOB                = "dob"
	FieldAge                = "age"
	FieldGender             = "gender"
	FieldAddress            = "address"
	FieldJob                = "job"
	FieldPhoneNumber        = "phone_number"
	FieldPhoneCompany       = "phone_company"
	FieldSecondPhone        = "second_phone_number"
	FieldHasCriminalRecord  = "has_criminal_record"
	FieldCaseDetails        = "case_details"
	FieldPoliceStation      = "police_station"
	FieldCaseNumber         = "case_number"
	FieldJudgment           = "judgment"
	FieldHasVehicle         = "has_vehicle"
	FieldVehicleModel       = "vehicle_model"
	FieldVehicleColor       = "vehicle_color"
	FieldLicensePlate       = "license_plate"
	FieldHasTravel          = "has_travel"
	FieldTravelDate         = "travel_date"
	FieldTravelDestination  = "travel_destination"
	FieldReturnDate         = "return_date"
	FieldLastSeenTime       = "last_seen_time"
	FieldLastSeenLocation   = "last_seen_location"
	FieldLastSeenClothes    = "last_seen_clothes"
	FieldPhysicalDesc       = "physical_description"
	FieldGuardianName       = "guardian_name"
	FieldGuardianPhone      = "guardian_phone"
	FieldGuardianNationalID = "guardian_national_id"
	FieldRelationship       = "relationship"
	FieldDisappearanceDate  = "disappearance_date"
	FieldPoliceReportNumber = "police_report_number"
	FieldPoliceReportDate   = "police_report_date"
	FieldDisabilityType     = "disability_type"
	FieldDisabilityDesc     = "disability_description"
	FieldMedical            = "medical"
	FieldMedicalCondition   = "medical.condition"
	FieldMedications        = "medical.medications"
	FieldDoctorName         = "medical.doctor_name"
)

// Flags are the boolean toggles that enable optional wizard sections.
var Flags = []string{FieldHasCriminalRecord, FieldHasVehicle, FieldHasTravel}

var identity = []string{
	FieldName, FieldFullName, FieldNationalID, FieldDOB, FieldAge, FieldGender, FieldAddress,
}

var adultFields = []string{
	FieldJob, FieldPhoneNumber, FieldPhoneCompany, FieldSecondPhone,
	FieldCaseDetails, FieldPoliceStation, FieldCaseNumber, FieldJudgment,
	FieldVehicleModel, FieldVehicleColor, FieldLicensePlate,
	FieldTravelDate, FieldTravelDestination, FieldReturnDate,
	FieldLastSeenTime, FieldLastSeenLocation, FieldLastSeenClothes, FieldPhysicalDesc,
}

var childFields = []string{
	FieldGuardianName, FieldGuardianPhone, FieldGuardianNationalID, FieldRelationship,
	FieldLastSeenLocation, FieldDisappearanceDate, FieldLastSeenClothes, FieldPhysicalDesc,
	FieldPoliceReportNumber, FieldPoliceReportDate, FieldPoliceStation,
}

var disabledFields = []string{
	FieldDisabilityType, FieldDisabilityDesc,
	FieldGuardianName, FieldGuardianPhone, FieldRelationship,
	FieldLastSeenLocation, FieldDisappearanceDate, FieldLastSeenClothes,
}

var medicalFields = []string{"condition", "medications", "doctor_name"}

// InitialData returns a fresh record for the category: every UI field present,
// strings empty and flags false.
func InitialData(category domain.Category) Record {
	r := Record{}
	for _, f := range identity {
		r[f] = ""
	}
	switch category {
	case domain.CategoryMan, domain.CategoryWoman:
		for _, f := range adultFields {
			r[f] = ""
		}
		for _, f := range Flags {
			r[f] = false
		}
		if category == domain.CategoryMan {
			r[FieldGender] = "male"
		} else {
			r[FieldGender] = "female"
		}
	case domain.CategoryChild:
		for _, f := range childFields {
			r[f] = ""
		}
	case domain.CategoryDisabled:
		for _, f := range disabledFields {
			r[f] = ""
		}
		medical := map[string]any{}
		for _, f := range medicalFields {
			medical[f] = ""
		}
		r[FieldMedical] = medical
	}
	return r
}

// IsFlag reports whether field is a boolean toggle.
func IsFlag(field string) bool {
	for _, f := range Flags {
		if f == field {
			return true
		}
	}
	return false
}
