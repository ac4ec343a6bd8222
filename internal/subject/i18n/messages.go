package i18n

// Message keys. Validation messages are returned to the wizard verbatim;
// label keys back the read-only record views.
const (
	MsgNameRequired              = "validation.name_required"
	MsgNameTooShort              = "validation.name_too_short"
	MsgNationalIDInvalid         = "validation.national_id_invalid"
	MsgDOBRequired               = "validation.dob_required"
	MsgDateInvalid               = "validation.date_invalid"
	MsgDOBFuture                 = "validation.dob_future"
	MsgAgeMinimum                = "validation.age_minimum"
	MsgAgeChild                  = "validation.age_child"
	MsgPhoneInvalid              = "validation.phone_invalid"
	MsgPhoneCompanyRequired      = "validation.phone_company_required"
	MsgSecondPhoneInvalid        = "validation.second_phone_invalid"
	MsgCaseDetailsRequired       = "validation.case_details_required"
	MsgPoliceStationRequired     = "validation.police_station_required"
	MsgVehicleModelRequired      = "validation.vehicle_model_required"
	MsgLicensePlateRequired      = "validation.license_plate_required"
	MsgTravelDateRequired        = "validation.travel_date_required"
	MsgDestinationRequired       = "validation.destination_required"
	MsgReturnBeforeDeparture     = "validation.return_before_departure"
	MsgLastSeenFuture            = "validation.last_seen_future"
	MsgDisappearanceLocation     = "validation.disappearance_location_required"
	MsgDisappearanceDateRequired = "validation.disappearance_date_required"
	MsgDisappearanceDateFuture   = "validation.disappearance_date_future"
	MsgPoliceReportFuture        = "validation.police_report_future"
	MsgGuardianNameRequired      = "validation.guardian_name_required"
	MsgGuardianPhoneInvalid      = "validation.guardian_phone_invalid"
	MsgGuardianIDInvalid         = "validation.guardian_national_id_invalid"
	MsgRelationshipRequired      = "validation.relationship_required"
	MsgDisabilityTypeRequired    = "validation.disability_type_required"
	MsgImageRequired             = "validation.image_required"
	MsgImageTooLarge             = "validation.image_too_large"
	MsgImageType                 = "validation.image_type"
	MsgUnknownSection            = "validation.unknown_section"

	MsgFaceAngle          = "error.face_angle"
	MsgRegisterFailed     = "error.register_failed"
	MsgBackendUnavailable = "error.backend_unavailable"
	MsgSubjectNotFound    = "error.subject_not_found"

	MsgRedacted = "display.redacted"
	MsgYes      = "display.yes"
	MsgNo       = "display.no"
)

type entry struct {
	en string
	ar string
}

var messages = map[string]entry{
	MsgNameRequired:              {"Name is required", "الاسم مطلوب"},
	MsgNameTooShort:              {"Name must be at least 2 characters", "يجب أن يتكون الاسم من حرفين على الأقل"},
	MsgNationalIDInvalid:         {"National ID must be exactly 14 digits", "يجب أن يتكون الرقم القومي من 14 رقمًا بالضبط"},
	MsgDOBRequired:               {"Date of birth is required", "تاريخ الميلاد مطلوب"},
	MsgDateInvalid:               {"Dates must be entered as YYYY-MM-DD", "يجب إدخال التواريخ بالصيغة YYYY-MM-DD"},
	MsgDOBFuture:                 {"Date of birth cannot be in the future", "لا يمكن أن يكون تاريخ الميلاد في المستقبل"},
	MsgAgeMinimum:                {"Age must be at least 18 years", "يجب ألا يقل العمر عن 18 عامًا"},
	MsgAgeChild:                  {"A child must be younger than 18 years", "يجب أن يكون عمر الطفل أقل من 18 عامًا"},
	MsgPhoneInvalid:              {"Phone number must be exactly 11 digits", "يجب أن يتكون رقم الهاتف من 11 رقمًا بالضبط"},
	MsgPhoneCompanyRequired:      {"Please select a telecom company", "يرجى اختيار شركة الاتصالات"},
	MsgSecondPhoneInvalid:        {"Second phone number must be exactly 11 digits", "يجب أن يتكون رقم الهاتف الثاني من 11 رقمًا بالضبط"},
	MsgCaseDetailsRequired:       {"Case details are required", "تفاصيل القضية مطلوبة"},
	MsgPoliceStationRequired:     {"Police station is required", "قسم الشرطة مطلوب"},
	MsgVehicleModelRequired:      {"Vehicle model is required", "طراز المركبة مطلوب"},
	MsgLicensePlateRequired:      {"License plate is required", "رقم اللوحة مطلوب"},
	MsgTravelDateRequired:        {"Travel date is required", "تاريخ السفر مطلوب"},
	MsgDestinationRequired:       {"Travel destination is required", "وجهة السفر مطلوبة"},
	MsgReturnBeforeDeparture:     {"Return date cannot be before the travel date", "لا يمكن أن يكون تاريخ العودة قبل تاريخ السفر"},
	MsgLastSeenFuture:            {"Last seen date cannot be in the future", "لا يمكن أن يكون تاريخ آخر مشاهدة في المستقبل"},
	MsgDisappearanceLocation:     {"Place of disappearance is required", "مكان الاختفاء مطلوب"},
	MsgDisappearanceDateRequired: {"Date of disappearance is required", "تاريخ الاختفاء مطلوب"},
	MsgDisappearanceDateFuture:   {"Date of disappearance cannot be in the future", "لا يمكن أن يكون تاريخ الاختفاء في المستقبل"},
	MsgPoliceReportFuture:        {"Police report date cannot be in the future", "لا يمكن أن يكون تاريخ المحضر في المستقبل"},
	MsgGuardianNameRequired:      {"Guardian name is required", "اسم ولي الأمر مطلوب"},
	MsgGuardianPhoneInvalid:      {"Guardian phone number must be exactly 11 digits", "يجب أن يتكون رقم هاتف ولي الأمر من 11 رقمًا بالضبط"},
	MsgGuardianIDInvalid:         {"Guardian national ID must be exactly 14 digits", "يجب أن يتكون الرقم القومي لولي الأمر من 14 رقمًا بالضبط"},
	MsgRelationshipRequired:      {"Relationship to the subject is required", "صلة القرابة مطلوبة"},
	MsgDisabilityTypeRequired:    {"Disability type is required", "نوع الإعاقة مطلوب"},
	MsgImageRequired:             {"Please upload or capture a photo", "يرجى رفع صورة أو التقاطها"},
	MsgImageTooLarge:             {"Image must be %d MB or smaller", "يجب ألا يتجاوز حجم الصورة %d ميجابايت"},
	MsgImageType:                 {"Image must be a JPEG or PNG file", "يجب أن تكون الصورة بصيغة JPEG أو PNG"},
	MsgUnknownSection:            {"Unknown form section %d", "قسم غير معروف في النموذج %d"},

	MsgFaceAngle:          {"The face must look straight at the camera. Please retake the photo.", "يجب أن يكون الوجه مواجهًا للكاميرا. يرجى إعادة التقاط الصورة."},
	MsgRegisterFailed:     {"Registration failed. Please try again.", "فشل التسجيل. يرجى المحاولة مرة أخرى."},
	MsgBackendUnavailable: {"The registry service is unavailable. Please try again later.", "خدمة السجل غير متاحة حاليًا. يرجى المحاولة لاحقًا."},
	MsgSubjectNotFound:    {"Record not found", "السجل غير موجود"},

	MsgRedacted: {"Hidden", "مخفي"},
	MsgYes:      {"Yes", "نعم"},
	MsgNo:       {"No", "لا"},

	"label.name":                   {"Full name", "الاسم الكامل"},
	"label.national_id":            {"National ID", "الرقم القومي"},
	"label.dob":                    {"Date of birth", "تاريخ الميلاد"},
	"label.age":                    {"Age", "العمر"},
	"label.gender":                 {"Gender", "النوع"},
	"label.address":                {"Address", "العنوان"},
	"label.phone_number":           {"Phone number", "رقم الهاتف"},
	"label.phone_company":          {"Telecom company", "شركة الاتصالات"},
	"label.second_phone_number":    {"Second phone number", "رقم الهاتف الثاني"},
	"label.job":                    {"Occupation", "المهنة"},
	"label.has_criminal_record":    {"Criminal record", "سجل جنائي"},
	"label.case_details":           {"Case details", "تفاصيل القضية"},
	"label.police_station":         {"Police station", "قسم الشرطة"},
	"label.case_number":            {"Case number", "رقم القضية"},
	"label.judgment":               {"Judgment", "الحكم"},
	"label.has_vehicle":            {"Vehicle", "مركبة"},
	"label.vehicle_model":          {"Vehicle model", "طراز المركبة"},
	"label.vehicle_color":          {"Vehicle color", "لون المركبة"},
	"label.vehicle_plate_number":   {"License plate", "رقم اللوحة"},
	"label.has_travel":             {"Travel", "سفر"},
	"label.travel_date":            {"Travel date", "تاريخ السفر"},
	"label.travel_destination":     {"Destination", "جهة السفر"},
	"label.return_date":            {"Return date", "تاريخ العودة"},
	"label.last_seen_time":         {"Last seen", "آخر مشاهدة"},
	"label.area_of_disappearance":  {"Place of disappearance", "مكان الاختفاء"},
	"label.last_clothes":           {"Last seen wearing", "آخر ملابس"},
	"label.physical_description":   {"Physical description", "الوصف الجسدي"},
	"label.reporter_name":          {"Reporter name", "اسم المبلغ"},
	"label.reporter_phone":         {"Reporter phone", "هاتف المبلغ"},
	"label.reporter_national_id":   {"Reporter national ID", "الرقم القومي للمبلغ"},
	"label.relationship":           {"Relationship", "صلة القرابة"},
	"label.disappearance_date":     {"Date of disappearance", "تاريخ الاختفاء"},
	"label.police_report_number":   {"Police report number", "رقم المحضر"},
	"label.police_report_date":     {"Police report date", "تاريخ المحضر"},
	"label.disability_type":        {"Disability type", "نوع الإعاقة"},
	"label.disability_description": {"Disability description", "وصف الإعاقة"},
	"label.medical_condition":      {"Medical condition", "الحالة الطبية"},
	"label.medications":            {"Medications", "الأدوية"},
	"label.doctor_name":            {"Doctor", "الطبيب"},
	"label.created_at":             {"Registered on", "تاريخ التسجيل"},
}
