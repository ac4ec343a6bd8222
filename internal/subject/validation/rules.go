package validation

import (
	"time"
	"unicode/utf8"

	"regdesk/internal/subject/form"
	"regdesk/internal/subject/i18n"
)

// TelecomCompanies are the carriers an adult contact section accepts.
var TelecomCompanies = []string{"Vodafone", "Orange", "Etisalat", "WE"}

const (
	nationalIDDigits = 14
	phoneDigits      = 11
	adultAge         = 18
)

type section struct {
	key  string
	rule func(c *check)
}

var adultSections = []section{
	{"personal", adultPersonal},
	{"contact", contact},
	{"criminal_record", criminalRecord},
	{"vehicle", vehicle},
	{"travel", travel},
	{"disappearance", adultDisappearance},
	{"image", imageRule},
}

var childSections = []section{
	{"child", childPersonal},
	{"guardian", childGuardian},
	{"disappearance", childDisappearance},
	{"police_report", policeReport},
	{"image", imageRule},
}

var disabledSections = []section{
	{"personal", disabledPersonal},
	{"disability", disability},
	{"guardian", disabledGuardian},
	{"disappearance", optionalDisappearance},
	{"image", imageRule},
}

func adultPersonal(c *check) {
	c.name()
	if !digitsExactly(c.f.String(form.FieldNationalID), nationalIDDigits) {
		c.add(i18n.MsgNationalIDInvalid)
	}
	dob, ok := c.requiredDate(form.FieldDOB, i18n.MsgDOBRequired, i18n.MsgDOBFuture)
	if ok && form.Age(dob, c.now) < adultAge {
		c.add(i18n.MsgAgeMinimum)
	}
}

func contact(c *check) {
	if !digitsExactly(c.f.String(form.FieldPhoneNumber), phoneDigits) {
		c.add(i18n.MsgPhoneInvalid)
	}
	if !oneOf(c.f.String(form.FieldPhoneCompany), TelecomCompanies) {
		c.add(i18n.MsgPhoneCompanyRequired)
	}
	if second := c.f.String(form.FieldSecondPhone); second != "" && !digitsExactly(second, phoneDigits) {
		c.add(i18n.MsgSecondPhoneInvalid)
	}
}

func criminalRecord(c *check) {
	if !c.f.Bool(form.FieldHasCriminalRecord) {
		return
	}
	c.required(form.FieldCaseDetails, i18n.MsgCaseDetailsRequired)
	c.required(form.FieldPoliceStation, i18n.MsgPoliceStationRequired)
}

func vehicle(c *check) {
	if !c.f.Bool(form.FieldHasVehicle) {
		return
	}
	c.required(form.FieldVehicleModel, i18n.MsgVehicleModelRequired)
	c.required(form.FieldLicensePlate, i18n.MsgLicensePlateRequired)
}

func travel(c *check) {
	if !c.f.Bool(form.FieldHasTravel) {
		return
	}
	departure, hasDeparture := c.requiredDate(form.FieldTravelDate, i18n.MsgTravelDateRequired, "")
	c.required(form.FieldTravelDestination, i18n.MsgDestinationRequired)
	if ret, ok := c.optionalDate(form.FieldReturnDate, ""); ok && hasDeparture && ret.Before(departure) {
		c.add(i18n.MsgReturnBeforeDeparture)
	}
}

func adultDisappearance(c *check) {
	c.optionalDate(form.FieldLastSeenTime, i18n.MsgLastSeenFuture)
}

func childPersonal(c *check) {
	c.name()
	if id := c.f.String(form.FieldNationalID); id != "" && !digitsExactly(id, nationalIDDigits) {
		c.add(i18n.MsgNationalIDInvalid)
	}
	dob, ok := c.requiredDate(form.FieldDOB, i18n.MsgDOBRequired, i18n.MsgDOBFuture)
	if ok && form.Age(dob, c.now) >= adultAge {
		c.add(i18n.MsgAgeChild)
	}
}

func childGuardian(c *check) {
	guardianName(c)
	if !digitsExactly(c.f.String(form.FieldGuardianPhone), phoneDigits) {
		c.add(i18n.MsgGuardianPhoneInvalid)
	}
	if !digitsExactly(c.f.String(form.FieldGuardianNationalID), nationalIDDigits) {
		c.add(i18n.MsgGuardianIDInvalid)
	}
	c.required(form.FieldRelationship, i18n.MsgRelationshipRequired)
}

func childDisappearance(c *check) {
	c.required(form.FieldLastSeenLocation, i18n.MsgDisappearanceLocation)
	c.requiredDate(form.FieldDisappearanceDate, i18n.MsgDisappearanceDateRequired, i18n.MsgDisappearanceDateFuture)
}

func policeReport(c *check) {
	c.optionalDate(form.FieldPoliceReportDate, i18n.MsgPoliceReportFuture)
}

func disabledPersonal(c *check) {
	c.name()
	if !digitsExactly(c.f.String(form.FieldNationalID), nationalIDDigits) {
		c.add(i18n.MsgNationalIDInvalid)
	}
	c.requiredDate(form.FieldDOB, i18n.MsgDOBRequired, i18n.MsgDOBFuture)
}

func disability(c *check) {
	c.required(form.FieldDisabilityType, i18n.MsgDisabilityTypeRequired)
}

func disabledGuardian(c *check) {
	guardianName(c)
	if !digitsExactly(c.f.String(form.FieldGuardianPhone), phoneDigits) {
		c.add(i18n.MsgGuardianPhoneInvalid)
	}
	c.required(form.FieldRelationship, i18n.MsgRelationshipRequired)
}

func optionalDisappearance(c *check) {
	c.optionalDate(form.FieldDisappearanceDate, i18n.MsgDisappearanceDateFuture)
}

func guardianName(c *check) {
	if utf8.RuneCountInString(c.f.String(form.FieldGuardianName)) < 2 {
		c.add(i18n.MsgGuardianNameRequired)
	}
}

func imageRule(c *check) {
	if c.img == nil || c.img.Size() == 0 {
		c.add(i18n.MsgImageRequired)
		return
	}
	if c.maxBytes > 0 && c.img.Size() > c.maxBytes {
		c.add(i18n.MsgImageTooLarge, c.maxBytes>>20)
	}
	if !c.img.IsAllowedType() {
		c.add(i18n.MsgImageType)
	}
}

// parseDate accepts date inputs and datetime-local inputs.
func parseDate(s string) (time.Time, bool) {
	if t, ok := form.ParseDate(s); ok {
		return t, true
	}
	for _, layout := range []string{"2006-01-02T15:04", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
