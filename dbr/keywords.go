package dbr

import (
	"strings"

	"github.com/warp/overtime-engine/overtime"
)

// absenceKeywords maps activity label fragments to absence types. Checked
// in order; the first match wins.
var absenceKeywords = []struct {
	absence  overtime.AbsenceType
	keywords []string
}{
	{overtime.AbsenceSick, []string{"barns sygedag", "sygdom", "syg", "sick"}},
	{overtime.AbsenceVacation, []string{"ferie", "vacation", "afspadsering", "fridag"}},
	{overtime.AbsencePublicHoliday, []string{
		"helligdag", "holiday", "juledag", "nytårsdag", "påske", "pinse",
		"store bededag", "kr. himmelfartsdag", "grundlovsdag",
	}},
	{overtime.AbsenceCourse, []string{"kursus", "course", "uddannelse", "skoleophold"}},
}

// DetectAbsence recognizes time registrations that record an absence
// rather than work, such as "Ferie" or "Barns sygedag".
func DetectAbsence(activity string) (overtime.AbsenceType, bool) {
	label := strings.ToLower(strings.TrimSpace(activity))
	if label == "" {
		return overtime.AbsenceUnset, false
	}
	for _, group := range absenceKeywords {
		for _, kw := range group.keywords {
			if strings.Contains(label, kw) {
				return group.absence, true
			}
		}
	}
	return overtime.AbsenceUnset, false
}
