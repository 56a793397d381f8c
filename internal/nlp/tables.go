package nlp

// Pattern tables for the bilingual extractors. All lists are ordered and
// matched first-wins, so priority lives in the table, not the call sites.

// abbreviations maps shorthand tokens to their expanded form. Matching is
// token-bounded so expansion is idempotent.
var abbreviations = []struct {
	abbrev string
	full   string
}{
	{"tmrw", "tomorrow"},
	{"tom", "tomorrow"},
	{"tomorow", "tomorrow"},
	{"mins", "minutes"},
	{"hrs", "hours"},
	{"hr", "hour"},
	{"w/", "with"},
	{"mtg", "meeting"},
	{"appt", "appointment"},
}

// hebrewDays maps Hebrew day tokens to a relative-day offset or weekday.
// Ordered so the longer "מחרתיים" wins over its prefix "מחר".
var hebrewDays = []struct {
	token   string
	english string
}{
	{"היום", "today"},
	{"מחרתיים", "day after tomorrow"},
	{"מחר", "tomorrow"},
	{"יום ראשון", "sunday"},
	{"יום שני", "monday"},
	{"יום שלישי", "tuesday"},
	{"יום רביעי", "wednesday"},
	{"יום חמישי", "thursday"},
	{"יום שישי", "friday"},
	{"יום שבת", "saturday"},
	{"ראשון", "sunday"},
	{"שני", "monday"},
	{"שלישי", "tuesday"},
	{"רביעי", "wednesday"},
	{"חמישי", "thursday"},
	{"שישי", "friday"},
	{"שבת", "saturday"},
}

// dateVocab is the generic date vocabulary in priority order. First phrase
// contained in the text wins, regardless of position.
var dateVocab = []string{
	"tomorrow", "today", "tonight",
	"next monday", "next tuesday", "next wednesday", "next thursday",
	"next friday", "next saturday", "next sunday",
	"this monday", "this tuesday", "this wednesday", "this thursday",
	"this friday", "this saturday", "this sunday",
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
}

// eventKeywords groups bilingual keywords by event category. Categories feed
// both title extraction and default-duration selection.
var eventKeywords = map[string][]string{
	"meeting":     {"meeting", "meet", "call", "conference", "discussion", "פגישה", "פגש"},
	"appointment": {"appointment", "visit", "checkup", "session", "תור"},
	"social":      {"lunch", "dinner", "coffee", "drink", "party", "event", "ארוחה", "קפה"},
	"work":        {"standup", "review", "interview", "presentation", "demo", "עבודה"},
	"personal":    {"workout", "gym", "doctor", "dentist", "haircut", "רופא", "רופאה", "אימון"},
}

// titleSkipWords are dropped by the fallback title strategy.
var titleSkipWords = map[string]bool{
	"schedule": true, "add": true, "create": true, "set": true, "up": true,
	"book": true, "plan": true, "have": true, "a": true, "an": true, "the": true,
}

// contextFunctionWords are dropped from keyword-context title windows.
var contextFunctionWords = map[string]bool{
	"on": true, "at": true, "for": true, "with": true,
	"a": true, "an": true, "the": true, "and": true,
	"עם": true, "ב": true, "ו": true,
}

// timeWords flag a token as a time expression.
var timeWords = []string{
	"am", "pm", "morning", "afternoon", "evening", "tonight",
	"hour", "minute", "o'clock", "בשעה", "שעה",
}

// dateWords flag a whole token as date-related.
var dateWords = map[string]bool{
	"today": true, "tomorrow": true, "yesterday": true,
	"monday": true, "tuesday": true, "wednesday": true, "thursday": true,
	"friday": true, "saturday": true, "sunday": true,
	"next": true, "this": true, "last": true,
	"היום": true, "מחר": true, "מחרתיים": true,
	"ראשון": true, "שני": true, "שלישי": true, "רביעי": true,
	"חמישי": true, "שישי": true, "שבת": true,
}

// actionWords boost confidence when present in the original message.
var actionWords = []string{
	"schedule", "add", "create", "meeting", "appointment", "פגישה", "תור",
}

var weekdayNames = map[string]int{
	"sunday": 0, "monday": 1, "tuesday": 2, "wednesday": 3,
	"thursday": 4, "friday": 5, "saturday": 6,
}
