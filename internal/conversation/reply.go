package conversation

import (
	"strconv"
	"strings"
)

// Reply classifies a free-text answer inside a dialogue step.
type Reply int

const (
	ReplyOther Reply = iota
	ReplyYes
	ReplyNo
	ReplyEdit
	ReplyCancel
)

var yesWords = map[string]bool{
	"yes": true, "y": true, "yeah": true, "yep": true, "yup": true,
	"ok": true, "okay": true, "sure": true, "confirm": true,
	"כן": true, "אישור": true, "אשר": true, "בסדר": true,
}

var noWords = map[string]bool{
	"no": true, "n": true, "nope": true,
	"לא": true,
}

var editWords = map[string]bool{
	"edit": true, "change": true, "modify": true,
	"ערוך": true, "עריכה": true, "שנה": true,
}

var cancelWords = map[string]bool{
	"cancel": true, "stop": true, "nevermind": true,
	"בטל": true, "ביטול": true,
}

// ClassifyReply maps an answer to one of the dialogue reply classes.
// Cancel wins over no so "cancel" inside confirm_event discards cleanly.
func ClassifyReply(text string) Reply {
	word := strings.ToLower(strings.TrimSpace(text))
	word = strings.Trim(word, ".!?,")
	switch {
	case cancelWords[word]:
		return ReplyCancel
	case yesWords[word]:
		return ReplyYes
	case noWords[word]:
		return ReplyNo
	case editWords[word]:
		return ReplyEdit
	default:
		return ReplyOther
	}
}

// ParseSelection reads a 1-based numeric choice such as "2" or "2.".
func ParseSelection(text string) (int, bool) {
	trimmed := strings.Trim(strings.TrimSpace(text), ".!)")
	n, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, false
	}
	return n, true
}
