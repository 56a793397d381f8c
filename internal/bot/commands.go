package bot

import "strings"

// Command is a recognized bare command, matched on the whole message so
// "meeting today at 3" never collides with the "today" command.
type Command int

const (
	CmdNone Command = iota
	CmdGreeting
	CmdHelp
	CmdToday
	CmdUpcoming
	CmdConnect
	CmdStatus
	CmdCancel
	CmdSwitchEnglish
	CmdSwitchHebrew
)

var commandWords = map[string]Command{
	"hi":    CmdGreeting,
	"hello": CmdGreeting,
	"hey":   CmdGreeting,
	"start": CmdGreeting,
	"שלום":  CmdGreeting,
	"היי":   CmdGreeting,

	"help": CmdHelp,
	"עזרה": CmdHelp,

	"today": CmdToday,
	"היום":  CmdToday,

	"upcoming": CmdUpcoming,
	"week":     CmdUpcoming,
	"קרוב":     CmdUpcoming,
	"השבוע":    CmdUpcoming,

	"connect": CmdConnect,
	"התחבר":   CmdConnect,

	"status": CmdStatus,
	"סטטוס":  CmdStatus,

	"cancel": CmdCancel,
	"בטל":    CmdCancel,
	"ביטול":  CmdCancel,

	"switch to english": CmdSwitchEnglish,
	"עבור לאנגלית":      CmdSwitchEnglish,
	"english":           CmdSwitchEnglish,

	"switch to hebrew": CmdSwitchHebrew,
	"עבור לעברית":      CmdSwitchHebrew,
	"hebrew":           CmdSwitchHebrew,
	"עברית":            CmdSwitchHebrew,
}

// ParseCommand matches the trimmed, lowercased message against the
// command vocabulary. Anything else is CmdNone.
func ParseCommand(text string) Command {
	normalized := strings.ToLower(strings.TrimSpace(text))
	normalized = strings.Trim(normalized, ".!?")
	if cmd, ok := commandWords[normalized]; ok {
		return cmd
	}
	return CmdNone
}
