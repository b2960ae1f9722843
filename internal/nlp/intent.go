// Package nlp turns raw message text into a structured intent plus the
// entities that intent needs. Resolution is deterministic pattern matching
// over an ordered rule list; there is no statistical model behind it.
package nlp

// Intent represents the classified purpose of a message.
type Intent string

const (
	IntentAddTask        Intent = "add_task"
	IntentClarifyAddTask Intent = "clarify_add_task"
	IntentListTasks      Intent = "list_tasks"
	IntentListReminders  Intent = "list_reminders"
	IntentCompleteTask   Intent = "complete_task"
	IntentOptInYes       Intent = "opt_in_yes"
	IntentOptInNo        Intent = "opt_in_no"
	IntentHelp           Intent = "help"
	IntentUnknown        Intent = "unknown"
)

// DateFilterAll is the filter value for list intents when no date token was
// present. It is distinct from "hoje": absence means "everything".
const DateFilterAll = "all"

// Entities carries the values extracted for an intent. Only the fields the
// intent requires are populated.
type Entities struct {
	// Description is the task text with trailing date/time tokens stripped
	// (add_task).
	Description string
	// Due is the resolved due timestamp (add_task). Always set for
	// add_task, defaulting to today at 09:00 when no tokens were present.
	Due Resolved
	// DateFilter is "hoje", "amanhã" or DateFilterAll (list intents).
	DateFilter string
	// TaskID is the referenced task number (complete_task).
	TaskID int64
	// OriginalText is the raw message (unknown).
	OriginalText string
}

// Result is the outcome of classifying one message: exactly one intent and
// its entities.
type Result struct {
	Intent   Intent
	Entities Entities
}

// Description returns a human-readable description of the intent.
func (i Intent) Description() string {
	switch i {
	case IntentAddTask:
		return "Add task"
	case IntentClarifyAddTask:
		return "Clarify task description"
	case IntentListTasks:
		return "List tasks"
	case IntentListReminders:
		return "List reminders"
	case IntentCompleteTask:
		return "Complete task"
	case IntentOptInYes:
		return "Opt-in accepted"
	case IntentOptInNo:
		return "Opt-in declined"
	case IntentHelp:
		return "Help"
	default:
		return "Unknown"
	}
}
