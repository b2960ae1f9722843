package nlp

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Rule pairs an intent with its trigger pattern and entity extractor.
// The extractor may reject a syntactic match (ok=false), in which case
// evaluation falls through to the next rule.
type Rule struct {
	Intent  Intent
	Pattern *regexp.Regexp
	extract func(groups map[string]string, raw string, now time.Time) (Entities, bool)
}

// DefaultRules returns the pt-BR rule set in priority order. Order is a
// contract, not an accident: list_tasks and list_reminders must be tried
// before add_task, or "minhas tarefas de hoje" would match the bare "tarefa"
// trigger and be classified as a creation request. Keep the tested ordering
// when editing.
func DefaultRules() []Rule {
	return []Rule{
		{
			Intent:  IntentListTasks,
			Pattern: regexp.MustCompile(`(?i)(quais minhas tarefas|minhas tarefas|listar tarefas|ver tarefas)(?:\s+(?:de|para)\s+(?P<date>hoje|amanhã))?`),
			extract: extractDateFilter,
		},
		{
			Intent:  IntentListReminders,
			Pattern: regexp.MustCompile(`(?i)(quais meus lembretes|meus lembretes|ver lembretes|lembretes de hoje|consultar lembretes)(?:\s+(?:de|para)\s+(?P<date>hoje|amanhã))?`),
			extract: extractDateFilter,
		},
		{
			Intent:  IntentCompleteTask,
			Pattern: regexp.MustCompile(`(?i)(marcar tarefa|concluir tarefa|tarefa concluída|finalizar tarefa)[:\s]*(?P<id>\d+)(?:\s+como concluída)?`),
			extract: extractTaskID,
		},
		// add_task last among the task intents so its generic "tarefa"
		// trigger never shadows the listing phrases above.
		{
			Intent:  IntentAddTask,
			Pattern: regexp.MustCompile(`(?i)(lembrar de|adicionar tarefa|anotar|lembrete|tarefa)[:\s]*(?P<desc>.+?)(?:\s+(?:(?:para|em|no dia)\s+)?(?P<date>amanhã|hoje|\d{1,2}[-/]\d{1,2}(?:[-/]\d{2,4})?))?(?:\s+(?:(?:às|as|@)\s+)?(?P<time>\d{1,2}(?:[:hH]\d{2}|[hH])?))?$`),
			extract: extractTask,
		},
		// The opt-in patterns hand-roll word boundaries: \b in RE2 is
		// ASCII-only, so the single-letter answers "s" and "n" would also
		// match inside accented words ("Só", "número"). A neighbor must be
		// a non-letter, non-digit rune or the string edge.
		{
			Intent:  IntentOptInYes,
			Pattern: regexp.MustCompile(`(?i)(?:^|[^\p{L}\p{N}])(sim|s|aceito|concordo)(?:$|[^\p{L}\p{N}])`),
			extract: extractNothing,
		},
		{
			Intent:  IntentOptInNo,
			Pattern: regexp.MustCompile(`(?i)(?:^|[^\p{L}\p{N}])(não|nao|n|recuso|negar)(?:$|[^\p{L}\p{N}])`),
			extract: extractNothing,
		},
		{
			Intent:  IntentHelp,
			Pattern: regexp.MustCompile(`(?i)\b(ajuda|comandos|o que você faz\??)\b`),
			extract: extractNothing,
		},
	}
}

func extractNothing(map[string]string, string, time.Time) (Entities, bool) {
	return Entities{}, true
}

func extractDateFilter(groups map[string]string, _ string, _ time.Time) (Entities, bool) {
	filter := strings.ToLower(groups["date"])
	if filter == "" {
		filter = DateFilterAll
	}
	return Entities{DateFilter: filter}, true
}

func extractTaskID(groups map[string]string, _ string, _ time.Time) (Entities, bool) {
	id, err := strconv.ParseInt(groups["id"], 10, 64)
	if err != nil {
		// Not a usable task number; let later rules have a go.
		return Entities{}, false
	}
	return Entities{TaskID: id}, true
}

func extractTask(groups map[string]string, _ string, now time.Time) (Entities, bool) {
	desc := strings.TrimSpace(groups["desc"])
	// Due timestamp is always resolved, even with both tokens absent, so
	// every add_task carries a concrete default of today at 09:00.
	return Entities{
		Description: desc,
		Due:         Resolve(groups["date"], groups["time"], now),
	}, true
}
