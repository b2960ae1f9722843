package nlp

import (
	"testing"
	"time"
)

func fixedClassifier() *Classifier {
	c := NewClassifier(nil)
	c.now = func() time.Time { return anchor }
	return c
}

func TestClassifyIntents(t *testing.T) {
	c := fixedClassifier()

	tests := []struct {
		name     string
		message  string
		expected Intent
	}{
		// Listing must match before the generic "tarefa" add trigger.
		{"list with date", "minhas tarefas de hoje", IntentListTasks},
		{"list question form", "Quais minhas tarefas de hoje?", IntentListTasks},
		{"list bare", "listar tarefas", IntentListTasks},
		{"list tomorrow", "ver tarefas para amanhã", IntentListTasks},

		{"reminders today", "Quais meus lembretes de hoje?", IntentListReminders},
		{"reminders tomorrow", "ver lembretes para amanhã", IntentListReminders},
		{"reminders bare", "meus lembretes", IntentListReminders},

		{"complete", "marcar tarefa 123 como concluída", IntentCompleteTask},
		{"complete short", "concluir tarefa 7", IntentCompleteTask},

		{"add with date and time", "Lembrar de comprar pão amanhã às 8h", IntentAddTask},
		{"add with slash date", "adicionar tarefa reunião com cliente para 20/12 às 14:30", IntentAddTask},
		{"add colon form", "tarefa: ligar para o João hoje 17H", IntentAddTask},
		{"add bare", "Lembrar de comprar leite", IntentAddTask},
		{"add missing description", "Lembrar de ", IntentClarifyAddTask},

		{"opt in yes", "Sim", IntentOptInYes},
		{"opt in yes accent free", "aceito", IntentOptInYes},
		{"opt in yes embedded", "Quero sim!", IntentOptInYes},
		{"opt in no", "Não quero", IntentOptInNo},
		{"opt in no unaccented", "nao", IntentOptInNo},

		// Single-letter answers must not fire inside accented words.
		{"bare s before accented rune", "Só um momento", IntentUnknown},
		{"bare n inside accented word", "meu número mudou", IntentUnknown},

		{"help", "ajuda", IntentHelp},
		{"help commands", "comandos", IntentHelp},

		{"unknown weather", "Qual o tempo para hoje em diante, será que chove?", IntentUnknown},
		{"unknown empty", "", IntentUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.message)
			if got.Intent != tt.expected {
				t.Errorf("Classify(%q) = %v, want %v", tt.message, got.Intent, tt.expected)
			}
		})
	}
}

func TestClassifyAddTaskEntities(t *testing.T) {
	c := fixedClassifier()

	tests := []struct {
		name     string
		message  string
		wantDesc string
		wantDue  time.Time
	}{
		{
			"strips trailing date and time",
			"Lembrar de comprar leite amanhã às 10h",
			"comprar leite",
			time.Date(2025, 6, 11, 10, 0, 0, 0, time.Local),
		},
		{
			"explicit slash date",
			"adicionar tarefa reunião com cliente para 20/12 às 14:30",
			"reunião com cliente",
			time.Date(2025, 12, 20, 14, 30, 0, 0, time.Local),
		},
		{
			"no tokens defaults to today 09:00",
			"Lembrar de comprar leite",
			"comprar leite",
			time.Date(2025, 6, 10, 9, 0, 0, 0, time.Local),
		},
		{
			"date only defaults time",
			"Lembrar de call com time amanhã",
			"call com time",
			time.Date(2025, 6, 11, 9, 0, 0, 0, time.Local),
		},
		{
			"time only defaults date",
			"Lembrar de apresentação às 15h",
			"apresentação",
			time.Date(2025, 6, 10, 15, 0, 0, 0, time.Local),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.message)
			if got.Intent != IntentAddTask {
				t.Fatalf("Classify(%q) = %v, want add_task", tt.message, got.Intent)
			}
			if got.Entities.Description != tt.wantDesc {
				t.Errorf("description = %q, want %q", got.Entities.Description, tt.wantDesc)
			}
			if !got.Entities.Due.At.Equal(tt.wantDue) {
				t.Errorf("due = %v, want %v", got.Entities.Due.At, tt.wantDue)
			}
		})
	}
}

func TestClassifyListEntities(t *testing.T) {
	c := fixedClassifier()

	tests := []struct {
		message    string
		wantFilter string
	}{
		{"minhas tarefas de hoje", "hoje"},
		{"minhas tarefas para amanhã", "amanhã"},
		// No date token means "all", not "today".
		{"listar tarefas", DateFilterAll},
		{"meus lembretes", DateFilterAll},
		{"ver lembretes para amanhã", "amanhã"},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			got := c.Classify(tt.message)
			if got.Entities.DateFilter != tt.wantFilter {
				t.Errorf("Classify(%q) filter = %q, want %q", tt.message, got.Entities.DateFilter, tt.wantFilter)
			}
		})
	}
}

func TestClassifyCompleteTaskID(t *testing.T) {
	c := fixedClassifier()

	got := c.Classify("concluir tarefa 42")
	if got.Intent != IntentCompleteTask || got.Entities.TaskID != 42 {
		t.Errorf("got intent=%v id=%d, want complete_task id=42", got.Intent, got.Entities.TaskID)
	}

	// An unparseable number falls through the rule list instead of producing
	// a broken complete_task. The generic "tarefa" trigger picks it up.
	got = c.Classify("concluir tarefa 99999999999999999999")
	if got.Intent == IntentCompleteTask {
		t.Errorf("overflowing task number must not classify as complete_task")
	}
}

func TestClassifyUnknownKeepsOriginalText(t *testing.T) {
	c := fixedClassifier()

	const msg = "bom dia, tudo bem por aí?"
	got := c.Classify(msg)
	if got.Intent != IntentUnknown {
		t.Fatalf("Classify(%q) = %v, want unknown", msg, got.Intent)
	}
	if got.Entities.OriginalText != msg {
		t.Errorf("original text = %q, want %q", got.Entities.OriginalText, msg)
	}
}
