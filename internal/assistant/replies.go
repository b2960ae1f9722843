package assistant

// Outbound message texts. All user-facing copy lives here so the dispatch
// logic stays free of literals.
const (
	replyConsentPrompt = "Olá! Sou sua assistente de rotina pessoal. Posso te ajudar a organizar suas tarefas e mais. " +
		"Você concorda em receber minhas mensagens e utilizar meus serviços? " +
		"Responda 'Sim' para continuar ou 'Não' para cancelar."

	replyOptInConfirmed = "Ótimo! Sua inscrição foi confirmada. Como posso te ajudar hoje? Digite 'ajuda' para ver os comandos."

	replyOptInDeclined = "Entendido. Se mudar de ideia, é só me chamar e dizer 'Sim'."

	replyOptInReprompt = "Por favor, responda 'Sim' para confirmar o uso do serviço ou 'Não' para cancelar."

	replyTaskAdded = "Tarefa '%s' adicionada! para %s."

	replyClarifyAddTask = "Para adicionar uma tarefa, me diga a descrição. Ex: Lembrar de comprar pão amanhã às 8h"

	replyTasksHeader = "Suas tarefas pendentes (%s):"

	replyNoTasks = "Você não tem tarefas pendentes (%s)."

	replyRemindersHeader = "Seus lembretes para %s:"

	replyNoReminders = "Você não tem lembretes agendados para %s."

	replyTaskCompleted = "Tarefa %d marcada como concluída!"

	replyTaskNotFound = "Não encontrei a tarefa %d ou ela não é sua."

	replyHelp = "Comandos disponíveis (MVP):\n" +
		"- Adicionar tarefa: 'Lembrar de [descrição] [data] às [hora]'\n" +
		"- Ver tarefas: 'Minhas tarefas' ou 'Minhas tarefas de hoje'\n" +
		"- Ver lembretes: 'Meus lembretes de hoje'\n" +
		"- Concluir tarefa: 'Concluir tarefa [número]'\n" +
		"- Ajuda: 'Ajuda'"

	replyUnknown = "Não entendi. Tente 'ajuda' para ver o que posso fazer."

	replyDigestHeader = "\n\nLembrete Rápido! Você tem as seguintes tarefas para hoje:"
)
