// Package assistant orchestrates inbound conversation handling: user lookup,
// opt-in gating, intent dispatch, and response composition.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rotinabot/rotina/internal/logging"
	"github.com/rotinabot/rotina/internal/nlp"
	"github.com/rotinabot/rotina/internal/store"
)

// Kind classifies an outbound response.
type Kind string

const (
	KindPromptedOptIn  Kind = "prompted_opt_in"
	KindOptInProcessed Kind = "opt_in_processed"
	KindProcessed      Kind = "processed"
	KindIgnored        Kind = "ignored"
)

// Response is the outcome of handling one inbound message. Text is empty only
// for ignored responses, which carry a Reason instead.
type Response struct {
	Kind   Kind
	Intent nlp.Intent
	Text   string
	Reason string
}

// Assistant processes inbound messages against the task store. Messages from
// the same channel identity are serialized; distinct identities run
// concurrently.
type Assistant struct {
	store      *store.Store
	classifier *nlp.Classifier
	now        func() time.Time
	log        *slog.Logger

	mu    sync.Mutex
	users map[string]*sync.Mutex
}

// New creates an Assistant backed by the given store.
func New(st *store.Store) *Assistant {
	return &Assistant{
		store:      st,
		classifier: nlp.NewClassifier(nil),
		now:        time.Now,
		log:        logging.WithComponent("assistant"),
		users:      make(map[string]*sync.Mutex),
	}
}

// userLock returns the mutex serializing work for one channel identity.
func (a *Assistant) userLock(channelID string) *sync.Mutex {
	a.mu.Lock()
	defer a.mu.Unlock()
	lock, ok := a.users[channelID]
	if !ok {
		lock = &sync.Mutex{}
		a.users[channelID] = lock
	}
	return lock
}

// HandleMessage processes one inbound text message from a channel identity
// and returns the response to deliver. Unknown identities are registered and
// prompted for consent before anything else happens.
func (a *Assistant) HandleMessage(ctx context.Context, channelID, contact, text string) (*Response, error) {
	if strings.TrimSpace(text) == "" {
		return &Response{Kind: KindIgnored, Reason: "empty message body"}, nil
	}

	lock := a.userLock(channelID)
	lock.Lock()
	defer lock.Unlock()

	user, err := a.store.GetUserByChannelID(channelID)
	if errors.Is(err, store.ErrNotFound) {
		if _, err := a.store.CreateUser(channelID, contact); err != nil {
			return nil, fmt.Errorf("failed to register user: %w", err)
		}
		a.log.Info("New user registered, prompting for opt-in", slog.String("user", channelID))
		return &Response{Kind: KindPromptedOptIn, Text: replyConsentPrompt}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	result := a.classifier.Classify(text)

	if !user.OptedIn {
		return a.handleOptIn(user, result)
	}
	return a.dispatch(user, result)
}

// handleOptIn processes messages from users that have not consented yet. Only
// opt-in answers are acted upon; everything else re-prompts and touches no
// task state.
func (a *Assistant) handleOptIn(user *store.User, result nlp.Result) (*Response, error) {
	switch result.Intent {
	case nlp.IntentOptInYes:
		if _, err := a.store.SetOptIn(user.ChannelID, true); err != nil {
			return nil, fmt.Errorf("failed to record opt-in: %w", err)
		}
		a.log.Info("User opted in", slog.String("user", user.ChannelID))
		return &Response{Kind: KindOptInProcessed, Intent: result.Intent, Text: replyOptInConfirmed}, nil
	case nlp.IntentOptInNo:
		a.log.Info("User declined opt-in", slog.String("user", user.ChannelID))
		return &Response{Kind: KindOptInProcessed, Intent: result.Intent, Text: replyOptInDeclined}, nil
	default:
		return &Response{Kind: KindOptInProcessed, Intent: result.Intent, Text: replyOptInReprompt}, nil
	}
}

// dispatch routes a classified message from an active user to the matching
// task operation and composes the outbound text.
func (a *Assistant) dispatch(user *store.User, result nlp.Result) (*Response, error) {
	// Every active response except a reminder listing carries the same-day
	// digest, so one inbound message yields exactly one outbound message.
	// The digest snapshots the store before the operation runs: a task
	// added by this very message is not echoed inside its own confirmation.
	var digest string
	if result.Intent != nlp.IntentListReminders {
		var err error
		digest, err = a.buildDigest(user)
		if err != nil {
			return nil, err
		}
	}

	var text string
	var err error

	switch result.Intent {
	case nlp.IntentAddTask:
		text, err = a.addTask(user, result.Entities)
	case nlp.IntentClarifyAddTask:
		text = replyClarifyAddTask
	case nlp.IntentListTasks:
		text, err = a.listTasks(user, result.Entities.DateFilter)
	case nlp.IntentListReminders:
		text, err = a.listReminders(user, result.Entities.DateFilter)
	case nlp.IntentCompleteTask:
		text, err = a.completeTask(user, result.Entities.TaskID)
	case nlp.IntentHelp:
		text = replyHelp
	default:
		text = replyUnknown
	}
	if err != nil {
		return nil, err
	}

	text += digest

	return &Response{Kind: KindProcessed, Intent: result.Intent, Text: text}, nil
}

func (a *Assistant) addTask(user *store.User, ent nlp.Entities) (string, error) {
	due := ent.Due.At
	task, err := a.store.CreateTask(user.ChannelID, ent.Description, &due, "")
	if err != nil {
		return "", fmt.Errorf("failed to create task: %w", err)
	}
	a.log.Info("Task created",
		slog.String("user", user.ChannelID),
		slog.Int64("task_id", task.ID),
		slog.Time("due_at", due))
	return fmt.Sprintf(replyTaskAdded, ent.Description, due.Format("02/01/2006 15:04")), nil
}

func (a *Assistant) listTasks(user *store.User, filter string) (string, error) {
	tasks, err := a.store.ListTasksByStatus(user.ChannelID, store.StatusPending)
	if err != nil {
		return "", fmt.Errorf("failed to list tasks: %w", err)
	}

	label := filterLabel(filter)
	if len(tasks) == 0 {
		return fmt.Sprintf(replyNoTasks, label), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, replyTasksHeader, label)
	for _, task := range tasks {
		b.WriteString("\n")
		fmt.Fprintf(&b, "%d. %s", task.ID, task.Description)
		if task.DueAt != nil {
			fmt.Fprintf(&b, " (Prazo: %s)", task.DueAt.Format("02/01/2006 15:04"))
		}
	}
	return b.String(), nil
}

func (a *Assistant) listReminders(user *store.User, filter string) (string, error) {
	day := a.filterDay(filter)
	label := filterLabel(filter)
	if filter == nlp.DateFilterAll {
		// Reminders are always day-scoped; an open filter means today.
		label = "hoje"
	}

	tasks, err := a.store.ListTasksDueOn(user.ChannelID, day)
	if err != nil {
		return "", fmt.Errorf("failed to list reminders: %w", err)
	}

	if len(tasks) == 0 {
		return fmt.Sprintf(replyNoReminders, label), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, replyRemindersHeader, label)
	for _, task := range tasks {
		b.WriteString("\n")
		fmt.Fprintf(&b, "- %s", task.Description)
		if task.DueAt != nil {
			fmt.Fprintf(&b, " (Prazo: %s)", task.DueAt.Format("15:04"))
		}
	}
	return b.String(), nil
}

func (a *Assistant) completeTask(user *store.User, taskID int64) (string, error) {
	_, err := a.store.SetTaskStatus(user.ChannelID, taskID, store.StatusCompleted)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Sprintf(replyTaskNotFound, taskID), nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to complete task: %w", err)
	}
	a.log.Info("Task completed",
		slog.String("user", user.ChannelID),
		slog.Int64("task_id", taskID))
	return fmt.Sprintf(replyTaskCompleted, taskID), nil
}

// buildDigest returns the quick-reminder block for tasks due today, or an
// empty string when there are none.
func (a *Assistant) buildDigest(user *store.User) (string, error) {
	tasks, err := a.store.ListTasksDueOn(user.ChannelID, a.now())
	if err != nil {
		return "", fmt.Errorf("failed to build digest: %w", err)
	}
	if len(tasks) == 0 {
		return "", nil
	}
	return FormatDigest(tasks), nil
}

// FormatDigest renders the quick-reminder block for a set of same-day tasks.
// Shared with the scheduled morning digest so both paths read identically.
func FormatDigest(tasks []*store.Task) string {
	var b strings.Builder
	b.WriteString(replyDigestHeader)
	for _, task := range tasks {
		b.WriteString("\n")
		fmt.Fprintf(&b, "- %s", task.Description)
		if task.DueAt != nil {
			fmt.Fprintf(&b, " (Prazo: %s)", task.DueAt.Format("15:04"))
		}
	}
	return b.String()
}

// filterDay maps a date filter token to the calendar day it names. Anything
// that is not explicitly tomorrow means today.
func (a *Assistant) filterDay(filter string) time.Time {
	now := a.now()
	switch strings.ToLower(filter) {
	case "amanhã", "amanha":
		return now.AddDate(0, 0, 1)
	default:
		return now
	}
}

// filterLabel maps a date filter token to its display form.
func filterLabel(filter string) string {
	if filter == nlp.DateFilterAll {
		return "todas"
	}
	return strings.ToLower(filter)
}
