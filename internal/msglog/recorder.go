package msglog

import (
	"context"
	"log/slog"

	"github.com/rotinabot/rotina/internal/logging"
	"github.com/rotinabot/rotina/internal/whatsapp"
)

// Recorder wraps a Messenger and logs every delivery attempt. Send errors are
// recorded and passed through; logging failures never block delivery.
type Recorder struct {
	next      whatsapp.Messenger
	store     *Store
	simulated bool
	log       *slog.Logger
}

// NewRecorder wraps next so every SendText lands in the delivery log.
// simulated marks records written while the Cloud API is bypassed.
func NewRecorder(next whatsapp.Messenger, store *Store, simulated bool) *Recorder {
	return &Recorder{
		next:      next,
		store:     store,
		simulated: simulated,
		log:       logging.WithComponent("msglog"),
	}
}

// SendText delivers through the wrapped messenger and records the outcome.
func (r *Recorder) SendText(ctx context.Context, to, text string) error {
	sendErr := r.next.SendText(ctx, to, text)

	status := StatusSent
	errText := ""
	switch {
	case sendErr != nil:
		status = StatusFailed
		errText = sendErr.Error()
	case r.simulated:
		status = StatusSimulated
	}

	if _, err := r.store.Append(to, text, status, errText); err != nil {
		r.log.Warn("Failed to record delivery", slog.Any("error", err))
	}
	return sendErr
}
