package whatsapp

import (
	"context"
	"log/slog"

	"github.com/rotinabot/rotina/internal/logging"
)

// Simulator is a Messenger that never touches the Cloud API. Outbound
// messages are logged and handed to an optional sink, which the gateway uses
// to surface them on the dev console stream.
type Simulator struct {
	log  *slog.Logger
	sink func(to, text string)
}

// NewSimulator creates a simulating messenger. sink may be nil.
func NewSimulator(sink func(to, text string)) *Simulator {
	return &Simulator{
		log:  logging.WithComponent("whatsapp.simulator"),
		sink: sink,
	}
}

// SendText records the outbound message without delivering it.
func (s *Simulator) SendText(_ context.Context, to, text string) error {
	s.log.Info("Simulated outbound message",
		slog.String("to", to),
		slog.Int("length", len(text)))
	if s.sink != nil {
		s.sink(to, text)
	}
	return nil
}
