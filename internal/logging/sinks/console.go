package sinks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strings"

	"emberfall/sim/internal/logging"
)

// ConsoleSink renders events as single text lines for interactive runs such
// as the spectator server. Events below the minimum severity are skipped so
// debug chatter stays out of terminals.
type ConsoleSink struct {
	logger *log.Logger
	min    logging.Severity
}

func NewConsoleSink(w io.Writer, min logging.Severity) *ConsoleSink {
	return &ConsoleSink{logger: log.New(w, "", log.LstdFlags), min: min}
}

func (s *ConsoleSink) Write(event logging.Event) error {
	if s.logger == nil || event.Severity < s.min {
		return nil
	}
	var line strings.Builder
	fmt.Fprintf(&line, "%s [%s] round=%d actor=%s", event.Severity, event.Type, event.Round, formatEntity(event.Actor))
	if len(event.Targets) > 0 {
		refs := make([]string, 0, len(event.Targets))
		for _, target := range event.Targets {
			refs = append(refs, formatEntity(target))
		}
		fmt.Fprintf(&line, " targets=%s", strings.Join(refs, ","))
	}
	if event.Payload != nil {
		if data, err := json.Marshal(event.Payload); err == nil {
			fmt.Fprintf(&line, " payload=%s", data)
		} else {
			fmt.Fprintf(&line, " payload=%v", event.Payload)
		}
	}
	s.logger.Print(line.String())
	return nil
}

func (s *ConsoleSink) Close(context.Context) error {
	return nil
}

func formatEntity(ref logging.EntityRef) string {
	switch {
	case ref.ID == "":
		return string(ref.Kind)
	case ref.Kind == "":
		return ref.ID
	default:
		return fmt.Sprintf("%s:%s", ref.Kind, ref.ID)
	}
}
