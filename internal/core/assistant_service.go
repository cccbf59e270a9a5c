package core

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"machitan.jp/machi-backend/internal/store"
)

// ErrModelUnavailable is returned by a ModelClient that has no backing
// service configured. Callers distinguish it from a live call failing.
var ErrModelUnavailable = errors.New("model client not configured")

// AssistantService answers free-text reports and transcribes audio notes
// through the injected model client, logging every interaction. Model
// failures never surface to the caller: classroom availability beats the
// optional AI feature, so a deterministic fallback string is substituted
// instead.
type AssistantService struct {
	dbStore *store.SQLiteStore
	model   ModelClient
}

func NewAssistantService(db *store.SQLiteStore, model ModelClient) *AssistantService {
	return &AssistantService{dbStore: db, model: model}
}

// ReplyToText asks the model for a reply to a child's report. The returned
// string is always usable, even when the model is unconfigured or failing.
func (s *AssistantService) ReplyToText(ctx context.Context, text string, userID *string) (string, error) {
	if text == "" {
		return "", fmt.Errorf("%w: text is required", ErrInvalidInput)
	}

	output, err := s.model.SummarizeText(ctx, text)
	switch {
	case errors.Is(err, ErrModelUnavailable):
		output = fmt.Sprintf("AssistantOutput for: %s", text)
	case err != nil:
		log.Printf("assistant text request failed: %v", err)
		output = fmt.Sprintf("AssistantError fallback for: %s", text)
	}

	s.logInteraction("text", text, output, userID)
	return output, nil
}

// TranscribeAudio converts an uploaded recording into text. Transcripts
// shorter than two characters, or consisting only of punctuation, are
// treated as empty output.
func (s *AssistantService) TranscribeAudio(ctx context.Context, data []byte, filename string, userID *string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: audio file is required", ErrInvalidInput)
	}

	transcript, err := s.model.TranscribeAudio(ctx, data, filename)
	switch {
	case errors.Is(err, ErrModelUnavailable):
		transcript = fmt.Sprintf("(assistant not configured - uploaded %d bytes as %s)", len(data), filename)
	case err != nil:
		log.Printf("assistant transcription failed for %s (%d bytes): %v", filename, len(data), err)
		transcript = fmt.Sprintf("(assistant transcription failed - uploaded %s)", filename)
	default:
		transcript = cleanTranscript(transcript)
	}

	s.logInteraction("audio", filename, transcript, userID)
	return transcript, nil
}

// ListRecentLogs exists for the offline dump mode only; the API never reads
// the interaction log back.
func (s *AssistantService) ListRecentLogs(limit int) ([]store.AssistantLog, error) {
	return s.dbStore.ListAssistantLogs(limit)
}

func (s *AssistantService) logInteraction(kind, input, output string, userID *string) {
	if err := s.dbStore.AppendAssistantLog(kind, input, output, userID); err != nil {
		log.Printf("Failed to log %s interaction: %v", kind, err)
	}
}

func cleanTranscript(transcript string) string {
	trimmed := strings.TrimSpace(transcript)
	switch trimmed {
	case ".", ",", "。":
		return ""
	}
	if len([]rune(trimmed)) <= 1 {
		return ""
	}
	return trimmed
}
