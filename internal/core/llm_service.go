package core

import (
	"context"
	"fmt"
	"log"
	"mime"
	"path/filepath"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"machitan.jp/machi-backend/internal/config"
)

const (
	defaultReplyModelName      = "gemini-1.5-flash-latest"
	defaultTranscribeModelName = "gemini-1.5-flash-latest"

	// Persona shown to the children: the expedition leader answering their
	// walkie-talkie reports. Kept in Japanese because every exchange is.
	leaderSystemInstruction = "あなたは「まち探検隊」の隊長です。" +
		"小学生の子どもたち（小学3年生程度）が、街を歩きながら新しい発見をトランシーバーで報告してきます。" +
		"報告を必ず肯定し、考えるきっかけになる問い返しをヒントと一緒に返してください。" +
		"難しい言葉や漢字は避け、返答は2文程度で短く、最後に次の行動につながる一言を添えてください。" +
		"倫理的によくない言葉が入力された場合、それ以上そのことに言及しないでください。" +
		"本文のみを回答し、重要部分はアスタリスクで囲ってください。"

	transcribeInstruction = "Transcribe this audio recording. Reply with the transcript text only, nothing else."
)

// ModelClient is the external language-model capability the assistant
// depends on. Both methods are fallible; callers substitute fallback output
// rather than propagating failures.
type ModelClient interface {
	SummarizeText(ctx context.Context, prompt string) (string, error)
	TranscribeAudio(ctx context.Context, data []byte, filename string) (string, error)
}

// LLMService implements ModelClient on the Gemini API. A service built
// without an API key reports itself unconfigured from both methods.
type LLMService struct {
	client *genai.Client
}

func NewLLMService() *LLMService {
	if config.AppConfig.GeminiAPIKey == "" {
		return &LLMService{}
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(config.AppConfig.GeminiAPIKey))
	if err != nil {
		log.Printf("Failed to create GenAI client, assistant will run in fallback mode: %v", err)
		return &LLMService{}
	}
	return &LLMService{client: client}
}

func (s *LLMService) Close() {
	if s.client != nil {
		if err := s.client.Close(); err != nil {
			log.Printf("Error closing GenAI client: %v", err)
		}
	}
}

func (s *LLMService) SummarizeText(ctx context.Context, prompt string) (string, error) {
	if s.client == nil {
		return "", ErrModelUnavailable
	}

	model := s.client.GenerativeModel(defaultReplyModelName)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(leaderSystemInstruction)},
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini text request failed: %w", err)
	}
	text := flattenResponse(resp)
	if text == "" {
		return "", fmt.Errorf("gemini returned no text candidates")
	}
	return text, nil
}

func (s *LLMService) TranscribeAudio(ctx context.Context, data []byte, filename string) (string, error) {
	if s.client == nil {
		return "", ErrModelUnavailable
	}

	model := s.client.GenerativeModel(defaultTranscribeModelName)
	resp, err := model.GenerateContent(ctx,
		genai.Blob{MIMEType: audioMIMEType(filename), Data: data},
		genai.Text(transcribeInstruction),
	)
	if err != nil {
		return "", fmt.Errorf("gemini transcription request failed: %w", err)
	}
	text := flattenResponse(resp)
	if text == "" {
		return "", fmt.Errorf("gemini returned no transcript")
	}
	return text, nil
}

func flattenResponse(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		} else {
			log.Printf("Gemini response part was not text: %T", part)
		}
	}
	return strings.TrimSpace(b.String())
}

func audioMIMEType(filename string) string {
	if t := mime.TypeByExtension(filepath.Ext(filename)); strings.HasPrefix(t, "audio/") {
		return t
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".webm":
		return "audio/webm"
	case ".m4a":
		return "audio/mp4"
	case ".mp3":
		return "audio/mpeg"
	case ".wav":
		return "audio/wav"
	case ".ogg":
		return "audio/ogg"
	}
	return "audio/webm"
}
