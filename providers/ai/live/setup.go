package live

import (
	"net/url"
	"strings"

	"github.com/leofalp/fireai/providers/ai"
)

// DefaultBaseURL is the production WebSocket origin.
const DefaultBaseURL = "wss://firebasevertexai.googleapis.com"

const (
	vertexServicePath   = "/ws/google.firebase.vertexai.v1beta.LlmBidiService/BidiGenerateContent/locations/"
	googleAIServicePath = "/ws/google.firebase.vertexai.v1beta.GenerativeService/BidiGenerateContent"
)

// AudioTranscriptionConfig enables transcription of one audio direction.
type AudioTranscriptionConfig struct{}

// PrebuiltVoiceConfig selects one of the provided voices.
type PrebuiltVoiceConfig struct {
	VoiceName string `json:"voiceName,omitempty"`
}

// VoiceConfig wraps the voice selection.
type VoiceConfig struct {
	PrebuiltVoiceConfig *PrebuiltVoiceConfig `json:"prebuiltVoiceConfig,omitempty"`
}

// SpeechConfig configures audio output.
type SpeechConfig struct {
	VoiceConfig *VoiceConfig `json:"voiceConfig,omitempty"`
}

// LiveGenerationConfig holds the generation parameters of a live session.
// The transcription fields are sent at the top level of the setup message.
type LiveGenerationConfig struct {
	ResponseModalities []string      `json:"responseModalities,omitempty"`
	SpeechConfig       *SpeechConfig `json:"speechConfig,omitempty"`
	MaxOutputTokens    *int          `json:"maxOutputTokens,omitempty"`
	Temperature        *float64      `json:"temperature,omitempty"`
	TopP               *float64      `json:"topP,omitempty"`
	TopK               *float64      `json:"topK,omitempty"`
	PresencePenalty    *float64      `json:"presencePenalty,omitempty"`
	FrequencyPenalty   *float64      `json:"frequencyPenalty,omitempty"`

	InputAudioTranscription  *AudioTranscriptionConfig `json:"-"`
	OutputAudioTranscription *AudioTranscriptionConfig `json:"-"`
}

// Setup configures a session before it opens.
type Setup struct {
	GenerationConfig  *LiveGenerationConfig
	SystemInstruction *ai.Content
	Tools             []ai.Tool
	ToolConfig        *ai.ToolConfig

	// BaseURL replaces DefaultBaseURL, for emulators and tests.
	BaseURL string
}

type setupMessage struct {
	Setup setupBody `json:"setup"`
}

type setupBody struct {
	Model                    string                    `json:"model"`
	GenerationConfig         *LiveGenerationConfig     `json:"generationConfig,omitempty"`
	SystemInstruction        *ai.Content               `json:"systemInstruction,omitempty"`
	Tools                    []ai.Tool                 `json:"tools,omitempty"`
	ToolConfig               *ai.ToolConfig            `json:"toolConfig,omitempty"`
	InputAudioTranscription  *AudioTranscriptionConfig `json:"inputAudioTranscription,omitempty"`
	OutputAudioTranscription *AudioTranscriptionConfig `json:"outputAudioTranscription,omitempty"`
}

func newSetupMessage(settings ai.Settings, model string, setup Setup) setupMessage {
	body := setupBody{
		Model:             modelPath(settings, model),
		GenerationConfig:  setup.GenerationConfig,
		SystemInstruction: setup.SystemInstruction,
		Tools:             setup.Tools,
		ToolConfig:        setup.ToolConfig,
	}
	if setup.GenerationConfig != nil {
		body.InputAudioTranscription = setup.GenerationConfig.InputAudioTranscription
		body.OutputAudioTranscription = setup.GenerationConfig.OutputAudioTranscription
	}
	return setupMessage{Setup: body}
}

func modelPath(settings ai.Settings, model string) string {
	if settings.Backend == ai.BackendGoogleAI {
		return "projects/" + settings.ProjectID + "/" + model
	}
	return "projects/" + settings.ProjectID + "/locations/" + settings.Location + "/" + model
}

// URL returns the WebSocket address of the bidirectional service for
// settings, with the API key as query parameter.
func URL(settings ai.Settings, baseURL string) string {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	path := googleAIServicePath
	if settings.Backend != ai.BackendGoogleAI {
		path = vertexServicePath + settings.Location
	}
	return strings.TrimSuffix(baseURL, "/") + path + "?key=" + url.QueryEscape(settings.APIKey)
}
