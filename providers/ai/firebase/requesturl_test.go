package firebase

import (
	"testing"

	"github.com/leofalp/fireai/providers/ai"
)

// TestRequestURL_String verifies resource paths and the SSE query for both
// backends, for models and for templates.
func TestRequestURL_String(t *testing.T) {
	vertex := ai.Settings{ProjectID: "my-project", Location: "europe-west1", Backend: ai.BackendVertexAI}
	googleAI := ai.Settings{ProjectID: "my-project", Backend: ai.BackendGoogleAI}

	tests := []struct {
		name string
		url  RequestURL
		want string
	}{
		{
			name: "vertex generate",
			url:  RequestURL{Settings: vertex, Task: TaskGenerateContent, Model: "publishers/google/models/gemini-2.5-flash"},
			want: "https://firebasevertexai.googleapis.com/v1beta/projects/my-project/locations/europe-west1/publishers/google/models/gemini-2.5-flash:generateContent",
		},
		{
			name: "vertex stream",
			url:  RequestURL{Settings: vertex, Task: TaskStreamGenerateContent, Model: "publishers/google/models/gemini-2.5-flash"},
			want: "https://firebasevertexai.googleapis.com/v1beta/projects/my-project/locations/europe-west1/publishers/google/models/gemini-2.5-flash:streamGenerateContent?alt=sse",
		},
		{
			name: "google ai count tokens",
			url:  RequestURL{Settings: googleAI, Task: TaskCountTokens, Model: "models/gemini-2.5-flash"},
			want: "https://firebasevertexai.googleapis.com/v1beta/projects/my-project/models/gemini-2.5-flash:countTokens",
		},
		{
			name: "vertex template stream",
			url:  RequestURL{Settings: vertex, Task: TaskTemplateStreamGenerateContent, TemplateID: "greeting"},
			want: "https://firebasevertexai.googleapis.com/v1beta/projects/my-project/locations/europe-west1/templates/greeting:templateStreamGenerateContent?alt=sse",
		},
		{
			name: "google ai template",
			url:  RequestURL{Settings: googleAI, Task: TaskTemplateGenerateContent, TemplateID: "greeting"},
			want: "https://firebasevertexai.googleapis.com/v1beta/projects/my-project/templates/greeting:templateGenerateContent",
		},
		{
			name: "custom base url",
			url: RequestURL{
				Settings: googleAI,
				Options:  ai.RequestOptions{BaseURL: "http://localhost:9099/"},
				Task:     TaskPredict,
				Model:    "models/imagen-3.0-generate-002",
			},
			want: "http://localhost:9099/v1beta/projects/my-project/models/imagen-3.0-generate-002:predict",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.url.String(); got != tt.want {
				t.Errorf("String() = %q\nwant        %q", got, tt.want)
			}
		})
	}
}
