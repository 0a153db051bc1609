package firebase

import (
	"fmt"
	"strings"

	"github.com/leofalp/fireai/providers/ai"
)

const (
	// DefaultBaseURL is the production endpoint origin.
	DefaultBaseURL = "https://firebasevertexai.googleapis.com"
	apiVersion     = "v1beta"
)

// Task is the method suffix of a request URL.
type Task string

const (
	TaskGenerateContent               Task = "generateContent"
	TaskStreamGenerateContent         Task = "streamGenerateContent"
	TaskCountTokens                   Task = "countTokens"
	TaskPredict                       Task = "predict"
	TaskTemplateGenerateContent       Task = "templateGenerateContent"
	TaskTemplateStreamGenerateContent Task = "templateStreamGenerateContent"
)

// IsStream reports whether the task answers with server-sent events.
func (t Task) IsStream() bool {
	return t == TaskStreamGenerateContent || t == TaskTemplateStreamGenerateContent
}

// RequestURL addresses one model or template call.
type RequestURL struct {
	Settings ai.Settings
	Options  ai.RequestOptions
	Task     Task

	// Exactly one of Model and TemplateID is set.
	Model      string
	TemplateID string
}

// String renders {base}/v1beta/{resource}:{task}, with ?alt=sse for streams.
func (u RequestURL) String() string {
	base := u.Options.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	url := fmt.Sprintf("%s/%s/%s:%s", strings.TrimSuffix(base, "/"), apiVersion, u.resource(), u.Task)
	if u.Task.IsStream() {
		url += "?alt=sse"
	}
	return url
}

func (u RequestURL) resource() string {
	scope := "projects/" + u.Settings.ProjectID
	if u.Settings.Backend != ai.BackendGoogleAI {
		scope += "/locations/" + u.Settings.Location
	}
	if u.TemplateID != "" {
		return scope + "/templates/" + u.TemplateID
	}
	return scope + "/" + u.Model
}
