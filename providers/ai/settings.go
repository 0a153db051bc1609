package ai

import (
	"context"
	"strings"
)

// Backend selects the upstream wire dialect. It is fixed for the lifetime of
// the Settings value it belongs to.
type Backend string

const (
	// BackendVertexAI is the canonical dialect. Requests are location-scoped.
	BackendVertexAI Backend = "vertexai"
	// BackendGoogleAI is the Gemini Developer API dialect; requests and
	// responses go through the googleai mapper.
	BackendGoogleAI Backend = "googleai"
)

// DefaultLocation is used for Vertex AI when none is configured.
const DefaultLocation = "us-central1"

// AuthTokenProvider returns a Firebase Auth ID token, or "" when the user is
// signed out.
type AuthTokenProvider func(ctx context.Context) (string, error)

// AppCheckToken is the result of an App Check token fetch. Err is set when
// the provider fell back to a placeholder token.
type AppCheckToken struct {
	Token string
	Err   error
}

// AppCheckTokenProvider fetches an App Check token. limitedUse selects
// limited-use tokens.
type AppCheckTokenProvider func(ctx context.Context, limitedUse bool) (*AppCheckToken, error)

// Settings is everything needed to address and authenticate requests.
type Settings struct {
	APIKey    string
	ProjectID string
	AppID     string
	Location  string
	Backend   Backend

	// AutomaticDataCollectionEnabled adds the X-Firebase-Appid header.
	AutomaticDataCollectionEnabled bool
	// UseLimitedUseAppCheckTokens requests limited-use App Check tokens.
	UseLimitedUseAppCheckTokens bool

	GetAuthToken     AuthTokenProvider
	GetAppCheckToken AppCheckTokenProvider
}

// Validate checks the fields every request depends on and fills defaults.
func (s *Settings) Validate() error {
	if s.APIKey == "" {
		return NewError(ErrorCodeNoAPIKey, "API key is empty. Firebase AI requires a valid API key.")
	}
	if s.ProjectID == "" {
		return NewError(ErrorCodeNoProjectID, "project ID is empty. Firebase AI requires a valid project ID.")
	}
	if s.AutomaticDataCollectionEnabled && s.AppID == "" {
		return NewError(ErrorCodeNoAppID, "app ID is empty. It is required when automatic data collection is enabled.")
	}
	if s.Backend == "" {
		s.Backend = BackendVertexAI
	}
	if s.Backend != BackendVertexAI && s.Backend != BackendGoogleAI {
		return NewError(ErrorCodeRequestError, "unknown backend "+string(s.Backend))
	}
	if s.Backend == BackendVertexAI && s.Location == "" {
		s.Location = DefaultLocation
	}
	return nil
}

// NormalizeModelName turns a short model id into the resource path the
// backend expects: "models/{m}" for Google AI and
// "publishers/google/models/{m}" for Vertex AI. Fully qualified names are
// kept as they are.
func NormalizeModelName(backend Backend, model string) (string, error) {
	if model == "" {
		return "", NewError(ErrorCodeNoModel, "Must provide a model name, for example \"gemini-2.5-flash\".")
	}

	if backend == BackendGoogleAI {
		if strings.HasPrefix(model, "models/") {
			return model, nil
		}
		return "models/" + model, nil
	}

	if strings.Contains(model, "/") {
		if strings.HasPrefix(model, "models/") {
			return "publishers/google/" + model, nil
		}
		return model, nil
	}
	return "publishers/google/models/" + model, nil
}
