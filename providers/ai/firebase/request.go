package firebase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/leofalp/fireai/internal/utils"
	"github.com/leofalp/fireai/providers/ai"
	"github.com/leofalp/fireai/providers/ai/googleai"
	"github.com/leofalp/fireai/providers/observability"
)

// ErrTimeout is the cause of a request whose response headers did not arrive
// within the configured timeout.
var ErrTimeout = errors.New("request timed out")

// makeRequest posts body to url and returns a response with a 2xx status. The
// timeout covers dispatch until the response headers arrive; the returned
// body stays readable after that and is bound to ctx only.
func makeRequest(ctx context.Context, client *http.Client, url RequestURL, body []byte) (*http.Response, error) {
	endpoint := url.String()
	timeout := url.Options.EffectiveTimeout()

	requestCtx, cancel := context.WithCancelCause(ctx)
	timer := time.AfterFunc(timeout, func() { cancel(ErrTimeout) })

	res, err := utils.PostJSON(requestCtx, client, endpoint, body, headers(ctx, url)...)
	timer.Stop()
	if err != nil {
		if errors.Is(context.Cause(requestCtx), ErrTimeout) {
			err = fmt.Errorf("%w after %s: %w", ErrTimeout, timeout, err)
		}
		cancel(nil)
		return nil, ai.WrapError(ai.ErrorCodeError, fmt.Sprintf("Error fetching from %s: %s", endpoint, err.Error()), err)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		defer cancel(nil)
		return nil, classifyFailure(res, endpoint, url.Settings.ProjectID)
	}

	res.Body = &cancelOnClose{ReadCloser: res.Body, cancel: cancel}
	return res, nil
}

// cancelOnClose releases the request context once the body is closed.
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelCauseFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel(nil)
	return err
}

// classifyFailure turns a non-2xx response into an api-not-enabled or a
// fetch-error. The body is consumed and closed.
func classifyFailure(res *http.Response, endpoint, projectID string) error {
	defer utils.CloseWithLog(res.Body)

	body, readErr := utils.ReadBody(res.Body)
	if readErr != nil {
		body = nil
	}

	// A body that is not JSON leaves only the status in the message.
	var message string
	var details []ai.ErrorDetails
	if gjson.ValidBytes(body) {
		message = gjson.GetBytes(body, "error.message").String()
		if raw := gjson.GetBytes(body, "error.details"); raw.IsArray() {
			if err := json.Unmarshal([]byte(raw.Raw), &details); err != nil {
				details = nil
			}
		}
	}

	if res.StatusCode == http.StatusForbidden && isServiceDisabled(details) {
		return ai.NewErrorWithData(ai.ErrorCodeAPINotEnabled, apiNotEnabledMessage(projectID), &ai.CustomErrorData{
			Status:       res.StatusCode,
			StatusText:   statusText(res),
			ErrorDetails: details,
		})
	}

	detail := strings.TrimSpace(fmt.Sprintf("Error fetching from %s: [%s] %s", endpoint, res.Status, message))
	if len(details) > 0 {
		detail += " " + utils.JSONToString(details)
	}
	return ai.NewErrorWithData(ai.ErrorCodeFetchError, detail, &ai.CustomErrorData{
		Status:       res.StatusCode,
		StatusText:   statusText(res),
		ErrorDetails: details,
	})
}

// isServiceDisabled looks for the SERVICE_DISABLED reason and the console
// activation link. The backend sends them in separate details.
func isServiceDisabled(details []ai.ErrorDetails) bool {
	var disabled, activationLink bool
	for _, detail := range details {
		if detail.Reason == "SERVICE_DISABLED" {
			disabled = true
		}
		for _, link := range detail.Links {
			if strings.Contains(link.Description, "API activation") {
				activationLink = true
			}
		}
	}
	return disabled && activationLink
}

func apiNotEnabledMessage(projectID string) string {
	return "The Firebase AI SDK requires the Firebase AI API ('firebasevertexai.googleapis.com') " +
		"to be enabled in your Firebase project. Enable this API by visiting the Firebase Console at " +
		"https://console.firebase.google.com/project/" + projectID + "/genai/ and clicking \"Get started\". " +
		"If you enabled this API recently, wait a few minutes for the action to propagate to our systems and then retry."
}

func statusText(res *http.Response) string {
	return strings.TrimSpace(strings.TrimPrefix(res.Status, strconv.Itoa(res.StatusCode)))
}

// decodeResponse decodes one generation response, mapping it from the
// Google AI dialect when needed.
func decodeResponse(backend ai.Backend, data []byte) (*ai.GenerateContentResponse, error) {
	if backend == ai.BackendGoogleAI {
		var wire googleai.GenerateContentResponse
		if err := json.Unmarshal(data, &wire); err != nil {
			return nil, ai.WrapError(ai.ErrorCodeParseFailed, "Failed to parse response body", err)
		}
		return googleai.MapGenerateContentResponse(wire)
	}

	var response ai.GenerateContentResponse
	if err := json.Unmarshal(data, &response); err != nil {
		return nil, ai.WrapError(ai.ErrorCodeParseFailed, "Failed to parse response body", err)
	}
	return &response, nil
}

func recordHTTPFailure(ctx context.Context, err error) {
	if observer := observability.ObserverFromContext(ctx); observer != nil {
		observer.Trace(ctx, "Firebase AI request failed", observability.Error(err))
	}
}
