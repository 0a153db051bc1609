package firebase

import (
	"context"
	"log/slog"
	"runtime"
	"strings"

	"github.com/leofalp/fireai/internal/utils"
)

// Version is reported in the x-goog-api-client header.
const Version = "0.3.0"

func apiClientHeader() string {
	return "gl-go/" + strings.TrimPrefix(runtime.Version(), "go") + " fire/" + Version
}

// headers builds the request headers for url. Token provider failures never
// fail the request: an App Check error drops the header, an auth error drops
// the Authorization header. Both are logged.
func headers(ctx context.Context, url RequestURL) []utils.HeaderOption {
	settings := url.Settings
	result := []utils.HeaderOption{
		{Key: "x-goog-api-client", Value: apiClientHeader()},
		{Key: "x-goog-api-key", Value: settings.APIKey},
	}

	if settings.AutomaticDataCollectionEnabled {
		result = append(result, utils.HeaderOption{Key: "X-Firebase-Appid", Value: settings.AppID})
	}

	if settings.GetAppCheckToken != nil {
		token, err := settings.GetAppCheckToken(ctx, settings.UseLimitedUseAppCheckTokens)
		switch {
		case err != nil:
			slog.WarnContext(ctx, "Unable to obtain a valid App Check token", "error", err.Error())
		case token != nil && token.Token != "":
			if token.Err != nil {
				slog.WarnContext(ctx, "Unable to obtain a valid App Check token", "error", token.Err.Error())
			}
			result = append(result, utils.HeaderOption{Key: "X-Firebase-AppCheck", Value: token.Token})
		}
	}

	if settings.GetAuthToken != nil {
		token, err := settings.GetAuthToken(ctx)
		if err != nil {
			slog.WarnContext(ctx, "Unable to obtain an auth token", "error", err.Error())
		} else if token != "" {
			result = append(result, utils.HeaderOption{Key: "Authorization", Value: "Firebase " + token})
		}
	}

	return result
}
