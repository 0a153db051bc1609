// Package commands implements the fireai command line.
package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/leofalp/fireai/core/client"
	"github.com/leofalp/fireai/core/client/middleware"
	"github.com/leofalp/fireai/core/config"
	slogobs "github.com/leofalp/fireai/providers/observability/slog"
)

// Version is set at build time.
var Version = "dev"

// Global flags
var (
	configPath  string
	envFiles    []string
	modelFlag   string
	logLevel    string
	logRequests string
	deadline    time.Duration
	noRetry     bool
)

var rootCmd = &cobra.Command{
	Use:   "fireai",
	Short: "Call Gemini and Imagen models through Firebase AI Logic",
	Long: `fireai sends prompts to Gemini and Imagen models through the Firebase AI
Logic endpoints, on either the Vertex AI or the Gemini Developer API backend.

Settings come from a YAML file (--config), a .env file and the environment:
FIREBASE_API_KEY, FIREBASE_PROJECT_ID, FIREBASE_APP_ID, FIREAI_BACKEND,
FIREAI_LOCATION, FIREAI_MODEL, FIREAI_BASE_URL and FIREAI_TIMEOUT.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file")
	rootCmd.PersistentFlags().StringArrayVar(&envFiles, "env-file", nil, "dotenv file(s) to load (default .env)")
	rootCmd.PersistentFlags().StringVarP(&modelFlag, "model", "m", "", "Model id (overrides FIREAI_MODEL)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (TRACE|DEBUG|INFO|WARN|ERROR); default from FIREAI_LOG_LEVEL")
	rootCmd.PersistentFlags().StringVar(&logRequests, "log-requests", "off", "Request logging (off|minimal|standard|verbose)")
	rootCmd.PersistentFlags().DurationVar(&deadline, "deadline", 0, "Overall deadline per call, retries included (0 disables)")
	rootCmd.PersistentFlags().BoolVar(&noRetry, "no-retry", false, "Do not retry transient failures")

	rootCmd.SetVersionTemplate("fireai {{.Version}}\n")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(streamCmd)
	rootCmd.AddCommand(countTokensCmd)
	rootCmd.AddCommand(imagesCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(liveCmd)
}

// ExecuteContext runs the root command with ctx as every command's context.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// runtime is what every command needs once flags are parsed.
type runtime struct {
	cfg    *config.Config
	client *client.Client
	logger *slog.Logger
}

func (r *runtime) model() string {
	if modelFlag != "" {
		return modelFlag
	}
	return r.cfg.Model
}

// modelOptions prepends the request and live options from the config to
// extra.
func (r *runtime) modelOptions(extra ...func(*client.ModelOptions)) []func(*client.ModelOptions) {
	options := []func(*client.ModelOptions){
		client.WithRequestOptions(r.cfg.RequestOptions()),
		client.WithLiveBaseURL(r.cfg.LiveBaseURL),
	}
	return append(options, extra...)
}

// newRuntime loads the configuration and builds a client with the
// middleware chain selected by the global flags.
func newRuntime() (*runtime, error) {
	if err := config.LoadDotEnv(envFiles...); err != nil {
		return nil, err
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	observer, err := newObserver(cfg, os.Stderr)
	if err != nil {
		return nil, err
	}
	middlewares, err := buildMiddlewares(cfg, observer.Logger())
	if err != nil {
		return nil, err
	}

	c, err := client.New(cfg.Settings(),
		client.WithObserver(observer),
		client.WithMiddleware(middlewares...),
	)
	if err != nil {
		return nil, err
	}
	return &runtime{cfg: cfg, client: c, logger: observer.Logger()}, nil
}

// newObserver picks the log level from --log-level, then the config file,
// then the environment.
func newObserver(cfg *config.Config, w io.Writer) (*slogobs.Observer, error) {
	name := logLevel
	if name == "" {
		name = cfg.Logging.Level
	}
	if name == "" {
		return slogobs.NewFromEnv(w), nil
	}
	level, err := slogobs.ParseLevel(name)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slogobs.New(slog.New(handler)), nil
}

// buildMiddlewares returns the chain outermost first: deadline, retry, then
// request logging.
func buildMiddlewares(cfg *config.Config, logger *slog.Logger) ([]client.MiddlewareConfig, error) {
	var middlewares []client.MiddlewareConfig
	if deadline > 0 {
		middlewares = append(middlewares, middleware.NewTimeoutMiddleware(deadline))
	}
	if !noRetry {
		middlewares = append(middlewares, middleware.NewRetryMiddleware(middleware.RetryConfig{
			MaxRetries:     cfg.Retry.MaxRetries,
			InitialBackoff: cfg.Retry.InitialBackoff,
			MaxBackoff:     cfg.Retry.MaxBackoff,
		}))
	}

	switch strings.ToLower(logRequests) {
	case "", "off":
	case "minimal":
		middlewares = append(middlewares, middleware.NewLoggingMiddleware(logger, middleware.LogLevelMinimal))
	case "standard":
		middlewares = append(middlewares, middleware.NewLoggingMiddleware(logger, middleware.LogLevelStandard))
	case "verbose":
		middlewares = append(middlewares, middleware.NewLoggingMiddleware(logger, middleware.LogLevelVerbose))
	default:
		return nil, fmt.Errorf("unknown --log-requests value %q", logRequests)
	}
	return middlewares, nil
}

// promptFrom joins args, or reads stdin when there are none.
func promptFrom(args []string, stdin io.Reader) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read prompt from stdin: %w", err)
	}
	prompt := strings.TrimSpace(string(data))
	if prompt == "" {
		return "", fmt.Errorf("prompt required: pass it as arguments or on stdin")
	}
	return prompt, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
