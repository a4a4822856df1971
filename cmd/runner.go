package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tunesub/internal/preview"
	"github.com/desertthunder/tunesub/internal/services"
	"github.com/desertthunder/tunesub/internal/shared"
	"github.com/desertthunder/tunesub/internal/ui"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config        *shared.Config
	configPath    string
	source        services.Source
	subscriptions services.Subscriptions
	httpClient    *http.Client
	logger        *log.Logger
	output        io.Writer
	input         io.Reader
	completions   chan string
	resolver      *preview.Resolver
	openURL       func(string) error
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config        *shared.Config
	ConfigPath    string
	Source        services.Source
	Subscriptions services.Subscriptions
	Catalog       services.Catalog
	Player        preview.Player
	HTTPClient    *http.Client
	Logger        *log.Logger
	Output        io.Writer
	Input         io.Reader
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	r := &Runner{
		config:        opts.Config,
		configPath:    opts.ConfigPath,
		source:        opts.Source,
		subscriptions: opts.Subscriptions,
		httpClient:    opts.HTTPClient,
		logger:        opts.Logger,
		output:        opts.Output,
		input:         opts.Input,
		completions:   make(chan string, 1),
		openURL:       shared.OpenURL,
	}

	if opts.Catalog != nil {
		r.resolver = preview.NewResolver(opts.Catalog, opts.Player,
			preview.WithCache(preview.NewCache()),
			preview.WithLogger(opts.Logger),
			preview.WithCompletionHook(r.previewFinished),
		)
	}
	return r
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		browseCommand, searchCommand, categoriesCommand, tracksCommand, previewCommand, scanCommand,
		subscriptionsCommand, setupCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// previewFinished forwards natural preview completion to whichever command is waiting on it.
func (r *Runner) previewFinished(trackID string) {
	select {
	case r.completions <- trackID:
	default:
	}
}

func (r *Runner) requireSource() error {
	if r.source == nil {
		return fmt.Errorf("%w: no playlist source configured", shared.ErrServiceUnavailable)
	}
	return nil
}

func (r *Runner) requireResolver() error {
	if r.resolver == nil {
		return fmt.Errorf("%w: no preview catalog configured", shared.ErrServiceUnavailable)
	}
	return nil
}

func (r *Runner) requireSubscriptions() error {
	if r.subscriptions == nil {
		return fmt.Errorf("%w: subscription backend not configured", shared.ErrServiceUnavailable)
	}
	return nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writeBytes(data []byte) error {
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("%s\n", ui.Styles.Header(title))
}
