// Package ledgerlensctl is the command-line client for the ledgerlens API.
package ledgerlensctl

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

type Options struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
	Stdout     io.Writer
	Stderr     io.Writer
}

// requestError marks failures talking to the server, as opposed to bad
// command-line usage.
type requestError struct {
	err error
}

func (e *requestError) Error() string { return "request failed: " + e.err.Error() }
func (e *requestError) Unwrap() error { return e.err }

// Run executes one command and returns the process exit code: 0 on success,
// 1 when the request failed and 2 on usage errors.
func Run(ctx context.Context, args []string, defaults Options) int {
	stdout := defaults.Stdout
	if stdout == nil {
		stdout = io.Discard
	}
	stderr := defaults.Stderr
	if stderr == nil {
		stderr = io.Discard
	}
	defaults.Stdout, defaults.Stderr = stdout, stderr

	root := NewRootCommand(defaults)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	pterm.Error.WithWriter(stderr).Println(err.Error())

	var reqErr *requestError
	var apiErr *apiError
	var ioErr *outputError
	if errors.As(err, &reqErr) || errors.As(err, &apiErr) || errors.As(err, &ioErr) {
		return 1
	}
	return 2
}

type rootFlags struct {
	baseURL string
	apiKey  string
	timeout time.Duration
	json    bool
}

func NewRootCommand(defaults Options) *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:           "ledgerlensctl",
		Short:         "Command-line client for the ledgerlens fraud scorer and report agent",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.baseURL, "base-url", firstNonEmpty(defaults.BaseURL, "http://localhost:8080"), "ledgerlens API base URL")
	root.PersistentFlags().StringVar(&flags.apiKey, "api-key", defaults.APIKey, "API key for authenticated requests")
	root.PersistentFlags().DurationVar(&flags.timeout, "timeout", durationOr(defaults.Timeout, 10*time.Second), "HTTP timeout (e.g. 10s)")
	root.PersistentFlags().BoolVar(&flags.json, "json", false, "print raw JSON responses")

	newClient := func() *client {
		httpClient := defaults.HTTPClient
		if httpClient == nil {
			httpClient = &http.Client{Timeout: flags.timeout}
		}
		return &client{baseURL: flags.baseURL, apiKey: flags.apiKey, http: httpClient}
	}
	env := &commandEnv{flags: flags, client: newClient, stdout: defaults.Stdout}

	root.AddCommand(
		newStatusCommand(env, "health", "Check that the API process is up", "/v1/health"),
		newStatusCommand(env, "ready", "Check that the API dependencies are reachable", "/v1/ready"),
		newSamplesCommand(env),
		newPredictCommand(env),
		newAskCommand(env),
		newHistoryCommand(env),
		newExportCommand(env),
	)
	return root
}

type commandEnv struct {
	flags  *rootFlags
	client func() *client
	stdout io.Writer
}

func (e *commandEnv) out(cmd *cobra.Command) io.Writer {
	if e.stdout != nil {
		return e.stdout
	}
	return cmd.OutOrStdout()
}

func firstNonEmpty(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return strings.TrimSpace(a)
	}
	return b
}

func durationOr(v, fallback time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return fallback
}
