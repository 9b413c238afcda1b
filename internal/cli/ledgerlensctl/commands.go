package ledgerlensctl

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/ledgerlens/ledgerlens/internal/fraud"
	"github.com/ledgerlens/ledgerlens/internal/query"
	"github.com/ledgerlens/ledgerlens/internal/session"
)

type outputError struct {
	err error
}

func (e *outputError) Error() string { return "write output: " + e.err.Error() }
func (e *outputError) Unwrap() error { return e.err }

type samplesResponse struct {
	Normal       string   `json:"normal"`
	Fraud        string   `json:"fraud"`
	FeatureNames []string `json:"feature_names"`
}

type turnResponse struct {
	SessionID string         `json:"session_id"`
	TurnID    string         `json:"turn_id"`
	Question  string         `json:"question"`
	Items     []itemResponse `json:"items"`
}

type itemResponse struct {
	Index        int               `json:"index"`
	SQL          string            `json:"sql"`
	Columns      []string          `json:"columns"`
	Rows         [][]any           `json:"rows"`
	Error        string            `json:"error"`
	ChartPNG     string            `json:"chart_png"`
	ChartError   string            `json:"chart_error"`
	Insight      string            `json:"insight"`
	InsightError string            `json:"insight_error"`
	Exports      map[string]string `json:"exports"`
}

type historyResponse struct {
	SessionID string          `json:"session_id"`
	Entries   []session.Entry `json:"entries"`
	TurnIDs   []string        `json:"turn_ids"`
}

func newStatusCommand(env *commandEnv, use, short, path string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp, err := env.client().do(cmd.Context(), "GET", path, nil, nil)
			if err != nil {
				return err
			}
			w := env.out(cmd)
			if pretty, ok := prettyJSON(resp.body); ok && env.flags.json {
				_, _ = fmt.Fprintln(w, pretty)
				return nil
			}
			pterm.Success.WithWriter(w).Println(use + " ok")
			return nil
		},
	}
}

func newSamplesCommand(env *commandEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "samples",
		Short: "Show the known normal and fraudulent sample transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var samples samplesResponse
			resp, err := env.client().getJSON(cmd.Context(), "/v1/fraud/samples", nil, &samples)
			if err != nil {
				return err
			}
			w := env.out(cmd)
			if env.flags.json {
				pretty, _ := prettyJSON(resp.body)
				_, _ = fmt.Fprintln(w, pretty)
				return nil
			}
			_, _ = fmt.Fprintln(w, pterm.DefaultBox.WithTitle("normal").Sprint(samples.Normal))
			_, _ = fmt.Fprintln(w, pterm.DefaultBox.WithTitle("fraud").Sprint(samples.Fraud))
			return nil
		},
	}
}

func newPredictCommand(env *commandEnv) *cobra.Command {
	var sample string
	cmd := &cobra.Command{
		Use:   "predict [values]",
		Short: "Score 30 comma-separated transaction features",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := ""
			switch {
			case sample != "" && len(args) > 0:
				return errors.New("pass either --sample or values, not both")
			case sample != "":
				value, ok := fraud.Sample(sample)
				if !ok {
					return fmt.Errorf("unknown sample %q (want normal or fraud)", sample)
				}
				input = value
			case len(args) == 1:
				input = args[0]
			default:
				return errors.New("values or --sample is required")
			}

			var verdict fraud.Verdict
			resp, err := env.client().postJSON(cmd.Context(), "/v1/fraud/predict", map[string]string{"input": input}, nil, &verdict)
			if err != nil {
				return err
			}
			w := env.out(cmd)
			if env.flags.json {
				pretty, _ := prettyJSON(resp.body)
				_, _ = fmt.Fprintln(w, pretty)
				return nil
			}
			if verdict.Fraud {
				pterm.Error.WithWriter(w).Println(verdict.Message)
				return nil
			}
			pterm.Success.WithWriter(w).Println(verdict.Message)
			return nil
		},
	}
	cmd.Flags().StringVar(&sample, "sample", "", "use a built-in sample: normal or fraud")
	return cmd
}

func newAskCommand(env *commandEnv) *cobra.Command {
	var sessionID string
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a question about the sales data",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.Join(args, " ")
			var turn turnResponse
			resp, err := env.client().postJSON(cmd.Context(), "/v1/report/ask", map[string]string{"question": question}, map[string]string{sessionHeader: sessionID}, &turn)
			if err != nil {
				return err
			}
			w := env.out(cmd)
			if env.flags.json {
				pretty, _ := prettyJSON(resp.body)
				_, _ = fmt.Fprintln(w, pretty)
				return nil
			}
			renderTurn(w, turn)
			return nil
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "session id returned by a previous ask")
	return cmd
}

func renderTurn(w io.Writer, turn turnResponse) {
	pterm.Info.WithWriter(w).Printfln("session %s turn %s", turn.SessionID, turn.TurnID)
	if len(turn.Items) == 0 {
		pterm.Warning.WithWriter(w).Println("no SQL statements were generated")
	}
	for _, item := range turn.Items {
		title := fmt.Sprintf("item %d", item.Index)
		_, _ = fmt.Fprintln(w, pterm.DefaultBox.WithTitle(title).Sprint(item.SQL))
		if item.Error != "" {
			pterm.Error.WithWriter(w).Println(item.Error)
			continue
		}
		data := make([][]string, 0, len(item.Rows)+1)
		data = append(data, item.Columns)
		for _, row := range item.Rows {
			data = append(data, query.FormatRow(row))
		}
		_ = pterm.DefaultTable.WithHasHeader().WithData(data).WithWriter(w).Render()

		switch {
		case item.ChartError != "":
			pterm.Warning.WithWriter(w).Println("chart: " + item.ChartError)
		case item.ChartPNG != "":
			size := base64.StdEncoding.DecodedLen(len(item.ChartPNG))
			pterm.Info.WithWriter(w).Printfln("chart rendered (~%d bytes)", size)
		}
		if item.InsightError != "" {
			pterm.Warning.WithWriter(w).Println("insight: " + item.InsightError)
		} else if item.Insight != "" {
			_, _ = fmt.Fprintln(w, item.Insight)
		}
		for _, format := range []string{"csv", "png", "parquet"} {
			if url, ok := item.Exports[format]; ok {
				_, _ = fmt.Fprintf(w, "  %s: %s\n", format, url)
			}
		}
	}
}

func newHistoryCommand(env *commandEnv) *cobra.Command {
	var sessionID string
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the chat history of a report session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(sessionID) == "" {
				return errors.New("--session is required")
			}
			var history historyResponse
			resp, err := env.client().getJSON(cmd.Context(), "/v1/report/history", map[string]string{sessionHeader: sessionID}, &history)
			if err != nil {
				return err
			}
			w := env.out(cmd)
			if env.flags.json {
				pretty, _ := prettyJSON(resp.body)
				_, _ = fmt.Fprintln(w, pretty)
				return nil
			}
			if len(history.Entries) == 0 {
				pterm.Warning.WithWriter(w).Println("session has no history")
				return nil
			}
			data := [][]string{{"time", "role", "content"}}
			for _, entry := range history.Entries {
				data = append(data, []string{entry.At.Format("15:04:05"), string(entry.Role), entry.Content})
			}
			return pterm.DefaultTable.WithHasHeader().WithData(data).WithWriter(w).Render()
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "session id")
	return cmd
}

func newExportCommand(env *commandEnv) *cobra.Command {
	var (
		sessionID string
		turnID    string
		item      int
		format    string
		output    string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download a result table or chart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(sessionID) == "" || strings.TrimSpace(turnID) == "" {
				return errors.New("--session and --turn are required")
			}
			if item < 1 {
				return errors.New("--item must be >= 1")
			}
			format = strings.ToLower(strings.TrimSpace(format))
			switch format {
			case "csv", "png", "parquet":
			default:
				return fmt.Errorf("unsupported format %q", format)
			}

			resp, err := env.client().do(cmd.Context(), "GET", exportPath(turnID, item, format), nil, map[string]string{sessionHeader: sessionID})
			if err != nil {
				return err
			}

			if output == "-" {
				if _, err := env.out(cmd).Write(resp.body); err != nil {
					return &outputError{err: err}
				}
				return nil
			}
			if output == "" {
				output = fmt.Sprintf("query_result_%d.%s", item, format)
			}
			if err := os.WriteFile(output, resp.body, 0o644); err != nil {
				return &outputError{err: err}
			}
			pterm.Success.WithWriter(env.out(cmd)).Printfln("wrote %d bytes to %s", len(resp.body), output)
			return nil
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "session id")
	cmd.Flags().StringVar(&turnID, "turn", "", "turn id")
	cmd.Flags().IntVar(&item, "item", 1, "item number, starting at 1")
	cmd.Flags().StringVar(&format, "format", "csv", "csv, png or parquet")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, or - for stdout")
	return cmd
}
