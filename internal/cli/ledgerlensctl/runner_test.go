package ledgerlensctl

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pterm/pterm"

	"github.com/ledgerlens/ledgerlens/internal/fraud"
)

func TestMain(m *testing.M) {
	pterm.DisableStyling()
	os.Exit(m.Run())
}

func TestRunHealthCommand(t *testing.T) {
	var gotMethod, gotPath, gotAPIKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotAPIKey = r.Header.Get("X-API-Key")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok","service":"ledgerlens-api"}`))
	}))
	defer srv.Close()

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	code := Run(context.Background(), []string{
		"--base-url", srv.URL,
		"--api-key", "k1",
		"--json",
		"health",
	}, Options{
		Stdout:  &stdout,
		Stderr:  &stderr,
		Timeout: 2 * time.Second,
	})
	if code != 0 {
		t.Fatalf("exit code = %d, stderr=%s", code, stderr.String())
	}
	if gotMethod != http.MethodGet || gotPath != "/v1/health" {
		t.Fatalf("request = %s %s", gotMethod, gotPath)
	}
	if gotAPIKey != "k1" {
		t.Fatalf("api key = %q", gotAPIKey)
	}
	if !strings.Contains(stdout.String(), `"service": "ledgerlens-api"`) {
		t.Fatalf("stdout = %s", stdout.String())
	}
}

func TestRunPredictWithSample(t *testing.T) {
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/fraud/predict" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(fraud.Render(fraud.LabelFraud))
	}))
	defer srv.Close()

	var stdout bytes.Buffer
	code := Run(context.Background(), []string{"--base-url", srv.URL, "predict", "--sample", "fraud"}, Options{Stdout: &stdout})
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if gotBody["input"] != fraud.SampleFraud {
		t.Fatalf("input = %q", gotBody["input"])
	}
	if !strings.Contains(stdout.String(), "Fraudulent Transaction Detected") {
		t.Fatalf("stdout = %s", stdout.String())
	}
}

func TestRunPredictRejectsBadUsage(t *testing.T) {
	tests := [][]string{
		{"predict"},
		{"predict", "--sample", "weird"},
		{"predict", "--sample", "normal", "1,2,3"},
	}
	for _, args := range tests {
		var stderr bytes.Buffer
		code := Run(context.Background(), append([]string{"--base-url", "http://127.0.0.1:1"}, args...), Options{Stderr: &stderr})
		if code != 2 {
			t.Fatalf("Run(%v) exit code = %d", args, code)
		}
	}
}

func TestRunAskRendersItems(t *testing.T) {
	var gotSession string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSession = r.Header.Get(sessionHeader)
		_, _ = w.Write([]byte(`{
			"session_id":"s-1","turn_id":"t-1","question":"sales by year",
			"items":[
				{"index":1,"sql":"SELECT YEAR_ID, SUM(SALES) FROM sales_data GROUP BY 1","columns":["YEAR_ID","total"],"rows":[[2003,3516979.54]],
				 "insight":"2003 was strong.","exports":{"csv":"/v1/report/turns/t-1/items/1/export.csv?session=s-1"}},
				{"index":2,"sql":"SELEC 2","error":"Parser Error: syntax error"}
			]}`))
	}))
	defer srv.Close()

	var stdout bytes.Buffer
	code := Run(context.Background(), []string{"--base-url", srv.URL, "ask", "--session", "s-1", "sales", "by", "year"}, Options{Stdout: &stdout})
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if gotSession != "s-1" {
		t.Fatalf("session header = %q", gotSession)
	}
	out := stdout.String()
	for _, want := range []string{"YEAR_ID", "3516979.54", "2003 was strong.", "Parser Error: syntax error", "export.csv"} {
		if !strings.Contains(out, want) {
			t.Fatalf("stdout missing %q:\n%s", want, out)
		}
	}
}

func TestRunHistoryRequiresSession(t *testing.T) {
	code := Run(context.Background(), []string{"history"}, Options{})
	if code != 2 {
		t.Fatalf("exit code = %d", code)
	}
}

func TestRunExportWritesFile(t *testing.T) {
	var gotPath, gotSession string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotSession = r.Header.Get(sessionHeader)
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte("a,b\n1,2\n"))
	}))
	defer srv.Close()

	output := filepath.Join(t.TempDir(), "out.csv")
	code := Run(context.Background(), []string{
		"--base-url", srv.URL,
		"export", "--session", "s-1", "--turn", "t-1", "--item", "2", "--format", "csv", "--output", output,
	}, Options{})
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if gotPath != "/v1/report/turns/t-1/items/2/export.csv" || gotSession != "s-1" {
		t.Fatalf("request path=%q session=%q", gotPath, gotSession)
	}
	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != "a,b\n1,2\n" {
		t.Fatalf("file = %q", data)
	}
}

func TestRunReturnsErrorOnHTTPFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error_code":"FORBIDDEN","message":"role fraud_scorer is required"}`))
	}))
	defer srv.Close()

	var stderr bytes.Buffer
	code := Run(context.Background(), []string{"--base-url", srv.URL, "samples"}, Options{Stderr: &stderr})
	if code != 1 {
		t.Fatalf("exit code = %d, stderr=%s", code, stderr.String())
	}
	if !strings.Contains(stderr.String(), "FORBIDDEN") {
		t.Fatalf("stderr = %s", stderr.String())
	}
}

func TestRunUnknownCommand(t *testing.T) {
	var stderr bytes.Buffer
	code := Run(context.Background(), []string{"unknown"}, Options{Stderr: &stderr})
	if code != 2 {
		t.Fatalf("exit code = %d", code)
	}
	if stderr.Len() == 0 {
		t.Fatal("expected error output")
	}
}
