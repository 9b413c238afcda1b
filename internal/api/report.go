package api

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ledgerlens/ledgerlens/internal/chart"
	"github.com/ledgerlens/ledgerlens/internal/nl2sql"
	"github.com/ledgerlens/ledgerlens/internal/observability"
	"github.com/ledgerlens/ledgerlens/internal/report"
	"github.com/ledgerlens/ledgerlens/internal/session"
	"github.com/ledgerlens/ledgerlens/internal/storage"
)

type reportAskRequest struct {
	Question string `json:"question"`
}

type reportSchemaResponse struct {
	Table       string          `json:"table"`
	Columns     []nl2sql.Column `json:"columns"`
	Description string          `json:"description"`
}

type reportTurnResponse struct {
	SessionID string               `json:"session_id"`
	TurnID    string               `json:"turn_id"`
	Question  string               `json:"question"`
	CreatedAt time.Time            `json:"created_at"`
	Items     []reportItemResponse `json:"items"`
}

type reportItemResponse struct {
	Index        int               `json:"index"`
	SQL          string            `json:"sql"`
	Columns      []string          `json:"columns,omitempty"`
	Rows         [][]any           `json:"rows,omitempty"`
	Error        string            `json:"error,omitempty"`
	Chart        chart.Spec        `json:"chart"`
	ChartPNG     string            `json:"chart_png,omitempty"`
	ChartError   string            `json:"chart_error,omitempty"`
	Insight      string            `json:"insight,omitempty"`
	InsightError string            `json:"insight_error,omitempty"`
	Exports      map[string]string `json:"exports,omitempty"`
}

type reportHistoryResponse struct {
	SessionID string          `json:"session_id"`
	Entries   []session.Entry `json:"entries"`
	TurnIDs   []string        `json:"turn_ids"`
}

func handleReportSchema(deps Dependencies, w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, reportSchemaResponse{
		Table:       deps.Schema.Table,
		Columns:     deps.Schema.Columns,
		Description: deps.Schema.Text(),
	})
}

func handleReportAsk(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Reports == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "REPORT_NOT_CONFIGURED", "report agent is not configured", false, nil)
		return
	}

	var request reportAskRequest
	if err := decodeJSON(w, r, &request); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid ask request body", false, map[string]any{"details": err.Error()})
		return
	}

	sess, created := deps.Sessions.GetOrCreate(sessionIDFromRequest(r))
	w.Header().Set(observability.SessionHeader, sess.ID)
	if created && deps.Logger != nil {
		deps.Logger.DebugContext(r.Context(), "report session created", slog.String("session_id", sess.ID))
	}

	turn, err := deps.Reports.Run(r.Context(), request.Question, sess.History)
	switch {
	case errors.Is(err, report.ErrEmptyQuestion):
		writeError(r.Context(), w, http.StatusBadRequest, "QUESTION_REQUIRED", "question is required", false, nil)
		return
	case errors.Is(err, report.ErrGeneration):
		writeError(r.Context(), w, http.StatusBadGateway, "GENERATION_FAILED", "the text-generation service failed", true, map[string]any{"details": err.Error(), "session_id": sess.ID})
		return
	case err != nil:
		writeError(r.Context(), w, http.StatusInternalServerError, "REPORT_FAILED", err.Error(), false, nil)
		return
	}

	sess.AddTurn(turn.ID, turn)
	if deps.Archive != nil {
		if err := deps.Archive.ArchiveTurn(r.Context(), sess.ID, turn); err != nil && deps.Logger != nil {
			deps.Logger.WarnContext(r.Context(), "report archive failed",
				slog.String("session_id", sess.ID),
				slog.String("turn_id", turn.ID),
				slog.Any("error", err),
			)
		}
	}

	writeJSON(w, http.StatusOK, newReportTurnResponse(sess.ID, turn))
}

func handleReportHistory(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	response := reportHistoryResponse{Entries: []session.Entry{}, TurnIDs: []string{}}
	if sess, ok := deps.Sessions.Get(sessionIDFromRequest(r)); ok {
		response.SessionID = sess.ID
		response.Entries = sess.History.Entries()
		response.TurnIDs = sess.TurnIDs()
		w.Header().Set(observability.SessionHeader, sess.ID)
	}
	writeJSON(w, http.StatusOK, response)
}

func handleReportExport(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	format, ok := strings.CutPrefix(r.PathValue("file"), "export.")
	if !ok {
		writeError(r.Context(), w, http.StatusNotFound, "NOT_FOUND", "unknown export path", false, nil)
		return
	}
	format = strings.ToLower(format)
	contentType, ok := storage.ContentType(format)
	if !ok {
		writeError(r.Context(), w, http.StatusBadRequest, "UNSUPPORTED_FORMAT", fmt.Sprintf("unsupported export format %q", format), false, nil)
		return
	}
	index, err := strconv.Atoi(r.PathValue("item"))
	if err != nil || index < 1 {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_ITEM", "item must be a positive integer", false, nil)
		return
	}
	turnID := r.PathValue("turn")
	sessionID := sessionIDFromRequest(r)
	filename := fmt.Sprintf("query_result_%d.%s", index, format)

	sess, ok := deps.Sessions.Get(sessionID)
	if ok {
		if turn, found := sess.Turn(turnID); found {
			item, found := turn.ItemAt(index)
			if !found {
				writeError(r.Context(), w, http.StatusNotFound, "ITEM_NOT_FOUND", "item not found", false, map[string]any{"item": index})
				return
			}
			data, err := item.Export(format)
			switch {
			case errors.Is(err, report.ErrNoChart):
				writeError(r.Context(), w, http.StatusNotFound, "NO_CHART", "item has no chart", false, map[string]any{"item": index})
				return
			case errors.Is(err, report.ErrNoTable):
				writeError(r.Context(), w, http.StatusConflict, "ITEM_FAILED", "item has no result table", false, map[string]any{"item": index, "error": item.Error})
				return
			case err != nil:
				writeError(r.Context(), w, http.StatusInternalServerError, "EXPORT_FAILED", err.Error(), false, nil)
				return
			}
			writeDownload(w, contentType, filename, int64(len(data)))
			_, _ = w.Write(data)
			return
		}
	}

	if deps.Archive == nil || sessionID == "" {
		writeError(r.Context(), w, http.StatusNotFound, "TURN_NOT_FOUND", "turn not found in this session", false, map[string]any{"turn": turnID})
		return
	}
	// Archive keys use the canonical session id.
	parsed, err := uuid.Parse(sessionID)
	if err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_SESSION", "session id must be a UUID", false, map[string]any{"session_id": sessionID})
		return
	}
	body, info, err := deps.Archive.Open(r.Context(), parsed.String(), turnID, index, format)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrObjectNotFound):
			writeError(r.Context(), w, http.StatusNotFound, "TURN_NOT_FOUND", "turn not found in this session", false, map[string]any{"turn": turnID})
			return
		case errors.Is(err, storage.ErrInvalidPath):
			writeError(r.Context(), w, http.StatusBadRequest, "INVALID_PATH", err.Error(), false, map[string]any{"turn": turnID})
			return
		}
		writeError(r.Context(), w, http.StatusBadGateway, "ARCHIVE_FAILED", "report archive is unavailable", true, map[string]any{"details": err.Error()})
		return
	}
	defer func() { _ = body.Close() }()
	if info.ContentType != "" {
		contentType = info.ContentType
	}
	writeDownload(w, contentType, filename, info.Size)
	_, _ = io.Copy(w, body)
}

func writeDownload(w http.ResponseWriter, contentType, filename string, size int64) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	}
	w.WriteHeader(http.StatusOK)
}

// sessionIDFromRequest reads the session header, falling back to the
// session query parameter used by plain download links.
func sessionIDFromRequest(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(observability.SessionHeader)); id != "" {
		return id
	}
	return strings.TrimSpace(r.URL.Query().Get("session"))
}

func newReportTurnResponse(sessionID string, turn report.Turn) reportTurnResponse {
	items := make([]reportItemResponse, 0, len(turn.Items))
	for _, item := range turn.Items {
		response := reportItemResponse{
			Index:        item.Index,
			SQL:          item.SQL,
			Columns:      item.Columns,
			Rows:         item.Rows,
			Error:        item.Error,
			Chart:        item.Chart,
			ChartError:   item.ChartError,
			Insight:      item.Insight,
			InsightError: item.InsightError,
		}
		if len(item.ChartPNG) > 0 {
			response.ChartPNG = base64.StdEncoding.EncodeToString(item.ChartPNG)
		}
		if formats := item.Formats(); len(formats) > 0 {
			response.Exports = make(map[string]string, len(formats))
			for _, format := range formats {
				response.Exports[format] = fmt.Sprintf("/v1/report/turns/%s/items/%d/export.%s?session=%s", turn.ID, item.Index, format, sessionID)
			}
		}
		items = append(items, response)
	}
	return reportTurnResponse{
		SessionID: sessionID,
		TurnID:    turn.ID,
		Question:  turn.Question,
		CreatedAt: turn.CreatedAt,
		Items:     items,
	}
}
