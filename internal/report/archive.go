package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/ledgerlens/ledgerlens/internal/storage"
)

// Archiver copies turn exports to an object store.
type Archiver struct {
	Store  storage.ObjectStore
	Logger *slog.Logger
}

func NewArchiver(store storage.ObjectStore, logger *slog.Logger) *Archiver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Archiver{Store: store, Logger: logger}
}

// ArchiveTurn writes every available export of every item. It keeps going
// after a failed upload and returns all failures joined.
func (a *Archiver) ArchiveTurn(ctx context.Context, sessionID string, turn Turn) error {
	var errs []error
	written := 0
	for _, item := range turn.Items {
		for _, format := range item.Formats() {
			key, err := storage.BuildReportObjectPath(sessionID, turn.ID, item.Index, format)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			data, err := item.Export(format)
			if err != nil {
				errs = append(errs, fmt.Errorf("export %s: %w", key, err))
				continue
			}
			contentType, _ := storage.ContentType(format)
			if _, err := a.Store.Put(ctx, key, bytes.NewReader(data), int64(len(data)), storage.PutOptions{ContentType: contentType}); err != nil {
				errs = append(errs, err)
				continue
			}
			written++
		}
	}
	a.Logger.Debug("report turn archived",
		slog.String("session_id", sessionID),
		slog.String("turn_id", turn.ID),
		slog.Int("objects", written),
	)
	return errors.Join(errs...)
}

// Open fetches one archived export.
func (a *Archiver) Open(ctx context.Context, sessionID, turnID string, item int, format string) (io.ReadCloser, storage.ObjectInfo, error) {
	key, err := storage.BuildReportObjectPath(sessionID, turnID, item, format)
	if err != nil {
		return nil, storage.ObjectInfo{}, err
	}
	return a.Store.Get(ctx, key)
}
