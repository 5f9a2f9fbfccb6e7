package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	presencerender "github.com/bnema/dindex-chat/internal/adapters/render/presence"
	"github.com/bnema/dindex-chat/internal/domain"
)

func presenceRenderOptions(app *app) presencerender.RenderOptions {
	return presencerender.RenderOptions{
		Now:  app.clock.Now(),
		Self: app.settings.Username,
	}
}

func writeRecordsJSON(w io.Writer, records []domain.Record) error {
	if records == nil {
		records = []domain.Record{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

// writeRecordLine prints one record as {key="value" ...} or, for JSON, as
// one compact object per line.
func writeRecordLine(w io.Writer, rec domain.Record, asJSON bool) error {
	if asJSON {
		return json.NewEncoder(w).Encode(rec)
	}

	_, err := fmt.Fprintln(w, rec.String())
	return err
}
