package toml

import (
	"fmt"
	"time"

	"github.com/bnema/dindex-chat/internal/domain"
)

const currentSchemaVersion = 1

type fileSchema struct {
	Version int            `toml:"version"`
	Records []recordSchema `toml:"records"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported records schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

func (s fileSchema) lastSeq() uint64 {
	if len(s.Records) == 0 {
		return 0
	}

	return s.Records[len(s.Records)-1].Seq
}

// after returns the records with a sequence number above cursor.
func (s fileSchema) after(cursor uint64) []domain.Record {
	var out []domain.Record
	for _, entry := range s.Records {
		if entry.Seq > cursor {
			out = append(out, fromSchema(entry))
		}
	}

	return out
}

type recordSchema struct {
	Seq         uint64            `toml:"seq"`
	PublishedAt string            `toml:"published_at,omitempty"`
	Fields      map[string]string `toml:"fields"`
}

func toSchema(seq uint64, rec domain.Record, publishedAt time.Time) recordSchema {
	return recordSchema{
		Seq:         seq,
		PublishedAt: formatTime(publishedAt),
		Fields:      rec.Fields(),
	}
}

func fromSchema(entry recordSchema) domain.Record {
	return domain.NewRecord(entry.Fields)
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}

	return value.UTC().Format(time.RFC3339Nano)
}
