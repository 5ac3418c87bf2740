package indexfile

import (
	"time"

	domidx "github.com/greenloop-ai/ecocoach/internal/domain/index"
)

// metaDTO is the persisted index metadata record.
type metaDTO struct {
	FormatVersion int       `json:"format_version"`
	Dimension     int       `json:"dimension"`
	EntryCount    int       `json:"entry_count"`
	BuiltAt       time.Time `json:"built_at"`
}

// entryDTO is one persisted index entry. Vectors are stored as JSON number
// arrays; Go emits shortest-form decimals that re-parse to the same float32
// bits, so round-trips are exact.
type entryDTO struct {
	DocumentID string    `json:"document_id"`
	Seq        int       `json:"seq"`
	Text       string    `json:"text"`
	Vector     []float32 `json:"vector"`
}

func toEntryDTO(e domidx.Entry) entryDTO {
	return entryDTO{
		DocumentID: e.DocumentID(),
		Seq:        e.Seq(),
		Text:       e.Text(),
		Vector:     e.Vector(),
	}
}

func (d entryDTO) toDomain() domidx.Entry {
	return domidx.NewEntry(d.DocumentID, d.Seq, d.Text, d.Vector)
}
