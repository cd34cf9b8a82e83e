package parsers

import (
	"io"

	"github.com/username/finsight/src/models"
)

// Parser converts one source document into draft canonical periods.
// Drafts are unvalidated; the ingestion service decides what gets stored.
type Parser interface {
	Parse(r io.Reader) ([]models.CanonicalPeriod, error)
}
