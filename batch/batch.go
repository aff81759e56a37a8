// Package batch describes a production batch of plants of one species.
// It has no storage of its own.
package batch

import (
	"fmt"
	"strings"
	"time"

	"github.com/kjk/asistentepa/species"
)

type Status int

const (
	Prepared Status = iota
	Sown
	Growing
	ReadyForSale
	Empty
)

// labels as they appear in existing batch records
var statusLabels = []string{
	Prepared:     "Preparado",
	Sown:         "Sembrado",
	Growing:      "En crecimiento",
	ReadyForSale: "Listo para venta",
	Empty:        "Vacío",
}

func (s Status) String() string {
	if s >= 0 && int(s) < len(statusLabels) {
		return statusLabels[s]
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// ParseStatus parses a status label, ignoring case
func ParseStatus(s string) (Status, error) {
	s = strings.TrimSpace(s)
	for i, label := range statusLabels {
		if strings.EqualFold(s, label) {
			return Status(i), nil
		}
	}
	return 0, fmt.Errorf("unknown batch status '%s'", s)
}

type Batch struct {
	ID string
	// scientific name of the species, see species.Store
	Species         string
	Capacity        int
	CurrentQuantity int

	CreatedAt          time.Time
	SownAt             time.Time
	TransplantedAt     time.Time
	EstimatedHarvestAt time.Time
	HarvestedAt        time.Time

	Status Status
}

// SpeciesFinder is implemented by *species.Store
type SpeciesFinder interface {
	Find(key string) (*species.Species, error)
}

// CheckSpecies returns species.ErrNotFound if b refers to a species
// that isn't stored
func (b *Batch) CheckSpecies(f SpeciesFinder) (*species.Species, error) {
	sp, err := f.Find(b.Species)
	if err != nil {
		return nil, fmt.Errorf("batch '%s': %w", b.ID, err)
	}
	return sp, nil
}
