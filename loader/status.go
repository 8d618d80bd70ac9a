package loader

import (
	"fmt"
	"time"

	"github.com/KYVENetwork/csv-dlt/destinations"
	"github.com/google/uuid"
)

type Status struct {
	RunID uuid.UUID
	Key   string
	Table destinations.TableIdentity

	Rows            int64
	Columns         int
	DatetimeColumns []string

	Duration time.Duration
}

func (s Status) String() string {
	return fmt.Sprintf(
		"Key: %s, Table: %s, Rows: %d, Columns: %d (%d datetime)",
		s.Key,
		s.Table,
		s.Rows,
		s.Columns,
		len(s.DatetimeColumns),
	)
}

type Result struct {
	Status Status
	Err    error
}

// Summary collects the results of all runs of a sync.
type Summary struct {
	Succeeded []Status
	Failed    []Result
}

func (s Summary) Rows() int64 {
	var rows int64
	for _, status := range s.Succeeded {
		rows += status.Rows
	}
	return rows
}

func (s Summary) Ok() bool {
	return len(s.Failed) == 0
}

func (s Summary) String() string {
	return fmt.Sprintf("succeeded: %d, failed: %d, rows: %d", len(s.Succeeded), len(s.Failed), s.Rows())
}
