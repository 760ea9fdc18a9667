package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// WriteSnapshot persists the table as a timestamped CSV file under dir,
// named <prefix>_YYYYMMDD.csv, and returns the written path.
//
// Snapshots exist for reproducibility and auditing only. Callers are
// expected to log a failed write and continue; a missing snapshot never
// invalidates a training run.
func WriteSnapshot(dir, prefix string, t Table) (string, error) {
	return WriteSnapshotAt(dir, prefix, t, time.Now())
}

// WriteSnapshotAt is WriteSnapshot with an explicit timestamp for the file
// name, used by tests.
func WriteSnapshotAt(dir, prefix string, t Table, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create data dir: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%s_%s.csv", prefix, now.Format("20060102")))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create snapshot: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)

	header := append(append([]string{}, t.Columns...), t.Target)
	if err := w.Write(header); err != nil {
		return "", fmt.Errorf("write snapshot header: %w", err)
	}

	record := make([]string, len(header))
	for _, row := range t.Rows {
		for i, col := range t.Columns {
			record[i] = strconv.FormatFloat(row[col], 'g', -1, 64)
		}
		record[len(record)-1] = strconv.FormatFloat(row[t.Target], 'g', -1, 64)
		if err := w.Write(record); err != nil {
			return "", fmt.Errorf("write snapshot row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush snapshot: %w", err)
	}

	return path, nil
}
