package loader

import (
	"github.com/beefcake-data/beefcake/internal/ldf"
	"github.com/beefcake-data/beefcake/internal/parquetio"
)

// newParquetSourceAdapter defers to internal/parquetio, which owns the
// xitongsys/parquet-go wiring; the loader only needs to pick the right
// package per extension.
func newParquetSourceAdapter(path string) (ldf.Source, error) {
	return parquetio.Scan(path)
}
