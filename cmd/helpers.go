package cmd

import (
	"encoding/json"
	"os"

	"github.com/beefcake-data/beefcake/internal/app"
	"github.com/beefcake-data/beefcake/internal/model"
)

// formatOrDefault resolves the render format from the --format global flag,
// falling back to the resolved config's default format.
func formatOrDefault(deps *app.Deps) string {
	if globalFlags.Format != "" {
		return globalFlags.Format
	}
	return deps.Config.Format
}

// previewRows bounds how many rows of a DataFrame a rendered preview carries.
const previewRows = 20

// loadCleaningConfigs reads a JSON file holding a map of column name to
// model.CleaningConfig, the --config flag's payload across import/export/clean.
func loadCleaningConfigs(path string) (map[string]model.CleaningConfig, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, model.Context(model.ErrIo, "cmd.load_config", err)
	}
	var configs map[string]model.CleaningConfig
	if err := json.Unmarshal(data, &configs); err != nil {
		return nil, model.Context(model.ErrParse, "cmd.parse_config", err)
	}
	return configs, nil
}

// previewFromDataFrame bounds df to its first previewRows rows for table/JSON
// rendering, without materialising the whole frame a second time.
func previewFromDataFrame(df *model.DataFrame) model.DataFramePreview {
	n := df.NumRows()
	limit := n
	if limit > previewRows {
		limit = previewRows
	}
	rows := make([]model.Row, limit)
	for i := 0; i < limit; i++ {
		rows[i] = df.Row(i)
	}
	return model.DataFramePreview{
		Schema:    df.Schema(),
		Rows:      rows,
		TotalRows: int64(n),
		Truncated: limit < n,
	}
}
