package dictionary

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/beefcake-data/beefcake/internal/model"
)

// DictionariesDir is the fixed subdirectory name under a base path where
// dictionary snapshots are stored, one JSON file per snapshot.
const DictionariesDir = "dictionaries"

// SnapshotMetadata is the lightweight summary returned by ListSnapshots,
// cheap enough to build for every file in the directory without the
// caller paying for the full column catalog.
type SnapshotMetadata struct {
	SnapshotID      uuid.UUID `json:"snapshot_id"`
	DatasetName     string    `json:"dataset_name"`
	Timestamp       time.Time `json:"timestamp"`
	OutputHash      string    `json:"output_hash"`
	RowCount        int       `json:"row_count"`
	ColumnCount     int       `json:"column_count"`
	CompletenessPct float64   `json:"completeness_pct"`
}

// SaveSnapshot writes snapshot to {basePath}/dictionaries/{snapshot_id}.json
// via the write-temp-then-rename idiom, and returns the final path.
func SaveSnapshot(snapshot *DataDictionary, basePath string) (string, error) {
	dir := filepath.Join(basePath, DictionariesDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", model.Context(model.ErrIo, "dictionary.save_snapshot", err)
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", model.Context(model.ErrInternal, "dictionary.save_snapshot", err)
	}

	finalPath := filepath.Join(dir, snapshot.SnapshotID.String()+".json")
	tmp, err := os.CreateTemp(dir, "snapshot-*.json.tmp")
	if err != nil {
		return "", model.Context(model.ErrIo, "dictionary.save_snapshot", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", model.Context(model.ErrIo, "dictionary.save_snapshot", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", model.Context(model.ErrIo, "dictionary.save_snapshot", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", model.Context(model.ErrIo, "dictionary.save_snapshot", err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return "", model.Context(model.ErrIo, "dictionary.save_snapshot", err)
	}
	return finalPath, nil
}

// LoadSnapshot reads the snapshot file for snapshotID from basePath.
func LoadSnapshot(snapshotID uuid.UUID, basePath string) (*DataDictionary, error) {
	path := filepath.Join(basePath, DictionariesDir, snapshotID.String()+".json")
	return loadSnapshotFromPath(path)
}

func loadSnapshotFromPath(path string) (*DataDictionary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, model.Context(model.ErrIo, "dictionary.load_snapshot", err)
	}
	var dict DataDictionary
	if err := json.Unmarshal(data, &dict); err != nil {
		return nil, model.Context(model.ErrSchema, "dictionary.load_snapshot", err)
	}
	return &dict, nil
}

// ListSnapshots returns the summary of every snapshot under basePath,
// newest first. datasetHashFilter, when non-empty, restricts the result
// to snapshots whose OutputDatasetHash matches.
func ListSnapshots(basePath, datasetHashFilter string) ([]SnapshotMetadata, error) {
	dir := filepath.Join(basePath, DictionariesDir)
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, model.Context(model.ErrIo, "dictionary.list_snapshots", err)
	}

	var out []SnapshotMetadata
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		dict, err := loadSnapshotFromPath(filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		hash := dict.DatasetMetadata.Technical.OutputDatasetHash
		if datasetHashFilter != "" && hash != datasetHashFilter {
			continue
		}
		out = append(out, SnapshotMetadata{
			SnapshotID:      dict.SnapshotID,
			DatasetName:     dict.DatasetName,
			Timestamp:       dict.ExportTimestamp,
			OutputHash:      hash,
			RowCount:        dict.DatasetMetadata.Technical.RowCount,
			ColumnCount:     dict.DatasetMetadata.Technical.ColumnCount,
			CompletenessPct: dict.DocumentationCompleteness(),
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}

// UpdateBusinessMetadata loads snapshotID, applies the given business
// metadata updates, and saves the result as a new snapshot version
// linked back to the one it supersedes. Either argument may be nil to
// leave that layer untouched.
func UpdateBusinessMetadata(snapshotID uuid.UUID, basePath string, datasetBusiness *DatasetBusinessMetadata, columnBusinessUpdates map[string]ColumnBusinessMetadata) (*DataDictionary, error) {
	snapshot, err := LoadSnapshot(snapshotID, basePath)
	if err != nil {
		return nil, err
	}

	if datasetBusiness != nil {
		snapshot.DatasetMetadata.Business = *datasetBusiness
	}
	if columnBusinessUpdates != nil {
		for i, col := range snapshot.Columns {
			if update, ok := columnBusinessUpdates[col.CurrentName]; ok {
				snapshot.Columns[i].Business = update
			}
		}
	}

	oldID := snapshot.SnapshotID
	snapshot.SnapshotID = uuid.New()
	snapshot.PreviousSnapshotID = &oldID
	snapshot.ExportTimestamp = time.Now().UTC()

	if _, err := SaveSnapshot(snapshot, basePath); err != nil {
		return nil, err
	}
	return snapshot, nil
}
