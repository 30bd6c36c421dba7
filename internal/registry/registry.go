// Package registry implements the dataset/version lifecycle: a versioned,
// append-only DAG of Versions under each Dataset, persisted as atomic JSON
// metadata files plus on-disk snapshot/view data locations. The registry
// mutex guards only in-memory metadata mutation; snapshot I/O happens
// outside the lock so a slow Parquet write never blocks a concurrent
// metadata read.
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/beefcake-data/beefcake/internal/model"
)

const metadataFileName = "datasets.json"

// Registry owns the dataset metadata file and the snapshots/ directory
// tree beneath root.
type Registry struct {
	mu       sync.Mutex
	root     string
	logger   zerolog.Logger
	datasets map[string]*model.Dataset
}

// Open loads (or initialises) the registry rooted at root.
func Open(root string, logger zerolog.Logger) (*Registry, error) {
	if err := os.MkdirAll(filepath.Join(root, "snapshots"), 0755); err != nil {
		return nil, model.Context(model.ErrIo, "registry.open", err)
	}
	r := &Registry{root: root, logger: logger, datasets: map[string]*model.Dataset{}}
	if err := r.load(); err != nil {
		return nil, err
	}
	return r, nil
}

// Close is a no-op placeholder for symmetry with the other app.Deps
// members; the registry holds no long-lived file handles between calls.
func (r *Registry) Close() error { return nil }

// Root returns the directory the registry is rooted at, so sibling
// on-disk subsystems (the data dictionary store) can nest under it.
func (r *Registry) Root() string { return r.root }

func (r *Registry) metadataPath() string {
	return filepath.Join(r.root, metadataFileName)
}

func (r *Registry) load() error {
	path := r.metadataPath()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return model.Context(model.ErrIo, "registry.load", err)
	}
	var raw map[string]*model.Dataset
	if err := json.Unmarshal(data, &raw); err != nil {
		return model.Context(model.ErrSchema, "registry.load", err)
	}
	r.datasets = raw
	return nil
}

// persist atomically rewrites the metadata file: write to a temp file in
// the same directory, fsync, then rename over the target.
func (r *Registry) persist() error {
	data, err := json.MarshalIndent(r.datasets, "", "  ")
	if err != nil {
		return model.Context(model.ErrInternal, "registry.persist", err)
	}
	tmp, err := os.CreateTemp(r.root, "datasets-*.json.tmp")
	if err != nil {
		return model.Context(model.ErrIo, "registry.persist", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return model.Context(model.ErrIo, "registry.persist", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return model.Context(model.ErrIo, "registry.persist", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return model.Context(model.ErrIo, "registry.persist", err)
	}
	if err := os.Rename(tmpPath, r.metadataPath()); err != nil {
		os.Remove(tmpPath)
		return model.Context(model.ErrIo, "registry.persist", err)
	}
	return nil
}

// CreateDataset registers a new Dataset with a single root Version at
// StageRaw pointing at loc.
func (r *Registry) CreateDataset(name string, loc model.DataLocation, schema model.Schema, rowCount int64, schemaFingerprint string) (*model.Dataset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	dsID := uuid.NewString()
	verID := uuid.NewString()
	now := time.Now().UTC()

	ver := &model.Version{
		ID:                verID,
		ParentID:          "",
		Stage:             model.StageRaw,
		Pipeline:          model.TransformPipeline{},
		DataLocation:      loc,
		Schema:            schema,
		SchemaFingerprint: schemaFingerprint,
		RowCount:          rowCount,
		ColCount:          len(schema.Fields),
		CreatedUTC:        now,
	}
	ds := &model.Dataset{
		ID:              dsID,
		Name:            name,
		CreatedUTC:      now,
		Versions:        map[string]*model.Version{verID: ver},
		ActiveVersionID: verID,
	}
	r.datasets[dsID] = ds
	if err := r.persist(); err != nil {
		delete(r.datasets, dsID)
		return nil, err
	}
	r.logger.Info().Str("dataset_id", dsID).Str("version_id", verID).Msg("dataset created")
	return ds, nil
}

// Get returns the dataset with the given ID.
func (r *Registry) Get(datasetID string) (*model.Dataset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ds, ok := r.datasets[datasetID]
	if !ok {
		return nil, model.Context(model.ErrValidation, "registry.get", fmt.Errorf("no dataset %q", datasetID))
	}
	return ds, nil
}

// List returns every dataset known to the registry.
func (r *Registry) List() []*model.Dataset {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.Dataset, 0, len(r.datasets))
	for _, ds := range r.datasets {
		out = append(out, ds)
	}
	return out
}

// ApplyTransforms appends a new Version to datasetID, parented on its
// current active version, advancing to newStage. The stage transition
// must be monotonic: newStage may not precede the parent's.
func (r *Registry) ApplyTransforms(datasetID string, pipeline model.TransformPipeline, newStage model.LifecycleStage, loc model.DataLocation, schema model.Schema, rowCount int64, schemaFingerprint string) (*model.Version, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ds, ok := r.datasets[datasetID]
	if !ok {
		return nil, model.Context(model.ErrValidation, "registry.apply_transforms", fmt.Errorf("no dataset %q", datasetID))
	}
	parent, ok := ds.Versions[ds.ActiveVersionID]
	if !ok {
		return nil, model.Context(model.ErrInternal, "registry.apply_transforms", fmt.Errorf("active version %q missing", ds.ActiveVersionID))
	}
	if newStage < parent.Stage {
		return nil, model.Context(model.ErrValidation, "registry.apply_transforms",
			fmt.Errorf("stage %s precedes parent stage %s", newStage, parent.Stage))
	}

	verID := uuid.NewString()
	ver := &model.Version{
		ID:                verID,
		ParentID:          parent.ID,
		Stage:             newStage,
		Pipeline:          parent.Pipeline.Concat(pipeline),
		DataLocation:      loc,
		Schema:            schema,
		SchemaFingerprint: schemaFingerprint,
		RowCount:          rowCount,
		ColCount:          len(schema.Fields),
		CreatedUTC:        time.Now().UTC(),
	}
	ds.Versions[verID] = ver
	ds.ActiveVersionID = verID
	if err := r.persist(); err != nil {
		delete(ds.Versions, verID)
		return nil, err
	}
	r.logger.Info().Str("dataset_id", datasetID).Str("version_id", verID).Str("stage", newStage.String()).Msg("version created")
	return ver, nil
}

// PublishVersion advances versionID to StagePublished, the terminal stage.
func (r *Registry) PublishVersion(datasetID, versionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ds, ok := r.datasets[datasetID]
	if !ok {
		return model.Context(model.ErrValidation, "registry.publish", fmt.Errorf("no dataset %q", datasetID))
	}
	ver, ok := ds.Versions[versionID]
	if !ok {
		return model.Context(model.ErrValidation, "registry.publish", fmt.Errorf("no version %q", versionID))
	}
	if ver.Stage == model.StagePublished {
		return nil
	}
	ver.Stage = model.StagePublished
	return r.persist()
}

// SetActiveVersion points datasetID's active version at versionID, which
// must already exist in the dataset's version map.
func (r *Registry) SetActiveVersion(datasetID, versionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ds, ok := r.datasets[datasetID]
	if !ok {
		return model.Context(model.ErrValidation, "registry.set_active", fmt.Errorf("no dataset %q", datasetID))
	}
	if _, ok := ds.Versions[versionID]; !ok {
		return model.Context(model.ErrValidation, "registry.set_active", fmt.Errorf("no version %q", versionID))
	}
	ds.ActiveVersionID = versionID
	return r.persist()
}

// ComputeDiff compares two versions' schemas and row counts.
func (r *Registry) ComputeDiff(datasetID, fromVersionID, toVersionID string) (model.DiffSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ds, ok := r.datasets[datasetID]
	if !ok {
		return model.DiffSummary{}, model.Context(model.ErrValidation, "registry.diff", fmt.Errorf("no dataset %q", datasetID))
	}
	from, ok := ds.Versions[fromVersionID]
	if !ok {
		return model.DiffSummary{}, model.Context(model.ErrValidation, "registry.diff", fmt.Errorf("no version %q", fromVersionID))
	}
	to, ok := ds.Versions[toVersionID]
	if !ok {
		return model.DiffSummary{}, model.Context(model.ErrValidation, "registry.diff", fmt.Errorf("no version %q", toVersionID))
	}
	return diffFingerprints(from, to), nil
}

// SnapshotPath returns the path under root/snapshots where a Parquet
// snapshot for this version should live.
func (r *Registry) SnapshotPath(datasetID, versionID string) string {
	return filepath.Join(r.root, "snapshots", datasetID, versionID+".parquet")
}

// Stats reports per-dataset snapshot byte totals.
type DatasetStats struct {
	DatasetID   string
	VersionCount int
	SnapshotBytes int64
}

func (r *Registry) Stats() ([]DatasetStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]DatasetStats, 0, len(r.datasets))
	for id, ds := range r.datasets {
		var total int64
		dir := filepath.Join(r.root, "snapshots", id)
		entries, err := os.ReadDir(dir)
		if err == nil {
			for _, e := range entries {
				if info, err := e.Info(); err == nil {
					total += info.Size()
				}
			}
		}
		out = append(out, DatasetStats{DatasetID: id, VersionCount: len(ds.Versions), SnapshotBytes: total})
	}
	return out, nil
}
