package model

import "time"

// LifecycleStage is a dataset version's position in the ordered pipeline
// Raw → Profiled → Cleaned → Advanced → Validated → Published. Stage
// transitions within one version lineage are monotonic: a child version's
// stage is always >= its parent's.
type LifecycleStage int

const (
	StageRaw LifecycleStage = iota
	StageProfiled
	StageCleaned
	StageAdvanced
	StageValidated
	StagePublished
)

func (s LifecycleStage) String() string {
	switch s {
	case StageRaw:
		return "Raw"
	case StageProfiled:
		return "Profiled"
	case StageCleaned:
		return "Cleaned"
	case StageAdvanced:
		return "Advanced"
	case StageValidated:
		return "Validated"
	case StagePublished:
		return "Published"
	default:
		return "Unknown"
	}
}

// ParseLifecycleStage maps a stage name back to its LifecycleStage.
func ParseLifecycleStage(s string) (LifecycleStage, bool) {
	for st := StageRaw; st <= StagePublished; st++ {
		if st.String() == s {
			return st, true
		}
	}
	return 0, false
}

// DataLocationKind discriminates DataLocation's two variants.
type DataLocationKind string

const (
	LocationView     DataLocationKind = "view"
	LocationSnapshot DataLocationKind = "snapshot"
)

// DataLocation is a Version's data: either a View (source URI + pipeline,
// computed on demand) or a Snapshot (a materialised Parquet file on disk).
type DataLocation struct {
	Kind DataLocationKind `json:"kind"`

	// View fields.
	SourceURI string             `json:"source_uri,omitempty"`
	Pipeline  TransformPipeline  `json:"pipeline,omitempty"`

	// Snapshot fields.
	Path string `json:"path,omitempty"`
}

// Version is one immutable point in a Dataset's version DAG (a tree: each
// Version has at most one parent). apply_transforms always creates a new
// Version; nothing ever mutates an existing one in place.
type Version struct {
	ID               string            `json:"id"`
	ParentID         string            `json:"parent_id,omitempty"`
	Stage            LifecycleStage    `json:"stage"`
	Pipeline         TransformPipeline `json:"pipeline"`
	DataLocation     DataLocation      `json:"data_location"`
	Schema           Schema            `json:"schema"`
	SchemaFingerprint string           `json:"schema_fingerprint"`
	RowCount         int64             `json:"row_count"`
	ColCount         int               `json:"col_count"`
	CreatedUTC       time.Time         `json:"created_utc"`
}

// Dataset exclusively owns its Versions, keyed by ID in an append-only
// table; references between versions are IDs, never owning pointers.
type Dataset struct {
	ID              string             `json:"id"`
	Name            string             `json:"name"`
	CreatedUTC      time.Time          `json:"created_utc"`
	Versions        map[string]*Version `json:"versions"`
	ActiveVersionID string             `json:"active_version_id"`
}

// ActiveVersion returns the Dataset's currently-active Version, or nil.
func (d *Dataset) ActiveVersion() *Version {
	return d.Versions[d.ActiveVersionID]
}

// DiffSummary is the result of comparing two versions' schemas and row
// counts (§4.5 compute_diff).
type DiffSummary struct {
	AddedCols    []string        `json:"added_cols"`
	RemovedCols  []string        `json:"removed_cols"`
	ChangedTypes []ChangedType   `json:"changed_types"`
	RowDelta     int64           `json:"row_delta"`
}

// ChangedType records that column Name's type changed From → To between
// two versions.
type ChangedType struct {
	Name string `json:"name"`
	From string `json:"from"`
	To   string `json:"to"`
}
