package registry

import "github.com/beefcake-data/beefcake/internal/model"

// diffFingerprints compares from and to's schemas and row counts,
// producing the added/removed/retyped column summary compute_diff reports.
func diffFingerprints(from, to *model.Version) model.DiffSummary {
	fromFields := map[string]model.DType{}
	for _, f := range from.Schema.Fields {
		fromFields[f.Name] = f.DType
	}
	toFields := map[string]model.DType{}
	for _, f := range to.Schema.Fields {
		toFields[f.Name] = f.DType
	}

	var added, removed []string
	var changed []model.ChangedType

	for _, f := range to.Schema.Fields {
		oldType, existed := fromFields[f.Name]
		if !existed {
			added = append(added, f.Name)
			continue
		}
		if oldType != f.DType {
			changed = append(changed, model.ChangedType{Name: f.Name, From: oldType.String(), To: f.DType.String()})
		}
	}
	for _, f := range from.Schema.Fields {
		if _, stillPresent := toFields[f.Name]; !stillPresent {
			removed = append(removed, f.Name)
		}
	}

	return model.DiffSummary{
		AddedCols:    added,
		RemovedCols:  removed,
		ChangedTypes: changed,
		RowDelta:     to.RowCount - from.RowCount,
	}
}
