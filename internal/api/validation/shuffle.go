package validation

import "github.com/FACorreiaa/flaia-functions/internal/types"

// shuffleField resolves one canonical name list from a shuffle request.
// explicit is the list sent by newer app builds; derive rebuilds it from the legacy fields.
type shuffleField struct {
	name     string
	explicit func(types.ShuffleActivitiesRequest) []string
	derive   func(types.ShuffleActivitiesRequest) []string
	assign   func(*types.ShuffleSelection, []string)
}

var shuffleFields = []shuffleField{
	{
		name:     "replace names",
		explicit: func(r types.ShuffleActivitiesRequest) []string { return r.ActivitiesToReplaceNames },
		derive: func(r types.ShuffleActivitiesRequest) []string {
			return namesForIDs(r.ActivitiesToReplace, r.ExistingActivities)
		},
		assign: func(s *types.ShuffleSelection, v []string) { s.ReplaceNames = v },
	},
	{
		name:     "locked names",
		explicit: func(r types.ShuffleActivitiesRequest) []string { return r.LockedActivityNames },
		derive: func(r types.ShuffleActivitiesRequest) []string {
			return namesForIDs(r.LockedActivityIDs, r.ExistingActivities)
		},
		assign: func(s *types.ShuffleSelection, v []string) { s.LockedNames = v },
	},
	{
		name:     "all names",
		explicit: func(r types.ShuffleActivitiesRequest) []string { return r.AllActivityNames },
		derive: func(r types.ShuffleActivitiesRequest) []string {
			names := make([]string, 0, len(r.ExistingActivities))
			for _, a := range r.ExistingActivities {
				if a.Name != "" {
					names = append(names, a.Name)
				}
			}
			return names
		},
		assign: func(s *types.ShuffleSelection, v []string) { s.AllNames = v },
	},
}

// NormalizeShuffle collapses the legacy id-based and newer name-based shuffle
// fields into one canonical selection. An explicit non-empty list always wins.
func NormalizeShuffle(req types.ShuffleActivitiesRequest) types.ShuffleSelection {
	sel := types.ShuffleSelection{
		ReplaceIDs: req.ActivitiesToReplace,
		Existing:   req.ExistingActivities,
	}
	for _, f := range shuffleFields {
		v := f.explicit(req)
		if len(v) == 0 {
			v = f.derive(req)
		}
		if v == nil {
			v = []string{}
		}
		f.assign(&sel, v)
	}
	if sel.ReplaceIDs == nil {
		sel.ReplaceIDs = []string{}
	}
	return sel
}

// namesForIDs maps ids to activity names. Unknown ids are kept as-is.
func namesForIDs(ids []string, existing []types.ActivityRef) []string {
	byID := make(map[string]string, len(existing))
	for _, a := range existing {
		if _, seen := byID[a.ID]; !seen {
			byID[a.ID] = a.Name
		}
	}
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		name, ok := byID[id]
		if !ok {
			name = id
		}
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}
