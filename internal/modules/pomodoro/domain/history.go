package domain

import "sort"

const HistoryLimit = 200

// PrependHistory puts item first and drops the oldest entries past HistoryLimit.
func PrependHistory(history []HistoryItem, item HistoryItem) []HistoryItem {
	out := make([]HistoryItem, 0, min(len(history)+1, HistoryLimit))
	out = append(out, item)
	for _, h := range history {
		if len(out) == HistoryLimit {
			break
		}
		out = append(out, h)
	}
	return out
}

// MergeHistory unions local and remote entries by id, remote winning on
// collisions, newest first.
func MergeHistory(local, remote []HistoryItem) []HistoryItem {
	seen := make(map[string]struct{}, len(remote))
	out := make([]HistoryItem, 0, len(local)+len(remote))
	for _, h := range remote {
		seen[h.ID] = struct{}{}
		out = append(out, h)
	}
	for _, h := range local {
		if _, ok := seen[h.ID]; ok {
			continue
		}
		out = append(out, h)
	}
	return boundHistory(out)
}

// boundHistory sorts newest first and trims to HistoryLimit.
func boundHistory(history []HistoryItem) []HistoryItem {
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].End.After(history[j].End)
	})
	if len(history) > HistoryLimit {
		history = history[:HistoryLimit]
	}
	return history
}

// RenameHistoryItem rewrites the id of the entry that still carries oldID.
func RenameHistoryItem(history []HistoryItem, oldID, newID string) bool {
	for i := range history {
		if history[i].ID == oldID {
			history[i].ID = newID
			return true
		}
	}
	return false
}

// ReplaceHistory adopts the remote view as the whole history.
func ReplaceHistory(remote []HistoryItem) []HistoryItem {
	out := make([]HistoryItem, len(remote))
	copy(out, remote)
	return boundHistory(out)
}
