package persistence

import (
	"encoding/json"

	"omnipost/domain/model"
	"omnipost/infrastructure/logger"
)

// EmptySnapshot is what every store returns when nothing usable is stored.
func EmptySnapshot() *model.Snapshot {
	return &model.Snapshot{Accounts: []model.ConnectedAccount{}, Posts: []model.PostDraft{}}
}

// EncodeSnapshot renders the snapshot as indented JSON.
func EncodeSnapshot(snapshot *model.Snapshot) ([]byte, error) {
	if snapshot == nil {
		snapshot = EmptySnapshot()
	}
	return json.MarshalIndent(normalize(snapshot), "", "  ")
}

// DecodeSnapshot never fails: unreadable data is logged and treated as empty.
func DecodeSnapshot(source string, data []byte) *model.Snapshot {
	if len(data) == 0 {
		return EmptySnapshot()
	}
	var snap model.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		logger.GetLogger().WithField("source", source).WithField("error", err).Warn("Stored snapshot is unreadable, starting empty")
		return EmptySnapshot()
	}
	return normalize(&snap)
}

func normalize(snap *model.Snapshot) *model.Snapshot {
	out := *snap
	if out.Accounts == nil {
		out.Accounts = []model.ConnectedAccount{}
	}
	if out.Posts == nil {
		out.Posts = []model.PostDraft{}
	}
	for i := range out.Posts {
		if out.Posts[i].Attempts == nil {
			out.Posts[i].Attempts = []model.PostAttempt{}
		}
	}
	return &out
}
