package models

// SyncRecord marks one asset as successfully transferred during a run.
type SyncRecord struct {
	Path         string `json:"path"`
	LastModified string `json:"lastModified"`
	SyncedAt     string `json:"syncedAt"`
}

// SyncState is the persisted snapshot of the most recent effective run. It
// is not a cumulative history: SyncedAssets holds only the records of the
// run that wrote it. An empty LastSyncDate means no sync has completed yet
// and the next run transfers everything.
type SyncState struct {
	LastSyncDate string       `json:"last_sync_date"`
	SyncedAssets []SyncRecord `json:"synced_assets"`
	TotalSynced  int          `json:"total_synced"`
}
