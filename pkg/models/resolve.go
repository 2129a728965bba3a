package models

// ResolveRequest carries one raw contact record from an upstream fetcher,
// keyed by its source system and source-local record id.
type ResolveRequest struct {
	SourceSystem   string     `json:"source_system" validate:"required"`
	SourceRecordID string     `json:"source_record_id" validate:"required"`
	Kind           EntityKind `json:"kind,omitempty"`
	Name           string     `json:"name,omitempty"`
	Email          string     `json:"email,omitempty"`
	Phone          string     `json:"phone,omitempty"`
	Company        string     `json:"company,omitempty"`
}

// ResolveResult reports how a record was resolved to a canonical entity.
type ResolveResult struct {
	EntityID       string  `json:"entity_id"`
	IdentifierID   string  `json:"identifier_id"`
	AlreadyKnown   bool    `json:"already_known"`
	CreatedEntity  bool    `json:"created_entity"`
	AttachedScore  float64 `json:"attached_score,omitempty"`
	AttachedReason string  `json:"attached_reason,omitempty"`
}

// StatsReport aggregates read-only counts for the stats command.
type StatsReport struct {
	EntitiesByKind      map[string]int `json:"entities_by_kind"`
	IdentifiersBySource map[string]int `json:"identifiers_by_source"`
	MergesLast7Days     int            `json:"merges_last_7_days"`
	TotalMerges         int            `json:"total_merges"`
}
