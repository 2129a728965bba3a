package models

import (
	"time"

	"github.com/lib/pq"
)

// EntityKind distinguishes people from organizations. The two populations are
// deduplicated separately.
type EntityKind string

const (
	EntityKindPerson       EntityKind = "person"
	EntityKindOrganization EntityKind = "organization"
)

// ContactEntity is the canonical record for a single real-world person or
// organization. Identifiers from source systems point at it; merging folds
// duplicates into it.
type ContactEntity struct {
	ID           string         `json:"id" db:"id"`
	Kind         EntityKind     `json:"kind" db:"kind"`
	Name         *string        `json:"name,omitempty" db:"name"`
	Email        *string        `json:"email,omitempty" db:"email"`
	Phone        *string        `json:"phone,omitempty" db:"phone"`
	Company      *string        `json:"company,omitempty" db:"company"`
	MergedFrom   pq.StringArray `json:"merged_from" db:"merged_from"`
	MergeCount   int            `json:"merge_count" db:"merge_count"`
	LastMergedAt *time.Time     `json:"last_merged_at,omitempty" db:"last_merged_at"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at" db:"updated_at"`
	Version      int            `json:"version" db:"version"`
}

// FilledFieldCount returns how many identity fields carry a value. Auto-merge
// uses it to pick the survivor of a candidate pair.
func (e *ContactEntity) FilledFieldCount() int {
	count := 0
	for _, f := range []*string{e.Name, e.Email, e.Phone, e.Company} {
		if f != nil && *f != "" {
			count++
		}
	}
	return count
}

// Identifier is one observation of a contact in one source system. Exactly one
// canonical entity owns it; a merge is the only thing that re-points it.
type Identifier struct {
	ID             string    `json:"id" db:"id"`
	SourceSystem   string    `json:"source_system" db:"source_system"`
	SourceRecordID string    `json:"source_record_id" db:"source_record_id"`
	EntityID       string    `json:"entity_id" db:"entity_id"`
	RawName        *string   `json:"raw_name,omitempty" db:"raw_name"`
	RawEmail       *string   `json:"raw_email,omitempty" db:"raw_email"`
	RawPhone       *string   `json:"raw_phone,omitempty" db:"raw_phone"`
	RawCompany     *string   `json:"raw_company,omitempty" db:"raw_company"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}
