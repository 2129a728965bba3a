package models

import (
	"encoding/json"
	"time"

	"github.com/lib/pq"
)

// Merge triggers recorded on the audit trail.
const (
	MergeTriggerManualCLI = "manual_cli"
	MergeTriggerAutoMerge = "auto_merge"
)

// MergeRecord is an immutable audit fact: which entity survived, which was
// absorbed, and the evidence that justified it. Never updated or deleted.
type MergeRecord struct {
	ID                string          `json:"id" db:"id"`
	SurvivingEntityID string          `json:"surviving_entity_id" db:"surviving_entity_id"`
	MergedEntityID    string          `json:"merged_entity_id" db:"merged_entity_id"`
	MergedSnapshot    json.RawMessage `json:"merged_snapshot" db:"merged_snapshot"`
	MatchScore        float64         `json:"match_score" db:"match_score"`
	MatchReasons      pq.StringArray  `json:"match_reasons" db:"match_reasons"`
	TriggeredBy       string          `json:"triggered_by" db:"triggered_by"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
}

// MergeResult describes a completed merge.
type MergeResult struct {
	SurvivingEntity     *ContactEntity `json:"surviving_entity"`
	MergedEntityID      string         `json:"merged_entity_id"`
	IdentifiersMigrated int            `json:"identifiers_migrated"`
	MatchScore          float64        `json:"match_score"`
	MatchReasons        []string       `json:"match_reasons"`
}

// CandidatePair is one ranked duplicate candidate from a detection pass.
type CandidatePair struct {
	EntityA *ContactEntity `json:"entity_a"`
	EntityB *ContactEntity `json:"entity_b"`
	Score   float64        `json:"score"`
	Reasons []string       `json:"reasons"`
}

// AutoMergeOutcome reports one merge performed (or planned, in dry-run) by an
// auto-merge pass.
type AutoMergeOutcome struct {
	SurvivorID string   `json:"survivor_id"`
	LoserID    string   `json:"loser_id"`
	Score      float64  `json:"score"`
	Reasons    []string `json:"reasons"`
}
