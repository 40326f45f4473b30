package models

import (
	"encoding/json"
	"strings"
)

// Domain models matching the local mirror schema in db/migrations/0001_init.sql.
// Ids are strings: backend-assigned UUIDs for rows born online, or locally
// generated placeholder ids (see LocalIDPrefix) for rows born offline that
// have no remote counterpart yet.

// LocalIDPrefix marks ids generated on the device while offline. The sync
// processor treats a queued mutation for a prefixed id as a remote create.
const LocalIDPrefix = "local-"

// IsLocalID reports whether id was generated locally (born offline).
func IsLocalID(id string) bool {
	return strings.HasPrefix(id, LocalIDPrefix)
}

type InspectionStatus string

const (
	StatusScheduled  InspectionStatus = "scheduled"
	StatusLate       InspectionStatus = "late"
	StatusInProgress InspectionStatus = "in_progress"
	StatusCompleted  InspectionStatus = "completed"
)

type Inspection struct {
	ID            string           `json:"id" db:"id"`
	Address       string           `json:"address" db:"address"`
	ScheduledDate string           `json:"scheduled_date" db:"scheduled_date"`
	ScheduledTime string           `json:"scheduled_time" db:"scheduled_time"`
	Status        InspectionStatus `json:"status" db:"status"`
	InspectorID   string           `json:"inspector_id" db:"inspector_id"`
	Type          string           `json:"type" db:"inspection_type"`
	CompanyID     string           `json:"company_id" db:"company_id"`
	Synced        bool             `json:"synced" db:"synced"`
	Created       int64            `json:"created" db:"created"`
	Updated       int64            `json:"updated" db:"updated"`
}

type Room struct {
	ID           string `json:"id" db:"id"`
	InspectionID string `json:"inspection_id" db:"inspection_id"`
	Name         string `json:"name" db:"name"`
	Position     int    `json:"position" db:"position"`
	Synced       bool   `json:"synced" db:"synced"`
	Created      int64  `json:"created" db:"created"`
	Updated      int64  `json:"updated" db:"updated"`
}

// ItemState is nil/unset until the inspector marks the item.
type ItemState string

const (
	ItemOK      ItemState = "ok"
	ItemDamaged ItemState = "damaged"
	ItemFlagged ItemState = "flagged"
)

type Item struct {
	ID          string     `json:"id" db:"id"`
	RoomID      string     `json:"room_id" db:"room_id"`
	Label       string     `json:"label" db:"label"`
	State       *ItemState `json:"state,omitempty" db:"state"`
	Observation string     `json:"observation,omitempty" db:"observation"`
	Transcript  string     `json:"transcript,omitempty" db:"transcript"`
	Synced      bool       `json:"synced" db:"synced"`
	Created     int64      `json:"created" db:"created"`
	Updated     int64      `json:"updated" db:"updated"`
}

type MediaKind string

const (
	MediaPhoto MediaKind = "photo"
	MediaVideo MediaKind = "video"
)

type Media struct {
	ID         string    `json:"id" db:"id"`
	ItemID     string    `json:"item_id" db:"item_id"`
	Kind       MediaKind `json:"kind" db:"kind"`
	LocalPath  string    `json:"local_path,omitempty" db:"local_path"`
	RemoteURL  string    `json:"remote_url,omitempty" db:"remote_url"`
	EditedURL  string    `json:"edited_url,omitempty" db:"edited_url"`
	Checksum   string    `json:"checksum,omitempty" db:"checksum"`
	Latitude   *float64  `json:"latitude,omitempty" db:"latitude"`
	Longitude  *float64  `json:"longitude,omitempty" db:"longitude"`
	CapturedAt int64     `json:"captured_at" db:"captured_at"`
	Synced     bool      `json:"synced" db:"synced"`
	Created    int64     `json:"created" db:"created"`
	Updated    int64     `json:"updated" db:"updated"`
}

type SignerRole string

const (
	SignerInspector   SignerRole = "inspector"
	SignerResponsible SignerRole = "responsible_party"
)

// Signature image data is a data-URL captured by the UI canvas. At most one
// signature exists per (inspection, signer) pair, locally and remotely.
type Signature struct {
	ID           string     `json:"id" db:"id"`
	InspectionID string     `json:"inspection_id" db:"inspection_id"`
	Signer       SignerRole `json:"signer" db:"signer"`
	Image        string     `json:"image" db:"image"`
	Synced       bool       `json:"synced" db:"synced"`
	Created      int64      `json:"created" db:"created"`
	Updated      int64      `json:"updated" db:"updated"`
}

// RoomWithItems is the aggregate shape returned to the UI.
type RoomWithItems struct {
	Room
	Items []Item `json:"items"`
}

// CompleteInspection is the full tree the UI renders for one inspection.
// Inspection is nil when the id is unknown locally; the slices are then
// empty, never partial.
type CompleteInspection struct {
	Inspection *Inspection     `json:"inspection"`
	Rooms      []RoomWithItems `json:"rooms"`
	Signatures []Signature     `json:"signatures"`
}

// EntityType tags queue entries and payloads.
type EntityType string

const (
	EntityInspection EntityType = "inspection"
	EntityRoom       EntityType = "room"
	EntityItem       EntityType = "item"
	EntityMedia      EntityType = "media"
	EntitySignature  EntityType = "signature"
)

type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// QueueEntry is one pending mutation awaiting transmission to the backend.
// Entries are append-only until successfully processed, then deleted. The
// payload is a self-contained entity snapshot at enqueue time, not a diff
// against earlier entries for the same entity.
type QueueEntry struct {
	ID          int64           `json:"id" db:"id"`
	EntityType  EntityType      `json:"entity_type" db:"entity_type"`
	Action      Action          `json:"action" db:"action"`
	EntityID    string          `json:"entity_id" db:"entity_id"`
	Payload     json.RawMessage `json:"payload" db:"payload"`
	Attempts    int             `json:"attempts" db:"attempts"`
	MaxAttempts int             `json:"max_attempts" db:"max_attempts"`
	LastError   string          `json:"last_error,omitempty" db:"last_error"`
	EnqueuedAt  int64           `json:"enqueued_at" db:"enqueued_at"`
}

// DeadLetter is a queue entry that exhausted its retry budget.
type DeadLetter struct {
	ID         int64           `json:"id" db:"id"`
	QueueID    int64           `json:"queue_id" db:"queue_id"`
	EntityType EntityType      `json:"entity_type" db:"entity_type"`
	Action     Action          `json:"action" db:"action"`
	EntityID   string          `json:"entity_id" db:"entity_id"`
	Payload    json.RawMessage `json:"payload" db:"payload"`
	Attempts   int             `json:"attempts" db:"attempts"`
	LastError  string          `json:"last_error,omitempty" db:"last_error"`
	FailedAt   int64           `json:"failed_at" db:"failed_at"`
}
