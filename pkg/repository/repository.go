package repository

import (
	"context"
	"io"

	"github.com/habitek/inspectd/pkg/models"
)

// Repository interfaces for the local mirror and the remote backend. These
// are the public contracts consumers should depend on; concrete
// implementations live under internal/.

type InspectionStore interface {
	PutInspection(ctx context.Context, e *models.Inspection) error
	GetInspectionByID(ctx context.Context, id string) (*models.Inspection, error)
	ListInspectionsByInspector(ctx context.Context, inspectorID string) ([]models.Inspection, error)
	DeleteInspection(ctx context.Context, id string) error
}

type RoomStore interface {
	PutRoom(ctx context.Context, e *models.Room) error
	GetRoomByID(ctx context.Context, id string) (*models.Room, error)
	ListRoomsByInspection(ctx context.Context, inspectionID string) ([]models.Room, error)
	DeleteRoom(ctx context.Context, id string) error
}

type ItemStore interface {
	PutItem(ctx context.Context, e *models.Item) error
	GetItemByID(ctx context.Context, id string) (*models.Item, error)
	ListItemsByRoom(ctx context.Context, roomID string) ([]models.Item, error)
	DeleteItem(ctx context.Context, id string) error
}

type MediaStore interface {
	PutMedia(ctx context.Context, e *models.Media) error
	GetMediaByID(ctx context.Context, id string) (*models.Media, error)
	ListMediaByItem(ctx context.Context, itemID string) ([]models.Media, error)
	DeleteMedia(ctx context.Context, id string) error
	// SetMediaRemoteURL records the storage URL after the blob uploaded,
	// without touching fields the UI may have edited since enqueue.
	SetMediaRemoteURL(ctx context.Context, id, url string) error
}

type SignatureStore interface {
	PutSignature(ctx context.Context, e *models.Signature) error
	GetSignatureByID(ctx context.Context, id string) (*models.Signature, error)
	ListSignaturesByInspection(ctx context.Context, inspectionID string) ([]models.Signature, error)
	DeleteSignature(ctx context.Context, id string) error
}

// QueueStore is the durable sync queue. Entries come back from ListPending
// in enqueue order (FIFO); DeleteEntry commits a single entry after its
// remote call succeeded.
type QueueStore interface {
	Enqueue(ctx context.Context, e *models.QueueEntry) (int64, error)
	ListPending(ctx context.Context) ([]models.QueueEntry, error)
	DeleteEntry(ctx context.Context, id int64) error
	DeleteEntriesForEntity(ctx context.Context, entityID string) (int64, error)
	RecordFailure(ctx context.Context, id int64, lastError string) error
	MoveToDeadLetter(ctx context.Context, e *models.QueueEntry) error
	ListDeadLetters(ctx context.Context) ([]models.DeadLetter, error)
	CountPending(ctx context.Context) (int64, error)
}

// SyncedMarker flips the per-row synced flag once a write reached the backend.
type SyncedMarker interface {
	MarkSynced(ctx context.Context, t models.EntityType, id string, synced bool) error
}

// IDRehomer rewrites a locally generated id to the canonical id assigned by
// the backend: the entity row itself, child foreign keys, and the parent
// references inside still-pending queue payloads.
type IDRehomer interface {
	RehomeID(ctx context.Context, t models.EntityType, old, new string) error
}

// LocalStore is the full local mirror contract.
type LocalStore interface {
	InspectionStore
	RoomStore
	ItemStore
	MediaStore
	SignatureStore
	QueueStore
	SyncedMarker
	IDRehomer
}

// Gateway is the narrow remote CRUD surface the sync layer depends on.
// Create calls return the canonical entity as stored by the backend (the
// backend may assign a new id to rows born offline).
type Gateway interface {
	Health(ctx context.Context) error

	CreateInspection(ctx context.Context, e *models.Inspection) (*models.Inspection, error)
	UpdateInspection(ctx context.Context, e *models.Inspection) error
	DeleteInspection(ctx context.Context, id string) error
	GetInspectionByID(ctx context.Context, id string) (*models.Inspection, error)
	ListInspectionsByInspector(ctx context.Context, inspectorID string) ([]models.Inspection, error)

	CreateRoom(ctx context.Context, e *models.Room) (*models.Room, error)
	UpdateRoom(ctx context.Context, e *models.Room) error
	DeleteRoom(ctx context.Context, id string) error
	ListRoomsByInspection(ctx context.Context, inspectionID string) ([]models.Room, error)

	CreateItem(ctx context.Context, e *models.Item) (*models.Item, error)
	UpdateItem(ctx context.Context, e *models.Item) error
	DeleteItem(ctx context.Context, id string) error
	ListItemsByRoom(ctx context.Context, roomID string) ([]models.Item, error)

	CreateMedia(ctx context.Context, e *models.Media) (*models.Media, error)
	UpdateMedia(ctx context.Context, e *models.Media) error
	DeleteMedia(ctx context.Context, id string) error
	ListMediaByItem(ctx context.Context, itemID string) ([]models.Media, error)

	// UpsertSignature replaces any existing signature for the payload's
	// (inspection, signer) pair rather than inserting a duplicate.
	UpsertSignature(ctx context.Context, e *models.Signature) (*models.Signature, error)
	DeleteSignature(ctx context.Context, id string) error
	ListSignaturesByInspection(ctx context.Context, inspectionID string) ([]models.Signature, error)

	// UploadMedia streams a captured blob to backend storage and returns
	// the public URL the Media row should record.
	UploadMedia(ctx context.Context, path string, r io.Reader, checksum string) (string, error)
}
