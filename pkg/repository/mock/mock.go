package mock

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/habitek/inspectd/pkg/models"
	"github.com/habitek/inspectd/pkg/repository"
)

var _ repository.Gateway = (*Gateway)(nil)

// Gateway is an in-memory stand-in for the backend used by tests. It keeps
// what it receives, records the order of calls, and can be told to fail
// specific methods.
type Gateway struct {
	mu sync.Mutex

	Healthy bool

	Inspections map[string]*models.Inspection
	Rooms       map[string]*models.Room
	Items       map[string]*models.Item
	Media       map[string]*models.Media
	Signatures  map[string]*models.Signature

	// Calls records "<Method> <id>" in invocation order.
	Calls []string

	// Errs maps a method name to the error it should return.
	Errs map[string]error

	// Uploads records the storage paths passed to UploadMedia.
	Uploads []string

	nextID int
}

func NewGateway() *Gateway {
	return &Gateway{
		Healthy:     true,
		Inspections: make(map[string]*models.Inspection),
		Rooms:       make(map[string]*models.Room),
		Items:       make(map[string]*models.Item),
		Media:       make(map[string]*models.Media),
		Signatures:  make(map[string]*models.Signature),
		Errs:        make(map[string]error),
	}
}

// FailWith makes the named method return err on every call until cleared
// with FailWith(method, nil).
func (g *Gateway) FailWith(method string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err == nil {
		delete(g.Errs, method)
		return
	}
	g.Errs[method] = err
}

func (g *Gateway) record(method, id string) error {
	g.Calls = append(g.Calls, method+" "+id)
	return g.Errs[method]
}

// assign hands out backend ids for rows born offline.
func (g *Gateway) assign(id string) string {
	if !models.IsLocalID(id) {
		return id
	}
	g.nextID++
	return fmt.Sprintf("srv-%d", g.nextID)
}

func (g *Gateway) Health(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record("Health", ""); err != nil {
		return err
	}
	if !g.Healthy {
		return fmt.Errorf("backend unhealthy")
	}
	return nil
}

func (g *Gateway) CreateInspection(ctx context.Context, e *models.Inspection) (*models.Inspection, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record("CreateInspection", e.ID); err != nil {
		return nil, err
	}
	out := *e
	out.ID = g.assign(e.ID)
	g.Inspections[out.ID] = &out
	return &out, nil
}

func (g *Gateway) UpdateInspection(ctx context.Context, e *models.Inspection) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record("UpdateInspection", e.ID); err != nil {
		return err
	}
	cp := *e
	g.Inspections[e.ID] = &cp
	return nil
}

func (g *Gateway) DeleteInspection(ctx context.Context, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record("DeleteInspection", id); err != nil {
		return err
	}
	delete(g.Inspections, id)
	return nil
}

func (g *Gateway) GetInspectionByID(ctx context.Context, id string) (*models.Inspection, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record("GetInspectionByID", id); err != nil {
		return nil, err
	}
	return g.Inspections[id], nil
}

func (g *Gateway) ListInspectionsByInspector(ctx context.Context, inspectorID string) ([]models.Inspection, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record("ListInspectionsByInspector", inspectorID); err != nil {
		return nil, err
	}
	var out []models.Inspection
	for _, e := range g.Inspections {
		if e.InspectorID == inspectorID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (g *Gateway) CreateRoom(ctx context.Context, e *models.Room) (*models.Room, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record("CreateRoom", e.ID); err != nil {
		return nil, err
	}
	out := *e
	out.ID = g.assign(e.ID)
	g.Rooms[out.ID] = &out
	return &out, nil
}

func (g *Gateway) UpdateRoom(ctx context.Context, e *models.Room) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record("UpdateRoom", e.ID); err != nil {
		return err
	}
	cp := *e
	g.Rooms[e.ID] = &cp
	return nil
}

func (g *Gateway) DeleteRoom(ctx context.Context, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record("DeleteRoom", id); err != nil {
		return err
	}
	delete(g.Rooms, id)
	return nil
}

func (g *Gateway) ListRoomsByInspection(ctx context.Context, inspectionID string) ([]models.Room, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record("ListRoomsByInspection", inspectionID); err != nil {
		return nil, err
	}
	var out []models.Room
	for _, e := range g.Rooms {
		if e.InspectionID == inspectionID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (g *Gateway) CreateItem(ctx context.Context, e *models.Item) (*models.Item, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record("CreateItem", e.ID); err != nil {
		return nil, err
	}
	out := *e
	out.ID = g.assign(e.ID)
	g.Items[out.ID] = &out
	return &out, nil
}

func (g *Gateway) UpdateItem(ctx context.Context, e *models.Item) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record("UpdateItem", e.ID); err != nil {
		return err
	}
	cp := *e
	g.Items[e.ID] = &cp
	return nil
}

func (g *Gateway) DeleteItem(ctx context.Context, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record("DeleteItem", id); err != nil {
		return err
	}
	delete(g.Items, id)
	return nil
}

func (g *Gateway) ListItemsByRoom(ctx context.Context, roomID string) ([]models.Item, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record("ListItemsByRoom", roomID); err != nil {
		return nil, err
	}
	var out []models.Item
	for _, e := range g.Items {
		if e.RoomID == roomID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (g *Gateway) CreateMedia(ctx context.Context, e *models.Media) (*models.Media, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record("CreateMedia", e.ID); err != nil {
		return nil, err
	}
	out := *e
	out.ID = g.assign(e.ID)
	g.Media[out.ID] = &out
	return &out, nil
}

func (g *Gateway) UpdateMedia(ctx context.Context, e *models.Media) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record("UpdateMedia", e.ID); err != nil {
		return err
	}
	cp := *e
	g.Media[e.ID] = &cp
	return nil
}

func (g *Gateway) DeleteMedia(ctx context.Context, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record("DeleteMedia", id); err != nil {
		return err
	}
	delete(g.Media, id)
	return nil
}

func (g *Gateway) ListMediaByItem(ctx context.Context, itemID string) ([]models.Media, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record("ListMediaByItem", itemID); err != nil {
		return nil, err
	}
	var out []models.Media
	for _, e := range g.Media {
		if e.ItemID == itemID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (g *Gateway) UpsertSignature(ctx context.Context, e *models.Signature) (*models.Signature, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record("UpsertSignature", e.ID); err != nil {
		return nil, err
	}
	key := e.InspectionID + "/" + string(e.Signer)
	out := *e
	if prev, ok := g.Signatures[key]; ok {
		out.ID = prev.ID
	} else {
		out.ID = g.assign(e.ID)
	}
	g.Signatures[key] = &out
	return &out, nil
}

func (g *Gateway) DeleteSignature(ctx context.Context, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record("DeleteSignature", id); err != nil {
		return err
	}
	for key, e := range g.Signatures {
		if e.ID == id {
			delete(g.Signatures, key)
		}
	}
	return nil
}

func (g *Gateway) ListSignaturesByInspection(ctx context.Context, inspectionID string) ([]models.Signature, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record("ListSignaturesByInspection", inspectionID); err != nil {
		return nil, err
	}
	var out []models.Signature
	for _, e := range g.Signatures {
		if e.InspectionID == inspectionID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (g *Gateway) UploadMedia(ctx context.Context, path string, r io.Reader, checksum string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record("UploadMedia", path); err != nil {
		return "", err
	}
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	g.Uploads = append(g.Uploads, path)
	return "https://cdn.test/" + path, nil
}

// Monitor is a switchable connectivity stub.
type Monitor struct {
	online bool
	mu     sync.Mutex
}

func NewMonitor(online bool) *Monitor { return &Monitor{online: online} }

func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

func (m *Monitor) Set(online bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.online = online
}
