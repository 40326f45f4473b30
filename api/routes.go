package api

import (
	"github.com/gorilla/mux"

	"github.com/habitek/inspectd/internal/config"
	"github.com/habitek/inspectd/internal/offline"
	"github.com/habitek/inspectd/internal/syncer"
	"github.com/habitek/inspectd/pkg/repository"
)

func SetupRoutes(cfg *config.Config, version, buildTime string, repo *offline.Repo, store repository.LocalStore, s *syncer.Syncer) *mux.Router {
	r := mux.NewRouter()

	// Middleware chain
	r.Use(LoggingMiddleware)
	r.Use(CORSMiddleware)
	r.Use(RecoveryMiddleware)

	// Create handlers
	systemHandler := &SystemHandler{}
	inspectionsHandler := NewInspectionsHandler(repo, store)
	roomsHandler := NewRoomsHandler(repo, store)
	mediaHandler := NewMediaHandler(repo, store)
	syncHandler := NewSyncHandler(s, store)

	// Open endpoints
	r.HandleFunc("/version", systemHandler.VersionHandler(version, buildTime)).Methods("GET")
	r.HandleFunc("/health", systemHandler.HealthHandler).Methods("GET")

	// API v1 Protected routes
	apiV1 := r.PathPrefix("/v1").Subrouter()
	apiV1.Use(JWTAuthMiddlewareWithSecret(cfg.APISecret))

	// Inspections
	apiV1.HandleFunc("/inspections", inspectionsHandler.SaveInspection).Methods("POST")
	apiV1.HandleFunc("/inspections", inspectionsHandler.ListInspections).Methods("GET")
	apiV1.HandleFunc("/inspections/{id}", inspectionsHandler.GetInspection).Methods("GET")
	apiV1.HandleFunc("/inspections/{id}", inspectionsHandler.DeleteInspection).Methods("DELETE")
	apiV1.HandleFunc("/inspections/{id}/complete", inspectionsHandler.GetCompleteInspection).Methods("GET")
	apiV1.HandleFunc("/inspections/{id}/rooms", roomsHandler.ListRooms).Methods("GET")
	apiV1.HandleFunc("/inspections/{id}/signatures", inspectionsHandler.ListSignatures).Methods("GET")
	apiV1.HandleFunc("/inspections/{id}/signatures/{signer}", inspectionsHandler.PutSignature).Methods("PUT")

	// Rooms and items
	apiV1.HandleFunc("/rooms", roomsHandler.SaveRoom).Methods("POST")
	apiV1.HandleFunc("/rooms/{id}", roomsHandler.DeleteRoom).Methods("DELETE")
	apiV1.HandleFunc("/rooms/{id}/items", roomsHandler.ListItems).Methods("GET")
	apiV1.HandleFunc("/items", roomsHandler.SaveItem).Methods("POST")
	apiV1.HandleFunc("/items/{id}", roomsHandler.DeleteItem).Methods("DELETE")
	apiV1.HandleFunc("/items/{id}/media", mediaHandler.ListMedia).Methods("GET")

	// Media
	apiV1.HandleFunc("/media", mediaHandler.SaveMedia).Methods("POST")
	apiV1.HandleFunc("/media/{id}", mediaHandler.DeleteMedia).Methods("DELETE")

	// Sync
	apiV1.HandleFunc("/status", syncHandler.Status).Methods("GET")
	apiV1.HandleFunc("/sync", syncHandler.TriggerSync).Methods("POST")
	apiV1.HandleFunc("/hydrate", syncHandler.Hydrate).Methods("POST")
	apiV1.HandleFunc("/dead-letters", syncHandler.ListDeadLetters).Methods("GET")

	return r
}
