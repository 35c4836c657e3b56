// Package api serves position map packing and the document store over
// HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"positionsmap/metastore"
	"positionsmap/positionsmap"
)

// Service holds what the handlers share.
type Service struct {
	store   metastore.Store
	codec   *positionsmap.Codec
	sched   *BatchScheduler
	info    *SystemInfo
	log     *zap.Logger
	tempDir string
}

// NewService wires the handlers to store and packs new maps with codec.
// Temporary export and import files are created in tempDir.
func NewService(store metastore.Store, codec *positionsmap.Codec, sched *BatchScheduler, info *SystemInfo, log *zap.Logger, tempDir string) *Service {
	return &Service{
		store:   store,
		codec:   codec,
		sched:   sched,
		info:    info,
		log:     log,
		tempDir: tempDir,
	}
}

// NewRouter registers every route of s.
func NewRouter(s *Service) *mux.Router {
	router := mux.NewRouter().StrictSlash(true)
	router.Use(s.logRequests)

	router.HandleFunc("/info", s.GetInfo).Methods(http.MethodGet)
	router.HandleFunc("/pack", s.Pack).Methods(http.MethodPost)
	router.HandleFunc("/unpack", s.Unpack).Methods(http.MethodPost)
	router.HandleFunc("/batch/pack", s.BatchPack).Methods(http.MethodPost)

	router.HandleFunc("/documents", s.ListDocuments).Methods(http.MethodGet)
	router.HandleFunc("/documents", s.CreateDocument).Methods(http.MethodPost)
	router.HandleFunc("/documents/{id}", s.GetDocument).Methods(http.MethodGet)
	router.HandleFunc("/documents/{id}", s.DeleteDocument).Methods(http.MethodDelete)
	router.HandleFunc("/documents/{id}/highlight", s.Highlight).Methods(http.MethodPost)

	router.HandleFunc("/export", s.Export).Methods(http.MethodGet)
	router.HandleFunc("/import", s.Import).Methods(http.MethodPost)

	return router
}

func (s *Service) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("took", time.Since(start)),
		)
	})
}
