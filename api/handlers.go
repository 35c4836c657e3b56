package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"positionsmap/highlight"
	"positionsmap/metastore"
	"positionsmap/positionsmap"
)

const (
	maxImportBytes = 64 << 20

	defaultOpenTag  = "<b>"
	defaultCloseTag = "</b>"
)

type infoResponse struct {
	Version       string    `json:"version"`
	Codec         string    `json:"codec"`
	StartedAt     time.Time `json:"started_at"`
	UptimeSeconds int64     `json:"uptime_seconds"`
	NumericCodecs []string  `json:"numeric_codecs"`
	Compressors   []string  `json:"compressors"`
}

func (s *Service) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, infoResponse{
		Version:       s.info.Version,
		Codec:         s.info.Codec,
		StartedAt:     s.info.StartedAt,
		UptimeSeconds: s.info.UptimeSeconds(),
		NumericCodecs: positionsmap.NumericCodecNames(),
		Compressors:   positionsmap.CompressorNames(),
	})
}

type packRequest struct {
	Positions []any `json:"positions"`
}

type packResponse struct {
	Packed []byte `json:"packed"`
	Count  int    `json:"count"`
	Size   int    `json:"size"`
	Codec  string `json:"codec"`
}

func (s *Service) Pack(w http.ResponseWriter, r *http.Request) {
	var req packRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	positions, err := positionsmap.FromAny(req.Positions)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	packed, err := s.codec.Pack(positions)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, packResponse{
		Packed: packed,
		Count:  len(positions),
		Size:   len(packed),
		Codec:  s.codec.Name(),
	})
}

type unpackRequest struct {
	Packed []byte `json:"packed"`
}

type unpackResponse struct {
	Positions []uint64 `json:"positions"`
}

func (s *Service) Unpack(w http.ResponseWriter, r *http.Request) {
	var req unpackRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	positions, err := s.codec.Unpack(req.Packed)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, unpackResponse{Positions: positions})
}

type batchPackRequest struct {
	Sequences [][]any `json:"sequences"`
}

type batchPackResponse struct {
	Results []BatchResult `json:"results"`
}

func (s *Service) BatchPack(w http.ResponseWriter, r *http.Request) {
	var req batchPackRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	results := make([]BatchResult, len(req.Sequences))
	valid := make([][]uint64, 0, len(req.Sequences))
	index := make([]int, 0, len(req.Sequences))
	for i, seq := range req.Sequences {
		positions, err := positionsmap.FromAny(seq)
		if err != nil {
			results[i] = BatchResult{
				Index: i,
				Count: len(seq),
				Error: err.Error(),
				Kind:  positionsmap.KindOf(err).String(),
			}
			continue
		}
		valid = append(valid, positions)
		index = append(index, i)
	}

	packed, err := s.sched.PackAll(r.Context(), valid)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	for j, res := range packed {
		res.Index = index[j]
		results[index[j]] = res
	}
	s.writeJSON(w, http.StatusOK, batchPackResponse{Results: results})
}

type createDocumentRequest struct {
	Name      string  `json:"name"`
	Positions []any   `json:"positions"`
	Text      *string `json:"text"`
}

type documentView struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Count        int       `json:"count"`
	Codec        string    `json:"codec"`
	Size         int       `json:"size"`
	CreatedAt    time.Time `json:"created_at"`
	LastModified time.Time `json:"last_modified"`
}

type documentDetail struct {
	documentView
	Positions []uint64 `json:"positions"`
}

func viewOf(d *metastore.Document) documentView {
	return documentView{
		ID:           d.ID,
		Name:         d.Name,
		Count:        d.Count,
		Codec:        d.Codec,
		Size:         len(d.Packed),
		CreatedAt:    d.CreatedAt,
		LastModified: d.LastModified,
	}
}

func (s *Service) CreateDocument(w http.ResponseWriter, r *http.Request) {
	var req createDocumentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	var positions []uint64
	switch {
	case req.Text != nil && req.Positions != nil:
		s.writeError(w, r, fmt.Errorf("%w: give either positions or text", errBadRequest))
		return
	case req.Text != nil:
		positions = highlight.Offsets(*req.Text)
	default:
		var err error
		positions, err = positionsmap.FromAny(req.Positions)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
	}

	doc, err := metastore.NewDocument(req.Name, s.codec, positions)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.Put(r.Context(), doc); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.log.Info("document created",
		zap.String("id", doc.ID),
		zap.String("name", doc.Name),
		zap.Int("positions", doc.Count),
		zap.Int("packed_bytes", len(doc.Packed)),
	)
	s.writeJSON(w, http.StatusCreated, viewOf(doc))
}

func (s *Service) ListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.store.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]documentView, 0, len(docs))
	for _, d := range docs {
		out = append(out, viewOf(d))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Service) GetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.store.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	positions, err := doc.Positions()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, documentDetail{documentView: viewOf(doc), Positions: positions})
}

func (s *Service) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.store.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.log.Info("document deleted", zap.String("id", id))
	w.WriteHeader(http.StatusNoContent)
}

type highlightRequest struct {
	Text  string `json:"text"`
	Words []int  `json:"words"`
	Open  string `json:"open"`
	Close string `json:"close"`
}

type highlightResponse struct {
	Ranges []highlight.Range `json:"ranges"`
	Marked string            `json:"marked"`
}

func (s *Service) Highlight(w http.ResponseWriter, r *http.Request) {
	var req highlightRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Open == "" && req.Close == "" {
		req.Open, req.Close = defaultOpenTag, defaultCloseTag
	}

	doc, err := s.store.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	offsets, err := doc.Positions()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ranges, err := highlight.Ranges(req.Text, offsets, req.Words)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, highlightResponse{
		Ranges: ranges,
		Marked: highlight.Mark(req.Text, ranges, req.Open, req.Close),
	})
}

// Export streams every stored document as one segment file, in List order.
func (s *Service) Export(w http.ResponseWriter, r *http.Request) {
	path, err := s.tempPath("export-*.seg")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer os.Remove(path)

	n, err := ExportSegment(r.Context(), s.store, s.codec, path)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	f, err := os.Open(path)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.log.Info("segment exported", zap.Int("documents", n), zap.Int64("bytes", info.Size()))
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", `attachment; filename="positions.seg"`)
	w.Header().Set("X-Document-Count", fmt.Sprint(n))
	http.ServeContent(w, r, "positions.seg", info.ModTime(), f)
}

type importResponse struct {
	Documents []documentView `json:"documents"`
}

// Import stores every entry of the segment file in the request body as a
// new document named "<prefix>-<index>".
func (s *Service) Import(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("prefix")
	if prefix == "" {
		prefix = "import"
	}

	path, err := s.tempPath("import-*.seg")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer os.Remove(path)

	if err := writeBody(path, http.MaxBytesReader(w, r.Body, maxImportBytes)); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, r, fmt.Errorf("%w: limit is %d bytes", errTooLarge, tooLarge.Limit))
			return
		}
		s.writeError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	docs, err := ImportSegment(r.Context(), s.store, s.codec, path, prefix)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := importResponse{Documents: make([]documentView, 0, len(docs))}
	for _, d := range docs {
		out.Documents = append(out.Documents, viewOf(d))
	}
	s.log.Info("segment imported", zap.Int("documents", len(docs)), zap.String("prefix", prefix))
	s.writeJSON(w, http.StatusCreated, out)
}

func (s *Service) tempPath(pattern string) (string, error) {
	f, err := os.CreateTemp(s.tempDir, pattern)
	if err != nil {
		return "", err
	}
	path := f.Name()
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

func writeBody(path string, body io.Reader) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
