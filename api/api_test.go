package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"positionsmap/metastore"
	"positionsmap/positionsmap"
	"positionsmap/segment"
	"positionsmap/utils"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	log := zaptest.NewLogger(t)
	codec := positionsmap.Default()

	sched := NewBatchScheduler(codec, log, 2)
	sched.Start()
	t.Cleanup(sched.Stop)

	store := metastore.NewMetastore(filepath.Join(t.TempDir(), "metastore.json"))
	s := NewService(store, codec, sched, NewSystemInfo("test", codec.Name()), log, t.TempDir())
	return NewRouter(s)
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	case []byte:
		buf.Write(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestInfo(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/info", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	info := decode[infoResponse](t, rec)
	assert.Equal(t, "test", info.Version)
	assert.Equal(t, "varint+zlib", info.Codec)
	assert.Contains(t, info.Compressors, "lz4")
	assert.Contains(t, info.NumericCodecs, "unary-binary")
}

func TestPackUnpack(t *testing.T) {
	h := newTestRouter(t)
	positions := []uint64{0, 5, 12, 18, 33, 100, 228, 3256}

	rec := do(t, h, http.MethodPost, "/pack", map[string]any{"positions": positions})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	packed := decode[packResponse](t, rec)
	assert.Equal(t, len(positions), packed.Count)
	assert.Equal(t, len(packed.Packed), packed.Size)
	assert.Equal(t, "varint+zlib", packed.Codec)

	rec = do(t, h, http.MethodPost, "/unpack", map[string]any{"packed": packed.Packed})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, positions, decode[unpackResponse](t, rec).Positions)
}

func TestPackEmpty(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/pack", `{"positions": []}`)
	require.Equal(t, http.StatusOK, rec.Code)
	packed := decode[packResponse](t, rec)
	assert.Empty(t, packed.Packed)
	assert.Zero(t, packed.Count)

	rec = do(t, h, http.MethodPost, "/unpack", `{}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"positions": []}`, rec.Body.String())
}

func TestPackErrors(t *testing.T) {
	h := newTestRouter(t)

	tests := []struct {
		name   string
		path   string
		body   string
		status int
		kind   string
	}{
		{"decreasing", "/pack", `{"positions": [5, 3]}`, http.StatusBadRequest, "non_monotonic_input"},
		{"negative", "/pack", `{"positions": [1, -2]}`, http.StatusBadRequest, "invalid_element_type"},
		{"fraction", "/pack", `{"positions": [1.5]}`, http.StatusBadRequest, "invalid_element_type"},
		{"word", "/pack", `{"positions": ["abc"]}`, http.StatusBadRequest, "invalid_element_type"},
		{"unknown field", "/pack", `{"positions": [1], "extra": true}`, http.StatusBadRequest, "bad_request"},
		{"not json", "/pack", `positions`, http.StatusBadRequest, "bad_request"},
		{"bad base64", "/unpack", `{"packed": "!!!"}`, http.StatusBadRequest, "bad_request"},
		// "hello world" base64, not a zlib stream
		{"corrupt blob", "/unpack", `{"packed": "aGVsbG8gd29ybGQ="}`, http.StatusUnprocessableEntity, "decompression_failure"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.kind, decode[errorResponse](t, rec).Kind)
		})
	}
}

func TestBatchPack(t *testing.T) {
	h := newTestRouter(t)

	body := `{"sequences": [[1, 2, 3], [5, 3], ["x"], [], [7, 7, 7]]}`
	rec := do(t, h, http.MethodPost, "/batch/pack", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	results := decode[batchPackResponse](t, rec).Results
	require.Len(t, results, 5)
	for i, res := range results {
		assert.Equal(t, i, res.Index)
	}

	assert.Empty(t, results[0].Error)
	positions, err := positionsmap.Unpack(results[0].Packed)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2, 3}, positions)

	assert.Equal(t, "non_monotonic_input", results[1].Kind)
	assert.Equal(t, "invalid_element_type", results[2].Kind)

	assert.Empty(t, results[3].Error)
	assert.Zero(t, results[3].Count)

	assert.Empty(t, results[4].Error)
	assert.Equal(t, 3, results[4].Count)
}

func TestDocuments(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/documents", map[string]any{
		"name":      "alpha",
		"positions": []uint64{0, 6, 11},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	alpha := decode[documentView](t, rec)
	assert.Equal(t, 3, alpha.Count)
	assert.Equal(t, "varint+zlib", alpha.Codec)

	rec = do(t, h, http.MethodPost, "/documents", map[string]any{"name": "alpha", "positions": []uint64{1}})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, http.MethodPost, "/documents", map[string]any{"name": "", "positions": []uint64{1}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/documents", `{"name": "both", "positions": [1], "text": "one"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/documents", map[string]any{"name": "beta", "text": "Hello, wide world"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	beta := decode[documentView](t, rec)
	assert.Equal(t, 3, beta.Count)

	rec = do(t, h, http.MethodGet, "/documents/"+beta.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []uint64{0, 7, 12}, decode[documentDetail](t, rec).Positions)

	rec = do(t, h, http.MethodGet, "/documents", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]documentView](t, rec), 2)

	rec = do(t, h, http.MethodDelete, "/documents/"+alpha.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, h, http.MethodDelete, "/documents/"+alpha.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(t, h, http.MethodGet, "/documents/"+alpha.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decode[errorResponse](t, rec).Kind)
}

func TestHighlight(t *testing.T) {
	h := newTestRouter(t)
	text := "Hello, wide world"

	rec := do(t, h, http.MethodPost, "/documents", map[string]any{"name": "doc", "text": text})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	doc := decode[documentView](t, rec)

	rec = do(t, h, http.MethodPost, "/documents/"+doc.ID+"/highlight", map[string]any{
		"text":  text,
		"words": []int{2, 1},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[highlightResponse](t, rec)
	assert.Equal(t, "Hello, <b>wide</b> <b>world</b>", res.Marked)
	require.Len(t, res.Ranges, 2)
	assert.EqualValues(t, 12, res.Ranges[0].Start)
	assert.EqualValues(t, 17, res.Ranges[0].End)

	rec = do(t, h, http.MethodPost, "/documents/"+doc.ID+"/highlight", map[string]any{
		"text":  text,
		"words": []int{0},
		"open":  "[",
		"close": "]",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[Hello], wide world", decode[highlightResponse](t, rec).Marked)

	rec = do(t, h, http.MethodPost, "/documents/"+doc.ID+"/highlight", map[string]any{
		"text":  text,
		"words": []int{3},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/documents/missing/highlight", map[string]any{"text": text})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExportImport(t *testing.T) {
	h := newTestRouter(t)
	seqs := [][]uint64{{0, 4, 9, 200}, {}, {7}}
	for i, seq := range seqs {
		rec := do(t, h, http.MethodPost, "/documents", map[string]any{
			"name":      []string{"a", "b", "c"}[i],
			"positions": seq,
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := do(t, h, http.MethodGet, "/export", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "3", rec.Header().Get("X-Document-Count"))
	seg := rec.Body.Bytes()

	rec = do(t, h, http.MethodPost, "/import?prefix=copy", seg)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	imported := decode[importResponse](t, rec).Documents
	require.Len(t, imported, 3)

	for i, d := range imported {
		assert.Equal(t, []string{"copy-0", "copy-1", "copy-2"}[i], d.Name)
		rec = do(t, h, http.MethodGet, "/documents/"+d.ID, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		got := decode[documentDetail](t, rec).Positions
		if len(seqs[i]) == 0 {
			assert.Empty(t, got)
		} else {
			assert.Equal(t, seqs[i], got)
		}
	}

	// same prefix again collides on names
	rec = do(t, h, http.MethodPost, "/import?prefix=copy", seg)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, http.MethodPost, "/import", "xx")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "bad_segment", decode[errorResponse](t, rec).Kind)
}

func writeSegment(t *testing.T, entries ...[]byte) []byte {
	t.Helper()
	path := filepath.Join(t.TempDir(), "upload.seg")
	w, err := segment.Create(path, positionsmap.Default())
	require.NoError(t, err)
	for _, e := range entries {
		require.NoError(t, w.AppendPacked(e))
	}
	require.NoError(t, w.Close())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

func TestImportIsAllOrNothing(t *testing.T) {
	h := newTestRouter(t)

	good, err := positionsmap.Pack([]uint64{1, 2, 3})
	require.NoError(t, err)
	// valid zlib around a varint cut short
	truncated, err := utils.Zlib{}.Compress([]byte{0x05, 0x80})
	require.NoError(t, err)

	rec := do(t, h, http.MethodPost, "/import?prefix=p", writeSegment(t, good, good, truncated))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
	assert.Equal(t, "decoding_failure", decode[errorResponse](t, rec).Kind)

	rec = do(t, h, http.MethodGet, "/documents", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]documentView](t, rec))

	// a name clash halfway through removes what was already stored
	rec = do(t, h, http.MethodPost, "/documents", map[string]any{"name": "p-2", "positions": []uint64{9}})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, h, http.MethodPost, "/import?prefix=p", writeSegment(t, good, good, good))
	require.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/documents", nil)
	docs := decode[[]documentView](t, rec)
	require.Len(t, docs, 1)
	assert.Equal(t, "p-2", docs[0].Name)

	// same upload succeeds once the prefix is free
	rec = do(t, h, http.MethodPost, "/import?prefix=q", writeSegment(t, good, good, good))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Len(t, decode[importResponse](t, rec).Documents, 3)
}

func TestImportRejectsSnappyBomb(t *testing.T) {
	h := newTestRouter(t)

	path := filepath.Join(t.TempDir(), "bomb.seg")
	codec, err := positionsmap.NewNamed("varint", "snappy")
	require.NoError(t, err)
	w, err := segment.Create(path, codec)
	require.NoError(t, err)
	require.NoError(t, w.AppendPacked([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0x0F, 0x00}))
	require.NoError(t, w.Close())
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	rec := do(t, h, http.MethodPost, "/import", data)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
	assert.Equal(t, "decompression_failure", decode[errorResponse](t, rec).Kind)
}

func TestRequestBodyLimit(t *testing.T) {
	h := newTestRouter(t)

	body := `{"packed": "` + strings.Repeat("A", maxRequestBytes) + `"}`
	rec := do(t, h, http.MethodPost, "/unpack", body)
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "too_large", decode[errorResponse](t, rec).Kind)
}
