package vector

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/custodia-labs/studymate/internal/core/domain"
)

const (
	// FormatVersion is the snapshot layout version in both files.
	FormatVersion = 1

	// Metric names the similarity stored in the sidecar.
	Metric = "inner_product"

	vecMagic = "SMVX"
)

// VectorFile returns the binary vector file path for a snapshot base path.
func VectorFile(path string) string { return path + ".vec" }

// SidecarFile returns the metadata sidecar path for a snapshot base path.
func SidecarFile(path string) string { return path + ".json" }

type sidecar struct {
	Version        int     `json:"version"`
	Dimension      int     `json:"dimension"`
	Metric         string  `json:"metric"`
	Model          string  `json:"model,omitempty"`
	VectorChecksum string  `json:"vector_checksum"`
	Entries        []entry `json:"entries"`
}

type entry struct {
	VectorID    int64  `json:"vector_id"`
	ChunkID     string `json:"chunk_id"`
	DocumentID  string `json:"document_id"`
	SourceName  string `json:"source_name"`
	ChunkIndex  int    `json:"chunk_index"`
	Text        string `json:"text"`
	WordCount   int    `json:"word_count"`
	PageNumber  int    `json:"page_number"`
	StartOffset int    `json:"start_offset"`
	EndOffset   int    `json:"end_offset"`
}

// Save writes the index and its chunk records as a file pair at path.
// A nil index saves a lexical-only snapshot with dimension 0. Both files
// are written to temporaries first and renamed into place.
func Save(path string, idx *Index, chunks []domain.Chunk) error {
	var (
		dim   int
		model string
		vec   []byte
		err   error
	)
	if idx != nil {
		idx.mu.RLock()
		defer idx.mu.RUnlock()
		dim = idx.dim
		model = idx.model
	}

	vec, err = encodeVectors(idx)
	if err != nil {
		return domain.NewPersistenceError(VectorFile(path), err)
	}
	sum := sha256.Sum256(vec)

	meta := sidecar{
		Version:        FormatVersion,
		Dimension:      dim,
		Metric:         Metric,
		Model:          model,
		VectorChecksum: hex.EncodeToString(sum[:]),
		Entries:        make([]entry, 0, len(chunks)),
	}

	known := make(map[string]struct{}, len(chunks))
	for _, c := range chunks {
		vid := int64(-1)
		if idx != nil {
			if id, ok := idx.byChunk[c.ID]; ok {
				vid = id
			}
		}
		known[c.ID] = struct{}{}
		meta.Entries = append(meta.Entries, entry{
			VectorID:    vid,
			ChunkID:     c.ID,
			DocumentID:  c.DocumentID,
			SourceName:  c.SourceName,
			ChunkIndex:  c.Index,
			Text:        c.Text,
			WordCount:   c.WordCount,
			PageNumber:  c.PageNumber,
			StartOffset: c.StartOffset,
			EndOffset:   c.EndOffset,
		})
	}
	if idx != nil {
		for _, id := range idx.ids {
			if _, ok := known[id]; !ok {
				return domain.NewPersistenceError(SidecarFile(path), fmt.Errorf("vector for unknown chunk %s", id))
			}
		}
	}
	sort.Slice(meta.Entries, func(i, j int) bool {
		return meta.Entries[i].ChunkID < meta.Entries[j].ChunkID
	})

	side, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return domain.NewPersistenceError(SidecarFile(path), err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return domain.NewPersistenceError(path, err)
		}
	}

	vecTmp, err := writeTemp(VectorFile(path), vec)
	if err != nil {
		return err
	}
	sideTmp, err := writeTemp(SidecarFile(path), side)
	if err != nil {
		_ = os.Remove(vecTmp)
		return err
	}

	if err := os.Rename(vecTmp, VectorFile(path)); err != nil {
		_ = os.Remove(vecTmp)
		_ = os.Remove(sideTmp)
		return domain.NewPersistenceError(VectorFile(path), err)
	}
	if err := os.Rename(sideTmp, SidecarFile(path)); err != nil {
		_ = os.Remove(sideTmp)
		return domain.NewPersistenceError(SidecarFile(path), err)
	}
	return nil
}

// Load reads a file pair written by Save. It fails closed with a
// PersistenceError on any inconsistency. The index is nil for a
// lexical-only snapshot.
func Load(path string) (*Index, []domain.Chunk, error) {
	side, err := os.ReadFile(SidecarFile(path))
	if err != nil {
		return nil, nil, domain.NewPersistenceError(SidecarFile(path), err)
	}
	vec, err := os.ReadFile(VectorFile(path))
	if err != nil {
		return nil, nil, domain.NewPersistenceError(VectorFile(path), err)
	}

	var meta sidecar
	if err := json.Unmarshal(side, &meta); err != nil {
		return nil, nil, domain.NewPersistenceError(SidecarFile(path), fmt.Errorf("decode sidecar: %w", err))
	}
	if meta.Version != FormatVersion {
		return nil, nil, domain.NewPersistenceError(SidecarFile(path), fmt.Errorf("unsupported version %d", meta.Version))
	}
	if meta.Metric != Metric {
		return nil, nil, domain.NewPersistenceError(SidecarFile(path), fmt.Errorf("unsupported metric %q", meta.Metric))
	}
	sum := sha256.Sum256(vec)
	if hex.EncodeToString(sum[:]) != meta.VectorChecksum {
		return nil, nil, domain.NewPersistenceError(VectorFile(path), errors.New("checksum does not match sidecar"))
	}

	idx, err := decodeVectors(vec)
	if err != nil {
		return nil, nil, domain.NewPersistenceError(VectorFile(path), err)
	}
	dim := 0
	if idx != nil {
		dim = idx.dim
		idx.model = meta.Model
	}
	if dim != meta.Dimension {
		return nil, nil, domain.NewPersistenceError(VectorFile(path),
			fmt.Errorf("dimension %d does not match sidecar dimension %d", dim, meta.Dimension))
	}

	chunks := make([]domain.Chunk, 0, len(meta.Entries))
	seen := make(map[int64]struct{})
	seenChunks := make(map[string]struct{}, len(meta.Entries))
	for _, e := range meta.Entries {
		if _, dup := seenChunks[e.ChunkID]; dup {
			return nil, nil, domain.NewPersistenceError(SidecarFile(path), fmt.Errorf("chunk %s repeated", e.ChunkID))
		}
		seenChunks[e.ChunkID] = struct{}{}
		if e.VectorID >= 0 {
			if idx == nil || e.VectorID >= int64(len(idx.ids)) {
				return nil, nil, domain.NewPersistenceError(SidecarFile(path), fmt.Errorf("vector id %d out of range", e.VectorID))
			}
			if _, dup := seen[e.VectorID]; dup {
				return nil, nil, domain.NewPersistenceError(SidecarFile(path), fmt.Errorf("vector id %d repeated", e.VectorID))
			}
			seen[e.VectorID] = struct{}{}
			idx.ids[e.VectorID] = e.ChunkID
			idx.byChunk[e.ChunkID] = e.VectorID
		}
		chunks = append(chunks, domain.Chunk{
			ID:          e.ChunkID,
			DocumentID:  e.DocumentID,
			SourceName:  e.SourceName,
			Index:       e.ChunkIndex,
			Text:        e.Text,
			StartOffset: e.StartOffset,
			EndOffset:   e.EndOffset,
			WordCount:   e.WordCount,
			CharCount:   utf8.RuneCountInString(e.Text),
			PageNumber:  e.PageNumber,
		})
	}
	if idx != nil && len(seen) != len(idx.ids) {
		return nil, nil, domain.NewPersistenceError(SidecarFile(path),
			fmt.Errorf("vector ids are not dense: %d entries for %d vectors", len(seen), len(idx.ids)))
	}

	sort.Slice(chunks, func(i, j int) bool { return chunks[i].ID < chunks[j].ID })
	return idx, chunks, nil
}

// encodeVectors lays out: magic, version, dimension, count, quantizer
// header, centroids and assignments when trained, then the vectors.
// Every number is little-endian.
func encodeVectors(idx *Index) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(vecMagic)

	w := func(v any) error { return binary.Write(&buf, binary.LittleEndian, v) }

	if idx == nil {
		for _, v := range []any{uint32(FormatVersion), uint32(0), uint64(0), uint32(0), uint32(0), uint8(0)} {
			if err := w(v); err != nil {
				return nil, err
			}
		}
		return buf.Bytes(), nil
	}

	q := idx.quantizer
	var nlist, nprobe uint32
	var trained uint8
	if q != nil {
		nlist, nprobe = uint32(q.nlist), uint32(q.nprobe)
		if q.trained() {
			trained = 1
		}
	}

	header := []any{uint32(FormatVersion), uint32(idx.dim), uint64(len(idx.ids)), nlist, nprobe, trained}
	for _, v := range header {
		if err := w(v); err != nil {
			return nil, err
		}
	}
	if trained == 1 {
		if err := w(q.centroids); err != nil {
			return nil, err
		}
		if err := w(q.assign); err != nil {
			return nil, err
		}
	}
	if err := w(idx.vectors); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeVectors(data []byte) (*Index, error) {
	r := bytes.NewReader(data)

	magic := make([]byte, len(vecMagic))
	if _, err := io.ReadFull(r, magic); err != nil || string(magic) != vecMagic {
		return nil, errors.New("not a vector index file")
	}

	var (
		version, dim, nlist, nprobe uint32
		count                       uint64
		trained                     uint8
	)
	for _, v := range []any{&version, &dim, &count, &nlist, &nprobe, &trained} {
		if err := binary.Read(r, binary.LittleEndian, v); err != nil {
			return nil, fmt.Errorf("read header: %w", err)
		}
	}
	if version != FormatVersion {
		return nil, fmt.Errorf("unsupported version %d", version)
	}
	if dim == 0 {
		if count != 0 {
			return nil, errors.New("vectors without dimension")
		}
		return nil, nil
	}

	want := uint64(len(vecMagic)) + 4 + 4 + 8 + 4 + 4 + 1 + count*uint64(dim)*4
	if trained == 1 {
		want += uint64(nlist)*uint64(dim)*4 + count*4
	}
	if uint64(len(data)) != want || count > math.MaxInt32 {
		return nil, fmt.Errorf("file size %d does not match header", len(data))
	}

	idx := &Index{
		dim:     int(dim),
		ids:     make([]string, count),
		byChunk: make(map[string]int64, count),
	}
	if nlist > 0 {
		idx.quantizer = &quantizer{nlist: int(nlist), nprobe: int(nprobe)}
	}
	if trained == 1 {
		q := idx.quantizer
		if q == nil {
			return nil, errors.New("trained quantizer without partitions")
		}
		q.centroids = make([]float32, int(nlist)*int(dim))
		q.assign = make([]int32, count)
		if err := binary.Read(r, binary.LittleEndian, q.centroids); err != nil {
			return nil, fmt.Errorf("read centroids: %w", err)
		}
		if err := binary.Read(r, binary.LittleEndian, q.assign); err != nil {
			return nil, fmt.Errorf("read assignments: %w", err)
		}
		q.lists = make([][]int64, nlist)
		for vid, part := range q.assign {
			if part < 0 || int(part) >= int(nlist) {
				return nil, fmt.Errorf("vector %d assigned to unknown partition %d", vid, part)
			}
			q.lists[part] = append(q.lists[part], int64(vid))
		}
	}

	idx.vectors = make([]float32, int(count)*int(dim))
	if err := binary.Read(r, binary.LittleEndian, idx.vectors); err != nil {
		return nil, fmt.Errorf("read vectors: %w", err)
	}
	return idx, nil
}

func writeTemp(target string, data []byte) (string, error) {
	tmp := target + ".tmp-" + uuid.NewString()
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		_ = os.Remove(tmp)
		return "", domain.NewPersistenceError(target, err)
	}
	return tmp, nil
}
