package memory

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"recommender/internal/domain"
	"recommender/internal/vectorstore"
)

var magic = [4]byte{'R', 'I', 'D', 'X'}

const formatVersion uint32 = 1

type header struct {
	Magic     [4]byte
	Version   uint32
	Dimension uint32
	Count     uint64
}

// Save writes the index, its metadata and the info record into dir.
// The info record is written last so watchers see a complete snapshot.
func (s *Index) Save(dir, model string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: create %s: %w", domain.ErrSnapshot, dir, err)
	}
	if err := writeAtomic(filepath.Join(dir, vectorstore.IndexFile), s.writeVectors); err != nil {
		return err
	}
	records := s.records
	if records == nil {
		records = []domain.IndexRecord{}
	}
	if err := writeJSON(filepath.Join(dir, vectorstore.MetadataFile), records); err != nil {
		return err
	}
	info := vectorstore.Info{
		NumEmbeddings:      len(s.vectors),
		EmbeddingDimension: s.dimension,
		Model:              model,
	}
	return writeJSON(filepath.Join(dir, vectorstore.InfoFile), info)
}

func (s *Index) writeVectors(w io.Writer) error {
	h := header{
		Magic:     magic,
		Version:   formatVersion,
		Dimension: uint32(s.dimension),
		Count:     uint64(len(s.vectors)),
	}
	if err := binary.Write(w, binary.LittleEndian, h); err != nil {
		return err
	}
	for _, v := range s.vectors {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return err
		}
	}
	return nil
}

// Load restores a snapshot written by Save. Both the index file and the
// metadata file must exist. A count mismatch between them is logged and
// the longer side is truncated.
func Load(dir string, logger *slog.Logger) (*Index, error) {
	if logger == nil {
		logger = slog.Default()
	}
	indexPath := filepath.Join(dir, vectorstore.IndexFile)
	metaPath := filepath.Join(dir, vectorstore.MetadataFile)
	for _, p := range []string{indexPath, metaPath} {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, p)
		}
	}

	dim, vectors, err := readVectors(indexPath)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", domain.ErrSnapshot, metaPath, err)
	}
	var records []domain.IndexRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", domain.ErrSnapshot, metaPath, err)
	}

	if len(vectors) != len(records) {
		logger.Warn("snapshot vector and metadata counts differ",
			"dir", dir, "vectors", len(vectors), "metadata", len(records))
		n := min(len(vectors), len(records))
		vectors, records = vectors[:n], records[:n]
	}

	idx, err := New(dim)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrSnapshot, indexPath, err)
	}
	idx.vectors = vectors
	idx.records = records
	return idx, nil
}

func readVectors(path string) (int, [][]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: open %s: %w", domain.ErrSnapshot, path, err)
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return 0, nil, fmt.Errorf("%w: stat %s: %w", domain.ErrSnapshot, path, err)
	}
	r := bufio.NewReader(f)

	var h header
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return 0, nil, fmt.Errorf("%w: read header of %s: %w", domain.ErrSnapshot, path, err)
	}
	if h.Magic != magic || h.Version != formatVersion {
		return 0, nil, fmt.Errorf("%w: %s is not an index file", domain.ErrSnapshot, path)
	}
	if err := checkSize(h, st.Size()); err != nil {
		return 0, nil, fmt.Errorf("%w: %s: %w", domain.ErrSnapshot, path, err)
	}
	dim := int(h.Dimension)
	vectors := make([][]float32, 0, h.Count)
	for i := uint64(0); i < h.Count; i++ {
		v := make([]float32, dim)
		if err := binary.Read(r, binary.LittleEndian, v); err != nil {
			return 0, nil, fmt.Errorf("%w: read vector %d of %s: %w", domain.ErrSnapshot, i, path, err)
		}
		vectors = append(vectors, v)
	}
	return dim, vectors, nil
}

// checkSize verifies the header against the file length before any
// allocation sized from it.
func checkSize(h header, size int64) error {
	if h.Dimension == 0 {
		return errors.New("header has zero dimension")
	}
	payload := size - int64(binary.Size(h))
	row := int64(h.Dimension) * 4
	if payload < 0 || payload%row != 0 || uint64(payload/row) != h.Count {
		return fmt.Errorf("header claims %d vectors of %d values, file has %d bytes",
			h.Count, h.Dimension, size)
	}
	return nil
}

func writeJSON(path string, v any) error {
	return writeAtomic(path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	})
}

// writeAtomic writes through a temp file in the same directory and renames it into place.
func writeAtomic(path string, write func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrSnapshot, err)
	}
	defer os.Remove(tmp.Name())

	bw := bufio.NewWriter(tmp)
	if err := write(bw); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: write %s: %w", domain.ErrSnapshot, path, err)
	}
	if err := bw.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: write %s: %w", domain.ErrSnapshot, path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %w", domain.ErrSnapshot, path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("%w: rename %s: %w", domain.ErrSnapshot, path, err)
	}
	return nil
}
