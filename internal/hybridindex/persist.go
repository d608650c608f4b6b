package hybridindex

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/amanmcp/codeindex/internal/errcodes"
	"github.com/amanmcp/codeindex/internal/sparse"
)

// metaFile is the JSON-serialized sidecar describing the geometry and
// schema version of the saved index, so Load can detect an
// incompatible ast_to_text schema or embedder change before trusting
// stale vectors.
type metaFile struct {
	NumFeatures       int32  `json:"num_features"`
	Dimension         int    `json:"dimension"`
	EmbeddingModel    string `json:"embedding_model"`
	TextSchemaVersion int    `json:"text_schema_version"`
	RowCount          int    `json:"row_count"`
}

const (
	idsFileName    = "ids.bin"
	sparseFileName = "sparse.csr"
	denseFileName  = "dense.bin"
	metaFileName   = "meta.json"
)

// Save atomically persists the index to dir: each file is written to
// a temp path in the same directory and renamed into place, so a
// crash mid-write never leaves a half-written file visible under the
// real name.
func (idx *Index) Save(dir string, embeddingModel string) error {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errcodes.Wrap(errcodes.ErrCodeFileAccess, err)
	}

	return withSaveLock(dir, func() error {
		return idx.saveLocked(dir, embeddingModel)
	})
}

func (idx *Index) saveLocked(dir string, embeddingModel string) error {
	if err := writeAtomic(filepath.Join(dir, idsFileName), func(f *os.File) error {
		w := bufio.NewWriter(f)
		if err := binary.Write(w, binary.LittleEndian, int64(len(idx.ids))); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, idx.ids); err != nil {
			return err
		}
		return w.Flush()
	}); err != nil {
		return err
	}

	rows := make([]*sparse.SparseVector, len(idx.sparse))
	copy(rows, idx.sparse)
	matrix := sparse.NewMatrix(rows, idx.numFeatures)
	if err := writeAtomic(filepath.Join(dir, sparseFileName), func(f *os.File) error {
		return sparse.WriteCSR(f, matrix)
	}); err != nil {
		return err
	}

	if err := writeAtomic(filepath.Join(dir, denseFileName), func(f *os.File) error {
		w := bufio.NewWriter(f)
		for _, row := range idx.dense {
			if err := binary.Write(w, binary.LittleEndian, row); err != nil {
				return err
			}
		}
		return w.Flush()
	}); err != nil {
		return err
	}

	meta := metaFile{
		NumFeatures:       idx.numFeatures,
		Dimension:         idx.dimension,
		EmbeddingModel:    embeddingModel,
		TextSchemaVersion: idx.textSchemaVersion,
		RowCount:          len(idx.ids),
	}
	if err := writeAtomic(filepath.Join(dir, metaFileName), func(f *os.File) error {
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		return enc.Encode(meta)
	}); err != nil {
		return err
	}

	return nil
}

// Load reconstructs an index from a directory written by Save. It
// returns an error if the sidecar's text_schema_version or embedding
// model doesn't match what the caller expects, forcing a rebuild
// rather than silently mixing vector generations.
func Load(dir string, expectedModel string, expectedTextSchemaVersion int) (*Index, error) {
	metaBytes, err := os.ReadFile(filepath.Join(dir, metaFileName))
	if err != nil {
		return nil, errcodes.Wrap(errcodes.ErrCodeFileAccess, err)
	}
	var meta metaFile
	if err := json.Unmarshal(metaBytes, &meta); err != nil {
		return nil, errcodes.Wrap(errcodes.ErrCodeInvalidInput, err)
	}
	if meta.TextSchemaVersion != expectedTextSchemaVersion {
		return nil, errcodes.New(errcodes.ErrCodeInvalidInput,
			"hybrid index text schema version mismatch, rebuild required", nil)
	}
	if expectedModel != "" && meta.EmbeddingModel != expectedModel {
		return nil, errcodes.New(errcodes.ErrCodeInvalidInput,
			"hybrid index embedding model mismatch, rebuild required", nil)
	}

	idsFile, err := os.Open(filepath.Join(dir, idsFileName))
	if err != nil {
		return nil, errcodes.Wrap(errcodes.ErrCodeFileAccess, err)
	}
	defer idsFile.Close()
	var n int64
	r := bufio.NewReader(idsFile)
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, errcodes.Wrap(errcodes.ErrCodeInvalidInput, err)
	}
	ids := make([]int64, n)
	if err := binary.Read(r, binary.LittleEndian, ids); err != nil {
		return nil, errcodes.Wrap(errcodes.ErrCodeInvalidInput, err)
	}

	sparseFile, err := os.Open(filepath.Join(dir, sparseFileName))
	if err != nil {
		return nil, errcodes.Wrap(errcodes.ErrCodeFileAccess, err)
	}
	defer sparseFile.Close()
	matrix, err := sparse.ReadCSR(sparseFile)
	if err != nil {
		return nil, errcodes.Wrap(errcodes.ErrCodeInvalidInput, err)
	}

	denseFile, err := os.Open(filepath.Join(dir, denseFileName))
	if err != nil {
		return nil, errcodes.Wrap(errcodes.ErrCodeFileAccess, err)
	}
	defer denseFile.Close()
	denseReader := bufio.NewReader(denseFile)

	idx := New(meta.NumFeatures, meta.Dimension)
	idx.textSchemaVersion = meta.TextSchemaVersion
	idx.ids = ids
	idx.sparse = make([]*sparse.SparseVector, matrix.NumRows())
	idx.dense = make([][]float32, matrix.NumRows())
	idx.rowOf = make(map[int64]int, matrix.NumRows())

	for i := 0; i < matrix.NumRows(); i++ {
		idx.sparse[i] = matrix.Row(i)

		dense := make([]float32, meta.Dimension)
		if err := binary.Read(denseReader, binary.LittleEndian, dense); err != nil {
			return nil, errcodes.Wrap(errcodes.ErrCodeInvalidInput, err)
		}
		idx.dense[i] = dense

		if ids[i] != -1 {
			idx.rowOf[ids[i]] = i
		} else {
			idx.tombs++
		}
	}

	return idx, nil
}

// writeAtomic writes via a temp file in the same directory and
// renames it into place, so concurrent readers (and a crash mid-write)
// never observe a partial file under the real name.
func writeAtomic(path string, write func(f *os.File) error) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return errcodes.Wrap(errcodes.ErrCodeFileAccess, err)
	}
	if err := write(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return errcodes.Wrap(errcodes.ErrCodeFileAccess, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return errcodes.Wrap(errcodes.ErrCodeFileAccess, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return errcodes.Wrap(errcodes.ErrCodeFileAccess, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return errcodes.Wrap(errcodes.ErrCodeFileAccess, err)
	}
	return nil
}
