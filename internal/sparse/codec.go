package sparse

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

// csrMagic/csrVersion guard against loading an incompatible sparse.csr
// file written by a different on-disk layout.
const (
	csrMagic   uint32 = 0x43535231 // "CSR1"
	csrVersion uint32 = 1
)

// WriteCSR serializes a Matrix in a stable binary layout: a small
// header, then row_pointers, then col_indices, then values. Using
// stdlib encoding/binary here is a deliberate choice (see DESIGN.md):
// no dependency in the retrieval pack offers a sparse-matrix file
// codec, so this format is purpose-built.
func WriteCSR(w io.Writer, m *Matrix) error {
	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, binary.LittleEndian, csrMagic); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, csrVersion); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, m.NumFeatures); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, int64(len(m.RowPointers))); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, m.RowPointers); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, int64(len(m.ColIndices))); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, m.ColIndices); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, m.Values); err != nil {
		return err
	}
	return bw.Flush()
}

// ReadCSR deserializes a Matrix written by WriteCSR.
func ReadCSR(r io.Reader) (*Matrix, error) {
	br := bufio.NewReader(r)
	var magic, version uint32
	if err := binary.Read(br, binary.LittleEndian, &magic); err != nil {
		return nil, err
	}
	if magic != csrMagic {
		return nil, fmt.Errorf("sparse: bad magic %x, file is not a CSR matrix", magic)
	}
	if err := binary.Read(br, binary.LittleEndian, &version); err != nil {
		return nil, err
	}
	if version != csrVersion {
		return nil, fmt.Errorf("sparse: unsupported CSR version %d", version)
	}

	m := &Matrix{}
	if err := binary.Read(br, binary.LittleEndian, &m.NumFeatures); err != nil {
		return nil, err
	}

	var numPointers int64
	if err := binary.Read(br, binary.LittleEndian, &numPointers); err != nil {
		return nil, err
	}
	m.RowPointers = make([]int32, numPointers)
	if err := binary.Read(br, binary.LittleEndian, m.RowPointers); err != nil {
		return nil, err
	}

	var numEntries int64
	if err := binary.Read(br, binary.LittleEndian, &numEntries); err != nil {
		return nil, err
	}
	m.ColIndices = make([]int32, numEntries)
	if err := binary.Read(br, binary.LittleEndian, m.ColIndices); err != nil {
		return nil, err
	}
	m.Values = make([]float32, numEntries)
	if err := binary.Read(br, binary.LittleEndian, m.Values); err != nil {
		return nil, err
	}

	return m, nil
}
