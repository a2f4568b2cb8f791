package model

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unsafe"

	"github.com/czcorpus/cnc-gokit/fs"
	"github.com/edsrzf/mmap-go"
	"github.com/rs/zerolog/log"

	"github.com/steosofficial/koreanmorphy/dictionary"
)

// --- ENVIRONMENT ---

// EnvModelPath - environment variable consulted when no model path is given.
const EnvModelPath = "KOREANMORPHY_MODEL_PATH"

// BinaryModelFile - name of the compiled model inside a model directory.
const BinaryModelFile = "komoran.model"

var binaryMagic = [4]byte{'K', 'M', 'R', '1'}

// ErrNoModelPath is returned by Load when neither a path nor EnvModelPath is set.
var ErrNoModelPath = errors.New("no model path given and " + EnvModelPath + " not set")

// --- FILE LAYOUT ---

// Header - fixed-size, little-endian head of a compiled model. It maps the
// rest of the file so that the automata can be viewed without copying.
type Header struct {
	Magic             [4]byte // "KMR1".
	_                 uint32
	ComplexDataOffset int64 // Offset of the gzip'ed gob block.
	ComplexDataLength int64 // Its length in bytes.
	ObsNodesOffset    int64 // Regular dictionary node array.
	ObsNodesCount     int64
	ObsEdgesOffset    int64 // Regular dictionary edge array.
	ObsEdgesCount     int64
	IrrNodesOffset    int64 // Irregular dictionary node array.
	IrrNodesCount     int64
	IrrEdgesOffset    int64 // Irregular dictionary edge array.
	IrrEdgesCount     int64
}

// ComplexData - everything that is not a fixed-size array: tags, surface and
// value pools, transition costs. Serialized with gob and loaded to the heap.
type ComplexData struct {
	Tags        []string
	ObsSurfaces []string
	ObsValues   [][]ScoredTag
	IrrSurfaces []string
	IrrValues   [][]IrregularNode
	Transitions *TransitionMatrix
}

// --- LOADING ---

// Load opens a model. A directory is read as its compiled model when it
// contains BinaryModelFile and as text sources otherwise; any other path is
// taken as a compiled model file.
func Load(path string) (*Resources, error) {
	if path == "" {
		path = os.Getenv(EnvModelPath)
	}
	if path == "" {
		return nil, ErrNoModelPath
	}
	if fs.PathExists(path) {
		isDir, err := fs.IsDir(path)
		if err != nil {
			return nil, fmt.Errorf("failed to inspect model path %s: %w", path, err)
		}
		if isDir {
			binPath := filepath.Join(path, BinaryModelFile)
			if fs.PathExists(binPath) {
				return LoadBinary(binPath)
			}
			return LoadSources(path)
		}
	}
	return LoadBinary(path)
}

// LoadBinary maps a compiled model, reads its header, decodes the complex
// block and creates "virtual" slices over the raw automaton arrays.
func LoadBinary(path string) (*Resources, error) {
	// 0. A model shipped in parts is joined on first use.
	if !fs.PathExists(path) {
		prefix := filepath.Base(path) + "_"
		if err := mergeFilesWithPrefix(filepath.Dir(path), prefix, path); err != nil {
			return nil, fmt.Errorf("model %s not found: %w", path, err)
		}
	}

	// 1. Open the file.
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open model: %w", err)
	}
	defer file.Close()

	// 2. Map the whole file into the address space; the OS pages it in
	// on access.
	mmapFile, err := mmap.Map(file, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to map model: %w", err)
	}
	res, err := viewMapped(mmapFile)
	if err != nil {
		_ = mmapFile.Unmap()
		return nil, fmt.Errorf("failed to load model %s: %w", path, err)
	}
	log.Info().
		Str("path", path).
		Int("morphs", res.Observation.Len()).
		Int("irregulars", res.Irregular.Len()).
		Msg("loaded compiled model")
	return res, nil
}

func viewMapped(data mmap.MMap) (*Resources, error) {
	// 3. Header, straight from the mapped bytes.
	var header Header
	headerSize := binary.Size(header)
	if len(data) < headerSize {
		return nil, errors.New("file too small for header")
	}
	if err := binary.Read(bytes.NewReader(data[:headerSize]), binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if header.Magic != binaryMagic {
		return nil, errors.New("bad file signature")
	}

	// 4. Complex block: gunzip, then gob.
	complexBlock, err := section(data, header.ComplexDataOffset, header.ComplexDataLength, 1)
	if err != nil {
		return nil, fmt.Errorf("complex data: %w", err)
	}
	gzipReader, err := gzip.NewReader(bytes.NewReader(complexBlock))
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	var complexData ComplexData
	if err := gob.NewDecoder(gzipReader).Decode(&complexData); err != nil {
		return nil, fmt.Errorf("failed to decode complex data: %w", err)
	}
	if err := gzipReader.Close(); err != nil {
		return nil, fmt.Errorf("failed to close gzip reader: %w", err)
	}
	tags, err := NewTagTable(complexData.Tags)
	if err != nil {
		return nil, err
	}

	// 5. Views over the raw arrays. They do not own the data.
	nodeSize := int64(unsafe.Sizeof(dictionary.FlatNode{}))
	edgeSize := int64(unsafe.Sizeof(dictionary.FlatEdge{}))
	obsNodes, err := section(data, header.ObsNodesOffset, header.ObsNodesCount, nodeSize)
	if err != nil {
		return nil, fmt.Errorf("observation nodes: %w", err)
	}
	obsEdges, err := section(data, header.ObsEdgesOffset, header.ObsEdgesCount, edgeSize)
	if err != nil {
		return nil, fmt.Errorf("observation edges: %w", err)
	}
	irrNodes, err := section(data, header.IrrNodesOffset, header.IrrNodesCount, nodeSize)
	if err != nil {
		return nil, fmt.Errorf("irregular nodes: %w", err)
	}
	irrEdges, err := section(data, header.IrrEdgesOffset, header.IrrEdgesCount, edgeSize)
	if err != nil {
		return nil, fmt.Errorf("irregular edges: %w", err)
	}

	observation, err := dictionary.NewTrieFromFlat(
		bytesToSlice[dictionary.FlatNode](obsNodes), bytesToSlice[dictionary.FlatEdge](obsEdges),
		complexData.ObsSurfaces, complexData.ObsValues)
	if err != nil {
		return nil, err
	}
	irregular, err := dictionary.NewTrieFromFlat(
		bytesToSlice[dictionary.FlatNode](irrNodes), bytesToSlice[dictionary.FlatEdge](irrEdges),
		complexData.IrrSurfaces, complexData.IrrValues)
	if err != nil {
		return nil, err
	}

	// 6. Ready to use.
	return &Resources{
		Tags:        tags,
		Observation: observation,
		Irregular:   irregular,
		Transitions: complexData.Transitions,
		mmapFile:    data,
	}, nil
}

// section bounds-checks count elements of size bytes at offset.
func section(data []byte, offset, count, size int64) ([]byte, error) {
	length := count * size
	if offset < 0 || count < 0 || offset+length > int64(len(data)) {
		return nil, fmt.Errorf("section [%d, %d) outside of file of %d bytes", offset, offset+length, len(data))
	}
	return data[offset : offset+length], nil
}

// --- COMPILING ---

// Compile writes res as a binary model to path.
func Compile(res *Resources, path string) error {
	obsNodes, obsEdges, obsSurfaces, obsValues := res.Observation.Flat()
	irrNodes, irrEdges, irrSurfaces, irrValues := res.Irregular.Flat()

	// 1. Complex block.
	var complexBuf bytes.Buffer
	gzipWriter := gzip.NewWriter(&complexBuf)
	err := gob.NewEncoder(gzipWriter).Encode(ComplexData{
		Tags:        res.Tags.Names(),
		ObsSurfaces: obsSurfaces,
		ObsValues:   obsValues,
		IrrSurfaces: irrSurfaces,
		IrrValues:   irrValues,
		Transitions: res.Transitions,
	})
	if err != nil {
		return fmt.Errorf("failed to encode complex data: %w", err)
	}
	if err := gzipWriter.Close(); err != nil {
		return fmt.Errorf("failed to compress complex data: %w", err)
	}

	// 2. Layout: header, complex block, then the arrays, each 8-byte aligned
	// so that views over mapped memory are properly aligned.
	var header Header
	header.Magic = binaryMagic
	offset := int64(binary.Size(header))
	header.ComplexDataOffset, header.ComplexDataLength = offset, int64(complexBuf.Len())
	offset = align8(offset + header.ComplexDataLength)
	obsNodeBytes := sliceToBytes(obsNodes)
	header.ObsNodesOffset, header.ObsNodesCount = offset, int64(len(obsNodes))
	offset = align8(offset + int64(len(obsNodeBytes)))
	obsEdgeBytes := sliceToBytes(obsEdges)
	header.ObsEdgesOffset, header.ObsEdgesCount = offset, int64(len(obsEdges))
	offset = align8(offset + int64(len(obsEdgeBytes)))
	irrNodeBytes := sliceToBytes(irrNodes)
	header.IrrNodesOffset, header.IrrNodesCount = offset, int64(len(irrNodes))
	offset = align8(offset + int64(len(irrNodeBytes)))
	irrEdgeBytes := sliceToBytes(irrEdges)
	header.IrrEdgesOffset, header.IrrEdgesCount = offset, int64(len(irrEdges))

	// 3. Write it out.
	var out bytes.Buffer
	if err := binary.Write(&out, binary.LittleEndian, header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, block := range []struct {
		offset int64
		data   []byte
	}{
		{header.ComplexDataOffset, complexBuf.Bytes()},
		{header.ObsNodesOffset, obsNodeBytes},
		{header.ObsEdgesOffset, obsEdgeBytes},
		{header.IrrNodesOffset, irrNodeBytes},
		{header.IrrEdgesOffset, irrEdgeBytes},
	} {
		out.Write(make([]byte, block.offset-int64(out.Len())))
		out.Write(block.data)
	}
	if err := os.WriteFile(path, out.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write model %s: %w", path, err)
	}
	log.Info().Str("path", path).Int("bytes", out.Len()).Msg("compiled model")
	return nil
}

func align8(n int64) int64 {
	return (n + 7) &^ 7
}

// --- UTILITIES ---

// mergeFilesWithPrefix joins the files of sourceDir whose names start with
// prefix into outputPath. `split` names its parts `aa`, `ab`, ..., so
// lexicographic order is the right order.
func mergeFilesWithPrefix(sourceDir, prefix, outputPath string) error {
	// 1. Find the parts.
	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", sourceDir, err)
	}
	var partFiles []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), prefix) {
			partFiles = append(partFiles, filepath.Join(sourceDir, e.Name()))
		}
	}
	if len(partFiles) == 0 {
		return fmt.Errorf("no files with prefix '%s' in '%s'", prefix, sourceDir)
	}
	sort.Strings(partFiles)
	log.Info().Strs("parts", partFiles).Str("output", outputPath).Msg("merging model parts")

	// 2. Concatenate into a temporary file and move it in place, so a failed
	// merge never leaves a truncated model behind.
	tmpPath := outputPath + ".tmp"
	outFile, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", tmpPath, err)
	}
	for _, partPath := range partFiles {
		inFile, err := os.Open(partPath)
		if err != nil {
			outFile.Close()
			os.Remove(tmpPath)
			return fmt.Errorf("failed to open part %s: %w", partPath, err)
		}
		_, err = io.Copy(outFile, inFile)
		inFile.Close()
		if err != nil {
			outFile.Close()
			os.Remove(tmpPath)
			return fmt.Errorf("failed to copy %s into %s: %w", partPath, tmpPath, err)
		}
	}
	if err := outFile.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close %s: %w", tmpPath, err)
	}
	return os.Rename(tmpPath, outputPath)
}

// bytesToSlice creates a slice header over b without copying it.
func bytesToSlice[T any](b []byte) []T {
	if len(b) == 0 {
		return nil
	}
	var t T
	size := int(unsafe.Sizeof(t))
	return unsafe.Slice((*T)(unsafe.Pointer(&b[0])), len(b)/size)
}

// sliceToBytes is the inverse of bytesToSlice.
func sliceToBytes[T any](s []T) []byte {
	if len(s) == 0 {
		return nil
	}
	var t T
	return unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*int(unsafe.Sizeof(t)))
}
