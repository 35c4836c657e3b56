// Package segment stores many packed position maps in a single file.
//
// Layout, little endian:
//
//	header  Version uint8 | Count int32 | FooterOffset int64
//	body    packed position maps, back to back
//	footer  NameLen uint16 | codec name | packed blob boundaries
//
// The Count+1 blob boundaries are absolute file offsets. They are
// monotonic, so the footer packs them with the default positions codec.
package segment

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"positionsmap/positionsmap"
	"positionsmap/utils"
)

const (
	Version    byte = 1
	HeaderSize      = 13 // 1 + 4 + 8
)

var (
	ErrBadHeader       = errors.New("segment: bad header")
	ErrBadFooter       = errors.New("segment: bad footer")
	ErrIndexOutOfRange = errors.New("segment: index out of range")
	ErrClosed          = errors.New("segment: writer closed")
)

type FileHeader struct {
	Version      byte
	Count        int32
	FooterOffset int64
}

func writeHeader(w io.WriteSeeker, h FileHeader) error {
	if _, err := w.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, h.Version); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, h.Count); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, h.FooterOffset); err != nil {
		return err
	}
	return nil
}

func readHeader(r io.ReadSeeker) (FileHeader, error) {
	h := FileHeader{}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return h, err
	}
	if err := binary.Read(r, binary.LittleEndian, &h.Version); err != nil {
		return h, fmt.Errorf("%w: %v", ErrBadHeader, err)
	}
	if err := binary.Read(r, binary.LittleEndian, &h.Count); err != nil {
		return h, fmt.Errorf("%w: %v", ErrBadHeader, err)
	}
	if err := binary.Read(r, binary.LittleEndian, &h.FooterOffset); err != nil {
		return h, fmt.Errorf("%w: %v", ErrBadHeader, err)
	}
	if h.Version != Version {
		return h, fmt.Errorf("%w: version %d", ErrBadHeader, h.Version)
	}
	if h.Count < 0 || h.FooterOffset < HeaderSize {
		return h, fmt.Errorf("%w: count %d footer at %d", ErrBadHeader, h.Count, h.FooterOffset)
	}
	return h, nil
}

// Writer appends packed position maps to a new segment file.
type Writer struct {
	file    *os.File
	codec   *positionsmap.Codec
	offsets []uint64
	closed  bool
}

// Create starts a segment at path whose entries are packed with codec.
// The codec must be built from named collaborators so readers can rebuild
// it from the footer.
func Create(path string, codec *positionsmap.Codec) (*Writer, error) {
	if codec == nil {
		codec = positionsmap.Default()
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	// placeholder, rewritten on Close
	if err := writeHeader(file, FileHeader{Version: Version, FooterOffset: HeaderSize}); err != nil {
		file.Close()
		return nil, err
	}
	return &Writer{
		file:    file,
		codec:   codec,
		offsets: []uint64{HeaderSize},
	}, nil
}

// Add packs positions with the writer's codec and appends them.
func (w *Writer) Add(positions []uint64) error {
	packed, err := w.codec.Pack(positions)
	if err != nil {
		return err
	}
	return w.AppendPacked(packed)
}

// AppendPacked appends a map that was already packed with the writer's
// codec.
func (w *Writer) AppendPacked(packed []byte) error {
	if w.closed {
		return ErrClosed
	}
	n, err := w.file.Write(packed)
	if err != nil {
		return err
	}
	w.offsets = append(w.offsets, w.offsets[len(w.offsets)-1]+uint64(n))
	return nil
}

// WriteAll writes a complete segment from maps already packed with codec.
func WriteAll(path string, codec *positionsmap.Codec, packed [][]byte) error {
	w, err := Create(path, codec)
	if err != nil {
		return err
	}
	data, bounds := utils.ConcatBlobs(packed)
	if _, err := w.file.Write(data); err != nil {
		w.file.Close()
		return err
	}
	for _, b := range bounds[1:] {
		w.offsets = append(w.offsets, HeaderSize+b)
	}
	return w.Close()
}

// Count returns the number of entries written so far.
func (w *Writer) Count() int {
	return len(w.offsets) - 1
}

// Close writes the footer and the final header.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	defer w.file.Close()

	footerOffset := w.offsets[len(w.offsets)-1]
	packedOffsets, err := positionsmap.Pack(w.offsets)
	if err != nil {
		return err
	}

	name := w.codec.Name()
	if err := binary.Write(w.file, binary.LittleEndian, uint16(len(name))); err != nil {
		return err
	}
	if _, err := io.WriteString(w.file, name); err != nil {
		return err
	}
	if _, err := w.file.Write(packedOffsets); err != nil {
		return err
	}

	header := FileHeader{
		Version:      Version,
		Count:        int32(w.Count()),
		FooterOffset: int64(footerOffset),
	}
	if err := writeHeader(w.file, header); err != nil {
		return err
	}
	return w.file.Sync()
}

// Reader gives random access to the entries of a segment file.
type Reader struct {
	file    *os.File
	header  FileHeader
	codec   *positionsmap.Codec
	offsets []uint64
}

// Open reads the header and footer of the segment at path.
func Open(path string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r, err := newReader(file)
	if err != nil {
		file.Close()
		return nil, err
	}
	return r, nil
}

func newReader(file *os.File) (*Reader, error) {
	header, err := readHeader(file)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		return nil, err
	}
	if header.FooterOffset+2 > info.Size() {
		return nil, fmt.Errorf("%w: footer at %d, file has %d bytes", ErrBadFooter, header.FooterOffset, info.Size())
	}

	footer := make([]byte, info.Size()-header.FooterOffset)
	if _, err := file.ReadAt(footer, header.FooterOffset); err != nil {
		return nil, err
	}

	nameLen := int(binary.LittleEndian.Uint16(footer))
	if 2+nameLen > len(footer) {
		return nil, fmt.Errorf("%w: codec name overruns file", ErrBadFooter)
	}
	codec, err := positionsmap.ParseName(string(footer[2 : 2+nameLen]))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadFooter, err)
	}

	offsets, err := positionsmap.Unpack(footer[2+nameLen:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadFooter, err)
	}
	if len(offsets) != int(header.Count)+1 ||
		offsets[0] != HeaderSize ||
		offsets[len(offsets)-1] != uint64(header.FooterOffset) {
		return nil, fmt.Errorf("%w: offsets do not match header", ErrBadFooter)
	}

	return &Reader{file: file, header: header, codec: codec, offsets: offsets}, nil
}

func (r *Reader) Count() int {
	return int(r.header.Count)
}

// Codec returns the codec the entries were packed with.
func (r *Reader) Codec() *positionsmap.Codec {
	return r.codec
}

// Packed returns entry i as stored.
func (r *Reader) Packed(i int) ([]byte, error) {
	if i < 0 || i >= r.Count() {
		return nil, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, i, r.Count())
	}
	start, end := r.offsets[i], r.offsets[i+1]
	data := make([]byte, end-start)
	if _, err := r.file.ReadAt(data, int64(start)); err != nil {
		return nil, err
	}
	return data, nil
}

// ReadAll returns every entry as stored, reading the body once.
func (r *Reader) ReadAll() ([][]byte, error) {
	body := make([]byte, r.header.FooterOffset-HeaderSize)
	if _, err := r.file.ReadAt(body, HeaderSize); err != nil {
		return nil, err
	}
	rel := make([]uint64, len(r.offsets))
	for i, o := range r.offsets {
		rel[i] = o - HeaderSize
	}
	return utils.SplitBlob(body, rel)
}

// Positions returns entry i unpacked.
func (r *Reader) Positions(i int) ([]uint64, error) {
	packed, err := r.Packed(i)
	if err != nil {
		return nil, err
	}
	return r.codec.Unpack(packed)
}

func (r *Reader) Close() error {
	return r.file.Close()
}
