package dcpool

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ankit-chaubey/layer/internal/crypto"
)

// ErrCorruptSession is returned when a session file's binary layout does
// not match spec §6 (truncated record, implausible address length).
var ErrCorruptSession = errors.New("dcpool: corrupt session record")

// Record is one datacenter's persisted connection state (spec §6's
// "Session persistence format"): the address last used to reach it, the
// authorization key if one has been derived, and the salt/offset a future
// connection can reuse without a fresh handshake.
type Record struct {
	DCID       int32
	Addr       string
	AuthKey    *crypto.AuthKey
	FirstSalt  int64
	TimeOffset int32
}

// SessionBackend persists the pool's per-DC state across restarts (spec §6
// "session_backend", §9 Non-goals: only the interface is specified here,
// any concrete store — file, memory, SQL — must be round-trip equivalent).
type SessionBackend interface {
	Save(homeDC int32, records []Record) error
	Load() (homeDC int32, records []Record, err error)
	Delete() error
	Name() string
}

// FileBackend is the reference SessionBackend: a single binary file at
// Path, laid out exactly as spec §6 describes so any other language's
// client sharing the same session directory can read it.
type FileBackend struct {
	Path string
}

// NewFileBackend returns a FileBackend rooted at path.
func NewFileBackend(path string) *FileBackend {
	return &FileBackend{Path: path}
}

// Name implements SessionBackend.
func (b *FileBackend) Name() string { return "file:" + b.Path }

// Save implements SessionBackend, writing the binary layout spec §6 gives:
//
//	home_dc_id  i32 LE
//	dc_count    u8
//	per DC: dc_id i32 LE, has_key u8, auth_key 256B?, first_salt i64 LE,
//	        time_offset i32 LE, addr_len u8, addr utf-8 bytes
func (b *FileBackend) Save(homeDC int32, records []Record) error {
	if len(records) > 255 {
		return fmt.Errorf("dcpool: %w: %d records exceeds the u8 dc_count field", ErrCorruptSession, len(records))
	}

	f, err := os.CreateTemp(dirOf(b.Path), ".session-*")
	if err != nil {
		return fmt.Errorf("dcpool: create session temp file: %w", err)
	}
	tmpName := f.Name()
	defer os.Remove(tmpName)

	w := bufio.NewWriter(f)
	if err := writeInt32(w, homeDC); err != nil {
		f.Close()
		return err
	}
	if err := w.WriteByte(byte(len(records))); err != nil {
		f.Close()
		return err
	}
	for _, rec := range records {
		if err := writeRecord(w, rec); err != nil {
			f.Close()
			return err
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("dcpool: flush session file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("dcpool: close session file: %w", err)
	}
	if err := os.Rename(tmpName, b.Path); err != nil {
		return fmt.Errorf("dcpool: rename session file into place: %w", err)
	}
	return nil
}

func writeRecord(w io.Writer, rec Record) error {
	if err := writeInt32(w, rec.DCID); err != nil {
		return err
	}
	hasKey := byte(0)
	if rec.AuthKey != nil {
		hasKey = 1
	}
	if _, err := w.Write([]byte{hasKey}); err != nil {
		return err
	}
	if rec.AuthKey != nil {
		keyBytes := rec.AuthKey.Bytes()
		if _, err := w.Write(keyBytes[:]); err != nil {
			return err
		}
	}
	if err := writeInt64(w, rec.FirstSalt); err != nil {
		return err
	}
	if err := writeInt32(w, rec.TimeOffset); err != nil {
		return err
	}
	addr := []byte(rec.Addr)
	if len(addr) > 255 {
		return fmt.Errorf("dcpool: %w: address %q exceeds 255 bytes", ErrCorruptSession, rec.Addr)
	}
	if _, err := w.Write([]byte{byte(len(addr))}); err != nil {
		return err
	}
	_, err := w.Write(addr)
	return err
}

// Load implements SessionBackend. A missing file is not an error: it
// reports a zero home DC and no records, the same as a freshly created
// pool with nothing persisted yet.
func (b *FileBackend) Load() (int32, []Record, error) {
	f, err := os.Open(b.Path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil, nil
	}
	if err != nil {
		return 0, nil, fmt.Errorf("dcpool: open session file: %w", err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	homeDC, err := readInt32(r)
	if err != nil {
		return 0, nil, fmt.Errorf("dcpool: read home_dc_id: %w", err)
	}
	count, err := r.ReadByte()
	if err != nil {
		return 0, nil, fmt.Errorf("dcpool: read dc_count: %w", err)
	}

	records := make([]Record, 0, count)
	for i := 0; i < int(count); i++ {
		rec, err := readRecord(r)
		if err != nil {
			return 0, nil, fmt.Errorf("dcpool: read record %d: %w", i, err)
		}
		records = append(records, rec)
	}
	return homeDC, records, nil
}

func readRecord(r io.Reader) (Record, error) {
	var rec Record
	var err error
	if rec.DCID, err = readInt32(r); err != nil {
		return Record{}, err
	}
	hasKey, err := readByte(r)
	if err != nil {
		return Record{}, err
	}
	if hasKey != 0 && hasKey != 1 {
		return Record{}, fmt.Errorf("%w: has_key = %d", ErrCorruptSession, hasKey)
	}
	if hasKey == 1 {
		var raw [256]byte
		if _, err := io.ReadFull(r, raw[:]); err != nil {
			return Record{}, fmt.Errorf("%w: short auth_key: %v", ErrCorruptSession, err)
		}
		key := crypto.NewAuthKey(raw)
		rec.AuthKey = &key
	}
	if rec.FirstSalt, err = readInt64(r); err != nil {
		return Record{}, err
	}
	if rec.TimeOffset, err = readInt32(r); err != nil {
		return Record{}, err
	}
	addrLen, err := readByte(r)
	if err != nil {
		return Record{}, err
	}
	addr := make([]byte, addrLen)
	if _, err := io.ReadFull(r, addr); err != nil {
		return Record{}, fmt.Errorf("%w: short addr: %v", ErrCorruptSession, err)
	}
	rec.Addr = string(addr)
	return rec, nil
}

// Delete implements SessionBackend.
func (b *FileBackend) Delete() error {
	err := os.Remove(b.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func dirOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[:i]
		}
	}
	return "."
}

func writeInt32(w io.Writer, v int32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(v))
	_, err := w.Write(b[:])
	return err
}

func writeInt64(w io.Writer, v int64) error {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(v))
	_, err := w.Write(b[:])
	return err
}

func readInt32(r io.Reader) (int32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(b[:])), nil
}

func readInt64(r io.Reader) (int64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

func readByte(r io.Reader) (byte, error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}
