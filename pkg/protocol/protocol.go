package protocol

import (
	"encoding/binary"
	"errors"
	"io"
)

const (
	MagicNumber = 0x54

	OpLookup = 0x01
	OpCount  = 0x02
	OpSplits = 0x03

	RespOK  = 0x00
	RespErr = 0xFF
	RespVal = 0x01
)

// Error kinds carried in the key of a RespErr packet.
const (
	KindUnknown          = 0x00
	KindNotGenerated     = 0x01
	KindOutOfRange       = 0x02
	KindMalformed        = 0x03
	KindInvalidGenerator = 0x04
)

var ErrInvalidMagic = errors.New("invalid magic number")

type Packet struct {
	Op    byte
	Key   []byte
	Value []byte
}

// Encode writes [magic 1B][op 1B][keyLen 2B][valLen 4B][key][value].
func Encode(w io.Writer, op byte, key []byte, value []byte) error {
	header := make([]byte, 8)
	header[0] = MagicNumber
	header[1] = op
	binary.BigEndian.PutUint16(header[2:4], uint16(len(key)))
	binary.BigEndian.PutUint32(header[4:8], uint32(len(value)))

	if _, err := w.Write(header); err != nil {
		return err
	}
	if len(key) > 0 {
		if _, err := w.Write(key); err != nil {
			return err
		}
	}
	if len(value) > 0 {
		if _, err := w.Write(value); err != nil {
			return err
		}
	}
	return nil
}

func Decode(r io.Reader) (*Packet, error) {
	header := make([]byte, 8)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}

	if header[0] != MagicNumber {
		return nil, ErrInvalidMagic
	}

	op := header[1]
	kLen := binary.BigEndian.Uint16(header[2:4])
	vLen := binary.BigEndian.Uint32(header[4:8])

	key := make([]byte, kLen)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, err
	}

	val := make([]byte, vLen)
	if _, err := io.ReadFull(r, val); err != nil {
		return nil, err
	}

	return &Packet{Op: op, Key: key, Value: val}, nil
}

// EncodeEntry packs a lookup answer as [tile 8B][partition 4B].
func EncodeEntry(tile int64, partition int) []byte {
	buf := make([]byte, 12)
	binary.BigEndian.PutUint64(buf[0:8], uint64(tile))
	binary.BigEndian.PutUint32(buf[8:12], uint32(partition))
	return buf
}

func DecodeEntry(b []byte) (tile int64, partition int, err error) {
	if len(b) != 12 {
		return 0, 0, errors.New("bad entry length")
	}
	return int64(binary.BigEndian.Uint64(b[0:8])), int(int32(binary.BigEndian.Uint32(b[8:12]))), nil
}
