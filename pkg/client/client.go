package client

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"time"

	"tilesplit/pkg/common"
	"tilesplit/pkg/protocol"
	"tilesplit/pkg/split"
)

// Client talks to a TCPServer. It is not safe for concurrent use.
type Client struct {
	conn net.Conn
	addr string
}

func Dial(addr string) (*Client, error) {
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		return nil, err
	}
	return &Client{
		conn: conn,
		addr: addr,
	}, nil
}

func (c *Client) Lookup(key common.TileID) (split.Entry, error) {
	keyBuf := make([]byte, 8)
	binary.BigEndian.PutUint64(keyBuf, uint64(key))

	pkg, err := c.roundTrip(protocol.OpLookup, keyBuf, nil)
	if err != nil {
		return split.Entry{}, err
	}
	tile, part, err := protocol.DecodeEntry(pkg.Value)
	if err != nil {
		return split.Entry{}, err
	}
	return split.Entry{Key: common.TileID(tile), Partition: part}, nil
}

func (c *Client) Count() (int, error) {
	pkg, err := c.roundTrip(protocol.OpCount, nil, nil)
	if err != nil {
		return 0, err
	}
	if len(pkg.Value) != 4 {
		return 0, errors.New("bad count response")
	}
	return int(binary.BigEndian.Uint32(pkg.Value)), nil
}

// Splits fetches the server's persisted table and loads a private copy.
func (c *Client) Splits() (*split.Index, error) {
	pkg, err := c.roundTrip(protocol.OpSplits, nil, nil)
	if err != nil {
		return nil, err
	}
	idx := split.NewIndex()
	if _, err := idx.ReadFrom(bytes.NewReader(pkg.Value)); err != nil {
		return nil, err
	}
	return idx, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) roundTrip(op byte, key, val []byte) (*protocol.Packet, error) {
	pkg, err := c.send(op, key, val)
	if err != nil {
		if rerr := c.reconnect(); rerr != nil {
			return nil, rerr
		}
		if pkg, err = c.send(op, key, val); err != nil {
			return nil, err
		}
	}

	switch pkg.Op {
	case protocol.RespVal, protocol.RespOK:
		return pkg, nil
	case protocol.RespErr:
		return nil, decodeError(pkg)
	default:
		return nil, errors.New("unknown response")
	}
}

func (c *Client) send(op byte, key, val []byte) (*protocol.Packet, error) {
	if err := protocol.Encode(c.conn, op, key, val); err != nil {
		return nil, err
	}
	return protocol.Decode(c.conn)
}

func (c *Client) reconnect() error {
	c.conn.Close()
	conn, err := net.DialTimeout("tcp", c.addr, 5*time.Second)
	if err != nil {
		return err
	}
	c.conn = conn
	return nil
}

// decodeError restores the split error kind so callers can use errors.Is.
func decodeError(pkg *protocol.Packet) error {
	msg := string(pkg.Value)
	if len(pkg.Key) == 1 {
		switch pkg.Key[0] {
		case protocol.KindNotGenerated:
			return fmt.Errorf("%w (remote: %s)", split.ErrNotGenerated, msg)
		case protocol.KindOutOfRange:
			return fmt.Errorf("%w (remote: %s)", split.ErrOutOfRange, msg)
		case protocol.KindMalformed:
			return fmt.Errorf("%w (remote: %s)", split.ErrMalformed, msg)
		case protocol.KindInvalidGenerator:
			return fmt.Errorf("%w (remote: %s)", split.ErrInvalidGenerator, msg)
		}
	}
	return errors.New("remote: " + msg)
}
