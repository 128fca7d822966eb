package network

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"log"
	"net"
	"sync"

	"tilesplit/pkg/common"
	"tilesplit/pkg/partition"
	"tilesplit/pkg/protocol"
	"tilesplit/pkg/split"
)

// TCPServer answers binary lookup requests against one router.
type TCPServer struct {
	router *partition.Router

	mu       sync.Mutex
	listener net.Listener
}

func NewTCPServer(router *partition.Router) *TCPServer {
	return &TCPServer{router: router}
}

func (s *TCPServer) Start(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	log.Printf("[TCP] Listening on %s (Binary Protocol)", addr)
	return s.Serve(listener)
}

// Serve accepts connections until the listener is closed.
func (s *TCPServer) Serve(listener net.Listener) error {
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			log.Printf("[TCP] Accept error: %v", err)
			continue
		}
		go s.handleConn(conn)
	}
}

func (s *TCPServer) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Close()
}

func (s *TCPServer) handleConn(conn net.Conn) {
	defer conn.Close()

	for {
		req, err := protocol.Decode(conn)
		if err != nil {
			if err != io.EOF {
				log.Printf("[TCP] Decode error from %s: %v", conn.RemoteAddr(), err)
			}
			return
		}

		if err := s.dispatch(conn, req); err != nil {
			log.Printf("[TCP] Write error to %s: %v", conn.RemoteAddr(), err)
			return
		}
	}
}

func (s *TCPServer) dispatch(w io.Writer, req *protocol.Packet) error {
	switch req.Op {
	case protocol.OpLookup:
		if len(req.Key) != 8 {
			return writeErr(w, protocol.KindUnknown, errors.New("lookup key must be 8 bytes"))
		}
		k := int64(binary.BigEndian.Uint64(req.Key))
		e, err := s.router.Lookup(common.TileID(k))
		if err != nil {
			return writeErr(w, errorKind(err), err)
		}
		return protocol.Encode(w, protocol.RespVal, nil, protocol.EncodeEntry(int64(e.Key), e.Partition))

	case protocol.OpCount:
		buf := make([]byte, 4)
		binary.BigEndian.PutUint32(buf, uint32(s.router.Index().Len()))
		return protocol.Encode(w, protocol.RespVal, nil, buf)

	case protocol.OpSplits:
		var buf bytes.Buffer
		if _, err := s.router.Index().WriteTo(&buf); err != nil {
			return writeErr(w, protocol.KindUnknown, err)
		}
		return protocol.Encode(w, protocol.RespVal, nil, buf.Bytes())

	default:
		return writeErr(w, protocol.KindUnknown, errors.New("unknown op"))
	}
}

func writeErr(w io.Writer, kind byte, err error) error {
	return protocol.Encode(w, protocol.RespErr, []byte{kind}, []byte(err.Error()))
}

func errorKind(err error) byte {
	switch {
	case errors.Is(err, split.ErrNotGenerated):
		return protocol.KindNotGenerated
	case errors.Is(err, split.ErrOutOfRange):
		return protocol.KindOutOfRange
	case errors.Is(err, split.ErrMalformed):
		return protocol.KindMalformed
	case errors.Is(err, split.ErrInvalidGenerator):
		return protocol.KindInvalidGenerator
	default:
		return protocol.KindUnknown
	}
}
