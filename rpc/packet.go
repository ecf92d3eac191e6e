package recipecostrpc

import (
	"bytes"
	"errors"
	"io"
	"strconv"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	HeaderUUID     = "uuid"
	HeaderFunction = "function"
	HeaderCode     = "code"
	HeaderMessage  = "message"

	BodyArg = "arg"
)

type Packet struct {
	H map[string][]byte `msgpack:"h,omitempty"`
	B map[string][]byte `msgpack:"b,omitempty"`
}

// NewRequest builds a request packet for function with a fresh packet UUID.
// arg, when non-nil, is msgpack encoded into the body.
func NewRequest(function string, arg any) (*Packet, error) {
	id, err := uuid.NewV6()
	if err != nil {
		return nil, err
	}
	pkt := &Packet{
		H: map[string][]byte{
			HeaderUUID:     id[:],
			HeaderFunction: []byte(function),
		},
		B: map[string][]byte{},
	}
	if arg != nil {
		argBytes, err := msgpack.Marshal(arg)
		if err != nil {
			return nil, err
		}
		pkt.B[BodyArg] = argBytes
	}
	return pkt, nil
}

func (p *Packet) UUID() uuid.UUID {
	id, err := uuid.FromBytes(p.H[HeaderUUID])
	if err != nil {
		return uuid.Nil
	}
	return id
}

func (p *Packet) Function() string {
	return string(p.H[HeaderFunction])
}

func (p *Packet) Code() int32 {
	code, err := strconv.ParseInt(string(p.H[HeaderCode]), 10, 32)
	if err != nil {
		return CodeBadResponse
	}
	return int32(code)
}

func (p *Packet) Message() string {
	return string(p.H[HeaderMessage])
}

// DecodeBody unmarshals the msgpack value stored under key.
func (p *Packet) DecodeBody(key string, v any) error {
	b, ok := p.B[key]
	if !ok {
		return errors.New("missing body field " + key)
	}
	return msgpack.Unmarshal(b, v)
}

func EncodePacket(p *Packet) ([]byte, error) {
	return msgpack.Marshal(p)
}

// PacketBuffer reassembles packets from a byte stream that may split or
// merge them arbitrarily.
type PacketBuffer struct {
	buf bytes.Buffer
}

func (pb *PacketBuffer) Feed(data []byte) ([]*Packet, error) {
	pb.buf.Write(data)

	var results []*Packet
	for pb.buf.Len() > 0 {
		r := bytes.NewReader(pb.buf.Bytes())
		dec := msgpack.NewDecoder(r)
		v := new(Packet)
		if err := dec.Decode(v); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				// not enough data yet, keep the partial packet buffered
				break
			}
			return results, err
		}
		pb.buf.Next(pb.buf.Len() - r.Len())
		results = append(results, v)
	}
	return results, nil
}
