package packet

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
	"github.com/sigurn/crc8"

	"github.com/chenx-dust/refptr/buffer"
	"github.com/chenx-dust/refptr/ptr"
)

const (
	MAGIC_NUMBER = 0xa1
	HEADER_SIZE  = 8
	MAX_PAYLOAD  = 0xffff
)

var (
	ErrInvalidMagic    = errors.New("invalid magic number")
	ErrInvalidChecksum = errors.New("invalid checksum")
	ErrInvalidLength   = errors.New("invalid packet length")
	ErrPayloadTooLarge = errors.New("payload too large")
	ErrBufferFull      = errors.New("buffer full")
)

var table = crc8.MakeTable(crc8.CRC8_MAXIM)

type Packet struct {
	Buffer   []byte
	ConnID   uint16
	PacketID uint16
}

func (p *Packet) putHeader(header []byte) {
	header[0] = MAGIC_NUMBER
	binary.LittleEndian.PutUint16(header[1:3], uint16(len(p.Buffer)))
	binary.LittleEndian.PutUint16(header[3:5], p.ConnID)
	binary.LittleEndian.PutUint16(header[5:7], p.PacketID)
	header[HEADER_SIZE-1] = crc8.Checksum(header[:HEADER_SIZE-1], table)
}

func (p *Packet) Pack() []byte {
	packed := make([]byte, HEADER_SIZE+len(p.Buffer))
	p.putHeader(packed)
	copy(packed[HEADER_SIZE:], p.Buffer)
	return packed
}

// parseHeader validates a header and returns the payload length.
func parseHeader(header []byte) (length int, connID, packetID uint16, err error) {
	if header[0] != MAGIC_NUMBER {
		return 0, 0, 0, ErrInvalidMagic
	}
	if crc8.Checksum(header[:HEADER_SIZE-1], table) != header[HEADER_SIZE-1] {
		return 0, 0, 0, ErrInvalidChecksum
	}
	length = int(binary.LittleEndian.Uint16(header[1:3]))
	connID = binary.LittleEndian.Uint16(header[3:5])
	packetID = binary.LittleEndian.Uint16(header[5:7])
	return
}

func WritePacket(writer io.Writer, p *Packet) (n int, err error) {
	if len(p.Buffer) > MAX_PAYLOAD {
		return 0, ErrPayloadTooLarge
	}
	packed := p.Pack()

	n = 0
	for n < len(packed) {
		n_, err := writer.Write(packed[n:])
		if err != nil {
			return n + n_, err
		}
		n += n_
	}
	n -= HEADER_SIZE
	return
}

// Unpack parses exactly one framed packet. The payload aliases data.
func Unpack(data []byte) (packet *Packet, err error) {
	if len(data) < HEADER_SIZE {
		return nil, ErrInvalidLength
	}
	length, connID, packetID, err := parseHeader(data)
	if err != nil {
		return nil, err
	}
	if length+HEADER_SIZE != len(data) {
		return nil, ErrInvalidLength
	}
	packet = &Packet{
		Buffer:   data[HEADER_SIZE:],
		ConnID:   connID,
		PacketID: packetID,
	}
	return
}

func ReadPacket(reader io.Reader) (packet *Packet, err error) {
	header := make([]byte, HEADER_SIZE)
	if _, err = io.ReadFull(reader, header); err != nil {
		return nil, err
	}
	length, connID, packetID, err := parseHeader(header)
	if err != nil {
		return nil, err
	}
	packet = &Packet{
		Buffer:   make([]byte, length),
		ConnID:   connID,
		PacketID: packetID,
	}
	if _, err = io.ReadFull(reader, packet.Buffer); err != nil {
		return nil, errors.Wrap(err, "reading payload")
	}
	return
}

// AppendTo frames p at the end of buf and records it as a sub-packet.
func AppendTo(buf *buffer.PackedBuffer, p *Packet) error {
	if len(p.Buffer) > MAX_PAYLOAD {
		return ErrPayloadTooLarge
	}
	size := HEADER_SIZE + len(p.Buffer)
	free := buf.Free()
	if size > len(free) {
		return ErrBufferFull
	}
	p.putHeader(free[:HEADER_SIZE])
	copy(free[HEADER_SIZE:size], p.Buffer)
	buf.SubPackets = append(buf.SubPackets, size)
	buf.TotalSize += size
	return nil
}

// Split parses every sub-packet of buf. The packets alias buf's bytes, so
// the result holds its own reference to buf; the caller keeps its own and
// must release the result when done with the packets.
func Split(buf *ptr.Ptr[*buffer.PackedBuffer]) (buffer.WithBuffer[[]*Packet], error) {
	b := buf.Get()
	packets := make([]*Packet, 0, len(b.SubPackets))
	offset := 0
	for i, size := range b.SubPackets {
		if offset+size > b.TotalSize {
			return buffer.WithBuffer[[]*Packet]{}, errors.Wrapf(ErrInvalidLength, "sub-packet %d", i)
		}
		p, err := Unpack(b.Buffer[offset : offset+size])
		if err != nil {
			return buffer.WithBuffer[[]*Packet]{}, errors.Wrapf(err, "sub-packet %d", i)
		}
		packets = append(packets, p)
		offset += size
	}
	return buffer.WithBuffer[[]*Packet]{
		Thing:  packets,
		Buffer: buf.Clone(),
	}, nil
}
