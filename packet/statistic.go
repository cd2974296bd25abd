package packet

import "sync/atomic"

type PacketStatistic struct {
	packets atomic.Uint64
	bytes   atomic.Uint64
}

func NewPacketStatistic() *PacketStatistic {
	return &PacketStatistic{}
}

func (s *PacketStatistic) CountPacket(size uint32) {
	s.packets.Add(1)
	s.bytes.Add(uint64(size))
}

// GetAndReset returns the packets and bytes counted since the last call.
func (s *PacketStatistic) GetAndReset() (packets uint64, bytes uint64) {
	return s.packets.Swap(0), s.bytes.Swap(0)
}
