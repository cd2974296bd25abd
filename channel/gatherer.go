/* Gatherer is a channel with duplicate packet gather. For MISO usage. */
package channel

import (
	"sync"

	"github.com/chenx-dust/refptr/buffer"
	"github.com/chenx-dust/refptr/packet"
)

type Gatherer struct {
	gather    *PacketFilter
	chanOut   chan buffer.WithBufferArg[[]*packet.Packet]
	closeOnce sync.Once

	StatisticIn  *packet.PacketStatistic
	StatisticOut *packet.PacketStatistic
}

func NewGatherer(chanSize int) *Gatherer {
	return &Gatherer{
		gather:       NewPacketFilter(),
		chanOut:      make(chan buffer.WithBufferArg[[]*packet.Packet], chanSize),
		StatisticIn:  packet.NewPacketStatistic(),
		StatisticOut: packet.NewPacketStatistic(),
	}
}

func (ch *Gatherer) GetOutChan() <-chan buffer.WithBufferArg[[]*packet.Packet] {
	return ch.chanOut
}

// Close closes the output channel. No Forward may run concurrently or after.
func (ch *Gatherer) Close() {
	ch.closeOnce.Do(func() { close(ch.chanOut) })
}

// Forward takes over newPackets_'s buffer reference and passes on the
// packets not seen before. When nothing new remains, or the output is full,
// the reference is released here.
func (ch *Gatherer) Forward(newPackets_ buffer.WithBufferArg[[]*packet.Packet]) {
	newPackets := newPackets_.ToOwned()
	inSize := 0
	outSize := 0
	fwdPackets := make([]*packet.Packet, 0, len(newPackets.Thing))
	for _, newPacket := range newPackets.Thing {
		inSize += len(newPacket.Buffer)
		if ch.gather.CheckDuplicatePacketID(newPacket.PacketID) {
			continue
		}
		outSize += len(newPacket.Buffer)
		fwdPackets = append(fwdPackets, newPacket)
	}
	ch.StatisticIn.CountPacket(uint32(inSize))
	if len(fwdPackets) == 0 {
		newPackets.Release()
		return
	}
	data := buffer.WithBuffer[[]*packet.Packet]{
		Thing:  fwdPackets,
		Buffer: newPackets.Buffer.Move(),
	}
	arg := data.MoveArg()
	select {
	case ch.chanOut <- arg:
		ch.StatisticOut.CountPacket(uint32(outSize))
	default:
		dropped := arg.ToOwned()
		dropped.Release()
	}
}
