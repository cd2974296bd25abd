/* Scatterer is a SIMO channel. */
package channel

import (
	"sync"
	"sync/atomic"

	"github.com/go-logr/logr"
	"github.com/pkg/errors"

	"github.com/chenx-dust/refptr/buffer"
	"github.com/chenx-dust/refptr/config"
	"github.com/chenx-dust/refptr/packet"
	"github.com/chenx-dust/refptr/ptr"
)

var ErrChannelNotFound = errors.New("channel not found")

type Scatterer struct {
	connMutex     sync.RWMutex
	outChans      []chan<- ptr.Arg[*buffer.PackedBuffer]
	roundRobinIdx atomic.Uint32
	mode          config.ScatterType
	log           logr.Logger

	StatisticIn  *packet.PacketStatistic
	StatisticOut *packet.PacketStatistic
	Dropped      atomic.Uint64
}

func NewScatterer(mode config.ScatterType, log logr.Logger) (*Scatterer, error) {
	if mode == config.NotDefinedScatterType {
		return nil, errors.New("scatterer mode not defined")
	}
	log.Info("new scatterer", "mode", config.ScatterTypeToString(mode))
	return &Scatterer{
		outChans:     make([]chan<- ptr.Arg[*buffer.PackedBuffer], 0),
		mode:         mode,
		log:          log,
		StatisticIn:  packet.NewPacketStatistic(),
		StatisticOut: packet.NewPacketStatistic(),
	}, nil
}

func (d *Scatterer) NewOutput(ch chan<- ptr.Arg[*buffer.PackedBuffer]) {
	d.connMutex.Lock()
	defer d.connMutex.Unlock()
	d.outChans = append(d.outChans, ch)
}

func (d *Scatterer) RemoveOutput(ch chan<- ptr.Arg[*buffer.PackedBuffer]) error {
	d.connMutex.Lock()
	defer d.connMutex.Unlock()
	for i := 0; i < len(d.outChans); i++ {
		if d.outChans[i] == ch {
			d.outChans[i] = d.outChans[len(d.outChans)-1]
			d.outChans = d.outChans[:len(d.outChans)-1]
			close(ch)
			return nil
		}
	}
	return ErrChannelNotFound
}

// Close removes and closes every output.
func (d *Scatterer) Close() {
	d.connMutex.Lock()
	defer d.connMutex.Unlock()
	for _, ch := range d.outChans {
		close(ch)
	}
	d.outChans = nil
}

// Scatter takes over data's reference. Every output that accepts the buffer
// gets its own reference; a full output is skipped and its reference dropped
// at once.
func (d *Scatterer) Scatter(data_ ptr.Arg[*buffer.PackedBuffer]) {
	data := data_.ToOwned()
	defer data.Release()
	size := uint32(data.Get().TotalSize)
	d.StatisticIn.CountPacket(size)
	d.connMutex.RLock()
	defer d.connMutex.RUnlock()
	if len(d.outChans) == 0 {
		d.Dropped.Add(1)
		return
	}
	switch d.mode {
	case config.RoundRobinScatterType:
		idx := int(d.roundRobinIdx.Add(1)) % len(d.outChans)
		d.send(d.outChans[idx], &data, size)
	case config.ConcurrentScatterType:
		for _, outChan := range d.outChans {
			d.send(outChan, &data, size)
		}
	}
}

func (d *Scatterer) send(outChan chan<- ptr.Arg[*buffer.PackedBuffer], data *ptr.Ptr[*buffer.PackedBuffer], size uint32) {
	sharingData := data.ShareArg()
	select {
	case outChan <- sharingData:
		d.StatisticOut.CountPacket(size)
	default:
		sd := sharingData.ToOwned()
		sd.Release()
		d.Dropped.Add(1)
		d.log.V(1).Info("output full, dropping buffer")
	}
}
