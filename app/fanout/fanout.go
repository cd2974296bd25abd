package fanout

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/chenx-dust/refptr/buffer"
	"github.com/chenx-dust/refptr/channel"
	"github.com/chenx-dust/refptr/config"
	"github.com/chenx-dust/refptr/packet"
	"github.com/chenx-dust/refptr/ptr"
)

type Result struct {
	Produced  uint64 // packets framed
	Delivered uint64 // distinct packets that reached the collector
	Dropped   uint64 // buffer references dropped at full outputs
}

// Fanout frames packets into pooled buffers and scatters each buffer to
// every consumer. Consumers split the shared buffer into packets and forward
// them to a gatherer that removes duplicates. Once everything is drained, all
// buffers must be back in the pool.
type Fanout struct {
	cfg *config.Config
	log logr.Logger

	scatterer   *channel.Scatterer
	gatherer    *channel.Gatherer
	idIncrement atomic.Uint32

	produced  atomic.Uint64
	delivered atomic.Uint64
}

func NewFanout(cfg *config.Config, log logr.Logger) (*Fanout, error) {
	log = log.WithName("fanout")
	scatterer, err := channel.NewScatterer(cfg.ScatterType, log)
	if err != nil {
		return nil, err
	}
	return &Fanout{
		cfg:       cfg,
		log:       log,
		scatterer: scatterer,
		gatherer:  channel.NewGatherer(cfg.ChannelSize),
	}, nil
}

func (f *Fanout) Result() Result {
	return Result{
		Produced:  f.produced.Load(),
		Delivered: f.delivered.Load(),
		Dropped:   f.scatterer.Dropped.Load(),
	}
}

func (f *Fanout) Run(ctx context.Context) error {
	f.log.Info("running fanout", "consumers", f.cfg.Workers, "packets", f.cfg.Packets,
		"scatter", config.ScatterTypeToString(f.cfg.ScatterType))
	baseline := buffer.ActiveBuffers.Load()

	var consumers errgroup.Group
	for w := 0; w < f.cfg.Workers; w++ {
		ch := make(chan ptr.Arg[*buffer.PackedBuffer], f.cfg.ChannelSize)
		f.scatterer.NewOutput(ch)
		consumers.Go(func() error {
			return f.consume(ch)
		})
	}

	var collector sync.WaitGroup
	collector.Add(1)
	go func() {
		defer collector.Done()
		f.collect()
	}()

	stopReport := f.report()

	produceErr := f.produce(ctx)
	f.scatterer.Close()
	consumeErr := consumers.Wait()
	f.gatherer.Close()
	collector.Wait()
	stopReport()

	if produceErr != nil {
		return produceErr
	}
	if consumeErr != nil {
		return consumeErr
	}
	if leaked := buffer.ActiveBuffers.Load() - baseline; leaked != 0 {
		return errors.Errorf("%d buffers still referenced after fanout", leaked)
	}

	r := f.Result()
	f.log.Info("fanout done", "produced", r.Produced, "delivered", r.Delivered, "dropped", r.Dropped)
	return nil
}

func (f *Fanout) produce(ctx context.Context) error {
	payload := make([]byte, f.cfg.PacketSize)
	connID := uint16(0)
	for sent := 0; sent < f.cfg.Packets; {
		if err := ctx.Err(); err != nil {
			return err
		}
		buf := buffer.NewPackedBuffer()
		for i := 0; i < f.cfg.PacketsPerBuf && sent < f.cfg.Packets; i++ {
			p := &packet.Packet{
				Buffer:   payload,
				ConnID:   connID,
				PacketID: channel.NewPacketID(&f.idIncrement),
			}
			if err := packet.AppendTo(buf.Get(), p); err != nil {
				buf.Release()
				return errors.Wrap(err, "framing packet")
			}
			sent++
		}
		f.produced.Add(uint64(len(buf.Get().SubPackets)))
		f.scatterer.Scatter(buf.MoveArg())
	}
	return nil
}

func (f *Fanout) consume(ch <-chan ptr.Arg[*buffer.PackedBuffer]) error {
	var err error
	for arg := range ch {
		owned := arg.ToOwned()
		if err != nil {
			// keep draining so every buffer is released
			owned.Release()
			continue
		}
		var packets buffer.WithBuffer[[]*packet.Packet]
		packets, err = packet.Split(&owned)
		owned.Release()
		if err != nil {
			continue
		}
		f.gatherer.Forward(packets.MoveArg())
	}
	return err
}

func (f *Fanout) collect() {
	for arg := range f.gatherer.GetOutChan() {
		owned := arg.ToOwned()
		f.delivered.Add(uint64(len(owned.Thing)))
		owned.Release()
	}
}

func (f *Fanout) report() (stop func()) {
	if f.cfg.ReportInterval <= 0 {
		return func() {}
	}
	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		ticker := time.NewTicker(f.cfg.ReportInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
			}
			seconds := f.cfg.ReportInterval.Seconds()
			pkg, band := f.scatterer.StatisticIn.GetAndReset()
			f.log.Info("scatter in", "packets", pkg, "bytes", band, "MBps", float64(band)/seconds/1024/1024)
			pkg, band = f.scatterer.StatisticOut.GetAndReset()
			f.log.Info("scatter out", "packets", pkg, "bytes", band, "MBps", float64(band)/seconds/1024/1024)
			pkg, band = f.gatherer.StatisticIn.GetAndReset()
			f.log.Info("gather in", "packets", pkg, "bytes", band, "MBps", float64(band)/seconds/1024/1024)
			pkg, band = f.gatherer.StatisticOut.GetAndReset()
			f.log.Info("gather out", "packets", pkg, "bytes", band, "MBps", float64(band)/seconds/1024/1024)
			f.log.Info("buffers", "active", buffer.ActiveBuffers.Load())
		}
	}()
	return func() {
		close(done)
		<-stopped
	}
}
