package rfm69

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"sync"
	"time"
)

// DefaultPollInterval is the pause between two receive-done polls.
const DefaultPollInterval = 5 * time.Millisecond

// ErrReceiveTimeout is returned by WaitForPacket when no message arrived before the deadline.
var ErrReceiveTimeout = errors.New("no message received before deadline")

// WaitForPacket switches the radio to RX and polls until a message arrives or timeout elapses.
func (d *Device) WaitForPacket(ctx context.Context, timeout, pollInterval time.Duration) (*Packet, error) {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	if err := d.BeginReceive(ctx); err != nil {
		return nil, err
	}

	deadline := time.Now().Add(timeout)
	for {
		done, err := d.ReceiveDone(ctx)
		if err != nil {
			return nil, err
		}
		if done {
			return d.ReceivedData(ctx)
		}
		if !time.Now().Before(deadline) {
			return nil, ErrReceiveTimeout
		}
		if err := sleepCtx(ctx, pollInterval); err != nil {
			return nil, err
		}
	}
}

// ReceiveStream keeps the radio listening and yields every received message.
// Protocol failures are yielded as errors and listening continues; the stream
// stops when ctx is done or the consumer stops iterating.
func (d *Device) ReceiveStream(ctx context.Context, pollInterval time.Duration) iter.Seq2[*Packet, error] {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	return func(yield func(*Packet, error) bool) {
		listening := false
		for ctx.Err() == nil {
			if !listening {
				if err := d.BeginReceive(ctx); err != nil {
					if !yield(nil, err) {
						return
					}
					if sleepCtx(ctx, pollInterval) != nil {
						return
					}
					continue
				}
				listening = true
			}

			done, err := d.ReceiveDone(ctx)
			if err != nil {
				if !yield(nil, err) {
					return
				}
				if sleepCtx(ctx, pollInterval) != nil {
					return
				}
				continue
			}
			if !done {
				if sleepCtx(ctx, pollInterval) != nil {
					return
				}
				continue
			}

			// fetching the frame leaves RX mode
			listening = false
			packet, err := d.ReceivedData(ctx)
			if !yield(packet, err) {
				return
			}
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// PacketSource yields received packets, e.g. Device.ReceiveStream.
type PacketSource interface {
	ReceiveStream(ctx context.Context, pollInterval time.Duration) iter.Seq2[*Packet, error]
}

// PacketPublisher implements part of the pubsub pattern allowing other parts of the system to subscribe and receive
// packets.
type PacketPublisher interface {
	Publish(packet *Packet)
}

// PacketSubscriber handles packets received from a publisher.
type PacketSubscriber interface {
	OnPacket(packet *Packet)
}

// PacketSubscriberFunc adapts a function to PacketSubscriber.
type PacketSubscriberFunc func(packet *Packet)

// OnPacket implements PacketSubscriber.
func (f PacketSubscriberFunc) OnPacket(packet *Packet) {
	f(packet)
}

// FanOutPacketPublisher delivers each packet to all subscribers concurrently and waits for them.
type FanOutPacketPublisher struct {
	Subscribers []PacketSubscriber
	Logger      *slog.Logger
}

func (pub *FanOutPacketPublisher) Subscribe(subscriber PacketSubscriber) {
	pub.Subscribers = append(pub.Subscribers, subscriber)
}

func (pub *FanOutPacketPublisher) Publish(packet *Packet) {
	wg := sync.WaitGroup{}
	wg.Add(len(pub.Subscribers))
	for _, sub := range pub.Subscribers {
		go func() {
			defer wg.Done()
			sub.OnPacket(packet)
		}()
	}
	wg.Wait()
}

// PublishAll publishes every packet of the source until ctx is done.
func (pub *FanOutPacketPublisher) PublishAll(ctx context.Context, source PacketSource, pollInterval time.Duration) {
	logger := pub.Logger
	if logger == nil {
		logger = slog.Default()
	}
	for packet, err := range source.ReceiveStream(ctx, pollInterval) {
		if err != nil {
			logger.Error("Cannot read next packet from device", "error", err)
			continue
		}
		pub.Publish(packet)
	}
}
