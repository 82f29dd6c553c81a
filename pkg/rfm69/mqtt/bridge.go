package mqtt

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/exepirit/rfm69serial/pkg/rfm69"
)

// Bridge relays radio traffic to an MQTT broker.
// Received packets are published to "<RootTopic>/rx/<sender>"; messages published to
// "<RootTopic>/tx/<target>" are queued as downlinks for transmission by the radio.
type Bridge struct {
	// BrokerURL is the URL of the MQTT broker to connect to.
	BrokerURL string
	// Username is the username for MQTT authentication.
	Username string
	// Password is the password for MQTT authentication.
	Password string
	// AppName is a unique identifier for the application, used in the MQTT client ID.
	AppName string
	// RootTopic is the base topic for all messages.
	RootTopic string
	// Format is the serialization of published envelopes.
	Format Format
	// Gateway is the radio address of the node the bridge runs on.
	Gateway uint8
	Logger  *slog.Logger

	client      mqtt.Client
	downlinksCh chan Downlink
	done        chan struct{}
	closeOnce   *sync.Once
}

var _ rfm69.PacketSubscriber = &Bridge{}

// Downlink is a message requested for transmission over the radio.
type Downlink struct {
	Target  uint8
	Payload []byte
}

// Connect establishes an MQTT connection to the broker and subscribes to downlink topics.
func (b *Bridge) Connect(buffer int) error {
	if b.client != nil && b.client.IsConnected() {
		return nil
	}
	if b.Logger == nil {
		b.Logger = slog.Default()
	}

	randomId := make([]byte, 4)
	_, _ = rand.Read(randomId)
	b.downlinksCh = make(chan Downlink, buffer)
	b.done = make(chan struct{})
	b.closeOnce = &sync.Once{}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(b.BrokerURL)
	opts.SetUsername(b.Username)
	opts.SetPassword(b.Password)
	opts.SetClientID(fmt.Sprintf("%s-%x", b.AppName, randomId))
	opts.SetOrderMatters(false)

	b.client = mqtt.NewClient(opts)

	token := b.client.Connect()
	<-token.Done()
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to connect MQTT: %w", err)
	}

	token = b.client.Subscribe(b.RootTopic+"/tx/+", 0, b.handleMessage)
	<-token.Done()
	if err := token.Error(); err != nil {
		b.Disconnect()
		return fmt.Errorf("failed to subscribe to topic: %w", err)
	}

	b.Logger.Info("Connected to MQTT broker", "broker", b.BrokerURL, "topic", b.RootTopic)
	return nil
}

// Disconnect closes the MQTT connection and releases handlers waiting on a full downlink queue.
// The queue itself stays open since late handlers may still hold it.
func (b *Bridge) Disconnect() {
	if b.client != nil && b.client.IsConnected() {
		b.client.Disconnect(1000)
	}
	if b.closeOnce != nil {
		b.closeOnce.Do(func() { close(b.done) })
	}
}

// Publish sends a received packet to the broker.
func (b *Bridge) Publish(packet *rfm69.Packet) error {
	if b.client == nil || !b.client.IsConnected() {
		return ErrNotConnected
	}

	data, err := NewEnvelope(b.Gateway, packet, time.Now()).Marshal(b.Format)
	if err != nil {
		return fmt.Errorf("marshalling error: %w", err)
	}

	token := b.client.Publish(UplinkTopic(b.RootTopic, packet.Sender()), 0, false, data)
	<-token.Done()
	return token.Error()
}

// OnPacket implements rfm69.PacketSubscriber.
func (b *Bridge) OnPacket(packet *rfm69.Packet) {
	if err := b.Publish(packet); err != nil {
		b.Logger.Error("Failed to publish packet", "sender", packet.Sender(), "error", err)
	}
}

// ReceiveDownlink blocks until a downlink request arrives. It returns ErrNotConnected
// once the bridge is disconnected, dropping whatever is still queued.
func (b *Bridge) ReceiveDownlink(ctx context.Context) (Downlink, error) {
	select {
	case <-b.done:
		return Downlink{}, ErrNotConnected
	default:
	}

	select {
	case <-ctx.Done():
		return Downlink{}, ctx.Err()
	case <-b.done:
		return Downlink{}, ErrNotConnected
	case d := <-b.downlinksCh:
		return d, nil
	}
}

func (b *Bridge) handleMessage(_ mqtt.Client, message mqtt.Message) {
	target, err := ParseDownlinkTopic(b.RootTopic, message.Topic())
	if err != nil {
		b.Logger.Warn("Ignoring downlink", "topic", message.Topic(), "error", err)
		return
	}
	if len(message.Payload()) > rfm69.MaxPayloadLen {
		b.Logger.Warn("Ignoring oversized downlink", "topic", message.Topic(), "length", len(message.Payload()))
		return
	}
	downlink := Downlink{
		Target:  target,
		Payload: append([]byte(nil), message.Payload()...),
	}
	select {
	case b.downlinksCh <- downlink:
	case <-b.done:
		b.Logger.Warn("Dropping downlink, bridge disconnected", "target", target)
	}
}

// UplinkTopic returns the topic packets from sender are published to.
func UplinkTopic(root string, sender uint8) string {
	return fmt.Sprintf("%s/rx/%d", root, sender)
}

// ParseDownlinkTopic extracts the target node address from "<root>/tx/<target>".
func ParseDownlinkTopic(root, topic string) (uint8, error) {
	suffix, ok := strings.CutPrefix(topic, root+"/tx/")
	if !ok || suffix == "" {
		return 0, ErrInvalidTopic
	}
	target, err := strconv.ParseUint(suffix, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidTopic, err)
	}
	return uint8(target), nil
}
