package ble

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"tinygo.org/x/bluetooth"

	"github.com/swingworks/swingsense/internal/motion"
)

// GATT identifiers of the wrist band. The band exposes a single custom
// service with one notify characteristic carrying Packet payloads.
var (
	ServiceUUID = bluetooth.NewUUID([16]byte{0xfb, 0x34, 0x9b, 0x5f, 0x80, 0x00, 0x00, 0x80, 0x00, 0x10, 0x00, 0x00, 0x40, 0x12, 0x00, 0x00})
	MotionUUID  = bluetooth.NewUUID([16]byte{0xfb, 0x34, 0x9b, 0x5f, 0x80, 0x00, 0x00, 0x80, 0x00, 0x10, 0x00, 0x00, 0x41, 0x12, 0x00, 0x00})
)

// Config configures the BLE central driver.
type Config struct {
	// DeviceName is the advertised local name to scan for.
	DeviceName string `yaml:"deviceName"`

	// ScanTimeoutSeconds bounds the scan phase. Defaults to 30.
	ScanTimeoutSeconds int `yaml:"scanTimeoutSeconds"`

	// ChannelBuffer sizes the delivery channel. Defaults to 256.
	ChannelBuffer int `yaml:"channelBuffer"`
}

// Central connects to a single wrist band as a BLE central and streams its
// motion notifications as raw samples. Notifications are decoded on the
// bluetooth stack's callback goroutine and handed off without blocking;
// samples are dropped with a counter when the consumer falls behind.
type Central struct {
	cfg     Config
	logger  *slog.Logger
	adapter *bluetooth.Adapter

	mu      sync.Mutex
	device  *bluetooth.Device
	address string

	outMu   sync.RWMutex
	out     chan motion.RawSample
	closed  bool
	started atomic.Bool
	dropped atomic.Uint64

	epoch      time.Time
	bootOffset uint32
	haveOffset bool
	lastSeq    uint16
	haveSeq    bool
	lost       atomic.Uint64
}

func NewCentral(cfg Config, logger *slog.Logger) *Central {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.ScanTimeoutSeconds <= 0 {
		cfg.ScanTimeoutSeconds = 30
	}
	if cfg.ChannelBuffer <= 0 {
		cfg.ChannelBuffer = 256
	}
	return &Central{
		cfg:     cfg,
		logger:  logger.With(slog.String("device", "ble")),
		adapter: bluetooth.DefaultAdapter,
	}
}

func (c *Central) Device() string { return "ble" }

func (c *Central) ID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.address != "" {
		return c.address
	}
	return c.cfg.DeviceName
}

// Start enables the adapter, scans for the configured device name, connects
// and subscribes to motion notifications. It blocks until the subscription
// is live or the scan times out.
func (c *Central) Start(ctx context.Context) (<-chan motion.RawSample, error) {
	if !c.started.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("ble source already started")
	}
	if c.cfg.DeviceName == "" {
		c.started.Store(false)
		return nil, fmt.Errorf("ble: device name is required")
	}

	if err := c.adapter.Enable(); err != nil {
		c.started.Store(false)
		return nil, fmt.Errorf("enabling bluetooth adapter: %w", err)
	}

	result, err := c.scan(ctx)
	if err != nil {
		c.started.Store(false)
		return nil, err
	}

	c.logger.Info("connecting to wrist band",
		slog.String("name", result.LocalName()),
		slog.String("address", result.Address.String()))

	device, err := c.adapter.Connect(result.Address, bluetooth.ConnectionParams{})
	if err != nil {
		c.started.Store(false)
		return nil, fmt.Errorf("connecting to %s: %w", result.Address.String(), err)
	}

	char, err := discoverMotionChar(device)
	if err != nil {
		device.Disconnect()
		c.started.Store(false)
		return nil, err
	}

	c.mu.Lock()
	c.device = device
	c.address = result.Address.String()
	c.mu.Unlock()

	c.epoch = time.Now()
	c.out = make(chan motion.RawSample, c.cfg.ChannelBuffer)

	if err := char.EnableNotifications(c.handleNotification); err != nil {
		device.Disconnect()
		c.started.Store(false)
		return nil, fmt.Errorf("enabling motion notifications: %w", err)
	}

	c.logger.Info("wrist band connected", slog.String("address", c.address))
	return c.out, nil
}

// scan looks for an advertisement carrying the configured local name.
func (c *Central) scan(ctx context.Context) (bluetooth.ScanResult, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(c.cfg.ScanTimeoutSeconds)*time.Second)
	defer cancel()

	found := make(chan bluetooth.ScanResult, 1)
	scanErr := make(chan error, 1)

	c.logger.Info("scanning for wrist band", slog.String("name", c.cfg.DeviceName))
	go func() {
		err := c.adapter.Scan(func(adapter *bluetooth.Adapter, result bluetooth.ScanResult) {
			if result.LocalName() != c.cfg.DeviceName {
				return
			}
			adapter.StopScan()
			select {
			case found <- result:
			default:
			}
		})
		if err != nil {
			scanErr <- err
		}
	}()

	select {
	case result := <-found:
		return result, nil
	case err := <-scanErr:
		return bluetooth.ScanResult{}, fmt.Errorf("scanning: %w", err)
	case <-ctx.Done():
		c.adapter.StopScan()
		return bluetooth.ScanResult{}, fmt.Errorf("scanning for %q: %w", c.cfg.DeviceName, ctx.Err())
	}
}

func discoverMotionChar(device *bluetooth.Device) (bluetooth.DeviceCharacteristic, error) {
	services, err := device.DiscoverServices([]bluetooth.UUID{ServiceUUID})
	if err != nil {
		return bluetooth.DeviceCharacteristic{}, fmt.Errorf("discovering motion service: %w", err)
	}
	if len(services) == 0 {
		return bluetooth.DeviceCharacteristic{}, fmt.Errorf("motion service %s not found", ServiceUUID.String())
	}

	chars, err := services[0].DiscoverCharacteristics([]bluetooth.UUID{MotionUUID})
	if err != nil {
		return bluetooth.DeviceCharacteristic{}, fmt.Errorf("discovering motion characteristic: %w", err)
	}
	if len(chars) == 0 {
		return bluetooth.DeviceCharacteristic{}, fmt.Errorf("motion characteristic %s not found", MotionUUID.String())
	}
	return chars[0], nil
}

// handleNotification runs on the bluetooth stack's goroutine. It must not
// block.
func (c *Central) handleNotification(buf []byte) {
	pkt, err := ParsePacket(buf)
	if err != nil {
		c.logger.Warn("discarding notification", slog.String("error", err.Error()))
		return
	}

	if c.haveSeq {
		if gap := pkt.Sequence - c.lastSeq; gap > 1 {
			c.lost.Add(uint64(gap - 1))
		}
	}
	c.lastSeq = pkt.Sequence
	c.haveSeq = true

	if !c.haveOffset {
		c.bootOffset = pkt.Timestamp
		c.haveOffset = true
	}

	// The stack may deliver a notification that was already in flight when
	// Stop ran; the gate keeps it off the closed channel.
	c.outMu.RLock()
	defer c.outMu.RUnlock()
	if c.closed {
		return
	}

	select {
	case c.out <- pkt.Sample(c.epoch, c.bootOffset):
	default:
		c.dropped.Add(1)
	}
}

// Stop disconnects the band and closes the sample channel.
func (c *Central) Stop() error {
	if !c.started.CompareAndSwap(true, false) {
		return nil
	}

	c.mu.Lock()
	device := c.device
	c.device = nil
	c.mu.Unlock()

	var err error
	if device != nil {
		err = device.Disconnect()
	}

	c.outMu.Lock()
	c.closed = true
	if c.out != nil {
		close(c.out)
	}
	c.outMu.Unlock()

	c.logger.Info("wrist band disconnected",
		slog.Uint64("dropped", c.dropped.Load()),
		slog.Uint64("lost", c.lost.Load()))
	return err
}

// Dropped reports samples discarded because the consumer fell behind.
func (c *Central) Dropped() uint64 { return c.dropped.Load() }

// Lost reports notifications the radio link never delivered, inferred from
// sequence number gaps.
func (c *Central) Lost() uint64 { return c.lost.Load() }
