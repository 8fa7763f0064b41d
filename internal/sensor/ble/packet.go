// Package ble implements the Bluetooth Low Energy driver for the wrist
// sensor band.
package ble

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/swingworks/swingsense/internal/motion"
)

// PacketSize is the fixed size of a sensor notification in bytes.
const PacketSize = 20

// ErrInvalidPacketSize is returned when a notification payload is not
// exactly PacketSize bytes.
var ErrInvalidPacketSize = errors.New("invalid packet size: expected 20 bytes")

// Packet is the 20-byte binary notification from the wrist band. All
// multi-byte fields are little-endian. Accelerometer axes are raw int16 in
// centi-G; gyroscope axes are raw int16 in deci-rad/s.
type Packet struct {
	AccX      int16
	AccY      int16
	AccZ      int16
	GyroX     int16
	GyroY     int16
	GyroZ     int16
	Timestamp uint32 // milliseconds since band boot
	Sequence  uint16
	Battery   uint8 // percentage, 0-100
	Flags     uint8
}

// Flag bit positions.
const (
	FlagCharging   uint8 = 1 << 0
	FlagCalibrated uint8 = 1 << 1
)

// ParsePacket decodes a raw notification payload.
func ParsePacket(data []byte) (*Packet, error) {
	if len(data) != PacketSize {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidPacketSize, len(data))
	}

	return &Packet{
		AccX:      int16(binary.LittleEndian.Uint16(data[0:2])),
		AccY:      int16(binary.LittleEndian.Uint16(data[2:4])),
		AccZ:      int16(binary.LittleEndian.Uint16(data[4:6])),
		GyroX:     int16(binary.LittleEndian.Uint16(data[6:8])),
		GyroY:     int16(binary.LittleEndian.Uint16(data[8:10])),
		GyroZ:     int16(binary.LittleEndian.Uint16(data[10:12])),
		Timestamp: binary.LittleEndian.Uint32(data[12:16]),
		Sequence:  binary.LittleEndian.Uint16(data[16:18]),
		Battery:   data[18],
		Flags:     data[19],
	}, nil
}

// AccelG returns the accelerometer axes in G.
func (p *Packet) AccelG() (x, y, z float64) {
	return float64(p.AccX) / 100.0,
		float64(p.AccY) / 100.0,
		float64(p.AccZ) / 100.0
}

// GyroRadS returns the gyroscope axes in rad/s.
func (p *Packet) GyroRadS() (x, y, z float64) {
	return float64(p.GyroX) / 10.0,
		float64(p.GyroY) / 10.0,
		float64(p.GyroZ) / 10.0
}

// IsCharging reports whether the band is on the charger.
func (p *Packet) IsCharging() bool { return p.Flags&FlagCharging != 0 }

// IsCalibrated reports whether the band finished sensor calibration.
func (p *Packet) IsCalibrated() bool { return p.Flags&FlagCalibrated != 0 }

// Sample converts the packet into a raw motion sample. The band's
// millisecond boot clock is rebased onto the given session epoch so the
// detector sees wall-clock-ordered timestamps.
func (p *Packet) Sample(epoch time.Time, bootOffset uint32) motion.RawSample {
	ax, ay, az := p.AccelG()
	gx, gy, gz := p.GyroRadS()

	return motion.RawSample{
		Timestamp: epoch.Add(time.Duration(p.Timestamp-bootOffset) * time.Millisecond),
		AccelX:    ax,
		AccelY:    ay,
		AccelZ:    az,
		GyroX:     gx,
		GyroY:     gy,
		GyroZ:     gz,
	}
}

// String returns a human-readable representation for debug logging.
func (p *Packet) String() string {
	ax, ay, az := p.AccelG()
	gx, gy, gz := p.GyroRadS()
	return fmt.Sprintf("Accel(%.2f, %.2f, %.2f) G | Gyro(%.1f, %.1f, %.1f) rad/s | ts=%d seq=%d bat=%d%% flags=0x%02x",
		ax, ay, az, gx, gy, gz, p.Timestamp, p.Sequence, p.Battery, p.Flags)
}
