package rfm69

import "fmt"

const (
	// Sentinel starts every command frame.
	Sentinel byte = '$'
	// Ack is the status byte of a successful reply.
	Ack byte = 'y'
)

// Opcode selects the operation performed by the bridge firmware.
type Opcode byte

const (
	OpInit           Opcode = 0x00
	OpSetAddress     Opcode = 0x01
	OpSetNetworkID   Opcode = 0x02
	OpSend           Opcode = 0x03
	OpSendWithRetry  Opcode = 0x04
	OpBeginReceive   Opcode = 0x05
	OpReceiveDone    Opcode = 0x06
	OpACKReceived    Opcode = 0x07
	OpACKRequested   Opcode = 0x08
	OpSendACK        Opcode = 0x09
	OpGetFrequency   Opcode = 0x0A
	OpSetFrequency   Opcode = 0x0B
	OpEncrypt        Opcode = 0x0C
	OpSetCS          Opcode = 0x0D
	OpSetIRQ         Opcode = 0x0E
	OpReadRSSI       Opcode = 0x0F
	OpSpyMode        Opcode = 0x10
	OpSetPowerLevel  Opcode = 0x11
	OpSleep          Opcode = 0x15
	OpRCCalibration  Opcode = 0x17
	OpReadRegister   Opcode = 0x1A
	OpWriteRegister  Opcode = 0x1B
	OpGetReceiveData Opcode = 0x1E
)

var opcodeNames = map[Opcode]string{
	OpInit:           "init",
	OpSetAddress:     "set address",
	OpSetNetworkID:   "set network id",
	OpSend:           "send",
	OpSendWithRetry:  "send with retry",
	OpBeginReceive:   "begin receive",
	OpReceiveDone:    "receive done",
	OpACKReceived:    "ack received",
	OpACKRequested:   "ack requested",
	OpSendACK:        "send ack",
	OpGetFrequency:   "get frequency",
	OpSetFrequency:   "set frequency",
	OpEncrypt:        "encrypt",
	OpSetCS:          "set chip select",
	OpSetIRQ:         "set interrupt pin",
	OpReadRSSI:       "read rssi",
	OpSpyMode:        "spy mode",
	OpSetPowerLevel:  "set power level",
	OpSleep:          "sleep",
	OpRCCalibration:  "rc calibration",
	OpReadRegister:   "read register",
	OpWriteRegister:  "write register",
	OpGetReceiveData: "get receive data",
}

func (op Opcode) String() string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	return fmt.Sprintf("opcode(0x%02X)", byte(op))
}

// Register is an RFM69 configuration or status register address.
type Register byte

const (
	// RegSyncValue2 holds the second sync word byte, which the firmware uses as network id.
	RegSyncValue2 Register = 0x30
	// RegPayloadLength holds the maximum payload length configured by the firmware.
	RegPayloadLength Register = 0x38
)

// FirmwarePayloadLength is the value RegPayloadLength holds on a healthy bridge.
const FirmwarePayloadLength = 66
