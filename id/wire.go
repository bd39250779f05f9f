package id

import "encoding/binary"

// WireSize is the number of bytes an ID occupies on the wire per
// spec.md §6: type:2 | instance:4 | machine:1 | version:1, all fields
// little-endian.
const WireSize = 8

// Encode writes i's wire representation into buf, which must be at
// least WireSize bytes.
func (i ID) Encode(buf []byte) {
	_ = buf[WireSize-1]
	binary.LittleEndian.PutUint16(buf[0:2], uint16(i.Type))
	binary.LittleEndian.PutUint32(buf[2:6], i.Instance)
	buf[6] = byte(i.Machine)
	buf[7] = byte(i.VersionTag)
}

// Decode parses an ID from its wire representation.
func Decode(buf []byte) ID {
	_ = buf[WireSize-1]
	return ID{
		Type:       TypeID(binary.LittleEndian.Uint16(buf[0:2])),
		Instance:   binary.LittleEndian.Uint32(buf[2:6]),
		Machine:    MachineID(buf[6]),
		VersionTag: Version(buf[7]),
	}
}
