// Package testfixtures builds synthetic app archives, property lists and Mach-O images for tests.
package testfixtures

import (
	"debug/macho"
	"encoding/binary"
)

// LoadCmd is a load command to emit into a synthetic image. Size must be at least 8.
type LoadCmd struct {
	Cmd  macho.LoadCmd
	Size uint32
}

// Slice describes one thin Mach-O image
type Slice struct {
	Cpu      macho.Cpu
	SubCpu   uint32
	Type     macho.Type
	Bits     int // 32 or 64, default 64
	Little   bool
	Commands []LoadCmd
	Padding  int // trailing bytes after the command table
}

// DefaultCommands is a plausible command table for an executable
var DefaultCommands = []LoadCmd{
	{Cmd: macho.LoadCmdSegment64, Size: 72},
	{Cmd: macho.LoadCmdSegment64, Size: 152},
	{Cmd: macho.LoadCmdDylib, Size: 56},
	{Cmd: macho.LoadCmdDylib, Size: 56},
}

// Thin encodes s as a thin Mach-O image
func Thin(s Slice) []byte {
	var order binary.ByteOrder = binary.BigEndian
	if s.Little {
		order = binary.LittleEndian
	}
	if s.Type == 0 {
		s.Type = macho.TypeExec
	}

	magic, headerSize := uint32(macho.Magic64), 32
	if s.Bits == 32 {
		magic, headerSize = macho.Magic32, 28
	}

	var cmdsz uint32
	for _, c := range s.Commands {
		cmdsz += c.Size
	}

	buf := make([]byte, headerSize+int(cmdsz)+s.Padding)
	order.PutUint32(buf[0:], magic)
	order.PutUint32(buf[4:], uint32(s.Cpu))
	order.PutUint32(buf[8:], s.SubCpu)
	order.PutUint32(buf[12:], uint32(s.Type))
	order.PutUint32(buf[16:], uint32(len(s.Commands))) //nolint:gosec // test fixture
	order.PutUint32(buf[20:], cmdsz)
	order.PutUint32(buf[24:], 0x00200085)

	off := headerSize
	for _, c := range s.Commands {
		order.PutUint32(buf[off:], uint32(c.Cmd))
		order.PutUint32(buf[off+4:], c.Size)
		off += int(c.Size)
	}
	return buf
}

// Fat wraps the given slices in a big-endian fat container, each slice aligned to 4096 bytes
func Fat(slices ...Slice) []byte {
	const align = 4096

	images := make([][]byte, len(slices))
	for i, s := range slices {
		images[i] = Thin(s)
	}

	header := 8 + 20*len(slices)
	offsets := make([]int, len(slices))
	end := header
	for i, img := range images {
		end = (end + align - 1) / align * align
		offsets[i] = end
		end += len(img)
	}

	buf := make([]byte, end)
	binary.BigEndian.PutUint32(buf[0:], macho.MagicFat)
	binary.BigEndian.PutUint32(buf[4:], uint32(len(slices))) //nolint:gosec // test fixture
	for i, s := range slices {
		entry := buf[8+20*i:]
		binary.BigEndian.PutUint32(entry[0:], uint32(s.Cpu))
		binary.BigEndian.PutUint32(entry[4:], s.SubCpu)
		binary.BigEndian.PutUint32(entry[8:], uint32(offsets[i]))      //nolint:gosec // test fixture
		binary.BigEndian.PutUint32(entry[12:], uint32(len(images[i]))) //nolint:gosec // test fixture
		binary.BigEndian.PutUint32(entry[16:], 12)
		copy(buf[offsets[i]:], images[i])
	}
	return buf
}

// Arm64 is a little-endian arm64 executable
func Arm64() []byte {
	return Thin(Slice{Cpu: macho.CpuArm64, Little: true, Commands: DefaultCommands})
}

// Amd64 is a little-endian x86_64 executable
func Amd64() []byte {
	return Thin(Slice{Cpu: macho.CpuAmd64, SubCpu: 3, Little: true, Commands: DefaultCommands})
}

// Universal is a fat image with x86_64 and arm64 slices
func Universal() []byte {
	return Fat(
		Slice{Cpu: macho.CpuAmd64, SubCpu: 3, Little: true, Commands: DefaultCommands},
		Slice{Cpu: macho.CpuArm64, Little: true, Commands: DefaultCommands},
	)
}
