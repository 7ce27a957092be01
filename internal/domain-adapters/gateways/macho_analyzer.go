package gateways

import (
	"debug/macho"
	"encoding/binary"
	"fmt"

	"github.com/ochairo/nativescan/internal/domain/entities"
)

const (
	magic32Swapped  = 0xcefaedfe
	magic64Swapped  = 0xcffaedfe
	magicFat64      = 0xcafebabf
	magicFatSwapped = 0xbebafeca

	fatHeaderSize  = 8
	fatArchSize    = 20
	fatArch64Size  = 32
	headerSize32   = 28
	headerSize64   = 32
	loadCmdMinSize = 8

	// Java class files share the fat magic; their version field reads as >= 45 architectures
	maxFatArches = 32
)

// machoAnalyzer reads Mach-O headers and load-command tables without decoding command payloads.
// It works on thin files of either byte order and on fat (universal) containers.
type machoAnalyzer struct{}

// NewMachOAnalyzer creates a new Mach-O analyzer
//
//nolint:revive // unexported-return: Intentionally returns concrete type for testability
func NewMachOAnalyzer() *machoAnalyzer {
	return &machoAnalyzer{}
}

// AnalyzeMachO parses data into one descriptor per architecture, in file order
func (a *machoAnalyzer) AnalyzeMachO(data []byte) (*entities.MachOMeta, error) {
	if len(data) < 4 {
		return nil, formatError("file too small for a Mach-O magic (%d bytes)", len(data))
	}

	switch magic := binary.BigEndian.Uint32(data); magic {
	case macho.MagicFat:
		return a.analyzeFat(data, binary.BigEndian, false)
	case magicFat64:
		return a.analyzeFat(data, binary.BigEndian, true)
	case magicFatSwapped:
		return a.analyzeFat(data, binary.LittleEndian, false)
	default:
		arch, err := a.analyzeThin(data, 0)
		if err != nil {
			return nil, err
		}
		return &entities.MachOMeta{Architectures: []entities.ArchitectureDescriptor{arch}}, nil
	}
}

func (a *machoAnalyzer) analyzeFat(data []byte, order binary.ByteOrder, wide bool) (*entities.MachOMeta, error) {
	if len(data) < fatHeaderSize {
		return nil, formatError("truncated fat header")
	}

	count := order.Uint32(data[4:8])
	if count == 0 {
		return nil, formatError("fat header lists no architectures")
	}
	if count > maxFatArches {
		return nil, formatError("fat header lists %d architectures, not a Mach-O file", count)
	}

	entrySize := fatArchSize
	if wide {
		entrySize = fatArch64Size
	}
	tableEnd := fatHeaderSize + int(count)*entrySize
	if len(data) < tableEnd {
		return nil, formatError("truncated fat architecture table")
	}

	meta := &entities.MachOMeta{
		Fat:           true,
		Architectures: make([]entities.ArchitectureDescriptor, 0, count),
	}

	for i := 0; i < int(count); i++ {
		entry := data[fatHeaderSize+i*entrySize:]

		fa := macho.FatArchHeader{
			Cpu:    macho.Cpu(order.Uint32(entry[0:4])),
			SubCpu: order.Uint32(entry[4:8]),
		}
		var offset, size uint64
		if wide {
			offset = order.Uint64(entry[8:16])
			size = order.Uint64(entry[16:24])
		} else {
			fa.Offset = order.Uint32(entry[8:12])
			fa.Size = order.Uint32(entry[12:16])
			offset, size = uint64(fa.Offset), uint64(fa.Size)
		}

		if offset > uint64(len(data)) || size > uint64(len(data))-offset {
			return nil, formatError("architecture %d (offset %d, size %d) lies outside the file", i, offset, size)
		}

		slice := data[offset : offset+size]
		arch, err := a.analyzeThin(slice, int64(offset)) //nolint:gosec // bounded by len(data)
		if err != nil {
			return nil, formatError("architecture %d: %v", i, err)
		}

		// The fat table is authoritative for the CPU; the slice header supplies the rest
		arch.CPUTypeRaw = int32(fa.Cpu) //nolint:gosec // cpu_type_t is signed on disk
		arch.CPUType = cpuTag(fa.Cpu)
		arch.CPUSubtypeRaw = fa.SubCpu
		arch.CPUSubtype = cpuSubtypeName(fa.Cpu, fa.SubCpu)
		arch.Size = int64(size) //nolint:gosec // bounded by len(data)

		meta.Architectures = append(meta.Architectures, arch)
	}

	return meta, nil
}

func (a *machoAnalyzer) analyzeThin(data []byte, offset int64) (entities.ArchitectureDescriptor, error) {
	if len(data) < 4 {
		return entities.ArchitectureDescriptor{}, formatError("slice too small for a Mach-O magic")
	}

	var (
		order      binary.ByteOrder
		bits       int
		headerSize int
	)
	switch magic := binary.BigEndian.Uint32(data); magic {
	case macho.Magic32:
		order, bits, headerSize = binary.BigEndian, 32, headerSize32
	case macho.Magic64:
		order, bits, headerSize = binary.BigEndian, 64, headerSize64
	case magic32Swapped:
		order, bits, headerSize = binary.LittleEndian, 32, headerSize32
	case magic64Swapped:
		order, bits, headerSize = binary.LittleEndian, 64, headerSize64
	case macho.MagicFat, magicFat64, magicFatSwapped:
		return entities.ArchitectureDescriptor{}, formatError("nested fat header at offset %d", offset)
	default:
		return entities.ArchitectureDescriptor{}, formatError("unknown magic %#08x", magic)
	}

	if len(data) < headerSize {
		return entities.ArchitectureDescriptor{}, formatError("truncated %d-bit header", bits)
	}

	hdr := macho.FileHeader{
		Magic:  order.Uint32(data[0:4]),
		Cpu:    macho.Cpu(order.Uint32(data[4:8])),
		SubCpu: order.Uint32(data[8:12]),
		Type:   macho.Type(order.Uint32(data[12:16])),
		Ncmd:   order.Uint32(data[16:20]),
		Cmdsz:  order.Uint32(data[20:24]),
		Flags:  order.Uint32(data[24:28]),
	}
	raw := entities.HeaderRaw{
		Magic:      hdr.Magic,
		CPUType:    int32(hdr.Cpu), //nolint:gosec // cpu_type_t is signed on disk
		CPUSubtype: hdr.SubCpu,
		FileType:   uint32(hdr.Type),
		NCmds:      hdr.Ncmd,
		SizeOfCmds: hdr.Cmdsz,
		Flags:      hdr.Flags,
		BigEndian:  order == binary.BigEndian,
	}
	if bits == 64 {
		raw.Reserved = order.Uint32(data[28:32])
	}

	summary, err := summarizeLoadCommands(data[headerSize:], order, hdr.Ncmd, hdr.Cmdsz)
	if err != nil {
		return entities.ArchitectureDescriptor{}, err
	}

	return entities.ArchitectureDescriptor{
		Magic:            hdr.Magic,
		Bits:             bits,
		FileType:         fileTypeName(hdr.Type),
		FileTypeRaw:      uint32(hdr.Type),
		CPUType:          cpuTag(hdr.Cpu),
		CPUTypeRaw:       raw.CPUType,
		CPUSubtype:       cpuSubtypeName(hdr.Cpu, hdr.SubCpu),
		CPUSubtypeRaw:    hdr.SubCpu,
		Offset:           offset,
		Size:             int64(len(data)),
		Header:           raw,
		LoadCommandsInfo: summary,
	}, nil
}

// summarizeLoadCommands walks the command table recording type and size of each command
func summarizeLoadCommands(table []byte, order binary.ByteOrder, count, declaredSize uint32) (entities.LoadCommandsSummary, error) {
	summary := entities.LoadCommandsSummary{
		Count:        int(count),
		DeclaredSize: declaredSize,
		Commands:     make([]entities.LoadCommand, 0, min(count, 256)),
		ByType:       make(map[string]int),
	}

	if uint64(declaredSize) > uint64(len(table)) {
		return summary, formatError("load commands (%d bytes) extend past the end of the file", declaredSize)
	}
	table = table[:declaredSize]

	var off uint32
	for i := uint32(0); i < count; i++ {
		if uint64(off)+loadCmdMinSize > uint64(len(table)) {
			return summary, formatError("load command %d starts past sizeofcmds", i)
		}
		cmd := macho.LoadCmd(order.Uint32(table[off : off+4]))
		size := order.Uint32(table[off+4 : off+8])
		if size < loadCmdMinSize {
			return summary, formatError("load command %d has invalid size %d", i, size)
		}
		if uint64(off)+uint64(size) > uint64(len(table)) {
			return summary, formatError("load command %d overruns sizeofcmds", i)
		}

		name := loadCommandName(cmd)
		summary.Commands = append(summary.Commands, entities.LoadCommand{Type: name, Cmd: uint32(cmd), Size: size})
		summary.ByType[name]++
		summary.TotalSize += uint64(size)
		off += size
	}

	return summary, nil
}

func formatError(format string, args ...any) error {
	return entities.NewScanError(entities.KindMachOFormat, fmt.Sprintf(format, args...))
}
