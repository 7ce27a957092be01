package entities

// MachOMeta is the parsed architecture list of one Mach-O file
type MachOMeta struct {
	Fat           bool                     `json:"fat"`
	Architectures []ArchitectureDescriptor `json:"architectures"`
}

// ArchitectureDescriptor describes one architecture slice found in a Mach-O file
type ArchitectureDescriptor struct {
	Magic            uint32              `json:"magic"`
	Bits             int                 `json:"bits"` // 32 or 64
	FileType         string              `json:"fileType"`
	FileTypeRaw      uint32              `json:"fileTypeRaw"`
	CPUType          string              `json:"processorType"` // family tag, e.g. "arm64", "x86_64"
	CPUTypeRaw       int32               `json:"processorTypeRaw"`
	CPUSubtype       string              `json:"processorSubType"`
	CPUSubtypeRaw    uint32              `json:"processorSubTypeRaw"`
	Offset           int64               `json:"offset"` // 0 for thin files
	Size             int64               `json:"size"`
	Header           HeaderRaw           `json:"header"`
	LoadCommandsInfo LoadCommandsSummary `json:"loadCommandsInfo"`
}

// IsReserved reports whether the slice carries the reserved CPU type 0
func (a ArchitectureDescriptor) IsReserved() bool {
	return a.CPUTypeRaw == 0
}

// HeaderRaw holds the mach_header fields as read from the file
type HeaderRaw struct {
	Magic      uint32 `json:"magic"`
	CPUType    int32  `json:"cputype"`
	CPUSubtype uint32 `json:"cpusubtype"`
	FileType   uint32 `json:"filetype"`
	NCmds      uint32 `json:"ncmds"`
	SizeOfCmds uint32 `json:"sizeofcmds"`
	Flags      uint32 `json:"flags"`
	Reserved   uint32 `json:"reserved,omitempty"` // 64-bit headers only
	BigEndian  bool   `json:"bigEndian"`
}

// LoadCommandsSummary is a lightweight digest of the load commands of one slice
type LoadCommandsSummary struct {
	Count        int            `json:"count"`
	DeclaredSize uint32         `json:"declaredSize"`
	TotalSize    uint64         `json:"totalSize"`
	Commands     []LoadCommand  `json:"commands"`
	ByType       map[string]int `json:"byType"`
}

// LoadCommand records the type and size of one load command without its payload
type LoadCommand struct {
	Type string `json:"type"`
	Cmd  uint32 `json:"cmd"`
	Size uint32 `json:"size"`
}
