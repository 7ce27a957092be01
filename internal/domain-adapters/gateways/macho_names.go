package gateways

import (
	"debug/macho"
	"fmt"
)

const (
	cpuArch6432    = 0x02000000
	cpuSubtypeMask = 0xff000000

	cpuArm6432 = macho.CpuArm | cpuArch6432
)

var cpuTags = map[macho.Cpu]string{
	0:              "unknown",
	macho.Cpu386:   "x86",
	macho.CpuAmd64: "x86_64",
	macho.CpuArm:   "arm",
	macho.CpuArm64: "arm64",
	cpuArm6432:     "arm64_32",
	macho.CpuPpc:   "ppc",
	macho.CpuPpc64: "ppc64",
}

// cpuTag maps a numeric CPU type to the family tag used for classification
func cpuTag(cpu macho.Cpu) string {
	if tag, ok := cpuTags[cpu]; ok {
		return tag
	}
	return fmt.Sprintf("cpu(%d)", int32(cpu)) //nolint:gosec // cpu_type_t is signed on disk
}

var cpuSubtypes = map[macho.Cpu]map[uint32]string{
	macho.Cpu386:   {3: "all", 4: "486", 8: "haswell"},
	macho.CpuAmd64: {3: "all", 4: "arch1", 8: "haswell"},
	macho.CpuArm: {
		0: "all", 5: "v4t", 6: "v6", 7: "v5tej", 8: "xscale", 9: "v7", 10: "v7f",
		11: "v7s", 12: "v7k", 13: "v8", 14: "v6m", 15: "v7m", 16: "v7em",
	},
	macho.CpuArm64: {0: "all", 1: "v8", 2: "arm64e"},
	cpuArm6432:     {0: "all", 1: "v8"},
	macho.CpuPpc:   {0: "all", 1: "601", 2: "602", 3: "603", 9: "750", 10: "7400", 11: "7450", 100: "970"},
	macho.CpuPpc64: {0: "all", 100: "970"},
}

// cpuSubtypeName names a subtype after masking off the capability bits
func cpuSubtypeName(cpu macho.Cpu, subtype uint32) string {
	if cpu == 0 {
		return ""
	}
	masked := subtype &^ cpuSubtypeMask
	if name, ok := cpuSubtypes[cpu][masked]; ok {
		return name
	}
	return fmt.Sprintf("subtype(%d)", masked)
}

var fileTypes = map[macho.Type]string{
	macho.TypeObj:    "object",
	macho.TypeExec:   "execute",
	3:                "fvmlib",
	4:                "core",
	5:                "preload",
	macho.TypeDylib:  "dylib",
	7:                "dylinker",
	macho.TypeBundle: "bundle",
	9:                "dylib_stub",
	10:               "dsym",
	11:               "kext_bundle",
	12:               "fileset",
}

func fileTypeName(t macho.Type) string {
	if name, ok := fileTypes[t]; ok {
		return name
	}
	return fmt.Sprintf("filetype(%d)", uint32(t))
}

var loadCommandNames = map[macho.LoadCmd]string{
	macho.LoadCmdSegment:    "LC_SEGMENT",
	macho.LoadCmdSymtab:     "LC_SYMTAB",
	0x3:                     "LC_SYMSEG",
	macho.LoadCmdThread:     "LC_THREAD",
	macho.LoadCmdUnixThread: "LC_UNIXTHREAD",
	0x6:                     "LC_LOADFVMLIB",
	0x7:                     "LC_IDFVMLIB",
	0x8:                     "LC_IDENT",
	0x9:                     "LC_FVMFILE",
	0xa:                     "LC_PREPAGE",
	macho.LoadCmdDysymtab:   "LC_DYSYMTAB",
	macho.LoadCmdDylib:      "LC_LOAD_DYLIB",
	0xd:                     "LC_ID_DYLIB",
	0xe:                     "LC_LOAD_DYLINKER",
	0xf:                     "LC_ID_DYLINKER",
	0x10:                    "LC_PREBOUND_DYLIB",
	0x11:                    "LC_ROUTINES",
	0x12:                    "LC_SUB_FRAMEWORK",
	0x13:                    "LC_SUB_UMBRELLA",
	0x14:                    "LC_SUB_CLIENT",
	0x15:                    "LC_SUB_LIBRARY",
	0x16:                    "LC_TWOLEVEL_HINTS",
	0x17:                    "LC_PREBIND_CKSUM",
	0x80000018:              "LC_LOAD_WEAK_DYLIB",
	macho.LoadCmdSegment64:  "LC_SEGMENT_64",
	0x1a:                    "LC_ROUTINES_64",
	0x1b:                    "LC_UUID",
	macho.LoadCmdRpath:      "LC_RPATH",
	0x1d:                    "LC_CODE_SIGNATURE",
	0x1e:                    "LC_SEGMENT_SPLIT_INFO",
	0x8000001f:              "LC_REEXPORT_DYLIB",
	0x20:                    "LC_LAZY_LOAD_DYLIB",
	0x21:                    "LC_ENCRYPTION_INFO",
	0x22:                    "LC_DYLD_INFO",
	0x80000022:              "LC_DYLD_INFO_ONLY",
	0x80000023:              "LC_LOAD_UPWARD_DYLIB",
	0x24:                    "LC_VERSION_MIN_MACOSX",
	0x25:                    "LC_VERSION_MIN_IPHONEOS",
	0x26:                    "LC_FUNCTION_STARTS",
	0x27:                    "LC_DYLD_ENVIRONMENT",
	0x80000028:              "LC_MAIN",
	0x29:                    "LC_DATA_IN_CODE",
	0x2a:                    "LC_SOURCE_VERSION",
	0x2b:                    "LC_DYLIB_CODE_SIGN_DRS",
	0x2c:                    "LC_ENCRYPTION_INFO_64",
	0x2d:                    "LC_LINKER_OPTION",
	0x2e:                    "LC_LINKER_OPTIMIZATION_HINT",
	0x2f:                    "LC_VERSION_MIN_TVOS",
	0x30:                    "LC_VERSION_MIN_WATCHOS",
	0x31:                    "LC_NOTE",
	0x32:                    "LC_BUILD_VERSION",
	0x80000033:              "LC_DYLD_EXPORTS_TRIE",
	0x80000034:              "LC_DYLD_CHAINED_FIXUPS",
	0x80000035:              "LC_FILESET_ENTRY",
	0x36:                    "LC_ATOM_INFO",
}

func loadCommandName(cmd macho.LoadCmd) string {
	if name, ok := loadCommandNames[cmd]; ok {
		return name
	}
	return fmt.Sprintf("LC(%#x)", uint32(cmd))
}
