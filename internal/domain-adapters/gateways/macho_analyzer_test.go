package gateways

import (
	"debug/macho"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ochairo/nativescan/internal/domain/entities"
	"github.com/ochairo/nativescan/internal/testfixtures"
)

func TestAnalyzeMachO_Thin(t *testing.T) {
	tests := []struct {
		name       string
		data       []byte
		wantCPU    string
		wantSub    string
		wantBits   int
		wantBigEnd bool
	}{
		{
			name:     "arm64 little endian",
			data:     testfixtures.Arm64(),
			wantCPU:  "arm64",
			wantSub:  "all",
			wantBits: 64,
		},
		{
			name:     "x86_64 little endian",
			data:     testfixtures.Amd64(),
			wantCPU:  "x86_64",
			wantSub:  "all",
			wantBits: 64,
		},
		{
			name: "ppc big endian 32-bit",
			data: testfixtures.Thin(testfixtures.Slice{
				Cpu:      macho.CpuPpc,
				Bits:     32,
				Commands: []testfixtures.LoadCmd{{Cmd: macho.LoadCmdSegment, Size: 56}},
			}),
			wantCPU:    "ppc",
			wantSub:    "all",
			wantBits:   32,
			wantBigEnd: true,
		},
	}

	analyzer := NewMachOAnalyzer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta, err := analyzer.AnalyzeMachO(tt.data)
			require.NoError(t, err)
			assert.False(t, meta.Fat)
			require.Len(t, meta.Architectures, 1)

			arch := meta.Architectures[0]
			assert.Equal(t, tt.wantCPU, arch.CPUType)
			assert.Equal(t, tt.wantSub, arch.CPUSubtype)
			assert.Equal(t, tt.wantBits, arch.Bits)
			assert.Equal(t, tt.wantBigEnd, arch.Header.BigEndian)
			assert.Equal(t, "execute", arch.FileType)
			assert.Equal(t, int64(0), arch.Offset)
			assert.Equal(t, int64(len(tt.data)), arch.Size)
		})
	}
}

func TestAnalyzeMachO_LoadCommands(t *testing.T) {
	meta, err := NewMachOAnalyzer().AnalyzeMachO(testfixtures.Arm64())
	require.NoError(t, err)

	info := meta.Architectures[0].LoadCommandsInfo
	assert.Equal(t, 4, info.Count)
	assert.Equal(t, uint32(336), info.DeclaredSize)
	assert.Equal(t, uint64(336), info.TotalSize)
	assert.Equal(t, map[string]int{"LC_SEGMENT_64": 2, "LC_LOAD_DYLIB": 2}, info.ByType)
	require.Len(t, info.Commands, 4)
	assert.Equal(t, entities.LoadCommand{Type: "LC_SEGMENT_64", Cmd: 0x19, Size: 72}, info.Commands[0])

	hdr := meta.Architectures[0].Header
	assert.Equal(t, uint32(4), hdr.NCmds)
	assert.Equal(t, uint32(336), hdr.SizeOfCmds)
	assert.Equal(t, int32(macho.CpuArm64), hdr.CPUType)
}

func TestAnalyzeMachO_Fat(t *testing.T) {
	data := testfixtures.Universal()

	meta, err := NewMachOAnalyzer().AnalyzeMachO(data)
	require.NoError(t, err)
	assert.True(t, meta.Fat)
	require.Len(t, meta.Architectures, 2)

	assert.Equal(t, "x86_64", meta.Architectures[0].CPUType)
	assert.Equal(t, "arm64", meta.Architectures[1].CPUType)
	assert.Equal(t, int64(4096), meta.Architectures[0].Offset)
	assert.Equal(t, int64(0), meta.Architectures[0].Offset%4096)
	assert.Greater(t, meta.Architectures[1].Offset, meta.Architectures[0].Offset)
	for _, arch := range meta.Architectures {
		assert.Equal(t, 4, arch.LoadCommandsInfo.Count)
	}
}

func TestAnalyzeMachO_FatTableWinsForCPU(t *testing.T) {
	data := testfixtures.Fat(testfixtures.Slice{Cpu: macho.CpuArm64, Little: true, Commands: testfixtures.DefaultCommands})
	// Rewrite the embedded header so it disagrees with the fat table
	off := binary.BigEndian.Uint32(data[16:20])
	binary.LittleEndian.PutUint32(data[off+4:], uint32(macho.CpuAmd64))

	meta, err := NewMachOAnalyzer().AnalyzeMachO(data)
	require.NoError(t, err)
	assert.Equal(t, "arm64", meta.Architectures[0].CPUType)
	assert.Equal(t, int32(macho.CpuAmd64), meta.Architectures[0].Header.CPUType)
}

func TestAnalyzeMachO_Reserved(t *testing.T) {
	data := testfixtures.Fat(
		testfixtures.Slice{Cpu: 0, Little: true},
		testfixtures.Slice{Cpu: macho.CpuArm64, Little: true},
	)

	meta, err := NewMachOAnalyzer().AnalyzeMachO(data)
	require.NoError(t, err)
	require.Len(t, meta.Architectures, 2)
	assert.True(t, meta.Architectures[0].IsReserved())
	assert.Equal(t, "unknown", meta.Architectures[0].CPUType)
	assert.False(t, meta.Architectures[1].IsReserved())
}

func TestAnalyzeMachO_Errors(t *testing.T) {
	truncatedCmds := testfixtures.Arm64()
	truncatedCmds = truncatedCmds[:len(truncatedCmds)-10]

	badCmdSize := testfixtures.Thin(testfixtures.Slice{
		Cpu:      macho.CpuArm64,
		Little:   true,
		Commands: []testfixtures.LoadCmd{{Cmd: macho.LoadCmdSegment64, Size: 72}},
	})
	binary.LittleEndian.PutUint32(badCmdSize[32+4:], 4)

	fatOutOfBounds := testfixtures.Universal()
	binary.BigEndian.PutUint32(fatOutOfBounds[8+12:], 1<<30)

	javaClass := make([]byte, 64)
	binary.BigEndian.PutUint32(javaClass, macho.MagicFat)
	binary.BigEndian.PutUint32(javaClass[4:], 52)

	emptyFat := make([]byte, 8)
	binary.BigEndian.PutUint32(emptyFat, macho.MagicFat)

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"short", []byte{0xcf, 0xfa}},
		{"text file", []byte("#!/bin/sh\necho hello\n")},
		{"truncated header", testfixtures.Arm64()[:20]},
		{"load commands past end", truncatedCmds},
		{"load command size below minimum", badCmdSize},
		{"fat slice out of bounds", fatOutOfBounds},
		{"java class file", javaClass},
		{"fat without architectures", emptyFat},
	}

	analyzer := NewMachOAnalyzer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta, err := analyzer.AnalyzeMachO(tt.data)
			require.Error(t, err)
			assert.Nil(t, meta)
			assert.True(t, errors.Is(err, entities.ErrMachOFormat), "got %v", err)
		})
	}
}
