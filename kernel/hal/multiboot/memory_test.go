package multiboot

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"gopherboot/internal/mbitest"
)

func collectAreas(it MemoryAreaIterator) []mbitest.Area {
	var areas []mbitest.Area
	for {
		area, ok := it.Next()
		if !ok {
			return areas
		}
		areas = append(areas, mbitest.Area{Base: area.BaseAddr, Length: area.Length, Type: uint32(area.Type)})
	}
}

func TestMemoryMapQemuDump(t *testing.T) {
	info, err := LoadBytes(mbitest.QemuDump())
	require.Nil(t, err)

	memMap, ok := info.MemoryMap()
	require.True(t, ok)
	require.Equal(t, uint32(24), memMap.EntrySize())
	require.Equal(t, uint32(0), memMap.EntryVersion())

	require.Equal(t, []mbitest.Area{
		{Base: 0, Length: 654336, Type: 1},
		{Base: 654336, Length: 1024, Type: 2},
		{Base: 983040, Length: 65536, Type: 2},
		{Base: 1048576, Length: 133038080, Type: 1},
		{Base: 134086656, Length: 131072, Type: 2},
		{Base: 4294705152, Length: 262144, Type: 2},
	}, collectAreas(memMap.Areas()))

	require.Equal(t, []mbitest.Area{
		{Base: 0, Length: 654336, Type: 1},
		{Base: 1048576, Length: 133038080, Type: 1},
	}, collectAreas(memMap.AvailableAreas()))
}

func TestMemoryMapStride(t *testing.T) {
	areas := []mbitest.Area{
		{Base: 0x0, Length: 0x9fc00, Type: uint32(MemoryAreaAvailable)},
		{Base: 0x9fc00, Length: 0x400, Type: uint32(MemoryAreaReserved)},
		{Base: 0xe0000, Length: 0x20000, Type: uint32(MemoryAreaAcpiInfo)},
		{Base: 0x100000, Length: 0x7ee0000, Type: uint32(MemoryAreaAvailable)},
		{Base: 0x7fe0000, Length: 0x20000, Type: uint32(MemoryAreaReservedHibernate)},
		{Base: 0xfffc0000, Length: 0x40000, Type: uint32(MemoryAreaDefective)},
		{Base: 0x100000000, Length: 0x40000000, Type: uint32(MemoryAreaAvailable)},
	}

	for _, stride := range []uint32{24, 32, 48} {
		info, err := LoadBytes((&mbitest.Builder{}).MemoryMap(stride, areas...).Bytes())
		require.Nil(t, err)

		memMap, ok := info.MemoryMap()
		require.True(t, ok)
		require.Equal(t, stride, memMap.EntrySize())

		require.Equal(t, areas, collectAreas(memMap.Areas()), "stride %d", stride)
		require.Equal(t, []mbitest.Area{areas[0], areas[3], areas[6]}, collectAreas(memMap.AvailableAreas()), "stride %d", stride)
	}
}

func TestMemoryAreaIteratorRestart(t *testing.T) {
	info, err := LoadBytes(mbitest.QemuDump())
	require.Nil(t, err)

	memMap, _ := info.MemoryMap()
	it := memMap.Areas()
	it.Next()

	fork := it
	require.Len(t, collectAreas(it), 5)
	require.Len(t, collectAreas(fork), 5)
	require.Len(t, collectAreas(memMap.Areas()), 6)
}

func TestMemoryMapDegenerate(t *testing.T) {
	t.Run("zero entry size", func(t *testing.T) {
		info, err := LoadBytes((&mbitest.Builder{}).Tag(uint32(TagMemoryMap), make([]byte, 8+48)).Bytes())
		require.Nil(t, err)

		memMap, ok := info.MemoryMap()
		require.True(t, ok)
		require.Empty(t, collectAreas(memMap.Areas()))
	})

	t.Run("no entries", func(t *testing.T) {
		info, err := LoadBytes((&mbitest.Builder{}).MemoryMap(24).Bytes())
		require.Nil(t, err)

		memMap, ok := info.MemoryMap()
		require.True(t, ok)
		require.Empty(t, collectAreas(memMap.Areas()))
	})

	t.Run("truncated header", func(t *testing.T) {
		info, err := LoadBytes((&mbitest.Builder{}).Tag(uint32(TagMemoryMap), []byte{24, 0, 0, 0}).Bytes())
		require.Nil(t, err)

		_, ok := info.MemoryMap()
		require.False(t, ok)
	})

	t.Run("zero value", func(t *testing.T) {
		var memMap MemoryMap
		require.Empty(t, collectAreas(memMap.Areas()))
		require.Empty(t, collectAreas(memMap.AvailableAreas()))
	})
}

func TestMemoryArea(t *testing.T) {
	area := MemoryArea{BaseAddr: 0x100000, Length: 0x1000, Type: MemoryAreaAvailable}
	require.Equal(t, uint64(0x101000), area.End())
	require.True(t, area.Available())

	area = MemoryArea{BaseAddr: math.MaxUint64 - 10, Length: 100, Type: MemoryAreaReserved}
	require.Equal(t, uint64(math.MaxUint64), area.End())
	require.False(t, area.Available())
}

func TestMemoryAreaTypeString(t *testing.T) {
	specs := []struct {
		input MemoryAreaType
		exp   string
	}{
		{MemoryAreaAvailable, "available"},
		{MemoryAreaReservedHibernate, "reserved (hibernate)"},
		{MemoryAreaAcpiInfo, "ACPI info"},
		{MemoryAreaReserved, "reserved"},
		{MemoryAreaDefective, "defective"},
		{MemoryAreaType(0), "unknown"},
		{MemoryAreaType(123), "unknown"},
	}

	for specIndex, spec := range specs {
		require.Equal(t, spec.exp, spec.input.String(), "spec %d", specIndex)
	}
}
