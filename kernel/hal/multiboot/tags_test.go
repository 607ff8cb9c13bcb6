package multiboot

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"gopherboot/internal/mbitest"
)

type tagSpec struct {
	offset  uint32
	tagType TagType
	size    uint32
}

func collectTags(it TagIterator) []tagSpec {
	var tags []tagSpec
	for {
		tag, ok := it.Next()
		if !ok {
			return tags
		}
		tags = append(tags, tagSpec{tag.Offset, tag.Type, tag.Size})
	}
}

func TestTagIterator(t *testing.T) {
	info, err := LoadBytes(mbitest.QemuDump())
	require.Nil(t, err)

	exp := []tagSpec{
		{8, TagBootCommandLine, 9},
		{24, TagBootLoaderName, 35},
		{64, TagApmTable, 28},
		{96, TagMemoryMap, 160},
		{256, TagElfSymbols, 980},
		{1240, TagBasicMemoryInfo, 16},
		{1256, TagBiosBootDevice, 20},
		{1280, TagFramebufferInfo, 32},
		{1312, TagAcpiOldRsdp, 28},
	}

	require.Equal(t, exp, collectTags(info.Tags()))

	// Scanning again yields the same stream.
	require.Equal(t, exp, collectTags(info.Tags()))

	// A copy of a partially consumed iterator resumes from the same tag.
	it := info.Tags()
	it.Next()
	it.Next()
	fork := it
	require.Equal(t, exp[2:], collectTags(it))
	require.Equal(t, exp[2:], collectTags(fork))

	// Draining the caller's copy must not affect the fork.
	for _, ok := it.Next(); ok; _, ok = it.Next() {
	}
	_, ok := it.Next()
	require.False(t, ok)
	_, ok = it.Next()
	require.False(t, ok, "an exhausted iterator stays exhausted")

	tag, ok := fork.Next()
	require.True(t, ok)
	require.Equal(t, exp[2].tagType, tag.Type)
}

func TestTagIteratorSynthetic(t *testing.T) {
	specs := []struct {
		descr string
		build func(*mbitest.Builder)
		exp   []tagSpec
	}{
		{
			"no tags",
			func(*mbitest.Builder) {},
			nil,
		},
		{
			"unaligned sizes",
			func(b *mbitest.Builder) {
				b.BootLoaderName("GRUB").Tag(42, []byte{1}).BasicMemoryInfo(1, 2)
			},
			[]tagSpec{
				{8, TagBootLoaderName, 13},
				{24, TagType(42), 9},
				{40, TagBasicMemoryInfo, 16},
			},
		},
		{
			"empty payload",
			func(b *mbitest.Builder) {
				b.Tag(uint32(TagModules), nil).Tag(uint32(TagVbeInfo), nil)
			},
			[]tagSpec{
				{8, TagModules, 8},
				{16, TagVbeInfo, 8},
			},
		},
	}

	for _, spec := range specs {
		t.Run(spec.descr, func(t *testing.T) {
			var b mbitest.Builder
			spec.build(&b)

			info, err := LoadBytes(b.Bytes())
			require.Nil(t, err)
			require.Equal(t, spec.exp, collectTags(info.Tags()))
		})
	}
}

func TestTagIteratorMalformedTags(t *testing.T) {
	t.Run("tag smaller than its header", func(t *testing.T) {
		data := (&mbitest.Builder{}).BootLoaderName("GRUB").Tag(3, make([]byte, 8)).BasicMemoryInfo(1, 2).Bytes()
		binary.LittleEndian.PutUint32(data[28:], 4)

		info, err := LoadBytes(data)
		require.Nil(t, err)
		require.Equal(t, []tagSpec{{8, TagBootLoaderName, 13}}, collectTags(info.Tags()))
	})

	t.Run("tag overruns the end tag", func(t *testing.T) {
		data := (&mbitest.Builder{}).BootLoaderName("GRUB").BasicMemoryInfo(1, 2).Bytes()
		binary.LittleEndian.PutUint32(data[28:], 4096)

		info, err := LoadBytes(data)
		require.Nil(t, err)

		it := info.Tags()
		tag, ok := it.Next()
		require.True(t, ok)
		require.Equal(t, TagBootLoaderName, tag.Type)

		tag, ok = it.Next()
		require.True(t, ok)
		require.Equal(t, TagBasicMemoryInfo, tag.Type)
		require.Equal(t, uint32(4096), tag.Size)
		// The payload is clipped to the bytes before the end tag.
		require.Len(t, tag.Payload(), 8)

		_, ok = it.Next()
		require.False(t, ok)
	})
}

func TestFindTag(t *testing.T) {
	info, err := LoadBytes(mbitest.QemuDump())
	require.Nil(t, err)

	specs := []struct {
		tagType TagType
		expSize uint32
	}{
		{TagBootCommandLine, 9},
		{TagBootLoaderName, 35},
		{TagBasicMemoryInfo, 16},
		{TagBiosBootDevice, 20},
		{TagMemoryMap, 160},
		{TagFramebufferInfo, 32},
		{TagElfSymbols, 980},
		{TagApmTable, 28},
	}

	for specIndex, spec := range specs {
		tag, ok := info.FindTag(spec.tagType)
		require.True(t, ok, "spec %d", specIndex)
		require.Equal(t, spec.expSize, tag.Size, "spec %d", specIndex)
		require.Len(t, tag.Payload(), int(spec.expSize-8), "spec %d", specIndex)
	}

	for _, missing := range []TagType{TagModules, TagEnd, TagEfiMemoryMap} {
		_, ok := info.FindTag(missing)
		require.False(t, ok, "expected tag %s to be missing", missing)
	}
}

func TestFindTagReturnsFirstMatch(t *testing.T) {
	info, err := LoadBytes((&mbitest.Builder{}).BootLoaderName("first").BootLoaderName("second").Bytes())
	require.Nil(t, err)

	require.Len(t, collectTags(info.Tags()), 2)

	name, ok := info.BootLoaderName()
	require.True(t, ok)
	require.Equal(t, "first", name.Name())
}

func TestTagTypeString(t *testing.T) {
	require.Equal(t, "end", TagEnd.String())
	require.Equal(t, "memory map", TagMemoryMap.String())
	require.Equal(t, "image load base address", TagImageLoadBasePhysAddr.String())
	require.Equal(t, "unknown", TagType(22).String())
	require.Equal(t, "unknown", TagType(0xffff).String())
}
