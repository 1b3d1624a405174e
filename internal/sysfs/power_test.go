package sysfs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeAttr creates card<N>/power/<attr> under root with the given content
func writeAttr(t *testing.T, root string, card int, attr, content string) string {
	t.Helper()
	dir := PowerDir(root, card)
	require.NoError(t, os.MkdirAll(dir, 0755))
	path := filepath.Join(dir, attr)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestReadUint_TrimsWhitespace(t *testing.T) {
	root := t.TempDir()
	path := writeAttr(t, root, 0, AttrRC6, "  12345\n")

	v, err := ReadUint(path)

	require.NoError(t, err)
	assert.Equal(t, uint64(12345), v)
}

func TestReadUint_MissingFileIncludesPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope")

	_, err := ReadUint(path)

	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, err.Error(), path)
}

func TestReadUint_RejectsMalformedContent(t *testing.T) {
	root := t.TempDir()
	for _, content := range []string{"", "\n", "abc", "-5", "12 34", "1.5", "0x10"} {
		path := writeAttr(t, root, 0, AttrRC6, content)

		_, err := ReadUint(path)

		assert.ErrorIs(t, err, ErrMalformedCounter, "content %q", content)
	}
}

func TestSource_SampleReadsAllThreeCounters(t *testing.T) {
	root := t.TempDir()
	writeAttr(t, root, 1, AttrRC6, "1000\n")
	writeAttr(t, root, 1, AttrRC6p, "500\n")
	writeAttr(t, root, 1, AttrRC6pp, "200\n")

	set, err := NewSource(root).Sample(1)

	require.NoError(t, err)
	assert.Equal(t, uint64(1000), set.RC6.Value)
	assert.Equal(t, uint64(500), set.RC6p.Value)
	assert.Equal(t, uint64(200), set.RC6pp.Value)
	assert.Equal(t, "rc6p", set.RC6p.Name)
	assert.Equal(t, filepath.Join(root, "card1", "power", AttrRC6pp), set.RC6pp.Path)
	assert.False(t, set.Taken.IsZero())
}

func TestSource_SampleStopsAtFirstBadCounter(t *testing.T) {
	root := t.TempDir()
	writeAttr(t, root, 0, AttrRC6, "1000\n")
	writeAttr(t, root, 0, AttrRC6p, "garbage\n")

	_, err := NewSource(root).Sample(0)

	assert.ErrorIs(t, err, ErrMalformedCounter)
}

func TestSource_Enabled(t *testing.T) {
	root := t.TempDir()
	writeAttr(t, root, 0, AttrRC6Enable, "0\n")

	v, err := NewSource(root).Enabled(0)

	require.NoError(t, err)
	assert.Equal(t, uint64(0), v)
}

func TestNewSource_DefaultsRoot(t *testing.T) {
	assert.Equal(t, DefaultRoot, NewSource("").Root)
}

func TestListCards_SkipsConnectorsAndSorts(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"card1", "card0", "card0-HDMI-A-1", "renderD128", "card10"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, name), 0755))
	}
	require.NoError(t, os.MkdirAll(filepath.Join(root, "card1", "device"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "card1", "device", "vendor"), []byte("0x8086\n"), 0644))
	writeAttr(t, root, 1, AttrRC6Enable, "1\n")

	cards, err := ListCards(root)

	require.NoError(t, err)
	require.Len(t, cards, 3)
	assert.Equal(t, []int{0, 1, 10}, []int{cards[0].Index, cards[1].Index, cards[2].Index})
	assert.Equal(t, "", cards[0].Vendor)
	assert.Equal(t, "0x8086", cards[1].Vendor)
	assert.True(t, cards[1].HasAttr(AttrRC6Enable))
	assert.False(t, cards[0].HasAttr(AttrRC6Enable))
}

func TestListCards_MissingRoot(t *testing.T) {
	_, err := ListCards(filepath.Join(t.TempDir(), "missing"))

	assert.ErrorIs(t, err, os.ErrNotExist)
}
