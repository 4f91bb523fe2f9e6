package report

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/apex/log"
	"github.com/apex/log/handlers/discard"
	"github.com/goccy/go-json"
	"github.com/klauspost/pgzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/priyxstudio/burrow/filesystem"
	"github.com/priyxstudio/burrow/internal/pool"
	"github.com/priyxstudio/burrow/system"
)

func init() {
	log.SetHandler(discard.New())
}

func scanned(t *testing.T) *filesystem.Scanner {
	t.Helper()
	dir := t.TempDir()
	files := map[string]int{
		"big/one.bin":         64 * 1024,
		"big/two.bin":         32 * 1024,
		"big/nested/deep.bin": 16 * 1024,
		"small/a.txt":         10,
		"top.txt":             4096,
	}
	for name, size := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, bytes.Repeat([]byte{'x'}, size), 0o644))
	}

	p := pool.New(2)
	t.Cleanup(p.Stop)
	s := filesystem.NewScanner(p)
	_, err := s.Start(dir)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, s.Wait(ctx))
	return s
}

func TestBuild(t *testing.T) {
	s := scanned(t)
	r := Build("abc", s, nil, Options{Depth: 2, Top: 2})

	assert.Equal(t, "abc", r.ID)
	assert.Equal(t, s.Root().Path(), r.Root)
	assert.Equal(t, uint64(5), r.Files)
	assert.Equal(t, uint64(4), r.Directories)
	assert.Equal(t, s.Root().Aggregate(), r.Size)

	require.Len(t, r.Entries, 2)
	assert.Equal(t, "big", r.Entries[0].Name)
	assert.True(t, r.Entries[0].Dir)
	assert.Equal(t, 3, r.Entries[0].Items)
	require.Len(t, r.Entries[0].Children, 2)
	assert.Equal(t, "one.bin", r.Entries[0].Children[0].Name)
	assert.Empty(t, r.Entries[0].Children[0].Children)

	var sum uint64
	for _, e := range Build("abc", s, nil, Options{}).Entries {
		sum += e.Size
		assert.Empty(t, e.Children)
	}
	assert.Equal(t, r.Size, sum)
}

func TestReport_WriteText(t *testing.T) {
	s := scanned(t)
	r := Build("abc", s, &system.DeviceUsage{Device: "/dev/sda1", Fstype: "ext4", TotalSpace: 1 << 30, UsedSpace: 1 << 29, UsedPercent: 50}, Options{Depth: 1})

	var buf bytes.Buffer
	require.NoError(t, r.Write(&buf, FormatText))
	out := buf.String()

	assert.Contains(t, out, "Scan abc of "+r.Root)
	assert.Contains(t, out, "Total Scanned Files: 5")
	assert.Contains(t, out, "/dev/sda1 ext4 512 MiB used of 1.0 GiB")
	assert.Contains(t, out, "big/ (3)")
	assert.Contains(t, out, "top.txt")
	assert.Less(t, strings.Index(out, "big/"), strings.Index(out, "small/"))
}

func TestReport_WriteJSON(t *testing.T) {
	s := scanned(t)
	r := Build("abc", s, nil, Options{Depth: 3})

	var buf bytes.Buffer
	require.NoError(t, r.Write(&buf, FormatJSON))

	var decoded Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, r.ID, decoded.ID)
	assert.Equal(t, r.Size, decoded.Size)
	assert.Nil(t, decoded.Device)
	assert.Equal(t, "deep.bin", decoded.Entries[0].Children[2].Children[0].Name)
}

func TestReport_UnknownFormat(t *testing.T) {
	r := &Report{}
	assert.ErrorIs(t, r.Write(&bytes.Buffer{}, "xml"), ErrUnknownFormat)
}

func TestCheckFormat(t *testing.T) {
	for _, f := range []string{"", FormatText, FormatJSON} {
		assert.NoError(t, CheckFormat(f), f)
	}
	assert.ErrorIs(t, CheckFormat("xml"), ErrUnknownFormat)
	assert.ErrorIs(t, CheckFormat("JSON"), ErrUnknownFormat)
}

func TestReport_WriteFile(t *testing.T) {
	s := scanned(t)
	r := Build("abc", s, nil, Options{})
	dir := t.TempDir()

	plain := filepath.Join(dir, "report.json")
	require.NoError(t, r.WriteFile(plain, FormatJSON))
	b, err := os.ReadFile(plain)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"id": "abc"`)

	compressed := filepath.Join(dir, "report.txt.gz")
	require.NoError(t, r.WriteFile(compressed, FormatText))
	f, err := os.Open(compressed)
	require.NoError(t, err)
	defer f.Close()
	gz, err := pgzip.NewReader(f)
	require.NoError(t, err)
	b, err = io.ReadAll(gz)
	require.NoError(t, err)
	assert.Contains(t, string(b), "Scan abc of")
}
