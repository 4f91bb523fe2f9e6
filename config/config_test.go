package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/apex/log"
	"github.com/apex/log/handlers/discard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	log.SetHandler(discard.New())
}

func TestNewAtPath_Defaults(t *testing.T) {
	c, err := NewAtPath("/tmp/burrow.yml")
	require.NoError(t, err)

	assert.Equal(t, "/tmp/burrow.yml", c.Path())
	assert.False(t, c.Debug)
	assert.Equal(t, 0, c.Scan.Workers)
	assert.Equal(t, 2, c.Scan.WorkersPerCPU)
	assert.Equal(t, 0, c.Scan.ReadLimit)
	assert.Equal(t, 5*time.Second, c.ProgressInterval())
	assert.Equal(t, 150*time.Millisecond, c.RefreshInterval())
	assert.Equal(t, GetDefaultLogDirectory(), c.System.LogDirectory)
	assert.Equal(t, runtime.NumCPU()*2, c.Workers())
}

func TestConfiguration_Workers(t *testing.T) {
	c, err := NewAtPath("")
	require.NoError(t, err)

	c.Scan.Workers = 3
	assert.Equal(t, 3, c.Workers())

	c.Scan.Workers = 0
	c.Scan.WorkersPerCPU = 0
	assert.Equal(t, runtime.NumCPU(), c.Workers())
}

func TestFromFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.yml")
	data := `
debug: true
scan:
  workers: 7
  exclude:
    - node_modules/
    - "*.iso"
  read_limit: 100
view:
  refresh_interval: 500
system:
  log_directory: /var/tmp/burrow-test
`
	require.NoError(t, os.WriteFile(p, []byte(data), 0o600))
	require.NoError(t, FromFile(p))

	c := Get()
	assert.True(t, c.Debug)
	assert.Equal(t, 7, c.Workers())
	assert.Equal(t, []string{"node_modules/", "*.iso"}, c.Scan.Exclude)
	assert.Equal(t, 100, c.Scan.ReadLimit)
	// Keys that were not in the file keep their defaults.
	assert.Equal(t, 2, c.Scan.WorkersPerCPU)
	assert.Equal(t, 500*time.Millisecond, c.RefreshInterval())
	assert.Equal(t, "/var/tmp/burrow-test", c.System.LogDirectory)
	assert.Equal(t, p, c.Path())
}

func TestFromFile_Missing(t *testing.T) {
	dir := t.TempDir()

	err := FromFile(filepath.Join(dir, "nope.yml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	prev := DefaultLocation
	DefaultLocation = filepath.Join(dir, "default.yml")
	defer func() { DefaultLocation = prev }()

	require.NoError(t, FromFile(DefaultLocation))
	assert.Equal(t, 2, Get().Scan.WorkersPerCPU)
}

func TestFromFile_Invalid(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(p, []byte("scan: [not, a, map"), 0o600))
	assert.Error(t, FromFile(p))
}

func TestGet_ReturnsCopy(t *testing.T) {
	c, err := NewAtPath("")
	require.NoError(t, err)
	c.Scan.Exclude = []string{"a"}
	Set(c)

	cp := Get()
	cp.Scan.Workers = 99
	cp.Scan.Exclude[0] = "b"
	assert.Equal(t, 0, Get().Scan.Workers)
	assert.Equal(t, []string{"a"}, Get().Scan.Exclude)

	Update(func(c *Configuration) {
		c.Scan.Workers = 4
	})
	assert.Equal(t, 4, Get().Scan.Workers)
}

func TestWriteToDisk(t *testing.T) {
	p := filepath.Join(t.TempDir(), "nested", "config.yml")
	c, err := NewAtPath(p)
	require.NoError(t, err)
	c.Scan.Exclude = []string{".git/"}
	c.Scan.Workers = 5

	require.NoError(t, WriteToDisk(c))
	require.NoError(t, FromFile(p))
	assert.Equal(t, 5, Get().Scan.Workers)
	assert.Equal(t, []string{".git/"}, Get().Scan.Exclude)

	assert.Error(t, WriteToDisk(&Configuration{}))
}

func TestWriteToDisk_SkipsDebugFromFlag(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.yml")
	c, err := NewAtPath(p)
	require.NoError(t, err)
	Set(c)
	SetDebugViaFlag(true)
	defer SetDebugViaFlag(false)

	require.NoError(t, WriteToDisk(Get()))
	b, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Contains(t, string(b), "debug: false")
}

func TestExpand(t *testing.T) {
	t.Setenv("BURROW_TEST_DIR", "/srv/logs")
	v, err := Expand("$BURROW_TEST_DIR/burrow")
	require.NoError(t, err)
	assert.Equal(t, "/srv/logs/burrow", v)

	f := filepath.Join(t.TempDir(), "value")
	require.NoError(t, os.WriteFile(f, []byte("/from/file\n"), 0o600))
	v, err = Expand("file://" + f)
	require.NoError(t, err)
	assert.Equal(t, "/from/file", v)

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	v, err = Expand("~/logs")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "logs"), v)
}
