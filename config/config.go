package config

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"emperror.dev/errors"
	"github.com/apex/log"
	"github.com/creasty/defaults"
	"gopkg.in/yaml.v2"
)

// DefaultLocation is set dynamically based on the platform.
var DefaultLocation = GetDefaultConfigLocation()

var (
	mu            sync.RWMutex
	_config       *Configuration
	_debugViaFlag bool
)

// Locker specific to writing the configuration to the disk, this happens
// in areas that might already be locked, so we don't want to crash the process.
var _writeLock sync.Mutex

// ScanConfiguration controls how a directory tree is walked.
type ScanConfiguration struct {
	// The number of directories that may be read at the same time. When set to
	// zero the value is derived from the number of CPUs on the machine.
	Workers int `default:"0" yaml:"workers"`

	// The number of workers to start per CPU when Workers is zero.
	WorkersPerCPU int `default:"2" yaml:"workers_per_cpu"`

	// Exclude is a list of gitignore style patterns, matched against paths
	// relative to the scan root. Matching entries are not counted at all.
	Exclude []string `yaml:"exclude"`

	// ReadLimit is the maximum number of directories opened per second across
	// every worker. Zero disables the limit. This is useful when scanning a
	// network mount that should not be hammered.
	ReadLimit int `default:"0" yaml:"read_limit"`

	// The number of seconds between progress log lines when running without
	// the interactive view.
	ProgressInterval int `default:"5" yaml:"progress_interval"`
}

// ViewConfiguration controls the interactive terminal view.
type ViewConfiguration struct {
	// How often, in milliseconds, the view redraws while a scan is running.
	RefreshInterval int `default:"150" yaml:"refresh_interval"`
}

// SystemConfiguration defines basic system configuration settings.
type SystemConfiguration struct {
	// Directory where the burrow log file is written.
	LogDirectory string `yaml:"log_directory"`
}

type Configuration struct {
	// The location from which this configuration instance was instantiated.
	path string

	// Determines if burrow should be running in debug mode. This value is
	// ignored if the debug flag is passed through the command line arguments.
	Debug bool `yaml:"debug"`

	Scan   ScanConfiguration   `yaml:"scan"`
	View   ViewConfiguration   `yaml:"view"`
	System SystemConfiguration `yaml:"system"`
}

// NewAtPath creates a new struct and set the path where it should be stored.
// This function does not modify the currently stored global configuration.
func NewAtPath(path string) (*Configuration, error) {
	var c Configuration
	// Configures the default values for many of the configuration options present
	// in the structs. Values set in the configuration file take priority over the
	// default values.
	if err := defaults.Set(&c); err != nil {
		return nil, err
	}
	applyPlatformDefaults(&c)
	// Track the location where we created this configuration.
	c.path = path
	return &c, nil
}

// Set the global configuration instance. This is a blocking operation such that
// anything trying to set a different configuration value, or read the configuration
// will be paused until it is complete.
func Set(c *Configuration) {
	mu.Lock()
	defer mu.Unlock()
	_config = c
}

// SetDebugViaFlag tracks if the application is running in debug mode because of
// a command line flag argument. If so we do not want to store that configuration
// change to the disk.
func SetDebugViaFlag(d bool) {
	mu.Lock()
	defer mu.Unlock()
	_config.Debug = d
	_debugViaFlag = d
}

// Get returns the global configuration instance. This is a thread-safe operation
// that will block if the configuration is presently being modified.
//
// Be aware that you CANNOT make modifications to the currently stored configuration
// by modifying the struct returned by this function. The only way to make
// modifications is by using the Update() function and passing data through in
// the callback.
func Get() *Configuration {
	mu.RLock()
	// Create a copy of the struct so that all modifications made beyond this
	// point are immutable.
	c := *_config
	c.Scan.Exclude = append([]string(nil), _config.Scan.Exclude...)
	mu.RUnlock()
	return &c
}

// Update performs an in-situ update of the global configuration object using
// a thread-safe mutex lock. This is the correct way to make modifications to
// the global configuration.
func Update(callback func(c *Configuration)) {
	mu.Lock()
	defer mu.Unlock()
	callback(_config)
}

// Path returns the file path where this configuration is stored.
func (c *Configuration) Path() string {
	return c.path
}

// Workers returns the number of workers a scan should use.
func (c *Configuration) Workers() int {
	if c.Scan.Workers > 0 {
		return c.Scan.Workers
	}
	per := c.Scan.WorkersPerCPU
	if per < 1 {
		per = 1
	}
	return runtime.NumCPU() * per
}

// ProgressInterval returns the delay between progress log lines.
func (c *Configuration) ProgressInterval() time.Duration {
	if c.Scan.ProgressInterval < 1 {
		return 5 * time.Second
	}
	return time.Duration(c.Scan.ProgressInterval) * time.Second
}

// RefreshInterval returns the redraw delay of the interactive view.
func (c *Configuration) RefreshInterval() time.Duration {
	if c.View.RefreshInterval < 10 {
		return 150 * time.Millisecond
	}
	return time.Duration(c.View.RefreshInterval) * time.Millisecond
}

// WriteToDisk writes the configuration to the disk. This is a thread safe operation
// and will only allow one write at a time. Additional calls while writing are
// queued up.
func WriteToDisk(c *Configuration) error {
	_writeLock.Lock()
	defer _writeLock.Unlock()

	ccopy := *c
	// If debugging is set with the flag, don't save that to the configuration file,
	// otherwise you'll always end up in debug mode.
	if _debugViaFlag {
		ccopy.Debug = false
	}
	if c.path == "" {
		return errors.New("cannot write configuration, no path defined in struct")
	}
	b, err := yaml.Marshal(&ccopy)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return errors.WrapIf(err, "config: failed to create configuration directory")
	}
	if err := os.WriteFile(c.path, b, 0o600); err != nil {
		return err
	}
	return nil
}

// FromFile reads the configuration from the provided file and stores it in the
// global singleton for this instance.
//
// A missing file at the default location is not an error since burrow works
// without any configuration at all; the defaults are stored instead. A missing
// file anywhere else was asked for explicitly and is reported.
func FromFile(path string) error {
	c, err := NewAtPath(path)
	if err != nil {
		return err
	}

	b, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) || path != DefaultLocation {
			return errors.WithStack(err)
		}
		log.WithField("path", path).Debug("no configuration file found, using defaults")
	} else if err := yaml.Unmarshal(b, c); err != nil {
		return errors.WrapIf(err, "config: failed to parse configuration file")
	}

	c.System.LogDirectory, err = Expand(c.System.LogDirectory)
	if err != nil {
		return err
	}
	if c.System.LogDirectory == "" {
		c.System.LogDirectory = GetDefaultLogDirectory()
	}

	// Store this configuration in the global state.
	Set(c)
	return nil
}

// Expand expands an input string by calling [os.ExpandEnv] to expand all
// environment variables, then checks if the value is prefixed with `file://`
// to support reading the value from a file. A leading "~/" is replaced with
// the home directory of the current user.
func Expand(v string) (string, error) {
	v = os.ExpandEnv(v)

	// Handle files.
	const filePrefix = "file://"
	if strings.HasPrefix(v, filePrefix) {
		p := v[len(filePrefix):]

		b, err := os.ReadFile(p)
		if err != nil {
			return "", errors.WrapIf(err, "config: failed to read value from file")
		}
		v = string(bytes.TrimRight(bytes.TrimRight(b, "\r"), "\n"))
	}

	if strings.HasPrefix(v, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", errors.WrapIf(err, "config: failed to resolve home directory")
		}
		v = filepath.Join(home, v[2:])
	}

	return v, nil
}
