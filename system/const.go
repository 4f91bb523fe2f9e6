package system

// Version is the current version of burrow. It is overwritten at build time
// through -ldflags.
var Version = "develop"
