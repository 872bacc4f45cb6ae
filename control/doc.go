// Package control
// Author: momentics <momentics@gmail.com>
//
// Configuration, logging and hot-reload layer for the pingpong server.
//
// Provides:
//   - Config loading from flags, PINGPONG_* environment variables and an
//     optional YAML file
//   - Logger construction from the loaded config
//   - Reload hooks fired when the config file changes on disk
package control
