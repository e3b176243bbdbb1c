// Package cli implements the layerweave command-line interface.
//
// # Commands
//
//   - tree: build spanning trees over one layer of a graph document
//   - bundle: run force-directed edge bundling and write the bundled paths
//   - export: draw the graph as DOT, SVG, PNG or PDF
//   - serve: expose tree and bundle over HTTP with Prometheus metrics
//   - config: print the effective configuration
//   - cache: clear or locate the result cache
//
// Settings come from $XDG_CONFIG_HOME/layerweave/config.toml; flags the
// user sets explicitly override the file.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. The logger
// travels through context.Context.
package cli
