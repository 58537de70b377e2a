// Package config loads kinetic configuration.
//
// Configuration lives in kinetic.toml, kinetic.yaml (or .yml), or
// kinetic.json. Find walks up from a directory to the first one present;
// Load decodes it by extension on top of Default, so every key is optional.
//
// # Configuration File Structure
//
//	[runtime]
//	frame_interval = "16ms"
//	preserve_attrs = ["data-preserve", "data-portal"]
//	max_frames_per_drain = 1000
//
//	[log]
//	level = "debug"
//	format = "json"
//
//	[metrics]
//	enabled = true
//	namespace = "kinetic"
//
//	[dev]
//	host = "localhost"
//	port = 7070
//
// The YAML and JSON forms use camelCase keys (frameInterval, preserveAttrs,
// maxFramesPerDrain).
//
// # Usage
//
//	cfg, err := config.Discover(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	logger := cfg.Logger()
//	l := loop.New(cfg.LoopOptions(logger)...)
package config
