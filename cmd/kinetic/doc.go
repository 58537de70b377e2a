// Command kinetic renders and serves the demo application.
//
//	kinetic render [--action name]... [--elapsed d] [--body] [-o file]
//	kinetic serve [--host h] [--port p] [--tick d]
//	kinetic version [--short]
//
// Both commands read kinetic.{toml,yaml,yml,json} from the working directory
// or a parent, or the file named by --config.
package main
