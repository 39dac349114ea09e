// Package cli builds the worldly command tree and turns flags, WORLDLY_
// environment variables, .env files and the .worldly config file into the
// Settings of a run. It also hosts the cache inspection subcommand.
package cli
