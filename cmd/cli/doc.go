// Package cli assembles the unshipped command-line application: the scan
// command mounted as the cobra root, persistent configuration and logging
// flags, and the viper-backed configuration loader feeding both.
package cli
