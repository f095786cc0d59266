// Command melbank builds the mel filter bank described by a config file and
// logs its shape along with each band's peak bin and area.
//
// Usage:
//
//	melbank [config.json]
package main
