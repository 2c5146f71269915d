// Package infra contains technical adapters such as the MQTT gateway
// bridge, the zerolog logger and the metrics exporters. These packages
// depend only on the ports defined under core.
package infra
