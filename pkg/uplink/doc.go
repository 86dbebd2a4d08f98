// Package uplink connects a sink to the outside world.
//
// Everything a sink forwards goes through a Mux, which decodes DATA
// payloads by channel and fans them out to the configured Sinks (MQTT,
// InfluxDB). Commands arriving from the cloud wait in a CommandQueue until
// the scheduler floods them into the mesh, one per second.
package uplink
