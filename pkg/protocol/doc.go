// Package protocol provides the radio link packet format.
package protocol

// Every radio transmission is a fixed-size envelope:
//
//	[destHigh][destLow][channel][type][payload, 61 bytes][checksum]
//
// The payload is zero padded. The checksum is the 8-bit additive sum of
// the type byte and the payload, so padding never changes it and the same
// value protects the compact frame form [type][payload][checksum].
//
// There is no acknowledgment and no retransmission. A frame failing the
// checksum is dropped; periodic traffic (telemetry epochs, route
// advertisements) replaces whatever was lost.
//
// Which bytes of the envelope reach the radio is selected by Layout. The
// deployed firmware hands the radio the envelope starting one byte in,
// so destHigh is never transmitted; LayoutLegacy keeps that behavior and
// LayoutFull sends the whole envelope.
