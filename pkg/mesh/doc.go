// Package mesh implements tree routing over the radio link.
//
// Every node keeps one parent, the neighbor it forwards data to on the way
// to the sink. Parents are learned from periodic route advertisements,
// which are broadcast on the route channel and carry the advertiser's
// address and hop count to the sink. A node adopts the neighbor offering
// the fewest hops and forgets a parent that stays silent for too many
// maintenance cycles.
//
// Data travels up the tree only. The sink hands everything it receives to
// its uplink. Commands from the uplink travel down by flooding: each node
// rebroadcasts a command once, and the addressed node answers with an ack
// that travels up like data.
//
// All sends are fire-and-forget. Nothing is acknowledged at the link
// level and nothing is retried; periodic traffic replaces what is lost.
package mesh
