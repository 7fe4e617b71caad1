package enip

// KeepAlivePattern is the fixed UDP byte pattern this runtime recognizes and
// publishes for orchestrator diagnostics. No UDP traffic is sent by this
// runtime; the pattern exists purely to let a caller identify a keep-alive
// datagram originating from elsewhere on the network, per spec §6.
var KeepAlivePattern = []byte{0x45, 0x49, 0x50, 0x4B, 0x41, 0x01, 0x00, 0x00}
