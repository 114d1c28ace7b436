package realip

const (
	securityEventUntrustedProxy    = "untrusted_proxy"
	securityEventInvalidRemoteAddr = "invalid_remote_addr"
	securityEventInvalidProxySpec  = "invalid_proxy_spec"

	securityEventInvalidHeaderValue = "invalid_header_value"
)
