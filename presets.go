package realip

// PresetDirectConnection configures resolution for direct client-to-app
// traffic: forwarding headers are ignored.
func PresetDirectConnection() Option {
	return NoProxies()
}

// PresetLoopbackReverseProxy configures resolution for apps behind a reverse
// proxy on the same host (for example NGINX on localhost).
//
// It trusts loopback peers and keeps the default header priority list.
func PresetLoopbackReverseProxy() Option {
	return ProxyIPs(loopbackProxySpecs...)
}

// PresetVMReverseProxy configures resolution for apps behind a reverse proxy
// in a typical VM or private-network setup.
//
// It trusts loopback and private-network peers.
func PresetVMReverseProxy() Option {
	specs := make([]string, 0, len(loopbackProxySpecs)+len(privateProxySpecs))
	specs = append(specs, loopbackProxySpecs...)
	specs = append(specs, privateProxySpecs...)

	return ProxyIPs(specs...)
}

// PresetCloudflare configures resolution for apps fronted by Cloudflare.
//
// proxyIPs lists the edge ranges to trust (Cloudflare publishes them at
// https://www.cloudflare.com/ips/). CF-Connecting-IP is preferred, with
// X-Forwarded-For as the fallback header.
func PresetCloudflare(proxyIPs ...string) Option {
	return func(c *config) error {
		return applyOptions(c,
			ProxyIPs(proxyIPs...),
			HeaderKeys(headerCFConnectingIP, headerXForwardedFor),
		)
	}
}
