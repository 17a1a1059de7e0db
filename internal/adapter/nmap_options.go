package adapter

// NmapOption is a functional option for configuring NmapScanner
type NmapOption func(*NmapScanner)

// WithBinaryPath sets the nmap executable; empty means look it up in PATH
func WithBinaryPath(path string) NmapOption {
	return func(n *NmapScanner) {
		n.binaryPath = path
	}
}

// WithMaxParallelism sets --max-parallelism; values <= 0 leave nmap's default
func WithMaxParallelism(p int) NmapOption {
	return func(n *NmapScanner) {
		n.maxParallelism = p
	}
}
