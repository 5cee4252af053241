package factory

// Server defines the web server's operations
type Server interface {
	Start()
	Address() string
	Close() error
}
