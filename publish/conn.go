package publish

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/jlaffaye/ftp"
)

// ErrNoHost is returned by Connect without a host.
var ErrNoHost = errors.New("no FTP host given")

// Server describes how to reach the FTP server.
type Server struct {
	Host     string // host or host:port, port 21 by default
	User     string
	Password string
	Timeout  time.Duration
}

// Addr returns the host with a port.
func (s Server) Addr() string {
	if _, _, err := net.SplitHostPort(s.Host); err == nil {
		return s.Host
	}
	return net.JoinHostPort(s.Host, "21")
}

// Connect dials and logs in. Transfers use binary mode in passive mode.
func Connect(ctx context.Context, s Server) (*ftp.ServerConn, error) {
	if s.Host == "" {
		return nil, ErrNoHost
	}
	opts := []ftp.DialOption{ftp.DialWithContext(ctx)}
	if s.Timeout > 0 {
		opts = append(opts, ftp.DialWithTimeout(s.Timeout))
	}
	c, err := ftp.Dial(s.Addr(), opts...)
	if err != nil {
		return nil, fmt.Errorf("Connect: %w", err)
	}
	if err = c.Login(s.User, s.Password); err != nil {
		c.Quit()
		return nil, fmt.Errorf("Connect: login as %q: %w", s.User, err)
	}
	return c, nil
}
