// Package provision talks to the just-in-time provisioning agent.
//
// When an artifact cannot be resolved from local metadata, the resolver can
// ask an external agent (typically running in the build root's parent
// environment) to install the package that provides it. The protocol is a
// single exchange over a Unix domain socket:
//
//	-> install mvn(org.example:lib:1.0)\n
//	<- ok\n
//
// Any reply other than exactly "ok\n" is a failure. Failures are never fatal
// to the caller; the artifact is simply treated as not found.
package provision

import (
	"bytes"
	"context"
	"io"
	"net"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mvnpack/pkg/artifact"
	"github.com/matzehuels/mvnpack/pkg/observability"
)

// DefaultTimeout bounds one provisioning exchange. Installing a package can
// take a while, so the default is generous.
const DefaultTimeout = 10 * time.Minute

var okReply = []byte("ok\n")

// Agent is a client for the provisioning socket. A zero Socket disables it.
type Agent struct {
	Socket  string
	Timeout time.Duration
	Logger  *log.Logger
}

// New returns an agent for socket. An empty socket yields a disabled agent.
func New(socket string, logger *log.Logger) *Agent {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Agent{Socket: socket, Timeout: DefaultTimeout, Logger: logger}
}

// Enabled reports whether a socket is configured.
func (a *Agent) Enabled() bool {
	return a != nil && a.Socket != ""
}

// TryInstall asks the agent to install the package providing c. It reports
// whether the agent acknowledged the request.
func (a *Agent) TryInstall(ctx context.Context, c artifact.Coordinate) bool {
	if !a.Enabled() {
		return false
	}

	descriptor := c.Descriptor()
	ok, err := a.request(ctx, "install "+descriptor+"\n")
	if err != nil {
		a.logger().Error("provisioning request failed", "artifact", descriptor, "err", err)
	} else if !ok {
		a.logger().Warn("provisioning agent refused request", "artifact", descriptor)
	} else {
		a.logger().Info("provisioned artifact", "artifact", descriptor)
	}
	observability.Resolver().OnProvision(ctx, descriptor, ok)
	return ok
}

func (a *Agent) request(ctx context.Context, line string) (bool, error) {
	timeout := a.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", a.Socket)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	if _, err := io.WriteString(conn, line); err != nil {
		return false, err
	}

	reply := make([]byte, len(okReply))
	if _, err := io.ReadFull(conn, reply); err != nil {
		return false, err
	}
	return bytes.Equal(reply, okReply), nil
}

func (a *Agent) logger() *log.Logger {
	if a.Logger == nil {
		a.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return a.Logger
}
