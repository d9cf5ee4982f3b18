package client

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"net"
	"net/http"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Client talks to the batmon daemon over its unix socket.
type Client struct {
	socketPath string
	httpClient *http.Client
}

// NewClient returns a Client for the daemon listening on socketPath. No
// connection is made until the first request.
func NewClient(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		httpClient: &http.Client{
			Transport: &http.Transport{
				DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
					return dialUnix(ctx, socketPath)
				},
			},
		},
	}
}

func dialUnix(ctx context.Context, socketPath string) (net.Conn, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", socketPath)
	switch {
	case err == nil:
		return conn, nil
	case errors.Is(err, fs.ErrNotExist):
		return nil, ErrDaemonNotRunning
	case errors.Is(err, fs.ErrPermission):
		return nil, ErrPermissionDenied
	default:
		logrus.WithField("unix", socketPath).Errorf("failed to connect to unix socket: %v", err)
		return nil, err
	}
}

// Send sends a request to the daemon and returns the response body.
func (c *Client) Send(method string, path string, data string) (string, error) {
	return c.SendContext(context.Background(), method, path, data)
}

// SendContext is like Send with a context.
func (c *Client) SendContext(ctx context.Context, method string, path string, data string) (string, error) {
	log := logrus.WithFields(logrus.Fields{
		"method": method,
		"path":   path,
		"unix":   c.socketPath,
	})
	log.WithField("data", data).Debug("sending request")

	var body io.Reader
	if data != "" {
		body = strings.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, "http://unix"+path, body)
	if err != nil {
		return "", pkgerrors.Wrapf(err, "failed to create request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", pkgerrors.Wrapf(err, "failed to send request")
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Errorf("failed to close response body: %v", err)
		}
	}()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", pkgerrors.Wrapf(err, "failed to read response body")
	}
	ret := string(b)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{StatusCode: resp.StatusCode, Message: unquote(ret)}
	}

	return ret, nil
}

// Get sends a GET request to the daemon.
func (c *Client) Get(path string) (string, error) {
	return c.Send(http.MethodGet, path, "")
}

// Put sends a PUT request to the daemon.
func (c *Client) Put(path string, data string) (string, error) {
	return c.Send(http.MethodPut, path, data)
}
