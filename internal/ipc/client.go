package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func (c *Client) call(method string, req, resp any) error {
	return c.client.Call(ServiceName+"."+method, req, resp)
}

// Status retrieves the daemon status. It runs a health check against
// LiveSplit on the daemon side.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.call("Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Send dispatches a logical command by name.
func (c *Client) Send(command string) (*SendResponse, error) {
	var resp SendResponse
	if err := c.call("Send", SendRequest{Command: command}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SplitIndex queries the current split index.
func (c *Client) SplitIndex() (*SplitIndexResponse, error) {
	var resp SplitIndexResponse
	if err := c.call("SplitIndex", SplitIndexRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Connect asks the daemon to reconnect to LiveSplit.
func (c *Client) Connect() (*ConnectResponse, error) {
	var resp ConnectResponse
	if err := c.call("Connect", ConnectRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Disconnect asks the daemon to close its LiveSplit handle.
func (c *Client) Disconnect() (*DisconnectResponse, error) {
	var resp DisconnectResponse
	if err := c.call("Disconnect", DisconnectRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// History returns up to limit journal entries, newest first.
func (c *Client) History(limit int) (*HistoryResponse, error) {
	var resp HistoryResponse
	if err := c.call("History", HistoryRequest{Limit: limit}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
