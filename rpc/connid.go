// File: rpc/connid.go
// Author: momentics <momentics@gmail.com>
//
// ConnectionId identifies one outbound (CLIENT) connection slot: the same
// remote and credentials may have up to num_connections_to_server distinct
// indices open in parallel. Whatever builds a call picks its index; the
// reactor keys client_conns_ by the exact id it is handed and never picks
// an index itself.

package rpc

import "fmt"

// UserCredentials carries whatever identity a connection negotiates under.
// The reactor treats it as an opaque comparable value; equality drives
// ConnectionId matching, nothing more.
type UserCredentials struct {
	Principal string
}

func (c UserCredentials) String() string {
	if c.Principal == "" {
		return "<anonymous>"
	}
	return c.Principal
}

// ConnectionId is the (remote, credentials, index) tuple keying client_conns_.
type ConnectionId struct {
	Remote      string
	Credentials UserCredentials
	Index       int
}

func (id ConnectionId) String() string {
	return fmt.Sprintf("%s@%s#%d", id.Credentials, id.Remote, id.Index)
}
