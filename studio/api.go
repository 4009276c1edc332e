package studio

import (
	"context"
	"net"
)

type Api interface {
	Serve(l net.Listener) error
	Shutdown(ctx context.Context) error
}
