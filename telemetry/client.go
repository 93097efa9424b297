// Package telemetry pushes Fab introspection snapshots to websocket clients
// and exposes the same data over a plain JSON GET.
package telemetry

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	channerics "github.com/niceyeti/channerics/channels"
	"golang.org/x/sync/errgroup"
)

const (
	// writeWait bounds every write on the socket, pings included.
	writeWait = time.Second

	// pingInterval / pongWait drive peer liveness: a pong resets the read
	// deadline, so a peer that stops answering is torn down within pongWait.
	pingInterval = 2 * time.Second
	pongWait     = 5 * time.Second

	// minPublishGap throttles the snapshot stream per client. Snapshots are
	// full idempotent states, so anything skipped is superseded by the next
	// one published.
	minPublishGap = 100 * time.Millisecond

	// inboundReadLimit is tiny: clients have nothing to say, the read side
	// exists only to surface pongs and disconnects.
	inboundReadLimit = 512

	closeGracePeriod = 10 * time.Second
)

var upgrader = websocket.Upgrader{}

// snapshotClient publishes Snapshots received on updates to one websocket
// peer. The write loop is the connection's only writer, so no locking
// guards the conn; the read loop only ever reads.
type snapshotClient struct {
	updates <-chan Snapshot
	conn    *websocket.Conn
}

// newSnapshotClient upgrades the HTTP request to a websocket and returns a
// publisher fed by updates.
func newSnapshotClient(updates <-chan Snapshot, w http.ResponseWriter, r *http.Request) (*snapshotClient, error) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}
	return &snapshotClient{updates: updates, conn: conn}, nil
}

// serve runs the read and write sides until the peer disconnects or ctx
// ends, returning the first side's error.
func (c *snapshotClient) serve(ctx context.Context) error {
	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error { return c.readLoop(ctx) })
	group.Go(func() error { return c.writeLoop(ctx) })
	return group.Wait()
}

// readLoop discards inbound frames; its real job is liveness. Each pong
// pushes the read deadline forward, so a peer that stops answering the
// write loop's pings fails the next read and tears the client down.
func (c *snapshotClient) readLoop(ctx context.Context) error {
	c.conn.SetReadLimit(inboundReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}

// writeLoop interleaves snapshot publishes with pings on one goroutine.
// Snapshots arriving faster than minPublishGap are dropped.
func (c *snapshotClient) writeLoop(ctx context.Context) error {
	pinger := channerics.NewTicker(ctx.Done(), pingInterval)
	var lastPublish time.Time

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-pinger:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return fmt.Errorf("telemetry: ping: %w", err)
			}
		case snap, ok := <-c.updates:
			if !ok {
				return nil
			}
			if time.Since(lastPublish) < minPublishGap {
				continue
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(snap); err != nil {
				return fmt.Errorf("telemetry: publish snapshot: %w", err)
			}
			lastPublish = time.Now()
		}
	}
}

// close sends a best-effort close frame and releases the connection.
func (c *snapshotClient) close() {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	_ = c.conn.Close()
}

// isClosure reports whether err is the peer closing the socket normally, as
// opposed to a real transport failure worth logging.
func isClosure(err error) bool {
	return err != nil && websocket.IsCloseError(
		err, websocket.CloseNormalClosure, websocket.CloseGoingAway)
}
