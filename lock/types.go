// Package lock provides mutual exclusion over merge nodes: a per-node
// holder plus FIFO wait queue, driven entirely by UpdateAll once per tick.
// The core runs single-threaded and cooperatively, so nodeState needs no
// internal synchronization of its own.
package lock

import "railsim/graph"

// NoHolder marks a node with an empty queue.
const NoHolder = -1

// pendingRelease is one outstanding auto-release entry: vehicleID will be
// released from node once its current edge reaches triggerEdge.
type pendingRelease struct {
	vehicleID   int
	node        string
	triggerEdge graph.EdgeID
}

// nodeState is one merge node's FIFO wait queue. The holder is always
// queue[0] — "promote the new head" falls out of popping the front rather
// than needing a separately tracked holder field.
type nodeState struct {
	queue []int
}

func (n *nodeState) holder() int {
	if len(n.queue) == 0 {
		return NoHolder
	}
	return n.queue[0]
}

// enqueue appends vehicleID if not already present, reporting whether the
// queue was empty beforehand (in which case the caller becomes holder
// immediately).
func (n *nodeState) enqueue(vehicleID int) (wasEmpty bool) {
	for _, v := range n.queue {
		if v == vehicleID {
			return false
		}
	}
	wasEmpty = len(n.queue) == 0
	n.queue = append(n.queue, vehicleID)
	return wasEmpty
}

// removeHead pops vehicleID from the front of the queue iff it is the
// current holder, promoting the new head.
func (n *nodeState) removeHead(vehicleID int) {
	if len(n.queue) > 0 && n.queue[0] == vehicleID {
		n.queue = n.queue[1:]
	}
}

// remove drops vehicleID from anywhere in the queue (it gave up waiting).
func (n *nodeState) remove(vehicleID int) {
	for i, v := range n.queue {
		if v == vehicleID {
			n.queue = append(n.queue[:i], n.queue[i+1:]...)
			return
		}
	}
}

// preempt moves vehicleID to the front of the queue, displacing the
// current holder without removing it from the queue.
func (n *nodeState) preempt(vehicleID int) {
	n.remove(vehicleID)
	n.queue = append([]int{vehicleID}, n.queue...)
}
