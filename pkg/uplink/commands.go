package uplink

import (
	"errors"
	"sync/atomic"

	"github.com/golang/glog"

	"github.com/robotalks/meshnode/pkg/mesh"
)

// DefaultQueueSize is the default capacity of a CommandQueue.
const DefaultQueueSize = 16

// ErrQueueFull indicates a cloud command was dropped.
var ErrQueueFull = errors.New("command queue full")

// CommandSender floods a command into the mesh. mesh.Router satisfies it.
type CommandSender interface {
	SendAck(destHigh, destLow, channel byte, msg []byte) (int, error)
}

// CommandQueue buffers cloud commands until the scheduler sends them.
type CommandQueue struct {
	Sender CommandSender

	ch  chan mesh.Command
	seq atomic.Uint32
}

// NewCommandQueue creates a queue holding up to size commands.
func NewCommandQueue(sender CommandSender, size int) *CommandQueue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &CommandQueue{Sender: sender, ch: make(chan mesh.Command, size)}
}

// Push queues a command and assigns its sequence number. It never blocks.
func (q *CommandQueue) Push(cmd mesh.Command) (mesh.Command, error) {
	cmd.Seq = byte(q.seq.Add(1))
	select {
	case q.ch <- cmd:
		return cmd, nil
	default:
		glog.Warningf("cloud command to %s dropped: %v", cmd.Target, ErrQueueFull)
		return cmd, ErrQueueFull
	}
}

// Len returns the number of queued commands.
func (q *CommandQueue) Len() int {
	return len(q.ch)
}

// ProcessCloudCommand sends at most one queued command.
func (q *CommandQueue) ProcessCloudCommand() {
	select {
	case cmd := <-q.ch:
		glog.Infof("flood command op %d arg %d to %s, seq %d", cmd.Op, cmd.Arg, cmd.Target, cmd.Seq)
		q.Sender.SendAck(mesh.Broadcast.High(), mesh.Broadcast.Low(), mesh.CommandChannel, cmd.Bytes())
	default:
	}
}
