package dstore

import (
	"context"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/ValentinKolb/kvbench/lib/store"
	"github.com/lni/dragonboat/v4"
	"github.com/lni/dragonboat/v4/config"
)

const (
	Name = "Raft"

	replicaID = 1
	shardID   = 1
)

// Dragonboat uses RTT (Round Trip Time) to determine the timing of elections and heartbeats.
// These default values are selected according to the RAFT Paper
const (
	electionRTTFactor  = 10
	heartbeatRTTFactor = 1
)

// Options configures the single node raft backend
type Options struct {
	BaseDir            string        // Directory in which the per-store node host directories are created ("" = os.TempDir())
	RTTMillisecond     uint64        // Round trip time between raft nodes
	Timeout            time.Duration // Timeout of single proposals / reads and of the leader election
	SnapshotEntries    uint64        // Take a snapshot every n applied entries (0 = disabled)
	CompactionOverhead uint64        // Entries kept in the log after a snapshot
}

// DefaultOptions returns the default raft options
func DefaultOptions() *Options {
	return &Options{
		RTTMillisecond:     10,
		Timeout:            5 * time.Second,
		SnapshotEntries:    10_000,
		CompactionOverhead: 5_000,
	}
}

// localNode is a single replica shard with its own node host and data directory
type localNode struct {
	nh  *dragonboat.NodeHost
	dir string
}

// NewDatabase returns a store.TestDatabase that starts a new single replica
// raft shard for every test store
func NewDatabase(opts *Options) store.TestDatabase {
	if opts == nil {
		opts = DefaultOptions()
	}
	return store.NewTestDatabase(Name, func(ctx context.Context) (store.Store, error) {
		return NewTestStore(ctx, opts)
	})
}

// NewTestStore starts a node host on a free local port, starts a single replica shard
// and waits until the replica is leader. Closing the store stops the node host and
// removes its data directory.
func NewTestStore(ctx context.Context, opts *Options) (store.Store, error) {
	dir, err := os.MkdirTemp(opts.BaseDir, "kvbench-raft-*")
	if err != nil {
		return nil, store.WrapBackendError(err, "failed to create data directory")
	}

	addr, err := freeAddress()
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, store.WrapBackendError(err, "failed to find a free port")
	}

	nh, err := dragonboat.NewNodeHost(config.NodeHostConfig{
		WALDir:         dir,
		NodeHostDir:    dir,
		RTTMillisecond: opts.RTTMillisecond,
		RaftAddress:    addr,
	})
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, store.WrapBackendError(err, "failed to create node host")
	}
	node := &localNode{nh: nh, dir: dir}

	members := map[uint64]string{replicaID: addr}
	err = nh.StartConcurrentReplica(members, false, CreateStateMachineFactory(nil), config.Config{
		ReplicaID:          replicaID,
		ShardID:            shardID,
		ElectionRTT:        electionRTTFactor,
		HeartbeatRTT:       heartbeatRTTFactor,
		CheckQuorum:        true,
		SnapshotEntries:    opts.SnapshotEntries,
		CompactionOverhead: opts.CompactionOverhead,
	})
	if err != nil {
		_ = node.close()
		return nil, store.WrapBackendError(err, "failed to start shard")
	}

	if err := node.waitForLeader(ctx, opts.Timeout, time.Duration(opts.RTTMillisecond)*time.Millisecond); err != nil {
		_ = node.close()
		return nil, err
	}
	log.Debugf("started raft node on %s in %s", addr, dir)

	s := NewDistributedStore(nh, shardID, opts.Timeout).(*storeImpl)
	s.node = node
	return s, nil
}

// waitForLeader polls the node host until the shard has a leader
func (n *localNode) waitForLeader(ctx context.Context, timeout, interval time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(max(interval, time.Millisecond))
	defer ticker.Stop()

	for {
		if _, _, valid, err := n.nh.GetLeaderID(shardID); err == nil && valid {
			return nil
		}
		select {
		case <-ctx.Done():
			return store.NewError(store.RetCInternalError, fmt.Sprintf("no leader elected within %s", timeout))
		case <-ticker.C:
		}
	}
}

func (n *localNode) close() error {
	n.nh.Close()
	return store.WrapBackendError(os.RemoveAll(n.dir), "failed to remove data directory")
}

// freeAddress returns a local address with a port that was free when it was checked
func freeAddress() (string, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", err
	}
	defer l.Close()
	return l.Addr().String(), nil
}
