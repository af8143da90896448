// Package devserver implements the Dev-Server Registry (C5): named
// per-bead side-processes, each its own multiplexer session, with
// advisory port allocation.
package devserver

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"

	"github.com/azedarach/azedarach/internal/beadmodel"
	"github.com/azedarach/azedarach/internal/errs"
	"github.com/azedarach/azedarach/internal/multiplexer"
)

// Def is a dev-server definition: a name, a command, optional environment.
type Def struct {
	Name        string
	Command     string
	Environment map[string]string
}

// Registry tracks dev-server state per (bead, server) pair.
type Registry struct {
	mu      sync.Mutex
	servers map[string]*beadmodel.DevServer // key: beadID+"/"+name

	mux      *multiplexer.Tmux
	basePort int
	maxPort  int
}

func New(mux *multiplexer.Tmux, basePort, maxPort int) *Registry {
	if maxPort <= basePort {
		maxPort = basePort + 1000
	}
	return &Registry{
		servers:  make(map[string]*beadmodel.DevServer),
		mux:      mux,
		basePort: basePort,
		maxPort:  maxPort,
	}
}

func key(beadID, name string) string { return beadID + "/" + name }

func sessionName(beadID, name string) string { return "dev-" + beadID + "-" + name }

// AllocatePort is a pure function of (basePort, hash(beadID)) mod
// (maxPort-basePort), with linear probing for availability. The result
// is advisory only: the server binds whichever port it actually selects.
func (r *Registry) AllocatePort(beadID string, inUse map[int]bool) int {
	span := r.maxPort - r.basePort
	if span <= 0 {
		return r.basePort
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(beadID))
	start := int(h.Sum32()) % span
	if start < 0 {
		start += span
	}
	for i := 0; i < span; i++ {
		candidate := r.basePort + (start+i)%span
		if !inUse[candidate] {
			return candidate
		}
	}
	return r.basePort + start
}

// Status returns the current status of a (bead, server) pair.
func (r *Registry) Status(beadID, name string) beadmodel.DevServer {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.servers[key(beadID, name)]; ok {
		return *s
	}
	return beadmodel.DevServer{BeadID: beadID, Name: name, Status: beadmodel.DevServerStopped}
}

// ServersFor lists every known dev-server state for a bead.
func (r *Registry) ServersFor(beadID string) []beadmodel.DevServer {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []beadmodel.DevServer
	prefix := beadID + "/"
	for k, s := range r.servers {
		if len(k) > len(prefix) && k[:len(prefix)] == prefix {
			out = append(out, *s)
		}
	}
	return out
}

// Toggle starts the server if stopped, stops it otherwise.
func (r *Registry) Toggle(ctx context.Context, beadID string, def Def, worktreePath string, inUse map[int]bool) error {
	status := r.Status(beadID, def.Name)
	if status.Status == beadmodel.DevServerRunning || status.Status == beadmodel.DevServerStarting {
		return r.stop(ctx, beadID, def.Name)
	}
	return r.start(ctx, beadID, def, worktreePath, inUse)
}

func (r *Registry) start(ctx context.Context, beadID string, def Def, worktreePath string, inUse map[int]bool) error {
	name := sessionName(beadID, def.Name)
	port := r.AllocatePort(beadID+"/"+def.Name, inUse)

	r.setStatus(beadID, def.Name, beadmodel.DevServer{
		BeadID: beadID, Name: def.Name, Status: beadmodel.DevServerStarting, Port: port,
	})

	if err := r.mux.NewSession(ctx, name, multiplexer.SessionOptions{Cwd: worktreePath, Command: def.Command}); err != nil {
		r.setStatus(beadID, def.Name, beadmodel.DevServer{BeadID: beadID, Name: def.Name, Status: beadmodel.DevServerError})
		return err
	}

	r.setStatus(beadID, def.Name, beadmodel.DevServer{
		BeadID: beadID, Name: def.Name, Status: beadmodel.DevServerRunning, Port: port, MultiplexerSession: name,
	})
	return nil
}

func (r *Registry) stop(ctx context.Context, beadID, name string) error {
	status := r.Status(beadID, name)
	if status.MultiplexerSession != "" {
		if err := r.mux.KillSessionWithProcesses(ctx, status.MultiplexerSession); err != nil {
			return err
		}
	}
	r.setStatus(beadID, name, beadmodel.DevServer{BeadID: beadID, Name: name, Status: beadmodel.DevServerStopped})
	return nil
}

// Restart stops then starts the server.
func (r *Registry) Restart(ctx context.Context, beadID string, def Def, worktreePath string, inUse map[int]bool) error {
	status := r.Status(beadID, def.Name)
	if status.Status == beadmodel.DevServerRunning {
		if err := r.stop(ctx, beadID, def.Name); err != nil {
			return err
		}
	}
	return r.start(ctx, beadID, def, worktreePath, inUse)
}

// View switches the user's terminal onto the server's session.
func (r *Registry) View(ctx context.Context, beadID, name string) error {
	status := r.Status(beadID, name)
	if status.MultiplexerSession == "" {
		return errs.Validation("devserver.view", fmt.Errorf("%s/%s is not running", beadID, name))
	}
	return r.mux.SwitchClient(ctx, status.MultiplexerSession)
}

func (r *Registry) setStatus(beadID, name string, s beadmodel.DevServer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.servers[key(beadID, name)] = &s
}
