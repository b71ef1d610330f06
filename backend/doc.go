// Package backend provides the backend registry and session contracts for
// multi-backend tool orchestration.
//
// This package defines how tool-providing backends are described, opened,
// and tracked:
//
//   - Descriptor: immutable launch parameters for one backend
//   - Registry: descriptors in registration order plus per-kind connectors
//   - Session: the runtime connection to one backend
//   - Pool: the sessions owned by one orchestrator, indexed by name
//
// # Backend Kinds
//
// Backends can be:
//
//   - stdio: MCP servers launched as subprocesses (see backend/mcp)
//   - local: in-process handlers registered directly (see backend/local)
//
// # Registry
//
// The Registry rejects duplicate names, which is the only unrecoverable
// misconfiguration:
//
//	reg := backend.NewRegistry()
//	reg.RegisterConnector(backend.KindStdio, mcpsession.Connector(mcpsession.Options{}))
//	_ = reg.Register(backend.Descriptor{Name: "search", Command: "search-server"})
//
// Registries can also be loaded from YAML:
//
//	backends:
//	  - name: search
//	    command: search-server
//	    timeout: 30s
//
// # Sessions
//
// Connecting never fails the caller hard: Registry.Connect returns either a
// Session or a *ConnectionError, and callers record failures with Failed so
// the pool still reflects every configured backend:
//
//	s, err := reg.Connect(ctx, d)
//	if err != nil {
//	    s = backend.Failed(d, err)
//	}
//	pool.Put(s)
package backend
