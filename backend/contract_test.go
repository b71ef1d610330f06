package backend_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jonwraymond/toolquery/backend"
	"github.com/jonwraymond/toolquery/backend/local"
	"github.com/jonwraymond/toolquery/backend/stdio"
)

var (
	_ backend.Session = (*local.Backend)(nil)
	_ backend.Session = (*stdio.Session)(nil)
)

// TestSessionContracts checks the documented Session contract on sessions
// that are not connected.
func TestSessionContracts(t *testing.T) {
	d := backend.Descriptor{Name: "search", Command: "search-server"}

	disconnected := local.New("search")
	disconnected.RegisterHandler("web_search", local.ToolDef{
		Handler: func(context.Context, map[string]any) (any, error) { return "ok", nil },
	})

	tests := []struct {
		name    string
		session backend.Session
		state   backend.State
		reason  backend.Reason
	}{
		{"local disconnected", disconnected, backend.StateDisconnected, backend.ReasonNotConnected},
		{"failed placeholder", backend.Failed(d, errors.New("spawn failed")), backend.StateFailed, backend.ReasonNotConnected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.session
			if s.Name() != "search" {
				t.Errorf("Name() = %q, want search", s.Name())
			}
			if s.State() != tt.state {
				t.Errorf("State() = %v, want %v", s.State(), tt.state)
			}
			if len(s.Tools()) != 0 || len(s.ToolNames()) != 0 {
				t.Errorf("tools advertised outside StateConnected: %v", s.ToolNames())
			}

			_, err := s.InvokeTool(context.Background(), "web_search", nil)
			var ie *backend.InvocationError
			if !errors.As(err, &ie) {
				t.Fatalf("InvokeTool() error = %T %v, want *InvocationError", err, err)
			}
			if ie.Reason != tt.reason || ie.Backend != "search" || ie.Tool != "web_search" {
				t.Errorf("InvocationError = %+v", ie)
			}

			for i := 0; i < 2; i++ {
				if err := s.Disconnect(); err != nil {
					t.Errorf("Disconnect() #%d error = %v", i+1, err)
				}
			}
		})
	}
}
