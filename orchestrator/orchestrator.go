package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/toolquery/backend"
	"github.com/jonwraymond/toolquery/catalog"
	"github.com/jonwraymond/toolquery/dispatch"
	"github.com/jonwraymond/toolquery/history"
	"github.com/jonwraymond/toolquery/llm"
	"github.com/jonwraymond/toolquery/observability"
)

// Orchestrator owns the backend sessions of one client and drives the
// two-phase query protocol over them.
//
// Queries are serialized: concurrent ProcessQuery calls queue on an
// internal mutex, so a session never sees two callers at once.
type Orchestrator struct {
	opts Options
	log  zerolog.Logger
	pool *backend.Pool

	// mu serializes lifecycle transitions and queries.
	mu sync.Mutex

	// runMu guards the cancel func of the query in flight. Once closing is
	// set no new query starts.
	runMu   sync.Mutex
	cancel  context.CancelFunc
	closing bool

	stateMu sync.RWMutex
	state   State
}

// New creates an Orchestrator in StateIdle.
func New(opts Options) (*Orchestrator, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	opts.applyDefaults()

	return &Orchestrator{
		opts:  opts,
		log:   *opts.Logger,
		pool:  backend.NewPool(),
		state: StateIdle,
	}, nil
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() State {
	o.stateMu.RLock()
	defer o.stateMu.RUnlock()
	return o.state
}

func (o *Orchestrator) setState(s State) {
	o.stateMu.Lock()
	prev := o.state
	o.state = s
	o.stateMu.Unlock()
	o.log.Debug().Stringer("from", prev).Stringer("state", s).Msg("state transition")
}

// History returns the conversation store.
func (o *Orchestrator) History() *history.Store {
	return o.opts.History
}

// Sessions describes every backend session in registration order, including
// failed ones.
func (o *Orchestrator) Sessions() []SessionInfo {
	sessions := o.pool.List()
	out := make([]SessionInfo, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, backend.Describe(s))
	}
	return out
}

// Catalog builds the catalog of the currently connected sessions.
func (o *Orchestrator) Catalog() *catalog.Catalog {
	return catalog.Build(o.pool.List(), o.opts.Table, catalog.WithLogger(o.log))
}

// ConnectAll connects every registered backend. Backends are independent: a
// failed connect is logged and recorded as a Failed session contributing no
// tools. It returns an error only when called outside StateIdle.
func (o *Orchestrator) ConnectAll(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if s := o.State(); s != StateIdle {
		return fmt.Errorf("%w: connect from %s", ErrInvalidState, s)
	}
	o.setState(StateConnectingBackends)

	descriptors := o.opts.Registry.All()
	sessions := make([]backend.Session, len(descriptors))

	if o.opts.ParallelConnect {
		var g errgroup.Group
		for i, d := range descriptors {
			g.Go(func() error {
				sessions[i] = o.connectOne(ctx, d)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i, d := range descriptors {
			sessions[i] = o.connectOne(ctx, d)
		}
	}

	connected := 0
	for _, s := range sessions {
		o.pool.Put(s)
		if s.State() == backend.StateConnected {
			connected++
		}
	}
	o.opts.Metrics.SetConnectedBackends(connected)

	ev := o.log.Info()
	if connected == 0 && len(descriptors) > 0 {
		ev = o.log.Warn()
	}
	ev.Int("connected", connected).Int("total", len(descriptors)).Msg("backends connected")

	o.setState(StateReady)
	return nil
}

func (o *Orchestrator) connectOne(ctx context.Context, d backend.Descriptor) backend.Session {
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = o.opts.Timeout
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	log := o.log.With().Str("backend", d.Name).Logger()
	log.Debug().Str("kind", d.EffectiveKind()).Msg("connecting")

	s, err := o.opts.Registry.Connect(cctx, d)
	if err != nil {
		log.Warn().Err(err).Msg("backend connect failed")
		return backend.Failed(d, err)
	}
	log.Info().Strs("tools", s.ToolNames()).Msg("backend connected")
	return s
}

// ProcessQuery answers one query with the two-phase protocol. It never
// panics and never returns an error: failures are reported in the result.
func (o *Orchestrator) ProcessQuery(ctx context.Context, query string) QueryResult {
	return o.process(ctx, "", query)
}

// ProcessSessionQuery is ProcessQuery within a conversation. The recent
// history is sent with the selection call, and the query and final answer
// are appended to the conversation on success.
func (o *Orchestrator) ProcessSessionQuery(ctx context.Context, sessionID, query string) QueryResult {
	return o.process(ctx, sessionID, query)
}

func (o *Orchestrator) process(ctx context.Context, sessionID, query string) (result QueryResult) {
	start := time.Now()
	result = QueryResult{
		Query:     query,
		SessionID: sessionID,
		QueryID:   observability.NewQueryID(),
		ToolsUsed: []string{},
	}
	log := observability.WithQueryID(o.log, result.QueryID)
	if sessionID != "" {
		log = log.With().Str("session_id", sessionID).Logger()
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if s := o.State(); s != StateReady {
		return failure(result, fmt.Errorf("%w: query in %s", ErrInvalidState, s))
	}
	ctx, done, ok := o.track(ctx)
	if !ok {
		return failure(result, fmt.Errorf("%w: query while disconnecting", ErrInvalidState))
	}
	defer done()
	o.setState(StateProcessingQuery)

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("query panicked")
			result = failure(result, fmt.Errorf("query panicked: %v", r))
		}
		o.setState(StateReady)
		result.Duration = time.Since(start)
		o.opts.Metrics.RecordQuery(result.Success, result.Duration)

		ev := log.Info()
		if !result.Success {
			ev = log.Warn().Str("error", result.Error)
		}
		ev.Strs("tools_used", result.ToolsUsed).Dur("duration", result.Duration).Msg("query finished")
	}()

	log.Info().Str("query", query).Msg("processing query")

	var past []llm.Message
	if sessionID != "" {
		msgs, err := o.opts.History.Messages(sessionID, o.opts.HistoryLimit)
		if err != nil {
			return failure(result, fmt.Errorf("conversation %s: %w", sessionID, err))
		}
		past = msgs
	}

	cat := o.Catalog()
	if cat.Len() == 0 {
		return failure(result, ErrNoToolsAvailable)
	}

	// Phase 1: selection.
	request, err := selectionRequest(query, cat)
	if err != nil {
		return failure(result, err)
	}
	messages := make([]llm.Message, 0, len(past)+2)
	messages = append(messages, llm.System(o.opts.Prompts.Selection))
	messages = append(messages, past...)
	messages = append(messages, llm.User(request))

	reply, err := o.complete(ctx, observability.PhaseSelection, messages, cat.Functions(), llm.ToolChoiceAuto)
	if err != nil {
		return failure(result, fmt.Errorf("tool selection: %w", err))
	}

	if len(reply.ToolCalls) == 0 {
		result.FinalAnswer = reply.Content
		if result.FinalAnswer == "" {
			result.FinalAnswer = o.opts.Prompts.NoAnswer
		}
		result.Success = true
		o.remember(log, sessionID, query, result.FinalAnswer)
		return result
	}

	outcomes := dispatch.DispatchAll(ctx, reply.ToolCalls, cat, o.pool)
	for _, out := range outcomes {
		o.opts.Metrics.RecordToolCall(o.backendLabel(out.Backend), out.OK())

		ev := log.Debug()
		if !out.OK() {
			ev = log.Warn().Str("reason", string(out.Reason)).Str("error", out.Error)
		}
		ev.Str("tool", out.QualifiedName).Str("backend", out.Backend).Msg("tool call dispatched")

		result.ToolsUsed = append(result.ToolsUsed, out.QualifiedName)
	}
	result.RawResults = outcomes

	if err := ctx.Err(); err != nil {
		return failure(result, err)
	}

	// Phase 2: synthesis.
	prompt, err := synthesisRequest(o.opts.Prompts.Synthesis, query, outcomes)
	if err != nil {
		return failure(result, err)
	}
	final, err := o.complete(ctx, observability.PhaseSynthesis, []llm.Message{llm.User(prompt)}, nil, "")
	if err != nil {
		return failure(result, fmt.Errorf("synthesis: %w", err))
	}

	result.FinalAnswer = final.Content
	result.Success = true
	o.remember(log, sessionID, query, result.FinalAnswer)
	return result
}

// track derives the context of the query in flight so DisconnectAll can
// cancel it. It reports false once a disconnect has begun.
func (o *Orchestrator) track(ctx context.Context) (context.Context, func(), bool) {
	o.runMu.Lock()
	defer o.runMu.Unlock()
	if o.closing {
		return ctx, func() {}, false
	}
	ctx, cancel := context.WithCancel(ctx)
	o.cancel = cancel
	return ctx, func() {
		o.runMu.Lock()
		o.cancel = nil
		o.runMu.Unlock()
		cancel()
	}, true
}

// backendLabel bounds the backend label of the tool call metric to the
// backends in the pool. Names made up by the model are "unresolved".
func (o *Orchestrator) backendLabel(name string) string {
	if _, ok := o.pool.Session(name); ok {
		return name
	}
	return ""
}

func (o *Orchestrator) complete(ctx context.Context, phase string, messages []llm.Message, tools []llm.Tool, choice llm.ToolChoice) (llm.Message, error) {
	mctx, cancel := context.WithTimeout(ctx, o.opts.Timeout)
	defer cancel()

	start := time.Now()
	msg, err := o.opts.Model.Complete(mctx, messages, tools, choice)
	o.opts.Metrics.ObserveModel(phase, time.Since(start))
	return msg, err
}

func (o *Orchestrator) remember(log zerolog.Logger, sessionID, query, answer string) {
	if sessionID == "" {
		return
	}
	if err := o.opts.History.Append(sessionID, llm.RoleUser, query); err != nil {
		log.Warn().Err(err).Msg("append query to history")
		return
	}
	if err := o.opts.History.Append(sessionID, llm.RoleAssistant, answer); err != nil {
		log.Warn().Err(err).Msg("append answer to history")
	}
}

// DisconnectAll disconnects every session, continuing past failures, and
// moves to StateClosed. Disconnect failures are logged, not returned. A
// query in flight is canceled and no new query starts. The returned error
// is ctx's if ctx ends first, in which case the disconnect still completes
// in the background. Calling it again after Closed is a no-op.
func (o *Orchestrator) DisconnectAll(ctx context.Context) error {
	o.runMu.Lock()
	o.closing = true
	if o.cancel != nil {
		o.cancel()
	}
	o.runMu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		o.disconnectAll()
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (o *Orchestrator) disconnectAll() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.State() == StateClosed {
		return
	}
	o.setState(StateDisconnecting)

	n := o.pool.Len()
	if err := o.pool.DisconnectAll(); err != nil {
		for _, e := range unjoin(err) {
			ev := o.log.Warn().Err(e)
			var ce *backend.ConnectionError
			if errors.As(e, &ce) {
				ev = ev.Str("backend", ce.Backend)
			}
			ev.Msg("backend disconnect failed")
		}
	}
	o.opts.Metrics.SetConnectedBackends(0)
	o.log.Info().Int("sessions", n).Msg("backends disconnected")

	o.setState(StateClosed)
}

func unjoin(err error) []error {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return j.Unwrap()
	}
	return []error{err}
}
