package model

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type MutationKind int

const (
	CreateMutation MutationKind = iota
	UpdateMutation
	DeleteMutation
)

func (k MutationKind) String() string {
	switch k {
	case CreateMutation:
		return "create"
	case UpdateMutation:
		return "update"
	case DeleteMutation:
		return "delete"
	}
	return "unknown"
}

type MutationState int

const (
	Idle MutationState = iota
	Pending
	Succeeded
	Failed
)

func (s MutationState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	}
	return "unknown"
}

func (s MutationState) Terminal() bool {
	return s == Succeeded || s == Failed
}

// Mutation tracks one write invocation: Idle -> Pending -> {Succeeded, Failed}.
type Mutation struct {
	ID        uuid.UUID
	Kind      MutationKind
	ProductID int

	mu         sync.Mutex
	state      MutationState
	err        error
	startedAt  time.Time
	finishedAt time.Time
}

func NewMutation(kind MutationKind, productID int) *Mutation {
	return &Mutation{
		ID:        uuid.New(),
		Kind:      kind,
		ProductID: productID,
	}
}

func (m *Mutation) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.Terminal() {
		return ErrMutationFinished
	}
	if m.state != Idle {
		return ErrMutationNotActive
	}
	m.state = Pending
	m.startedAt = time.Now().UTC()
	return nil
}

func (m *Mutation) Succeed(productID int) error {
	return m.finish(Succeeded, productID, nil)
}

func (m *Mutation) Fail(err error) error {
	return m.finish(Failed, m.ProductID, err)
}

func (m *Mutation) finish(state MutationState, productID int, err error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.Terminal() {
		return ErrMutationFinished
	}
	if m.state != Pending {
		return ErrMutationNotActive
	}
	m.state = state
	m.err = err
	m.ProductID = productID
	m.finishedAt = time.Now().UTC()
	return nil
}

func (m *Mutation) State() MutationState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Mutation) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

func (m *Mutation) Duration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.startedAt.IsZero() || m.finishedAt.IsZero() {
		return 0
	}
	return m.finishedAt.Sub(m.startedAt)
}
