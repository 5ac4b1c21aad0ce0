package state

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var ErrUnknownState = errors.New("state: unknown state")

// Wildcard matches any state in a transition rule.
const Wildcard = "*"

// Hook runs on state entry or exit. data is caller-defined flow context.
type Hook func(data any)

// StateInfo describes one node of a Machine.
type StateInfo struct {
	Name     string
	Group    string
	OnEnter  Hook
	OnExit   Hook
	Metadata map[string]any
}

// Rule is one allowed transition. From or To may be Wildcard.
type Rule struct {
	From      string
	To        string
	Condition func(data any) bool
	Action    func(data any)
	Priority  int
}

// Machine is a finite state machine over named states. When no rules are
// registered every transition between known states is allowed.
type Machine struct {
	mu          sync.Mutex
	name        string
	states      map[string]StateInfo
	rules       []Rule
	initial     string
	current     string
	onAnyChange func(from, to string, data any)
}

func NewMachine(name string) *Machine {
	if name == "" {
		name = "default"
	}
	return &Machine{
		name:   name,
		states: make(map[string]StateInfo),
	}
}

func (m *Machine) Name() string { return m.name }

func (m *Machine) AddState(info StateInfo) *Machine {
	if info.Name == "" {
		return m
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[info.Name] = info
	return m
}

func (m *Machine) AddRule(rule Rule) *Machine {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, rule)
	return m
}

// OnAnyTransition installs a hook observing every transition.
func (m *Machine) OnAnyTransition(fn func(from, to string, data any)) *Machine {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onAnyChange = fn
	return m
}

func (m *Machine) SetInitial(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.states[name]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownState, name)
	}
	m.initial = name
	return nil
}

func (m *Machine) Current() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// SetCurrent force-positions the machine, bypassing rules. Used when
// rehydrating a user's state from storage.
func (m *Machine) SetCurrent(state string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = state
}

// CanTransition reports whether from->to is allowed for data.
func (m *Machine) CanTransition(from, to string, data any) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.states[from]; !ok {
		return false
	}
	if len(m.rules) == 0 {
		return true
	}
	for _, rule := range m.sortedRules() {
		fromMatch := rule.From == from || rule.From == Wildcard
		toMatch := rule.To == to || rule.To == Wildcard
		if !fromMatch || !toMatch {
			continue
		}
		if rule.From != from && rule.To != to {
			continue
		}
		if rule.Condition != nil {
			return rule.Condition(data)
		}
		return true
	}
	return false
}

// NextStates lists reachable targets from the given state, sorted.
func (m *Machine) NextStates(from string, data any) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.states[from]; !ok {
		return nil
	}
	seen := make(map[string]struct{})
	for _, rule := range m.rules {
		if rule.From != from && rule.From != Wildcard {
			continue
		}
		if rule.Condition != nil && !rule.Condition(data) {
			continue
		}
		seen[rule.To] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Transition moves the machine to state to, running from's OnExit, to's
// OnEnter, the matched rule's Action, and the any-transition hook.
func (m *Machine) Transition(from, to string, data any) {
	m.mu.Lock()
	exit := m.states[from].OnExit
	enter := m.states[to].OnEnter
	action := m.matchedAction(from, to, data)
	anyHook := m.onAnyChange
	m.current = to
	m.mu.Unlock()

	if exit != nil {
		exit(data)
	}
	if enter != nil {
		enter(data)
	}
	if action != nil {
		action(data)
	}
	if anyHook != nil {
		anyHook(from, to, data)
	}
}

func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = m.initial
}

func (m *Machine) Is(state string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current == state
}

func (m *Machine) InGroup(group string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == "" {
		return false
	}
	info, ok := m.states[m.current]
	return ok && info.Group == group
}

// matchedAction picks the highest-priority rule action for from->to.
// Caller holds the lock.
func (m *Machine) matchedAction(from, to string, data any) func(any) {
	for _, rule := range m.sortedRules() {
		fromMatch := rule.From == from || rule.From == Wildcard
		toMatch := rule.To == to || rule.To == Wildcard
		if !fromMatch || !toMatch {
			continue
		}
		if rule.From != from && rule.To != to {
			continue
		}
		if rule.Condition != nil && !rule.Condition(data) {
			continue
		}
		return rule.Action
	}
	return nil
}

// sortedRules returns rules ordered by descending priority. Caller holds
// the lock.
func (m *Machine) sortedRules() []Rule {
	out := make([]Rule, len(m.rules))
	copy(out, m.rules)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority > out[j].Priority
	})
	return out
}

// Registry stores machines by stable name.
type Registry struct {
	mu       sync.Mutex
	machines map[string]*Machine
}

func NewRegistry() *Registry {
	return &Registry{machines: make(map[string]*Machine)}
}

func (r *Registry) Register(name string, m *Machine) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.machines[name] = m
}

func (r *Registry) Get(name string) (*Machine, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.machines[name]
	return m, ok
}

func (r *Registry) GetOrCreate(name string) *Machine {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.machines[name]; ok {
		return m
	}
	m := NewMachine(name)
	r.machines[name] = m
	return m
}
