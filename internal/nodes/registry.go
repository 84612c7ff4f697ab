package nodes

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"ecobeehub/internal/core"
)

var ErrNodeNotFound = errors.New("node not found")

// Node is an addressable device exposed by the hub
type Node struct {
	Address    string         `json:"address"`
	Parent     string         `json:"parent"`
	Name       string         `json:"name"`
	Kind       core.NodeKind  `json:"kind"`
	SensorID   string         `json:"sensor_id,omitempty"`
	UseCelsius bool           `json:"use_celsius"`
	Values     map[string]any `json:"values"`
	UpdatedAt  *time.Time     `json:"updated_at,omitempty"`
}

func (n *Node) clone() *Node {
	c := *n
	c.Values = make(map[string]any, len(n.Values))
	for k, v := range n.Values {
		c.Values[k] = v
	}
	if n.UpdatedAt != nil {
		t := *n.UpdatedAt
		c.UpdatedAt = &t
	}
	return &c
}

// Registry manages registered nodes
type Registry struct {
	nodes map[string]*Node // address -> node
	mu    sync.RWMutex
	now   func() time.Time
}

// NewRegistry creates a new node registry
func NewRegistry() *Registry {
	return &Registry{
		nodes: make(map[string]*Node),
		now:   time.Now,
	}
}

// Register adds a node to the registry
func (r *Registry) Register(spec core.NodeSpec) error {
	if spec.Address == "" {
		return fmt.Errorf("node address cannot be empty")
	}
	if spec.Name == "" {
		return fmt.Errorf("node name cannot be empty")
	}
	if spec.Kind == "" {
		return fmt.Errorf("node kind cannot be empty")
	}
	if spec.Kind == core.NodeKindSensor && spec.SensorID == "" {
		return fmt.Errorf("sensor node %s has no sensor id", spec.Address)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.nodes[spec.Address]; exists {
		return fmt.Errorf("node %s already registered", spec.Address)
	}

	parent := spec.Parent
	if parent == "" {
		parent = spec.Address
	}
	r.nodes[spec.Address] = &Node{
		Address:    spec.Address,
		Parent:     parent,
		Name:       spec.Name,
		Kind:       spec.Kind,
		SensorID:   spec.SensorID,
		UseCelsius: spec.UseCelsius,
		Values:     make(map[string]any),
	}
	return nil
}

// Has reports whether address is registered
func (r *Registry) Has(address string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.nodes[address]
	return exists
}

// Get retrieves a copy of a node by address
func (r *Registry) Get(address string) (*Node, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	node, exists := r.nodes[address]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, address)
	}

	return node.clone(), nil
}

// List returns copies of all registered nodes ordered by address
func (r *Registry) List() []*Node {
	r.mu.RLock()
	defer r.mu.RUnlock()

	nodes := make([]*Node, 0, len(r.nodes))
	for _, node := range r.nodes {
		nodes = append(nodes, node.clone())
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Address < nodes[j].Address })

	return nodes
}

// ListByParent returns copies of the thermostat and its child nodes
func (r *Registry) ListByParent(parent string) []*Node {
	r.mu.RLock()
	defer r.mu.RUnlock()

	nodes := make([]*Node, 0)
	for _, node := range r.nodes {
		if node.Parent == parent {
			nodes = append(nodes, node.clone())
		}
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Address < nodes[j].Address })

	return nodes
}

// Apply updates the thermostat node for sig and all of its children from a
// full snapshot. The thermostat must already be registered.
func (r *Registry) Apply(sig core.Signature, snapshot *core.Snapshot) error {
	if snapshot == nil {
		return fmt.Errorf("snapshot for %s is nil", sig.ThermostatID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	thermostat, exists := r.nodes[sig.ThermostatID]
	if !exists {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, sig.ThermostatID)
	}

	now := r.now()
	for _, node := range r.nodes {
		if node.Parent != thermostat.Address {
			continue
		}

		var values map[string]any
		switch node.Kind {
		case core.NodeKindThermostat:
			values = thermostatValues(sig, snapshot.Raw, node.UseCelsius)
		case core.NodeKindSensor:
			values = sensorValues(snapshot.Raw, node.SensorID, node.UseCelsius)
		case core.NodeKindWeather:
			values = weatherValues(snapshot.Raw, node.UseCelsius)
		case core.NodeKindForecast:
			values = forecastValues(snapshot.Raw, node.UseCelsius)
		}
		if values == nil {
			continue
		}

		node.Values = values
		updated := now
		node.UpdatedAt = &updated
	}

	return nil
}
