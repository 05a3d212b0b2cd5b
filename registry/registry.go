// Package registry holds the static catalog of resource kinds: what to call
// to list them, how to project response fields into columns, and which
// actions can be taken on a row. The catalog is written once at startup and
// read-only afterwards, so no locking is needed on the hot path.
package registry

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateKind    = errors.New("duplicate resource kind")
	ErrKindNotFound     = errors.New("resource kind not found")
	ErrServiceNotFound  = errors.New("service not found")
	ErrActionNotFound   = errors.New("action not found")
	ErrDuplicateService = errors.New("duplicate service")
)

// Protocol identifies the wire protocol a service speaks.
type Protocol string

const (
	ProtocolJSON10   Protocol = "json-1.0"
	ProtocolJSON11   Protocol = "json-1.1"
	ProtocolRESTJSON Protocol = "rest-json"
	ProtocolQuery    Protocol = "query"
)

// ServiceDescriptor describes how to reach one provider service. Adding a
// service is a data change, not a new code path.
type ServiceDescriptor struct {
	ID             string
	EndpointPrefix string
	SigningName    string
	Protocol       Protocol
	TargetPrefix   string // json protocols: X-Amz-Target prefix
	APIVersion     string // query protocol: Version parameter
}

// PaginationSpec describes the cursor shape of a paginated list operation.
type PaginationSpec struct {
	CursorParam   string // request parameter fed with the previous cursor
	CursorPath    string // extraction path of the cursor in the response
	PageSizeParam string // optional page-size parameter
	PageSize      int
}

// OperationSpec is the declarative description of one external operation.
type OperationSpec struct {
	Service      string
	Operation    string
	HTTPMethod   string // rest-json only
	HTTPPath     string // rest-json only, may contain {Param} segments
	StaticParams map[string]any
	Pagination   *PaginationSpec
}

// Binding sources one action parameter from a row field.
type Binding struct {
	Param     string
	FieldPath string
}

// Action is a mutating operation available on a row of a kind.
type Action struct {
	ID          string
	Label       string
	Destructive bool
	Confirm     bool
	Bindings    []Binding
	Spec        OperationSpec
}

// Column defines one display column: extraction path plus an ordered chain
// of formatting hooks applied after extraction.
type Column struct {
	Label   string
	Path    string
	Formats []string
}

// ResourceKind is a catalog entry describing how to list, describe, format,
// and act on one category of remote resource. Immutable once registered.
type ResourceKind struct {
	ID            string
	Name          string
	Service       string
	List          OperationSpec
	Describe      *OperationSpec
	DescribeParam string // parameter of Describe that receives the row key
	ItemsPath     string // locates page items in a list response
	KeyPath       string // locates the primary key within one item
	Columns       []Column
	Actions       []Action
}

// Action returns the action with the given id.
func (k ResourceKind) Action(id string) (Action, error) {
	for _, a := range k.Actions {
		if a.ID == id {
			return a, nil
		}
	}
	return Action{}, fmt.Errorf("%w: %s on kind %s", ErrActionNotFound, id, k.ID)
}

// Registry is the write-once catalog of services and resource kinds.
type Registry struct {
	kinds    map[string]ResourceKind
	order    []string
	services map[string]ServiceDescriptor
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		kinds:    make(map[string]ResourceKind),
		services: make(map[string]ServiceDescriptor),
	}
}

// RegisterService adds a service descriptor.
func (r *Registry) RegisterService(sd ServiceDescriptor) error {
	if _, exists := r.services[sd.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateService, sd.ID)
	}
	r.services[sd.ID] = sd
	return nil
}

// Register adds a resource kind. The kind's service must already be known.
func (r *Registry) Register(kind ResourceKind) error {
	if _, exists := r.kinds[kind.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateKind, kind.ID)
	}
	if _, exists := r.services[kind.Service]; !exists {
		return fmt.Errorf("%w: %s (kind %s)", ErrServiceNotFound, kind.Service, kind.ID)
	}
	r.kinds[kind.ID] = kind
	r.order = append(r.order, kind.ID)
	return nil
}

// Lookup returns the kind with the given id.
func (r *Registry) Lookup(id string) (ResourceKind, error) {
	kind, ok := r.kinds[id]
	if !ok {
		return ResourceKind{}, fmt.Errorf("%w: %s", ErrKindNotFound, id)
	}
	return kind, nil
}

// Service returns the descriptor for a service id.
func (r *Registry) Service(id string) (ServiceDescriptor, error) {
	sd, ok := r.services[id]
	if !ok {
		return ServiceDescriptor{}, fmt.Errorf("%w: %s", ErrServiceNotFound, id)
	}
	return sd, nil
}

// Kinds returns all kinds in declaration order. The ordering is stable so
// menus built from it are reproducible across runs.
func (r *Registry) Kinds() []ResourceKind {
	out := make([]ResourceKind, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.kinds[id])
	}
	return out
}
