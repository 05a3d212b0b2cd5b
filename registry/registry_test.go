package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testService() ServiceDescriptor {
	return ServiceDescriptor{
		ID:             "ec2",
		EndpointPrefix: "ec2",
		SigningName:    "ec2",
		Protocol:       ProtocolQuery,
		APIVersion:     "2016-11-15",
	}
}

func testKind(id string) ResourceKind {
	return ResourceKind{
		ID:      id,
		Name:    "Test Kind",
		Service: "ec2",
		List:    OperationSpec{Service: "ec2", Operation: "DescribeInstances"},
		KeyPath: "instanceId",
		Columns: []Column{{Label: "ID", Path: "instanceId"}},
	}
}

func TestRegisterDuplicateKind(t *testing.T) {
	r := New()
	require.NoError(t, r.RegisterService(testService()))
	require.NoError(t, r.Register(testKind("ec2-instances")))

	err := r.Register(testKind("ec2-instances"))
	assert.ErrorIs(t, err, ErrDuplicateKind)
}

func TestRegisterUnknownService(t *testing.T) {
	r := New()
	kind := testKind("orphan")
	kind.Service = "nope"

	err := r.Register(kind)
	assert.ErrorIs(t, err, ErrServiceNotFound)
}

func TestLookupNotFound(t *testing.T) {
	r := New()
	_, err := r.Lookup("missing")
	assert.ErrorIs(t, err, ErrKindNotFound)
}

func TestKindsDeclarationOrder(t *testing.T) {
	r := New()
	require.NoError(t, r.RegisterService(testService()))

	ids := []string{"zeta", "alpha", "mid"}
	for _, id := range ids {
		require.NoError(t, r.Register(testKind(id)))
	}

	kinds := r.Kinds()
	require.Len(t, kinds, 3)
	for i, id := range ids {
		assert.Equal(t, id, kinds[i].ID)
	}
}

func TestKindAction(t *testing.T) {
	kind := testKind("ec2-instances")
	kind.Actions = []Action{{ID: "stop", Label: "Stop instance"}}

	a, err := kind.Action("stop")
	require.NoError(t, err)
	assert.Equal(t, "Stop instance", a.Label)

	_, err = kind.Action("explode")
	assert.ErrorIs(t, err, ErrActionNotFound)
}

func TestBuiltinCatalog(t *testing.T) {
	r := Builtin()

	kinds := r.Kinds()
	require.NotEmpty(t, kinds)

	// Every kind must reference a registered service and keep its
	// declared paging shape.
	for _, kind := range kinds {
		sd, err := r.Service(kind.Service)
		require.NoError(t, err, "kind %s", kind.ID)
		assert.NotEmpty(t, sd.EndpointPrefix, "kind %s", kind.ID)
		assert.NotEmpty(t, kind.ItemsPath, "kind %s", kind.ID)
		assert.NotEmpty(t, kind.KeyPath, "kind %s", kind.ID)
		assert.NotEmpty(t, kind.Columns, "kind %s", kind.ID)

		if kind.Describe != nil {
			assert.NotEmpty(t, kind.DescribeParam, "kind %s", kind.ID)
		}
		for _, a := range kind.Actions {
			assert.NotEmpty(t, a.Bindings, "action %s on kind %s", a.ID, kind.ID)
		}
		if sd.Protocol == ProtocolQuery {
			assert.NotEmpty(t, sd.APIVersion, "service %s", sd.ID)
		}
	}

	// First kind stays EC2 instances, the default selection.
	assert.Equal(t, "ec2-instances", kinds[0].ID)
}
