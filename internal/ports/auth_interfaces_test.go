package ports_test

import (
	"testing"

	"github.com/target/eventnav/internal/adapters/authroles"
	"github.com/target/eventnav/internal/adapters/memory"
	mocks "github.com/target/eventnav/internal/mocks/auth"
	"github.com/target/eventnav/internal/ports"
)

// Adapters and doubles must keep satisfying the ports.
func TestImplementationsSatisfyPorts(t *testing.T) {
	t.Helper()

	var _ ports.AuthProvider = (*mocks.MockAuthProvider)(nil)
	var _ ports.SessionStore = (*memory.SessionStore)(nil)
	var _ ports.RoleMapper = (*authroles.StaticRoleMapper)(nil)
	var _ ports.SessionSource = (*mocks.FakeSessionSource)(nil)
}
