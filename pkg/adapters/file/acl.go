package file

import (
	"fmt"
	"strings"

	"github.com/aretw0/scriptbridge/pkg/adapters/memory"
	"github.com/aretw0/scriptbridge/pkg/domain"
)

// Grant is one ACL entry. Rights are any of create, read, update, delete or "all".
type Grant struct {
	Resource string   `yaml:"resource" json:"resource"`
	Subject  string   `yaml:"subject" json:"subject"`
	Rights   []string `yaml:"rights" json:"rights"`
}

// ACLFile is the layout of an ACL file.
type ACLFile struct {
	Grants []Grant `yaml:"grants" json:"grants"`
}

var rightNames = map[string]domain.Access{
	"create": domain.CanCreate,
	"read":   domain.CanRead,
	"update": domain.CanUpdate,
	"delete": domain.CanDelete,
	"all":    domain.FullAccess,
}

// ParseRights converts right names into an access mask.
func ParseRights(names []string) (domain.Access, error) {
	var mask domain.Access
	for _, n := range names {
		bit, ok := rightNames[strings.ToLower(strings.TrimSpace(n))]
		if !ok {
			return 0, fmt.Errorf("%w: unknown right %q", domain.ErrInvalidArgument, n)
		}
		mask |= bit
	}
	return mask, nil
}

// LoadACL builds an in-memory authorizer from an ACL file.
// A missing file yields an authorizer that grants nothing.
func LoadACL(path string) (*memory.Authorizer, error) {
	var f ACLFile
	if _, err := decode(path, &f); err != nil {
		return nil, err
	}

	authz := memory.NewAuthorizer()
	for i, g := range f.Grants {
		if g.Resource == "" || g.Subject == "" {
			return nil, fmt.Errorf("%w: grant %d needs resource and subject", domain.ErrInvalidArgument, i)
		}
		rights, err := ParseRights(g.Rights)
		if err != nil {
			return nil, fmt.Errorf("grant %d: %w", i, err)
		}
		authz.Grant(g.Resource, g.Subject, rights)
	}
	return authz, nil
}
