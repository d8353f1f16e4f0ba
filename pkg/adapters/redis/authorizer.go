package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/aretw0/scriptbridge/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// AnySubject grants rights to every subject on a resource.
const AnySubject = "*"

// Authorizer implements ports.Authorizer over one hash per resource
// mapping subject id to a rights mask.
type Authorizer struct {
	client *backend.Client
	prefix string
}

// NewAuthorizer creates an authorizer reading prefix + "acl:" + resource.
func NewAuthorizer(client *backend.Client, prefix string) *Authorizer {
	return &Authorizer{client: client, prefix: prefix}
}

func (a *Authorizer) key(resourceID string) string {
	return a.prefix + "acl:" + resourceID
}

// Grant adds rights for subject on resource.
func (a *Authorizer) Grant(ctx context.Context, resourceID, subjectID string, rights domain.Access) error {
	cur, err := a.client.HGet(ctx, a.key(resourceID), subjectID).Int()
	if err != nil && !errors.Is(err, backend.Nil) {
		return fmt.Errorf("%w: read acl: %v", domain.ErrTransport, err)
	}
	mask := domain.Access(cur) | rights
	if err := a.client.HSet(ctx, a.key(resourceID), subjectID, int(mask)).Err(); err != nil {
		return fmt.Errorf("%w: write acl: %v", domain.ErrTransport, err)
	}
	return nil
}

// Authorize returns the granted subset of want. Missing entries grant nothing.
func (a *Authorizer) Authorize(ctx context.Context, resourceID, subjectID string, want domain.Access, trace bool) (domain.Access, error) {
	vals, err := a.client.HMGet(ctx, a.key(resourceID), subjectID, AnySubject).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: read acl: %v", domain.ErrTransport, err)
	}

	var granted domain.Access
	for _, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("%w: acl entry %q: %v", domain.ErrUnprocessableEntity, s, err)
		}
		granted |= domain.Access(n)
	}
	return granted & want, nil
}
