package loader

import (
	"fmt"
	"strings"

	"github.com/aretw0/scriptbridge/pkg/domain"
)

// Order returns scripts scheduled so that every script comes after all of
// its dependencies. Among scripts that are ready at the same time, the one
// discovered first goes first.
//
// It fails with domain.ErrUnknownDependency when a dependency names no
// script, with domain.ErrDependencyCycle when dependencies loop, and with
// domain.ErrInvalidArgument on duplicate ids.
func Order(scripts []Script) ([]Script, error) {
	pos := make(map[string]int, len(scripts))
	for i, s := range scripts {
		if _, dup := pos[s.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate script id %q", domain.ErrInvalidArgument, s.ID)
		}
		pos[s.ID] = i
	}

	// dependents maps a script to the scripts waiting on it.
	dependents := make([][]int, len(scripts))
	indegree := make([]int, len(scripts))
	for i, s := range scripts {
		seen := make(map[string]bool)
		for _, dep := range s.Depends {
			if seen[dep] {
				continue
			}
			seen[dep] = true
			j, ok := pos[dep]
			if !ok {
				return nil, fmt.Errorf("%w: %s depends on %s", domain.ErrUnknownDependency, s.ID, dep)
			}
			dependents[j] = append(dependents[j], i)
			indegree[i]++
		}
	}

	ordered := make([]Script, 0, len(scripts))
	done := make([]bool, len(scripts))
	for len(ordered) < len(scripts) {
		next := -1
		for i := range scripts {
			if !done[i] && indegree[i] == 0 {
				next = i
				break
			}
		}
		if next < 0 {
			return nil, cycleError(scripts, done)
		}

		done[next] = true
		ordered = append(ordered, scripts[next])
		for _, d := range dependents[next] {
			indegree[d]--
		}
	}
	return ordered, nil
}

func cycleError(scripts []Script, done []bool) error {
	var stuck []string
	for i, s := range scripts {
		if !done[i] {
			stuck = append(stuck, s.ID)
		}
	}
	return fmt.Errorf("%w among %s", domain.ErrDependencyCycle, strings.Join(stuck, ", "))
}

// IDs returns the ids of scripts in order.
func IDs(scripts []Script) []string {
	ids := make([]string, len(scripts))
	for i, s := range scripts {
		ids[i] = s.ID
	}
	return ids
}
