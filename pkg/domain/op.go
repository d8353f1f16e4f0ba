package domain

import (
	"fmt"
	"strings"
)

// Op is the kind of mutation requested for an entity.
// Numbers match the store's update command codes.
type Op int

const (
	OpPut        Op = 1
	OpSetIn      Op = 45
	OpAddTo      Op = 47
	OpRemoveFrom Op = 48
	OpRemove     Op = 51
)

var opNames = map[Op]string{
	OpPut:        "Put",
	OpSetIn:      "SetIn",
	OpAddTo:      "AddTo",
	OpRemoveFrom: "RemoveFrom",
	OpRemove:     "Remove",
}

func (o Op) String() string {
	if name, ok := opNames[o]; ok {
		return name
	}
	return fmt.Sprintf("Op(%d)", int(o))
}

// Incremental reports whether the op is a diff against the prior state.
func (o Op) Incremental() bool {
	return o == OpAddTo || o == OpSetIn || o == OpRemoveFrom
}

// ParseOp resolves an op by its name, case-insensitively.
func ParseOp(name string) (Op, error) {
	for op, n := range opNames {
		if strings.EqualFold(n, name) {
			return op, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown op %q", ErrInvalidArgument, name)
}
