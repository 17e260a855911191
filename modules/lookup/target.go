package lookup

import (
	"strconv"
	"strings"

	"github.com/guarzo/repolookup/common/model"
)

// Target is what one lookup runs against. NumericID is only set when the
// caller's session carries an id but no username; such lookups skip the
// identity step.
type Target struct {
	Username  string
	NumericID string
}

// IsZero reports whether there is nothing to look up.
func (t Target) IsZero() bool {
	return t.Username == "" && t.NumericID == ""
}

func (t Target) String() string {
	if t.Username != "" {
		return t.Username
	}
	return t.NumericID
}

// ResolveTarget picks what to look up: an explicit query wins, then the
// caller's own session identity when that session is on the same platform,
// by username first and numeric id second. Ids that are not positive integers
// are ignored.
func ResolveTarget(q model.Query) Target {
	if username := strings.TrimSpace(q.ExplicitUsername); username != "" {
		return Target{Username: username}
	}
	if !q.SessionOnPlatform {
		return Target{}
	}
	if username := strings.TrimSpace(q.SessionUsername); username != "" {
		return Target{Username: username}
	}
	id := strings.TrimSpace(q.SessionNumericID)
	if n, err := strconv.ParseInt(id, 10, 64); err == nil && n > 0 {
		return Target{NumericID: strconv.FormatInt(n, 10)}
	}
	return Target{}
}
