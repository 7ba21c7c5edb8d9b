package share

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nanumsa/server/internal/apperr"
)

// AdminSet is the set of user tags allowed to mutate a listing. The
// storage form is a comma-joined string column; in memory it is an
// ordered set with insertion order preserved. Membership is what
// matters for authorization; order only affects re-serialization.
type AdminSet []int64

// ParseAdminSet decodes the stored comma-joined form. A non-numeric
// entry is corrupt data and fails the parse outright rather than
// coercing to zero. Duplicate entries collapse, first occurrence wins.
func ParseAdminSet(raw string) (AdminSet, error) {
	if strings.TrimSpace(raw) == "" {
		return AdminSet{}, nil
	}

	parts := strings.Split(raw, ",")
	set := make(AdminSet, 0, len(parts))
	seen := make(map[int64]bool, len(parts))

	for _, p := range parts {
		tag, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", apperr.ErrCorruptAdminSet, p)
		}
		if seen[tag] {
			continue
		}
		seen[tag] = true
		set = append(set, tag)
	}
	return set, nil
}

// String re-serializes the set in insertion order.
func (s AdminSet) String() string {
	parts := make([]string, len(s))
	for i, tag := range s {
		parts[i] = strconv.FormatInt(tag, 10)
	}
	return strings.Join(parts, ",")
}

func (s AdminSet) Contains(tag int64) bool {
	for _, t := range s {
		if t == tag {
			return true
		}
	}
	return false
}

// Add appends the tag if absent. Adding an existing member is a
// no-op, never a duplicate.
func (s AdminSet) Add(tag int64) AdminSet {
	if s.Contains(tag) {
		return s
	}
	return append(s, tag)
}

// Remove drops the tag, preserving the order of the remaining
// members. Removing the last admin is refused: every listing must
// keep at least one. Removing an absent tag is a no-op.
func (s AdminSet) Remove(tag int64) (AdminSet, error) {
	if !s.Contains(tag) {
		return s, nil
	}
	if len(s) == 1 {
		return s, apperr.ErrLastAdmin
	}
	out := make(AdminSet, 0, len(s)-1)
	for _, t := range s {
		if t != tag {
			out = append(out, t)
		}
	}
	return out, nil
}

// removeAny drops the tag without the last-admin check. Only the
// account-deletion cascade uses this: a deleted user cannot remain an
// admin, even of a listing it solely administered.
func (s AdminSet) removeAny(tag int64) AdminSet {
	out := make(AdminSet, 0, len(s))
	for _, t := range s {
		if t != tag {
			out = append(out, t)
		}
	}
	return out
}

// authorize parses a listing's stored admin-set and checks that the
// acting tag is a member. Every listing mutation goes through here
// before any write happens.
func authorize(adminsRaw string, actingTag int64) (AdminSet, error) {
	set, err := ParseAdminSet(adminsRaw)
	if err != nil {
		return nil, err
	}
	if !set.Contains(actingTag) {
		return nil, apperr.ErrForbidden
	}
	return set, nil
}
