package reader

import (
	"context"
	"strings"

	"github.com/syssam/dbscope/locator"
	"github.com/syssam/dbscope/resource"
)

// PathFilter returns a reader that drops resources whose path does not
// match the locator path. Segment i of the locator must occur in segment
// i of the resource path, ignoring case; "%" and "*" match any run of
// characters. It is meant for readers whose query does not bind every
// segment.
func PathFilter(r Reader) Reader {
	return Func(func(ctx context.Context, loc locator.Locator, objectType string) (resource.Set, error) {
		set, err := r.Read(ctx, loc, objectType)
		if err != nil || loc.Len() == 0 {
			return set, err
		}
		return set.Filter(func(res *resource.Resource) bool {
			path := res.Path()
			for i := range loc.Len() {
				seg, _ := loc.Segment(i)
				if i >= len(path) {
					return isWildcard(seg)
				}
				if !matchSegment(path[i], seg) {
					return false
				}
			}
			return true
		}), nil
	})
}

func isWildcard(seg string) bool {
	return strings.Trim(seg, locator.Wildcard) == ""
}

// matchSegment reports whether the wildcard-separated parts of pattern
// occur in s in order.
func matchSegment(s, pattern string) bool {
	s, pattern = strings.ToLower(s), strings.ToLower(pattern)
	for part := range strings.SplitSeq(pattern, locator.Wildcard) {
		i := strings.Index(s, part)
		if i < 0 {
			return false
		}
		s = s[i+len(part):]
	}
	return true
}
