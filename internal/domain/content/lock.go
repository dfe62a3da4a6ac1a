package content

import "github.com/pratik-mahalle/creatorhub/internal/domain/user"

// IsLocked reports whether p is read-only for u. It is a pure function of
// its two arguments and is evaluated on every read.
//
// A post is locked when the user holds no paid tier and the post was created
// inside the open trial window (at or after TrialStartedAt). A restore closes
// the window by clearing TrialStartedAt, and posts created before the trial or
// while a tier is active are never locked.
func IsLocked(p *Post, u *user.User) bool {
	if p == nil || u == nil {
		return false
	}
	if u.HasActiveSubscription() {
		return false
	}
	if u.TrialStartedAt == nil {
		return false
	}
	return !p.CreatedAt.Before(*u.TrialStartedAt)
}

// Annotate pairs each post with its lock status for u
func Annotate(posts []*Post, u *user.User) []PostView {
	views := make([]PostView, 0, len(posts))
	for _, p := range posts {
		views = append(views, PostView{Post: p, Locked: IsLocked(p, u)})
	}
	return views
}
