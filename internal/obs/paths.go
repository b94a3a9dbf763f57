package obs

import "strings"

// CanonicalPath collapses resource identifiers out of request paths so metric
// label cardinality stays bounded.
func CanonicalPath(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return "/"
	}
	parts := strings.Split(strings.Trim(path, "/"), "/")
	switch {
	case len(parts) >= 2 && parts[0] == "users":
		if parts[1] == "team" {
			return "/users/team"
		}
		if parts[1] == "me" {
			if len(parts) == 3 && parts[2] == "invitations" {
				return "/users/me/invitations"
			}
			return "/users/me"
		}
		return "/users/:id"
	case len(parts) >= 2 && parts[0] == "usernames":
		return "/usernames/:username/check"
	case parts[0] == "enterprises" && len(parts) >= 2:
		if parts[1] == "invitations" {
			if len(parts) == 2 {
				return "/enterprises/invitations"
			}
			if len(parts) == 4 && parts[3] == "accept" {
				return "/enterprises/invitations/:id/accept"
			}
			return "/enterprises/invitations/:id"
		}
		switch {
		case len(parts) == 2:
			return "/enterprises/:id"
		case parts[2] == "invitations":
			return "/enterprises/:id/invitations"
		case parts[2] == "members" && len(parts) == 3:
			return "/enterprises/:id/members"
		case parts[2] == "members":
			return "/enterprises/:id/members/:user_id"
		}
	}
	return path
}
