package persist

import "github.com/zombor/expense-tracker/internal/record"

// Session is the signed-in identity a save is made for. The zero value is
// an anonymous session.
type Session struct {
	UID     string
	Email   string
	IDToken string
}

// Authenticated reports whether the session carries a user.
func (s Session) Authenticated() bool {
	return s.UID != ""
}

// OwnerRef is the owner reference stamped on records. Anonymous sessions
// produce an empty reference; saving is not blocked.
func (s Session) OwnerRef() string {
	return record.OwnerRef(s.UID)
}
