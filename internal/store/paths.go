package store

// Canonical document layout. uid is the user key resolved once by the
// adapter (for Telegram, the decimal chat id) — there is exactly one
// resolution and no fallback key scheme.
//
//	users/<uid>/profile          chat id, reminder schedule
//	users/<uid>/config           weekly days off
//	users/<uid>/days/<date>      one status per calendar day
//	users/<uid>/sessions/<id>    named date ranges
//	users/<uid>/selection        the single selected-session record

func ProfilePath(uid string) string { return "users/" + uid + "/profile" }

func ConfigPath(uid string) string { return "users/" + uid + "/config" }

func DayPath(uid, date string) string { return "users/" + uid + "/days/" + date }

func DaysPrefix(uid string) string { return "users/" + uid + "/days/" }

func SessionPath(uid, id string) string { return "users/" + uid + "/sessions/" + id }

func SessionsPrefix(uid string) string { return "users/" + uid + "/sessions/" }

func SelectionPath(uid string) string { return "users/" + uid + "/selection" }

func UsersPrefix() string { return "users/" }
