package db

import (
	"strings"

	"github.com/teranos/cspace/errors"
)

// ErrDatabaseClosed is returned when operations are attempted on a closed database.
var ErrDatabaseClosed = errors.New("database is closed")

// IsDatabaseClosed reports whether err is ErrDatabaseClosed or a raw driver
// error saying the same. The driver's errors cannot be wrapped at the source,
// so its message is matched as a fallback.
func IsDatabaseClosed(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDatabaseClosed) {
		return true
	}
	return strings.Contains(err.Error(), "database is closed")
}

// Classify maps a raw driver error onto ErrDatabaseClosed when it means the
// connection is gone, and leaves other errors untouched.
func Classify(err error) error {
	if err == nil || errors.Is(err, ErrDatabaseClosed) || !IsDatabaseClosed(err) {
		return err
	}
	return errors.WithHint(errors.Mark(err, ErrDatabaseClosed), "the database was closed before the operation finished")
}
