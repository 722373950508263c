package auth

import "github.com/tickd-dev/tickd/internal/session"

// Storage is the durable session.Storage for one server: the token lives in
// the OS keyring, the user record in a JSON file under ~/.config/tickd/.
// Binding it to a server name keeps sessions against different backends
// independent, the same way tokens are keyed per server.
type Storage struct {
	Server string
}

// NewStorage returns durable storage for the named server.
func NewStorage(server string) *Storage {
	return &Storage{Server: server}
}

func (s *Storage) Save(rec session.Record) error {
	if err := SaveToken(s.Server, rec.AccessToken); err != nil {
		return err
	}
	return saveUser(s.Server, rec.User)
}

func (s *Storage) Load() (session.Record, error) {
	token, err := LoadToken(s.Server)
	if err != nil {
		return session.Record{}, err
	}
	if token == "" {
		return session.Record{}, nil
	}
	user, err := loadUser(s.Server)
	if err != nil {
		// A corrupt user record should not lock the user out; the token
		// alone is enough to re-derive identity from the API.
		user = nil
	}
	return session.Record{AccessToken: token, User: user}, nil
}

func (s *Storage) Clear() error {
	if err := DeleteToken(s.Server); err != nil {
		return err
	}
	return deleteUser(s.Server)
}
