// cookiejar/persist.go
package cookiejar

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/afero"
)

// persistedCookie is the on-disk representation of a stored cookie.
type persistedCookie struct {
	Name     string    `json:"name"`
	Value    string    `json:"value"`
	Domain   string    `json:"domain"`
	Path     string    `json:"path"`
	Expires  time.Time `json:"expires,omitempty"`
	Secure   bool      `json:"secure,omitempty"`
	HttpOnly bool      `json:"http_only,omitempty"`
	HostOnly bool      `json:"host_only,omitempty"`
}

// Save writes the jar's unexpired cookies to path as JSON. The file round-trips
// through Load without loss of scoping information.
func (j *Jar) Save(fs afero.Fs, path string) error {
	now := time.Now()

	j.mu.RLock()
	persisted := make([]persistedCookie, 0, len(j.entries))
	for _, e := range j.entries {
		if e.expired(now) {
			continue
		}
		persisted = append(persisted, persistedCookie{
			Name:     e.cookie.Name,
			Value:    e.cookie.Value,
			Domain:   e.cookie.Domain,
			Path:     e.cookie.Path,
			Expires:  e.expires,
			Secure:   e.cookie.Secure,
			HttpOnly: e.cookie.HttpOnly,
			HostOnly: e.hostOnly,
		})
	}
	j.mu.RUnlock()

	data, err := json.MarshalIndent(persisted, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize cookie jar: %w", err)
	}

	if err := afero.WriteFile(fs, path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write cookie jar to %s: %w", path, err)
	}
	return nil
}

// Load reads cookies previously written by Save and merges them into the jar.
func (j *Jar) Load(fs afero.Fs, path string) error {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return fmt.Errorf("failed to read cookie jar from %s: %w", path, err)
	}

	var persisted []persistedCookie
	if err := json.Unmarshal(data, &persisted); err != nil {
		return fmt.Errorf("failed to parse cookie jar file %s: %w", path, err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	for _, p := range persisted {
		j.installLocked(&http.Cookie{
			Name:     p.Name,
			Value:    p.Value,
			Domain:   p.Domain,
			Path:     p.Path,
			Expires:  p.Expires,
			Secure:   p.Secure,
			HttpOnly: p.HttpOnly,
		}, p.HostOnly)
	}
	return nil
}
