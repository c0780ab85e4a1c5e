// Package ingestion builds social graphs from seed files and keeps a storage
// backend in sync with them.
package ingestion

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"

	"github.com/Benny93/socialgraph-go/internal/graph"
)

// seedNamespace derives stable user IDs from seed handles.
var seedNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/Benny93/socialgraph-go/seed"))

// SeedFile is the decoded form of a TOML seed file.
//
// Example:
//
//	[[users]]
//	handle = "terry"
//	name = "Terry Gilliam"
//	follows = ["eric"]
//	posts = ["Hello"]
type SeedFile struct {
	Users []SeedUser `toml:"users"`
}

// SeedUser describes one user in a seed file.
type SeedUser struct {
	// Handle names the user within the file; follows refer to handles.
	Handle string `toml:"handle"`

	// Name is the display name. Defaults to Handle.
	Name string `toml:"name"`

	// ID optionally pins the user's UUID. When empty the ID is derived
	// from the handle, so reseeding yields the same IDs.
	ID string `toml:"id"`

	// Follows lists handles of users this user follows.
	Follows []string `toml:"follows"`

	// Posts lists post contents, oldest first.
	Posts []string `toml:"posts"`
}

// SeedResult summarizes what ApplySeed changed.
type SeedResult struct {
	UsersCreated int `json:"users_created"`
	UsersKept    int `json:"users_kept"`
	Follows      int `json:"follows"`
	Posts        int `json:"posts"`
}

// ParseSeed decodes TOML seed data. Unknown keys are rejected.
func ParseSeed(data string) (*SeedFile, error) {
	var seed SeedFile
	md, err := toml.Decode(data, &seed)
	if err != nil {
		return nil, fmt.Errorf("decoding seed: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("decoding seed: unknown keys: %s", strings.Join(keys, ", "))
	}
	return &seed, nil
}

// LoadSeed reads and decodes a seed file.
func LoadSeed(path string) (*SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed %s: %w", path, err)
	}
	return ParseSeed(string(data))
}

// Resolve validates the seed and returns the user ID for every handle.
func (s *SeedFile) Resolve() (map[string]uuid.UUID, error) {
	ids := make(map[string]uuid.UUID, len(s.Users))
	seen := make(map[uuid.UUID]string, len(s.Users))

	for i, u := range s.Users {
		if u.Handle == "" {
			return nil, fmt.Errorf("seed user #%d: missing handle", i+1)
		}
		if _, dup := ids[u.Handle]; dup {
			return nil, fmt.Errorf("seed user %q: duplicate handle", u.Handle)
		}

		id := uuid.NewSHA1(seedNamespace, []byte(u.Handle))
		if u.ID != "" {
			parsed, err := uuid.Parse(u.ID)
			if err != nil {
				return nil, fmt.Errorf("seed user %q: invalid id: %w", u.Handle, err)
			}
			id = parsed
		}
		if other, dup := seen[id]; dup {
			return nil, fmt.Errorf("seed user %q: id %s already used by %q", u.Handle, id, other)
		}
		seen[id] = u.Handle
		ids[u.Handle] = id
	}

	for _, u := range s.Users {
		for _, followee := range u.Follows {
			if _, ok := ids[followee]; !ok {
				return nil, fmt.Errorf("seed user %q: follows unknown handle %q", u.Handle, followee)
			}
		}
	}

	return ids, nil
}

// ApplySeed adds the seed's users, posts and follows to g.
//
// The seed is validated before g is touched. Users already registered in g
// are kept as they are, and posts are only added for users this call
// creates, so applying the same seed twice changes nothing.
func ApplySeed(g *graph.SocialGraph, s *SeedFile) (*SeedResult, error) {
	ids, err := s.Resolve()
	if err != nil {
		return nil, err
	}

	result := &SeedResult{}

	for _, su := range s.Users {
		id := ids[su.Handle]
		if _, err := g.GetUser(id); err == nil {
			result.UsersKept++
			continue
		}

		name := su.Name
		if name == "" {
			name = su.Handle
		}

		u := graph.RestoreUser(id, name, nil)
		for _, content := range su.Posts {
			u.AddPost(content)
			result.Posts++
		}
		if err := g.AddUser(u); err != nil {
			return result, fmt.Errorf("adding seed user %q: %w", su.Handle, err)
		}
		result.UsersCreated++
	}

	for _, su := range s.Users {
		for _, followee := range su.Follows {
			if err := g.Follow(ids[su.Handle], ids[followee]); err != nil {
				return result, fmt.Errorf("seed user %q following %q: %w", su.Handle, followee, err)
			}
			result.Follows++
		}
	}

	return result, nil
}
