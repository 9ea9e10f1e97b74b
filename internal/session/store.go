package session

import (
	"sync"
	"time"
)

// Profile is the brand setup a user builds up before generating campaigns.
type Profile struct {
	UserID     int64
	Username   string
	Name       string
	Phone      string
	Palette    []string
	BrandColor string
	Style      string
	Strategy   string
	Aspect     string
	Isolate    bool
	Complex    bool
	Pro        bool
	// AwaitingLogo is set by /logo: the next photo is the brand logo.
	AwaitingLogo bool
	UpdatedAt    time.Time

	generation uint64
}

type Options struct {
	Now func() time.Time
}

type Store struct {
	mu       sync.Mutex
	profiles map[int64]*Profile
	now      func() time.Time
}

func NewStore(opts Options) *Store {
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Store{
		profiles: make(map[int64]*Profile),
		now:      now,
	}
}

// Get returns a copy of the user's profile, creating an empty one if needed.
func (s *Store) Get(userID int64, username string) Profile {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.getOrCreateLocked(userID, username).clone()
}

// Update applies fn to the stored profile under the lock and returns a copy.
func (s *Store) Update(userID int64, username string, fn func(p *Profile)) Profile {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.getOrCreateLocked(userID, username)
	fn(p)
	p.UpdatedAt = s.now()
	return p.clone()
}

// SetPalette stores the extracted logo palette. The first swatch becomes the
// brand color when none was chosen yet.
func (s *Store) SetPalette(userID int64, username string, palette []string) Profile {
	return s.Update(userID, username, func(p *Profile) {
		p.Palette = append([]string(nil), palette...)
		p.AwaitingLogo = false
		if p.BrandColor == "" && len(palette) > 0 {
			p.BrandColor = palette[0]
		}
	})
}

// BeginGeneration starts a new generation for the user and returns its
// number. Results of older generations are stale.
func (s *Store) BeginGeneration(userID int64, username string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.getOrCreateLocked(userID, username)
	p.generation++
	return p.generation
}

// IsCurrent reports whether gen is still the user's latest generation.
func (s *Store) IsCurrent(userID int64, gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[userID]
	return ok && p.generation == gen
}

// Clear resets the profile but keeps the generation counter so in-flight
// results are still recognised as stale.
func (s *Store) Clear(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.profiles[userID]; ok {
		*p = Profile{
			UserID:     p.UserID,
			Username:   p.Username,
			UpdatedAt:  s.now(),
			generation: p.generation + 1,
		}
	}
}

func (s *Store) getOrCreateLocked(userID int64, username string) *Profile {
	if p, ok := s.profiles[userID]; ok {
		if p.Username == "" && username != "" {
			p.Username = username
		}
		return p
	}

	p := &Profile{
		UserID:    userID,
		Username:  username,
		UpdatedAt: s.now(),
	}
	s.profiles[userID] = p
	return p
}

func (p *Profile) clone() Profile {
	out := *p
	out.Palette = append([]string(nil), p.Palette...)
	return out
}
