package discord

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/CynthiaArdman-Appomni/NightCityBot/internal/model"
)

// roleCacheTTL bounds how stale the name → role ID table may get before
// a grant forces a refresh.
const roleCacheTTL = 10 * time.Minute

// Adapter binds a Session to one guild and routes billing notices to the
// configured channels by purpose ("rent", "eviction", ...).
type Adapter struct {
	Session  *Session
	GuildID  string
	Channels map[string]string // purpose → channel ID

	mu        sync.Mutex
	roleIDs   map[string]string // role name → role ID
	fetchedAt time.Time
}

// NewAdapter wires a guild-scoped adapter.
func NewAdapter(s *Session, guildID string, channels map[string]string) *Adapter {
	return &Adapter{Session: s, GuildID: guildID, Channels: channels}
}

// Members resolves the guild's full member list.
func (a *Adapter) Members(ctx context.Context) ([]model.Member, error) {
	return a.Session.GuildMembers(ctx, a.GuildID)
}

// Member resolves a single guild member.
func (a *Adapter) Member(ctx context.Context, memberID int64) (model.Member, error) {
	return a.Session.Member(ctx, a.GuildID, memberID)
}

// GrantRole puts the named role on the member.
func (a *Adapter) GrantRole(ctx context.Context, memberID int64, role string) error {
	id, err := a.roleID(ctx, role)
	if err != nil {
		return err
	}
	return a.Session.AddRole(ctx, a.GuildID, memberID, id)
}

// RevokeRole removes the named role from the member.
func (a *Adapter) RevokeRole(ctx context.Context, memberID int64, role string) error {
	id, err := a.roleID(ctx, role)
	if err != nil {
		return err
	}
	return a.Session.RemoveRole(ctx, a.GuildID, memberID, id)
}

// Notify posts to the channel registered for the purpose. Unknown
// purposes are logged and dropped rather than failed, so a missing
// channel binding never aborts a billing run.
func (a *Adapter) Notify(ctx context.Context, purpose, message string) error {
	channelID, ok := a.Channels[purpose]
	if !ok || channelID == "" {
		log.Printf("[WARN] no channel bound for %q notices, dropping: %s", purpose, message)
		return nil
	}
	return a.Session.SendWithRetry(ctx, channelID, message, 2)
}

func (a *Adapter) roleID(ctx context.Context, name string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.roleIDs == nil || time.Since(a.fetchedAt) > roleCacheTTL {
		byID, err := a.Session.GuildRoles(ctx, a.GuildID)
		if err != nil {
			return "", err
		}
		a.roleIDs = make(map[string]string, len(byID))
		for id, n := range byID {
			a.roleIDs[n] = id
		}
		a.fetchedAt = time.Now()
	}
	id, ok := a.roleIDs[name]
	if !ok {
		return "", fmt.Errorf("role %q not found in guild %s", name, a.GuildID)
	}
	return id, nil
}
