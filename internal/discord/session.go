// Package discord talks to the Discord REST and gateway APIs: member and
// role resolution for the billing engine, channel notices, and the
// websocket event stream that feeds the command dispatcher.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"github.com/CynthiaArdman-Appomni/NightCityBot/internal/model"
)

const apiBase = "https://discord.com/api/v10"

var mentionRE = regexp.MustCompile(`^<@!?(\d+)>$`)

// ParseMention extracts the member ID from a <@123> or <@!123> mention.
func ParseMention(s string) (int64, error) {
	m := mentionRE.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("not a mention: %q", s)
	}
	return strconv.ParseInt(m[1], 10, 64)
}

// Session is an authenticated Discord REST client.
type Session struct {
	Token   string
	BaseURL string
	Client  *http.Client
}

// NewSession creates a session with optional proxy support.
func NewSession(botToken, proxyURL string) *Session {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &Session{
		Token:   botToken,
		BaseURL: apiBase,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

type apiUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Bot      bool   `json:"bot"`
}

type apiMember struct {
	User  apiUser  `json:"user"`
	Nick  string   `json:"nick"`
	Roles []string `json:"roles"`
}

type apiRole struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Send posts a plain text message to the channel.
func (s *Session) Send(channelID, text string) error {
	payload := map[string]string{"content": text}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	endpoint := fmt.Sprintf("%s/channels/%s/messages", s.BaseURL, channelID)
	req, err := http.NewRequest(http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bot "+s.Token)
	resp, err := s.Client.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("discord API error: status %d, body: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// SendWithRetry sends a message with exponential backoff retry.
func (s *Session) SendWithRetry(ctx context.Context, channelID, text string, maxRetries int) error {
	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		if err := s.Send(channelID, text); err != nil {
			lastErr = err
			backoff := time.Duration(1<<uint(i)) * time.Second
			log.Printf("[WARN] Discord send failed (attempt %d/%d): %v, retrying in %v", i+1, maxRetries+1, err, backoff)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
				continue
			}
		}
		return nil
	}
	return fmt.Errorf("all %d retries exhausted: %w", maxRetries+1, lastErr)
}

// GuildRoles returns the guild's role ID → name table.
func (s *Session) GuildRoles(ctx context.Context, guildID string) (map[string]string, error) {
	var roles []apiRole
	endpoint := fmt.Sprintf("%s/guilds/%s/roles", s.BaseURL, guildID)
	if err := s.getJSON(ctx, endpoint, &roles); err != nil {
		return nil, fmt.Errorf("fetch guild roles: %w", err)
	}
	names := make(map[string]string, len(roles))
	for _, r := range roles {
		names[r.ID] = r.Name
	}
	return names, nil
}

// GuildMembers pages through the full member list and resolves role IDs
// to names. Bot accounts are excluded.
func (s *Session) GuildMembers(ctx context.Context, guildID string) ([]model.Member, error) {
	roleNames, err := s.GuildRoles(ctx, guildID)
	if err != nil {
		return nil, err
	}

	var members []model.Member
	after := "0"
	for {
		endpoint := fmt.Sprintf("%s/guilds/%s/members?limit=1000&after=%s", s.BaseURL, guildID, after)
		var page []apiMember
		if err := s.getJSON(ctx, endpoint, &page); err != nil {
			return nil, fmt.Errorf("fetch guild members: %w", err)
		}
		if len(page) == 0 {
			break
		}
		for _, m := range page {
			after = m.User.ID
			if m.User.Bot {
				continue
			}
			id, err := strconv.ParseInt(m.User.ID, 10, 64)
			if err != nil {
				log.Printf("[WARN] skipping member with bad snowflake %q", m.User.ID)
				continue
			}
			name := m.Nick
			if name == "" {
				name = m.User.Username
			}
			roles := make([]string, 0, len(m.Roles))
			for _, rid := range m.Roles {
				if rn, ok := roleNames[rid]; ok {
					roles = append(roles, rn)
				}
			}
			members = append(members, model.Member{ID: id, Name: name, Roles: roles})
		}
		if len(page) < 1000 {
			break
		}
	}
	return members, nil
}

// Member fetches a single guild member by ID with role names resolved.
func (s *Session) Member(ctx context.Context, guildID string, memberID int64) (model.Member, error) {
	roleNames, err := s.GuildRoles(ctx, guildID)
	if err != nil {
		return model.Member{}, err
	}
	endpoint := fmt.Sprintf("%s/guilds/%s/members/%d", s.BaseURL, guildID, memberID)
	var m apiMember
	if err := s.getJSON(ctx, endpoint, &m); err != nil {
		return model.Member{}, fmt.Errorf("fetch member %d: %w", memberID, err)
	}
	name := m.Nick
	if name == "" {
		name = m.User.Username
	}
	roles := make([]string, 0, len(m.Roles))
	for _, rid := range m.Roles {
		if rn, ok := roleNames[rid]; ok {
			roles = append(roles, rn)
		}
	}
	return model.Member{ID: memberID, Name: name, Roles: roles}, nil
}

// AddRole puts the role (by ID) on the member.
func (s *Session) AddRole(ctx context.Context, guildID string, memberID int64, roleID string) error {
	endpoint := fmt.Sprintf("%s/guilds/%s/members/%d/roles/%s", s.BaseURL, guildID, memberID, roleID)
	return s.emptyRequest(ctx, http.MethodPut, endpoint)
}

// RemoveRole deletes the role (by ID) from the member.
func (s *Session) RemoveRole(ctx context.Context, guildID string, memberID int64, roleID string) error {
	endpoint := fmt.Sprintf("%s/guilds/%s/members/%d/roles/%s", s.BaseURL, guildID, memberID, roleID)
	return s.emptyRequest(ctx, http.MethodDelete, endpoint)
}

func (s *Session) getJSON(ctx context.Context, endpoint string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bot "+s.Token)
	resp, err := s.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("discord API error: status %d, body: %s", resp.StatusCode, string(body))
	}
	return json.Unmarshal(body, v)
}

func (s *Session) emptyRequest(ctx context.Context, method, endpoint string) error {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bot "+s.Token)
	resp, err := s.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("discord API error: status %d, body: %s", resp.StatusCode, string(body))
	}
	return nil
}
