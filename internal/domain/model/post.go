package model

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"
)

const (
	defaultAuthorName     = "Anonymous"
	blankAuthorName       = "Unknown User"
	defaultUsername       = "unknown"
	defaultAvatar         = "/api/placeholder/40/40"
	blankAvatar           = "/default-avatar.png"
	defaultText           = "No content"
	defaultTimeRemaining  = "24h"
	defaultTipAmount      = "0 USDC"
	defaultViralPotential = "Normal"
	defaultEarnings       = "$0"
	defaultPreferredToken = "USDC"

	timestampLayout = "1/2/2006, 3:04:05 PM"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// Profile is the signed-in user as seen by the feed.
type Profile struct {
	UID         string
	DisplayName string
	PhotoURL    string
	Email       string
}

func (p *Profile) Username() string {
	if p == nil || p.DisplayName == "" {
		return "user"
	}
	return strings.ToLower(whitespaceRun.ReplaceAllString(p.DisplayName, "_"))
}

type Author struct {
	Name     string
	Username string
	Avatar   string
	Verified bool
}

type PostStats struct {
	Tips              int
	TipAmount         string
	Comments          int
	TimeRemaining     string
	ViralPotential    string
	EstimatedReach    int
	EstimatedEarnings string
}

// DisplayPost is the typed shape of a feed card. Records from the document
// store are mapped into it by DisplayPostFromRecord.
type DisplayPost struct {
	ID            string
	UserID        string
	Author        Author
	Text          string
	Image         string
	Timestamp     string
	TimeRemaining string
	Stats         PostStats
}

func (p DisplayPost) Recipient() Recipient {
	return Recipient{Username: p.Author.Username, Name: p.Author.Name}
}

func (p DisplayPost) ContentRef() ContentRef {
	return ContentRef{PostID: p.ID, Text: p.Text, TimeRemaining: p.TimeRemaining}
}

func DisplayPostFromRecord(id string, record map[string]any, current *Profile) DisplayPost {
	author, _ := record["author"].(map[string]any)

	name := stringOr(author, "name", defaultAuthorName)
	username := stringOr(author, "username", defaultUsername)
	avatar := stringOr(author, "avatar", defaultAvatar)
	verified, _ := author["verified"].(bool)

	userID, _ := record["userId"].(string)
	if userID != "" && current != nil && current.UID == userID {
		if current.DisplayName != "" {
			name = current.DisplayName
			username = current.Username()
		}
		if current.PhotoURL != "" {
			avatar = current.PhotoURL
		}
		verified = true
	}

	if strings.TrimSpace(name) == "" {
		name = blankAuthorName
	}
	if strings.TrimSpace(avatar) == "" {
		avatar = blankAvatar
	}
	if strings.TrimSpace(username) == "" {
		username = defaultUsername
	}

	image := ""
	if kind, _ := record["type"].(string); kind == "image" {
		image, _ = record["imageUrl"].(string)
	}

	text := stringOr(record, "content", "")
	if text == "" {
		text = stringOr(record, "text", defaultText)
	}

	timeRemaining := stringOr(record, "timeRemaining", defaultTimeRemaining)

	return DisplayPost{
		ID:     id,
		UserID: userID,
		Author: Author{
			Name:     name,
			Username: username,
			Avatar:   avatar,
			Verified: verified,
		},
		Text:          text,
		Image:         image,
		Timestamp:     formatCreatedAt(record["createdAt"]),
		TimeRemaining: timeRemaining,
		Stats: PostStats{
			Tips:              intOr(record, "tips"),
			TipAmount:         stringOr(record, "tipAmount", defaultTipAmount),
			Comments:          intOr(record, "comments"),
			TimeRemaining:     timeRemaining,
			ViralPotential:    stringOr(record, "viralPotential", defaultViralPotential),
			EstimatedReach:    intOr(record, "estimatedReach"),
			EstimatedEarnings: stringOr(record, "estimatedEarnings", defaultEarnings),
		},
	}
}

// NewPostRecord builds the document written for a new post.
func NewPostRecord(author *Profile, content, kind, token, imageURL string, now time.Time) map[string]any {
	if kind == "" {
		kind = "text"
	}
	if token == "" {
		token = defaultPreferredToken
	}

	rec := map[string]any{
		"content":   content,
		"type":      kind,
		"token":     token,
		"imageUrl":  nil,
		"createdAt": map[string]any{"seconds": now.Unix(), "nanoseconds": now.Nanosecond()},
		"userId":    nil,
	}
	if imageURL != "" {
		rec["imageUrl"] = imageURL
	}

	if author != nil && author.UID != "" {
		name := author.DisplayName
		if name == "" {
			name = "User"
		}
		avatar := author.PhotoURL
		if avatar == "" {
			avatar = defaultAvatar
		}
		rec["userId"] = author.UID
		rec["author"] = map[string]any{
			"name":     name,
			"username": author.Username(),
			"avatar":   avatar,
			"verified": true,
			"uid":      author.UID,
		}
		return rec
	}

	rec["author"] = map[string]any{
		"name":     "User",
		"username": "user",
		"avatar":   defaultAvatar,
		"verified": false,
		"uid":      "",
	}
	return rec
}

func stringOr(m map[string]any, key, fallback string) string {
	if m == nil {
		return fallback
	}
	if v, ok := m[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func intOr(m map[string]any, key string) int {
	n, _ := number(m[key])
	return int(n)
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func formatCreatedAt(v any) string {
	ts, ok := v.(map[string]any)
	if !ok {
		return ""
	}
	secs, ok := number(ts["seconds"])
	if !ok || secs == 0 {
		return ""
	}
	return time.Unix(int64(secs), 0).Format(timestampLayout)
}
