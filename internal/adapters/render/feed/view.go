package feed

import (
	"fmt"
	"strings"
	"time"

	"github.com/bnema/feedlink/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

type RenderOptions struct {
	Now time.Time
	// Names resolves author ids for display. Unknown ids print raw.
	Names func(domain.UserID) (domain.User, bool)
}

func RenderSession(session domain.Session) (string, error) {
	return render(func(s styles) string {
		return sessionView(session, s)
	})
}

func RenderTimeline(tweets []domain.Tweet, opts RenderOptions) (string, error) {
	return render(func(s styles) string {
		return timelineView(tweets, opts, s)
	})
}

func RenderTweet(tweet domain.Tweet, opts RenderOptions) (string, error) {
	return render(func(s styles) string {
		return tweetView(tweet, opts, s)
	})
}

func RenderUser(user domain.User) (string, error) {
	return render(func(s styles) string {
		return userView(user, s)
	})
}

func RenderConversation(self domain.UserID, peer domain.UserID, messages []domain.Message, opts RenderOptions) (string, error) {
	return render(func(s styles) string {
		return conversationView(self, peer, messages, opts, s)
	})
}

// RenderMessage renders one conversation line.
func RenderMessage(self domain.UserID, msg domain.Message, opts RenderOptions) (string, error) {
	return render(func(s styles) string {
		return messageLine(self, msg, opts, s)
	})
}

func sessionView(session domain.Session, s styles) string {
	lines := []string{s.title.Render("Session")}

	if !session.Resolved() {
		lines = append(lines, s.warning.Render("not resolved"))
	}

	identity := string(session.User.ID)
	if session.User.IsGuest() {
		identity = "guest"
	}

	lines = append(lines,
		keyValue("user", identity, s),
		keyValue("app", orNone(session.AppID), s),
		keyValue("address", orNone(session.BaseURL), s),
	)
	if len(session.User.HostIDs) > 0 {
		lines = append(lines, keyValue("providers", strings.Join(session.User.HostIDs, ", "), s))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func timelineView(tweets []domain.Tweet, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render("Timeline"),
		s.header.Render(fmt.Sprintf("tweets: %d", len(tweets))),
	}

	if len(tweets) == 0 {
		lines = append(lines, s.empty.Render("Nothing new."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, tweet := range tweets {
		lines = append(lines, s.section.Render(tweetView(tweet, opts, s)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func tweetView(tweet domain.Tweet, opts RenderOptions, s styles) string {
	heading := lipgloss.JoinHorizontal(
		lipgloss.Top,
		authorLabel(tweet.AuthorID, opts, s),
		" ",
		s.meta.Render(fmt.Sprintf("#%d %s", tweet.Rank, formatRelative(tweet.Timestamp, opts.Now))),
	)

	return lipgloss.JoinVertical(
		lipgloss.Left,
		heading,
		s.content.Render(tweet.Content),
		countersLine(tweet, s),
		s.handle.Render("id "+string(tweet.ID)),
	)
}

func countersLine(tweet domain.Tweet, s styles) string {
	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		counter("♥", tweet.Favorites, tweet.Favorited, s),
		"  ",
		counter("⟳", tweet.Retweets, tweet.Retweeted, s),
		"  ",
		counter("⚑", tweet.Bookmarks, tweet.Bookmarked, s),
	)
}

func counter(glyph string, n int, on bool, s styles) string {
	style := s.meta
	if on {
		style = s.active
	}
	return style.Render(fmt.Sprintf("%s %d", glyph, n))
}

func authorLabel(id domain.UserID, opts RenderOptions, s styles) string {
	if opts.Names != nil {
		if user, ok := opts.Names(id); ok && user.Name != "" {
			label := s.author.Render(user.Name)
			if user.Username != "" {
				label += " " + s.handle.Render("@"+user.Username)
			}
			return label
		}
	}
	return s.author.Render(string(id))
}

func userView(user domain.User, s styles) string {
	title := string(user.ID)
	if user.Name != "" {
		title = fmt.Sprintf("%s (%s)", user.Name, user.ID)
	}

	lines := []string{s.author.Render(title)}
	if user.Username != "" {
		lines = append(lines, s.handle.Render("@"+user.Username))
	}
	lines = append(lines, keyValue("address", orNone(user.BaseURL), s))
	if user.WritableURL != "" {
		lines = append(lines, keyValue("writable", user.WritableURL, s))
	}
	if len(user.HostIDs) > 0 {
		lines = append(lines, keyValue("providers", strings.Join(user.HostIDs, ", "), s))
	}
	lines = append(lines, keyValue("following", fmt.Sprintf("%d", len(user.FollowingIDs)), s))

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func conversationView(self domain.UserID, peer domain.UserID, messages []domain.Message, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render("Conversation with " + displayName(peer, opts)),
		s.header.Render(fmt.Sprintf("messages: %d", len(messages))),
	}

	if len(messages) == 0 {
		lines = append(lines, s.empty.Render("No messages yet."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, msg := range messages {
		lines = append(lines, messageLine(self, msg, opts, s))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func messageLine(self domain.UserID, msg domain.Message, opts RenderOptions, s styles) string {
	who := s.peer.Render(displayName(msg.AuthorID, opts))
	if msg.AuthorID == self {
		who = s.self.Render("you")
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.meta.Render(formatClock(msg.Timestamp, opts.Now)),
		" ",
		who,
		": ",
		s.content.Render(msg.Content),
	)
}

func displayName(id domain.UserID, opts RenderOptions) string {
	if opts.Names != nil {
		if user, ok := opts.Names(id); ok && user.Name != "" {
			return user.Name
		}
	}
	return string(id)
}

func keyValue(key string, value string, s styles) string {
	return s.key.Render(key+":") + " " + s.value.Render(value)
}

func orNone(v string) string {
	if v == "" {
		return "none"
	}
	return v
}

func formatRelative(ts, now time.Time) string {
	if ts.IsZero() {
		return ""
	}
	if now.IsZero() {
		return ts.Format(time.RFC3339)
	}

	elapsed := now.Sub(ts)
	switch {
	case elapsed < time.Minute:
		return "just now"
	case elapsed < time.Hour:
		return fmt.Sprintf("%dm ago", int(elapsed.Minutes()))
	case elapsed < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(elapsed.Hours()))
	default:
		return ts.Format("02 Jan 2006")
	}
}

func formatClock(ts, now time.Time) string {
	if ts.IsZero() {
		return "--:--"
	}

	yearA, monthA, dayA := now.Date()
	yearB, monthB, dayB := ts.Date()
	if !now.IsZero() && yearA == yearB && monthA == monthB && dayA == dayB {
		return ts.Format("15:04")
	}

	return ts.Format("15:04 on 02 Jan")
}
