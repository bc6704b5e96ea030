package ui

import (
	"fmt"
	"strconv"

	"github.com/pterm/pterm"

	"github.com/ohmynofan/tipverse/internal/domain/model"
)

func RenderFeed(posts []model.DisplayPost, emptyMessage string) string {
	if len(posts) == 0 {
		return emptyMessage
	}

	data := pterm.TableData{{"ID", "Author", "Content", "Tips", "Time left", "Posted"}}
	for _, p := range posts {
		author := fmt.Sprintf("%s (@%s)", p.Author.Name, p.Author.Username)
		if p.Author.Verified {
			author += " ✓"
		}
		text := p.Text
		if p.Image != "" {
			text = fmt.Sprintf("%s [image: %s]", text, p.Image)
		}
		data = append(data, []string{p.ID, author, text, strconv.Itoa(p.Stats.Tips), p.TimeRemaining, p.Timestamp})
	}

	out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err.Error()
	}
	return out
}

func RenderLeaderboard(title string, entries []model.LeaderboardEntry) string {
	data := pterm.TableData{{"#", "Tipper", "XP", "Tips"}}
	for _, e := range entries {
		data = append(data, []string{
			fmt.Sprintf("#%d", e.Rank),
			e.Address,
			fmt.Sprintf("%d XP", e.XP),
			strconv.Itoa(e.Tips),
		})
	}
	out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err.Error()
	}
	return pterm.DefaultSection.Sprint(title) + out
}

func RenderPostRanking(title string, ranking []model.PostRanking) string {
	data := pterm.TableData{{"#", "Post", "Creator", "Tips", "XP"}}
	for _, r := range ranking {
		data = append(data, []string{
			fmt.Sprintf("#%d", r.Rank),
			r.PostID,
			"@" + r.Recipient,
			strconv.Itoa(r.Tips),
			fmt.Sprintf("%d", r.XP),
		})
	}
	out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err.Error()
	}
	return pterm.DefaultSection.Sprint(title) + out
}
