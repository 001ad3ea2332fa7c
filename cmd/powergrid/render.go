package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lox/powergrid/internal/board"
	"github.com/lox/powergrid/internal/game"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15"))

	currentStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("10"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#96CEB4")).
			Padding(0, 1)
)

func renderGame(e *game.Engine) string {
	status := fmt.Sprintf("Round %d · %s · %s", e.Round, e.MajorPhase, e.Phase)
	if e.Ended() {
		status += " · game over"
	} else if e.Stalled() {
		status += " · stalled"
	}

	sections := []string{
		titleStyle.Render(status),
		lipgloss.JoinHorizontal(lipgloss.Top,
			boxStyle.Render(renderMarket(e.Board)),
			boxStyle.Render(renderCommodities(e.Board)),
		),
		boxStyle.Render(renderPlayers(e)),
	}
	if e.Auction != nil {
		sections = append(sections, boxStyle.Render(renderAuction(e.Auction)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func renderMarket(b *board.Board) string {
	var sb strings.Builder
	sb.WriteString(headerStyle.Render("Plant market") + "\n")
	sb.WriteString("current " + plantList(b.Market.Current.Plants) + "\n")
	sb.WriteString("future  " + plantList(b.Market.Future.Plants) + "\n")
	sb.WriteString(dimStyle.Render(fmt.Sprintf("draw pile %d", len(b.Draw.Plants.Current)+len(b.Draw.Plants.Future))))
	return sb.String()
}

func renderCommodities(b *board.Board) string {
	var sb strings.Builder
	sb.WriteString(headerStyle.Render("Resources"))
	for _, r := range board.Resources {
		stock := 0
		cheapest := 0
		for _, c := range b.Commodities {
			n := c.Resources.Current[r]
			if n > 0 && cheapest == 0 {
				cheapest = c.Price
			}
			stock += n
		}
		line := fmt.Sprintf("\n%-8s %2d on market", r, stock)
		if cheapest > 0 {
			line += fmt.Sprintf(", from %d", cheapest)
		}
		line += dimStyle.Render(fmt.Sprintf(" (pool %d)", b.Pool.Resources[r]))
		sb.WriteString(line)
	}
	return sb.String()
}

func renderPlayers(e *game.Engine) string {
	var sb strings.Builder
	sb.WriteString(headerStyle.Render("Players"))
	current := e.CurrentPlayer()
	for _, color := range e.TurnOrder {
		p, ok := e.Player(color)
		if !ok {
			continue
		}
		var res []string
		for _, r := range board.Resources {
			if p.Resources[r] > 0 {
				res = append(res, fmt.Sprintf("%s %d", r, p.Resources[r]))
			}
		}
		line := fmt.Sprintf("%-7s $%-4d plants %s", color, p.Money, plantList(p.Plants))
		if len(res) > 0 {
			line += "  " + strings.Join(res, ", ")
		}
		if color == current && !e.Ended() {
			line = currentStyle.Render("▶ " + line)
		} else {
			line = "  " + line
		}
		sb.WriteString("\n" + line)
	}
	return sb.String()
}

func renderAuction(a *game.AuctionState) string {
	bid := "no bid"
	if a.Bid != nil {
		bid = "bid " + strconv.Itoa(*a.Bid)
	}
	parts := make([]string, len(a.Participants))
	for i, p := range a.Participants {
		parts[i] = string(p)
	}
	return fmt.Sprintf("%s plant %d, %s, %s to act (%s)",
		headerStyle.Render("Auction"), a.Plant.Price, bid, a.Current, strings.Join(parts, ", "))
}

func plantList(plants []board.Plant) string {
	if len(plants) == 0 {
		return dimStyle.Render("none")
	}
	out := make([]string, len(plants))
	for i, p := range plants {
		out[i] = strconv.Itoa(p.Price)
	}
	return "[" + strings.Join(out, " ") + "]"
}

// printAvailable lists the legal moves, one per line.
func printAvailable(w io.Writer, e *game.Engine) {
	if e.Ended() {
		fmt.Fprintln(w, "game over")
		return
	}
	available := e.Available()
	if len(available) == 0 {
		fmt.Fprintf(w, "%s has no legal moves\n", e.CurrentPlayer())
		return
	}
	for _, ac := range available {
		fmt.Fprintf(w, "%s %s\n", ac.Player, describeAvailable(ac))
	}
}

func describeAvailable(ac game.AvailableCommand) string {
	switch d := ac.Data.(type) {
	case game.AuctionOptions:
		plants := make([]string, len(d.Plants))
		for i, p := range d.Plants {
			plants[i] = strconv.Itoa(p)
		}
		return fmt.Sprintf("%s <%s>", ac.Move, strings.Join(plants, "|"))
	case game.BidRange:
		return fmt.Sprintf("%s <%d..%d>", ac.Move, d.Range[0], d.Range[1])
	case game.BuyResourceData:
		return fmt.Sprintf("%s %s %d", ac.Move, d.Resource, d.Price)
	case nil:
		return string(ac.Move)
	}
	return fmt.Sprintf("%s %v", ac.Move, ac.Data)
}
