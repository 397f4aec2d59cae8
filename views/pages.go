package views

import (
	"context"
	"io"
	"strconv"

	"github.com/AdamBeresnev/beerpong/internal/bracket"
	"github.com/AdamBeresnev/beerpong/internal/service"
	"github.com/AdamBeresnev/beerpong/internal/store"
	users "github.com/AdamBeresnev/beerpong/internal/user"
	"github.com/a-h/templ"
	"github.com/google/uuid"
)

type IndexData struct {
	User        *users.User
	Tournaments []store.TournamentRecord
}

type TournamentPage struct {
	Snapshot    service.TournamentSnapshot
	Bracket     BracketData
	IsOrganizer bool
	// Team is the team logged in for this tournament, if any
	Team *service.TeamView
}

func (p TournamentPage) LastRound() int {
	if len(p.Bracket.RoundNums) == 0 {
		return 0
	}
	return p.Bracket.RoundNums[len(p.Bracket.RoundNums)-1]
}

// CanScore tells whether the viewer may report the score of b.
func (p TournamentPage) CanScore(b service.BracketView) bool {
	if !b.Playable {
		return false
	}
	if p.IsOrganizer {
		return true
	}
	if p.Team == nil {
		return false
	}
	return sameTeam(b.Left, p.Team) || sameTeam(b.Right, p.Team)
}

type TeamRegisteredData struct {
	TournamentID uuid.UUID
	Team         service.RegisteredTeam
}

func LoginPage() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.component(ctx, head("Login"))
		h.raw(`<h1>Beer Pong</h1>
<p><a href="/auth/discord">Log in with Discord</a></p>
<p><a href="/auth/google">Log in with Google</a></p>
<form method="post" action="/auth/guest"><button type="submit">Continue as guest</button></form>
`)
		h.component(ctx, foot())
		return h.err
	})
}

func Index(data IndexData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.component(ctx, head("Tournaments"))
		h.raw("<header>\n")
		if data.User != nil {
			h.raw("<span>")
			h.text(data.User.Username)
			h.raw("</span>\n")
		}
		h.raw(`<form method="post" action="/logout" style="display:inline"><button type="submit">Log out</button></form>
</header>
<h1>Your tournaments</h1>
`)
		if len(data.Tournaments) == 0 {
			h.raw("<p>No tournaments yet.</p>\n")
		} else {
			h.raw("<ul>\n")
			for _, t := range data.Tournaments {
				h.raw(`<li><a href="`)
				h.text(tournamentURL(t.ID))
				h.raw(`">`)
				h.text(t.Name)
				h.raw("</a> (")
				h.text(string(t.Status))
				h.raw(")</li>\n")
			}
			h.raw("</ul>\n")
		}
		h.raw(`<h2>New tournament</h2>
<form method="post" action="/tournaments">
<input name="name" required maxlength="100" placeholder="Name">
<button type="submit">Create</button>
</form>
`)
		h.component(ctx, foot())
		return h.err
	})
}

func TournamentView(data TournamentPage) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		snapshot := data.Snapshot
		base := tournamentURL(snapshot.ID)

		h := &htmlWriter{w: w}
		h.component(ctx, head(snapshot.Name))
		h.raw("<h1>")
		h.text(snapshot.Name)
		h.raw("</h1>\n<p>Status: ")
		h.text(string(snapshot.Status))
		h.raw("</p>\n")
		if snapshot.Champion != nil {
			h.raw(`<p class="champion">Champion: `)
			h.text(snapshot.Champion.Name)
			h.raw("</p>\n")
		}

		last := data.LastRound()
		h.raw(`<div class="rounds">` + "\n")
		for _, round := range data.Bracket.RoundNums {
			h.raw(`<section class="round">` + "\n<h3>")
			h.text(RoundName(round, last))
			h.raw("</h3>\n")
			for _, b := range data.Bracket.Rounds[round] {
				h.component(ctx, bracketCard(data, b))
			}
			h.raw("</section>\n")
		}
		h.raw("</div>\n")

		if data.Team != nil {
			h.raw("<p>Playing as <strong>")
			h.text(data.Team.Name)
			h.raw("</strong></p>\n")
		} else {
			h.raw(`<h2>Team login</h2>
<form method="post" action="`)
			h.text(base + "/team-login")
			h.raw(`">
<input name="team" required placeholder="Team name">
<input name="credential" required maxlength="4" placeholder="Code" autocomplete="off">
<button type="submit">Log in</button>
</form>
`)
		}

		if data.IsOrganizer {
			h.raw(`<h2>Register team</h2>
<form method="post" action="`)
			h.text(base + "/teams")
			h.raw(`">
<input name="name" required maxlength="50" placeholder="Team name">
<button type="submit">Register</button>
</form>
<h2>Add bracket</h2>
<form method="post" action="`)
			h.text(base + "/brackets")
			h.raw("\">\n<select name=\"left\">")
			h.component(ctx, slotOptions(snapshot))
			h.raw("</select>\n<select name=\"right\">")
			h.component(ctx, slotOptions(snapshot))
			h.raw("</select>\n<button type=\"submit\">Add</button>\n</form>\n")
		}

		// A UUID needs no escaping inside the script
		h.raw(`<script>
(function () {
  var proto = location.protocol === "https:" ? "wss://" : "ws://";
  var ws = new WebSocket(proto + location.host + "` + base + `/live");
  var first = true;
  ws.onmessage = function () {
    if (first) { first = false; return; }
    location.reload();
  };
})();
</script>
`)
		h.component(ctx, foot())
		return h.err
	})
}

// TeamRegistered is the only place a team credential is ever shown.
func TeamRegistered(data TeamRegisteredData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.component(ctx, head("Team registered"))
		h.raw("<h1>")
		h.text(data.Team.Name)
		h.raw(` is registered</h1>
<p>This code is shown only once. Write it down, the team needs it to report scores.</p>
<p class="credential">`)
		h.text(data.Team.Credential)
		h.raw(`</p>
<p><a href="`)
		h.text(tournamentURL(data.TournamentID))
		h.raw("\">Back to the tournament</a></p>\n")
		h.component(ctx, foot())
		return h.err
	})
}

func head(title string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>`)
		h.text(title)
		h.raw(` · Beer Pong</title>
<style>
body { font-family: system-ui, sans-serif; margin: 2rem; }
.rounds { display: flex; gap: 2rem; }
.round { display: flex; flex-direction: column; justify-content: space-around; gap: 1rem; }
.bracket { border: 1px solid #ccc; border-radius: 6px; padding: .5rem; min-width: 12rem; }
.bracket.played { opacity: .7; }
.winner { font-weight: bold; }
.champion { font-size: 1.5rem; }
.credential { font-family: monospace; font-size: 2rem; letter-spacing: .3rem; }
</style>
</head>
<body>
`)
		return h.err
	})
}

func foot() templ.Component {
	return templ.Raw("</body>\n</html>\n")
}

func bracketCard(page TournamentPage, b service.BracketView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		class := "bracket"
		if b.Played {
			class += " played"
		}
		h.raw(`<div class="` + class + `" id="bracket-`)
		h.text(b.ID.String())
		h.raw("\">\n<small>")
		h.text(stateLabel(b.State))
		h.raw("</small>\n")

		sides := []struct {
			team  *service.TeamView
			tally func(*service.ScoreView) int
		}{
			{b.Left, func(s *service.ScoreView) int { return s.Left }},
			{b.Right, func(s *service.ScoreView) int { return s.Right }},
		}
		for _, side := range sides {
			if sameTeam(b.Winner, side.team) {
				h.raw(`<div class="winner">`)
			} else {
				h.raw("<div>")
			}
			if side.team != nil {
				h.text(side.team.Name)
			} else {
				h.raw("TBD")
			}
			if b.Score != nil {
				h.raw(" " + strconv.Itoa(side.tally(b.Score)))
			}
			h.raw("</div>\n")
		}

		if page.CanScore(b) {
			h.raw(`<form method="post" action="`)
			h.text(tournamentURL(page.Snapshot.ID) + "/brackets/" + b.ID.String() + "/score")
			h.raw(`">
<input name="left" type="number" min="0" required size="3">
<input name="right" type="number" min="0" required size="3">
<button type="submit">Save score</button>
</form>
`)
		}
		h.raw("</div>\n")
		return h.err
	})
}

func slotOptions(snapshot service.TournamentSnapshot) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw(`<option value="empty">(empty)</option>` + "\n")
		for _, t := range snapshot.Teams {
			h.raw(`<option value="team:`)
			h.text(t.ID.String())
			h.raw(`">`)
			h.text(t.Name)
			h.raw("</option>\n")
		}
		for _, b := range snapshot.Brackets {
			h.raw(`<option value="bracket:`)
			h.text(b.ID.String())
			h.raw(`">Winner of bracket `)
			h.text(b.ID.String())
			h.raw("</option>\n")
		}
		return h.err
	})
}

func stateLabel(s bracket.State) string {
	switch s {
	case bracket.StatePending:
		return "waiting"
	case bracket.StateAutoResolved:
		return "bye"
	case bracket.StatePlayable:
		return "ready"
	case bracket.StatePlayed:
		return "played"
	}
	return "empty"
}

func sameTeam(a, b *service.TeamView) bool {
	return a != nil && b != nil && a.ID == b.ID
}

func tournamentURL(id uuid.UUID) string {
	return "/tournaments/" + id.String()
}
