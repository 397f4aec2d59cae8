package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/AdamBeresnev/beerpong/internal/bracket"
	"github.com/AdamBeresnev/beerpong/internal/config"
	"github.com/AdamBeresnev/beerpong/internal/httputil"
	"github.com/AdamBeresnev/beerpong/internal/live"
	"github.com/AdamBeresnev/beerpong/internal/middleware"
	"github.com/AdamBeresnev/beerpong/internal/service"
	"github.com/AdamBeresnev/beerpong/internal/store"
	"github.com/AdamBeresnev/beerpong/views"
	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jonboulle/clockwork"
	"github.com/markbates/goth/gothic"
)

type application struct {
	cfg            *config.Config
	sessionManager *scs.SessionManager
	hub            *live.Hub
	userStore      *store.UserStore
	tournaments    *service.TournamentService
	scores         *service.ScoreService
	users          *service.UserService
}

func newApplication(cfg *config.Config, db *sqlx.DB, sessionManager *scs.SessionManager, hub *live.Hub, clock clockwork.Clock) *application {
	tournamentStore := store.NewTournamentStore(db)
	userStore := store.NewUserStore(db)
	return &application{
		cfg:            cfg,
		sessionManager: sessionManager,
		hub:            hub,
		userStore:      userStore,
		tournaments:    service.NewTournamentService(db, tournamentStore, clock),
		scores:         service.NewScoreService(db, tournamentStore, clock, hub),
		users:          service.NewUserService(db, userStore),
	}
}

func (app *application) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	// The live socket stays outside the session middleware, it only reads
	r.Get("/tournaments/{id}/live", app.liveTournament)

	r.Group(func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   app.cfg.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut},
			AllowedHeaders:   []string{"Accept", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
		r.Use(app.sessionManager.LoadAndSave)
		r.Use(middleware.LoadAuthenticatedUser(app.sessionManager, app.userStore))

		r.Get("/login", func(w http.ResponseWriter, r *http.Request) {
			views.Render(w, r, views.LoginPage())
		})
		r.Get("/auth/{provider}", func(w http.ResponseWriter, r *http.Request) {
			r = withProvider(r)
			gothic.BeginAuthHandler(w, r)
		})
		r.Get("/auth/{provider}/callback", app.authCallback)
		r.Post("/auth/guest", app.guestLogin)
		r.Post("/logout", func(w http.ResponseWriter, r *http.Request) {
			if err := app.sessionManager.Destroy(r.Context()); err != nil {
				httputil.InternalServerError(w, "Failed to log out", err)
				return
			}
			http.Redirect(w, r, "/login", http.StatusSeeOther)
		})

		r.Get("/tournaments/{id}", app.showTournament)
		r.Get("/api/tournaments/{id}", app.tournamentJSON)
		r.Post("/tournaments/{id}/team-login", app.teamLogin)
		r.Post("/tournaments/{id}/brackets/{bracketID}/score", app.setScore)

		// Winners, scores and credentials are never written directly
		r.Put("/tournaments/{id}/brackets/{bracketID}/winner", app.assignWinner)
		r.Put("/tournaments/{id}/brackets/{bracketID}/score-value", app.assignScore)
		r.Put("/tournaments/{id}/teams/{teamID}/credential", app.assignCredential)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)

			r.Get("/", app.index)
			r.Post("/tournaments", app.createTournament)
			r.Post("/tournaments/{id}/teams", app.registerTeam)
			r.Post("/tournaments/{id}/brackets", app.addBracket)
		})
	})

	return r
}

func withProvider(r *http.Request) *http.Request {
	return gothic.GetContextWithProvider(r, chi.URLParam(r, "provider"))
}

func (app *application) authCallback(w http.ResponseWriter, r *http.Request) {
	r = withProvider(r)

	gothUser, err := gothic.CompleteUserAuth(w, r)
	if err != nil {
		httputil.BadRequest(w, "Authentication failure", err)
		return
	}

	user, err := app.users.FindOrCreateUserByProvider(r.Context(), gothUser)
	if err != nil {
		httputil.InternalServerError(w, "Failed to find or create user", err)
		return
	}

	if err := middleware.LoginUser(r.Context(), app.sessionManager, user.ID); err != nil {
		httputil.InternalServerError(w, "Failed to start session", err)
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

func (app *application) guestLogin(w http.ResponseWriter, r *http.Request) {
	user, err := app.users.EnsureGuestUser(r.Context())
	if err != nil {
		httputil.InternalServerError(w, "Failed to login as guest", err)
		return
	}

	if err := middleware.LoginUser(r.Context(), app.sessionManager, user.ID); err != nil {
		httputil.InternalServerError(w, "Failed to start session", err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (app *application) index(w http.ResponseWriter, r *http.Request) {
	tournaments, err := app.tournaments.GetTournamentsForUser(r.Context())
	if err != nil {
		httputil.InternalServerError(w, "Failed to get tournaments", err)
		return
	}
	views.Render(w, r, views.Index(views.IndexData{
		User:        views.GetUser(r.Context()),
		Tournaments: tournaments,
	}))
}

func (app *application) createTournament(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httputil.BadRequest(w, "Invalid form data", err)
		return
	}

	id, err := app.tournaments.CreateTournament(r.Context(), strings.TrimSpace(r.Form.Get("name")))
	if err != nil {
		httputil.Error(w, "Failed to create tournament", err)
		return
	}
	http.Redirect(w, r, fmt.Sprintf("/tournaments/%s", id), http.StatusSeeOther)
}

func (app *application) registerTeam(w http.ResponseWriter, r *http.Request) {
	tournament, ok := app.organizerTournament(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		httputil.BadRequest(w, "Invalid form data", err)
		return
	}

	team, err := app.tournaments.RegisterTeam(r.Context(), tournament.ID, strings.TrimSpace(r.Form.Get("name")))
	if err != nil {
		httputil.Error(w, "Failed to register team", err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	views.Render(w, r, views.TeamRegistered(views.TeamRegisteredData{
		TournamentID: tournament.ID,
		Team:         *team,
	}))
}

func (app *application) addBracket(w http.ResponseWriter, r *http.Request) {
	tournament, ok := app.organizerTournament(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		httputil.BadRequest(w, "Invalid form data", err)
		return
	}

	left, err := parseSlotRef(r.Form.Get("left"))
	if err != nil {
		httputil.Error(w, "Invalid left side", err)
		return
	}
	right, err := parseSlotRef(r.Form.Get("right"))
	if err != nil {
		httputil.Error(w, "Invalid right side", err)
		return
	}

	if _, err := app.tournaments.AddBracket(r.Context(), tournament.ID, left, right); err != nil {
		httputil.Error(w, "Failed to add bracket", err)
		return
	}
	http.Redirect(w, r, fmt.Sprintf("/tournaments/%s", tournament.ID), http.StatusSeeOther)
}

// parseSlotRef reads "empty", "team:<id>" or "bracket:<id>".
func parseSlotRef(value string) (bracket.SlotRef, error) {
	kindStr, idStr, _ := strings.Cut(value, ":")
	kind, err := bracket.ParseSlotKind(kindStr)
	if err != nil {
		return bracket.SlotRef{}, err
	}
	if kind == bracket.SlotEmpty {
		return bracket.EmptyRef(), nil
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return bracket.SlotRef{}, fmt.Errorf("%w: invalid %s id %q", bracket.ErrValidation, kind, idStr)
	}
	return bracket.SlotRef{Kind: kind, ID: id}, nil
}

func (app *application) loadTournament(w http.ResponseWriter, r *http.Request) (*bracket.Tournament, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.NotFound(w, "Tournament not found", err)
		return nil, false
	}
	tournament, err := app.tournaments.LoadTournament(r.Context(), id)
	if err != nil {
		httputil.Error(w, "Failed to get tournament", err)
		return nil, false
	}
	return tournament, true
}

func (app *application) isOrganizer(r *http.Request, tournament *bracket.Tournament) bool {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	return ok && userID == tournament.OwnerID
}

func (app *application) organizerTournament(w http.ResponseWriter, r *http.Request) (*bracket.Tournament, bool) {
	tournament, ok := app.loadTournament(w, r)
	if !ok {
		return nil, false
	}
	if !app.isOrganizer(r, tournament) {
		httputil.Forbidden(w, "Only the organizer can change the tournament", service.ErrForbidden)
		return nil, false
	}
	return tournament, true
}

func (app *application) showTournament(w http.ResponseWriter, r *http.Request) {
	tournament, ok := app.loadTournament(w, r)
	if !ok {
		return
	}

	snapshot := service.NewSnapshot(tournament)
	page := views.TournamentPage{
		Snapshot:    snapshot,
		Bracket:     views.PrepareBracketData(snapshot),
		IsOrganizer: app.isOrganizer(r, tournament),
	}
	if teamID, ok := middleware.GetTeamFromSession(r.Context(), app.sessionManager, tournament.ID); ok {
		if team, err := tournament.Team(teamID); err == nil {
			page.Team = &service.TeamView{ID: team.ID(), Name: team.Name()}
		}
	}
	views.Render(w, r, views.TournamentView(page))
}

func (app *application) tournamentJSON(w http.ResponseWriter, r *http.Request) {
	tournament, ok := app.loadTournament(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(service.NewSnapshot(tournament)); err != nil {
		httputil.InternalServerError(w, "Failed to encode tournament", err)
	}
}

func (app *application) liveTournament(w http.ResponseWriter, r *http.Request) {
	tournament, ok := app.loadTournament(w, r)
	if !ok {
		return
	}
	app.hub.ServeWS(w, r, tournament.ID, service.NewSnapshot(tournament))
}

func (app *application) teamLogin(w http.ResponseWriter, r *http.Request) {
	tournament, ok := app.loadTournament(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		httputil.BadRequest(w, "Invalid form data", err)
		return
	}

	team, err := app.tournaments.AuthenticateTeam(r.Context(), tournament.ID, strings.TrimSpace(r.Form.Get("team")), r.Form.Get("credential"))
	if err != nil {
		httputil.Error(w, "Failed to log in team", err)
		return
	}

	if err := middleware.LoginTeam(r.Context(), app.sessionManager, tournament.ID, team.ID()); err != nil {
		httputil.InternalServerError(w, "Failed to start session", err)
		return
	}
	http.Redirect(w, r, fmt.Sprintf("/tournaments/%s", tournament.ID), http.StatusSeeOther)
}

func (app *application) setScore(w http.ResponseWriter, r *http.Request) {
	tournament, ok := app.loadTournament(w, r)
	if !ok {
		return
	}
	bracketID, err := uuid.Parse(chi.URLParam(r, "bracketID"))
	if err != nil {
		httputil.NotFound(w, "Bracket not found", err)
		return
	}
	if err := r.ParseForm(); err != nil {
		httputil.BadRequest(w, "Invalid form data", err)
		return
	}

	score, err := bracket.ParseScore(r.Form.Get("left"), r.Form.Get("right"))
	if err != nil {
		httputil.Error(w, "Invalid score", err)
		return
	}

	input := service.ScoreInput{TournamentID: tournament.ID, BracketID: bracketID, Score: score}
	if !app.isOrganizer(r, tournament) {
		teamID, ok := middleware.GetTeamFromSession(r.Context(), app.sessionManager, tournament.ID)
		if !ok {
			httputil.Forbidden(w, "Log in as a team to report scores", service.ErrForbidden)
			return
		}
		input.TeamID = teamID
	}

	if _, err := app.scores.SetScore(r.Context(), input); err != nil {
		httputil.Error(w, "Failed to set score", err)
		return
	}
	http.Redirect(w, r, fmt.Sprintf("/tournaments/%s", tournament.ID), http.StatusSeeOther)
}

func (app *application) requestBracket(w http.ResponseWriter, r *http.Request) (*bracket.Bracket, bool) {
	tournament, ok := app.loadTournament(w, r)
	if !ok {
		return nil, false
	}
	id, err := uuid.Parse(chi.URLParam(r, "bracketID"))
	if err != nil {
		httputil.NotFound(w, "Bracket not found", err)
		return nil, false
	}
	b, err := tournament.Bracket(id)
	if err != nil {
		httputil.Error(w, "Failed to get bracket", err)
		return nil, false
	}
	return b, true
}

func (app *application) assignWinner(w http.ResponseWriter, r *http.Request) {
	b, ok := app.requestBracket(w, r)
	if !ok {
		return
	}
	httputil.Error(w, "Failed to assign winner", b.AssignWinner(b.Winner()))
}

func (app *application) assignScore(w http.ResponseWriter, r *http.Request) {
	b, ok := app.requestBracket(w, r)
	if !ok {
		return
	}
	score, _ := b.Score()
	httputil.Error(w, "Failed to assign score", b.AssignScore(score))
}

func (app *application) assignCredential(w http.ResponseWriter, r *http.Request) {
	tournament, ok := app.loadTournament(w, r)
	if !ok {
		return
	}
	teamID, err := uuid.Parse(chi.URLParam(r, "teamID"))
	if err != nil {
		httputil.NotFound(w, "Team not found", err)
		return
	}
	team, err := tournament.Team(teamID)
	if err != nil {
		httputil.Error(w, "Failed to get team", err)
		return
	}
	httputil.Error(w, "Failed to assign credential", team.AssignCredential(r.FormValue("credential")))
}
