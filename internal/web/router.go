package web

import (
	"net/http"

	webembed "github.com/tdk-bwcb/campus-lost-found-market/web"
)

// Router builds the browser-facing route table. Authentication pages, static
// assets and uploaded images are public; everything else requires a session
// cookie.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /auth/login", s.LoginPage)
	mux.HandleFunc("POST /auth/login", s.LoginSubmit)
	mux.HandleFunc("GET /auth/guest", s.GuestLogin)
	mux.HandleFunc("GET /auth/register", s.RegisterPage)
	mux.HandleFunc("POST /auth/register", s.RegisterSubmit)
	mux.HandleFunc("GET /auth/confirm/{token}", s.ConfirmEmail)
	mux.HandleFunc("GET /auth/logout", s.Logout)

	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(webembed.StaticFS())))
	mux.HandleFunc("GET /images/{file}", s.ServeImage)

	private := http.NewServeMux()

	private.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/lost/", http.StatusSeeOther)
	})

	private.HandleFunc("GET /auth/profile", s.ProfilePage)
	private.HandleFunc("POST /auth/profile", s.ProfileSubmit)

	private.HandleFunc("GET /lost/{$}", s.LostDashboard)
	private.HandleFunc("GET /lost/new", s.ReportPage)
	private.HandleFunc("POST /lost/new", s.ReportSubmit)
	private.HandleFunc("GET /lost/item/{id}", s.LostDetail)
	private.HandleFunc("GET /lost/edit/{id}", s.LostEditPage)
	private.HandleFunc("POST /lost/edit/{id}", s.LostEditSubmit)
	private.HandleFunc("POST /lost/delete/{id}", s.LostDelete)
	private.HandleFunc("POST /lost/item/{id}/claim", s.LostClaim)
	private.HandleFunc("POST /lost/item/{id}/found_user", s.LostFoundUser)
	private.HandleFunc("POST /lost/item/{id}/remove_claim", s.LostRemoveClaim)
	private.HandleFunc("POST /lost/item/{id}/remove_found", s.LostRemoveFound)
	private.HandleFunc("POST /lost/item/{id}/feedback", s.LostFeedback)

	private.HandleFunc("GET /market/{$}", s.MarketDashboard)
	private.HandleFunc("GET /market/new", s.SellPage)
	private.HandleFunc("POST /market/new", s.SellSubmit)
	private.HandleFunc("GET /market/item/{id}", s.MarketDetail)
	private.HandleFunc("GET /market/edit/{id}", s.MarketEditPage)
	private.HandleFunc("POST /market/edit/{id}", s.MarketEditSubmit)
	private.HandleFunc("POST /market/delete/{id}", s.MarketDelete)
	private.HandleFunc("GET /market/buy/{id}", s.MarketBuy)
	private.HandleFunc("POST /market/item/{id}/feedback", s.MarketFeedback)

	mux.Handle("/", CookieAuthMiddleware(s.JWTSecret)(private))

	return mux
}
