package api

import "net/http"

// Router builds the /api route table. Registration, login and email
// confirmation are public; everything else requires a bearer token.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/register", s.Register)
	mux.HandleFunc("POST /api/auth/login", s.Login)
	mux.HandleFunc("GET /api/auth/confirm/{token}", s.Confirm)

	private := http.NewServeMux()
	private.HandleFunc("GET /api/auth/me", s.Me)
	private.HandleFunc("GET /api/categories", s.Categories)

	private.HandleFunc("GET /api/lost", s.ListLostFound)
	private.HandleFunc("POST /api/lost", s.CreateLostFound)
	private.HandleFunc("GET /api/lost/{id}", s.GetLostFound)
	private.HandleFunc("PUT /api/lost/{id}", s.UpdateLostFound)
	private.HandleFunc("DELETE /api/lost/{id}", s.DeleteLostFound)
	private.HandleFunc("POST /api/lost/{id}/claim", s.ClaimLostFound)
	private.HandleFunc("POST /api/lost/{id}/found", s.MarkLostFoundFound)
	private.HandleFunc("POST /api/lost/{id}/remove_claim", s.RemoveLostFoundClaim)
	private.HandleFunc("POST /api/lost/{id}/remove_found", s.RemoveLostFoundTag)
	private.HandleFunc("GET /api/lost/{id}/feedback", s.ListLostFoundFeedback)
	private.HandleFunc("POST /api/lost/{id}/feedback", s.CreateLostFoundFeedback)

	private.HandleFunc("GET /api/market", s.ListMarketplace)
	private.HandleFunc("POST /api/market", s.CreateMarketplace)
	private.HandleFunc("GET /api/market/{id}", s.GetMarketplace)
	private.HandleFunc("PUT /api/market/{id}", s.UpdateMarketplace)
	private.HandleFunc("DELETE /api/market/{id}", s.DeleteMarketplace)
	private.HandleFunc("POST /api/market/{id}/buy", s.BuyMarketplace)
	private.HandleFunc("GET /api/market/{id}/feedback", s.ListMarketplaceFeedback)
	private.HandleFunc("POST /api/market/{id}/feedback", s.CreateMarketplaceFeedback)

	mux.Handle("/api/", AuthMiddleware(s.JWTSecret)(private))

	return mux
}
