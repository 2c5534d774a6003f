package web

import "net/http"

// ServeImage handles GET /images/{file}: serving processed uploads from the
// media store directory.
func (s *Server) ServeImage(w http.ResponseWriter, r *http.Request) {
	path, ok := s.Media.FilePath(r.PathValue("file"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, path)
}
