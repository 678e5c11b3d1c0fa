// Package tagtogtest provides an in-memory tagtog document API for tests.
package tagtogtest

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/gorilla/mux"
)

// Upload is one document received by the fake server.
type Upload struct {
	Owner, Project, Folder, Output string
	Filename                       string
	ContentType                    string
	Body                           []byte
	Authorization                  string
}

// Server is a fake tagtog instance accepting a single user.
type Server struct {
	*httptest.Server

	Username, Password string
	// UploadStatus forces the status returned by the documents endpoint.
	UploadStatus int

	mu      sync.Mutex
	checks  int
	uploads []Upload
}

// NewServer starts a fake server; it is closed with t's cleanup by the caller.
func NewServer(username, password string) *Server {
	s := &Server{Username: username, Password: password}
	s.Server = httptest.NewServer(s.router())
	return s
}

// NewTLSServer is NewServer behind a self-signed certificate.
func NewTLSServer(username, password string) *Server {
	s := &Server{Username: username, Password: password}
	s.Server = httptest.NewTLSServer(s.router())
	return s
}

func (s *Server) router() http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/-api/documents/v1", s.handleUpload).Methods(http.MethodPost)
	router.HandleFunc("/{user}", s.handleCredentialCheck).Methods(http.MethodGet)
	return router
}

func (s *Server) authorized(r *http.Request) bool {
	if auth := r.Header.Get("Authorization"); len(auth) > 7 && auth[:7] == "Bearer " {
		return auth[7:] == s.Password
	}
	u, p, ok := r.BasicAuth()
	return ok && u == s.Username && p == s.Password
}

func (s *Server) handleCredentialCheck(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.checks++
	s.mu.Unlock()

	if !s.authorized(r) || mux.Vars(r)["user"] != s.Username {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, "<html>"+s.Username+"</html>")
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	files := r.MultipartForm.File["files"]
	if len(files) != 1 {
		http.Error(w, "expected one file part", http.StatusBadRequest)
		return
	}
	fh := files[0]
	f, err := fh.Open()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer f.Close()
	body, _ := io.ReadAll(f)

	q := r.URL.Query()
	s.mu.Lock()
	s.uploads = append(s.uploads, Upload{
		Owner:         q.Get("owner"),
		Project:       q.Get("project"),
		Folder:        q.Get("folder"),
		Output:        q.Get("output"),
		Filename:      fh.Filename,
		ContentType:   fh.Header.Get("Content-Type"),
		Body:          body,
		Authorization: r.Header.Get("Authorization"),
	})
	status := s.UploadStatus
	s.mu.Unlock()

	if status != 0 {
		http.Error(w, "forced failure", status)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// CredentialChecks returns how many credential checks were received.
func (s *Server) CredentialChecks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checks
}

// Uploads returns a copy of the received documents.
func (s *Server) Uploads() []Upload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Upload(nil), s.uploads...)
}
