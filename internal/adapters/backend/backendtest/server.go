// Package backendtest runs an in-memory AllergyScan API for tests.
package backendtest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/bnema/allergyscan-cli/internal/domain"
	"github.com/go-chi/chi/v5"
)

type account struct {
	password string
	user     domain.User
}

// Upload is the last file received by the OCR endpoint.
type Upload struct {
	FileName    string
	ContentType string
	Size        int
}

type Server struct {
	*httptest.Server

	Common []domain.Allergy

	refreshCalls atomic.Int32

	mu        sync.Mutex
	nextID    int64
	accounts  map[string]*account
	access    map[string]string
	refresh   map[string]string
	scans     []domain.ScanRecord
	medicines map[string][]domain.Medicine
	upload    Upload
	ocrText   string
}

func New(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		ocrText: "Ingredients: wheat flour, sugar, peanuts",
		Common: []domain.Allergy{
			{ID: "1", Name: "Peanuts", Category: "Nuts"},
			{ID: "2", Name: "Milk", Category: "Dairy"},
			{ID: "3", Name: "Wheat", Category: "Grains"},
			{ID: "4", Name: "Eggs", Category: "Animal"},
		},
		accounts:  map[string]*account{},
		access:    map[string]string{},
		refresh:   map[string]string{},
		medicines: map[string][]domain.Medicine{},
	}
	s.Server = httptest.NewServer(s.router())
	t.Cleanup(s.Close)

	return s
}

func (s *Server) router() http.Handler {
	r := chi.NewRouter()

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", s.handleLogin)
		r.Post("/register", s.handleRegister)
		r.Post("/refresh", s.handleRefresh)
		r.Get("/me", s.authenticated(s.handleMe))
		r.Put("/me/allergies", s.authenticated(s.handleUpdateAllergies))
		r.Get("/allergies/common", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, s.Common)
		})
	})

	r.Post("/ocr", s.handleOCR)
	r.Post("/allergens/detect", s.handleDetect)

	r.Get("/scan-history", s.handleListScans)
	r.Post("/scan-history/", s.handleSaveScan)
	r.Delete("/scan-history/{id}", s.handleDeleteScan)

	r.Get("/medicines", s.authenticated(s.handleListMedicines))
	r.Post("/medicines", s.authenticated(s.handleCreateMedicine))
	r.Put("/medicines/{id}", s.authenticated(s.handleUpdateMedicine))
	r.Delete("/medicines/{id}", s.authenticated(s.handleDeleteMedicine))

	return r
}

// SetOCRText sets the text returned for every uploaded image.
func (s *Server) SetOCRText(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ocrText = text
}

// AddUser registers an account directly.
func (s *Server) AddUser(username, password, email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[username] = &account{password: password, user: domain.User{Username: username, Email: email}}
}

// ExpireAccessTokens makes every issued access token fail with 401 while
// refresh tokens stay valid.
func (s *Server) ExpireAccessTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.access)
}

func (s *Server) RevokeRefreshTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.refresh)
}

func (s *Server) RefreshCalls() int {
	return int(s.refreshCalls.Load())
}

func (s *Server) LastUpload() Upload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upload
}

func (s *Server) User(username string) (domain.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[username]
	if !ok {
		return domain.User{}, false
	}
	return acc.user, true
}

func (s *Server) Scans() []domain.ScanRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.ScanRecord(nil), s.scans...)
}

func (s *Server) issueLocked(username string) domain.TokenPair {
	s.nextID++
	pair := domain.TokenPair{
		AccessToken:  fmt.Sprintf("A%d", s.nextID),
		RefreshToken: fmt.Sprintf("R%d", s.nextID),
	}
	s.access[pair.AccessToken] = username
	s.refresh[pair.RefreshToken] = username
	return pair
}

func (s *Server) authenticated(next func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		s.mu.Lock()
		username, known := s.access[token]
		s.mu.Unlock()
		if !ok || !known {
			writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		next(w, r, username)
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[r.PostForm.Get("username")]
	if !ok || acc.password != r.PostForm.Get("password") {
		writeDetail(w, http.StatusUnauthorized, "Incorrect username or password")
		return
	}

	pair := s.issueLocked(acc.user.Username)
	writeJSON(w, http.StatusOK, map[string]string{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"token_type":    "bearer",
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !decode(w, r, &body) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[body.Username]; exists {
		writeDetail(w, http.StatusBadRequest, "Username already registered")
		return
	}
	s.accounts[body.Username] = &account{
		password: body.Password,
		user:     domain.User{Username: body.Username, Email: body.Email},
	}
	writeJSON(w, http.StatusCreated, map[string]string{"username": body.Username, "email": body.Email})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.refreshCalls.Add(1)

	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	if !decode(w, r, &body) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	username, ok := s.refresh[body.RefreshToken]
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}
	delete(s.refresh, body.RefreshToken)

	pair := s.issueLocked(username)
	writeJSON(w, http.StatusOK, pair)
}

func (s *Server) handleMe(w http.ResponseWriter, _ *http.Request, username string) {
	s.mu.Lock()
	user := s.accounts[username].user
	s.mu.Unlock()

	if user.Allergies == nil {
		user.Allergies = []domain.Allergy{}
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleUpdateAllergies(w http.ResponseWriter, r *http.Request, username string) {
	var body struct {
		Allergies []domain.Allergy `json:"allergies"`
	}
	if !decode(w, r, &body) {
		return
	}

	s.mu.Lock()
	s.accounts[username].user.Allergies = body.Allergies
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"status": "success", "message": "Allergies updated"})
}

func (s *Server) handleOCR(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "file is required")
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	s.upload = Upload{FileName: header.Filename, ContentType: header.Header.Get("Content-Type"), Size: len(data)}
	text := s.ocrText
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"text": text})
}

var detectable = []struct {
	keyword  string
	allergen string
}{
	{keyword: "peanut", allergen: "Peanuts"},
	{keyword: "milk", allergen: "Milk"},
	{keyword: "wheat", allergen: "Wheat"},
	{keyword: "egg", allergen: "Eggs"},
	{keyword: "soy", allergen: "Soy"},
	{keyword: "shrimp", allergen: "Shellfish"},
}

func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Text string `json:"text"`
	}
	if !decode(w, r, &body) {
		return
	}

	lower := strings.ToLower(body.Text)
	allergens := []domain.Allergen{}
	for _, d := range detectable {
		if strings.Contains(lower, d.keyword) {
			allergens = append(allergens, domain.Allergen{
				Allergen:   d.allergen,
				Confidence: 0.9,
				Evidence:   []string{d.keyword},
			})
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"allergens": allergens})
}

func (s *Server) handleListScans(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Scans())
}

func (s *Server) handleSaveScan(w http.ResponseWriter, r *http.Request) {
	var scan domain.ScanRecord
	if !decode(w, r, &scan) {
		return
	}

	s.mu.Lock()
	s.nextID++
	scan.ID = s.nextID
	scan.CreatedAt = "2026-01-02T03:04:05"
	s.scans = append(s.scans, scan)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, scan)
}

func (s *Server) handleDeleteScan(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, scan := range s.scans {
		if scan.ID == id {
			s.scans = append(s.scans[:i], s.scans[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
			return
		}
	}
	writeDetail(w, http.StatusNotFound, "Scan not found")
}

func (s *Server) handleListMedicines(w http.ResponseWriter, _ *http.Request, username string) {
	s.mu.Lock()
	medicines := append([]domain.Medicine{}, s.medicines[username]...)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, medicines)
}

func (s *Server) handleCreateMedicine(w http.ResponseWriter, r *http.Request, username string) {
	var medicine domain.Medicine
	if !decode(w, r, &medicine) {
		return
	}

	s.mu.Lock()
	s.nextID++
	medicine.ID = s.nextID
	s.medicines[username] = append(s.medicines[username], medicine)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, medicine)
}

func (s *Server) handleUpdateMedicine(w http.ResponseWriter, r *http.Request, username string) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var medicine domain.Medicine
	if !decode(w, r, &medicine) {
		return
	}
	medicine.ID = id

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.medicines[username] {
		if existing.ID == id {
			s.medicines[username][i] = medicine
			writeJSON(w, http.StatusOK, medicine)
			return
		}
	}
	writeDetail(w, http.StatusNotFound, "Medicine not found")
}

func (s *Server) handleDeleteMedicine(w http.ResponseWriter, r *http.Request, username string) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.medicines[username]
	for i, existing := range list {
		if existing.ID == id {
			s.medicines[username] = append(list[:i], list[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeDetail(w, http.StatusNotFound, "Medicine not found")
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid id")
		return 0, false
	}
	return id, true
}

func decode(w http.ResponseWriter, r *http.Request, out any) bool {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return false
	}
	return true
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
