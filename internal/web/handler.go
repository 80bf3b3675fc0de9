package web

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/worklens/worklens/internal/category"
	"github.com/worklens/worklens/internal/config"
	"github.com/worklens/worklens/internal/engine"
	"github.com/worklens/worklens/internal/focus"
)

type Handler struct {
	config *config.Config
	engine *engine.Engine
}

func NewHandler(cfg *config.Config, eng *engine.Engine) *Handler {
	return &Handler{config: cfg, engine: eng}
}

func (h *Handler) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/status", h.handleStatus)
	mux.HandleFunc("/api/window", h.handleWindow)
	mux.HandleFunc("/api/sessions", h.handleSessions)
	mux.HandleFunc("/api/report", h.handleReport)
	mux.HandleFunc("/api/timeline", h.handleTimeline)
	mux.HandleFunc("/api/idle", h.handleIdle)
	mux.HandleFunc("/api/idle/threshold", h.handleIdleThreshold)
	mux.HandleFunc("/api/tracking/toggle", h.handleToggleTracking)
	mux.HandleFunc("/api/focus", h.handleFocus)
	mux.HandleFunc("/api/categories", h.handleCategories)
	mux.HandleFunc("/api/categories/assign", h.handleAssign)

	mux.HandleFunc("/health", h.handleHealth)
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]interface{}{
		"tracking": h.engine.TrackingEnabled(),
		"idle":     h.engine.Idle(),
		"focus":    h.engine.FocusStatus(),
	}
	if h.engine.Idle() {
		if pre := h.engine.PreIdleSession(); pre != nil {
			response["pre_idle_session"] = pre
		}
	}
	if current, err := h.engine.CurrentActiveWindow(); err == nil && current != nil {
		response["window"] = current
	}
	respondJSON(w, response)
}

func (h *Handler) handleWindow(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	current, err := h.engine.CurrentActiveWindow()
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to query active window: %v", err), http.StatusInternalServerError)
		return
	}
	if current == nil {
		http.Error(w, "No focused window", http.StatusNotFound)
		return
	}
	respondJSON(w, current)
}

func (h *Handler) handleSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	from := queryInt64(r, "from")
	to := queryInt64(r, "to")

	sessions, err := h.engine.ActiveWindows(from, to)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to fetch sessions: %v", err), http.StatusInternalServerError)
		return
	}
	respondJSON(w, sessions)
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	report, err := h.engine.CompileWindowData(queryInt(r, "days"))
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to compile report: %v", err), http.StatusInternalServerError)
		return
	}
	respondJSON(w, report)
}

func (h *Handler) handleTimeline(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	groups, err := h.engine.GroupedCategories(queryInt(r, "days"))
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to build timeline: %v", err), http.StatusInternalServerError)
		return
	}
	respondJSON(w, groups)
}

func (h *Handler) handleIdle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	stats, err := h.engine.IdleStatistics(queryInt(r, "days"))
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to fetch idle statistics: %v", err), http.StatusInternalServerError)
		return
	}
	respondJSON(w, stats)
}

func (h *Handler) handleIdleThreshold(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var body struct {
		Millis int64 `json:"millis"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Millis <= 0 {
		http.Error(w, "millis must be a positive integer", http.StatusBadRequest)
		return
	}
	h.engine.SetIdleThreshold(body.Millis)
	respondJSON(w, map[string]interface{}{"millis": body.Millis})
}

func (h *Handler) handleToggleTracking(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	enabled, err := h.engine.ToggleTracking()
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to toggle tracking: %v", err), http.StatusInternalServerError)
		return
	}
	respondJSON(w, map[string]interface{}{"tracking": enabled})
}

func (h *Handler) handleFocus(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		respondJSON(w, h.engine.FocusStatus())

	case http.MethodPost:
		var body struct {
			Minutes int    `json:"minutes"`
			Title   string `json:"title"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		session, err := h.engine.StartFocusSession(body.Minutes, body.Title)
		if err != nil {
			status := http.StatusInternalServerError
			if err == focus.ErrSessionActive {
				status = http.StatusConflict
			}
			http.Error(w, err.Error(), status)
			return
		}
		respondJSON(w, session)

	case http.MethodDelete:
		if err := h.engine.EndFocusSession(); err != nil {
			http.Error(w, fmt.Sprintf("Failed to end focus session: %v", err), http.StatusInternalServerError)
			return
		}
		respondJSON(w, map[string]interface{}{"ended": true})

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleCategories(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		categories, err := h.engine.FinalCategories()
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to fetch categories: %v", err), http.StatusInternalServerError)
			return
		}
		respondJSON(w, categories)

	case http.MethodPost:
		var body struct {
			Name        string `json:"name"`
			Description string `json:"description"`
			Color       string `json:"color"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Name == "" {
			http.Error(w, "name is required", http.StatusBadRequest)
			return
		}
		id, err := h.engine.CreateCategory(body.Name, body.Description, body.Color)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		respondJSON(w, map[string]interface{}{"id": id})

	case http.MethodDelete:
		id := r.URL.Query().Get("id")
		if id == "" {
			http.Error(w, "id is required", http.StatusBadRequest)
			return
		}
		if err := h.engine.DeleteCategory(id); err != nil {
			status := http.StatusInternalServerError
			if err == category.ErrNotCustom || err == category.ErrUnknownCategory {
				status = http.StatusBadRequest
			}
			http.Error(w, err.Error(), status)
			return
		}
		respondJSON(w, map[string]interface{}{"deleted": id})

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleAssign(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var body struct {
		App      string `json:"app"`
		Category string `json:"category"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.App == "" || body.Category == "" {
		http.Error(w, "app and category are required", http.StatusBadRequest)
		return
	}
	if err := h.engine.AssignApp(body.App, body.Category); err != nil {
		status := http.StatusInternalServerError
		if err == category.ErrUnknownApp || err == category.ErrUnknownCategory {
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}
	respondJSON(w, map[string]interface{}{"app": body.App, "category": body.Category})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]interface{}{"status": "ok"})
}

func respondJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func queryInt(r *http.Request, key string) int {
	if s := r.URL.Query().Get(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return 0
}

func queryInt64(r *http.Request, key string) int64 {
	if s := r.URL.Query().Get(key); s != "" {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
	}
	return 0
}
