package internal

import (
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/samber/lo"

	"roomcast/contract"
	"roomcast/domain"
)

//go:embed inspect.html
var templatesFS embed.FS

// RoomRow is one line of the inspect dashboard.
type RoomRow struct {
	Room    string
	Members int
	Users   string
}

// StatsProvider supplies dynamic counters for the dashboard header.
type StatsProvider func() map[string]any

type pageData struct {
	Rooms       []RoomRow
	Stats       map[string]any
	GeneratedAt string
}

// StartDebugServer serves a read-only view over the registry: active
// rooms, their members, and live stats. It listens on its own port so
// the inspect surface never shares a listener with client traffic.
func StartDebugServer(log *slog.Logger, registry contract.IRegistry, port int, statsProvider StatsProvider) *http.Server {
	mux := http.NewServeMux()
	tmpl := template.Must(template.ParseFS(templatesFS, "inspect.html"))

	mux.HandleFunc("/inspect", func(w http.ResponseWriter, r *http.Request) {
		data := pageData{
			GeneratedAt: time.Now().Format(time.RFC822),
			Stats:       make(map[string]any),
		}
		if statsProvider != nil {
			data.Stats = statsProvider()
		}

		for _, room := range registry.ActiveRooms() {
			members := registry.RoomMembers(room)
			usernames := lo.Map(members, func(s domain.Session, _ int) string {
				return s.Username
			})
			data.Rooms = append(data.Rooms, RoomRow{
				Room:    room,
				Members: len(members),
				Users:   strings.Join(usernames, ", "),
			})
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := tmpl.Execute(w, data); err != nil {
			log.Error("Failed to render inspect page", "error", err)
		}
	})

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		log.Info(fmt.Sprintf("Inspect dashboard at http://localhost:%d/inspect", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Debug server error", "error", err)
		}
	}()
	return srv
}
