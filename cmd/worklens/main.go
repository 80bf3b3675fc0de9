package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/worklens/worklens/internal/category"
	"github.com/worklens/worklens/internal/config"
	"github.com/worklens/worklens/internal/daemon"
	"github.com/worklens/worklens/internal/database"
	"github.com/worklens/worklens/internal/engine"
	"github.com/worklens/worklens/internal/models"
	"github.com/worklens/worklens/internal/notify"
	"github.com/worklens/worklens/internal/report"
	"github.com/worklens/worklens/internal/settings"
	"github.com/worklens/worklens/internal/tracker"
	"github.com/worklens/worklens/internal/web"
	"github.com/worklens/worklens/pkg/provider"
)

var (
	version = "0.1.0"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "start":
		startDaemon()
	case "stop":
		stopDaemon()
	case "status":
		showStatus()
	case "report":
		generateReport()
	case "timeline":
		showTimeline()
	case "idle":
		showIdle()
	case "focus":
		focusCommand()
	case "categories":
		categoriesCommand()
	case "clear":
		clearDatabase()
	case "version":
		fmt.Printf("worklens version %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf(`worklens - Window activity tracker with focus mode

Usage:
  worklens <command> [options]

Commands:
  start                          Start the tracking daemon with the local API
  stop                           Stop the tracking daemon
  status                         Show daemon status and current focused window
  report [days] [--json]         Category report over the last N days
  timeline [days] [--json]       Merged activity timeline over the last N days
  idle [days]                    Idle statistics over the last N days
  focus start <minutes> [title]  Start a focus session (daemon must be running)
  focus end                      End the active focus session
  focus status                   Show focus session status
  categories [list|create|assign|delete|reset]
  clear                          Clear all tracking data from database
  version                        Show version information
  help                           Show this help message

Environment Variables:
  WORKLENS_DB_PATH          Database file path
  WORKLENS_SETTINGS_PATH    Settings document path
  WORKLENS_POLL_INTERVAL    Window poll interval in seconds
  WORKLENS_IDLE_THRESHOLD   Idle threshold in seconds
  WORKLENS_JOB_ROLE         Job role for focus-mode policy
  WORKLENS_PID_FILE         PID file path
  WORKLENS_WEB_PORT         Local API port

Version: %s
`, version)
}

func startDaemon() {
	cfg := config.New()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	dm := daemon.New(cfg.Daemon.PIDFile)
	running, pid, err := dm.IsRunning()
	if err != nil {
		log.Fatalf("Failed to check daemon status: %v", err)
	}
	if running {
		log.Fatalf("Daemon is already running (PID: %d)", pid)
	}

	if os.Getenv("WORKLENS_DAEMON_CHILD") != "1" {
		daemonize(cfg)
		return
	}

	runDaemon(cfg, dm)
}

func runDaemon(cfg *config.Config, dm *daemon.Daemon) {
	logFile, err := os.OpenFile(cfg.Daemon.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err == nil {
		log.SetOutput(logFile)
		defer logFile.Close()
	}

	db, err := database.Connect(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Initialize(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	settingsStore, err := settings.NewStore(cfg.Settings.Path)
	if err != nil {
		log.Fatalf("Failed to open settings store: %v", err)
	}

	winProvider, idleProvider, err := provider.New()
	if err != nil {
		log.Fatalf("Failed to initialize window accessor: %v", err)
	}
	defer winProvider.Close()
	if idleProvider == nil {
		log.Println("No idle-time source available, using fallback heuristic")
	}

	if err := dm.WritePID(); err != nil {
		log.Fatalf("Failed to write PID file: %v", err)
	}
	defer dm.RemovePID()

	repo := database.NewRepository(db)
	eng, err := engine.New(cfg, repo, settingsStore, winProvider, idleProvider)
	if err != nil {
		log.Fatalf("Failed to build engine: %v", err)
	}
	webServer := web.NewServer(cfg, eng)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := webServer.Start(); err != nil && err != http.ErrServerClosed {
			log.Printf("Web server error: %v", err)
		}
	}()

	go func() {
		for event := range eng.Events() {
			log.Printf("event: %s %v", event.Type, event.Payload)
		}
	}()

	go func() {
		<-sigChan
		log.Println("Received shutdown signal")
		cancel()
		eng.Stop()
	}()

	log.Println("Starting worklens daemon...")
	log.Printf("Local API available at: http://%s", webServer.Address())
	log.Printf("Configuration:\n%s", cfg.String())

	if err := eng.Start(ctx); err != nil && err != context.Canceled {
		log.Fatalf("Engine error: %v", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := webServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down web server: %v", err)
	}

	log.Println("Daemon stopped successfully")
}

func stopDaemon() {
	cfg := config.New()
	dm := daemon.New(cfg.Daemon.PIDFile)

	running, pid, err := dm.IsRunning()
	if err != nil {
		log.Fatalf("Failed to check daemon status: %v", err)
	}

	if !running {
		fmt.Println("Daemon is not running")
		return
	}

	fmt.Printf("Stopping daemon (PID: %d)...\n", pid)
	if err := dm.Stop(); err != nil {
		log.Fatalf("Failed to stop daemon: %v", err)
	}

	fmt.Println("Daemon stopped successfully")
}

func showStatus() {
	cfg := config.New()
	dm := daemon.New(cfg.Daemon.PIDFile)

	running, pid, err := dm.IsRunning()
	if err != nil {
		log.Fatalf("Failed to check daemon status: %v", err)
	}

	if !running {
		fmt.Println("Status: Not running")
	} else {
		fmt.Printf("Status: Running (PID: %d)\n", pid)
		fmt.Printf("Poll Interval: %v\n", cfg.Tracker.PollInterval)
		fmt.Printf("Idle Threshold: %v\n", cfg.Idle.Threshold)
	}

	winProvider, idleProvider, err := provider.New()
	if err != nil {
		fmt.Printf("\nCould not detect current window: %v\n", err)
		return
	}
	defer winProvider.Close()

	if win, err := winProvider.Get(); err == nil && win != nil {
		fmt.Printf("\nCurrent Window:\n")
		fmt.Printf("  Owner: %s\n", win.Owner)
		fmt.Printf("  Title: %s\n", win.Title)
	}

	if idleProvider != nil {
		if idleMS, err := idleProvider.IdleMillis(); err == nil {
			fmt.Printf("\nIdle Time: %s\n", report.FormatDuration(idleMS))
		}
	}
}

func parseDays(args []string) (int, bool) {
	days := 0
	jsonOutput := false
	for _, arg := range args {
		if arg == "--json" {
			jsonOutput = true
			continue
		}
		if n, err := strconv.Atoi(arg); err == nil {
			days = n
		}
	}
	return days, jsonOutput
}

func openRepo(cfg *config.Config) (*database.Repository, func()) {
	db, err := database.Connect(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := db.Initialize(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	return database.NewRepository(db), func() { db.Close() }
}

func openClassifier(cfg *config.Config, repo *database.Repository) *category.Classifier {
	settingsStore, err := settings.NewStore(cfg.Settings.Path)
	if err != nil {
		log.Fatalf("Failed to open settings store: %v", err)
	}
	classifier, err := category.NewClassifier(settingsStore, repo)
	if err != nil {
		log.Fatalf("Failed to load settings: %v", err)
	}
	return classifier
}

func generateReport() {
	days, jsonOutput := parseDays(os.Args[2:])

	cfg := config.New()
	repo, closeDB := openRepo(cfg)
	defer closeDB()
	classifier := openClassifier(cfg, repo)

	// One-shot read: the tracker compiles the report; no window accessor is
	// polled for this.
	trk := tracker.New(repo, classifier, nil, notify.New(1), cfg.Tracker.FlushInterval)
	compiled, err := trk.CompileWindowData(days)
	if err != nil {
		log.Fatalf("Failed to compile report: %v", err)
	}

	if jsonOutput {
		out, err := report.FormatJSON(compiled)
		if err != nil {
			log.Fatalf("Failed to format JSON: %v", err)
		}
		fmt.Println(out)
	} else {
		fmt.Print(report.FormatWindowReportText(compiled))
	}
}

func showTimeline() {
	days, jsonOutput := parseDays(os.Args[2:])
	if days <= 0 {
		days = 1
	}

	cfg := config.New()
	repo, closeDB := openRepo(cfg)
	defer closeDB()
	classifier := openClassifier(cfg, repo)

	since := time.Now().UnixMilli() - int64(days)*24*60*60*1000
	sessions, err := repo.SessionsBetween(since, 0)
	if err != nil {
		log.Fatalf("Failed to query sessions: %v", err)
	}
	idles, err := repo.IdleEventsSince(since)
	if err != nil {
		log.Fatalf("Failed to query idle events: %v", err)
	}

	groups := report.GroupedCategories(sessions, idles, classifier.Classify)
	if jsonOutput {
		out, err := report.FormatJSON(groups)
		if err != nil {
			log.Fatalf("Failed to format JSON: %v", err)
		}
		fmt.Println(out)
	} else {
		fmt.Print(report.FormatTimelineText(groups))
	}
}

func showIdle() {
	days, _ := parseDays(os.Args[2:])
	if days <= 0 {
		days = 7
	}

	cfg := config.New()
	repo, closeDB := openRepo(cfg)
	defer closeDB()

	since := time.Now().UnixMilli() - int64(days)*24*60*60*1000
	events, err := repo.IdleEventsSince(since)
	if err != nil {
		log.Fatalf("Failed to query idle events: %v", err)
	}

	stats := &models.IdleStatistics{Days: days}
	for _, event := range events {
		if event.EventType != models.IdleEnd {
			continue
		}
		stats.Periods++
		stats.TotalMillis += event.Duration
		if event.Duration > stats.LongestMillis {
			stats.LongestMillis = event.Duration
		}
	}
	if stats.Periods > 0 {
		stats.AverageMillis = stats.TotalMillis / int64(stats.Periods)
	}

	fmt.Print(report.FormatIdleText(stats))
}

// focusCommand talks to the running daemon's local API, since the distraction
// poll lives in the daemon process.
func focusCommand() {
	cfg := config.New()
	base := fmt.Sprintf("http://%s:%d", cfg.Web.Host, cfg.Web.Port)

	sub := "status"
	if len(os.Args) > 2 {
		sub = os.Args[2]
	}

	switch sub {
	case "start":
		if len(os.Args) < 4 {
			log.Fatal("usage: worklens focus start <minutes> [title]")
		}
		minutes, err := strconv.Atoi(os.Args[3])
		if err != nil || minutes <= 0 {
			log.Fatal("minutes must be a positive integer")
		}
		title := "Focus session"
		if len(os.Args) > 4 {
			title = strings.Join(os.Args[4:], " ")
		}
		body, _ := json.Marshal(map[string]interface{}{"minutes": minutes, "title": title})
		resp, err := http.Post(base+"/api/focus", "application/json", bytes.NewReader(body))
		if err != nil {
			log.Fatalf("Failed to reach daemon (is it running?): %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			log.Fatalf("Daemon refused: %s", resp.Status)
		}
		fmt.Printf("Focus session started: %q for %d minute(s)\n", title, minutes)

	case "end":
		req, _ := http.NewRequest(http.MethodDelete, base+"/api/focus", nil)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			log.Fatalf("Failed to reach daemon (is it running?): %v", err)
		}
		defer resp.Body.Close()
		fmt.Println("Focus session ended")

	case "status":
		resp, err := http.Get(base + "/api/focus")
		if err != nil {
			log.Fatalf("Failed to reach daemon (is it running?): %v", err)
		}
		defer resp.Body.Close()
		var status models.FocusStatus
		if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
			log.Fatalf("Failed to decode response: %v", err)
		}
		if !status.Active {
			fmt.Println("No active focus session")
			return
		}
		fmt.Printf("Focus session: %q (%s)\n", status.Title, status.JobRole)
		fmt.Printf("  Started: %s\n", time.UnixMilli(status.StartTime).Format("15:04:05"))
		fmt.Printf("  Ends:    %s\n", time.UnixMilli(status.EndsAt).Format("15:04:05"))
		fmt.Printf("  Distractions: %d\n", status.DistractionCount)

	default:
		log.Fatalf("Unknown focus subcommand: %s", sub)
	}
}

func categoriesCommand() {
	cfg := config.New()
	repo, closeDB := openRepo(cfg)
	defer closeDB()
	classifier := openClassifier(cfg, repo)

	sub := "list"
	if len(os.Args) > 2 {
		sub = os.Args[2]
	}

	switch sub {
	case "list":
		categories, err := classifier.FinalCategories()
		if err != nil {
			log.Fatalf("Failed to list categories: %v", err)
		}
		for _, cat := range categories {
			marker := ""
			if cat.IsCustom {
				marker = " (custom)"
			}
			fmt.Printf("%s%s - %s\n", cat.ID, marker, cat.Description)
			for _, app := range cat.Apps {
				fmt.Printf("    %s\n", app)
			}
		}

	case "create":
		if len(os.Args) < 4 {
			log.Fatal("usage: worklens categories create <name> [description] [color]")
		}
		name := os.Args[3]
		description, color := "", "#7f8c8d"
		if len(os.Args) > 4 {
			description = os.Args[4]
		}
		if len(os.Args) > 5 {
			color = os.Args[5]
		}
		id, err := classifier.CreateCategory(name, description, color)
		if err != nil {
			log.Fatalf("Failed to create category: %v", err)
		}
		fmt.Printf("Created category %q\n", id)

	case "assign":
		if len(os.Args) < 5 {
			log.Fatal("usage: worklens categories assign <app> <category>")
		}
		if err := classifier.AssignApp(os.Args[3], os.Args[4]); err != nil {
			log.Fatalf("Failed to assign app: %v", err)
		}
		fmt.Printf("Assigned %q to %q\n", os.Args[3], os.Args[4])

	case "delete":
		if len(os.Args) < 4 {
			log.Fatal("usage: worklens categories delete <id>")
		}
		if err := classifier.DeleteCategory(os.Args[3]); err != nil {
			log.Fatalf("Failed to delete category: %v", err)
		}
		fmt.Printf("Deleted category %q\n", os.Args[3])

	case "reset":
		if err := classifier.ResetToDefaults(); err != nil {
			log.Fatalf("Failed to reset categories: %v", err)
		}
		fmt.Println("Categories reset to defaults")

	default:
		log.Fatalf("Unknown categories subcommand: %s", sub)
	}
}

func clearDatabase() {
	cfg := config.New()

	fmt.Print("This will delete all tracking data. Are you sure? (yes/no): ")
	var response string
	fmt.Scanln(&response)

	if response != "yes" && response != "y" {
		fmt.Println("Operation cancelled")
		return
	}

	repo, closeDB := openRepo(cfg)
	defer closeDB()

	if err := repo.Clear(); err != nil {
		log.Fatalf("Failed to clear database: %v", err)
	}

	fmt.Println("Database cleared successfully")
}

func daemonize(cfg *config.Config) {
	env := os.Environ()
	env = append(env, "WORKLENS_DAEMON_CHILD=1")

	procAttr := &os.ProcAttr{
		Env:   env,
		Files: []*os.File{nil, nil, nil},
		Sys: &syscall.SysProcAttr{
			Setsid: true,
		},
	}

	process, err := os.StartProcess(os.Args[0], os.Args, procAttr)
	if err != nil {
		log.Fatalf("Failed to start daemon process: %v", err)
	}

	fmt.Printf("Daemon started successfully (PID: %d)\n", process.Pid)
	fmt.Printf("Local API: http://%s:%d\n", cfg.Web.Host, cfg.Web.Port)
	fmt.Printf("Logs: %s\n", cfg.Daemon.LogFile)
}
