package mcp

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// New creates an MCP server with all tools and resources registered. Dates
// are grouped into days in loc unless a tool call passes its own tz.
func New(ds DataSource, loc *time.Location, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("BetaLog", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("BetaLog hangboard training log. Query completed timer sessions, saved presets, logged exercises, workouts, per-day progress and training calendar. Weights are reported in the user's preferred unit unless one is given."),
	)

	h := &handlers{ds: ds, loc: loc, log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolListPresets, Handler: h.listPresets},
		server.ServerTool{Tool: toolGetPreset, Handler: h.getPreset},
		server.ServerTool{Tool: toolSavePreset, Handler: h.savePreset},
		server.ServerTool{Tool: toolListSessions, Handler: h.listSessions},
		server.ServerTool{Tool: toolGetSession, Handler: h.getSession},
		server.ServerTool{Tool: toolGetProgress, Handler: h.getProgress},
		server.ServerTool{Tool: toolGetCalendar, Handler: h.getCalendar},
		server.ServerTool{Tool: toolLogExercise, Handler: h.logExercise},
		server.ServerTool{Tool: toolListExercises, Handler: h.listExercises},
		server.ServerTool{Tool: toolGetExerciseProgress, Handler: h.getExerciseProgress},
		server.ServerTool{Tool: toolSaveWorkout, Handler: h.saveWorkout},
		server.ServerTool{Tool: toolListWorkouts, Handler: h.listWorkouts},
		server.ServerTool{Tool: toolGetWorkout, Handler: h.getWorkout},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resRecentSessions, Handler: h.recentSessions},
		server.ServerResource{Resource: resPresets, Handler: h.presets},
		server.ServerResource{Resource: resSettings, Handler: h.settings},
		server.ServerResource{Resource: resWorkouts, Handler: h.workouts},
	)

	return s
}

// HTTPHandler exposes s over the streamable HTTP transport.
func HTTPHandler(s *server.MCPServer) http.Handler {
	return server.NewStreamableHTTPServer(s)
}

// ServeStdio runs s over stdin/stdout until the input closes.
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds  DataSource
	loc *time.Location
	log *slog.Logger
}

// --- Resource definitions ---

var resRecentSessions = mcp.NewResource(
	"betalog://recent_sessions",
	"Recent Sessions",
	mcp.WithResourceDescription("Completed timer sessions from the last 14 days, newest first"),
	mcp.WithMIMEType("application/json"),
)

var resPresets = mcp.NewResource(
	"betalog://presets",
	"Presets",
	mcp.WithResourceDescription("All saved timer presets"),
	mcp.WithMIMEType("application/json"),
)

var resWorkouts = mcp.NewResource(
	"betalog://workouts",
	"Workouts",
	mcp.WithResourceDescription("Saved workouts: named lists of exercise names"),
	mcp.WithMIMEType("application/json"),
)

var resSettings = mcp.NewResource(
	"betalog://settings",
	"Settings",
	mcp.WithResourceDescription("User preferences such as the display weight unit"),
	mcp.WithMIMEType("application/json"),
)
