package routes

import (
	"log/slog"
	"net/http"
	"net/http/pprof"

	"blog-api/controllers"
	"blog-api/middlewares"
	"blog-api/utils"

	"github.com/gorilla/mux"
)

// APIPrefix is where the versioned API is mounted.
const APIPrefix = "/api/v1"

// Deps holds everything the router wires into handlers.
type Deps struct {
	Posts          controllers.PostRepository
	Users          controllers.UserRepository
	Sessions       controllers.SessionRepository
	Tokens         *utils.TokenMaker
	Checks         map[string]controllers.Pinger
	AllowedOrigins []string
	Debug          bool
	Log            *slog.Logger
}

// SetupRoutes sets up the application routes and middlewares.
func SetupRoutes(deps Deps) http.Handler {
	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		middlewares.NotFound(w)
	})

	router.Use(middlewares.Authenticate(deps.Tokens, deps.Sessions, deps.Log))

	rootHandler := &controllers.RootHandler{Checks: deps.Checks, Log: deps.Log}
	rootHandler.SetupRootRoute(router)

	api := router.PathPrefix(APIPrefix).Subrouter()

	postHandler := &controllers.PostHandler{Posts: deps.Posts, Log: deps.Log}
	postHandler.SetupPostRoutes(api)

	authHandler := &controllers.AuthHandler{
		Users:    deps.Users,
		Sessions: deps.Sessions,
		Tokens:   deps.Tokens,
		Log:      deps.Log,
	}
	authHandler.SetupUserRoutes(api)

	if deps.Debug {
		router.HandleFunc("/debug/pprof/", pprof.Index)
		router.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		router.HandleFunc("/debug/pprof/profile", pprof.Profile)
		router.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		router.HandleFunc("/debug/pprof/trace", pprof.Trace)
		router.PathPrefix("/debug/pprof/").HandlerFunc(pprof.Index)
	}

	// CORS and logging wrap the whole router so preflight and unmatched
	// requests pass through them too.
	var handler http.Handler = router
	handler = middlewares.CorsMiddleware(&middlewares.CorsConfig{
		AllowedOrigins:   deps.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})(handler)
	handler = middlewares.LoggingMiddleware(deps.Log)(handler)

	return handler
}
