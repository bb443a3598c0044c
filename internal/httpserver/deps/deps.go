package deps

import (
	"time"

	"github.com/MrSnakeDoc/appdir/internal/logger"
	"github.com/MrSnakeDoc/appdir/internal/metrics"
	"github.com/MrSnakeDoc/appdir/internal/repository"
)

type Deps struct {
	Logger        logger.Logger
	StartTime     time.Time
	Version       string
	Commit        string
	BuildDate     string
	GoVersion     string
	TimeNow       func() time.Time       // for testing, defaults to time.Now
	AllowedHosts  []string               // Host headers allowed on admin routes
	AdminCIDRS    []string               // networks allowed to call mutating and ops routes
	TrustProxy    bool                   // true if running behind a trusted reverse proxy (e.g., cloudflared)
	RateBurst     int                    // token bucket size per client IP on mutating routes
	RatePerMin    int                    // refill per client IP per minute (0 disables limiting)
	Backend       string                 // KV backend name reported by /infra
	Repo          *repository.Repository // apps repository
	Metrics       *metrics.Metrics       // nil disables /metrics
	SeedFile      string                 // seed catalog path, empty if none
	LastReload    func() time.Time       // last successful seed import (nil if no seed file)
	ReloadTrigger chan struct{}          // manual seed reload (nil if no seed file)
}
