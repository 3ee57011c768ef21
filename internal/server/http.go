package server

import (
	nethttp "net/http"
	"time"

	"biolinkbot/internal/conf"
	"biolinkbot/internal/metrics"
	"biolinkbot/internal/pkg/sched"
	"biolinkbot/internal/service"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/logging"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/transport/http"
	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ProviderSet is server providers.
var ProviderSet = wire.NewSet(NewHTTPServer)

// NewHTTPServer creates the HTTP server and mounts all routes.
func NewHTTPServer(
	c *conf.Server,
	moderation *service.ModerationService,
	admin *service.AdminService,
	scheduler *sched.Scheduler,
	logger log.Logger,
) *http.Server {
	opts := []http.ServerOption{
		http.Middleware(
			recovery.Recovery(),
			logging.Server(logger),
		),
	}
	if c.HTTP.Network != "" {
		opts = append(opts, http.Network(c.HTTP.Network))
	}
	if c.HTTP.Addr != "" {
		opts = append(opts, http.Address(c.HTTP.Addr))
	}
	if c.HTTP.TimeoutSeconds > 0 {
		opts = append(opts, http.Timeout(time.Duration(c.HTTP.TimeoutSeconds)*time.Second))
	}
	srv := http.NewServer(opts...)

	v1 := srv.Route("/v1")
	v1.POST("/messages", moderation.HandleMessage)
	v1.POST("/messages/approve", moderation.ApproveMessage)

	adm := srv.Route("/v1/admin")
	adm.POST("/blocklist", admin.AddBlockedPhrase)
	adm.POST("/blocklist/remove", admin.RemoveBlockedPhrase)
	adm.GET("/blocklist", admin.ListBlockedPhrases)
	adm.POST("/whitelist", admin.AddWhitelistTerm)
	adm.POST("/whitelist/remove", admin.RemoveWhitelistTerm)
	adm.GET("/whitelist", admin.ListWhitelistTerms)
	adm.PUT("/chats/{chat_id}/delays", admin.SetChatDelay)
	adm.GET("/chats/{chat_id}/delays", admin.GetChatDelays)
	adm.GET("/events", admin.ListEvents)
	adm.GET("/stats", admin.Stats)
	adm.GET("/status", admin.Status)
	adm.POST("/classifier/key", admin.InstallClassifierKey)

	metrics.RegisterPendingGauge(scheduler.Pending)
	srv.Handle("/metrics", promhttp.Handler())
	srv.HandleFunc("/healthz", func(w nethttp.ResponseWriter, _ *nethttp.Request) {
		w.WriteHeader(nethttp.StatusOK)
		w.Write([]byte("ok"))
	})

	return srv
}
