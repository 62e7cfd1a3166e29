package main

import (
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bhtechnology/snapshot-intake/internal/inspection"
	"github.com/bhtechnology/snapshot-intake/internal/intake"
	"github.com/bhtechnology/snapshot-intake/internal/lead"
	"github.com/bhtechnology/snapshot-intake/internal/mailer"
	"github.com/bhtechnology/snapshot-intake/internal/metrics"
	"github.com/bhtechnology/snapshot-intake/internal/webhook"
	"github.com/bhtechnology/snapshot-intake/pkg/servicem8"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the webhook server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		metrics.Init()

		crm := servicem8.NewClient(cfg.ServiceM8.APIKey,
			servicem8.WithBaseURL(cfg.ServiceM8.BaseURL),
			servicem8.WithRateLimit(cfg.ServiceM8.RateLimit),
			servicem8.WithMaxPages(cfg.ServiceM8.MaxPages),
		)
		resolver := intake.NewResolver(crm)
		notifier := inspection.NewClient(cfg.Inspection.BaseURL, cfg.Inspection.APIKey)
		pipeline := intake.NewPipeline(crm, resolver, notifier, intake.Settings{
			JobStatus:          cfg.Job.Status,
			JobDescription:     cfg.Job.Description,
			CompanyContactType: cfg.Job.CompanyContactType,
			JobContactType:     cfg.Job.JobContactType,
			NoteRelatedObject:  cfg.ServiceM8.NoteRelatedObject,
		})
		codec := lead.NewCodec(cfg.Signing.Secret)
		mail := mailer.New(cfg.Resend.APIKey, cfg.Resend.FromName, cfg.Resend.FromEmail, cfg.Booking.ToEmail)

		configured := cfg.ServiceM8.APIKey != "" && cfg.Signing.Secret != ""
		if !configured {
			zap.L().Warn("intake disabled: servicem8 api key or signing secret missing")
		}

		handler := webhook.NewHandler(codec, pipeline, mail, cfg.ServiceM8.BaseURL, cfg.Site.BaseURL, configured)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: handler.Routes(),
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			zap.L().Info("starting server", zap.Int("port", port))
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return eris.Wrap(err, "server listen")
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			zap.L().Info("shutting down server")
			return srv.Shutdown(cmd.Context())
		})

		return g.Wait()
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
