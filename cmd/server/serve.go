package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/yukikurage/task-manager-api/internal/router"
	"github.com/yukikurage/task-manager-api/internal/services"
	"github.com/yukikurage/task-manager-api/internal/taskstate"
	"github.com/yukikurage/task-manager-api/internal/utils"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		gin.SetMode(cfg.GinMode)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		st, err := openStores(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.close()

		store, err := router.NewSessionStore(cfg)
		if err != nil {
			return err
		}

		var aiService *services.AIService
		if cfg.OpenAIAPIKey != "" {
			aiService = services.NewAIService(cfg.OpenAIAPIKey)
		} else {
			log.Println("OPENAI_API_KEY not set; task generation is disabled")
		}

		authService := services.NewAuthService(st.users)
		taskService := services.NewTaskService(st.tasks, st.users, taskstate.New(), aiService)

		if cfg.AdminEmail != "" {
			admin, created, err := authService.EnsureAdmin(ctx, services.AdminSeed{
				Name:     cfg.AdminName,
				Email:    cfg.AdminEmail,
				Password: cfg.AdminPassword,
			})
			if err != nil {
				return fmt.Errorf("failed to seed admin: %w", err)
			}
			if created {
				log.Printf("Created admin %s", admin.Email)
			}
		}

		scheduler := services.NewSchedulerService(cfg.Location())
		digest := services.NewDigestService(st.tasks)
		if _, err := scheduler.ScheduleInterval(cfg.OverdueDigestInterval, digest.Run); err != nil {
			return err
		}
		scheduler.Start()
		defer scheduler.Stop()

		r := router.New(store, router.Dependencies{
			Users:         st.users,
			Tokens:        utils.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL),
			Auth:          authService,
			Tasks:         taskService,
			Admin:         services.NewAdminService(st.users, st.tasks, taskService),
			Notifications: services.NewNotificationService(st.tasks, cfg.Location()),
		})

		srv := &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			log.Printf("Server starting on :%s", cfg.Port)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("failed to start server: %w", err)
			}
			return nil
		case <-ctx.Done():
		}

		log.Println("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	},
}
