package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mia-admin/internal/handlers"
	"mia-admin/internal/utils"

	"github.com/rs/cors"
	"github.com/spf13/cobra"

	_ "mia-admin/docs"
)

// @title Mia Admin API
// @version 1.0
// @description Back-office of the Mia WhatsApp bot: human attendance, quotes and knowledge review
// @BasePath /
func main() {
	if err := newRootCommand().Execute(); err != nil {
		utils.LogError("%v", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "mia-admin",
		Short:         "Painel administrativo da Mia",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
	root.AddCommand(newServeCommand(), newResetHumanCommand())
	return root
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Inicia o servidor HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func newResetHumanCommand() *cobra.Command {
	var since time.Duration
	var notify bool

	cmd := &cobra.Command{
		Use:   "reset-human",
		Short: "Devolve para a IA as conversas em atendimento humano",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			phones, err := app.attendance.ResetHuman(ctx, time.Now().Add(-since), notify)
			for _, phone := range phones {
				fmt.Fprintf(cmd.OutOrStdout(), "%s devolvido para IA\n", phone)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d conversa(s) devolvida(s)\n", len(phones))
			return err
		},
	}
	cmd.Flags().DurationVar(&since, "since", time.Hour, "janela de atividade humana considerada")
	cmd.Flags().BoolVar(&notify, "notify", false, "envia a mensagem de retorno aos clientes")
	return cmd
}

func runServe(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	router := handlers.NewRouter(app.handlers())

	// Configurar CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", handlers.RequestIDHeader},
		ExposedHeaders:   []string{handlers.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	})

	server := &http.Server{
		Addr:              ":" + app.cfg.Server.Port,
		Handler:           c.Handler(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Canal para sinais de interrupção
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		utils.LogInfo("Servidor rodando em http://localhost:%s", app.cfg.Server.Port)
		utils.LogInfo("Swagger UI disponível em http://localhost:%s/swagger/index.html", app.cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-stop:
		utils.LogInfo("Encerrando servidor...")
	case err := <-serverErr:
		return fmt.Errorf("erro ao iniciar servidor: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		utils.LogError("Erro ao encerrar servidor: %v", err)
	}
	utils.LogInfo("Servidor encerrado")
	return nil
}
