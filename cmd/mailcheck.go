package cmd

import (
	"fmt"

	"github.com/frahmantamala/correspondence-management/internal/mailer"
	"github.com/frahmantamala/correspondence-management/pkg/logger"
	"github.com/spf13/cobra"
)

var mailCheckTo string

var mailCheckCmd = &cobra.Command{
	Use:   "mailcheck",
	Short: "Send a test e-mail through the configured relay",
	Long:  `Send one message synchronously through the SMTP relay from the mail section of the config, bypassing the worker queue.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		logger.Init(cfg.Env, cfg.Logging.Level)
		log := logger.LoggerWrapper()

		if !cfg.Mail.Enabled {
			return fmt.Errorf("mail is disabled; set mail.enabled to true")
		}

		client := mailer.New(cfg.Mail, log)
		defer client.Shutdown()

		err = client.SendNow(mailer.Mail{
			To:      []string{mailCheckTo},
			Subject: "Correspondence mail relay check",
			Body:    fmt.Sprintf("This is a test message from %s.\n", cfg.Server.BaseURL),
		})
		if err != nil {
			return fmt.Errorf("mail relay check failed: %w", err)
		}
		log.Info("test mail delivered", "to", mailCheckTo, "host", cfg.Mail.Host)
		return nil
	},
}

func init() {
	mailCheckCmd.Flags().StringVar(&mailCheckTo, "to", "", "recipient address")
	_ = mailCheckCmd.MarkFlagRequired("to")
}
