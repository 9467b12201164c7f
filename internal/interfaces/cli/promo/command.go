package promo

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"amica/internal/application/access/usecases"
	"amica/internal/domain/grant"
	"amica/internal/infrastructure/config"
	"amica/internal/infrastructure/database"
	"amica/internal/infrastructure/repository"
	"amica/internal/shared/logger"
)

var (
	env       string
	accountID string
	device    string
	until     string
)

// NewCommand is the support-tooling entry point for promo grants. There is
// deliberately no public HTTP route for this.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grant-promo",
		Short: "Extend a subject's promo access window",
		Long:  `Extend the promotional access window for a device token or an account. Promo windows only ever extend; an earlier date than the current window is a no-op.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")
	cmd.Flags().StringVar(&accountID, "account", "", "Account id to grant promo access to")
	cmd.Flags().StringVar(&device, "device", "", "Device token to grant promo access to")
	cmd.Flags().StringVar(&until, "until", "", "Promo window end, RFC3339 (required)")
	cmd.MarkFlagRequired("until")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	if (accountID == "") == (device == "") {
		return fmt.Errorf("exactly one of --account or --device is required")
	}

	promoUntil, err := time.Parse(time.RFC3339, until)
	if err != nil {
		return fmt.Errorf("invalid --until value: %w", err)
	}

	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(&cfg.Logger, cfg.Server.Mode); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := database.Init(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	log := logger.NewLogger()
	grantRepo := repository.NewGrantRepository(database.Get(), cfg.Entitlement.TrialQuestions)
	profileRepo := repository.NewProfileMirrorRepository(database.Get())
	mergeUC := usecases.NewMergeGrantsUseCase(grantRepo, profileRepo, cfg.Entitlement.TrialQuestions, log)
	grantPromoUC := usecases.NewGrantPromoUseCase(mergeUC, grantRepo, profileRepo, log)

	var key grant.SubjectKey
	if accountID != "" {
		key = grant.AccountSubjectKey(accountID)
	} else {
		key = grant.DeviceSubjectKey(device)
	}

	if err := grantPromoUC.Execute(context.Background(), usecases.GrantPromoCommand{
		SubjectKey: key,
		Until:      promoUntil,
	}); err != nil {
		return fmt.Errorf("failed to grant promo access: %w", err)
	}

	fmt.Printf("Promo access granted until %s for %s\n", promoUntil.Format(time.RFC3339), key.String())
	return nil
}
