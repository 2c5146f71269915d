package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ngantchou/warap-ai-sub004/app"
	"github.com/ngantchou/warap-ai-sub004/config"
	"github.com/ngantchou/warap-ai-sub004/core/dispatch"
	"github.com/ngantchou/warap-ai-sub004/core/model"
	"github.com/ngantchou/warap-ai-sub004/infra/logger"
)

var (
	reqService     string
	reqLocation    string
	reqDescription string
	reqAddress     string
	reqSeedDemo    bool
)

var requestCmd = &cobra.Command{
	Use:   "request",
	Short: "Inject a test service request",
	RunE:  dispatchRequest,
}

func init() {
	requestCmd.Flags().StringVar(&reqService, "service", "plomberie", "requested service type")
	requestCmd.Flags().StringVar(&reqLocation, "location", "Bonamoussadi", "free-text location")
	requestCmd.Flags().StringVar(&reqDescription, "description", "fuite d'eau", "problem description")
	requestCmd.Flags().StringVar(&reqAddress, "address", "237699000000", "requester gateway address")
	requestCmd.Flags().BoolVar(&reqSeedDemo, "seed-demo", true, "seed the in-memory store with the demo provider pool")
	rootCmd.AddCommand(requestCmd)
}

func dispatchRequest(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	logg := logger.New("request-command")
	defer func() {
		if err := svc.Close(); err != nil {
			logg.Errorf("service close: %v", err)
		}
	}()
	go func() {
		if err := svc.Run(ctx); err != nil {
			logg.Errorf("service run: %v", err)
		}
	}()

	if reqSeedDemo {
		seedDemoPool(svc)
	}

	req := model.Request{
		ID:               uuid.NewString(),
		ServiceType:      reqService,
		Location:         reqLocation,
		Description:      reqDescription,
		Urgency:          "normal",
		RequesterAddress: reqAddress,
		Status:           model.StatusPending,
		CreatedAt:        time.Now(),
	}
	svc.Store.PutRequest(req)

	logg.Infof("dispatching request %s (%s, %s)", req.ID, req.ServiceType, req.Location)
	out, err := svc.Manager.Dispatch(ctx, req)
	if err != nil {
		return fmt.Errorf("dispatch: %w", err)
	}
	switch out.Kind {
	case dispatch.OutcomeAssigned:
		logg.Infof("request %s assigned to provider %s after %d attempt(s)", req.ID, out.ProviderID, out.Attempts)
	default:
		logg.Warnf("request %s not assigned: %s after %d attempt(s)", req.ID, out.Kind, out.Attempts)
	}
	return nil
}

// seedDemoPool loads a small Douala provider pool so the command can be
// exercised against a broker without a live registry.
func seedDemoPool(svc *app.Service) {
	for _, p := range []model.Provider{
		{
			ID:              "prov-plombier-1",
			Name:            "Jean Plomberie",
			ServicesOffered: []string{"plomberie"},
			CoverageAreas:   []string{"bonamoussadi", "makepe"},
			IsActive:        true,
			IsAvailable:     true,
			Rating:          4.6,
			TotalJobs:       32,
			Address:         "237650000001",
		},
		{
			ID:              "prov-multi-1",
			Name:            "Services Rapides Douala",
			ServicesOffered: []string{"plomberie", "electricite", "menage"},
			CoverageAreas:   []string{"akwa", "bonamoussadi"},
			IsActive:        true,
			IsAvailable:     true,
			Rating:          3.8,
			TotalJobs:       54,
			Address:         "237650000002",
		},
		{
			ID:              "prov-electricien-1",
			Name:            "Electricité Bepanda",
			ServicesOffered: []string{"electricite"},
			CoverageAreas:   []string{"bepanda", "deido"},
			IsActive:        true,
			IsAvailable:     true,
			Rating:          4.2,
			TotalJobs:       18,
			Address:         "237650000003",
		},
	} {
		svc.Store.PutProvider(p)
	}
}
