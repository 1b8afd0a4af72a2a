// Command portal is a terminal captive-portal client: it lists the
// hotspot plans, prompts for an M-Pesa phone number, fires the payment
// and waits for the push to be confirmed or rejected.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/hotspotpay/captive-portal/internal/config"
	"github.com/hotspotpay/captive-portal/internal/domain/model"
	"github.com/hotspotpay/captive-portal/internal/flow"
	"github.com/hotspotpay/captive-portal/internal/phone"
	"github.com/hotspotpay/captive-portal/internal/portal"
)

type outcome int

const (
	outcomeSuccess outcome = iota
	outcomeRetry
	outcomeQuit
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	client := portal.NewClient(cfg.Portal.BaseURL, cfg.Portal.RequestTimeout(), logger)
	normalizer := phone.NewNormalizer(cfg.Service.CountryCode)

	ctx := context.Background()

	plans, err := client.ListPlans(ctx)
	if err != nil {
		logger.Fatal("Failed to load plans", zap.Error(err))
	}
	if len(plans) == 0 {
		fmt.Println("No plans are available right now, please try again later.")
		return
	}

	gardens, err := client.ListWalledGardens(ctx)
	if err != nil {
		logger.Warn("Failed to load walled gardens", zap.Error(err))
	}

	f := flow.New(client, normalizer, flow.Config{
		PollInterval:    cfg.Portal.PollInterval(),
		MaxPollAttempts: cfg.Portal.MaxPollAttempts,
	}, logger)

	// The observer fires on every state change; the processing wait below
	// listens for the terminal ones.
	events := make(chan flow.Event, 8)
	f.SetObserver(func(ev flow.Event) {
		select {
		case events <- ev:
		default:
		}
	})

	in := bufio.NewScanner(os.Stdin)
	fmt.Println("Welcome to the hotspot. The following sites are free to browse:")
	for _, g := range gardens {
		fmt.Printf("  - %s\n", g.Domain)
	}
	fmt.Println()

	for {
		plan := promptPlan(in, plans)
		if plan == nil {
			return
		}
		if err := f.SelectPlan(plan); err != nil {
			logger.Fatal("Failed to select plan", zap.Error(err))
		}

		switch runPayment(ctx, f, in, events) {
		case outcomeSuccess:
			tx := f.Transaction()
			fmt.Println()
			fmt.Println("Payment received, you are now connected.")
			if tx != nil && tx.Receipt != nil {
				fmt.Printf("M-Pesa receipt: %s\n", *tx.Receipt)
			}
			return
		case outcomeRetry:
			// Retry clears the plan, phone and transaction; the loop
			// starts over from plan selection.
			if err := f.Retry(); err != nil {
				logger.Fatal("Failed to reset payment flow", zap.Error(err))
			}
			fmt.Println()
		case outcomeQuit:
			return
		}
	}
}

func promptPlan(in *bufio.Scanner, plans []*model.Plan) *model.Plan {
	fmt.Println("Available plans:")
	for i, p := range plans {
		fmt.Printf("  %d) %s - KES %d (%s)\n", i+1, p.Name, p.Price, p.Description)
	}
	for {
		fmt.Print("Choose a plan (q to quit): ")
		if !in.Scan() {
			return nil
		}
		answer := strings.TrimSpace(in.Text())
		if strings.EqualFold(answer, "q") {
			return nil
		}
		idx, err := strconv.Atoi(answer)
		if err != nil || idx < 1 || idx > len(plans) {
			fmt.Println("Please enter one of the listed numbers.")
			continue
		}
		return plans[idx-1]
	}
}

// runPayment drives one payment attempt to a terminal state.
func runPayment(ctx context.Context, f *flow.Flow, in *bufio.Scanner, events chan flow.Event) outcome {
	for {
		fmt.Print("Enter your M-Pesa phone number: ")
		if !in.Scan() {
			return outcomeQuit
		}

		if err := f.SubmitPhone(ctx, strings.TrimSpace(in.Text())); err != nil {
			fmt.Printf("Could not start the payment: %v\n", err)
			continue
		}

		fmt.Println("Check your phone and enter your M-Pesa PIN...")

		for ev := range events {
			switch ev.State {
			case flow.StateSuccess:
				return outcomeSuccess
			case flow.StateFailed:
				if ev.Err != nil {
					fmt.Printf("Payment failed: %v\n", ev.Err)
				} else {
					fmt.Println("Payment failed.")
				}
				fmt.Print("Try again? (y/n): ")
				if in.Scan() && strings.EqualFold(strings.TrimSpace(in.Text()), "y") {
					return outcomeRetry
				}
				return outcomeQuit
			}
		}
		return outcomeQuit
	}
}
