// Command send-test-email renders the welcome fan-out for a sample member and
// sends it through the configured transport, printing the per recipient result.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"welfare-app-go/internal/app"
	"welfare-app-go/internal/config"
	"welfare-app-go/internal/domain/member"
	"welfare-app-go/internal/domain/notification"
	"welfare-app-go/pkg/logger"
)

func main() {
	var (
		category     = flag.String("category", string(member.CategoryDoctor), "Member category: engineer or doctor")
		memberEmail  = flag.String("member", envOr("TEST_MEMBER_EMAIL", "member-test@example.com"), "Member address")
		nomineeEmail = flag.String("nominee", envOr("TEST_NOMINEE_EMAIL", "nominee-test@example.com"), "Nominee address, empty to skip")
		family1Email = flag.String("family1", envOr("TEST_FAMILY1_EMAIL", "family1-test@example.com"), "First family member address, empty to skip")
		family2Email = flag.String("family2", envOr("TEST_FAMILY2_EMAIL", "family2-test@example.com"), "Second family member address, empty to skip")
		timeout      = flag.Duration("timeout", time.Minute, "Overall send timeout")
	)
	flag.Parse()

	log := logger.NewFromEnv().With("component", "send-test-email")

	cfg, err := config.Load(log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	cat := member.Category(*category)
	if _, ok := member.CategoryFromPath(cat.Path()); !ok {
		fmt.Fprintf(os.Stderr, "unknown category %q\n", *category)
		os.Exit(2)
	}

	sample := member.Member{
		ID:            "test-member",
		Category:      cat,
		Name:          "Test " + cat.Title(),
		Email:         *memberEmail,
		Nominee:       member.Nominee{Name: "Nominee Test", Email: *nomineeEmail},
		FamilyMember1: member.FamilyMember{Name: "Family One", Email: *family1Email},
		FamilyMember2: member.FamilyMember{Name: "Family Two", Email: *family2Email},
	}

	envelopes, err := notification.WelcomeEnvelopes(sample)
	if err != nil {
		log.InternalError("render welcome envelopes", err)
		os.Exit(1)
	}

	sender, err := app.NewSender(cfg.Email, log)
	if err != nil {
		log.InternalError("build sender", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	fanout := notification.NewFanout(sender, cfg.Email.From, log, nil)
	results, err := fanout.Deliver(ctx, envelopes)
	for _, envelope := range envelopes {
		fmt.Printf("%-14s %-40s delivered=%t\n", envelope.Role, envelope.To, results[envelope.Role])
	}
	if err != nil {
		log.Error("some deliveries failed", "err", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
