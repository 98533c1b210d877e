// Command seed installs the default governance rules and optionally
// additional rules from a YAML file. Safe to run repeatedly: existing
// (axis, action) pairs are skipped.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/codegate/api/internal/app"
	"github.com/codegate/api/internal/config"
	"github.com/codegate/api/internal/infra/postgres"
	"github.com/codegate/api/pkg/domain/governance"
	"github.com/codegate/api/pkg/domain/trust"
	"github.com/codegate/api/pkg/logger"
)

// ruleFile is the YAML shape for additional governance rules.
type ruleFile struct {
	Rules []ruleSpec `yaml:"rules"`
}

type ruleSpec struct {
	Axis        string  `yaml:"axis"`
	Operator    string  `yaml:"operator"`
	Threshold   float64 `yaml:"threshold"`
	Action      string  `yaml:"action"`
	Description string  `yaml:"description"`
}

func main() {
	rulesPath := flag.String("rules", "", "Optional YAML file with additional governance rules")
	flag.Parse()

	os.Exit(run(*rulesPath))
}

func run(rulesPath string) int {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		return 1
	}

	log := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	db, err := postgres.New(&cfg.Database)
	if err != nil {
		fmt.Printf("Error connecting to database: %v\n", err)
		return 1
	}
	defer db.Close()
	fmt.Println("Connected to database")

	ruleRepo := postgres.NewGovernanceRuleRepository(db)
	service := app.NewGovernanceService(
		ruleRepo,
		postgres.NewRadarRepository(db),
		postgres.NewScanRepository(db),
		postgres.NewFindingRepository(db),
		log,
	)

	created, err := service.SeedDefaults(ctx)
	if err != nil {
		fmt.Printf("Error seeding default rules: %v\n", err)
		return 1
	}
	fmt.Printf("Installed %d default rule(s)\n", created)

	if rulesPath != "" {
		extra, err := seedFromFile(ctx, ruleRepo, rulesPath)
		if err != nil {
			fmt.Printf("Error seeding rules from %s: %v\n", rulesPath, err)
			return 1
		}
		fmt.Printf("Installed %d rule(s) from %s\n", extra, rulesPath)
	}

	fmt.Println("Seed completed successfully")
	return 0
}

// seedFromFile installs the rules listed in the YAML file, skipping any
// (axis, action) pair that already exists.
func seedFromFile(ctx context.Context, repo governance.Repository, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read rules file: %w", err)
	}

	var file ruleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return 0, fmt.Errorf("parse rules file: %w", err)
	}

	created := 0
	for i, spec := range file.Rules {
		rule, err := governance.NewRule(
			trust.Axis(spec.Axis),
			governance.Operator(spec.Operator),
			spec.Threshold,
			governance.Action(spec.Action),
			spec.Description,
		)
		if err != nil {
			return created, fmt.Errorf("rule %d: %w", i, err)
		}

		exists, err := repo.ExistsByAxisAction(ctx, rule.Axis, rule.Action)
		if err != nil {
			return created, err
		}
		if exists {
			continue
		}
		if err := repo.Create(ctx, rule); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}
