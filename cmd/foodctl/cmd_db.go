package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"foodorder/internal/app"
	"foodorder/internal/config"
	"foodorder/internal/model"
	"foodorder/internal/repository"
)

// SeedFood is one catalog entry in a seed file.
type SeedFood struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Image       string          `json:"image"`
}

var (
	seedFile string
	seedURL  string
)

// foodctl seed --file foods.json | --url https://...
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load catalog items from a JSON file or URL, skipping names that already exist",
	RunE: func(cmd *cobra.Command, args []string) error {
		if (seedFile == "") == (seedURL == "") {
			return fmt.Errorf("exactly one of --file or --url is required")
		}
		ctx := cmd.Context()

		raw, err := readSeed(ctx, seedFile, seedURL)
		if err != nil {
			return err
		}
		var items []SeedFood
		if err := json.Unmarshal(raw, &items); err != nil {
			return fmt.Errorf("decode seed data: %w", err)
		}

		stores, err := app.OpenStores(ctx, config.Load())
		if err != nil {
			return err
		}
		defer stores.Close(context.Background())

		created, skipped, err := seedFoods(ctx, stores.Foods, items)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "seeded %d items, skipped %d\n", created, skipped)
		return nil
	},
}

// foodctl create-admin <email>
var createAdminCmd = &cobra.Command{
	Use:   "create-admin <email>",
	Short: "Grant the admin role to an existing user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		stores, err := app.OpenStores(ctx, config.Load())
		if err != nil {
			return err
		}
		defer stores.Close(context.Background())

		user, err := promote(ctx, stores.Users, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s is now an admin\n", user.Email)
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedFile, "file", "", "path to a JSON array of foods")
	seedCmd.Flags().StringVar(&seedURL, "url", "", "URL serving a JSON array of foods")
}

func readSeed(ctx context.Context, file, url string) ([]byte, error) {
	if file != "" {
		return os.ReadFile(file)
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch seed data: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch seed data: status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func seedFoods(ctx context.Context, repo repository.FoodRepository, items []SeedFood) (created, skipped int, err error) {
	existing, err := repo.List(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("list foods: %w", err)
	}
	names := make(map[string]struct{}, len(existing))
	for _, f := range existing {
		names[strings.ToLower(f.Name)] = struct{}{}
	}

	for _, item := range items {
		name := strings.TrimSpace(item.Name)
		if name == "" || !item.Price.IsPositive() {
			slog.Warn("skipping invalid seed item", "name", item.Name, "price", item.Price.String())
			skipped++
			continue
		}
		if _, ok := names[strings.ToLower(name)]; ok {
			skipped++
			continue
		}
		food := &model.Food{
			Name:        name,
			Description: item.Description,
			Price:       item.Price,
			Category:    item.Category,
			Image:       item.Image,
		}
		if err := repo.Create(ctx, food); err != nil {
			return created, skipped, fmt.Errorf("create %q: %w", name, err)
		}
		names[strings.ToLower(name)] = struct{}{}
		created++
	}
	return created, skipped, nil
}

func promote(ctx context.Context, users repository.UserRepository, email string) (*model.User, error) {
	user, err := users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", email, err)
	}
	if err := users.SetRole(ctx, user.ID, model.RoleAdmin); err != nil {
		return nil, fmt.Errorf("set role: %w", err)
	}
	user.Role = model.RoleAdmin
	return user, nil
}
