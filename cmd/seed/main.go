package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/example/perfumery/pkg/auth"
	"github.com/example/perfumery/pkg/config"
	"github.com/example/perfumery/pkg/logger"
	"github.com/example/perfumery/pkg/models"
	"github.com/example/perfumery/pkg/repository"
	"go.uber.org/zap"
)

func stock(n int) *int { return &n }

func catalog() []models.Product {
	return []models.Product{
		{
			Name:        "Rose Taifi",
			Description: "Damask rose from the Taif highlands over a soft musk base.",
			Variants: []models.Variant{
				{Size: "12ml", Price: 39.99, Stock: stock(40)},
				{Size: "25ml", Price: 59.99, Stock: stock(25)},
			},
			Category: "floral",
			Tags:     []string{"rose", "musk", "bestseller"},
			Featured: true,
			Image:    "/images/rose-taifi.jpg",
		},
		{
			Name:        "Oud Royale",
			Description: "Aged Cambodian oud with saffron and leather.",
			Variants: []models.Variant{
				{Size: "50ml", Price: 89.00, Stock: stock(15)},
				{Size: "100ml", Price: 149.00, Stock: stock(10)},
			},
			Category: "woody",
			Tags:     []string{"oud", "saffron"},
			Featured: true,
			Image:    "/images/oud-royale.jpg",
		},
		{
			Name:        "Amber Nights",
			Description: "Warm amber, vanilla and benzoin.",
			Variants: []models.Variant{
				{Size: "30ml", Price: 24.50},
				{Size: "100ml", Price: 59.90},
			},
			Category: "oriental",
			Tags:     []string{"amber", "vanilla"},
			Image:    "/images/amber-nights.jpg",
		},
		{
			Name:        "Citrus Musk",
			Description: "Bergamot and neroli over white musk.",
			Variants: []models.Variant{
				{Size: "50ml", Price: 29.99, Stock: stock(60)},
			},
			Category: "fresh",
			Tags:     []string{"citrus", "musk"},
			Image:    "/images/citrus-musk.jpg",
		},
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	cfg, err := config.Load(getenv("SHOP_CONFIG", "config/config.yaml"))
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic(fmt.Sprintf("Failed to create logger: %v", err))
	}
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	mongoRepo, err := repository.NewMongoRepository(&cfg.MongoDB)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer mongoRepo.Close(context.Background())

	if err := mongoRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal("Failed to create indexes", zap.Error(err))
	}

	db := mongoRepo.Database()
	if err := seedCatalog(ctx, repository.NewProductRepository(db), log); err != nil {
		log.Fatal("Failed to seed catalog", zap.Error(err))
	}

	admin := &models.User{
		Name:  "Store Admin",
		Email: getenv("SHOP_SEED_ADMIN_EMAIL", "admin@perfumery.local"),
		Role:  models.RoleAdmin,
	}
	if err := seedAdmin(ctx, repository.NewUserRepository(db), admin, getenv("SHOP_SEED_ADMIN_PASSWORD", "change-me-now"), log); err != nil {
		log.Fatal("Failed to seed admin", zap.Error(err))
	}

	log.Info("Seed complete")
}

// seedCatalog only runs against an empty products collection.
func seedCatalog(ctx context.Context, products *repository.ProductRepository, log *zap.Logger) error {
	existing, err := products.List(ctx, repository.ProductFilter{Page: repository.Page{Limit: 1}})
	if err != nil {
		return err
	}
	if existing.Total > 0 {
		log.Info("Catalog already populated, skipping", zap.Int64("products", existing.Total))
		return nil
	}

	for _, p := range catalog() {
		p := p
		if err := products.Insert(ctx, &p); err != nil {
			return fmt.Errorf("failed to insert %s: %w", p.Name, err)
		}
		log.Info("Product inserted", zap.String("name", p.Name), zap.String("id", p.ID.Hex()))
	}
	return nil
}

func seedAdmin(ctx context.Context, users *repository.UserRepository, admin *models.User, password string, log *zap.Logger) error {
	_, err := users.GetByEmail(ctx, admin.Email)
	if err == nil {
		log.Info("Admin already exists, skipping", zap.String("email", admin.Email))
		return nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	admin.PasswordHash, err = auth.HashPassword(password)
	if err != nil {
		return err
	}
	if err := users.Insert(ctx, admin); err != nil {
		return err
	}
	log.Info("Admin user created", zap.String("email", admin.Email))
	return nil
}
