package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/angelmondragon/shopfront-backend/internal/catalog"
	"github.com/angelmondragon/shopfront-backend/internal/users"
)

// SeedPassword is the password every seeded customer gets.
const SeedPassword = "ShopfrontSeed1!"

// SeedOptions control how much demo data the seeder writes.
type SeedOptions struct {
	Categories          int
	ProductsPerCategory int
	Users               int
	Seed                uint64
}

// SeedReport counts what the seeder created.
type SeedReport struct {
	Categories int `json:"categories"`
	Products   int `json:"products"`
	Users      int `json:"users"`
}

type userRegistrar interface {
	Register(ctx context.Context, input users.RegisterInput) (*users.UserDTO, error)
}

// Seeder writes fake catalog and customer data through the domain services,
// so seeded rows pass the same validation as real ones.
type Seeder struct {
	catalog catalogWriter
	users   userRegistrar
}

func NewSeeder(catalog catalogWriter, users userRegistrar) *Seeder {
	return &Seeder{catalog: catalog, users: users}
}

func (s *Seeder) Run(ctx context.Context, opts SeedOptions) (*SeedReport, error) {
	faker := gofakeit.New(opts.Seed)
	titleCase := cases.Title(language.English)
	report := &SeedReport{}

	for c := 0; c < opts.Categories; c++ {
		active := true
		category, err := s.catalog.CreateCategory(ctx, catalog.CategoryInput{
			Name:        fmt.Sprintf("%s %d", titleCase.String(faker.ProductCategory()), c+1),
			Description: faker.Sentence(8),
			IsActive:    &active,
		})
		if err != nil {
			return report, fmt.Errorf("seed category: %w", err)
		}
		report.Categories++

		for p := 0; p < opts.ProductsPerCategory; p++ {
			price := decimal.NewFromFloat(faker.Price(5, 500)).Round(2)
			var compareAt *decimal.Decimal
			if faker.Bool() {
				v := price.Mul(decimal.NewFromFloat(1.25)).Round(2)
				compareAt = &v
			}
			_, err := s.catalog.CreateProduct(ctx, catalog.ProductInput{
				CategoryID:       category.ID,
				Name:             faker.ProductName(),
				SKU:              fmt.Sprintf("SEED-%d-%04d-%s", c+1, p+1, strings.ToUpper(faker.LetterN(4))),
				Description:      faker.Paragraph(2, 3, 10, " "),
				ShortDescription: faker.Sentence(10),
				Price:            price,
				CompareAtPrice:   compareAt,
				Quantity:         faker.Number(0, 80),
				Brand:            faker.Company(),
				Color:            faker.Color(),
				IsFeatured:       faker.Number(1, 5) == 1,
				IsNew:            faker.Bool(),
			})
			if err != nil {
				return report, fmt.Errorf("seed product: %w", err)
			}
			report.Products++
		}
	}

	for u := 0; u < opts.Users; u++ {
		first, last := faker.FirstName(), faker.LastName()
		_, err := s.users.Register(ctx, users.RegisterInput{
			Email:     fmt.Sprintf("%s.%s.%d@example.com", strings.ToLower(first), strings.ToLower(last), u+1),
			Password:  SeedPassword,
			FirstName: first,
			LastName:  last,
		})
		if err != nil {
			return report, fmt.Errorf("seed user: %w", err)
		}
		report.Users++
	}
	return report, nil
}

func newSeedCommand() *cobra.Command {
	opts := SeedOptions{}
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill the database with fake categories, products and customers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			env := envFrom(cmd)
			report, err := NewSeeder(env.Catalog, env.Users).Run(cmd.Context(), opts)
			if report != nil {
				if perr := printJSON(cmd.OutOrStdout(), report); perr != nil && err == nil {
					err = perr
				}
			}
			return err
		},
	}
	cmd.Flags().IntVar(&opts.Categories, "categories", 5, "categories to create")
	cmd.Flags().IntVar(&opts.ProductsPerCategory, "products", 10, "products per category")
	cmd.Flags().IntVar(&opts.Users, "users", 10, "customer accounts to create")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 0, "random seed; 0 picks a random one")
	return cmd
}
