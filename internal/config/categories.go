package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/bilgisen/newshub/internal/models"
)

var marketKeywords = []string{"ai", "nvidia", "tesla", "semiconductor", "chip", "robot", "musk"}

// DefaultCategories is the board used when no categories file is configured.
func DefaultCategories() []models.Category {
	return []models.Category{
		{
			Name:   "AI & Tech",
			Kind:   models.KindSearch,
			Query:  `AI OR Semiconductor OR NVIDIA OR Tesla OR Robot OR "Elon Musk"`,
			Window: models.Duration(models.DefaultWindow(models.KindSearch)),
			Limit:  30,
		},
		{
			Name:   "Semiconductor",
			Kind:   models.KindSearch,
			Query:  `Semiconductor OR TSMC OR "SK hynix" OR Samsung chip`,
			Window: models.Duration(models.DefaultWindow(models.KindSearch)),
			Limit:  30,
		},
		{
			Name: "Tech Feeds",
			Kind: models.KindFeeds,
			Feeds: []string{
				"https://techcrunch.com/feed/",
				"https://www.theverge.com/rss/index.xml",
			},
			Window: models.Duration(models.DefaultWindow(models.KindFeeds)),
			Limit:  30,
		},
		{
			Name:        "Market",
			Kind:        models.KindAPI,
			APICategory: "general",
			Window:      models.Duration(models.DefaultWindow(models.KindAPI)),
			Keywords:    append([]string(nil), marketKeywords...),
			Limit:       30,
		},
	}
}

// LoadCategories reads categories from path, or returns the defaults when
// path is empty. The result is validated.
func LoadCategories(path string) ([]models.Category, error) {
	if path == "" {
		return DefaultCategories(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read categories file: %w", err)
	}

	var categories []models.Category
	if err := json.Unmarshal(data, &categories); err != nil {
		return nil, fmt.Errorf("failed to parse categories file %s: %w", path, err)
	}

	if err := ValidateCategories(categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// ValidateCategories applies default windows and lower-cases keywords, then
// checks every category. Names must be unique.
func ValidateCategories(categories []models.Category) error {
	if len(categories) == 0 {
		return errors.New("at least one category is required")
	}

	seen := make(map[string]bool, len(categories))
	var errs []error
	for i := range categories {
		cat := &categories[i]
		cat.Name = strings.TrimSpace(cat.Name)
		if cat.Window == 0 {
			cat.Window = models.Duration(models.DefaultWindow(cat.Kind))
		}
		for j, kw := range cat.Keywords {
			cat.Keywords[j] = strings.ToLower(strings.TrimSpace(kw))
		}

		if err := validate.Struct(cat); err != nil {
			errs = append(errs, fmt.Errorf("category %d (%q): %s", i, cat.Name, describe(err)))
			continue
		}
		if seen[cat.Name] {
			errs = append(errs, fmt.Errorf("category %d: duplicate name %q", i, cat.Name))
		}
		seen[cat.Name] = true
	}
	return errors.Join(errs...)
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}
